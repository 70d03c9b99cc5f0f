package main

import (
	"context"
	"fmt"
	"io"

	"github.com/boardsweep/boardsweep/app"
	"github.com/boardsweep/boardsweep/domain"
	"github.com/boardsweep/boardsweep/internal/config"
	"github.com/boardsweep/boardsweep/service"
	"github.com/spf13/cobra"
)

var (
	swagSource       string
	swagSnapshotPath string
	swagFormat       string
	swagOutputPath   string
	swagShowDetails  bool
	swagTolerance    float64
	swagDryRun       bool
	swagConfigPath   string
)

func swagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swag",
		Short: "Reconcile SWAG estimates between the estimate field and status notes",
		Long: `Work items carry the same SWAG estimate in two places: the numeric
estimate field and a "SWAG: n" prefix on the status notes. These drift apart
when one is edited without the other. The validate subcommand reports
disagreements; the sync subcommand rewrites both places from the
authoritative value.`,
	}

	cmd.AddCommand(swagValidateCmd())
	cmd.AddCommand(swagSyncCmd())

	return cmd
}

func swagValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Report estimate disagreements without changing anything",
		Long: `Compare the estimate field against the status-notes prefix for every
backlog item and report the items where the two disagree.

Examples:
  boardsweep swag validate
  boardsweep swag validate --snapshot backlog.yaml
  boardsweep swag validate --tolerance 0.5 --format json`,
		RunE:          runSwagValidate,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addSwagFlags(cmd)
	return cmd
}

func swagSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Write reconciled estimates back to the tracker",
		Long: `Propagate the authoritative SWAG value into both the estimate field and
the status-notes prefix for every item where they disagree.

Exit codes:
  0 - All updates applied (or none needed)
  1 - One or more updates failed
  2 - Execution error (config, source connection, etc.)

Examples:
  boardsweep swag sync
  boardsweep swag sync --dry-run
  boardsweep swag sync --tolerance 0.1`,
		RunE:          runSwagSync,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addSwagFlags(cmd)
	cmd.Flags().BoolVar(&swagDryRun, "dry-run", false,
		"Report what would change without writing")
	return cmd
}

// addSwagFlags registers the flags shared by validate and sync. Only one
// subcommand runs per invocation, so both can bind the same variables.
func addSwagFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&swagSource, "source", "",
		"Backlog source: azdo, github, snapshot (default from config)")
	cmd.Flags().StringVar(&swagSnapshotPath, "snapshot", "",
		"Backlog snapshot file (implies --source snapshot)")
	cmd.Flags().StringVarP(&swagFormat, "format", "f", "",
		"Output format: text, json, yaml, csv")
	cmd.Flags().StringVarP(&swagOutputPath, "output", "o", "",
		"Output file path (default: stdout)")
	cmd.Flags().BoolVar(&swagShowDetails, "details", false,
		"Show every estimate issue and outcome")
	cmd.Flags().Float64Var(&swagTolerance, "tolerance", -1,
		"Absolute drift allowed before two estimates count as different")
	cmd.Flags().StringVarP(&swagConfigPath, "config", "c", "",
		"Path to config file")
}

func runSwagValidate(cmd *cobra.Command, args []string) error {
	cfg, req, err := loadSwagRequest(cmd)
	if err != nil {
		return err
	}

	pm := service.NewProgressManager(req.OutputFormat == domain.OutputFormatText)
	defer pm.Close()

	useCase, err := buildSwagUseCase(cfg, req, pm)
	if err != nil {
		return err
	}

	response, err := useCase.Validate(context.Background(), *req)
	if err != nil {
		return &AuditExitError{Code: 2, Message: err.Error()}
	}

	return writeSwagReport(response, req)
}

func runSwagSync(cmd *cobra.Command, args []string) error {
	cfg, req, err := loadSwagRequest(cmd)
	if err != nil {
		return err
	}

	pm := service.NewProgressManager(req.OutputFormat == domain.OutputFormatText)
	defer pm.Close()

	useCase, err := buildSwagUseCase(cfg, req, pm)
	if err != nil {
		return err
	}

	response, err := useCase.Sync(context.Background(), *req)
	if err != nil {
		return &AuditExitError{Code: 2, Message: err.Error()}
	}

	if err := writeSwagReport(response, req); err != nil {
		return err
	}

	if response.Summary.UpdateFailures > 0 {
		return &AuditExitError{
			Code:    1,
			Message: fmt.Sprintf("%d estimate updates failed", response.Summary.UpdateFailures),
		}
	}

	return nil
}

// loadSwagRequest loads configuration and applies flag overrides for one
// swag subcommand run
func loadSwagRequest(cmd *cobra.Command) (*config.Config, *domain.SwagRequest, error) {
	cfg, err := config.LoadConfig(swagConfigPath)
	if err != nil {
		return nil, nil, &AuditExitError{Code: 2, Message: fmt.Sprintf("failed to load configuration: %v", err)}
	}

	req := service.ToSwagRequest(cfg)
	req.ConfigPath = swagConfigPath
	req.OutputPath = swagOutputPath
	req.DryRun = swagDryRun

	if cmd.Flags().Changed("source") {
		req.Source = domain.SourceKind(swagSource)
	}
	if cmd.Flags().Changed("snapshot") {
		req.SnapshotPath = swagSnapshotPath
		if !cmd.Flags().Changed("source") {
			req.Source = domain.SourceSnapshot
		}
	}
	if cmd.Flags().Changed("format") {
		req.OutputFormat = domain.OutputFormat(swagFormat)
	}
	if cmd.Flags().Changed("details") {
		req.ShowDetails = swagShowDetails
	}
	if cmd.Flags().Changed("tolerance") {
		req.Tolerance = swagTolerance
	}

	return cfg, req, nil
}

// buildSwagUseCase wires the repository and service for one swag run. Text
// runs also get per-item failures echoed to stderr as they happen.
func buildSwagUseCase(cfg *config.Config, req *domain.SwagRequest, pm domain.ProgressManager) (*app.SwagUseCase, error) {
	repo, err := app.ResolveRepository(app.NewSourceHelper(), req.Source, req.SnapshotPath, cfg, "", "")
	if err != nil {
		return nil, &AuditExitError{Code: 2, Message: err.Error()}
	}

	svc := service.NewSwagServiceWithProgress(repo, pm)
	if req.OutputFormat == domain.OutputFormatText {
		svc.SetErrorReporter(stderrReporter{})
	}

	useCase, err := app.NewSwagUseCaseBuilder().WithService(svc).Build()
	if err != nil {
		return nil, &AuditExitError{Code: 2, Message: err.Error()}
	}
	return useCase, nil
}

func writeSwagReport(response *domain.SwagResponse, req *domain.SwagRequest) error {
	formatter := service.NewSwagFormatter(req.ShowDetails)
	if err := writeReport(req.OutputPath, req.OutputFormat, func(w io.Writer) error {
		return formatter.Write(response, req.OutputFormat, w)
	}); err != nil {
		return &AuditExitError{Code: 2, Message: err.Error()}
	}
	return nil
}
