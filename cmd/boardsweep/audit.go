package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/boardsweep/boardsweep/app"
	"github.com/boardsweep/boardsweep/domain"
	"github.com/boardsweep/boardsweep/internal/config"
	"github.com/boardsweep/boardsweep/service"
	"github.com/spf13/cobra"
)

// AuditExitError is a custom error type carrying a process exit code
type AuditExitError struct {
	Code    int
	Message string
}

func (e *AuditExitError) Error() string {
	return e.Message
}

var (
	auditSource        string
	auditSnapshotPath  string
	auditFormat        string
	auditOutputPath    string
	auditShowDetails   bool
	auditSortBy        string
	auditMinHealth     float64
	auditExcludeClosed bool
	auditParallel      bool
	auditConfigPath    string
)

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit backlog hygiene against the configured rules",
		Long: `Run the hygiene rule battery over every backlog item and score the result.

Exit codes:
  0 - Health score meets the configured gate
  1 - Health score below the gate
  2 - Execution error (config, source connection, etc.)

Examples:
  # Audit the configured backlog source
  boardsweep audit

  # Audit a snapshot file
  boardsweep audit --snapshot backlog.yaml

  # Gate CI on a perfect backlog
  boardsweep audit --min-health 100

  # JSON output for machine parsing
  boardsweep audit --format json`,
		RunE:          runAudit,
		SilenceUsage:  true, // Don't print usage on errors (we handle our own output)
		SilenceErrors: true, // Don't print error messages (we handle our own output)
	}

	cmd.Flags().StringVar(&auditSource, "source", "",
		"Backlog source: azdo, github, snapshot (default from config)")
	cmd.Flags().StringVar(&auditSnapshotPath, "snapshot", "",
		"Backlog snapshot file (implies --source snapshot)")
	cmd.Flags().StringVarP(&auditFormat, "format", "f", "",
		"Output format: text, json, yaml, csv")
	cmd.Flags().StringVarP(&auditOutputPath, "output", "o", "",
		"Output file path (default: stdout)")
	cmd.Flags().BoolVar(&auditShowDetails, "details", false,
		"Show suggested fixes for each failed check")
	cmd.Flags().StringVar(&auditSortBy, "sort", "",
		"Sort failures by: severity, item, check")
	cmd.Flags().Float64Var(&auditMinHealth, "min-health", -1,
		"Minimum health score required to pass (0 disables the gate)")
	cmd.Flags().BoolVar(&auditExcludeClosed, "exclude-closed", false,
		"Skip items in closed states")
	cmd.Flags().BoolVar(&auditParallel, "parallel", false,
		"Evaluate items concurrently")
	cmd.Flags().StringVarP(&auditConfigPath, "config", "c", "",
		"Path to config file")

	return cmd
}

func runAudit(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(auditConfigPath)
	if err != nil {
		return &AuditExitError{Code: 2, Message: fmt.Sprintf("failed to load configuration: %v", err)}
	}

	req := service.ToAuditRequest(cfg)
	req.ConfigPath = auditConfigPath
	req.OutputPath = auditOutputPath

	// Apply flag values over config for flags explicitly set on the CLI
	if cmd.Flags().Changed("source") {
		req.Source = domain.SourceKind(auditSource)
	}
	if cmd.Flags().Changed("snapshot") {
		req.SnapshotPath = auditSnapshotPath
		if !cmd.Flags().Changed("source") {
			req.Source = domain.SourceSnapshot
		}
	}
	if cmd.Flags().Changed("format") {
		req.OutputFormat = domain.OutputFormat(auditFormat)
	}
	if cmd.Flags().Changed("details") {
		req.ShowDetails = auditShowDetails
	}
	if cmd.Flags().Changed("sort") {
		req.SortBy = domain.SortCriteria(auditSortBy)
	}
	if cmd.Flags().Changed("min-health") {
		req.MinHealthScore = auditMinHealth
		cfg.Audit.MinHealthScore = auditMinHealth
	}
	if cmd.Flags().Changed("exclude-closed") {
		req.ExcludeClosed = auditExcludeClosed
	}
	if cmd.Flags().Changed("parallel") {
		req.Parallel = auditParallel
	}

	// Create progress manager (auto-disabled for structured output or non-TTY)
	pm := service.NewProgressManager(req.OutputFormat == domain.OutputFormatText)
	defer pm.Close()

	repo, err := app.ResolveRepository(app.NewSourceHelper(), req.Source, req.SnapshotPath, cfg, "", "")
	if err != nil {
		return &AuditExitError{Code: 2, Message: err.Error()}
	}

	useCase, err := app.NewAuditUseCaseBuilder().
		WithService(service.NewHygieneServiceWithProgress(repo, pm)).
		Build()
	if err != nil {
		return &AuditExitError{Code: 2, Message: err.Error()}
	}

	response, err := useCase.Execute(context.Background(), *req)
	if err != nil {
		return &AuditExitError{Code: 2, Message: err.Error()}
	}

	formatter := service.NewAuditFormatter(req.SortBy, req.ShowDetails)
	if err := writeReport(req.OutputPath, req.OutputFormat, func(w io.Writer) error {
		return formatter.Write(response, req.OutputFormat, w)
	}); err != nil {
		return &AuditExitError{Code: 2, Message: err.Error()}
	}

	if !cfg.Audit.MeetsHealthGate(response.Summary.HealthScore) {
		return &AuditExitError{
			Code:    1,
			Message: fmt.Sprintf("health score %.1f is below the required %.1f", response.Summary.HealthScore, cfg.Audit.MinHealthScore),
		}
	}

	return nil
}

// writeReport writes a formatted report to the given path, or to stdout when
// the path is empty. For text reports written to a file it prints where the
// report landed; structured formats stay silent so pipelines can parse stdout.
func writeReport(path string, format domain.OutputFormat, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	if format == domain.OutputFormatText {
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}
		fmt.Printf("Report saved to: %s\n", absPath)
	}
	return nil
}

// stderrReporter surfaces per-item failures on stderr as they happen
type stderrReporter struct{}

func (stderrReporter) Report(scope string, err error) {
	fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", scope, err)
}
