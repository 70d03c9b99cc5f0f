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
	reconcileSource       string
	reconcileSnapshotPath string
	reconcilePattern      string
	reconcileParentTitle  string
	reconcileParentType   string
	reconcileFormat       string
	reconcileOutputPath   string
	reconcileShowDetails  bool
	reconcileDryRun       bool
	reconcileConfigPath   string
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Group release-train items under aggregate parent items",
		Long: `Find backlog items whose titles name a release train, group them by
train, and make sure each train has one aggregate parent linked to every
member. Parents are created when missing and extended when members are new;
reruns converge to no changes.

Exit codes:
  0 - Every train reconciled
  1 - One or more trains failed to reconcile
  2 - Execution error (config, source connection, etc.)

Examples:
  # Reconcile the configured backlog source
  boardsweep reconcile

  # Preview without writing
  boardsweep reconcile --dry-run

  # Custom grouping for a different title convention
  boardsweep reconcile --pattern '(?i)sprint\s+(\d+)' --parent-title 'Sprint %s'`,
		RunE:          runReconcile,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&reconcileSource, "source", "",
		"Backlog source: azdo, github, snapshot (default from config)")
	cmd.Flags().StringVar(&reconcileSnapshotPath, "snapshot", "",
		"Backlog snapshot file (implies --source snapshot)")
	cmd.Flags().StringVar(&reconcilePattern, "pattern", "",
		"Regexp extracting the train identifier from item titles")
	cmd.Flags().StringVar(&reconcileParentTitle, "parent-title", "",
		"Format rendering the parent title from the train identifier")
	cmd.Flags().StringVar(&reconcileParentType, "parent-type", "",
		"Work item type created for aggregate parents")
	cmd.Flags().StringVarP(&reconcileFormat, "format", "f", "",
		"Output format: text, json, yaml, csv")
	cmd.Flags().StringVarP(&reconcileOutputPath, "output", "o", "",
		"Output file path (default: stdout)")
	cmd.Flags().BoolVar(&reconcileShowDetails, "details", false,
		"Show member IDs for every train")
	cmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false,
		"Report what would change without writing")
	cmd.Flags().StringVarP(&reconcileConfigPath, "config", "c", "",
		"Path to config file")

	return cmd
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(reconcileConfigPath)
	if err != nil {
		return &AuditExitError{Code: 2, Message: fmt.Sprintf("failed to load configuration: %v", err)}
	}

	req := service.ToTrainRequest(cfg)
	req.ConfigPath = reconcileConfigPath
	req.OutputPath = reconcileOutputPath
	req.DryRun = reconcileDryRun

	if cmd.Flags().Changed("source") {
		req.Source = domain.SourceKind(reconcileSource)
	}
	if cmd.Flags().Changed("snapshot") {
		req.SnapshotPath = reconcileSnapshotPath
		if !cmd.Flags().Changed("source") {
			req.Source = domain.SourceSnapshot
		}
	}
	if cmd.Flags().Changed("pattern") {
		req.TitlePattern = reconcilePattern
	}
	if cmd.Flags().Changed("parent-title") {
		req.ParentTitleFormat = reconcileParentTitle
	}
	if cmd.Flags().Changed("parent-type") {
		req.ParentType = domain.WorkItemType(reconcileParentType)
	}
	if cmd.Flags().Changed("format") {
		req.OutputFormat = domain.OutputFormat(reconcileFormat)
	}
	if cmd.Flags().Changed("details") {
		req.ShowDetails = reconcileShowDetails
	}

	pm := service.NewProgressManager(req.OutputFormat == domain.OutputFormatText)
	defer pm.Close()

	// The repository renders parent titles itself, so it must agree with the
	// request about the title format and parent type
	repo, err := app.ResolveRepository(app.NewSourceHelper(), req.Source, req.SnapshotPath, cfg, req.ParentTitleFormat, req.ParentType)
	if err != nil {
		return &AuditExitError{Code: 2, Message: err.Error()}
	}

	svc := service.NewTrainServiceWithProgress(repo, pm)
	if req.OutputFormat == domain.OutputFormatText {
		svc.SetErrorReporter(stderrReporter{})
	}

	useCase, err := app.NewTrainUseCaseBuilder().WithService(svc).Build()
	if err != nil {
		return &AuditExitError{Code: 2, Message: err.Error()}
	}

	response, err := useCase.Execute(context.Background(), *req)
	if err != nil {
		// A failed backlog read still yields a response recording the error
		if response != nil {
			if werr := writeTrainReport(response, req); werr != nil {
				return werr
			}
		}
		return &AuditExitError{Code: 2, Message: err.Error()}
	}

	if err := writeTrainReport(response, req); err != nil {
		return err
	}

	if response.Summary.TrainsFailed > 0 {
		return &AuditExitError{
			Code:    1,
			Message: fmt.Sprintf("%d release trains failed to reconcile", response.Summary.TrainsFailed),
		}
	}

	return nil
}

func writeTrainReport(response *domain.TrainResponse, req *domain.TrainRequest) error {
	formatter := service.NewTrainFormatter(req.ShowDetails)
	if err := writeReport(req.OutputPath, req.OutputFormat, func(w io.Writer) error {
		return formatter.Write(response, req.OutputFormat, w)
	}); err != nil {
		return &AuditExitError{Code: 2, Message: err.Error()}
	}
	return nil
}
