package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/boardsweep/boardsweep/app"
	"github.com/boardsweep/boardsweep/domain"
	"github.com/boardsweep/boardsweep/internal/config"
	"github.com/boardsweep/boardsweep/internal/constants"
	"github.com/boardsweep/boardsweep/service"
	"github.com/spf13/cobra"
)

var (
	runSelect       []string
	runSource       string
	runSnapshotPath string
	runFormat       string
	runOutputPath   string
	runShowDetails  bool
	runDryRun       bool
	runConfigPath   string
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run audit, estimate validation, and train reconciliation as one batch",
		Long: `Run the selected stages over one backlog source and emit a combined
report. Stages run concurrently up to the configured limit. The swag stage
only validates; use 'boardsweep swag sync' to write estimates back.

Exit codes:
  0 - All stages ran and passed their gates
  1 - A gate failed (health score below minimum or trains failed)
  2 - One or more stages could not run

Examples:
  # Full batch over the configured source
  boardsweep run

  # Audit and trains only
  boardsweep run --select audit,trains

  # Preview train reconciliation inside a batch
  boardsweep run --dry-run

  # One JSON document with every stage report
  boardsweep run --format json`,
		RunE:          runBatch,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringSliceVarP(&runSelect, "select", "s",
		[]string{constants.StageAudit, constants.StageSwag, constants.StageTrains},
		"Stages to run: audit,swag,trains")
	cmd.Flags().StringVar(&runSource, "source", "",
		"Backlog source: azdo, github, snapshot (default from config)")
	cmd.Flags().StringVar(&runSnapshotPath, "snapshot", "",
		"Backlog snapshot file (implies --source snapshot)")
	cmd.Flags().StringVarP(&runFormat, "format", "f", "",
		"Output format: text, json, yaml")
	cmd.Flags().StringVarP(&runOutputPath, "output", "o", "",
		"Output file path (default: stdout)")
	cmd.Flags().BoolVar(&runShowDetails, "details", false,
		"Show per-item breakdowns in every stage report")
	cmd.Flags().BoolVar(&runDryRun, "dry-run", false,
		"Report what train reconciliation would change without writing")
	cmd.Flags().StringVarP(&runConfigPath, "config", "c", "",
		"Path to config file")

	return cmd
}

// batchStage adapts one command stage to domain.ExecutableTask. The run
// closure owns its own repository so stages never share connection state.
type batchStage struct {
	name    string
	enabled bool
	run     func(ctx context.Context) (interface{}, error)
}

func (s *batchStage) Name() string { return s.name }

func (s *batchStage) IsEnabled() bool { return s.enabled }

func (s *batchStage) Execute(ctx context.Context) (interface{}, error) { return s.run(ctx) }

// batchReport is the combined output of one batch run. Stages fill their own
// section; sections for stages that did not run stay null.
type batchReport struct {
	Audit  *domain.AuditResponse `json:"audit,omitempty" yaml:"audit,omitempty"`
	Swag   *domain.SwagResponse  `json:"swag,omitempty" yaml:"swag,omitempty"`
	Trains *domain.TrainResponse `json:"trains,omitempty" yaml:"trains,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(runConfigPath)
	if err != nil {
		return &AuditExitError{Code: 2, Message: fmt.Sprintf("failed to load configuration: %v", err)}
	}

	for _, name := range runSelect {
		switch name {
		case constants.StageAudit, constants.StageSwag, constants.StageTrains:
		default:
			return &AuditExitError{Code: 2, Message: fmt.Sprintf("unknown stage: %s (valid stages: audit, swag, trains)", name)}
		}
	}

	auditReq := service.ToAuditRequest(cfg)
	swagReq := service.ToSwagRequest(cfg)
	trainReq := service.ToTrainRequest(cfg)
	auditReq.ConfigPath = runConfigPath
	swagReq.ConfigPath = runConfigPath
	trainReq.ConfigPath = runConfigPath
	trainReq.DryRun = runDryRun

	if cmd.Flags().Changed("source") {
		source := domain.SourceKind(runSource)
		auditReq.Source, swagReq.Source, trainReq.Source = source, source, source
	}
	if cmd.Flags().Changed("snapshot") {
		auditReq.SnapshotPath, swagReq.SnapshotPath, trainReq.SnapshotPath = runSnapshotPath, runSnapshotPath, runSnapshotPath
		if !cmd.Flags().Changed("source") {
			auditReq.Source, swagReq.Source, trainReq.Source = domain.SourceSnapshot, domain.SourceSnapshot, domain.SourceSnapshot
		}
	}
	if cmd.Flags().Changed("format") {
		format := domain.OutputFormat(runFormat)
		auditReq.OutputFormat, swagReq.OutputFormat, trainReq.OutputFormat = format, format, format
	}
	if cmd.Flags().Changed("details") {
		auditReq.ShowDetails, swagReq.ShowDetails, trainReq.ShowDetails = runShowDetails, runShowDetails, runShowDetails
	}

	format := auditReq.OutputFormat
	switch format {
	case domain.OutputFormatText, domain.OutputFormatJSON, domain.OutputFormatYAML:
	default:
		return &AuditExitError{Code: 2, Message: fmt.Sprintf("combined reports support text, json, and yaml formats, got %s", format)}
	}

	pm := service.NewProgressManager(format == domain.OutputFormatText)
	defer pm.Close()

	report := &batchReport{}
	stages := []domain.ExecutableTask{
		auditStage(cfg, auditReq, report),
		swagStage(cfg, swagReq, report),
		trainsStage(cfg, trainReq, report),
	}

	executor := service.NewParallelExecutorWithProgress(&cfg.Performance, pm)
	execErr := executor.Execute(context.Background(), stages)

	// Write whatever completed even when some stages failed
	if err := writeBatchReport(report, format, runOutputPath, auditReq.SortBy, runShowDetails); err != nil {
		return &AuditExitError{Code: 2, Message: err.Error()}
	}

	if execErr != nil {
		return &AuditExitError{Code: 2, Message: execErr.Error()}
	}

	var gateFailures []string
	if report.Audit != nil && !cfg.Audit.MeetsHealthGate(report.Audit.Summary.HealthScore) {
		gateFailures = append(gateFailures,
			fmt.Sprintf("health score %.1f is below the required %.1f", report.Audit.Summary.HealthScore, cfg.Audit.MinHealthScore))
	}
	if report.Trains != nil && report.Trains.Summary.TrainsFailed > 0 {
		gateFailures = append(gateFailures,
			fmt.Sprintf("%d release trains failed to reconcile", report.Trains.Summary.TrainsFailed))
	}
	if len(gateFailures) > 0 {
		return &AuditExitError{Code: 1, Message: strings.Join(gateFailures, "; ")}
	}

	return nil
}

// auditStage builds the hygiene audit stage of a batch run
func auditStage(cfg *config.Config, req *domain.AuditRequest, report *batchReport) *batchStage {
	return &batchStage{
		name:    constants.StageAudit,
		enabled: stageSelected(constants.StageAudit),
		run: func(ctx context.Context) (interface{}, error) {
			repo, err := app.ResolveRepository(app.NewSourceHelper(), req.Source, req.SnapshotPath, cfg, "", "")
			if err != nil {
				return nil, err
			}
			useCase, err := app.NewAuditUseCaseBuilder().
				WithService(service.NewHygieneService(repo)).
				Build()
			if err != nil {
				return nil, err
			}
			resp, err := useCase.Execute(ctx, *req)
			if resp != nil {
				report.Audit = resp
			}
			return resp, err
		},
	}
}

// swagStage builds the estimate validation stage of a batch run. Batch runs
// never write estimates back.
func swagStage(cfg *config.Config, req *domain.SwagRequest, report *batchReport) *batchStage {
	return &batchStage{
		name:    constants.StageSwag,
		enabled: stageSelected(constants.StageSwag),
		run: func(ctx context.Context) (interface{}, error) {
			repo, err := app.ResolveRepository(app.NewSourceHelper(), req.Source, req.SnapshotPath, cfg, "", "")
			if err != nil {
				return nil, err
			}
			useCase, err := app.NewSwagUseCaseBuilder().
				WithService(service.NewSwagService(repo)).
				Build()
			if err != nil {
				return nil, err
			}
			resp, err := useCase.Validate(ctx, *req)
			if resp != nil {
				report.Swag = resp
			}
			return resp, err
		},
	}
}

// trainsStage builds the release-train reconciliation stage of a batch run
func trainsStage(cfg *config.Config, req *domain.TrainRequest, report *batchReport) *batchStage {
	return &batchStage{
		name:    constants.StageTrains,
		enabled: stageSelected(constants.StageTrains),
		run: func(ctx context.Context) (interface{}, error) {
			repo, err := app.ResolveRepository(app.NewSourceHelper(), req.Source, req.SnapshotPath, cfg, req.ParentTitleFormat, req.ParentType)
			if err != nil {
				return nil, err
			}
			useCase, err := app.NewTrainUseCaseBuilder().
				WithService(service.NewTrainService(repo)).
				Build()
			if err != nil {
				return nil, err
			}
			resp, err := useCase.Execute(ctx, *req)
			if resp != nil {
				report.Trains = resp
			}
			return resp, err
		},
	}
}

// stageSelected reports whether a stage name was picked via --select
func stageSelected(name string) bool {
	for _, s := range runSelect {
		if s == name {
			return true
		}
	}
	return false
}

// writeBatchReport renders the combined report. Text output chains the three
// stage reports; json and yaml encode them as one document.
func writeBatchReport(report *batchReport, format domain.OutputFormat, path string, sortBy domain.SortCriteria, showDetails bool) error {
	return writeReport(path, format, func(w io.Writer) error {
		switch format {
		case domain.OutputFormatJSON:
			return service.WriteJSON(w, report)
		case domain.OutputFormatYAML:
			return service.WriteYAML(w, report)
		case domain.OutputFormatText:
			if report.Audit != nil {
				if err := service.NewAuditFormatter(sortBy, showDetails).Write(report.Audit, format, w); err != nil {
					return err
				}
			}
			if report.Swag != nil {
				if err := service.NewSwagFormatter(showDetails).Write(report.Swag, format, w); err != nil {
					return err
				}
			}
			if report.Trains != nil {
				if err := service.NewTrainFormatter(showDetails).Write(report.Trains, format, w); err != nil {
					return err
				}
			}
			return nil
		default:
			return domain.NewUnsupportedFormatError(string(format))
		}
	})
}
