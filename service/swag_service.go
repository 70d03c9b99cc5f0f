package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boardsweep/boardsweep/domain"
	"github.com/boardsweep/boardsweep/internal/swag"
	"github.com/boardsweep/boardsweep/internal/version"
)

// SwagServiceImpl implements the SwagService interface
type SwagServiceImpl struct {
	repo     domain.WorkItemRepository
	progress domain.ProgressManager
	reporter domain.ErrorReporter
}

// NewSwagService creates a new estimate reconciliation service
func NewSwagService(repo domain.WorkItemRepository) *SwagServiceImpl {
	return &SwagServiceImpl{
		repo:     repo,
		reporter: domain.NoOpErrorReporter{},
	}
}

// NewSwagServiceWithProgress creates a new estimate reconciliation service
// with progress reporting
func NewSwagServiceWithProgress(repo domain.WorkItemRepository, pm domain.ProgressManager) *SwagServiceImpl {
	s := NewSwagService(repo)
	s.progress = pm
	return s
}

// SetErrorReporter routes per-item update failures to the given reporter
func (s *SwagServiceImpl) SetErrorReporter(reporter domain.ErrorReporter) {
	if reporter != nil {
		s.reporter = reporter
	}
}

// Validate checks estimate consistency across the backlog without writes
func (s *SwagServiceImpl) Validate(ctx context.Context, req domain.SwagRequest) (*domain.SwagResponse, error) {
	if s.repo == nil {
		return nil, domain.NewInvalidInputError("no work item repository configured", nil)
	}

	items, err := s.repo.FetchWorkItems(ctx)
	if err != nil {
		return nil, wrapFetchError(err)
	}

	var task domain.TaskProgress = &NoOpTaskProgress{}
	if s.progress != nil {
		task = s.progress.StartTask("Validating estimates", len(items))
	}
	defer task.Complete()

	validations := make([]domain.EstimateValidation, 0, len(items))
	summary := domain.SwagSummary{}

	for _, item := range items {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("estimate validation cancelled: %w", ctx.Err())
		default:
		}

		validation := swag.Validate(item, req.States, req.Tolerance)
		validations = append(validations, validation)
		tallyValidation(&summary, validation)
		task.Increment(1)
	}

	return &domain.SwagResponse{
		Validations: validations,
		Summary:     summary,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
		Config:      s.buildConfigForResponse(req),
	}, nil
}

// Sync computes desired estimate values per item and applies them through
// the repository. The numeric field is the source of truth when both sources
// carry a value; the notes value is adopted when the field is empty. Items
// whose field and notes are already canonical are left untouched. With
// DryRun set, outcomes report the would-be updates without writes.
func (s *SwagServiceImpl) Sync(ctx context.Context, req domain.SwagRequest) (*domain.SwagResponse, error) {
	if s.repo == nil {
		return nil, domain.NewInvalidInputError("no work item repository configured", nil)
	}

	items, err := s.repo.FetchWorkItems(ctx)
	if err != nil {
		return nil, wrapFetchError(err)
	}

	var task domain.TaskProgress = &NoOpTaskProgress{}
	if s.progress != nil {
		task = s.progress.StartTask("Syncing estimates", len(items))
	}
	defer task.Complete()

	validations := make([]domain.EstimateValidation, 0, len(items))
	outcomes := make([]domain.SwagOutcome, 0)
	summary := domain.SwagSummary{}

	for _, item := range items {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("estimate sync cancelled: %w", ctx.Err())
		default:
		}

		validation := swag.Validate(item, req.States, req.Tolerance)
		validations = append(validations, validation)
		tallyValidation(&summary, validation)

		if outcome, needed := s.syncItem(ctx, item, req); needed {
			summary.UpdatesNeeded++
			if outcome.Applied {
				summary.UpdatesApplied++
			}
			if outcome.Error != "" {
				summary.UpdateFailures++
			}
			outcomes = append(outcomes, outcome)
		}
		task.Increment(1)
	}

	return &domain.SwagResponse{
		Validations: validations,
		Outcomes:    outcomes,
		Summary:     summary,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
		Config:      s.buildConfigForResponse(req),
	}, nil
}

// syncItem computes the desired estimate for one item and applies it when
// anything deviates from canonical form. A write failure marks the outcome
// and does not stop the batch.
func (s *SwagServiceImpl) syncItem(ctx context.Context, item domain.WorkItem, req domain.SwagRequest) (domain.SwagOutcome, bool) {
	desired, ok := swag.Extract(item)
	if !ok {
		return domain.SwagOutcome{}, false
	}

	fieldNeedsUpdate := swag.NeedsUpdate(item.Swag, desired, req.Tolerance)
	desiredNotes := swag.BuildPrefixedNotes(desired, item.StatusNotes)
	notesNeedUpdate := desiredNotes != item.StatusNotes

	if !fieldNeedsUpdate && !notesNeedUpdate {
		return domain.SwagOutcome{}, false
	}

	outcome := domain.SwagOutcome{
		ItemID:       item.ID,
		ItemTitle:    item.Title,
		Value:        desired,
		FieldUpdated: fieldNeedsUpdate,
		NotesUpdated: notesNeedUpdate,
	}

	if req.DryRun {
		return outcome, true
	}

	if err := s.repo.UpdateEstimate(ctx, item.ID, desired, desiredNotes); err != nil {
		outcome.Error = err.Error()
		s.reporter.Report(fmt.Sprintf("item %d", item.ID), err)
		return outcome, true
	}

	outcome.Applied = true
	return outcome, true
}

// tallyValidation folds one validation into the summary counters
func tallyValidation(summary *domain.SwagSummary, validation domain.EstimateValidation) {
	summary.ItemsProcessed++
	if validation.IsConsistent {
		summary.ConsistentItems++
	} else {
		summary.InconsistentItems++
	}
	for _, issue := range validation.Issues {
		switch issue.Severity {
		case domain.SeverityWarning:
			summary.WarningIssues++
		case domain.SeverityInfo:
			summary.InfoIssues++
		}
	}
}

// buildConfigForResponse builds the configuration section for the response
func (s *SwagServiceImpl) buildConfigForResponse(req domain.SwagRequest) map[string]interface{} {
	return map[string]interface{}{
		"source":    string(req.Source),
		"tolerance": req.Tolerance,
		"dry_run":   req.DryRun,
	}
}
