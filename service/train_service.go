package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boardsweep/boardsweep/domain"
	"github.com/boardsweep/boardsweep/internal/train"
	"github.com/boardsweep/boardsweep/internal/version"
)

// TrainServiceImpl implements the TrainService interface
type TrainServiceImpl struct {
	repo     domain.WorkItemRepository
	progress domain.ProgressManager
	reporter domain.ErrorReporter
}

// NewTrainService creates a new release-train reconciliation service
func NewTrainService(repo domain.WorkItemRepository) *TrainServiceImpl {
	return &TrainServiceImpl{
		repo:     repo,
		reporter: domain.NoOpErrorReporter{},
	}
}

// NewTrainServiceWithProgress creates a new release-train reconciliation
// service with progress reporting
func NewTrainServiceWithProgress(repo domain.WorkItemRepository, pm domain.ProgressManager) *TrainServiceImpl {
	s := NewTrainService(repo)
	s.progress = pm
	return s
}

// SetErrorReporter routes per-group failures to the given reporter
func (s *TrainServiceImpl) SetErrorReporter(reporter domain.ErrorReporter) {
	if reporter != nil {
		s.reporter = reporter
	}
}

// Reconcile groups backlog items into release trains and ensures each train
// has an aggregate parent linked to all its members. A failed backlog read
// is fatal: the returned response records it alongside the error and no
// group work runs.
func (s *TrainServiceImpl) Reconcile(ctx context.Context, req domain.TrainRequest) (*domain.TrainResponse, error) {
	if s.repo == nil {
		return nil, domain.NewInvalidInputError("no work item repository configured", nil)
	}

	grouper, err := train.NewGrouper(req.TitlePattern, req.ParentTitleFormat)
	if err != nil {
		return nil, domain.NewInvalidInputError("invalid release train grouping settings", err)
	}

	items, err := s.repo.FetchWorkItems(ctx)
	if err != nil {
		err = wrapFetchError(err)
		response := &domain.TrainResponse{
			Summary:     domain.NewTrainSummary(nil, 0, 0, false),
			DryRun:      req.DryRun,
			Errors:      []string{err.Error()},
			GeneratedAt: time.Now().Format(time.RFC3339),
			Version:     version.Version,
			Config:      s.buildConfigForResponse(req),
		}
		return response, err
	}

	groups := grouper.Group(items)
	matched := 0
	for _, group := range groups {
		matched += len(group.Items)
	}

	var task domain.TaskProgress = &NoOpTaskProgress{}
	if s.progress != nil {
		task = s.progress.StartTask("Reconciling release trains", len(groups))
	}
	defer task.Complete()

	operations := make([]domain.TrainOperation, 0, len(groups))
	for _, group := range groups {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("release train reconciliation cancelled: %w", ctx.Err())
		default:
		}

		operations = append(operations, s.reconcileGroup(ctx, grouper, group, req.DryRun))
		task.Increment(1)
	}

	return &domain.TrainResponse{
		Operations:  operations,
		Summary:     domain.NewTrainSummary(operations, len(items), matched, true),
		DryRun:      req.DryRun,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
		Config:      s.buildConfigForResponse(req),
	}, nil
}

// reconcileGroup ensures one release train has a parent with every member
// linked. No parent means create-and-link-all; an existing parent gets only
// the missing links. Failures mark this group only.
func (s *TrainServiceImpl) reconcileGroup(ctx context.Context, grouper *train.Grouper, group train.Group, dryRun bool) domain.TrainOperation {
	memberIDs := train.MemberIDs(group.Items)
	operation := domain.TrainOperation{
		GroupKey:    group.Key,
		ParentTitle: grouper.ParentTitle(group.Key),
		MemberIDs:   memberIDs,
	}

	parent, err := s.repo.FindAggregateParent(ctx, group.Key)
	if err != nil {
		return s.failGroup(operation, group.Key, err)
	}

	if parent == nil {
		operation.Action = domain.TrainActionCreated
		operation.NewRelationsAdded = len(memberIDs)
		if dryRun {
			return operation
		}

		parentID, err := s.repo.CreateAggregateParent(ctx, operation.ParentTitle, memberIDs)
		if err != nil {
			return s.failGroup(operation, group.Key, err)
		}
		operation.ParentID = parentID
		return operation
	}

	missing := train.DiffMembers(memberIDs, parent.LinkedItemIDs)

	operation.Action = domain.TrainActionUpdated
	operation.ParentID = parent.ID
	operation.ParentTitle = parent.Title
	operation.NewRelationsAdded = len(missing)
	// Members reflect the parent's membership after linking
	operation.MemberIDs = append(append([]int(nil), parent.LinkedItemIDs...), missing...)

	if dryRun || len(missing) == 0 {
		return operation
	}

	if err := s.repo.AddLinks(ctx, parent.ID, missing); err != nil {
		operation.MemberIDs = memberIDs
		return s.failGroup(operation, group.Key, err)
	}
	return operation
}

// failGroup marks the operation failed and reports the wrapped cause
func (s *TrainServiceImpl) failGroup(operation domain.TrainOperation, groupKey string, err error) domain.TrainOperation {
	wrapped := domain.NewTrainReconcileError(groupKey, err)
	s.reporter.Report(fmt.Sprintf("release train %s", groupKey), wrapped)

	operation.Action = domain.TrainActionFailed
	operation.NewRelationsAdded = 0
	operation.Error = wrapped.Error()
	return operation
}

// buildConfigForResponse builds the configuration section for the response
func (s *TrainServiceImpl) buildConfigForResponse(req domain.TrainRequest) map[string]interface{} {
	return map[string]interface{}{
		"source":              string(req.Source),
		"title_pattern":       req.TitlePattern,
		"parent_title_format": req.ParentTitleFormat,
		"parent_type":         string(req.ParentType),
		"dry_run":             req.DryRun,
	}
}
