package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boardsweep/boardsweep/domain"
	"github.com/boardsweep/boardsweep/internal/hygiene"
	"github.com/boardsweep/boardsweep/internal/version"
	"golang.org/x/sync/errgroup"
)

// HygieneServiceImpl implements the HygieneService interface. Rule panics
// are isolated into failed results by the engine, so the audit needs no
// error reporter.
type HygieneServiceImpl struct {
	repo     domain.WorkItemRepository
	progress domain.ProgressManager
}

// NewHygieneService creates a new hygiene service over a work item repository
func NewHygieneService(repo domain.WorkItemRepository) *HygieneServiceImpl {
	return &HygieneServiceImpl{repo: repo}
}

// NewHygieneServiceWithProgress creates a new hygiene service with progress reporting
func NewHygieneServiceWithProgress(repo domain.WorkItemRepository, pm domain.ProgressManager) *HygieneServiceImpl {
	s := NewHygieneService(repo)
	s.progress = pm
	return s
}

// Audit fetches the backlog and evaluates the hygiene rule battery
func (s *HygieneServiceImpl) Audit(ctx context.Context, req domain.AuditRequest) (*domain.AuditResponse, error) {
	if s.repo == nil {
		return nil, domain.NewInvalidInputError("no work item repository configured", nil)
	}

	items, err := s.repo.FetchWorkItems(ctx)
	if err != nil {
		return nil, wrapFetchError(err)
	}

	audited := items
	if req.ExcludeClosed {
		audited = make([]domain.WorkItem, 0, len(items))
		for _, item := range items {
			if !req.Rules.States.IsClosed(item.State) {
				audited = append(audited, item)
			}
		}
	}

	var task domain.TaskProgress = &NoOpTaskProgress{}
	if s.progress != nil {
		task = s.progress.StartTask("Auditing backlog", len(audited))
	}
	defer task.Complete()

	rules := hygiene.Battery()

	var results []domain.CheckResult
	if req.Parallel && len(audited) > 1 {
		results, err = s.evaluateParallel(ctx, audited, rules, req, task)
	} else {
		results, err = s.evaluateSerial(ctx, audited, rules, req, task)
	}
	if err != nil {
		return nil, err
	}

	return &domain.AuditResponse{
		Results:     results,
		Summary:     domain.NewCheckSummary(results, len(audited)),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
		Config:      s.buildConfigForResponse(req),
	}, nil
}

// evaluateSerial runs the battery item by item in input order
func (s *HygieneServiceImpl) evaluateSerial(ctx context.Context, items []domain.WorkItem, rules []hygiene.Rule, req domain.AuditRequest, task domain.TaskProgress) ([]domain.CheckResult, error) {
	results := make([]domain.CheckResult, 0, len(items)*len(rules))
	for _, item := range items {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("hygiene audit cancelled: %w", ctx.Err())
		default:
		}

		results = append(results, hygiene.EvaluateItem(item, rules, req.Rules)...)
		task.Increment(1)
	}
	return results, nil
}

// evaluateParallel fans items out over a bounded errgroup. Per-item results
// are buffered by input index and reassembled in order, so the output is
// identical to a serial run.
func (s *HygieneServiceImpl) evaluateParallel(ctx context.Context, items []domain.WorkItem, rules []hygiene.Rule, req domain.AuditRequest, task domain.TaskProgress) ([]domain.CheckResult, error) {
	buffered := make([][]domain.CheckResult, len(items))

	g, gCtx := errgroup.WithContext(ctx)
	limit := req.MaxConcurrency
	if limit <= 0 {
		limit = DefaultMaxConcurrency
	}
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
			}

			buffered[i] = hygiene.EvaluateItem(item, rules, req.Rules)
			task.Increment(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("hygiene audit cancelled: %w", err)
	}

	results := make([]domain.CheckResult, 0, len(items)*len(rules))
	for _, itemResults := range buffered {
		results = append(results, itemResults...)
	}
	return results, nil
}

// buildConfigForResponse builds the configuration section for the response
func (s *HygieneServiceImpl) buildConfigForResponse(req domain.AuditRequest) map[string]interface{} {
	return map[string]interface{}{
		"source":             string(req.Source),
		"title_min_length":   req.Rules.TitleMinLength,
		"estimate_tolerance": req.Rules.EstimateTolerance,
		"min_health_score":   req.MinHealthScore,
		"exclude_closed":     req.ExcludeClosed,
		"sort_by":            string(req.SortBy),
	}
}

// wrapFetchError keeps adapter-typed errors intact and wraps everything else
// as a fetch failure
func wrapFetchError(err error) error {
	var domainErr domain.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return domain.NewFetchError("failed to read the backlog", err)
}
