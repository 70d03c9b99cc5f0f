package app

import (
	"context"
	"fmt"

	"github.com/boardsweep/boardsweep/domain"
	servicepkg "github.com/boardsweep/boardsweep/service"
)

// SwagUseCase orchestrates the estimate reconciliation workflows
type SwagUseCase struct {
	service      domain.SwagService
	sourceHelper *SourceHelper
}

// NewSwagUseCase creates a new estimate reconciliation use case
func NewSwagUseCase(service domain.SwagService) *SwagUseCase {
	return &SwagUseCase{
		service:      service,
		sourceHelper: NewSourceHelper(),
	}
}

// Validate checks estimate consistency across the backlog without writes
func (uc *SwagUseCase) Validate(ctx context.Context, req domain.SwagRequest) (*domain.SwagResponse, error) {
	applySwagDefaults(&req)

	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	svc, err := uc.resolveService(req)
	if err != nil {
		return nil, err
	}

	return svc.Validate(ctx, req)
}

// Sync computes canonical estimate values and writes them back through the
// repository. DryRun requests report the would-be updates without writes.
func (uc *SwagUseCase) Sync(ctx context.Context, req domain.SwagRequest) (*domain.SwagResponse, error) {
	applySwagDefaults(&req)

	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	svc, err := uc.resolveService(req)
	if err != nil {
		return nil, err
	}

	return svc.Sync(ctx, req)
}

// resolveService returns the injected service or builds one from the
// configured backlog source
func (uc *SwagUseCase) resolveService(req domain.SwagRequest) (domain.SwagService, error) {
	if uc.service != nil {
		return uc.service, nil
	}

	cfg, err := uc.sourceHelper.LoadConfig(req.ConfigPath)
	if err != nil {
		return nil, err
	}

	repo, err := ResolveRepository(uc.sourceHelper, req.Source, req.SnapshotPath, cfg, "", "")
	if err != nil {
		return nil, err
	}

	return servicepkg.NewSwagService(repo), nil
}

// validateRequest validates the estimate reconciliation request
func (uc *SwagUseCase) validateRequest(req domain.SwagRequest) error {
	if !uc.sourceHelper.IsKnownSource(req.Source) {
		return fmt.Errorf("unknown backlog source: %s", req.Source)
	}

	if req.Tolerance < 0 {
		return fmt.Errorf("tolerance cannot be negative")
	}

	return nil
}

// applySwagDefaults fills unset request fields with the built-in defaults
func applySwagDefaults(req *domain.SwagRequest) {
	if req.Source == "" {
		req.Source = domain.SourceSnapshot
	}
	if req.OutputFormat == "" {
		req.OutputFormat = domain.OutputFormatText
	}
	if req.Tolerance == 0 {
		req.Tolerance = domain.DefaultEstimateTolerance
	}
	if len(req.States.Unstarted) == 0 && len(req.States.Closed) == 0 {
		req.States = domain.DefaultStateClasses()
	}
}

// SwagUseCaseBuilder provides a builder pattern for creating SwagUseCase
type SwagUseCaseBuilder struct {
	service      domain.SwagService
	sourceHelper *SourceHelper
}

// NewSwagUseCaseBuilder creates a new builder
func NewSwagUseCaseBuilder() *SwagUseCaseBuilder {
	return &SwagUseCaseBuilder{}
}

// WithService sets the estimate reconciliation service
func (b *SwagUseCaseBuilder) WithService(service domain.SwagService) *SwagUseCaseBuilder {
	b.service = service
	return b
}

// WithSourceHelper sets the source helper
func (b *SwagUseCaseBuilder) WithSourceHelper(helper *SourceHelper) *SwagUseCaseBuilder {
	b.sourceHelper = helper
	return b
}

// Build creates the SwagUseCase with the configured dependencies. A nil
// service means the use case resolves one from configuration per request.
func (b *SwagUseCaseBuilder) Build() (*SwagUseCase, error) {
	uc := &SwagUseCase{
		service:      b.service,
		sourceHelper: b.sourceHelper,
	}

	if uc.sourceHelper == nil {
		uc.sourceHelper = NewSourceHelper()
	}

	return uc, nil
}
