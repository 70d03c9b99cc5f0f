package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/boardsweep/boardsweep/domain"
	"github.com/boardsweep/boardsweep/internal/train"
	servicepkg "github.com/boardsweep/boardsweep/service"
)

// TrainUseCase orchestrates the release train reconciliation workflow
type TrainUseCase struct {
	service      domain.TrainService
	sourceHelper *SourceHelper
}

// NewTrainUseCase creates a new release train use case
func NewTrainUseCase(service domain.TrainService) *TrainUseCase {
	return &TrainUseCase{
		service:      service,
		sourceHelper: NewSourceHelper(),
	}
}

// Execute performs the complete release train reconciliation workflow
func (uc *TrainUseCase) Execute(ctx context.Context, req domain.TrainRequest) (*domain.TrainResponse, error) {
	applyTrainDefaults(&req)

	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	svc, err := uc.resolveService(req)
	if err != nil {
		return nil, err
	}

	return svc.Reconcile(ctx, req)
}

// resolveService returns the injected service or builds one from the
// configured backlog source. The repository is resolved with the request's
// parent settings so title lookups agree with what the reconciler creates.
func (uc *TrainUseCase) resolveService(req domain.TrainRequest) (domain.TrainService, error) {
	if uc.service != nil {
		return uc.service, nil
	}

	cfg, err := uc.sourceHelper.LoadConfig(req.ConfigPath)
	if err != nil {
		return nil, err
	}

	repo, err := ResolveRepository(uc.sourceHelper, req.Source, req.SnapshotPath, cfg, req.ParentTitleFormat, req.ParentType)
	if err != nil {
		return nil, err
	}

	return servicepkg.NewTrainService(repo), nil
}

// validateRequest validates the release train request. Pattern compilation
// is left to the grouper; only the fmt contract is checked here.
func (uc *TrainUseCase) validateRequest(req domain.TrainRequest) error {
	if !uc.sourceHelper.IsKnownSource(req.Source) {
		return fmt.Errorf("unknown backlog source: %s", req.Source)
	}

	if !strings.Contains(req.ParentTitleFormat, "%s") {
		return fmt.Errorf("parent title format must contain a %%s placeholder")
	}

	return nil
}

// applyTrainDefaults fills unset request fields with the built-in defaults
func applyTrainDefaults(req *domain.TrainRequest) {
	if req.Source == "" {
		req.Source = domain.SourceSnapshot
	}
	if req.OutputFormat == "" {
		req.OutputFormat = domain.OutputFormatText
	}
	if req.TitlePattern == "" {
		req.TitlePattern = train.DefaultTitlePattern
	}
	if req.ParentTitleFormat == "" {
		req.ParentTitleFormat = train.DefaultParentTitleFormat
	}
	if req.ParentType == "" {
		req.ParentType = domain.WorkItemTypeEpic
	}
}

// TrainUseCaseBuilder provides a builder pattern for creating TrainUseCase
type TrainUseCaseBuilder struct {
	service      domain.TrainService
	sourceHelper *SourceHelper
}

// NewTrainUseCaseBuilder creates a new builder
func NewTrainUseCaseBuilder() *TrainUseCaseBuilder {
	return &TrainUseCaseBuilder{}
}

// WithService sets the release train service
func (b *TrainUseCaseBuilder) WithService(service domain.TrainService) *TrainUseCaseBuilder {
	b.service = service
	return b
}

// WithSourceHelper sets the source helper
func (b *TrainUseCaseBuilder) WithSourceHelper(helper *SourceHelper) *TrainUseCaseBuilder {
	b.sourceHelper = helper
	return b
}

// Build creates the TrainUseCase with the configured dependencies. A nil
// service means the use case resolves one from configuration per request.
func (b *TrainUseCaseBuilder) Build() (*TrainUseCase, error) {
	uc := &TrainUseCase{
		service:      b.service,
		sourceHelper: b.sourceHelper,
	}

	if uc.sourceHelper == nil {
		uc.sourceHelper = NewSourceHelper()
	}

	return uc, nil
}
