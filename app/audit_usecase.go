package app

import (
	"context"
	"fmt"
	"time"

	"github.com/boardsweep/boardsweep/domain"
	servicepkg "github.com/boardsweep/boardsweep/service"
)

// AuditUseCase orchestrates the backlog hygiene audit workflow
type AuditUseCase struct {
	service      domain.HygieneService
	sourceHelper *SourceHelper
}

// NewAuditUseCase creates a new audit use case
func NewAuditUseCase(service domain.HygieneService) *AuditUseCase {
	return &AuditUseCase{
		service:      service,
		sourceHelper: NewSourceHelper(),
	}
}

// Execute performs the complete hygiene audit workflow
func (uc *AuditUseCase) Execute(ctx context.Context, req domain.AuditRequest) (*domain.AuditResponse, error) {
	applyAuditDefaults(&req)

	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	svc, err := uc.resolveService(req)
	if err != nil {
		return nil, err
	}

	return svc.Audit(ctx, req)
}

// resolveService returns the injected service or builds one from the
// configured backlog source
func (uc *AuditUseCase) resolveService(req domain.AuditRequest) (domain.HygieneService, error) {
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

	return servicepkg.NewHygieneService(repo), nil
}

// validateRequest validates the audit request
func (uc *AuditUseCase) validateRequest(req domain.AuditRequest) error {
	if !uc.sourceHelper.IsKnownSource(req.Source) {
		return fmt.Errorf("unknown backlog source: %s", req.Source)
	}

	if req.MinHealthScore < 0 || req.MinHealthScore > 100 {
		return fmt.Errorf("minimum health score must be between 0 and 100")
	}

	if req.MaxConcurrency < 0 {
		return fmt.Errorf("max concurrency cannot be negative")
	}

	return nil
}

// applyAuditDefaults fills unset request fields with the built-in defaults
func applyAuditDefaults(req *domain.AuditRequest) {
	if req.Source == "" {
		req.Source = domain.SourceSnapshot
	}
	if req.OutputFormat == "" {
		req.OutputFormat = domain.OutputFormatText
	}
	if req.SortBy == "" {
		req.SortBy = domain.SortBySeverity
	}

	defaults := domain.DefaultRuleConfig()
	if req.Rules.TitleMinLength <= 0 {
		req.Rules.TitleMinLength = defaults.TitleMinLength
	}
	if len(req.Rules.KnownTypes) == 0 {
		req.Rules.KnownTypes = defaults.KnownTypes
	}
	if len(req.Rules.KnownStates) == 0 {
		req.Rules.KnownStates = defaults.KnownStates
	}
	if len(req.Rules.States.Unstarted) == 0 && len(req.Rules.States.Closed) == 0 {
		req.Rules.States = defaults.States
	}
	if req.Rules.EstimateTolerance <= 0 {
		req.Rules.EstimateTolerance = defaults.EstimateTolerance
	}
}

// AuditUseCaseBuilder provides a builder pattern for creating AuditUseCase
type AuditUseCaseBuilder struct {
	service      domain.HygieneService
	sourceHelper *SourceHelper
}

// NewAuditUseCaseBuilder creates a new builder
func NewAuditUseCaseBuilder() *AuditUseCaseBuilder {
	return &AuditUseCaseBuilder{}
}

// WithService sets the hygiene service
func (b *AuditUseCaseBuilder) WithService(service domain.HygieneService) *AuditUseCaseBuilder {
	b.service = service
	return b
}

// WithSourceHelper sets the source helper
func (b *AuditUseCaseBuilder) WithSourceHelper(helper *SourceHelper) *AuditUseCaseBuilder {
	b.sourceHelper = helper
	return b
}

// Build creates the AuditUseCase with the configured dependencies. A nil
// service means the use case resolves one from configuration per request.
func (b *AuditUseCaseBuilder) Build() (*AuditUseCase, error) {
	uc := &AuditUseCase{
		service:      b.service,
		sourceHelper: b.sourceHelper,
	}

	if uc.sourceHelper == nil {
		uc.sourceHelper = NewSourceHelper()
	}

	return uc, nil
}

// UseCaseOptions provides configuration options for the use cases
type UseCaseOptions struct {
	EnableProgress bool
	MaxConcurrency int
	Timeout        time.Duration
}

// DefaultUseCaseOptions returns default options
func DefaultUseCaseOptions() UseCaseOptions {
	return UseCaseOptions{
		EnableProgress: true,
		MaxConcurrency: 4,
		Timeout:        5 * time.Minute,
	}
}
