package service

import (
	"github.com/boardsweep/boardsweep/domain"
	"github.com/boardsweep/boardsweep/internal/config"
)

// ConfigurationLoaderImpl implements the ConfigurationLoader interface
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads configuration from the specified path
func (c *ConfigurationLoaderImpl) LoadConfig(path string) (*domain.AuditRequest, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}

	return ToAuditRequest(cfg), nil
}

// LoadDefaultConfig loads the default configuration, first checking for a
// discoverable config file in the working tree
func (c *ConfigurationLoaderImpl) LoadDefaultConfig() *domain.AuditRequest {
	cfg, err := config.LoadConfigWithTarget("", "")
	if err == nil {
		return ToAuditRequest(cfg)
	}

	// Fall back to hardcoded default configuration
	return ToAuditRequest(config.DefaultConfig())
}

// MergeConfig merges CLI flags with configuration file
func (c *ConfigurationLoaderImpl) MergeConfig(base *domain.AuditRequest, override *domain.AuditRequest) *domain.AuditRequest {
	// Start with base configuration
	merged := *base

	// Source selection
	if override.Source != "" {
		merged.Source = override.Source
	}
	if override.SnapshotPath != "" {
		merged.SnapshotPath = override.SnapshotPath
	}

	// Output configuration
	if override.OutputFormat != "" {
		merged.OutputFormat = override.OutputFormat
	}
	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}
	if override.OutputPath != "" {
		merged.OutputPath = override.OutputPath
	}
	if override.ShowDetails {
		merged.ShowDetails = override.ShowDetails
	}
	if override.SortBy != "" {
		merged.SortBy = override.SortBy
	}

	// Rule parameters - override if non-zero
	if override.Rules.TitleMinLength > 0 {
		merged.Rules.TitleMinLength = override.Rules.TitleMinLength
	}
	if len(override.Rules.KnownTypes) > 0 {
		merged.Rules.KnownTypes = override.Rules.KnownTypes
	}
	if len(override.Rules.KnownStates) > 0 {
		merged.Rules.KnownStates = override.Rules.KnownStates
	}
	if len(override.Rules.States.Unstarted) > 0 || len(override.Rules.States.Closed) > 0 {
		merged.Rules.States = override.Rules.States
	}
	if override.Rules.EstimateTolerance > 0 {
		merged.Rules.EstimateTolerance = override.Rules.EstimateTolerance
	}

	// Audit options
	if override.MinHealthScore > 0 {
		merged.MinHealthScore = override.MinHealthScore
	}
	if override.ExcludeClosed {
		merged.ExcludeClosed = override.ExcludeClosed
	}

	// Execution options
	if override.Parallel {
		merged.Parallel = override.Parallel
	}
	if override.MaxConcurrency > 0 {
		merged.MaxConcurrency = override.MaxConcurrency
	}

	// Configuration path
	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}

	return &merged
}

// ToAuditRequest converts loaded configuration into a hygiene audit request
func ToAuditRequest(cfg *config.Config) *domain.AuditRequest {
	return &domain.AuditRequest{
		Source:         domain.SourceKind(cfg.Source.Kind),
		SnapshotPath:   cfg.Source.SnapshotPath,
		OutputFormat:   domain.OutputFormat(cfg.Output.Format),
		ShowDetails:    cfg.Output.ShowDetails,
		SortBy:         domain.SortCriteria(cfg.Output.SortBy),
		Rules:          cfg.RuleConfig(),
		MinHealthScore: cfg.Audit.MinHealthScore,
		ExcludeClosed:  cfg.Audit.ExcludeClosed,
		Parallel:       cfg.Performance.Parallel,
		MaxConcurrency: cfg.Performance.EffectiveConcurrency(),
	}
}

// ToSwagRequest converts loaded configuration into an estimate
// reconciliation request
func ToSwagRequest(cfg *config.Config) *domain.SwagRequest {
	return &domain.SwagRequest{
		Source:       domain.SourceKind(cfg.Source.Kind),
		SnapshotPath: cfg.Source.SnapshotPath,
		OutputFormat: domain.OutputFormat(cfg.Output.Format),
		ShowDetails:  cfg.Output.ShowDetails,
		Tolerance:    cfg.Swag.Tolerance,
		States:       cfg.Audit.StateClasses(),
	}
}

// ToTrainRequest converts loaded configuration into a release-train
// reconciliation request
func ToTrainRequest(cfg *config.Config) *domain.TrainRequest {
	return &domain.TrainRequest{
		Source:            domain.SourceKind(cfg.Source.Kind),
		SnapshotPath:      cfg.Source.SnapshotPath,
		TitlePattern:      cfg.Trains.TitlePattern,
		ParentTitleFormat: cfg.Trains.ParentTitleFormat,
		ParentType:        domain.WorkItemType(cfg.Trains.ParentType),
		OutputFormat:      domain.OutputFormat(cfg.Output.Format),
		ShowDetails:       cfg.Output.ShowDetails,
	}
}
