package app

import (
	"fmt"
	"os"

	"github.com/boardsweep/boardsweep/domain"
	"github.com/boardsweep/boardsweep/internal/azdo"
	"github.com/boardsweep/boardsweep/internal/config"
	"github.com/boardsweep/boardsweep/internal/github"
	"github.com/boardsweep/boardsweep/internal/snapshot"
)

// SourceHelper provides backlog source resolution utilities
type SourceHelper struct{}

// NewSourceHelper creates a new SourceHelper
func NewSourceHelper() *SourceHelper {
	return &SourceHelper{}
}

// IsKnownSource checks if a source kind is one the tool can read from
func (h *SourceHelper) IsKnownSource(source domain.SourceKind) bool {
	switch source {
	case domain.SourceAzureDevOps, domain.SourceGitHub, domain.SourceSnapshot:
		return true
	}
	return false
}

// FileExists checks if a file exists
func (h *SourceHelper) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// LoadConfig loads the effective configuration for a request, falling back
// to discovery and built-in defaults when no explicit path is given
func (h *SourceHelper) LoadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration", err)
	}
	return cfg, nil
}

// ResolveRepository builds the work item repository for the requested source,
// verifying the selection before any network or file access happens.
// parentTitleFormat and parentType fall back to the configured train settings
// when empty.
func ResolveRepository(
	helper *SourceHelper,
	source domain.SourceKind,
	snapshotPath string,
	cfg *config.Config,
	parentTitleFormat string,
	parentType domain.WorkItemType,
) (domain.WorkItemRepository, error) {
	if parentTitleFormat == "" {
		parentTitleFormat = cfg.Trains.ParentTitleFormat
	}
	if parentType == "" {
		parentType = domain.WorkItemType(cfg.Trains.ParentType)
	}

	switch source {
	case domain.SourceSnapshot:
		if snapshotPath == "" {
			snapshotPath = cfg.Source.SnapshotPath
		}
		if snapshotPath == "" {
			return nil, domain.NewInvalidInputError("snapshot source requires a backlog file path", nil)
		}
		exists, err := helper.FileExists(snapshotPath)
		if err != nil {
			return nil, domain.NewSnapshotError(fmt.Sprintf("cannot read snapshot file %s", snapshotPath), err)
		}
		if !exists {
			return nil, domain.NewSnapshotError(fmt.Sprintf("snapshot file does not exist: %s", snapshotPath), nil)
		}
		return snapshot.NewRepository(snapshotPath, parentTitleFormat)

	case domain.SourceAzureDevOps:
		if cfg.AzureDevOps.Organization == "" || cfg.AzureDevOps.Project == "" {
			return nil, domain.NewConfigError("azure_devops.organization and azure_devops.project must be configured", nil)
		}
		return azdo.NewRepository(cfg.AzureDevOps, parentTitleFormat, string(parentType)), nil

	case domain.SourceGitHub:
		if cfg.GitHub.Owner == "" || cfg.GitHub.ProjectNumber <= 0 {
			return nil, domain.NewConfigError("github.owner and github.project_number must be configured", nil)
		}
		return github.NewRepository(cfg.GitHub, parentTitleFormat), nil
	}

	return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown backlog source: %s", source), nil)
}
