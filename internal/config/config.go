package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/boardsweep/boardsweep/domain"
	"github.com/boardsweep/boardsweep/internal/constants"
	"github.com/boardsweep/boardsweep/internal/train"
	"github.com/spf13/viper"
)

// Default thresholds for backlog hygiene and estimate handling
const (
	// DefaultTitleMinLength is the minimum rune count for a descriptive title
	DefaultTitleMinLength = domain.DefaultTitleMinLength

	// DefaultEstimateTolerance is the absolute drift allowed between two
	// estimate values before they count as different
	DefaultEstimateTolerance = domain.DefaultEstimateTolerance

	// DefaultMinHealthScore is the audit gate as a percentage of passed checks
	// 100 means every applicable check must pass
	DefaultMinHealthScore = 100.0
)

// Default connection settings for backlog sources
const (
	// DefaultBaseURL is the Azure DevOps service root
	DefaultBaseURL = "https://dev.azure.com"

	// DefaultAPIVersion is the Azure DevOps REST API version
	DefaultAPIVersion = "7.0"

	// DefaultPATEnv names the environment variable holding the Azure DevOps token
	DefaultPATEnv = "AZDO_PAT"

	// DefaultSwagField is the work item field tracking the rough estimate
	DefaultSwagField = "Microsoft.VSTS.Scheduling.Effort"

	// DefaultNotesField is the work item field holding free-form status notes
	DefaultNotesField = "Custom.StatusNotes"

	// DefaultLinkType is the relation added when linking members under a train parent
	DefaultLinkType = "System.LinkTypes.Hierarchy-Forward"

	// DefaultGitHubTokenEnv names the environment variable holding the GitHub token
	DefaultGitHubTokenEnv = "GITHUB_TOKEN"

	// DefaultGitHubTypeField is the project field naming the work item type
	DefaultGitHubTypeField = "Type"

	// DefaultGitHubStatusField is the project field naming the workflow state
	DefaultGitHubStatusField = "Status"

	// DefaultGitHubSwagField is the project number field tracking the estimate
	DefaultGitHubSwagField = "SWAG"

	// DefaultGitHubNotesField is the project text field holding status notes
	DefaultGitHubNotesField = "Status notes"

	// DefaultHTTPTimeoutSeconds bounds a single request to a backlog source
	DefaultHTTPTimeoutSeconds = 30

	// DefaultRetryMaxElapsedSeconds bounds the retry budget for one source operation
	DefaultRetryMaxElapsedSeconds = 30

	// DefaultMaxConcurrency limits parallel work item evaluation
	DefaultMaxConcurrency = 4

	// DefaultRunTimeoutSeconds bounds a whole command run
	DefaultRunTimeoutSeconds = 300
)

// Config represents the complete configuration for boardsweep
type Config struct {
	// Source selects which backlog the commands read from
	Source SourceConfig `json:"source" mapstructure:"source" yaml:"source"`

	// AzureDevOps holds connection settings for Azure DevOps Boards
	AzureDevOps AzureDevOpsConfig `json:"azureDevops,omitempty" mapstructure:"azure_devops" yaml:"azure_devops"`

	// GitHub holds connection settings for GitHub Projects
	GitHub GitHubConfig `json:"github,omitempty" mapstructure:"github" yaml:"github"`

	// Audit holds backlog hygiene check configuration
	Audit AuditConfig `json:"audit" mapstructure:"audit" yaml:"audit"`

	// Swag holds estimate validation and synchronization configuration
	Swag SwagConfig `json:"swag" mapstructure:"swag" yaml:"swag"`

	// Trains holds release train reconciliation configuration
	Trains TrainsConfig `json:"trains" mapstructure:"trains" yaml:"trains"`

	// Output holds report formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Performance holds parallelism and timeout configuration
	Performance PerformanceConfig `json:"performance,omitempty" mapstructure:"performance" yaml:"performance"`
}

// SourceConfig selects and parameterizes the backlog source
type SourceConfig struct {
	// Kind chooses the backend: azdo, github, snapshot
	Kind string `json:"kind" mapstructure:"kind" yaml:"kind"`

	// SnapshotPath locates the backlog file when Kind is snapshot
	SnapshotPath string `json:"snapshot_path,omitempty" mapstructure:"snapshot_path" yaml:"snapshot_path"`
}

// AzureDevOpsConfig holds connection settings for Azure DevOps Boards
type AzureDevOpsConfig struct {
	// Organization is the Azure DevOps organization name
	Organization string `json:"organization" mapstructure:"organization" yaml:"organization"`

	// Project is the Azure DevOps project name
	Project string `json:"project" mapstructure:"project" yaml:"project"`

	// BaseURL is the service root, overridable for on-premises servers
	BaseURL string `json:"base_url" mapstructure:"base_url" yaml:"base_url"`

	// APIVersion is the REST API version sent with every request
	APIVersion string `json:"api_version" mapstructure:"api_version" yaml:"api_version"`

	// PATEnv names the environment variable holding the personal access token
	// The token itself never lives in the config file
	PATEnv string `json:"pat_env" mapstructure:"pat_env" yaml:"pat_env"`

	// AreaPath restricts queries to a backlog area when set
	AreaPath string `json:"area_path,omitempty" mapstructure:"area_path" yaml:"area_path"`

	// SwagField is the field reference name carrying the rough estimate
	SwagField string `json:"swag_field" mapstructure:"swag_field" yaml:"swag_field"`

	// NotesField is the field reference name carrying status notes
	NotesField string `json:"notes_field" mapstructure:"notes_field" yaml:"notes_field"`

	// LinkType is the relation added between a train parent and its members
	LinkType string `json:"link_type" mapstructure:"link_type" yaml:"link_type"`

	// TimeoutSeconds bounds a single HTTP request
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`

	// RetryMaxElapsedSeconds bounds retries for one operation
	// 0 disables retries
	RetryMaxElapsedSeconds int `json:"retry_max_elapsed_seconds" mapstructure:"retry_max_elapsed_seconds" yaml:"retry_max_elapsed_seconds"`
}

// GitHubConfig holds connection settings for GitHub Projects
type GitHubConfig struct {
	// Owner is the user or organization owning the project
	Owner string `json:"owner" mapstructure:"owner" yaml:"owner"`

	// ProjectNumber identifies the project board under the owner
	ProjectNumber int `json:"project_number" mapstructure:"project_number" yaml:"project_number"`

	// TokenEnv names the environment variable holding the API token
	TokenEnv string `json:"token_env" mapstructure:"token_env" yaml:"token_env"`

	// TrainRepo is the repository under Owner where release train tracking
	// issues are created
	TrainRepo string `json:"train_repo,omitempty" mapstructure:"train_repo" yaml:"train_repo"`

	// TypeField is the project field naming the work item type
	TypeField string `json:"type_field" mapstructure:"type_field" yaml:"type_field"`

	// StatusField is the project field naming the workflow state
	StatusField string `json:"status_field" mapstructure:"status_field" yaml:"status_field"`

	// SwagField is the project number field tracking the rough estimate
	SwagField string `json:"swag_field" mapstructure:"swag_field" yaml:"swag_field"`

	// NotesField is the project text field holding status notes
	NotesField string `json:"notes_field" mapstructure:"notes_field" yaml:"notes_field"`

	// TimeoutSeconds bounds a single API request
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// AuditConfig holds configuration for backlog hygiene checks
type AuditConfig struct {
	// TitleMinLength is the minimum rune count for a descriptive title
	TitleMinLength int `json:"title_min_length" mapstructure:"title_min_length" yaml:"title_min_length"`

	// KnownTypes lists the work item types the process recognizes
	KnownTypes []string `json:"known_types" mapstructure:"known_types" yaml:"known_types"`

	// KnownStates lists the workflow states the process recognizes
	KnownStates []string `json:"known_states" mapstructure:"known_states" yaml:"known_states"`

	// UnstartedStates lists states counting as not yet started
	UnstartedStates []string `json:"unstarted_states" mapstructure:"unstarted_states" yaml:"unstarted_states"`

	// ClosedStates lists states counting as finished
	ClosedStates []string `json:"closed_states" mapstructure:"closed_states" yaml:"closed_states"`

	// MinHealthScore fails the audit command when the score drops below it
	// 0 disables the gate
	MinHealthScore float64 `json:"min_health_score" mapstructure:"min_health_score" yaml:"min_health_score"`

	// ExcludeClosed skips items in closed states during audits
	ExcludeClosed bool `json:"exclude_closed" mapstructure:"exclude_closed" yaml:"exclude_closed"`
}

// SwagConfig holds configuration for estimate validation and synchronization
type SwagConfig struct {
	// Tolerance is the absolute drift allowed before two estimates differ
	Tolerance float64 `json:"tolerance" mapstructure:"tolerance" yaml:"tolerance"`
}

// TrainsConfig holds configuration for release train reconciliation
type TrainsConfig struct {
	// TitlePattern extracts the train identifier from item titles
	// Must contain at least one capture group
	TitlePattern string `json:"title_pattern" mapstructure:"title_pattern" yaml:"title_pattern"`

	// ParentTitleFormat renders the aggregate parent title from the group key
	// Must contain a %s placeholder
	ParentTitleFormat string `json:"parent_title_format" mapstructure:"parent_title_format" yaml:"parent_title_format"`

	// ParentType is the work item type created for aggregate parents
	ParentType string `json:"parent_type" mapstructure:"parent_type" yaml:"parent_type"`
}

// OutputConfig holds configuration for report formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, csv
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// ShowDetails controls whether to show per-item breakdowns
	ShowDetails bool `json:"show_details" mapstructure:"show_details" yaml:"show_details"`

	// SortBy specifies how to sort audit results: severity, item, check
	SortBy string `json:"sort_by" mapstructure:"sort_by" yaml:"sort_by"`
}

// PerformanceConfig holds parallelism and timeout configuration
type PerformanceConfig struct {
	// Parallel enables concurrent work item evaluation
	Parallel bool `json:"parallel" mapstructure:"parallel" yaml:"parallel"`

	// MaxConcurrency caps concurrent evaluations when Parallel is on
	MaxConcurrency int `json:"max_concurrency" mapstructure:"max_concurrency" yaml:"max_concurrency"`

	// TimeoutSeconds bounds a whole command run
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Kind: string(domain.SourceAzureDevOps),
		},
		AzureDevOps: AzureDevOpsConfig{
			BaseURL:                DefaultBaseURL,
			APIVersion:             DefaultAPIVersion,
			PATEnv:                 DefaultPATEnv,
			SwagField:              DefaultSwagField,
			NotesField:             DefaultNotesField,
			LinkType:               DefaultLinkType,
			TimeoutSeconds:         DefaultHTTPTimeoutSeconds,
			RetryMaxElapsedSeconds: DefaultRetryMaxElapsedSeconds,
		},
		GitHub: GitHubConfig{
			TokenEnv:       DefaultGitHubTokenEnv,
			TypeField:      DefaultGitHubTypeField,
			StatusField:    DefaultGitHubStatusField,
			SwagField:      DefaultGitHubSwagField,
			NotesField:     DefaultGitHubNotesField,
			TimeoutSeconds: DefaultHTTPTimeoutSeconds,
		},
		Audit: AuditConfig{
			TitleMinLength: DefaultTitleMinLength,
			KnownTypes: []string{
				string(domain.WorkItemTypeEpic),
				string(domain.WorkItemTypeFeature),
				string(domain.WorkItemTypeUserStory),
				string(domain.WorkItemTypeBug),
				string(domain.WorkItemTypeTask),
			},
			KnownStates: []string{
				string(domain.WorkItemStateNew),
				string(domain.WorkItemStateActive),
				string(domain.WorkItemStateResolved),
				string(domain.WorkItemStateClosed),
				string(domain.WorkItemStateRemoved),
			},
			UnstartedStates: []string{
				string(domain.WorkItemStateNew),
			},
			ClosedStates: []string{
				string(domain.WorkItemStateClosed),
				string(domain.WorkItemStateRemoved),
			},
			MinHealthScore: DefaultMinHealthScore,
			ExcludeClosed:  true,
		},
		Swag: SwagConfig{
			Tolerance: DefaultEstimateTolerance,
		},
		Trains: TrainsConfig{
			TitlePattern:      train.DefaultTitlePattern,
			ParentTitleFormat: train.DefaultParentTitleFormat,
			ParentType:        string(domain.WorkItemTypeEpic),
		},
		Output: OutputConfig{
			Format:      "text",
			ShowDetails: false,
			SortBy:      "severity",
		},
		Performance: PerformanceConfig{
			Parallel:       false,
			MaxConcurrency: DefaultMaxConcurrency,
			TimeoutSeconds: DefaultRunTimeoutSeconds,
		},
	}
}

// LoadConfig loads configuration from a file with fallback discovery
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// discoverConfigFile finds the appropriate config file path
// Single responsibility: configuration file discovery only
func discoverConfigFile(targetPath string) string {
	return findDefaultConfig(targetPath)
}

// loadConfigFromFile reads and parses a configuration file
// Single responsibility: file loading and parsing only
func loadConfigFromFile(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	// Create a new viper instance to avoid race conditions
	v := viper.New()
	config := DefaultConfig()
	v.SetConfigFile(configPath)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Unmarshal into config struct
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigWithTarget loads configuration with a working directory context
// Orchestrates discovery and loading but delegates specific concerns
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	// If no config path specified, discover one
	if configPath == "" {
		configPath = discoverConfigFile(targetPath)
	}

	// Load the configuration from the determined path
	return loadConfigFromFile(configPath)
}

// searchConfigInDirectory searches for configuration files in a specific directory
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findDefaultConfig looks for default configuration files in common locations
// targetPath is the directory the command operates from, when known
func findDefaultConfig(targetPath string) string {
	candidates := []string{
		"boardsweep.yaml",
		"boardsweep.yml",
		".boardsweep.yaml",
		".boardsweep.yml",
		"boardsweep.json",
		".boardsweep.json",
	}

	// If targetPath is provided, search from there upward
	if targetPath != "" {
		// Convert to absolute path
		absPath, err := filepath.Abs(targetPath)
		if err == nil {
			// If it's a file, start from its directory
			info, err := os.Stat(absPath)
			if err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			// Search from target directory up to root with robust termination
			// Handle Windows edge cases: volume roots (C:\), UNC paths (\\server\share), long paths
			volume := filepath.VolumeName(absPath)
			for dir := absPath; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir, candidates); config != "" {
					return config
				}

				// Robust termination conditions for cross-platform compatibility
				parent := filepath.Dir(dir)
				if parent == dir || // Unix-style root reached (/), Windows UNC root (\\server)
					dir == volume || // Windows volume root reached (C:\)
					(volume != "" && dir == volume+string(filepath.Separator)) { // Alternative volume root format
					break
				}
			}
		}
	}

	// Fallback to current directory
	if config := searchConfigInDirectory(".", candidates); config != "" {
		return config
	}

	// Check XDG config directory (Linux/Mac standard)
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, "boardsweep"), candidates); config != "" {
			return config
		}
	}

	// Check ~/.config/boardsweep/ (XDG default)
	if home, err := os.UserHomeDir(); err == nil {
		configDir := filepath.Join(home, ".config", "boardsweep")
		if config := searchConfigInDirectory(configDir, candidates); config != "" {
			return config
		}

		// Check home directory (backward compatibility)
		if config := searchConfigInDirectory(home, candidates); config != "" {
			return config
		}
	}

	// Check the BOARDSWEEP_CONFIG environment variable as fallback
	if envConfig := os.Getenv(constants.EnvVarPrefix + "_CONFIG"); envConfig != "" {
		if _, err := os.Stat(envConfig); err == nil {
			return envConfig
		}
	}

	return ""
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	// Validate source selection
	validKinds := map[string]bool{
		string(domain.SourceAzureDevOps): true,
		string(domain.SourceGitHub):      true,
		string(domain.SourceSnapshot):    true,
	}

	if !validKinds[c.Source.Kind] {
		return fmt.Errorf("invalid source.kind '%s', must be one of: azdo, github, snapshot", c.Source.Kind)
	}

	if c.Source.Kind == string(domain.SourceSnapshot) && c.Source.SnapshotPath == "" {
		return fmt.Errorf("source.snapshot_path is required when source.kind is snapshot")
	}

	// Validate audit thresholds
	if c.Audit.TitleMinLength < 1 {
		return fmt.Errorf("audit.title_min_length must be >= 1, got %d", c.Audit.TitleMinLength)
	}

	if len(c.Audit.KnownTypes) == 0 {
		return fmt.Errorf("audit.known_types cannot be empty")
	}

	if len(c.Audit.KnownStates) == 0 {
		return fmt.Errorf("audit.known_states cannot be empty")
	}

	if c.Audit.MinHealthScore < 0 || c.Audit.MinHealthScore > 100 {
		return fmt.Errorf("audit.min_health_score must be between 0 and 100, got %g", c.Audit.MinHealthScore)
	}

	// Validate estimate tolerance
	if c.Swag.Tolerance < 0 {
		return fmt.Errorf("swag.tolerance must be >= 0, got %g", c.Swag.Tolerance)
	}

	// Validate train reconciliation settings
	if err := c.validateTrainsConfig(); err != nil {
		return err
	}

	// Validate output format
	validFormats := map[string]bool{
		"text": true,
		"json": true,
		"yaml": true,
		"csv":  true,
	}

	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml, csv", c.Output.Format)
	}

	// Validate sort options
	validSortBy := map[string]bool{
		"severity": true,
		"item":     true,
		"check":    true,
	}

	if !validSortBy[c.Output.SortBy] {
		return fmt.Errorf("invalid output.sort_by '%s', must be one of: severity, item, check", c.Output.SortBy)
	}

	// Validate performance settings
	if c.Performance.MaxConcurrency < 1 {
		return fmt.Errorf("performance.max_concurrency must be >= 1, got %d", c.Performance.MaxConcurrency)
	}

	if c.Performance.TimeoutSeconds < 1 {
		return fmt.Errorf("performance.timeout_seconds must be >= 1, got %d", c.Performance.TimeoutSeconds)
	}

	// Validate source connection settings
	return c.validateSourceConfig()
}

// validateTrainsConfig validates the release train settings
func (c *Config) validateTrainsConfig() error {
	if _, err := train.NewGrouper(c.Trains.TitlePattern, c.Trains.ParentTitleFormat); err != nil {
		return fmt.Errorf("invalid trains configuration: %w", err)
	}

	if strings.TrimSpace(c.Trains.ParentType) == "" {
		return fmt.Errorf("trains.parent_type cannot be empty")
	}

	return nil
}

// validateSourceConfig validates the settings of the selected backlog source
func (c *Config) validateSourceConfig() error {
	switch c.Source.Kind {
	case string(domain.SourceAzureDevOps):
		if c.AzureDevOps.Organization == "" {
			return fmt.Errorf("azure_devops.organization is required when source.kind is azdo")
		}
		if c.AzureDevOps.Project == "" {
			return fmt.Errorf("azure_devops.project is required when source.kind is azdo")
		}
		if c.AzureDevOps.BaseURL == "" {
			return fmt.Errorf("azure_devops.base_url cannot be empty")
		}
		if c.AzureDevOps.APIVersion == "" {
			return fmt.Errorf("azure_devops.api_version cannot be empty")
		}
		if c.AzureDevOps.SwagField == "" || c.AzureDevOps.NotesField == "" {
			return fmt.Errorf("azure_devops.swag_field and azure_devops.notes_field cannot be empty")
		}
		if c.AzureDevOps.TimeoutSeconds < 1 {
			return fmt.Errorf("azure_devops.timeout_seconds must be >= 1, got %d", c.AzureDevOps.TimeoutSeconds)
		}
		if c.AzureDevOps.RetryMaxElapsedSeconds < 0 {
			return fmt.Errorf("azure_devops.retry_max_elapsed_seconds must be >= 0, got %d", c.AzureDevOps.RetryMaxElapsedSeconds)
		}
	case string(domain.SourceGitHub):
		if c.GitHub.Owner == "" {
			return fmt.Errorf("github.owner is required when source.kind is github")
		}
		if c.GitHub.ProjectNumber < 1 {
			return fmt.Errorf("github.project_number must be >= 1, got %d", c.GitHub.ProjectNumber)
		}
		if c.GitHub.SwagField == "" || c.GitHub.NotesField == "" {
			return fmt.Errorf("github.swag_field and github.notes_field cannot be empty")
		}
		if c.GitHub.TimeoutSeconds < 1 {
			return fmt.Errorf("github.timeout_seconds must be >= 1, got %d", c.GitHub.TimeoutSeconds)
		}
	}

	return nil
}

// PersonalAccessToken reads the Azure DevOps token from the configured environment variable
func (c *AzureDevOpsConfig) PersonalAccessToken() string {
	env := c.PATEnv
	if env == "" {
		env = DefaultPATEnv
	}
	return os.Getenv(env)
}

// OrganizationURL joins the service root and the organization name
func (c *AzureDevOpsConfig) OrganizationURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + c.Organization
}

// Token reads the GitHub token from the configured environment variable
func (c *GitHubConfig) Token() string {
	env := c.TokenEnv
	if env == "" {
		env = DefaultGitHubTokenEnv
	}
	return os.Getenv(env)
}

// MeetsHealthGate reports whether a health score passes the configured gate
func (c *AuditConfig) MeetsHealthGate(score float64) bool {
	if c.MinHealthScore <= 0 {
		return true
	}
	return score >= c.MinHealthScore
}

// StateClasses converts the configured state lists into the domain partition
func (c *AuditConfig) StateClasses() domain.StateClasses {
	classes := domain.StateClasses{}
	for _, s := range c.UnstartedStates {
		classes.Unstarted = append(classes.Unstarted, domain.WorkItemState(s))
	}
	for _, s := range c.ClosedStates {
		classes.Closed = append(classes.Closed, domain.WorkItemState(s))
	}
	return classes
}

// RuleConfig converts the audit section into the rule engine parameters
func (c *Config) RuleConfig() domain.RuleConfig {
	rc := domain.RuleConfig{
		TitleMinLength:    c.Audit.TitleMinLength,
		States:            c.Audit.StateClasses(),
		EstimateTolerance: c.Swag.Tolerance,
	}
	for _, t := range c.Audit.KnownTypes {
		rc.KnownTypes = append(rc.KnownTypes, domain.WorkItemType(t))
	}
	for _, s := range c.Audit.KnownStates {
		rc.KnownStates = append(rc.KnownStates, domain.WorkItemState(s))
	}
	return rc
}

// EffectiveConcurrency returns the concurrency cap to use for parallel runs
func (c *PerformanceConfig) EffectiveConcurrency() int {
	if c.MaxConcurrency < 1 {
		return DefaultMaxConcurrency
	}
	return c.MaxConcurrency
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	// Create a new viper instance to avoid race conditions
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set all config values in viper
	v.Set("source", config.Source)
	v.Set("azure_devops", config.AzureDevOps)
	v.Set("github", config.GitHub)
	v.Set("audit", config.Audit)
	v.Set("swag", config.Swag)
	v.Set("trains", config.Trains)
	v.Set("output", config.Output)
	v.Set("performance", config.Performance)

	return v.WriteConfig()
}
