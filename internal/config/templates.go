package config

import "strconv"

// TrackerType represents the kind of backlog a team works from
type TrackerType string

const (
	TrackerTypeAzureDevOps TrackerType = "azdo"
	TrackerTypeGitHub      TrackerType = "github"
	TrackerTypeSnapshot    TrackerType = "snapshot"
)

// Strictness represents the audit strictness level
type Strictness string

const (
	StrictnessRelaxed  Strictness = "relaxed"
	StrictnessStandard Strictness = "standard"
	StrictnessStrict   Strictness = "strict"
)

// TrackerPreset holds source selection presets for different backlog kinds
type TrackerPreset struct {
	Kind         string
	SnapshotPath string
}

// StrictnessPreset holds threshold values for different strictness levels
type StrictnessPreset struct {
	TitleMinLength int
	MinHealthScore float64
	Tolerance      float64
}

// GetTrackerPresets returns presets for different backlog kinds
func GetTrackerPresets() map[TrackerType]TrackerPreset {
	return map[TrackerType]TrackerPreset{
		TrackerTypeAzureDevOps: {
			Kind: string(TrackerTypeAzureDevOps),
		},
		TrackerTypeGitHub: {
			Kind: string(TrackerTypeGitHub),
		},
		TrackerTypeSnapshot: {
			Kind:         string(TrackerTypeSnapshot),
			SnapshotPath: "backlog.yaml",
		},
	}
}

// GetStrictnessPresets returns presets for different strictness levels
func GetStrictnessPresets() map[Strictness]StrictnessPreset {
	return map[Strictness]StrictnessPreset{
		StrictnessRelaxed: {
			TitleMinLength: 5,
			MinHealthScore: 0, // No gate
			Tolerance:      0.5,
		},
		StrictnessStandard: {
			TitleMinLength: DefaultTitleMinLength,
			MinHealthScore: DefaultMinHealthScore,
			Tolerance:      DefaultEstimateTolerance,
		},
		StrictnessStrict: {
			TitleMinLength: 12,
			MinHealthScore: 100,
			Tolerance:      0.05,
		},
	}
}

// GetFullConfigTemplate returns the documented config template as YAML
func GetFullConfigTemplate(tracker TrackerType, strictness Strictness) string {
	trackerPresets := GetTrackerPresets()
	strictnessPresets := GetStrictnessPresets()

	source := trackerPresets[tracker]
	strict := strictnessPresets[strictness]

	defaults := DefaultConfig()
	knownTypes := formatYAMLList(defaults.Audit.KnownTypes, "    ")
	knownStates := formatYAMLList(defaults.Audit.KnownStates, "    ")
	unstartedStates := formatYAMLList(defaults.Audit.UnstartedStates, "    ")
	closedStates := formatYAMLList(defaults.Audit.ClosedStates, "    ")

	return `# boardsweep configuration
# Documentation: https://github.com/boardsweep/boardsweep

# ============================================================================
# BACKLOG SOURCE
# ============================================================================
# Selects where commands read work items from: "azdo", "github", "snapshot"
source:
  kind: ` + source.Kind + `

  # Path to a backlog file, used when kind is "snapshot"
  snapshot_path: "` + source.SnapshotPath + `"

# ============================================================================
# AZURE DEVOPS
# ============================================================================
# Connection settings used when source.kind is "azdo"
azure_devops:
  organization: ""
  project: ""

  # Service root, override for on-premises servers
  base_url: "` + DefaultBaseURL + `"
  api_version: "` + DefaultAPIVersion + `"

  # Environment variable holding the personal access token
  # The token itself never belongs in this file
  pat_env: "` + DefaultPATEnv + `"

  # Restrict queries to a backlog area (empty = whole project)
  area_path: ""

  # Field reference names for the estimate and the status notes
  swag_field: "` + DefaultSwagField + `"
  notes_field: "` + DefaultNotesField + `"

  # Relation added between a release train parent and its members
  link_type: "` + DefaultLinkType + `"

  timeout_seconds: ` + strconv.Itoa(DefaultHTTPTimeoutSeconds) + `

  # Retry budget per operation in seconds (0 = no retries)
  retry_max_elapsed_seconds: ` + strconv.Itoa(DefaultRetryMaxElapsedSeconds) + `

# ============================================================================
# GITHUB PROJECTS
# ============================================================================
# Connection settings used when source.kind is "github"
github:
  owner: ""
  project_number: 0
  token_env: "` + DefaultGitHubTokenEnv + `"

  # Repository under owner where release train tracking issues live
  train_repo: ""

  # Project field names for type, state, estimate, and status notes
  type_field: "` + DefaultGitHubTypeField + `"
  status_field: "` + DefaultGitHubStatusField + `"
  swag_field: "` + DefaultGitHubSwagField + `"
  notes_field: "` + DefaultGitHubNotesField + `"

  timeout_seconds: ` + strconv.Itoa(DefaultHTTPTimeoutSeconds) + `

# ============================================================================
# BACKLOG HYGIENE CHECKS
# ============================================================================
audit:
  # Minimum rune count before a title counts as descriptive
  title_min_length: ` + strconv.Itoa(strict.TitleMinLength) + `

  # Work item types and states the process recognizes
  known_types:
` + knownTypes + `
  known_states:
` + knownStates + `

  # States counting as not yet started / finished
  unstarted_states:
` + unstartedStates + `
  closed_states:
` + closedStates + `

  # Fail the audit command when the health score drops below this (0 = no gate)
  min_health_score: ` + formatFloat(strict.MinHealthScore) + `

  # Skip items in closed states during audits
  exclude_closed: true

# ============================================================================
# ESTIMATE RECONCILIATION
# ============================================================================
swag:
  # Absolute drift allowed before two estimate values count as different
  tolerance: ` + formatFloat(strict.Tolerance) + `

# ============================================================================
# RELEASE TRAINS
# ============================================================================
trains:
  # Regular expression extracting the train identifier from item titles
  # Must contain at least one capture group
  title_pattern: '` + defaults.Trains.TitlePattern + `'

  # Title rendered for aggregate parents, %s is the train identifier
  parent_title_format: "` + defaults.Trains.ParentTitleFormat + `"

  # Work item type created for aggregate parents
  parent_type: "` + defaults.Trains.ParentType + `"

# ============================================================================
# OUTPUT SETTINGS
# ============================================================================
output:
  # Output format: "text", "json", "yaml", "csv"
  format: text

  # Show per-item breakdowns in reports
  show_details: false

  # Sort audit results by: "severity", "item", "check"
  sort_by: severity

# ============================================================================
# PERFORMANCE
# ============================================================================
performance:
  # Evaluate work items concurrently
  parallel: false
  max_concurrency: ` + strconv.Itoa(DefaultMaxConcurrency) + `

  # Bound for a whole command run in seconds
  timeout_seconds: ` + strconv.Itoa(DefaultRunTimeoutSeconds) + `
`
}

// GetMinimalConfigTemplate returns a minimal config template
func GetMinimalConfigTemplate() string {
	return `# boardsweep configuration (minimal)
# See full options: https://github.com/boardsweep/boardsweep

source:
  kind: azdo

azure_devops:
  organization: ""
  project: ""
  pat_env: "` + DefaultPATEnv + `"

audit:
  title_min_length: ` + strconv.Itoa(DefaultTitleMinLength) + `
  min_health_score: ` + formatFloat(DefaultMinHealthScore) + `

swag:
  tolerance: ` + formatFloat(DefaultEstimateTolerance) + `
`
}

// formatYAMLList formats a string slice as YAML list items with the given indentation
func formatYAMLList(items []string, indent string) string {
	result := ""
	for i, item := range items {
		result += indent + "- " + item
		if i < len(items)-1 {
			result += "\n"
		}
	}
	return result
}

// formatFloat renders a float without trailing zeros
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
