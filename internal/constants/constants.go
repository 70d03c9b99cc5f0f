package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "boardsweep"

	// ConfigFileName is the default config file name
	ConfigFileName = "boardsweep.yaml"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "BOARDSWEEP"
)

// Command stage constants
const (
	StageAudit  = "audit"
	StageSwag   = "swag"
	StageTrains = "trains"
)
