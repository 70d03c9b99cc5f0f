package main

import (
	"fmt"
	"os"

	"github.com/boardsweep/boardsweep/internal/constants"
	"github.com/boardsweep/boardsweep/internal/version"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version = version.Version
)

func main() {
	rootCmd := &cobra.Command{
		Use:   constants.ToolName,
		Short: "boardsweep - backlog hygiene and reconciliation for work item trackers",
		Long: `boardsweep keeps product backlogs tidy. It audits work items against
hygiene rules, reconciles SWAG estimates between planning fields and status
notes, and gathers release-train items under aggregate parent items.`,
		Version: Version,
	}

	// Add subcommands
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(swagCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		// Handle custom exit codes from gating commands
		if exitErr, ok := err.(*AuditExitError); ok {
			if exitErr.Message != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", exitErr.Message)
			}
			// Silently exit with the specified code (output already printed)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				fmt.Println(version.GetFullVersion())
			} else {
				fmt.Printf("%s version %s\n", constants.ToolName, version.GetVersion())
			}
		},
	}

	cmd.Flags().BoolP("verbose", "v", false, "Show detailed version information")
	return cmd
}
