package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/githubnext/rulecheck/pkg/cli"
	"github.com/githubnext/rulecheck/pkg/console"
	"github.com/githubnext/rulecheck/pkg/constants"
)

// Build-time variables set by GoReleaser
var (
	version = "dev"
)

// Global flags
var verbose bool

var rootCmd = &cobra.Command{
	Use:   constants.CLIName,
	Short: "Validate business rule documents with triaged, actionable diagnostics",
	Long: `rulecheck validates JSON and YAML business rule documents against a JSON Schema
and a semantic catalog of operators, functions and fields.

A single mistake in a rule, such as a misspelled discriminator, usually makes the
schema validator report a cascade of errors for every alternative the node could
have been. rulecheck collapses that cascade into the diagnostics that explain it.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(console.FormatInfoMessage(fmt.Sprintf("%s version %s", constants.CLIName, version)))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output showing detailed information")

	rootCmd.AddCommand(cli.NewValidateCommand())
	rootCmd.AddCommand(cli.NewAuditCommand())
	rootCmd.AddCommand(cli.NewSchemaCommand())
	rootCmd.AddCommand(cli.NewMCPServerCommand())
	rootCmd.AddCommand(versionCmd)
}

func main() {
	cli.SetVersionInfo(version)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		os.Exit(1)
	}
}
