package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/githubnext/rulecheck/pkg/console"
	"github.com/githubnext/rulecheck/pkg/constants"
	"github.com/githubnext/rulecheck/pkg/parser"
)

// addEngineFlags registers the flags shared by every command that builds an engine
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Configuration file (default "+constants.DefaultConfigFile+" when present)")
	cmd.Flags().String("schema", "", "Rule schema file (default: embedded "+constants.DefaultSchemaFilename+")")
	cmd.Flags().String("catalog", "", "Semantic catalog YAML file (default: embedded catalog)")
	cmd.Flags().BoolP("lines", "l", false, "Annotate diagnostics with source line numbers")
	cmd.Flags().Bool("no-filter", false, "Report every raw diagnostic instead of the triaged ones")
}

// readFlags collects options from the command line. Only flags the user set are
// reported as overrides so config file values survive.
func readFlags(cmd *cobra.Command) (string, ValidateOptions, FlagOverrides) {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")

	var opts ValidateOptions
	opts.Verbose, _ = flags.GetBool("verbose")
	if flags.Lookup("json") != nil {
		opts.JSON, _ = flags.GetBool("json")
	}
	if flags.Lookup("watch") != nil {
		opts.Watch, _ = flags.GetBool("watch")
	}

	var overrides FlagOverrides
	if flags.Changed("schema") {
		v, _ := flags.GetString("schema")
		overrides.SchemaPath = &v
	}
	if flags.Changed("catalog") {
		v, _ := flags.GetString("catalog")
		overrides.CatalogPath = &v
	}
	if flags.Changed("lines") {
		v, _ := flags.GetBool("lines")
		overrides.Lines = &v
	}
	if flags.Changed("no-filter") {
		v, _ := flags.GetBool("no-filter")
		overrides.NoFilter = &v
	}
	if flags.Lookup("concurrency") != nil && flags.Changed("concurrency") {
		v, _ := flags.GetInt("concurrency")
		overrides.Concurrency = &v
	}
	return configPath, opts, overrides
}

// exitOnError prints err and exits. Invalid rules exit with status 1 without an extra
// message since the diagnostics have already been printed.
func exitOnError(err error) {
	if err == nil {
		return
	}
	if !errors.Is(err, ErrInvalidRules) {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
	}
	os.Exit(1)
}

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file-or-directory...]",
		Short: "Validate business rule documents",
		Long: `Validate JSON and YAML business rule documents against the rule schema and
the semantic catalog. Related diagnostics caused by a single mistake are collapsed
into the one that explains it; use --no-filter to see every raw diagnostic.

Directories are searched recursively for .json, .yaml and .yml files.

Examples:
  ` + constants.CLIName + ` validate rules/
  ` + constants.CLIName + ` validate rules/high-value.json --lines
  ` + constants.CLIName + ` validate rules/ --json
  ` + constants.CLIName + ` validate rules/ --watch`,
		Run: func(cmd *cobra.Command, args []string) {
			configPath, opts, overrides := readFlags(cmd)
			exitOnError(ValidateRules(args, configPath, opts, overrides))
		},
	}

	addEngineFlags(cmd)
	cmd.Flags().Bool("json", false, "Print results as JSON")
	cmd.Flags().BoolP("watch", "w", false, "Revalidate rule files when they change")
	cmd.Flags().IntP("concurrency", "j", constants.MaxConcurrentValidations, "Number of files validated in parallel")
	return cmd
}

// NewAuditCommand creates the audit command
func NewAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit <file>",
		Short: "Show which diagnostics the cascade filter keeps and suppresses",
		Long: `Validate a single rule file with filtering disabled and list every raw
diagnostic together with the filter's decision.

Examples:
  ` + constants.CLIName + ` audit rules/high-value.json
  ` + constants.CLIName + ` audit rules/high-value.json --lines --json`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			configPath, opts, overrides := readFlags(cmd)
			exitOnError(AuditRule(args[0], configPath, opts, overrides))
		},
	}

	addEngineFlags(cmd)
	cmd.Flags().Bool("json", false, "Print the audit as JSON")
	return cmd
}

// NewSchemaCommand creates the schema command, which prints the embedded rule schema
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the embedded rule schema",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(parser.RuleSchemaJSON())
		},
	}
}

// NewMCPServerCommand creates the mcp-server command
func NewMCPServerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve rule validation as an MCP tool over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing a validate_rule
tool, so editors and agents can validate rule documents without writing files.`,
		Run: func(cmd *cobra.Command, args []string) {
			configPath, opts, overrides := readFlags(cmd)
			exitOnError(RunMCPServer(configPath, opts, overrides))
		},
	}

	cmd.Flags().String("config", "", "Configuration file (default "+constants.DefaultConfigFile+" when present)")
	cmd.Flags().String("schema", "", "Rule schema file (default: embedded "+constants.DefaultSchemaFilename+")")
	cmd.Flags().String("catalog", "", "Semantic catalog YAML file (default: embedded catalog)")
	return cmd
}
