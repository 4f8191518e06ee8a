package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/githubnext/rulecheck/pkg/console"
	"github.com/githubnext/rulecheck/pkg/constants"
	"github.com/githubnext/rulecheck/pkg/parser"
)

// ValidateRuleArgs are the arguments of the validate_rule tool
type ValidateRuleArgs struct {
	Content       string `json:"content" jsonschema:"the rule document to validate"`
	Format        string `json:"format,omitempty" jsonschema:"document format: json (default) or yaml"`
	Lines         bool   `json:"lines,omitempty" jsonschema:"annotate diagnostics with line numbers"`
	DisableFilter bool   `json:"disableFilter,omitempty" jsonschema:"return every raw diagnostic instead of the filtered ones"`
}

// NewMCPServer exposes the validation engine as an MCP server with a single
// validate_rule tool
func NewMCPServer(engine *Engine) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: constants.CLIName, Version: GetVersion()}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_rule",
		Description: "Validate a business rule document against the rule schema and catalog. Returns the triaged diagnostics as JSON.",
	}, func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[ValidateRuleArgs]) (*mcp.CallToolResultFor[any], error) {
		args := params.Arguments

		format := parser.FormatJSON
		switch args.Format {
		case "", string(parser.FormatJSON):
		case string(parser.FormatYAML), "yml":
			format = parser.FormatYAML
		default:
			return toolError(fmt.Sprintf("unsupported format %q: use json or yaml", args.Format)), nil
		}

		report := engine.ValidateContent([]byte(args.Content), "rule."+string(format), format, CheckOptions{
			Lines:         args.Lines,
			DisableFilter: args.DisableFilter,
		})
		if report.Failure != "" {
			return toolError(report.Failure), nil
		}

		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode validation report: %w", err)
		}
		return &mcp.CallToolResultFor[any]{
			Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		}, nil
	})

	return server
}

func toolError(message string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
	}
}

// RunMCPServer serves the validate_rule tool over stdio until the client disconnects
// or the process is interrupted
func RunMCPServer(configPath string, opts ValidateOptions, flags FlagOverrides) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	opts = config.Merge(opts, flags)

	engine, err := NewEngine(opts.SchemaPath, opts.CatalogPath, opts.Verbose)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.Verbose {
		// stdout carries the protocol, so diagnostics go to stderr
		fmt.Fprintln(os.Stderr, console.FormatInfoMessage("Serving validate_rule over stdio"))
	}
	if err := NewMCPServer(engine).Run(ctx, mcp.NewStdioTransport()); err != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server stopped: %w", err)
	}
	return nil
}
