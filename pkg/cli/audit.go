package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/githubnext/rulecheck/pkg/console"
	"github.com/githubnext/rulecheck/pkg/validation"
)

const maxAuditMessageWidth = 72

// AuditEntry is one raw diagnostic and whether the cascade filter kept it
type AuditEntry struct {
	validation.ValidationError
	Kept bool `json:"kept"`
}

// AuditReport lists every raw diagnostic of a rule file next to the filter's decision
type AuditReport struct {
	File            string       `json:"file"`
	RawCount        int          `json:"rawCount"`
	KeptCount       int          `json:"keptCount"`
	SuppressedCount int          `json:"suppressedCount"`
	Entries         []AuditEntry `json:"entries"`
	Failure         string       `json:"failure,omitempty"`
}

// AuditRule validates a single rule file with the cascade filter disabled and shows
// which diagnostics the filter would keep
func AuditRule(file, configPath string, opts ValidateOptions, flags FlagOverrides) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	opts = config.Merge(opts, flags)

	engine, err := NewEngine(opts.SchemaPath, opts.CatalogPath, opts.Verbose)
	if err != nil {
		return err
	}

	report := BuildAuditReport(engine, file, opts.Lines)
	if opts.JSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("failed to encode audit: %w", err)
		}
	} else {
		printAudit(os.Stdout, report)
	}

	if report.Failure != "" || report.RawCount > 0 {
		return ErrInvalidRules
	}
	return nil
}

// BuildAuditReport runs the unfiltered pipeline on file and classifies each raw
// diagnostic by running the cascade filter over the same list
func BuildAuditReport(engine *Engine, file string, lines bool) AuditReport {
	raw := engine.ValidateFile(file, CheckOptions{Lines: lines, DisableFilter: true})
	report := AuditReport{File: file, Failure: raw.Failure, Entries: []AuditEntry{}}
	if raw.Failure != "" {
		return report
	}

	filtered := validation.FilterCascadingErrors(raw.Errors)
	remaining := make(map[string]int)
	for _, e := range filtered.FilteredErrors {
		remaining[auditKey(e)]++
	}

	for _, e := range raw.Errors {
		key := auditKey(e)
		kept := remaining[key] > 0
		if kept {
			remaining[key]--
			report.KeptCount++
		}
		report.Entries = append(report.Entries, AuditEntry{ValidationError: e, Kept: kept})
	}
	report.RawCount = len(raw.Errors)
	report.SuppressedCount = filtered.SuppressedCount
	return report
}

func auditKey(e validation.ValidationError) string {
	return string(e.Type) + "\x00" + e.Path + "\x00" + e.SchemaPath + "\x00" + e.Message
}

func printAudit(w io.Writer, report AuditReport) {
	if report.Failure != "" {
		fmt.Fprintln(w, console.FormatErrorMessage(fmt.Sprintf("%s: %s", console.ToRelativePath(report.File), report.Failure)))
		return
	}
	if report.RawCount == 0 {
		fmt.Fprintln(w, console.FormatSuccessMessage(fmt.Sprintf("%s: no diagnostics", console.ToRelativePath(report.File))))
		return
	}

	rows := make([][]string, 0, len(report.Entries))
	for _, entry := range report.Entries {
		status := "suppressed"
		if entry.Kept {
			status = "kept"
		}
		line := "-"
		if n, ok := entry.Line(); ok {
			line = strconv.Itoa(n)
		}
		rows = append(rows, []string{status, string(entry.Type), entry.Path, line, truncate(entry.Message, maxAuditMessageWidth)})
	}

	fmt.Fprint(w, console.RenderTable(console.TableConfig{
		Title:   fmt.Sprintf("Cascade filter audit for %s", console.ToRelativePath(report.File)),
		Headers: []string{"Status", "Type", "Path", "Line", "Message"},
		Rows:    rows,
		TotalRow: []string{
			fmt.Sprintf("%d kept", report.KeptCount),
			fmt.Sprintf("%d raw", report.RawCount),
			fmt.Sprintf("%d suppressed", report.SuppressedCount),
		},
	}))
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
