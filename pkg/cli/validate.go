package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/githubnext/rulecheck/pkg/console"
	"github.com/githubnext/rulecheck/pkg/constants"
)

// ErrInvalidRules is returned when at least one rule file has diagnostics
var ErrInvalidRules = errors.New("rule validation failed")

// CollectRuleFiles expands the given files and directories into a sorted list of rule
// files. Directories are walked recursively; hidden entries and the config file are
// skipped. No arguments means the working directory.
func CollectRuleFiles(args []string, config *Config) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			// explicitly named files are always validated
			add(arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if path != arg && strings.HasPrefix(name, ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !isRuleFile(name) || config.excluded(path) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

func isRuleFile(name string) bool {
	if name == constants.DefaultConfigFile {
		return false
	}
	return slices.Contains(constants.RuleFileExtensions, strings.ToLower(filepath.Ext(name)))
}

// ValidateRules validates every rule file named by args and prints the results.
// It returns ErrInvalidRules when any file has diagnostics.
func ValidateRules(args []string, configPath string, opts ValidateOptions, flags FlagOverrides) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	opts = config.Merge(opts, flags)

	files, err := CollectRuleFiles(args, config)
	if err != nil {
		return err
	}

	engine, err := NewEngine(opts.SchemaPath, opts.CatalogPath, opts.Verbose)
	if err != nil {
		return err
	}

	if opts.Watch {
		return WatchRules(engine, args, config, opts)
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, console.FormatWarningMessage("No rule files found"))
		return nil
	}

	var spinner *console.Spinner
	if !opts.JSON {
		spinner = console.NewSpinner(fmt.Sprintf("Validating %d rule file(s)...", len(files)))
		spinner.Start()
	}
	reports := validateFiles(engine, files, opts)
	if spinner != nil {
		spinner.Stop()
	}

	if opts.JSON {
		if err := writeJSONReports(os.Stdout, reports); err != nil {
			return err
		}
	} else {
		printReports(os.Stdout, reports, opts)
	}

	for _, r := range reports {
		if !r.Valid {
			return ErrInvalidRules
		}
	}
	return nil
}

// validateFiles validates files concurrently. Reports come back in the order of files.
func validateFiles(engine *Engine, files []string, opts ValidateOptions) []FileReport {
	if len(files) == 0 {
		return []FileReport{}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = constants.MaxConcurrentValidations
	}

	type indexedReport struct {
		index  int
		report FileReport
	}

	p := pool.NewWithResults[indexedReport]().WithMaxGoroutines(concurrency)
	for i, file := range files {
		p.Go(func() indexedReport {
			if opts.Verbose {
				fmt.Fprintln(os.Stderr, console.FormatVerboseMessage(fmt.Sprintf("Validating %s", file)))
			}
			return indexedReport{
				index: i,
				report: engine.ValidateFile(file, CheckOptions{
					Lines:         opts.Lines,
					DisableFilter: opts.NoFilter,
				}),
			}
		})
	}

	reports := make([]FileReport, len(files))
	for _, r := range p.Wait() {
		reports[r.index] = r.report
	}
	return reports
}

func writeJSONReports(w io.Writer, reports []FileReport) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(reports); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// printReports renders reports for a terminal, followed by a one-line summary
func printReports(w io.Writer, reports []FileReport, opts ValidateOptions) {
	invalid, diagnostics, hidden := 0, 0, 0

	for _, r := range reports {
		switch {
		case r.Failure != "":
			invalid++
			fmt.Fprintln(w, console.FormatErrorMessage(fmt.Sprintf("%s: %s", console.ToRelativePath(r.File), r.Failure)))
		case r.Valid:
			if opts.Verbose {
				fmt.Fprintln(w, console.FormatSuccessMessage(console.ToRelativePath(r.File)))
			}
		default:
			invalid++
			diagnostics += r.ErrorCount
			hidden += r.SuppressedCount
			for _, e := range r.Errors {
				fmt.Fprint(w, console.FormatDiagnostic(console.FromValidationError(r.File, r.raw, e)))
			}
			if r.HasHiddenErrors {
				fmt.Fprintln(w, console.FormatInfoMessage(fmt.Sprintf("%d related diagnostic(s) suppressed; run with --no-filter to see them", r.SuppressedCount)))
			}
			fmt.Fprintln(w)
		}
	}

	if invalid == 0 {
		fmt.Fprintln(w, console.FormatSuccessMessage(fmt.Sprintf("%d rule file(s) valid", len(reports))))
		return
	}
	summary := fmt.Sprintf("%d of %d rule file(s) invalid, %d diagnostic(s)", invalid, len(reports), diagnostics)
	if hidden > 0 {
		summary += fmt.Sprintf(", %d suppressed", hidden)
	}
	fmt.Fprintln(w, console.FormatCountMessage(summary))
}
