package cli

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/githubnext/rulecheck/pkg/console"
)

const debounceDelay = 300 * time.Millisecond

// WatchRules validates the targets once and then revalidates rule files as they change,
// until interrupted
func WatchRules(engine *Engine, args []string, config *Config, opts ValidateOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	dirs, err := watchDirectories(args)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}
	explicit := explicitFiles(args)

	fmt.Println(console.FormatInfoMessage(fmt.Sprintf("Watching %d director(ies) for rule changes...", len(dirs))))
	if opts.Verbose {
		printWatchedDirectories(os.Stdout, dirs)
		fmt.Println(console.FormatVerboseMessage("Press Ctrl+C to stop watching."))
	}

	if files, err := CollectRuleFiles(args, config); err != nil {
		fmt.Println(console.FormatWarningMessage(fmt.Sprintf("Initial validation failed: %v", err)))
	} else {
		printReports(os.Stdout, validateFiles(engine, files, opts), opts)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	runs := &revalidator{engine: engine, opts: opts, out: os.Stdout}

	var (
		mu            sync.Mutex
		debounceTimer *time.Timer
		modified      = make(map[string]struct{})
	)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}
			if !shouldRevalidate(event, explicit, config) {
				continue
			}
			if opts.Verbose {
				fmt.Println(console.FormatVerboseMessage(fmt.Sprintf("Detected change: %s (%s)", event.Name, event.Op.String())))
			}

			mu.Lock()
			modified[event.Name] = struct{}{}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				mu.Lock()
				files := make([]string, 0, len(modified))
				for file := range modified {
					if _, err := os.Stat(file); err == nil {
						files = append(files, file)
					}
				}
				modified = make(map[string]struct{})
				mu.Unlock()

				if len(files) == 0 {
					return
				}
				sort.Strings(files)
				runs.run(files)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			if opts.Verbose {
				fmt.Println(console.FormatWarningMessage(fmt.Sprintf("Watcher error: %v", err)))
			}

		case <-sigChan:
			mu.Lock()
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			mu.Unlock()
			runs.stop()
			if opts.Verbose {
				fmt.Println(console.FormatInfoMessage("Stopping watch mode..."))
			}
			return nil
		}
	}
}

// revalidator runs one revalidation at a time, so reports for consecutive changes
// never interleave on the output
type revalidator struct {
	engine *Engine
	opts   ValidateOptions
	out    io.Writer

	mu      sync.Mutex
	stopped bool
}

func (r *revalidator) run(files []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	fmt.Fprintln(r.out, console.FormatProgressMessage(fmt.Sprintf("Revalidating %d changed rule file(s)...", len(files))))
	printReports(r.out, validateFiles(r.engine, files, r.opts), r.opts)
}

// stop waits for a running revalidation to finish and turns later runs into no-ops
func (r *revalidator) stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
}

func printWatchedDirectories(w io.Writer, dirs []string) {
	fmt.Fprintln(w, console.FormatListHeader("Watched directories"))
	for _, dir := range dirs {
		fmt.Fprintln(w, console.FormatListItem(console.ToRelativePath(dir)))
	}
}

// shouldRevalidate filters watcher events down to writes and creates of rule files.
// When files were named explicitly only those files are revalidated.
func shouldRevalidate(event fsnotify.Event, explicit map[string]bool, config *Config) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	name := filepath.Clean(event.Name)
	if len(explicit) > 0 {
		return explicit[name]
	}
	return isRuleFile(filepath.Base(name)) && !strings.HasPrefix(filepath.Base(name), ".") && !config.excluded(name)
}

// watchDirectories returns the directories to watch: every non-hidden directory below
// a directory argument, and the parent directory of each file argument
func watchDirectories(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}

	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(filepath.Dir(arg))
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != arg && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
	}

	sort.Strings(dirs)
	return dirs, nil
}

// explicitFiles returns the file (not directory) arguments. If any directory is named
// the result is empty so every rule file change is picked up.
func explicitFiles(args []string) map[string]bool {
	files := make(map[string]bool)
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			continue
		}
		if info.IsDir() {
			return nil
		}
		files[filepath.Clean(arg)] = true
	}
	return files
}
