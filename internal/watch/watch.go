// Package watch re-runs the example catalog whenever one of its files
// changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce is how long the watcher waits for a burst of writes to
// settle before triggering a run.
const DefaultDebounce = 200 * time.Millisecond

// DefaultExtensions are the catalog file types that trigger a run.
var DefaultExtensions = []string{".yaml", ".yml", ".md", ".markdown"}

// Config configures a watch loop.
type Config struct {
	// Paths are catalog files or directories. Directories are watched
	// recursively.
	Paths      []string
	Debounce   time.Duration
	Extensions []string
	Logger     *slog.Logger
}

// RunFunc performs one complete run. Its error is logged and does not stop
// watching.
type RunFunc func(ctx context.Context) error

// Run calls run once, then again after every settled change under the
// configured paths, until ctx is cancelled.
func Run(ctx context.Context, cfg Config, run RunFunc) error {
	if len(cfg.Paths) == 0 {
		return errors.New("watch mode needs at least one catalog path")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	m := &matcher{files: map[string]bool{}, dirs: nil, exts: cfg.Extensions}
	for _, p := range cfg.Paths {
		if err := m.add(watcher, p); err != nil {
			return err
		}
	}

	// capacity 1: a change during a run queues exactly one more run
	triggers := make(chan string, 1)
	triggers <- "initial run"

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return watchLoop(egctx, watcher, m, cfg.Debounce, triggers, logger)
	})
	eg.Go(func() error {
		for {
			select {
			case <-egctx.Done():
				return nil
			case reason := <-triggers:
				logger.Info("running examples", "reason", reason)
				if err := run(egctx); err != nil && egctx.Err() == nil {
					logger.Error("run failed", "error", err)
				}
			}
		}
	})
	return eg.Wait()
}

func watchLoop(ctx context.Context, w *fsnotify.Watcher, m *matcher, debounce time.Duration, triggers chan<- string, logger *slog.Logger) error {
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := ""

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 && m.isWatchedDir(event.Name) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(w, event.Name); err != nil {
						logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if !m.matches(event.Name) {
				continue
			}
			logger.Debug("catalog changed", "file", event.Name, "op", event.Op.String())
			pending = event.Name
			timer.Reset(debounce)

		case <-timer.C:
			select {
			case triggers <- "changed: " + pending:
			default:
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

// matcher decides which events concern the catalog. Single files are
// watched through their parent directory so that editors replacing the
// file are still noticed.
type matcher struct {
	files map[string]bool
	dirs  []string
	exts  []string
}

func (m *matcher) add(w *fsnotify.Watcher, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", path, err)
	}
	if !info.IsDir() {
		m.files[abs] = true
		return w.Add(filepath.Dir(abs))
	}
	m.dirs = append(m.dirs, abs)
	return addRecursive(w, abs)
}

func (m *matcher) isWatchedDir(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	for _, d := range m.dirs {
		if abs == d || strings.HasPrefix(abs, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (m *matcher) matches(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if m.files[abs] {
		return true
	}
	if !m.isWatchedDir(abs) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(abs))
	for _, e := range m.exts {
		if ext == e {
			return true
		}
	}
	return false
}

func addRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
