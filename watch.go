package codegraph

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"codegraph/internal/fileutil"
	"codegraph/internal/reconcile"
)

// watchState names the phases of the watch loop. Transitions are linear:
// idle to collecting on the first event, collecting to reconciling when the
// debounce window closes, then scanning, then back to idle.
type watchState string

const (
	stateIdle         watchState = "idle"
	stateCollecting   watchState = "collecting"
	stateReconciling  watchState = "reconciling"
	stateScanning     watchState = "scanning"
	stateShuttingDown watchState = "shutting_down"
)

// Watch runs the continuous maintenance loop over root until ctx is
// cancelled. File events are coalesced within the debounce window, then one
// reconciliation cycle classifies every discovered file against the stored
// fingerprints and applies deletions before rescans. Cycles never interleave;
// events arriving mid-cycle start a new window afterwards.
func (e *Engine) Watch(ctx context.Context, root string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := e.addWatchesRecursive(watcher, root); err != nil {
		return err
	}

	trigger := make(chan struct{}, 1)
	var timer *time.Timer
	state := stateIdle

	setState := func(next watchState) {
		e.log.Debug("watch state", "from", state, "to", next)
		state = next
	}

	e.log.Info("watching", "root", root, "debounce", e.debounce)
	for {
		select {
		case <-ctx.Done():
			setState(stateShuttingDown)
			if timer != nil {
				timer.Stop()
			}
			e.log.Info("watch stopped", "root", root)
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}
			if e.ignoreEvent(root, event) {
				continue
			}
			// New directories need their own watches before their contents
			// produce events.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = e.addWatchesRecursive(watcher, event.Name)
				}
			}
			if state == stateIdle {
				setState(stateCollecting)
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(e.debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			e.log.Warn("watcher error", "error", err)

		case <-trigger:
			setState(stateReconciling)
			if err := e.reconcileOnce(ctx, root); err != nil {
				if ctx.Err() != nil {
					setState(stateShuttingDown)
					return ctx.Err()
				}
				// A failed cycle leaves fingerprints untouched so the next
				// cycle retries the same work.
				e.log.Error("reconcile cycle failed", "error", err)
			}
			setState(stateIdle)
		}
	}
}

// reconcileOnce runs one full cycle: fingerprint the tree, diff against the
// stored map, remove deleted files, then rescan added and modified ones.
func (e *Engine) reconcileOnce(ctx context.Context, root string) error {
	paths, err := e.Discover(root)
	if err != nil {
		return err
	}

	current := make(map[string]string, len(paths))
	for _, rel := range paths {
		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			// Deleted or unreadable between walk and read; the diff treats
			// it as absent.
			continue
		}
		current[rel] = fileutil.HashBytes(content)
	}

	previous, err := e.metrics.AllFileHashes(ctx)
	if err != nil {
		return fmt.Errorf("load fingerprints: %w", err)
	}

	changes, err := reconcile.Diff(previous, current)
	if err != nil {
		return err
	}
	if changes.Empty() {
		e.log.Debug("reconcile: no changes")
		return nil
	}

	e.log.Info("reconcile",
		"added", len(changes.Added),
		"modified", len(changes.Modified),
		"deleted", len(changes.Deleted),
	)

	// Deletions first: a rename is a delete plus an add, and the delete must
	// win before the add writes the new path.
	if err := e.RemoveFiles(ctx, changes.Deleted); err != nil {
		return err
	}

	e.log.Debug("watch state", "from", stateReconciling, "to", stateScanning)
	_, err = e.ScanPaths(ctx, root, changes.NeedsRescan())
	return err
}

func (e *Engine) addWatchesRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != dir && (strings.HasPrefix(name, ".") || skipDirs[name]) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// ignoreEvent filters events the reconciliation cycle can never act on.
func (e *Engine) ignoreEvent(root string, event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return true
	}
	rel, err := filepath.Rel(root, event.Name)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") || skipDirs[part] {
			return true
		}
	}
	if e.excludes != nil && e.excludes.MatchesPath(rel) {
		return true
	}
	// Directory events still matter (new directories carry new files), so
	// only filter files by extension.
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		return false
	}
	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		// Cannot stat a removed path; let the cycle sort it out.
		return false
	}
	return !e.registry.Supported(event.Name)
}
