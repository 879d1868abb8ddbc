package inbox

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/subtaste/internal/storage"
)

// settleDelay is how long a file must stay quiet before it is processed.
const settleDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on root and processes batch files as they
// settle, until ctx is cancelled.
//
// New directories are added to the watch list and trigger a full Sync so
// files that arrived with them are not missed. Hidden directories, including
// the archive and quarantine, are never watched. Files left for retry are
// processed again every retry interval.
func (p *Processor) Watch(ctx context.Context, root string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	p.logger.Info("inbox watcher: started", slog.String("root", root))

	retry := time.NewTicker(p.retryInterval)
	defer retry.Stop()

	pending := make(map[string]struct{})
	fullSync := false
	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	schedule := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(settleDelay)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			p.logger.Info("inbox watcher: stopped")
			return nil

		case <-retry.C:
			p.Retry(ctx)

		case <-settleCh:
			if fullSync {
				fullSync = false
				clear(pending)
				if err := p.Sync(ctx); err != nil {
					p.logger.Warn("inbox watcher: sync failed", slog.String("error", err.Error()))
				}
				continue
			}
			paths := make([]string, 0, len(pending))
			for rel := range pending {
				paths = append(paths, rel)
			}
			clear(pending)
			sort.Strings(paths)
			for _, rel := range paths {
				if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
					continue
				}
				_ = p.Process(ctx, rel)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name
			if hidden(root, absPath) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						p.logger.Warn("inbox watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						p.logger.Debug("inbox watcher: watching new dir", slog.String("path", absPath))
					}
					fullSync = true
					schedule()
					continue
				}
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !storage.IsBatchFile(absPath) {
				continue
			}
			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			pending[rel] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			p.logger.Error("inbox watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// hidden reports whether any element of path below root starts with a dot.
func hidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
