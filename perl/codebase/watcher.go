package codebase

import (
	"context"
	"os"
	"time"
)

// FileWatcher polls the workspace and rescans closed files whose
// modification time changed.
type FileWatcher struct {
	store        *Store
	stopCh       chan struct{}
	pollInterval time.Duration
	modTimes     map[string]time.Time
	onScan       func(ScanResult)
	onRemove     func(path string)
	// primed is set after the first poll, which only records times.
	primed bool
}

func NewFileWatcher(s *Store) *FileWatcher {
	return &FileWatcher{
		store:        s,
		stopCh:       make(chan struct{}),
		pollInterval: 1 * time.Second,
		modTimes:     make(map[string]time.Time),
	}
}

// OnScan registers a callback run after each rescanned file.
func (w *FileWatcher) OnScan(fn func(ScanResult)) {
	w.onScan = fn
}

// OnRemove registers a callback run when a file disappears.
func (w *FileWatcher) OnRemove(fn func(path string)) {
	w.onRemove = fn
}

func (w *FileWatcher) Start() {
	go w.run()
}

func (w *FileWatcher) Stop() {
	close(w.stopCh)
}

func (w *FileWatcher) run() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.scan()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *FileWatcher) scan() {
	paths, err := w.store.workspaceFiles(context.Background())
	if err != nil {
		log.Warningf("watch %s: %s", w.store.RootDir(), err)
		return
	}

	current := make(map[string]bool, len(paths))
	for _, path := range paths {
		current[path] = true
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		lastMod, known := w.modTimes[path]
		if known && !info.ModTime().After(lastMod) {
			continue
		}
		w.modTimes[path] = info.ModTime()
		if !w.primed || w.store.IsOpen(pathToURI(path)) {
			continue
		}
		result := w.store.ScanFile(path)
		if w.onScan != nil {
			w.onScan(result)
		}
	}

	for path := range w.modTimes {
		if !current[path] {
			delete(w.modTimes, path)
			w.store.RemoveFile(path)
			if w.onRemove != nil {
				w.onRemove(path)
			}
		}
	}
	w.primed = true
}
