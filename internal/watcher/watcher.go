// Package watcher mirrors a directory on disk into the virtual file
// tree. Filesystem events are debounced and deduplicated so an editor
// save burst results in one sync pass.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/forgeide/forge/internal/logging"
)

// EventType classifies a filesystem change.
type EventType int

const (
	EventCreated EventType = iota
	EventModified
	EventDeleted
	EventRenamed
)

func (e EventType) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	case EventRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangeEvent is one debounced filesystem change.
type ChangeEvent struct {
	Type EventType
	Path string
}

// Filter reports whether a path should be observed.
type Filter func(path string) bool

// Handler consumes a batch of debounced events.
type Handler func(events []ChangeEvent)

// Watcher watches a directory recursively and emits debounced change
// batches to its handlers.
type Watcher struct {
	fs        *fsnotify.Watcher
	debouncer *debouncer
	log       logging.Logger

	mu       sync.RWMutex
	filters  []Filter
	handlers []Handler
}

// New creates a watcher with the given quiet period.
func New(debounce time.Duration, log logging.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fs: fs,
		debouncer: &debouncer{
			delay:  debounce,
			events: make(chan ChangeEvent, 100),
			output: make(chan []ChangeEvent, 10),
		},
		log: log.WithComponent("watcher"),
	}, nil
}

// AddFilter registers a path filter. All filters must accept a path for
// it to be observed.
func (w *Watcher) AddFilter(f Filter) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.filters = append(w.filters, f)
}

// AddHandler registers a batch handler.
func (w *Watcher) AddHandler(h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, h)
}

// AddRecursive watches root and every directory below it. New
// directories created later are picked up from their create events.
func (w *Watcher) AddRecursive(root string) error {
	return filepath.Walk(filepath.Clean(root), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.fs.Add(path)
		}
		return nil
	})
}

// Start runs the watcher until ctx is done.
func (w *Watcher) Start(ctx context.Context) {
	go w.debouncer.run(ctx)
	go w.dispatch(ctx)
	go w.watchLoop(ctx)
}

// Stop closes the underlying filesystem watcher.
func (w *Watcher) Stop() error {
	w.debouncer.stop()
	return w.fs.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn(ctx, err, "filesystem watch error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	w.mu.RLock()
	filters := w.filters
	w.mu.RUnlock()
	for _, f := range filters {
		if !f(event.Name) {
			return
		}
	}

	var typ EventType
	switch {
	case event.Op&fsnotify.Create != 0:
		typ = EventCreated
		// Watch directories as they appear so nested creates are seen.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.fs.Add(event.Name)
		}
	case event.Op&fsnotify.Write != 0:
		typ = EventModified
	case event.Op&fsnotify.Remove != 0:
		typ = EventDeleted
	case event.Op&fsnotify.Rename != 0:
		typ = EventRenamed
	default:
		typ = EventModified
	}

	select {
	case w.debouncer.events <- ChangeEvent{Type: typ, Path: event.Name}:
	default:
		// Burst overflow, the next sync pass catches up from disk.
	}
}

func (w *Watcher) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-w.debouncer.output:
			w.mu.RLock()
			handlers := w.handlers
			w.mu.RUnlock()
			for _, h := range handlers {
				h(events)
			}
		}
	}
}

// debouncer groups rapid changes: each incoming event resets a quiet
// period timer, and the batch flushes deduplicated by path when the
// timer fires.
type debouncer struct {
	delay   time.Duration
	events  chan ChangeEvent
	output  chan []ChangeEvent
	timer   *time.Timer
	pending []ChangeEvent
	mu      sync.Mutex
}

func (d *debouncer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.events:
			d.add(ev)
		}
	}
}

func (d *debouncer) add(ev ChangeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = append(d.pending, ev)
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pending) == 0 {
		return
	}

	// Last event per path wins.
	byPath := make(map[string]ChangeEvent, len(d.pending))
	for _, ev := range d.pending {
		byPath[ev.Path] = ev
	}
	batch := make([]ChangeEvent, 0, len(byPath))
	for _, ev := range byPath {
		batch = append(batch, ev)
	}

	select {
	case d.output <- batch:
	default:
	}
	d.pending = d.pending[:0]
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

// IgnoreFilter rejects paths that contain any of the given directory
// names as a segment.
func IgnoreFilter(names []string) Filter {
	return func(path string) bool {
		for _, name := range names {
			if name == "" {
				continue
			}
			if filepath.Base(path) == name || strings.Contains(path, string(filepath.Separator)+name+string(filepath.Separator)) {
				return false
			}
		}
		return true
	}
}
