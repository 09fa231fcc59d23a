package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/forgeide/forge/internal/logging"
	"github.com/forgeide/forge/internal/vfs"
)

// Mounter keeps a tree in sync with a directory on disk. Disk is the
// source of truth for mounted paths: edits on disk flow into the tree
// and from there through the preview pipeline.
type Mounter struct {
	root    string
	tree    *vfs.Tree
	watcher *Watcher
	log     logging.Logger
}

// NewMounter builds a mounter over root. Ignored directory names are
// excluded from both the initial sync and change events.
func NewMounter(root string, tree *vfs.Tree, ignore []string, debounce time.Duration, log logging.Logger) (*Mounter, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	w, err := New(debounce, log)
	if err != nil {
		return nil, err
	}
	w.AddFilter(IgnoreFilter(ignore))

	m := &Mounter{root: abs, tree: tree, watcher: w, log: log.WithComponent("mount")}
	w.AddHandler(m.apply)
	return m, nil
}

// Start performs the initial sync, then watches for changes until ctx
// is done.
func (m *Mounter) Start(ctx context.Context) error {
	if err := m.sync(ctx); err != nil {
		return err
	}
	if err := m.watcher.AddRecursive(m.root); err != nil {
		return err
	}
	m.watcher.Start(ctx)
	go func() {
		<-ctx.Done()
		if err := m.watcher.Stop(); err != nil {
			m.log.Warn(context.Background(), err, "watcher stop failed")
		}
	}()
	return nil
}

// sync walks the mounted directory and imports every file.
func (m *Mounter) sync(ctx context.Context) error {
	count := 0
	err := filepath.Walk(m.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := m.rel(path)
		if relErr != nil || rel == "." {
			return nil
		}
		if !m.observed(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		body, readErr := os.ReadFile(path)
		if readErr != nil {
			m.log.Warn(ctx, readErr, "skipping unreadable file", "path", rel)
			return nil
		}
		if _, err := m.tree.EnsurePath(rel, string(body)); err != nil {
			m.log.Warn(ctx, err, "import failed", "path", rel)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}
	m.log.Info(ctx, "mount synced", "root", m.root, "files", count)
	return nil
}

func (m *Mounter) observed(path string) bool {
	for _, f := range m.watcher.filters {
		if !f(path) {
			return false
		}
	}
	return true
}

func (m *Mounter) rel(path string) (string, error) {
	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// apply replays one debounced batch onto the tree.
func (m *Mounter) apply(events []ChangeEvent) {
	ctx := context.Background()
	for _, ev := range events {
		rel, err := m.rel(ev.Path)
		if err != nil || rel == "." {
			continue
		}
		switch ev.Type {
		case EventDeleted, EventRenamed:
			if err := m.tree.DeleteByPath(rel); err != nil && err != vfs.ErrNotFound {
				m.log.Warn(ctx, err, "delete failed", "path", rel)
			}
		default:
			info, err := os.Stat(ev.Path)
			if err != nil {
				// Raced with a delete; treat as gone.
				if err := m.tree.DeleteByPath(rel); err != nil && err != vfs.ErrNotFound {
					m.log.Warn(ctx, err, "delete failed", "path", rel)
				}
				continue
			}
			if info.IsDir() {
				continue
			}
			body, err := os.ReadFile(ev.Path)
			if err != nil {
				m.log.Warn(ctx, err, "read failed", "path", rel)
				continue
			}
			if _, err := m.tree.EnsurePath(rel, string(body)); err != nil {
				m.log.Warn(ctx, err, "update failed", "path", rel)
			}
		}
		m.log.Debug(ctx, "mount change applied", "type", ev.Type.String(), "path", rel)
	}
}
