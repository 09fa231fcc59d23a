// Package workspace ties the virtual file tree to its persisted slice
// and the view state that rides along with it: open tabs, the active
// tab, and the expanded-folder set. Views reference node ids and
// self-heal by dropping references when a node disappears.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forgeide/forge/internal/vfs"
)

// StorageKey is the single fixed key the workspace persists under.
const StorageKey = "forge-workspace-v1"

// Snapshot is the serializable slice of workspace state: the node map
// plus the view references. Nothing else is persisted.
type Snapshot struct {
	Files           map[string]vfs.Node `json:"files"`
	OpenTabs        []string            `json:"openTabs"`
	ActiveTabID     string              `json:"activeTabId,omitempty"`
	ExpandedFolders []string            `json:"expandedFolders"`
}

// Store reads and writes snapshots under the fixed storage key inside a
// state directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, StorageKey+".json")
}

// Save writes the snapshot. Failure is returned, never fatal: the caller
// degrades to in-memory-only operation for the session.
func (s *Store) Save(snap *Snapshot) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return os.Rename(tmp, s.path())
}

// Load reads the snapshot. ok is false when no snapshot exists yet; a
// corrupt snapshot is an error the caller treats the same way.
func (s *Store) Load() (*Snapshot, bool, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, true, nil
}
