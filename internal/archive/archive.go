// Package archive moves whole workspaces in and out of zip files.
// Exports carry a .forge/metadata.json marker; imports ignore it along
// with the junk macOS tools leave behind.
package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	stdpath "path"
	"sort"
	"strings"
	"time"

	"github.com/forgeide/forge/internal/vfs"
)

const metadataPath = ".forge/metadata.json"

// Metadata identifies an exported archive.
type Metadata struct {
	App        string    `json:"app"`
	ExportedAt time.Time `json:"exportedAt"`
}

// Export writes the tree to w as a zip archive. Folder entries are
// written explicitly so empty directories survive the round trip.
func Export(tree *vfs.Tree, w io.Writer) error {
	zw := zip.NewWriter(w)

	type entry struct {
		path   string
		folder bool
		body   string
	}
	var entries []entry
	for _, node := range tree.All() {
		if node.ID == vfs.RootID {
			continue
		}
		full, err := tree.FullPath(node.ID)
		if err != nil {
			continue
		}
		rel := strings.TrimPrefix(full, "/")
		if node.IsFolder() {
			entries = append(entries, entry{path: rel + "/", folder: true})
		} else {
			entries = append(entries, entry{path: rel, body: node.Content})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	for _, e := range entries {
		if e.folder {
			if _, err := zw.Create(e.path); err != nil {
				return fmt.Errorf("archive: add %s: %w", e.path, err)
			}
			continue
		}
		f, err := zw.Create(e.path)
		if err != nil {
			return fmt.Errorf("archive: add %s: %w", e.path, err)
		}
		if _, err := f.Write([]byte(e.body)); err != nil {
			return fmt.Errorf("archive: write %s: %w", e.path, err)
		}
	}

	meta, err := json.MarshalIndent(Metadata{App: "forge", ExportedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("archive: marshal metadata: %w", err)
	}
	f, err := zw.Create(metadataPath)
	if err != nil {
		return fmt.Errorf("archive: add metadata: %w", err)
	}
	if _, err := f.Write(meta); err != nil {
		return fmt.Errorf("archive: write metadata: %w", err)
	}

	return zw.Close()
}

// Import builds a fresh tree from a zip archive. Entries get new node
// ids; __MACOSX and .DS_Store noise and the .forge marker directory are
// skipped. Parent folders are inferred for archives that carry no
// explicit directory entries.
func Import(r io.ReaderAt, size int64) (*vfs.Tree, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("archive: open: %w", err)
	}

	tree := vfs.New()
	imported := 0
	for _, zf := range zr.File {
		name := stdpath.Clean(strings.TrimPrefix(zf.Name, "./"))
		if skip(name) {
			continue
		}

		if zf.FileInfo().IsDir() {
			if err := ensureFolder(tree, name); err != nil {
				return nil, fmt.Errorf("archive: folder %s: %w", name, err)
			}
			continue
		}

		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("archive: open %s: %w", name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("archive: read %s: %w", name, err)
		}
		if _, err := tree.EnsurePath(name, string(body)); err != nil {
			return nil, fmt.Errorf("archive: import %s: %w", name, err)
		}
		imported++
	}

	if imported == 0 && tree.Len() == 1 {
		return nil, fmt.Errorf("archive: no importable files")
	}
	return tree, nil
}

func skip(name string) bool {
	if name == "." || name == "" {
		return true
	}
	if strings.HasPrefix(name, "__MACOSX/") || name == "__MACOSX" {
		return true
	}
	if stdpath.Base(name) == ".DS_Store" {
		return true
	}
	if name == ".forge" || strings.HasPrefix(name, ".forge/") {
		return true
	}
	return false
}

// ensureFolder creates the folder at path, reusing any existing
// prefix. Used only for explicit directory entries; EnsurePath already
// infers parents for files.
func ensureFolder(tree *vfs.Tree, path string) error {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	cur := "/"
	for _, seg := range segs {
		if seg == "" || seg == "." {
			continue
		}
		next := stdpath.Join(cur, seg)
		if node, ok := tree.Resolve(next); ok {
			if !node.IsFolder() {
				return vfs.ErrNotAFolder
			}
			cur = next
			continue
		}
		parent, ok := tree.Resolve(cur)
		if !ok {
			return vfs.ErrNotFound
		}
		if _, err := tree.CreateFolder(parent.ID, seg); err != nil {
			return err
		}
		cur = next
	}
	return nil
}
