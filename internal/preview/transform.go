package preview

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/forgeide/forge/internal/errors"
	"github.com/forgeide/forge/internal/logging"
	"github.com/forgeide/forge/internal/vfs"
)

// Stylesheet is a raw stylesheet extracted for eager injection.
type Stylesheet struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ModuleMap is the ephemeral output of one packaging pass: normalized
// "./"-prefixed paths mapped to executable module sources, stylesheets
// split out for direct injection, and the alias table that lets imports
// omit extensions or target directory index files. It is rebuilt from a
// fresh tree snapshot on every pass and never persisted.
type ModuleMap struct {
	Modules   map[string]string `json:"modules"`
	Styles    []Stylesheet      `json:"styles"`
	Aliases   map[string]string `json:"aliases"`
	Externals map[string]string `json:"externals"`
}

// NewModuleMap returns an empty map with the given pinned externals.
func NewModuleMap(externals map[string]string) *ModuleMap {
	ext := make(map[string]string, len(externals))
	for k, v := range externals {
		ext[k] = v
	}
	return &ModuleMap{
		Modules:   make(map[string]string),
		Aliases:   make(map[string]string),
		Externals: ext,
	}
}

// Register stores code under its exact normalized path and records the
// extension-less alias and, for index files, the containing directory.
func (m *ModuleMap) Register(path, code string) {
	m.Modules[path] = code

	noExt := stripExtension(path)
	if noExt != path {
		m.Aliases[noExt] = path
		base := path[strings.LastIndex(path, "/")+1:]
		if strings.HasPrefix(base, "index.") {
			dir := path[:strings.LastIndex(path, "/")]
			if dir != "." && dir != "" {
				m.Aliases[dir] = path
			}
		}
	}
}

// Lookup resolves an import specifier against exact paths and aliases,
// returning the canonical module path.
func (m *ModuleMap) Lookup(spec string) (string, bool) {
	if _, ok := m.Modules[spec]; ok {
		return spec, true
	}
	if canonical, ok := m.Aliases[spec]; ok {
		return canonical, true
	}
	return "", false
}

func stripExtension(path string) string {
	i := strings.LastIndex(path, "/")
	dot := strings.LastIndex(path, ".")
	if dot > i {
		return path[:dot]
	}
	return path
}

// stylesheetImport matches same-line import statements of stylesheet
// files in script sources. They are commented out, not resolved:
// stylesheets are globally and unconditionally applied, so the import
// statement is a no-op signal only.
var stylesheetImport = regexp.MustCompile(`import\s+['"][^'"]+\.css['"];?`)

func elideStylesheetImports(code string) string {
	return stylesheetImport.ReplaceAllStringFunc(code, func(match string) string {
		return "// " + match
	})
}

// Transformer turns a tree snapshot into a ModuleMap.
type Transformer struct {
	externals map[string]string
	log       logging.Logger
}

// NewTransformer creates a transformer with the pinned external import
// set from configuration.
func NewTransformer(externals map[string]string, log logging.Logger) *Transformer {
	return &Transformer{externals: externals, log: log.WithComponent("transform")}
}

// Build walks every file in the tree and packages it. Transpilation
// failure of one file degrades to a recorded error for that file; all
// other files still land in the map.
func (t *Transformer) Build(tree *vfs.Tree) (*ModuleMap, []errors.TransformError) {
	mm := NewModuleMap(t.externals)
	collector := errors.NewErrorCollector()

	paths := tree.FilePaths()
	sort.Strings(paths)

	for _, path := range paths {
		node, ok := tree.Resolve(path)
		if !ok || node.Kind != vfs.KindFile {
			continue
		}
		key := "./" + path

		switch {
		case isStylesheet(node.Name):
			mm.Styles = append(mm.Styles, Stylesheet{Path: key, Content: node.Content})

		case isScript(node.Name):
			code, errs := t.transpile(path, node.Content)
			if len(errs) > 0 {
				for _, te := range errs {
					collector.Add(te)
					t.log.Warn(context.Background(), &te, "transform failed", "file", path)
				}
				continue
			}
			mm.Register(key, code)

		default:
			// Opaque passthrough: registered untouched so imports of
			// data-ish files still resolve.
			mm.Register(key, node.Content)
		}
	}

	return mm, collector.GetErrors()
}

// transpile compiles one script-like source to plain executable
// JavaScript. Each file is transformed independently.
func (t *Transformer) transpile(path, code string) (string, []errors.TransformError) {
	result := api.Transform(elideStylesheetImports(code), api.TransformOptions{
		Loader:     loaderForPath(path),
		Format:     api.FormatESModule,
		JSX:        api.JSXAutomatic,
		Sourcemap:  api.SourceMapInline,
		Sourcefile: path,
		Target:     api.ESNext,
	})

	if len(result.Errors) > 0 {
		out := make([]errors.TransformError, 0, len(result.Errors))
		for _, msg := range result.Errors {
			te := errors.TransformError{
				File:     path,
				Message:  msg.Text,
				Severity: errors.ErrorSeverityError,
			}
			if msg.Location != nil {
				te.Line = msg.Location.Line
				te.Column = msg.Location.Column
			}
			out = append(out, te)
		}
		return "", out
	}
	return string(result.Code), nil
}

func loaderForPath(path string) api.Loader {
	switch {
	case strings.HasSuffix(path, ".tsx"):
		return api.LoaderTSX
	case strings.HasSuffix(path, ".ts"):
		return api.LoaderTS
	case strings.HasSuffix(path, ".jsx"):
		return api.LoaderJSX
	default:
		return api.LoaderJS
	}
}
