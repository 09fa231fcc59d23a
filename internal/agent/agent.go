// Package agent exposes the workspace to automated callers through a
// four-operation tool interface. Every call is path-addressed; node ids
// never leave the process.
package agent

import (
	"context"
	"fmt"
	"sort"

	"github.com/forgeide/forge/internal/logging"
	"github.com/forgeide/forge/internal/workspace"
)

// Tool names the operation a request carries.
type Tool string

const (
	ToolWriteFile  Tool = "write_file"
	ToolReadFile   Tool = "read_file"
	ToolListFiles  Tool = "list_files"
	ToolDeleteFile Tool = "delete_file"
)

// Request is one tool invocation. Path and Content are meaningful only
// for the tools that use them.
type Request struct {
	Tool    Tool   `json:"tool"`
	Path    string `json:"path,omitempty"`
	Content string `json:"content,omitempty"`
}

// Response reports one invocation's outcome. OK is false exactly when
// Error is set.
type Response struct {
	OK      bool     `json:"ok"`
	Error   string   `json:"error,omitempty"`
	Path    string   `json:"path,omitempty"`
	Content string   `json:"content,omitempty"`
	Files   []string `json:"files,omitempty"`
}

func fail(format string, args ...interface{}) Response {
	return Response{Error: fmt.Sprintf(format, args...)}
}

// Dispatcher routes tool requests to the workspace.
type Dispatcher struct {
	ws  *workspace.Workspace
	log logging.Logger
}

// NewDispatcher wires a dispatcher to a workspace.
func NewDispatcher(ws *workspace.Workspace, log logging.Logger) *Dispatcher {
	return &Dispatcher{ws: ws, log: log.WithComponent("agent")}
}

// Dispatch executes one request. Failures are carried in the response,
// never as a Go error; callers always get something serializable back.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	switch req.Tool {
	case ToolWriteFile:
		return d.writeFile(ctx, req)
	case ToolReadFile:
		return d.readFile(ctx, req)
	case ToolListFiles:
		return d.listFiles(ctx)
	case ToolDeleteFile:
		return d.deleteFile(ctx, req)
	default:
		return fail("unknown tool: %q", req.Tool)
	}
}

func (d *Dispatcher) writeFile(ctx context.Context, req Request) Response {
	if req.Path == "" {
		return fail("write_file: path is required")
	}
	if _, err := d.ws.Tree.EnsurePath(req.Path, req.Content); err != nil {
		return fail("write_file: %s: %v", req.Path, err)
	}
	d.ws.Save()
	d.log.Debug(ctx, "file written", "path", req.Path, "bytes", len(req.Content))
	return Response{OK: true, Path: req.Path}
}

func (d *Dispatcher) readFile(ctx context.Context, req Request) Response {
	if req.Path == "" {
		return fail("read_file: path is required")
	}
	node, ok := d.ws.Tree.Resolve(req.Path)
	if !ok {
		return fail("read_file: %s: not found", req.Path)
	}
	if node.IsFolder() {
		return fail("read_file: %s: is a folder", req.Path)
	}
	d.log.Debug(ctx, "file read", "path", req.Path)
	return Response{OK: true, Path: req.Path, Content: node.Content}
}

func (d *Dispatcher) listFiles(ctx context.Context) Response {
	paths := d.ws.Tree.FilePaths()
	sort.Strings(paths)
	d.log.Debug(ctx, "files listed", "count", len(paths))
	return Response{OK: true, Files: paths}
}

func (d *Dispatcher) deleteFile(ctx context.Context, req Request) Response {
	if req.Path == "" {
		return fail("delete_file: path is required")
	}
	node, ok := d.ws.Tree.Resolve(req.Path)
	if !ok {
		return fail("delete_file: %s: not found", req.Path)
	}
	if err := d.ws.Delete(node.ID); err != nil {
		return fail("delete_file: %s: %v", req.Path, err)
	}
	d.log.Debug(ctx, "file deleted", "path", req.Path)
	return Response{OK: true, Path: req.Path}
}
