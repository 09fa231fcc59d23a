package vfs

import "errors"

var (
	// ErrNotFound is returned when an id or path does not resolve to a node.
	ErrNotFound = errors.New("vfs: node not found")

	// ErrDuplicateName is returned when a create or rename would produce
	// two siblings with the same name. Sibling names are unique so that
	// path derivation stays collision free.
	ErrDuplicateName = errors.New("vfs: sibling with that name already exists")

	// ErrCycle is returned when a move targets the node itself or one of
	// its own descendants.
	ErrCycle = errors.New("vfs: move would create a cycle")

	// ErrNotAFolder is returned when a folder operation targets a file.
	ErrNotAFolder = errors.New("vfs: node is not a folder")

	// ErrNotAFile is returned when a file operation targets a folder.
	ErrNotAFile = errors.New("vfs: node is not a file")

	// ErrRoot is returned for operations that may not touch the root node.
	ErrRoot = errors.New("vfs: operation not permitted on root")
)
