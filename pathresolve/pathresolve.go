// Package pathresolve implements path splitting and directory traversal
// (spec.md §4.4), grounded on the original fs.c's split_path and
// path_to_inode.
package pathresolve

import (
	"strings"

	"github.com/dalci22/minifs/dirent"
	minifserrors "github.com/dalci22/minifs/errors"
	"github.com/dalci22/minifs/inode"
	"github.com/dalci22/minifs/layout"
)

// SplitPath requires path[0] == '/' and splits the remainder on '/'.
// Empty components (from "//" or a trailing "/"), components longer
// than layout.MaxFilenameLen, and more than layout.MaxPathComponents
// components are rejected. "/" yields zero components.
func SplitPath(path string) ([]string, error) {
	if len(path) == 0 || path[0] != '/' {
		return nil, minifserrors.ErrInvalidPath
	}
	if path == "/" {
		return nil, nil
	}

	rawParts := strings.Split(path[1:], "/")
	if len(rawParts) > layout.MaxPathComponents {
		return nil, minifserrors.ErrInvalidPath.WithMessage("too many path components")
	}

	parts := make([]string, 0, len(rawParts))
	for _, p := range rawParts {
		if len(p) == 0 || len(p) > layout.MaxFilenameLen {
			return nil, minifserrors.ErrInvalidPath.WithMessage("empty or over-long path component")
		}
		parts = append(parts, p)
	}
	return parts, nil
}

// InodeReader is the subset of inode.Table that resolution needs.
type InodeReader interface {
	Read(idx int) (inode.Inode, error)
}

// Resolve walks path from the root inode (0). When wantParent is true, it
// stops one component short and returns the parent directory's inode
// number instead of the final component's — this is how mkdir/create
// locate the directory a new entry should be inserted into.
//
// Resolving "/" returns the root (0) whether wantParent is false or true,
// since "/" has zero components and no directory is walked. With
// wantParent=true a one-component path such as "/x" also resolves to the
// root, its parent.
func Resolve(store dirent.Store, table InodeReader, path string, wantParent bool) (uint32, error) {
	parts, err := SplitPath(path)
	if err != nil {
		return 0, err
	}

	stop := len(parts)
	if wantParent {
		stop--
	}

	current := uint32(layout.RootInode)
	for i := 0; i < stop; i++ {
		dir, err := table.Read(int(current))
		if err != nil {
			return 0, err
		}
		if !dir.IsValid || !dir.IsDirectory {
			return 0, minifserrors.ErrNotADirectory
		}

		entry, err := dirent.Find(store, dir.DirectBlocks, parts[i])
		if err != nil {
			return 0, err
		}
		current = entry.Inum
	}

	return current, nil
}

// Basename returns the final path component, used once a path has
// resolved to a parent directory to know what name to insert/remove.
// The path must already have been validated by SplitPath.
func Basename(path string) (string, error) {
	parts, err := SplitPath(path)
	if err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "", minifserrors.ErrInvalidPath.WithMessage("path has no final component")
	}
	return parts[len(parts)-1], nil
}
