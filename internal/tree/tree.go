// Package tree provides the FileTree artifact threaded through the
// generation pipeline: scaffolder -> validator -> exporter.
//
// A FileTree maps forward-slash relative paths to file contents. Paths are
// normalized on insertion and may never escape the project root. Stages add
// files with Add (which rejects collisions) and only the validator's patch
// rules may overwrite existing paths via Set.
package tree

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// FileTree maps a normalized relative path to its file content.
// Content may be text or binary; the exporter treats both identically.
type FileTree map[string][]byte

// New returns an empty FileTree.
func New() FileTree {
	return FileTree{}
}

// CollisionError reports paths that two pipeline stages both tried to
// produce. A collision is a plugin contract violation, not a user error.
type CollisionError struct {
	Paths []string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("file tree collision on %d path(s): %s", len(e.Paths), strings.Join(e.Paths, ", "))
}

// PathError reports a path that is absolute, empty, or escapes the root.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid tree path %q: %s", e.Path, e.Reason)
}

// NormalizePath cleans p to a forward-slash relative path.
// Returns a PathError when p is empty, absolute, or escapes the root.
func NormalizePath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" {
		return "", &PathError{Path: p, Reason: "empty path"}
	}
	if strings.HasPrefix(p, "/") {
		return "", &PathError{Path: p, Reason: "absolute path"}
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") || clean == "." {
		return "", &PathError{Path: p, Reason: "escapes project root"}
	}
	return clean, nil
}

// Add inserts content at p. Returns a CollisionError when p already exists;
// a colliding write is always a programming error in the producing stage.
func (t FileTree) Add(p string, content []byte) error {
	clean, err := NormalizePath(p)
	if err != nil {
		return err
	}
	if _, ok := t[clean]; ok {
		return &CollisionError{Paths: []string{clean}}
	}
	t[clean] = content
	return nil
}

// AddString is Add for text content.
func (t FileTree) AddString(p, content string) error {
	return t.Add(p, []byte(content))
}

// Set overwrites (or inserts) content at p. Reserved for intentional
// overrides such as validator patch rules.
func (t FileTree) Set(p string, content []byte) error {
	clean, err := NormalizePath(p)
	if err != nil {
		return err
	}
	t[clean] = content
	return nil
}

// Get returns the content at p and whether it exists.
func (t FileTree) Get(p string) ([]byte, bool) {
	clean, err := NormalizePath(p)
	if err != nil {
		return nil, false
	}
	c, ok := t[clean]
	return c, ok
}

// Merge adds every entry of other into t. All collisions are collected and
// reported in one CollisionError; t is not modified when any collision exists.
func (t FileTree) Merge(other FileTree) error {
	var collisions []string
	for p := range other {
		if _, ok := t[p]; ok {
			collisions = append(collisions, p)
		}
	}
	if len(collisions) > 0 {
		sort.Strings(collisions)
		return &CollisionError{Paths: collisions}
	}
	for p, c := range other {
		t[p] = c
	}
	return nil
}

// Paths returns every path in lexicographic order. All iteration in the
// pipeline goes through Paths so downstream output is deterministic.
func (t FileTree) Paths() []string {
	paths := make([]string, 0, len(t))
	for p := range t {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clone returns a deep copy. Patch rules operate on clones so a failed
// autofix pass never leaves a half-patched tree behind.
func (t FileTree) Clone() FileTree {
	out := make(FileTree, len(t))
	for p, c := range t {
		dup := make([]byte, len(c))
		copy(dup, c)
		out[p] = dup
	}
	return out
}
