// Package export serializes a file tree into a zip archive. Entries are
// written in sorted path order with a fixed timestamp, so the same tree
// always produces byte-identical archives.
package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/gameforge/internal/tree"
)

// archiveEpoch is the fixed modification time stamped on every entry.
// Zip stores local time in 2-second DOS resolution; pinning it keeps
// archives reproducible across machines and runs.
var archiveEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Write streams t as a zip archive to w.
func Write(w io.Writer, t tree.FileTree) error {
	zw := zip.NewWriter(w)
	for _, p := range t.Paths() {
		content, _ := t.Get(p)
		header := &zip.FileHeader{
			Name:     p,
			Method:   zip.Deflate,
			Modified: archiveEpoch,
		}
		header.SetMode(0o644)
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("export: create entry %s: %w", p, err)
		}
		if _, err := fw.Write(content); err != nil {
			return fmt.Errorf("export: write entry %s: %w", p, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("export: finalize archive: %w", err)
	}
	return nil
}

// WriteFile writes the archive to path atomically: the zip is staged in a
// temp file in the target directory and renamed into place, so a reader
// never observes a partial archive.
func WriteFile(path string, t tree.FileTree) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".gameforge-zip-*")
	if err != nil {
		return fmt.Errorf("export: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, t); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("export: move archive into place: %w", err)
	}
	return nil
}
