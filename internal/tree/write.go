package tree

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteTo materializes the tree under dir, creating parent directories as
// needed. The validator is the only stage that needs the tree on a real
// filesystem; everything before it stays in memory.
func (t FileTree) WriteTo(dir string) error {
	for _, p := range t.Paths() {
		dest := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", p, err)
		}
		if err := os.WriteFile(dest, t[p], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", p, err)
		}
	}
	return nil
}
