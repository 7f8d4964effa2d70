// Package filex contains small filesystem helpers for the client.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir makes sure dir exists, creating it (and parents) if needed,
// and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// UniquePath returns a path inside dir based on filename that does not
// collide with an existing file. Collisions are resolved by inserting
// a numeric suffix before the extension: report.pdf, report (1).pdf, ...
func UniquePath(dir string, filename string) string {
	base := filepath.Base(filename)
	candidate := filepath.Join(dir, base)

	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]

	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}
