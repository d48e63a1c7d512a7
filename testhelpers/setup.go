// Package testhelpers provides shared utilities for testing litgrep
package testhelpers

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/goleak"
)

// WriteTree materializes a map of relative path -> content under a fresh
// temp directory and returns its root. Parent directories are created as
// needed; cleanup is automatic via t.TempDir.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		WriteFile(t, root, rel, []byte(content))
	}
	return root
}

// WriteFile writes one file under root, creating parents.
func WriteFile(t *testing.T, root, rel string, content []byte) string {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

// VerifyNoLeaks wires goroutine leak detection into a package's TestMain.
func VerifyNoLeaks(m *testing.M) {
	goleak.VerifyTestMain(m)
}
