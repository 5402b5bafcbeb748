// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteTree creates files under root. Keys are slash-separated paths relative
// to root; parent directories are created as needed. It returns root.
func WriteTree(t testing.TB, root string, files map[string]string) string {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
	return root
}

// WritePackage creates a package directory named pkg inside a fresh temporary
// directory and fills it with files. It returns the package directory.
func WritePackage(t testing.TB, pkg string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), pkg)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create package directory: %v", err)
	}
	return WriteTree(t, dir, files)
}
