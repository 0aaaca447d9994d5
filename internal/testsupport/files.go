package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteAsset drops a placeholder audio file into dir and returns its path.
// The payload is meaningless; tests that need real samples stub the decoder.
func WriteAsset(t testing.TB, dir, name string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
