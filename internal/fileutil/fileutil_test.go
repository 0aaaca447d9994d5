package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	if Exists(path) {
		t.Error("missing file reported present")
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !Exists(path) {
		t.Error("present file reported missing")
	}
	if Exists(dir) {
		t.Error("directory reported as file")
	}
}

func TestRemoveIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("remove missing: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if Exists(path) {
		t.Error("file still present")
	}
}

func TestWriteLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retry.txt")
	if err := WriteLines(path, []string{"a", "b"}); err != nil {
		t.Fatalf("write lines: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "a\nb\n" {
		t.Errorf("content = %q", data)
	}
}
