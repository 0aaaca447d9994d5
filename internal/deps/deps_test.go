package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"bdetect/internal/config"
	"bdetect/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
}

func TestRequirementsSatisfiedByStubbedBinaries(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs need a POSIX shell")
	}
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	for _, status := range CheckBinaries(Requirements(cfg)) {
		if !status.Available {
			t.Errorf("%s unavailable with stubbed binaries: %s", status.Name, status.Detail)
		}
	}
}

func TestCheckBinariesEmptyCommand(t *testing.T) {
	results := CheckBinaries([]Requirement{{Name: "Unset", Command: "  "}})
	if results[0].Available {
		t.Fatal("empty command reported available")
	}
	if results[0].Detail != "command not configured" {
		t.Fatalf("unexpected detail: %s", results[0].Detail)
	}
}

func TestCheckModel(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.onnx")
	if err := os.WriteFile(model, []byte("onnx"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}

	cfg := config.Default()
	cfg.Detector.ModelPath = model
	if status := CheckModel(&cfg); !status.Available {
		t.Fatalf("expected model available, got %#v", status)
	}

	cfg.Detector.ModelPath = filepath.Join(dir, "missing.onnx")
	if status := CheckModel(&cfg); status.Available {
		t.Fatal("missing model reported available")
	}

	cfg.Detector.ModelPath = dir
	if status := CheckModel(&cfg); status.Available {
		t.Fatal("directory reported as model")
	}
}
