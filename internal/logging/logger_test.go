package logging_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bdetect/internal/logging"
)

func TestNewConsoleWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("hello", "identifier", "abc123")
	logger.Debug("hidden at info level")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "hello") {
		t.Errorf("log missing message: %q", text)
	}
	if !strings.Contains(text, "identifier=abc123") {
		t.Errorf("log missing attribute: %q", text)
	}
	if strings.Contains(text, "hidden at info level") {
		t.Errorf("debug message leaked at info level: %q", text)
	}
}

func TestNewJSONFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("structured", "count", 3)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, `"msg":"structured"`) {
		t.Errorf("unexpected json log: %q", text)
	}
	if !strings.Contains(text, `"count":3`) {
		t.Errorf("attribute missing from json log: %q", text)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestComponentLoggerPrefixesMessages(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "component.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	component := logging.NewComponentLogger(logger, "pipeline")
	component.Info("started")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "pipeline") {
		t.Errorf("component missing from log: %q", content)
	}
}

func TestErrorAttr(t *testing.T) {
	attr := logging.Error(errors.New("boom"))
	if attr.Key != "error" {
		t.Errorf("key = %q", attr.Key)
	}
	if got := attr.Value.String(); got != "boom" {
		t.Errorf("value = %q", got)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Info("goes nowhere")
	logger.Error("also nowhere")
}
