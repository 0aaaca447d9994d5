package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"bdetect/internal/config"
)

// Requirement defines an external dependency bdetect relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the external binaries for the configured setup.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "Decodes media files to PCM audio"},
		{Name: "yt-dlp", Command: "yt-dlp", Description: "Downloads audio from media sites"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckModel verifies the classifier model file exists.
func CheckModel(cfg *config.Config) Status {
	path, err := config.ExpandPath(cfg.Detector.ModelPath)
	status := Status{
		Name:        "Classifier model",
		Command:     cfg.Detector.ModelPath,
		Description: "ONNX model scoring audio frames",
	}
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	info, err := os.Stat(path)
	if err != nil {
		status.Detail = fmt.Sprintf("model file %q not found", path)
		return status
	}
	if info.IsDir() {
		status.Detail = fmt.Sprintf("%q is a directory", path)
		return status
	}
	status.Available = true
	return status
}
