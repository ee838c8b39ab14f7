package audio

import (
	"context"
	"strings"
	"time"
)

// DependencyStatus reports whether an external tool can be used.
type DependencyStatus struct {
	Name         string
	Required     bool
	Installed    bool
	Version      string
	Path         string
	Instructions string
}

// CheckFFmpeg probes for ffmpeg on PATH and extracts its version line.
// ffmpeg is required: tempo scaling and encoding both go through it.
func CheckFFmpeg(ctx context.Context) DependencyStatus {
	status := DependencyStatus{
		Name:         "ffmpeg",
		Required:     true,
		Instructions: "install ffmpeg (e.g. apt install ffmpeg, brew install ffmpeg)",
	}

	path, err := LookPath("ffmpeg")
	if err != nil {
		return status
	}
	status.Installed = true
	status.Path = path

	runner := NewRunner(5 * time.Second)
	out, err := runner.Run(ctx, nil, "ffmpeg", "-version")
	if err == nil {
		status.Version = firstVersionToken(string(out))
	}
	return status
}

// CheckTool probes for an arbitrary binary, used for the TTS engine.
func CheckTool(name, instructions string, required bool) DependencyStatus {
	status := DependencyStatus{
		Name:         name,
		Required:     required,
		Instructions: instructions,
	}
	if path, err := LookPath(name); err == nil {
		status.Installed = true
		status.Path = path
	}
	return status
}

func firstVersionToken(out string) string {
	// "ffmpeg version 6.1.1 Copyright ..." -> "6.1.1"
	fields := strings.Fields(out)
	for i, f := range fields {
		if f == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}
