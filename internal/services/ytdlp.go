package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"ytscript-backend/internal/transcript"
)

// SubtitleRequest asks a caption source to write VTT files named
// "transcript.<lang>.vtt" or "transcript.<lang>.auto.vtt" into OutputDir.
type SubtitleRequest struct {
	URL       string
	Language  string
	OutputDir string
}

// CaptionSource downloads subtitle tracks to disk.
type CaptionSource interface {
	DownloadSubtitles(ctx context.Context, req SubtitleRequest) error
}

// MetadataSource looks up descriptive info for a video.
type MetadataSource interface {
	FetchMetadata(ctx context.Context, url string) (transcript.VideoMetadata, error)
}

// ToolError is a failed external tool run. Stderr is for classification and
// logs only and must not be shown to callers.
type ToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s failed: %v: %s", e.Tool, e.Err, strings.TrimSpace(e.Stderr))
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// YtDlp runs the yt-dlp executable.
type YtDlp struct {
	Path string
}

func NewYtDlp(path string) *YtDlp {
	if path == "" {
		path = "yt-dlp"
	}
	return &YtDlp{Path: path}
}

// Version returns the installed yt-dlp version string.
func (y *YtDlp) Version(ctx context.Context) (string, error) {
	out, err := y.run(ctx, "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (y *YtDlp) DownloadSubtitles(ctx context.Context, req SubtitleRequest) error {
	_, err := y.run(ctx,
		"--write-subs",
		"--write-auto-subs",
		"--sub-lang", req.Language,
		"--sub-format", "vtt",
		"--skip-download",
		"--no-playlist",
		"--output", filepath.Join(req.OutputDir, "transcript"),
		req.URL,
	)
	return err
}

type ytDlpInfo struct {
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Channel  string  `json:"channel"`
	Duration float64 `json:"duration"`
	Language string  `json:"language"`
}

func (y *YtDlp) FetchMetadata(ctx context.Context, url string) (transcript.VideoMetadata, error) {
	out, err := y.run(ctx, "--print-json", "--skip-download", "--no-playlist", "--no-warnings", url)
	if err != nil {
		return transcript.VideoMetadata{}, err
	}

	// Warnings can precede the JSON line.
	var jsonLine string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "{") {
			jsonLine = line
			break
		}
	}
	if jsonLine == "" {
		return transcript.VideoMetadata{}, fmt.Errorf("yt-dlp printed no JSON")
	}

	var info ytDlpInfo
	if err := json.Unmarshal([]byte(jsonLine), &info); err != nil {
		return transcript.VideoMetadata{}, fmt.Errorf("failed to parse yt-dlp JSON: %w", err)
	}

	channel := info.Uploader
	if channel == "" {
		channel = info.Channel
	}
	return transcript.VideoMetadata{
		Title:    info.Title,
		Channel:  channel,
		Duration: int(math.Round(info.Duration)),
		Language: info.Language,
	}.WithDefaults(), nil
}

// toolWaitDelay caps how long Wait blocks on output pipes after the context
// ends. Wrapper scripts and their children can hold the pipes open past the
// kill.
const toolWaitDelay = 2 * time.Second

func (y *YtDlp) run(ctx context.Context, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, y.Path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = toolWaitDelay
	killProcessGroup(cmd)

	if err := cmd.Run(); err != nil {
		// A killed process reports "signal: killed"; surface the deadline instead.
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &ToolError{Tool: "yt-dlp", Stderr: stderr.String(), Err: err}
	}
	return stdout.Bytes(), nil
}
