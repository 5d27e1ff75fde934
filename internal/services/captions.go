package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ytscript-backend/internal/apperr"
	"ytscript-backend/internal/transcript"
)

const DefaultCaptionTimeout = 30 * time.Second

const (
	msgExtractionTimedOut = "Transcript extraction timed out"
	msgSubtitlesMissing   = "Subtitles not available for this video"
	msgVideoPrivate       = "Video is private or unavailable"
	msgExtractionFailed   = "Failed to extract transcript"
)

var (
	privateMarkers  = []string{"private video", "video unavailable", "is private", "sign in to confirm", "members-only", "unavailable"}
	subtitleMarkers = []string{"no subtitles", "subtitles not available", "not available"}
)

// CaptionFetcher downloads a subtitle track into a scratch directory and
// parses it. The directory is removed on every return path.
type CaptionFetcher struct {
	source  CaptionSource
	tempDir string
	timeout time.Duration
}

func NewCaptionFetcher(source CaptionSource, tempDir string, timeout time.Duration) *CaptionFetcher {
	if timeout <= 0 {
		timeout = DefaultCaptionTimeout
	}
	return &CaptionFetcher{source: source, tempDir: tempDir, timeout: timeout}
}

func (f *CaptionFetcher) Fetch(ctx context.Context, url, videoID, lang string) (*transcript.Transcript, error) {
	if lang == "" {
		lang = transcript.DefaultLanguage
	}

	dir, err := os.MkdirTemp(f.tempDir, "ytscript_*")
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to create temp dir: %w", err))
	}
	defer os.RemoveAll(dir)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	err = f.source.DownloadSubtitles(ctx, SubtitleRequest{
		URL:       url,
		Language:  lang,
		OutputDir: dir,
	})
	if err != nil {
		log.Printf("Caption download failed for %s (%s): %v", videoID, lang, err)
		return nil, classifyCaptionError(err)
	}

	content, err := readSubtitleFile(dir, lang)
	if err != nil {
		return nil, apperr.Unavailable(fmt.Sprintf("No transcript available for video %s in language %s", videoID, lang)).
			WithDetail("video_id", videoID).
			WithDetail("language", lang)
	}

	return transcript.ParseVTT(content), nil
}

// readSubtitleFile prefers the manual track over the auto-generated one.
func readSubtitleFile(dir, lang string) (string, error) {
	candidates := []string{
		filepath.Join(dir, fmt.Sprintf("transcript.%s.vtt", lang)),
		filepath.Join(dir, fmt.Sprintf("transcript.%s.auto.vtt", lang)),
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", os.ErrNotExist
}

// classifyCaptionError maps a tool failure onto one of the fixed user-facing
// messages. The raw error stays attached as the cause.
func classifyCaptionError(err error) *apperr.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Extraction(msgExtractionTimedOut, err)
	}

	detail := err.Error()
	var te *ToolError
	if errors.As(err, &te) {
		detail = te.Stderr + " " + te.Err.Error()
	}
	detail = strings.ToLower(detail)

	switch {
	case strings.Contains(detail, "timed out") || strings.Contains(detail, "timeout"):
		return apperr.Extraction(msgExtractionTimedOut, err)
	case containsAny(detail, privateMarkers):
		return apperr.Extraction(msgVideoPrivate, err)
	case containsAny(detail, subtitleMarkers):
		return apperr.Extraction(msgSubtitlesMissing, err)
	default:
		return apperr.Extraction(msgExtractionFailed, err)
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
