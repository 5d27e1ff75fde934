package services

import (
	"regexp"
	"strings"

	"ytscript-backend/internal/apperr"
)

// Checked in order; the id ends at '&', newline, '?' or '#'.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/watch\?.*v=([^&\n?#]+)`),
}

// ResolveVideoID extracts the video id from a YouTube watch, short-link or
// embed URL.
func ResolveVideoID(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(rawURL); len(m) > 1 && m[1] != "" {
			return m[1], nil
		}
	}
	return "", apperr.Validation("Invalid YouTube URL").WithDetail("url", rawURL)
}
