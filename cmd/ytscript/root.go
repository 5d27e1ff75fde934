package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ytscript-backend/internal/export"
)

// newRootCmd builds a fresh command tree so tests can run commands in
// isolation.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ytscript",
		Short: "YouTube transcript extraction and export",
		Long: `ytscript - extract YouTube captions with yt-dlp and export them

Commands:
  extract  fetch a video's captions and write the requested formats
  parse    render a local WebVTT file into any export format
  token    mint a development JWT for the HTTP API`,
		SilenceUsage: true,
	}

	root.AddCommand(newExtractCmd(), newParseCmd(), newTokenCmd())
	return root
}

// parseFormatList splits "txt,srt" style flags into known formats.
func parseFormatList(values []string) ([]export.Format, error) {
	var formats []export.Format
	seen := make(map[export.Format]bool)
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			f, err := export.ParseFormat(name)
			if err != nil {
				return nil, err
			}
			if !seen[f] {
				seen[f] = true
				formats = append(formats, f)
			}
		}
	}
	if len(formats) == 0 {
		formats = []export.Format{export.FormatTXT}
	}
	return formats, nil
}

// writeOutput stores one rendered format under dir and reports the path.
func writeOutput(out io.Writer, dir, title string, f export.Format, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, export.Filename(title, f))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(out, "✓ %s (%d bytes)\n", path, len(data))
	return nil
}
