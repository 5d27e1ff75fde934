package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ytscript-backend/internal/export"
	"ytscript-backend/internal/transcript"
)

func newParseCmd() *cobra.Command {
	var (
		formats      []string
		outDir       string
		title        string
		noTimestamps bool
	)

	cmd := &cobra.Command{
		Use:   "parse FILE.vtt",
		Short: "Render a local WebVTT file",
		Long: `Parse a WebVTT subtitle file and render it.

With a single text format and no --out the result goes to stdout.
Binary formats (pdf, docx, xlsx) always need --out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := parseFormatList(formats)
			if err != nil {
				return err
			}

			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			tr := transcript.ParseVTT(string(content))

			meta := transcript.DefaultMetadata()
			if title != "" {
				meta.Title = title
			} else {
				meta.Title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			if n := tr.Len(); n > 0 {
				segs := tr.Segments()
				meta.Duration = int(segs[n-1].End() + 0.5)
			}

			toStdout := outDir == "" && len(fs) == 1 && !export.IsBinary(fs[0])
			if outDir == "" && !toStdout {
				return errors.New("--out is required for binary or multiple formats")
			}

			for _, f := range fs {
				r, _ := export.Lookup(f)
				if f == export.FormatTXT && noTimestamps {
					r = export.TextRenderer{NoTimestamps: true}
				}
				data, err := r.Render(tr, &meta)
				if err != nil {
					return fmt.Errorf("failed to render %s: %w", f, err)
				}
				if toStdout {
					fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return nil
				}
				if err := writeOutput(cmd.OutOrStdout(), outDir, meta.Title, f, data); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{"txt"}, "output formats (txt, srt, json, pdf, docx, xlsx)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory to write files into")
	cmd.Flags().StringVar(&title, "title", "", "title used in documents and file names")
	cmd.Flags().BoolVar(&noTimestamps, "no-timestamps", false, "plain text without [m:ss] markers")
	return cmd
}
