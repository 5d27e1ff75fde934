package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytscript-backend/internal/config"
	"ytscript-backend/internal/models"
	"ytscript-backend/internal/services"
)

func newExtractCmd() *cobra.Command {
	var (
		lang         string
		formats      []string
		plan         string
		outDir       string
		summary      bool
		summaryType  string
		noTimestamps bool
	)

	cmd := &cobra.Command{
		Use:   "extract URL",
		Short: "Extract a YouTube transcript",
		Long: `Fetch captions for a YouTube video and write each requested format.

Nothing is persisted. Premium formats are only rendered with --plan PRO.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := parseFormatList(formats)
			if err != nil {
				return err
			}
			names := make([]string, len(fs))
			for i, f := range fs {
				names[i] = string(f)
			}

			pipeline, err := services.NewPipeline(config.LoadPipeline(), nil, nil, nil)
			if err != nil {
				return err
			}
			defer pipeline.Close()

			res, err := pipeline.Orchestrator.Extract(cmd.Context(), services.ExtractionRequest{
				URL:            args[0],
				Language:       lang,
				Formats:        names,
				Plan:           models.ParsePlan(plan),
				IncludeSummary: summary,
				SummaryType:    summaryType,
				NoTimestamps:   noTimestamps,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s by %s (%d segments, %d words)\n",
				res.Metadata.Title, res.Metadata.Channel, res.Transcript.Len(), res.WordCount())

			for _, f := range res.Formats {
				slot := res.Outputs[f]
				if !slot.OK() {
					fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %s\n", f, slot.Err.Message)
					continue
				}
				if err := writeOutput(out, outDir, res.Metadata.Title, f, slot.Data); err != nil {
					return err
				}
			}

			if res.Summary != nil {
				fmt.Fprintf(out, "\nSummary (%s):\n%s\n", res.Summary.Type, res.Summary.Text)
				for _, p := range res.Summary.KeyPoints {
					fmt.Fprintf(out, "  • %s\n", p)
				}
			} else if res.SummaryErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ summary: %s\n", res.SummaryErr.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "en", "caption language")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{"txt"}, "output formats (txt, srt, json, pdf, docx, xlsx)")
	cmd.Flags().StringVar(&plan, "plan", "FREE", "plan tier to apply (FREE or PRO)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory to write files into")
	cmd.Flags().BoolVar(&summary, "summary", false, "include an AI summary (PRO)")
	cmd.Flags().StringVar(&summaryType, "summary-type", "concise", "summary style")
	cmd.Flags().BoolVar(&noTimestamps, "no-timestamps", false, "plain text without [m:ss] markers")
	return cmd
}
