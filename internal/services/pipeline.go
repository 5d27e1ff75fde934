package services

import (
	"fmt"
	"log"

	"ytscript-backend/internal/config"
)

// Pipeline is a configured Orchestrator plus the resources it owns.
type Pipeline struct {
	Orchestrator *Orchestrator
	YtDlp        *YtDlp
	gemini       *GeminiService
}

// NewPipeline wires the extraction pipeline from configuration. store, usage
// and notifier may be nil, as in the CLI.
func NewPipeline(cfg config.PipelineConfig, store TranscriptStore, usage UsageLogger, notifier StatusNotifier) (*Pipeline, error) {
	ytdlp := NewYtDlp(cfg.YtDlpPath)

	var metaSource MetadataSource
	switch cfg.MetadataSource {
	case "", "ytdlp":
		metaSource = ytdlp
	case "youtube":
		metaSource = NewYouTubeMetadataSource()
	default:
		return nil, fmt.Errorf("unknown metadata source %q", cfg.MetadataSource)
	}

	p := &Pipeline{YtDlp: ytdlp}

	var summarizer Summarizer = PlaceholderSummarizer{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiConcurrentReqs)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini: %w", err)
		}
		p.gemini = gemini
		summarizer = gemini
	} else {
		log.Println("GEMINI_API_KEY not set, AI summaries use placeholder text")
	}

	p.Orchestrator = NewOrchestrator(
		NewCaptionFetcher(ytdlp, cfg.TempDir, cfg.CaptionTimeout),
		NewMetadataFetcher(metaSource, cfg.MetadataTimeout),
		summarizer,
		store,
		usage,
		notifier,
	)
	return p, nil
}

// SummariesEnabled reports whether a real model backs AI summaries.
func (p *Pipeline) SummariesEnabled() bool {
	return p.gemini != nil
}

func (p *Pipeline) Close() {
	if p.gemini != nil {
		p.gemini.Close()
	}
}
