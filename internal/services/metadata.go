package services

import (
	"context"
	"log"
	"time"

	"ytscript-backend/internal/transcript"
)

const DefaultMetadataTimeout = 15 * time.Second

// MetadataFetcher wraps a MetadataSource and never fails: any error is
// logged and the placeholder metadata is returned instead.
type MetadataFetcher struct {
	source  MetadataSource
	timeout time.Duration
}

func NewMetadataFetcher(source MetadataSource, timeout time.Duration) *MetadataFetcher {
	if timeout <= 0 {
		timeout = DefaultMetadataTimeout
	}
	return &MetadataFetcher{source: source, timeout: timeout}
}

func (f *MetadataFetcher) Fetch(ctx context.Context, url string) transcript.VideoMetadata {
	if f == nil || f.source == nil {
		return transcript.DefaultMetadata()
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	meta, err := f.source.FetchMetadata(ctx, url)
	if err != nil {
		log.Printf("Metadata fetch failed for %s, using defaults: %v", url, err)
		return transcript.DefaultMetadata()
	}
	return meta.WithDefaults()
}
