package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	yt "github.com/kkdai/youtube/v2"

	"ytscript-backend/internal/transcript"
)

// YouTubeMetadataSource reads video details from the YouTube player API
// without spawning yt-dlp.
type YouTubeMetadataSource struct {
	ytClient *yt.Client
}

func NewYouTubeMetadataSource() *YouTubeMetadataSource {
	return &YouTubeMetadataSource{
		ytClient: &yt.Client{HTTPClient: &http.Client{Timeout: 30 * time.Second}},
	}
}

func (s *YouTubeMetadataSource) FetchMetadata(ctx context.Context, url string) (transcript.VideoMetadata, error) {
	video, err := s.ytClient.GetVideoContext(ctx, url)
	if err != nil {
		return transcript.VideoMetadata{}, fmt.Errorf("failed to fetch YouTube video metadata: %w", err)
	}
	return metadataFromVideo(video), nil
}

func metadataFromVideo(video *yt.Video) transcript.VideoMetadata {
	lang := ""
	if len(video.CaptionTracks) > 0 {
		lang = video.CaptionTracks[0].LanguageCode
	}
	return transcript.VideoMetadata{
		Title:    video.Title,
		Channel:  video.Author,
		Duration: int(video.Duration.Seconds()),
		Language: lang,
	}.WithDefaults()
}
