package export

import (
	"fmt"
	"strings"

	"ytscript-backend/internal/transcript"
)

// TextRenderer writes one "[m:ss] text" paragraph per segment, or the flat
// transcript text when NoTimestamps is set.
type TextRenderer struct {
	NoTimestamps bool
}

func (r TextRenderer) Render(t *transcript.Transcript, _ *transcript.VideoMetadata) ([]byte, error) {
	if r.NoTimestamps {
		return []byte(t.Text()), nil
	}

	segs := t.Segments()
	lines := make([]string, len(segs))
	for i, seg := range segs {
		lines[i] = fmt.Sprintf("[%s] %s", transcript.FormatTimestamp(seg.Start), seg.Text)
	}
	return []byte(strings.Join(lines, "\n\n")), nil
}

func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }
func (TextRenderer) Extension() string { return "txt" }

type SRTRenderer struct{}

func (SRTRenderer) Render(t *transcript.Transcript, _ *transcript.VideoMetadata) ([]byte, error) {
	segs := t.Segments()
	cues := make([]string, len(segs))
	for i, seg := range segs {
		cues[i] = fmt.Sprintf("%d\n%s --> %s\n%s\n",
			i+1,
			transcript.FormatSRTTimestamp(seg.Start),
			transcript.FormatSRTTimestamp(seg.End()),
			seg.Text,
		)
	}
	return []byte(strings.Join(cues, "\n")), nil
}

func (SRTRenderer) ContentType() string { return "application/x-subrip; charset=utf-8" }
func (SRTRenderer) Extension() string { return "srt" }
