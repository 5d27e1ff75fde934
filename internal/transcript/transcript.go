package transcript

import "strings"

// Segment is one caption cue. Start and Duration are in seconds.
type Segment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// End returns the end offset of the cue.
func (s Segment) End() float64 {
	return s.Start + s.Duration
}

// Transcript is the parsed form of one caption file. Text and WordCount are
// derived from the segments when the value is built and never change after.
type Transcript struct {
	segments  []Segment
	text      string
	wordCount int
}

func NewTranscript(segments []Segment) *Transcript {
	segs := make([]Segment, len(segments))
	copy(segs, segments)

	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.Text
	}
	text := strings.Join(parts, " ")

	return &Transcript{
		segments:  segs,
		text:      text,
		wordCount: len(strings.Fields(text)),
	}
}

// Segments returns a copy of the cue sequence.
func (t *Transcript) Segments() []Segment {
	out := make([]Segment, len(t.segments))
	copy(out, t.segments)
	return out
}

func (t *Transcript) Len() int { return len(t.segments) }
func (t *Transcript) Text() string { return t.text }
func (t *Transcript) WordCount() int { return t.wordCount }
func (t *Transcript) IsEmpty() bool { return len(t.segments) == 0 }

// VideoMetadata is best-effort descriptive info about a video.
type VideoMetadata struct {
	Title    string `json:"title"`
	Channel  string `json:"channel"`
	Duration int    `json:"duration"`
	Language string `json:"language"`
}

const (
	DefaultTitle    = "Unknown Title"
	DefaultChannel  = "Unknown Channel"
	DefaultLanguage = "en"
)

func DefaultMetadata() VideoMetadata {
	return VideoMetadata{
		Title:    DefaultTitle,
		Channel:  DefaultChannel,
		Duration: 0,
		Language: DefaultLanguage,
	}
}

// WithDefaults fills empty fields with placeholder values.
func (m VideoMetadata) WithDefaults() VideoMetadata {
	if strings.TrimSpace(m.Title) == "" {
		m.Title = DefaultTitle
	}
	if strings.TrimSpace(m.Channel) == "" {
		m.Channel = DefaultChannel
	}
	if m.Duration < 0 {
		m.Duration = 0
	}
	if strings.TrimSpace(m.Language) == "" {
		m.Language = DefaultLanguage
	}
	return m
}

// MetadataOrDefault dereferences meta, substituting defaults for nil.
func MetadataOrDefault(meta *VideoMetadata) VideoMetadata {
	if meta == nil {
		return DefaultMetadata()
	}
	return meta.WithDefaults()
}
