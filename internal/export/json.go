package export

import (
	"encoding/json"
	"fmt"

	"ytscript-backend/internal/transcript"
)

// Document is the JSON export layout.
type Document struct {
	Metadata  *transcript.VideoMetadata `json:"metadata"`
	WordCount int                       `json:"wordCount"`
	Segments  []transcript.Segment      `json:"segments"`
	FullText  string                    `json:"fullText"`
}

type JSONRenderer struct{}

func (JSONRenderer) Render(t *transcript.Transcript, meta *transcript.VideoMetadata) ([]byte, error) {
	doc := Document{
		Metadata:  meta,
		WordCount: t.WordCount(),
		Segments:  t.Segments(),
		FullText:  t.Text(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode transcript json: %w", err)
	}
	return data, nil
}

func (JSONRenderer) ContentType() string { return "application/json" }
func (JSONRenderer) Extension() string { return "json" }

// DecodeJSON rebuilds a transcript from a JSON export. Text and word count
// are recomputed from the segments; the stored values are not trusted.
func DecodeJSON(data []byte) (*transcript.Transcript, *transcript.VideoMetadata, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to decode transcript json: %w", err)
	}
	return transcript.NewTranscript(doc.Segments), doc.Metadata, nil
}

// EncodeSegments is the storage form of a transcript's segments.
func EncodeSegments(t *transcript.Transcript) ([]byte, error) {
	return json.Marshal(t.Segments())
}

func DecodeSegments(data []byte) (*transcript.Transcript, error) {
	var segs []transcript.Segment
	if len(data) > 0 {
		if err := json.Unmarshal(data, &segs); err != nil {
			return nil, fmt.Errorf("failed to decode stored segments: %w", err)
		}
	}
	return transcript.NewTranscript(segs), nil
}
