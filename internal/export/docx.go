package export

import (
	"bytes"
	"fmt"

	docx "github.com/fumiama/go-docx"

	"ytscript-backend/internal/transcript"
)

type DOCXRenderer struct{}

func (DOCXRenderer) Render(t *transcript.Transcript, meta *transcript.VideoMetadata) ([]byte, error) {
	m := transcript.MetadataOrDefault(meta)

	doc := docx.New().WithDefaultTheme()

	// Sizes are half-points.
	doc.AddParagraph().AddText(m.Title).Bold().Size("32")
	doc.AddParagraph().AddText("Channel: " + m.Channel).Size("24")
	doc.AddParagraph().AddText("Duration: " + transcript.FormatDuration(m.Duration)).Size("24")
	doc.AddParagraph()

	for _, seg := range t.Segments() {
		p := doc.AddParagraph()
		p.AddText("[" + transcript.FormatTimestamp(seg.Start) + "] ").Color("666666")
		p.AddText(seg.Text)
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write docx: %w", err)
	}
	return buf.Bytes(), nil
}

func (DOCXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (DOCXRenderer) Extension() string { return "docx" }
