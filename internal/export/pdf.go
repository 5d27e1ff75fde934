package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"ytscript-backend/internal/transcript"
)

// pdfFont covers Latin, Greek and Cyrillic. Runes it has no glyph for are
// left blank.
const pdfFont = "Go"

type PDFRenderer struct{}

func (PDFRenderer) Render(t *transcript.Transcript, meta *transcript.VideoMetadata) ([]byte, error) {
	m := transcript.MetadataOrDefault(meta)

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(m.Title, true)
	doc.SetAuthor("YTScript", true)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.AddUTF8FontFromBytes(pdfFont, "", goregular.TTF)
	doc.AddUTF8FontFromBytes(pdfFont, "B", gobold.TTF)
	doc.AddPage()

	// Header block
	doc.SetFont(pdfFont, "B", 20)
	doc.MultiCell(0, 10, m.Title, "", "C", false)
	doc.Ln(4)
	doc.SetFont(pdfFont, "", 14)
	doc.CellFormat(0, 8, "Channel: "+m.Channel, "", 1, "L", false, 0, "")
	doc.SetFont(pdfFont, "", 12)
	doc.CellFormat(0, 7, "Duration: "+transcript.FormatDuration(m.Duration), "", 1, "L", false, 0, "")
	doc.Ln(8)

	doc.SetFont(pdfFont, "", 11)
	for _, seg := range t.Segments() {
		doc.SetTextColor(128, 128, 128)
		doc.Write(6, "["+transcript.FormatTimestamp(seg.Start)+"] ")
		doc.SetTextColor(0, 0, 0)
		doc.Write(6, seg.Text)
		doc.Ln(8)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (PDFRenderer) ContentType() string { return "application/pdf" }
func (PDFRenderer) Extension() string { return "pdf" }
