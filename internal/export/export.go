package export

import (
	"fmt"
	"strings"

	"ytscript-backend/internal/transcript"
)

type Format string

const (
	FormatTXT  Format = "txt"
	FormatSRT  Format = "srt"
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatXLSX Format = "xlsx"
)

// Renderer serializes a transcript into one output format. Implementations
// hold no mutable state and may be used from several goroutines.
type Renderer interface {
	Render(t *transcript.Transcript, meta *transcript.VideoMetadata) ([]byte, error)
	ContentType() string
	Extension() string
}

var ordered = []Format{FormatTXT, FormatSRT, FormatJSON, FormatPDF, FormatDOCX, FormatXLSX}

var registry = map[Format]Renderer{
	FormatTXT:  TextRenderer{},
	FormatSRT:  SRTRenderer{},
	FormatJSON: JSONRenderer{},
	FormatPDF:  PDFRenderer{},
	FormatDOCX: DOCXRenderer{},
	FormatXLSX: XLSXRenderer{},
}

// Formats lists every supported format in display order.
func Formats() []Format {
	out := make([]Format, len(ordered))
	copy(out, ordered)
	return out
}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := registry[f]; !ok {
		return "", fmt.Errorf("unsupported format %q", s)
	}
	return f, nil
}

func Lookup(f Format) (Renderer, bool) {
	r, ok := registry[f]
	return r, ok
}

// IsBinary reports whether the format's payload is not UTF-8 text.
func IsBinary(f Format) bool {
	switch f {
	case FormatPDF, FormatDOCX, FormatXLSX:
		return true
	}
	return false
}

// Filename builds a download name from the video title.
func Filename(title string, f Format) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		name = "transcript"
	}
	if len(name) > 80 {
		name = name[:80]
	}
	return name + "." + string(f)
}
