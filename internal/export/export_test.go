package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ytscript-backend/internal/transcript"
)

func sampleTranscript() *transcript.Transcript {
	return transcript.NewTranscript([]transcript.Segment{
		{Start: 1, Duration: 2.5, Text: "Hello world"},
		{Start: 75, Duration: 3, Text: "Second cue here"},
		{Start: 3725, Duration: 1.25, Text: "Much later"},
	})
}

func sampleMetadata() *transcript.VideoMetadata {
	return &transcript.VideoMetadata{
		Title:    "Go Concurrency Patterns",
		Channel:  "Gopher Talks",
		Duration: 3727,
		Language: "en",
	}
}

func TestTextRenderer(t *testing.T) {
	out, err := TextRenderer{}.Render(sampleTranscript(), nil)
	require.NoError(t, err)

	want := "[0:01] Hello world\n\n[1:15] Second cue here\n\n[1:02:05] Much later"
	assert.Equal(t, want, string(out))
}

func TestTextRenderer_NoTimestamps(t *testing.T) {
	tr := sampleTranscript()
	out, err := TextRenderer{NoTimestamps: true}.Render(tr, nil)
	require.NoError(t, err)

	assert.Equal(t, tr.Text(), string(out))
}

func TestSRTRenderer_SingleCue(t *testing.T) {
	tr := transcript.ParseVTT("00:00:01.000 --> 00:00:03.500\nHello world\n")

	out, err := SRTRenderer{}.Render(tr, nil)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:01,000 --> 00:00:03,500\nHello world\n", string(out))
}

func TestSRTRenderer_NumbersCuesFromOne(t *testing.T) {
	out, err := SRTRenderer{}.Render(sampleTranscript(), nil)
	require.NoError(t, err)

	cues := strings.Split(string(out), "\n\n")
	require.Len(t, cues, 3)
	assert.True(t, strings.HasPrefix(cues[1], "2\n00:01:15,000 --> 00:01:18,000\n"))
	assert.True(t, strings.HasPrefix(cues[2], "3\n01:02:05,000 --> 01:02:06,250\n"))
}

func TestJSONRenderer_Layout(t *testing.T) {
	out, err := JSONRenderer{}.Render(sampleTranscript(), sampleMetadata())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &raw))
	for _, key := range []string{"metadata", "wordCount", "segments", "fullText"} {
		assert.Contains(t, raw, key)
	}
}

func TestJSONRenderer_WordCountSurvivesDecode(t *testing.T) {
	tr := transcript.ParseVTT("WEBVTT\n\n00:00:00.000 --> 00:00:02.000\none two\n\n00:00:02.000 --> 00:00:04.000\nthree <b>four</b> five\n")

	out, err := JSONRenderer{}.Render(tr, nil)
	require.NoError(t, err)

	decoded, meta, err := DecodeJSON(out)
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.Equal(t, tr.WordCount(), decoded.WordCount())
	assert.Equal(t, tr.Segments(), decoded.Segments())
}

func TestJSONRenderer_EmptyTranscript(t *testing.T) {
	out, err := JSONRenderer{}.Render(transcript.NewTranscript(nil), nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"segments": []`)
}

func TestSegmentsStorageForm(t *testing.T) {
	tr := sampleTranscript()
	data, err := EncodeSegments(tr)
	require.NoError(t, err)

	back, err := DecodeSegments(data)
	require.NoError(t, err)
	assert.Equal(t, tr.Text(), back.Text())

	empty, err := DecodeSegments(nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestPDFRenderer(t *testing.T) {
	out, err := PDFRenderer{}.Render(sampleTranscript(), sampleMetadata())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	r, err := pdf.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	assert.Equal(t, 1, r.NumPage())

	plain, err := r.GetPlainText()
	require.NoError(t, err)
	text, err := io.ReadAll(plain)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Concurrency")
	assert.Contains(t, string(text), "Channel")
}

func TestPDFRenderer_NonLatinCaptions(t *testing.T) {
	tr := transcript.NewTranscript([]transcript.Segment{
		{Start: 0, Duration: 2, Text: "Привет café"},
		{Start: 2, Duration: 2, Text: "こんにちは"},
	})
	meta := &transcript.VideoMetadata{Title: "Ελληνικά", Channel: "Канал", Duration: 4}

	out, err := PDFRenderer{}.Render(tr, meta)
	require.NoError(t, err)
	assert.Contains(t, string(out), "/Encoding /Identity-H")

	r, err := pdf.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	plain, err := r.GetPlainText()
	require.NoError(t, err)
	text, err := io.ReadAll(plain)
	require.NoError(t, err)
	assert.Contains(t, string(text), "café")
	assert.NotContains(t, string(text), "......")
}

func TestPDFRenderer_NilMetadata(t *testing.T) {
	out, err := PDFRenderer{}.Render(sampleTranscript(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestDOCXRenderer(t *testing.T) {
	out, err := DOCXRenderer{}.Render(sampleTranscript(), sampleMetadata())
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)

	var body string
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		body = string(data)
	}

	require.NotEmpty(t, body, "word/document.xml missing")
	assert.Contains(t, body, "Go Concurrency Patterns")
	assert.Contains(t, body, "Channel: Gopher Talks")
	assert.Contains(t, body, "Duration: 1h 2m 7s")
	assert.Contains(t, body, "[1:02:05] ")
	assert.Contains(t, body, "666666")
}

func TestXLSXRenderer(t *testing.T) {
	tr := sampleTranscript()
	out, err := XLSXRenderer{}.Render(tr, sampleMetadata())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Transcript"}, f.GetSheetList())

	cell := func(axis string) string {
		v, err := f.GetCellValue("Transcript", axis)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Go Concurrency Patterns", cell("B1"))
	assert.Equal(t, "Gopher Talks", cell("B2"))
	assert.Equal(t, "1h 2m 7s", cell("B3"))
	assert.Equal(t, "7", cell("B4"))
	assert.Equal(t, "Timestamp", cell("A6"))
	assert.Equal(t, "Duration (seconds)", cell("B6"))
	assert.Equal(t, "Text", cell("C6"))
	assert.Equal(t, "0:01", cell("A7"))
	assert.Equal(t, "Hello world", cell("C7"))
	assert.Equal(t, "1:02:05", cell("A9"))

	styleID, err := f.GetCellStyle("Transcript", "A6")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	width, err := f.GetColWidth("Transcript", "B")
	require.NoError(t, err)
	assert.Equal(t, float64(len("Go Concurrency Patterns")+2), width)
}

func TestXLSXRenderer_ColumnWidthIsCapped(t *testing.T) {
	long := strings.Repeat("word ", 60)
	tr := transcript.NewTranscript([]transcript.Segment{{Start: 0, Duration: 1, Text: long}})

	out, err := XLSXRenderer{}.Render(tr, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	width, err := f.GetColWidth("Transcript", "C")
	require.NoError(t, err)
	assert.Equal(t, float64(100), width)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	_, err = ParseFormat("mp4")
	assert.Error(t, err)
}

func TestRegistryCoversEveryFormat(t *testing.T) {
	for _, f := range Formats() {
		r, ok := Lookup(f)
		require.True(t, ok, f)
		assert.Equal(t, string(f), r.Extension())
		assert.NotEmpty(t, r.ContentType())
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Go_Concurrency_Patterns.pdf", Filename("Go Concurrency Patterns", FormatPDF))
	assert.Equal(t, "transcript.txt", Filename("???", FormatTXT))
}
