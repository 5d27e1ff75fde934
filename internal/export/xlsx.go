package export

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"ytscript-backend/internal/transcript"
)

const (
	xlsxSheet       = "Transcript"
	xlsxHeaderRow   = 6
	xlsxMaxColWidth = 100
)

type XLSXRenderer struct{}

func (XLSXRenderer) Render(t *transcript.Transcript, meta *transcript.VideoMetadata) ([]byte, error) {
	m := transcript.MetadataOrDefault(meta)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Title", m.Title},
		{"Channel", m.Channel},
		{"Duration", transcript.FormatDuration(m.Duration)},
		{"Word Count", t.WordCount()},
		nil,
		{"Timestamp", "Duration (seconds)", "Text"},
	}
	for _, seg := range t.Segments() {
		rows = append(rows, []interface{}{
			transcript.FormatTimestamp(seg.Start),
			math.Round(seg.Duration*100) / 100,
			seg.Text,
		})
	}

	widths := make([]int, 3)
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
		for col, v := range row {
			if n := utf8.RuneCountInString(fmt.Sprint(v)); n > widths[col] {
				widths[col] = n
			}
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(xlsxSheet, xlsxHeaderRow, xlsxHeaderRow, header); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(xlsxSheet, col, col, float64(min(w+2, xlsxMaxColWidth))); err != nil {
			return nil, fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func (XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXRenderer) Extension() string { return "xlsx" }
