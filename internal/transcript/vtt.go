package transcript

import (
	"regexp"
	"strconv"
	"strings"
)

const timingSeparator = " --> "

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	bracketPattern = regexp.MustCompile(`\[.*?\]`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// ParseVTT converts WebVTT content into a Transcript. Cues whose text is empty
// after cleaning are dropped, and malformed timestamp components read as zero,
// so a damaged cue never aborts the rest of the file.
func ParseVTT(content string) *Transcript {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")

	var segments []Segment
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.Contains(line, timingSeparator) {
			continue
		}

		start, end := parseTiming(line)

		// Text runs until a blank line or the next timing line.
		var parts []string
		j := i + 1
		for ; j < len(lines); j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" || strings.Contains(next, timingSeparator) {
				break
			}
			if cleaned := CleanCueText(next); cleaned != "" {
				parts = append(parts, cleaned)
			}
		}
		i = j - 1

		text := strings.Join(parts, " ")
		if text == "" {
			continue
		}

		duration := end - start
		if duration < 0 {
			duration = 0
		}
		segments = append(segments, Segment{
			Start:    start,
			Duration: duration,
			Text:     text,
		})
	}

	return NewTranscript(segments)
}

// CleanCueText strips markup tags, bracketed annotations and music notes.
func CleanCueText(line string) string {
	line = tagPattern.ReplaceAllString(line, "")
	line = bracketPattern.ReplaceAllString(line, "")
	line = strings.ReplaceAll(line, "♪", "")
	line = spacePattern.ReplaceAllString(line, " ")
	return strings.TrimSpace(line)
}

func parseTiming(line string) (start, end float64) {
	parts := strings.SplitN(line, timingSeparator, 2)
	start = ParseTimestamp(lastField(parts[0]))

	// Cue settings (align:start position:0%) may follow the end time.
	if fields := strings.Fields(parts[1]); len(fields) > 0 {
		end = ParseTimestamp(fields[0])
	}
	return start, end
}

func lastField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// ParseTimestamp reads HH:MM:SS.mmm or MM:SS.mmm into seconds. Both '.' and
// ',' are accepted before the milliseconds. Unparseable parts count as zero.
func ParseTimestamp(ts string) float64 {
	ts = strings.TrimSpace(strings.Replace(ts, ",", ".", 1))

	clock, frac, _ := strings.Cut(ts, ".")
	units := strings.Split(clock, ":")

	var hours, minutes, seconds int
	switch len(units) {
	case 3:
		hours = atoiOrZero(units[0])
		minutes = atoiOrZero(units[1])
		seconds = atoiOrZero(units[2])
	case 2:
		minutes = atoiOrZero(units[0])
		seconds = atoiOrZero(units[1])
	case 1:
		seconds = atoiOrZero(units[0])
	}

	millis := 0
	if frac != "" {
		if len(frac) > 3 {
			frac = frac[:3]
		}
		for len(frac) < 3 {
			frac += "0"
		}
		millis = atoiOrZero(frac)
	}

	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
