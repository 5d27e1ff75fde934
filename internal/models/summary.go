package models

// TranscriptSummary is the AI summary attached to PRO extractions.
type TranscriptSummary struct {
	Text      string   `json:"text"`
	KeyPoints []string `json:"keyPoints"`
	Type      string   `json:"type"`
}

var SummaryTypes = []string{"concise", "detailed", "bullet", "chapter", "academic", "executive"}

func IsValidSummaryType(t string) bool {
	for _, s := range SummaryTypes {
		if s == t {
			return true
		}
	}
	return false
}
