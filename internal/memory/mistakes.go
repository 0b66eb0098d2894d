package memory

import (
	"regexp"

	"setup-memory/internal/models"
)

// MaxCommonMistakes bounds SetupRecord.CommonMistakes.
const MaxCommonMistakes = 5

type mistakePattern struct {
	regex   *regexp.Regexp
	mistake string
}

// mistakePatterns is checked in order, so earlier labels are appended first.
var mistakePatterns = []mistakePattern{
	{regexp.MustCompile(`(?i)enter(?:ed)?\s+too\s+early`), "Entered too early"},
	{regexp.MustCompile(`(?i)enter(?:ed)?\s+too\s+late`), "Entered too late"},
	{regexp.MustCompile(`(?i)stop\s+(?:loss\s+)?too\s+tight`), "Stop loss too tight"},
	{regexp.MustCompile(`(?i)stop\s+(?:loss\s+)?too\s+wide`), "Stop loss too wide"},
	{regexp.MustCompile(`(?i)miss(?:ed)?\s+confirmation`), "Missed confirmation"},
	{regexp.MustCompile(`(?i)fomo`), "FOMO entry"},
	{regexp.MustCompile(`(?i)revenge\s+trad`), "Revenge trading"},
	{regexp.MustCompile(`(?i)over\s?lever`), "Over-leveraged"},
	{regexp.MustCompile(`(?i)wrong\s+direction`), "Wrong direction"},
	{regexp.MustCompile(`(?i)against\s+trend`), "Traded against trend"},
}

// KnownMistakes returns the canonical mistake labels in table order.
func KnownMistakes() []string {
	labels := make([]string, len(mistakePatterns))
	for i, p := range mistakePatterns {
		labels[i] = p.mistake
	}
	return labels
}

// ExtractMistakes folds the mistakes mentioned in note into record.CommonMistakes.
// The list keeps at most MaxCommonMistakes distinct labels, evicting the oldest.
func ExtractMistakes(record *models.SetupRecord, note string) {
	if record == nil || note == "" {
		return
	}

	for _, p := range mistakePatterns {
		if !p.regex.MatchString(note) || containsString(record.CommonMistakes, p.mistake) {
			continue
		}

		record.CommonMistakes = append(record.CommonMistakes, p.mistake)
		if len(record.CommonMistakes) > MaxCommonMistakes {
			record.CommonMistakes = record.CommonMistakes[1:]
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
