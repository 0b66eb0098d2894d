package agents

import (
	"regexp"
	"strings"
	"time"

	"setup-memory/internal/memory"
	"setup-memory/internal/models"
)

var (
	setupTypePattern = regexp.MustCompile(`(?i)SETUP_TYPE:\s*([^\n]+)`)
	setupTypeLine    = regexp.MustCompile(`(?i)SETUP_TYPE:\s*[^\n]+\n*`)
)

// ParseResponse extracts the classified setup from a model reply and attaches
// a history warning. It never fails: replies without a SETUP_TYPE line are
// classified as memory.UnknownSetup and returned whole.
func ParseResponse(text string, history models.StatsMapping, now time.Time) models.AnalysisResult {
	result := models.AnalysisResult{
		SetupType:    memory.UnknownSetup,
		FullAnalysis: strings.TrimSpace(text),
		Timestamp:    now,
	}

	if match := setupTypePattern.FindStringSubmatch(text); match != nil {
		if setupType := strings.TrimSpace(match[1]); setupType != "" {
			result.SetupType = setupType
			result.FullAnalysis = strings.TrimSpace(replaceFirst(setupTypeLine, text, ""))
		}
	}

	result.Warning = memory.Evaluate(result.SetupType, history)
	return result
}

// replaceFirst replaces only the leftmost match of re in s.
func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}

// Parser stamps parsed results with the current UTC time.
type Parser struct {
	now func() time.Time
}

// NewParser creates a Parser using the wall clock.
func NewParser() *Parser {
	return &Parser{now: func() time.Time { return time.Now().UTC() }}
}

// Parse runs ParseResponse at the current time.
func (p *Parser) Parse(text string, history models.StatsMapping) models.AnalysisResult {
	return ParseResponse(text, history, p.now())
}
