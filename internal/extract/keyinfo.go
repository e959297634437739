package extract

import (
	"regexp"
	"strings"
)

var (
	referencePattern = regexp.MustCompile(`(?i)(?:référence|ref|n°)\s*[:\-]?\s*([A-Z0-9\-/]+)`)
	deadlinePattern  = regexp.MustCompile(`(?i)(?:date limite|échéance|deadline)\s*[:\-]?\s*(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`)
	budgetPattern    = regexp.MustCompile(`(?i)(?:budget|montant)\s*[:\-]?\s*([\d\s]+(?:€|EUR|euros?))`)
)

// KeyInformation holds the metadata sniffed from a tender's text.
type KeyInformation struct {
	Reference string
	Title     string
	Deadline  string
	Budget    string
}

// SniffKeyInformation scans tender text for a reference, deadline and budget,
// and takes the first significant line as the title. Best effort only; empty
// fields mean nothing matched.
func SniffKeyInformation(text string) KeyInformation {
	var info KeyInformation

	if m := referencePattern.FindStringSubmatch(text); m != nil {
		info.Reference = strings.TrimSpace(m[1])
	}
	if m := deadlinePattern.FindStringSubmatch(text); m != nil {
		info.Deadline = strings.TrimSpace(m[1])
	}
	if m := budgetPattern.FindStringSubmatch(text); m != nil {
		info.Budget = strings.TrimSpace(m[1])
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if runes := []rune(line); len(runes) > 200 {
			line = string(runes[:200])
		}
		info.Title = line
		break
	}
	return info
}
