package classify

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date plausibility window. Years outside it indicate extraction garbage
// rather than a real broker statement.
const (
	minYear = 2000
	maxYear = 2030
)

// Annual statements carry no day component. The sentinel renders them as
// December 31 of the reporting year, sorting them after that year's
// transactions.
const (
	sentinelMonth = time.December
	sentinelDay   = 31
)

// labeledDateRe finds dates anchored by a label. Longer label alternatives
// come first so "EXECUTION DATE" is not consumed as a bare "DATE".
var labeledDateRe = regexp.MustCompile(
	`(?i)\b(AUSFÜHRUNGSDATUM|AUSFÜHRUNG|EXECUTION\s+DATE|EXECUTION|DATUM|DATE)\b[\s:]*([0-9]{2}\.[0-9]{2}\.[0-9]{4}|[0-9]{4}-[0-9]{2}-[0-9]{2})`)

var yearRe = regexp.MustCompile(`\b(20[0-9]{2})\b`)

type dateCandidate struct {
	execution bool
	t         time.Time
}

// ExtractDate returns the document date for a classified document. Trade
// settlements prefer an execution-labeled date over the statement
// generation date; otherwise the first labeled date in document order wins.
// Dates outside the plausibility window are skipped, never clamped. Annual
// statement types fall back to a standalone year when no full date exists.
func ExtractDate(text string, typ DocumentType) (time.Time, error) {
	var candidates []dateCandidate
	for _, m := range labeledDateRe.FindAllStringSubmatch(text, -1) {
		t, ok := parseDay(m[2])
		if !ok {
			continue
		}
		label := strings.ToUpper(m[1])
		exec := strings.HasPrefix(label, "AUSFÜHRUNG") || strings.HasPrefix(label, "EXECUTION")
		candidates = append(candidates, dateCandidate{execution: exec, t: t})
	}

	if len(candidates) > 0 {
		if isTradeType(typ) {
			for _, c := range candidates {
				if c.execution {
					return c.t, nil
				}
			}
		}
		return candidates[0].t, nil
	}

	if isAnnualType(typ) {
		if y, ok := findYear(text); ok {
			return time.Date(y, sentinelMonth, sentinelDay, 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, ErrNoDate
}

func parseDay(s string) (time.Time, bool) {
	layout := "02.01.2006"
	if strings.Contains(s, "-") {
		layout = "2006-01-02"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, false
	}
	if t.Year() < minYear || t.Year() > maxYear {
		return time.Time{}, false
	}
	return t, true
}

// findYear returns the first standalone plausible year in the text. Digit
// runs like IBANs cannot match: the year must stand on word boundaries.
func findYear(text string) (int, bool) {
	for _, m := range yearRe.FindAllStringSubmatch(text, -1) {
		y, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if y >= minYear && y <= maxYear {
			return y, true
		}
	}
	return 0, false
}

func isTradeType(t DocumentType) bool {
	switch t {
	case TypeKaufSparplan, TypeKaufSaveback, TypeKauf, TypeVerkauf:
		return true
	}
	return false
}

// isAnnualType reports whether t admits the year-only date fallback.
func isAnnualType(t DocumentType) bool {
	switch t {
	case TypeJahressteuerbescheinigung, TypeSteuerreport, TypeExPostKosteninformation:
		return true
	}
	return false
}
