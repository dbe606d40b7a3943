package classify

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// assetNoise disqualifies a line as an asset label. Amount rows, quantity
// columns, and table headers all trip one of these.
var assetNoise = []string{"gesamt", "eur", "stk.", "position", "anzahl"}

var depotTransferRe = regexp.MustCompile(`(?i)Depottransfer eingegangen\s+(.+)`)

// ExtractAsset derives the human-readable asset label for a classified
// document. Securities documents take the name printed near the ISIN,
// cash-account statements take the account IBAN, statement types take a
// fixed sentinel, and cash postings default to "Guthaben". The result is
// never empty.
func ExtractAsset(lines []string, typ DocumentType, isin string) string {
	if typ == TypeKontoauszug {
		if iban := ExtractIBAN(lines); iban != "" {
			return iban
		}
		return "Konto"
	}

	if isin != "" {
		if a := assetNearISIN(lines, isin); a != "" {
			return a
		}
	}

	if a := assetAfterPosition(lines); a != "" {
		return a
	}

	if typ == TypeDepottransfer {
		for _, line := range lines {
			if m := depotTransferRe.FindStringSubmatch(line); m != nil {
				if a := strings.TrimSpace(m[1]); a != "" {
					return a
				}
			}
		}
	}

	switch typ {
	case TypeDepotauszug, TypeDepottransfer:
		return "Depot"
	case TypeSteuerlicheOptimierung, TypeJahressteuerbescheinigung, TypeSteuerreport:
		return "Steuer"
	case TypeKosteninformation, TypeExPostKosteninformation:
		return "Kosten"
	}

	return "Guthaben"
}

// assetNearISIN applies the adjacency heuristics to the first line bearing
// the ISIN. An ISIN embedded in a longer labeled line is followed by the
// security name; a bare ISIN line is preceded by it.
func assetNearISIN(lines []string, isin string) string {
	for i, line := range lines {
		if !strings.Contains(line, isin) {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(line)) > len(isin) {
			for j := i + 1; j <= i+2 && j < len(lines); j++ {
				if plausibleAssetLine(lines[j]) {
					return lines[j]
				}
			}
		} else {
			for j := i - 1; j >= 0 && j >= i-3; j-- {
				if plausibleAssetLine(lines[j]) {
					return lines[j]
				}
			}
		}
		// Adjacency failed: the ISIN itself still identifies the asset.
		return isin
	}
	return isin
}

// assetAfterPosition takes the first plausible line following a POSITION
// table header.
func assetAfterPosition(lines []string) string {
	for i, line := range lines {
		if !strings.Contains(strings.ToUpper(line), "POSITION") {
			continue
		}
		for j := i + 1; j <= i+2 && j < len(lines); j++ {
			if plausibleAssetLine(lines[j]) {
				return lines[j]
			}
		}
		return ""
	}
	return ""
}

// plausibleAssetLine filters candidate lines. Short fragments, ISIN-bearing
// lines, pure numbers, date rows, and noise-word rows are rejected.
func plausibleAssetLine(line string) bool {
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) <= 3 {
		return false
	}
	if isinRe.MatchString(line) {
		return false
	}
	lower := strings.ToLower(line)
	for _, w := range assetNoise {
		if strings.Contains(lower, w) {
			return false
		}
	}
	if strings.HasPrefix(lower, "datum") || strings.HasPrefix(lower, "date") {
		return false
	}
	hasLetter := false
	for _, r := range line {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	return hasLetter
}
