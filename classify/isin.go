package classify

import (
	"regexp"
	"strings"
)

// isinRe matches the structural ISIN shape: two country letters, nine
// alphanumerics, one check digit.
var isinRe = regexp.MustCompile(`\b[A-Z]{2}[A-Z0-9]{9}[0-9]\b`)

// ExtractISIN scans lines in order and returns the first checksum-valid
// ISIN. Lines naming VAT identifiers are skipped: German VAT IDs share the
// ISIN shape and would otherwise leak into filenames. A structurally valid
// candidate with a bad checksum is ignored, never an error.
func ExtractISIN(lines []string) string {
	for _, line := range lines {
		if isVATLine(line) {
			continue
		}
		for _, cand := range isinRe.FindAllString(line, -1) {
			if ValidISIN(cand) {
				return cand
			}
		}
	}
	return ""
}

// vatWordRe matches VAT as a standalone word. A substring test would also
// hit German words like "Privat".
var vatWordRe = regexp.MustCompile(`(?i)\bVAT\b`)

func isVATLine(line string) bool {
	return strings.Contains(strings.ToLower(line), "umsatzsteuer") || vatWordRe.MatchString(line)
}

// ValidISIN reports whether s passes the ISO 6166 check: letters expand to
// two decimal digits (A=10 .. Z=35), then Luhn mod 10 over the digit string
// with doubling from the rightmost digit.
func ValidISIN(s string) bool {
	if len(s) != 12 {
		return false
	}
	digits := make([]int, 0, 24)
	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			if i == 11 {
				return false
			}
			v := int(r-'A') + 10
			digits = append(digits, v/10, v%10)
		case r >= '0' && r <= '9':
			if i < 2 {
				return false
			}
			digits = append(digits, int(r-'0'))
		default:
			return false
		}
	}

	sum := 0
	double := true
	for i := len(digits) - 2; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	check := (10 - sum%10) % 10
	return check == digits[len(digits)-1]
}
