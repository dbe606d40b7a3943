package classify

import "regexp"

// ibanRe matches the structural IBAN shape. The minimum length of 15 keeps
// it disjoint from the 12-character ISIN shape.
var ibanRe = regexp.MustCompile(`\b[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}\b`)

// ExtractIBAN returns the first mod-97-valid IBAN found in the lines, or
// the empty string. Cash-account statements use it as their asset label.
func ExtractIBAN(lines []string) string {
	for _, line := range lines {
		for _, cand := range ibanRe.FindAllString(line, -1) {
			if ValidIBAN(cand) {
				return cand
			}
		}
	}
	return ""
}

// ValidIBAN checks the ISO 13616 checksum: the first four characters move
// to the end, letters expand to two digits, and the resulting number must
// leave remainder 1 modulo 97.
func ValidIBAN(s string) bool {
	if len(s) < 15 || len(s) > 34 {
		return false
	}
	rearranged := s[4:] + s[:4]
	rem := 0
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			rem = (rem*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			rem = (rem*100 + int(r-'A') + 10) % 97
		default:
			return false
		}
	}
	return rem == 1
}
