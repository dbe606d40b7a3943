// Package classify assigns broker documents to a document type and
// extracts the date, ISIN, and asset fields a canonical filename is built
// from. Classification is a data-driven ordered rule table: one
// Aho-Corasick pass collects every known keyword, then rules are evaluated
// in order against the found set and the first match wins.
package classify

import (
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/ArdentEmpiricist/TR-PDF-Rename/extract"
)

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	rules    []Rule
	keywords []string
	index    map[string]int
	matcher  *ahocorasick.Matcher
}

// NewClassifier compiles the built-in rule table, with extra rules (from
// configuration) evaluated ahead of it.
func NewClassifier(extra ...Rule) *Classifier {
	c := &Classifier{index: make(map[string]int)}
	for _, r := range extra {
		c.add(r)
	}
	for _, r := range builtinRules {
		c.add(r)
	}
	c.matcher = ahocorasick.NewStringMatcher(c.keywords)
	return c
}

func (c *Classifier) add(r Rule) {
	r = r.normalize()
	if r.Type == "" || len(r.All) == 0 {
		return
	}
	for _, k := range r.All {
		c.intern(k)
	}
	for _, k := range r.None {
		c.intern(k)
	}
	c.rules = append(c.rules, r)
}

func (c *Classifier) intern(keyword string) {
	if _, ok := c.index[keyword]; !ok {
		c.index[keyword] = len(c.keywords)
		c.keywords = append(c.keywords, keyword)
	}
}

// Classify returns the document type for the given text, TypeUnbekannt
// when no rule matches. It never errors; the pipeline decides how to treat
// unrecognized documents.
func (c *Classifier) Classify(text string) DocumentType {
	return c.evaluate(c.scan(strings.ToUpper(text)))
}

// scan runs the automaton once and returns the set of keyword indices
// present in the uppercased text.
func (c *Classifier) scan(upper string) map[int]bool {
	hits := c.matcher.Match([]byte(upper))
	found := make(map[int]bool, len(hits))
	for _, h := range hits {
		found[h] = true
	}
	return found
}

func (c *Classifier) evaluate(found map[int]bool) DocumentType {
	for _, r := range c.rules {
		if c.ruleMatches(r, found) {
			return r.Type
		}
	}
	return TypeUnbekannt
}

func (c *Classifier) ruleMatches(r Rule, found map[int]bool) bool {
	for _, k := range r.All {
		if !found[c.index[k]] {
			return false
		}
	}
	for _, k := range r.None {
		if found[c.index[k]] {
			return false
		}
	}
	return true
}

// Extract assembles the full Record for a document: type, date, optional
// ISIN, and asset label. It returns ErrUnrecognized when no rule matches
// and ErrNoDate when the document yields no plausible date.
func (c *Classifier) Extract(text string) (*Record, error) {
	upper := strings.ToUpper(text)
	typ := c.evaluate(c.scan(upper))

	// Collective statements aggregate several postings; their type and
	// asset come from the posting mix rather than a single header.
	typ, asset := refineCollective(upper, typ)

	if typ == TypeUnbekannt {
		return nil, ErrUnrecognized
	}

	lines := extract.Lines(text)
	isin := ExtractISIN(lines)

	date, err := ExtractDate(text, typ)
	if err != nil {
		return nil, err
	}

	if asset == "" {
		asset = ExtractAsset(lines, typ, isin)
	}

	return &Record{Type: typ, Date: date, ISIN: isin, Asset: asset}, nil
}

// refineCollective handles Sammelbeleg documents: a cash-interest posting
// yields Guthaben_Zinsen, a money-market dividend yields
// Geldmarkt_Dividende, and both together become the combined type with the
// assets joined by "_und_".
func refineCollective(upper string, typ DocumentType) (DocumentType, string) {
	if !strings.Contains(upper, "SAMMELBELEG") {
		return typ, ""
	}
	hasZins := strings.Contains(upper, "CASH ZINSEN")
	hasDiv := strings.Contains(upper, "GELDMARKT") && strings.Contains(upper, "DIVIDENDE")
	switch {
	case hasZins && hasDiv:
		return TypeZinsenUndDividende, "Guthaben_Zinsen_und_Geldmarkt_Dividende"
	case hasZins:
		return TypeZinsen, "Guthaben_Zinsen"
	case hasDiv:
		return TypeDividende, "Geldmarkt_Dividende"
	}
	return typ, ""
}
