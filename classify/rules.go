package classify

import "strings"

// Rule maps keyword occurrences to a document type. A rule matches when
// every All keyword occurs in the uppercased document text and no None
// keyword does. Rules are evaluated in table order and the first match
// wins, so specific variants must precede their general form.
type Rule struct {
	Type DocumentType `yaml:"type"`
	All  []string     `yaml:"all"`
	None []string     `yaml:"none,omitempty"`
}

// normalize uppercases the rule keywords so matching needs a single
// uppercase pass over the document text. Go uppercases ß to SS, which is
// why "Kapitalmaßnahme" in a document matches KAPITALMASSNAHME here.
func (r Rule) normalize() Rule {
	out := Rule{Type: r.Type}
	for _, k := range r.All {
		if k = strings.ToUpper(strings.TrimSpace(k)); k != "" {
			out.All = append(out.All, k)
		}
	}
	for _, k := range r.None {
		if k = strings.ToUpper(strings.TrimSpace(k)); k != "" {
			out.None = append(out.None, k)
		}
	}
	return out
}

// builtinRules is the ordered default table. German settlement headers come
// first, then their English counterparts, then notices and statements.
// Zinszahlung precedes Zinsen and the ex-post cost information precedes the
// plain one; the collective interest-and-dividend statement precedes both
// single-topic forms.
var builtinRules = []Rule{
	{Type: TypeKaufSparplan, All: []string{"WERTPAPIERABRECHNUNG", "SPARPLAN"}},
	{Type: TypeKaufSaveback, All: []string{"WERTPAPIERABRECHNUNG", "SAVEBACK"}},
	{Type: TypeVerkauf, All: []string{"WERTPAPIERABRECHNUNG", "VERKAUF"}},
	{Type: TypeKauf, All: []string{"WERTPAPIERABRECHNUNG"}},
	{Type: TypeKaufSparplan, All: []string{"SAVINGS PLAN EXECUTION"}},
	{Type: TypeVerkauf, All: []string{"SECURITIES SETTLEMENT", "SELL"}},
	{Type: TypeKauf, All: []string{"SECURITIES SETTLEMENT"}},
	{Type: TypeZinsenUndDividende, All: []string{"SAMMELBELEG", "ZINSEN", "DIVIDENDE"}},
	{Type: TypeDividende, All: []string{"DIVIDENDE"}},
	{Type: TypeZinszahlung, All: []string{"ZINSZAHLUNG"}},
	{Type: TypeZinsen, All: []string{"ZINSEN"}},
	{Type: TypeZinsen, All: []string{"INTEREST PAYOUT"}},
	{Type: TypeKapitalmassnahme, All: []string{"KAPITALMASSNAHME"}},
	{Type: TypeDepottransfer, All: []string{"DEPOTTRANSFER"}},
	{Type: TypeDepotauszug, All: []string{"DEPOTAUSZUG"}},
	{Type: TypeKontoauszug, All: []string{"KONTOAUSZUG"}},
	{Type: TypeSteuerlicheOptimierung, All: []string{"STEUERLICHE OPTIMIERUNG"}},
	{Type: TypeJahressteuerbescheinigung, All: []string{"JAHRESSTEUERBESCHEINIGUNG"}},
	{Type: TypeSteuerreport, All: []string{"STEUERREPORT"}},
	{Type: TypeExPostKosteninformation, All: []string{"EX-POST", "KOSTENINFORMATION"}},
	{Type: TypeKosteninformation, All: []string{"KOSTENINFORMATION"}, None: []string{"EX-POST"}},
}
