package classify

import (
	"errors"
	"testing"
	"time"
)

func TestClassify_RuleTable(t *testing.T) {
	c := NewClassifier()
	cases := []struct {
		name string
		text string
		want DocumentType
	}{
		{"sparplan", "WERTPAPIERABRECHNUNG SPARPLAN\nOrder ausgeführt", TypeKaufSparplan},
		{"saveback", "WERTPAPIERABRECHNUNG SAVEBACK\nOrder ausgeführt", TypeKaufSaveback},
		{"verkauf", "WERTPAPIERABRECHNUNG\nVERKAUF Order", TypeVerkauf},
		{"kauf", "WERTPAPIERABRECHNUNG\nMarket-Order Kauf am", TypeKauf},
		{"savings plan english", "Savings Plan Execution confirmation", TypeKaufSparplan},
		{"settlement sell", "Securities Settlement\nSell order", TypeVerkauf},
		{"settlement buy", "Securities Settlement\nBuy order", TypeKauf},
		{"dividende", "DIVIDENDE Abrechnung", TypeDividende},
		{"zinszahlung", "ZINSZAHLUNG für Ihr Guthaben", TypeZinszahlung},
		{"zinsen", "Abrechnung ZINSEN", TypeZinsen},
		{"interest payout", "Interest Payout statement", TypeZinsen},
		{"kapitalmassnahme", "Information über eine Kapitalmaßnahme", TypeKapitalmassnahme},
		{"depottransfer", "DEPOTTRANSFER eingegangen", TypeDepottransfer},
		{"depotauszug", "DEPOTAUSZUG zum 31.12.2023", TypeDepotauszug},
		{"kontoauszug", "KONTOAUSZUG Januar 2024", TypeKontoauszug},
		{"steueroptimierung", "STEUERLICHE OPTIMIERUNG durchgeführt", TypeSteuerlicheOptimierung},
		{"jahressteuer", "JAHRESSTEUERBESCHEINIGUNG für 2023", TypeJahressteuerbescheinigung},
		{"steuerreport", "STEUERREPORT 2023", TypeSteuerreport},
		{"kosten ex-ante", "Kosteninformation zum Wertpapiergeschäft", TypeKosteninformation},
		{"kosten ex-post", "Ex-post Kosteninformation für 2023", TypeExPostKosteninformation},
		{"unrecognized", "Herzlich willkommen bei Ihrer Bank", TypeUnbekannt},
		{"empty", "", TypeUnbekannt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Classify(tc.text); got != tc.want {
				t.Errorf("Classify(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestClassify_SpecificBeforeGeneral(t *testing.T) {
	// WHAT: A settlement containing both the Sparplan marker and the plain
	// settlement header classifies as the savings-plan purchase.
	// WHY: Every Sparplan settlement also contains WERTPAPIERABRECHNUNG;
	// a general-first table would swallow the specific type.
	c := NewClassifier()
	text := "WERTPAPIERABRECHNUNG SPARPLAN\nWERTPAPIERABRECHNUNG\nSparplan ausgeführt"
	if got := c.Classify(text); got != TypeKaufSparplan {
		t.Errorf("Classify = %q, want %q", got, TypeKaufSparplan)
	}
}

func TestClassify_ZinszahlungBeforeZinsen(t *testing.T) {
	c := NewClassifier()
	if got := c.Classify("ZINSZAHLUNG Abrechnung der Zinsen"); got != TypeZinszahlung {
		t.Errorf("Classify = %q, want %q", got, TypeZinszahlung)
	}
}

func TestClassify_ForbiddenKeyword(t *testing.T) {
	// The plain cost-information rule refuses the ex-post variant.
	c := NewClassifier()
	if got := c.Classify("EX-POST KOSTENINFORMATION 2023"); got != TypeExPostKosteninformation {
		t.Errorf("Classify = %q, want %q", got, TypeExPostKosteninformation)
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	c := NewClassifier()
	if got := c.Classify("wertpapierabrechnung sparplan"); got != TypeKaufSparplan {
		t.Errorf("Classify = %q, want %q", got, TypeKaufSparplan)
	}
}

func TestClassify_CustomRulePrecedes(t *testing.T) {
	custom := Rule{Type: DocumentType("Sonderbeleg"), All: []string{"WERTPAPIERABRECHNUNG", "SONDER"}}
	c := NewClassifier(custom)
	got := c.Classify("WERTPAPIERABRECHNUNG SONDER")
	if got != DocumentType("Sonderbeleg") {
		t.Errorf("Classify = %q, want custom type", got)
	}
	// Built-in table still intact behind the custom rule.
	if got := c.Classify("WERTPAPIERABRECHNUNG"); got != TypeKauf {
		t.Errorf("Classify = %q, want %q", got, TypeKauf)
	}
}

func TestClassify_MalformedCustomRuleIgnored(t *testing.T) {
	c := NewClassifier(Rule{Type: "Leer"}, Rule{All: []string{"X"}})
	if got := c.Classify("X Leer"); got != TypeUnbekannt {
		t.Errorf("Classify = %q, want %q", got, TypeUnbekannt)
	}
}

func TestExtract_SavingsPlanPurchase(t *testing.T) {
	c := NewClassifier()
	text := "WERTPAPIERABRECHNUNG SPARPLAN\n" +
		"DATUM 01.01.2024\n" +
		"POSITION ANZAHL\n" +
		"Apple Inc.\n" +
		"US0378331005\n" +
		"GESAMT 100,00 EUR"
	rec, err := c.Extract(text)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.Type != TypeKaufSparplan {
		t.Errorf("Type = %q, want %q", rec.Type, TypeKaufSparplan)
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !rec.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", rec.Date, want)
	}
	if rec.ISIN != "US0378331005" {
		t.Errorf("ISIN = %q, want US0378331005", rec.ISIN)
	}
	if rec.Asset != "Apple Inc." {
		t.Errorf("Asset = %q, want %q", rec.Asset, "Apple Inc.")
	}
}

func TestExtract_CashAccountStatement(t *testing.T) {
	c := NewClassifier()
	text := "KONTOAUSZUG\n" +
		"DATUM 01.02.2024\n" +
		"IBAN DE89370400440532013000\n" +
		"Saldo 1.234,56 EUR"
	rec, err := c.Extract(text)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.Type != TypeKontoauszug {
		t.Errorf("Type = %q, want %q", rec.Type, TypeKontoauszug)
	}
	if rec.ISIN != "" {
		t.Errorf("ISIN = %q, want empty", rec.ISIN)
	}
	if rec.Asset != "DE89370400440532013000" {
		t.Errorf("Asset = %q, want the IBAN", rec.Asset)
	}
}

func TestExtract_Unrecognized(t *testing.T) {
	c := NewClassifier()
	_, err := c.Extract("Willkommensschreiben Ihrer Bank\nDATUM 01.02.2024")
	if !errors.Is(err, ErrUnrecognized) {
		t.Errorf("err = %v, want ErrUnrecognized", err)
	}
}

func TestExtract_MissingDate(t *testing.T) {
	c := NewClassifier()
	_, err := c.Extract("WERTPAPIERABRECHNUNG\nApple Inc.\nUS0378331005")
	if !errors.Is(err, ErrNoDate) {
		t.Errorf("err = %v, want ErrNoDate", err)
	}
}

func TestExtract_CollectiveStatement(t *testing.T) {
	c := NewClassifier()
	cases := []struct {
		name      string
		text      string
		wantType  DocumentType
		wantAsset string
	}{
		{
			"interest only",
			"SAMMELBELEG\nDATUM 05.03.2024\nCash Zinsen 1,23 EUR",
			TypeZinsen,
			"Guthaben_Zinsen",
		},
		{
			"dividend only",
			"SAMMELBELEG\nDATUM 05.03.2024\nGeldmarkt Ausschüttung Dividende 2,34 EUR",
			TypeDividende,
			"Geldmarkt_Dividende",
		},
		{
			"both",
			"SAMMELBELEG\nDATUM 05.03.2024\nCash Zinsen 1,23 EUR\nGeldmarkt Dividende 2,34 EUR",
			TypeZinsenUndDividende,
			"Guthaben_Zinsen_und_Geldmarkt_Dividende",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := c.Extract(tc.text)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if rec.Type != tc.wantType {
				t.Errorf("Type = %q, want %q", rec.Type, tc.wantType)
			}
			if rec.Asset != tc.wantAsset {
				t.Errorf("Asset = %q, want %q", rec.Asset, tc.wantAsset)
			}
		})
	}
}

func TestExtract_InterestPaymentDefaultsToGuthaben(t *testing.T) {
	c := NewClassifier()
	rec, err := c.Extract("ZINSZAHLUNG\nDATUM 15.07.2024\n2,00 % p.a.")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.Asset != "Guthaben" {
		t.Errorf("Asset = %q, want Guthaben", rec.Asset)
	}
	if rec.ISIN != "" {
		t.Errorf("ISIN = %q, want empty", rec.ISIN)
	}
}
