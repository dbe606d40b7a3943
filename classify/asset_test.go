package classify

import "testing"

func TestExtractAsset_NameBeforeBareISIN(t *testing.T) {
	lines := []string{"POSITION ANZAHL", "Apple Inc.", "US0378331005"}
	if got := ExtractAsset(lines, TypeKaufSparplan, "US0378331005"); got != "Apple Inc." {
		t.Errorf("ExtractAsset = %q, want %q", got, "Apple Inc.")
	}
}

func TestExtractAsset_NameAfterEmbeddedISIN(t *testing.T) {
	lines := []string{"ISIN: US0378331005 Stk. 1,5", "Apple Inc.", "GESAMT 100,00 EUR"}
	if got := ExtractAsset(lines, TypeKauf, "US0378331005"); got != "Apple Inc." {
		t.Errorf("ExtractAsset = %q, want %q", got, "Apple Inc.")
	}
}

func TestExtractAsset_NearestPrecedingWins(t *testing.T) {
	lines := []string{"Vanguard FTSE All-World", "Apple Inc.", "US0378331005"}
	if got := ExtractAsset(lines, TypeKauf, "US0378331005"); got != "Apple Inc." {
		t.Errorf("ExtractAsset = %q, want nearest preceding line", got)
	}
}

func TestExtractAsset_SkipsNoiseRows(t *testing.T) {
	// WHAT: Amount rows, quantity rows, and date rows between the name and
	// the ISIN are stepped over.
	// WHY: Table layouts interleave the security name with numeric columns;
	// taking the literally adjacent line would name files "GESAMT 100,00 EUR".
	lines := []string{"Apple Inc.", "Datum 01.01.2024", "1,5 Stk.", "US0378331005"}
	if got := ExtractAsset(lines, TypeKauf, "US0378331005"); got != "Apple Inc." {
		t.Errorf("ExtractAsset = %q, want %q", got, "Apple Inc.")
	}
}

func TestExtractAsset_FallsBackToISIN(t *testing.T) {
	lines := []string{"GESAMT 100,00 EUR", "US0378331005"}
	if got := ExtractAsset(lines, TypeKauf, "US0378331005"); got != "US0378331005" {
		t.Errorf("ExtractAsset = %q, want the ISIN itself", got)
	}
}

func TestExtractAsset_PositionHeader(t *testing.T) {
	// No ISIN anywhere, but a position table names the holding.
	lines := []string{"DEPOTAUSZUG", "POSITION", "Bitcoin", "0,5000 Stk."}
	if got := ExtractAsset(lines, TypeDepotauszug, ""); got != "Bitcoin" {
		t.Errorf("ExtractAsset = %q, want %q", got, "Bitcoin")
	}
}

func TestExtractAsset_DepotTransferLabel(t *testing.T) {
	lines := []string{"DEPOTTRANSFER", "Depottransfer eingegangen Apple Inc."}
	if got := ExtractAsset(lines, TypeDepottransfer, ""); got != "Apple Inc." {
		t.Errorf("ExtractAsset = %q, want transfer label", got)
	}
}

func TestExtractAsset_Sentinels(t *testing.T) {
	cases := []struct {
		typ  DocumentType
		want string
	}{
		{TypeDepotauszug, "Depot"},
		{TypeDepottransfer, "Depot"},
		{TypeSteuerlicheOptimierung, "Steuer"},
		{TypeJahressteuerbescheinigung, "Steuer"},
		{TypeSteuerreport, "Steuer"},
		{TypeKosteninformation, "Kosten"},
		{TypeExPostKosteninformation, "Kosten"},
		{TypeZinsen, "Guthaben"},
		{TypeDividende, "Guthaben"},
	}
	for _, tc := range cases {
		t.Run(string(tc.typ), func(t *testing.T) {
			if got := ExtractAsset([]string{"DATUM 01.01.2024"}, tc.typ, ""); got != tc.want {
				t.Errorf("ExtractAsset(%s) = %q, want %q", tc.typ, got, tc.want)
			}
		})
	}
}

func TestExtractAsset_CashAccountIBAN(t *testing.T) {
	lines := []string{"KONTOAUSZUG", "IBAN DE89370400440532013000"}
	if got := ExtractAsset(lines, TypeKontoauszug, ""); got != "DE89370400440532013000" {
		t.Errorf("ExtractAsset = %q, want account IBAN", got)
	}
	if got := ExtractAsset([]string{"KONTOAUSZUG"}, TypeKontoauszug, ""); got != "Konto" {
		t.Errorf("ExtractAsset = %q, want %q without IBAN", got, "Konto")
	}
}

func TestPlausibleAssetLine(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"Apple Inc.", true},
		{"MSCI World USD (Dist)", true},
		{"abc", false},        // too short
		{"1.234,56", false},   // no letter
		{"GESAMT 100,00 EUR", false},
		{"1,5 Stk.", false},
		{"POSITION ANZAHL", false},
		{"Datum 01.01.2024", false},
		{"DATE 2024-01-01", false},
		{"ISIN US0378331005", false}, // ISIN-bearing lines never name the asset
	}
	for _, tc := range cases {
		if got := plausibleAssetLine(tc.line); got != tc.want {
			t.Errorf("plausibleAssetLine(%q) = %v, want %v", tc.line, got, tc.want)
		}
	}
}
