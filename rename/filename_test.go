package rename

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ArdentEmpiricist/TR-PDF-Rename/classify"
)

func TestCleanName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Apple Inc.", "Apple_Inc"},
		{"iShares Core MSCI World UCITS ETF USD (Acc)", "iShares_Core_MSCI_World_UCITS_ETF_USD_Acc"},
		{"Kapitalmaßnahme", "Kapitalmaßnahme"},
		{"A  B\tC", "A_B_C"},
		{"..", ""},
		{"../../../etc/passwd", "etc_passwd"},
		{`a/b\c:d*e?f"g<h>i|j`, "a_b_c_d_e_f_g_h_i_j"},
		{"con.txt", "con_txt"},
		{"__x__", "x"},
		{"", ""},
		{"???", ""},
		{"zero​width", "zerowidth"},
	}
	for _, tc := range cases {
		if got := CleanName(tc.in); got != tc.want {
			t.Errorf("CleanName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuild_SavingsPlanPurchase(t *testing.T) {
	rec := classify.Record{
		Type:  classify.TypeKaufSparplan,
		Date:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ISIN:  "US0378331005",
		Asset: "Apple Inc.",
	}
	got, err := Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if want := "2024_01_01_Kauf_Sparplan_US0378331005_Apple_Inc.pdf"; got != want {
		t.Errorf("Build = %q, want %q", got, want)
	}
}

func TestBuild_OmitsEmptyISIN(t *testing.T) {
	rec := classify.Record{
		Type:  classify.TypeKontoauszug,
		Date:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Asset: "DE89370400440532013000",
	}
	got, err := Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if want := "2024_03_01_Kontoauszug_DE89370400440532013000.pdf"; got != want {
		t.Errorf("Build = %q, want %q", got, want)
	}
}

func TestBuild_AssetFallback(t *testing.T) {
	// WHAT: An asset that cleans to nothing becomes "Unbekannt".
	// WHY: The filename grammar has four segments; an empty one would
	// produce a double underscore and break downstream parsing.
	rec := classify.Record{
		Type:  classify.TypeZinsen,
		Date:  time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
		Asset: "???",
	}
	got, err := Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if want := "2024_07_15_Zinsen_Unbekannt.pdf"; got != want {
		t.Errorf("Build = %q, want %q", got, want)
	}
}

func TestBuild_TruncatesLongAsset(t *testing.T) {
	long := strings.Repeat("Wertpapier ", 20) // cleans to far over the asset cap
	rec := classify.Record{
		Type:  classify.TypeKauf,
		Date:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ISIN:  "IE00BK1PV551",
		Asset: long,
	}
	got, err := Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(got) > maxNameBytes {
		t.Fatalf("Build produced %d bytes, limit %d", len(got), maxNameBytes)
	}
	if strings.Contains(got, "__") {
		t.Errorf("Build = %q contains a double underscore", got)
	}
	if !strings.HasSuffix(got, ".pdf") {
		t.Errorf("Build = %q lost its extension", got)
	}
}

func TestBuild_MultibyteAssetTruncation(t *testing.T) {
	// WHAT: Truncation counts runes, not bytes.
	// WHY: Cutting a UTF-8 sequence mid-rune would write an invalid byte
	// sequence into the filename.
	rec := classify.Record{
		Type:  classify.TypeKauf,
		Date:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ISIN:  "DE000A1EWWW0",
		Asset: strings.Repeat("ä", 80),
	}
	got, err := Build(rec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, r := range got {
		if r == '�' {
			t.Fatalf("Build = %q contains a replacement rune", got)
		}
	}
}

func TestBuild_RejectsIncompleteRecords(t *testing.T) {
	cases := []struct {
		name string
		rec  classify.Record
	}{
		{"unknown type", classify.Record{Type: classify.TypeUnbekannt, Date: time.Now(), Asset: "x"}},
		{"empty type", classify.Record{Date: time.Now(), Asset: "x"}},
		{"zero date", classify.Record{Type: classify.TypeKauf, Asset: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Build(tc.rec); !errors.Is(err, ErrIncompleteRecord) {
				t.Errorf("Build err = %v, want ErrIncompleteRecord", err)
			}
		})
	}
}
