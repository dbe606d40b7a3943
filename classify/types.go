package classify

import (
	"errors"
	"time"
)

// DocumentType is the category tag used verbatim in generated filenames.
type DocumentType string

const (
	TypeKaufSparplan              DocumentType = "Kauf_Sparplan"
	TypeKaufSaveback              DocumentType = "Kauf_Saveback"
	TypeKauf                      DocumentType = "Kauf"
	TypeVerkauf                   DocumentType = "Verkauf"
	TypeDividende                 DocumentType = "Dividende"
	TypeZinszahlung               DocumentType = "Zinszahlung"
	TypeZinsen                    DocumentType = "Zinsen"
	TypeZinsenUndDividende        DocumentType = "Zinsen_und_Dividende"
	TypeKapitalmassnahme          DocumentType = "Kapitalmaßnahme"
	TypeDepottransfer             DocumentType = "Depottransfer"
	TypeDepotauszug               DocumentType = "Depotauszug"
	TypeKontoauszug               DocumentType = "Kontoauszug"
	TypeSteuerlicheOptimierung    DocumentType = "Steuerliche_Optimierung"
	TypeJahressteuerbescheinigung DocumentType = "Jahressteuerbescheinigung"
	TypeSteuerreport              DocumentType = "Steuerreport"
	TypeKosteninformation         DocumentType = "Kosteninformation"
	TypeExPostKosteninformation   DocumentType = "Ex_post_Kosteninformation"
	TypeUnbekannt                 DocumentType = "Unbekannt"
)

// Record holds the fields extracted from one document. ISIN is empty when
// the document names no security; Asset is never empty.
type Record struct {
	Type  DocumentType
	Date  time.Time
	ISIN  string
	Asset string
}

// ErrUnrecognized is returned when no classification rule matches.
var ErrUnrecognized = errors.New("classify: document type not recognized")

// ErrNoDate is returned when a document yields no plausible date.
var ErrNoDate = errors.New("classify: no plausible document date found")
