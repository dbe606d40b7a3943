package report

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/ArdentEmpiricist/TR-PDF-Rename/journal"
)

// OutcomeRow is one line of the CSV export. Column order follows the
// field order here.
type OutcomeRow struct {
	RunID   string `csv:"run_id"`
	Path    string `csv:"path"`
	NewName string `csv:"new_name"`
	Status  string `csv:"status"`
	Class   string `csv:"class"`
	DocType string `csv:"doc_type"`
	ISIN    string `csv:"isin"`
	Asset   string `csv:"asset"`
	Detail  string `csv:"detail"`
	At      string `csv:"at"`
}

// Rows converts journal outcomes into CSV rows.
func Rows(outs []journal.Outcome) []OutcomeRow {
	rows := make([]OutcomeRow, 0, len(outs))
	for _, o := range outs {
		rows = append(rows, OutcomeRow{
			RunID:   o.RunID,
			Path:    o.Path,
			NewName: o.NewName,
			Status:  o.Status,
			Class:   string(o.Class),
			DocType: o.DocType,
			ISIN:    o.ISIN,
			Asset:   o.Asset,
			Detail:  o.Detail,
			At:      stamp(o.At),
		})
	}
	return rows
}

// WriteCSV writes rows with a header line. An empty slice still writes
// the header, so downstream tooling always sees the columns.
func WriteCSV(w io.Writer, rows []OutcomeRow) error {
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("report: write csv: %w", err)
	}
	return nil
}
