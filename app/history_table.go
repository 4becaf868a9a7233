package app

import (
	"io"

	"hyperleaf/adapters/excel"
	"hyperleaf/domain/report"
	"hyperleaf/domain/result"
)

// HistoryTable is the displayed history list flattened for a spreadsheet
type HistoryTable struct {
	Headers []string
	Rows    [][]interface{}
}

// BuildHistoryTable keeps the list order. Absent numbers become blank
// cells rather than zeros.
func BuildHistoryTable(records []result.HistoryRecord, tr report.Translator) HistoryTable {
	table := HistoryTable{
		Headers: []string{
			"ID",
			tr.T("created_at"),
			"User ID",
			tr.T("cultivar"),
			tr.T("confidence"),
			tr.T("area"),
			tr.T("rate"),
			tr.T("est_production"),
			tr.T("urea_needed"),
			tr.T("est_cost"),
			tr.T("grain_weight"),
			tr.T("gsw"),
			tr.T("phips2"),
			tr.T("fertilizer_score"),
		},
		Rows: make([][]interface{}, 0, len(records)),
	}

	for _, rec := range records {
		res := rec.Result
		var created interface{}
		if !rec.CreatedAt.IsZero() {
			created = rec.CreatedAt
		}
		table.Rows = append(table.Rows, []interface{}{
			rec.ID,
			created,
			rec.OwnerID,
			res.DisplayName(),
			cell(res.Confidence),
			cell(res.Economics.FieldAreaAcres),
			cell(res.Economics.FertilizerRateINR),
			cell(res.Economics.TotalProductionQuintals),
			cell(res.Economics.UreaRequiredKg),
			cell(res.Economics.FertilizerCostINR),
			traitCell(res.Traits.GrainWeight),
			traitCell(res.Traits.StomatalConductance),
			traitCell(res.Traits.PhotosyntheticRatio),
			traitCell(res.Traits.FertilizerScore),
		})
	}
	return table
}

// HistorySheetName is the worksheet title of the history export
const HistorySheetName = "History"

// WriteHistoryWorkbook writes the displayed list as a single-sheet XLSX
func WriteHistoryWorkbook(w io.Writer, records []result.HistoryRecord, tr report.Translator) error {
	table := BuildHistoryTable(records, tr)
	return excel.Write(w, excel.Sheet{
		Name:    HistorySheetName,
		Headers: table.Headers,
		Rows:    table.Rows,
		Widths:  map[int]float64{1: 20, 3: 18},
	})
}

func cell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func traitCell(t result.TraitValue) interface{} {
	switch {
	case !t.Present:
		return nil
	case t.Number != nil:
		return *t.Number
	default:
		return t.Text
	}
}
