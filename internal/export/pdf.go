package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"fuel-reconcile/internal/analysis"
	"fuel-reconcile/internal/model"
)

// WritePDF renders a short landscape report: fleet summary table followed by
// the days where the reported consumption reached the contractual maximum.
func WritePDF(w io.Writer, rep Report) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "RDO vs RVE consumption report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	generated := rep.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generated.UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Inoperabilities shown: %t", rep.Policy.ShowInoperabilities))
	pdf.Ln(8)

	header := []string{"Vessel", "Days", "Estimated (m3)", "Max (m3)", "Deviation (%)", "Missing", "Status"}
	widths := []float64{70, 20, 35, 35, 35, 25, 35}
	tableHeader(pdf, header, widths)
	for _, s := range rep.summaries() {
		pdf.CellFormat(widths[0], 6, s.AssetName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%d", s.Days), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, fixed(s.EstimatedTotal), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, fixed(s.MaxTotal), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fixed(s.DeviationPercent), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, fmt.Sprintf("%d", s.MissingEstimates), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[6], 6, string(s.Status), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	names := model.AssetNames(rep.Assets)
	exceeded := false
	for _, rec := range rep.records() {
		if analysis.DayStatus(rec) != model.StatusExceeded {
			continue
		}
		if !exceeded {
			pdf.Ln(8)
			pdf.SetFont("Arial", "", 12)
			pdf.Cell(0, 8, "Days at or above contract")
			pdf.Ln(10)
			tableHeader(pdf, []string{"Vessel", "Date", "Estimated (m3)", "Max (m3)", "Diff (m3)"}, []float64{70, 35, 35, 35, 35})
			exceeded = true
		}
		est := *rec.ConsumptionEstimated
		maxDay := rec.MaxConsumption()
		pdf.CellFormat(70, 6, names[rec.AssetID], "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, rec.Key(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, fixed(est), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fixed(maxDay), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fixed(est-maxDay), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	return Error.Wrap(pdf.Output(w))
}

func tableHeader(pdf *gofpdf.Fpdf, cols []string, widths []float64) {
	pdf.SetFont("Arial", "B", 10)
	for i, c := range cols {
		pdf.CellFormat(widths[i], 6, c, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
}
