package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"fuel-reconcile/internal/analysis"
	"fuel-reconcile/internal/model"
)

const (
	summarySheet      = "summary"
	recordsSheet      = "records"
	distributionSheet = "distribution"
)

// WriteXLSX renders a workbook with one sheet for asset summaries, one for
// daily records and one for the per-code distribution.
func WriteXLSX(w io.Writer, rep Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return Error.Wrap(err)
	}
	for _, name := range []string{recordsSheet, distributionSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return Error.Wrap(err)
		}
	}

	rows := [][]interface{}{{
		"vessel", "start", "end", "days", "hours", "estimated_total", "max_total",
		"max_total_with_estimated", "deviation_percent", "missing_estimates", "status",
	}}
	for _, s := range rep.summaries() {
		rows = append(rows, []interface{}{
			s.AssetName, dateOrEmpty(s), endOrEmpty(s), s.Days, s.Hours, s.EstimatedTotal, s.MaxTotal,
			s.MaxTotalWithEstimated, s.DeviationPercent, s.MissingEstimates, string(s.Status),
		})
	}
	if err := writeRows(f, summarySheet, rows); err != nil {
		return err
	}

	names := model.AssetNames(rep.Assets)
	rows = [][]interface{}{{
		"vessel", "date", "status", "consumption_estimated", "consumption_max_day",
		"hours", "operations",
	}}
	for _, rec := range rep.records() {
		var est interface{} = notProvided
		if rec.ConsumptionEstimated != nil {
			est = *rec.ConsumptionEstimated
		}
		rows = append(rows, []interface{}{
			names[rec.AssetID], rec.Key(), string(analysis.DayStatus(rec)), est,
			rec.MaxConsumption(), rec.Hours(), len(rec.Operations),
		})
	}
	if err := writeRows(f, recordsSheet, rows); err != nil {
		return err
	}

	rows = [][]interface{}{{"code", "hours", "max_consumption", "operations"}}
	for _, share := range analysis.Distribution(rep.records()) {
		rows = append(rows, []interface{}{share.Code, share.Hours, share.MaxConsumption, share.Operations})
	}
	if err := writeRows(f, distributionSheet, rows); err != nil {
		return err
	}

	return Error.Wrap(f.Write(w))
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return Error.Wrap(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return Error.Wrap(err)
		}
	}
	return nil
}

func dateOrEmpty(s analysis.AssetSummary) string {
	if s.Days == 0 {
		return ""
	}
	return s.Start.Format("2006-01-02")
}

func endOrEmpty(s analysis.AssetSummary) string {
	if s.Days == 0 {
		return ""
	}
	return s.End.Format("2006-01-02")
}
