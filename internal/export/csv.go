package export

import (
	"encoding/csv"
	"io"
	"os"
	"sort"

	"fuel-reconcile/internal/reconcile"
)

const notProvided = "not provided"

var recordHeader = []string{
	"vessel",
	"date",
	"consumption_estimated",
	"consumption_max_day",
	"diff",
	"operation",
	"start",
	"end",
	"duration",
	"consumption_max_operation",
}

// WriteRecordsCSV writes one row per clipped operation, most recent day first.
// Day-level columns are only filled on a day's first row; days without
// operations produce no rows.
func WriteRecordsCSV(out io.Writer, records []reconcile.DayRecord, names map[string]string) error {
	w := csv.NewWriter(out)

	if err := w.Write(recordHeader); err != nil {
		return Error.Wrap(err)
	}

	sorted := append([]reconcile.DayRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	for _, rec := range sorted {
		maxDay := rec.MaxConsumption()
		for i, op := range rec.Operations {
			row := make([]string, len(recordHeader))
			if i == 0 {
				row[0] = names[rec.AssetID]
				row[1] = rec.Key()
				row[2] = notProvided
				if rec.ConsumptionEstimated != nil {
					row[2] = fixed(*rec.ConsumptionEstimated)
					row[4] = fixed(*rec.ConsumptionEstimated - maxDay)
				}
				row[3] = fixed(maxDay)
			}
			row[5] = op.Code
			row[6] = op.DateStart.Format("15:04")
			row[7] = op.DateEnd.Format("15:04")
			row[8] = fixed(op.DiffInHours)
			row[9] = fixed(op.Consumption)
			if err := w.Write(row); err != nil {
				return Error.Wrap(err)
			}
		}
	}

	w.Flush()
	return Error.Wrap(w.Error())
}

// WriteRecordsCSVFile writes the records CSV to path.
func WriteRecordsCSVFile(path string, records []reconcile.DayRecord, names map[string]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return Error.Wrap(err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = Error.Wrap(cerr)
		}
	}()

	return WriteRecordsCSV(f, records, names)
}
