package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/errs"

	"fuel-reconcile/internal/analysis"
	"fuel-reconcile/internal/model"
	"fuel-reconcile/internal/reconcile"
)

// Error is the class of export failures.
var Error = errs.Class("export")

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", Error.New("unsupported format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

// Filename is the download name for a report generated at t.
func (f Format) Filename(t time.Time) string {
	return fmt.Sprintf("rve_rdo_%s.%s", t.UTC().Format("20060102T150405"), f)
}

// Report is everything a rendered export needs from one reconciliation run.
type Report struct {
	Assets      []model.Asset
	Result      *reconcile.Result
	Policy      reconcile.Policy
	GeneratedAt time.Time
}

func (r Report) records() []reconcile.DayRecord {
	if r.Result == nil {
		return nil
	}
	return r.Result.Records
}

func (r Report) summaries() []analysis.AssetSummary {
	return analysis.SummarizeFleet(r.Assets, r.Result, r.Policy)
}

// Write renders rep in the requested format.
func Write(w io.Writer, f Format, rep Report) error {
	switch f {
	case FormatCSV:
		return WriteRecordsCSV(w, rep.records(), model.AssetNames(rep.Assets))
	case FormatXLSX:
		return WriteXLSX(w, rep)
	case FormatPDF:
		return WritePDF(w, rep)
	default:
		return Error.New("unsupported format %q", f)
	}
}

// fixed renders x with exactly two decimals, rounding half away from zero.
func fixed(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(2)
}
