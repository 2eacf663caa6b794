package reconcile

import (
	"fmt"
	"time"

	"fuel-reconcile/internal/model"
)

// DayRecord is the reconciled view of one asset on one calendar day.
// This is the primary artifact handed to reports and charts.
type DayRecord struct {
	AssetID string    `json:"asset_id"`
	Date    time.Time `json:"date"`

	// ConsumptionEstimated is nil when no (or an ambiguous) estimate exists for the day.
	ConsumptionEstimated *float64 `json:"consumption_estimated,omitempty"`

	// Measurements is only filled by the measurement source, in chronological order.
	Measurements []model.MeasurementReading `json:"measurements,omitempty"`

	Operations []ClippedOperation `json:"operations"`
}

// Key is the record's calendar date.
func (r DayRecord) Key() string {
	return r.Date.Format(dayKeyLayout)
}

func (r DayRecord) HasEstimate() bool {
	return r.ConsumptionEstimated != nil
}

// MaxConsumption is the contractual maximum for the day: the sum of allocated consumption.
func (r DayRecord) MaxConsumption() float64 {
	total := 0.0
	for _, op := range r.Operations {
		total += op.Consumption
	}
	return total
}

// Hours sums the clipped durations of the day's operations.
func (r DayRecord) Hours() float64 {
	total := 0.0
	for _, op := range r.Operations {
		total += op.DiffInHours
	}
	return total
}

type ViolationKind string

const (
	ViolationDuplicateEstimate ViolationKind = "duplicate_estimate"
)

// Violation flags input that breaks a data assumption. The affected field is
// left empty rather than guessed.
type Violation struct {
	Kind    ViolationKind `json:"kind"`
	AssetID string        `json:"asset_id"`
	Date    time.Time     `json:"date"`
	Count   int           `json:"count"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: asset=%s day=%s count=%d", v.Kind, v.AssetID, v.Date.Format(dayKeyLayout), v.Count)
}

// Result is the output of one engine run.
type Result struct {
	Records    []DayRecord
	Violations []Violation
	Days       int
	Assets     int
}

// ForAsset returns the records of one asset, in chronological order.
func (r *Result) ForAsset(assetID string) []DayRecord {
	if r == nil {
		return nil
	}
	var out []DayRecord
	for _, rec := range r.Records {
		if rec.AssetID == assetID {
			out = append(out, rec)
		}
	}
	return out
}
