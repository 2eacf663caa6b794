package reconcile

import "fuel-reconcile/internal/model"

const (
	// DefaultThresholdHours is the minimum clipped duration kept for a day.
	// Shorter clips are boundary noise from operations that merely touch the day.
	DefaultThresholdHours = 0.1

	HoursPerDay = 24.0
)

// ClippedOperation is an operation projected onto one calendar day.
// DateStart/DateEnd hold the clipped sub-interval and ConsumptionDailyContract
// the rate after the inoperability policy was applied.
type ClippedOperation struct {
	model.Operation
	DiffInHours float64 `json:"diff_in_hours"`
	Consumption float64 `json:"consumption"`
}

// Clip restricts op to day. It returns false when op does not overlap the day
// or when the overlap lasts thresholdHours or less.
func Clip(op model.Operation, day Day, thresholdHours float64) (ClippedOperation, bool) {
	if !Overlaps(op, day) {
		return ClippedOperation{}, false
	}

	start := op.DateStart
	if start.Before(day.Start) {
		start = day.Start
	}
	end := op.DateEnd
	if end.After(day.End) {
		end = day.End
	}
	if end.Before(start) {
		// inverted interval, malformed upstream
		return ClippedOperation{}, false
	}

	diff := end.Sub(start).Hours()
	if diff <= thresholdHours {
		return ClippedOperation{}, false
	}
	// 25h DST days
	if diff > HoursPerDay {
		diff = HoursPerDay
	}

	loc := day.Start.Location()
	clipped := op
	clipped.DateStart = start.In(loc)
	clipped.DateEnd = end.In(loc)
	return ClippedOperation{Operation: clipped, DiffInHours: diff}, true
}
