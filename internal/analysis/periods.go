package analysis

import (
	"sort"
	"time"

	"fuel-reconcile/internal/model"
	"fuel-reconcile/internal/reconcile"
)

const (
	periodStride   = 3
	periodReadings = 4
)

// SoundingPeriod compares the tank volume drop between soundings with the
// contractual maximum over the same window.
type SoundingPeriod struct {
	AssetID string

	Start time.Time
	End   time.Time

	Readings []model.MeasurementReading

	Received   float64
	Supplied   float64
	Consumed   float64
	MaxAllowed float64

	Status model.PeriodStatus
}

// Excess is the consumed volume above the contractual maximum.
func (p SoundingPeriod) Excess() float64 {
	return p.Consumed - p.MaxAllowed
}

// SoundingPeriods builds overlapping windows of four soundings, each starting
// three readings after the previous one, so consecutive windows share their
// boundary reading. The trailing window may be shorter and stays open.
// Inputs may belong to several assets; only assetID is considered.
func SoundingPeriods(assetID string, soundings []model.MeasurementReading, estimates []model.EstimateReading, ops []model.Operation, policy reconcile.Policy) []SoundingPeriod {
	readings := make([]model.MeasurementReading, 0, len(soundings))
	for _, r := range soundings {
		if r.AssetID == assetID && !r.Date.IsZero() {
			readings = append(readings, r)
		}
	}
	if len(readings) == 0 {
		return nil
	}
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Date.Before(readings[j].Date)
	})

	n := (len(readings) + periodStride - 1) / periodStride
	out := make([]SoundingPeriod, 0, n)
	for i := 0; i < n; i++ {
		lo := i * periodStride
		hi := lo + periodReadings
		if hi > len(readings) {
			hi = len(readings)
		}
		out = append(out, buildPeriod(assetID, readings[lo:hi], estimates, ops, policy))
	}
	return out
}

func buildPeriod(assetID string, window []model.MeasurementReading, estimates []model.EstimateReading, ops []model.Operation, policy reconcile.Policy) SoundingPeriod {
	first, last := window[0], window[len(window)-1]
	p := SoundingPeriod{
		AssetID:  assetID,
		Start:    first.Date,
		End:      last.Date,
		Readings: append([]model.MeasurementReading(nil), window...),
	}

	for _, e := range estimates {
		if e.AssetID != assetID || e.Date.Before(p.Start) || e.Date.After(p.End) {
			continue
		}
		p.Received += e.Received
		p.Supplied += e.Supplied
	}

	if len(window) > 1 {
		p.Consumed = first.Volume + p.Received - (last.Volume + p.Supplied)
	}

	for _, op := range ops {
		if op.AssetID != assetID || !op.Valid() {
			continue
		}
		if op.DateStart.Before(p.Start) || op.DateStart.After(p.End) {
			continue
		}
		p.MaxAllowed += reconcile.Allocate(policy.EffectiveRate(op), op.DurationHours())
	}

	switch {
	case len(window) < periodReadings:
		p.Status = model.PeriodOpen
	case p.Consumed > p.MaxAllowed && p.Consumed > 0:
		p.Status = model.PeriodExcess
	default:
		p.Status = model.PeriodBelowContract
	}
	return p
}
