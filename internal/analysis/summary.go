package analysis

import (
	"time"

	"fuel-reconcile/internal/model"
	"fuel-reconcile/internal/reconcile"
)

// AssetSummary is an asset-level roll-up of reconciled days, used for the
// dashboard header and for ranking.
type AssetSummary struct {
	AssetID   string
	AssetName string

	Start time.Time
	End   time.Time
	Days  int

	Hours float64

	// EstimatedTotal sums the reported daily estimates (m³). When
	// inoperabilities are hidden, a day's estimate is pro-rated to the hours
	// covered by its non-reserved operations.
	EstimatedTotal float64

	// MaxTotal sums the contractual maximum over every day (m³).
	MaxTotal float64

	// MaxTotalWithEstimated only counts days that carry an estimate, so the
	// deviation compares like with like.
	MaxTotalWithEstimated float64

	// DeviationPercent = 100 - MaxTotalWithEstimated/EstimatedTotal*100.
	// Negative when the reported consumption is above the contract.
	DeviationPercent float64

	MissingEstimates int
	Exceeded         bool
	Status           model.Status
}

// Excess is the reported consumption above the contractual maximum.
func (s AssetSummary) Excess() float64 {
	return s.EstimatedTotal - s.MaxTotal
}

// DayEstimate returns the estimate of rec as used in totals. ok is false when
// the day has no estimate.
func DayEstimate(rec reconcile.DayRecord, policy reconcile.Policy) (value float64, ok bool) {
	if rec.ConsumptionEstimated == nil {
		return 0, false
	}
	est := *rec.ConsumptionEstimated
	if policy.ShowInoperabilities {
		return est, true
	}

	reserved := false
	hours := 0.0
	for _, op := range rec.Operations {
		if policy.Reserved(op.Operation) {
			reserved = true
			continue
		}
		hours += op.DiffInHours
	}
	if !reserved {
		return est, true
	}
	return est * hours / reconcile.HoursPerDay, true
}

// DayStatus classifies one reconciled day.
func DayStatus(rec reconcile.DayRecord) model.Status {
	maxDay := rec.MaxConsumption()
	switch {
	case maxDay == 0:
		return model.StatusNoContract
	case rec.ConsumptionEstimated == nil:
		return model.StatusNoEstimate
	case maxDay <= *rec.ConsumptionEstimated:
		return model.StatusExceeded
	default:
		return model.StatusWithin
	}
}

// Summarize rolls up the records of a single asset. Records of other assets are ignored.
func Summarize(asset model.Asset, records []reconcile.DayRecord, policy reconcile.Policy) AssetSummary {
	s := AssetSummary{AssetID: asset.ID, AssetName: asset.Name}

	for _, rec := range records {
		if rec.AssetID != asset.ID {
			continue
		}
		if s.Days == 0 || rec.Date.Before(s.Start) {
			s.Start = rec.Date
		}
		if s.Days == 0 || rec.Date.After(s.End) {
			s.End = rec.Date
		}
		s.Days++

		maxDay := rec.MaxConsumption()
		s.MaxTotal += maxDay
		s.Hours += rec.Hours()

		est, ok := DayEstimate(rec, policy)
		if !ok {
			s.MissingEstimates++
			continue
		}
		s.EstimatedTotal += est
		s.MaxTotalWithEstimated += maxDay
	}

	if s.EstimatedTotal != 0 {
		s.DeviationPercent = 100 - s.MaxTotalWithEstimated/s.EstimatedTotal*100
	}
	s.Exceeded = s.MaxTotal < s.EstimatedTotal
	s.Status = summaryStatus(s)
	return s
}

func summaryStatus(s AssetSummary) model.Status {
	switch {
	case s.MaxTotal == 0:
		return model.StatusNoContract
	case s.Days > 0 && s.MissingEstimates == s.Days:
		return model.StatusNoEstimate
	case s.Exceeded:
		return model.StatusExceeded
	default:
		return model.StatusWithin
	}
}

// SummarizeFleet summarizes every asset of the run, in asset order.
func SummarizeFleet(assets []model.Asset, res *reconcile.Result, policy reconcile.Policy) []AssetSummary {
	if res == nil {
		return nil
	}
	byAsset := make(map[string][]reconcile.DayRecord, len(assets))
	for _, rec := range res.Records {
		byAsset[rec.AssetID] = append(byAsset[rec.AssetID], rec)
	}
	out := make([]AssetSummary, 0, len(assets))
	for _, a := range assets {
		out = append(out, Summarize(a, byAsset[a.ID], policy))
	}
	return out
}
