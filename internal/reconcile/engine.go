package reconcile

import (
	"time"

	"fuel-reconcile/internal/model"
)

// Options configure an Engine. The zero value is usable: UTC days, the
// default threshold and the default reserved prefix with inoperabilities hidden.
type Options struct {
	// Location defines calendar-day boundaries.
	Location       *time.Location
	Policy         Policy
	ThresholdHours float64
}

func DefaultOptions() Options {
	return Options{
		Location:       time.UTC,
		Policy:         DefaultPolicy(),
		ThresholdHours: DefaultThresholdHours,
	}
}

// Engine is the day-by-day reconciler. It holds only immutable options and is
// safe for concurrent use.
type Engine struct {
	opts Options
}

func New(opts Options) *Engine {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.ThresholdHours <= 0 {
		opts.ThresholdHours = DefaultThresholdHours
	}
	if opts.Policy.ReservedPrefix == "" {
		opts.Policy.ReservedPrefix = DefaultReservedPrefix
	}
	return &Engine{opts: opts}
}

func (e *Engine) Options() Options { return e.opts }

// Run builds one record per (day, asset) over the days spanned by ops.
// Days are the outer loop, assets the inner one in input order. src may be nil.
// No operation (or only invalid ones) means no date range and an empty result.
func (e *Engine) Run(assets []model.Asset, ops []model.Operation, src ReadingSource) *Result {
	index := NewOperationIndex(ops)
	start, end, ok := index.Bounds()
	if !ok {
		return &Result{Records: []DayRecord{}}
	}

	days := DateRange(start, end, e.opts.Location)

	var readings ReadingIndex
	if src != nil {
		readings = src.Index(e.opts.Location)
	}

	res := &Result{
		Records: make([]DayRecord, 0, len(days)*len(assets)),
		Days:    len(days),
		Assets:  len(assets),
	}
	for _, day := range days {
		for _, asset := range assets {
			rec := e.assemble(index, asset.ID, day)
			if readings != nil {
				if v := readings.Attach(&rec); v != nil {
					res.Violations = append(res.Violations, *v)
				}
			}
			res.Records = append(res.Records, rec)
		}
	}
	return res
}

// RunDataset runs over a decoded dataset, joining the readings selected by kind.
func (e *Engine) RunDataset(ds *model.Dataset, kind SourceKind) *Result {
	if ds == nil {
		return &Result{Records: []DayRecord{}}
	}
	return e.Run(ds.Assets, ds.Operations, SourceFor(kind, ds))
}

func (e *Engine) assemble(index *OperationIndex, assetID string, day Day) DayRecord {
	rec := DayRecord{
		AssetID:    assetID,
		Date:       day.Start,
		Operations: []ClippedOperation{},
	}
	for _, op := range index.Intersecting(assetID, day) {
		c, ok := Clip(op, day, e.opts.ThresholdHours)
		if !ok {
			continue
		}
		c.ConsumptionDailyContract = e.opts.Policy.EffectiveRate(op)
		c.Consumption = Allocate(c.ConsumptionDailyContract, c.DiffInHours)
		rec.Operations = append(rec.Operations, c)
	}
	return rec
}
