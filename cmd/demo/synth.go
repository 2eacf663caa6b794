package main

import (
	"fmt"
	"math/rand"
	"time"

	"fuel-reconcile/internal/model"
)

// fleetParams shape the synthetic fleet.
type fleetParams struct {
	Vessels int
	Days    int
	Start   time.Time
	Seed    int64
}

var operationCodes = []struct {
	Code string
	Rate float64 // m³ per 24h
}{
	{"OP-NAV", 18},
	{"OP-DP", 24},
	{"OP-STBY", 6},
	{"IN-MAINT", 4},
}

// synthesize builds a dataset of back-to-back operations, one daily report
// per vessel and day (sometimes missing), and a sounding every eight hours.
func synthesize(p fleetParams) *model.Dataset {
	rng := rand.New(rand.NewSource(p.Seed))
	end := p.Start.AddDate(0, 0, p.Days)
	ds := &model.Dataset{}

	for v := 0; v < p.Vessels; v++ {
		asset := model.Asset{ID: fmt.Sprintf("V%02d", v+1), Name: fmt.Sprintf("Supply Vessel %d", v+1)}
		ds.Assets = append(ds.Assets, asset)

		// operations: 2 to 14 hours each, starting a little before the window
		daily := make(map[string]float64)
		t := p.Start.Add(-time.Duration(rng.Intn(6)) * time.Hour)
		for t.Before(end) {
			kind := operationCodes[rng.Intn(len(operationCodes))]
			next := t.Add(time.Duration(2+rng.Intn(13))*time.Hour + time.Duration(rng.Intn(4))*15*time.Minute)
			ds.Operations = append(ds.Operations, model.Operation{
				Code:                     kind.Code,
				AssetID:                  asset.ID,
				DateStart:                t,
				DateEnd:                  next,
				ConsumptionDailyContract: kind.Rate,
			})
			daily[t.Format("2006-01-02")] += kind.Rate * next.Sub(t).Hours() / 24
			t = next
		}

		// reports land around the contractual figure, some of them above it
		for d := 0; d < p.Days; d++ {
			day := p.Start.AddDate(0, 0, d)
			if rng.Float64() < 0.1 {
				continue
			}
			base := daily[day.Format("2006-01-02")]
			if base == 0 {
				base = 12
			}
			ds.Estimates = append(ds.Estimates, model.EstimateReading{
				AssetID: asset.ID,
				Date:    day,
				Value:   round2(base * (0.8 + rng.Float64()*0.4)),
			})
		}

		volume := 400.0 + float64(rng.Intn(200))
		for s := p.Start; s.Before(end); s = s.Add(8 * time.Hour) {
			ds.Measurements = append(ds.Measurements, model.MeasurementReading{
				AssetID: asset.ID,
				Date:    s,
				Volume:  round2(volume),
			})
			volume -= 3 + rng.Float64()*4
		}
	}
	return ds
}

func round2(x float64) float64 {
	return float64(int64(x*100+0.5)) / 100
}
