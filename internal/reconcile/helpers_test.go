package reconcile

import (
	"time"

	"fuel-reconcile/internal/model"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(err)
	}
	return t
}

func op(assetID, code, start, end string, rate float64) model.Operation {
	return model.Operation{
		Code:                     code,
		AssetID:                  assetID,
		DateStart:                at(start),
		DateEnd:                  at(end),
		ConsumptionDailyContract: rate,
	}
}

func assets(ids ...string) []model.Asset {
	out := make([]model.Asset, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Asset{ID: id, Name: "vessel " + id})
	}
	return out
}
