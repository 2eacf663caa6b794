package handlers

import (
	"fuel-reconcile/internal/analysis"
	"fuel-reconcile/internal/api/models"
	"fuel-reconcile/internal/reconcile"
)

func toSummary(s analysis.AssetSummary) models.AssetSummary {
	return models.AssetSummary{
		AssetID:               s.AssetID,
		AssetName:             s.AssetName,
		Days:                  s.Days,
		Hours:                 s.Hours,
		EstimatedTotal:        s.EstimatedTotal,
		MaxTotal:              s.MaxTotal,
		MaxTotalWithEstimated: s.MaxTotalWithEstimated,
		DeviationPercent:      s.DeviationPercent,
		MissingEstimates:      s.MissingEstimates,
		Exceeded:              s.Exceeded,
		Status:                string(s.Status),
	}
}

func toSummaries(in []analysis.AssetSummary) []models.AssetSummary {
	out := make([]models.AssetSummary, 0, len(in))
	for _, s := range in {
		out = append(out, toSummary(s))
	}
	return out
}

func toRecords(in []reconcile.DayRecord) []models.DayRecord {
	out := make([]models.DayRecord, 0, len(in))
	for _, rec := range in {
		r := models.DayRecord{
			AssetID:              rec.AssetID,
			Date:                 rec.Key(),
			Status:               string(analysis.DayStatus(rec)),
			ConsumptionEstimated: rec.ConsumptionEstimated,
			ConsumptionMaxDay:    rec.MaxConsumption(),
			Operations:           make([]models.Operation, 0, len(rec.Operations)),
		}
		for _, op := range rec.Operations {
			r.Operations = append(r.Operations, models.Operation{
				Code:                     op.Code,
				DateStart:                op.DateStart,
				DateEnd:                  op.DateEnd,
				DiffInHours:              op.DiffInHours,
				ConsumptionDailyContract: op.ConsumptionDailyContract,
				Consumption:              op.Consumption,
			})
		}
		for _, m := range rec.Measurements {
			r.Measurements = append(r.Measurements, models.Measurement{Date: m.Date, Volume: m.Volume})
		}
		out = append(out, r)
	}
	return out
}

func toViolations(in []reconcile.Violation) []models.Violation {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Violation, 0, len(in))
	for _, v := range in {
		out = append(out, models.Violation{
			Kind:    string(v.Kind),
			AssetID: v.AssetID,
			Date:    v.Date.Format("2006-01-02"),
			Count:   v.Count,
		})
	}
	return out
}
