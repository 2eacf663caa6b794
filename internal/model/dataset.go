package model

// Dataset bundles everything fetched for one reconciliation window.
type Dataset struct {
	Assets       []Asset              `json:"assets"`
	Operations   []Operation          `json:"operations"`
	Estimates    []EstimateReading    `json:"estimates"`
	Measurements []MeasurementReading `json:"measurements"`
}

// OperationsFor returns the operations of one asset, in input order.
func (d *Dataset) OperationsFor(assetID string) []Operation {
	if d == nil {
		return nil
	}
	var out []Operation
	for _, op := range d.Operations {
		if op.AssetID == assetID {
			out = append(out, op)
		}
	}
	return out
}

func (d *Dataset) EstimatesFor(assetID string) []EstimateReading {
	if d == nil {
		return nil
	}
	var out []EstimateReading
	for _, r := range d.Estimates {
		if r.AssetID == assetID {
			out = append(out, r)
		}
	}
	return out
}

func (d *Dataset) MeasurementsFor(assetID string) []MeasurementReading {
	if d == nil {
		return nil
	}
	var out []MeasurementReading
	for _, r := range d.Measurements {
		if r.AssetID == assetID {
			out = append(out, r)
		}
	}
	return out
}
