package model

import "time"

// EstimateReading is the daily report (RDO) value for one asset.
// At most one reading is expected per asset and calendar day.
// Received and Supplied are the volumes taken on board / delivered that day.
type EstimateReading struct {
	AssetID  string    `json:"asset_id"`
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
	Received float64   `json:"received,omitempty"`
	Supplied float64   `json:"supplied,omitempty"`
}

// MeasurementReading is a physical tank sounding. Several may exist per day.
type MeasurementReading struct {
	AssetID string    `json:"asset_id"`
	Date    time.Time `json:"date"`
	Volume  float64   `json:"volume"`
}
