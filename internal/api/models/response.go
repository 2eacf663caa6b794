package models

import "time"

// ReconcileResponse represents the response from a reconciliation run
type ReconcileResponse struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	Window     TimeWindow     `json:"window"`
	Days       int            `json:"days"`
	Assets     int            `json:"assets"`
	Summaries  []AssetSummary `json:"summaries"`
	Violations []Violation    `json:"violations,omitempty"`
	Records    []DayRecord    `json:"records,omitempty"`
}

// TimeWindow represents a time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AssetSummary is the per-asset roll-up
type AssetSummary struct {
	Rank                  int     `json:"rank,omitempty"`
	AssetID               string  `json:"asset_id"`
	AssetName             string  `json:"asset_name"`
	Days                  int     `json:"days"`
	Hours                 float64 `json:"hours"`
	EstimatedTotal        float64 `json:"estimated_total"`
	MaxTotal              float64 `json:"max_total"`
	MaxTotalWithEstimated float64 `json:"max_total_with_estimated"`
	DeviationPercent      float64 `json:"deviation_percent"`
	MissingEstimates      int     `json:"missing_estimates"`
	Exceeded              bool    `json:"exceeded"`
	Status                string  `json:"status"`
}

// DayRecord is one reconciled (asset, day) cell
type DayRecord struct {
	AssetID              string        `json:"asset_id"`
	Date                 string        `json:"date"` // YYYY-MM-DD
	Status               string        `json:"status"`
	ConsumptionEstimated *float64      `json:"consumption_estimated"`
	ConsumptionMaxDay    float64       `json:"consumption_max_day"`
	Measurements         []Measurement `json:"measurements,omitempty"`
	Operations           []Operation   `json:"operations"`
}

// Operation is one clipped operation
type Operation struct {
	Code                     string    `json:"code"`
	DateStart                time.Time `json:"date_start"`
	DateEnd                  time.Time `json:"date_end"`
	DiffInHours              float64   `json:"diff_in_hours"`
	ConsumptionDailyContract float64   `json:"consumption_daily_contract"`
	Consumption              float64   `json:"consumption"`
}

// Measurement is one tank sounding
type Measurement struct {
	Date   time.Time `json:"date"`
	Volume float64   `json:"volume"`
}

// Violation flags ambiguous input
type Violation struct {
	Kind    string `json:"kind"`
	AssetID string `json:"asset_id"`
	Date    string `json:"date"`
	Count   int    `json:"count"`
}

// RecordsResponse is a page of stored records
type RecordsResponse struct {
	ID      string      `json:"id"`
	Total   int         `json:"total"`
	Records []DayRecord `json:"records"`
}

// DistributionResponse is the per-code breakdown of a stored run
type DistributionResponse struct {
	ID    string      `json:"id"`
	Codes []CodeShare `json:"codes"`
}

// CodeShare is time and consumption per operation code
type CodeShare struct {
	Code           string  `json:"code"`
	Hours          float64 `json:"hours"`
	MaxConsumption float64 `json:"max_consumption"`
	Operations     int     `json:"operations"`
}

// PeriodsResponse lists sounding periods of one asset
type PeriodsResponse struct {
	AssetID string           `json:"asset_id"`
	Periods []SoundingPeriod `json:"periods"`
}

// SoundingPeriod compares measured and contractual consumption between soundings
type SoundingPeriod struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Readings   int       `json:"readings"`
	Received   float64   `json:"received"`
	Supplied   float64   `json:"supplied"`
	Consumed   float64   `json:"consumed"`
	MaxAllowed float64   `json:"max_allowed"`
	Status     string    `json:"status"`
}

// AssetsResponse lists the fleet
type AssetsResponse struct {
	Assets []AssetInfo `json:"assets"`
}

// AssetInfo represents information about a vessel
type AssetInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RankResponse lists assets by consumption above contract
type RankResponse struct {
	ID       string         `json:"id"`
	Rankings []AssetSummary `json:"rankings"`
}
