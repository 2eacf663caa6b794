package models

import "encoding/json"

// ReconcileRequest represents the request body for running a reconciliation
type ReconcileRequest struct {
	DataSource DataSourceConfig `json:"data_source" binding:"required"`
	Options    ReconcileOptions `json:"options,omitempty"`
}

// DataSourceConfig defines where the inputs come from
type DataSourceConfig struct {
	Type         string   `json:"type,omitempty"` // "fleet" (default) or "inline"
	EnterpriseID string   `json:"enterprise_id,omitempty"`
	AssetIDs     []string `json:"asset_ids,omitempty"`
	StartDate    string   `json:"start_date" binding:"required"` // YYYY-MM-DD or RFC 3339
	EndDate      string   `json:"end_date" binding:"required"`   // YYYY-MM-DD or RFC 3339

	// Inline carries a dataset envelope when Type is "inline".
	Inline json.RawMessage `json:"inline,omitempty"`
}

// ReconcileOptions refines the configured policy; omitted fields keep the server defaults
type ReconcileOptions struct {
	Source              *string  `json:"source,omitempty"` // "estimate", "measurement", "none"
	ShowInoperabilities *bool    `json:"show_inoperabilities,omitempty"`
	ReservedPrefix      *string  `json:"reserved_prefix,omitempty"`
	ThresholdHours      *float64 `json:"threshold_hours,omitempty"`
	Timezone            string   `json:"timezone,omitempty"`
	IncludeRecords      bool     `json:"include_records,omitempty"` // default: false
}

// PeriodsRequest represents a request for sounding periods of one asset
type PeriodsRequest struct {
	DataSource DataSourceConfig `json:"data_source" binding:"required"`
	AssetID    string           `json:"asset_id" binding:"required"`
	Options    ReconcileOptions `json:"options,omitempty"`
}

// RecordsQuery filters stored records
type RecordsQuery struct {
	AssetID string `form:"asset_id"`
	Limit   int    `form:"limit"`
	Offset  int    `form:"offset"`
}
