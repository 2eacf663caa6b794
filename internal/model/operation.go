package model

import (
	"strings"
	"time"
)

// Operation is one contiguous interval of a declared category for a single asset.
// Units:
// - ConsumptionDailyContract: m³ per 24h while the operation is active
type Operation struct {
	Code                     string    `json:"code"`
	AssetID                  string    `json:"asset_id"`
	DateStart                time.Time `json:"date_start"`
	DateEnd                  time.Time `json:"date_end"`
	ConsumptionDailyContract float64   `json:"consumption_daily_contract"`
}

// Valid reports whether both boundaries are set.
// Operations decoded from null timestamps carry zero times and never overlap anything.
func (o Operation) Valid() bool {
	return !o.DateStart.IsZero() && !o.DateEnd.IsZero()
}

func (o Operation) Duration() time.Duration {
	return o.DateEnd.Sub(o.DateStart)
}

func (o Operation) DurationHours() float64 {
	return o.Duration().Hours()
}

// HasPrefix reports whether the operation code belongs to the given code family.
func (o Operation) HasPrefix(prefix string) bool {
	return prefix != "" && strings.HasPrefix(o.Code, prefix)
}
