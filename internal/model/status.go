package model

// Status classifies a reconciled day or asset.
// Keep these values stable; they are intended for CSV and JSON output.
type Status string

const (
	StatusWithin     Status = "WITHIN"
	StatusExceeded   Status = "EXCEEDED"
	StatusNoEstimate Status = "NO_ESTIMATE"
	StatusNoContract Status = "NO_CONTRACT"
)

// PeriodStatus classifies a sounding period.
type PeriodStatus string

const (
	PeriodOpen          PeriodStatus = "OPEN"
	PeriodExcess        PeriodStatus = "EXCESS"
	PeriodBelowContract PeriodStatus = "BELOW_CONTRACT"
)
