package analysis

import (
	"sort"

	"fuel-reconcile/internal/reconcile"
)

const unknownCode = "unknown"

// CodeShare is the time and contractual consumption attributed to one operation code.
type CodeShare struct {
	Code           string  `json:"code"`
	Hours          float64 `json:"hours"`
	MaxConsumption float64 `json:"max_consumption"`
	Operations     int     `json:"operations"`
}

// Distribution aggregates clipped operations per code, most hours first.
func Distribution(records []reconcile.DayRecord) []CodeShare {
	byCode := map[string]*CodeShare{}
	for _, rec := range records {
		for _, op := range rec.Operations {
			code := op.Code
			if code == "" {
				code = unknownCode
			}
			share, ok := byCode[code]
			if !ok {
				share = &CodeShare{Code: code}
				byCode[code] = share
			}
			share.Hours += op.DiffInHours
			share.MaxConsumption += op.Consumption
			share.Operations++
		}
	}

	out := make([]CodeShare, 0, len(byCode))
	for _, s := range byCode {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hours != out[j].Hours {
			return out[i].Hours > out[j].Hours
		}
		return out[i].Code < out[j].Code
	})
	return out
}
