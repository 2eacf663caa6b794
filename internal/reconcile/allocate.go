package reconcile

import "fuel-reconcile/internal/model"

// DefaultReservedPrefix is the code family of inoperability periods.
const DefaultReservedPrefix = "IN"

// Policy decides which operations contribute consumption.
type Policy struct {
	// ShowInoperabilities keeps the contractual rate of reserved-prefix operations.
	ShowInoperabilities bool
	ReservedPrefix      string
}

func DefaultPolicy() Policy {
	return Policy{ReservedPrefix: DefaultReservedPrefix}
}

// Reserved reports whether op belongs to the reserved code family.
func (p Policy) Reserved(op model.Operation) bool {
	return op.HasPrefix(p.ReservedPrefix)
}

// EffectiveRate is the daily rate used for allocation. Reserved operations are
// zeroed unless ShowInoperabilities is set; they still appear in the record.
func (p Policy) EffectiveRate(op model.Operation) float64 {
	if !p.ShowInoperabilities && p.Reserved(op) {
		return 0
	}
	return op.ConsumptionDailyContract
}

// Allocate pro-rates a daily rate linearly over diffInHours.
func Allocate(dailyRate, diffInHours float64) float64 {
	return (dailyRate / HoursPerDay) * diffInHours
}
