package wizard

import "time"

// Quote holds the derived rental duration and price. It is recomputed
// from current form state on every read and never stored, so it cannot
// go stale when a date or model selection changes.
type Quote struct {
	RentalDays int     `json:"rental_days"`
	TotalPrice float64 `json:"total_price"`
}

// PricingStrategy defines the interface for deriving a rental quote.
type PricingStrategy interface {
	// Quote returns the derived pricing for the given daily rate and
	// date range. Either date may be nil while the form is incomplete.
	Quote(pricePerDay float64, start, end *time.Time) Quote
}

// StandardPricingStrategy implements the default day-count pricing.
type StandardPricingStrategy struct{}

// NewStandardPricingStrategy creates a new StandardPricingStrategy.
func NewStandardPricingStrategy() *StandardPricingStrategy {
	return &StandardPricingStrategy{}
}

// Quote computes the rental day count and total price. A rental spans
// whole calendar days inclusive of both endpoints; an unset or
// non-positive range prices to zero.
func (s *StandardPricingStrategy) Quote(pricePerDay float64, start, end *time.Time) Quote {
	days := RentalDays(start, end)
	q := Quote{RentalDays: days}
	if days > 0 {
		q.TotalPrice = pricePerDay * float64(days)
	}
	return q
}

// RentalDays returns the inclusive calendar-day count of the range, or
// 0 unless the end date is strictly after the start date.
func RentalDays(start, end *time.Time) int {
	if start == nil || end == nil {
		return 0
	}
	s := truncateToDay(*start)
	e := truncateToDay(*end)
	if !e.After(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
