package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

var centsPerUnit = decimal.NewFromInt(100)

// NormalizeDate strips the time-of-day component, keeping the calendar date in UTC.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether two inclusive date ranges share at least one day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// InclusiveDays counts the days covered by [start, end], both endpoints included.
// Degenerate ranges count as a single day.
func InclusiveDays(start, end time.Time) int {
	start = NormalizeDate(start)
	end = NormalizeDate(end)
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// TotalPrice computes rate x days, rounded half-up to two decimal places.
func TotalPrice(ratePerDay decimal.Decimal, days int) decimal.Decimal {
	return ratePerDay.Mul(decimal.NewFromInt(int64(days))).Round(2)
}

// PriceCents converts a two-decimal price into integer minor units.
func PriceCents(price decimal.Decimal) int64 {
	return price.Mul(centsPerUnit).Round(0).IntPart()
}
