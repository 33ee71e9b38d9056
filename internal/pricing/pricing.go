// Package pricing computes rental duration and amounts.
//
// Amounts are kept at full precision; rounding to cents belongs to the
// format package.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

const secondsPerDay = 24 * 60 * 60

// Period is an inclusive range of calendar dates. Time of day and location
// are ignored.
type Period struct {
	Start time.Time
	End   time.Time
}

type Inputs struct {
	Period              Period
	DailyRate           decimal.Decimal
	InsuranceRatePerDay decimal.Decimal
	AdditionalFees      decimal.Decimal
}

type Result struct {
	TotalDays         int
	RentalSubtotal    decimal.Decimal
	InsuranceSubtotal decimal.Decimal
	TotalAmount       decimal.Decimal
}

type ReturnAdjustment struct {
	OriginalAmount decimal.Decimal
	LateFee        decimal.Decimal
}

func (a ReturnAdjustment) FinalAmount() decimal.Decimal {
	return ApplyReturnAdjustment(a.OriginalAmount, a.LateFee)
}

// TotalDays counts both boundary days. An incomplete or inverted period
// yields 0.
func TotalDays(p Period) int {
	if p.Start.IsZero() || p.End.IsZero() {
		return 0
	}
	diff := daysBetween(p.Start, p.End)
	if diff < 0 {
		return 0
	}
	return diff + 1
}

func Compute(in Inputs) Result {
	days := TotalDays(in.Period)
	if days == 0 {
		return Result{
			RentalSubtotal:    decimal.Zero,
			InsuranceSubtotal: decimal.Zero,
			TotalAmount:       decimal.Zero,
		}
	}

	n := decimal.NewFromInt(int64(days))
	rental := n.Mul(in.DailyRate)
	insurance := n.Mul(in.InsuranceRatePerDay)
	return Result{
		TotalDays:         days,
		RentalSubtotal:    rental,
		InsuranceSubtotal: insurance,
		TotalAmount:       rental.Add(insurance).Add(in.AdditionalFees),
	}
}

// ApplyReturnAdjustment adds the late fee to the contracted amount. Callers
// reject negative fees before getting here.
func ApplyReturnAdjustment(original decimal.Decimal, lateFee decimal.Decimal) decimal.Decimal {
	return original.Add(lateFee)
}

// IsOverdue reports whether a rental ending on end is late as of today.
func IsOverdue(end time.Time, today time.Time) bool {
	return daysBetween(end, today) > 0
}

// LateDays is the number of whole days actualReturn falls after end.
func LateDays(end time.Time, actualReturn time.Time) int {
	return max(daysBetween(end, actualReturn), 0)
}

// daysBetween is the signed number of calendar days from a to b. Both dates
// are pinned to UTC midnight so DST shifts never produce fractional days.
// Unix seconds are used because time.Duration saturates past ~292 years.
func daysBetween(a time.Time, b time.Time) int {
	return int((calendarDate(b).Unix() - calendarDate(a).Unix()) / secondsPerDay)
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
