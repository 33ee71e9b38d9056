// Package report aggregates normalized rentals into the figures shown on the
// dashboard and the reports page.
package report

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"locadora-api/internal/payload"
)

type MonthlyRevenue struct {
	Year   int
	Month  time.Month
	Amount decimal.Decimal
}

// Label is the chart label, e.g. "3/2024".
func (m MonthlyRevenue) Label() string {
	return fmt.Sprintf("%d/%d", int(m.Month), m.Year)
}

type Summary struct {
	ActiveRentals  int
	OverdueRentals int
	ReturnsToday   int
	MonthlyRevenue decimal.Decimal
	RevenueByMonth []MonthlyRevenue
	StatusCounts   map[payload.RentalStatus]int
}

// Summarize settles every rental against today before counting, so an active
// rental past its end date counts as overdue. Revenue is attributed to the
// month a rental starts; rentals without a start date carry no revenue.
func Summarize(rentals []payload.Rental, today time.Time) Summary {
	summary := Summary{
		MonthlyRevenue: decimal.Zero,
		StatusCounts: map[payload.RentalStatus]int{
			payload.RentalActive:   0,
			payload.RentalOverdue:  0,
			payload.RentalFinished: 0,
			payload.RentalCanceled: 0,
		},
	}

	year, month, day := today.Date()
	byMonth := make(map[monthKey]decimal.Decimal)
	for _, rental := range rentals {
		rental = rental.Settle(today)
		summary.StatusCounts[rental.Status]++

		switch rental.Status {
		case payload.RentalActive:
			summary.ActiveRentals++
			if !rental.EndDate.IsZero() {
				endYear, endMonth, endDay := rental.EndDate.Date()
				if endYear == year && endMonth == month && endDay == day {
					summary.ReturnsToday++
				}
			}
		case payload.RentalOverdue:
			summary.OverdueRentals++
		}

		if rental.StartDate.IsZero() {
			continue
		}
		key := monthKey{year: rental.StartDate.Year(), month: rental.StartDate.Month()}
		byMonth[key] = byMonth[key].Add(rental.TotalAmount)
		if key.year == year && key.month == month {
			summary.MonthlyRevenue = summary.MonthlyRevenue.Add(rental.TotalAmount)
		}
	}

	summary.RevenueByMonth = make([]MonthlyRevenue, 0, len(byMonth))
	for key, amount := range byMonth {
		summary.RevenueByMonth = append(summary.RevenueByMonth, MonthlyRevenue{
			Year:   key.year,
			Month:  key.month,
			Amount: amount,
		})
	}
	slices.SortFunc(summary.RevenueByMonth, func(a, b MonthlyRevenue) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Month, b.Month))
	})
	return summary
}

type monthKey struct {
	year  int
	month time.Month
}
