package service

import (
	"bytes"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"locadora-api/internal/format"
	"locadora-api/internal/payload"
	"locadora-api/internal/validation"
)

// Amount is a money field as typed in a form. It accepts a JSON number or a
// string in either "149.90" or "R$ 149,90" form.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*a = ""
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = Amount(s)
	default:
		*a = Amount(trimmed)
	}
	return nil
}

// parse returns the decimal value and whether the field was filled in.
func (a Amount) parse() (decimal.Decimal, bool, error) {
	raw := strings.TrimSpace(string(a))
	if raw == "" {
		return decimal.Zero, false, nil
	}
	if value, err := format.ParseAmount(raw); err == nil {
		return value, true, nil
	}
	value, err := format.ParseCurrencyBRL(raw)
	if err != nil {
		return decimal.Zero, true, err
	}
	return value, true, nil
}

type DocumentInput struct {
	Document   string `json:"document" binding:"required,max=32"`
	ClientType string `json:"client_type" binding:"omitempty,oneof=individual corporate"`
}

type DocumentOutput struct {
	Valid  bool                 `json:"valid"`
	Kind   validation.TaxIDKind `json:"kind"`
	Digits string               `json:"digits"`
	Masked string               `json:"masked"`
}

type MaskInput struct {
	Field string `json:"field" binding:"required,oneof=cpf cnpj tax_id phone postal_code plate"`
	Value string `json:"value"`
}

type MaskOutput struct {
	Field      string `json:"field"`
	Normalized string `json:"normalized"`
	Masked     string `json:"masked"`
	Complete   bool   `json:"complete"`
}

type ClientInput struct {
	ClientType string `json:"client_type"`
	Document   string `json:"document"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	BirthDate  string `json:"birth_date" binding:"omitempty,iso_date"`
	PostalCode string `json:"postal_code"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Active     *bool  `json:"active"`
}

// ClientSubmission is the digit-only shape the backend stores.
type ClientSubmission struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	TaxID      string  `json:"tax_id"`
	BirthDate  *string `json:"birth_date"`
	PostalCode *string `json:"postal_code"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	Active     bool    `json:"active"`
}

type ClientDisplay struct {
	TaxID      string `json:"tax_id"`
	Kind       string `json:"kind"`
	Phone      string `json:"phone"`
	PostalCode string `json:"postal_code,omitempty"`
	BirthDate  string `json:"birth_date,omitempty"`
}

type ClientOutput struct {
	Submission ClientSubmission `json:"submission"`
	Display    ClientDisplay    `json:"display"`
}

type CarInput struct {
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Year         *int   `json:"year"`
	Color        string `json:"color"`
	LicensePlate string `json:"license_plate"`
	Category     string `json:"category"`
	DailyRate    Amount `json:"daily_rate"`
	Mileage      *int   `json:"mileage"`
	Status       string `json:"status"`
}

type CarSubmission struct {
	Brand        string              `json:"brand"`
	Model        string              `json:"model"`
	Year         int                 `json:"year"`
	Color        string              `json:"color"`
	LicensePlate string              `json:"license_plate"`
	Category     payload.CarCategory `json:"category"`
	DailyRate    decimal.Decimal     `json:"daily_rate"`
	Mileage      int                 `json:"mileage"`
	Status       payload.CarStatus   `json:"status"`
}

type CarDisplay struct {
	DailyRate   string                 `json:"daily_rate"`
	Mileage     string                 `json:"mileage"`
	PlateFormat validation.PlateFormat `json:"plate_format"`
}

type CarOutput struct {
	Submission CarSubmission `json:"submission"`
	Display    CarDisplay    `json:"display"`
}

type QuoteInput struct {
	StartDate           string `json:"start_date" binding:"omitempty,iso_date"`
	EndDate             string `json:"end_date" binding:"omitempty,iso_date"`
	DailyRate           Amount `json:"daily_rate"`
	InsuranceRatePerDay Amount `json:"insurance_rate"`
	AdditionalFees      Amount `json:"additional_fees"`
}

type QuoteOutput struct {
	QuoteID                  string          `json:"quote_id"`
	StartDate                string          `json:"start_date"`
	EndDate                  string          `json:"end_date"`
	TotalDays                int             `json:"total_days"`
	RentalSubtotal           decimal.Decimal `json:"rental_subtotal"`
	InsuranceSubtotal        decimal.Decimal `json:"insurance_subtotal"`
	AdditionalFees           decimal.Decimal `json:"additional_fees"`
	TotalAmount              decimal.Decimal `json:"total_amount"`
	TotalAmountDisplay       string          `json:"total_amount_display"`
	RentalSubtotalDisplay    string          `json:"rental_subtotal_display"`
	InsuranceSubtotalDisplay string          `json:"insurance_subtotal_display"`
	Submittable              bool            `json:"submittable"`
}

type RentalInput struct {
	ClientID            int64  `json:"client_id"`
	CarID               string `json:"car_id"`
	StartDate           string `json:"start_date" binding:"omitempty,iso_date"`
	EndDate             string `json:"end_date" binding:"omitempty,iso_date"`
	DailyRate           Amount `json:"daily_rate"`
	InsuranceRatePerDay Amount `json:"insurance_rate"`
	AdditionalFees      Amount `json:"additional_fees"`
	MileageStart        *int64 `json:"mileage_start"`
	PaymentMethod       string `json:"payment_method"`
	Observations        string `json:"observations"`
}

// RentalSubmission is the canonical rental payload sent to the backend.
type RentalSubmission struct {
	ClientID       int64                 `json:"client_id"`
	CarID          string                `json:"car_id"`
	StartDate      string                `json:"start_date"`
	EndDate        string                `json:"end_date"`
	TotalDays      int                   `json:"total_days"`
	DailyRate      decimal.Decimal       `json:"daily_rate"`
	InsuranceRate  decimal.Decimal       `json:"insurance_rate"`
	AdditionalFees decimal.Decimal       `json:"additional_fees"`
	TotalAmount    decimal.Decimal       `json:"total_amount"`
	MileageStart   int64                 `json:"mileage_start"`
	Observations   *string               `json:"observations"`
	Status         payload.RentalStatus  `json:"status"`
	PaymentMethod  payload.PaymentMethod `json:"payment_method"`
}

type ReturnInput struct {
	OriginalAmount Amount `json:"original_amount"`
	LateFee        Amount `json:"late_fee"`
	EndDate        string `json:"end_date" binding:"omitempty,iso_date"`
	ReturnDate     string `json:"return_date" binding:"required,iso_date"`
	MileageStart   int64  `json:"mileage_start"`
	FinalMileage   int64  `json:"final_mileage"`
	FuelLevel      *int   `json:"fuel_level"`
	ReturnNotes    string `json:"return_notes"`
}

type ReturnOutput struct {
	ReturnDate         string          `json:"return_date"`
	LateDays           int             `json:"late_days"`
	Overdue            bool            `json:"overdue"`
	OriginalAmount     decimal.Decimal `json:"original_amount"`
	LateFee            decimal.Decimal `json:"late_fee"`
	FinalAmount        decimal.Decimal `json:"final_amount"`
	FinalAmountDisplay string          `json:"final_amount_display"`
	MileageDriven      int64           `json:"mileage_driven"`
	FuelLevel          *int            `json:"fuel_level,omitempty"`
	ReturnNotes        *string         `json:"return_notes"`
}

type MonthlyRevenueOutput struct {
	Label         string          `json:"label"`
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	Amount        decimal.Decimal `json:"amount"`
	AmountDisplay string          `json:"amount_display"`
}

type ReportOutput struct {
	ReferenceDate         string                       `json:"reference_date"`
	TotalRentals          int                          `json:"total_rentals"`
	ActiveRentals         int                          `json:"active_rentals"`
	OverdueRentals        int                          `json:"overdue_rentals"`
	ReturnsToday          int                          `json:"returns_today"`
	MonthlyRevenue        decimal.Decimal              `json:"monthly_revenue"`
	MonthlyRevenueDisplay string                       `json:"monthly_revenue_display"`
	RevenueByMonth        []MonthlyRevenueOutput       `json:"revenue_by_month"`
	StatusCounts          map[payload.RentalStatus]int `json:"status_counts"`
}
