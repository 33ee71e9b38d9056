// Package payload maps the inconsistent record shapes emitted by the rental
// backend (Portuguese and English field names, mixed status casing) onto one
// canonical schema.
package payload

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"locadora-api/internal/format"
	"locadora-api/internal/pricing"
	"locadora-api/internal/validation"
)

type CarStatus string

const (
	CarAvailable   CarStatus = "AVAILABLE"
	CarRented      CarStatus = "RENTED"
	CarMaintenance CarStatus = "MAINTENANCE"
)

type RentalStatus string

const (
	RentalActive   RentalStatus = "ACTIVE"
	RentalOverdue  RentalStatus = "OVERDUE"
	RentalFinished RentalStatus = "FINISHED"
	RentalCanceled RentalStatus = "CANCELED"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentLate    PaymentStatus = "LATE"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentPix          PaymentMethod = "PIX"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
)

var paymentMethodAliases = map[string]PaymentMethod{
	"dinheiro":       PaymentCash,
	"cash":           PaymentCash,
	"cartao_credito": PaymentCreditCard,
	"credit_card":    PaymentCreditCard,
	"cartao_debito":  PaymentDebitCard,
	"debit_card":     PaymentDebitCard,
	"pix":            PaymentPix,
	"transferencia":  PaymentBankTransfer,
	"bank_transfer":  PaymentBankTransfer,
}

// ParsePaymentMethod accepts both the legacy Portuguese and the canonical
// names in any casing.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	method, ok := paymentMethodAliases[strings.ToLower(strings.TrimSpace(raw))]
	return method, ok
}

var carStatusAliases = map[string]CarStatus{
	"disponivel":  CarAvailable,
	"available":   CarAvailable,
	"alugado":     CarRented,
	"rented":      CarRented,
	"manutencao":  CarMaintenance,
	"manutenção":  CarMaintenance,
	"maintenance": CarMaintenance,
}

type CarCategory string

const (
	CategoryEconomy      CarCategory = "ECONOMY"
	CategoryIntermediate CarCategory = "INTERMEDIATE"
	CategoryExecutive    CarCategory = "EXECUTIVE"
	CategoryLuxury       CarCategory = "LUXURY"
	CategorySUV          CarCategory = "SUV"
)

var carCategoryAliases = map[string]CarCategory{
	"economico":     CategoryEconomy,
	"econômico":     CategoryEconomy,
	"economy":       CategoryEconomy,
	"intermediario": CategoryIntermediate,
	"intermediate":  CategoryIntermediate,
	"executivo":     CategoryExecutive,
	"executive":     CategoryExecutive,
	"luxo":          CategoryLuxury,
	"luxury":        CategoryLuxury,
	"suv":           CategorySUV,
}

func ParseCarStatus(raw string) (CarStatus, bool) {
	status, ok := carStatusAliases[strings.ToLower(strings.TrimSpace(raw))]
	return status, ok
}

func ParseCarCategory(raw string) (CarCategory, bool) {
	category, ok := carCategoryAliases[strings.ToLower(strings.TrimSpace(raw))]
	return category, ok
}

var rentalStatusAliases = map[string]RentalStatus{
	"ativa":      RentalActive,
	"active":     RentalActive,
	"atrasada":   RentalOverdue,
	"overdue":    RentalOverdue,
	"finalizada": RentalFinished,
	"finished":   RentalFinished,
	"cancelada":  RentalCanceled,
	"canceled":   RentalCanceled,
	"cancelled":  RentalCanceled,
}

var paymentStatusAliases = map[string]PaymentStatus{
	"pendente": PaymentPending,
	"pending":  PaymentPending,
	"pago":     PaymentPaid,
	"paid":     PaymentPaid,
	"atrasado": PaymentLate,
	"late":     PaymentLate,
}

// Date is a calendar date serialized as YYYY-MM-DD, or null when unset.
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + format.DateISO(d.Time) + `"`), nil
}

type Car struct {
	ID           string          `json:"id"`
	Brand        string          `json:"brand"`
	Model        string          `json:"model"`
	Year         int             `json:"year"`
	Color        string          `json:"color"`
	LicensePlate string          `json:"license_plate"`
	Category     CarCategory     `json:"category,omitempty"`
	DailyRate    decimal.Decimal `json:"daily_rate"`
	Mileage      int64           `json:"mileage"`
	Status       CarStatus       `json:"status,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
}

type Client struct {
	ID         int64                `json:"id,omitempty"`
	Name       string               `json:"name"`
	Email      string               `json:"email,omitempty"`
	Phone      string               `json:"phone,omitempty"`
	TaxID      string               `json:"tax_id"`
	TaxIDKind  validation.TaxIDKind `json:"tax_id_kind"`
	BirthDate  Date                 `json:"birth_date"`
	Address    string               `json:"address,omitempty"`
	City       string               `json:"city,omitempty"`
	State      string               `json:"state,omitempty"`
	PostalCode string               `json:"postal_code,omitempty"`
	Active     bool                 `json:"active"`
}

type Rental struct {
	ID             int64           `json:"id,omitempty"`
	ClientID       int64           `json:"client_id"`
	CarID          string          `json:"car_id"`
	StartDate      Date            `json:"start_date"`
	EndDate        Date            `json:"end_date"`
	ActualEndDate  Date            `json:"actual_end_date"`
	TotalDays      int             `json:"total_days"`
	DailyRate      decimal.Decimal `json:"daily_rate"`
	InsuranceRate  decimal.Decimal `json:"insurance_rate"`
	AdditionalFees decimal.Decimal `json:"additional_fees"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	LateFee        decimal.Decimal `json:"late_fee"`
	MileageStart   int64           `json:"mileage_start"`
	MileageEnd     *int64          `json:"mileage_end,omitempty"`
	Status         RentalStatus    `json:"status"`
	PaymentStatus  PaymentStatus   `json:"payment_status,omitempty"`
	PaymentMethod  PaymentMethod   `json:"payment_method,omitempty"`
	Observations   string          `json:"observations,omitempty"`
}

// Settle reports an active rental as overdue once its end date is behind
// today. Other statuses are returned unchanged.
func (r Rental) Settle(today time.Time) Rental {
	if r.Status == RentalActive && !r.EndDate.IsZero() && pricing.IsOverdue(r.EndDate.Time, today) {
		r.Status = RentalOverdue
	}
	return r
}

func DecodeCar(raw []byte) (Car, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return Car{}, err
	}

	car := Car{
		Brand:        obj.str("brand", "marca"),
		Model:        obj.str("model", "modelo"),
		Color:        obj.str("color", "cor"),
		LicensePlate: validation.NormalizePlate(obj.str("license_plate", "placa", "plate")),
		ImageURL:     obj.str("image_url", "foto_url"),
	}

	if rawID := obj.str("id", "car_id", "carro_id"); rawID != "" {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return Car{}, fieldError("id", "must be a UUID")
		}
		car.ID = id.String()
	}

	year, _, err := obj.integer("year", "ano")
	if err != nil {
		return Car{}, err
	}
	car.Year = int(year)

	if car.DailyRate, _, err = obj.money("daily_rate", "diaria", "valor_diaria"); err != nil {
		return Car{}, err
	}
	if car.Mileage, _, err = obj.integer("mileage", "quilometragem", "km"); err != nil {
		return Car{}, err
	}

	if rawStatus := obj.str("status"); rawStatus != "" {
		status, ok := ParseCarStatus(rawStatus)
		if !ok {
			return Car{}, fieldError("status", "has an unknown value")
		}
		car.Status = status
	}
	if rawCategory := obj.str("category", "categoria"); rawCategory != "" {
		category, ok := ParseCarCategory(rawCategory)
		if !ok {
			return Car{}, fieldError("category", "has an unknown value")
		}
		car.Category = category
	}

	return car, nil
}

func DecodeClient(raw []byte) (Client, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return Client{}, err
	}

	taxID := validation.ParseTaxID(obj.str("tax_id", "cpf_cnpj", "cpf", "cnpj", "documento", "document"))
	client := Client{
		Name:       obj.str("name", "nome"),
		Email:      strings.ToLower(obj.str("email")),
		Phone:      validation.NormalizeDigits(obj.str("phone", "telefone")),
		TaxID:      taxID.Digits,
		TaxIDKind:  taxID.Kind,
		Address:    obj.str("address", "endereco"),
		City:       obj.str("city", "cidade"),
		State:      strings.ToUpper(obj.str("state", "estado")),
		PostalCode: validation.NormalizeDigits(obj.str("postal_code", "cep", "zip_code")),
	}

	if client.ID, _, err = obj.integer("id", "client_id", "cliente_id"); err != nil {
		return Client{}, err
	}
	birthDate, _, err := obj.date("birth_date", "data_nascimento")
	if err != nil {
		return Client{}, err
	}
	client.BirthDate = Date{birthDate}
	if client.Active, err = obj.boolean(true, "active", "ativo"); err != nil {
		return Client{}, err
	}

	return client, nil
}

func DecodeRental(raw []byte) (Rental, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return Rental{}, err
	}

	rental := Rental{
		Observations: obj.str("observations", "observacoes"),
	}
	if rawMethod := obj.str("payment_method", "metodo_pagamento"); rawMethod != "" {
		method, ok := ParsePaymentMethod(rawMethod)
		if !ok {
			return Rental{}, fieldError("payment_method", "has an unknown value")
		}
		rental.PaymentMethod = method
	}

	if rental.ID, _, err = obj.integer("id", "rental_id", "locacao_id"); err != nil {
		return Rental{}, err
	}
	if rental.ClientID, _, err = obj.integer("client_id", "cliente_id"); err != nil {
		return Rental{}, err
	}
	if rawCarID := obj.str("car_id", "carro_id"); rawCarID != "" {
		id, err := uuid.Parse(rawCarID)
		if err != nil {
			return Rental{}, fieldError("car_id", "must be a UUID")
		}
		rental.CarID = id.String()
	}

	start, _, err := obj.date("start_date", "data_inicio")
	if err != nil {
		return Rental{}, err
	}
	end, _, err := obj.date("end_date", "data_fim")
	if err != nil {
		return Rental{}, err
	}
	actualEnd, _, err := obj.date("actual_end_date", "return_date", "data_devolucao")
	if err != nil {
		return Rental{}, err
	}
	rental.StartDate, rental.EndDate, rental.ActualEndDate = Date{start}, Date{end}, Date{actualEnd}

	totalDays, _, err := obj.integer("total_days", "total_dias")
	if err != nil {
		return Rental{}, err
	}
	rental.TotalDays = int(totalDays)

	moneyFields := []struct {
		dst  *decimal.Decimal
		keys []string
	}{
		{&rental.DailyRate, []string{"daily_rate", "diaria", "valor_diaria"}},
		{&rental.InsuranceRate, []string{"insurance_rate", "seguro"}},
		{&rental.AdditionalFees, []string{"additional_fees", "taxas_adicionais"}},
		{&rental.TotalAmount, []string{"total_amount", "valor_total"}},
		{&rental.LateFee, []string{"late_fee", "multa_atraso"}},
	}
	for _, field := range moneyFields {
		if *field.dst, _, err = obj.money(field.keys...); err != nil {
			return Rental{}, err
		}
	}

	if rental.MileageStart, _, err = obj.integer("mileage_start", "start_mileage", "km_inicial"); err != nil {
		return Rental{}, err
	}
	mileageEnd, present, err := obj.integer("mileage_end", "end_mileage", "final_mileage", "km_final")
	if err != nil {
		return Rental{}, err
	}
	if present {
		rental.MileageEnd = &mileageEnd
	}

	rental.Status = RentalActive
	if rawStatus := obj.str("status"); rawStatus != "" {
		status, ok := rentalStatusAliases[strings.ToLower(rawStatus)]
		if !ok {
			return Rental{}, fieldError("status", "has an unknown value")
		}
		rental.Status = status
	}
	rental.PaymentStatus = PaymentPending
	if rawPayment := obj.str("payment_status", "status_pagamento"); rawPayment != "" {
		status, ok := paymentStatusAliases[strings.ToLower(rawPayment)]
		if !ok {
			return Rental{}, fieldError("payment_status", "has an unknown value")
		}
		rental.PaymentStatus = status
	}

	return rental, nil
}
