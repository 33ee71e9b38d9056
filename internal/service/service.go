package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"locadora-api/internal/format"
	"locadora-api/internal/payload"
	"locadora-api/internal/pricing"
	"locadora-api/internal/report"
	"locadora-api/internal/validation"
)

const (
	clientTypeIndividual = "individual"
	clientTypeCorporate  = "corporate"
	minCarYear           = 1900
	maxFuelLevel         = 100
	serviceTracerName    = "locadora-api/internal/service"
	serviceMeterName     = "locadora-api/internal/service"
)

type Service struct {
	jwtSigningKey []byte
	jwtIssuer     string
	now           func() time.Time
	quoteCounter  metric.Int64Counter
	quoteAmount   metric.Float64Histogram
}

type Option func(*Service)

func New(options ...Option) *Service {
	svc := &Service{now: time.Now}
	for _, option := range options {
		option(svc)
	}

	meter := otel.Meter(serviceMeterName)
	quoteCounter, err := meter.Int64Counter(
		"locadora.pricing.quote.count",
		metric.WithDescription("Total de cotacoes de locacao calculadas"),
	)
	if err != nil {
		slog.Error("create quote counter", "error", err)
	} else {
		svc.quoteCounter = quoteCounter
	}
	quoteAmount, err := meter.Float64Histogram(
		"locadora.pricing.quote.amount",
		metric.WithUnit("BRL"),
		metric.WithDescription("Valor total das cotacoes de locacao"),
	)
	if err != nil {
		slog.Error("create quote amount histogram", "error", err)
	} else {
		svc.quoteAmount = quoteAmount
	}

	return svc
}

func WithAuthConfig(signingKey string, issuer string) Option {
	return func(s *Service) {
		s.jwtSigningKey = []byte(strings.TrimSpace(signingKey))
		s.jwtIssuer = strings.TrimSpace(issuer)
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *Service) today() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *Service) ValidateDocument(ctx context.Context, input DocumentInput) (DocumentOutput, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.ValidateDocument")
	defer span.End()

	taxID := validation.ParseTaxID(input.Document)
	valid := taxID.Valid()
	if kind, ok := kindForClientType(input.ClientType); ok {
		valid = validation.ValidateTaxID(taxID.Digits, kind)
	}
	span.SetAttributes(
		attribute.String("document.kind", string(taxID.Kind)),
		attribute.Bool("document.valid", valid),
	)

	return DocumentOutput{
		Valid:  valid,
		Kind:   taxID.Kind,
		Digits: taxID.Digits,
		Masked: taxID.Masked(),
	}, nil
}

func (s *Service) MaskValue(ctx context.Context, input MaskInput) (MaskOutput, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.MaskValue")
	defer span.End()

	output := MaskOutput{Field: input.Field}
	switch input.Field {
	case "cpf":
		output.Normalized = validation.NormalizeDigits(input.Value)
		output.Masked = validation.MaskCPF(input.Value)
		output.Complete = len(output.Normalized) == 11
	case "cnpj":
		output.Normalized = validation.NormalizeDigits(input.Value)
		output.Masked = validation.MaskCNPJ(input.Value)
		output.Complete = len(output.Normalized) == 14
	case "tax_id":
		output.Normalized = validation.NormalizeDigits(input.Value)
		output.Masked = validation.MaskTaxID(input.Value)
		output.Complete = validation.ParseTaxID(input.Value).Kind != validation.KindUnknown
	case "phone":
		output.Normalized = validation.NormalizeDigits(input.Value)
		output.Masked = validation.MaskPhone(input.Value)
		output.Complete = validation.IsValidPhone(input.Value)
	case "postal_code":
		output.Normalized = validation.NormalizeDigits(input.Value)
		output.Masked = validation.MaskPostalCode(input.Value)
		output.Complete = validation.IsValidPostalCode(input.Value)
	case "plate":
		output.Normalized = validation.NormalizePlate(input.Value)
		output.Masked = output.Normalized
		if validation.DetectPlateFormat(input.Value) == validation.PlateLegacy {
			output.Masked = output.Normalized[:3] + "-" + output.Normalized[3:]
		}
		output.Complete = validation.IsValidPlate(input.Value)
	default:
		return MaskOutput{}, validationError(fmt.Sprintf("unsupported field %q", input.Field))
	}
	return output, nil
}

func (s *Service) ValidateClient(ctx context.Context, input ClientInput) (ClientOutput, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.ValidateClient")
	defer span.End()

	problems := FieldErrors{}
	kind, hasKind := kindForClientType(input.ClientType)
	if !hasKind {
		problems.add("client_type", "client_type must be individual or corporate")
	}

	taxID := validation.ParseTaxID(input.Document)
	switch {
	case strings.TrimSpace(input.Document) == "":
		problems.add("document", "document is required")
	case kind == validation.KindIndividual && !validation.IsValidCPF(taxID.Digits):
		problems.add("document", "invalid CPF")
	case kind == validation.KindCorporate && !validation.IsValidCNPJ(taxID.Digits):
		problems.add("document", "invalid CNPJ")
	case !hasKind && taxID.Kind == validation.KindUnknown:
		problems.add("document", "document must have 11 or 14 digits")
	case !hasKind && !taxID.Valid():
		problems.add("document", "invalid document")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		problems.add("name", "name is required")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		problems.add("email", "email is required")
	} else if !validation.IsValidEmail(email) {
		problems.add("email", "invalid email")
	}

	phone := validation.NormalizeDigits(input.Phone)
	if strings.TrimSpace(input.Phone) == "" {
		problems.add("phone", "phone is required")
	} else if !validation.IsValidPhone(phone) {
		problems.add("phone", "phone must have 10 or 11 digits")
	}

	postalCode := validation.NormalizeDigits(input.PostalCode)
	if strings.TrimSpace(input.PostalCode) != "" && !validation.IsValidPostalCode(postalCode) {
		problems.add("postal_code", "postal_code must have 8 digits")
	}

	state := strings.ToUpper(strings.TrimSpace(input.State))
	if state != "" && len(state) != 2 {
		problems.add("state", "state must have 2 characters")
	}

	var birthDate time.Time
	if strings.TrimSpace(input.BirthDate) != "" {
		parsed, err := format.ParseDateISO(input.BirthDate)
		if err != nil {
			problems.add("birth_date", "birth_date must be YYYY-MM-DD")
		} else {
			birthDate = parsed
		}
	}

	if err := problems.err(); err != nil {
		return ClientOutput{}, err
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	output := ClientOutput{
		Submission: ClientSubmission{
			Name:       name,
			Email:      email,
			Phone:      phone,
			TaxID:      taxID.Digits,
			PostalCode: optionalString(postalCode),
			Address:    optionalString(input.Address),
			City:       optionalString(input.City),
			State:      optionalString(state),
			Active:     active,
		},
		Display: ClientDisplay{
			TaxID:      taxID.Masked(),
			Kind:       clientKindLabel(kind),
			Phone:      validation.MaskPhone(phone),
			PostalCode: validation.MaskPostalCode(postalCode),
		},
	}
	if !birthDate.IsZero() {
		output.Submission.BirthDate = optionalString(format.DateISO(birthDate))
		output.Display.BirthDate = format.DateDisplay(birthDate)
	}
	return output, nil
}

func (s *Service) ValidateCar(ctx context.Context, input CarInput) (CarOutput, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.ValidateCar")
	defer span.End()

	problems := FieldErrors{}
	brand := strings.TrimSpace(input.Brand)
	if brand == "" {
		problems.add("brand", "brand is required")
	}
	model := strings.TrimSpace(input.Model)
	if model == "" {
		problems.add("model", "model is required")
	}
	color := strings.TrimSpace(input.Color)
	if color == "" {
		problems.add("color", "color is required")
	}

	maxYear := s.today().Year() + 2
	if input.Year == nil || *input.Year < minCarYear || *input.Year > maxYear {
		problems.add("year", fmt.Sprintf("year must be between %d and %d", minCarYear, maxYear))
	}
	if input.Mileage == nil || *input.Mileage < 0 {
		problems.add("mileage", "mileage must be zero or positive")
	}

	plate := validation.NormalizePlate(input.LicensePlate)
	plateFormat := validation.DetectPlateFormat(plate)
	switch {
	case plate == "":
		problems.add("license_plate", "license_plate is required")
	case plateFormat == validation.PlateInvalid:
		problems.add("license_plate", "license_plate must look like ABC1234 or ABC1D23")
	}

	category, ok := payload.ParseCarCategory(input.Category)
	if !ok {
		problems.add("category", "category is required")
	}
	status, ok := payload.ParseCarStatus(input.Status)
	if !ok {
		problems.add("status", "status is required")
	}

	dailyRate, present, err := input.DailyRate.parse()
	if err != nil || !present || !dailyRate.IsPositive() {
		problems.add("daily_rate", "daily_rate must be greater than zero")
	}

	if err := problems.err(); err != nil {
		return CarOutput{}, err
	}

	return CarOutput{
		Submission: CarSubmission{
			Brand:        brand,
			Model:        model,
			Year:         *input.Year,
			Color:        color,
			LicensePlate: plate,
			Category:     category,
			DailyRate:    dailyRate,
			Mileage:      *input.Mileage,
			Status:       status,
		},
		Display: CarDisplay{
			DailyRate:   format.CurrencyBRL(dailyRate),
			Mileage:     format.Mileage(*input.Mileage),
			PlateFormat: plateFormat,
		},
	}, nil
}

// QuoteRental prices a rental while the form is still being edited. Missing
// or inverted dates produce a zero quote instead of an error.
func (s *Service) QuoteRental(ctx context.Context, input QuoteInput) (QuoteOutput, error) {
	ctx, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.QuoteRental")
	defer span.End()

	problems := FieldErrors{}
	period := parsePeriod(input.StartDate, input.EndDate, problems)
	inputs := pricing.Inputs{Period: period}
	inputs.DailyRate = parseNonNegative("daily_rate", input.DailyRate, problems)
	inputs.InsuranceRatePerDay = parseNonNegative("insurance_rate", input.InsuranceRatePerDay, problems)
	inputs.AdditionalFees = parseNonNegative("additional_fees", input.AdditionalFees, problems)
	if err := problems.err(); err != nil {
		return QuoteOutput{}, err
	}

	result := pricing.Compute(inputs)
	quoteID, err := newUUIDV7()
	if err != nil {
		return QuoteOutput{}, err
	}

	submittable := result.TotalDays > 0 && inputs.DailyRate.IsPositive() && result.TotalAmount.IsPositive()
	span.SetAttributes(
		attribute.Int("rental.total_days", result.TotalDays),
		attribute.Bool("rental.submittable", submittable),
	)
	if s.quoteCounter != nil {
		s.quoteCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("rental.submittable", submittable)))
	}
	if s.quoteAmount != nil && result.TotalDays > 0 {
		s.quoteAmount.Record(ctx, result.TotalAmount.InexactFloat64())
	}

	output := QuoteOutput{
		QuoteID:                  quoteID,
		TotalDays:                result.TotalDays,
		RentalSubtotal:           result.RentalSubtotal,
		InsuranceSubtotal:        result.InsuranceSubtotal,
		TotalAmount:              result.TotalAmount,
		TotalAmountDisplay:       format.CurrencyBRL(result.TotalAmount),
		RentalSubtotalDisplay:    format.CurrencyBRL(result.RentalSubtotal),
		InsuranceSubtotalDisplay: format.CurrencyBRL(result.InsuranceSubtotal),
		Submittable:              submittable,
	}
	if result.TotalDays > 0 {
		output.AdditionalFees = inputs.AdditionalFees
	} else {
		output.AdditionalFees = decimal.Zero
	}
	if !period.Start.IsZero() {
		output.StartDate = format.DateISO(period.Start)
	}
	if !period.End.IsZero() {
		output.EndDate = format.DateISO(period.End)
	}
	return output, nil
}

// PrepareRental runs the pre-submit checks of the rental form and returns
// the payload the backend accepts. Amounts are recomputed here; totals typed
// by the user are never trusted.
func (s *Service) PrepareRental(ctx context.Context, input RentalInput) (RentalSubmission, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.PrepareRental")
	defer span.End()

	problems := FieldErrors{}
	if input.ClientID <= 0 {
		problems.add("client_id", "select a client")
	}
	carID, err := uuid.Parse(strings.TrimSpace(input.CarID))
	if err != nil {
		problems.add("car_id", "select a valid car")
	}

	if strings.TrimSpace(input.StartDate) == "" || strings.TrimSpace(input.EndDate) == "" {
		problems.add("period", "start_date and end_date are required")
	}
	period := parsePeriod(input.StartDate, input.EndDate, problems)
	if !period.Start.IsZero() && !period.End.IsZero() && period.End.Before(period.Start) {
		problems.add("end_date", "end_date cannot be before start_date")
	}

	paymentMethod, ok := payload.ParsePaymentMethod(input.PaymentMethod)
	if !ok {
		problems.add("payment_method", "select a payment method")
	}
	if input.MileageStart == nil || *input.MileageStart < 0 {
		problems.add("mileage_start", "mileage_start cannot be negative")
	}

	inputs := pricing.Inputs{Period: period}
	inputs.DailyRate = parseNonNegative("daily_rate", input.DailyRate, problems)
	inputs.InsuranceRatePerDay = parseNonNegative("insurance_rate", input.InsuranceRatePerDay, problems)
	inputs.AdditionalFees = parseNonNegative("additional_fees", input.AdditionalFees, problems)
	if !inputs.DailyRate.IsPositive() {
		problems.add("daily_rate", "daily_rate must be greater than zero")
	}

	result := pricing.Compute(inputs)
	if result.TotalDays <= 0 {
		problems.add("total_days", "the rental must last at least one day")
	}
	if !result.TotalAmount.IsPositive() {
		problems.add("total_amount", "total_amount must be greater than zero")
	}

	if err := problems.err(); err != nil {
		return RentalSubmission{}, err
	}

	return RentalSubmission{
		ClientID:       input.ClientID,
		CarID:          carID.String(),
		StartDate:      format.DateISO(period.Start),
		EndDate:        format.DateISO(period.End),
		TotalDays:      result.TotalDays,
		DailyRate:      inputs.DailyRate,
		InsuranceRate:  inputs.InsuranceRatePerDay,
		AdditionalFees: inputs.AdditionalFees,
		TotalAmount:    result.TotalAmount.Round(2),
		MileageStart:   *input.MileageStart,
		Observations:   optionalString(input.Observations),
		Status:         payload.RentalActive,
		PaymentMethod:  paymentMethod,
	}, nil
}

func (s *Service) ReturnRental(ctx context.Context, input ReturnInput) (ReturnOutput, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.ReturnRental")
	defer span.End()

	problems := FieldErrors{}
	original, present, err := input.OriginalAmount.parse()
	switch {
	case err != nil || !present:
		problems.add("original_amount", "original_amount is required")
	case original.IsNegative():
		problems.add("original_amount", "original_amount cannot be negative")
	}
	lateFee := parseNonNegative("late_fee", input.LateFee, problems)

	returnDate, err := format.ParseDateISO(input.ReturnDate)
	if err != nil {
		problems.add("return_date", "return_date must be YYYY-MM-DD")
	}
	var endDate time.Time
	if strings.TrimSpace(input.EndDate) != "" {
		if endDate, err = format.ParseDateISO(input.EndDate); err != nil {
			problems.add("end_date", "end_date must be YYYY-MM-DD")
		}
	}

	if input.FinalMileage < input.MileageStart {
		problems.add("final_mileage", "final_mileage cannot be lower than mileage_start")
	}
	if input.FuelLevel != nil && (*input.FuelLevel < 0 || *input.FuelLevel > maxFuelLevel) {
		problems.add("fuel_level", fmt.Sprintf("fuel_level must be between 0 and %d", maxFuelLevel))
	}

	if err := problems.err(); err != nil {
		return ReturnOutput{}, err
	}

	adjustment := pricing.ReturnAdjustment{OriginalAmount: original, LateFee: lateFee}
	finalAmount := adjustment.FinalAmount()
	output := ReturnOutput{
		ReturnDate:         format.DateISO(returnDate),
		OriginalAmount:     original,
		LateFee:            lateFee,
		FinalAmount:        finalAmount,
		FinalAmountDisplay: format.CurrencyBRL(finalAmount),
		MileageDriven:      input.FinalMileage - input.MileageStart,
		FuelLevel:          input.FuelLevel,
		ReturnNotes:        optionalString(input.ReturnNotes),
	}
	if !endDate.IsZero() {
		output.LateDays = pricing.LateDays(endDate, returnDate)
		output.Overdue = pricing.IsOverdue(endDate, returnDate)
	}
	return output, nil
}

// NormalizePayload maps a backend record onto the canonical schema. Active
// rentals whose end date has passed are reported as overdue.
func (s *Service) NormalizePayload(ctx context.Context, rawKind string, raw []byte) (any, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.NormalizePayload")
	defer span.End()

	kind, ok := payload.ParseKind(rawKind)
	if !ok {
		return nil, validationError(fmt.Sprintf("unknown record kind %q", rawKind))
	}
	span.SetAttributes(attribute.String("payload.kind", string(kind)))

	record, err := payload.Decode(kind, raw)
	if err != nil {
		if errors.Is(err, payload.ErrMalformedPayload) {
			return nil, validationError(err.Error())
		}
		return nil, err
	}

	if rental, isRental := record.(payload.Rental); isRental {
		return rental.Settle(s.today()), nil
	}
	return record, nil
}

// RentalReport summarizes a list of backend rental records for the
// dashboard. Each record may use any of the backend's schema variants.
func (s *Service) RentalReport(ctx context.Context, raw []byte) (ReportOutput, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.RentalReport")
	defer span.End()

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return ReportOutput{}, validationError("rentals must be a JSON array of objects")
	}

	rentals := make([]payload.Rental, 0, len(items))
	for i, item := range items {
		rental, err := payload.DecodeRental(item)
		if err != nil {
			if errors.Is(err, payload.ErrMalformedPayload) {
				return ReportOutput{}, validationError(fmt.Sprintf("rentals[%d]: %s", i, err.Error()))
			}
			return ReportOutput{}, err
		}
		rentals = append(rentals, rental)
	}

	today := s.today()
	summary := report.Summarize(rentals, today)
	span.SetAttributes(
		attribute.Int("report.rentals", len(rentals)),
		attribute.Int("report.overdue", summary.OverdueRentals),
	)

	output := ReportOutput{
		ReferenceDate:         format.DateISO(today),
		TotalRentals:          len(rentals),
		ActiveRentals:         summary.ActiveRentals,
		OverdueRentals:        summary.OverdueRentals,
		ReturnsToday:          summary.ReturnsToday,
		MonthlyRevenue:        summary.MonthlyRevenue,
		MonthlyRevenueDisplay: format.CurrencyBRL(summary.MonthlyRevenue),
		RevenueByMonth:        make([]MonthlyRevenueOutput, 0, len(summary.RevenueByMonth)),
		StatusCounts:          summary.StatusCounts,
	}
	for _, month := range summary.RevenueByMonth {
		output.RevenueByMonth = append(output.RevenueByMonth, MonthlyRevenueOutput{
			Label:         month.Label(),
			Year:          month.Year,
			Month:         int(month.Month),
			Amount:        month.Amount,
			AmountDisplay: format.CurrencyBRL(month.Amount),
		})
	}
	return output, nil
}

func parsePeriod(rawStart string, rawEnd string, problems FieldErrors) pricing.Period {
	var period pricing.Period
	if strings.TrimSpace(rawStart) != "" {
		start, err := format.ParseDateISO(rawStart)
		if err != nil {
			problems.add("start_date", "start_date must be YYYY-MM-DD")
		}
		period.Start = start
	}
	if strings.TrimSpace(rawEnd) != "" {
		end, err := format.ParseDateISO(rawEnd)
		if err != nil {
			problems.add("end_date", "end_date must be YYYY-MM-DD")
		}
		period.End = end
	}
	return period
}

func parseNonNegative(field string, amount Amount, problems FieldErrors) decimal.Decimal {
	value, _, err := amount.parse()
	if err != nil {
		problems.add(field, field+" must be a decimal value")
		return decimal.Zero
	}
	if value.IsNegative() {
		problems.add(field, field+" cannot be negative")
		return decimal.Zero
	}
	return value
}

func kindForClientType(clientType string) (validation.TaxIDKind, bool) {
	switch strings.ToLower(strings.TrimSpace(clientType)) {
	case clientTypeIndividual:
		return validation.KindIndividual, true
	case clientTypeCorporate:
		return validation.KindCorporate, true
	default:
		return validation.KindUnknown, false
	}
}

func clientKindLabel(kind validation.TaxIDKind) string {
	switch kind {
	case validation.KindIndividual:
		return "Pessoa Física"
	case validation.KindCorporate:
		return "Pessoa Jurídica"
	default:
		return "-"
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func newUUIDV7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuidv7: %w", err)
	}
	return id.String(), nil
}
