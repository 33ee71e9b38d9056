package payload

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locadora-api/internal/validation"
)

func TestDecodeCarMapsLegacyFieldNames(t *testing.T) {
	legacy := []byte(`{
		"id": "6f1c2a8e-3b8e-4f57-9a43-1b5f0e2d7c11",
		"marca": "Fiat",
		"modelo": "Argo",
		"ano": 2023,
		"cor": "Prata",
		"placa": "abc-1d23",
		"diaria": "149.90",
		"categoria": "ECONOMICO",
		"quilometragem": 12345,
		"status": "DISPONIVEL"
	}`)
	canonical := []byte(`{
		"id": "6f1c2a8e-3b8e-4f57-9a43-1b5f0e2d7c11",
		"brand": "Fiat",
		"model": "Argo",
		"year": 2023,
		"color": "Prata",
		"license_plate": "ABC1D23",
		"daily_rate": 149.9,
		"mileage": 12345,
		"status": "available"
	}`)

	fromLegacy, err := DecodeCar(legacy)
	require.NoError(t, err)
	fromCanonical, err := DecodeCar(canonical)
	require.NoError(t, err)

	assert.Equal(t, "Fiat", fromLegacy.Brand)
	assert.Equal(t, "Argo", fromLegacy.Model)
	assert.Equal(t, 2023, fromLegacy.Year)
	assert.Equal(t, "ABC1D23", fromLegacy.LicensePlate)
	assert.Equal(t, CarAvailable, fromLegacy.Status)
	assert.Equal(t, CategoryEconomy, fromLegacy.Category)
	assert.Truef(t, fromLegacy.DailyRate.Equal(fromCanonical.DailyRate), "daily rates differ: %s vs %s", fromLegacy.DailyRate, fromCanonical.DailyRate)
	assert.Equal(t, fromCanonical.Mileage, fromLegacy.Mileage)
	assert.Equal(t, fromCanonical.Status, fromLegacy.Status)
}

func TestDecodeCarPrefersCanonicalName(t *testing.T) {
	car, err := DecodeCar([]byte(`{"brand": "Toyota", "marca": "Fiat", "model": "", "modelo": "Corolla"}`))
	require.NoError(t, err)

	assert.Equal(t, "Toyota", car.Brand, "canonical name wins")
	assert.Equal(t, "Corolla", car.Model, "empty canonical value falls back to the alias")
}

func TestDecodeCarCaseVariantKeysAreDeterministic(t *testing.T) {
	raw := []byte(`{"Brand": "Fiat", "brand": "Toyota", "BRAND": "Honda", "Modelo": "Argo", "MODELO": "Uno"}`)

	for range 50 {
		car, err := DecodeCar(raw)
		require.NoError(t, err)
		assert.Equal(t, "Toyota", car.Brand, "exact lower-case key wins")
		assert.Equal(t, "Uno", car.Model, "lexically smallest key wins without an exact match")
	}
}

func TestDecodeCarRejectsNonUUIDID(t *testing.T) {
	_, err := DecodeCar([]byte(`{"id": "42", "brand": "Fiat"}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDecodeClientNormalizesDocuments(t *testing.T) {
	client, err := DecodeClient([]byte(`{
		"id": 7,
		"nome": "Maria Souza",
		"Email": "Maria@Example.com",
		"telefone": "(11) 98765-4321",
		"cpf_cnpj": "111.444.777-35",
		"cep": "01310-100",
		"estado": "sp",
		"data_nascimento": "1990-05-17T00:00:00",
		"ativo": false
	}`))
	require.NoError(t, err)

	assert.Equal(t, int64(7), client.ID)
	assert.Equal(t, "Maria Souza", client.Name)
	assert.Equal(t, "maria@example.com", client.Email)
	assert.Equal(t, "11987654321", client.Phone)
	assert.Equal(t, "11144477735", client.TaxID)
	assert.Equal(t, "01310100", client.PostalCode)
	assert.Equal(t, validation.KindIndividual, client.TaxIDKind)
	assert.Equal(t, "SP", client.State)
	assert.False(t, client.Active)
	assert.Equal(t, "1990-05-17", client.BirthDate.Format("2006-01-02"))
}

func TestDecodeRentalResolvesSchemaVariants(t *testing.T) {
	variants := [][]byte{
		[]byte(`{"cliente_id": 3, "car_id": "6f1c2a8e-3b8e-4f57-9a43-1b5f0e2d7c11", "start_date": "2024-01-01", "end_date": "2024-01-05", "daily_rate": 100, "total_amount": "600.00", "mileage_start": 1000, "status": "ativa", "payment_method": "PIX"}`),
		[]byte(`{"client_id": "3", "car_id": "6f1c2a8e-3b8e-4f57-9a43-1b5f0e2d7c11", "start_date": "01/01/2024", "end_date": "05/01/2024", "daily_rate": "R$ 100,00", "total_amount": 600, "start_mileage": 1000, "status": "ATIVA", "payment_method": "pix"}`),
	}

	for i, raw := range variants {
		rental, err := DecodeRental(raw)
		require.NoErrorf(t, err, "variant %d", i)

		assert.Equalf(t, int64(3), rental.ClientID, "variant %d", i)
		assert.Equalf(t, int64(1000), rental.MileageStart, "variant %d", i)
		assert.Equalf(t, RentalActive, rental.Status, "variant %d", i)
		assert.Equalf(t, PaymentPix, rental.PaymentMethod, "variant %d", i)
		assert.Equalf(t, PaymentPending, rental.PaymentStatus, "variant %d", i)
		assert.Truef(t, rental.DailyRate.Equal(decimal.NewFromInt(100)), "variant %d: daily rate %s", i, rental.DailyRate)
		assert.Truef(t, rental.TotalAmount.Equal(decimal.NewFromInt(600)), "variant %d: total %s", i, rental.TotalAmount)
		assert.Equalf(t, "2024-01-01", rental.StartDate.Format("2006-01-02"), "variant %d", i)
		assert.Equalf(t, "2024-01-05", rental.EndDate.Format("2006-01-02"), "variant %d", i)
		assert.Nilf(t, rental.MileageEnd, "variant %d", i)
	}
}

func TestDecodeRentalFinishedWithReturnData(t *testing.T) {
	rental, err := DecodeRental([]byte(`{"status": "finalizada", "final_mileage": 1500, "late_fee": 25.5, "return_date": "2024-01-07", "payment_method": "CARTAO_CREDITO"}`))
	require.NoError(t, err)

	assert.Equal(t, RentalFinished, rental.Status)
	assert.Equal(t, PaymentCreditCard, rental.PaymentMethod)
	require.NotNil(t, rental.MileageEnd)
	assert.Equal(t, int64(1500), *rental.MileageEnd)
	assert.Truef(t, rental.LateFee.Equal(decimal.RequireFromString("25.5")), "late fee %s", rental.LateFee)
}

func TestDecodeRentalAcceptsFloatEncodedIntegers(t *testing.T) {
	rental, err := DecodeRental([]byte(`{"client_id": "12.0", "mileage_start": 1200.0}`))
	require.NoError(t, err)

	assert.Equal(t, int64(12), rental.ClientID)
	assert.Equal(t, int64(1200), rental.MileageStart)
}

func TestDecodeRentalRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"unknown status":      `{"status": "pausada"}`,
		"bad car id":          `{"car_id": "not-a-uuid"}`,
		"bad date":            `{"start_date": "2024-02-30"}`,
		"fractional id":       `{"client_id": 3.5}`,
		"bad amount":          `{"total_amount": "muito"}`,
		"unknown payment":     `{"payment_method": "BOLETO"}`,
		"not an object":       `[1, 2, 3]`,
		"null":                `null`,
		"exponent amount":     `{"total_amount": 1e50000000}`,
		"exponent string":     `{"daily_rate": "1e50000000"}`,
		"oversized amount":    `{"total_amount": 12345678901234567890}`,
		"exponent integer":    `{"mileage_start": 1e40}`,
		"overflowing integer": `{"client_id": "99999999999999999999.0"}`,
		"exponent late fee":   `{"late_fee": "2.5E+9"}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeRental([]byte(raw))
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestDecodeCarRejectsExponentDailyRate(t *testing.T) {
	_, err := DecodeCar([]byte(`{"marca": "Fiat", "diaria": 1e50000000}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDecodeDispatchesByKind(t *testing.T) {
	kind, ok := ParseKind("Carros")
	require.True(t, ok)
	require.Equal(t, KindCar, kind)

	record, err := Decode(kind, []byte(`{"marca": "Fiat"}`))
	require.NoError(t, err)
	car, ok := record.(Car)
	require.Truef(t, ok, "unexpected record %#v", record)
	assert.Equal(t, "Fiat", car.Brand)

	_, err = Decode(Kind("boat"), []byte(`{}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDateMarshalsAsISO(t *testing.T) {
	rental, err := DecodeRental([]byte(`{"start_date": "2024-01-01"}`))
	require.NoError(t, err)

	start, err := rental.StartDate.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-01-01"`, string(start))

	end, err := rental.EndDate.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(end))
}
