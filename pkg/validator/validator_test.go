package validator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type priceRequest struct {
	Name  string      `json:"name" validate:"required"`
	Price json.Number `json:"price" validate:"required,nonnegnumber"`
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_Success(t *testing.T) {
	s := signupRequest{Name: "Alice", Email: "alice@example.com", Password: "secret1", ConfirmPassword: "secret1"}
	assert.NoError(t, Validate(s))
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := Validate(signupRequest{})
	require.Error(t, err)

	fields := fieldsOf(t, err)
	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "is required", fields["email"])
	assert.Equal(t, "is required", fields["password"])
	assert.Equal(t, "is required", fields["confirmPassword"])
	assert.NotContains(t, fields, "ConfirmPassword")
}

func TestValidate_InvalidEmail(t *testing.T) {
	s := signupRequest{Name: "Alice", Email: "not-an-email", Password: "secret1", ConfirmPassword: "secret1"}
	fields := fieldsOf(t, Validate(s))
	assert.Equal(t, "must be a valid email address", fields["email"])
}

func TestValidate_MinLength(t *testing.T) {
	s := signupRequest{Name: "Alice", Email: "alice@example.com", Password: "abc", ConfirmPassword: "abc"}
	fields := fieldsOf(t, Validate(s))
	assert.Contains(t, fields["password"], "at least 6")
}

func TestValidate_EqField(t *testing.T) {
	s := signupRequest{Name: "Alice", Email: "alice@example.com", Password: "secret1", ConfirmPassword: "secret2"}
	fields := fieldsOf(t, Validate(s))
	assert.Equal(t, "must match Password", fields["confirmPassword"])
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(signupRequest{Email: "alice@example.com", Password: "secret1", ConfirmPassword: "secret1"})
	require.Error(t, err)
	assert.Equal(t, "name is required", err.Error())
}

// --- nonnegnumber ---

func TestValidate_NonNegativeNumber(t *testing.T) {
	tests := []struct {
		price string
		ok    bool
	}{
		{"0", true},
		{"12.5", true},
		{"1e3", true},
		{"-1", false},
		{"-0.01", false},
		{"abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			err := Validate(priceRequest{Name: "Widget", Price: json.Number(tt.price)})
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, "must be a non-negative number", fieldsOf(t, err)["price"])
		})
	}
}

func TestValidate_PriceRequired(t *testing.T) {
	fields := fieldsOf(t, Validate(priceRequest{Name: "Widget"}))
	assert.Equal(t, "is required", fields["price"])
}

// --- DecodeAndValidate ---

func TestDecodeAndValidate_Success(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Widget","price":9.99}`))

	var p priceRequest
	require.NoError(t, DecodeAndValidate(req, &p))
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, json.Number("9.99"), p.Price)
}

func TestDecodeAndValidate_PriceAsString(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Widget","price":"15000"}`))

	var p priceRequest
	require.NoError(t, DecodeAndValidate(req, &p))
	assert.Equal(t, json.Number("15000"), p.Price)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{invalid"))

	var p priceRequest
	err := DecodeAndValidate(req, &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))

	var p priceRequest
	err := DecodeAndValidate(req, &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty body")
}

func TestDecodeAndValidate_BodyTooLarge(t *testing.T) {
	big := `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `","price":1}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))

	var p priceRequest
	err := DecodeAndValidate(req, &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_ValidationFails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"","price":-3}`))

	var p priceRequest
	fields := fieldsOf(t, DecodeAndValidate(req, &p))
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "price")
}
