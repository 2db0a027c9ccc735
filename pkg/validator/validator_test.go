package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	Type     string `validate:"required,oneof=cart_wise product_wise bxgy"`
	Quantity int    `validate:"gt=0"`
	Price    float64 `validate:"gte=0"`
}

func TestValidate_Success(t *testing.T) {
	s := testStruct{Type: "cart_wise", Quantity: 2, Price: 49.99}
	err := Validate(s)
	assert.NoError(t, err)
}

func TestValidate_MissingRequired(t *testing.T) {
	s := testStruct{Quantity: 1}
	err := Validate(s)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "Type")
	assert.Equal(t, "is required", fields["Type"])
}

func TestValidate_OneOf(t *testing.T) {
	s := testStruct{Type: "unknown", Quantity: 1}
	err := Validate(s)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "Type")
	assert.Contains(t, fields["Type"], "cart_wise")
}

func TestValidate_OutOfRange(t *testing.T) {
	s := testStruct{Type: "bxgy", Quantity: 0, Price: -1}
	err := Validate(s)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "Quantity")
	assert.Contains(t, fields, "Price")
}

func TestValidationError_ErrorString(t *testing.T) {
	s := testStruct{}
	err := Validate(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Type'")
	assert.Contains(t, err.Error(), "is required")
}
