package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cnes-dashboard/internal/common/errors"
)

const testSchema = `{
	"type": "object",
	"required": ["codigo_cnes"],
	"properties": {
		"codigo_cnes": {"type": ["string", "integer"]}
	}
}`

func TestSchema_Validate(t *testing.T) {
	s, err := Compile(testSchema)
	require.NoError(t, err)

	tests := []struct {
		name  string
		doc   string
		valid bool
		field string
		code  string
	}{
		{name: "integer code", doc: `{"codigo_cnes": 2077485}`, valid: true},
		{name: "string code", doc: `{"codigo_cnes": "2077485", "extra": 1}`, valid: true},
		{name: "missing code", doc: `{"nome_fantasia": "X"}`, valid: false, field: "(root)", code: "required"},
		{name: "wrong type", doc: `{"codigo_cnes": true}`, valid: false, field: "codigo_cnes", code: "invalid_type"},
		{name: "array", doc: `[]`, valid: false, field: "(root)", code: "invalid_type"},
		{name: "not json", doc: `<html>`, valid: false, field: "(root)", code: "INVALID_JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Validate([]byte(tt.doc))
			assert.Equal(t, tt.valid, result.Valid)
			if tt.valid {
				assert.Empty(t, result.Errors)
				return
			}
			require.NotEmpty(t, result.Errors)
			assert.Equal(t, tt.field, result.Errors[0].Field)
			assert.Equal(t, tt.code, result.Errors[0].Code)
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile(`{"type": "nonsense"}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile(`{`) })
}

func TestValidateFilterValue(t *testing.T) {
	assert.NoError(t, ValidateFilterValue("estado", "SP"))
	assert.NoError(t, ValidateFilterValue("municipio", "São João d'Aliança"))
	assert.NoError(t, ValidateFilterValue("municipio", ""))

	for _, bad := range []string{
		strings.Repeat("a", MaxFilterLength+1),
		"SP\x00",
		"line\nbreak",
		string([]byte{0xff, 0xfe}),
	} {
		err := ValidateFilterValue("estado", bad)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidFilterFormat, apperrors.CodeOf(err))
	}
}

func TestIsDigits(t *testing.T) {
	assert.True(t, IsDigits("2077485"))
	assert.True(t, IsDigits("0"))
	assert.False(t, IsDigits(""))
	assert.False(t, IsDigits("12a"))
	assert.False(t, IsDigits("-12"))
	assert.False(t, IsDigits("１２"))
	assert.False(t, IsDigits(" 12"))
}
