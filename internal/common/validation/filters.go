package validation

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	apperrors "cnes-dashboard/internal/common/errors"
)

const MaxFilterLength = 100

// ValidateFilterValue rejects values no estado/municipio can take. Values
// are always bound as parameters; this only keeps garbage out of cache keys
// and logs.
func ValidateFilterValue(field, value string) error {
	if !utf8.ValidString(value) {
		return apperrors.NewInvalidFilterFormatError(fmt.Sprintf("%s is not valid UTF-8", field))
	}
	if utf8.RuneCountInString(value) > MaxFilterLength {
		return apperrors.NewInvalidFilterFormatError(fmt.Sprintf("%s exceeds %d characters", field, MaxFilterLength))
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return apperrors.NewInvalidFilterFormatError(fmt.Sprintf("%s contains control characters", field))
		}
	}
	return nil
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
