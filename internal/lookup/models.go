package lookup

import (
	apperrors "cnes-dashboard/internal/common/errors"
)

// Failure reasons. They label metrics and logs and never reach the caller,
// who always sees the same lookup failure.
const (
	ReasonNotFound    = "not_found"
	ReasonHTTPStatus  = "http_status"
	ReasonTimeout     = "timeout"
	ReasonNetwork     = "network"
	ReasonInvalidBody = "invalid_body"
)

const (
	OutcomeFound   = "found"
	OutcomeFailed  = "failed"
	OutcomeInvalid = "invalid_input"
)

// MessageDigitsOnly is shown when the identifier is not purely numeric.
const MessageDigitsOnly = "Digite apenas números no campo CNES."

var (
	ErrLookupFailed = &apperrors.StandardError{Code: apperrors.ErrCodeLookupFailed}
	ErrValidation   = &apperrors.StandardError{Code: apperrors.ErrCodeValidationFailed}
)
