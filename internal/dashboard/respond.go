package dashboard

import (
	"encoding/json"
	"net/http"

	apperrors "cnes-dashboard/internal/common/errors"
)

type errorBody struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

type errorResponse struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError answers with the status mapped from err's code. Only the code
// and the user-facing message are sent; details stay in the logs.
func writeError(w http.ResponseWriter, r *http.Request, err *apperrors.StandardError) {
	writeJSON(w, apperrors.HTTPStatus(err.Code), errorResponse{
		Error:     errorBody{Code: err.Code, Message: err.Message},
		RequestID: GetRequestID(r.Context()),
	})
}
