package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookpublish/internal/entity"
)

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   ErrorResponseBody `json:"error"`
	Meta    interface{}       `json:"meta,omitempty"`
}

type ErrorResponseBody struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func buildMeta(r *http.Request) interface{} {
	requestID := RequestIDFrom(r)
	if requestID == "" {
		return nil
	}
	return map[string]interface{}{"request_id": requestID}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// JSONSuccess writes data in the success envelope with the request ID in
// meta.
func JSONSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeJSON(w, status, SuccessResponse{
		Success: true,
		Data:    data,
		Meta:    buildMeta(r),
	})
}

func JSONError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details []ErrorDetail) {
	writeJSON(w, status, ErrorResponse{
		Success: false,
		Error: ErrorResponseBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		Meta: buildMeta(r),
	})
}

// StatusFor maps an entity error code onto an HTTP status.
func StatusFor(code string) int {
	switch code {
	case "INVALID_INPUT", "INVALID_ISBN", "UNSUPPORTED_TRIM_SIZE", "EMPTY_BOOK":
		return http.StatusUnprocessableEntity
	case "IMAGE_LOAD":
		return http.StatusBadGateway
	case "CONFLICT":
		return http.StatusConflict
	case "NOT_FOUND":
		return http.StatusNotFound
	case "CANCELLED":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err with its stable code. Internal errors are not
// echoed to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	code := entity.ErrorCode(err)
	status := StatusFor(code)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "An internal error occurred"
	}

	var details []ErrorDetail
	var invalid *entity.InvalidInputError
	if errors.As(err, &invalid) {
		details = []ErrorDetail{{Field: invalid.Field, Message: invalid.Reason}}
	}
	JSONError(w, r, status, code, message, details)
}
