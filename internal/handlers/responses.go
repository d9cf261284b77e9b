package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/dominicbrandes/aztec-exchange/internal/domain/engine"
	"github.com/dominicbrandes/aztec-exchange/internal/middleware"
)

// FieldError pinpoints one invalid request field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// ErrorResponse is the envelope returned for every failed request. Success
// bodies are the typed payloads themselves, unwrapped.
type ErrorResponse struct {
	Success   bool       `json:"success"`
	Error     *ErrorBody `json:"error"`
	RequestID string     `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, fields ...FieldError) {
	c.JSON(status, ErrorResponse{
		Success:   false,
		Error:     &ErrorBody{Code: code, Message: message, Fields: fields},
		RequestID: c.GetString(middleware.RequestIDKey),
	})
}

// respondValidationError translates a binding failure into a 422 with
// per-field details. Malformed JSON has no fields to blame.
func respondValidationError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Reason: validationReason(fe)})
		}
		respondError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request validation failed", fields...)
		return
	}
	respondError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body is not valid JSON")
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "tradingsymbol":
		return "must match BASE-QUOTE, uppercase"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// respondServiceError maps a service failure onto the route's status.
// Engine business errors use businessStatus; 404 routes hide the engine
// detail behind the canonical not-found body. Transport and decode failures
// are internal errors.
func respondServiceError(c *gin.Context, err error, businessStatus int) {
	var engErr *engine.Error
	if !errors.As(err, &engErr) {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}
	if businessStatus == http.StatusNotFound {
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}
	respondError(c, businessStatus, engErr.Code, engErr.Message)
}
