// Package apierror defines the error envelopes every 4xx/5xx response uses.
// Handlers never write raw error strings or internal details (stack traces,
// SQL errors) to a client; they go through New or NewValidation.
package apierror

// APIError is the single-message envelope.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError carries per-field failures from request binding.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}
