package gamespec

import (
	"fmt"
	"strings"
)

// Field error codes (E200-E219). Constraint resolution and schema
// validation both report through FieldError so the caller always sees one
// aggregated list naming every offending field.
const (
	ErrInvalidEnumValue = "E201" // value outside a closed enum
	ErrRequiredMissing  = "E202" // required field absent or empty
	ErrSchemaViolation  = "E203" // failed CUE schema validation
	ErrUnknownGenre     = "E204" // genre not registered
)

// FieldError reports one invalid or missing field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// FieldErrors aggregates every field error found in one pass. Validation
// never fails fast on the first field.
type FieldErrors []FieldError

// Error implements the error interface.
func (e FieldErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("%d invalid field(s): %s", len(e), strings.Join(msgs, "; "))
}

// OrNil returns e as an error, or nil when no errors were collected.
func (e FieldErrors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
