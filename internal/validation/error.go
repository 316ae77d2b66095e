package validation

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/fxkeeper/internal/common"
)

// FieldError is one rejected field with a human-readable reason.
type FieldError struct {
	Field   string
	Message string
}

// Error aggregates field failures. It matches common.ErrValidation.
type Error struct {
	fields []FieldError
}

// NewError builds an Error from failures detected outside the Validator.
func NewError(fields ...FieldError) *Error {
	return &Error{fields: append([]FieldError(nil), fields...)}
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

func (e *Error) Is(target error) bool {
	return target == common.ErrValidation
}

// Fields returns the failures in the order they were detected.
func (e *Error) Fields() []FieldError {
	return append([]FieldError(nil), e.fields...)
}

func (e *Error) Messages() []string {
	msgs := make([]string, 0, len(e.fields))
	for _, f := range e.fields {
		msgs = append(msgs, f.Message)
	}
	return msgs
}

// Field returns the message recorded for name, if any.
func (e *Error) Field(name string) (string, bool) {
	for _, f := range e.fields {
		if f.Field == name {
			return f.Message, true
		}
	}
	return "", false
}

// Join merges the *Error values among errs into one. Nil entries are
// skipped and Join returns nil when nothing failed. A non-validation error
// is returned as is.
func Join(errs ...error) error {
	var merged []FieldError
	for _, err := range errs {
		if err == nil {
			continue
		}
		var ve *Error
		if !errors.As(err, &ve) {
			return err
		}
		merged = append(merged, ve.fields...)
	}
	if len(merged) == 0 {
		return nil
	}
	return &Error{fields: merged}
}
