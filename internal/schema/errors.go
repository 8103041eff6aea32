package schema

import (
	"fmt"
	"strings"
)

// SizeError reports a feature mapping with the wrong number of entries.
type SizeError struct {
	Got  int
	Want int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("schema: expected %d features, got %d", e.Want, e.Got)
}

// UnknownFieldError reports keys outside the closed field set.
type UnknownFieldError struct {
	Names []string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("schema: unknown fields: %s", strings.Join(e.Names, ", "))
}

// MissingFieldError reports registry fields absent from the input.
type MissingFieldError struct {
	Names []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("schema: missing fields: %s", strings.Join(e.Names, ", "))
}

// ValidationError aggregates every violation found in one Validate pass.
// Unwrap exposes the individual typed errors for errors.As.
type ValidationError struct {
	Size    *SizeError
	Unknown []string
	Missing []string
}

func (e *ValidationError) empty() bool {
	return e.Size == nil && len(e.Unknown) == 0 && len(e.Missing) == 0
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, 3)
	if e.Size != nil {
		parts = append(parts, e.Size.Error())
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, (&UnknownFieldError{Names: e.Unknown}).Error())
	}
	if len(e.Missing) > 0 {
		parts = append(parts, (&MissingFieldError{Names: e.Missing}).Error())
	}
	return strings.Join(parts, "; ")
}

// Unwrap returns the individual violations.
func (e *ValidationError) Unwrap() []error {
	var errs []error
	if e.Size != nil {
		errs = append(errs, e.Size)
	}
	if len(e.Unknown) > 0 {
		errs = append(errs, &UnknownFieldError{Names: e.Unknown})
	}
	if len(e.Missing) > 0 {
		errs = append(errs, &MissingFieldError{Names: e.Missing})
	}
	return errs
}
