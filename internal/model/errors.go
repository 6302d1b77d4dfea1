package model

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the core engine. Callers branch on kind with
// errors.Is; the HTTP layer maps kinds to status codes.
var (
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// Errorf wraps kind with a formatted detail message while keeping the kind
// matchable via errors.Is.
func Errorf(kind error, format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, kind)...)
}

func IsNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool  { return errors.Is(err, ErrConflict) }
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }
func IsInvalid(err error) bool   { return errors.Is(err, ErrInvalidRequest) }
