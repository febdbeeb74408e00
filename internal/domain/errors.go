package domain

import "errors"

var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrUnknownTimezone = errors.New("unknown timezone")
)
