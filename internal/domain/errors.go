package domain

import "errors"

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrNoInput             = errors.New("no input submitted")
	ErrUnknownSight        = errors.New("unknown sight")

	ErrNotFound        = errors.New("dataportal: not found")
	ErrUnauthorized    = errors.New("dataportal: unauthorized")
	ErrForbidden       = errors.New("dataportal: forbidden")
	ErrInvalidResponse = errors.New("dataportal: invalid response")
	ErrUpstream        = errors.New("dataportal: request failed")
)
