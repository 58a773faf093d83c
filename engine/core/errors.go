package core

import "errors"

// ErrInvalidInput marks errors caused by missing or malformed caller input.
var ErrInvalidInput = errors.New("invalid input")
