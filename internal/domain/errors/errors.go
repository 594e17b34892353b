package errors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrServiceNotFound    = errors.New("service not found")
	ErrInvalidTarget      = errors.New("invalid target url")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrQuantityOutOfRange = errors.New("quantity out of service range")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidProgress    = errors.New("invalid progress")
)
