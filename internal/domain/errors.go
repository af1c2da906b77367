package domain

import "errors"

var (
	ErrSerializationFailure  = errors.New("serialization failure")
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrNotConfirmed          = errors.New("booking not confirmed")
	ErrDuplicateEmail        = errors.New("email already in use")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrPaymentProcessing     = errors.New("payment processing error")
	ErrBookingNotPending     = errors.New("booking is not pending")
	ErrBookingNotRefundable  = errors.New("booking is not refundable")
)
