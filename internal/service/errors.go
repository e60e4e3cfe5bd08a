package service

import "errors"

var (
	ErrPastDate                 = errors.New("booking date is in the past")
	ErrDateTooFar               = errors.New("booking date is too far ahead")
	ErrDurationTooShort         = errors.New("booking duration is below the minimum")
	ErrInvalidPaymentMethod     = errors.New("unknown payment method")
	ErrInvalidTransition        = errors.New("booking status transition not allowed")
	ErrCancellationWindowClosed = errors.New("booking can no longer be cancelled")
	ErrPaymentFailed            = errors.New("payment verification failed")
	ErrRefundFailed             = errors.New("refund could not be issued")
	ErrSlotHeld                 = errors.New("slot is being booked by someone else")
)
