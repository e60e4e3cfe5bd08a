package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusNoShow    = "no_show"
)

const (
	PaymentPending           = "pending"
	PaymentCompleted         = "completed"
	PaymentFailed            = "failed"
	PaymentRefunded          = "refunded"
	PaymentPartiallyRefunded = "partially_refunded"
)

const (
	MethodRazorpay = "razorpay"
	MethodStripe   = "stripe"
	MethodCash     = "cash"
	MethodWallet   = "wallet"
)

const (
	// DefaultCurrency applies when a facility does not set one.
	DefaultCurrency = "INR"

	// MinDurationHours is the floor for any booking slot.
	MinDurationHours = 0.5

	// CancelCutoffHours is how close to the start a booking may still be cancelled.
	CancelCutoffHours = 2

	// SlotStepMinutes is the granularity of enumerated candidate slots.
	SlotStepMinutes = 60

	// DefaultHoldTTL is how long a slot hold lives in seconds.
	DefaultHoldTTL = 120

	// DefaultMaxBookingDays bounds how far ahead a booking may be placed.
	DefaultMaxBookingDays = 90

	// NotifyQueueSize is the buffer of the async notification dispatcher.
	NotifyQueueSize = 256
)

// ActiveStatuses are the booking statuses that occupy a slot.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

// TerminalStatuses permit no further transitions.
var TerminalStatuses = []string{StatusCancelled, StatusCompleted, StatusNoShow}

// IsTerminalStatus reports whether a booking status is final.
func IsTerminalStatus(status string) bool {
	for _, s := range TerminalStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsGatewayMethod reports whether a payment method settles through the
// payment gateway. Cash and wallet are reconciled manually.
func IsGatewayMethod(method string) bool {
	return method == MethodRazorpay || method == MethodStripe
}
