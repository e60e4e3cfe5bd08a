package domain

import (
	"context"
	"time"

	"quickcourt/internal/models"
)

// BookingStore is the persistence contract. It is the only shared mutable
// resource in the system and is reached exclusively through the booking
// service and availability queries.
type BookingStore interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	FindBookingsFor(ctx context.Context, courtID int64, date time.Time, statuses []string) ([]*models.Booking, error)
	// CreateBookingIfFree re-checks the overlap condition inside the same
	// transaction as the insert. Two concurrent requests for overlapping
	// windows must never both commit.
	CreateBookingIfFree(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error
	UpdateBookingPaymentWithVersion(ctx context.Context, id string, fromVersion int64, status string, payment models.Payment) error
	CancelBookingWithVersion(ctx context.Context, id string, fromVersion int64, cancellation models.Cancellation, paymentStatus string) error
	ListExpiredConfirmed(ctx context.Context, now time.Time) ([]*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	GetFacilityBookings(ctx context.Context, facilityID int64, from, to time.Time) ([]*models.Booking, error)
	IncrementBookingCounters(ctx context.Context, facilityID, courtID int64) error

	GetFacility(id int64) (*models.Facility, error)
	GetCourt(id int64) (*models.Court, error)
	ListCourts(facilityID int64) []*models.Court
}

// PaymentOrder is the gateway's handle for a pending charge.
type PaymentOrder struct {
	ID       string
	Amount   float64
	Currency string
}

// PaymentGateway is the narrow contract over whichever provider backs a
// booking's payment method. The core never sees provider payloads.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (*PaymentOrder, error)
	// Verify checks the provider's proof for an order. False with nil error
	// means the proof was rejected; a non-nil error means the provider was
	// unreachable.
	Verify(ctx context.Context, orderID, paymentID, signature string) (bool, error)
	Refund(ctx context.Context, transactionID string, amount float64) (string, error)
}

// NotificationSender delivers a templated message to a recipient chat or
// user id. Fire-and-forget: failures are logged by implementations and
// never block a booking transition.
type NotificationSender interface {
	Notify(ctx context.Context, recipient int64, kind string, data map[string]string) error
}

// EventPublisher fans domain events out to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// HoldRepository places short-lived holds on slot keys to damp concurrent
// double submits. Holds are an optimization; the conditional insert in the
// store is what actually guarantees exclusivity.
type HoldRepository interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
