package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quickcourt/internal/availability"
	"quickcourt/internal/domain"
	"quickcourt/internal/events"
	"quickcourt/internal/metrics"
	"quickcourt/internal/models"
	"quickcourt/internal/pricing"
	"quickcourt/internal/timeslot"
)

// BookingService owns the booking lifecycle: slot validation, price
// freezing, the conditional insert, payment confirmation, cancellation
// with tiered refunds and the completion sweep.
type BookingService struct {
	store          domain.BookingStore
	holds          domain.HoldRepository
	gateway        domain.PaymentGateway
	notifier       domain.NotificationSender
	eventBus       domain.EventPublisher
	maxBookingDays int
	holdTTL        time.Duration
	logger         *zerolog.Logger
}

func NewBookingService(
	store domain.BookingStore,
	holds domain.HoldRepository,
	gateway domain.PaymentGateway,
	notifier domain.NotificationSender,
	eventBus domain.EventPublisher,
	maxBookingDays int,
	holdTTL time.Duration,
	logger *zerolog.Logger,
) *BookingService {
	if maxBookingDays <= 0 {
		maxBookingDays = models.DefaultMaxBookingDays
	}
	if holdTTL <= 0 {
		holdTTL = models.DefaultHoldTTL * time.Second
	}
	return &BookingService{
		store:          store,
		holds:          holds,
		gateway:        gateway,
		notifier:       notifier,
		eventBus:       eventBus,
		maxBookingDays: maxBookingDays,
		holdTTL:        holdTTL,
		logger:         logger,
	}
}

// CreateBookingRequest carries everything the caller decides; pricing is
// computed server-side and never taken from the request.
type CreateBookingRequest struct {
	UserID        int64
	CourtID       int64
	Date          time.Time
	StartTime     string
	EndTime       string
	PaymentMethod string
}

func (s *BookingService) ValidateBookingDate(date time.Time) error {
	if date.Before(time.Now().AddDate(0, 0, -1)) {
		return ErrPastDate
	}

	maxDate := time.Now().AddDate(0, 0, s.maxBookingDays)
	if date.After(maxDate) {
		return ErrDateTooFar
	}

	return nil
}

// CreateBooking validates the slot against the calendar and active
// bookings, freezes the price, creates the gateway order for online
// methods and inserts the booking. The returned order is nil for cash and
// wallet bookings.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, *domain.PaymentOrder, error) {
	if err := s.ValidateBookingDate(req.Date); err != nil {
		return nil, nil, err
	}

	switch req.PaymentMethod {
	case models.MethodRazorpay, models.MethodStripe, models.MethodCash, models.MethodWallet:
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidPaymentMethod, req.PaymentMethod)
	}

	interval, err := timeslot.NewInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, nil, err
	}

	court, err := s.store.GetCourt(req.CourtID)
	if err != nil {
		return nil, nil, err
	}
	facility, err := s.store.GetFacility(court.FacilityID)
	if err != nil {
		return nil, nil, err
	}

	if interval.Hours() < court.MinDuration() {
		return nil, nil, fmt.Errorf("%w: minimum is %.1f hours", ErrDurationTooShort, court.MinDuration())
	}

	active, err := s.store.FindBookingsFor(ctx, court.ID, req.Date, models.ActiveStatuses)
	if err != nil {
		return nil, nil, err
	}
	if err := availability.ValidateSlot(court, facility, req.Date, interval, active); err != nil {
		return nil, nil, err
	}

	// The hold damps concurrent submits for the same slot; the conditional
	// insert below is what actually guarantees exclusivity.
	holdKey := s.slotHoldKey(court.ID, req.Date, interval)
	if s.holds != nil {
		acquired, err := s.holds.Acquire(ctx, holdKey, s.holdTTL)
		if err == nil && !acquired {
			metrics.IncBookingConflict()
			return nil, nil, ErrSlotHeld
		}
		defer func() {
			_ = s.holds.Release(ctx, holdKey)
		}()
	}

	quote := pricing.ForInterval(court, facility, interval).Pricing()
	booking := &models.Booking{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		FacilityID: facility.ID,
		CourtID:    court.ID,
		Date:       req.Date,
		Slot: models.TimeSlot{
			StartTime:     interval.StartClock(),
			EndTime:       interval.EndClock(),
			DurationHours: interval.Hours(),
		},
		Pricing: quote,
		Payment: models.Payment{
			Method: req.PaymentMethod,
			Status: models.PaymentPending,
		},
		Status: models.StatusPending,
	}

	var order *domain.PaymentOrder
	if models.IsGatewayMethod(req.PaymentMethod) {
		order, err = s.gateway.CreateOrder(ctx, quote.TotalAmount, quote.Currency, booking.ID, map[string]string{
			"booking_id": booking.ID,
			"court":      court.Name,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create payment order: %w", err)
		}
		booking.Payment.OrderID = order.ID
	}

	if err := s.store.CreateBookingIfFree(ctx, booking); err != nil {
		metrics.IncBookingConflict()
		return nil, nil, err
	}
	metrics.IncBookingCreated()

	s.logger.Info().
		Str("booking_id", booking.ID).
		Int64("court_id", court.ID).
		Str("slot", interval.String()).
		Float64("total", quote.TotalAmount).
		Msg("booking created")

	s.publishEvent(events.EventBookingCreated, booking, "")
	s.notify(ctx, facility.OwnerChatID, "booking_created", booking, court)

	return booking, order, nil
}

// ConfirmPayment verifies the gateway proof and flips the booking to
// confirmed. A rejected proof marks the payment failed and returns
// ErrPaymentFailed; the booking stays pending so the user may retry.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID, paymentID, signature string) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, bookingID, booking.Status)
	}

	payment := booking.Payment
	now := time.Now()

	if models.IsGatewayMethod(payment.Method) {
		ok, err := s.gateway.Verify(ctx, payment.OrderID, paymentID, signature)
		if err != nil {
			return nil, fmt.Errorf("payment verification unavailable: %w", err)
		}
		if !ok {
			payment.Status = models.PaymentFailed
			if err := s.store.UpdateBookingPaymentWithVersion(ctx, booking.ID, booking.Version, booking.Status, payment); err != nil {
				return nil, err
			}
			return nil, ErrPaymentFailed
		}
		payment.TransactionID = paymentID
	}

	payment.Status = models.PaymentCompleted
	payment.PaidAmount = booking.Pricing.TotalAmount
	payment.PaidAt = &now

	if err := s.store.UpdateBookingPaymentWithVersion(ctx, booking.ID, booking.Version, models.StatusConfirmed, payment); err != nil {
		return nil, err
	}
	metrics.IncPaymentConfirmed()

	if err := s.store.IncrementBookingCounters(ctx, booking.FacilityID, booking.CourtID); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to increment booking counters")
	}

	booking.Status = models.StatusConfirmed
	booking.Payment = payment
	booking.Version++

	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("method", payment.Method).
		Msg("payment confirmed")

	s.publishEvent(events.EventBookingConfirmed, booking, "")
	s.notifyOwner(ctx, booking, "booking_confirmed")

	return booking, nil
}

// Cancel applies the tiered refund policy and flips the booking to
// cancelled. The optimistic version claim happens before any money moves,
// so of two concurrent cancellations only one reaches the gateway. When
// the gateway refund then fails the booking stays cancelled, the payment
// record is rolled back to zero refund, the cancellation keeps the owed
// amount for reconciliation, and the caller gets ErrRefundFailed.
func (s *BookingService) Cancel(ctx context.Context, bookingID string, cancelledBy int64, reason string) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !booking.CanCancel(now) {
		if models.IsTerminalStatus(booking.Status) {
			return nil, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, bookingID, booking.Status)
		}
		return nil, ErrCancellationWindowClosed
	}

	refund := 0.0
	if booking.Payment.Status == models.PaymentCompleted {
		refund = booking.RefundAmount(now)
	}

	paymentStatus := booking.Payment.Status
	if refund > 0 {
		paymentStatus = models.PaymentRefunded
		if refund < booking.Payment.PaidAmount {
			paymentStatus = models.PaymentPartiallyRefunded
		}
	}

	cancellation := models.Cancellation{
		CancelledAt:  now,
		CancelledBy:  cancelledBy,
		Reason:       reason,
		RefundAmount: refund,
	}
	if err := s.store.CancelBookingWithVersion(ctx, booking.ID, booking.Version, cancellation, paymentStatus); err != nil {
		return nil, err
	}
	booking.Version++

	var refundErr error
	if refund > 0 && models.IsGatewayMethod(booking.Payment.Method) {
		if _, err := s.gateway.Refund(ctx, booking.Payment.TransactionID, refund); err != nil {
			s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("refund failed after cancellation, needs reconciliation")
			refundErr = fmt.Errorf("%w: %v", ErrRefundFailed, err)

			payment := booking.Payment
			payment.RefundAmount = 0
			payment.RefundedAt = nil
			if uerr := s.store.UpdateBookingPaymentWithVersion(ctx, booking.ID, booking.Version, models.StatusCancelled, payment); uerr != nil {
				s.logger.Error().Err(uerr).Str("booking_id", booking.ID).Msg("failed to record refund failure")
			} else {
				booking.Version++
			}
			refund = 0
			paymentStatus = booking.Payment.Status
		}
	}
	if refund > 0 {
		metrics.IncRefund()
	}

	booking.Status = models.StatusCancelled
	booking.Cancellation = &cancellation
	booking.Payment.Status = paymentStatus
	booking.Payment.RefundAmount = refund
	if refund > 0 {
		booking.Payment.RefundedAt = &cancellation.CancelledAt
	}

	s.logger.Info().
		Str("booking_id", booking.ID).
		Float64("refund", refund).
		Msg("booking cancelled")

	s.publishEvent(events.EventBookingCancelled, booking, reason)
	s.notifyOwner(ctx, booking, "booking_cancelled")

	return booking, refundErr
}

// Complete marks a confirmed booking completed after its end instant.
func (s *BookingService) Complete(ctx context.Context, bookingID string) error {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != models.StatusConfirmed {
		return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, bookingID, booking.Status)
	}
	if time.Now().Before(booking.EndInstant()) {
		return fmt.Errorf("%w: booking has not ended yet", ErrInvalidTransition)
	}

	if err := s.store.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, models.StatusCompleted); err != nil {
		return err
	}

	booking.Status = models.StatusCompleted
	s.publishEvent(events.EventBookingCompleted, booking, "")
	return nil
}

// MarkNoShow flips a confirmed booking to no_show. No refund applies.
func (s *BookingService) MarkNoShow(ctx context.Context, bookingID string, markedBy int64) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.StatusConfirmed {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, bookingID, booking.Status)
	}

	if err := s.store.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, models.StatusNoShow); err != nil {
		return nil, err
	}

	booking.Status = models.StatusNoShow
	booking.Version++

	s.logger.Info().
		Str("booking_id", booking.ID).
		Int64("marked_by", markedBy).
		Msg("booking marked no-show")

	s.publishEvent(events.EventBookingNoShow, booking, "")
	return booking, nil
}

// CompleteExpired sweeps confirmed bookings whose end instant has passed.
// Returns how many were completed; individual failures are logged and
// skipped so one stuck row cannot stall the sweep.
func (s *BookingService) CompleteExpired(ctx context.Context) (int, error) {
	expired, err := s.store.ListExpiredConfirmed(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, booking := range expired {
		if err := s.store.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, models.StatusCompleted); err != nil {
			s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to complete expired booking")
			continue
		}
		booking.Status = models.StatusCompleted
		s.publishEvent(events.EventBookingCompleted, booking, "")
		completed++
	}

	if completed > 0 {
		s.logger.Info().Int("completed", completed).Msg("expired bookings completed")
	}
	return completed, nil
}

// AvailableSlots enumerates the bookable slots with frozen prices for a
// court and date.
func (s *BookingService) AvailableSlots(ctx context.Context, courtID int64, date time.Time) ([]availability.Slot, error) {
	if err := s.ValidateBookingDate(date); err != nil {
		return nil, err
	}

	court, err := s.store.GetCourt(courtID)
	if err != nil {
		return nil, err
	}
	facility, err := s.store.GetFacility(court.FacilityID)
	if err != nil {
		return nil, err
	}

	active, err := s.store.FindBookingsFor(ctx, court.ID, date, models.ActiveStatuses)
	if err != nil {
		return nil, err
	}

	return availability.ListSlots(court, facility, date, active), nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

func (s *BookingService) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return s.store.GetUserBookings(ctx, userID)
}

func (s *BookingService) GetFacilityBookings(ctx context.Context, facilityID int64, from, to time.Time) ([]*models.Booking, error) {
	return s.store.GetFacilityBookings(ctx, facilityID, from, to)
}

func (s *BookingService) slotHoldKey(courtID int64, date time.Time, interval timeslot.Interval) string {
	return fmt.Sprintf("%d:%s:%d-%d", courtID, date.Format("2006-01-02"), interval.Start, interval.End)
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, reason string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		FacilityID:  booking.FacilityID,
		CourtID:     booking.CourtID,
		Date:        booking.Date.Format("2006-01-02"),
		StartTime:   booking.Slot.StartTime,
		EndTime:     booking.Slot.EndTime,
		Status:      booking.Status,
		TotalAmount: booking.Pricing.TotalAmount,
		Reason:      reason,
	}
	if booking.Cancellation != nil {
		payload.RefundAmount = booking.Cancellation.RefundAmount
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) notifyOwner(ctx context.Context, booking *models.Booking, kind string) {
	facility, err := s.store.GetFacility(booking.FacilityID)
	if err != nil {
		return
	}
	court, err := s.store.GetCourt(booking.CourtID)
	if err != nil {
		return
	}
	s.notify(ctx, facility.OwnerChatID, kind, booking, court)
}

func (s *BookingService) notify(ctx context.Context, recipient int64, kind string, booking *models.Booking, court *models.Court) {
	if s.notifier == nil || recipient == 0 {
		return
	}

	data := map[string]string{
		"booking_id": booking.ID,
		"court":      court.Name,
		"date":       booking.Date.Format("2006-01-02"),
		"slot":       booking.Slot.StartTime + "-" + booking.Slot.EndTime,
		"amount":     fmt.Sprintf("%.2f %s", booking.Pricing.TotalAmount, booking.Pricing.Currency),
		"status":     booking.Status,
	}
	if booking.Cancellation != nil {
		data["refund"] = fmt.Sprintf("%.2f", booking.Cancellation.RefundAmount)
	}

	if err := s.notifier.Notify(ctx, recipient, kind, data); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Str("kind", kind).Msg("notification error")
	}
}
