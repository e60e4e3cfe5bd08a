package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"quickcourt/internal/models"
	"quickcourt/internal/timeslot"
)

const bookingColumns = `id, user_id, facility_id, court_id, date, start_minutes, end_minutes,
    base_price, peak_multiplier, total_amount, currency,
    payment_method, payment_status, order_id, transaction_id,
    paid_amount, paid_at, refund_amount, refunded_at,
    status, cancelled_at, cancelled_by, cancel_reason, cancel_refund,
    created_at, updated_at, version`

const dateLayout = "2006-01-02"

// CreateBookingIfFree inserts the booking only if no pending or confirmed
// booking overlaps it on the same court and date. The conflict re-check
// runs inside the insert transaction, so two concurrent requests for
// overlapping windows cannot both commit; the loser gets ErrSlotConflict
// naming the winner.
func (db *DB) CreateBookingIfFree(ctx context.Context, booking *models.Booking) error {
	interval, err := booking.Slot.Interval()
	if err != nil {
		return fmt.Errorf("invalid booking slot: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var conflictID string
	queryConflict := `SELECT id FROM bookings
        WHERE court_id = ? AND date = ? AND status IN (?, ?)
          AND start_minutes < ? AND end_minutes > ?
        LIMIT 1`
	err = tx.QueryRowContext(ctx, queryConflict,
		booking.CourtID, booking.Date.Format(dateLayout),
		models.StatusPending, models.StatusConfirmed,
		interval.End, interval.Start,
	).Scan(&conflictID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: conflicts with booking %s", ErrSlotConflict, conflictID)
	case err != sql.ErrNoRows:
		return fmt.Errorf("failed to check slot conflict in tx: %w", err)
	}

	now := time.Now()
	queryInsert := `INSERT INTO bookings (
            id, user_id, facility_id, court_id, date, start_minutes, end_minutes,
            base_price, peak_multiplier, total_amount, currency,
            payment_method, payment_status, order_id, transaction_id,
            paid_amount, refund_amount, status, created_at, updated_at, version
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, queryInsert,
		booking.ID,
		booking.UserID,
		booking.FacilityID,
		booking.CourtID,
		booking.Date.Format(dateLayout),
		interval.Start,
		interval.End,
		booking.Pricing.BasePrice,
		booking.Pricing.PeakMultiplier,
		booking.Pricing.TotalAmount,
		booking.Pricing.Currency,
		booking.Payment.Method,
		booking.Payment.Status,
		booking.Payment.OrderID,
		booking.Payment.TransactionID,
		booking.Payment.PaidAmount,
		booking.Payment.RefundAmount,
		booking.Status,
		now,
		now,
		1,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: identical slot already inserted", ErrSlotConflict)
		}
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// FindBookingsFor returns the bookings on a court and date with one of the
// given statuses, ordered by start time.
func (db *DB) FindBookingsFor(ctx context.Context, courtID int64, date time.Time, statuses []string) ([]*models.Booking, error) {
	if len(statuses) == 0 {
		statuses = models.ActiveStatuses
	}

	placeholders := strings.Repeat("?,", len(statuses))
	placeholders = placeholders[:len(placeholders)-1]

	args := []interface{}{courtID, date.Format(dateLayout)}
	for _, s := range statuses {
		args = append(args, s)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings
        WHERE court_id = ? AND date = ? AND status IN (` + placeholders + `)
        ORDER BY start_minutes ASC`
	return db.queryBookings(ctx, query, args...)
}

func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
        WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// UpdateBookingPaymentWithVersion writes the payment snapshot and booking
// status in one optimistic update.
func (db *DB) UpdateBookingPaymentWithVersion(ctx context.Context, id string, fromVersion int64, status string, payment models.Payment) error {
	query := `UPDATE bookings SET
            status = ?, payment_status = ?, order_id = ?, transaction_id = ?,
            paid_amount = ?, paid_at = ?, refund_amount = ?, refunded_at = ?,
            version = version + 1, updated_at = ?
        WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query,
		status, payment.Status, payment.OrderID, payment.TransactionID,
		payment.PaidAmount, payment.PaidAt, payment.RefundAmount, payment.RefundedAt,
		time.Now(), id, fromVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking payment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// CancelBookingWithVersion records the cancellation and flips the status
// in one optimistic update, so two concurrent cancellations cannot both
// succeed and double-refund.
func (db *DB) CancelBookingWithVersion(ctx context.Context, id string, fromVersion int64, cancellation models.Cancellation, paymentStatus string) error {
	var refundedAt interface{}
	var refundAmount float64
	if cancellation.RefundAmount > 0 {
		refundedAt = cancellation.CancelledAt
		refundAmount = cancellation.RefundAmount
	}

	query := `UPDATE bookings SET
            status = ?, payment_status = ?,
            cancelled_at = ?, cancelled_by = ?, cancel_reason = ?, cancel_refund = ?,
            refund_amount = ?, refunded_at = ?,
            version = version + 1, updated_at = ?
        WHERE id = ? AND version = ? AND status IN (?, ?)`
	result, err := db.ExecContext(ctx, query,
		models.StatusCancelled, paymentStatus,
		cancellation.CancelledAt, cancellation.CancelledBy, cancellation.Reason, cancellation.RefundAmount,
		refundAmount, refundedAt,
		time.Now(), id, fromVersion,
		models.StatusPending, models.StatusConfirmed,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// ListExpiredConfirmed returns confirmed bookings whose end instant has
// passed, for the periodic completion sweep.
func (db *DB) ListExpiredConfirmed(ctx context.Context, now time.Time) ([]*models.Booking, error) {
	nowMinutes := now.Hour()*60 + now.Minute()
	query := `SELECT ` + bookingColumns + ` FROM bookings
        WHERE status = ? AND (date < ? OR (date = ? AND end_minutes <= ?))
        ORDER BY date ASC, start_minutes ASC`
	return db.queryBookings(ctx, query,
		models.StatusConfirmed,
		now.Format(dateLayout), now.Format(dateLayout), nowMinutes,
	)
}

// GetUserBookings returns a user's bookings from the last two weeks onward.
func (db *DB) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	twoWeeksAgo := time.Now().AddDate(0, 0, -14).Format(dateLayout)
	query := `SELECT ` + bookingColumns + ` FROM bookings
        WHERE user_id = ? AND date >= ?
        ORDER BY date DESC, start_minutes DESC`
	return db.queryBookings(ctx, query, userID, twoWeeksAgo)
}

// GetFacilityBookings returns a facility's bookings inside [from, to].
func (db *DB) GetFacilityBookings(ctx context.Context, facilityID int64, from, to time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
        WHERE facility_id = ? AND date >= ? AND date <= ?
        ORDER BY date ASC, start_minutes ASC`
	return db.queryBookings(ctx, query, facilityID, from.Format(dateLayout), to.Format(dateLayout))
}

// IncrementBookingCounters bumps the aggregate counters kept on the
// facility and court rows when a payment is confirmed.
func (db *DB) IncrementBookingCounters(ctx context.Context, facilityID, courtID int64) error {
	if _, err := db.ExecContext(ctx,
		`UPDATE facilities SET total_bookings = total_bookings + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		facilityID,
	); err != nil {
		return fmt.Errorf("failed to increment facility counter: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`UPDATE courts SET total_bookings = total_bookings + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		courtID,
	); err != nil {
		return fmt.Errorf("failed to increment court counter: %w", err)
	}
	return nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b            models.Booking
		dateStr      string
		startMin     int
		endMin       int
		orderID      sql.NullString
		txID         sql.NullString
		paidAt       sql.NullTime
		refundedAt   sql.NullTime
		cancelledAt  sql.NullTime
		cancelledBy  sql.NullInt64
		cancelReason sql.NullString
		cancelRefund sql.NullFloat64
	)

	err := row.Scan(
		&b.ID, &b.UserID, &b.FacilityID, &b.CourtID, &dateStr, &startMin, &endMin,
		&b.Pricing.BasePrice, &b.Pricing.PeakMultiplier, &b.Pricing.TotalAmount, &b.Pricing.Currency,
		&b.Payment.Method, &b.Payment.Status, &orderID, &txID,
		&b.Payment.PaidAmount, &paidAt, &b.Payment.RefundAmount, &refundedAt,
		&b.Status, &cancelledAt, &cancelledBy, &cancelReason, &cancelRefund,
		&b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}

	b.Date, err = time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}

	interval, err := timeslot.FromMinutes(startMin, endMin)
	if err != nil {
		return nil, fmt.Errorf("corrupt booking slot %d-%d: %w", startMin, endMin, err)
	}
	b.Slot = models.TimeSlot{
		StartTime:     interval.StartClock(),
		EndTime:       interval.EndClock(),
		DurationHours: interval.Hours(),
	}

	b.Payment.OrderID = orderID.String
	b.Payment.TransactionID = txID.String
	if paidAt.Valid {
		t := paidAt.Time
		b.Payment.PaidAt = &t
	}
	if refundedAt.Valid {
		t := refundedAt.Time
		b.Payment.RefundedAt = &t
	}

	if cancelledAt.Valid {
		b.Cancellation = &models.Cancellation{
			CancelledAt:  cancelledAt.Time,
			CancelledBy:  cancelledBy.Int64,
			Reason:       cancelReason.String,
			RefundAmount: cancelRefund.Float64,
		}
	}

	return &b, nil
}
