package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quickcourt/internal/availability"
	"quickcourt/internal/database"
	"quickcourt/internal/domain"
	"quickcourt/internal/models"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockStore) FindBookingsFor(ctx context.Context, courtID int64, date time.Time, statuses []string) ([]*models.Booking, error) {
	args := m.Called(ctx, courtID, date, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockStore) CreateBookingIfFree(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockStore) UpdateBookingStatusWithVersion(ctx context.Context, id string, v int64, s string) error {
	return m.Called(ctx, id, v, s).Error(0)
}
func (m *mockStore) UpdateBookingPaymentWithVersion(ctx context.Context, id string, v int64, s string, p models.Payment) error {
	return m.Called(ctx, id, v, s, p).Error(0)
}
func (m *mockStore) CancelBookingWithVersion(ctx context.Context, id string, v int64, c models.Cancellation, ps string) error {
	return m.Called(ctx, id, v, c, ps).Error(0)
}
func (m *mockStore) ListExpiredConfirmed(ctx context.Context, now time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockStore) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockStore) GetFacilityBookings(ctx context.Context, facilityID int64, from, to time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, facilityID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockStore) IncrementBookingCounters(ctx context.Context, facilityID, courtID int64) error {
	return m.Called(ctx, facilityID, courtID).Error(0)
}
func (m *mockStore) GetFacility(id int64) (*models.Facility, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Facility), args.Error(1)
}
func (m *mockStore) GetCourt(id int64) (*models.Court, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Court), args.Error(1)
}
func (m *mockStore) ListCourts(facilityID int64) []*models.Court {
	args := m.Called(facilityID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*models.Court)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (*domain.PaymentOrder, error) {
	args := m.Called(ctx, amount, currency, receipt, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentOrder), args.Error(1)
}
func (m *mockGateway) Verify(ctx context.Context, orderID, paymentID, signature string) (bool, error) {
	args := m.Called(ctx, orderID, paymentID, signature)
	return args.Bool(0), args.Error(1)
}
func (m *mockGateway) Refund(ctx context.Context, transactionID string, amount float64) (string, error) {
	args := m.Called(ctx, transactionID, amount)
	return args.String(0), args.Error(1)
}

func testFacility() *models.Facility {
	return &models.Facility{
		ID:   1,
		Name: "Arena One",
		Peak: models.PeakPricing{Start: "18:00", End: "21:00", Multiplier: 1.5},
	}
}

func testCourt() *models.Court {
	return &models.Court{
		ID:         10,
		FacilityID: 1,
		Name:       "Court A",
		Sport:      "badminton",
		HourlyRate: 500,
		IsActive:   true,
	}
}

func newTestService(store *mockStore, gateway *mockGateway) *BookingService {
	logger := zerolog.New(io.Discard)
	return NewBookingService(store, nil, gateway, nil, nil, 90, 2*time.Minute, &logger)
}

func confirmedBooking(start time.Time, total float64) *models.Booking {
	return &models.Booking{
		ID:         "bk-1",
		UserID:     100,
		FacilityID: 1,
		CourtID:    10,
		Date:       time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location()),
		Slot: models.TimeSlot{
			StartTime:     start.Format("15:04"),
			EndTime:       start.Add(time.Hour).Format("15:04"),
			DurationHours: 1,
		},
		Pricing: models.Pricing{BasePrice: 500, PeakMultiplier: 1, TotalAmount: total, Currency: "INR"},
		Payment: models.Payment{
			Method:        models.MethodRazorpay,
			Status:        models.PaymentCompleted,
			OrderID:       "order_1",
			TransactionID: "pay_1",
			PaidAmount:    total,
		},
		Status:  models.StatusConfirmed,
		Version: 2,
	}
}

func TestCreateBooking(t *testing.T) {
	store := new(mockStore)
	gateway := new(mockGateway)
	svc := newTestService(store, gateway)
	ctx := context.Background()

	date := time.Now().AddDate(0, 0, 7)
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	store.On("GetCourt", int64(10)).Return(testCourt(), nil)
	store.On("GetFacility", int64(1)).Return(testFacility(), nil)
	store.On("FindBookingsFor", ctx, int64(10), date, models.ActiveStatuses).Return([]*models.Booking(nil), nil)
	gateway.On("CreateOrder", ctx, 750.0, "INR", mock.Anything, mock.Anything).
		Return(&domain.PaymentOrder{ID: "order_1", Amount: 750, Currency: "INR"}, nil)
	store.On("CreateBookingIfFree", ctx, mock.AnythingOfType("*models.Booking")).Return(nil)

	booking, order, err := svc.CreateBooking(ctx, CreateBookingRequest{
		UserID:        100,
		CourtID:       10,
		Date:          date,
		StartTime:     "18:00",
		EndTime:       "19:00",
		PaymentMethod: models.MethodRazorpay,
	})
	require.NoError(t, err)
	require.NotNil(t, order)

	// Peak hour at 1.5x on a 500/h court
	assert.Equal(t, 750.0, booking.Pricing.TotalAmount)
	assert.Equal(t, 1.5, booking.Pricing.PeakMultiplier)
	assert.Equal(t, models.StatusPending, booking.Status)
	assert.Equal(t, models.PaymentPending, booking.Payment.Status)
	assert.Equal(t, "order_1", booking.Payment.OrderID)
	assert.NotEmpty(t, booking.ID)

	store.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestCreateBookingCashSkipsGateway(t *testing.T) {
	store := new(mockStore)
	gateway := new(mockGateway)
	svc := newTestService(store, gateway)
	ctx := context.Background()

	date := time.Now().AddDate(0, 0, 7)
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	store.On("GetCourt", int64(10)).Return(testCourt(), nil)
	store.On("GetFacility", int64(1)).Return(testFacility(), nil)
	store.On("FindBookingsFor", ctx, int64(10), date, models.ActiveStatuses).Return([]*models.Booking(nil), nil)
	store.On("CreateBookingIfFree", ctx, mock.AnythingOfType("*models.Booking")).Return(nil)

	booking, order, err := svc.CreateBooking(ctx, CreateBookingRequest{
		UserID:        100,
		CourtID:       10,
		Date:          date,
		StartTime:     "10:00",
		EndTime:       "11:00",
		PaymentMethod: models.MethodCash,
	})
	require.NoError(t, err)
	assert.Nil(t, order)
	assert.Empty(t, booking.Payment.OrderID)
	gateway.AssertNotCalled(t, "CreateOrder")
}

func TestCreateBookingValidation(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, new(mockGateway))
	ctx := context.Background()

	t.Run("PastDate", func(t *testing.T) {
		_, _, err := svc.CreateBooking(ctx, CreateBookingRequest{
			CourtID:       10,
			Date:          time.Now().AddDate(0, 0, -3),
			StartTime:     "10:00",
			EndTime:       "11:00",
			PaymentMethod: models.MethodCash,
		})
		assert.ErrorIs(t, err, ErrPastDate)
	})

	t.Run("DateTooFar", func(t *testing.T) {
		_, _, err := svc.CreateBooking(ctx, CreateBookingRequest{
			CourtID:       10,
			Date:          time.Now().AddDate(0, 0, 120),
			StartTime:     "10:00",
			EndTime:       "11:00",
			PaymentMethod: models.MethodCash,
		})
		assert.ErrorIs(t, err, ErrDateTooFar)
	})

	t.Run("BadPaymentMethod", func(t *testing.T) {
		_, _, err := svc.CreateBooking(ctx, CreateBookingRequest{
			CourtID:       10,
			Date:          time.Now().AddDate(0, 0, 7),
			StartTime:     "10:00",
			EndTime:       "11:00",
			PaymentMethod: "barter",
		})
		assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
	})

	t.Run("InvertedWindow", func(t *testing.T) {
		_, _, err := svc.CreateBooking(ctx, CreateBookingRequest{
			CourtID:       10,
			Date:          time.Now().AddDate(0, 0, 7),
			StartTime:     "11:00",
			EndTime:       "10:00",
			PaymentMethod: models.MethodCash,
		})
		assert.Error(t, err)
	})
}

func TestCreateBookingConflict(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, new(mockGateway))
	ctx := context.Background()

	date := time.Now().AddDate(0, 0, 7)
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	busy := &models.Booking{
		ID:     "busy-1",
		Status: models.StatusConfirmed,
		Slot:   models.TimeSlot{StartTime: "10:00", EndTime: "12:00"},
	}

	store.On("GetCourt", int64(10)).Return(testCourt(), nil)
	store.On("GetFacility", int64(1)).Return(testFacility(), nil)
	store.On("FindBookingsFor", ctx, int64(10), date, models.ActiveStatuses).Return([]*models.Booking{busy}, nil)

	_, _, err := svc.CreateBooking(ctx, CreateBookingRequest{
		UserID:        100,
		CourtID:       10,
		Date:          date,
		StartTime:     "11:00",
		EndTime:       "12:00",
		PaymentMethod: models.MethodCash,
	})
	assert.ErrorIs(t, err, availability.ErrBookingConflict)
	store.AssertNotCalled(t, "CreateBookingIfFree")
}

func TestConfirmPayment(t *testing.T) {
	store := new(mockStore)
	gateway := new(mockGateway)
	svc := newTestService(store, gateway)
	ctx := context.Background()

	pending := confirmedBooking(time.Now().Add(48*time.Hour), 500)
	pending.Status = models.StatusPending
	pending.Payment.Status = models.PaymentPending
	pending.Payment.TransactionID = ""
	pending.Version = 1

	store.On("GetBooking", ctx, "bk-1").Return(pending, nil)
	gateway.On("Verify", ctx, "order_1", "pay_9", "sig").Return(true, nil)
	store.On("UpdateBookingPaymentWithVersion", ctx, "bk-1", int64(1), models.StatusConfirmed, mock.AnythingOfType("models.Payment")).Return(nil)
	store.On("IncrementBookingCounters", ctx, int64(1), int64(10)).Return(nil)

	booking, err := svc.ConfirmPayment(ctx, "bk-1", "pay_9", "sig")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, booking.Status)
	assert.Equal(t, models.PaymentCompleted, booking.Payment.Status)
	assert.Equal(t, "pay_9", booking.Payment.TransactionID)
	assert.Equal(t, 500.0, booking.Payment.PaidAmount)
	store.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestConfirmPaymentRejected(t *testing.T) {
	store := new(mockStore)
	gateway := new(mockGateway)
	svc := newTestService(store, gateway)
	ctx := context.Background()

	pending := confirmedBooking(time.Now().Add(48*time.Hour), 500)
	pending.Status = models.StatusPending
	pending.Payment.Status = models.PaymentPending
	pending.Version = 1

	store.On("GetBooking", ctx, "bk-1").Return(pending, nil)
	gateway.On("Verify", ctx, "order_1", "pay_9", "bad").Return(false, nil)
	// Booking stays pending; only the payment is marked failed.
	store.On("UpdateBookingPaymentWithVersion", ctx, "bk-1", int64(1), models.StatusPending, mock.MatchedBy(func(p models.Payment) bool {
		return p.Status == models.PaymentFailed
	})).Return(nil)

	_, err := svc.ConfirmPayment(ctx, "bk-1", "pay_9", "bad")
	assert.ErrorIs(t, err, ErrPaymentFailed)
	store.AssertExpectations(t)
}

func TestConfirmPaymentAlreadyConfirmed(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, new(mockGateway))
	ctx := context.Background()

	store.On("GetBooking", ctx, "bk-1").Return(confirmedBooking(time.Now().Add(48*time.Hour), 500), nil)

	_, err := svc.ConfirmPayment(ctx, "bk-1", "pay_9", "sig")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelRefundTiers(t *testing.T) {
	cases := []struct {
		name         string
		hoursAhead   time.Duration
		wantRefund   float64
		wantPayState string
	}{
		{"FullRefund25hAhead", 25 * time.Hour, 1000, models.PaymentRefunded},
		{"HalfRefund10hAhead", 10 * time.Hour, 500, models.PaymentPartiallyRefunded},
		{"QuarterRefund3hAhead", 3 * time.Hour, 250, models.PaymentPartiallyRefunded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(mockStore)
			gateway := new(mockGateway)
			svc := newTestService(store, gateway)
			ctx := context.Background()

			booking := confirmedBooking(time.Now().Add(tc.hoursAhead), 1000)
			store.On("GetBooking", ctx, "bk-1").Return(booking, nil)
			gateway.On("Refund", ctx, "pay_1", tc.wantRefund).Return("rfnd_1", nil)
			store.On("CancelBookingWithVersion", ctx, "bk-1", int64(2), mock.MatchedBy(func(c models.Cancellation) bool {
				return c.RefundAmount == tc.wantRefund
			}), tc.wantPayState).Return(nil)

			cancelled, err := svc.Cancel(ctx, "bk-1", 100, "plans changed")
			require.NoError(t, err)
			assert.Equal(t, models.StatusCancelled, cancelled.Status)
			assert.Equal(t, tc.wantRefund, cancelled.Cancellation.RefundAmount)
			store.AssertExpectations(t)
			gateway.AssertExpectations(t)
		})
	}
}

func TestCancelWindowClosed(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, new(mockGateway))
	ctx := context.Background()

	booking := confirmedBooking(time.Now().Add(time.Hour), 1000)
	store.On("GetBooking", ctx, "bk-1").Return(booking, nil)

	_, err := svc.Cancel(ctx, "bk-1", 100, "too late")
	assert.ErrorIs(t, err, ErrCancellationWindowClosed)
	store.AssertNotCalled(t, "CancelBookingWithVersion")
}

func TestCancelTerminalBooking(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, new(mockGateway))
	ctx := context.Background()

	booking := confirmedBooking(time.Now().Add(48*time.Hour), 1000)
	booking.Status = models.StatusCompleted
	store.On("GetBooking", ctx, "bk-1").Return(booking, nil)

	_, err := svc.Cancel(ctx, "bk-1", 100, "oops")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelRefundFailure(t *testing.T) {
	store := new(mockStore)
	gateway := new(mockGateway)
	svc := newTestService(store, gateway)
	ctx := context.Background()

	booking := confirmedBooking(time.Now().Add(48*time.Hour), 1000)
	store.On("GetBooking", ctx, "bk-1").Return(booking, nil)
	// The cancellation claims the version with the owed amount first.
	store.On("CancelBookingWithVersion", ctx, "bk-1", int64(2), mock.MatchedBy(func(c models.Cancellation) bool {
		return c.RefundAmount == 1000
	}), models.PaymentRefunded).Return(nil)
	gateway.On("Refund", ctx, "pay_1", 1000.0).Return("", assert.AnError)
	// After the gateway declines the payment record drops to zero refund
	// while the cancellation keeps the owed amount.
	store.On("UpdateBookingPaymentWithVersion", ctx, "bk-1", int64(3), models.StatusCancelled, mock.MatchedBy(func(p models.Payment) bool {
		return p.RefundAmount == 0 && p.RefundedAt == nil && p.Status == models.PaymentCompleted
	})).Return(nil)

	cancelled, err := svc.Cancel(ctx, "bk-1", 100, "refund broken")
	assert.ErrorIs(t, err, ErrRefundFailed)
	require.NotNil(t, cancelled)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, 1000.0, cancelled.Cancellation.RefundAmount)
	assert.Equal(t, 0.0, cancelled.Payment.RefundAmount)
	store.AssertExpectations(t)
}

func TestCancelConcurrentSingleRefund(t *testing.T) {
	store := new(mockStore)
	gateway := new(mockGateway)
	svc := newTestService(store, gateway)
	ctx := context.Background()

	// Both callers read the same version-2 snapshot; only the first claim
	// commits, so the gateway must be asked to refund exactly once.
	first := confirmedBooking(time.Now().Add(48*time.Hour), 1000)
	second := confirmedBooking(time.Now().Add(48*time.Hour), 1000)
	store.On("GetBooking", ctx, "bk-1").Return(first, nil).Once()
	store.On("GetBooking", ctx, "bk-1").Return(second, nil).Once()
	store.On("CancelBookingWithVersion", ctx, "bk-1", int64(2), mock.Anything, models.PaymentRefunded).
		Return(nil).Once()
	store.On("CancelBookingWithVersion", ctx, "bk-1", int64(2), mock.Anything, models.PaymentRefunded).
		Return(database.ErrConcurrentModification).Once()
	gateway.On("Refund", ctx, "pay_1", 1000.0).Return("rfnd_1", nil)

	_, err := svc.Cancel(ctx, "bk-1", 100, "first")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, "bk-1", 101, "second")
	assert.ErrorIs(t, err, database.ErrConcurrentModification)

	gateway.AssertNumberOfCalls(t, "Refund", 1)
	store.AssertExpectations(t)
}

func TestCancelUnpaidNoRefundCall(t *testing.T) {
	store := new(mockStore)
	gateway := new(mockGateway)
	svc := newTestService(store, gateway)
	ctx := context.Background()

	booking := confirmedBooking(time.Now().Add(48*time.Hour), 1000)
	booking.Status = models.StatusPending
	booking.Payment.Status = models.PaymentPending
	booking.Payment.PaidAmount = 0
	store.On("GetBooking", ctx, "bk-1").Return(booking, nil)
	store.On("CancelBookingWithVersion", ctx, "bk-1", int64(2), mock.Anything, models.PaymentPending).Return(nil)

	_, err := svc.Cancel(ctx, "bk-1", 100, "never paid")
	require.NoError(t, err)
	gateway.AssertNotCalled(t, "Refund")
}

func TestMarkNoShow(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, new(mockGateway))
	ctx := context.Background()

	booking := confirmedBooking(time.Now().Add(-time.Hour), 500)
	store.On("GetBooking", ctx, "bk-1").Return(booking, nil)
	store.On("UpdateBookingStatusWithVersion", ctx, "bk-1", int64(2), models.StatusNoShow).Return(nil)

	updated, err := svc.MarkNoShow(ctx, "bk-1", 200)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoShow, updated.Status)
}

func TestCompleteExpired(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, new(mockGateway))
	ctx := context.Background()

	first := confirmedBooking(time.Now().Add(-26*time.Hour), 500)
	second := confirmedBooking(time.Now().Add(-25*time.Hour), 500)
	second.ID = "bk-2"
	second.Version = 5

	store.On("ListExpiredConfirmed", ctx, mock.AnythingOfType("time.Time")).Return([]*models.Booking{first, second}, nil)
	store.On("UpdateBookingStatusWithVersion", ctx, "bk-1", int64(2), models.StatusCompleted).Return(nil)
	// One stuck row does not stall the sweep.
	store.On("UpdateBookingStatusWithVersion", ctx, "bk-2", int64(5), models.StatusCompleted).Return(database.ErrConcurrentModification)

	completed, err := svc.CompleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	store.AssertExpectations(t)
}

func TestAvailableSlots(t *testing.T) {
	store := new(mockStore)
	svc := newTestService(store, new(mockGateway))
	ctx := context.Background()

	date := time.Now().AddDate(0, 0, 7)
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	busy := &models.Booking{
		ID:     "busy-1",
		Status: models.StatusConfirmed,
		Slot:   models.TimeSlot{StartTime: "10:00", EndTime: "11:00"},
	}

	store.On("GetCourt", int64(10)).Return(testCourt(), nil)
	store.On("GetFacility", int64(1)).Return(testFacility(), nil)
	store.On("FindBookingsFor", ctx, int64(10), date, models.ActiveStatuses).Return([]*models.Booking{busy}, nil)

	slots, err := svc.AvailableSlots(ctx, 10, date)
	require.NoError(t, err)

	// Default hours 06:00-22:00 give 16 one-hour slots, one is taken.
	assert.Len(t, slots, 15)
	for _, slot := range slots {
		assert.NotEqual(t, "10:00", slot.StartTime)
		if slot.Peak {
			assert.Equal(t, 750.0, slot.Price)
		} else {
			assert.Equal(t, 500.0, slot.Price)
		}
	}
}

// End-to-end booking lifecycle against the real sqlite store: create with
// an online payment, confirm, then cancel a day ahead for a full refund.
func TestBookingLifecycle(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(t.TempDir()+"/lifecycle.db", &logger)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SyncCatalog(
		[]*models.Facility{{ID: 1, Name: "Arena One", Peak: models.PeakPricing{Start: "18:00", End: "21:00", Multiplier: 1.5}}},
		[]*models.Court{{ID: 10, FacilityID: 1, Name: "Court A", Sport: "badminton", HourlyRate: 500, IsActive: true}},
	))

	gateway := new(mockGateway)
	svc := NewBookingService(db, nil, gateway, nil, nil, 90, 2*time.Minute, &logger)
	ctx := context.Background()

	date := time.Now().AddDate(0, 0, 7)
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	gateway.On("CreateOrder", ctx, 750.0, "INR", mock.Anything, mock.Anything).
		Return(&domain.PaymentOrder{ID: "order_lc", Amount: 750, Currency: "INR"}, nil)

	booking, order, err := svc.CreateBooking(ctx, CreateBookingRequest{
		UserID:        100,
		CourtID:       10,
		Date:          date,
		StartTime:     "18:00",
		EndTime:       "19:00",
		PaymentMethod: models.MethodRazorpay,
	})
	require.NoError(t, err)
	require.NotNil(t, order)

	// The slot is now gone from availability.
	slots, err := svc.AvailableSlots(ctx, 10, date)
	require.NoError(t, err)
	for _, slot := range slots {
		assert.NotEqual(t, "18:00", slot.StartTime)
	}

	// A second booking for the same window conflicts.
	_, _, err = svc.CreateBooking(ctx, CreateBookingRequest{
		UserID:        101,
		CourtID:       10,
		Date:          date,
		StartTime:     "18:00",
		EndTime:       "19:00",
		PaymentMethod: models.MethodCash,
	})
	assert.ErrorIs(t, err, availability.ErrBookingConflict)

	gateway.On("Verify", ctx, "order_lc", "pay_lc", "sig").Return(true, nil)
	confirmed, err := svc.ConfirmPayment(ctx, booking.ID, "pay_lc", "sig")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)

	gateway.On("Refund", ctx, "pay_lc", 750.0).Return("rfnd_lc", nil)
	cancelled, err := svc.Cancel(ctx, booking.ID, 100, "schedule change")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, 750.0, cancelled.Cancellation.RefundAmount)

	// The window opens back up after cancellation.
	_, _, err = svc.CreateBooking(ctx, CreateBookingRequest{
		UserID:        101,
		CourtID:       10,
		Date:          date,
		StartTime:     "18:00",
		EndTime:       "19:00",
		PaymentMethod: models.MethodCash,
	})
	assert.NoError(t, err)
}
