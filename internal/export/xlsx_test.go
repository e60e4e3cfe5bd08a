package export

import (
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"quickcourt/internal/models"
)

func TestFacilityReport(t *testing.T) {
	logger := zerolog.New(io.Discard)
	exporter := NewExporter(t.TempDir(), &logger)

	facility := &models.Facility{ID: 1, Name: "Arena One"}
	courts := map[int64]*models.Court{
		10: {ID: 10, Name: "Court A"},
	}
	cancelledAt := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	bookings := []*models.Booking{
		{
			ID:      "bk-1",
			UserID:  100,
			CourtID: 10,
			Date:    time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
			Slot:    models.TimeSlot{StartTime: "18:00", EndTime: "19:00", DurationHours: 1},
			Pricing: models.Pricing{TotalAmount: 750, Currency: "INR"},
			Payment: models.Payment{Method: models.MethodRazorpay, Status: models.PaymentCompleted},
			Status:  models.StatusConfirmed,
		},
		{
			ID:      "bk-2",
			UserID:  101,
			CourtID: 99, // not in catalog, falls back to numeric name
			Date:    time.Date(2025, 9, 16, 0, 0, 0, 0, time.UTC),
			Slot:    models.TimeSlot{StartTime: "10:00", EndTime: "11:00", DurationHours: 1},
			Pricing: models.Pricing{TotalAmount: 500, Currency: "INR"},
			Payment: models.Payment{Method: models.MethodCash, Status: models.PaymentRefunded},
			Status:  models.StatusCancelled,
			Cancellation: &models.Cancellation{
				CancelledAt:  cancelledAt,
				RefundAmount: 500,
			},
		},
	}

	from := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 9, 21, 0, 0, 0, 0, time.UTC)

	path, err := exporter.FacilityReport(facility, courts, bookings, from, to)
	require.NoError(t, err)
	assert.Contains(t, path, "facility_1_2025-09-15_to_2025-09-21.xlsx")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue("Bookings", "A1")
	require.NoError(t, err)
	assert.Contains(t, title, "Arena One")

	id, err := f.GetCellValue("Bookings", "A3")
	require.NoError(t, err)
	assert.Equal(t, "bk-1", id)

	court, err := f.GetCellValue("Bookings", "E3")
	require.NoError(t, err)
	assert.Equal(t, "Court A", court)

	fallback, err := f.GetCellValue("Bookings", "E4")
	require.NoError(t, err)
	assert.Equal(t, "court 99", fallback)

	refund, err := f.GetCellValue("Bookings", "K4")
	require.NoError(t, err)
	assert.Equal(t, "500", refund)
}
