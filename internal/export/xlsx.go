package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"quickcourt/internal/models"
)

// Exporter writes facility booking reports as xlsx files.
type Exporter struct {
	path   string
	logger *zerolog.Logger
}

func NewExporter(path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{path: path, logger: logger}
}

var reportHeaders = []string{
	"Booking ID", "Date", "Start", "End", "Court", "User ID",
	"Status", "Method", "Payment", "Total", "Refund",
}

// FacilityReport writes one row per booking for the period and returns
// the created file path.
func (e *Exporter) FacilityReport(facility *models.Facility, courts map[int64]*models.Court, bookings []*models.Booking, from, to time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Bookings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s: %s - %s",
		facility.Name, from.Format("02.01.2006"), to.Format("02.01.2006")))

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	lastCol, _ := excelize.ColumnNumberToName(len(reportHeaders))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, booking := range bookings {
		courtName := fmt.Sprintf("court %d", booking.CourtID)
		if court, ok := courts[booking.CourtID]; ok {
			courtName = court.Name
		}

		refund := 0.0
		if booking.Cancellation != nil {
			refund = booking.Cancellation.RefundAmount
		}

		row := []interface{}{
			booking.ID,
			booking.Date.Format("2006-01-02"),
			booking.Slot.StartTime,
			booking.Slot.EndTime,
			courtName,
			booking.UserID,
			booking.Status,
			booking.Payment.Method,
			booking.Payment.Status,
			booking.Pricing.TotalAmount,
			refund,
		}
		for j, value := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+3)
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", lastCol, 14)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("facility_%d_%s_to_%s.xlsx",
		facility.ID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel file created")
	return filePath, nil
}
