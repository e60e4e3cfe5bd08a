package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quickcourt/internal/availability"
	"quickcourt/internal/config"
	"quickcourt/internal/database"
	"quickcourt/internal/export"
	"quickcourt/internal/metrics"
	"quickcourt/internal/models"
	"quickcourt/internal/service"
	"quickcourt/internal/timeslot"
)

// HTTPServer exposes the booking API.
type HTTPServer struct {
	cfg      config.APIConfig
	bookings *service.BookingService
	db       *database.DB
	exporter *export.Exporter
	server   *http.Server
	auth     *HTTPAuth
}

func NewHTTPServer(cfg config.APIConfig, bookings *service.BookingService, db *database.DB, exporter *export.Exporter) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, bookings: bookings, db: db, exporter: exporter}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/bookings/available-slots/", srv.handleAvailableSlots)
	mux.HandleFunc("/api/v1/bookings/export", srv.handleExport)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBooking)
	mux.HandleFunc("/api/v1/courts", srv.handleCourts)
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	handler := loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	log.Printf("HTTP API listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the configured handler, for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

type createBookingRequest struct {
	UserID        int64  `json:"user_id"`
	CourtID       int64  `json:"court_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	PaymentMethod string `json:"payment_method"`
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createBooking(w, r)
	case http.MethodGet:
		s.listUserBookings(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_create")

	var body createBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(body.Date))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	if body.PaymentMethod == "" {
		body.PaymentMethod = models.MethodRazorpay
	}

	booking, order, err := s.bookings.CreateBooking(r.Context(), service.CreateBookingRequest{
		UserID:        body.UserID,
		CourtID:       body.CourtID,
		Date:          date,
		StartTime:     body.StartTime,
		EndTime:       body.EndTime,
		PaymentMethod: body.PaymentMethod,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := map[string]any{"booking": booking}
	if order != nil {
		resp["payment_order"] = map[string]any{
			"id":       order.ID,
			"amount":   order.Amount,
			"currency": order.Currency,
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *HTTPServer) listUserBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_list")

	userID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("user")), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "user is required")
		return
	}

	bookings, err := s.bookings.GetUserBookings(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleAvailableSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("available_slots")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/v1/bookings/available-slots/"
	rawID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, prefix))
	courtID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || courtID <= 0 {
		writeError(w, http.StatusBadRequest, "court id is required")
		return
	}

	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	slots, err := s.bookings.AvailableSlots(r.Context(), courtID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if slots == nil {
		// Closed days respond with an empty list, not an error.
		slots = []availability.Slot{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"court_id": courtID,
		"date":     dateStr,
		"slots":    slots,
	})
}

// handleBooking routes /api/v1/bookings/{id}[...]: GET by id, status
// updates and payment confirmation.
func (s *HTTPServer) handleBooking(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/bookings/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	id := parts[0]
	if id == "" {
		writeError(w, http.StatusBadRequest, "booking id is required")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.getBooking(w, r, id)
	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPut:
		s.updateStatus(w, r, id)
	case len(parts) == 2 && parts[1] == "confirm-payment" && r.Method == http.MethodPost:
		s.confirmPayment(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) getBooking(w http.ResponseWriter, r *http.Request, id string) {
	metrics.IncHTTP("bookings_get")
	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": booking})
}

type statusUpdateRequest struct {
	Status  string `json:"status"`
	ActorID int64  `json:"actor_id"`
	Reason  string `json:"reason"`
}

func (s *HTTPServer) updateStatus(w http.ResponseWriter, r *http.Request, id string) {
	metrics.IncHTTP("bookings_status")

	var body statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var booking *models.Booking
	var err error
	switch body.Status {
	case models.StatusCancelled:
		reason := body.Reason
		if reason == "" {
			reason = "user requested cancellation"
		}
		booking, err = s.bookings.Cancel(r.Context(), id, body.ActorID, reason)
	case models.StatusNoShow:
		booking, err = s.bookings.MarkNoShow(r.Context(), id, body.ActorID)
	case models.StatusCompleted:
		if err = s.bookings.Complete(r.Context(), id); err == nil {
			booking, err = s.bookings.GetBooking(r.Context(), id)
		}
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported status: %s", body.Status))
		return
	}
	if err != nil && !errors.Is(err, service.ErrRefundFailed) {
		writeServiceError(w, err)
		return
	}

	resp := map[string]any{"booking": booking}
	if errors.Is(err, service.ErrRefundFailed) {
		// Cancellation happened but the refund did not; surface both.
		resp["warning"] = service.ErrRefundFailed.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

type confirmPaymentRequest struct {
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

func (s *HTTPServer) confirmPayment(w http.ResponseWriter, r *http.Request, id string) {
	metrics.IncHTTP("bookings_confirm_payment")

	var body confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.bookings.ConfirmPayment(r.Context(), id, body.PaymentID, body.Signature)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": booking})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_export")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	facilityID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("facility")), 10, 64)
	if err != nil || facilityID <= 0 {
		writeError(w, http.StatusBadRequest, "facility is required")
		return
	}

	from, err := time.Parse("2006-01-02", strings.TrimSpace(r.URL.Query().Get("from")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", strings.TrimSpace(r.URL.Query().Get("to")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not precede from")
		return
	}

	facility, err := s.db.GetFacility(facilityID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	bookings, err := s.bookings.GetFacilityBookings(r.Context(), facilityID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	courts := make(map[int64]*models.Court)
	for _, court := range s.db.ListCourts(facilityID) {
		courts[court.ID] = court
	}

	path, err := s.exporter.FacilityReport(facility, courts, bookings, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path[strings.LastIndex(path, "/")+1:]))
	http.ServeFile(w, r, path)
}

func (s *HTTPServer) handleCourts(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("courts")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var facilityID int64
	if raw := strings.TrimSpace(r.URL.Query().Get("facility")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid facility id")
			return
		}
		facilityID = id
	}

	writeJSON(w, http.StatusOK, map[string]any{"courts": s.db.ListCourts(facilityID)})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps domain errors onto HTTP status codes. The JSON
// envelope always names the reason, including the conflicting booking id
// on slot conflicts.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, database.ErrBookingNotFound),
		errors.Is(err, database.ErrCourtNotFound),
		errors.Is(err, database.ErrFacilityNotFound):
		status = http.StatusNotFound
	case errors.Is(err, database.ErrSlotConflict),
		errors.Is(err, availability.ErrBookingConflict),
		errors.Is(err, service.ErrSlotHeld),
		errors.Is(err, database.ErrConcurrentModification):
		status = http.StatusConflict
	case errors.Is(err, availability.ErrCourtInactive),
		errors.Is(err, availability.ErrFacilityClosed),
		errors.Is(err, availability.ErrOutsideOperatingHours),
		errors.Is(err, availability.ErrMaintenanceConflict),
		errors.Is(err, service.ErrPastDate),
		errors.Is(err, service.ErrDateTooFar),
		errors.Is(err, service.ErrDurationTooShort),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, timeslot.ErrInvalidTimeFormat),
		errors.Is(err, timeslot.ErrInvalidRange):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrCancellationWindowClosed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrPaymentFailed):
		status = http.StatusPaymentRequired
	}
	writeError(w, status, err.Error())
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)
		log.Printf("http method=%s path=%s status=%d dur=%s", r.Method, r.URL.Path, recorder.status, dur)
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
