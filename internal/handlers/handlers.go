package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/railbook/train-booking-system/internal/database"
	"github.com/railbook/train-booking-system/internal/inventory"
	"github.com/railbook/train-booking-system/internal/routes"
	"github.com/railbook/train-booking-system/internal/service"
	"github.com/railbook/train-booking-system/internal/websocket"
)

// Handler contains HTTP handlers for the API
type Handler struct {
	bookingService service.BookingService
	hub            *websocket.Hub
	validate       *validator.Validate
}

// NewHandler creates a new Handler instance
func NewHandler(bookingService service.BookingService, hub *websocket.Hub) *Handler {
	return &Handler{
		bookingService: bookingService,
		hub:            hub,
		validate:       validator.New(),
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors onto HTTP statuses. Retryable
// conflicts get 409 so clients know to back off and retry; terminal
// client errors get 4xx.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound),
		errors.Is(err, inventory.ErrClassNotFound),
		errors.Is(err, routes.ErrUnknownRoute),
		errors.Is(err, routes.ErrUnknownStation):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, inventory.ErrInvalidRange),
		errors.Is(err, service.ErrUnknownClass),
		errors.Is(err, inventory.ErrUnknownBooking):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, inventory.ErrHoldExpired):
		respondError(w, http.StatusGone, err.Error())
	case errors.Is(err, inventory.ErrConcurrentModification):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, inventory.ErrStoreUnavailable):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// SearchTrains handles GET /api/trains/search?from=&to=&date=
func (h *Handler) SearchTrains(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		respondError(w, http.StatusBadRequest, "from and to stations are required")
		return
	}

	date, err := time.Parse("2006-01-02", q.Get("date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	options, err := h.bookingService.SearchTrains(r.Context(), from, to, date)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, options)
}

// GetAvailability handles GET /api/runs/{id}/availability?from=&to=&class=
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid run ID")
		return
	}

	q := r.URL.Query()
	fromOrder, err := strconv.Atoi(q.Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "from must be a station order")
		return
	}
	toOrder, err := strconv.Atoi(q.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "to must be a station order")
		return
	}
	class := inventory.CoachClass(q.Get("class"))
	if class == "" {
		respondError(w, http.StatusBadRequest, "class is required")
		return
	}

	avail, err := h.bookingService.GetAvailability(r.Context(), runID, class, fromOrder, toOrder)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, avail)
}

// CreateBooking handles POST /api/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := h.bookingService.CreateBooking(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, booking)
}

// GetBooking handles GET /api/bookings/{id}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	booking, err := h.bookingService.GetBooking(r.Context(), bookingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

// ConfirmBooking handles POST /api/bookings/{id}/confirm
func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	booking, err := h.bookingService.ConfirmBooking(r.Context(), bookingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

// CancelBooking handles DELETE /api/bookings/{id}
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	if err := h.bookingService.CancelBooking(r.Context(), bookingID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Booking cancelled"})
}

// WatchRun handles GET /api/runs/{id}/ws
func (h *Handler) WatchRun(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid run ID")
		return
	}
	h.hub.ServeWS(w, r, runID)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
