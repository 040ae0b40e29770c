package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/railbook/train-booking-system/internal/handlers"
)

// SetupRouter configures all API routes
func SetupRouter(h *handlers.Handler) *mux.Router {
	r := mux.NewRouter()

	r.Use(corsMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/trains/search", h.SearchTrains).Methods(http.MethodGet, http.MethodOptions)

	api.HandleFunc("/runs/{id}/availability", h.GetAvailability).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/runs/{id}/ws", h.WatchRun).Methods(http.MethodGet)

	api.HandleFunc("/bookings", h.CreateBooking).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/bookings/{id}", h.GetBooking).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/bookings/{id}", h.CancelBooking).Methods(http.MethodDelete, http.MethodOptions)
	api.HandleFunc("/bookings/{id}/confirm", h.ConfirmBooking).Methods(http.MethodPost, http.MethodOptions)

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
