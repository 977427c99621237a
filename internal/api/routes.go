package api

import (
	"github.com/gorilla/mux"
	"github.com/trogers1052/position-valuation/internal/metrics"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(metrics.Middleware)

	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/valuations", handler.CreateValuation).Methods("POST")
	api.HandleFunc("/valuations/{runID}", handler.GetValuation).Methods("GET")
	api.HandleFunc("/positions/{ticker}/latest", handler.GetLatestPosition).Methods("GET")

	return r
}
