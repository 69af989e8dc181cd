package http

import (
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/williamchen0301-sh/my-weather-portfolio/internal/observability"
)

// NewRouter wires the web front-end routes and middleware.
func NewRouter(h *Handler, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/", h.GetIndex).Methods("GET")
	router.HandleFunc("/state", h.GetState).Methods("GET")
	router.HandleFunc("/lookup", h.PostLookup).Methods("POST")
	router.HandleFunc("/dismiss", h.PostDismiss).Methods("POST")
	router.HandleFunc("/health", h.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())
	return router
}
