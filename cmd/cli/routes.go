package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sguter90/sensorcharts/pkg/monitor"
	"github.com/sguter90/sensorcharts/pkg/relay"
)

// RouteManager handles all API routes
type RouteManager struct {
	service        *monitor.Service
	hub            *relay.Hub
	allowedOrigins []string
	Router         *mux.Router
}

// NewRouteManager creates a new RouteManager instance
func NewRouteManager(service *monitor.Service, hub *relay.Hub, allowedOrigins []string) *RouteManager {
	return &RouteManager{
		service:        service,
		hub:            hub,
		allowedOrigins: allowedOrigins,
		Router:         mux.NewRouter(),
	}
}

// Setup configures all API routes
func (rm *RouteManager) Setup() {
	r := rm.Router
	r.Use(rm.corsMiddleware)
	r.Use(rm.loggingMiddleware)

	// Global OPTIONS handler - catches all preflight requests
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Health check
	r.HandleFunc("/health", rm.healthHandler).Methods("GET")

	// Streaming relay
	if rm.hub != nil {
		r.HandleFunc("/ws", rm.hub.ServeWS).Methods("GET")
	}

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()
	rm.setupAPIRoutes(api)
}

// setupAPIRoutes configures all API v1 routes
func (rm *RouteManager) setupAPIRoutes(api *mux.Router) {
	// Monitors
	api.HandleFunc("/monitors", rm.getMonitorsHandler).Methods("GET")
	api.HandleFunc("/monitors/{id}", rm.getMonitorHandler).Methods("GET")

	// Charts
	api.HandleFunc("/monitors/{id}/charts/{kind}", rm.getChartHandler).Methods("GET")
	api.HandleFunc("/monitors/{id}/charts/{kind}/clear", rm.clearChartHandler).Methods("POST")

	// Messages
	api.HandleFunc("/monitors/{id}/messages/{kind}", rm.getMessagesHandler).Methods("GET")
}
