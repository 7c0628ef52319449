package main

import (
	"encoding/json"
	"net/http"

	"github.com/sguter90/sensorcharts/pkg/api"
)

// healthHandler returns server health status
func (rm *RouteManager) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(api.HealthStatus{Status: "ok", Monitors: rm.service.Count()})
}
