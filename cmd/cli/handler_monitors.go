package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sguter90/sensorcharts/pkg/models"
	"github.com/sguter90/sensorcharts/pkg/monitor"
)

// getMonitorsHandler returns all running monitors
func (rm *RouteManager) getMonitorsHandler(w http.ResponseWriter, r *http.Request) {
	monitors := rm.service.All()
	infos := make([]models.MonitorInfo, len(monitors))
	for i, m := range monitors {
		infos[i] = m.Info()
	}

	writeJSON(w, http.StatusOK, infos)
}

// getMonitorHandler returns details for a specific monitor
func (rm *RouteManager) getMonitorHandler(w http.ResponseWriter, r *http.Request) {
	m, ok := rm.lookupMonitor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m.Info())
}

// getChartHandler returns the chart state of one monitor for one kind
// Query params:
//   - channel: 1-based channel slot (default: all)
//   - since: only points after this time (RFC3339 or Unix timestamp)
//   - limit: max points per series (default: 1000, max: 10000)
//   - order: sort order (asc/desc, default: asc)
func (rm *RouteManager) getChartHandler(w http.ResponseWriter, r *http.Request) {
	m, ok := rm.lookupMonitor(w, r)
	if !ok {
		return
	}

	params, err := parseChartQueryParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := params.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	chart, ok := m.Chart(params.Kind, params)
	if !ok {
		http.Error(w, "Measurement kind not charted by this monitor", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, chart)
}

// clearChartHandler resets the chart state of one monitor for one kind
func (rm *RouteManager) clearChartHandler(w http.ResponseWriter, r *http.Request) {
	m, ok := rm.lookupMonitor(w, r)
	if !ok {
		return
	}

	if !m.Clear(mux.Vars(r)["kind"]) {
		http.Error(w, "Measurement kind not charted by this monitor", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getMessagesHandler returns the recent annotated messages, most recent first
func (rm *RouteManager) getMessagesHandler(w http.ResponseWriter, r *http.Request) {
	m, ok := rm.lookupMonitor(w, r)
	if !ok {
		return
	}

	session, ok := m.Session(mux.Vars(r)["kind"])
	if !ok {
		http.Error(w, "Measurement kind not charted by this monitor", http.StatusNotFound)
		return
	}

	messages := session.RecentMessages()
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(messages) {
			messages = messages[:l]
		}
	}

	writeJSON(w, http.StatusOK, messages)
}

// lookupMonitor resolves the {id} route variable, writing the error response itself
func (rm *RouteManager) lookupMonitor(w http.ResponseWriter, r *http.Request) (*monitor.Monitor, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid monitor id format", http.StatusBadRequest)
		return nil, false
	}

	m, ok := rm.service.Get(id)
	if !ok {
		http.Error(w, "Monitor not found", http.StatusNotFound)
		return nil, false
	}
	return m, true
}

// parseChartQueryParams extracts and parses query parameters from the request
func parseChartQueryParams(r *http.Request) (models.ChartQueryParams, error) {
	params := models.ChartQueryParams{
		Kind:  mux.Vars(r)["kind"],
		Since: r.URL.Query().Get("since"),
		Limit: 1000,  // default
		Order: "asc", // default
	}

	if channelStr := r.URL.Query().Get("channel"); channelStr != "" {
		c, err := strconv.Atoi(channelStr)
		if err != nil {
			return params, fmt.Errorf("invalid channel: %s", channelStr)
		}
		params.Channel = c
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil {
			return params, fmt.Errorf("invalid limit: %s", limitStr)
		}
		params.Limit = l
	}

	if orderStr := r.URL.Query().Get("order"); orderStr != "" {
		params.Order = orderStr
	}

	return params, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
