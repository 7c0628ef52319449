package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// originAllowed reports whether the request origin is in the allow-list.
// Requests without an Origin header are allowed.
func (rm *RouteManager) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range rm.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// corsMiddleware handles CORS headers
func (rm *RouteManager) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check if origin is allowed
		if origin := r.Header.Get("Origin"); origin != "" {
			if rm.originAllowed(r) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			} else {
				logrus.Warnf("Origin '%s' is not within allowed origins: %s", origin, strings.Join(rm.allowedOrigins, ", "))
			}
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs every request at debug level
func (rm *RouteManager) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("Request handled")
	})
}
