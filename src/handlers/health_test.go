package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/khabaroff/apikeys-dashboard/src/database"
	"github.com/khabaroff/apikeys-dashboard/src/repositories"
)

func TestHandleHealth_Success(t *testing.T) {
	// Setup
	w, c := createTestContext()
	c.Request = jsonRequest(http.MethodGet, "/health", nil)

	store := repositories.NewSQLiteStore(database.NewTestSQLite(t))
	handler := NewHealthHandler(store, "sqlite")

	// Execute
	handler.HandleHealth(c)

	// Assert
	assertStatusCode(t, w, http.StatusOK)
	response := decodeBody(t, w)

	if response["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", response["status"])
	}
	if response["store"] != "connected" {
		t.Errorf("expected store 'connected', got %v", response["store"])
	}
	if response["driver"] != "sqlite" {
		t.Errorf("expected driver 'sqlite', got %v", response["driver"])
	}
	if _, ok := response["store_latency"]; !ok {
		t.Error("expected store_latency field")
	}
	if _, ok := response["uptime"]; !ok {
		t.Error("expected uptime field")
	}
}

func TestHandleHealth_StoreError(t *testing.T) {
	w, c := createTestContext()
	c.Request = jsonRequest(http.MethodGet, "/health", nil)

	handler := NewHealthHandler(stubPinger{err: errors.New("connection refused")}, "postgres")
	handler.HandleHealth(c)

	assertStatusCode(t, w, http.StatusServiceUnavailable)
	response := decodeBody(t, w)
	if response["status"] != "unhealthy" {
		t.Errorf("expected status 'unhealthy', got %v", response["status"])
	}
	if _, ok := response["error"]; ok {
		t.Error("store error details must not be exposed")
	}
}

func TestHandleReady(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		ready  bool
	}{
		{"store reachable", nil, http.StatusOK, true},
		{"store down", errors.New("down"), http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := createTestContext()
			c.Request = jsonRequest(http.MethodGet, "/ready", nil)

			NewHealthHandler(stubPinger{err: tt.err}, "sqlite").HandleReady(c)

			assertStatusCode(t, w, tt.status)
			if got := decodeBody(t, w)["ready"]; got != tt.ready {
				t.Errorf("expected ready %v, got %v", tt.ready, got)
			}
		})
	}
}

func TestHandleInfo(t *testing.T) {
	w, c := createTestContext()
	c.Request = jsonRequest(http.MethodGet, "/info", nil)

	NewHealthHandler(stubPinger{}, "sqlite").HandleInfo(c)

	assertStatusCode(t, w, http.StatusOK)
	response := decodeBody(t, w)
	if response["service"] != ServiceName {
		t.Errorf("expected service %q, got %v", ServiceName, response["service"])
	}
	if response["version"] != Version {
		t.Errorf("expected version %q, got %v", Version, response["version"])
	}
}
