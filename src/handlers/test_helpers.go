package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/apikeys-dashboard/src/database"
	"github.com/khabaroff/apikeys-dashboard/src/repositories"
	"github.com/khabaroff/apikeys-dashboard/src/services"
)

// Test helpers for handler tests

// createTestContext creates a test Gin context with recorder
func createTestContext() (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return w, c
}

// jsonRequest builds a request with a JSON body; a nil body sends none
func jsonRequest(method, path string, body interface{}) *http.Request {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, _ := json.Marshal(b)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// newTestRegistry returns a registry over a fresh in-memory SQLite store
func newTestRegistry(t *testing.T) (*services.KeyRegistry, *repositories.SQLiteStore) {
	t.Helper()
	store := repositories.NewSQLiteStore(database.NewTestSQLite(t))
	return services.NewKeyRegistry(store), store
}

// decodeBody unmarshals the recorded response into a map
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v (%s)", err, w.Body.String())
	}
	return response
}

// assertStatusCode checks if response status code matches expected
func assertStatusCode(t *testing.T, w *httptest.ResponseRecorder, expectedCode int) {
	t.Helper()
	if w.Code != expectedCode {
		t.Errorf("expected status %d, got %d: %s", expectedCode, w.Code, w.Body.String())
	}
}

// assertJSONError checks if response contains expected error code
func assertJSONError(t *testing.T, w *httptest.ResponseRecorder, expectedCode string) {
	t.Helper()
	response := decodeBody(t, w)
	if response["code"] != expectedCode {
		t.Errorf("expected code '%s', got '%v' (%v)", expectedCode, response["code"], response["error"])
	}
	if msg, _ := response["error"].(string); msg == "" {
		t.Error("expected non-empty error message")
	}
}

// stubPinger reports a fixed ping result
type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error {
	return p.err
}
