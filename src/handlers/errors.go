package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/apikeys-dashboard/src/middleware"
	"github.com/khabaroff/apikeys-dashboard/src/services"
)

// errorStatus maps wire codes from services.ErrorCode to HTTP statuses
var errorStatus = map[string]int{
	"invalid_input":     http.StatusBadRequest,
	"not_found":         http.StatusNotFound,
	"store_unavailable": http.StatusInternalServerError,
	"duplicate_key":     http.StatusInternalServerError,
	"multiple_matches":  http.StatusInternalServerError,
}

// errorMessages are the client-facing messages. invalid_input has none:
// argument errors keep their detail.
var errorMessages = map[string]string{
	"not_found":         "key not found",
	"store_unavailable": "key store unavailable",
	"duplicate_key":     "could not generate a unique key",
	"multiple_matches":  "key matches more than one record",
	"internal":          "internal server error",
}

const malformedRowMessage = "stored key record is malformed"

// statusForError returns the HTTP status, code and client message for err.
// Store contents and server-side details never reach the client.
func statusForError(err error) (int, string, string) {
	code := services.ErrorCode(err)

	status, ok := errorStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	switch {
	case errors.Is(err, services.ErrMalformedRow):
		return status, code, malformedRowMessage
	case code == "invalid_input":
		return status, code, err.Error()
	default:
		return status, code, errorMessages[code]
	}
}

// respondError writes the {"error", "code"} body for err and logs server-side failures
func respondError(c *gin.Context, component string, err error) {
	status, code, msg := statusForError(err)

	if status >= http.StatusInternalServerError || errors.Is(err, services.ErrMalformedRow) {
		logger := middleware.RequestLogger(c, component)
		logger.Error().Err(err).Str("code", code).Msg("Request failed")
	}
	_ = c.Error(err)

	c.JSON(status, gin.H{
		"error": msg,
		"code":  code,
	})
}

// badRequest writes a 400 for malformed request bodies
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": msg,
		"code":  "invalid_input",
	})
}
