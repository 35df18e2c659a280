package services

import (
	"errors"
	"fmt"
)

// Sentinel errors for explicit error handling
// These errors allow callers to distinguish between different failure modes
// using errors.Is() instead of string matching

var (
	// ErrStoreUnavailable indicates the store could not be reached, rejected the
	// statement, or did not answer before the per-call timeout
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound indicates no key matched the given id
	ErrNotFound = errors.New("key not found")

	// ErrDuplicateKey indicates a freshly generated key collided with an existing one twice
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrMultipleMatches indicates more than one row shares a key value
	ErrMultipleMatches = errors.New("multiple keys match")

	// ErrInvalidInput indicates a malformed argument or a malformed store row
	ErrInvalidInput = errors.New("invalid input")
)

// ErrMalformedRow marks a store row that could not be decoded. It is an ErrInvalidInput.
var ErrMalformedRow = fmt.Errorf("%w: malformed row", ErrInvalidInput)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrStoreUnavailable, "store_unavailable"},
	{ErrNotFound, "not_found"},
	{ErrDuplicateKey, "duplicate_key"},
	{ErrMultipleMatches, "multiple_matches"},
	{ErrInvalidInput, "invalid_input"},
}

// ErrorCode returns the wire code for err, or "internal" for errors outside the taxonomy
func ErrorCode(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
