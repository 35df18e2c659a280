package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/apikeys-dashboard/src/repositories"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("%w: select: timeout", ErrStoreUnavailable), "store_unavailable"},
		{fmt.Errorf("%w: abc", ErrNotFound), "not_found"},
		{ErrDuplicateKey, "duplicate_key"},
		{fmt.Errorf("%w: 2 rows for one key", ErrMultipleMatches), "multiple_matches"},
		{fmt.Errorf("%w: key is required", ErrInvalidInput), "invalid_input"},
		{fmt.Errorf("%w: missing column id", ErrMalformedRow), "invalid_input"},
		{errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, ErrorCode(tt.err), "%v", tt.err)
	}
}

func TestDecodeAPIKey_MalformedRowIsInvalidInput(t *testing.T) {
	row := repositories.Row{
		"id": "not-a-uuid", "name": "x", "key": "ssg_x", "type": "dev",
		"created_at": "2026-01-01 00:00:00.000000000", "last_used_at": nil, "is_active": true,
	}

	_, err := decodeAPIKey(row)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRow), "got %v", err)
	assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
}
