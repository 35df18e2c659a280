package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/apikeys-dashboard/src/models"
	"github.com/khabaroff/apikeys-dashboard/src/repositories"
	"github.com/khabaroff/apikeys-dashboard/src/repositories/mock"
	"github.com/khabaroff/apikeys-dashboard/src/services"
)

func failingRegistry() *services.KeyRegistry {
	store := mock.NewStore()
	store.SelectFunc = func(ctx context.Context, table string, columns []string, filter repositories.Filter, order ...repositories.OrderBy) ([]repositories.Row, error) {
		return nil, repositories.ErrUnavailable
	}
	store.InsertFunc = func(ctx context.Context, table string, row repositories.Row) (repositories.Row, error) {
		return nil, repositories.ErrUnavailable
	}
	store.UpdateFunc = func(ctx context.Context, table string, patch repositories.Row, filter repositories.Filter) (int64, error) {
		return 0, repositories.ErrUnavailable
	}
	return services.NewKeyRegistry(store)
}

func TestHandleGenerate_Defaults(t *testing.T) {
	registry, _ := newTestRegistry(t)
	handler := NewKeysHandler(registry)

	w, c := createTestContext()
	c.Request = jsonRequest(http.MethodPost, "/keys", nil)

	handler.HandleGenerate(c)

	assertStatusCode(t, w, http.StatusCreated)
	response := decodeBody(t, w)
	assert.Equal(t, "Default", response["name"])
	assert.Equal(t, "dev", response["type"])
	assert.Equal(t, true, response["is_active"])
	assert.Nil(t, response["last_used_at"])

	key, _ := response["key"].(string)
	assert.True(t, strings.HasPrefix(key, models.KeyPrefix), "unexpected key %q", key)
	_, err := uuid.Parse(response["id"].(string))
	assert.NoError(t, err)
}

func TestHandleGenerate_NameAndType(t *testing.T) {
	registry, _ := newTestRegistry(t)
	handler := NewKeysHandler(registry)

	w, c := createTestContext()
	c.Request = jsonRequest(http.MethodPost, "/keys", gin.H{"name": "ci", "type": "prod"})

	handler.HandleGenerate(c)

	assertStatusCode(t, w, http.StatusCreated)
	response := decodeBody(t, w)
	assert.Equal(t, "ci", response["name"])
	assert.Equal(t, "prod", response["type"])
}

func TestHandleGenerate_IgnoresClientSuppliedKey(t *testing.T) {
	registry, _ := newTestRegistry(t)
	handler := NewKeysHandler(registry)

	w, c := createTestContext()
	c.Request = jsonRequest(http.MethodPost, "/keys", gin.H{"name": "x", "key": "ssg_chosen_by_client"})

	handler.HandleGenerate(c)

	assertStatusCode(t, w, http.StatusCreated)
	assert.NotEqual(t, "ssg_chosen_by_client", decodeBody(t, w)["key"])
}

func TestHandleGenerate_InvalidType(t *testing.T) {
	registry, _ := newTestRegistry(t)
	handler := NewKeysHandler(registry)

	w, c := createTestContext()
	c.Request = jsonRequest(http.MethodPost, "/keys", gin.H{"type": "staging"})

	handler.HandleGenerate(c)

	assertStatusCode(t, w, http.StatusBadRequest)
	assertJSONError(t, w, "invalid_input")
}

func TestHandleGenerate_MalformedBody(t *testing.T) {
	registry, _ := newTestRegistry(t)
	handler := NewKeysHandler(registry)

	w, c := createTestContext()
	c.Request = jsonRequest(http.MethodPost, "/keys", "{not json")

	handler.HandleGenerate(c)

	assertStatusCode(t, w, http.StatusBadRequest)
	assertJSONError(t, w, "invalid_input")
}

func TestHandleGenerate_StoreUnavailable(t *testing.T) {
	handler := NewKeysHandler(failingRegistry())

	w, c := createTestContext()
	c.Request = jsonRequest(http.MethodPost, "/keys", gin.H{"name": "x"})

	handler.HandleGenerate(c)

	assertStatusCode(t, w, http.StatusInternalServerError)
	assertJSONError(t, w, "store_unavailable")
	assert.NotContains(t, w.Body.String(), "unavailable: insert")
}

func TestHandleList(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	first, err := registry.Generate(ctx, "first", models.KeyTypeDev)
	require.NoError(t, err)
	second, err := registry.Generate(ctx, "second", models.KeyTypeProd)
	require.NoError(t, err)
	require.NoError(t, registry.Deactivate(ctx, first.ID.String()))

	handler := NewKeysHandler(registry)

	tests := []struct {
		name  string
		query string
		ids   []string
	}{
		{"default is active only", "/keys", []string{second.ID.String()}},
		{"explicit active only", "/keys?active_only=true", []string{second.ID.String()}},
		{"all keys newest first", "/keys?active_only=false", []string{second.ID.String(), first.ID.String()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := createTestContext()
			c.Request = jsonRequest(http.MethodGet, tt.query, nil)

			handler.HandleList(c)

			assertStatusCode(t, w, http.StatusOK)
			response := decodeBody(t, w)
			assert.Equal(t, float64(len(tt.ids)), response["total"])

			keys, ok := response["keys"].([]interface{})
			require.True(t, ok)
			var got []string
			for _, k := range keys {
				got = append(got, k.(map[string]interface{})["id"].(string))
			}
			assert.Equal(t, tt.ids, got)
		})
	}
}

func TestHandleList_EmptyIsArray(t *testing.T) {
	registry, _ := newTestRegistry(t)
	handler := NewKeysHandler(registry)

	w, c := createTestContext()
	c.Request = jsonRequest(http.MethodGet, "/keys", nil)

	handler.HandleList(c)

	assertStatusCode(t, w, http.StatusOK)
	assert.JSONEq(t, `{"keys": [], "total": 0}`, w.Body.String())
}

func TestHandleList_InvalidActiveOnly(t *testing.T) {
	registry, _ := newTestRegistry(t)
	handler := NewKeysHandler(registry)

	w, c := createTestContext()
	c.Request = jsonRequest(http.MethodGet, "/keys?active_only=maybe", nil)

	handler.HandleList(c)

	assertStatusCode(t, w, http.StatusBadRequest)
	assertJSONError(t, w, "invalid_input")
}

func TestHandleList_StoreUnavailable(t *testing.T) {
	handler := NewKeysHandler(failingRegistry())

	w, c := createTestContext()
	c.Request = jsonRequest(http.MethodGet, "/keys", nil)

	handler.HandleList(c)

	assertStatusCode(t, w, http.StatusInternalServerError)
	assertJSONError(t, w, "store_unavailable")
}

func TestHandleDeactivate(t *testing.T) {
	registry, _ := newTestRegistry(t)
	key, err := registry.Generate(context.Background(), "doomed", models.KeyTypeDev)
	require.NoError(t, err)

	handler := NewKeysHandler(registry)

	tests := []struct {
		name   string
		id     string
		status int
		code   string
	}{
		{"existing key", key.ID.String(), http.StatusNoContent, ""},
		{"already inactive", key.ID.String(), http.StatusNoContent, ""},
		{"unknown id", uuid.NewString(), http.StatusNotFound, "not_found"},
		{"malformed id", "not-a-uuid", http.StatusBadRequest, "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := createTestContext()
			c.Request = jsonRequest(http.MethodDelete, "/keys/"+tt.id, nil)
			c.Params = gin.Params{{Key: "id", Value: tt.id}}

			handler.HandleDeactivate(c)

			assert.Equal(t, tt.status, c.Writer.Status(), w.Body.String())
			if tt.code != "" {
				assertJSONError(t, w, tt.code)
			}
		})
	}

	result, err := registry.Validate(context.Background(), key.Key)
	require.NoError(t, err)
	assert.Equal(t, models.ValidationInactive, result.Status)
}

func TestHandleValidate(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	active, err := registry.Generate(ctx, "active", models.KeyTypeDev)
	require.NoError(t, err)
	revoked, err := registry.Generate(ctx, "revoked", models.KeyTypeDev)
	require.NoError(t, err)
	require.NoError(t, registry.Deactivate(ctx, revoked.ID.String()))

	handler := NewKeysHandler(registry)

	tests := []struct {
		name    string
		key     string
		status  string
		wantKey bool
	}{
		{"active key", active.Key, "VALID", true},
		{"deactivated key", revoked.Key, "INACTIVE", true},
		{"unknown key", "ssg_nope", "INVALID", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := createTestContext()
			c.Request = jsonRequest(http.MethodPost, "/keys/validate", gin.H{"key": tt.key})

			handler.HandleValidate(c)

			assertStatusCode(t, w, http.StatusOK)
			response := decodeBody(t, w)
			assert.Equal(t, tt.status, response["status"])
			_, hasKey := response["key"]
			assert.Equal(t, tt.wantKey, hasKey)
		})
	}
}

func TestHandleValidate_MissingKey(t *testing.T) {
	registry, _ := newTestRegistry(t)
	handler := NewKeysHandler(registry)

	for _, body := range []interface{}{gin.H{}, gin.H{"key": ""}, "[]"} {
		w, c := createTestContext()
		c.Request = jsonRequest(http.MethodPost, "/keys/validate", body)

		handler.HandleValidate(c)

		assertStatusCode(t, w, http.StatusBadRequest)
		assertJSONError(t, w, "invalid_input")
	}
}

func TestHandleValidate_StoreUnavailable(t *testing.T) {
	handler := NewKeysHandler(failingRegistry())

	w, c := createTestContext()
	c.Request = jsonRequest(http.MethodPost, "/keys/validate", gin.H{"key": "ssg_x"})

	handler.HandleValidate(c)

	assertStatusCode(t, w, http.StatusInternalServerError)
	assertJSONError(t, w, "store_unavailable")
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
		{services.ErrNotFound, http.StatusNotFound, "not_found"},
		{services.ErrStoreUnavailable, http.StatusInternalServerError, "store_unavailable"},
		{services.ErrDuplicateKey, http.StatusInternalServerError, "duplicate_key"},
		{services.ErrMultipleMatches, http.StatusInternalServerError, "multiple_matches"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
		{fmt.Errorf("%w: column type has unexpected value x", services.ErrMalformedRow), http.StatusBadRequest, "invalid_input"},
	}

	for _, tt := range tests {
		wrapped := errors.Join(errors.New("context"), tt.err)
		status, code, msg := statusForError(wrapped)
		assert.Equal(t, tt.status, status, tt.code)
		assert.Equal(t, tt.code, code)
		assert.NotEmpty(t, msg)
		if status == http.StatusInternalServerError || errors.Is(tt.err, services.ErrMalformedRow) {
			assert.NotContains(t, msg, "context")
			assert.NotContains(t, msg, "unexpected value")
		}
	}
}

func TestHandleValidate_MalformedRowHidesStoredValues(t *testing.T) {
	store := mock.NewStore()
	store.SelectFunc = func(ctx context.Context, table string, columns []string, filter repositories.Filter, order ...repositories.OrderBy) ([]repositories.Row, error) {
		return []repositories.Row{{
			"id": uuid.NewString(), "name": "leaky", "key": "ssg_stored_secret", "type": "enterprise-secret-tier",
			"created_at": "2026-01-01 00:00:00.000000000", "last_used_at": nil, "is_active": true,
		}}, nil
	}
	handler := NewKeysHandler(services.NewKeyRegistry(store))

	w, c := createTestContext()
	c.Request = jsonRequest(http.MethodPost, "/keys/validate", gin.H{"key": "ssg_stored_secret"})

	handler.HandleValidate(c)

	assertStatusCode(t, w, http.StatusBadRequest)
	response := decodeBody(t, w)
	assert.Equal(t, "invalid_input", response["code"])
	assert.Equal(t, malformedRowMessage, response["error"])
	assert.NotContains(t, w.Body.String(), "enterprise-secret-tier")
}
