package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/apikeys-dashboard/src/models"
	"github.com/khabaroff/apikeys-dashboard/src/services"
)

// KeyManager is the registry surface the key handlers need
type KeyManager interface {
	Generate(ctx context.Context, name string, keyType models.KeyType) (*models.APIKey, error)
	List(ctx context.Context, activeOnly bool) ([]models.APIKey, error)
	Deactivate(ctx context.Context, id string) error
	Validate(ctx context.Context, key string) (*models.ValidationResult, error)
}

var _ KeyManager = (*services.KeyRegistry)(nil)

// KeysHandler handles API key management requests
type KeysHandler struct {
	keys KeyManager
}

// NewKeysHandler creates a new keys handler
func NewKeysHandler(keys KeyManager) *KeysHandler {
	return &KeysHandler{
		keys: keys,
	}
}

// GenerateKeyRequest is the optional body of POST /keys.
// Secrets are always generated server-side.
type GenerateKeyRequest struct {
	Name string         `json:"name"`
	Type models.KeyType `json:"type"`
}

// ValidateKeyRequest is the body of POST /keys/validate
type ValidateKeyRequest struct {
	Key string `json:"key"`
}

// HandleGenerate handles POST /keys
func (kh *KeysHandler) HandleGenerate(c *gin.Context) {
	var req GenerateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return
	}

	key, err := kh.keys.Generate(c.Request.Context(), req.Name, req.Type)
	if err != nil {
		respondError(c, "keys", err)
		return
	}

	c.JSON(http.StatusCreated, key)
}

// HandleList handles GET /keys
func (kh *KeysHandler) HandleList(c *gin.Context) {
	activeOnly := true
	if raw := c.Query("active_only"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "active_only must be a boolean")
			return
		}
		activeOnly = parsed
	}

	keys, err := kh.keys.List(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, "keys", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"keys":  keys,
		"total": len(keys),
	})
}

// HandleDeactivate handles DELETE /keys/:id
func (kh *KeysHandler) HandleDeactivate(c *gin.Context) {
	if err := kh.keys.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, "keys", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleValidate handles POST /keys/validate
func (kh *KeysHandler) HandleValidate(c *gin.Context) {
	var req ValidateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Key == "" {
		badRequest(c, "key is required")
		return
	}

	result, err := kh.keys.Validate(c.Request.Context(), req.Key)
	if err != nil {
		respondError(c, "keys", err)
		return
	}

	c.JSON(http.StatusOK, result)
}
