package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/apikeys-dashboard/src/middleware"
	"github.com/khabaroff/apikeys-dashboard/src/services"
)

// GenerateHandler serves the text generation endpoint
type GenerateHandler struct {
	generator services.Generator
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(generator services.Generator) *GenerateHandler {
	return &GenerateHandler{
		generator: generator,
	}
}

// GenerateRequest is the body of POST /api/generate
type GenerateRequest struct {
	Text string `json:"text"`
}

// HandleGenerate handles POST /api/generate
func (gh *GenerateHandler) HandleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(c, "text is required")
		return
	}

	result, err := gh.generator.Generate(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, "generate", err)
		return
	}

	logger := middleware.RequestLogger(c, "generate")
	event := logger.Debug().Int("input_length", len(req.Text))
	if key := middleware.GetAPIKey(c); key != nil {
		event = event.Str("key_id", key.ID.String())
	}
	event.Msg("Generated text")

	c.JSON(http.StatusOK, gin.H{
		"result": result,
	})
}
