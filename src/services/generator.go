package services

import (
	"context"
	"fmt"
	"strings"
)

// Generator produces text for the generation endpoint
type Generator interface {
	Generate(ctx context.Context, text string) (string, error)
}

// EchoGenerator is a stand-in that reflects the input back
type EchoGenerator struct{}

// NewEchoGenerator creates an echo generator
func NewEchoGenerator() *EchoGenerator {
	return &EchoGenerator{}
}

// Generate implements Generator
func (g *EchoGenerator) Generate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("generation cancelled: %w", err)
	}
	return fmt.Sprintf("Input text: %s\n\nThe generator response will appear here.", text), nil
}
