package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKey represents an issued API key
type APIKey struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Key        string     `json:"key"`
	Type       KeyType    `json:"type"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	IsActive   bool       `json:"is_active"`
}

// Masked returns the key shortened for display, e.g. "ssg_1a2b3c...9f0e"
func (k *APIKey) Masked() string {
	return MaskKey(k.Key)
}

// MaskKey keeps the first 10 and last 4 characters of a secret
func MaskKey(key string) string {
	if len(key) <= 14 {
		return key
	}
	return key[:10] + "..." + key[len(key)-4:]
}

// ValidationResult is returned by key validation
type ValidationResult struct {
	Status ValidationStatus `json:"status"`
	Key    *APIKey          `json:"key,omitempty"`
}

// IsValid returns true if the key is usable
func (r *ValidationResult) IsValid() bool {
	return r.Status == ValidationValid
}
