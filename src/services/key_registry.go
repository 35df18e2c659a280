package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/khabaroff/apikeys-dashboard/src/logging"
	"github.com/khabaroff/apikeys-dashboard/src/metrics"
	"github.com/khabaroff/apikeys-dashboard/src/models"
	"github.com/khabaroff/apikeys-dashboard/src/repositories"
)

// DefaultStoreTimeout bounds every store round-trip unless overridden
const DefaultStoreTimeout = 5 * time.Second

// generateAttempts is the number of fresh secrets tried before giving up on a collision
const generateAttempts = 2

// newestFirst is the listing order. seq breaks created_at ties by insertion order.
var newestFirst = []repositories.OrderBy{
	{Column: "created_at", Desc: true},
	{Column: "seq", Desc: true},
}

// KeyRegistry handles the API key lifecycle: generation, listing,
// soft deletion and validation. It holds no mutable state and is safe
// for concurrent use.
type KeyRegistry struct {
	store      repositories.Store
	timeout    time.Duration
	trackUsage bool
	metrics    metrics.Recorder
	random     io.Reader
	now        func() time.Time
	logger     zerolog.Logger
}

// RegistryOption configures a KeyRegistry
type RegistryOption func(*KeyRegistry)

// WithTimeout sets the per round-trip store timeout. Zero disables it.
func WithTimeout(d time.Duration) RegistryOption {
	return func(r *KeyRegistry) {
		r.timeout = d
	}
}

// WithUsageTracking makes successful validations record last_used_at
func WithUsageTracking(enabled bool) RegistryOption {
	return func(r *KeyRegistry) {
		r.trackUsage = enabled
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m metrics.Recorder) RegistryOption {
	return func(r *KeyRegistry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithRandom replaces the source of secret bytes
func WithRandom(src io.Reader) RegistryOption {
	return func(r *KeyRegistry) {
		r.random = src
	}
}

// WithClock replaces the clock used for last_used_at
func WithClock(now func() time.Time) RegistryOption {
	return func(r *KeyRegistry) {
		r.now = now
	}
}

// NewKeyRegistry creates a registry on top of store
func NewKeyRegistry(store repositories.Store, opts ...RegistryOption) *KeyRegistry {
	r := &KeyRegistry{
		store:   store,
		timeout: DefaultStoreTimeout,
		metrics: metrics.NewNoopMetrics(),
		random:  rand.Reader,
		now:     time.Now,
		logger:  logging.NewLogger("key_registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate creates and persists a new active key.
// An empty name becomes "Default" and an empty type becomes dev.
func (r *KeyRegistry) Generate(ctx context.Context, name string, keyType models.KeyType) (*models.APIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = models.DefaultKeyName
	}
	if len(name) > models.MaxKeyNameLength {
		return nil, fmt.Errorf("%w: name longer than %d bytes", ErrInvalidInput, models.MaxKeyNameLength)
	}
	if keyType == "" {
		keyType = models.KeyTypeDev
	}
	if !keyType.Valid() {
		return nil, fmt.Errorf("%w: unknown key type %q", ErrInvalidInput, keyType)
	}

	for attempt := 1; attempt <= generateAttempts; attempt++ {
		secret, err := r.newSecret()
		if err != nil {
			return nil, err
		}

		row, err := r.insert(ctx, repositories.Row{
			"name":      name,
			"key":       secret,
			"type":      string(keyType),
			"is_active": true,
		})
		if errors.Is(err, repositories.ErrConflict) {
			r.logger.Warn().Int("attempt", attempt).Msg("Generated key collided, regenerating")
			continue
		}
		if err != nil {
			return nil, r.storeError("insert", err)
		}

		key, err := decodeAPIKey(row)
		if err != nil {
			return nil, err
		}

		r.metrics.IncrementKeysGenerated(string(key.Type))
		r.logger.Info().
			Str("key_id", key.ID.String()).
			Str("key", key.Masked()).
			Str("type", string(key.Type)).
			Msg("API key generated")
		return key, nil
	}

	return nil, fmt.Errorf("%w: %d attempts collided", ErrDuplicateKey, generateAttempts)
}

// List returns keys newest first. With activeOnly, deactivated keys are omitted.
func (r *KeyRegistry) List(ctx context.Context, activeOnly bool) ([]models.APIKey, error) {
	filter := repositories.Filter{}
	if activeOnly {
		filter["is_active"] = true
	}

	rows, err := r.selectRows(ctx, nil, filter, newestFirst...)
	if err != nil {
		return nil, r.storeError("select", err)
	}

	keys := make([]models.APIKey, 0, len(rows))
	for _, row := range rows {
		key, err := decodeAPIKey(row)
		if err != nil {
			return nil, err
		}
		keys = append(keys, *key)
	}
	return keys, nil
}

// Deactivate marks the key with the given id inactive. Deactivating an
// already inactive key succeeds.
func (r *KeyRegistry) Deactivate(ctx context.Context, id string) error {
	keyID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%w: invalid key ID format", ErrInvalidInput)
	}

	n, err := r.update(ctx, repositories.Row{"is_active": false}, repositories.Filter{"id": keyID})
	if err != nil {
		return r.storeError("update", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, keyID)
	}

	r.metrics.IncrementKeysDeactivated()
	r.logger.Info().Str("key_id", keyID.String()).Msg("API key deactivated")
	return nil
}

// Validate looks up a presented secret by exact match
func (r *KeyRegistry) Validate(ctx context.Context, key string) (*models.ValidationResult, error) {
	result, err := r.validate(ctx, key)
	if err != nil {
		r.metrics.RecordValidation("error")
		return nil, err
	}
	r.metrics.RecordValidation(string(result.Status))
	return result, nil
}

func (r *KeyRegistry) validate(ctx context.Context, key string) (*models.ValidationResult, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: key is required", ErrInvalidInput)
	}

	rows, err := r.selectRows(ctx, nil, repositories.Filter{"key": key})
	if err != nil {
		return nil, r.storeError("select", err)
	}

	switch len(rows) {
	case 0:
		return &models.ValidationResult{Status: models.ValidationInvalid}, nil
	case 1:
	default:
		return nil, fmt.Errorf("%w: %d rows for one key", ErrMultipleMatches, len(rows))
	}

	record, err := decodeAPIKey(rows[0])
	if err != nil {
		return nil, err
	}
	if !record.IsActive {
		return &models.ValidationResult{Status: models.ValidationInactive, Key: record}, nil
	}

	if r.trackUsage {
		patch := repositories.Row{"last_used_at": r.now().UTC()}
		if _, err := r.update(ctx, patch, repositories.Filter{"id": record.ID}); err != nil {
			return nil, r.storeError("update", err)
		}
	}

	return &models.ValidationResult{Status: models.ValidationValid, Key: record}, nil
}

// CountActive returns the number of active keys
func (r *KeyRegistry) CountActive(ctx context.Context) (int, error) {
	rows, err := r.selectRows(ctx, []string{"id"}, repositories.Filter{"is_active": true})
	if err != nil {
		return 0, r.storeError("select", err)
	}
	return len(rows), nil
}

// newSecret returns the prefix followed by hex-encoded random bytes
func (r *KeyRegistry) newSecret() (string, error) {
	b := make([]byte, models.KeySecretBytes)
	if _, err := io.ReadFull(r.random, b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return models.KeyPrefix + hex.EncodeToString(b), nil
}

func (r *KeyRegistry) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *KeyRegistry) selectRows(ctx context.Context, columns []string, filter repositories.Filter, order ...repositories.OrderBy) ([]repositories.Row, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.store.Select(ctx, models.TableAPIKeys, columns, filter, order...)
}

func (r *KeyRegistry) insert(ctx context.Context, row repositories.Row) (repositories.Row, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.store.Insert(ctx, models.TableAPIKeys, row)
}

func (r *KeyRegistry) update(ctx context.Context, patch repositories.Row, filter repositories.Filter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.store.Update(ctx, models.TableAPIKeys, patch, filter)
}

// storeError maps any store failure, including a timeout, to ErrStoreUnavailable
func (r *KeyRegistry) storeError(op string, err error) error {
	r.metrics.RecordStoreError(op)
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
