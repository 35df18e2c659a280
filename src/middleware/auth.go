package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/khabaroff/apikeys-dashboard/src/models"
	"github.com/khabaroff/apikeys-dashboard/src/services"
)

const (
	// DashboardIssuer is the iss claim of dashboard session tokens
	DashboardIssuer = "apikeys-dashboard"

	// SubjectKey holds the authenticated dashboard user in the gin context
	SubjectKey = "subject"

	// APIKeyContextKey holds the validated *models.APIKey in the gin context
	APIKeyContextKey = "api_key"

	minSecretLength = 32
)

// DashboardClaims represents JWT claims for dashboard users
type DashboardClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// CheckDashboardSecret rejects secrets too short for HS256
func CheckDashboardSecret(secret string) error {
	if len(secret) < minSecretLength {
		return fmt.Errorf("DASHBOARD_JWT_SECRET must be at least %d characters long", minSecretLength)
	}
	return nil
}

// GenerateDashboardToken creates a signed session token for subject
func GenerateDashboardToken(secret, subject, email string, ttl time.Duration) (string, error) {
	if err := CheckDashboardSecret(secret); err != nil {
		return "", err
	}

	now := time.Now()
	claims := DashboardClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    DashboardIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateDashboardToken verifies the signature, issuer and expiry of a token
func ValidateDashboardToken(secret, tokenString string) (*DashboardClaims, error) {
	claims := &DashboardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(DashboardIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>"
func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  "unauthorized",
	})
}

// DashboardAuth protects key management routes with dashboard session tokens.
// An empty secret disables the check.
func DashboardAuth(secret string) gin.HandlerFunc {
	if secret == "" {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			unauthorized(c, "missing authorization header")
			return
		}

		token := bearerToken(c)
		if token == "" {
			unauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := ValidateDashboardToken(secret, token)
		if err != nil {
			logger := RequestLogger(c, "auth")
			logger.Warn().Err(err).Msg("Rejected dashboard token")
			unauthorized(c, "invalid token")
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}

// KeyValidator is satisfied by services.KeyRegistry
type KeyValidator interface {
	Validate(ctx context.Context, key string) (*models.ValidationResult, error)
}

// ExtractAPIKey reads a presented key from X-API-Key or a bearer token
func ExtractAPIKey(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader("X-API-Key")); key != "" {
		return key
	}
	return bearerToken(c)
}

// RequireAPIKey admits only requests that present a VALID key
func RequireAPIKey(validator KeyValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ExtractAPIKey(c)
		if key == "" {
			unauthorized(c, "API key is required")
			return
		}

		result, err := validator.Validate(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, services.ErrInvalidInput) {
				unauthorized(c, "invalid API key")
				return
			}
			code := services.ErrorCode(err)
			logger := RequestLogger(c, "auth")
			logger.Error().Err(err).Str("key", models.MaskKey(key)).Str("code", code).Msg("Key validation failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "failed to validate API key",
				"code":  code,
			})
			return
		}

		if !result.IsValid() {
			unauthorized(c, "invalid or inactive API key")
			return
		}

		c.Set(APIKeyContextKey, result.Key)
		c.Next()
	}
}

// GetAPIKey returns the key admitted by RequireAPIKey, if any
func GetAPIKey(c *gin.Context) *models.APIKey {
	if v, ok := c.Get(APIKeyContextKey); ok {
		if key, ok := v.(*models.APIKey); ok {
			return key
		}
	}
	return nil
}
