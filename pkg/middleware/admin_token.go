package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prohmpiriya/take-a-number/pkg/response"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrInvalidToken      = errors.New("invalid token")
)

// ContextKeyAdminEventID holds the event an admin token was issued for
const ContextKeyAdminEventID = "admin_event_id"

// AdminTokenConfig holds configuration for per-event admin tokens
type AdminTokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
	// Required rejects admin requests that carry no token
	Required bool
}

// AdminClaims are the claims of an admin token
type AdminClaims struct {
	EventID string `json:"event_id"`
	jwt.RegisteredClaims
}

// IssueAdminToken signs a token granting admin access to one event
func IssueAdminToken(config *AdminTokenConfig, eventID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(config.TTL)

	claims := AdminClaims{
		EventID: eventID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    config.Issuer,
			Subject:   eventID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign admin token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseAdminToken validates a signed admin token and returns its claims
func ParseAdminToken(config *AdminTokenConfig, tokenString string) (*AdminClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}

	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.EventID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	tokenString := strings.TrimSpace(authHeader[len(bearerPrefix):])
	if tokenString == "" {
		return "", ErrInvalidAuthFormat
	}
	return tokenString, nil
}

// AdminTokenMiddleware validates a Bearer admin token when one is sent.
// Without a token the request passes through unless config.Required is set.
func AdminTokenMiddleware(config *AdminTokenConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if errors.Is(err, ErrMissingAuthHeader) {
			if config.Required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("MISSING_TOKEN", "Admin token is required"))
				return
			}
			c.Next()
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("INVALID_TOKEN", "Invalid authorization header format"))
			return
		}

		claims, err := ParseAdminToken(config, tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("TOKEN_EXPIRED", "Admin token has expired"))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("INVALID_TOKEN", "Invalid admin token"))
			return
		}

		c.Set(ContextKeyAdminEventID, claims.EventID)
		c.Next()
	}
}

// GetAdminEventID extracts the admin token's event ID from gin context
func GetAdminEventID(c *gin.Context) (string, bool) {
	eventID, exists := c.Get(ContextKeyAdminEventID)
	if !exists {
		return "", false
	}
	id, ok := eventID.(string)
	return id, ok
}

// CanAdminister reports whether the request may modify eventID's queue
func CanAdminister(c *gin.Context, config *AdminTokenConfig, eventID string) bool {
	if config == nil || !config.Required {
		return true
	}
	id, ok := GetAdminEventID(c)
	return ok && id == eventID
}
