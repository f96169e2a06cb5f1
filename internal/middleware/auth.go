package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/makeasinger/studio/pkg/response"
)

const (
	tokenIssuer = "makeasinger-studio"

	// LocalUserID identifies requests when authentication is disabled
	LocalUserID = "local"
)

type AuthMiddleware struct {
	jwtSecret  string
	expiration time.Duration
	verifier   TokenVerifier
}

type UserClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func NewAuthMiddleware(jwtSecret string, expiration time.Duration) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: jwtSecret, expiration: expiration}
}

// WithVerifier accepts tokens from an external identity provider. HMAC
// tokens keep working when a secret is configured.
func (m *AuthMiddleware) WithVerifier(v TokenVerifier) *AuthMiddleware {
	m.verifier = v
	return m
}

// Authenticate validates the bearer token. Browsers cannot set headers on
// EventSource or WebSocket requests, so a token query parameter is accepted too.
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Query("token")
		if authHeader := c.Get("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return response.Unauthorized(c, "Invalid authorization header format")
			}
			tokenString = parts[1]
		}
		if tokenString == "" {
			return response.Unauthorized(c, "Missing authorization header")
		}

		claims, err := m.validate(tokenString)
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}

		c.Locals("userId", claims.UserID)
		c.Locals("email", claims.Email)
		c.Locals("claims", claims)

		return c.Next()
	}
}

// Anonymous marks every request as the single local user
func Anonymous() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userId", LocalUserID)
		return c.Next()
	}
}

func (m *AuthMiddleware) validate(tokenString string) (*UserClaims, error) {
	if m.verifier != nil {
		claims, err := m.verifier.Validate(tokenString)
		if err == nil || m.jwtSecret == "" {
			return claims, err
		}
	}
	return m.ParseToken(tokenString)
}

// ParseToken validates an HMAC-signed token and returns its claims
func (m *AuthMiddleware) ParseToken(tokenString string) (*UserClaims, error) {
	if m.jwtSecret == "" {
		return nil, errors.New("jwt secret not configured")
	}
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(m.jwtSecret), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals("userId").(string); ok {
		return userID
	}
	return ""
}

// GenerateToken mints a token for the studio CLI
func (m *AuthMiddleware) GenerateToken(userID, email string) (string, error) {
	if m.jwtSecret == "" {
		return "", errors.New("jwt secret not configured")
	}

	now := time.Now()
	claims := UserClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   tokenIssuer,
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if m.expiration > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.expiration))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.jwtSecret))
}
