package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makeasinger/studio/internal/config"
)

const (
	testIssuer   = "https://id.example.com"
	testAudience = "studio"
	testKID      = "key-1"
)

func jwksJSON(t *testing.T, pub *rsa.PublicKey) json.RawMessage {
	t.Helper()
	set := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": testKID,
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
	raw, err := json.Marshal(set)
	require.NoError(t, err)
	return raw
}

func signRS256(t *testing.T, key *rsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKID
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func newTestVerifier(t *testing.T) (*JWKSVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks, err := keyfunc.NewJWKSetJSON(jwksJSON(t, &key.PublicKey))
	require.NoError(t, err)
	return newJWKSVerifier(jwks, testIssuer, testAudience), key
}

func validClaims() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   "oidc-user",
		Issuer:    testIssuer,
		Audience:  jwt.ClaimStrings{testAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func TestJWKSVerifier_Validate(t *testing.T) {
	verifier, key := newTestVerifier(t)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	claims, err := verifier.Validate(signRS256(t, key, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "oidc-user", claims.UserID)

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "https://evil.example.com"

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"other"}

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noSubject := validClaims()
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
	}{
		{"wrong issuer", signRS256(t, key, wrongIssuer)},
		{"wrong audience", signRS256(t, key, wrongAudience)},
		{"no expiry", signRS256(t, key, noExpiry)},
		{"expired", signRS256(t, key, expired)},
		{"no subject", signRS256(t, key, noSubject)},
		{"unknown key", signRS256(t, otherKey, validClaims())},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Validate(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestAuthenticate_WithVerifier(t *testing.T) {
	verifier, key := newTestVerifier(t)

	auth := NewAuthMiddleware("test-secret", time.Hour).WithVerifier(verifier)
	app := fiber.New()
	app.Get("/me", auth.Authenticate(), whoami)

	local, err := auth.GenerateToken("user-1", "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		status int
		body   string
	}{
		{"identity provider token", signRS256(t, key, validClaims()), fiber.StatusOK, "oidc-user"},
		{"hmac fallback", local, fiber.StatusOK, "user-1"},
		{"rejected by both", "not-a-token", fiber.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.body != "" {
				buf := make([]byte, 64)
				n, _ := resp.Body.Read(buf)
				assert.Equal(t, tt.body, string(buf[:n]))
			}
		})
	}
}

func TestAuthenticate_VerifierOnly(t *testing.T) {
	verifier, _ := newTestVerifier(t)

	hmac, err := NewAuthMiddleware("test-secret", time.Hour).GenerateToken("user-1", "")
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", NewAuthMiddleware("", time.Hour).WithVerifier(verifier).Authenticate(), whoami)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+hmac)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestDiscoverJWKSURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/good/.well-known/openid-configuration":
			_, _ = w.Write([]byte(`{"jwks_uri":"https://id.example.com/keys"}`))
		case "/empty/.well-known/openid-configuration":
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	url, err := discoverJWKSURL(ctx, srv.URL+"/good")
	require.NoError(t, err)
	assert.Equal(t, "https://id.example.com/keys", url)

	_, err = discoverJWKSURL(ctx, srv.URL+"/empty")
	assert.Error(t, err)

	_, err = discoverJWKSURL(ctx, srv.URL+"/missing")
	assert.Error(t, err)
}

func TestNewJWKSVerifier_RequiresSource(t *testing.T) {
	_, err := NewJWKSVerifier(context.Background(), config.AuthConfig{})
	assert.Error(t, err)
}
