package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/makeasinger/studio/internal/config"
)

const discoveryTimeout = 30 * time.Second

// TokenVerifier validates tokens issued outside this service
type TokenVerifier interface {
	Validate(tokenString string) (*UserClaims, error)
}

// JWKSVerifier checks RS/ES-signed tokens against an OIDC provider's key set
type JWKSVerifier struct {
	jwks     keyfunc.Keyfunc
	issuer   string
	audience string
}

// NewJWKSVerifier loads the key set, discovering its URL from the issuer when
// none is configured. Keys are refreshed in the background.
func NewJWKSVerifier(ctx context.Context, cfg config.AuthConfig) (*JWKSVerifier, error) {
	if cfg.Issuer == "" && cfg.JWKSURL == "" {
		return nil, fmt.Errorf("auth issuer or jwks url is required")
	}

	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		discoverCtx, cancel := context.WithTimeout(ctx, discoveryTimeout)
		defer cancel()

		var err error
		if jwksURL, err = discoverJWKSURL(discoverCtx, cfg.Issuer); err != nil {
			return nil, err
		}
	}

	// the refresh goroutine lives as long as ctx
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("load key set %s: %w", jwksURL, err)
	}
	return newJWKSVerifier(jwks, cfg.Issuer, cfg.Audience), nil
}

func newJWKSVerifier(jwks keyfunc.Keyfunc, issuer, audience string) *JWKSVerifier {
	return &JWKSVerifier{jwks: jwks, issuer: issuer, audience: audience}
}

type oidcDiscovery struct {
	JWKSURI string `json:"jwks_uri"`
}

// discoverJWKSURL reads jwks_uri from the issuer's openid-configuration
func discoverJWKSURL(ctx context.Context, issuer string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issuer+"/.well-known/openid-configuration", nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch openid configuration: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openid configuration: unexpected status %d", resp.StatusCode)
	}

	var doc oidcDiscovery
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("decode openid configuration: %w", err)
	}
	if doc.JWKSURI == "" {
		return "", fmt.Errorf("openid configuration has no jwks_uri")
	}
	return doc.JWKSURI, nil
}

// Validate verifies the signature, expiry, issuer and audience. The user id
// is the subject claim.
func (v *JWKSVerifier) Validate(tokenString string) (*UserClaims, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, v.jwks.Keyfunc, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}
