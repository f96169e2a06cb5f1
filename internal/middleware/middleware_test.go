package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func whoami(c *fiber.Ctx) error {
	return c.SendString(GetUserID(c))
}

func TestAuthenticate(t *testing.T) {
	auth := NewAuthMiddleware("test-secret", time.Hour)
	app := fiber.New()
	app.Get("/me", auth.Authenticate(), whoami)

	token, err := auth.GenerateToken("user-1", "u@example.com")
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, UserClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	foreign, err := NewAuthMiddleware("other-secret", time.Hour).GenerateToken("user-1", "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"bearer header", "/me", "Bearer " + token, fiber.StatusOK},
		{"query token", "/me?token=" + token, "", fiber.StatusOK},
		{"missing", "/me", "", fiber.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic " + token, fiber.StatusUnauthorized},
		{"expired", "/me", "Bearer " + expired, fiber.StatusUnauthorized},
		{"wrong secret", "/me", "Bearer " + foreign, fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestGenerateToken_RequiresSecret(t *testing.T) {
	_, err := NewAuthMiddleware("", time.Hour).GenerateToken("u", "")
	assert.Error(t, err)
}

func TestAnonymous(t *testing.T) {
	app := fiber.New()
	app.Get("/me", Anonymous(), whoami)

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	body := make([]byte, 16)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, LocalUserID, string(body[:n]))
}

func TestRateLimit_DisabledWithoutRedis(t *testing.T) {
	rl := NewRateLimiter(nil, nil)
	app := fiber.New()
	app.Post("/go", Anonymous(), rl.GenerateLimit(1), whoami)

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/go", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestRateLimit_Redis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = rdb.Close() })

	rl := NewRateLimiter(rdb, nil)
	app := fiber.New()
	app.Post("/stems", Anonymous(), rl.StemsLimit(2), whoami)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/stems", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
		if i == 2 {
			assert.NotEmpty(t, resp.Header.Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}, codes)
}
