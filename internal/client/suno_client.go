package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/makeasinger/studio/internal/config"
)

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = errors.New("suno API key not configured")

// MusicGenerator defines the interface for music generation operations
type MusicGenerator interface {
	Generate(ctx context.Context, req *GenerateRequest) (*TaskResponse, error)
	GetGenerationDetails(ctx context.Context, taskID string) (*GenerationDetails, error)
	SeparateStems(ctx context.Context, req *SeparationRequest) (*TaskResponse, error)
	GetStemDetails(ctx context.Context, taskID string) (*StemDetails, error)
}

// SunoClient implements MusicGenerator for the sunoapi.org API
type SunoClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	callbackURL string
	model       string
	logger      *slog.Logger
}

// NewSunoClient creates a new Suno API client
func NewSunoClient(cfg *config.SunoConfig, logger *slog.Logger) *SunoClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &SunoClient{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		callbackURL: cfg.CallbackURL,
		model:       cfg.Model,
		logger:      logger.With(slog.String("component", "suno-client")),
	}
}

// Generate starts a music generation task. Model and callback default from config.
func (c *SunoClient) Generate(ctx context.Context, req *GenerateRequest) (*TaskResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	if req.CallBackURL == "" {
		req.CallBackURL = c.callbackURL
	}
	var result TaskResponse
	if err := c.post(ctx, "/api/v1/generate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetGenerationDetails retrieves the current state of a generation task
func (c *SunoClient) GetGenerationDetails(ctx context.Context, taskID string) (*GenerationDetails, error) {
	endpoint := "/api/v1/generate/record-info?taskId=" + url.QueryEscape(taskID)
	var result GenerationDetails
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SeparateStems starts a vocal/stem separation task
func (c *SunoClient) SeparateStems(ctx context.Context, req *SeparationRequest) (*TaskResponse, error) {
	if req.CallBackURL == "" {
		req.CallBackURL = c.callbackURL
	}
	var result TaskResponse
	if err := c.post(ctx, "/api/v1/vocal-removal/generate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetStemDetails retrieves the current state of a stem separation task
func (c *SunoClient) GetStemDetails(ctx context.Context, taskID string) (*StemDetails, error) {
	endpoint := "/api/v1/vocal-removal/record-info?taskId=" + url.QueryEscape(taskID)
	var result StemDetails
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCredits returns the remaining account credits
func (c *SunoClient) GetCredits(ctx context.Context) (float64, error) {
	var result CreditsResponse
	if err := c.get(ctx, "/api/v1/generate/credit", &result); err != nil {
		return 0, err
	}
	if result.Code != CodeSuccess {
		return 0, &APIError{Code: result.Code, Msg: result.Msg}
	}
	return result.Data, nil
}

// post sends a POST request with JSON body
func (c *SunoClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// get sends a GET request and parses JSON response
func (c *SunoClient) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// doRequest executes an HTTP request and parses the response
func (c *SunoClient) doRequest(req *http.Request, result interface{}) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("→ request", slog.String("method", req.Method), slog.String("url", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("✗ request failed", slog.String("method", req.Method), slog.String("url", req.URL.String()), slog.Any("error", err))
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("← response",
		slog.Int("status", resp.StatusCode),
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.String("body", string(respBody)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("suno API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// IsConfigured returns true if the client has valid configuration
func (c *SunoClient) IsConfigured() bool {
	return c.apiKey != ""
}
