package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/kelsos/rotki-client/internal/config"
	"github.com/kelsos/rotki-client/internal/logger"
	"github.com/kelsos/rotki-client/internal/models"
)

// APIClient handles all HTTP communication with the rotki API
type APIClient struct {
	config     *config.Config
	httpClient *http.Client
}

// NewAPIClient creates a new API client with the given configuration
func NewAPIClient(cfg *config.Config) *APIClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &APIClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BuildURL constructs a full URL for the given endpoint
func (c *APIClient) BuildURL(endpoint string) string {
	return fmt.Sprintf("%s/api/1%s", c.config.BaseURL, endpoint)
}

type requestOptions struct {
	validStatus     func(status int) bool
	tolerateMessage bool
	statusCode      *int
}

// RequestOption customizes how a response is accepted.
type RequestOption func(*requestOptions)

// WithValidStatus accepts only the given status codes as successful.
func WithValidStatus(codes ...int) RequestOption {
	return func(o *requestOptions) {
		o.validStatus = func(status int) bool {
			return slices.Contains(codes, status)
		}
	}
}

// WithStatusCode stores the response status in code, even when the
// response is rejected or cannot be decoded.
func WithStatusCode(code *int) RequestOption {
	return func(o *requestOptions) {
		o.statusCode = code
	}
}

// WithWarnings keeps the result of a response that also carries a message,
// logging the message as a warning instead of failing.
func WithWarnings() RequestOption {
	return func(o *requestOptions) {
		o.tolerateMessage = true
	}
}

func applyOptions(opts []RequestOption) requestOptions {
	options := requestOptions{
		validStatus: func(status int) bool { return status == http.StatusOK },
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// Get makes a GET request to the specified endpoint
func (c *APIClient) Get(ctx context.Context, endpoint string, result interface{}, opts ...RequestOption) error {
	return c.request(ctx, http.MethodGet, endpoint, nil, result, applyOptions(opts))
}

// request is the core HTTP request method
func (c *APIClient) request(ctx context.Context, method, endpoint string, body interface{}, result interface{}, options requestOptions) error {
	url := c.BuildURL(endpoint)
	start := time.Now()
	logger.Debug("Starting %s request to %s", method, url)

	var requestBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request body: %w", err)
		}
		requestBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, requestBody)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Request to %s failed after %v: %v", url, time.Since(start), err)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	logger.Debug("Request to %s completed in %v with status %d", url, time.Since(start), resp.StatusCode)
	if options.statusCode != nil {
		*options.statusCode = resp.StatusCode
	}

	if !options.validStatus(resp.StatusCode) {
		apiErr := newAPIError(resp.StatusCode, bodyBytes)
		logger.Debug("%s: %v", url, apiErr)
		return apiErr
	}

	if result != nil && len(bytes.TrimSpace(bodyBytes)) > 0 {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			logger.Error("%s: Error decoding response: %v", url, err)
			return fmt.Errorf("error decoding response: %w", err)
		}
	}

	return nil
}

// call performs a request and unwraps the result envelope. A message on an
// otherwise accepted response is an error unless warnings are tolerated.
func call[T any](ctx context.Context, c *APIClient, method, endpoint string, body interface{}, opts ...RequestOption) (T, error) {
	var zero T
	options := applyOptions(opts)

	var response models.APIResponse[T]
	if err := c.request(ctx, method, endpoint, body, &response, options); err != nil {
		return zero, err
	}

	if response.Message != "" {
		if options.tolerateMessage {
			logger.Warn("%s %s: %s", method, endpoint, response.Message)
			return response.Result, nil
		}
		return zero, &APIError{StatusCode: http.StatusOK, Message: response.Message}
	}

	return response.Result, nil
}

// Ping checks if the API is ready
func (c *APIClient) Ping(ctx context.Context) error {
	_, err := call[bool](ctx, c, http.MethodGet, "/ping", nil)
	return err
}

// WaitForAPIReady polls the ping endpoint once a second until it answers or
// the configured number of attempts is exhausted.
func (c *APIClient) WaitForAPIReady(ctx context.Context) bool {
	logger.Info("Checking API readiness...")

	for attempt := 1; attempt <= c.config.APIReadyTimeout; attempt++ {
		logger.Debug("Checking API readiness (attempt %d/%d)...", attempt, c.config.APIReadyTimeout)

		if err := c.Ping(ctx); err == nil {
			logger.Info("API is ready!")
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Second):
		}
	}

	logger.Error("API failed to become ready after %d attempts", c.config.APIReadyTimeout)
	return false
}

// BuildURLWithParams properly builds a URL with query parameters
func BuildURLWithParams(endpoint string, params map[string]string) string {
	if len(params) == 0 {
		return endpoint
	}

	parts := strings.SplitN(endpoint, "?", 2)
	baseURL := parts[0]

	values := url.Values{}
	if len(parts) > 1 {
		existingParams, _ := url.ParseQuery(parts[1])
		values = existingParams
	}

	for key, value := range params {
		values.Set(key, value)
	}

	if len(values) > 0 {
		return baseURL + "?" + values.Encode()
	}
	return baseURL
}

func boolParam(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// pathSegment escapes a user supplied value for use in an endpoint path.
func pathSegment(v string) string {
	return url.PathEscape(v)
}
