// HTTP transport shared by the auth and workout clients
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the hosted BeatMiles API.
const DefaultBaseURL = "https://beatmiles-backend.azurewebsites.net/api"

// RequestIDHeader carries a fresh uuid on every call so server logs can be correlated.
const RequestIDHeader = "X-Request-ID"

// APIService makes JSON requests against the BeatMiles API.
//
// Authenticated calls wrap the base client with an [oauth2.StaticTokenSource] so the session's
// bearer token is attached by the transport rather than by each caller.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewAPIService creates a new API service instance. Empty arguments fall back to defaults.
func NewAPIService(baseURL string, client *http.Client, logger *log.Logger) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     logger,
	}
}

// BaseURL returns the API root requests are resolved against.
func (a *APIService) BaseURL() string { return a.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Message returns the top-level "message" string of a JSON object body, or "".
func (r *APIResponse) Message() string {
	obj, ok := r.JSONData.(map[string]any)
	if !ok {
		return ""
	}
	msg, _ := obj["message"].(string)
	return msg
}

// Decode unmarshals the body into v. A body that is not JSON is an [shared.ErrDecode].
func (r *APIResponse) Decode(v any) error {
	if !r.IsJSON {
		return fmt.Errorf("%w: expected JSON body, got %q", shared.ErrDecode, truncate(string(r.Body), 64))
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrDecode, err)
	}
	return nil
}

// Err returns an [*APIError] for non-2xx responses and nil otherwise.
func (r *APIResponse) Err() error {
	if r.OK() {
		return nil
	}
	return &APIError{Status: r.StatusCode, Message: r.Message()}
}

// Do sends one request and reads the whole response.
//
// body is JSON-encoded when non-nil. When sess is valid its token is sent as a bearer credential.
// Transport failures wrap [shared.ErrServiceUnavailable]; any received status is returned as a response.
func (a *APIService) Do(ctx context.Context, method, path string, sess *models.Session, body any) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to encode request body: %v", shared.ErrInvalidInput, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := shared.GenerateID()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := a.logger.With("method", method, "path", path, "request_id", requestID)
	logger.Debug("sending request", "authenticated", sess.Valid())

	resp, err := a.client(ctx, sess).Do(req)
	if err != nil {
		logger.Error("request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrServiceUnavailable, err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	logger.Debug("received response", "status", resp.StatusCode, "json", apiResp.IsJSON)
	return apiResp, nil
}

// Get performs a GET request to the specified path.
func (a *APIService) Get(ctx context.Context, path string, sess *models.Session) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, sess, nil)
}

// Post performs a POST request with body encoded as JSON.
func (a *APIService) Post(ctx context.Context, path string, sess *models.Session, body any) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, sess, body)
}

// Put performs a PUT request with body encoded as JSON.
func (a *APIService) Put(ctx context.Context, path string, sess *models.Session, body any) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPut, path, sess, body)
}

// Delete performs a DELETE request.
func (a *APIService) Delete(ctx context.Context, path string, sess *models.Session) (*APIResponse, error) {
	return a.Do(ctx, http.MethodDelete, path, sess, nil)
}

// client returns the base client, or an oauth2 client carrying sess's bearer token.
func (a *APIService) client(ctx context.Context, sess *models.Session) *http.Client {
	if !sess.Valid() {
		return a.httpClient
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: sess.Token(), TokenType: "Bearer"})
	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, a.httpClient), src)
	client.Timeout = a.httpClient.Timeout
	return client
}

// IsTransport reports whether err came from the network rather than an HTTP status.
func IsTransport(err error) bool {
	return errors.Is(err, shared.ErrServiceUnavailable)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
