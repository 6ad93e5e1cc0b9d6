package stitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIKeyHeader is the header carrying the static API key on metadata requests.
const APIKeyHeader = "X-Goog-Api-Key"

const (
	maxErrorBody    = 64 << 10
	maxMetadataBody = 8 << 20
)

// ErrEmptyMetadata is returned when a 2xx metadata response decodes to null.
var ErrEmptyMetadata = errors.New("empty screen metadata")

// Role names a downloadable artifact referenced by screen metadata.
type Role string

const (
	RoleHTML       Role = "html"
	RoleScreenshot Role = "screenshot"
)

// FileName returns the fixed on-disk name for the role.
func (r Role) FileName() string {
	switch r {
	case RoleHTML:
		return "index.html"
	case RoleScreenshot:
		return "screenshot.png"
	default:
		return string(r)
	}
}

// File references a downloadable artifact.
type File struct {
	Name        string `json:"name,omitempty"`
	DownloadURL string `json:"downloadUrl"`
}

// Screen is the metadata record returned for one screen. Either file may be absent.
type Screen struct {
	Name       string `json:"name,omitempty"`
	Title      string `json:"title,omitempty"`
	HTMLCode   *File  `json:"htmlCode,omitempty"`
	Screenshot *File  `json:"screenshot,omitempty"`
}

// ArtifactRef pairs a role with the URL to fetch it from.
type ArtifactRef struct {
	Role Role
	URL  string
}

// Artifacts returns the present artifact references in processing order:
// HTML first, then the screenshot. References without a download URL are skipped.
func (s *Screen) Artifacts() []ArtifactRef {
	if s == nil {
		return nil
	}
	refs := make([]ArtifactRef, 0, 2)
	if s.HTMLCode != nil {
		if u := strings.TrimSpace(s.HTMLCode.DownloadURL); u != "" {
			refs = append(refs, ArtifactRef{Role: RoleHTML, URL: u})
		}
	}
	if s.Screenshot != nil {
		if u := strings.TrimSpace(s.Screenshot.DownloadURL); u != "" {
			refs = append(refs, ArtifactRef{Role: RoleScreenshot, URL: u})
		}
	}
	return refs
}

// APIError describes a non-2xx metadata response.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("stitch api returned %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("stitch api returned %d", e.StatusCode)
}

// ScreenGetter fetches metadata for one screen.
type ScreenGetter interface {
	GetScreen(ctx context.Context, screenID string) (*Screen, error)
}

// Client provides access to the Stitch screens API.
type Client struct {
	apiKey     string
	baseURL    string
	projectID  string
	httpClient *http.Client
}

var _ ScreenGetter = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout. It applies to a copy of the
// current client, so it composes with WithHTTPClient in either order.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			client := *c.httpClient
			client.Timeout = timeout
			c.httpClient = &client
		}
	}
}

// New creates a Stitch client scoped to one project.
func New(apiKey, baseURL, projectID string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("stitch api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("stitch base url required")
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, errors.New("stitch project id required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		projectID:  projectID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ProjectID returns the project the client is scoped to.
func (c *Client) ProjectID() string {
	return c.projectID
}

// ScreenURL returns the metadata endpoint for screenID.
func (c *Client) ScreenURL(screenID string) string {
	return c.baseURL + "/projects/" + url.PathEscape(c.projectID) + "/screens/" + url.PathEscape(screenID)
}

// GetScreen fetches and decodes the metadata record for screenID.
func (c *Client) GetScreen(ctx context.Context, screenID string) (*Screen, error) {
	if strings.TrimSpace(screenID) == "" {
		return nil, errors.New("screen id must not be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ScreenURL(screenID), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(APIKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBody))
	if err != nil {
		return nil, fmt.Errorf("read screen metadata: %w", err)
	}
	// Unmarshal rejects trailing data after the top-level value.
	var screen *Screen
	if err := json.Unmarshal(body, &screen); err != nil {
		return nil, fmt.Errorf("decode screen metadata: %w", err)
	}
	if screen == nil {
		return nil, fmt.Errorf("decode screen metadata: %w", ErrEmptyMetadata)
	}
	return screen, nil
}

// googleError is the error envelope returned by Google APIs.
type googleError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return apiErr
	}
	var envelope googleError
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		if envelope.Error.Status != "" {
			apiErr.Status = envelope.Error.Status
		}
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	if len(apiErr.Message) > 200 {
		apiErr.Message = apiErr.Message[:200] + "..."
	}
	return apiErr
}
