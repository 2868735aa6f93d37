// Package client talks to a running bookingscore HTTP service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookingscore/internal/logger"
)

// Client errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrEmptyEndpoint        = errors.New("endpoint is required")
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 64 * 1024 * 1024

// Client is a thin HTTP client for the scoring API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	logger     *logger.Logger
}

// APIError is a non-2xx response decoded from the service's error body.
type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"error"`
	Message string      `json:"message"`
	Fields  []string    `json:"fields,omitempty"`
	Cells   []CellError `json:"cells,omitempty"`
}

// CellError is one rejected cell as reported by the service.
type CellError struct {
	Field  string `json:"field"`
	Row    int    `json:"row"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %d %s: %s", ErrUnexpectedStatusCode, e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return ErrUnexpectedStatusCode
}

// Warning is an unrecognised category the service encoded as the sentinel.
type Warning struct {
	Field string `json:"field"`
	Row   int    `json:"row"`
	Value string `json:"value"`
}

// Scored is the JSON form of a scored batch.
type Scored struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	Count    int              `json:"count"`
	Warnings []Warning        `json:"warnings"`
}

// Download is the CSV form of a scored upload.
type Download struct {
	Filename string
	Body     []byte
	Warnings int
}

// Health is the service status.
type Health struct {
	Status        string `json:"status"`
	Model         string `json:"model"`
	SchemaVersion int    `json:"schema_version"`
}

// New creates a client for the service at endpoint, e.g. http://localhost:8080.
func New(endpoint string, log *logger.Logger) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, ErrEmptyEndpoint
	}

	if log == nil {
		log = logger.Discard()
	}

	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: log,
	}, nil
}

// Health calls GET /healthz.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/healthz", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var h Health
	if err := c.doJSON(req, &h); err != nil {
		return nil, err
	}

	return &h, nil
}

// Predict scores records already decoded into field/value maps.
func (c *Client) Predict(ctx context.Context, records []map[string]any) (*Scored, error) {
	body, err := json.Marshal(map[string]any{"records": records})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	var out Scored
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Upload sends a CSV file and returns the scored CSV download.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*Download, error) {
	req, err := c.uploadRequest(ctx, "/v1/predictions/upload", filename, r)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("uploading file", "file", filename, "endpoint", c.endpoint)

	resp, body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	d := &Download{Filename: filename, Body: body}

	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		d.Filename = params["filename"]
	}

	if n, err := strconv.Atoi(resp.Header.Get("X-Scoring-Warnings")); err == nil {
		d.Warnings = n
	}

	return d, nil
}

func (c *Client) uploadRequest(ctx context.Context, path, filename string, r io.Reader) (*http.Request, error) {
	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req, nil
}

func (c *Client) doJSON(req *http.Request, target any) error {
	_, body, err := c.do(req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// do sends req and returns the body of a 2xx response. Other statuses are
// returned as *APIError.
func (c *Client) do(req *http.Request) (*http.Response, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil || apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
			apiErr.Message = strings.TrimSpace(string(body))
		}

		c.logger.Error("request failed", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "error", apiErr.Code)

		return resp, nil, apiErr
	}

	return resp, body, nil
}
