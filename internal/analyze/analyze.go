// Package analyze is a client for the single-endpoint analysis service, which
// returns breed and body measurements for one uploaded photo.
package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/five82/cattlelens/internal/classifier"
)

// EnvBaseURL overrides the configured base URL when set.
const EnvBaseURL = "CATTLELENS_API_URL"

const (
	defaultPort = 8000

	DefaultHealthTimeout  = 3500 * time.Millisecond
	DefaultAnalyzeTimeout = 20 * time.Second

	placeholder  = "—"
	maxBodyBytes = 1 << 20
)

// DefaultBaseURL returns the platform default for goos.
func DefaultBaseURL(goos string) string {
	if goos == "android" {
		return fmt.Sprintf("http://10.0.2.2:%d", defaultPort)
	}
	return fmt.Sprintf("http://127.0.0.1:%d", defaultPort)
}

// ResolveBaseURL picks the base URL: environment override, then configured
// value, then the platform default.
func ResolveBaseURL(configured string, getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvBaseURL)); v != "" {
		return v
	}
	if v := strings.TrimSpace(configured); v != "" {
		return v
	}
	return DefaultBaseURL(runtime.GOOS)
}

// Analysis is a normalized analysis response.
type Analysis struct {
	Details classifier.InfoFields
	Raw     json.RawMessage
}

// Options configure a Client. Zero durations use the defaults.
type Options struct {
	BaseURL        string
	HealthTimeout  time.Duration
	AnalyzeTimeout time.Duration
	Logger         *slog.Logger
}

// Client talks to a single analysis endpoint.
type Client struct {
	base           *url.URL
	http           *http.Client
	healthTimeout  time.Duration
	analyzeTimeout time.Duration
	logger         *slog.Logger
}

// NewClient builds a Client for opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	base, err := classifier.ParseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if p := classifier.DroppedPath(opts.BaseURL); p != "" {
		logger.Warn("analyze base URL path ignored", "base_url", base.String(), "path", p)
	}
	c := &Client{
		base:           base,
		http:           &http.Client{},
		healthTimeout:  DefaultHealthTimeout,
		analyzeTimeout: DefaultAnalyzeTimeout,
		logger:         logger.With("component", "analyze"),
	}
	if opts.HealthTimeout > 0 {
		c.healthTimeout = opts.HealthTimeout
	}
	if opts.AnalyzeTimeout > 0 {
		c.analyzeTimeout = opts.AnalyzeTimeout
	}
	return c, nil
}

// BaseURL returns the endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// HealthCheck verifies that the backend answers GET /health with 2xx.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/health"), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if classifier.IsTimeout(err) {
			err = fmt.Errorf("%w: %w", classifier.ErrRequestTimeout, err)
		}
		return fmt.Errorf("cannot reach backend at %s: %w", c.base, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health check failed: HTTP %d", resp.StatusCode)
	}
	return nil
}

// AnalyzeFile reads path and uploads it.
func (c *Client) AnalyzeFile(ctx context.Context, path string) (Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Analysis{}, fmt.Errorf("read image: %w", err)
	}
	return c.Analyze(ctx, filepath.Base(path), data)
}

// Analyze uploads an image as multipart field "image" to POST /analyze.
func (c *Client) Analyze(ctx context.Context, name string, data []byte) (Analysis, error) {
	if len(data) == 0 {
		return Analysis{}, errors.New("image is empty")
	}
	if strings.TrimSpace(name) == "" {
		name = "upload.jpg"
	}

	body, contentType, err := encodeForm(name, data)
	if err != nil {
		return Analysis{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.analyzeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/analyze"), body)
	if err != nil {
		return Analysis{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if classifier.IsTimeout(err) {
			return Analysis{}, fmt.Errorf("%w: %w", classifier.ErrRequestTimeout, err)
		}
		return Analysis{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Analysis{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if text := strings.TrimSpace(string(raw)); text != "" {
			return Analysis{}, errors.New(text)
		}
		return Analysis{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	analysis, err := Normalize(raw)
	if err != nil {
		return Analysis{}, err
	}
	c.logger.Debug("analysis complete", "image", name, "duration", time.Since(start))
	return analysis, nil
}

func (c *Client) endpoint(path string) string {
	return c.base.ResolveReference(&url.URL{Path: path}).String()
}

func encodeForm(name string, data []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, name))
	header.Set("Content-Type", mimeFor(name))
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func mimeFor(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
