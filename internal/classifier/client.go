package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Service defines the operations the UI and CLI need from the classification
// service. It is implemented by *Client and can be faked in tests.
type Service interface {
	Resolve(ctx context.Context) (string, error)
	Classify(ctx context.Context, img Image) ClassifyOutcome
	Detect(ctx context.Context, frame []byte) DetectOutcome
	TestConnectivity(ctx context.Context) []ProbeResult
	CheckHealth(ctx context.Context) bool
	Endpoint() (string, bool)
}

// Ensure Client implements Service at compile time.
var _ Service = (*Client)(nil)

const (
	healthPath   = "/health"
	classifyPath = "/classify"
	detectPath   = "/detect"
	rootPath     = "/"

	imageField    = "image"
	imageFileName = "cattle_image.jpg"
	imageMIME     = "image/jpeg"

	defaultUserAgent = "cattlelens/0.1"
	maxBodyBytes     = 8 << 20
	maxErrorBody     = 512
)

// Default timeouts. The probe timeout must stay below the upload timeout.
const (
	DefaultProbeTimeout        = 5 * time.Second
	DefaultClassifyTimeout     = 30 * time.Second
	DefaultDetectTimeout       = 10 * time.Second
	DefaultConnectivityTimeout = 10 * time.Second
)

// Options configure a Client. Zero durations use the defaults.
type Options struct {
	Endpoints           []string
	ProbeTimeout        time.Duration
	ClassifyTimeout     time.Duration
	DetectTimeout       time.Duration
	ConnectivityTimeout time.Duration
	Logger              *slog.Logger
	Rand                *rand.Rand // placeholder generator; seeded from time when nil
	Now                 func() time.Time
}

// Client resolves a working endpoint from an ordered candidate list and talks
// to the classification service through it.
type Client struct {
	candidates []*url.URL

	resolveMu sync.Mutex
	resolved  atomic.Pointer[url.URL]

	probe        *http.Client
	connectivity *http.Client
	upload       *transport
	json         *transport

	log       *slog.Logger
	userAgent string
	now       func() time.Time

	randMu sync.Mutex
	rand   *rand.Rand
}

// transport is an HTTP client bound to the resolved base URL.
type transport struct {
	http *http.Client
	base atomic.Pointer[url.URL]
}

func (t *transport) bind(base *url.URL) {
	t.base.Store(base)
}

func (t *transport) url(path string) (string, error) {
	base := t.base.Load()
	if base == nil {
		return "", fmt.Errorf("transport not bound to an endpoint")
	}
	return base.ResolveReference(&url.URL{Path: path}).String(), nil
}

// NewClient builds a Client for the given candidates. Nothing is probed until
// the first network call.
func NewClient(opts Options) (*Client, error) {
	if len(opts.Endpoints) == 0 {
		return nil, fmt.Errorf("at least one endpoint is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	candidates := make([]*url.URL, 0, len(opts.Endpoints))
	for _, raw := range opts.Endpoints {
		u, err := ParseBaseURL(raw)
		if err != nil {
			return nil, err
		}
		if p := DroppedPath(raw); p != "" {
			logger.Warn("endpoint path ignored", "endpoint", u.String(), "path", p)
		}
		candidates = append(candidates, u)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	shared := newTransport()
	return &Client{
		candidates:   candidates,
		probe:        &http.Client{Timeout: orDefault(opts.ProbeTimeout, DefaultProbeTimeout), Transport: shared},
		connectivity: &http.Client{Timeout: orDefault(opts.ConnectivityTimeout, DefaultConnectivityTimeout), Transport: shared},
		upload:       &transport{http: &http.Client{Timeout: orDefault(opts.ClassifyTimeout, DefaultClassifyTimeout), Transport: shared}},
		json:         &transport{http: &http.Client{Timeout: orDefault(opts.DetectTimeout, DefaultDetectTimeout), Transport: shared}},
		log:          logger.With("component", "classifier"),
		userAgent:    defaultUserAgent,
		now:          now,
		rand:         rng,
	}, nil
}

// Candidates returns the configured base URLs in probe order.
func (c *Client) Candidates() []string {
	out := make([]string, len(c.candidates))
	for i, u := range c.candidates {
		out[i] = u.String()
	}
	return out
}

// Endpoint returns the resolved base URL, if resolution has succeeded.
func (c *Client) Endpoint() (string, bool) {
	if u := c.resolved.Load(); u != nil {
		return u.String(), true
	}
	return "", false
}

// Resolve returns the working base URL, probing candidates in order on the
// first call. The first candidate whose /health answers 2xx is cached for the
// lifetime of the Client and later candidates are not tried.
func (c *Client) Resolve(ctx context.Context) (string, error) {
	if u := c.resolved.Load(); u != nil {
		return u.String(), nil
	}

	c.resolveMu.Lock()
	defer c.resolveMu.Unlock()
	if u := c.resolved.Load(); u != nil {
		return u.String(), nil
	}

	var lastErr error
	for _, candidate := range c.candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		c.log.Debug("probing endpoint", "endpoint", candidate.String())
		if err := c.probeHealth(ctx, candidate); err != nil {
			c.log.Info("endpoint probe failed", "endpoint", candidate.String(), "error", err)
			lastErr = err
			continue
		}
		c.resolved.Store(candidate)
		c.upload.bind(candidate)
		c.json.bind(candidate)
		c.log.Info("endpoint resolved", "endpoint", candidate.String())
		return candidate.String(), nil
	}
	return "", fmt.Errorf("%w: %w", ErrNoEndpointAvailable, lastErr)
}

func (c *Client) probeHealth(ctx context.Context, base *url.URL) error {
	target := base.ResolveReference(&url.URL{Path: healthPath}).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.decorate(req, "")
	resp, err := c.probe.Do(req)
	if err != nil {
		return wrapTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Path: healthPath, Status: resp.StatusCode}
	}
	return nil
}

// CheckHealth resolves an endpoint and confirms it still answers /health.
func (c *Client) CheckHealth(ctx context.Context) bool {
	if _, err := c.Resolve(ctx); err != nil {
		c.log.Warn("health check failed", "error", err)
		return false
	}
	base := c.resolved.Load()
	if err := c.probeHealth(ctx, base); err != nil {
		c.log.Warn("health check failed", "endpoint", base.String(), "error", err)
		return false
	}
	return true
}

// Classify uploads img for breed classification. It never fails: on any error
// the outcome carries the error and a synthesized placeholder result.
func (c *Client) Classify(ctx context.Context, img Image) ClassifyOutcome {
	result, err := c.classify(ctx, img)
	if err != nil {
		c.log.Warn("classification failed, using placeholder", "image", img.Label, "error", err)
		return ClassifyOutcome{
			Source: SourceSynthesized,
			Result: c.synthesize(),
			Err:    err,
		}
	}
	c.log.Info("classification succeeded", "image", img.Label, "breed", result.PredictedBreed)
	return ClassifyOutcome{Source: SourceServer, Result: result}
}

func (c *Client) classify(ctx context.Context, img Image) (ClassificationResult, error) {
	if len(img.Data) == 0 {
		return ClassificationResult{}, fmt.Errorf("image data is empty")
	}
	endpoint, err := c.Resolve(ctx)
	if err != nil {
		return ClassificationResult{}, err
	}
	c.log.Debug("uploading image", "endpoint", endpoint, "bytes", len(img.Data))

	body, contentType, err := encodeImageForm(img.Data)
	if err != nil {
		return ClassificationResult{}, err
	}

	var result ClassificationResult
	if err := c.send(ctx, c.upload, classifyPath, contentType, body, &result); err != nil {
		return ClassificationResult{}, err
	}
	if err := result.validate(); err != nil {
		return ClassificationResult{}, err
	}
	return result, nil
}

func encodeImageForm(data []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, imageField, imageFileName))
	header.Set("Content-Type", imageMIME)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write form part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// Detect posts a single frame to the detection endpoint. Failures are
// reported in the outcome; no placeholder is produced.
func (c *Client) Detect(ctx context.Context, frame []byte) DetectOutcome {
	payload, err := c.detect(ctx, frame)
	if err != nil {
		c.log.Warn("detection failed", "error", err)
		return DetectOutcome{Err: err}
	}
	return DetectOutcome{Payload: payload}
}

func (c *Client) detect(ctx context.Context, frame []byte) (json.RawMessage, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("frame data is empty")
	}
	if _, err := c.Resolve(ctx); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(struct {
		Image string `json:"image"`
	}{Image: base64.StdEncoding.EncodeToString(frame)})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	var payload json.RawMessage
	if err := c.send(ctx, c.json, detectPath, "application/json", bytes.NewReader(encoded), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// TestConnectivity requests the root of every candidate and reports each
// result. It never stops early and does not affect resolution.
func (c *Client) TestConnectivity(ctx context.Context) []ProbeResult {
	results := make([]ProbeResult, 0, len(c.candidates))
	for _, candidate := range c.candidates {
		results = append(results, c.sweepOne(ctx, candidate))
	}
	return results
}

func (c *Client) sweepOne(ctx context.Context, base *url.URL) ProbeResult {
	result := ProbeResult{Endpoint: base.String(), Status: ProbeFailed}
	target := base.ResolveReference(&url.URL{Path: rootPath}).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	c.decorate(req, "")

	start := time.Now()
	resp, err := c.connectivity.Do(req)
	if err != nil {
		result.Error = wrapTransportError(err).Error()
		c.log.Debug("connectivity check failed", "endpoint", result.Endpoint, "error", result.Error)
		return result
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	elapsed := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Error = (&HTTPError{Path: rootPath, Status: resp.StatusCode}).Error()
		return result
	}
	result.Status = ProbeSuccess
	result.ResponseTime = elapsed
	result.Body = strings.TrimSpace(string(body))
	c.log.Debug("connectivity check succeeded", "endpoint", result.Endpoint, "elapsed", elapsed)
	return result
}

func (c *Client) send(ctx context.Context, t *transport, path, contentType string, body io.Reader, dest any) error {
	target, err := t.url(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.decorate(req, contentType)

	resp, err := t.http.Do(req)
	if err != nil {
		return wrapTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return wrapTransportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Path: path, Status: resp.StatusCode, Body: truncateBody(data)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if raw, ok := dest.(*json.RawMessage); ok {
		if !json.Valid(data) {
			return fmt.Errorf("%w: body is not JSON", ErrMalformedResponse)
		}
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) decorate(req *http.Request, contentType string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
}

func (c *Client) synthesize() ClassificationResult {
	c.randMu.Lock()
	defer c.randMu.Unlock()
	return Synthesize(c.rand, c.now())
}

// ParseBaseURL normalizes a candidate into scheme://host[:port] form. Bare
// host:port values are given an http scheme.
func ParseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("endpoint is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse endpoint %q: missing host", raw)
	}
	u.Path = ""
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// DroppedPath returns the path prefix that ParseBaseURL discards from raw, or
// "" when there is none.
func DroppedPath(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}
	return strings.TrimRight(u.Path, "/")
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
}

func truncateBody(data []byte) string {
	text := strings.TrimSpace(string(data))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// IsTimeout reports whether err was caused by a request timeout, either
// already tagged with ErrRequestTimeout or raw from the transport.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrRequestTimeout) || isTimeout(err)
}
