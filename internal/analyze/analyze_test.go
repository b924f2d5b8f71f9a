package analyze

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/cattlelens/internal/classifier"
)

func TestResolveBaseURL(t *testing.T) {
	env := func(v string) func(string) string {
		return func(key string) string {
			if key == EnvBaseURL {
				return v
			}
			return ""
		}
	}

	assert.Equal(t, "http://lan:8000", ResolveBaseURL("http://cfg:8000", env(" http://lan:8000 ")))
	assert.Equal(t, "http://cfg:8000", ResolveBaseURL(" http://cfg:8000 ", env("")))
	assert.Equal(t, DefaultBaseURL(runtime.GOOS), ResolveBaseURL("", env("")))

	assert.Equal(t, "http://10.0.2.2:8000", DefaultBaseURL("android"))
	assert.Equal(t, "http://127.0.0.1:8000", DefaultBaseURL("linux"))
}

func TestNormalize(t *testing.T) {
	got, err := Normalize([]byte(`{"breed":"Gir","bodyLengthCm":135,"chestWidthCm":48.5,"rumpAngleDeg":"19","score":7.8}`))
	require.NoError(t, err)
	assert.Equal(t, classifier.InfoFields{
		{Label: "Breed", Value: "Gir"},
		{Label: "Body Length", Value: "135 cm"},
		{Label: "Chest Width", Value: "48.5 cm"},
		{Label: "Rump Angle", Value: "19°"},
		{Label: "Score", Value: "7.8 / 10"},
	}, got.Details)
	assert.JSONEq(t, `{"breed":"Gir","bodyLengthCm":135,"chestWidthCm":48.5,"rumpAngleDeg":"19","score":7.8}`, string(got.Raw))
}

func TestNormalize_MissingFields(t *testing.T) {
	got, err := Normalize([]byte(`{"breed":null,"score":0}`))
	require.NoError(t, err)

	breed, _ := got.Details.Get("Breed")
	assert.Equal(t, "Unknown", breed)
	for _, label := range []string{"Body Length", "Chest Width", "Rump Angle"} {
		v, _ := got.Details.Get(label)
		assert.Equal(t, "—", v, label)
	}
	score, _ := got.Details.Get("Score")
	assert.Equal(t, "0 / 10", score)

	_, err = Normalize([]byte(`not json`))
	assert.ErrorIs(t, err, classifier.ErrMalformedResponse)
}

func TestAnalyze_UploadsMultipart(t *testing.T) {
	var gotName, gotType, gotAccept string
	var gotBytes []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		gotAccept = r.Header.Get("Accept")
		file, header, err := r.FormFile("image")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotBytes, _ = io.ReadAll(file)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"breed":"Sahiwal","bodyLengthCm":142,"chestWidthCm":55,"rumpAngleDeg":21,"score":8.5}`))
	}))
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "cow.PNG")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o600))

	c, err := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	got, err := c.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "cow.PNG", gotName)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, []byte("png-bytes"), gotBytes)

	breed, _ := got.Details.Get("Breed")
	assert.Equal(t, "Sahiwal", breed)
	rump, _ := got.Details.Get("Rump Angle")
	assert.Equal(t, "21°", rump)
}

func TestAnalyze_ErrorBodies(t *testing.T) {
	status := http.StatusUnprocessableEntity
	body := "image too blurry"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Analyze(context.Background(), "cow.jpg", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, "image too blurry", err.Error())

	body = ""
	status = http.StatusBadGateway
	_, err = c.Analyze(context.Background(), "cow.jpg", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, "HTTP 502", err.Error())

	_, err = c.Analyze(context.Background(), "cow.jpg", nil)
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(healthy.Close)

	c, err := NewClient(Options{BaseURL: healthy.URL})
	require.NoError(t, err)
	assert.NoError(t, c.HealthCheck(context.Background()))

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(failing.Close)
	c, err = NewClient(Options{BaseURL: failing.URL})
	require.NoError(t, err)
	err = c.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Equal(t, "health check failed: HTTP 503", err.Error())
}

func TestNewClient_WarnsOnIgnoredPath(t *testing.T) {
	var buf bytes.Buffer
	c, err := NewClient(Options{BaseURL: "http://10.0.0.5:8000/api", Logger: slog.New(slog.NewTextHandler(&buf, nil))})
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8000", c.BaseURL())
	assert.Contains(t, buf.String(), "analyze base URL path ignored")
	assert.Contains(t, buf.String(), "path=/api")
}

func TestHealthCheck_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(Options{BaseURL: url, HealthTimeout: time.Second})
	require.NoError(t, err)
	err = c.HealthCheck(context.Background())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "cannot reach backend at "+url), err.Error())
}
