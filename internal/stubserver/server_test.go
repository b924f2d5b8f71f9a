package stubserver

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/cattlelens/internal/classifier"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fixed := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	return NewRouter(Options{Now: func() time.Time { return fixed }})
}

// createMultipartRequest builds a multipart upload for path.
func createMultipartRequest(t *testing.T, path, fieldName, fileName string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = io.Copy(part, bytes.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndRoot(t *testing.T) {
	r := newTestRouter(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodHead, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"running"`)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/breeds", nil))
	assert.JSONEq(t, `{"breeds":["Sahiwal","Gir","Red Sindhi"]}`, w.Body.String())
}

func TestClassify_DeterministicPerImage(t *testing.T) {
	r := newTestRouter(t)

	first := serve(r, createMultipartRequest(t, "/classify", "image", "cow.jpg", []byte("photo-a")))
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	second := serve(r, createMultipartRequest(t, "/classify", "image", "other.jpg", []byte("photo-a")))
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	var res classifier.ClassificationResult
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &res))
	assert.Contains(t, classifier.MockBreeds, res.PredictedBreed)
	assert.Equal(t, "stub-1.0.0", res.ModelVersion)
	assert.Equal(t, "2026-10-18T09:00:00Z", res.PredictionTime)

	var sum float64
	for _, pct := range res.ConfidenceScores {
		sum += pct
	}
	assert.InDelta(t, 100, sum, 0.01)
}

func TestClassify_RejectsBadInput(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		req  *http.Request
	}{
		{name: "wrong field", req: createMultipartRequest(t, "/classify", "photo", "cow.jpg", []byte("x"))},
		{name: "empty file", req: createMultipartRequest(t, "/classify", "image", "cow.jpg", nil)},
		{name: "not multipart", req: httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader("{}"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestDetect(t *testing.T) {
	r := newTestRouter(t)

	payload := `{"image":"` + base64.StdEncoding.EncodeToString([]byte("frame")) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/detect", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp DetectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Detections, 1)
	assert.Equal(t, "cattle", resp.Detections[0].Label)
	assert.Equal(t, 5, resp.FrameBytes)
	assert.Greater(t, resp.Detections[0].Confidence, 0.5)

	for _, body := range []string{`{}`, `{"image":"%%%"}`, `nope`} {
		req := httptest.NewRequest(http.MethodPost, "/detect", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := serve(r, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestAnalyze(t *testing.T) {
	r := newTestRouter(t)

	w := serve(r, createMultipartRequest(t, "/analyze", "image", "cow.png", []byte("photo-b")))
	require.Equal(t, http.StatusOK, w.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, classifier.MockBreeds, resp.Breed)
	assert.GreaterOrEqual(t, resp.BodyLengthCm, 130)
	assert.Less(t, resp.BodyLengthCm, 150)
	assert.GreaterOrEqual(t, resp.Score, 6.5)
	assert.LessOrEqual(t, resp.Score, 9.0)
}

func TestClient_AgainstStub(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t))
	t.Cleanup(srv.Close)

	c, err := classifier.NewClient(classifier.Options{Endpoints: []string{srv.URL}})
	require.NoError(t, err)

	out := c.Classify(t.Context(), classifier.Image{Data: []byte("photo-c"), Label: "c.jpg"})
	require.NoError(t, out.Err)
	assert.Equal(t, classifier.SourceServer, out.Source)

	det := c.Detect(t.Context(), []byte("frame"))
	require.NoError(t, det.Err)
	assert.Contains(t, string(det.Payload), `"detections"`)

	probes := c.TestConnectivity(t.Context())
	require.Len(t, probes, 1)
	assert.True(t, probes[0].OK())
}
