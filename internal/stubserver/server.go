// Package stubserver serves a stand-in for the classification service so the
// client can be developed and tested without the real model.
package stubserver

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/five82/cattlelens/internal/classifier"
)

const maxUploadBytes = 10 << 20

// ErrorResponse is the body returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DetectRequest is the body accepted by POST /detect.
type DetectRequest struct {
	Image string `json:"image" binding:"required"`
}

// Detection is one detected animal in a frame.
type Detection struct {
	Label      string     `json:"label"`
	Breed      string     `json:"breed"`
	Confidence float64    `json:"confidence"`
	Box        [4]float64 `json:"box"` // x, y, w, h as fractions of the frame
}

// DetectResponse is the body returned by POST /detect.
type DetectResponse struct {
	Detections []Detection `json:"detections"`
	FrameBytes int         `json:"frame_bytes"`
}

// AnalyzeResponse is the body returned by POST /analyze.
type AnalyzeResponse struct {
	Breed        string  `json:"breed"`
	BodyLengthCm int     `json:"bodyLengthCm"`
	ChestWidthCm int     `json:"chestWidthCm"`
	RumpAngleDeg int     `json:"rumpAngleDeg"`
	Score        float64 `json:"score"`
}

// Options configure the stub.
type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
}

// Handler implements the stub endpoints.
type Handler struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler returns a Handler.
func NewHandler(opts Options) *Handler {
	h := &Handler{logger: opts.Logger, now: opts.Now}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// NewRouter wires the stub endpoints onto a gin engine.
func NewRouter(opts Options) *gin.Engine {
	h := NewHandler(opts)

	r := gin.New()
	r.Use(gin.Recovery(), h.requestLog)

	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.HEAD("/health", h.Health)
	r.GET("/breeds", h.Breeds)
	r.POST("/classify", h.Classify)
	r.POST("/detect", h.Detect)
	r.POST("/analyze", h.Analyze)
	return r
}

func (h *Handler) requestLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.logger.Info("request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"duration", time.Since(start),
		"remote_addr", c.ClientIP(),
	)
}

// Root reports that the service is up. Used by connectivity sweeps.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":       "Cattle Breed Classification API",
		"status":        "running",
		"model_version": "stub",
	})
}

// Health handles GET/HEAD /health.
func (h *Handler) Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Breeds lists the labels the stub can predict.
func (h *Handler) Breeds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"breeds": classifier.MockBreeds})
}

// Classify accepts a multipart "image" upload and returns a result derived
// from the image bytes, so the same photo always gets the same answer.
func (h *Handler) Classify(c *gin.Context) {
	data, ok := h.readUpload(c)
	if !ok {
		return
	}
	result := classifier.Synthesize(seededRand(data), h.now())
	result.ModelVersion = "stub-1.0.0"
	c.JSON(http.StatusOK, result)
}

// Detect accepts {"image": "<base64>"} and returns one detection.
func (h *Handler) Detect(c *gin.Context) {
	var req DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("detect request rejected", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "image is required"})
		return
	}
	frame, err := base64.StdEncoding.DecodeString(strings.TrimSpace(req.Image))
	if err != nil || len(frame) == 0 {
		h.logger.Warn("detect frame not decodable", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "image must be base64 encoded"})
		return
	}

	r := seededRand(frame)
	result := classifier.Synthesize(r, h.now())
	x, y := r.Float64()*0.4, r.Float64()*0.4
	c.JSON(http.StatusOK, DetectResponse{
		Detections: []Detection{{
			Label:      "cattle",
			Breed:      result.PredictedBreed,
			Confidence: round2(result.ConfidenceScores[result.PredictedBreed] / 100),
			Box:        [4]float64{round2(x), round2(y), round2(0.3 + r.Float64()*0.3), round2(0.3 + r.Float64()*0.3)},
		}},
		FrameBytes: len(frame),
	})
}

// Analyze accepts a multipart "image" upload and returns breed and body
// measurements in the single-endpoint format.
func (h *Handler) Analyze(c *gin.Context) {
	data, ok := h.readUpload(c)
	if !ok {
		return
	}
	r := seededRand(data)
	result := classifier.Synthesize(r, h.now())
	c.JSON(http.StatusOK, AnalyzeResponse{
		Breed:        result.PredictedBreed,
		BodyLengthCm: 130 + r.IntN(20),
		ChestWidthCm: 45 + r.IntN(15),
		RumpAngleDeg: 18 + r.IntN(8),
		Score:        math.Round((6.5+r.Float64()*2.5)*10) / 10,
	})
}

func (h *Handler) readUpload(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	file, err := c.FormFile("image")
	if err != nil {
		h.logger.Warn("image upload missing", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "image file is required"})
		return nil, false
	}
	f, err := file.Open()
	if err != nil {
		h.logger.Error("open upload failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not read image"})
		return nil, false
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		h.logger.Error("read upload failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not read image"})
		return nil, false
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "image file is empty"})
		return nil, false
	}
	return data, true
}

func seededRand(data []byte) *rand.Rand {
	sum := sha256.Sum256(data)
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(sum[:8]), binary.LittleEndian.Uint64(sum[8:16])))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
