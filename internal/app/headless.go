package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/five82/cattlelens/internal/analyze"
	"github.com/five82/cattlelens/internal/classifier"
	"github.com/five82/cattlelens/internal/config"
	"github.com/five82/cattlelens/internal/history"
)

type classifyReport struct {
	Source string                          `json:"source"`
	Image  string                          `json:"image"`
	Result classifier.ClassificationResult `json:"result"`
	Error  string                          `json:"error,omitempty"`
}

type detectReport struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type connectivityReport struct {
	Endpoint     string `json:"endpoint"`
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
	Body         string `json:"body,omitempty"`
}

type analyzeReport struct {
	BaseURL string                `json:"base_url"`
	Details classifier.InfoFields `json:"details"`
	Raw     json.RawMessage       `json:"raw"`
}

func runClassify(ctx context.Context, svc classifier.Service, hist history.Store, path string, w io.Writer, logger *slog.Logger) error {
	img, err := classifier.LoadImage(path)
	if err != nil {
		return err
	}
	outcome := svc.Classify(ctx, img)
	if hist != nil {
		if _, err := hist.Record(ctx, history.FromOutcome(img.Label, outcome)); err != nil {
			logger.Warn("record history failed", "error", err)
		}
	}
	return writeJSON(w, classifyReport{
		Source: outcome.Source.String(),
		Image:  img.Label,
		Result: outcome.Result,
		Error:  outcome.Message(),
	})
}

func runDetect(ctx context.Context, svc classifier.Service, path string, w io.Writer) error {
	img, err := classifier.LoadImage(path)
	if err != nil {
		return err
	}
	outcome := svc.Detect(ctx, img.Data)
	if err := writeJSON(w, detectReport{Success: outcome.Success(), Data: outcome.Payload, Error: outcome.Message()}); err != nil {
		return err
	}
	if !outcome.Success() {
		return fmt.Errorf("detect: %w", outcome.Err)
	}
	return nil
}

func runConnectivity(ctx context.Context, svc classifier.Service, w io.Writer) error {
	results := svc.TestConnectivity(ctx)
	reports := make([]connectivityReport, 0, len(results))
	for _, r := range results {
		rep := connectivityReport{Endpoint: r.Endpoint, Status: string(r.Status), Error: r.Error, Body: r.Body}
		if r.ResponseTime > 0 {
			rep.ResponseTime = r.ResponseTime.String()
		}
		reports = append(reports, rep)
	}
	return writeJSON(w, reports)
}

func runAnalyze(ctx context.Context, cfg config.Config, path string, w io.Writer, logger *slog.Logger) error {
	client, err := analyze.NewClient(analyze.Options{
		BaseURL: analyze.ResolveBaseURL(cfg.AnalyzeURL, nil),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("init analyze client: %w", err)
	}
	if err := client.HealthCheck(ctx); err != nil {
		return err
	}
	result, err := client.AnalyzeFile(ctx, path)
	if err != nil {
		return err
	}

	return writeJSON(w, analyzeReport{BaseURL: client.BaseURL(), Details: result.Details, Raw: result.Raw})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
