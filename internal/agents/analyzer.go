package agents

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"setup-memory/internal/errors"
	"setup-memory/internal/logging"
	"setup-memory/internal/memory"
	"setup-memory/internal/models"
	"setup-memory/pkg/utils"
)

// HistorySource supplies the trader's stored setup statistics.
type HistorySource interface {
	GetAll(ctx context.Context) models.StatsMapping
}

// ChartRequest describes one chart to analyze.
type ChartRequest struct {
	ImageBase64 string
	MediaType   string
	Asset       string
	Timeframe   string
	SourceTitle string
}

// Analyzer runs the chart analysis pipeline: history summary, prompt,
// vision call, response parsing and warning evaluation.
type Analyzer struct {
	vision  VisionClient
	history HistorySource
	parser  *Parser
	retry   utils.RetryConfig
	logger  zerolog.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(vision VisionClient, history HistorySource, logger zerolog.Logger) *Analyzer {
	retry := utils.DefaultRetryConfig()
	retry.ShouldRetry = isRetryable

	return &Analyzer{
		vision:  vision,
		history: history,
		parser:  NewParser(),
		retry:   retry,
		logger:  logging.WithProvider(logger, vision.Provider()),
	}
}

// WithRetry overrides the retry policy for provider calls.
func (a *Analyzer) WithRetry(cfg utils.RetryConfig) *Analyzer {
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = isRetryable
	}
	a.retry = cfg
	return a
}

// AnalyzeChart classifies the chart and attaches a warning when the detected
// setup has a poor track record.
func (a *Analyzer) AnalyzeChart(ctx context.Context, req ChartRequest) (*models.AnalysisResult, error) {
	if strings.TrimSpace(req.ImageBase64) == "" {
		return nil, errors.NewValidationError("image", "", "chart image is required")
	}

	history := a.history.GetAll(ctx)
	prompt := BuildPrompt(PromptInput{
		Asset:       req.Asset,
		Timeframe:   req.Timeframe,
		SourceTitle: req.SourceTitle,
		History:     memory.Summarize(history),
	})

	visionReq := VisionRequest{
		Prompt:      prompt,
		ImageBase64: req.ImageBase64,
		MediaType:   req.MediaType,
	}

	reply, err := utils.RetryWithResult(ctx, a.retry, func() (string, error) {
		start := time.Now()
		text, err := a.vision.Analyze(ctx, visionReq)
		logging.LogAPICall(a.logger, a.vision.Provider(), a.vision.Model(), time.Since(start), err)
		return text, err
	})
	if err != nil {
		return nil, errors.NewAgentError(a.vision.Provider(), "analyze chart", err)
	}

	result := a.parser.Parse(reply, history)

	logging.LogAnalysis(a.logger, req.Asset, req.Timeframe, result.SetupType, result.HasWarning())
	if result.HasWarning() {
		logging.LogWarning(a.logger, result.SetupType, result.Warning)
	}

	return &result, nil
}

// isRetryable skips retries for failures another attempt cannot fix.
func isRetryable(err error) bool {
	return !errors.Is(err, errors.ErrInvalidInput) &&
		!errors.Is(err, errors.ErrMissingAPIKey) &&
		!errors.Is(err, errors.ErrProviderNotFound)
}

// LoadChartImage reads an image file and returns it base64-encoded with its media type.
func LoadChartImage(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading chart image: %w", err)
	}
	if len(data) == 0 {
		return "", "", errors.NewValidationError("image", path, "file is empty")
	}

	mediaType, err := detectImageType(data)
	if err != nil {
		return "", "", errors.NewValidationError("image", path, err.Error())
	}
	return base64.StdEncoding.EncodeToString(data), mediaType, nil
}

func detectImageType(data []byte) (string, error) {
	switch {
	case len(data) >= 8 && string(data[:8]) == "\x89PNG\r\n\x1a\n":
		return "image/png", nil
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg", nil
	case len(data) >= 6 && (string(data[:6]) == "GIF87a" || string(data[:6]) == "GIF89a"):
		return "image/gif", nil
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp", nil
	default:
		return "", fmt.Errorf("unsupported image format (want png, jpeg, gif or webp)")
	}
}
