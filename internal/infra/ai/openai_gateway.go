// Package ai implements the vision model gateway on top of the OpenAI chat completions API.
package ai

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"globalchek/config"
	"globalchek/internal/domain/entity"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/service"
	"globalchek/internal/infra/metrics"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/fx"
)

const (
	operationOCR   = "extract_document"
	operationFraud = "detect_fraud"
	operationFace  = "compare_faces"

	defaultModel              = openai.GPT4o
	defaultTimeout            = 60 * time.Second
	defaultMaxRetries         = 2
	defaultBreakerFailures    = 5
	defaultBreakerCooldown    = 30 * time.Second
	defaultFaceMatchThreshold = 85
	defaultRetryInterval      = 500 * time.Millisecond
)

var errEmptyCompletion = errors.New("empty completion")

// ChatClient is the subset of the OpenAI client used by the gateway.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type gatewaySettings struct {
	model              string
	timeout            time.Duration
	maxRetries         int
	retryInterval      time.Duration
	faceMatchThreshold int
	breakerFailures    int
	breakerCooldown    time.Duration
}

type openAIGateway struct {
	client   ChatClient
	settings gatewaySettings
	breaker  *gobreaker.CircuitBreaker
	logger   *slog.Logger
}

// Params holds dependencies for the gateway, injected by Fx
type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewOpenAIGateway builds the gateway from configuration. Without an API key every
// call fails with ErrAIUnavailable.
func NewOpenAIGateway(params Params) service.AIGateway {
	settings := gatewaySettings{
		model:              defaultModel,
		timeout:            defaultTimeout,
		maxRetries:         defaultMaxRetries,
		retryInterval:      defaultRetryInterval,
		faceMatchThreshold: defaultFaceMatchThreshold,
		breakerFailures:    defaultBreakerFailures,
		breakerCooldown:    defaultBreakerCooldown,
	}
	if v := params.Config.Verification; v != nil && v.FaceMatchThreshold != nil {
		settings.faceMatchThreshold = *v.FaceMatchThreshold
	}

	cfg := params.Config.AI
	if cfg == nil || cfg.APIKey == "" {
		params.Logger.Warn("AI API key not configured, document analysis is disabled")

		return newGateway(nil, settings, params.Logger)
	}

	if cfg.Model != "" {
		settings.model = cfg.Model
	}
	if cfg.Timeout > 0 {
		settings.timeout = cfg.Timeout
	}
	if cfg.MaxRetries >= 0 {
		settings.maxRetries = cfg.MaxRetries
	}
	if cfg.BreakerFailures > 0 {
		settings.breakerFailures = cfg.BreakerFailures
	}
	if cfg.BreakerCooldown > 0 {
		settings.breakerCooldown = cfg.BreakerCooldown
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return newGateway(openai.NewClientWithConfig(clientCfg), settings, params.Logger)
}

func newGateway(client ChatClient, settings gatewaySettings, logger *slog.Logger) *openAIGateway {
	g := &openAIGateway{
		client:   client,
		settings: settings,
		logger:   logger,
	}
	failures := uint32(max(settings.breakerFailures, 1))
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "openai",
		Timeout: settings.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Requests the provider rejected on their merits say nothing about its health.
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("AI circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return g
}

// ExtractDocumentData reads the identity fields of a document image.
func (g *openAIGateway) ExtractDocumentData(ctx context.Context, document service.Image, documentType entity.DocumentType) (*entity.OCRResult, error) {
	req := g.request(ocrPrompt(documentType), ocrMaxTokens, ocrTemperature, document)

	content, err := g.complete(ctx, operationOCR, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := parseOCR(content)
	if err != nil {
		metrics.RecordAICall(operationOCR, metrics.AIOutcomeInvalid, time.Since(start))

		return nil, err
	}
	g.logger.InfoContext(ctx, "Document OCR completed",
		slog.String("document_type", string(documentType)),
		slog.Int("confidence", result.Confidence),
	)

	return result, nil
}

// DetectFraud scores the document for tampering, using the OCR output as context.
func (g *openAIGateway) DetectFraud(ctx context.Context, document service.Image, ocr *entity.OCRResult) (*entity.FraudAnalysis, error) {
	prompt, err := fraudPrompt(ocr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode ocr context")
	}
	req := g.request(prompt, fraudMaxTokens, fraudTemperature, document)

	content, err := g.complete(ctx, operationFraud, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := parseFraud(content)
	if err != nil {
		metrics.RecordAICall(operationFraud, metrics.AIOutcomeInvalid, time.Since(start))

		return nil, err
	}
	g.logger.InfoContext(ctx, "Fraud detection completed",
		slog.Int("fraud_score", result.FraudScore),
		slog.String("risk_level", string(result.RiskLevel)),
	)

	return result, nil
}

// CompareFaces compares the portrait on the document with a selfie.
func (g *openAIGateway) CompareFaces(ctx context.Context, document, selfie service.Image) (*entity.FaceComparison, error) {
	req := g.request(facePrompt(g.settings.faceMatchThreshold), faceMaxTokens, faceTemperature, document, selfie)

	content, err := g.complete(ctx, operationFace, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := parseFace(content, g.settings.faceMatchThreshold)
	if err != nil {
		metrics.RecordAICall(operationFace, metrics.AIOutcomeInvalid, time.Since(start))

		return nil, err
	}
	g.logger.InfoContext(ctx, "Face comparison completed",
		slog.Int("match_score", result.MatchScore),
		slog.Bool("is_match", result.IsMatch),
	)

	return result, nil
}

func (g *openAIGateway) request(prompt string, maxTokens int, temperature float32, images ...service.Image) openai.ChatCompletionRequest {
	parts := make([]openai.ChatMessagePart, 0, len(images)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: prompt,
	})
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    dataURL(img),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	return openai.ChatCompletionRequest{
		Model: g.settings.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
}

// complete runs one chat completion through the breaker and the retry policy.
func (g *openAIGateway) complete(ctx context.Context, operation string, req openai.ChatCompletionRequest) (string, error) {
	if g.client == nil {
		return "", errors.Wrap(domainerrors.ErrAIUnavailable, "AI provider is not configured")
	}

	start := time.Now()
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.completeWithRetry(ctx, operation, req)
	})
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.RecordAICall(operation, metrics.AIOutcomeCircuitOpen, time.Since(start))

			return "", errors.Wrap(domainerrors.ErrAIUnavailable, "AI provider circuit is open")
		case errors.Is(err, errEmptyCompletion):
			metrics.RecordAICall(operation, metrics.AIOutcomeInvalid, time.Since(start))

			return "", invalidResponse("provider returned no content")
		case isTransient(err), errors.Is(err, context.Canceled):
			metrics.RecordAICall(operation, metrics.AIOutcomeError, time.Since(start))
			g.logger.ErrorContext(ctx, "AI call failed", slog.String("operation", operation), slog.Any("error", err))

			return "", errors.Wrapf(domainerrors.ErrAIUnavailable, "%s: %v", operation, err)
		default:
			metrics.RecordAICall(operation, metrics.AIOutcomeError, time.Since(start))
			g.logger.ErrorContext(ctx, "AI request rejected", slog.String("operation", operation), slog.Any("error", err))

			return "", errors.Wrapf(domainerrors.ErrAIRequestRejected, "%s: %v", operation, err)
		}
	}

	metrics.RecordAICall(operation, metrics.AIOutcomeSuccess, time.Since(start))

	return out.(string), nil
}

func (g *openAIGateway) completeWithRetry(ctx context.Context, operation string, req openai.ChatCompletionRequest) (string, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(backoff.WithInitialInterval(g.settings.retryInterval)),
			uint64(max(g.settings.maxRetries, 0)),
		),
		ctx,
	)

	return backoff.RetryNotifyWithData(func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.settings.timeout)
		defer cancel()

		resp, err := g.client.CreateChatCompletion(callCtx, req)
		if err != nil {
			if isTransient(err) {
				return "", err
			}

			return "", backoff.Permanent(err)
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return "", backoff.Permanent(errEmptyCompletion)
		}

		return resp.Choices[0].Message.Content, nil
	}, policy, func(err error, wait time.Duration) {
		g.logger.WarnContext(ctx, "AI call failed, retrying",
			slog.String("operation", operation),
			slog.Duration("wait", wait),
			slog.Any("error", err),
		)
	})
}

// isTransient reports whether a provider error is worth retrying: rate limits,
// server errors, timeouts and transport failures.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errEmptyCompletion) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError || code == 0
}

func dataURL(img service.Image) string {
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
