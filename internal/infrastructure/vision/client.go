package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/semaphore"

	"image-analyzer/internal/domain/entity"
	"image-analyzer/internal/domain/port"
)

const (
	analyzePath = "/computervision/imageanalysis:analyze"
	apiVersion  = "2024-02-01"
	keyHeader   = "Ocp-Apim-Subscription-Key"

	// MaxPayloadBytes наибольший размер изображения, который принимает сервис
	MaxPayloadBytes = 20 << 20
)

// Options параметры клиента
type Options struct {
	Timeout         time.Duration // таймаут одного запроса
	MaxAttempts     int           // всего попыток, включая первую
	MaxInFlight     int           // одновременных запросов на процесс
	InitialInterval time.Duration // первая пауза перед повтором
	MaxInterval     time.Duration
}

// DefaultOptions значения по умолчанию
func DefaultOptions() Options {
	return Options{
		Timeout:         30 * time.Second,
		MaxAttempts:     4,
		MaxInFlight:     4,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     8 * time.Second,
	}
}

// Client REST-клиент сервиса анализа изображений
type Client struct {
	http   *resty.Client
	opts   Options
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// NewClient создаёт клиента для endpoint с ключом подписки.
func NewClient(endpoint, key string, opts Options, logger *slog.Logger) *Client {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = def.MaxInFlight
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = def.InitialInterval
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = def.MaxInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(endpoint, "/")).
		SetTimeout(opts.Timeout).
		SetHeader(keyHeader, key).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		opts:   opts,
		sem:    semaphore.NewWeighted(int64(opts.MaxInFlight)),
		logger: logger.With("component", "vision"),
	}
}

// Analyze отправляет изображение и возвращает нормализованный ответ.
// 429, 5xx и сетевые ошибки повторяются с экспоненциальной паузой.
func (c *Client) Analyze(ctx context.Context, req entity.AnalysisRequest, features []entity.Feature) (*entity.AnalysisResponse, error) {
	const op = "vision.analyze"

	if len(req.Data) == 0 {
		return nil, entity.NewError(entity.KindInvalidRequest, op, "image is empty")
	}
	if len(req.Data) > MaxPayloadBytes {
		return nil, entity.NewError(entity.KindPayloadTooLarge, op,
			fmt.Sprintf("image is %d bytes, limit is %d", len(req.Data), MaxPayloadBytes))
	}
	if len(features) == 0 {
		return nil, entity.NewError(entity.KindInvalidRequest, op, "no features requested")
	}

	names := make([]string, len(features))
	for i, f := range features {
		names[i] = string(f)
	}
	featureParam := strings.Join(names, ",")

	var result *entity.AnalysisResponse
	attempt := 0
	operation := func() error {
		attempt++
		resp, err := c.send(ctx, req, featureParam)
		if err != nil {
			return err
		}
		result = resp
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("retrying analysis", "file", req.Filename, "attempt", attempt, "wait", wait, "error", err)
	}

	err := backoff.RetryNotify(operation, c.retryPolicy(ctx), notify)
	if err != nil {
		if ctx.Err() != nil {
			return nil, entity.WrapError(entity.KindCancelled, op, "analysis cancelled", ctx.Err())
		}
		return nil, err
	}
	return result, nil
}

func (c *Client) retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.InitialInterval
	b.MaxInterval = c.opts.MaxInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.opts.MaxAttempts-1)), ctx)
}

// send выполняет одну попытку. Неповторяемые ошибки оборачиваются в backoff.Permanent.
func (c *Client) send(ctx context.Context, req entity.AnalysisRequest, features string) (*entity.AnalysisResponse, error) {
	const op = "vision.send"

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, backoff.Permanent(entity.WrapError(entity.KindCancelled, op, "analysis cancelled", err))
	}
	defer c.sem.Release(1)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetQueryParam("api-version", apiVersion).
		SetQueryParam("features", features).
		SetBody(req.Data).
		Post(analyzePath)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(entity.WrapError(entity.KindCancelled, op, "analysis cancelled", ctx.Err()))
		}
		return nil, entity.WrapError(entity.KindTransport, op, "request failed", err)
	}

	status := resp.StatusCode()
	switch {
	case status == http.StatusTooManyRequests:
		return nil, statusError(entity.KindRateLimitExceeded, status, resp.Body())
	case status >= 500:
		return nil, statusError(entity.KindServiceUnavailable, status, resp.Body())
	case status == http.StatusRequestEntityTooLarge:
		return nil, backoff.Permanent(statusError(entity.KindPayloadTooLarge, status, resp.Body()))
	case status >= 400:
		return nil, backoff.Permanent(statusError(entity.KindInvalidRequest, status, resp.Body()))
	case status < 200 || status >= 300:
		return nil, backoff.Permanent(statusError(entity.KindMalformedResponse, status, resp.Body()))
	}

	decoded, err := decodeResponse(resp.Body())
	if err != nil {
		return nil, backoff.Permanent(entity.WrapError(entity.KindMalformedResponse, op, "cannot decode response", err))
	}
	return decoded, nil
}

func statusError(kind entity.ErrorKind, status int, body []byte) *entity.Error {
	return &entity.Error{
		Kind:    kind,
		Op:      "vision.send",
		Message: fmt.Sprintf("service returned %d", status),
		Cause:   errors.New(serviceMessage(body)),
	}
}

// serviceMessage достаёт error.message из тела ответа, иначе начало тела.
func serviceMessage(body []byte) string {
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		if payload.Error.Code != "" {
			return payload.Error.Code + ": " + payload.Error.Message
		}
		return payload.Error.Message
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		text = "empty body"
	}
	return text
}

var _ port.ImageAnalyzer = (*Client)(nil)
