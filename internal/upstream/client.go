package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/promata/reservas-gateway/internal/observability"
)

const (
	DefaultTimeout     = 3 * time.Second
	DefaultListTimeout = 10 * time.Second
	MaxRetries         = 2

	maxBackoffInterval = time.Second
)

// Config configures the backend client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	ListTimeout time.Duration
	Retries     int
	Transport   http.RoundTripper
}

// Client performs authenticated JSON calls against the reservation backend.
type Client struct {
	baseURL     string
	http        *http.Client
	timeout     time.Duration
	listTimeout time.Duration
	retries     int
	backoff     func() backoff.BackOff
	group       singleflight.Group
	logger      zerolog.Logger
}

// NewClient builds a backend client. Retries are clamped to [0, MaxRetries].
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("backend url must not be empty")
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	listTimeout := cfg.ListTimeout
	if listTimeout <= 0 {
		listTimeout = DefaultListTimeout
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	if retries > MaxRetries {
		retries = MaxRetries
	}

	return &Client{
		baseURL:     base,
		http:        &http.Client{Transport: otelhttp.NewTransport(transport)},
		timeout:     timeout,
		listTimeout: listTimeout,
		retries:     retries,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = maxBackoffInterval
			return b
		},
		logger: logger.With().Str("component", "upstream_client").Logger(),
	}, nil
}

type credentialsKey struct{}

type credentials struct {
	token         string
	correlationID string
}

// WithCredentials binds the caller's bearer token and correlation id to ctx. Every call
// made with the returned context forwards them to the backend.
func WithCredentials(ctx context.Context, token, correlationID string) context.Context {
	return context.WithValue(ctx, credentialsKey{}, credentials{
		token:         strings.TrimSpace(token),
		correlationID: strings.TrimSpace(correlationID),
	})
}

func credentialsFrom(ctx context.Context) credentials {
	if creds, ok := ctx.Value(credentialsKey{}).(credentials); ok {
		return creds
	}
	return credentials{}
}

// Option tunes a single call.
type Option func(*callOptions)

type callOptions struct {
	resource string
	list     bool
}

// List uses the longer timeout reserved for list endpoints.
func List() Option {
	return func(o *callOptions) { o.list = true }
}

// Resource labels the call in metrics and logs.
func Resource(name string) Option {
	return func(o *callOptions) { o.resource = name }
}

// File is an uploaded file forwarded in a multipart body.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// Multipart is a form forwarded to the backend.
type Multipart struct {
	Fields map[string][]string
	Files  []File
}

// Get fetches path and returns the raw body. Identical concurrent GETs made with the same
// credentials share one backend call, which carries the first caller's correlation id. The
// shared call is detached from any single caller's cancellation and bounded by the client's
// own timeouts; each caller stops waiting when its own ctx ends. Network failures and 5xx
// answers are retried.
func (c *Client) Get(ctx context.Context, path string, opts ...Option) ([]byte, error) {
	creds := credentialsFrom(ctx)
	key := creds.token + " " + path

	flight := c.group.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightBudget(opts))
		defer cancel()
		return c.doWithRetry(flightCtx, http.MethodGet, path, nil, "", opts)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s %s: %w", http.MethodGet, c.resolve(path), ctx.Err())
	case result := <-flight:
		if result.Shared {
			c.logger.Debug().Str("path", path).Str("correlation_id", creds.correlationID).Msg("joined in-flight backend request")
		}
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Val.([]byte), nil
	}
}

// flightBudget bounds a shared GET: every attempt at its timeout plus the longest backoff
// between attempts.
func (c *Client) flightBudget(opts []Option) time.Duration {
	var options callOptions
	for _, opt := range opts {
		opt(&options)
	}
	timeout := c.timeout
	if options.list {
		timeout = c.listTimeout
	}
	return time.Duration(c.retries+1)*timeout + time.Duration(c.retries)*maxBackoffInterval
}

// GetJSON fetches path and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any, opts ...Option) error {
	body, err := c.Get(ctx, path, opts...)
	if err != nil {
		return err
	}
	return decodeBody(body, out)
}

// SendJSON sends body as JSON and decodes the answer into out when out is not nil.
func (c *Client) SendJSON(ctx context.Context, method, path string, body any, out any, opts ...Option) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = encoded
	}

	resp, err := c.do(ctx, method, path, payload, "application/json", opts)
	if err != nil {
		return err
	}
	return decodeBody(resp, out)
}

// SendMultipart sends form as multipart/form-data.
func (c *Client) SendMultipart(ctx context.Context, method, path string, form Multipart, out any, opts ...Option) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, values := range form.Fields {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				return fmt.Errorf("write form field %s: %w", key, err)
			}
		}
	}
	for _, file := range form.Files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Name))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("create form file %s: %w", file.Field, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return fmt.Errorf("write form file %s: %w", file.Field, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}

	resp, err := c.do(ctx, method, path, buf.Bytes(), writer.FormDataContentType(), opts)
	if err != nil {
		return err
	}
	return decodeBody(resp, out)
}

// Delete issues a DELETE for path.
func (c *Client) Delete(ctx context.Context, path string, opts ...Option) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, "", opts)
	return err
}

func (c *Client) doWithRetry(ctx context.Context, method, path string, body []byte, contentType string, opts []Option) ([]byte, error) {
	var result []byte
	attempt := 0
	operation := func() error {
		attempt++
		resp, err := c.do(ctx, method, path, body, contentType, opts)
		if err != nil {
			if !retryable(ctx, err) {
				return backoff.Permanent(err)
			}
			if attempt <= c.retries {
				c.logger.Warn().Err(err).Str("path", path).Int("attempt", attempt).Msg("retrying backend request")
			}
			return err
		}
		result = resp
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.backoff(), uint64(c.retries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return result, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var schemaErr *SchemaError
	return !errors.As(err, &schemaErr)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string, opts []Option) ([]byte, error) {
	options := callOptions{resource: resourceFromPath(path)}
	for _, opt := range opts {
		opt(&options)
	}

	timeout := c.timeout
	if options.list {
		timeout = c.listTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := c.resolve(path)
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(callCtx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	creds := credentialsFrom(ctx)
	if creds.token != "" {
		req.Header.Set("Authorization", "Bearer "+creds.token)
	}
	if creds.correlationID != "" {
		req.Header.Set("X-Correlation-ID", creds.correlationID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		observability.UpstreamRequests().WithLabelValues(options.resource, method, "error").Inc()
		c.logger.Error().Err(err).Str("method", method).Str("url", url).Dur("elapsed", elapsed).Msg("backend request failed")
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	observability.UpstreamRequests().WithLabelValues(options.resource, method, strconv.Itoa(resp.StatusCode)).Inc()
	observability.UpstreamLatency().WithLabelValues(options.resource, method).Observe(elapsed.Seconds())

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, url, payload)
		event := c.logger.Warn()
		if apiErr.Temporary() {
			event = c.logger.Error()
		}
		event.Str("method", method).Str("url", url).Int("status", resp.StatusCode).Str("code", apiErr.Code).Msg("backend returned error")
		return nil, apiErr
	}

	return payload, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func resourceFromPath(path string) string {
	trimmed := strings.TrimLeft(path, "/")
	if idx := strings.IndexAny(trimmed, "/?"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}

func decodeBody(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}
