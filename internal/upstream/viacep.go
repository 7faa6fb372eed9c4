package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/promata/reservas-gateway/internal/dto"
	"github.com/promata/reservas-gateway/internal/observability"
)

// DefaultViaCEPURL is the public ViaCEP endpoint.
const DefaultViaCEPURL = "https://viacep.com.br/ws"

// ViaCEP looks up Brazilian postal codes.
type ViaCEP struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewViaCEP builds a ViaCEP client. An empty baseURL uses the public endpoint.
func NewViaCEP(baseURL string, timeout time.Duration, transport http.RoundTripper, logger zerolog.Logger) *ViaCEP {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultViaCEPURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &ViaCEP{
		baseURL: base,
		http:    &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(transport)},
		logger:  logger.With().Str("component", "viacep_client").Logger(),
	}
}

// Lookup returns the address for an 8-digit CEP, or nil when ViaCEP does not know it.
func (v *ViaCEP) Lookup(ctx context.Context, cep string) (*dto.Address, error) {
	url := fmt.Sprintf("%s/%s/json/", v.baseURL, cep)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build viacep request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := v.http.Do(req)
	if err != nil {
		observability.UpstreamRequests().WithLabelValues("viacep", http.MethodGet, "error").Inc()
		return nil, fmt.Errorf("viacep lookup: %w", err)
	}
	defer resp.Body.Close()
	observability.UpstreamRequests().WithLabelValues("viacep", http.MethodGet, strconv.Itoa(resp.StatusCode)).Inc()
	observability.UpstreamLatency().WithLabelValues("viacep", http.MethodGet).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read viacep response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp.StatusCode, url, body)
	}

	var payload dto.ViaCEPResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &SchemaError{URL: url, Payload: invalidPayload(body), Issues: []string{err.Error()}}
	}
	if payload.NotFound() {
		v.logger.Debug().Str("cep", cep).Msg("cep not found")
		return nil, nil
	}

	address := payload.ToAddress()
	if address.CEP == "" {
		address.CEP = cep
	}
	return &address, nil
}
