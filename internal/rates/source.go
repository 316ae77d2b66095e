// Package rates fetches exchange-rate tables from a remote provider and keeps
// the latest table per base currency in memory.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"github.com/dmitrijs2005/fxkeeper/internal/logging"
	"github.com/dmitrijs2005/fxkeeper/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxBodySize caps how much of a provider response is read.
const maxBodySize = 1 << 20

// Source performs one remote lookup of rates relative to base.
// Every failure is reported as common.ErrUnavailable.
type Source interface {
	Fetch(ctx context.Context, base string) (*models.RateTable, error)
}

// HTTPSource queries a JSON endpoint with a single GET. The endpoint contains
// a "{base}" placeholder, e.g. https://open.er-api.com/v6/latest/{base}.
type HTTPSource struct {
	client   *http.Client
	endpoint string
	log      logging.Logger
}

// NewHTTPSource returns a source whose requests are bounded by timeout.
func NewHTTPSource(endpoint string, timeout time.Duration, log logging.Logger) *HTTPSource {
	if log == nil {
		log = logging.Discard()
	}
	return &HTTPSource{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		log:      log.With("component", "rates.http"),
	}
}

type ratesPayload struct {
	Result          string                     `json:"result"`
	ErrorType       string                     `json:"error-type"`
	BaseCode        string                     `json:"base_code"`
	Rates           map[string]decimal.Decimal `json:"rates"`
	ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
}

func (s *HTTPSource) Fetch(ctx context.Context, base string) (*models.RateTable, error) {
	reqID := uuid.NewString()
	addr := strings.ReplaceAll(s.endpoint, "{base}", url.PathEscape(base))
	log := s.log.With("request_id", reqID, "base", base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, unavailable("build request", err)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		log.Warn(ctx, "rate request failed", "error", err)
		return nil, unavailable("GET "+req.URL.Host, err)
	}
	defer resp.Body.Close()

	log.Debug(ctx, "rate response", "status", resp.StatusCode, "elapsed", time.Since(started))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s/%s: %s", common.ErrUnavailable, req.URL.Host, req.URL.Path, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, unavailable("read body", err)
	}

	var p ratesPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, unavailable("decode body", err)
	}
	return p.table(base)
}

func (p *ratesPayload) table(base string) (*models.RateTable, error) {
	if p.Result != "" && p.Result != "success" {
		return nil, fmt.Errorf("%w: provider reported %q %s", common.ErrUnavailable, p.Result, p.ErrorType)
	}
	if p.BaseCode != "" && !strings.EqualFold(p.BaseCode, base) {
		return nil, fmt.Errorf("%w: asked for %s, got %s", common.ErrUnavailable, base, p.BaseCode)
	}

	src := p.Rates
	if len(src) == 0 {
		src = p.ConversionRates
	}
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: response carries no rates", common.ErrUnavailable)
	}

	rates := make(map[string]decimal.Decimal, len(src))
	for code, r := range src {
		if !r.IsPositive() {
			return nil, fmt.Errorf("%w: non-positive rate %s for %s", common.ErrUnavailable, r, code)
		}
		rates[strings.ToUpper(code)] = r
	}
	return &models.RateTable{BaseCode: base, Rates: rates}, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrUnavailable, op, err)
}
