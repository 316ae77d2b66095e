package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"github.com/dmitrijs2005/fxkeeper/internal/logging"
	"github.com/dmitrijs2005/fxkeeper/internal/models"
	"github.com/dmitrijs2005/fxkeeper/internal/repositories/history"
	"github.com/shopspring/decimal"
)

// ConversionService converts amounts and keeps the history of the signed-in
// account.
type ConversionService interface {
	FetchRates(ctx context.Context, base string) (*models.RateTable, error)
	EnsureRates(ctx context.Context, base string) (*models.RateTable, error)
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*models.ConversionRecord, error)
	ListHistory(ctx context.Context) ([]models.ConversionRecord, error)
}

type conversionService struct {
	rates   RateCache
	history history.Repository
	session SessionCache
	maxAge  time.Duration
	now     func() time.Time
	log     logging.Logger
}

// NewConversionService builds the service. Tables older than maxAge are
// refetched before use.
func NewConversionService(rates RateCache, hist history.Repository, sess SessionCache,
	maxAge time.Duration, log logging.Logger) ConversionService {
	if log == nil {
		log = logging.Discard()
	}
	return &conversionService{
		rates:   rates,
		history: hist,
		session: sess,
		maxAge:  maxAge,
		now:     time.Now,
		log:     log.With("component", "conversion"),
	}
}

// NormalizeCode upper-cases code and checks that it is three letters.
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 || strings.IndexFunc(code, func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
		return "", fmt.Errorf("%w: currency code %q must be 3 letters", common.ErrInvalidArgument, code)
	}
	return code, nil
}

func (s *conversionService) FetchRates(ctx context.Context, base string) (*models.RateTable, error) {
	base, err := NormalizeCode(base)
	if err != nil {
		return nil, err
	}
	return s.rates.Fetch(ctx, base)
}

// EnsureRates returns a table for base that is fresh enough, fetching when
// needed. If the fetch fails and an older table is cached it is returned.
func (s *conversionService) EnsureRates(ctx context.Context, base string) (*models.RateTable, error) {
	base, err := NormalizeCode(base)
	if err != nil {
		return nil, err
	}

	cached := s.rates.Get(base)
	if cached != nil && !cached.IsStale(s.now(), s.maxAge) {
		return cached, nil
	}

	fresh, err := s.rates.Fetch(ctx, base)
	if err == nil {
		return fresh, nil
	}
	if cached != nil {
		s.log.Warn(ctx, "using stale rates", "base", base, "fetched_at", cached.FetchedAt, "error", err)
		return cached, nil
	}
	return nil, err
}

func (s *conversionService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*models.ConversionRecord, error) {
	from, errFrom := NormalizeCode(from)
	to, errTo := NormalizeCode(to)
	if err := errors.Join(errFrom, errTo); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", common.ErrInvalidArgument)
	}

	if from != to {
		if _, err := s.EnsureRates(ctx, from); err != nil {
			return nil, err
		}
	}

	result, err := s.rates.Convert(amount, from, to)
	if err != nil {
		return nil, err
	}

	rec := &models.ConversionRecord{
		FromCode:  from,
		ToCode:    to,
		Amount:    amount,
		Result:    result,
		Timestamp: s.now().UTC(),
	}

	active := s.session.Current().Account
	if active == nil {
		return rec, nil
	}
	rec.AccountID = active.ID
	if err := s.history.Append(ctx, *rec); err != nil {
		if errors.Is(err, common.ErrStorageFault) {
			s.log.Error(ctx, "conversion not recorded", "account_id", active.ID, "error", err)
		}
		return nil, err
	}
	return rec, nil
}

func (s *conversionService) ListHistory(ctx context.Context) ([]models.ConversionRecord, error) {
	active := s.session.Current().Account
	if active == nil {
		return nil, common.ErrNotAuthenticated
	}
	recs, err := s.history.ListForAccount(ctx, active.ID)
	if err != nil {
		s.log.Error(ctx, "history read failed", "account_id", active.ID, "error", err)
		return nil, err
	}
	return recs, nil
}
