package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"github.com/dmitrijs2005/fxkeeper/internal/config"
	"github.com/dmitrijs2005/fxkeeper/internal/cryptox"
	"github.com/dmitrijs2005/fxkeeper/internal/logging"
	"github.com/dmitrijs2005/fxkeeper/internal/models"
	"github.com/dmitrijs2005/fxkeeper/internal/rates"
	"github.com/dmitrijs2005/fxkeeper/internal/repositories/accounts"
	"github.com/dmitrijs2005/fxkeeper/internal/repositories/history"
	"github.com/dmitrijs2005/fxkeeper/internal/repositories/metadata"
	"github.com/dmitrijs2005/fxkeeper/internal/session"
	"github.com/dmitrijs2005/fxkeeper/internal/storage"
	"github.com/dmitrijs2005/fxkeeper/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// countingAccounts records how often the store was consulted.
type countingAccounts struct {
	accounts.Repository
	calls atomic.Int32
}

func (c *countingAccounts) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	c.calls.Add(1)
	return c.Repository.FindByEmail(ctx, email)
}

func (c *countingAccounts) FindByCredentials(ctx context.Context, email, credential string) (*models.Account, error) {
	c.calls.Add(1)
	return c.Repository.FindByCredentials(ctx, email, credential)
}

// fakeSource serves fixed tables and can be switched off.
type fakeSource struct {
	tables map[string]map[string]string
	down   atomic.Bool
	calls  atomic.Int32
}

func (f *fakeSource) Fetch(_ context.Context, base string) (*models.RateTable, error) {
	f.calls.Add(1)
	if f.down.Load() {
		return nil, fmt.Errorf("%w: offline", common.ErrUnavailable)
	}
	raw, ok := f.tables[base]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported base %s", common.ErrUnavailable, base)
	}
	out := make(map[string]decimal.Decimal, len(raw))
	for k, v := range raw {
		out[k] = decimal.RequireFromString(v)
	}
	return &models.RateTable{BaseCode: base, Rates: out}, nil
}

type fixture struct {
	handle   *storage.Handle
	accounts *countingAccounts
	history  *history.SQLiteRepository
	session  *session.Cache
	source   *fakeSource
	rates    *rates.Cache
	identity IdentityService
	convert  *conversionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h := storage.New(t.TempDir()+"/fx.db", logging.Discard())
	t.Cleanup(func() { _ = h.Close() })
	return newFixtureOn(t, h)
}

// newFixtureOn builds fresh services over an existing store, as a restarted
// process would.
func newFixtureOn(t *testing.T, h *storage.Handle) *fixture {
	t.Helper()
	log := logging.Discard()

	hasher := &cryptox.BcryptHasher{Cost: bcrypt.MinCost}
	cfg := &config.Config{}
	cfg.LoadDefaults()

	f := &fixture{handle: h}
	f.accounts = &countingAccounts{Repository: accounts.NewSQLiteRepository(h, hasher)}
	f.history = history.NewSQLiteRepository(h)
	meta := metadata.NewSQLiteRepository(h)
	f.session = session.New(meta, log)
	f.source = &fakeSource{tables: map[string]map[string]string{
		"USD": {"EUR": "0.92", "GBP": "0.79"},
		"EUR": {"USD": "1.087"},
	}}
	f.rates = rates.NewCache(f.source, meta, log)
	f.identity = NewIdentityService(f.accounts, f.session, hasher, validation.New(cfg.Credential), log)
	f.convert = NewConversionService(f.rates, f.history, f.session, time.Hour, log).(*conversionService)
	return f
}

func (f *fixture) register(t *testing.T, name, email, credential string) int64 {
	t.Helper()
	id, err := f.identity.Register(context.Background(), name, email, credential)
	require.NoError(t, err)
	return id
}
