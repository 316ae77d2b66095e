// Package app wires the fxkeeper core together. There is exactly one App per
// process; it owns the storage handle and the session cache and hands the
// services to front ends.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"github.com/dmitrijs2005/fxkeeper/internal/config"
	"github.com/dmitrijs2005/fxkeeper/internal/cryptox"
	"github.com/dmitrijs2005/fxkeeper/internal/logging"
	"github.com/dmitrijs2005/fxkeeper/internal/rates"
	"github.com/dmitrijs2005/fxkeeper/internal/repositories/accounts"
	"github.com/dmitrijs2005/fxkeeper/internal/repositories/history"
	"github.com/dmitrijs2005/fxkeeper/internal/repositories/metadata"
	"github.com/dmitrijs2005/fxkeeper/internal/services"
	"github.com/dmitrijs2005/fxkeeper/internal/session"
	"github.com/dmitrijs2005/fxkeeper/internal/storage"
	"github.com/dmitrijs2005/fxkeeper/internal/validation"
)

type App struct {
	Config *config.Config
	Log    logging.Logger

	Store   *storage.Handle
	Session *session.Cache
	Rates   *rates.Cache

	Identity   services.IdentityService
	Conversion services.ConversionService
}

// Option customises New.
type Option func(*options)

type options struct {
	source rates.Source
}

// WithRateSource replaces the HTTP rate source.
func WithRateSource(src rates.Source) Option {
	return func(o *options) { o.source = src }
}

// New opens the store, restores the session and cached rates and builds the
// services. A store written by a newer build is refused.
func New(ctx context.Context, cfg *config.Config, log logging.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = logging.Discard()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	hasher, err := cryptox.NewHasher(cfg.Hasher)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidArgument, err)
	}

	store := storage.New(cfg.DatabasePath, log)
	if _, err := store.Open(ctx); err != nil {
		return nil, err
	}

	meta := metadata.NewSQLiteRepository(store)
	sess := session.New(meta, log)
	if err := sess.Restore(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	if o.source == nil {
		o.source = rates.NewHTTPSource(cfg.RatesEndpoint, cfg.RateFetchTimeout, log)
	}
	rc := rates.NewCache(o.source, meta, log)
	if err := rc.Restore(ctx); err != nil {
		log.Warn(ctx, "cached rates not restored", "error", err)
	}

	v := validation.New(cfg.Credential)
	return &App{
		Config:     cfg,
		Log:        log,
		Store:      store,
		Session:    sess,
		Rates:      rc,
		Identity:   services.NewIdentityService(accounts.NewSQLiteRepository(store, hasher), sess, hasher, v, log),
		Conversion: services.NewConversionService(rc, history.NewSQLiteRepository(store), sess, cfg.RatesMaxAge, log),
	}, nil
}

// Close releases the store connection.
func (a *App) Close() error {
	return a.Store.Close()
}

// Reset signs out and deletes every piece of local state.
func (a *App) Reset(ctx context.Context) error {
	errClear := a.Session.Clear(ctx)
	if err := a.Store.DeleteAll(); err != nil {
		return errors.Join(errClear, err)
	}
	return nil
}
