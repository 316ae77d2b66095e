package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"github.com/dmitrijs2005/fxkeeper/internal/logging"
	"github.com/dmitrijs2005/fxkeeper/internal/models"
	"github.com/shopspring/decimal"
)

// KeyPrefix prefixes the metadata keys under which tables are persisted.
const KeyPrefix = "rates:"

// Store persists fetched tables so they outlive the process.
// metadata.Repository satisfies it.
type Store interface {
	Set(ctx context.Context, key string, value []byte) error
	List(ctx context.Context, prefix string) (map[string][]byte, error)
}

// Cache holds the most recent table per base currency. Entries never expire
// on their own; callers decide on staleness with RateTable.IsStale.
type Cache struct {
	source Source
	store  Store
	log    logging.Logger
	now    func() time.Time

	mu     sync.RWMutex
	tables map[string]*models.RateTable
}

// NewCache builds a cache over source. store may be nil, in which case tables
// live only in memory.
func NewCache(source Source, store Store, log logging.Logger) *Cache {
	if log == nil {
		log = logging.Discard()
	}
	return &Cache{
		source: source,
		store:  store,
		log:    log.With("component", "rates"),
		now:    time.Now,
		tables: make(map[string]*models.RateTable),
	}
}

// Fetch asks the source for a fresh table. On success the table replaces the
// cached one for base; on failure the cache is left untouched.
func (c *Cache) Fetch(ctx context.Context, base string) (*models.RateTable, error) {
	base = strings.ToUpper(strings.TrimSpace(base))

	t, err := c.source.Fetch(ctx, base)
	if err != nil {
		if !errors.Is(err, common.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", common.ErrUnavailable, err)
		}
		c.log.Warn(ctx, "rate fetch failed", "base", base, "error", err)
		return nil, err
	}

	t.BaseCode = base
	t.FetchedAt = c.now().UTC()

	c.mu.Lock()
	c.tables[base] = t
	c.mu.Unlock()

	c.persist(ctx, t)
	c.log.Info(ctx, "rates updated", "base", base, "currencies", len(t.Rates))
	return t.Clone(), nil
}

func (c *Cache) persist(ctx context.Context, t *models.RateTable) {
	if c.store == nil {
		return
	}
	raw, err := json.Marshal(t)
	if err == nil {
		err = c.store.Set(ctx, KeyPrefix+t.BaseCode, raw)
	}
	if err != nil {
		c.log.Warn(ctx, "rate table not persisted", "base", t.BaseCode, "error", err)
	}
}

// Get returns a copy of the cached table for base, or nil. It never touches
// the network.
func (c *Cache) Get(base string) *models.RateTable {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tables[strings.ToUpper(base)].Clone()
}

// Convert multiplies amount by the cached rate from -> to. No rounding is
// applied.
func (c *Cache) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount must not be negative", common.ErrInvalidArgument)
	}
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return amount, nil
	}

	c.mu.RLock()
	t := c.tables[from]
	c.mu.RUnlock()

	if t == nil {
		return decimal.Zero, fmt.Errorf("%w: no rates cached for %s", common.ErrUnavailable, from)
	}
	rate, ok := t.Rate(to)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", common.ErrUnknownCurrency, to)
	}
	return amount.Mul(rate), nil
}

// Restore loads persisted tables into memory. Unreadable entries are skipped
// and a table already in memory is kept when it is newer.
func (c *Cache) Restore(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	entries, err := c.store.List(ctx, KeyPrefix)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, raw := range entries {
		var t models.RateTable
		if err := json.Unmarshal(raw, &t); err != nil || t.BaseCode == "" || !validRates(t.Rates) {
			c.log.Warn(ctx, "skipping unreadable rate table", "key", key)
			continue
		}
		if cur, ok := c.tables[t.BaseCode]; ok && cur.FetchedAt.After(t.FetchedAt) {
			continue
		}
		c.tables[t.BaseCode] = &t
	}
	c.log.Debug(ctx, "rate tables restored", "count", len(entries))
	return nil
}

func validRates(m map[string]decimal.Decimal) bool {
	for _, r := range m {
		if !r.IsPositive() {
			return false
		}
	}
	return len(m) > 0
}
