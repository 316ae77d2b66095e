// Package session keeps the process-wide record of the signed-in account and
// mirrors it to the metadata slot of the local store so it survives restarts.
//
// Transitions (Restore, Activate, Clear) are serialised. Each one notifies
// every subscribed observer exactly once, synchronously and in the order the
// transitions were requested. Observers must not start another transition
// from inside the callback.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"github.com/dmitrijs2005/fxkeeper/internal/logging"
	"github.com/dmitrijs2005/fxkeeper/internal/models"
)

// SnapshotKey is the metadata key holding the active account.
const SnapshotKey = "session.account"

// Store is the persistence slot for the snapshot.
// metadata.Repository satisfies it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// State is a point-in-time view of the session. Account is nil when nobody
// is signed in.
type State struct {
	Account     *models.Account
	Initialized bool
	Loading     bool
}

// Authenticated reports whether an account is active.
func (s State) Authenticated() bool { return s.Account != nil }

type EventKind int

const (
	EventRestored EventKind = iota + 1
	EventActivated
	EventCleared
)

func (k EventKind) String() string {
	switch k {
	case EventRestored:
		return "restored"
	case EventActivated:
		return "activated"
	case EventCleared:
		return "cleared"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event describes a completed transition and the state it produced.
type Event struct {
	Kind  EventKind
	State State
}

type Observer func(Event)

type subscription struct {
	id int
	fn Observer
}

// Cache owns the session state.
type Cache struct {
	store Store
	log   logging.Logger

	transition sync.Mutex

	mu    sync.RWMutex
	state State

	subMu  sync.Mutex
	subs   []subscription
	nextID int
}

func New(store Store, log logging.Logger) *Cache {
	if log == nil {
		log = logging.Discard()
	}
	return &Cache{store: store, log: log.With("component", "session")}
}

// Current returns a copy of the state.
func (c *Cache) Current() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyState(c.state)
}

// Subscribe registers fn and returns a function that removes it.
func (c *Cache) Subscribe(fn Observer) (unsubscribe func()) {
	c.subMu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscription{id: id, fn: fn})
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Restore loads the persisted snapshot. A missing or unreadable snapshot
// leaves the session anonymous; only a storage failure is returned, and even
// then the state ends up initialized and anonymous.
func (c *Cache) Restore(ctx context.Context) error {
	c.transition.Lock()
	defer c.transition.Unlock()

	loading := c.Current()
	loading.Loading = true
	c.set(loading)

	acc, err := c.load(ctx)
	if err != nil {
		c.log.Error(ctx, "session restore failed", "error", err)
	}

	c.set(State{Account: acc, Initialized: true})
	c.notify(EventRestored)
	return err
}

func (c *Cache) load(ctx context.Context) (*models.Account, error) {
	raw, err := c.store.Get(ctx, SnapshotKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var acc models.Account
	if err := json.Unmarshal(raw, &acc); err != nil || !acc.Persisted() || acc.Email == "" {
		c.log.Warn(ctx, "discarding unreadable session snapshot")
		return nil, nil
	}
	return &acc, nil
}

// Activate persists acc as the active account and then installs it. If the
// write fails the previous state is kept.
func (c *Cache) Activate(ctx context.Context, acc *models.Account) error {
	if !acc.Persisted() {
		return fmt.Errorf("%w: only stored accounts can be activated", common.ErrInvalidArgument)
	}

	c.transition.Lock()
	defer c.transition.Unlock()

	snapshot := *acc
	raw, err := json.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("encode session snapshot: %w", err)
	}
	if err := c.store.Set(ctx, SnapshotKey, raw); err != nil {
		return err
	}

	c.set(State{Account: &snapshot, Initialized: true})
	c.log.Debug(ctx, "session activated", "account_id", snapshot.ID)
	c.notify(EventActivated)
	return nil
}

// Clear removes the snapshot and returns to anonymous. If the delete fails
// the previous state is kept.
func (c *Cache) Clear(ctx context.Context) error {
	c.transition.Lock()
	defer c.transition.Unlock()

	if err := c.store.Delete(ctx, SnapshotKey); err != nil {
		return err
	}

	c.set(State{Initialized: true})
	c.log.Debug(ctx, "session cleared")
	c.notify(EventCleared)
	return nil
}

func (c *Cache) set(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// notify must be called with the transition lock held.
func (c *Cache) notify(kind EventKind) {
	c.subMu.Lock()
	subs := append([]subscription(nil), c.subs...)
	c.subMu.Unlock()

	ev := Event{Kind: kind, State: c.Current()}
	for _, s := range subs {
		s.fn(Event{Kind: ev.Kind, State: copyState(ev.State)})
	}
}

func copyState(s State) State {
	if s.Account != nil {
		acc := *s.Account
		s.Account = &acc
	}
	return s
}
