package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"caremonitor/pkg/platform/sentinel"
)

// SnapshotKeyPrefix prefixes the Redis key holding one session's list state.
const SnapshotKeyPrefix = "care_monitor:list_state:"

// DefaultSnapshotTTL matches the session cookie lifetime.
const DefaultSnapshotTTL = 7 * 24 * time.Hour

// SnapshotKey is the Redis key for owner's list state.
func SnapshotKey(owner string) string {
	return SnapshotKeyPrefix + owner
}

// SnapshotStore persists the latest list State of each session owner.
type SnapshotStore interface {
	// Save replaces owner's stored snapshot.
	Save(ctx context.Context, owner string, state State) error
	// Load returns owner's stored snapshot; ok is false when none exists.
	Load(ctx context.Context, owner string) (state State, ok bool, err error)
	// Delete drops owner's snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, owner string) error
}

// Memory keeps snapshots in process.
type Memory struct {
	mu     sync.RWMutex
	states map[string]State
}

func NewMemory() *Memory {
	return &Memory{states: make(map[string]State)}
}

func (m *Memory) Save(_ context.Context, owner string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[owner] = state.clone()
	return nil
}

func (m *Memory) Load(_ context.Context, owner string) (State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[owner]
	if !ok {
		return State{}, false, nil
	}
	return state.clone(), true, nil
}

func (m *Memory) Delete(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, owner)
	return nil
}

// Redis stores each owner's snapshot as one JSON value with a TTL, so every
// replica serves the same session the same list.
// Connection failures wrap sentinel.ErrUnavailable; a corrupt value wraps
// sentinel.ErrInvalidState.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedis returns a Redis snapshot store; ttl <= 0 means DefaultSnapshotTTL.
func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Save(ctx context.Context, owner string, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal list state: %w", err)
	}
	if err := r.client.Set(ctx, SnapshotKey(owner), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save list state: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, owner string) (State, bool, error) {
	payload, err := r.client.Get(ctx, SnapshotKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("load list state: %w: %w", sentinel.ErrUnavailable, err)
	}
	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return State{}, false, fmt.Errorf("decode list state: %w: %w", sentinel.ErrInvalidState, err)
	}
	if state.Items == nil {
		state.Items = []DisplayItem{}
	}
	return state, true, nil
}

func (r *Redis) Delete(ctx context.Context, owner string) error {
	if err := r.client.Del(ctx, SnapshotKey(owner)).Err(); err != nil {
		return fmt.Errorf("delete list state: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

var (
	_ SnapshotStore = (*Memory)(nil)
	_ SnapshotStore = (*Redis)(nil)
)
