// Package localstore owns the client-local state of the storefront: the guest
// cart, the signed-in user record and the bearer tokens. All reads and writes
// go through one Store so every consumer sees the same snapshot and can
// subscribe to changes.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Fixed keys shared by every part of the storefront
const (
	KeyCart             = "cart"
	KeyUser             = "user"
	KeyToken            = "token"
	KeyDistributorToken = "distributor_token"
)

// ErrNotExist is returned by a Backend when the key has no value
var ErrNotExist = errors.New("key does not exist")

// Backend persists raw values by key
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes all keys in one operation
	Delete(ctx context.Context, keys ...string) error
}

// Store wraps a Backend with serialized read-modify-write and change subscriptions
type Store struct {
	backend Backend
	logger  *zap.Logger

	mu sync.Mutex

	subMu  sync.RWMutex
	nextID int
	subs   map[int]func(key string)
}

func New(backend Backend, logger *zap.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
		subs:    make(map[int]func(key string)),
	}
}

// Get returns the raw value and whether it exists
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, true, nil
}

// GetJSON decodes the value under key into v. It reports false when the key is
// missing; a decode failure is returned as an error.
func (s *Store) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("malformed %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	err := s.backend.Set(ctx, key, value)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("Failed to write local state", zap.String("key", key), zap.Error(err))
		return err
	}
	s.notify(key)
	return nil
}

func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}

// Delete removes every key in a single backend operation
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	s.mu.Lock()
	err := s.backend.Delete(ctx, keys...)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("Failed to delete local state", zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	for _, k := range keys {
		s.notify(k)
	}
	return nil
}

// Update runs fn on the current value and stores what it returns. fn sees
// exists=false for a missing key. Returning nil, nil leaves the key unchanged.
func (s *Store) Update(ctx context.Context, key string, fn func(current []byte, exists bool) ([]byte, error)) error {
	s.mu.Lock()
	current, err := s.backend.Get(ctx, key)
	exists := true
	if errors.Is(err, ErrNotExist) {
		current, exists, err = nil, false, nil
	}
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to read %s: %w", key, err)
	}

	next, err := fn(current, exists)
	if err != nil || next == nil {
		s.mu.Unlock()
		return err
	}
	if err := s.backend.Set(ctx, key, next); err != nil {
		s.mu.Unlock()
		s.logger.Error("Failed to write local state", zap.String("key", key), zap.Error(err))
		return err
	}
	s.mu.Unlock()

	s.notify(key)
	return nil
}

// Subscribe registers fn to be called with the key after every write or delete
func (s *Store) Subscribe(fn func(key string)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(key string) {
	s.subMu.RLock()
	fns := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(key)
	}
}
