package webstorage

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-session/internal/errors"
)

// Memory is a thread-safe in-memory implementation of Storage
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

var _ Storage = (*Memory)(nil)

// NewMemory creates an empty in-memory scope
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]string),
	}
}

// Get retrieves the value stored under key
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.ErrEmptyKey
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.items[key]
	return value, ok, nil
}

// Set stores or replaces the value under key
func (m *Memory) Set(_ context.Context, key, value string) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = value
	return nil
}

// Remove deletes key from the scope
func (m *Memory) Remove(_ context.Context, key string) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// Clear deletes every key in the scope
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]string)
	return nil
}

// Len returns the number of stored keys
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

const defaultSweepInterval = time.Minute

// memoryScope is the backing data of one namespace in a MemoryFactory.
type memoryScope struct {
	items     map[string]string
	expiresAt time.Time
}

// MemoryFactory hands out in-memory scopes keyed by namespace. A namespace
// only holds memory while it has keys: it is allocated by the first Set and
// released when it is cleared, emptied or left unwritten for longer than
// the TTL.
type MemoryFactory struct {
	mu        sync.Mutex
	scopes    map[string]*memoryScope
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

var _ Factory = (*MemoryFactory)(nil)

type MemoryOption func(*MemoryFactory)

// WithTTL expires a namespace ttl after its last write. Zero keeps
// namespaces until they are cleared or emptied.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(f *MemoryFactory) {
		f.ttl = ttl
	}
}

func WithClock(now func() time.Time) MemoryOption {
	return func(f *MemoryFactory) {
		f.now = now
	}
}

// NewMemoryFactory creates a factory with no scopes
func NewMemoryFactory(options ...MemoryOption) *MemoryFactory {
	f := &MemoryFactory{
		scopes: make(map[string]*memoryScope),
		now:    time.Now,
	}
	for _, opt := range options {
		opt(f)
	}
	f.lastSweep = f.now()
	return f
}

// Open returns a view over namespace. Opening allocates nothing.
func (f *MemoryFactory) Open(namespace string) Storage {
	return &memoryView{factory: f, namespace: namespace}
}

// Len returns the number of namespaces currently holding data
func (f *MemoryFactory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scopes)
}

// Sweep drops every namespace whose TTL has passed.
func (f *MemoryFactory) Sweep() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweepLocked(f.now())
}

func (f *MemoryFactory) sweepLocked(now time.Time) {
	for namespace, scope := range f.scopes {
		if f.expired(scope, now) {
			delete(f.scopes, namespace)
		}
	}
	f.lastSweep = now
}

func (f *MemoryFactory) sweepInterval() time.Duration {
	if f.ttl > 0 && f.ttl < defaultSweepInterval {
		return f.ttl
	}
	return defaultSweepInterval
}

func (f *MemoryFactory) expired(scope *memoryScope, now time.Time) bool {
	return f.ttl > 0 && !now.Before(scope.expiresAt)
}

// lookup returns the live scope for namespace, dropping it if expired.
// Callers hold f.mu.
func (f *MemoryFactory) lookup(namespace string, now time.Time) (*memoryScope, bool) {
	scope, ok := f.scopes[namespace]
	if !ok {
		return nil, false
	}
	if f.expired(scope, now) {
		delete(f.scopes, namespace)
		return nil, false
	}
	return scope, true
}

// memoryView is the Storage handed out by MemoryFactory.Open.
type memoryView struct {
	factory   *MemoryFactory
	namespace string
}

func (v *memoryView) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.ErrEmptyKey
	}

	f := v.factory
	f.mu.Lock()
	defer f.mu.Unlock()

	scope, ok := f.lookup(v.namespace, f.now())
	if !ok {
		return "", false, nil
	}
	value, ok := scope.items[key]
	return value, ok, nil
}

func (v *memoryView) Set(_ context.Context, key, value string) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	f := v.factory
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if now.Sub(f.lastSweep) >= f.sweepInterval() {
		f.sweepLocked(now)
	}

	scope, ok := f.lookup(v.namespace, now)
	if !ok {
		scope = &memoryScope{items: make(map[string]string)}
		f.scopes[v.namespace] = scope
	}
	scope.items[key] = value
	if f.ttl > 0 {
		scope.expiresAt = now.Add(f.ttl)
	}
	return nil
}

func (v *memoryView) Remove(_ context.Context, key string) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	f := v.factory
	f.mu.Lock()
	defer f.mu.Unlock()

	scope, ok := f.lookup(v.namespace, f.now())
	if !ok {
		return nil
	}
	delete(scope.items, key)
	if len(scope.items) == 0 {
		delete(f.scopes, v.namespace)
	}
	return nil
}

func (v *memoryView) Clear(_ context.Context) error {
	f := v.factory
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.scopes, v.namespace)
	return nil
}
