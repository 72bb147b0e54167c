// Package memory is a reference InMemoryClient: a process-local map
// guarded by a mutex, for hosts that only need _store.client: InMemory
// within a single process and don't want to stand up a real KVS.
package memory

import (
	"context"
	"sync"

	"github.com/declarative-state/state-engine/pkg/value"
)

// Client implements pkg/adapter.InMemoryClient over a plain guarded map.
type Client struct {
	mu    sync.RWMutex
	store map[string]value.Value
}

func New() *Client {
	return &Client{store: make(map[string]value.Value)}
}

func (c *Client) Get(_ context.Context, key string) (value.Value, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.store[key]
	return v, ok, nil
}

func (c *Client) Set(_ context.Context, key string, v value.Value) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = v
	return true, nil
}

func (c *Client) Delete(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	delete(c.store, key)
	return ok, nil
}
