// Package kvs is a reference KVSClient for hosts with no real Redis/etcd
// handy: hashicorp/golang-lru/v2's expirable LRU emulates a TTL-aware
// store entirely in-process. That package's TTL is fixed per cache
// instance rather than per entry, so this client keeps one expirable LRU
// per distinct TTL value seen and remembers, per key, which bucket it
// currently lives in — good enough for local development and tests, not
// a substitute for a real KVS under production load.
package kvs

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultBucketSize = 4096

// noTTLSeconds is the bucket used for keys with no TTL: effectively
// permanent for any realistic process lifetime.
const noTTLSeconds = 0
const noTTLDuration = 100 * 365 * 24 * time.Hour

// Client implements pkg/adapter.KVSClient.
type Client struct {
	mu        sync.Mutex
	buckets   map[int]*expirable.LRU[string, string]
	keyBucket map[string]int
}

func New() *Client {
	return &Client{
		buckets:   make(map[int]*expirable.LRU[string, string]),
		keyBucket: make(map[string]int),
	}
}

func (c *Client) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ttl, tracked := c.keyBucket[key]
	if !tracked {
		return "", false, nil
	}
	bucket, ok := c.buckets[ttl]
	if !ok {
		return "", false, nil
	}
	v, ok := bucket.Get(key)
	return v, ok, nil
}

func (c *Client) Set(_ context.Context, key, encoded string, ttlSeconds *int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seconds := noTTLSeconds
	switch {
	case ttlSeconds != nil:
		seconds = *ttlSeconds
	case c.keyBucket[key] != 0:
		seconds = c.keyBucket[key] // no override given: retain the key's existing TTL
	}

	if prev, tracked := c.keyBucket[key]; tracked && prev != seconds {
		if oldBucket, ok := c.buckets[prev]; ok {
			oldBucket.Remove(key)
		}
	}

	bucket := c.bucketFor(seconds)
	bucket.Add(key, encoded)
	c.keyBucket[key] = seconds
	return true, nil
}

func (c *Client) Delete(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ttl, tracked := c.keyBucket[key]
	if !tracked {
		return false, nil
	}
	delete(c.keyBucket, key)
	bucket, ok := c.buckets[ttl]
	if !ok {
		return false, nil
	}
	return bucket.Remove(key), nil
}

// bucketFor returns (creating if needed) the expirable LRU for a given
// TTL-in-seconds. Caller must hold c.mu.
func (c *Client) bucketFor(seconds int) *expirable.LRU[string, string] {
	if b, ok := c.buckets[seconds]; ok {
		return b
	}
	ttl := noTTLDuration
	if seconds > 0 {
		ttl = time.Duration(seconds) * time.Second
	}
	b := expirable.NewLRU[string, string](defaultBucketSize, nil, ttl)
	c.buckets[seconds] = b
	return b
}
