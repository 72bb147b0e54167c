package kvs

import (
	"context"
	"testing"
)

func TestSetGetDeleteRoundTrip(t *testing.T) {
	c := New()
	ctx := context.Background()

	if _, found, _ := c.Get(ctx, "k"); found {
		t.Fatalf("expected miss on empty client")
	}

	if _, err := c.Set(ctx, "k", `{"a":1}`, nil); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, found, _ := c.Get(ctx, "k")
	if !found || v != `{"a":1}` {
		t.Fatalf("expected stored JSON string back, got %q found=%v", v, found)
	}

	ok, _ := c.Delete(ctx, "k")
	if !ok {
		t.Fatalf("expected Delete to report the key existed")
	}
	if _, found, _ := c.Get(ctx, "k"); found {
		t.Fatalf("expected miss after delete")
	}
}

func TestSetWithoutTTLRetainsExistingBucket(t *testing.T) {
	c := New()
	ctx := context.Background()
	ttl := 60

	if _, err := c.Set(ctx, "k", "v1", &ttl); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := c.Set(ctx, "k", "v2", nil); err != nil {
		t.Fatalf("Set (no ttl override): %v", err)
	}
	v, found, _ := c.Get(ctx, "k")
	if !found || v != "v2" {
		t.Fatalf("expected v2, got %q found=%v", v, found)
	}
	if len(c.buckets) != 1 {
		t.Fatalf("expected the key to stay in its original TTL bucket, got %d buckets", len(c.buckets))
	}
}

func TestDistinctTTLsUseDistinctBuckets(t *testing.T) {
	c := New()
	ctx := context.Background()
	shortTTL, longTTL := 5, 500

	c.Set(ctx, "a", "1", &shortTTL)
	c.Set(ctx, "b", "2", &longTTL)

	if len(c.buckets) != 2 {
		t.Fatalf("expected 2 distinct buckets, got %d", len(c.buckets))
	}
}
