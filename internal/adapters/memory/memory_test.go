package memory

import (
	"context"
	"testing"

	"github.com/declarative-state/state-engine/pkg/value"
)

func TestSetGetDelete(t *testing.T) {
	c := New()
	ctx := context.Background()

	if _, found, _ := c.Get(ctx, "k"); found {
		t.Fatalf("expected miss on empty client")
	}
	if _, err := c.Set(ctx, "k", value.Integer(42)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, found, _ := c.Get(ctx, "k")
	if !found || !value.Equal(v, value.Integer(42)) {
		t.Fatalf("expected Integer(42), got %#v found=%v", v, found)
	}

	ok, _ := c.Delete(ctx, "k")
	if !ok {
		t.Fatalf("expected Delete to report the key existed")
	}
	if _, found, _ := c.Get(ctx, "k"); found {
		t.Fatalf("expected miss after delete")
	}
}
