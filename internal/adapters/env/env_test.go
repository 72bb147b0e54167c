package env

import (
	"context"
	"testing"
)

func TestGetReadsProcessEnvironment(t *testing.T) {
	t.Setenv("STATE_ENGINE_TEST_VAR", "hello")
	c := New()

	v, found, err := c.Get(context.Background(), "STATE_ENGINE_TEST_VAR")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || v != "hello" {
		t.Fatalf("expected hello, got %q found=%v", v, found)
	}

	_, found, _ = c.Get(context.Background(), "STATE_ENGINE_DOES_NOT_EXIST")
	if found {
		t.Fatalf("expected miss for an unset variable")
	}
}
