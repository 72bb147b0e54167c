package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: LevelWarn, ShowTimestamp: false})

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Fatalf("expected debug/info to be filtered at LevelWarn, got: %s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Fatalf("expected warn/error to be logged, got: %s", out)
	}
}

func TestWithPrefixStacks(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: LevelDebug, ShowTimestamp: false})
	scoped := l.WithPrefix("state.get").WithPrefix("probe")

	scoped.Info("cache miss for %s", "cache.user")

	out := buf.String()
	if !strings.Contains(out, "state.get") || !strings.Contains(out, "probe") {
		t.Fatalf("expected stacked prefixes in output, got: %s", out)
	}
	if !strings.Contains(out, "cache miss for cache.user") {
		t.Fatalf("expected formatted message, got: %s", out)
	}
}

func TestWithFieldsAppendsSortedKeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: LevelDebug, ShowTimestamp: false})
	scoped := l.WithPrefix("state.get").WithFields(Fields{"path": "cache.user.org_id", "depth": 3})

	scoped.Debug("cache miss")

	out := buf.String()
	if !strings.Contains(out, "cache miss depth=3 path=cache.user.org_id") {
		t.Fatalf("expected fields appended in sorted key order, got: %s", out)
	}
}

func TestWithFieldsMergesAcrossCalls(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: LevelDebug, ShowTimestamp: false})
	base := l.WithFields(Fields{"component": "state"})
	scoped := base.WithFields(Fields{"path": "a.x"})

	scoped.Info("store probe")

	out := buf.String()
	if !strings.Contains(out, "component=state") || !strings.Contains(out, "path=a.x") {
		t.Fatalf("expected both the base and call-site fields present, got: %s", out)
	}
}

func TestNoopDiscardsEverything(t *testing.T) {
	n := Noop()
	n.Debug("x")
	n.Info("x")
	n.Warn("x")
	n.Error("x")
	n.SetLevel(LevelDebug)
	if n.WithPrefix("x") == nil {
		t.Fatalf("WithPrefix must not return nil")
	}
	if n.WithFields(Fields{"a": 1}) == nil {
		t.Fatalf("WithFields must not return nil")
	}
}
