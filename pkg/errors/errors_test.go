package errors_test

import (
	"errors"
	"testing"

	stateerrors "github.com/declarative-state/state-engine/pkg/errors"
)

func TestNotWritableIsRecoverable(t *testing.T) {
	err := stateerrors.NotWritable("session.sso_user_id")

	var nw *stateerrors.NotWritableError
	if !errors.As(err, &nw) {
		t.Fatalf("expected errors.As to recover *NotWritableError")
	}
	if nw.Path != "session.sso_user_id" {
		t.Fatalf("got path %q", nw.Path)
	}
	if nw.ErrType != stateerrors.ErrTypeNotWritable {
		t.Fatalf("got ErrType %v", nw.ErrType)
	}
}

func TestWrapPreservesIdentity(t *testing.T) {
	base := stateerrors.CircularDependency("a.x")
	wrapped := stateerrors.Wrapf(base, "get(%s)", "a.x")

	var cd *stateerrors.CircularDependencyErr
	if !errors.As(wrapped, &cd) {
		t.Fatalf("expected wrapped error to unwrap to *CircularDependencyErr")
	}
	if cd.Path != "a.x" {
		t.Fatalf("got %q", cd.Path)
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if stateerrors.Wrap(nil, "anything") != nil {
		t.Fatalf("Wrap(nil, ...) must return nil")
	}
}

func TestAdapterErrorMissing(t *testing.T) {
	err := stateerrors.NewAdapterError(stateerrors.AdapterMissing, "cache.user", nil)
	if err.Which != stateerrors.AdapterMissing {
		t.Fatalf("got %v", err.Which)
	}
	if err.Path != "cache.user" {
		t.Fatalf("got %q", err.Path)
	}
}

func TestManifestErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("line 4: mapping values are not allowed here")
	err := stateerrors.NewManifestError(stateerrors.YamlParseError, "cache.yml", "bad indent", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the wrapped cause")
	}
	if err.Kind != stateerrors.YamlParseError {
		t.Fatalf("got kind %v", err.Kind)
	}
}

func TestRecursionLimitExceeded(t *testing.T) {
	err := stateerrors.RecursionLimitExceeded("a.x", 20)
	if err.Limit != 20 {
		t.Fatalf("got limit %d", err.Limit)
	}
	if err.Path != "a.x" {
		t.Fatalf("got path %q", err.Path)
	}
}
