package load

import (
	"context"
	"errors"
	"testing"

	"github.com/declarative-state/state-engine/pkg/adapter"
	stateerrors "github.com/declarative-state/state-engine/pkg/errors"
	"github.com/declarative-state/state-engine/pkg/value"
)

type fakeEnv struct{ vars map[string]string }

func (f *fakeEnv) Get(_ context.Context, name string) (string, bool, error) {
	v, ok := f.vars[name]
	return v, ok, nil
}

type fakeInMemory struct {
	store map[string]value.Value
	err   error
}

func (f *fakeInMemory) Get(_ context.Context, key string) (value.Value, bool, error) {
	if f.err != nil {
		return value.Null(), false, f.err
	}
	v, ok := f.store[key]
	return v, ok, nil
}
func (f *fakeInMemory) Set(_ context.Context, key string, v value.Value) (bool, error) {
	f.store[key] = v
	return true, nil
}
func (f *fakeInMemory) Delete(_ context.Context, key string) (bool, error) {
	_, ok := f.store[key]
	delete(f.store, key)
	return ok, nil
}

type fakeKVS struct{ store map[string]string }

func (f *fakeKVS) Get(_ context.Context, key string) (string, bool, error) {
	s, ok := f.store[key]
	return s, ok, nil
}
func (f *fakeKVS) Set(_ context.Context, key, encoded string, _ *int) (bool, error) {
	f.store[key] = encoded
	return true, nil
}
func (f *fakeKVS) Delete(_ context.Context, key string) (bool, error) {
	_, ok := f.store[key]
	delete(f.store, key)
	return ok, nil
}

type fakeDb struct {
	rows []map[string]value.Value
}

func (f *fakeDb) Fetch(_ context.Context, _, _ string, _ []string, _ string) ([]map[string]value.Value, error) {
	return f.rows, nil
}

func TestHandleEnvMapsLogicalKeysToValues(t *testing.T) {
	bundle := &adapter.Bundle{Env: &fakeEnv{vars: map[string]string{"DB_HOST": "postgres"}}}
	cfg := Config{Client: ClientEnv, Map: map[string]string{"host": "DB_HOST", "port": "DB_PORT"}}

	v, err := Handle(context.Background(), cfg, bundle, "connection.common")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	m, _ := v.AsMap()
	if m["host"].String() != "postgres" {
		t.Fatalf("expected host=postgres, got %#v", m["host"])
	}
	if !m["port"].IsNull() {
		t.Fatalf("expected missing env var to map to Null, got %#v", m["port"])
	}
}

func TestHandleKVSDecodesJSON(t *testing.T) {
	bundle := &adapter.Bundle{KVS: &fakeKVS{store: map[string]string{"session.sso_user_id": "42"}}}
	cfg := Config{Client: ClientKVS, Key: "session.sso_user_id"}

	v, err := Handle(context.Background(), cfg, bundle, "session.sso_user_id")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	i, ok := v.AsInteger()
	if !ok || i != 42 {
		t.Fatalf("expected Integer(42), got %#v", v)
	}
}

func TestHandleKVSInvalidJSONIsDecodeError(t *testing.T) {
	bundle := &adapter.Bundle{KVS: &fakeKVS{store: map[string]string{"k": "not json"}}}
	cfg := Config{Client: ClientKVS, Key: "k"}

	_, err := Handle(context.Background(), cfg, bundle, "k")
	var decErr *stateerrors.DecodeErr
	if !stateerrors.As(err, &decErr) {
		t.Fatalf("expected DecodeErr, got %v", err)
	}
}

func TestHandleDbReturnsFirstRowMappedByLogicalKey(t *testing.T) {
	bundle := &adapter.Bundle{Db: &fakeDb{rows: []map[string]value.Value{
		{"id": value.Integer(11), "sso_org_id": value.Integer(100)},
	}}}
	cfg := Config{
		Client:     ClientDb,
		Connection: "postgres://tenant",
		Table:      "users",
		Where:      "sso_user_id=1",
		Map:        map[string]string{"id": "id", "org_id": "sso_org_id"},
	}

	v, err := Handle(context.Background(), cfg, bundle, "cache.user")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	m, _ := v.AsMap()
	if id, _ := m["id"].AsInteger(); id != 11 {
		t.Fatalf("expected id=11, got %#v", m["id"])
	}
	if orgID, _ := m["org_id"].AsInteger(); orgID != 100 {
		t.Fatalf("expected org_id=100, got %#v", m["org_id"])
	}
}

func TestHandleDbNoRowsYieldsNull(t *testing.T) {
	bundle := &adapter.Bundle{Db: &fakeDb{}}
	cfg := Config{Client: ClientDb, Map: map[string]string{"id": "id"}}

	v, err := Handle(context.Background(), cfg, bundle, "cache.user")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !v.IsNull() {
		t.Fatalf("expected Null on zero rows, got %#v", v)
	}
}

func TestHandleUnknownClientYieldsNullNotError(t *testing.T) {
	v, err := Handle(context.Background(), Config{Client: "Bogus"}, &adapter.Bundle{}, "x.y")
	if err != nil {
		t.Fatalf("expected no error for unknown client, got %v", err)
	}
	if !v.IsNull() {
		t.Fatalf("expected Null, got %#v", v)
	}
}

func TestHandleMissingAdapterIsAdapterError(t *testing.T) {
	_, err := Handle(context.Background(), Config{Client: ClientKVS, Key: "k"}, &adapter.Bundle{}, "k")
	var adErr *stateerrors.AdapterError
	if !stateerrors.As(err, &adErr) || adErr.Which != stateerrors.AdapterMissing {
		t.Fatalf("expected AdapterError(missing), got %v", err)
	}
}

func TestHandleInMemoryPropagatesAdapterError(t *testing.T) {
	bundle := &adapter.Bundle{InMemory: &fakeInMemory{err: errors.New("boom")}}
	_, err := Handle(context.Background(), Config{Client: ClientInMemory, Key: "k"}, bundle, "k")
	var adErr *stateerrors.AdapterError
	if !stateerrors.As(err, &adErr) || adErr.Which != stateerrors.AdapterInMemory {
		t.Fatalf("expected AdapterError(in_memory), got %v", err)
	}
}
