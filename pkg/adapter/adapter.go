// Package adapter defines the capability-typed ports state-engine borrows
// from its host: InMemoryClient, KVSClient, DbClient, EnvClient. Each is
// an independent, small interface rather than one mega-interface, so a
// host only needs to implement the capabilities its manifests actually
// reference. Concrete implementations are a host concern, except for the
// reference adapters under internal/adapters, which exist only to
// exercise these interfaces in tests.
package adapter

import (
	"context"

	"github.com/declarative-state/state-engine/pkg/value"
)

// InMemoryClient stores typed in-process values, keyed by an opaque
// string the manifest author chooses via _store.key / _load.key.
type InMemoryClient interface {
	Get(ctx context.Context, key string) (value.Value, bool, error)
	Set(ctx context.Context, key string, v value.Value) (bool, error)
	Delete(ctx context.Context, key string) (bool, error)
}

// KVSClient stores primitive strings; type preservation across this
// boundary is the core's responsibility via value.Encode/value.Decode, not
// the adapter's.
type KVSClient interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, encoded string, ttlSeconds *int) (bool, error)
	Delete(ctx context.Context, key string) (bool, error)
}

// DbClient is read-only: it exists solely to serve _load.client: Db.
type DbClient interface {
	Fetch(ctx context.Context, connection, table string, columns []string, where string) ([]map[string]value.Value, error)
}

// EnvClient reads process environment variables.
type EnvClient interface {
	Get(ctx context.Context, name string) (string, bool, error)
}

// Bundle is the set of adapters a State instance was constructed with. Any
// field may be nil; an operation that needs an absent capability fails
// with errors.AdapterMissing rather than panicking.
type Bundle struct {
	InMemory InMemoryClient
	KVS      KVSClient
	Db       DbClient
	Env      EnvClient
}
