// Package load is the pure translator from a resolved LoadConfig to a
// Value, mediated by the capability-typed adapters in pkg/adapter. It
// never calls back into State: the one client that would need to —
// _load.client: State — is intercepted by pkg/state itself before a
// Config ever reaches Handle, so the recursion guard stays in one place.
package load

import (
	"context"
	"sort"

	"github.com/declarative-state/state-engine/pkg/adapter"
	stateerrors "github.com/declarative-state/state-engine/pkg/errors"
	"github.com/declarative-state/state-engine/pkg/value"
)

// Client names a LoadConfig's backend. ClientState is accepted here only so
// callers can detect and special-case it before calling Handle; Handle
// itself treats it the same as an unrecognised client.
type Client string

const (
	ClientEnv      Client = "Env"
	ClientInMemory Client = "InMemory"
	ClientKVS      Client = "KVS"
	ClientDb       Client = "Db"
	ClientState    Client = "State"
)

// Config is a _load block with every placeholder already substituted.
type Config struct {
	Client     Client
	Key        string            // InMemory, KVS, State
	Map        map[string]string // Env: logical_key -> ENV_VAR; Db: logical_key -> column
	Connection string            // Db
	Table      string            // Db
	Where      string            // Db, optional
}

// Handle dispatches a Config to the adapter its client names. A missing or
// unrecognised client is not an error — manifests without a usable _load
// are valid — and yields Null. path is carried only for error context.
func Handle(ctx context.Context, cfg Config, bundle *adapter.Bundle, path string) (value.Value, error) {
	switch cfg.Client {
	case ClientEnv:
		return handleEnv(ctx, cfg, bundle, path)
	case ClientInMemory:
		return handleInMemory(ctx, cfg, bundle, path)
	case ClientKVS:
		return handleKVS(ctx, cfg, bundle, path)
	case ClientDb:
		return handleDb(ctx, cfg, bundle, path)
	default:
		return value.Null(), nil
	}
}

func handleEnv(ctx context.Context, cfg Config, bundle *adapter.Bundle, path string) (value.Value, error) {
	if bundle == nil || bundle.Env == nil {
		return value.Null(), stateerrors.NewAdapterError(stateerrors.AdapterMissing, path, nil)
	}
	out := make(map[string]value.Value, len(cfg.Map))
	for logical, envVar := range cfg.Map {
		s, found, err := bundle.Env.Get(ctx, envVar)
		if err != nil {
			return value.Null(), stateerrors.NewAdapterError(stateerrors.AdapterEnv, path, err)
		}
		if !found {
			out[logical] = value.Null()
			continue
		}
		out[logical] = value.String(s)
	}
	return value.Map(out), nil
}

func handleInMemory(ctx context.Context, cfg Config, bundle *adapter.Bundle, path string) (value.Value, error) {
	if bundle == nil || bundle.InMemory == nil {
		return value.Null(), stateerrors.NewAdapterError(stateerrors.AdapterMissing, path, nil)
	}
	v, found, err := bundle.InMemory.Get(ctx, cfg.Key)
	if err != nil {
		return value.Null(), stateerrors.NewAdapterError(stateerrors.AdapterInMemory, path, err)
	}
	if !found {
		return value.Null(), nil
	}
	return v, nil
}

func handleKVS(ctx context.Context, cfg Config, bundle *adapter.Bundle, path string) (value.Value, error) {
	if bundle == nil || bundle.KVS == nil {
		return value.Null(), stateerrors.NewAdapterError(stateerrors.AdapterMissing, path, nil)
	}
	s, found, err := bundle.KVS.Get(ctx, cfg.Key)
	if err != nil {
		return value.Null(), stateerrors.NewAdapterError(stateerrors.AdapterKVS, path, err)
	}
	if !found {
		return value.Null(), nil
	}
	v, err := value.Decode(s)
	if err != nil {
		return value.Null(), stateerrors.DecodeError(path, err)
	}
	return v, nil
}

func handleDb(ctx context.Context, cfg Config, bundle *adapter.Bundle, path string) (value.Value, error) {
	if bundle == nil || bundle.Db == nil {
		return value.Null(), stateerrors.NewAdapterError(stateerrors.AdapterMissing, path, nil)
	}
	logicalKeys := make([]string, 0, len(cfg.Map))
	for k := range cfg.Map {
		logicalKeys = append(logicalKeys, k)
	}
	sort.Strings(logicalKeys)

	columns := make([]string, len(logicalKeys))
	for i, k := range logicalKeys {
		columns[i] = cfg.Map[k]
	}

	rows, err := bundle.Db.Fetch(ctx, cfg.Connection, cfg.Table, columns, cfg.Where)
	if err != nil {
		return value.Null(), stateerrors.NewAdapterError(stateerrors.AdapterDb, path, err)
	}
	if len(rows) == 0 {
		return value.Null(), nil
	}

	row := rows[0]
	out := make(map[string]value.Value, len(logicalKeys))
	for i, logical := range logicalKeys {
		out[logical] = row[columns[i]]
	}
	return value.Map(out), nil
}
