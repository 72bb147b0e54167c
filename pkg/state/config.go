package state

import (
	"context"

	stateerrors "github.com/declarative-state/state-engine/pkg/errors"
	"github.com/declarative-state/state-engine/pkg/load"
	"github.com/declarative-state/state-engine/pkg/manifest"
	"github.com/declarative-state/state-engine/pkg/placeholder"
	"github.com/declarative-state/state-engine/pkg/value"
)

// StoreConfig is a node's _store block with every placeholder substituted
// against this State's current view.
type StoreConfig struct {
	Client string
	Key    string
	TTL    *int
}

// substitute resolves every placeholder inside v (recursively, for
// lists/maps) against this State instance, so a _store/_load field may
// reference any other qualified path.
func (s *State) substitute(ctx context.Context, v value.Value) (value.Value, error) {
	resolver := func(path string) (value.Value, bool, error) {
		return s.Get(ctx, path)
	}
	return placeholder.SubstituteValue(v, resolver)
}

// buildStoreConfig resolves a node's effective _store block. ok is false
// whenever the node has no _store reachable at all — an absent block, an
// unrecognised client, or a key that resolves to nothing — which callers
// treat identically to "not writable" or "nothing to probe".
func (s *State) buildStoreConfig(ctx context.Context, nodeIdx manifest.NodeIndex) (*StoreConfig, bool, error) {
	_, store, _ := s.manifest.Meta(nodeIdx)
	if store == nil {
		return nil, false, nil
	}

	clientVal, hasClient := store["client"]
	if !hasClient {
		return nil, false, nil
	}
	clientResolved, err := s.substitute(ctx, clientVal)
	if err != nil {
		return nil, false, err
	}
	clientStr := clientResolved.String()
	if clientStr != "InMemory" && clientStr != "KVS" {
		return nil, false, nil
	}

	keyVal, hasKey := store["key"]
	if !hasKey {
		return nil, false, nil
	}
	keyResolved, err := s.substitute(ctx, keyVal)
	if err != nil {
		return nil, false, err
	}
	keyStr, isString := keyResolved.AsString()
	if !isString {
		return nil, false, nil
	}

	cfg := &StoreConfig{Client: clientStr, Key: keyStr}
	if ttlVal, has := store["ttl"]; has {
		ttlResolved, err := s.substitute(ctx, ttlVal)
		if err != nil {
			return nil, false, err
		}
		if i, ok := ttlResolved.AsInteger(); ok {
			ttl := int(i)
			cfg.TTL = &ttl
		}
	}
	return cfg, true, nil
}

// buildLoadConfig resolves a node's effective _load block into the shape
// pkg/load expects, or reports client == load.ClientState so the caller
// can special-case the redirect itself without ever calling load.Handle.
func (s *State) buildLoadConfig(ctx context.Context, nodeIdx manifest.NodeIndex, loadMeta manifest.MetaBlock) (*load.Config, load.Client, bool, error) {
	clientVal, has := loadMeta["client"]
	if !has {
		return nil, "", false, nil
	}
	clientResolved, err := s.substitute(ctx, clientVal)
	if err != nil {
		return nil, "", false, err
	}
	client := load.Client(clientResolved.String())

	switch client {
	case load.ClientState, load.ClientInMemory, load.ClientKVS:
		keyVal, has := loadMeta["key"]
		if !has {
			return nil, "", false, nil
		}
		keyResolved, err := s.substitute(ctx, keyVal)
		if err != nil {
			return nil, "", false, err
		}
		return &load.Config{Client: client, Key: keyResolved.String()}, client, true, nil

	case load.ClientEnv:
		mapVal, has := loadMeta["map"]
		if !has {
			return nil, "", false, nil
		}
		m, err := s.resolveStringMap(ctx, mapVal)
		if err != nil {
			return nil, "", false, err
		}
		return &load.Config{Client: client, Map: m}, client, true, nil

	case load.ClientDb:
		connVal, hasConn := loadMeta["connection"]
		tableVal, hasTable := loadMeta["table"]
		mapVal, hasMap := loadMeta["map"]
		if !hasConn || !hasTable || !hasMap {
			return nil, "", false, nil
		}
		connResolved, err := s.substitute(ctx, connVal)
		if err != nil {
			return nil, "", false, err
		}
		tableResolved, err := s.substitute(ctx, tableVal)
		if err != nil {
			return nil, "", false, err
		}
		m, err := s.resolveStringMap(ctx, mapVal)
		if err != nil {
			return nil, "", false, err
		}
		cfg := &load.Config{
			Client:     client,
			Connection: connResolved.String(),
			Table:      tableResolved.String(),
			Map:        m,
		}
		if whereVal, has := loadMeta["where"]; has {
			whereResolved, err := s.substitute(ctx, whereVal)
			if err != nil {
				return nil, "", false, err
			}
			cfg.Where = whereResolved.String()
		}
		return cfg, client, true, nil

	default:
		return nil, "", false, nil
	}
}

func (s *State) resolveStringMap(ctx context.Context, v value.Value) (map[string]string, error) {
	resolved, err := s.substitute(ctx, v)
	if err != nil {
		return nil, err
	}
	m, ok := resolved.AsMap()
	if !ok {
		return nil, nil
	}
	out := make(map[string]string, len(m))
	for k, item := range m {
		out[k] = item.String()
	}
	return out, nil
}

// probeStore reads a node's store_key directly from the persistent store,
// bypassing cache.
func (s *State) probeStore(ctx context.Context, cfg *StoreConfig, path string) (value.Value, bool, error) {
	switch cfg.Client {
	case "KVS":
		if s.bundle.KVS == nil {
			return value.Null(), false, stateerrors.NewAdapterError(stateerrors.AdapterMissing, path, nil)
		}
		raw, found, err := s.bundle.KVS.Get(ctx, cfg.Key)
		if err != nil {
			return value.Null(), false, stateerrors.NewAdapterError(stateerrors.AdapterKVS, path, err)
		}
		if !found {
			return value.Null(), false, nil
		}
		v, err := value.Decode(raw)
		if err != nil {
			return value.Null(), false, stateerrors.DecodeError(path, err)
		}
		return v, true, nil

	case "InMemory":
		if s.bundle.InMemory == nil {
			return value.Null(), false, stateerrors.NewAdapterError(stateerrors.AdapterMissing, path, nil)
		}
		v, found, err := s.bundle.InMemory.Get(ctx, cfg.Key)
		if err != nil {
			return value.Null(), false, stateerrors.NewAdapterError(stateerrors.AdapterInMemory, path, err)
		}
		return v, found, nil
	}
	return value.Null(), false, nil
}

// writeStore persists v at cfg's store_key, unconditionally (the caller
// decides when write-through is appropriate).
func (s *State) writeStore(ctx context.Context, cfg *StoreConfig, v value.Value) error {
	switch cfg.Client {
	case "KVS":
		if s.bundle.KVS == nil {
			return stateerrors.NewAdapterError(stateerrors.AdapterMissing, cfg.Key, nil)
		}
		encoded, err := value.Encode(v)
		if err != nil {
			return stateerrors.Wrap(err, "encoding value for KVS write")
		}
		if _, err := s.bundle.KVS.Set(ctx, cfg.Key, encoded, cfg.TTL); err != nil {
			return stateerrors.NewAdapterError(stateerrors.AdapterKVS, cfg.Key, err)
		}
	case "InMemory":
		if s.bundle.InMemory == nil {
			return stateerrors.NewAdapterError(stateerrors.AdapterMissing, cfg.Key, nil)
		}
		if _, err := s.bundle.InMemory.Set(ctx, cfg.Key, v); err != nil {
			return stateerrors.NewAdapterError(stateerrors.AdapterInMemory, cfg.Key, err)
		}
	}
	return nil
}

func (s *State) deleteFromStore(ctx context.Context, cfg *StoreConfig, path string) (bool, error) {
	switch cfg.Client {
	case "KVS":
		if s.bundle.KVS == nil {
			return false, stateerrors.NewAdapterError(stateerrors.AdapterMissing, path, nil)
		}
		ok, err := s.bundle.KVS.Delete(ctx, cfg.Key)
		if err != nil {
			return false, stateerrors.NewAdapterError(stateerrors.AdapterKVS, path, err)
		}
		return ok, nil
	case "InMemory":
		if s.bundle.InMemory == nil {
			return false, stateerrors.NewAdapterError(stateerrors.AdapterMissing, path, nil)
		}
		ok, err := s.bundle.InMemory.Delete(ctx, cfg.Key)
		if err != nil {
			return false, stateerrors.NewAdapterError(stateerrors.AdapterInMemory, path, err)
		}
		return ok, nil
	}
	return false, nil
}

// extractField implements the Field Extraction rule: a Map retrieved for a
// node that is itself a leaf child of a shared dictionary (its parent
// resolves to the same store_key) is narrowed to that node's own field;
// everything else is returned as retrieved.
func (s *State) extractField(ctx context.Context, nodeIdx manifest.NodeIndex, ownKey string, hasOwnStore bool, v value.Value) (value.Value, error) {
	if !hasOwnStore || v.Kind() != value.KindMap {
		return v, nil
	}
	_, shared, err := s.isSharedDictChild(ctx, nodeIdx, ownKey)
	if err != nil {
		return value.Null(), err
	}
	if !shared {
		return v, nil
	}
	field, _ := v.Field(s.manifest.Segment(nodeIdx))
	return field, nil
}

// isSharedDictChild reports whether nodeIdx's parent resolves to the same
// store_key as ownKey, meaning nodeIdx addresses one field of a dictionary
// whose record lives under the parent's key rather than its own.
func (s *State) isSharedDictChild(ctx context.Context, nodeIdx manifest.NodeIndex, ownKey string) (manifest.NodeIndex, bool, error) {
	parentIdx, hasParent := s.manifest.Parent(nodeIdx)
	if !hasParent {
		return 0, false, nil
	}
	parentCfg, hasParentStore, err := s.buildStoreConfig(ctx, parentIdx)
	if err != nil {
		return 0, false, err
	}
	if !hasParentStore {
		return 0, false, nil
	}
	return parentIdx, parentCfg.Key == ownKey, nil
}
