// Package state implements the State façade: the single entry point
// application code calls (Get/Set/Delete/Exists), backed by a
// per-instance cache and a RecursionGuard that bounds how deep placeholder
// resolution and State-client redirects may recurse before giving up.
package state

import (
	"context"

	"github.com/declarative-state/state-engine/pkg/adapter"
	"github.com/declarative-state/state-engine/pkg/config"
	stateerrors "github.com/declarative-state/state-engine/pkg/errors"
	"github.com/declarative-state/state-engine/pkg/load"
	"github.com/declarative-state/state-engine/pkg/logger"
	"github.com/declarative-state/state-engine/pkg/manifest"
	"github.com/declarative-state/state-engine/pkg/placeholder"
	"github.com/declarative-state/state-engine/pkg/value"
)

// DefaultMaxRecursion bounds both the call depth and, transitively, how
// far a chain of State-client redirects or placeholder references can run
// before it is treated as runaway rather than merely deep, for a State
// built with New. NewWithMaxRecursion and NewFromManifestDir let a host
// override this per instance.
const DefaultMaxRecursion = 20

// State is request-scoped: its cache and RecursionGuard assume one logical
// request drives all calls against it. Multiple State instances may safely
// share one immutable Manifest.
type State struct {
	manifest *manifest.Manifest
	bundle   *adapter.Bundle
	log      logger.Logger

	cache        map[manifest.NodeIndex]value.Value
	calledKeys   map[string]bool
	depth        int
	maxRecursion int
}

// New constructs a State over an already-populated Manifest and an
// adapter Bundle (any field of which may be nil, if this host never
// addresses that backend), bounding recursion at DefaultMaxRecursion.
func New(m *manifest.Manifest, bundle *adapter.Bundle, log logger.Logger) *State {
	return NewWithMaxRecursion(m, bundle, log, DefaultMaxRecursion)
}

// NewWithMaxRecursion is New with an explicit recursion ceiling, for a
// host that loaded its own config.Config rather than accepting the
// default.
func NewWithMaxRecursion(m *manifest.Manifest, bundle *adapter.Bundle, log logger.Logger, maxRecursion int) *State {
	if log == nil {
		log = logger.Default()
	}
	if bundle == nil {
		bundle = &adapter.Bundle{}
	}
	if maxRecursion <= 0 {
		maxRecursion = DefaultMaxRecursion
	}
	return &State{
		manifest:     m,
		bundle:       bundle,
		log:          log.WithPrefix("state"),
		cache:        make(map[manifest.NodeIndex]value.Value),
		calledKeys:   make(map[string]bool),
		maxRecursion: maxRecursion,
	}
}

// NewFromManifestDir is the config-driven entry point: it loads cfg's
// manifest directory, builds a Logger at cfg's configured level, and
// bounds recursion at cfg.MaxRecursion, so a host only has to hand it a
// config.Config and an adapter.Bundle.
func NewFromManifestDir(cfg *config.Config, bundle *adapter.Bundle) (*State, error) {
	log := logger.New(logger.Options{
		Output:        logger.DefaultOptions().Output,
		Level:         cfg.LogLevelValue(),
		ShowTimestamp: true,
	})
	m, err := manifest.New(cfg.ManifestDir, log)
	if err != nil {
		return nil, err
	}
	return NewWithMaxRecursion(m, bundle, log, cfg.MaxRecursion), nil
}

// enter is the common prelude every public call runs first: it fails fast
// on a cycle or runaway depth, then reserves this path's recursion slot.
// Callers must defer exit(path) immediately after a nil error return, so
// the slot releases on every exit path including a later error.
func (s *State) enter(path string) error {
	if s.calledKeys[path] {
		s.log.WithFields(logger.Fields{"path": path}).Warn("circular dependency detected")
		return stateerrors.CircularDependency(path)
	}
	if s.depth >= s.maxRecursion {
		s.log.WithFields(logger.Fields{"path": path, "depth": s.depth}).Warn("recursion limit exceeded")
		return stateerrors.RecursionLimitExceeded(path, s.maxRecursion)
	}
	s.calledKeys[path] = true
	s.depth++
	return nil
}

func (s *State) exit(path string) {
	s.depth--
	delete(s.calledKeys, path)
}

// Get resolves a qualified path: cache, then store, then — on a store
// miss — an auto-load, written through to both store and cache before
// being returned. found is false only for a legitimate miss, never an
// error condition.
func (s *State) Get(ctx context.Context, path string) (value.Value, bool, error) {
	if err := s.enter(path); err != nil {
		return value.Null(), false, err
	}
	defer s.exit(path)

	nodeIdx, ok, err := s.resolveNode(path)
	if err != nil {
		return value.Null(), false, err
	}
	if !ok {
		return value.Null(), false, nil
	}

	if v, hit := s.cache[nodeIdx]; hit {
		s.log.WithFields(logger.Fields{"path": path}).Debug("cache hit")
		return v, true, nil
	}
	s.log.WithFields(logger.Fields{"path": path}).Debug("cache miss")

	_, storeMeta, loadMeta := s.manifest.Meta(nodeIdx)
	if storeMeta == nil && loadMeta == nil {
		return value.Null(), false, nil
	}

	if loadMeta != nil {
		if redirect, handled, err := s.tryStateRedirect(ctx, nodeIdx, loadMeta); handled {
			return redirect.value, redirect.found, err
		}
	}

	storeCfg, hasStore, err := s.buildStoreConfig(ctx, nodeIdx)
	if err != nil {
		return value.Null(), false, err
	}

	if hasStore {
		v, found, err := s.probeStore(ctx, storeCfg, path)
		if err != nil {
			return value.Null(), false, err
		}
		s.log.WithFields(logger.Fields{"path": path, "key": storeCfg.Key, "found": found}).Debug("store probe")
		if found {
			extracted, err := s.extractField(ctx, nodeIdx, storeCfg.Key, true, v)
			if err != nil {
				return value.Null(), false, err
			}
			s.cache[nodeIdx] = extracted
			return extracted, true, nil
		}
	}

	if loadMeta != nil {
		loadCfg, client, hasLoad, err := s.buildLoadConfig(ctx, nodeIdx, loadMeta)
		if err != nil {
			return value.Null(), false, err
		}
		if hasLoad && client != load.ClientState {
			s.log.WithFields(logger.Fields{"path": path, "client": client}).Debug("load attempt")
			v, err := load.Handle(ctx, *loadCfg, s.bundle, path)
			if err != nil {
				return value.Null(), false, stateerrors.LoadFailed(path, err)
			}
			if !v.IsNull() {
				if hasStore {
					if err := s.writeStore(ctx, storeCfg, v); err != nil {
						return value.Null(), false, err
					}
				}
				ownKey := ""
				if hasStore {
					ownKey = storeCfg.Key
				}
				extracted, err := s.extractField(ctx, nodeIdx, ownKey, hasStore, v)
				if err != nil {
					return value.Null(), false, err
				}
				s.cache[nodeIdx] = extracted
				return extracted, true, nil
			}
		}
	}

	return value.Null(), false, nil
}

type redirectResult struct {
	value value.Value
	found bool
}

// tryStateRedirect handles a _load.client: State entry: a pure cache-only
// redirect, special-cased here rather than routed through pkg/load, so it
// inherits this same guard. A key that is exactly one ${path} reference
// yields the value Get returned for that path; any other key is taken as
// the path to Get.
func (s *State) tryStateRedirect(ctx context.Context, nodeIdx manifest.NodeIndex, loadMeta manifest.MetaBlock) (redirectResult, bool, error) {
	clientVal, hasClient := loadMeta["client"]
	if !hasClient {
		return redirectResult{}, false, nil
	}
	clientResolved, err := s.substitute(ctx, clientVal)
	if err != nil {
		return redirectResult{}, true, err
	}
	if clientResolved.String() != string(load.ClientState) {
		return redirectResult{}, false, nil
	}
	keyVal, hasKey := loadMeta["key"]
	if !hasKey {
		return redirectResult{}, false, nil
	}
	keyResolved, err := s.substitute(ctx, keyVal)
	if err != nil {
		return redirectResult{}, true, err
	}
	if raw, isStr := keyVal.AsString(); isStr {
		if refs := placeholder.Extract(raw); len(refs) == 1 && raw == "${"+refs[0]+"}" {
			found := !keyResolved.IsNull()
			if found {
				s.cache[nodeIdx] = keyResolved
			}
			return redirectResult{value: keyResolved, found: found}, true, nil
		}
	}
	redirectPath := keyResolved.String()

	v, found, err := s.Get(ctx, redirectPath)
	if err != nil {
		return redirectResult{}, true, err
	}
	if found {
		s.cache[nodeIdx] = v
	}
	return redirectResult{value: v, found: found}, true, nil
}

// Set writes value at path. ttl, if non-nil, overrides _store.ttl for
// this call only (KVS stores only). set never triggers auto-load.
func (s *State) Set(ctx context.Context, path string, v value.Value, ttl *int) (bool, error) {
	if err := s.enter(path); err != nil {
		return false, err
	}
	defer s.exit(path)

	nodeIdx, ok, err := s.resolveNode(path)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, stateerrors.NotWritable(path)
	}

	storeCfg, hasStore, err := s.buildStoreConfig(ctx, nodeIdx)
	if err != nil {
		return false, err
	}
	if !hasStore {
		return false, stateerrors.NotWritable(path)
	}

	effTTL := ttl
	if effTTL == nil {
		effTTL = storeCfg.TTL
	}

	parentIdx, shared, err := s.isSharedDictChild(ctx, nodeIdx, storeCfg.Key)
	if err != nil {
		return false, err
	}

	valueToWrite := v
	if shared {
		merged, err := s.mergeIntoParentDict(ctx, nodeIdx, parentIdx, v)
		if err != nil {
			return false, err
		}
		valueToWrite = merged
		s.cache[parentIdx] = merged
	}

	effCfg := *storeCfg
	effCfg.TTL = effTTL
	if err := s.writeStore(ctx, &effCfg, valueToWrite); err != nil {
		return false, err
	}

	s.cache[nodeIdx] = v
	return true, nil
}

func (s *State) mergeIntoParentDict(ctx context.Context, nodeIdx, parentIdx manifest.NodeIndex, v value.Value) (value.Value, error) {
	existing, found, err := s.Get(ctx, s.manifest.Path(parentIdx))
	if err != nil {
		return value.Null(), err
	}
	m := make(map[string]value.Value)
	if found {
		if mm, ok := existing.AsMap(); ok {
			for k, ev := range mm {
				m[k] = ev
			}
		}
	}
	m[s.manifest.Segment(nodeIdx)] = v
	return value.Map(m), nil
}

// Delete removes the node's persisted value and its cache entries,
// including any relative that aliases the same store_key — deleting any
// one leaf of a KVS-backed dictionary deletes the whole record, both in
// the store and in cache, so a sibling leaf never serves a now-stale
// cached value for a record that no longer exists.
func (s *State) Delete(ctx context.Context, path string) (bool, error) {
	if err := s.enter(path); err != nil {
		return false, err
	}
	defer s.exit(path)

	nodeIdx, ok, err := s.resolveNode(path)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, stateerrors.NotWritable(path)
	}

	storeCfg, hasStore, err := s.buildStoreConfig(ctx, nodeIdx)
	if err != nil {
		return false, err
	}
	if !hasStore {
		return false, stateerrors.NotWritable(path)
	}

	deleted, err := s.deleteFromStore(ctx, storeCfg, path)
	if err != nil {
		return false, err
	}
	s.log.WithFields(logger.Fields{"path": path, "key": storeCfg.Key, "deleted": deleted}).Debug("delete")

	root, err := s.sharedDictRoot(ctx, nodeIdx, storeCfg.Key)
	if err != nil {
		return false, err
	}
	s.clearCacheSubtree(ctx, root, storeCfg.Key)
	return deleted, nil
}

// sharedDictRoot climbs from nodeIdx to the highest ancestor whose own
// resolved store_key still equals storeKey, so clearCacheSubtree
// invalidates every field aliasing the same physical record — not just
// nodeIdx's own descendants — when a Delete call lands on one leaf of a
// dictionary whose siblings were reached, and cached, directly.
func (s *State) sharedDictRoot(ctx context.Context, nodeIdx manifest.NodeIndex, storeKey string) (manifest.NodeIndex, error) {
	for {
		parentIdx, hasParent := s.manifest.Parent(nodeIdx)
		if !hasParent {
			return nodeIdx, nil
		}
		parentCfg, hasParentStore, err := s.buildStoreConfig(ctx, parentIdx)
		if err != nil {
			return 0, err
		}
		if !hasParentStore || parentCfg.Key != storeKey {
			return nodeIdx, nil
		}
		nodeIdx = parentIdx
	}
}

func (s *State) clearCacheSubtree(ctx context.Context, nodeIdx manifest.NodeIndex, storeKey string) {
	delete(s.cache, nodeIdx)
	for _, child := range s.manifest.Children(nodeIdx) {
		childCfg, has, err := s.buildStoreConfig(ctx, child.Index)
		if err != nil {
			continue
		}
		if !has || childCfg.Key == storeKey {
			s.clearCacheSubtree(ctx, child.Index, storeKey)
		}
	}
}

// Exists reports whether path currently has a value, in cache or in the
// persistent store. Unlike Get, it never attempts an auto-load and never
// mutates the cache.
func (s *State) Exists(ctx context.Context, path string) (bool, error) {
	if err := s.enter(path); err != nil {
		return false, err
	}
	defer s.exit(path)

	nodeIdx, ok, err := s.resolveNode(path)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if _, hit := s.cache[nodeIdx]; hit {
		return true, nil
	}

	storeCfg, hasStore, err := s.buildStoreConfig(ctx, nodeIdx)
	if err != nil {
		return false, err
	}
	if !hasStore {
		return false, nil
	}

	_, found, err := s.probeStore(ctx, storeCfg, path)
	return found, err
}

func (s *State) resolveNode(path string) (manifest.NodeIndex, bool, error) {
	file, _ := manifest.SplitPath(path)
	if err := s.manifest.Load(file); err != nil {
		return 0, false, err
	}
	idx, ok := s.manifest.Find(path)
	return idx, ok, nil
}
