// Package adapter has no implementation of its own. It is the seam
// between the core (pkg/manifest, pkg/load, pkg/state) and whatever
// backends a host application actually runs — a real KVS, a real SQL
// database, the real process environment. See internal/adapters for
// reference implementations used by this module's own tests.
package adapter
