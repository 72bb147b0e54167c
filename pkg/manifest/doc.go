// This package never resolves a placeholder or talks to an adapter — it
// only qualifies placeholder paths so pkg/state can resolve them later
// against its own RecursionGuard. It also never enforces a node's
// _state.type; that remains purely descriptive metadata carried alongside
// the rest of a _state block, for a host application to read if it wants to.
package manifest
