// _state.type is never enforced here — it is carried through Meta as
// ordinary descriptive data for a host to read, never consulted by Get,
// Set, Delete, or Exists. Cross-backend transactions are likewise out of
// scope: a write-through that updates both store and cache is not atomic
// across the two, and a shared-dictionary read-modify-write in Set is not
// protected against a concurrent writer on another State instance.
package state
