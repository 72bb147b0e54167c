// Handle is stateless and keeps no cache of its own — every call hits the
// adapter bundle directly. Caching, write-through, and deciding whether to
// call Handle at all belong to pkg/state.
package load
