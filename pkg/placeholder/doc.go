// Package placeholder is a pure string utility: it has no notion of
// manifests, nodes, or State. Every resolver it calls is supplied by the
// caller, which keeps the recursive "resolving a placeholder may itself
// trigger State.get, which may itself resolve more placeholders" loop
// entirely in pkg/state, where the recursion guard lives.
package placeholder
