// Package value is the lowest layer of state-engine: every config block,
// every adapter return, and every leaf the manifest parser interns is a
// value.Value. See Encode/Decode for the canonical JSON codec used to carry
// a Value across the primitive-string KVS boundary without losing the
// Integer/Float/Bool/String distinction.
package value
