// Package errors provides the structured error taxonomy used across
// state-engine: every failure pkg/manifest, pkg/load, and pkg/state detect
// themselves is reported as one of the types defined here (or wraps one)
// rather than a bare fmt.Errorf string, so callers can use errors.As to
// recover the offending path. A directory-walk error from manifest.New and
// a value-encoding error from State.Set pass through without one.
package errors

import (
	"errors"
	"fmt"
)

// ErrType classifies a BaseError for callers that want to switch on
// category without a type assertion per concrete error.
type ErrType int

const (
	ErrTypeNotFound ErrType = iota
	ErrTypeNotWritable
	ErrTypeManifest
	ErrTypeAdapter
	ErrTypeDecode
	ErrTypeTemplate
	ErrTypeRecursion
	ErrTypeLoad
)

func (t ErrType) String() string {
	switch t {
	case ErrTypeNotFound:
		return "not_found"
	case ErrTypeNotWritable:
		return "not_writable"
	case ErrTypeManifest:
		return "manifest"
	case ErrTypeAdapter:
		return "adapter"
	case ErrTypeDecode:
		return "decode"
	case ErrTypeTemplate:
		return "template"
	case ErrTypeRecursion:
		return "recursion"
	case ErrTypeLoad:
		return "load"
	default:
		return "unknown"
	}
}

// BaseError is the common shape every state-engine error embeds: a
// category, a human message, an optional help hint, a structured context
// map for the offending path/file/client, and an optional wrapped cause.
type BaseError struct {
	ErrType ErrType
	Message string
	Help    string
	Context map[string]interface{}
	Cause   error
}

func (e *BaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

func (e *BaseError) Unwrap() error { return e.Cause }

// NotWritableError is returned by State.set/delete when the addressed node
// has no reachable _store.
type NotWritableError struct {
	*BaseError
	Path string
}

func NotWritable(path string) *NotWritableError {
	return &NotWritableError{
		BaseError: &BaseError{
			ErrType: ErrTypeNotWritable,
			Message: fmt.Sprintf("node %q has no _store and cannot be written", path),
			Help:    "add a _store block to this node or one of its ancestors",
			Context: map[string]interface{}{"path": path},
		},
		Path: path,
	}
}

// ManifestErrorKind distinguishes the three manifest-parse failure shapes.
type ManifestErrorKind int

const (
	DuplicateStem ManifestErrorKind = iota
	YamlParseError
	InvalidMeta
)

func (k ManifestErrorKind) String() string {
	switch k {
	case DuplicateStem:
		return "duplicate_stem"
	case YamlParseError:
		return "yaml_parse_error"
	case InvalidMeta:
		return "invalid_meta"
	default:
		return "unknown"
	}
}

// ManifestError wraps a failure encountered while parsing one manifest
// file: a duplicate file stem, a YAML syntax error, or a malformed meta
// block.
type ManifestError struct {
	*BaseError
	Kind ManifestErrorKind
	File string
}

func NewManifestError(kind ManifestErrorKind, file, detail string, cause error) *ManifestError {
	return &ManifestError{
		BaseError: &BaseError{
			ErrType: ErrTypeManifest,
			Message: fmt.Sprintf("manifest %q: %s: %s", file, kind, detail),
			Context: map[string]interface{}{"file": file, "kind": kind.String()},
			Cause:   cause,
		},
		Kind: kind,
		File: file,
	}
}

// AdapterWhich names the capability an AdapterError occurred against, or
// "missing" when the capability was never supplied to State at all.
type AdapterWhich string

const (
	AdapterInMemory AdapterWhich = "in_memory"
	AdapterKVS      AdapterWhich = "kvs"
	AdapterDb       AdapterWhich = "db"
	AdapterEnv      AdapterWhich = "env"
	AdapterMissing  AdapterWhich = "missing"
)

// AdapterError wraps any failure surfaced by a host-supplied adapter call.
type AdapterError struct {
	*BaseError
	Which AdapterWhich
	Path  string
}

func NewAdapterError(which AdapterWhich, path string, cause error) *AdapterError {
	msg := fmt.Sprintf("adapter %s failed for %q", which, path)
	if which == AdapterMissing {
		msg = fmt.Sprintf("no %s adapter configured, required by %q", which, path)
	}
	return &AdapterError{
		BaseError: &BaseError{
			ErrType: ErrTypeAdapter,
			Message: msg,
			Context: map[string]interface{}{"which": string(which), "path": path},
			Cause:   cause,
		},
		Which: which,
		Path:  path,
	}
}

// DecodeErr is returned when a KVS-stored string is not valid JSON.
type DecodeErr struct {
	*BaseError
	Path string
}

func DecodeError(path string, cause error) *DecodeErr {
	return &DecodeErr{
		BaseError: &BaseError{
			ErrType: ErrTypeDecode,
			Message: fmt.Sprintf("value stored at %q is not decodable JSON", path),
			Cause:   cause,
			Context: map[string]interface{}{"path": path},
		},
		Path: path,
	}
}

// InvalidTemplateErr is returned when a template tries to interpolate a
// composite Value into a multi-placeholder string.
type InvalidTemplateErr struct {
	*BaseError
	Template string
}

func InvalidTemplate(template string) *InvalidTemplateErr {
	return &InvalidTemplateErr{
		BaseError: &BaseError{
			ErrType: ErrTypeTemplate,
			Message: fmt.Sprintf("template %q interpolates a composite value into a multi-placeholder string", template),
			Help:    "reference the composite value alone, as the template's entire string, instead",
			Context: map[string]interface{}{"template": template},
		},
		Template: template,
	}
}

// CircularDependencyErr is a RecursionGuard violation: the path is already
// being resolved somewhere up the current call stack.
type CircularDependencyErr struct {
	*BaseError
	Path string
}

func CircularDependency(path string) *CircularDependencyErr {
	return &CircularDependencyErr{
		BaseError: &BaseError{
			ErrType: ErrTypeRecursion,
			Message: fmt.Sprintf("circular dependency detected at %q", path),
			Context: map[string]interface{}{"path": path},
		},
		Path: path,
	}
}

// RecursionLimitErr is a RecursionGuard violation: depth exceeded
// MAX_RECURSION before the path could be resolved.
type RecursionLimitErr struct {
	*BaseError
	Path  string
	Limit int
}

func RecursionLimitExceeded(path string, limit int) *RecursionLimitErr {
	return &RecursionLimitErr{
		BaseError: &BaseError{
			ErrType: ErrTypeRecursion,
			Message: fmt.Sprintf("recursion limit %d exceeded resolving %q", limit, path),
			Context: map[string]interface{}{"path": path, "limit": limit},
		},
		Path:  path,
		Limit: limit,
	}
}

// LoadFailedErr wraps a terminal failure from the Load subsystem; callers
// should treat it the same as any other infrastructure fault.
type LoadFailedErr struct {
	*BaseError
	Path string
}

func LoadFailed(path string, cause error) *LoadFailedErr {
	return &LoadFailedErr{
		BaseError: &BaseError{
			ErrType: ErrTypeLoad,
			Message: fmt.Sprintf("load failed for %q", path),
			Cause:   cause,
			Context: map[string]interface{}{"path": path},
		},
		Path: path,
	}
}

// Wrap attaches a message to err without discarding its identity: the
// result still satisfies errors.Is/errors.As against err. Returns nil if
// err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// Is/As/Unwrap re-exported so callers importing this package don't also
// need to import the standard errors package for the common case.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)
