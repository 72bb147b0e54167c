// Package placeholder implements the ${path} template syntax used in
// manifest _store/_load blocks: extracting the referenced paths, and
// substituting them against a caller-supplied resolver while preserving
// the resolved value's type when the whole template is a single
// placeholder.
package placeholder

import (
	"regexp"
	"strings"

	"github.com/declarative-state/state-engine/pkg/errors"
	"github.com/declarative-state/state-engine/pkg/value"
)

// pattern matches ${path}; path is any run of characters that doesn't
// contain '}' — there is no escape syntax.
var pattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// Resolver looks up the current value of a qualified path. found is false
// when the path legitimately has no value yet (a miss, not an error) —
// State.get returning Ok(None) maps to found=false, err=nil here.
type Resolver func(path string) (v value.Value, found bool, err error)

// Extract returns every placeholder path referenced in template, in
// left-to-right order, with duplicates preserved.
func Extract(template string) []string {
	matches := pattern.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m[1]
	}
	return out
}

// isWholeStringPlaceholder reports whether template is exactly one
// placeholder spanning the entire string, e.g. "${session.sso_user_id}".
func isWholeStringPlaceholder(template string) (path string, ok bool) {
	m := pattern.FindStringSubmatch(template)
	if m == nil {
		return "", false
	}
	if m[0] == template {
		return m[1], true
	}
	return "", false
}

// Substitute resolves every placeholder in template. If template is
// exactly one whole-string placeholder, the resolver's raw Value replaces
// it as-is (typePreserved=true): a ${session.sso_user_id} placeholder
// referencing an Integer yields an Integer, not its string form. Otherwise
// every placeholder is stringified into the surrounding text
// (typePreserved=false) and the result is always a String.
//
// An unresolved placeholder (resolver reports found=false) is not an
// error: for the whole-string case the result is Null; for the
// multi-placeholder case the entire original template is returned
// unchanged, since partial substitution would produce a string the author
// never wrote.
func Substitute(template string, resolve Resolver) (value.Value, bool, error) {
	if path, ok := isWholeStringPlaceholder(template); ok {
		v, found, err := resolve(path)
		if err != nil {
			return value.Null(), true, err
		}
		if !found {
			return value.Null(), true, nil
		}
		return v, true, nil
	}

	paths := Extract(template)
	if len(paths) == 0 {
		return value.String(template), false, nil
	}

	result := template
	for _, path := range paths {
		v, found, err := resolve(path)
		if err != nil {
			return value.Null(), false, err
		}
		if !found {
			// Leave the template exactly as authored; nothing in this
			// template is safe to substitute if one reference is missing.
			return value.String(template), false, nil
		}
		if v.IsComposite() {
			return value.Null(), false, errors.InvalidTemplate(template)
		}
		result = strings.Replace(result, "${"+path+"}", v.String(), 1)
	}
	return value.String(result), false, nil
}

// SubstituteValue applies Substitute recursively to every string found
// inside v, including strings nested in lists and maps. Non-string leaves
// (bool, integer, float, null) pass through unchanged.
func SubstituteValue(v value.Value, resolve Resolver) (value.Value, error) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		resolved, _, err := Substitute(s, resolve)
		if err != nil {
			return value.Null(), err
		}
		return resolved, nil

	case value.KindList:
		items, _ := v.AsList()
		out := make([]value.Value, len(items))
		for i, item := range items {
			resolved, err := SubstituteValue(item, resolve)
			if err != nil {
				return value.Null(), err
			}
			out[i] = resolved
		}
		return value.List(out), nil

	case value.KindMap:
		m, _ := v.AsMap()
		out := make(map[string]value.Value, len(m))
		for k, item := range m {
			resolved, err := SubstituteValue(item, resolve)
			if err != nil {
				return value.Null(), err
			}
			out[k] = resolved
		}
		return value.Map(out), nil

	default:
		return v, nil
	}
}
