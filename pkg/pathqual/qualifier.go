// Package pathqual implements the single path-qualification rule applied
// once, at manifest parse time, to every placeholder path: after
// qualification every stored placeholder is absolute, so the State
// runtime never needs to re-qualify or guess at same-node-vs-absolute
// ambiguity at resolution time.
package pathqual

import "strings"

// Qualify turns a raw placeholder path into a fully-qualified
// "file.segment.segment..." path.
//
//   - If raw contains '.', it is already absolute and is returned
//     unchanged (qualification is idempotent: Qualify(Qualify(p)) ==
//     Qualify(p)).
//   - Otherwise raw is a same-node reference and is qualified against the
//     current file stem and the ancestor field chain leading to the
//     node that owns the placeholder.
func Qualify(raw, fileStem string, ancestors []string) string {
	if strings.Contains(raw, ".") {
		return raw
	}

	segments := make([]string, 0, 2+len(ancestors))
	segments = append(segments, fileStem)
	segments = append(segments, ancestors...)
	segments = append(segments, raw)
	return strings.Join(segments, ".")
}
