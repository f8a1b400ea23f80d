// Package merge combines the metadata already stored in an archive with the
// values a user supplied for a batch.
package merge

import "github.com/Another0Noob/comictag/internal/comicinfo"

// Apply returns existing with every non-empty override applied. Empty text
// overrides mean "not provided": there is no way to clear a field in a batch.
// Pass-through elements and root attributes come from existing, except an
// element standing in for a field that an override now sets.
func Apply(existing, overrides comicinfo.Record) comicinfo.Record {
	out := existing.Clone()
	for _, f := range overrides.Fields() {
		v, _ := overrides.Get(f)
		if v.IsEmpty() {
			continue
		}
		out.DropShadowed(f)
		out.Set(f, v)
	}
	return out
}

// Changed reports whether merged differs from existing in any known field.
func Changed(existing, merged comicinfo.Record) bool {
	return !existing.SameFields(merged)
}

// Effective returns the fields of overrides that would be written.
func Effective(overrides comicinfo.Record) []comicinfo.Field {
	var out []comicinfo.Field
	for _, f := range overrides.Fields() {
		if v, _ := overrides.Get(f); !v.IsEmpty() {
			out = append(out, f)
		}
	}
	return out
}
