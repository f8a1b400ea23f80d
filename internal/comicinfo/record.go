package comicinfo

import "encoding/xml"

// Element is a child of the ComicInfo root kept verbatim. Raw holds the
// element exactly as it appeared in the source document.
type Element struct {
	Name string
	Raw  []byte

	field   Field
	shadows bool
}

// Shadows reports the known field e holds in a form that could not be read as
// a value, such as nested markup or a malformed number.
func (e Element) Shadows() (Field, bool) { return e.field, e.shadows }

func (e Element) clone() Element {
	e.Raw = append([]byte(nil), e.Raw...)
	return e
}

// Record is the in-memory form of a ComicInfo.xml document. A field missing
// from the record is unset, which is distinct from a field set to "".
// The zero Record is empty and ready to use.
type Record struct {
	values    map[Field]Value
	extras    []Element
	rootAttrs []xml.Attr
}

func NewRecord() Record { return Record{} }

func (r Record) Get(f Field) (Value, bool) {
	v, ok := r.values[f]
	return v, ok
}

// Set stores v under f. A value whose kind does not match f is rejected.
func (r *Record) Set(f Field, v Value) bool {
	if !f.Valid() || v.Kind() != f.Kind() {
		return false
	}
	if r.values == nil {
		r.values = make(map[Field]Value)
	}
	r.values[f] = v
	return true
}

func (r *Record) Unset(f Field) {
	delete(r.values, f)
}

// Fields returns the set fields in serialization order.
func (r Record) Fields() []Field {
	out := make([]Field, 0, len(r.values))
	for f := Field(0); f < fieldCount; f++ {
		if _, ok := r.values[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

func (r Record) Len() int { return len(r.values) }

// IsEmpty reports whether no known field and no pass-through element is present.
func (r Record) IsEmpty() bool { return len(r.values) == 0 && len(r.extras) == 0 }

// Extras returns the pass-through elements in document order.
func (r Record) Extras() []Element {
	out := make([]Element, len(r.extras))
	for i, e := range r.extras {
		out[i] = e.clone()
	}
	return out
}

func (r *Record) AddExtra(e Element) {
	r.extras = append(r.extras, e.clone())
}

// DropShadowed removes the pass-through elements standing in for f.
func (r *Record) DropShadowed(f Field) {
	var kept []Element
	for _, e := range r.extras {
		if e.shadows && e.field == f {
			continue
		}
		kept = append(kept, e)
	}
	r.extras = kept
}

func (r Record) RootAttrs() []xml.Attr {
	return append([]xml.Attr(nil), r.rootAttrs...)
}

func (r *Record) SetRootAttrs(attrs []xml.Attr) {
	r.rootAttrs = append([]xml.Attr(nil), attrs...)
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := Record{
		extras:    r.Extras(),
		rootAttrs: r.RootAttrs(),
	}
	if len(r.values) > 0 {
		out.values = make(map[Field]Value, len(r.values))
		for f, v := range r.values {
			out.values[f] = v
		}
	}
	return out
}

// SameFields reports whether r and o hold the same set of known fields with
// equal values. Pass-through elements are not compared.
func (r Record) SameFields(o Record) bool {
	if len(r.values) != len(o.values) {
		return false
	}
	for f, v := range r.values {
		ov, ok := o.values[f]
		if !ok || ov != v {
			return false
		}
	}
	return true
}
