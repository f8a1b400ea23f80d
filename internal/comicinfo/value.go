package comicinfo

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind is the scalar type carried by a field.
type Kind uint8

const (
	KindText Kind = iota
	KindInt
	KindFloat
	KindYesNo
	KindManga
	KindReadStatus
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindYesNo:
		return "Unknown/No/Yes"
	case KindManga:
		return "Unknown/No/Yes/YesAndRightToLeft"
	case KindReadStatus:
		return "Yes/No"
	default:
		return "unknown"
	}
}

// YesNo is the schema's YesNo enumeration, used by the flag fields.
type YesNo string

const (
	YesNoUnknown YesNo = "Unknown"
	YesNoNo      YesNo = "No"
	YesNoYes     YesNo = "Yes"
)

var yesNoValues = []YesNo{YesNoUnknown, YesNoNo, YesNoYes}

// MangaValue is the schema's Manga enumeration.
type MangaValue string

const (
	MangaUnknown           MangaValue = "Unknown"
	MangaNo                MangaValue = "No"
	MangaYes               MangaValue = "Yes"
	MangaYesAndRightToLeft MangaValue = "YesAndRightToLeft"
)

var mangaValues = []MangaValue{MangaUnknown, MangaNo, MangaYes, MangaYesAndRightToLeft}

// ReadStatus is the reading state of an issue.
type ReadStatus string

const (
	ReadYes ReadStatus = "Yes"
	ReadNo  ReadStatus = "No"
)

// Value is a tagged union of the scalar kinds a field can hold.
// The zero Value is an empty text value.
type Value struct {
	kind  Kind
	text  string
	num   int
	real  float64
	yesno YesNo
	manga MangaValue
	read  ReadStatus
}

func Text(s string) Value { return Value{kind: KindText, text: s} }
func Int(n int) Value { return Value{kind: KindInt, num: n} }
func Float(f float64) Value { return Value{kind: KindFloat, real: f} }
func YesNoVal(y YesNo) Value { return Value{kind: KindYesNo, yesno: y} }
func MangaVal(m MangaValue) Value { return Value{kind: KindManga, manga: m} }
func ReadVal(r ReadStatus) Value { return Value{kind: KindReadStatus, read: r} }

// Bool returns the YesNo value for b.
func Bool(b bool) Value {
	if b {
		return YesNoVal(YesNoYes)
	}
	return YesNoVal(YesNoNo)
}

func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v is an empty text value. Typed values are never empty.
func (v Value) IsEmpty() bool {
	return v.kind == KindText && v.text == ""
}

func (v Value) AsText() string { return v.text }
func (v Value) AsInt() int { return v.num }
func (v Value) AsFloat() float64 { return v.real }
func (v Value) AsYesNo() YesNo { return v.yesno }
func (v Value) AsManga() MangaValue { return v.manga }
func (v Value) AsRead() ReadStatus { return v.read }

// String returns the exact schema spelling of v.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.Itoa(v.num)
	case KindFloat:
		return strconv.FormatFloat(v.real, 'f', -1, 64)
	case KindYesNo:
		return string(v.yesno)
	case KindManga:
		return string(v.manga)
	case KindReadStatus:
		return string(v.read)
	default:
		return v.text
	}
}

// ParseValue converts the element text s into a Value of the kind f carries.
// Enumerated and boolean tokens are matched case-insensitively.
func ParseValue(f Field, s string) (Value, error) {
	if !f.Valid() {
		return Value{}, fmt.Errorf("unknown field %d", int(f))
	}
	kind := f.Kind()
	if kind == KindText {
		if err := checkText(s); err != nil {
			return Value{}, fmt.Errorf("%s: %w", f, err)
		}
		return Text(s), nil
	}

	s = strings.TrimSpace(s)
	switch kind {
	case KindInt:
		n, err := strconv.Atoi(s)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %q is not an integer", f, s)
		}
		return Int(n), nil
	case KindFloat:
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %q is not a number", f, s)
		}
		return Float(x), nil
	case KindYesNo:
		switch strings.ToLower(s) {
		case "true", "1":
			return Bool(true), nil
		case "false", "0":
			return Bool(false), nil
		}
		for _, y := range yesNoValues {
			if strings.EqualFold(s, string(y)) {
				return YesNoVal(y), nil
			}
		}
	case KindManga:
		for _, m := range mangaValues {
			if strings.EqualFold(s, string(m)) {
				return MangaVal(m), nil
			}
		}
	case KindReadStatus:
		switch strings.ToLower(s) {
		case "yes":
			return ReadVal(ReadYes), nil
		case "no":
			return ReadVal(ReadNo), nil
		}
	}
	return Value{}, fmt.Errorf("%s: %q is not one of %s", f, s, kind)
}

// checkText rejects text that an XML 1.0 document cannot carry.
func checkText(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%q is not valid UTF-8", s)
	}
	for i, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("character %U at byte %d cannot be stored in XML", r, i)
		}
	}
	return nil
}
