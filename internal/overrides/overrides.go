// Package overrides turns user input (command line assignments and the
// [metadata] ini section) into the override record applied to a batch.
package overrides

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Another0Noob/comictag/internal/comicinfo"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
	"gopkg.in/ini.v1"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidValue = errors.New("invalid value")
)

var validate = validator.New()

// rules are validator tags checked against typed values before they are
// accepted. Fields without a rule take any value of their kind.
var rules = map[comicinfo.Field]string{
	comicinfo.Count:           "gte=0",
	comicinfo.Volume:          "gte=0",
	comicinfo.VolumeCount:     "gte=0",
	comicinfo.AlternateCount:  "gte=0",
	comicinfo.Year:            "gte=0,lte=9999",
	comicinfo.Month:           "gte=1,lte=12",
	comicinfo.Day:             "gte=1,lte=31",
	comicinfo.CommunityRating: "gte=0,lte=5",
}

// languageNames are the names offered by the language picker.
var languageNames = map[string]string{
	"english":              "en",
	"spanish":              "es",
	"french":               "fr",
	"german":               "de",
	"italian":              "it",
	"japanese":             "ja",
	"korean":               "ko",
	"chinese (simplified)": "zh-Hans",
	"vietnamese":           "vi",
}

// Set parses value for the field named by key and stores it in rec.
// Surrounding space is trimmed and an empty value is ignored.
func Set(rec *comicinfo.Record, key, value string) error {
	f, err := Resolve(key)
	if err != nil {
		return err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if f == comicinfo.LanguageISO {
		value, err = languageCode(value)
		if err != nil {
			return err
		}
	}

	v, err := comicinfo.ParseValue(f, value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if err := check(f, v); err != nil {
		return err
	}
	rec.Set(f, v)
	return nil
}

func check(f comicinfo.Field, v comicinfo.Value) error {
	tag, ok := rules[f]
	if !ok {
		return nil
	}

	var err error
	switch v.Kind() {
	case comicinfo.KindInt:
		err = validate.Var(v.AsInt(), tag)
	case comicinfo.KindFloat:
		err = validate.Var(v.AsFloat(), tag)
	default:
		err = validate.Var(v.AsText(), tag)
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return fmt.Errorf("%w: %s=%v fails %s%s", ErrInvalidValue, f, v, e.Tag(), paramSuffix(e.Param()))
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, f, err)
	}
	return nil
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}

// languageCode accepts a language name from the picker list or a BCP 47 tag
// and returns the canonical tag.
func languageCode(s string) (string, error) {
	s = strings.TrimSpace(s)
	if code, ok := languageNames[strings.ToLower(s)]; ok {
		return code, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %q is not a language", ErrInvalidValue, comicinfo.LanguageISO, s)
	}
	return tag.String(), nil
}

// Parse builds an override record from "key=value" assignments. Later
// assignments to the same field win.
func Parse(assignments []string) (comicinfo.Record, error) {
	var rec comicinfo.Record
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		if !ok {
			return comicinfo.Record{}, fmt.Errorf("%w: %q is not key=value", ErrInvalidValue, a)
		}
		if err := Set(&rec, key, value); err != nil {
			return comicinfo.Record{}, err
		}
	}
	return rec, nil
}

// FromSection builds an override record from an ini section such as [metadata].
// A nil section yields an empty record.
func FromSection(sec *ini.Section) (comicinfo.Record, error) {
	var rec comicinfo.Record
	if sec == nil {
		return rec, nil
	}
	for _, k := range sec.Keys() {
		if err := Set(&rec, k.Name(), k.String()); err != nil {
			return comicinfo.Record{}, fmt.Errorf("[%s] %w", sec.Name(), err)
		}
	}
	return rec, nil
}

// Combine layers over on top of base; set fields in over win.
func Combine(base, over comicinfo.Record) comicinfo.Record {
	out := base.Clone()
	for _, f := range over.Fields() {
		v, _ := over.Get(f)
		out.Set(f, v)
	}
	return out
}
