package comicinfo

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/ianaindex"
)

// FileName is the canonical name of the metadata entry inside an archive.
const FileName = "ComicInfo.xml"

const (
	rootElement = "ComicInfo"
	header      = `<?xml version="1.0" encoding="utf-8"?>` + "\n"
	indent      = "  "
)

var ErrMalformedMetadata = errors.New("malformed metadata")

var (
	utf8BOM     = []byte{0xEF, 0xBB, 0xBF}
	reEncoding  = regexp.MustCompile(`^<\?xml[^>]*\bencoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)
	xmlNSPrefix = "http://www.w3.org/XML/1998/namespace"
)

// Parse decodes a ComicInfo.xml document. Children of the root that are not
// known fields are kept verbatim as pass-through elements, and so are known
// fields that hold markup, carry attributes or do not convert to their kind.
// Only a document that is not well-formed or has another root fails.
func Parse(data []byte) (Record, error) {
	data, err := toUTF8(data)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	// the payload is UTF-8 at this point whatever the declaration says
	dec.CharsetReader = func(_ string, in io.Reader) (io.Reader, error) { return in, nil }

	var (
		rec      Record
		root     xml.Name
		seenRoot bool
		closed   bool
	)
	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if closed {
				return Record{}, fmt.Errorf("%w: content after root element", ErrMalformedMetadata)
			}
			if !seenRoot {
				if t.Name.Local != rootElement {
					return Record{}, fmt.Errorf("%w: root element is <%s>, want <%s>", ErrMalformedMetadata, t.Name.Local, rootElement)
				}
				seenRoot = true
				root = t.Name
				rec.SetRootAttrs(t.Attr)
				continue
			}

			f, known := Lookup(t.Name.Local)
			if !known || t.Name.Space != root.Space {
				if err := dec.Skip(); err != nil {
					return Record{}, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
				}
				rec.AddExtra(Element{Name: t.Name.Local, Raw: data[start:dec.InputOffset()]})
				continue
			}

			text, plain, err := readText(dec)
			if err != nil {
				return Record{}, fmt.Errorf("%w: %s: %v", ErrMalformedMetadata, f, err)
			}
			raw := data[start:dec.InputOffset()]
			if !plain || len(t.Attr) > 0 {
				rec.AddExtra(Element{Name: t.Name.Local, Raw: raw, field: f, shadows: true})
				continue
			}
			if f.Kind() != KindText && strings.TrimSpace(text) == "" {
				continue
			}
			v, err := ParseValue(f, text)
			if err != nil {
				// kept as written; an override of f replaces it
				rec.AddExtra(Element{Name: t.Name.Local, Raw: raw, field: f, shadows: true})
				continue
			}
			rec.Set(f, v)

		case xml.EndElement:
			closed = true
		}
	}

	if !seenRoot {
		return Record{}, fmt.Errorf("%w: no <%s> element", ErrMalformedMetadata, rootElement)
	}
	return rec, nil
}

// readText collects the character data of the element just opened, up to and
// including its end tag. plain is false when the element holds child
// elements, comments or processing instructions.
func readText(dec *xml.Decoder) (text string, plain bool, err error) {
	var b strings.Builder
	plain = true
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", false, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			plain = false
			if err := dec.Skip(); err != nil {
				return "", false, err
			}
		case xml.EndElement:
			return b.String(), plain, nil
		default:
			plain = false
		}
	}
}

// Serialize encodes r as a UTF-8 ComicInfo.xml document. Fields appear in the
// order of Fields(), pass-through elements follow in their original order.
func Serialize(r Record) []byte {
	var b bytes.Buffer
	b.WriteString(header)
	b.WriteString("<" + rootElement)
	writeAttrs(&b, r.rootAttrs)
	b.WriteString(">\n")

	for _, f := range r.Fields() {
		name := f.String()
		b.WriteString(indent + "<" + name + ">")
		escapeText(&b, r.values[f].String())
		b.WriteString("</" + name + ">\n")
	}
	for _, e := range r.extras {
		b.WriteString(indent)
		b.Write(e.Raw)
		b.WriteString("\n")
	}

	b.WriteString("</" + rootElement + ">\n")
	return b.Bytes()
}

func writeAttrs(b *bytes.Buffer, attrs []xml.Attr) {
	prefixes := make(map[string]string)
	for _, a := range attrs {
		if a.Name.Space == "xmlns" {
			prefixes[a.Value] = a.Name.Local
		}
	}

	for _, a := range attrs {
		name := a.Name.Local
		switch {
		case a.Name.Space == "":
		case a.Name.Space == "xmlns":
			name = "xmlns:" + a.Name.Local
		case a.Name.Space == xmlNSPrefix:
			name = "xml:" + a.Name.Local
		default:
			if p, ok := prefixes[a.Name.Space]; ok {
				name = p + ":" + a.Name.Local
			}
		}
		b.WriteString(" " + name + `="`)
		xml.EscapeText(b, []byte(a.Value))
		b.WriteString(`"`)
	}
}

// escapeText escapes character data. Unlike xml.EscapeText it leaves newlines
// and tabs alone so multi-line fields stay readable.
func escapeText(b *bytes.Buffer, s string) {
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '\r':
			b.WriteString("&#xD;")
		default:
			if !isXMLChar(r) {
				r = utf8.RuneError
			}
			b.WriteRune(r)
		}
	}
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// toUTF8 strips a byte order mark and transcodes documents that declare a
// non-UTF-8 encoding.
func toUTF8(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	m := reEncoding.FindSubmatch(data)
	if m == nil {
		return data, nil
	}
	label := strings.ToLower(string(m[1]))
	if label == "utf-8" || label == "utf8" || label == "us-ascii" {
		return data, nil
	}

	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q is not supported", label)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", label, err)
	}
	return out, nil
}
