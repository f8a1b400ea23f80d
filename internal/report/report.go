// Package report renders batch results for people and for tools.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/Another0Noob/comictag/internal/batch"
	"github.com/Another0Noob/comictag/internal/comicinfo"
	"gopkg.in/yaml.v3"
)

// MaxListedErrors is how many failures Summary lists before eliding the rest.
const MaxListedErrors = 5

// Summary returns the end-of-batch message. verb names what succeeded,
// e.g. "updated" or "deleted metadata from".
func Summary(res batch.Result, verb string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Successfully %s: %d\n", verb, res.Updated)
	if n := res.Skipped(); n > 0 {
		fmt.Fprintf(&b, "Skipped: %d\n", n)
	}
	fmt.Fprintf(&b, "Failed: %d\n", res.Failed())

	failures := res.Failures()
	if len(failures) == 0 {
		return b.String()
	}
	b.WriteString("\nErrors:\n")
	for i, o := range failures {
		if i == MaxListedErrors {
			fmt.Fprintf(&b, "... and %d more\n", len(failures)-MaxListedErrors)
			break
		}
		fmt.Fprintf(&b, "%s: %s\n", filepath.Base(o.Path), o.Err)
	}
	return b.String()
}

type document struct {
	Batch    string    `yaml:"batch"`
	Started  time.Time `yaml:"started"`
	Finished time.Time `yaml:"finished"`
	Updated  int       `yaml:"updated"`
	Skipped  int       `yaml:"skipped"`
	Failed   int       `yaml:"failed"`
	Files    []file    `yaml:"files"`
}

type file struct {
	Path   string `yaml:"path"`
	Output string `yaml:"output,omitempty"`
	Status string `yaml:"status"`
	Kind   string `yaml:"kind,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

// WriteYAML writes every outcome of res as a yaml document.
func WriteYAML(w io.Writer, res batch.Result) error {
	doc := document{
		Batch:    res.ID,
		Started:  res.Started,
		Finished: res.Finished,
		Updated:  res.Updated,
		Skipped:  res.Skipped(),
		Failed:   res.Failed(),
		Files:    make([]file, 0, len(res.Outcomes)),
	}
	for _, o := range res.Outcomes {
		f := file{
			Path:   o.Path,
			Output: o.Output,
			Status: o.Status.String(),
			Kind:   string(o.Kind),
		}
		if o.Err != nil {
			f.Error = o.Err.Error()
		}
		doc.Files = append(doc.Files, f)
	}
	return encode(w, doc)
}

// WriteRecordYAML writes the set fields of rec as a yaml mapping in field order.
// Values keep their types, so integers and booleans are not quoted.
func WriteRecordYAML(w io.Writer, rec comicinfo.Record) error {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range rec.Fields() {
		v, _ := rec.Get(f)
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: f.String()},
			scalar(v),
		)
	}
	if extras := rec.Extras(); len(extras) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range extras {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: e.Name})
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "unknown_elements"}, seq)
	}
	return encode(w, node)
}

func scalar(v comicinfo.Value) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: v.String()}
	switch v.Kind() {
	case comicinfo.KindInt:
		n.Tag = "!!int"
	case comicinfo.KindFloat:
		n.Tag = "!!float"
	case comicinfo.KindText:
		n.Tag = "!!str"
		if strings.Contains(n.Value, "\n") {
			n.Style = yaml.LiteralStyle
		}
	default:
		// Yes/No tokens are booleans to YAML 1.1 readers
		n.Tag = "!!str"
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}

func encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
