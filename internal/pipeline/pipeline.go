// Package pipeline models the pipeline definition document: an ordered list
// of opaque step records under a top-level `steps` key, plus whatever other
// keys the template carries. Records survive a load/trim/encode round trip
// untouched; only the `steps` sequence itself is ever replaced.
package pipeline

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is one step record. It is deliberately opaque: the graph builder
// picks out the keys it understands and everything else passes through to
// the execution backend unchanged.
type Config map[string]any

// ID returns the step's id field, and whether it is present as a string.
func (c Config) ID() (string, bool) {
	id, ok := c["id"].(string)
	return id, ok
}

// Doc is a parsed pipeline definition.
type Doc struct {
	Steps []Config       `yaml:"steps"`
	Extra map[string]any `yaml:",inline"`
}

// Load reads and parses the pipeline definition at path.
func Load(path string) (*Doc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading pipeline definition")
	}

	var doc Doc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing pipeline definition %s", path)
	}

	return &doc, nil
}

// Trim replaces the step sequence with only those records whose id is in
// needed, preserving the original relative order.
func (d *Doc) Trim(needed map[string]struct{}) {
	kept := make([]Config, 0, len(d.Steps))
	for _, c := range d.Steps {
		id, ok := c.ID()
		if !ok {
			continue
		}
		if _, ok := needed[id]; ok {
			kept = append(kept, c)
		}
	}
	d.Steps = kept
}

// Encode writes the document as YAML to w.
func (d *Doc) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return errors.Wrap(err, "encoding pipeline")
	}
	return errors.Wrap(enc.Close(), "encoding pipeline")
}
