// Package compose reads the composition documents that pipeline steps
// delegate to. The only thing the selection pass needs from them is which
// build artifacts the declared services are built from.
package compose

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// service is the slice of a service config the selection pass cares about.
type service struct {
	Mzbuild string `yaml:"mzbuild"`
}

type document struct {
	Services map[string]service `yaml:"services"`
}

// ImageNames extracts the names of the build artifacts that the composition
// document at path depends upon. Services without an mzbuild key are plain
// images and contribute nothing. An unreadable or unparsable document, or one
// without a services mapping at all, is a hard error; the caller must not
// fall back to "no dependencies", because that would trim a step whose
// implicit inputs simply failed to load.
func ImageNames(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading composition document")
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing composition document %s", path)
	}
	if doc.Services == nil {
		return nil, errors.Errorf("composition document %s has no services mapping", path)
	}

	var names []string
	for _, svc := range doc.Services {
		if svc.Mzbuild != "" {
			names = append(names, svc.Mzbuild)
		}
	}
	return names, nil
}
