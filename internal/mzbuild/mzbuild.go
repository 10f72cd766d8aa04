// Package mzbuild discovers build-artifact declarations in a repository and
// resolves each artifact's transitive input set: the paths whose change
// invalidates the artifact. Every mzbuild.yml manifest under the repository
// root declares one artifact; an artifact's inputs are its manifest
// directory, its declared extra globs, and the inputs of every artifact it
// depends on, transitively.
package mzbuild

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vk/mkpipeline/internal/fsutil"
)

// ManifestName is the file name that marks a directory as a build-artifact
// declaration.
const ManifestName = "mzbuild.yml"

type manifest struct {
	Name      string   `yaml:"name"`
	Inputs    []string `yaml:"inputs"`
	DependsOn []string `yaml:"depends_on"`
}

// Image is one build-artifact declaration discovered in the repository.
type Image struct {
	// Name identifies the artifact; it must be unique within one repository.
	Name string
	// Dir is the manifest's directory, relative to the repository root.
	Dir string

	inputs    []string
	dependsOn []string
}

// ResolvedImage is an artifact together with its fully expanded input set.
type ResolvedImage struct {
	Name string

	inputs map[string]struct{}
}

// TransitiveInputs returns the set of paths whose change invalidates the
// artifact. The returned map is shared; callers must not mutate it.
func (ri *ResolvedImage) TransitiveInputs() map[string]struct{} {
	return ri.inputs
}

// DependencySet maps artifact names to their resolved form.
type DependencySet map[string]*ResolvedImage

// Repository is the universe of build-artifact declarations found under one
// repository root.
type Repository struct {
	Root   string
	Images map[string]*Image
}

// NewRepository scans root for artifact manifests and parses them. A manifest
// without a name, or two manifests claiming the same name, is a fatal
// configuration problem.
func NewRepository(root string) (*Repository, error) {
	paths, err := fsutil.FindFilesNamed(root, ManifestName)
	if err != nil {
		return nil, errors.Wrap(err, "scanning for artifact manifests")
	}

	images := make(map[string]*Image, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading artifact manifest")
		}
		var m manifest
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, errors.Wrapf(err, "parsing artifact manifest %s", path)
		}
		if m.Name == "" {
			return nil, errors.Errorf("artifact manifest %s is missing a name", path)
		}
		if prev, ok := images[m.Name]; ok {
			return nil, errors.Errorf("duplicate artifact name %q in %s and %s", m.Name, prev.Dir, path)
		}
		dir, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return nil, errors.Wrapf(err, "relativizing %s", path)
		}
		images[m.Name] = &Image{
			Name:      m.Name,
			Dir:       dir,
			inputs:    m.Inputs,
			dependsOn: m.DependsOn,
		}
	}

	return &Repository{Root: root, Images: images}, nil
}

// ResolveDependencies expands every discovered artifact into its resolved
// form. An artifact naming an unknown dependency, or a dependency cycle
// between artifacts, fails the whole resolution.
func (r *Repository) ResolveDependencies() (DependencySet, error) {
	set := make(DependencySet, len(r.Images))
	visiting := make(map[string]bool)
	for name := range r.Images {
		if _, err := r.resolve(name, set, visiting); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func (r *Repository) resolve(name string, set DependencySet, visiting map[string]bool) (*ResolvedImage, error) {
	if ri, ok := set[name]; ok {
		return ri, nil
	}
	img, ok := r.Images[name]
	if !ok {
		return nil, errors.Errorf("unknown build artifact %q", name)
	}
	if visiting[name] {
		return nil, errors.Errorf("build artifact dependency cycle involving %q", name)
	}
	visiting[name] = true

	inputs := map[string]struct{}{img.Dir: {}}
	for _, glob := range img.inputs {
		inputs[glob] = struct{}{}
	}
	for _, dep := range img.dependsOn {
		dri, err := r.resolve(dep, set, visiting)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving build artifact %q", name)
		}
		for p := range dri.TransitiveInputs() {
			inputs[p] = struct{}{}
		}
	}

	delete(visiting, name)
	ri := &ResolvedImage{Name: name, inputs: inputs}
	set[name] = ri
	return ri, nil
}
