package hostclass

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Registry indexes classes by qualified name.
type Registry struct {
	classes map[string]Class
}

// NewRegistry returns a registry preloaded with builtins.object,
// typing.Generic and typing.Protocol.
func NewRegistry() *Registry {
	r := &Registry{classes: make(map[string]Class)}
	r.Add(Object)
	r.Add(Generic)
	r.Add(Protocol)
	return r
}

// Add registers c under its qualified name, replacing any previous entry.
func (r *Registry) Add(c Class) {
	if qn := QualifiedName(c); qn != "" {
		r.classes[qn] = c
	}
}

// Lookup finds a class by qualified name.
func (r *Registry) Lookup(qualname string) (Class, bool) {
	c, ok := r.classes[qualname]
	return c, ok
}

// Names returns the registered qualified names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.classes))
	for n := range r.classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int { return len(r.classes) }

// Snapshot is the on-disk form of a runtime class dump: what a host program
// reports about its classes when asked to serialize them.
type Snapshot struct {
	Classes []SnapshotClass `yaml:"classes"`
}

// SnapshotClass describes one class in a snapshot.
type SnapshotClass struct {
	Module string `yaml:"module"`
	Name   string `yaml:"name"`

	// Bases are qualified names of direct bases, in order. They may refer to
	// classes declared later in the same snapshot.
	Bases []string `yaml:"bases,omitempty"`

	// Members are names declared in the class body.
	Members []string `yaml:"members,omitempty"`

	// Fields are annotated field names. A nil list means the class carries
	// no annotation metadata.
	Fields []string `yaml:"fields,omitempty"`

	// Protocol marks classes the runtime treats as protocols.
	Protocol bool `yaml:"protocol,omitempty"`

	// Metaclass overrides the metaclass name.
	Metaclass string `yaml:"metaclass,omitempty"`

	// Attrs holds extra class attributes.
	Attrs map[string]any `yaml:"attrs,omitempty"`
}

// LoadSnapshot reads a snapshot file and registers its classes into a new
// registry.
func LoadSnapshot(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	return ParseSnapshot(data, filepath.Base(path))
}

// ParseSnapshot parses snapshot content. The name argument is used only
// for error messages.
func ParseSnapshot(data []byte, name string) (*Registry, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	r := NewRegistry()
	if err := r.AddSnapshot(&snap, name); err != nil {
		return nil, err
	}
	return r, nil
}

// AddSnapshot registers every class of snap. Bases are resolved after all
// classes are created so declaration order does not matter.
func (r *Registry) AddSnapshot(snap *Snapshot, name string) error {
	defs := make([]*Def, len(snap.Classes))
	for i, sc := range snap.Classes {
		if sc.Name == "" {
			return fmt.Errorf("%s: classes[%d]: name is required", name, i)
		}
		var d *Def
		if sc.Protocol {
			d = NewProtocol(sc.Module, sc.Name, Protocol)
		} else {
			d = New(sc.Module, sc.Name, Object)
		}
		d.Declare(sc.Members...)
		if sc.Fields != nil {
			d.Annotate(sc.Fields...)
		}
		if sc.Metaclass != "" {
			d.WithMetaclass(sc.Metaclass)
		}
		for k, v := range sc.Attrs {
			d.SetAttr(k, v)
		}
		defs[i] = d
		r.Add(d)
	}

	for i, sc := range snap.Classes {
		if len(sc.Bases) == 0 {
			continue
		}
		bases := make([]Class, 0, len(sc.Bases))
		for _, qn := range sc.Bases {
			b, ok := r.Lookup(qn)
			if !ok {
				return fmt.Errorf("%s: classes[%d] (%s): unknown base %q", name, i, QualifiedName(defs[i]), qn)
			}
			bases = append(bases, b)
		}
		defs[i].bases = bases
	}
	return nil
}
