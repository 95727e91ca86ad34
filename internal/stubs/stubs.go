// Package stubs holds type declarations read from YAML stub files.
//
// A stub file declares types by qualified name, their direct bases and the
// attribute names they define:
//
//	module: shapes
//	types:
//	  - name: Sized            # becomes shapes.Sized
//	    bases: [typing.Protocol]
//	    attributes: [__len__]
//	  - name: Box
//	    bases: [Sized]         # shapes.Sized
//	    attributes: [width, height]
//
// A Repository answers typeobject.AncestorSource queries from these
// declarations.
package stubs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/typeobj/internal/typeobject"
)

// File is the on-disk form of a stub file.
type File struct {
	// Module qualifies type and base names that contain no dot.
	Module string `yaml:"module,omitempty"`
	Types  []Decl `yaml:"types"`
}

// Decl declares one type.
type Decl struct {
	Name string `yaml:"name"`

	// Bases are the qualified names of the direct bases, in order.
	Bases []string `yaml:"bases,omitempty"`

	// Attributes are the names the type itself defines.
	Attributes []string `yaml:"attributes,omitempty"`

	// Protocol marks the type as a structural contract even when none of
	// its bases is typing.Protocol.
	Protocol bool `yaml:"protocol,omitempty"`

	// Origin is the file the declaration came from.
	Origin string `yaml:"-"`
}

// Repository indexes declarations by qualified name.
type Repository struct {
	decls    map[string]*Decl
	resolver typeobject.KeyResolver
}

// Option configures a Repository.
type Option func(*Repository)

// WithResolver maps declared names to keys. Defaults to
// typeobject.SyntheticOnly.
func WithResolver(r typeobject.KeyResolver) Option {
	return func(repo *Repository) {
		if r != nil {
			repo.resolver = r
		}
	}
}

func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		decls:    make(map[string]*Decl),
		resolver: typeobject.SyntheticOnly,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers d, replacing an earlier declaration of the same name.
func (r *Repository) Add(d Decl) {
	cp := d
	cp.Bases = append([]string(nil), d.Bases...)
	cp.Attributes = append([]string(nil), d.Attributes...)
	r.decls[d.Name] = &cp
}

// AddFile registers every declaration in f.
func (r *Repository) AddFile(f *File) {
	for _, d := range f.Types {
		r.Add(d)
	}
}

func (r *Repository) Lookup(name string) (Decl, bool) {
	d, ok := r.decls[name]
	if !ok {
		return Decl{}, false
	}
	return *d, true
}

func (r *Repository) Len() int { return len(r.decls) }

// Names returns the declared names, sorted.
func (r *Repository) Names() []string {
	names := make([]string, 0, len(r.decls))
	for n := range r.decls {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Decls returns every declaration ordered by name.
func (r *Repository) Decls() []Decl {
	out := make([]Decl, 0, len(r.decls))
	for _, n := range r.Names() {
		out = append(out, *r.decls[n])
	}
	return out
}

// LoadFile reads and parses one stub file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stubs %s: %w", path, err)
	}
	return ParseFile(data, path)
}

// ParseFile parses stub content. The path argument is used for error
// messages and recorded as each declaration's Origin.
func ParseFile(data []byte, path string) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for i := range f.Types {
		d := &f.Types[i]
		if d.Name == "" {
			return nil, fmt.Errorf("%s: types[%d]: name is required", path, i)
		}
		if f.Module != "" && !strings.Contains(d.Name, ".") {
			d.Name = f.Module + "." + d.Name
		}
		for j, b := range d.Bases {
			if b == "" {
				return nil, fmt.Errorf("%s: types[%d] (%s): bases[%d] is empty", path, i, d.Name, j)
			}
			if f.Module != "" && !strings.Contains(b, ".") {
				b = f.Module + "." + b
				d.Bases[j] = b
			}
			if b == d.Name {
				return nil, fmt.Errorf("%s: types[%d] (%s): type cannot be its own base", path, i, d.Name)
			}
		}
		d.Origin = path
	}
	return &f, nil
}

// LoadFiles parses the given stub files concurrently and merges them into a
// new repository in argument order, so later files override earlier ones.
func LoadFiles(ctx context.Context, paths []string, opts ...Option) (*Repository, error) {
	files := make([]*File, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := LoadFile(p)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	repo := NewRepository(opts...)
	for _, f := range files {
		repo.AddFile(f)
	}
	return repo, nil
}

// Glob expands patterns relative to dir into a sorted, de-duplicated list
// of stub files.
func Glob(dir string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pat := range patterns {
		if !filepath.IsAbs(pat) {
			pat = filepath.Join(dir, pat)
		}
		matches, err := filepath.Glob(pat)
		if err != nil {
			return nil, fmt.Errorf("bad stub pattern %q: %w", pat, err)
		}
		if matches == nil {
			return nil, fmt.Errorf("stub pattern %q matched no files", pat)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
