// Package goinspect declares the named types of Go packages so Go code can
// be checked against the same descriptors as any other declaration source.
//
// Interfaces are structural contracts over their full method set. Embedded
// interfaces and embedded struct fields become bases. Methods (including
// promoted ones) and exported fields become attributes.
package goinspect

import (
	"context"
	"fmt"
	"go/types"
	"os"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/funvibe/typeobj/internal/stubs"
)

// Inspector loads Go packages through go/packages.
type Inspector struct {
	// Dir is the directory the go command runs in; it selects the module.
	Dir string

	// IncludeUnexported also declares unexported types and members.
	IncludeUnexported bool
}

func NewInspector(dir string) *Inspector {
	return &Inspector{Dir: dir}
}

// Load loads the packages matching patterns and declares their named types.
func (ins *Inspector) Load(ctx context.Context, patterns []string, opts ...stubs.Option) (*stubs.Repository, error) {
	repo := stubs.NewRepository(opts...)
	if len(patterns) == 0 {
		return repo, nil
	}
	cfg := &packages.Config{
		Context: ctx,
		Mode:    packages.NeedName | packages.NeedTypes,
		Dir:     ins.Dir,
		Env:     append(os.Environ(), "GOWORK=off"),
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	var errs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", pkg.PkgPath, e.Msg))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}

	for _, pkg := range pkgs {
		ins.declarePackage(repo, pkg)
	}
	return repo, nil
}

func (ins *Inspector) declarePackage(repo *stubs.Repository, pkg *packages.Package) {
	scope := pkg.Types.Scope()
	names := scope.Names()
	sort.Strings(names)

	for _, name := range names {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() || !ins.visible(tn) {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok {
			continue
		}
		d := ins.declare(named)
		d.Origin = pkg.PkgPath
		repo.Add(d)
	}
}

func (ins *Inspector) declare(named *types.Named) stubs.Decl {
	d := stubs.Decl{Name: QualifiedName(named.Obj())}

	switch u := named.Underlying().(type) {
	case *types.Interface:
		for i := 0; i < u.NumEmbeddeds(); i++ {
			if base, ok := namedOf(u.EmbeddedType(i)); ok {
				d.Bases = append(d.Bases, QualifiedName(base.Obj()))
			}
		}
		d.Bases = append(d.Bases, "typing.Protocol")
		for i := 0; i < u.NumMethods(); i++ {
			if m := u.Method(i); ins.visible(m) {
				d.Attributes = append(d.Attributes, m.Name())
			}
		}
		return d

	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if f := u.Field(i); f.Embedded() {
				if base, ok := namedOf(f.Type()); ok {
					d.Bases = append(d.Bases, QualifiedName(base.Obj()))
				}
			}
		}
		d.Attributes = ins.methods(named)
		for i := 0; i < u.NumFields(); i++ {
			if f := u.Field(i); ins.visible(f) {
				d.Attributes = append(d.Attributes, f.Name())
			}
		}
		return d

	default:
		d.Attributes = ins.methods(named)
		return d
	}
}

// methods lists the method set of *T, which includes value-receiver and
// promoted methods.
func (ins *Inspector) methods(named *types.Named) []string {
	mset := types.NewMethodSet(types.NewPointer(named))
	var out []string
	for i := 0; i < mset.Len(); i++ {
		if m := mset.At(i).Obj(); ins.visible(m) {
			out = append(out, m.Name())
		}
	}
	sort.Strings(out)
	return out
}

func (ins *Inspector) visible(obj types.Object) bool {
	return ins.IncludeUnexported || obj.Exported()
}

// namedOf unwraps pointers and type instantiations down to the named type.
func namedOf(t types.Type) (*types.Named, bool) {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	n, ok := t.(*types.Named)
	if !ok {
		return nil, false
	}
	return n.Origin(), true
}

// QualifiedName returns "import/path.Name", or just the name for
// predeclared types such as error.
func QualifiedName(obj types.Object) string {
	if obj.Pkg() == nil {
		return obj.Name()
	}
	return obj.Pkg().Path() + "." + obj.Name()
}
