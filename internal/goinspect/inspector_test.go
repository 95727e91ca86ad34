package goinspect

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/funvibe/typeobj/internal/typeobject"
)

const pkg = "example.com/shapes"

func loadShapes(t *testing.T, ins *Inspector) *typeobject.Checker {
	t.Helper()
	if testing.Short() {
		t.Skip("runs the go command")
	}
	repo, err := ins.Load(context.Background(), []string{"./..."})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return typeobject.NewChecker(typeobject.WithSource(repo))
}

func TestLoad_Declarations(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the go command")
	}
	ins := NewInspector(filepath.Join("testdata", "shapes"))
	repo, err := ins.Load(context.Background(), []string{"./..."})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []string{pkg + ".Base", pkg + ".Namer", pkg + ".Shape", pkg + ".Sizer", pkg + ".Square"}
	if got := repo.Names(); !slices.Equal(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}

	tests := []struct {
		name      string
		wantBases []string
		wantAttrs []string
	}{
		{"Shape", []string{pkg + ".Sizer", pkg + ".Namer", "typing.Protocol"}, []string{"Area", "Name", "Size"}},
		{"Square", []string{pkg + ".Base"}, []string{"Area", "Describe", "Base", "Side"}},
		{"Base", nil, []string{"Describe", "ID"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := repo.Lookup(pkg + "." + tt.name)
			if !ok {
				t.Fatalf("%s not declared", tt.name)
			}
			if !slices.Equal(d.Bases, tt.wantBases) {
				t.Errorf("bases = %v, want %v", d.Bases, tt.wantBases)
			}
			if !slices.Equal(d.Attributes, tt.wantAttrs) {
				t.Errorf("attributes = %v, want %v", d.Attributes, tt.wantAttrs)
			}
			if d.Origin != pkg {
				t.Errorf("origin = %q", d.Origin)
			}
		})
	}
}

func TestInterfaceIsStructuralContract(t *testing.T) {
	c := loadShapes(t, NewInspector(filepath.Join("testdata", "shapes")))

	shape := c.MakeTypeObject(typeobject.Named(pkg + ".Shape"))
	if !shape.IsProtocol() {
		t.Fatal("Shape should be a protocol")
	}
	if got := shape.ProtocolMembers(); !slices.Equal(got, []string{"Area", "Name", "Size"}) {
		t.Errorf("members = %v", got)
	}
	if !shape.HasAncestor(typeobject.Named(pkg + ".Sizer")) {
		t.Errorf("ancestors = %v, want embedded Sizer", shape.AncestorNames())
	}

	square := c.MakeTypeObject(typeobject.Named(pkg + ".Square"))
	if square.IsProtocol() {
		t.Error("struct should not be a protocol")
	}
	if !square.HasAncestor(typeobject.Named(pkg + ".Base")) {
		t.Errorf("ancestors = %v, want embedded Base", square.AncestorNames())
	}
}

func TestIncludeUnexported(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the go command")
	}
	ins := NewInspector(filepath.Join("testdata", "shapes"))
	ins.IncludeUnexported = true
	repo, err := ins.Load(context.Background(), []string{"./..."})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := repo.Lookup(pkg + ".unexported"); !ok {
		t.Error("unexported type should be declared")
	}
	base, _ := repo.Lookup(pkg + ".Base")
	if !slices.Contains(base.Attributes, "hidden") {
		t.Errorf("Base attributes = %v, want hidden field", base.Attributes)
	}
}

func TestLoad_NoPatterns(t *testing.T) {
	repo, err := NewInspector(".").Load(context.Background(), nil)
	if err != nil || repo.Len() != 0 {
		t.Errorf("Load(nil) = %d types, %v", repo.Len(), err)
	}
}

func TestLoad_PackageErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the go command")
	}
	_, err := NewInspector(filepath.Join("testdata", "shapes")).Load(context.Background(), []string{"./missing"})
	if err == nil {
		t.Error("expected error for missing package")
	}
}
