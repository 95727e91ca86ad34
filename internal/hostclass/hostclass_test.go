package hostclass

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func names(cs []Class) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name()
	}
	return out
}

func TestMRO(t *testing.T) {
	a := New("app", "A")
	b := New("app", "B", a)
	c := New("app", "C", a)
	d := New("app", "D", b, c)

	tests := []struct {
		name string
		cls  Class
		want []string
	}{
		{"object", Object, []string{"object"}},
		{"single", a, []string{"A", "object"}},
		{"chain", b, []string{"B", "A", "object"}},
		{"diamond", d, []string{"D", "B", "C", "A", "object"}},
		{"protocol marker", Protocol, []string{"Protocol", "Generic", "object"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := names(MRO(tt.cls)); !slices.Equal(got, tt.want) {
				t.Errorf("MRO = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMRO_InconsistentFallsBackToDepthFirst(t *testing.T) {
	x := New("app", "X")
	y := New("app", "Y", x)
	// C3 rejects (X, Y) because X precedes its own subclass.
	z := New("app", "Z", x, y)

	got := names(MRO(z))
	want := []string{"Z", "X", "object", "Y"}
	if !slices.Equal(got, want) {
		t.Errorf("MRO = %v, want %v", got, want)
	}
}

func TestMRO_CyclicBasesTerminate(t *testing.T) {
	a := New("app", "A")
	b := New("app", "B", a)
	a.bases = []Class{b}

	got := names(MRO(a))
	if len(got) == 0 || got[0] != "A" {
		t.Fatalf("MRO = %v, want A first", got)
	}
	seen := map[string]bool{}
	for _, n := range got {
		if seen[n] {
			t.Errorf("MRO %v repeats %s", got, n)
		}
		seen[n] = true
	}
}

type failing struct{}

func (failing) Module() string                 { return "bad" }
func (failing) Name() string                   { return "Failing" }
func (failing) Bases() ([]Class, error)        { return nil, errors.New("no bases") }
func (failing) Namespace() ([]string, error)   { panic("namespace") }
func (failing) Annotations() ([]string, error) { return nil, errors.New("annotations") }
func (failing) Metaclass() (string, error)     { panic("metaclass") }
func (failing) Attr(string) (any, error)       { panic("attr") }

func TestSafeAccessors(t *testing.T) {
	var f failing
	if SafeBases(f) != nil {
		t.Error("SafeBases should be nil")
	}
	if SafeNamespace(f) != nil {
		t.Error("SafeNamespace should be nil")
	}
	if _, ok := SafeAnnotations(f); ok {
		t.Error("SafeAnnotations should report absent")
	}
	if SafeMetaclass(f) != "" {
		t.Error("SafeMetaclass should be empty")
	}
	if got := SafeAttr(f, "_is_protocol", false); got != false {
		t.Errorf("SafeAttr = %v, want default", got)
	}
	if HasAttr(f, "anything") {
		t.Error("HasAttr should be false")
	}
	if got := names(MRO(f)); !slices.Equal(got, []string{"Failing"}) {
		t.Errorf("MRO = %v, want [Failing]", got)
	}

	var nilDef *Def
	if QualifiedName(nilDef) != "" {
		t.Error("QualifiedName of nil *Def should be empty")
	}
}

func TestDefAttributes(t *testing.T) {
	d := New("app", "Point").Annotate("x", "y").SetAttr("origin", 0)

	if got := QualifiedName(d); got != "app.Point" {
		t.Errorf("QualifiedName = %q", got)
	}
	if !HasAttr(d, "__annotations__") {
		t.Error("annotated class should have __annotations__")
	}
	if HasAttr(New("app", "Bare"), "__annotations__") {
		t.Error("bare class should not have __annotations__")
	}
	if _, err := d.Attr("missing"); !errors.Is(err, ErrNoAttribute) {
		t.Errorf("err = %v, want ErrNoAttribute", err)
	}
	ns, _ := d.Namespace()
	if !slices.Contains(ns, "origin") || !slices.Contains(ns, "__annotations__") {
		t.Errorf("namespace = %v", ns)
	}
	if !Truthy(SafeAttr(NewProtocol("app", "P"), "_is_protocol", false)) {
		t.Error("NewProtocol should set _is_protocol")
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{0, false},
		{1, true},
		{"", false},
		{"yes", true},
		{[]string{}, true},
	}
	for _, tt := range tests {
		if got := Truthy(tt.v); got != tt.want {
			t.Errorf("Truthy(%#v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

const snapshotYAML = `
classes:
  - module: app
    name: Child
    bases: [app.Base]
    members: [run]
  - module: app
    name: Base
    fields: [id]
  - module: app
    name: Closer
    protocol: true
    members: [close]
    attrs:
      _is_runtime_protocol: true
`

func TestParseSnapshot(t *testing.T) {
	reg, err := ParseSnapshot([]byte(snapshotYAML), "classes.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	child, ok := reg.Lookup("app.Child")
	if !ok {
		t.Fatal("app.Child not registered")
	}
	if got := names(MRO(child)); !slices.Equal(got, []string{"Child", "Base", "object"}) {
		t.Errorf("MRO = %v", got)
	}
	base, _ := reg.Lookup("app.Base")
	if fields, ok := SafeAnnotations(base); !ok || !slices.Equal(fields, []string{"id"}) {
		t.Errorf("Base annotations = %v, %v", fields, ok)
	}
	closer, _ := reg.Lookup("app.Closer")
	if SafeMetaclass(closer) != "typing._ProtocolMeta" {
		t.Errorf("Closer metaclass = %q", SafeMetaclass(closer))
	}
	if _, ok := reg.Lookup("typing.Protocol"); !ok {
		t.Error("registry should preload typing.Protocol")
	}
	if reg.Len() != 6 {
		t.Errorf("Len = %d, want 6 (%v)", reg.Len(), reg.Names())
	}
}

func TestParseSnapshot_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown base", "classes:\n  - module: app\n    name: A\n    bases: [app.Missing]\n", "unknown base"},
		{"missing name", "classes:\n  - module: app\n", "name is required"},
		{"bad yaml", "classes: [", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSnapshot([]byte(tt.yaml), "classes.yaml")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
