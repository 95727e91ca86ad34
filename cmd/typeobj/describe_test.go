package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/funvibe/typeobj/internal/hostclass"
	"github.com/funvibe/typeobj/internal/typeobject"
)

func testRegistry() (*hostclass.Registry, *hostclass.Def, *hostclass.Def) {
	reg := hostclass.NewRegistry()
	base := hostclass.New("app", "Base")
	box := hostclass.New("app", "Box", base)
	reg.Add(base)
	reg.Add(box)
	return reg, base, box
}

func TestParseKey(t *testing.T) {
	reg, base, box := testRegistry()
	tests := []struct {
		in   string
		want typeobject.TypeKey
	}{
		{"app.Box", typeobject.Of(box)},
		{" app.Base ", typeobject.Of(base)},
		{"stubs.Only", typeobject.Named("stubs.Only")},
		{"super(app.Box, app.Base)", typeobject.Super{Type: box, Through: base}},
	}
	for _, tt := range tests {
		got, err := parseKey(reg, tt.in)
		if err != nil {
			t.Fatalf("parseKey(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("parseKey(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseKey_Errors(t *testing.T) {
	reg, _, _ := testRegistry()
	for _, in := range []string{"", "super(app.Box)", "super(app.Box, app.Missing)", "super(app.Box, app.Base"} {
		if _, err := parseKey(reg, in); err == nil {
			t.Errorf("parseKey(%q) should fail", in)
		}
	}
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-config", "x/typeobj.yaml", "-dump", "app.A", "--verbose", "app.B"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.configPath != "x/typeobj.yaml" || !opts.dump || !opts.verbose {
		t.Errorf("opts = %+v", opts)
	}
	if len(opts.args) != 2 || opts.args[0] != "app.A" || opts.args[1] != "app.B" {
		t.Errorf("args = %v", opts.args)
	}

	if _, err := parseOptions([]string{"-config"}); err == nil {
		t.Error("-config without a value should fail")
	}
	if _, err := parseOptions([]string{"-nope"}); err == nil {
		t.Error("unknown option should fail")
	}
}

func TestPrinter(t *testing.T) {
	_, _, box := testRegistry()
	sized := typeobject.Named("app.Sized")
	c := typeobject.NewChecker(typeobject.WithBaseProviders(func(k typeobject.TypeKey) []typeobject.TypeKey {
		if k == typeobject.Of(box) {
			return []typeobject.TypeKey{sized}
		}
		return nil
	}))

	var buf bytes.Buffer
	p := newPrinter(&buf, false)
	p.describe(c.MakeTypeObject(typeobject.Of(box)))

	want := "app.Box (runtime class)\n" +
		"  ancestors: app.Base, app.Box, app.Sized, builtins.object\n" +
		"  protocol: no\n"
	if buf.String() != want {
		t.Errorf("describe =\n%s\nwant\n%s", buf.String(), want)
	}

	buf.Reset()
	p.dump(c.MakeTypeObject(typeobject.Of(box)))
	if out := buf.String(); !strings.Contains(out, `Key: "app.Box"`) || !strings.Contains(out, `"app.Sized"`) {
		t.Errorf("dump = %s", out)
	}

	buf.Reset()
	newPrinter(&buf, true).describe(c.MakeTypeObject(sized))
	if !strings.Contains(buf.String(), ansiBold+"app.Sized"+ansiReset) {
		t.Errorf("coloured describe = %q", buf.String())
	}
}
