package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sanity-io/litter"

	"github.com/funvibe/typeobj/internal/config"
	"github.com/funvibe/typeobj/internal/hostclass"
	"github.com/funvibe/typeobj/internal/typeobject"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiGreen = "\033[32m"
	ansiDim   = "\033[2m"
)

func colorEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv(config.EnvNoColor); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// parseKey turns a command-line type name into a key. Names the registry
// knows become Concrete keys; "super(T, Through)" needs both to be known.
func parseKey(reg *hostclass.Registry, name string) (typeobject.TypeKey, error) {
	name = strings.TrimSpace(name)
	if inner, ok := strings.CutPrefix(name, "super("); ok {
		inner, ok = strings.CutSuffix(inner, ")")
		parts := strings.Split(inner, ",")
		if !ok || len(parts) != 2 {
			return nil, fmt.Errorf("invalid super proxy %q, expected super(Type, Through)", name)
		}
		typ, ok := reg.Lookup(strings.TrimSpace(parts[0]))
		if !ok {
			return nil, fmt.Errorf("super proxy %q: unknown runtime class %s", name, strings.TrimSpace(parts[0]))
		}
		through, ok := reg.Lookup(strings.TrimSpace(parts[1]))
		if !ok {
			return nil, fmt.Errorf("super proxy %q: unknown runtime class %s", name, strings.TrimSpace(parts[1]))
		}
		return typeobject.Super{Type: typ, Through: through}, nil
	}
	if name == "" {
		return nil, fmt.Errorf("empty type name")
	}
	if c, ok := reg.Lookup(name); ok {
		return typeobject.Of(c), nil
	}
	return typeobject.Named(name), nil
}

type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer, color bool) *printer {
	return &printer{w: w, color: color}
}

func (p *printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + ansiReset
}

func kindOf(key typeobject.TypeKey) string {
	switch key.(type) {
	case typeobject.Concrete:
		return "runtime class"
	case typeobject.Super:
		return "super proxy"
	default:
		return "declared"
	}
}

func (p *printer) describe(obj *typeobject.TypeObject) {
	fmt.Fprintf(p.w, "%s %s\n", p.paint(ansiBold, obj.Key().String()), p.paint(ansiDim, "("+kindOf(obj.Key())+")"))
	fmt.Fprintf(p.w, "  ancestors: %s\n", strings.Join(obj.AncestorNames(), ", "))
	if obj.IsProtocol() {
		fmt.Fprintf(p.w, "  %s: %s\n", p.paint(ansiGreen, "protocol"), strings.Join(obj.ProtocolMembers(), ", "))
	} else {
		fmt.Fprintln(p.w, "  protocol: no")
	}
}

// descriptor is the dump form of a TypeObject.
type descriptor struct {
	Key             string
	Kind            string
	Ancestors       []string
	IsProtocol      bool
	ProtocolMembers []string
}

func (p *printer) dump(obj *typeobject.TypeObject) {
	d := descriptor{
		Key:             obj.Key().String(),
		Kind:            kindOf(obj.Key()),
		Ancestors:       obj.AncestorNames(),
		IsProtocol:      obj.IsProtocol(),
		ProtocolMembers: obj.ProtocolMembers(),
	}
	fmt.Fprintln(p.w, litter.Sdump(d))
}
