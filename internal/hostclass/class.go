// Package hostclass models the class objects of the program under analysis.
//
// A Class is whatever the host runtime exposes about a class: its name,
// direct bases, the names declared in its own namespace, declared field
// annotations, its metaclass and arbitrary attributes. Implementations may be
// backed by a live runtime bridge, so every method may fail; callers that
// must not fail go through the Safe* accessors in safe.go.
package hostclass

import (
	"errors"
	"fmt"
)

// ErrNoAttribute is returned when a class does not carry the requested attribute.
var ErrNoAttribute = errors.New("no such attribute")

// Class is a runtime class object.
type Class interface {
	Module() string
	Name() string
	// Bases returns the direct bases in declaration order.
	Bases() ([]Class, error)
	// Namespace returns the names declared directly in the class body.
	Namespace() ([]string, error)
	// Annotations returns the declared field names. Returns ErrNoAttribute
	// when the class has no annotation metadata at all.
	Annotations() ([]string, error)
	// Metaclass returns the qualified name of the class's metaclass.
	Metaclass() (string, error)
	// Attr looks up an attribute on the class itself (not on instances).
	Attr(name string) (any, error)
}

// Def is an in-memory Class.
type Def struct {
	module, name   string
	bases          []Class
	order          []string
	attrs          map[string]any
	annotations    []string
	hasAnnotations bool
	metaclass      string
}

// New creates a class with the given bases. A class with no bases gets
// builtins.object, except builtins.object itself.
func New(module, name string, bases ...Class) *Def {
	d := &Def{
		module:    module,
		name:      name,
		attrs:     make(map[string]any),
		metaclass: "builtins.type",
	}
	if len(bases) == 0 && !(module == "builtins" && name == "object") {
		bases = []Class{Object}
	}
	d.bases = bases
	d.Declare("__module__", "__dict__", "__doc__", "__weakref__")
	return d
}

// NewProtocol creates a class that the runtime reports as a protocol:
// metaclass typing._ProtocolMeta and _is_protocol set. With no bases the
// class derives from typing.Protocol directly.
func NewProtocol(module, name string, bases ...Class) *Def {
	if len(bases) == 0 {
		bases = []Class{Protocol}
	}
	d := New(module, name, bases...)
	d.metaclass = "typing._ProtocolMeta"
	d.SetAttr("_is_protocol", true)
	d.Declare("__parameters__", "__subclasshook__", "__init__", "__abstractmethods__",
		"_abc_impl", "_is_runtime_protocol")
	return d
}

// Declare adds names to the class namespace, keeping declaration order.
func (d *Def) Declare(names ...string) *Def {
	for _, n := range names {
		if _, ok := d.attrs[n]; !ok {
			d.order = append(d.order, n)
			d.attrs[n] = nil
		}
	}
	return d
}

// SetAttr declares name in the namespace with the given value.
func (d *Def) SetAttr(name string, value any) *Def {
	d.Declare(name)
	d.attrs[name] = value
	return d
}

// Annotate records declared field names. Annotating also puts
// __annotations__ into the namespace, as the runtime does.
func (d *Def) Annotate(fields ...string) *Def {
	d.annotations = append(d.annotations, fields...)
	d.hasAnnotations = true
	d.Declare("__annotations__")
	return d
}

// WithMetaclass overrides the metaclass name.
func (d *Def) WithMetaclass(qualname string) *Def {
	d.metaclass = qualname
	return d
}

func (d *Def) Module() string { return d.module }
func (d *Def) Name() string   { return d.name }

func (d *Def) Bases() ([]Class, error) {
	out := make([]Class, len(d.bases))
	copy(out, d.bases)
	return out, nil
}

func (d *Def) Namespace() ([]string, error) {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out, nil
}

func (d *Def) Annotations() ([]string, error) {
	if !d.hasAnnotations {
		return nil, ErrNoAttribute
	}
	out := make([]string, len(d.annotations))
	copy(out, d.annotations)
	return out, nil
}

func (d *Def) Metaclass() (string, error) { return d.metaclass, nil }

func (d *Def) Attr(name string) (any, error) {
	switch name {
	case "__name__":
		return d.name, nil
	case "__module__":
		return d.module, nil
	case "__annotations__":
		if !d.hasAnnotations {
			return nil, ErrNoAttribute
		}
		return d.annotations, nil
	}
	v, ok := d.attrs[name]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", d.name, name, ErrNoAttribute)
	}
	return v, nil
}

func (d *Def) String() string {
	return "<class '" + d.module + "." + d.name + "'>"
}

// Universal and protocol-infrastructure classes every runtime has.
var (
	Object   *Def
	Generic  *Def
	Protocol *Def
)

func init() {
	Object = New("builtins", "object")
	Generic = New("typing", "Generic")
	Protocol = New("typing", "Protocol", Generic)
	Protocol.metaclass = "typing._ProtocolMeta"
	Protocol.SetAttr("_is_protocol", true)
	Protocol.Declare("__init_subclass__", "__slots__")
}
