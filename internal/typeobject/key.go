package typeobject

import (
	"fmt"

	"github.com/funvibe/typeobj/internal/hostclass"
)

// TypeKey identifies a type under analysis. It is one of Concrete,
// Synthetic or Super. Keys are compared with ==.
type TypeKey interface {
	fmt.Stringer
	isTypeKey()
}

// Concrete refers to a runtime class object; keys are equal when they refer
// to the same class.
type Concrete struct {
	Class hostclass.Class
}

// Synthetic names a type that exists only in declarations.
type Synthetic struct {
	Name string
}

// Super is the ancestor view of Type seen from after Through in the MRO.
type Super struct {
	Type    hostclass.Class
	Through hostclass.Class
}

func (Concrete) isTypeKey()  {}
func (Synthetic) isTypeKey() {}
func (Super) isTypeKey()     {}

func (k Concrete) String() string {
	if qn := hostclass.QualifiedName(k.Class); qn != "" {
		return qn
	}
	return "<unnamed class>"
}

func (k Synthetic) String() string { return k.Name }

func (k Super) String() string {
	return fmt.Sprintf("super(%s, %s)", Concrete{k.Type}, Concrete{k.Through})
}

// Of returns the Concrete key for c.
func Of(c hostclass.Class) TypeKey { return Concrete{Class: c} }

// Named returns the Synthetic key for name.
func Named(name string) TypeKey { return Synthetic{Name: name} }

// KeyName returns the qualified name a declaration source would use for
// key, and false for super proxies and unnamed classes.
func KeyName(key TypeKey) (string, bool) {
	switch k := key.(type) {
	case Concrete:
		qn := hostclass.QualifiedName(k.Class)
		return qn, qn != ""
	case Synthetic:
		return k.Name, k.Name != ""
	default:
		return "", false
	}
}

// KeyResolver turns a declared type name into a key, preferring a runtime
// class when the runtime knows one by that name.
type KeyResolver func(qualname string) TypeKey

// SyntheticOnly resolves every name to a Synthetic key.
func SyntheticOnly(qualname string) TypeKey { return Synthetic{Name: qualname} }

// RegistryResolver resolves names through a runtime class registry and
// falls back to Synthetic keys.
func RegistryResolver(r *hostclass.Registry) KeyResolver {
	return func(qualname string) TypeKey {
		if r != nil {
			if c, ok := r.Lookup(qualname); ok {
				return Concrete{Class: c}
			}
		}
		return Synthetic{Name: qualname}
	}
}
