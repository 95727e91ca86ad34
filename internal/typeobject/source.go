package typeobject

import (
	"errors"
	"slices"
	"strings"

	"github.com/funvibe/typeobj/internal/hostclass"
)

// ErrUnknownType is returned by an AncestorSource that has no declaration
// for the requested type.
var ErrUnknownType = errors.New("type not declared")

// AncestorSource answers declaration-level questions about types, typically
// from stub files. It must not have side effects visible to the engine.
type AncestorSource interface {
	// AncestorsOf returns the transitively resolved ancestors of key,
	// including key itself.
	AncestorsOf(key TypeKey) ([]TypeKey, error)
	// IsStructuralContract reports whether the declarations mark key as a
	// protocol.
	IsStructuralContract(key TypeKey) (bool, error)
	// AllAttributeNames returns the attribute names declared on key.
	AllAttributeNames(key TypeKey) ([]string, error)
}

// NameResolver reports whether c is the class known by qualname.
type NameResolver func(c hostclass.Class, qualname string) bool

// Qualified names of the protocol infrastructure.
const (
	ObjectName    = "builtins.object"
	GenericName   = "typing.Generic"
	ProtocolName  = "typing.Protocol"
	ProtocolMeta  = "typing._ProtocolMeta"
	extensionsPkg = "typing_extensions."
	typingPkg     = "typing."
)

// ProtocolMarker is the synthetic key declaration sources put among the
// ancestors of a protocol.
var ProtocolMarker TypeKey = Synthetic{Name: ProtocolName}

// DefaultNameResolver compares qualified names, treating typing_extensions
// as an alias of typing.
func DefaultNameResolver(c hostclass.Class, qualname string) bool {
	qn := hostclass.QualifiedName(c)
	return sameTypingName(qn, qualname)
}

func sameTypingName(have, want string) bool {
	if have == want {
		return true
	}
	if rest, ok := strings.CutPrefix(have, extensionsPkg); ok {
		return typingPkg+rest == want
	}
	return false
}

// EmptySource knows no types.
type EmptySource struct{}

func (EmptySource) AncestorsOf(TypeKey) ([]TypeKey, error)      { return nil, ErrUnknownType }
func (EmptySource) IsStructuralContract(TypeKey) (bool, error)  { return false, ErrUnknownType }
func (EmptySource) AllAttributeNames(TypeKey) ([]string, error) { return nil, ErrUnknownType }

// ChainSource consults sources in order; the first one that knows the type
// answers.
type ChainSource []AncestorSource

func (c ChainSource) AncestorsOf(key TypeKey) ([]TypeKey, error) {
	for _, s := range c {
		out, err := s.AncestorsOf(key)
		if errors.Is(err, ErrUnknownType) {
			continue
		}
		return out, err
	}
	return nil, ErrUnknownType
}

func (c ChainSource) IsStructuralContract(key TypeKey) (bool, error) {
	for _, s := range c {
		ok, err := s.IsStructuralContract(key)
		if errors.Is(err, ErrUnknownType) {
			continue
		}
		return ok, err
	}
	return false, ErrUnknownType
}

func (c ChainSource) AllAttributeNames(key TypeKey) ([]string, error) {
	for _, s := range c {
		out, err := s.AllAttributeNames(key)
		if errors.Is(err, ErrUnknownType) {
			continue
		}
		return out, err
	}
	return nil, ErrUnknownType
}

// Chain flattens nested chains and drops nil sources.
func Chain(sources ...AncestorSource) AncestorSource {
	var out ChainSource
	for _, s := range sources {
		switch v := s.(type) {
		case nil:
		case ChainSource:
			out = append(out, v...)
		default:
			out = append(out, s)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return slices.Clip(out)
}
