package stubs

import (
	"github.com/funvibe/typeobj/internal/typeobject"
)

// Names of the protocol marker as it appears in stubs.
var protocolBases = map[string]bool{
	"typing.Protocol":            true,
	"typing_extensions.Protocol": true,
}

// IsProtocolBase reports whether a declared base makes a type a protocol.
func IsProtocolBase(name string) bool { return protocolBases[name] }

func (r *Repository) declFor(key typeobject.TypeKey) (*Decl, error) {
	name, ok := typeobject.KeyName(key)
	if !ok {
		return nil, typeobject.ErrUnknownType
	}
	d, ok := r.decls[name]
	if !ok {
		return nil, typeobject.ErrUnknownType
	}
	return d, nil
}

// ancestorNames walks the declared bases breadth-first. The type itself
// comes first; undeclared bases are included but not expanded.
func (r *Repository) ancestorNames(name string) []string {
	seen := map[string]bool{name: true}
	order := []string{name}
	for i := 0; i < len(order); i++ {
		d, ok := r.decls[order[i]]
		if !ok {
			continue
		}
		for _, b := range d.Bases {
			if !seen[b] {
				seen[b] = true
				order = append(order, b)
			}
		}
	}
	return order
}

// AncestorsOf returns key and every declared ancestor. Names are mapped to
// keys through the repository's resolver, except the type itself, which is
// returned as given. A type flagged as a protocol without inheriting from
// typing.Protocol gets the marker appended.
func (r *Repository) AncestorsOf(key typeobject.TypeKey) ([]typeobject.TypeKey, error) {
	d, err := r.declFor(key)
	if err != nil {
		return nil, err
	}
	names := r.ancestorNames(d.Name)
	out := make([]typeobject.TypeKey, 0, len(names)+1)
	out = append(out, key)
	marked := false
	for _, n := range names[1:] {
		marked = marked || protocolBases[n]
		out = append(out, r.resolver(n))
	}
	if d.Protocol && !marked {
		out = append(out, r.resolver(typeobject.ProtocolName))
	}
	return out, nil
}

// IsStructuralContract reports whether key is marked as a protocol or lists
// typing.Protocol among its direct bases.
func (r *Repository) IsStructuralContract(key typeobject.TypeKey) (bool, error) {
	d, err := r.declFor(key)
	if err != nil {
		return false, err
	}
	if d.Protocol {
		return true, nil
	}
	for _, b := range d.Bases {
		if protocolBases[b] {
			return true, nil
		}
	}
	return false, nil
}

// AllAttributeNames returns the names key itself declares.
func (r *Repository) AllAttributeNames(key typeobject.TypeKey) ([]string, error) {
	d, err := r.declFor(key)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), d.Attributes...), nil
}

var _ typeobject.AncestorSource = (*Repository)(nil)
