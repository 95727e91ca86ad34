package typeobject

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-set/v3"
)

// TypeObject is the cached description of a type: what it is a subtype of
// and, for protocols, the member names that make up its contract.
// It is never modified after the Checker builds it.
type TypeObject struct {
	key             TypeKey
	ancestors       *set.Set[TypeKey]
	isProtocol      bool
	protocolMembers *set.Set[string]
}

func newTypeObject(key TypeKey, ancestors *set.Set[TypeKey], isProtocol bool, members *set.Set[string]) *TypeObject {
	if ancestors == nil {
		ancestors = set.New[TypeKey](0)
	}
	if members == nil || !isProtocol {
		members = set.New[string](0)
	}
	return &TypeObject{
		key:             key,
		ancestors:       ancestors,
		isProtocol:      isProtocol,
		protocolMembers: members,
	}
}

func (t *TypeObject) Key() TypeKey { return t.key }

// Ancestors returns a copy of the ancestor set.
func (t *TypeObject) Ancestors() *set.Set[TypeKey] { return t.ancestors.Copy() }

func (t *TypeObject) HasAncestor(k TypeKey) bool { return t.ancestors.Contains(k) }

func (t *TypeObject) IsProtocol() bool { return t.isProtocol }

// ProtocolMembers returns the contract's member names in sorted order.
// Empty unless IsProtocol.
func (t *TypeObject) ProtocolMembers() []string {
	members := t.protocolMembers.Slice()
	slices.Sort(members)
	return members
}

func (t *TypeObject) HasMember(name string) bool { return t.protocolMembers.Contains(name) }

// AncestorNames returns the ancestors' display names, sorted.
func (t *TypeObject) AncestorNames() []string {
	names := make([]string, 0, t.ancestors.Size())
	for _, k := range t.ancestors.Slice() {
		names = append(names, k.String())
	}
	slices.Sort(names)
	return names
}

func (t *TypeObject) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "TypeObject(%s", t.key)
	if t.isProtocol {
		fmt.Fprintf(&sb, ", protocol{%s}", strings.Join(t.ProtocolMembers(), ", "))
	}
	sb.WriteString(")")
	return sb.String()
}
