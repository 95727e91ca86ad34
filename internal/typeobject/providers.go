package typeobject

import "github.com/hashicorp/go-set/v3"

// BaseProvider returns additional (virtual) base classes for a type. These
// exist for type checking only. For example, a provider returning {A} for
// B makes B a subclass of A to the checker.
//
// Providers must be pure: they may be called any number of times per key.
type BaseProvider func(key TypeKey) []TypeKey

// ProviderRegistry aggregates base providers in registration order.
type ProviderRegistry struct {
	providers []BaseProvider
}

func NewProviderRegistry(providers ...BaseProvider) *ProviderRegistry {
	r := &ProviderRegistry{}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register appends p. Nil providers are ignored.
func (r *ProviderRegistry) Register(p BaseProvider) {
	if p != nil {
		r.providers = append(r.providers, p)
	}
}

func (r *ProviderRegistry) Len() int { return len(r.providers) }

// AdditionalBases unions the results of every provider for key. A panicking
// provider is a configuration error and is not recovered.
func (r *ProviderRegistry) AdditionalBases(key TypeKey) *set.Set[TypeKey] {
	bases := set.New[TypeKey](0)
	for _, p := range r.providers {
		bases.InsertSlice(p(key))
	}
	return bases
}
