// Package typeobject resolves type keys into cached TypeObjects and keeps
// the compatibility assumptions a structural check makes while it recurses.
//
// A Checker combines three sources of subtype information: the runtime class
// hierarchy (hostclass), declarations from an AncestorSource, and virtual
// bases injected by BaseProviders. One Checker serves one analysis run and
// must only be used from one goroutine.
package typeobject

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/hashicorp/go-set/v3"

	"github.com/funvibe/typeobj/internal/hostclass"
)

// Checker holds the state that is preserved across the modules of one run.
type Checker struct {
	id          string
	source      AncestorSource
	providers   *ProviderRegistry
	isNamed     NameResolver
	hostVersion string
	alwaysAnn   bool
	logger      *log.Logger
	verbose     bool

	typeObjects map[TypeKey]*TypeObject
	assumed     []assumption
	stats       Stats
}

// Stats counts cache activity.
type Stats struct {
	Hits        int
	Builds      int
	Uncacheable int
}

// Option configures a Checker.
type Option func(*Checker)

// WithSource sets the declaration source. Defaults to EmptySource.
func WithSource(s AncestorSource) Option {
	return func(c *Checker) {
		if s != nil {
			c.source = s
		}
	}
}

// WithBaseProviders registers additional base providers.
func WithBaseProviders(ps ...BaseProvider) Option {
	return func(c *Checker) {
		for _, p := range ps {
			c.providers.Register(p)
		}
	}
}

// WithNameResolver replaces DefaultNameResolver.
func WithNameResolver(r NameResolver) Option {
	return func(c *Checker) {
		if r != nil {
			c.isNamed = r
		}
	}
}

// WithHostVersion sets the version of the analyzed program's runtime
// (e.g. "3.12"). It decides how field annotations are read.
func WithHostVersion(v string) Option {
	return func(c *Checker) { c.hostVersion = v }
}

// WithLogger sets the logger used for verbose diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithVerbose enables logging of degraded lookups and builds.
func WithVerbose(v bool) Option {
	return func(c *Checker) { c.verbose = v }
}

// NewChecker creates a Checker.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		id:          uuid.NewString(),
		source:      EmptySource{},
		providers:   NewProviderRegistry(),
		isNamed:     DefaultNameResolver,
		hostVersion: DefaultHostVersion,
		logger:      log.New(io.Discard, "", 0),
		typeObjects: make(map[TypeKey]*TypeObject),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.alwaysAnn = annotationsAlwaysPresent(c.hostVersion)
	return c
}

// ID identifies this run in logs.
func (c *Checker) ID() string { return c.id }

func (c *Checker) Stats() Stats { return c.stats }

// Len returns the number of cached TypeObjects.
func (c *Checker) Len() int { return len(c.typeObjects) }

func (c *Checker) debugf(format string, args ...any) {
	if c.verbose {
		c.logger.Printf("[typeobj %s] "+format, append([]any{c.id[:8]}, args...)...)
	}
}

// AdditionalBases returns the virtual bases every registered provider
// reports for key.
func (c *Checker) AdditionalBases(key TypeKey) *set.Set[TypeKey] {
	return c.providers.AdditionalBases(key)
}

// MakeTypeObject returns the TypeObject for key, building it on first use.
// Keys that cannot be used as map keys are built fresh on every call.
func (c *Checker) MakeTypeObject(key TypeKey) *TypeObject {
	cached, inCache, ok := c.lookup(key)
	if !ok {
		c.stats.Uncacheable++
		c.debugf("uncacheable key %s", key)
		return c.buildTypeObject(key)
	}
	if inCache {
		c.stats.Hits++
		return cached
	}
	obj := c.buildTypeObject(key)
	c.typeObjects[key] = obj
	return obj
}

// lookup reports ok=false when key cannot be hashed.
func (c *Checker) lookup(key TypeKey) (obj *TypeObject, found, ok bool) {
	defer func() {
		if recover() != nil {
			obj, found, ok = nil, false, false
		}
	}()
	obj, found = c.typeObjects[key]
	return obj, found, true
}

func (c *Checker) buildTypeObject(key TypeKey) *TypeObject {
	c.stats.Builds++
	switch k := key.(type) {
	case Synthetic:
		bases := c.declaredBases(k)
		isProtocol := false
		for _, b := range bases {
			if c.isProtocolMarker(b) {
				isProtocol = true
				break
			}
		}
		var members *set.Set[string]
		if isProtocol {
			members = c.declaredMembers(bases)
		}
		c.debugf("built %s: %d declared bases, protocol=%t", k, len(bases), isProtocol)
		return newTypeObject(k, insertKeys(set.New[TypeKey](len(bases)), bases), isProtocol, members)

	case Super:
		return newTypeObject(k, c.AdditionalBases(k), false, nil)

	case Concrete:
		ancestors := c.AdditionalBases(k)
		insertKeys(ancestors, concreteKeys(hostclass.MRO(k.Class)))

		// Stubs may describe a narrower contract than the implementation;
		// prefer them when they mark the class as a protocol.
		if c.declaredProtocol(k) {
			members := c.declaredMembers(c.declaredBases(k))
			c.debugf("built %s: protocol from declarations, %d members", k, members.Size())
			return newTypeObject(k, ancestors, true, members)
		}
		if c.isRuntimeProtocol(k.Class) {
			members := c.runtimeMembers(k.Class)
			c.debugf("built %s: protocol at runtime, %d members", k, members.Size())
			return newTypeObject(k, ancestors, true, members)
		}
		return newTypeObject(k, ancestors, false, nil)

	default:
		return newTypeObject(key, nil, false, nil)
	}
}

func (c *Checker) declaredProtocol(key TypeKey) bool {
	ok, err := query(func() (bool, error) { return c.source.IsStructuralContract(key) })
	if err != nil {
		c.degraded("protocol check", key, err)
		return false
	}
	return ok
}

func (c *Checker) declaredBases(key TypeKey) []TypeKey {
	bases, err := query(func() ([]TypeKey, error) { return c.source.AncestorsOf(key) })
	if err != nil {
		c.degraded("ancestors", key, err)
		return nil
	}
	return bases
}

func (c *Checker) declaredMembers(bases []TypeKey) *set.Set[string] {
	members := set.New[string](0)
	for _, b := range bases {
		names, err := query(func() ([]string, error) { return c.source.AllAttributeNames(b) })
		if err != nil {
			c.degraded("attributes", b, err)
			continue
		}
		members.InsertSlice(names)
	}
	return members
}

// query runs a source lookup, turning a panic into an error.
func query[T any](q func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, fmt.Errorf("source panicked: %v", r)
		}
	}()
	return q()
}

func (c *Checker) degraded(what string, key TypeKey, err error) {
	if errors.Is(err, ErrUnknownType) {
		return
	}
	c.debugf("warning: %s of %s: %v", what, key, err)
}

func (c *Checker) isProtocolMarker(key TypeKey) bool {
	switch k := key.(type) {
	case Synthetic:
		return sameTypingName(k.Name, ProtocolName)
	case Concrete:
		return c.isNamed(k.Class, ProtocolName)
	}
	return false
}

// insertKeys adds keys to s, skipping any whose value cannot be hashed.
func insertKeys(s *set.Set[TypeKey], keys []TypeKey) *set.Set[TypeKey] {
	for _, k := range keys {
		func() {
			defer func() { _ = recover() }()
			s.Insert(k)
		}()
	}
	return s
}

func concreteKeys(classes []hostclass.Class) []TypeKey {
	keys := make([]TypeKey, len(classes))
	for i, cl := range classes {
		keys[i] = Concrete{Class: cl}
	}
	return keys
}
