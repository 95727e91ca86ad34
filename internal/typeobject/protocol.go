package typeobject

import (
	"strings"

	"github.com/hashicorp/go-set/v3"
	"golang.org/x/mod/semver"

	"github.com/funvibe/typeobj/internal/hostclass"
)

// DefaultHostVersion is assumed when no host runtime version is configured.
const DefaultHostVersion = "3.12"

// Since 3.10 every class has __annotations__; before that only classes
// that declare fields do.
const alwaysAnnotatedSince = "v3.10"

// Housekeeping attributes of the protocol machinery. They appear in a
// protocol's namespace but are never part of its contract.
var excludedProtocolMembers = set.From([]string{
	"__abstractmethods__",
	"__annotations__",
	"__dict__",
	"__doc__",
	"__init__",
	"__new__",
	"__module__",
	"__parameters__",
	"__subclasshook__",
	"__weakref__",
	"_abc_impl",
	"_abc_cache",
	"_is_protocol",
	"__next_in_mro__",
	"_abc_generic_negative_cache_version",
	"__orig_bases__",
	"__args__",
	"_abc_registry",
	"__extra__",
	"_abc_generic_negative_cache",
	"__origin__",
	"__tree_hash__",
	"_gorg",
	"_is_runtime_protocol",
})

// annotationsAlwaysPresent reports whether the host version guarantees
// annotation metadata. Unparseable versions are treated as old.
func annotationsAlwaysPresent(version string) bool {
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return false
	}
	return semver.Compare(v, alwaysAnnotatedSince) >= 0
}

// isRuntimeProtocol reports whether the runtime itself marks cls as a
// protocol: its metaclass is the protocol metaclass and _is_protocol is set.
func (c *Checker) isRuntimeProtocol(cls hostclass.Class) bool {
	if !sameTypingName(hostclass.SafeMetaclass(cls), ProtocolMeta) {
		return false
	}
	return hostclass.Truthy(hostclass.SafeAttr(cls, "_is_protocol", false))
}

// runtimeMembers collects the contract of a runtime protocol from every
// class in its MRO.
func (c *Checker) runtimeMembers(cls hostclass.Class) *set.Set[string] {
	members := set.New[string](0)
	for _, base := range hostclass.MRO(cls) {
		members.InsertSet(c.extractProtocolMembers(base))
	}
	return members
}

func (c *Checker) extractProtocolMembers(cls hostclass.Class) *set.Set[string] {
	members := set.New[string](0)
	if c.isNamed(cls, ObjectName) || c.isNamed(cls, GenericName) || c.isNamed(cls, ProtocolName) {
		return members
	}
	for _, name := range hostclass.SafeNamespace(cls) {
		if !excludedProtocolMembers.Contains(name) {
			members.Insert(name)
		}
	}
	if c.alwaysAnn || hostclass.HasAttr(cls, "__annotations__") {
		fields, _ := hostclass.SafeAnnotations(cls)
		members.InsertSlice(fields)
	}
	return members
}
