package typeobject

import (
	"fmt"
	"reflect"
)

type assumption struct {
	left, right *TypeObject
}

// AssumptionMismatchError is the panic value raised when an assumption is
// released out of order. It means the recursion that pushed it is broken.
type AssumptionMismatchError struct {
	Pushed, Popped [2]*TypeObject
	Empty          bool
	Twice          bool
}

func (e *AssumptionMismatchError) Error() string {
	if e.Twice {
		return fmt.Sprintf("assumption (%s, %s) released twice", e.Pushed[0], e.Pushed[1])
	}
	if e.Empty {
		return fmt.Sprintf("assumption stack empty when releasing (%s, %s)", e.Pushed[0], e.Pushed[1])
	}
	return fmt.Sprintf("assumption stack out of order: released (%s, %s) but top was (%s, %s)",
		e.Pushed[0], e.Pushed[1], e.Popped[0], e.Popped[1])
}

// CanAssumeCompatibility reports whether left has been assumed compatible
// with right by an enclosing check. Direction matters. Descriptors match
// by value, so a pair rebuilt for an uncacheable key still finds its
// assumption.
func (c *Checker) CanAssumeCompatibility(left, right *TypeObject) bool {
	for _, a := range c.assumed {
		if sameDescriptor(a.left, left) && sameDescriptor(a.right, right) {
			return true
		}
	}
	return false
}

func sameDescriptor(a, b *TypeObject) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return sameKey(a.key, b.key) &&
		a.isProtocol == b.isProtocol &&
		a.ancestors.Equal(b.ancestors) &&
		a.protocolMembers.Equal(b.protocolMembers)
}

// sameKey compares keys with ==, falling back to a deep comparison for
// keys holding values that == cannot compare.
func sameKey(a, b TypeKey) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = reflect.DeepEqual(a, b)
		}
	}()
	return a == b
}

// AssumeCompatibility runs fn while left and right are assumed compatible.
// The assumption is released when fn returns or panics.
func (c *Checker) AssumeCompatibility(left, right *TypeObject, fn func() error) error {
	release := c.Assume(left, right)
	defer release()
	return fn()
}

// Assume pushes (left, right) and returns the function that pops it.
// The returned function must be called exactly once, typically deferred.
func (c *Checker) Assume(left, right *TypeObject) (release func()) {
	pair := assumption{left: left, right: right}
	c.assumed = append(c.assumed, pair)
	released := false
	return func() {
		if released {
			panic(&AssumptionMismatchError{Pushed: [2]*TypeObject{left, right}, Twice: true})
		}
		released = true
		c.pop(pair)
	}
}

func (c *Checker) pop(pair assumption) {
	n := len(c.assumed)
	if n == 0 {
		panic(&AssumptionMismatchError{Pushed: [2]*TypeObject{pair.left, pair.right}, Empty: true})
	}
	top := c.assumed[n-1]
	c.assumed = c.assumed[:n-1]
	if top != pair {
		panic(&AssumptionMismatchError{
			Pushed: [2]*TypeObject{pair.left, pair.right},
			Popped: [2]*TypeObject{top.left, top.right},
		})
	}
}

// AssumptionDepth returns the number of assumptions currently held.
func (c *Checker) AssumptionDepth() int { return len(c.assumed) }
