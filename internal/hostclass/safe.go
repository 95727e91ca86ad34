package hostclass

// The runtime may hand us half-initialized or proxy classes whose accessors
// fail or panic. These helpers never do; they return the zero value instead.

func SafeBases(c Class) (bases []Class) {
	defer func() {
		if recover() != nil {
			bases = nil
		}
	}()
	if c == nil {
		return nil
	}
	bases, err := c.Bases()
	if err != nil {
		return nil
	}
	return bases
}

func SafeNamespace(c Class) (names []string) {
	defer func() {
		if recover() != nil {
			names = nil
		}
	}()
	if c == nil {
		return nil
	}
	names, err := c.Namespace()
	if err != nil {
		return nil
	}
	return names
}

// SafeAnnotations reports the declared field names and whether the class
// carries annotation metadata at all.
func SafeAnnotations(c Class) (fields []string, ok bool) {
	defer func() {
		if recover() != nil {
			fields, ok = nil, false
		}
	}()
	if c == nil {
		return nil, false
	}
	fields, err := c.Annotations()
	if err != nil {
		return nil, false
	}
	return fields, true
}

func SafeMetaclass(c Class) (name string) {
	defer func() {
		if recover() != nil {
			name = ""
		}
	}()
	if c == nil {
		return ""
	}
	name, err := c.Metaclass()
	if err != nil {
		return ""
	}
	return name
}

// SafeAttr returns the attribute value, or def when the lookup fails.
func SafeAttr(c Class, name string, def any) (v any) {
	defer func() {
		if recover() != nil {
			v = def
		}
	}()
	if c == nil {
		return def
	}
	v, err := c.Attr(name)
	if err != nil {
		return def
	}
	return v
}

// HasAttr reports whether the attribute lookup succeeds. Any failure counts
// as absent.
func HasAttr(c Class, name string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	if c == nil {
		return false
	}
	_, err := c.Attr(name)
	return err == nil
}

// QualifiedName returns module.name, or "" if the class cannot report it.
func QualifiedName(c Class) (qn string) {
	defer func() {
		if recover() != nil {
			qn = ""
		}
	}()
	if c == nil {
		return ""
	}
	mod, name := c.Module(), c.Name()
	if mod == "" {
		return name
	}
	return mod + "." + name
}

// Truthy follows the host language's truth rules for the attribute values
// the engine reads (flags stored as booleans, ints or strings).
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}
