package hostclass

// MRO returns the method resolution order of c: c first, then its ancestors
// in C3 linearization order. Hierarchies C3 cannot linearize fall back to a
// left-to-right depth-first order without duplicates, so the result is
// always deterministic. Cyclic or broken base lists are cut, never followed.
func MRO(c Class) (order []Class) {
	if c == nil {
		return nil
	}
	defer func() {
		// Classes whose dynamic value cannot be a map key.
		if recover() != nil {
			order = []Class{c}
		}
	}()
	l := &linearizer{memo: make(map[Class][]Class), active: make(map[Class]bool)}
	return l.linearize(c)
}

type linearizer struct {
	memo   map[Class][]Class
	active map[Class]bool
}

func (l *linearizer) linearize(c Class) []Class {
	if m, ok := l.memo[c]; ok {
		return m
	}
	if l.active[c] {
		return []Class{c}
	}
	l.active[c] = true
	defer delete(l.active, c)

	var bases []Class
	for _, b := range dedupe(SafeBases(c)) {
		if !l.active[b] {
			bases = append(bases, b)
		}
	}
	seqs := make([][]Class, 0, len(bases)+1)
	for _, b := range bases {
		seqs = append(seqs, l.linearize(b))
	}
	seqs = append(seqs, bases)

	merged, ok := merge(seqs)
	if !ok {
		merged = depthFirst(c)[1:]
	}
	out := append([]Class{c}, merged...)
	l.memo[c] = out
	return out
}

func merge(seqs [][]Class) ([]Class, bool) {
	work := make([][]Class, 0, len(seqs))
	for _, s := range seqs {
		if len(s) > 0 {
			work = append(work, append([]Class(nil), s...))
		}
	}
	var out []Class
	for len(work) > 0 {
		var head Class
		for _, s := range work {
			cand := s[0]
			if !inTail(cand, work) {
				head = cand
				break
			}
		}
		if head == nil {
			return nil, false
		}
		out = append(out, head)
		next := work[:0]
		for _, s := range work {
			if s[0] == head {
				s = s[1:]
			}
			if len(s) > 0 {
				next = append(next, s)
			}
		}
		work = next
	}
	return out, true
}

func inTail(c Class, seqs [][]Class) bool {
	for _, s := range seqs {
		for _, x := range s[1:] {
			if x == c {
				return true
			}
		}
	}
	return false
}

func depthFirst(c Class) []Class {
	seen := make(map[Class]bool)
	var out []Class
	var walk func(Class)
	walk = func(k Class) {
		if k == nil || seen[k] {
			return
		}
		seen[k] = true
		out = append(out, k)
		for _, b := range SafeBases(k) {
			walk(b)
		}
	}
	walk(c)
	return out
}

func dedupe(cs []Class) []Class {
	seen := make(map[Class]bool, len(cs))
	out := cs[:0:0]
	for _, c := range cs {
		if c == nil || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
