package filereader

import "strconv"

// RowIDRegistry remembers the row identifiers of one run.
//
// Uniquify appends the lowest integer suffix that does not produce a
// registered identifier. Identifiers are never removed during a run, so the
// lowest free suffix of a base only grows and is cached per base.
type RowIDRegistry struct {
	seen map[string]struct{}
	next map[string]int
}

// NewRowIDRegistry returns an empty registry.
func NewRowIDRegistry() *RowIDRegistry {
	return &RowIDRegistry{
		seen: make(map[string]struct{}),
		next: make(map[string]int),
	}
}

// Contains reports whether id is registered.
func (r *RowIDRegistry) Contains(id string) bool {
	_, ok := r.seen[id]
	return ok
}

// Register adds id. It returns false if id was already present.
func (r *RowIDRegistry) Register(id string) bool {
	if r.Contains(id) {
		return false
	}
	r.seen[id] = struct{}{}
	return true
}

// Uniquify registers and returns id_n for the lowest n >= 1 not yet taken.
func (r *RowIDRegistry) Uniquify(id string) string {
	n := r.next[id]
	if n < 1 {
		n = 1
	}
	for {
		candidate := id + "_" + strconv.Itoa(n)
		if r.Register(candidate) {
			r.next[id] = n + 1
			return candidate
		}
		n++
	}
}

// Len is the number of registered identifiers.
func (r *RowIDRegistry) Len() int {
	return len(r.seen)
}

// Reset forgets every identifier.
func (r *RowIDRegistry) Reset() {
	r.seen = make(map[string]struct{})
	r.next = make(map[string]int)
}
