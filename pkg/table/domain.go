package table

import "fmt"

// Domain holds the possible values of a column and/or its numeric bounds.
// Values keep first-seen order.
type Domain struct {
	values []any
	index  map[string]struct{}

	Lower any
	Upper any
}

// NewDomain returns a domain seeded with the given values.
func NewDomain(values ...any) *Domain {
	d := &Domain{}
	for _, v := range values {
		d.Add(v)
	}
	return d
}

func domainKey(v any) string {
	return fmt.Sprintf("%T:%v", v, v)
}

// Add inserts v into the value set. It reports whether v was new.
func (d *Domain) Add(v any) bool {
	if d.index == nil {
		d.index = make(map[string]struct{})
	}
	k := domainKey(v)
	if _, ok := d.index[k]; ok {
		return false
	}
	d.index[k] = struct{}{}
	d.values = append(d.values, v)
	return true
}

// Contains reports whether v is in the value set.
func (d *Domain) Contains(v any) bool {
	if d == nil || d.index == nil {
		return false
	}
	_, ok := d.index[domainKey(v)]
	return ok
}

// Values returns the value set in insertion order.
func (d *Domain) Values() []any {
	if d == nil {
		return nil
	}
	out := make([]any, len(d.values))
	copy(out, d.values)
	return out
}

// Len is the size of the value set.
func (d *Domain) Len() int {
	if d == nil {
		return 0
	}
	return len(d.values)
}

// HasBounds reports whether both bounds are set.
func (d *Domain) HasBounds() bool {
	return d != nil && d.Lower != nil && d.Upper != nil
}

// Clone returns a deep copy of the value set and bounds.
func (d *Domain) Clone() *Domain {
	if d == nil {
		return nil
	}
	c := &Domain{Lower: d.Lower, Upper: d.Upper}
	if len(d.values) > 0 {
		c.values = make([]any, len(d.values))
		copy(c.values, d.values)
		c.index = make(map[string]struct{}, len(d.index))
		for k := range d.index {
			c.index[k] = struct{}{}
		}
	}
	return c
}
