package value

import "github.com/stof-engine/stof/stoferr"

// List is a persistent, indexable sequence of values.
//
// It wraps a plain Go slice under a copy-on-write discipline: every
// operation that would change the list allocates a fresh backing array
// and copies all elements into it (O(n); versions share no structure),
// and never writes through a slice another List might still be pointing
// at. Because of that, Clone is just copying the List's slice header —
// three words, O(1) — while two Lists produced from the same ancestor
// never see each other's writes.
type List struct {
	elems []Value
}

// NewList builds a List from the given elements. The slice is copied
// once; the caller's backing array is never retained.
func NewList(elems ...Value) List {
	return List{elems: append([]Value(nil), elems...)}
}

// Len returns the number of elements.
func (l List) Len() int { return len(l.elems) }

// Get returns the element at index i.
func (l List) Get(i int) (Value, error) {
	if i < 0 || i >= len(l.elems) {
		return Value{}, stoferr.New(stoferr.Path, "List.get", "index out of range").WithDetail("index", itoa(i))
	}
	return l.elems[i], nil
}

// Set returns a new List with index i replaced by v.
func (l List) Set(i int, v Value) (List, error) {
	if i < 0 || i >= len(l.elems) {
		return List{}, stoferr.New(stoferr.Path, "List.set", "index out of range").WithDetail("index", itoa(i))
	}
	out := append([]Value(nil), l.elems...)
	out[i] = v
	return List{elems: out}, nil
}

// Push appends v to the back of the list.
func (l List) Push(v Value) List {
	out := make([]Value, len(l.elems)+1)
	copy(out, l.elems)
	out[len(l.elems)] = v
	return List{elems: out}
}

// Pop removes the last element, returning the shortened list and the
// removed value.
func (l List) Pop() (List, Value, error) {
	if len(l.elems) == 0 {
		return List{}, Value{}, stoferr.New(stoferr.Path, "List.pop", "pop of empty list")
	}
	last := l.elems[len(l.elems)-1]
	return List{elems: append([]Value(nil), l.elems[:len(l.elems)-1]...)}, last, nil
}

// PushFront returns a new list with v prepended.
func (l List) PushFront(v Value) List {
	out := make([]Value, len(l.elems)+1)
	out[0] = v
	copy(out[1:], l.elems)
	return List{elems: out}
}

// PopFront returns a new list with the first element removed, and that
// element.
func (l List) PopFront() (List, Value, error) {
	if len(l.elems) == 0 {
		return List{}, Value{}, stoferr.New(stoferr.Path, "List.pop_front", "pop of empty list")
	}
	first := l.elems[0]
	return List{elems: append([]Value(nil), l.elems[1:]...)}, first, nil
}

// Insert returns a new list with v inserted at index i (0<=i<=Len()).
func (l List) Insert(i int, v Value) (List, error) {
	if i < 0 || i > len(l.elems) {
		return List{}, stoferr.New(stoferr.Path, "List.insert", "index out of range").WithDetail("index", itoa(i))
	}
	out := make([]Value, 0, len(l.elems)+1)
	out = append(out, l.elems[:i]...)
	out = append(out, v)
	out = append(out, l.elems[i:]...)
	return List{elems: out}, nil
}

// Remove returns a new list with the element at index i removed, and
// that element.
func (l List) Remove(i int) (List, Value, error) {
	if i < 0 || i >= len(l.elems) {
		return List{}, Value{}, stoferr.New(stoferr.Path, "List.remove", "index out of range").WithDetail("index", itoa(i))
	}
	removed := l.elems[i]
	out := make([]Value, 0, len(l.elems)-1)
	out = append(out, l.elems[:i]...)
	out = append(out, l.elems[i+1:]...)
	return List{elems: out}, removed, nil
}

// Concat returns a new list containing l's elements followed by other's.
func (l List) Concat(other List) List {
	out := make([]Value, 0, len(l.elems)+len(other.elems))
	out = append(out, l.elems...)
	out = append(out, other.elems...)
	return List{elems: out}
}

// Slice returns the list's elements as a plain Go slice. The returned
// slice aliases the List's backing array and must not be mutated by
// callers; use it for read-only iteration only.
func (l List) Slice() []Value { return l.elems }

// Reversed returns a new list with elements in reverse order.
func (l List) Reversed() List {
	out := make([]Value, len(l.elems))
	for i, v := range l.elems {
		out[len(out)-1-i] = v
	}
	return List{elems: out}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
