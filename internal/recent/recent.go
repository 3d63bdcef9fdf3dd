// Package recent keeps the list of recently opened stacks.
package recent

// List is a bounded most-recently-used list of paths, newest first.
type List struct {
	items    []string
	capacity int
}

// NewList creates a List.
// If capacity is 0, the list is disabled. Negative capacity is treated as 0.
func NewList(capacity int) *List {
	if capacity < 0 {
		capacity = 0
	}
	return &List{
		items:    make([]string, 0, capacity),
		capacity: capacity,
	}
}

// Capacity returns the maximum number of paths kept.
func (l *List) Capacity() int {
	return l.capacity
}

// Record moves path to the front, inserting it if needed, and drops the
// oldest entries beyond capacity.
func (l *List) Record(path string) {
	if l.capacity == 0 || path == "" {
		return
	}
	l.remove(path)
	l.items = append([]string{path}, l.items...)
	if len(l.items) > l.capacity {
		l.items = l.items[:l.capacity]
	}
}

// Remove drops every occurrence of path.
func (l *List) Remove(path string) {
	l.remove(path)
}

func (l *List) remove(path string) {
	kept := l.items[:0]
	for _, p := range l.items {
		if p != path {
			kept = append(kept, p)
		}
	}
	l.items = kept
}

// Items returns a copy of the list, newest first.
func (l *List) Items() []string {
	out := make([]string, len(l.items))
	copy(out, l.items)
	return out
}

// Replace loads paths, oldest last, as the new list contents.
// Duplicates and entries beyond capacity are dropped.
func (l *List) Replace(paths []string) {
	l.items = l.items[:0]
	for i := len(paths) - 1; i >= 0; i-- {
		l.Record(paths[i])
	}
}

// Clear empties the list.
func (l *List) Clear() {
	l.items = l.items[:0]
}
