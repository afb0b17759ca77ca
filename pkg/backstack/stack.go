package backstack

import "slices"

// Stack holds cached entries and their ids side by side. Every mutation keeps
// both slices the same length and in the same order.
type Stack struct {
	entries []*Entry
	ids     []string
}

func (s *Stack) Push(e *Entry) {
	s.entries = append(s.entries, e)
	s.ids = append(s.ids, e.ID())
}

// Pop removes the top entry. It returns nil on an empty stack.
func (s *Stack) Pop() *Entry {
	n := len(s.entries)
	if n == 0 {
		return nil
	}
	top := s.entries[n-1]
	s.entries[n-1] = nil
	s.entries = s.entries[:n-1]
	s.ids = s.ids[:n-1]
	return top
}

func (s *Stack) Len() int { return len(s.entries) }

// IDs returns the ids from bottom to top.
func (s *Stack) IDs() []string { return append([]string{}, s.ids...) }

// Entries returns the entries from bottom to top.
func (s *Stack) Entries() []*Entry { return slices.Clone(s.entries) }

// Clear empties the stack and returns what it held.
func (s *Stack) Clear() []*Entry {
	removed := s.entries
	s.entries = nil
	s.ids = nil
	return removed
}

// GoBackCount pops count entries and returns the last one popped.
// A count outside [1, Len] is ignored.
func (s *Stack) GoBackCount(count int) (target *Entry, discarded []*Entry) {
	if count <= 0 || count > s.Len() {
		return nil, nil
	}
	return s.GoBackToIndex(s.Len() - count)
}

// GoBackToIndex pops every entry from the top down to index and returns the
// entry at index. Negative indexes count from the top. The entries popped above
// the target are returned as discarded; the caller owns them.
func (s *Stack) GoBackToIndex(index int) (target *Entry, discarded []*Entry) {
	size := s.Len()
	if index < 0 {
		index += size
	}
	if index < 0 || index >= size {
		return nil, nil
	}
	for s.Len() > index+1 {
		discarded = append(discarded, s.Pop())
	}
	return s.Pop(), discarded
}

// GoBackToID goes back to the most recently pushed entry with id.
func (s *Stack) GoBackToID(id string) (target *Entry, discarded []*Entry) {
	for i := len(s.ids) - 1; i >= 0; i-- {
		if s.ids[i] == id {
			return s.GoBackToIndex(i)
		}
	}
	return nil, nil
}
