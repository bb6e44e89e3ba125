// Package sparse provides a sparse set for O(1) membership tests over a
// small dense universe, with O(1) clearing.
//
// The interpreter keeps its lookbehind table in one: every input position
// starts from an empty table, so clearing must not cost time proportional
// to the number of lookarounds.
package sparse

// SparseSet is a set of uint32 values in [0, capacity).
// It maintains both a sparse array (for membership testing) and a dense array
// (for iteration). The sparse array maps values to indices in the dense array.
type SparseSet struct {
	sparse []uint32 // Maps value -> index in dense
	dense  []uint32 // Contains the actual values
}

// NewSparseSet creates a new sparse set with the given capacity.
// The capacity represents the maximum value that can be stored (exclusive).
func NewSparseSet(capacity uint32) *SparseSet {
	return &SparseSet{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds a value to the set.
// If the value is already present, this is a no-op.
// Panics if value >= capacity.
func (s *SparseSet) Insert(value uint32) {
	if s.Contains(value) {
		return
	}
	s.sparse[value] = uint32(len(s.dense)) //nolint:gosec // len(dense) <= capacity
	s.dense = append(s.dense, value)
}

// Contains returns true if the value is in the set.
// Values outside the capacity are never contained.
func (s *SparseSet) Contains(value uint32) bool {
	if uint64(value) >= uint64(len(s.sparse)) {
		return false
	}
	idx := s.sparse[value]
	return int(idx) < len(s.dense) && s.dense[idx] == value
}

// Clear removes all elements from the set in O(1) time.
func (s *SparseSet) Clear() {
	s.dense = s.dense[:0]
}

// Size returns the number of elements in the set.
func (s *SparseSet) Size() int {
	return len(s.dense)
}

// Values returns the elements in insertion order.
// The returned slice is valid until the next mutation.
func (s *SparseSet) Values() []uint32 {
	return s.dense
}
