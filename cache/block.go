package cache

// A Block of a cache is the information that is associated with a cache line,
// together with the line's data. Data is a fixed-length slice of the arena
// the cache allocates at construction; it is written in place and never
// reallocated.
type Block struct {
	Tag     uint64
	SetID   int
	WayID   int
	IsValid bool
	Data    []byte
}

// A Set is a group of blocks that a certain piece of memory can be stored at.
// MRUQueue orders the ways of the set from most- to least-recently used. It
// is always a permutation of the way IDs, with invalid ways sitting behind
// all valid ways.
type Set struct {
	Blocks   []Block
	MRUQueue []int
}

// FindMatchingLine returns the way that holds a valid copy of the block with
// the given tag. At most one way can match. The second return value is false
// on a miss.
func (s *Set) FindMatchingLine(tag uint64) (int, bool) {
	for wayID := range s.Blocks {
		block := &s.Blocks[wayID]
		if block.IsValid && block.Tag == tag {
			return wayID, true
		}
	}

	return 0, false
}

// MakeMRU moves a way to the head of the MRU queue, shifting the entries in
// front of it one slot toward the tail. The way must already be present in
// the queue exactly once.
func (s *Set) MakeMRU(wayID int) {
	pos := 0
	for i, w := range s.MRUQueue {
		if w == wayID {
			pos = i
			break
		}
	}

	for i := pos; i > 0; i-- {
		s.MRUQueue[i] = s.MRUQueue[i-1]
	}

	s.MRUQueue[0] = wayID
}
