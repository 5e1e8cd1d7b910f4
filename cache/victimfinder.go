package cache

// A RandSource supplies the random numbers consumed by the random replacement
// policy. It is an explicit collaborator so that eviction stays deterministic
// under test.
type RandSource func() int

// A VictimFinder decides which way of a set should hold incoming data. All
// implementations prefer an invalid way over evicting a valid one.
type VictimFinder interface {
	FindVictim(set *Set) int
}

// LRUVictimFinder evicts the least recently used way of a set.
type LRUVictimFinder struct{}

// NewLRUVictimFinder returns a newly constructed LRU evictor.
func NewLRUVictimFinder() *LRUVictimFinder {
	return &LRUVictimFinder{}
}

// FindVictim returns the first invalid way or, if the set is full, the way at
// the tail of the MRU queue. The chosen way is promoted to the head of the
// queue, as it is about to become the most recently installed line.
func (f *LRUVictimFinder) FindVictim(set *Set) int {
	if wayID, ok := firstInvalidWay(set); ok {
		set.MakeMRU(wayID)
		return wayID
	}

	wayID := set.MRUQueue[len(set.MRUQueue)-1]
	set.MakeMRU(wayID)

	return wayID
}

// MRUVictimFinder evicts the most recently used way of a set.
type MRUVictimFinder struct{}

// NewMRUVictimFinder returns a newly constructed MRU evictor.
func NewMRUVictimFinder() *MRUVictimFinder {
	return &MRUVictimFinder{}
}

// FindVictim returns the first invalid way or, if the set is full, the way at
// the head of the MRU queue. The chosen way stays at the head of the queue.
func (f *MRUVictimFinder) FindVictim(set *Set) int {
	if wayID, ok := firstInvalidWay(set); ok {
		set.MakeMRU(wayID)
		return wayID
	}

	wayID := set.MRUQueue[0]
	set.MakeMRU(wayID)

	return wayID
}

// RandomVictimFinder evicts a way chosen by an injected random source. It
// never reads or updates the MRU queue.
type RandomVictimFinder struct {
	source RandSource
}

// NewRandomVictimFinder returns a newly constructed random evictor that draws
// from the given source.
func NewRandomVictimFinder(source RandSource) *RandomVictimFinder {
	return &RandomVictimFinder{source: source}
}

// FindVictim returns the first invalid way or, if the set is full,
// source() % associativity.
func (f *RandomVictimFinder) FindVictim(set *Set) int {
	if wayID, ok := firstInvalidWay(set); ok {
		return wayID
	}

	return f.source() % len(set.Blocks)
}

func firstInvalidWay(set *Set) (int, bool) {
	for wayID := range set.Blocks {
		if !set.Blocks[wayID].IsValid {
			return wayID, true
		}
	}

	return 0, false
}
