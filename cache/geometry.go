package cache

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidGeometry is returned when the requested cache dimensions cannot
// form a valid set-associative cache.
var ErrInvalidGeometry = errors.New("invalid cache geometry")

// A Geometry holds the dimensions of a cache and the shifts and masks that
// decompose an address into its tag, set index, and in-block offset. All
// fields are derived once at construction and never change.
type Geometry struct {
	ByteSize      uint64
	BlockSize     uint64
	Associativity int

	NumLines int
	NumSets  int

	OffsetBits uint
	OffsetMask uint64
	IndexBits  uint
	IndexMask  uint64
	TagShift   uint
	TagMask    uint64
}

// MakeGeometry derives the geometry of a cache from its total byte size, the
// block size, and the way associativity. Both the block size and the
// resulting number of sets must be powers of two, as the address
// decomposition relies on bit masking.
func MakeGeometry(
	byteSize, blockSize uint64,
	associativity int,
) (Geometry, error) {
	g := Geometry{
		ByteSize:      byteSize,
		BlockSize:     blockSize,
		Associativity: associativity,
	}

	if err := g.validate(); err != nil {
		return Geometry{}, err
	}

	g.NumLines = int(byteSize / blockSize)
	g.NumSets = g.NumLines / associativity

	if !isPowerOfTwo(uint64(g.NumSets)) {
		return Geometry{}, fmt.Errorf(
			"%w: number of sets %d is not a power of two",
			ErrInvalidGeometry, g.NumSets)
	}

	g.OffsetBits = uint(bits.TrailingZeros64(blockSize))
	g.OffsetMask = maskBits(g.OffsetBits)
	g.IndexBits = uint(bits.TrailingZeros64(uint64(g.NumSets)))
	g.IndexMask = maskBits(g.IndexBits) << g.OffsetBits
	g.TagShift = g.OffsetBits + g.IndexBits
	g.TagMask = maskBits(64-g.TagShift) << g.TagShift

	return g, nil
}

func (g Geometry) validate() error {
	switch {
	case g.Associativity < 1:
		return fmt.Errorf("%w: associativity %d must be at least 1",
			ErrInvalidGeometry, g.Associativity)
	case g.BlockSize < accessWidth:
		return fmt.Errorf("%w: block size %d is smaller than the %d-byte "+
			"access width", ErrInvalidGeometry, g.BlockSize, accessWidth)
	case !isPowerOfTwo(g.BlockSize):
		return fmt.Errorf("%w: block size %d is not a power of two",
			ErrInvalidGeometry, g.BlockSize)
	case g.ByteSize == 0 || g.ByteSize%g.BlockSize != 0:
		return fmt.Errorf("%w: byte size %d is not a multiple of block size %d",
			ErrInvalidGeometry, g.ByteSize, g.BlockSize)
	case (g.ByteSize/g.BlockSize)%uint64(g.Associativity) != 0:
		return fmt.Errorf("%w: %d lines cannot be divided into %d-way sets",
			ErrInvalidGeometry, g.ByteSize/g.BlockSize, g.Associativity)
	}

	return nil
}

// Decompose splits an address into the tag, the ID of the set the address
// maps to, and the byte offset within a block.
func (g Geometry) Decompose(addr uint64) (tag uint64, setID int, offset uint64) {
	offset = addr & g.OffsetMask
	setID = int((addr & g.IndexMask) >> g.OffsetBits)
	tag = (addr & g.TagMask) >> g.TagShift

	return
}

// LineAddr returns the address of the first byte of the block that contains
// addr.
func (g Geometry) LineAddr(addr uint64) uint64 {
	return addr &^ g.OffsetMask
}

func isPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

func maskBits(n uint) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << n) - 1
}
