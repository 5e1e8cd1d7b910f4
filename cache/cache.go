// Package cache models a set-associative hardware cache. It decides hit or
// miss for a stream of addresses, maintains the cached data, and tracks the
// behavior of the configured replacement policy. The model is functional, not
// timed: every operation completes synchronously and a cache instance assumes
// exclusive single-goroutine ownership.
package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/cachesim/mem"
)

// accessWidth is the number of bytes moved by a single Read or Write. All
// cached words are interpreted as little-endian.
const accessWidth = 4

// ErrOffsetOutOfRange is returned when an access would read or write past the
// end of a block.
var ErrOffsetOutOfRange = errors.New("access crosses the end of a block")

// A Cache is a storage that is managed in sets and blocks. It owns the block
// data as one contiguous arena, fetches missing blocks from a backing
// storage, and counts accesses and misses.
type Cache struct {
	geometry      Geometry
	policy        ReplacementPolicy
	writePolicy   WritePolicy
	writeAllocate bool

	arena []byte
	sets  []Set

	storage      *mem.Storage
	victimFinder VictimFinder
	metrics      Metrics
	traceLogger  *log.Logger

	accessCount uint64
	missCount   uint64
	writeCount  uint64
}

// Geometry returns the derived dimensions, shifts, and masks of the cache.
func (c *Cache) Geometry() Geometry {
	return c.geometry
}

// Policy returns the configured replacement policy.
func (c *Cache) Policy() ReplacementPolicy {
	return c.policy
}

// Read returns the 32-bit little-endian word stored at addr. On a miss, the
// containing block is fetched from the backing storage into a victim line
// chosen by the replacement policy before the word is returned.
func (c *Cache) Read(addr uint64) (uint32, error) {
	tag, setID, offset := c.geometry.Decompose(addr)
	if offset+accessWidth > c.geometry.BlockSize {
		return 0, fmt.Errorf("%w: offset %d in a %d-byte block",
			ErrOffsetOutOfRange, offset, c.geometry.BlockSize)
	}

	set := &c.sets[setID]
	c.accessCount++

	wayID, ok := set.FindMatchingLine(tag)
	if ok {
		if c.policy.usesRecency() {
			set.MakeMRU(wayID)
		}

		c.traceAccess("hit", setID, addr)
		c.metrics.Hit()

		return binary.LittleEndian.Uint32(set.Blocks[wayID].Data[offset:]), nil
	}

	c.missCount++
	c.traceAccess("miss", setID, addr)
	c.metrics.Miss()

	block, err := c.installLine(set, addr, tag)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(block.Data[offset:]), nil
}

// Write stores a 32-bit little-endian word at addr. The cache is
// write-through: the backing storage is always updated, the cached copy is
// updated in place on a hit, and on a miss a line is allocated only when the
// cache is configured with write-allocate. Writes do not affect the read
// counters.
func (c *Cache) Write(addr uint64, value uint32) error {
	tag, setID, offset := c.geometry.Decompose(addr)
	if offset+accessWidth > c.geometry.BlockSize {
		return fmt.Errorf("%w: offset %d in a %d-byte block",
			ErrOffsetOutOfRange, offset, c.geometry.BlockSize)
	}

	var word [accessWidth]byte
	binary.LittleEndian.PutUint32(word[:], value)

	if err := c.storage.Write(addr, word[:]); err != nil {
		return err
	}

	c.writeCount++

	set := &c.sets[setID]

	wayID, ok := set.FindMatchingLine(tag)
	if ok {
		if c.policy.usesRecency() {
			set.MakeMRU(wayID)
		}

		copy(set.Blocks[wayID].Data[offset:], word[:])

		return nil
	}

	if !c.writeAllocate {
		return nil
	}

	_, err := c.installLine(set, addr, tag)

	return err
}

// Contains reports whether the block containing addr is currently cached. It
// does not count as an access and does not disturb the recency state.
func (c *Cache) Contains(addr uint64) bool {
	tag, setID, _ := c.geometry.Decompose(addr)
	_, ok := c.sets[setID].FindMatchingLine(tag)

	return ok
}

// AccessCount returns the number of Read calls since the cache was created.
func (c *Cache) AccessCount() uint64 {
	return c.accessCount
}

// MissCount returns the number of Read calls that missed since the cache was
// created.
func (c *Cache) MissCount() uint64 {
	return c.missCount
}

// WriteCount returns the number of Write calls since the cache was created.
func (c *Cache) WriteCount() uint64 {
	return c.writeCount
}

// HitRate returns the fraction of reads that hit, or 0 before the first read.
func (c *Cache) HitRate() float64 {
	if c.accessCount == 0 {
		return 0
	}

	return 1 - float64(c.missCount)/float64(c.accessCount)
}

func (c *Cache) installLine(set *Set, addr, tag uint64) (*Block, error) {
	wayID := c.victimFinder.FindVictim(set)
	block := &set.Blocks[wayID]

	if block.IsValid {
		c.metrics.Evict()
	}

	data, err := c.storage.Read(c.geometry.LineAddr(addr), c.geometry.BlockSize)
	if err != nil {
		return nil, err
	}

	copy(block.Data, data)
	block.Tag = tag
	block.IsValid = true

	return block, nil
}

func (c *Cache) traceAccess(what string, setID int, addr uint64) {
	if c.traceLogger == nil {
		return
	}

	c.traceLogger.Printf("cache %4s in set %3d for address 0x%x\n",
		what, setID, addr)
}
