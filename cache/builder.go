package cache

import (
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/cachesim/mem"
)

// ErrUnsupportedWritePolicy is returned by Build when the configured write
// policy is not implemented by the model.
var ErrUnsupportedWritePolicy = errors.New("unsupported write policy")

// ErrMissingRandSource is returned by Build when the random replacement
// policy is selected without a random source.
var ErrMissingRandSource = errors.New(
	"random replacement policy requires a random source")

// defaultStorageCapacity is the capacity of the backing storage created when
// the user does not provide one.
const defaultStorageCapacity = 1 << 32

// Builder can build caches.
type Builder struct {
	byteSize      uint64
	blockSize     uint64
	associativity int
	policy        ReplacementPolicy
	writePolicy   WritePolicy
	writeAllocate bool
	storage       *mem.Storage
	randSource    RandSource
	metrics       Metrics
	traceLogger   *log.Logger
}

// MakeBuilder creates a new builder with a 16KB, 4-way, 64B-block,
// LRU-replaced, write-through configuration.
func MakeBuilder() Builder {
	return Builder{
		byteSize:      16 * 1024,
		blockSize:     64,
		associativity: 4,
		policy:        LRU,
		writePolicy:   WriteThrough,
	}
}

// WithByteSize sets the total number of data bytes the cache holds.
func (b Builder) WithByteSize(byteSize uint64) Builder {
	b.byteSize = byteSize
	return b
}

// WithBlockSize sets the size of each cache line in bytes.
func (b Builder) WithBlockSize(blockSize uint64) Builder {
	b.blockSize = blockSize
	return b
}

// WithAssociativity sets the number of ways per set.
func (b Builder) WithAssociativity(associativity int) Builder {
	b.associativity = associativity
	return b
}

// WithReplacementPolicy sets the rule used to pick eviction victims.
func (b Builder) WithReplacementPolicy(policy ReplacementPolicy) Builder {
	b.policy = policy
	return b
}

// WithWritePolicy sets how writes propagate to the backing storage.
func (b Builder) WithWritePolicy(policy WritePolicy) Builder {
	b.writePolicy = policy
	return b
}

// WithWriteAllocate sets whether a write miss installs the written block.
func (b Builder) WithWriteAllocate(writeAllocate bool) Builder {
	b.writeAllocate = writeAllocate
	return b
}

// WithStorage sets the backing storage that misses are fetched from. When not
// set, Build creates a 4GB storage.
func (b Builder) WithStorage(storage *mem.Storage) Builder {
	b.storage = storage
	return b
}

// WithRandSource sets the random number source consulted by the random
// replacement policy.
func (b Builder) WithRandSource(source RandSource) Builder {
	b.randSource = source
	return b
}

// WithMetrics sets the observability backend notified on hits, misses, and
// evictions.
func (b Builder) WithMetrics(metrics Metrics) Builder {
	b.metrics = metrics
	return b
}

// WithTraceLogger sets the logger that receives one line per access. A nil
// logger disables tracing.
func (b Builder) WithTraceLogger(logger *log.Logger) Builder {
	b.traceLogger = logger
	return b
}

// Build builds a cache. It fails when the geometry is invalid or the policy
// configuration is incomplete.
func (b Builder) Build() (*Cache, error) {
	geometry, err := MakeGeometry(b.byteSize, b.blockSize, b.associativity)
	if err != nil {
		return nil, err
	}

	if b.writePolicy != WriteThrough {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedWritePolicy,
			b.writePolicy)
	}

	victimFinder, err := b.createVictimFinder()
	if err != nil {
		return nil, err
	}

	c := &Cache{
		geometry:      geometry,
		policy:        b.policy,
		writePolicy:   b.writePolicy,
		writeAllocate: b.writeAllocate,
		storage:       b.storage,
		victimFinder:  victimFinder,
		metrics:       b.metrics,
		traceLogger:   b.traceLogger,
	}

	if c.storage == nil {
		c.storage = mem.NewStorage(defaultStorageCapacity)
	}

	if c.metrics == nil {
		c.metrics = NoopMetrics{}
	}

	b.allocateSets(c, geometry)

	return c, nil
}

func (b Builder) createVictimFinder() (VictimFinder, error) {
	switch b.policy {
	case LRU:
		return NewLRUVictimFinder(), nil
	case MRU:
		return NewMRUVictimFinder(), nil
	case Random:
		if b.randSource == nil {
			return nil, ErrMissingRandSource
		}

		return NewRandomVictimFinder(b.randSource), nil
	default:
		return nil, fmt.Errorf("unknown replacement policy: %d", b.policy)
	}
}

// allocateSets carves the single arena allocation into per-line slices, so
// that the blocks of a set stay contiguous in memory.
func (b Builder) allocateSets(c *Cache, geometry Geometry) {
	c.arena = make([]byte, geometry.ByteSize)
	c.sets = make([]Set, geometry.NumSets)

	lineID := 0
	for setID := range c.sets {
		set := &c.sets[setID]

		for wayID := 0; wayID < geometry.Associativity; wayID++ {
			start := uint64(lineID) * geometry.BlockSize
			end := start + geometry.BlockSize

			set.Blocks = append(set.Blocks, Block{
				SetID: setID,
				WayID: wayID,
				Data:  c.arena[start:end:end],
			})
			set.MRUQueue = append(set.MRUQueue, wayID)

			lineID++
		}
	}
}
