// Package mem provides the backing storage that caches fetch blocks from and
// write through to.
package mem

import "errors"

// ErrOutOfCapacity is returned when an access reaches beyond the capacity of
// a storage.
var ErrOutOfCapacity = errors.New("accessing address beyond the storage capacity")

// storageUnitSize is the granularity of the lazy allocation. Units that are
// never touched by Read or Write cost no memory.
const storageUnitSize = 4096

// A Storage keeps the data of the simulated memory. It is an abstraction over
// a flat address space; the cache model treats it as the next level of the
// hierarchy.
type Storage struct {
	capacity uint64
	units    map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity in bytes.
func NewStorage(capacity uint64) *Storage {
	return &Storage{
		capacity: capacity,
		units:    make(map[uint64][]byte),
	}
}

// Capacity returns the number of addressable bytes in the storage.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) unitFor(addr uint64) ([]byte, error) {
	if addr >= s.capacity {
		return nil, ErrOutOfCapacity
	}

	baseAddr := addr - addr%storageUnitSize

	unit, ok := s.units[baseAddr]
	if !ok {
		unit = make([]byte, storageUnitSize)
		s.units[baseAddr] = unit
	}

	return unit, nil
}

// Read returns n bytes starting at addr. Bytes that were never written read
// as zero.
func (s *Storage) Read(addr, n uint64) ([]byte, error) {
	if addr+n > s.capacity {
		return nil, ErrOutOfCapacity
	}

	res := make([]byte, n)
	offset := uint64(0)

	for offset < n {
		currAddr := addr + offset

		unit, err := s.unitFor(currAddr)
		if err != nil {
			return nil, err
		}

		inUnitAddr := currAddr % storageUnitSize
		copied := copy(res[offset:], unit[inUnitAddr:])
		offset += uint64(copied)
	}

	return res, nil
}

// Write stores data starting at addr.
func (s *Storage) Write(addr uint64, data []byte) error {
	if addr+uint64(len(data)) > s.capacity {
		return ErrOutOfCapacity
	}

	offset := uint64(0)

	for offset < uint64(len(data)) {
		currAddr := addr + offset

		unit, err := s.unitFor(currAddr)
		if err != nil {
			return err
		}

		inUnitAddr := currAddr % storageUnitSize
		copied := copy(unit[inUnitAddr:], data[offset:])
		offset += uint64(copied)
	}

	return nil
}
