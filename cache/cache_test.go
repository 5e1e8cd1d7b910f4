package cache_test

import (
	"bytes"
	"encoding/binary"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/mem"
)

// The scenarios below use a 256-byte, 16-byte-block, 2-way cache. Its 8 sets
// are indexed by address bits [4,6], so addresses 0x00, 0x80, and 0x100 all
// collide in set 0 with distinct tags.
func buildCollisionCache(
	storage *mem.Storage,
	policy cache.ReplacementPolicy,
	source cache.RandSource,
) *cache.Cache {
	c, err := cache.MakeBuilder().
		WithByteSize(256).
		WithBlockSize(16).
		WithAssociativity(2).
		WithReplacementPolicy(policy).
		WithRandSource(source).
		WithStorage(storage).
		Build()
	Expect(err).ToNot(HaveOccurred())

	return c
}

func writeWord(storage *mem.Storage, addr uint64, value uint32) {
	var word [4]byte
	binary.LittleEndian.PutUint32(word[:], value)
	Expect(storage.Write(addr, word[:])).To(Succeed())
}

var _ = Describe("Cache", func() {
	var (
		storage *mem.Storage
		c       *cache.Cache
	)

	BeforeEach(func() {
		storage = mem.NewStorage(1 << 20)
		c = buildCollisionCache(storage, cache.LRU, nil)
	})

	It("should miss on the first access to any address", func() {
		_, err := c.Read(0x80)

		Expect(err).ToNot(HaveOccurred())
		Expect(c.AccessCount()).To(Equal(uint64(1)))
		Expect(c.MissCount()).To(Equal(uint64(1)))
	})

	It("should return the stored word, little-endian", func() {
		writeWord(storage, 0x88, 0x12345678)

		value, err := c.Read(0x88)

		Expect(err).ToNot(HaveOccurred())
		Expect(value).To(Equal(uint32(0x12345678)))
	})

	It("should hit on repeated reads and return identical data", func() {
		writeWord(storage, 0x40, 0xcafebabe)

		first, err := c.Read(0x40)
		Expect(err).ToNot(HaveOccurred())

		for i := 0; i < 3; i++ {
			value, err := c.Read(0x40)
			Expect(err).ToNot(HaveOccurred())
			Expect(value).To(Equal(first))
		}

		Expect(c.AccessCount()).To(Equal(uint64(4)))
		Expect(c.MissCount()).To(Equal(uint64(1)))
	})

	It("should fetch the whole line, so neighbors in a block hit", func() {
		writeWord(storage, 0x4c, 0xfeedface)

		_, err := c.Read(0x40)
		Expect(err).ToNot(HaveOccurred())

		value, err := c.Read(0x4c)
		Expect(err).ToNot(HaveOccurred())
		Expect(value).To(Equal(uint32(0xfeedface)))
		Expect(c.MissCount()).To(Equal(uint64(1)))
	})

	It("should reject reads that cross the end of a block", func() {
		_, err := c.Read(0x4e)

		Expect(err).To(MatchError(cache.ErrOffsetOutOfRange))
		Expect(c.AccessCount()).To(Equal(uint64(0)))
	})

	It("should count accesses and misses exactly once per read", func() {
		addresses := []uint64{0x00, 0x00, 0x80, 0x80, 0x100}

		for _, addr := range addresses {
			_, err := c.Read(addr)
			Expect(err).ToNot(HaveOccurred())
		}

		Expect(c.AccessCount()).To(Equal(uint64(5)))
		Expect(c.MissCount()).To(Equal(uint64(3)))
		Expect(c.HitRate()).To(BeNumerically("~", 0.4, 1e-9))
	})

	Context("with the LRU policy", func() {
		It("should evict the first-accessed tag on a set overflow", func() {
			for _, addr := range []uint64{0x00, 0x80, 0x100} {
				_, err := c.Read(addr)
				Expect(err).ToNot(HaveOccurred())
			}

			Expect(c.Contains(0x00)).To(BeFalse())
			Expect(c.Contains(0x80)).To(BeTrue())
			Expect(c.Contains(0x100)).To(BeTrue())

			missesBefore := c.MissCount()
			_, err := c.Read(0x00)
			Expect(err).ToNot(HaveOccurred())
			Expect(c.MissCount()).To(Equal(missesBefore + 1))
		})

		It("should protect a line that hit from the next eviction", func() {
			_, _ = c.Read(0x00)
			_, _ = c.Read(0x80)
			_, _ = c.Read(0x00) // 0x80 becomes LRU
			_, _ = c.Read(0x100)

			Expect(c.Contains(0x00)).To(BeTrue())
			Expect(c.Contains(0x80)).To(BeFalse())
		})

		It("should not disturb other sets on eviction", func() {
			_, _ = c.Read(0x10) // set 1
			for _, addr := range []uint64{0x00, 0x80, 0x100} {
				_, _ = c.Read(addr)
			}

			Expect(c.Contains(0x10)).To(BeTrue())
		})
	})

	Context("with the MRU policy", func() {
		BeforeEach(func() {
			c = buildCollisionCache(storage, cache.MRU, nil)
		})

		It("should evict the line that hit most recently", func() {
			_, _ = c.Read(0x00)
			_, _ = c.Read(0x80)
			_, _ = c.Read(0x00) // 0x00 becomes MRU, the next victim
			_, _ = c.Read(0x100)

			Expect(c.Contains(0x00)).To(BeFalse())
			Expect(c.Contains(0x80)).To(BeTrue())
			Expect(c.Contains(0x100)).To(BeTrue())
		})
	})

	Context("with the random policy", func() {
		It("should evict source() modulo associativity, reproducibly", func() {
			c = buildCollisionCache(storage, cache.Random,
				func() int { return 1 })

			_, _ = c.Read(0x00)  // way 0
			_, _ = c.Read(0x80)  // way 1
			_, _ = c.Read(0x100) // evicts way 1

			Expect(c.Contains(0x00)).To(BeTrue())
			Expect(c.Contains(0x80)).To(BeFalse())
			Expect(c.Contains(0x100)).To(BeTrue())
		})

		It("should only consult the source when a full set misses", func() {
			calls := 0
			c = buildCollisionCache(storage, cache.Random, func() int {
				calls++
				return 0
			})

			_, _ = c.Read(0x00)
			_, _ = c.Read(0x80)
			_, _ = c.Read(0x00)
			Expect(calls).To(Equal(0))

			_, _ = c.Read(0x100)
			Expect(calls).To(Equal(1))
		})
	})

	Context("when writing", func() {
		It("should write through to the backing storage", func() {
			Expect(c.Write(0x44, 42)).To(Succeed())

			data, err := storage.Read(0x44, 4)
			Expect(err).ToNot(HaveOccurred())
			Expect(binary.LittleEndian.Uint32(data)).To(Equal(uint32(42)))
			Expect(c.WriteCount()).To(Equal(uint64(1)))
		})

		It("should update the cached copy on a write hit", func() {
			_, _ = c.Read(0x40)

			Expect(c.Write(0x44, 42)).To(Succeed())

			value, err := c.Read(0x44)
			Expect(err).ToNot(HaveOccurred())
			Expect(value).To(Equal(uint32(42)))
			Expect(c.MissCount()).To(Equal(uint64(1)))
		})

		It("should not allocate on a write miss by default", func() {
			Expect(c.Write(0x44, 42)).To(Succeed())

			Expect(c.Contains(0x44)).To(BeFalse())
		})

		It("should allocate on a write miss with write-allocate", func() {
			var err error
			c, err = cache.MakeBuilder().
				WithByteSize(256).
				WithBlockSize(16).
				WithAssociativity(2).
				WithWriteAllocate(true).
				WithStorage(storage).
				Build()
			Expect(err).ToNot(HaveOccurred())

			Expect(c.Write(0x44, 42)).To(Succeed())

			Expect(c.Contains(0x44)).To(BeTrue())

			value, err := c.Read(0x44)
			Expect(err).ToNot(HaveOccurred())
			Expect(value).To(Equal(uint32(42)))
			Expect(c.MissCount()).To(Equal(uint64(0)))
		})

		It("should not count writes as read accesses", func() {
			Expect(c.Write(0x44, 42)).To(Succeed())

			Expect(c.AccessCount()).To(Equal(uint64(0)))
			Expect(c.MissCount()).To(Equal(uint64(0)))
		})
	})

	Context("with a trace logger", func() {
		It("should label hits and misses correctly", func() {
			buf := &bytes.Buffer{}
			var err error
			c, err = cache.MakeBuilder().
				WithByteSize(256).
				WithBlockSize(16).
				WithAssociativity(2).
				WithStorage(storage).
				WithTraceLogger(log.New(buf, "", 0)).
				Build()
			Expect(err).ToNot(HaveOccurred())

			_, _ = c.Read(0x80)
			_, _ = c.Read(0x80)

			Expect(buf.String()).To(ContainSubstring("miss"))
			Expect(buf.String()).To(ContainSubstring("hit"))
			Expect(buf.String()).To(ContainSubstring("0x80"))
		})
	})

	Context("with a metrics backend", func() {
		var (
			mockCtrl *gomock.Controller
			metrics  *MockMetrics
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			metrics = NewMockMetrics(mockCtrl)

			var err error
			c, err = cache.MakeBuilder().
				WithByteSize(256).
				WithBlockSize(16).
				WithAssociativity(2).
				WithStorage(storage).
				WithMetrics(metrics).
				Build()
			Expect(err).ToNot(HaveOccurred())
		})

		It("should report hits, misses, and evictions", func() {
			metrics.EXPECT().Miss().Times(3)
			metrics.EXPECT().Hit().Times(1)
			metrics.EXPECT().Evict().Times(1)

			_, _ = c.Read(0x00)
			_, _ = c.Read(0x00)
			_, _ = c.Read(0x80)
			_, _ = c.Read(0x100) // evicts a valid line
		})
	})
})

var _ = Describe("Builder", func() {
	It("should reject invalid geometry", func() {
		_, err := cache.MakeBuilder().
			WithByteSize(100).
			WithBlockSize(16).
			Build()

		Expect(err).To(MatchError(cache.ErrInvalidGeometry))
	})

	It("should reject the write-back policy", func() {
		_, err := cache.MakeBuilder().
			WithWritePolicy(cache.WriteBack).
			Build()

		Expect(err).To(MatchError(cache.ErrUnsupportedWritePolicy))
	})

	It("should require a random source for the random policy", func() {
		_, err := cache.MakeBuilder().
			WithReplacementPolicy(cache.Random).
			Build()

		Expect(err).To(MatchError(cache.ErrMissingRandSource))
	})

	It("should build a cache with a default backing storage", func() {
		c, err := cache.MakeBuilder().Build()

		Expect(err).ToNot(HaveOccurred())

		_, err = c.Read(0x1000)
		Expect(err).ToNot(HaveOccurred())
	})
})
