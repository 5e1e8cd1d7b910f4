package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/cache"
)

var _ = Describe("Geometry", func() {
	It("should derive masks and shifts", func() {
		g, err := cache.MakeGeometry(256, 16, 2)

		Expect(err).ToNot(HaveOccurred())
		Expect(g.NumLines).To(Equal(16))
		Expect(g.NumSets).To(Equal(8))
		Expect(g.OffsetBits).To(Equal(uint(4)))
		Expect(g.OffsetMask).To(Equal(uint64(0xf)))
		Expect(g.IndexBits).To(Equal(uint(3)))
		Expect(g.IndexMask).To(Equal(uint64(0x70)))
		Expect(g.TagShift).To(Equal(uint(7)))
		Expect(g.TagMask).To(Equal(^uint64(0x7f)))
	})

	It("should keep num_sets * associativity == num_lines", func() {
		g, err := cache.MakeGeometry(64*1024, 64, 8)

		Expect(err).ToNot(HaveOccurred())
		Expect(g.NumSets * g.Associativity).To(Equal(g.NumLines))
		Expect(uint64(g.NumLines) * g.BlockSize).To(Equal(g.ByteSize))
	})

	It("should decompose addresses losslessly", func() {
		g, err := cache.MakeGeometry(256, 16, 2)
		Expect(err).ToNot(HaveOccurred())

		for _, addr := range []uint64{0x0, 0x3, 0x80, 0x12345678, ^uint64(0)} {
			tag, setID, offset := g.Decompose(addr)

			Expect(offset).To(BeNumerically("<", g.BlockSize))
			Expect(setID).To(BeNumerically("<", g.NumSets))
			Expect(tag<<g.TagShift | uint64(setID)<<g.OffsetBits | offset).
				To(Equal(addr))
		}
	})

	It("should compute line-aligned addresses", func() {
		g, _ := cache.MakeGeometry(256, 16, 2)

		Expect(g.LineAddr(0x12345678)).To(Equal(uint64(0x12345670)))
		Expect(g.LineAddr(0x10)).To(Equal(uint64(0x10)))
	})

	DescribeTable("should reject invalid geometry",
		func(byteSize, blockSize uint64, associativity int) {
			_, err := cache.MakeGeometry(byteSize, blockSize, associativity)
			Expect(err).To(MatchError(cache.ErrInvalidGeometry))
		},
		Entry("block size not a power of two", uint64(256), uint64(24), 2),
		Entry("block size below the access width", uint64(256), uint64(2), 2),
		Entry("byte size not a multiple of block size", uint64(100), uint64(16), 2),
		Entry("associativity below one", uint64(256), uint64(16), 0),
		Entry("lines not divisible into sets", uint64(256), uint64(16), 3),
		Entry("number of sets not a power of two", uint64(96), uint64(16), 1),
	)
})
