package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/cache"
)

func fillSet(set *cache.Set) {
	for wayID := range set.Blocks {
		set.Blocks[wayID].IsValid = true
	}
}

var _ = Describe("LRUVictimFinder", func() {
	var (
		set    *cache.Set
		finder *cache.LRUVictimFinder
	)

	BeforeEach(func() {
		set = makeTestSet(3)
		finder = cache.NewLRUVictimFinder()
	})

	It("should prefer the first invalid way and promote it", func() {
		set.Blocks[0].IsValid = true

		Expect(finder.FindVictim(set)).To(Equal(1))
		Expect(set.MRUQueue).To(Equal([]int{1, 0, 2}))
	})

	It("should evict the least recently used way of a full set", func() {
		fillSet(set)
		set.MRUQueue = []int{2, 0, 1}

		Expect(finder.FindVictim(set)).To(Equal(1))
		Expect(set.MRUQueue).To(Equal([]int{1, 2, 0}))
	})
})

var _ = Describe("MRUVictimFinder", func() {
	var (
		set    *cache.Set
		finder *cache.MRUVictimFinder
	)

	BeforeEach(func() {
		set = makeTestSet(3)
		finder = cache.NewMRUVictimFinder()
	})

	It("should prefer the first invalid way and promote it", func() {
		set.Blocks[0].IsValid = true

		Expect(finder.FindVictim(set)).To(Equal(1))
		Expect(set.MRUQueue).To(Equal([]int{1, 0, 2}))
	})

	It("should evict the most recently used way of a full set", func() {
		fillSet(set)
		set.MRUQueue = []int{2, 0, 1}

		Expect(finder.FindVictim(set)).To(Equal(2))
		Expect(set.MRUQueue).To(Equal([]int{2, 0, 1}))
	})
})

var _ = Describe("RandomVictimFinder", func() {
	var set *cache.Set

	BeforeEach(func() {
		set = makeTestSet(3)
	})

	It("should prefer the first invalid way without touching the queue", func() {
		set.Blocks[0].IsValid = true
		finder := cache.NewRandomVictimFinder(func() int { return 7 })

		Expect(finder.FindVictim(set)).To(Equal(1))
		Expect(set.MRUQueue).To(Equal([]int{0, 1, 2}))
	})

	It("should evict source() modulo associativity on a full set", func() {
		fillSet(set)
		finder := cache.NewRandomVictimFinder(func() int { return 7 })

		Expect(finder.FindVictim(set)).To(Equal(1))
		Expect(set.MRUQueue).To(Equal([]int{0, 1, 2}))
	})

	It("should not consult the source while invalid ways remain", func() {
		called := false
		finder := cache.NewRandomVictimFinder(func() int {
			called = true
			return 0
		})

		finder.FindVictim(set)

		Expect(called).To(BeFalse())
	})
})
