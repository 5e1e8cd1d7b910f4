package cache

import "fmt"

// A ReplacementPolicy selects the rule for choosing the way to evict when a
// miss hits a full set.
type ReplacementPolicy int

// The supported replacement policies.
const (
	LRU ReplacementPolicy = iota
	MRU
	Random
)

func (p ReplacementPolicy) String() string {
	switch p {
	case LRU:
		return "lru"
	case MRU:
		return "mru"
	case Random:
		return "random"
	default:
		return fmt.Sprintf("ReplacementPolicy(%d)", int(p))
	}
}

// usesRecency reports whether the policy requires the per-set MRU queue to be
// maintained on every access.
func (p ReplacementPolicy) usesRecency() bool {
	return p == LRU || p == MRU
}

// ParseReplacementPolicy converts a policy name, as used in configuration and
// on the command line, into a ReplacementPolicy.
func ParseReplacementPolicy(name string) (ReplacementPolicy, error) {
	switch name {
	case "lru":
		return LRU, nil
	case "mru":
		return MRU, nil
	case "random":
		return Random, nil
	default:
		return 0, fmt.Errorf("unknown replacement policy: %s", name)
	}
}

// A WritePolicy selects how writes propagate to the backing storage.
type WritePolicy int

// The recognized write policies. Only WriteThrough is implemented; write-back
// requires dirty-line flushing, which this model does not simulate.
const (
	WriteThrough WritePolicy = iota
	WriteBack
)

func (p WritePolicy) String() string {
	switch p {
	case WriteThrough:
		return "writeThrough"
	case WriteBack:
		return "writeBack"
	default:
		return fmt.Sprintf("WritePolicy(%d)", int(p))
	}
}
