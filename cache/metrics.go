package cache

// Metrics receives hit, miss, and eviction notifications from a cache. It is
// the integration point for observability backends; the cache itself only
// keeps plain counters.
type Metrics interface {
	Hit()
	Miss()
	Evict()
}

// NoopMetrics is a drop-in Metrics implementation that does nothing. It is
// the default when no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()   {}
func (NoopMetrics) Miss()  {}
func (NoopMetrics) Evict() {}

var _ Metrics = NoopMetrics{}
