package trace

import (
	"github.com/rs/xid"

	"github.com/sarchlab/cachesim/cache"
)

// A Summary aggregates the outcome of one replay.
type Summary struct {
	Accesses int
	Reads    uint64
	Writes   uint64
	Misses   uint64
	HitRate  float64
}

// A Driver replays an address trace against a cache. The driver owns the
// cache for the duration of the replay.
type Driver struct {
	cache   *cache.Cache
	tracers []Tracer
}

// NewDriver creates a driver that feeds accesses into the given cache.
func NewDriver(c *cache.Cache) *Driver {
	return &Driver{cache: c}
}

// AttachTracer registers a tracer to be notified of every access.
func (d *Driver) AttachTracer(t Tracer) {
	d.tracers = append(d.tracers, t)
}

// Run replays the accesses in order and returns a summary. Replay stops at
// the first access the cache rejects.
func (d *Driver) Run(accesses []Access) (Summary, error) {
	summary := Summary{Accesses: len(accesses)}

	for i, access := range accesses {
		hit, err := d.replayOne(access)
		if err != nil {
			return summary, err
		}

		d.recordAccess(i, access, hit)
	}

	summary.Reads = d.cache.AccessCount()
	summary.Writes = d.cache.WriteCount()
	summary.Misses = d.cache.MissCount()
	summary.HitRate = d.cache.HitRate()

	return summary, nil
}

func (d *Driver) replayOne(access Access) (hit bool, err error) {
	switch access.Op {
	case OpWrite:
		hit = d.cache.Contains(access.Address)
		err = d.cache.Write(access.Address, access.Value)
	default:
		missesBefore := d.cache.MissCount()
		_, err = d.cache.Read(access.Address)
		hit = d.cache.MissCount() == missesBefore
	}

	return hit, err
}

func (d *Driver) recordAccess(seq int, access Access, hit bool) {
	if len(d.tracers) == 0 {
		return
	}

	tag, setID, _ := d.cache.Geometry().Decompose(access.Address)

	record := AccessRecord{
		ID:      xid.New().String(),
		Seq:     seq,
		Op:      access.Op.String(),
		Address: access.Address,
		SetID:   setID,
		Tag:     tag,
		Hit:     hit,
	}

	for _, t := range d.tracers {
		t.RecordAccess(record)
	}
}
