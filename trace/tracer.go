package trace

import (
	"log"

	"github.com/sarchlab/cachesim/datarecording"
)

// An AccessRecord describes the outcome of one access of a replay.
type AccessRecord struct {
	ID      string
	Seq     int
	Op      string
	Address uint64
	SetID   int
	Tag     uint64
	Hit     bool
}

// A Tracer records the per-access outcomes of a replay.
type Tracer interface {
	RecordAccess(record AccessRecord)
}

// A logTracer writes one line per access to a logger.
type logTracer struct {
	logger *log.Logger
}

// NewLogTracer creates a tracer that logs every access.
func NewLogTracer(logger *log.Logger) Tracer {
	return &logTracer{logger: logger}
}

func (t *logTracer) RecordAccess(record AccessRecord) {
	outcome := "miss"
	if record.Hit {
		outcome = "hit"
	}

	t.logger.Printf("%s, %s, set %3d, 0x%x\n",
		record.Op, outcome, record.SetID, record.Address)
}

// accessTableName is the table the DB tracer writes into.
const accessTableName = "cache_access"

// A dbTracer records every access into a database through a data recorder.
type dbTracer struct {
	recorder datarecording.DataRecorder
}

// NewDBTracer creates a tracer that writes access records through the given
// data recorder. It creates the cache_access table.
func NewDBTracer(recorder datarecording.DataRecorder) Tracer {
	recorder.CreateTable(accessTableName, AccessRecord{})

	return &dbTracer{recorder: recorder}
}

func (t *dbTracer) RecordAccess(record AccessRecord) {
	t.recorder.InsertData(accessTableName, record)
}
