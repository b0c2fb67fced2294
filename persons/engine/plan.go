package engine

import (
	"time"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

// BatchRange is the contiguous index range of one batch.
type BatchRange struct {
	Sequence   uint64
	FirstIndex uint64
	Count      int
}

// Plan splits a run into batches of contiguous global indexes, numbered in index order.
// Streams additionally pace the batches at a fixed interval.
type Plan struct {
	total     uint64
	unbounded bool
	batchSize uint64
	interval  time.Duration
}

// NewPlan derives the plan of a validated config.
func NewPlan(cfg persons.GenerationConfig) Plan {
	p := Plan{
		total:     cfg.TotalRecords(),
		batchSize: uint64(cfg.BatchSize),
	}

	if cfg.Stream {
		p.unbounded = cfg.StreamLimit == 0
		p.interval = time.Duration(float64(time.Second) / cfg.StreamRate)
	}

	return p
}

// Batch returns the range of the batch with the given sequence number,
// or false if the plan has fewer batches.
func (p Plan) Batch(sequence uint64) (BatchRange, bool) {
	first := sequence * p.batchSize

	if p.unbounded {
		return BatchRange{Sequence: sequence, FirstIndex: first, Count: int(p.batchSize)}, true
	}

	if first >= p.total {
		return BatchRange{}, false
	}

	return BatchRange{Sequence: sequence, FirstIndex: first, Count: int(min(p.batchSize, p.total-first))}, true
}

// Batches returns the number of batches, or 0 for an unbounded stream.
func (p Plan) Batches() uint64 {
	if p.unbounded {
		return 0
	}

	return (p.total + p.batchSize - 1) / p.batchSize
}

// Total returns the number of records, or 0 for an unbounded stream.
func (p Plan) Total() uint64 {
	return p.total
}

// Interval returns the pause between two stream batches, 0 for bulk runs.
func (p Plan) Interval() time.Duration {
	return p.interval
}

// Due returns when the batch with the given sequence number may start.
// Deadlines are computed from the start, so a late tick does not delay later ones.
func (p Plan) Due(start time.Time, sequence uint64) time.Time {
	return start.Add(time.Duration(sequence) * p.interval)
}
