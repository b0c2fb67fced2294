package persons

import "time"

// Batch is an ordered group of persons handed to a sink as one unit.
// Records are ascending by global index.
type Batch struct {
	Sequence    uint64
	Records     []Person
	GeneratedAt time.Time
	WorkerID    int
}

// FirstIndex returns the global index of the first record, or 0 for an empty batch.
func (b Batch) FirstIndex() uint64 {
	if len(b.Records) == 0 {
		return 0
	}

	return b.Records[0].Index
}

// Len returns the number of records in the batch.
func (b Batch) Len() int {
	return len(b.Records)
}
