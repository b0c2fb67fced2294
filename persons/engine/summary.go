package engine

import (
	"time"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

// Progress is emitted whenever a batch leaves the pipeline, written or skipped.
// Consumers must tolerate irregular intervals and dropped events.
type Progress struct {
	BatchesCompleted   uint64
	RecordsCompleted   uint64
	Elapsed            time.Duration
	EstimatedRemaining time.Duration
	CurrentRate        float64
	Status             State
}

// Summary reports the outcome of a run. Batches written before a failure stay written.
type Summary struct {
	RecordsGenerated uint64
	RecordsWritten   uint64
	BatchesWritten   uint64
	BatchesFailed    uint64
	BatchesSkipped   uint64

	Defects    map[persons.DefectKind]uint64
	Duplicates uint64

	PeakResidentRecords int64
	Duration            time.Duration

	// FirstError is the first sink or generation error, skipped batches included.
	FirstError error
	Cancelled  bool
	Failed     bool
	State      State
}

func (s *Summary) countDefects(batch persons.Batch) {
	for i := range batch.Records {
		for _, d := range batch.Records[i].Defects {
			s.Defects[d.Kind]++
			if d.Kind == persons.DefectDuplicate {
				s.Duplicates++
			}
		}
	}
}
