package persons

import (
	"errors"
	"fmt"
	"maps"
	"time"
)

const (
	defaultRecordCount        = 1000
	defaultWorkers            = 4
	defaultBatchSize          = 1000
	defaultSeed               = 1
	defaultMaxInFlightBatches = 8
	defaultDuplicateWindow    = 256
	defaultDrainTimeout       = 30 * time.Second
)

// DefaultReferenceDate is the "today" all ages and date ranges are computed against.
// It is fixed so that two runs with the same seed produce identical output.
var DefaultReferenceDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	// ErrInvalidWorkerCount is returned when the worker count is not positive.
	ErrInvalidWorkerCount = errors.New("worker count must be at least 1")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")

	// ErrInvalidStreamRate is returned when streaming is enabled without a positive rate.
	ErrInvalidStreamRate = errors.New("stream rate must be positive")

	// ErrInvalidRange is returned when a per-person child range is inverted or negative.
	ErrInvalidRange = errors.New("invalid per-person range")

	// ErrInvalidInFlightCap is returned when the in-flight batch cap is not positive.
	ErrInvalidInFlightCap = errors.New("max in-flight batches must be at least 1")

	// ErrInvalidDuplicateWindow is returned when duplicates are requested without a window.
	ErrInvalidDuplicateWindow = errors.New("duplicate window must be at least 1 when duplicate rate is positive")

	// ErrNegativeWeight is returned when a distribution contains a negative weight.
	ErrNegativeWeight = errors.New("distribution weights must not be negative")

	// ErrNegativeDuration is returned when a deadline or timeout is negative.
	ErrNegativeDuration = errors.New("duration must not be negative")
)

// Range is an inclusive integer range.
type Range struct {
	Min int
	Max int
}

// Features toggles the optional realism models.
type Features struct {
	Relationships        bool
	TemporalPatterns     bool
	GeographicClustering bool
	FinancialCorrelation bool
}

// GenerationConfig is the fully resolved, immutable configuration of one run.
// The pipeline only reads it. Build it with NewGenerationConfig.
type GenerationConfig struct {
	RecordCount uint64

	// Stream switches to streaming mode: one batch per tick at StreamRate batches per second.
	// StreamLimit caps the records of a stream, 0 means unbounded.
	Stream      bool
	StreamRate  float64
	StreamLimit uint64

	Workers       int
	BatchSize     int
	Seed          uint64
	ReferenceDate time.Time

	Quality  DataQualityProfile
	Features Features

	AddressesPerPerson Range
	PhonesPerPerson    Range
	EmailsPerPerson    Range
	JobsPerPerson      Range

	// GeographicDistribution weights states, IndustryDistribution weights industries.
	// Empty maps mean population-based defaults from the reference data.
	GeographicDistribution map[string]float64
	IndustryDistribution   map[string]float64

	MaxInFlightBatches int
	DuplicateWindow    int
	RunDeadline        time.Duration
	DrainTimeout       time.Duration

	// SkipFailedBatches lets a run continue past batches whose sink retries are exhausted.
	// Skipped batches are reported in the run summary.
	SkipFailedBatches bool
}

// ConfigOption defines a functional option for building a GenerationConfig.
type ConfigOption func(*GenerationConfig) error

// NewGenerationConfig applies the options over the defaults and validates the result.
func NewGenerationConfig(options ...ConfigOption) (GenerationConfig, error) {
	cfg := GenerationConfig{
		RecordCount:        defaultRecordCount,
		Workers:            defaultWorkers,
		BatchSize:          defaultBatchSize,
		Seed:               defaultSeed,
		ReferenceDate:      DefaultReferenceDate,
		Quality:            qualityPresets[ProfileStandard],
		Features:           Features{Relationships: true, TemporalPatterns: true, GeographicClustering: true, FinancialCorrelation: true},
		AddressesPerPerson: Range{Min: 1, Max: 3},
		PhonesPerPerson:    Range{Min: 1, Max: 2},
		EmailsPerPerson:    Range{Min: 1, Max: 2},
		JobsPerPerson:      Range{Min: 1, Max: 5},
		MaxInFlightBatches: defaultMaxInFlightBatches,
		DuplicateWindow:    defaultDuplicateWindow,
		DrainTimeout:       defaultDrainTimeout,
	}

	for _, option := range options {
		if err := option(&cfg); err != nil {
			return GenerationConfig{}, NewOpError("build generation config", KindConfig, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return GenerationConfig{}, err
	}

	return cfg, nil
}

// Validate checks the config. Errors are ConfigErrors.
func (c GenerationConfig) Validate() error {
	var errs []error

	if c.Workers < 1 {
		errs = append(errs, ErrInvalidWorkerCount)
	}

	if c.BatchSize < 1 {
		errs = append(errs, ErrInvalidBatchSize)
	}

	if c.Stream && c.StreamRate <= 0 {
		errs = append(errs, ErrInvalidStreamRate)
	}

	if c.MaxInFlightBatches < 1 {
		errs = append(errs, ErrInvalidInFlightCap)
	}

	if c.Quality.DuplicateRate > 0 && c.DuplicateWindow < 1 {
		errs = append(errs, ErrInvalidDuplicateWindow)
	}

	if c.RunDeadline < 0 || c.DrainTimeout < 0 {
		errs = append(errs, ErrNegativeDuration)
	}

	if err := c.Quality.Validate(); err != nil {
		errs = append(errs, err)
	}

	ranges := []struct {
		name   string
		r      Range
		minMin int
	}{
		{"addresses", c.AddressesPerPerson, 1},
		{"phones", c.PhonesPerPerson, 1},
		{"emails", c.EmailsPerPerson, 1},
		{"jobs", c.JobsPerPerson, 0},
	}
	for _, r := range ranges {
		if r.r.Min < r.minMin || r.r.Max < r.r.Min {
			errs = append(errs, errors.Join(ErrInvalidRange, fmt.Errorf("%s=[%d,%d]", r.name, r.r.Min, r.r.Max)))
		}
	}

	for _, dist := range []map[string]float64{c.GeographicDistribution, c.IndustryDistribution} {
		for key, w := range dist {
			if w < 0 {
				errs = append(errs, errors.Join(ErrNegativeWeight, fmt.Errorf("%s=%v", key, w)))
			}
		}
	}

	if len(errs) > 0 {
		return NewOpError("validate generation config", KindConfig, errors.Join(errs...))
	}

	return nil
}

// TotalRecords returns the number of records the run will produce, or 0 for an unbounded stream.
func (c GenerationConfig) TotalRecords() uint64 {
	if c.Stream {
		return c.StreamLimit
	}

	return c.RecordCount
}

// WithRecordCount sets the number of records of a bulk run.
func WithRecordCount(count uint64) ConfigOption {
	return func(c *GenerationConfig) error {
		c.RecordCount = count
		return nil
	}
}

// WithStream switches to streaming mode at the given number of batches per second.
func WithStream(batchesPerSecond float64) ConfigOption {
	return func(c *GenerationConfig) error {
		if batchesPerSecond <= 0 {
			return ErrInvalidStreamRate
		}

		c.Stream = true
		c.StreamRate = batchesPerSecond

		return nil
	}
}

// WithStreamLimit caps the number of records a stream produces.
func WithStreamLimit(records uint64) ConfigOption {
	return func(c *GenerationConfig) error {
		c.StreamLimit = records
		return nil
	}
}

// WithWorkers sets the size of the bulk worker pool.
func WithWorkers(workers int) ConfigOption {
	return func(c *GenerationConfig) error {
		if workers < 1 {
			return ErrInvalidWorkerCount
		}

		c.Workers = workers

		return nil
	}
}

// WithBatchSize sets the number of records per generated batch.
func WithBatchSize(size int) ConfigOption {
	return func(c *GenerationConfig) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}

		c.BatchSize = size

		return nil
	}
}

// WithSeed sets the base seed all per-record seeds are derived from.
func WithSeed(seed uint64) ConfigOption {
	return func(c *GenerationConfig) error {
		c.Seed = seed
		return nil
	}
}

// WithReferenceDate sets the date ages and date ranges are computed against.
func WithReferenceDate(t time.Time) ConfigOption {
	return func(c *GenerationConfig) error {
		y, m, d := t.Date()
		c.ReferenceDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

		return nil
	}
}

// WithQualityProfile sets explicit defect rates.
func WithQualityProfile(profile DataQualityProfile) ConfigOption {
	return func(c *GenerationConfig) error {
		if err := profile.Validate(); err != nil {
			return err
		}

		if profile.Name == "" {
			profile.Name = ProfileCustom
		}

		c.Quality = profile

		return nil
	}
}

// WithQualityProfileName selects a preset by name.
func WithQualityProfileName(name string) ConfigOption {
	return func(c *GenerationConfig) error {
		profile, err := ProfileByName(name)
		if err != nil {
			return err
		}

		c.Quality = profile

		return nil
	}
}

// WithFeatures sets all feature toggles at once.
func WithFeatures(features Features) ConfigOption {
	return func(c *GenerationConfig) error {
		c.Features = features
		return nil
	}
}

// WithAddressesPerPerson sets the inclusive range of addresses per person.
func WithAddressesPerPerson(minCount, maxCount int) ConfigOption {
	return func(c *GenerationConfig) error {
		c.AddressesPerPerson = Range{Min: minCount, Max: maxCount}
		return nil
	}
}

// WithPhonesPerPerson sets the inclusive range of phone numbers per person.
func WithPhonesPerPerson(minCount, maxCount int) ConfigOption {
	return func(c *GenerationConfig) error {
		c.PhonesPerPerson = Range{Min: minCount, Max: maxCount}
		return nil
	}
}

// WithEmailsPerPerson sets the inclusive range of email addresses per person.
func WithEmailsPerPerson(minCount, maxCount int) ConfigOption {
	return func(c *GenerationConfig) error {
		c.EmailsPerPerson = Range{Min: minCount, Max: maxCount}
		return nil
	}
}

// WithJobsPerPerson sets the inclusive range of employment records per person.
func WithJobsPerPerson(minCount, maxCount int) ConfigOption {
	return func(c *GenerationConfig) error {
		c.JobsPerPerson = Range{Min: minCount, Max: maxCount}
		return nil
	}
}

// WithGeographicDistribution weights states for address generation.
func WithGeographicDistribution(weights map[string]float64) ConfigOption {
	return func(c *GenerationConfig) error {
		c.GeographicDistribution = maps.Clone(weights)
		return nil
	}
}

// WithIndustryDistribution weights industries for employment generation.
func WithIndustryDistribution(weights map[string]float64) ConfigOption {
	return func(c *GenerationConfig) error {
		c.IndustryDistribution = maps.Clone(weights)
		return nil
	}
}

// WithMaxInFlightBatches caps the generated-but-unwritten batches.
func WithMaxInFlightBatches(maxBatches int) ConfigOption {
	return func(c *GenerationConfig) error {
		if maxBatches < 1 {
			return ErrInvalidInFlightCap
		}

		c.MaxInFlightBatches = maxBatches

		return nil
	}
}

// WithDuplicateWindow sets the number of recent records near-duplicates are drawn from.
func WithDuplicateWindow(size int) ConfigOption {
	return func(c *GenerationConfig) error {
		c.DuplicateWindow = size
		return nil
	}
}

// WithRunDeadline bounds the whole run. It is checked at batch boundaries.
func WithRunDeadline(d time.Duration) ConfigOption {
	return func(c *GenerationConfig) error {
		if d < 0 {
			return ErrNegativeDuration
		}

		c.RunDeadline = d

		return nil
	}
}

// WithDrainTimeout bounds the wait for in-flight batches after a stop signal.
func WithDrainTimeout(d time.Duration) ConfigOption {
	return func(c *GenerationConfig) error {
		if d < 0 {
			return ErrNegativeDuration
		}

		c.DrainTimeout = d

		return nil
	}
}

// WithSkipFailedBatches continues the run when a batch cannot be written after all retries.
func WithSkipFailedBatches() ConfigOption {
	return func(c *GenerationConfig) error {
		c.SkipFailedBatches = true
		return nil
	}
}
