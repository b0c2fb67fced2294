package persons_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

func Test_NewGenerationConfig_When_NoOptionsAreGiven_ItUsesDefaults(t *testing.T) {
	// act
	cfg, err := persons.NewGenerationConfig()

	// assert
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), cfg.RecordCount)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 1000, cfg.BatchSize)
	assert.Equal(t, uint64(1), cfg.Seed)
	assert.Equal(t, persons.ProfileStandard, cfg.Quality.Name)
	assert.Equal(t, persons.DefaultReferenceDate, cfg.ReferenceDate)
	assert.True(t, cfg.Features.FinancialCorrelation)
	assert.Equal(t, persons.Range{Min: 1, Max: 3}, cfg.AddressesPerPerson)
	assert.False(t, cfg.SkipFailedBatches)
	assert.Equal(t, uint64(1000), cfg.TotalRecords())
}

func Test_NewGenerationConfig_When_OptionsAreGiven_ItAppliesThem(t *testing.T) {
	// arrange
	geo := map[string]float64{"TX": 3, "CA": 1}

	// act
	cfg, err := persons.NewGenerationConfig(
		persons.WithRecordCount(50),
		persons.WithWorkers(2),
		persons.WithBatchSize(10),
		persons.WithSeed(42),
		persons.WithQualityProfileName(persons.ProfilePoor),
		persons.WithGeographicDistribution(geo),
		persons.WithReferenceDate(time.Date(2024, time.March, 3, 17, 45, 0, 0, time.UTC)),
		persons.WithSkipFailedBatches(),
	)
	geo["TX"] = 0

	// assert
	require.NoError(t, err)
	assert.Equal(t, uint64(50), cfg.RecordCount)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, persons.ProfilePoor, cfg.Quality.Name)
	assert.Equal(t, 3.0, cfg.GeographicDistribution["TX"])
	assert.Equal(t, time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC), cfg.ReferenceDate)
	assert.True(t, cfg.SkipFailedBatches)
}

func Test_NewGenerationConfig_When_Streaming_TheTotalIsTheLimit(t *testing.T) {
	cfg, err := persons.NewGenerationConfig(persons.WithStream(5), persons.WithStreamLimit(300))

	require.NoError(t, err)
	assert.True(t, cfg.Stream)
	assert.Equal(t, uint64(300), cfg.TotalRecords())
}

func Test_NewGenerationConfig_When_AnOptionIsInvalid_ItReturnsAConfigError(t *testing.T) {
	testCases := []struct {
		name   string
		option persons.ConfigOption
		want   error
	}{
		{"zero workers", persons.WithWorkers(0), persons.ErrInvalidWorkerCount},
		{"zero batch size", persons.WithBatchSize(0), persons.ErrInvalidBatchSize},
		{"non-positive stream rate", persons.WithStream(0), persons.ErrInvalidStreamRate},
		{"zero in-flight cap", persons.WithMaxInFlightBatches(0), persons.ErrInvalidInFlightCap},
		{"negative deadline", persons.WithRunDeadline(-time.Second), persons.ErrNegativeDuration},
		{"unknown profile", persons.WithQualityProfileName("sparkling"), persons.ErrUnknownQualityProfile},
		{"rate above one", persons.WithQualityProfile(persons.DataQualityProfile{TypoRate: 1.5}), persons.ErrRateOutOfRange},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := persons.NewGenerationConfig(tc.option)

			// assert
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, persons.ErrInvalidConfig)
			assert.True(t, persons.IsKind(err, persons.KindConfig))
		})
	}
}

func Test_Validate_When_SeveralFieldsAreInvalid_ItCollectsAllViolations(t *testing.T) {
	// arrange
	cfg, err := persons.NewGenerationConfig()
	require.NoError(t, err)
	cfg.Workers = 0
	cfg.PhonesPerPerson = persons.Range{Min: 3, Max: 1}
	cfg.IndustryDistribution = map[string]float64{"Retail": -1}

	// act
	err = cfg.Validate()

	// assert
	assert.ErrorIs(t, err, persons.ErrInvalidWorkerCount)
	assert.ErrorIs(t, err, persons.ErrInvalidRange)
	assert.ErrorIs(t, err, persons.ErrNegativeWeight)
	assert.Equal(t, persons.KindConfig, persons.KindOf(err))
}

func Test_Validate_When_DuplicatesHaveNoWindow_ItFails(t *testing.T) {
	_, err := persons.NewGenerationConfig(
		persons.WithQualityProfileName(persons.ProfileExtreme),
		persons.WithDuplicateWindow(0),
	)

	assert.ErrorIs(t, err, persons.ErrInvalidDuplicateWindow)
}

func Test_Validate_When_JobCountMayBeZero_ItPasses(t *testing.T) {
	_, err := persons.NewGenerationConfig(persons.WithJobsPerPerson(0, 0))

	assert.NoError(t, err)
}

func Test_ProfileByName_When_NameIsAPreset_ItReturnsThePreset(t *testing.T) {
	for _, name := range persons.ProfileNames() {
		p, err := persons.ProfileByName(name)

		require.NoError(t, err)
		assert.Equal(t, name, p.Name)
		assert.NoError(t, p.Validate())
	}

	clean, _ := persons.ProfileByName(persons.ProfileClean)
	assert.True(t, clean.IsClean())
}

func Test_OpError_When_KindsDiffer_IsKindClassifiesThem(t *testing.T) {
	// arrange
	cause := errors.New("connection reset by peer")
	transient := persons.NewOpError("write batch", persons.KindSinkTransient, cause)
	generation := persons.NewGenerationError("generate record", 17, errors.New("no primary address"))

	// assert
	assert.ErrorIs(t, transient, cause)
	assert.ErrorIs(t, transient, persons.ErrSinkTransient)
	assert.True(t, persons.IsKind(transient, persons.KindSinkTransient))
	assert.False(t, persons.IsKind(transient, persons.KindSinkFatal))

	assert.ErrorIs(t, generation, persons.ErrGeneration)
	assert.Equal(t, persons.KindGeneration, persons.KindOf(generation))
	assert.Contains(t, generation.Error(), "index=17")
	assert.NotContains(t, transient.Error(), "index=")
}

func Test_KindOf_When_OnlyASentinelIsWrapped_ItUsesTheSentinel(t *testing.T) {
	err := errors.Join(persons.ErrSinkFatal, errors.New("duplicate key"))

	assert.Equal(t, persons.KindSinkFatal, persons.KindOf(err))
	assert.True(t, persons.IsKind(err, persons.KindSinkFatal))
	assert.Equal(t, persons.ErrorKind(""), persons.KindOf(errors.New("plain")))
}
