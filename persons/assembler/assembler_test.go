package assembler_test

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/assembler"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/seed"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/variability"
)

func newAssembler(t *testing.T, options ...persons.ConfigOption) *assembler.Assembler {
	t.Helper()

	cfg, err := persons.NewGenerationConfig(append([]persons.ConfigOption{persons.WithSeed(42)}, options...)...)
	require.NoError(t, err)

	a, err := assembler.New(cfg)
	require.NoError(t, err)

	return a
}

type mapCache struct {
	mu      sync.Mutex
	records map[uint64]persons.Person
	hits    int
}

func (c *mapCache) Get(index uint64) (persons.Person, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.records[index]
	if ok {
		c.hits++
	}

	return p, ok
}

func (c *mapCache) Put(p persons.Person) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records[p.Index] = p
}

func Test_Assemble_When_IndexIsEqual_RecordsAreEqual(t *testing.T) {
	// arrange
	a := newAssembler(t, persons.WithQualityProfileName(persons.ProfileExtreme))
	b := newAssembler(t, persons.WithQualityProfileName(persons.ProfileExtreme))

	// act / assert
	for _, index := range []uint64{99, 3, 0, 57, 12, 12} {
		first, err := a.Assemble(index)
		require.NoError(t, err)

		second, err := b.Assemble(index)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, seed.PersonID(42, index), first.ID)
		assert.Equal(t, index, first.Index)
	}
}

func Test_Assemble_When_SeedDiffers_RecordsDiffer(t *testing.T) {
	a := newAssembler(t)
	b := newAssembler(t, persons.WithSeed(43))

	pa, err := a.Assemble(5)
	require.NoError(t, err)
	pb, err := b.Assemble(5)
	require.NoError(t, err)

	assert.NotEqual(t, pa.ID, pb.ID)
	assert.NotEqual(t, pa.SSN, pb.SSN)
}

func Test_AssembleClean_When_ProfileIsExtreme_ItCarriesNoDefects(t *testing.T) {
	a := newAssembler(t, persons.WithQualityProfileName(persons.ProfileExtreme))

	for i := uint64(0); i < 200; i++ {
		p, err := a.AssembleClean(i)
		require.NoError(t, err)

		assert.Empty(t, p.Defects)
		assert.NotNil(t, p.SSN)
		assert.False(t, p.DateOfBirth.IsVaried())
	}
}

func Test_Assemble_When_ProfileIsClean_ItEqualsTheCleanRecord(t *testing.T) {
	a := newAssembler(t, persons.WithQualityProfileName(persons.ProfileClean))

	for i := uint64(0); i < 50; i++ {
		final, err := a.Assemble(i)
		require.NoError(t, err)
		clean, err := a.AssembleClean(i)
		require.NoError(t, err)

		assert.Equal(t, clean, final)
	}
}

func Test_Household_When_Planned_BlocksHaveOneHead(t *testing.T) {
	// arrange
	a := newAssembler(t)
	sizes := map[int]int{}

	for block := uint64(0); block < 500; block++ {
		start := block * assembler.HouseholdBlock

		// act
		plan := a.Household(start + 2)

		// assert
		assert.Equal(t, start, plan.HeadIndex)
		assert.GreaterOrEqual(t, plan.Size, 1)
		assert.LessOrEqual(t, plan.Size, assembler.HouseholdBlock)
		assert.Len(t, plan.Roles, plan.Size-1)
		if plan.Size > 1 {
			assert.NotEqual(t, persons.RoleChild, plan.Roles[0])
		}
		sizes[plan.Size]++
	}

	assert.Greater(t, sizes[1], 0)
	assert.Greater(t, sizes[2], sizes[3])
}

func Test_Assemble_When_RelationshipsAreOn_MembersLinkToTheHead(t *testing.T) {
	a := newAssembler(t, persons.WithQualityProfileName(persons.ProfileClean))
	members := 0

	for block := uint64(0); block < 100; block++ {
		start := block * assembler.HouseholdBlock
		plan := a.Household(start)

		head, err := a.Assemble(start)
		require.NoError(t, err)

		if plan.Size == 1 {
			assert.Nil(t, head.Household)
			continue
		}

		require.NotNil(t, head.Household)
		assert.Equal(t, persons.RoleHead, head.Household.Role)
		assert.Equal(t, head.ID, head.Household.HeadID)
		headAddress, ok := head.PrimaryAddress()
		require.True(t, ok)

		for slot := 1; slot < assembler.HouseholdBlock; slot++ {
			p, err := a.Assemble(start + uint64(slot))
			require.NoError(t, err)

			if slot >= plan.Size {
				assert.Nil(t, p.Household)
				continue
			}

			members++
			require.NotNil(t, p.Household)
			assert.Equal(t, head.Household.ID, p.Household.ID)
			assert.Equal(t, head.ID, p.Household.HeadID)
			assert.NotEqual(t, persons.RoleHead, p.Household.Role)

			address, ok := p.PrimaryAddress()
			require.True(t, ok)
			assert.Equal(t, headAddress.Street1, address.Street1)
			assert.Equal(t, headAddress.Zip, address.Zip)
			assert.NotEqual(t, headAddress.ID, address.ID)

			if p.Household.Role == persons.RoleChild {
				assert.Equal(t, head.LastName, p.LastName)
				assert.Greater(t, p.DateOfBirth.Time.Year(), head.DateOfBirth.Time.Year(), "child must be younger")
			}
		}
	}

	assert.Greater(t, members, 50)
}

func Test_Assemble_When_RelationshipsAreOff_ThereAreNoHouseholds(t *testing.T) {
	a := newAssembler(t, persons.WithFeatures(persons.Features{TemporalPatterns: true, FinancialCorrelation: true}))

	for i := uint64(0); i < 40; i++ {
		p, err := a.Assemble(i)
		require.NoError(t, err)
		assert.Nil(t, p.Household)
	}
}

func Test_DuplicateSource_When_SlotsAreDuplicates_SourcesStayInsideTheWindow(t *testing.T) {
	// arrange
	a := newAssembler(t,
		persons.WithQualityProfile(persons.DataQualityProfile{Name: "dups", DuplicateRate: 0.2}),
		persons.WithDuplicateWindow(16),
	)
	duplicates := 0

	// act
	for i := uint64(0); i < 5_000; i++ {
		src, ok := a.DuplicateSource(i)
		if !ok {
			continue
		}

		// assert
		duplicates++
		assert.Less(t, src, i)
		assert.LessOrEqual(t, i-src, uint64(16))
	}

	assert.InDelta(t, 1_000, duplicates, 150)

	_, ok := a.DuplicateSource(0)
	assert.False(t, ok)
}

func Test_DuplicateSource_When_ProfileIsExtreme_EverySourceIsEmittedAsItself(t *testing.T) {
	// arrange
	a := newAssembler(t, persons.WithQualityProfileName(persons.ProfileExtreme))
	duplicates := 0

	// act
	for i := uint64(0); i < 20_000; i++ {
		src, ok := a.DuplicateSource(i)
		if !ok {
			continue
		}
		duplicates++

		// assert
		_, sourceIsDuplicate := a.DuplicateSource(src)
		assert.False(t, sourceIsDuplicate, "slot %d duplicates slot %d, which is a duplicate itself", i, src)
	}

	assert.Greater(t, duplicates, 500)
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sx, sy, sxx, syy, sxy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		syy += ys[i] * ys[i]
		sxy += xs[i] * ys[i]
	}

	return (n*sxy - sx*sy) / math.Sqrt((n*sxx-sx*sx)*(n*syy-sy*sy))
}

func incomeAndScore(t *testing.T, assemble func(uint64) (persons.Person, error), count uint64) ([]float64, []float64) {
	t.Helper()

	incomes := make([]float64, 0, count)
	scores := make([]float64, 0, count)
	for i := uint64(0); i < count; i++ {
		p, err := assemble(i)
		require.NoError(t, err)
		if p.Financial == nil {
			continue
		}

		incomes = append(incomes, p.Financial.AnnualIncome)
		scores = append(scores, float64(p.Financial.CreditScore))
	}

	return incomes, scores
}

func Test_Assemble_When_ProfileIsClean_IncomeAndCreditScoreCorrelate(t *testing.T) {
	// arrange
	a := newAssembler(t, persons.WithQualityProfileName(persons.ProfileClean))

	// act
	incomes, scores := incomeAndScore(t, a.Assemble, 10_000)

	// assert
	assert.Greater(t, len(incomes), 9_000)
	assert.Greater(t, pearson(incomes, scores), 0.3)
}

func Test_AssembleClean_When_ProfileIsStandard_IncomeAndCreditScoreCorrelateBeforeOutliers(t *testing.T) {
	// arrange
	a := newAssembler(t, persons.WithQualityProfileName(persons.ProfileStandard))

	// act
	incomes, scores := incomeAndScore(t, a.AssembleClean, 10_000)

	// assert
	assert.Greater(t, pearson(incomes, scores), 0.3)
}

func Test_Assemble_When_SlotIsADuplicate_ItIsAPerturbedCopyOfTheSource(t *testing.T) {
	// arrange
	cache := &mapCache{records: map[uint64]persons.Person{}}
	cfg, err := persons.NewGenerationConfig(
		persons.WithSeed(7),
		persons.WithQualityProfile(persons.DataQualityProfile{Name: "dups", DuplicateRate: 0.3}),
		persons.WithDuplicateWindow(8),
	)
	require.NoError(t, err)

	withCache, err := assembler.New(cfg, assembler.WithSourceCache(cache))
	require.NoError(t, err)
	withoutCache, err := assembler.New(cfg)
	require.NoError(t, err)

	checked := 0
	for i := uint64(0); i < 300; i++ {
		// act
		cached, err := withCache.Assemble(i)
		require.NoError(t, err)
		regenerated, err := withoutCache.Assemble(i)
		require.NoError(t, err)

		// assert
		assert.Equal(t, regenerated, cached)

		srcIndex, ok := withCache.DuplicateSource(i)
		if !ok {
			continue
		}
		checked++

		src, err := withCache.AssembleClean(srcIndex)
		require.NoError(t, err)

		assert.Equal(t, seed.PersonID(7, i), cached.ID)
		assert.True(t, cached.HasDefect(variability.FieldRecord, persons.DefectDuplicate))
		assert.Equal(t, src.DateOfBirth, cached.DateOfBirth)
		assert.Equal(t, src.SSN, cached.SSN)
		for k := range cached.Addresses {
			assert.NotEqual(t, src.Addresses[k].ID, cached.Addresses[k].ID)
		}
	}

	assert.Greater(t, checked, 40)
	assert.Greater(t, cache.hits, 0)
}

func Test_Rekey_When_IDChanges_ChildIDsAreDerivedFromIt(t *testing.T) {
	a := newAssembler(t)
	p, err := a.AssembleClean(3)
	require.NoError(t, err)
	id := seed.PersonID(42, 1_000)

	assembler.Rekey(&p, id)

	assert.Equal(t, id, p.ID)
	assert.Equal(t, seed.ChildID(id, seed.KindAddress, 0), p.Addresses[0].ID)
	assert.Equal(t, seed.ChildID(id, seed.KindPhone, 0), p.Phones[0].ID)
	assert.Equal(t, seed.ChildID(id, seed.KindEmail, 0), p.Emails[0].ID)
	if len(p.Employment) > 0 {
		assert.Equal(t, seed.ChildID(id, seed.KindEmployment, 0), p.Employment[0].ID)
	}
}

func Test_New_When_ReferenceDataIsNil_ItReturnsAConfigError(t *testing.T) {
	cfg, err := persons.NewGenerationConfig()
	require.NoError(t, err)

	_, err = assembler.New(cfg, assembler.WithReferenceData(nil))

	assert.ErrorIs(t, err, assembler.ErrNilReferenceData)
	assert.True(t, persons.IsKind(err, persons.KindConfig))
}
