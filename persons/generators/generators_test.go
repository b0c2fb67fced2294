package generators_test

import (
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/correlation"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/generators"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/seed"
)

var ssnPattern = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)

func config(t *testing.T, options ...persons.ConfigOption) persons.GenerationConfig {
	t.Helper()

	cfg, err := persons.NewGenerationConfig(append([]persons.ConfigOption{persons.WithSeed(42)}, options...)...)
	require.NoError(t, err)

	return cfg
}

func generate(t *testing.T, cfg persons.GenerationConfig, index uint64, head *persons.Person, role persons.HouseholdRole) persons.Person {
	t.Helper()

	p := persons.Person{ID: seed.PersonID(cfg.Seed, index), Index: index}
	if head != nil {
		p.Household = &persons.HouseholdLink{ID: seed.HouseholdID(cfg.Seed, head.Index), HeadID: head.ID, Role: role}
	}

	r := seed.ForRecord(cfg.Seed, index, seed.SaltRecord)
	for _, g := range generators.Pipeline(cfg, refdata.Default()) {
		require.NoError(t, g.Generate(r, generators.Subject{Person: &p, Head: head}), g.Name())
	}

	return p
}

func Test_Pipeline_When_Built_ItRunsInFixedOrder(t *testing.T) {
	var names []string
	for _, g := range generators.Pipeline(config(t), refdata.Default()) {
		names = append(names, g.Name())
	}

	assert.Equal(t, []string{
		"demographic", "address", "contact", "employment", "financial",
		"education", "physical", "vehicle", "online", "communication",
	}, names)
}

func Test_Pipeline_When_SeedIsEqual_ResultsAreEqual(t *testing.T) {
	cfg := config(t)

	assert.Equal(t, generate(t, cfg, 17, nil, ""), generate(t, cfg, 17, nil, ""))
	assert.NotEqual(t, generate(t, cfg, 17, nil, ""), generate(t, cfg, 18, nil, ""))
}

func Test_Demographic_When_Generated_TheIdentityIsValid(t *testing.T) {
	cfg := config(t)
	ref := persons.NewDate(cfg.ReferenceDate)

	for i := uint64(0); i < 500; i++ {
		p := generate(t, cfg, i, nil, "")

		age := p.DateOfBirth.AgeAt(ref)
		assert.GreaterOrEqual(t, age, 18)
		assert.LessOrEqual(t, age, 95)
		assert.NotEmpty(t, p.FirstName)
		assert.NotEmpty(t, p.LastName)
		assert.Contains(t, []persons.Gender{persons.GenderMale, persons.GenderFemale, persons.GenderOther, persons.GenderUnspecified}, p.Gender)
		require.NotNil(t, p.SSN)
		assert.Regexp(t, ssnPattern, *p.SSN)
		assert.False(t, strings.HasPrefix(*p.SSN, "666"))
		assert.False(t, strings.HasPrefix(*p.SSN, "000"))
	}
}

func Test_Address_When_Generated_StateZipAndPrimaryAgree(t *testing.T) {
	cfg := config(t)
	data := refdata.Default()

	for i := uint64(0); i < 500; i++ {
		p := generate(t, cfg, i, nil, "")

		require.GreaterOrEqual(t, len(p.Addresses), cfg.AddressesPerPerson.Min)
		require.LessOrEqual(t, len(p.Addresses), cfg.AddressesPerPerson.Max)

		primaries := 0
		for _, a := range p.Addresses {
			if a.IsPrimary {
				primaries++
				assert.Equal(t, persons.AddressCurrent, a.Type)
			}
			assert.True(t, zipMatchesState(data, a), "%s %s %s", a.City, a.State, a.Zip)
		}
		assert.Equal(t, 1, primaries)

		var previous []persons.Address
		for _, a := range p.Addresses {
			if a.Type == persons.AddressPrevious {
				previous = append(previous, a)
				require.NotNil(t, a.EndDate)
				assert.True(t, a.EffectiveDate.Before(*a.EndDate))
			}
		}
		for k := 1; k < len(previous); k++ {
			assert.True(t, previous[k-1].EffectiveDate.Before(previous[k].EffectiveDate), "previous addresses oldest first")
		}
	}
}

func Test_Contact_When_Generated_TheAreaCodeFollowsTheCurrentState(t *testing.T) {
	cfg := config(t)
	data := refdata.Default()

	for i := uint64(0); i < 500; i++ {
		p := generate(t, cfg, i, nil, "")
		current, ok := p.PrimaryAddress()
		require.True(t, ok)

		require.NotEmpty(t, p.Phones)
		assert.True(t, p.Phones[0].IsPrimary)
		if codes := data.AreaCodes(current.State); len(codes) > 0 {
			for _, ph := range p.Phones {
				assert.Contains(t, codes, ph.AreaCode)
			}
		}

		require.NotEmpty(t, p.Emails)
		assert.True(t, p.Emails[0].IsPrimary)
		for _, e := range p.Emails {
			assert.True(t, strings.HasSuffix(e.Address, "@"+e.Domain))
		}
	}
}

func Test_Employment_When_Generated_TheHistoryIsOrderedAndNonOverlapping(t *testing.T) {
	cfg := config(t)
	data := refdata.Default()

	for i := uint64(0); i < 500; i++ {
		p := generate(t, cfg, i, nil, "")

		current := 0
		for k, e := range p.Employment {
			if e.IsCurrent {
				current++
				assert.Nil(t, e.EndDate)
				assert.Equal(t, len(p.Employment)-1, k, "only the newest record can be current")
			} else {
				require.NotNil(t, e.EndDate)
				assert.False(t, e.EndDate.Before(e.StartDate))
			}

			if k > 0 {
				prev := p.Employment[k-1]
				require.NotNil(t, prev.EndDate)
				assert.True(t, prev.EndDate.Before(e.StartDate), "records must not overlap")
			}

			ind, err := data.Industry(e.Industry)
			require.NoError(t, err)
			lo, hi := correlation.SalaryBand(ind.IncomeMultiplier, e.Level)
			assert.GreaterOrEqual(t, e.Salary, lo)
			assert.LessOrEqual(t, e.Salary, hi)
		}
		assert.LessOrEqual(t, current, 1)

		employment, employed := p.CurrentEmployment()
		for _, e := range p.Emails {
			if e.Type == persons.EmailWork {
				require.True(t, employed)
				assert.Equal(t, generators.Domain(employment.Employer), e.Domain)
			}
		}
	}
}

func Test_Financial_When_Generated_ValuesRespectTheRanges(t *testing.T) {
	for _, correlated := range []bool{true, false} {
		cfg := config(t, persons.WithFeatures(persons.Features{FinancialCorrelation: correlated, GeographicClustering: true}))

		for i := uint64(0); i < 500; i++ {
			p := generate(t, cfg, i, nil, "")

			require.NotNil(t, p.Financial)
			f := p.Financial
			assert.GreaterOrEqual(t, f.CreditScore, persons.MinCreditScore)
			assert.LessOrEqual(t, f.CreditScore, persons.MaxCreditScore)
			assert.Positive(t, f.AnnualIncome)
			assert.GreaterOrEqual(t, f.DebtToIncomeRatio, 0.0)
			assert.LessOrEqual(t, f.DebtToIncomeRatio, persons.MaxDebtToIncome)
			assert.GreaterOrEqual(t, f.UtilizationRate, 0.0)
			assert.LessOrEqual(t, f.UtilizationRate, 1.0)
		}
	}
}

func Test_Address_When_AGeographicDistributionIsSet_ItRestrictsStates(t *testing.T) {
	cfg := config(t, persons.WithGeographicDistribution(map[string]float64{"TX": 1}))

	for i := uint64(0); i < 200; i++ {
		p := generate(t, cfg, i, nil, "")
		current, _ := p.PrimaryAddress()

		if !slices.Contains([]string{"AE", "AP", "AA"}, current.State) {
			assert.Equal(t, "TX", current.State)
		}
	}
}

func Test_Household_When_MembersAreGenerated_TheyFollowTheHead(t *testing.T) {
	// arrange
	cfg := config(t)
	head := generate(t, cfg, 40, nil, "")
	head.Household = &persons.HouseholdLink{ID: seed.HouseholdID(cfg.Seed, 40), HeadID: head.ID, Role: persons.RoleHead}
	headAddress, _ := head.PrimaryAddress()
	ref := persons.NewDate(cfg.ReferenceDate)

	for i := uint64(41); i < 120; i++ {
		// act
		spouse := generate(t, cfg, i, &head, persons.RoleSpouse)
		sibling := generate(t, cfg, i, &head, persons.RoleSibling)

		// assert
		spouseAddress, _ := spouse.PrimaryAddress()
		assert.Equal(t, headAddress.Street1, spouseAddress.Street1)
		assert.Equal(t, headAddress.Zip, spouseAddress.Zip)
		assert.NotEqual(t, headAddress.ID, spouseAddress.ID)
		if spouse.LastName == head.LastName && spouse.MaidenName != nil {
			assert.NotEqual(t, head.LastName, *spouse.MaidenName)
		}

		assert.Equal(t, head.LastName, sibling.LastName)
		assert.GreaterOrEqual(t, sibling.DateOfBirth.AgeAt(ref), 18)
	}
}

func Test_Username_When_Generated_ItIsLowercaseAlphanumeric(t *testing.T) {
	r := seed.New(1)
	valid := regexp.MustCompile(`^[a-z0-9._]+$`)

	for i := 0; i < 200; i++ {
		assert.Regexp(t, valid, generators.Username(r, "Mary-Ann", "O'Neil", 1984))
	}
}

func Test_Exchange_When_Generated_ItIsNeverAServiceCode(t *testing.T) {
	r := seed.New(2)

	for i := 0; i < 2000; i++ {
		ex := generators.Exchange(r)
		assert.NotEqual(t, "11", ex[1:])
		assert.NotContains(t, "01", ex[:1])
		assert.NotContains(t, []string{"0000", "1111", "9999"}, generators.Line(r))
	}
}

func zipMatchesState(data *refdata.Context, a persons.Address) bool {
	for _, mil := range data.MilitaryPostal() {
		if mil.State == a.State && slices.Contains(mil.Zip3, a.Zip[:3]) {
			return true
		}
	}

	for _, c := range data.CitiesIn(a.State) {
		if c.Name == a.City && slices.Contains(c.Zip3, a.Zip[:3]) {
			return true
		}
	}

	return false
}

func Test_Education_When_Generated_DegreesAreOrderedAndCompleted(t *testing.T) {
	cfg := config(t)
	year := cfg.ReferenceDate.Year()

	for i := uint64(0); i < 1000; i++ {
		p := generate(t, cfg, i, nil, "")

		require.NotNil(t, p.Education)
		e := p.Education
		assert.GreaterOrEqual(t, e.StudentLoanBalance, 0.0)
		assert.NotNil(t, e.Certifications)

		if len(e.Degrees) == 0 {
			assert.Contains(t, []persons.EducationLevel{persons.EducationNone, persons.EducationHighSchool, persons.EducationSomeCollege}, e.HighestLevel)
			assert.Zero(t, e.StudentLoanBalance)
			continue
		}

		assert.Equal(t, e.Degrees[len(e.Degrees)-1].Level, e.HighestLevel)
		for n, d := range e.Degrees {
			assert.LessOrEqual(t, d.GraduationYear, year)
			assert.Greater(t, d.GraduationYear, p.DateOfBirth.Time.Year()+18)
			if n > 0 {
				assert.Greater(t, d.GraduationYear, e.Degrees[n-1].GraduationYear)
			}
			if d.GPA != nil {
				assert.GreaterOrEqual(t, *d.GPA, 2.3)
				assert.LessOrEqual(t, *d.GPA, 4.0)
			}
		}
	}
}

func Test_Education_When_TheLastPositionIsSenior_DegreesAreMoreCommon(t *testing.T) {
	cfg := config(t)

	var entry, entryDegrees, senior, seniorDegrees int
	for i := uint64(0); i < 4000; i++ {
		p := generate(t, cfg, i, nil, "")
		if len(p.Employment) == 0 {
			continue
		}

		bachelor := slices.ContainsFunc(p.Education.Degrees, func(d persons.Degree) bool { return d.Level == persons.EducationBachelor })
		switch p.Employment[len(p.Employment)-1].Level {
		case persons.LevelEntry:
			entry++
			if bachelor {
				entryDegrees++
			}
		case persons.LevelSenior, persons.LevelExecutive:
			senior++
			if bachelor {
				seniorDegrees++
			}
		}
	}

	require.Greater(t, entry, 100)
	require.Greater(t, senior, 100)
	assert.Greater(t, float64(seniorDegrees)/float64(senior), float64(entryDegrees)/float64(entry)+0.15)
}

func Test_Physical_When_Generated_HeightWeightAndBMIAgree(t *testing.T) {
	cfg := config(t)

	var male, female []float64
	for i := uint64(0); i < 2000; i++ {
		p := generate(t, cfg, i, nil, "")

		require.NotNil(t, p.Physical)
		b := p.Physical
		assert.GreaterOrEqual(t, b.HeightCM, 140.0)
		assert.LessOrEqual(t, b.HeightCM, 210.0)
		assert.InDelta(t, b.WeightKG/((b.HeightCM/100)*(b.HeightCM/100)), b.BMI, 0.06)
		assert.GreaterOrEqual(t, b.BMI, 15.9)
		assert.LessOrEqual(t, b.BMI, 50.1)
		assert.NotEmpty(t, b.EyeColor)
		assert.NotEmpty(t, b.HairColor)
		assert.Contains(t, []string{"O+", "A+", "B+", "AB+", "O-", "A-", "B-", "AB-"}, b.BloodType)

		switch p.Gender {
		case persons.GenderMale:
			male = append(male, b.HeightCM)
		case persons.GenderFemale:
			female = append(female, b.HeightCM)
		}
	}

	assert.Greater(t, mean(male), mean(female)+8)
}

func Test_Vehicle_When_Generated_ItIsRegisteredWhereThePersonLives(t *testing.T) {
	cfg := config(t)
	year := cfg.ReferenceDate.Year()

	var richCars, rich, poorCars, poor int
	for i := uint64(0); i < 2000; i++ {
		p := generate(t, cfg, i, nil, "")

		require.NotNil(t, p.Vehicle)
		v := p.Vehicle
		current, ok := p.PrimaryAddress()
		require.True(t, ok)

		assert.Equal(t, v.HasDriversLicense, v.LicenseState != nil)
		if v.HasDriversLicense {
			assert.Equal(t, current.State, *v.LicenseState)
		}

		for _, car := range v.Vehicles {
			assert.Equal(t, current.State, car.RegistrationState)
			assert.GreaterOrEqual(t, car.Year, year-20)
			assert.LessOrEqual(t, car.Year, year)
			assert.Positive(t, car.EstimatedValue)
			if car.Ownership == persons.OwnershipLeased {
				assert.GreaterOrEqual(t, p.Financial.CreditScore, 680)
			}
		}

		switch income := p.Financial.AnnualIncome; {
		case income > 120000:
			rich++
			richCars += len(v.Vehicles)
		case income < 45000:
			poor++
			poorCars += len(v.Vehicles)
		}
	}

	require.Positive(t, rich)
	require.Positive(t, poor)
	assert.Greater(t, float64(richCars)/float64(rich), float64(poorCars)/float64(poor))
}

func Test_Online_When_Generated_YoungPeopleUseTikTokMore(t *testing.T) {
	cfg := config(t)
	ref := persons.NewDate(cfg.ReferenceDate)

	var young, youngTikTok, senior, seniorTikTok int
	for i := uint64(0); i < 3000; i++ {
		p := generate(t, cfg, i, nil, "")

		require.NotNil(t, p.Online)
		o := p.Online
		assert.GreaterOrEqual(t, o.DailyScreenHours, 0.2)
		assert.LessOrEqual(t, o.DailyScreenHours, 12.0)

		platforms := make(map[string]bool)
		for _, a := range o.Accounts {
			assert.False(t, platforms[a.Platform], "one account per platform")
			platforms[a.Platform] = true
			assert.NotEmpty(t, a.Handle)
			assert.GreaterOrEqual(t, a.Followers, 0)
		}

		switch age := p.DateOfBirth.AgeAt(ref); {
		case age < 30:
			young++
			if platforms["TikTok"] {
				youngTikTok++
			}
		case age >= 65:
			senior++
			if platforms["TikTok"] {
				seniorTikTok++
			}
		}
	}

	require.Greater(t, young, 100)
	require.Greater(t, senior, 100)
	assert.Greater(t, float64(youngTikTok)/float64(young), float64(seniorTikTok)/float64(senior)+0.3)
}

func Test_Communication_When_Generated_ThePreferredChannelIsReachable(t *testing.T) {
	cfg := config(t)

	for i := uint64(0); i < 2000; i++ {
		p := generate(t, cfg, i, nil, "")

		require.NotNil(t, p.Communication)
		c := p.Communication
		require.NotEmpty(t, c.Languages)
		assert.Equal(t, "English", c.Languages[0])
		assert.Contains(t, []string{generators.TimeMorning, generators.TimeAfternoon, generators.TimeEvening, generators.TimeWeekend}, c.PreferredTime)

		callable := func(ph persons.PhoneNumber) bool { return ph.IsValid && !ph.DoNotCall && ph.Type != persons.PhoneFax }
		texting := func(ph persons.PhoneNumber) bool { return callable(ph) && ph.Type == persons.PhoneMobile }

		switch c.PreferredChannel {
		case persons.ChannelEmail:
			assert.True(t, slices.ContainsFunc(p.Emails, func(e persons.EmailAddress) bool { return e.IsValid && !e.IsBounced }))
		case persons.ChannelSMS:
			assert.True(t, slices.ContainsFunc(p.Phones, texting))
		case persons.ChannelPhone:
			assert.True(t, slices.ContainsFunc(p.Phones, callable))
		case persons.ChannelApp:
			assert.True(t, slices.ContainsFunc(p.Phones, texting))
			assert.GreaterOrEqual(t, len(p.Online.Accounts), 2)
		case persons.ChannelMail:
		default:
			t.Fatalf("unknown channel %q", c.PreferredChannel)
		}
	}
}

func Test_Clone_When_ProfilesAreModified_TheOriginalIsUnchanged(t *testing.T) {
	// arrange
	p := generate(t, config(t), 3, nil, "")
	for i := uint64(4); len(p.Education.Degrees) == 0 || len(p.Online.Accounts) == 0; i++ {
		p = generate(t, config(t), i, nil, "")
	}
	want := generate(t, config(t), p.Index, nil, "")

	// act
	c := p.Clone()
	c.Education.Degrees[0].Major = "changed"
	c.Online.Accounts[0].Handle = "changed"
	c.Communication.Languages[0] = "changed"
	c.Physical.HeightCM = 0

	// assert
	assert.Equal(t, want, p)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}
