package generators

import (
	"math/rand/v2"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/correlation"
)

// Financial generates the financial profile. With financial correlation enabled, income and
// credit score are derived from the person's age, location and employment; otherwise they are
// sampled from their population distributions.
type Financial struct {
	base
}

func (g *Financial) Name() string { return "financial" }

func (g *Financial) Generate(r *rand.Rand, s Subject) error {
	p := s.Person
	age := g.age(p)

	var (
		income float64
		score  int
	)

	status, level, industryMultiplier, yearsInJob := g.employment(p, age)

	if g.cfg.Features.FinancialCorrelation {
		col := 1.0
		if current, ok := p.PrimaryAddress(); ok {
			col = g.ref.CostOfLiving(current.State)
		}

		income = correlation.Income(r, correlation.IncomeInput{
			Age:                age,
			IndustryMultiplier: industryMultiplier,
			CostOfLiving:       col,
			Level:              level,
			Status:             status,
		})
	} else {
		income = correlation.UncorrelatedIncome(r)
	}

	debt := correlation.DebtProfile(r, income, age)
	oldest := correlation.AccountHistory(r, age)

	if g.cfg.Features.FinancialCorrelation {
		score = correlation.CreditScore(r, correlation.CreditInput{
			Age:                   age,
			Income:                income,
			ConsumerDebtToIncome:  debt.Consumer() / income,
			OldestAccountAgeYears: oldest,
			YearsInCurrentJob:     yearsInJob,
			Unemployed:            status == persons.StatusUnemployed,
		})
	} else {
		score = correlation.BandedCreditScore(r)
	}

	accounts := correlation.CreditAccounts(r, age, score, oldest)
	available := correlation.AvailableCredit(r, score)

	p.Financial = &persons.FinancialProfile{
		CreditScore:           score,
		AnnualIncome:          income,
		DebtToIncomeRatio:     correlation.DebtToIncome(debt.Total(), income),
		NumberOfAccounts:      accounts.Count,
		OldestAccountAgeYears: accounts.OldestAgeYears,
		RecentInquiries:       accounts.RecentInquiries,
		TotalDebt:             correlation.RoundCents(debt.Total()),
		AvailableCredit:       available,
		UtilizationRate:       correlation.Utilization(debt.CreditCards, available),
	}

	return nil
}

// employment derives the income-relevant employment attributes. People without a current
// record are retired from retirement age on and unemployed before.
func (g *Financial) employment(p *persons.Person, age int) (persons.EmploymentStatus, persons.JobLevel, float64, float64) {
	current, ok := p.CurrentEmployment()
	if !ok {
		status := persons.StatusUnemployed
		if age >= retirementAge {
			status = persons.StatusRetired
		}

		level := persons.LevelMid
		multiplier := 1.0
		if n := len(p.Employment); n > 0 {
			last := p.Employment[n-1]
			level = last.Level
			if ind, err := g.ref.Industry(last.Industry); err == nil {
				multiplier = ind.IncomeMultiplier
			}
		}

		return status, level, multiplier, 0
	}

	multiplier := 1.0
	if ind, err := g.ref.Industry(current.Industry); err == nil {
		multiplier = ind.IncomeMultiplier
	}

	years := g.now.Time.Sub(current.StartDate.Time).Hours() / 24 / daysPerYear

	return current.Status, current.Level, multiplier, years
}
