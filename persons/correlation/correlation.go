// Package correlation models the statistical dependencies between person attributes:
// income from industry, age, state, level and employment status; credit score from income,
// history, debt and stability; debt components; salary bands; and Benford-shaped amounts.
//
// All functions are pure over their inputs and the supplied random source, so a record's
// financial attributes are a single forward pass over already-generated fields.
package correlation

import (
	"math"
	"math/rand/v2"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

const (
	// BaseIncome is the median annual income of a mid-level, full-time worker at cost-of-living 1.0.
	BaseIncome = 55000.0

	incomeNoiseSigma     = 0.18
	populationLogSigma   = 0.55
	creditBase           = 650.0
	creditIncomeSpan     = 120.0
	creditNoiseSigma     = 30.0
	creditNoiseClamp     = 90.0
	minimumIncome        = 1000.0
	stableTenureYears    = 2.0
	stabilityBonus       = 20.0
	unemploymentPenalty  = 30.0
	consumerDTIPenalty   = 80.0
	maxConsumerDTIWeight = 1.0
)

// IncomeInput are the already-generated attributes income depends on.
type IncomeInput struct {
	Age                int
	IndustryMultiplier float64
	CostOfLiving       float64
	Level              persons.JobLevel
	Status             persons.EmploymentStatus
}

// CreditInput are the already-generated attributes the credit score depends on.
type CreditInput struct {
	Age                   int
	Income                float64
	ConsumerDebtToIncome  float64
	OldestAccountAgeYears float64
	YearsInCurrentJob     float64
	Unemployed            bool
}

// Income returns a rounded annual income that is always positive.
func Income(r *rand.Rand, in IncomeInput) float64 {
	industry := in.IndustryMultiplier
	if industry <= 0 {
		industry = 1
	}

	col := in.CostOfLiving
	if col <= 0 {
		col = 1
	}

	noise := clamp(r.NormFloat64()*incomeNoiseSigma, -2*incomeNoiseSigma, 2*incomeNoiseSigma)
	income := BaseIncome * industry * AgeCurve(in.Age) * col * LevelMultiplier(in.Level) *
		StatusMultiplier(in.Status) * math.Exp(noise)

	return RoundIncome(income)
}

// UncorrelatedIncome samples an income from the population distribution, ignoring all other attributes.
func UncorrelatedIncome(r *rand.Rand) float64 {
	return RoundIncome(BaseIncome * math.Exp(r.NormFloat64()*populationLogSigma))
}

// RoundIncome rounds to 1000 below 50k, 2500 below 100k and 5000 above, never below 1000.
func RoundIncome(income float64) float64 {
	step := 5000.0
	switch {
	case income < 50000:
		step = 1000
	case income < 100000:
		step = 2500
	}

	return math.Max(minimumIncome, math.Round(income/step)*step)
}

// AgeCurve is the relative earning power at an age.
func AgeCurve(age int) float64 {
	switch {
	case age < 25:
		return 0.55
	case age < 35:
		return 0.9
	case age < 45:
		return 1.15
	case age < 55:
		return 1.25
	case age < 65:
		return 1.15
	default:
		return 0.75
	}
}

// LevelMultiplier is the pay multiplier of a job level.
func LevelMultiplier(level persons.JobLevel) float64 {
	switch level {
	case persons.LevelEntry:
		return 0.7
	case persons.LevelSenior:
		return 1.5
	case persons.LevelExecutive:
		return 2.5
	default:
		return 1.0
	}
}

// StatusMultiplier is the income multiplier of an employment status.
func StatusMultiplier(status persons.EmploymentStatus) float64 {
	switch status {
	case persons.StatusPartTime:
		return 0.5
	case persons.StatusContract:
		return 1.1
	case persons.StatusUnemployed:
		return 0.25
	case persons.StatusRetired:
		return 0.6
	case persons.StatusStudent:
		return 0.3
	default:
		return 1.0
	}
}

// IncomePercentile maps an income to its percentile in the population distribution.
func IncomePercentile(income float64) float64 {
	if income <= 0 {
		return 0
	}

	z := math.Log(income/BaseIncome) / populationLogSigma

	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}

// CreditScore returns a score in [300, 850] that increases with income percentile, credit history
// and job stability and decreases with consumer debt load.
func CreditScore(r *rand.Rand, in CreditInput) int {
	score := creditBase
	score += (IncomePercentile(in.Income) - 0.5) * 2 * creditIncomeSpan
	score += historyTerm(in.Age, in.OldestAccountAgeYears)
	score -= math.Min(in.ConsumerDebtToIncome, maxConsumerDTIWeight) * consumerDTIPenalty

	switch {
	case in.Unemployed:
		score -= unemploymentPenalty
	case in.YearsInCurrentJob >= stableTenureYears:
		score += stabilityBonus
	}

	score += clamp(r.NormFloat64()*creditNoiseSigma, -creditNoiseClamp, creditNoiseClamp)

	return ClampCreditScore(int(math.Round(score)))
}

// BandedCreditScore samples a score from the national score-band distribution, ignoring all other attributes.
func BandedCreditScore(r *rand.Rand) int {
	bands := []struct {
		lo, hi int
		weight float64
	}{
		{300, 579, 0.16},
		{580, 669, 0.17},
		{670, 739, 0.21},
		{740, 799, 0.25},
		{800, 850, 0.21},
	}

	x := r.Float64()
	for _, b := range bands {
		x -= b.weight
		if x < 0 {
			return b.lo + r.IntN(b.hi-b.lo+1)
		}
	}

	return persons.MaxCreditScore
}

// ClampCreditScore clamps a score into [300, 850].
func ClampCreditScore(score int) int {
	return max(persons.MinCreditScore, min(persons.MaxCreditScore, score))
}

func historyTerm(age int, oldestAccountYears float64) float64 {
	term := math.Min(oldestAccountYears, 25)/25*60 - 20
	if age < 25 {
		term -= 15
	}

	return term
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
