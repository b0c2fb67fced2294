package correlation

import (
	"math"
	"math/rand/v2"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

// Debt is the per-category outstanding debt of a person.
type Debt struct {
	Mortgage     float64
	AutoLoans    float64
	StudentLoans float64
	CreditCards  float64
	Other        float64
}

// Total returns the sum of all categories.
func (d Debt) Total() float64 {
	return d.Mortgage + d.AutoLoans + d.StudentLoans + d.CreditCards + d.Other
}

// Consumer returns the debt without the mortgage.
func (d Debt) Consumer() float64 {
	return d.Total() - d.Mortgage
}

// DebtProfile samples debt categories scaled to income. Each present category is a
// log-uniform amount across two decades, so the amounts follow Benford's law in aggregate.
func DebtProfile(r *rand.Rand, income float64, age int) Debt {
	var d Debt

	if age > 25 && r.Float64() < 0.6 {
		d.Mortgage = LogUniformAmount(r, income*0.04, 2)
	}

	if r.Float64() < 0.7 {
		d.AutoLoans = LogUniformAmount(r, income*0.01, 2)
	}

	if age < 40 && r.Float64() < 0.4 {
		d.StudentLoans = LogUniformAmount(r, income*0.015, 2)
	}

	if r.Float64() < 0.85 {
		d.CreditCards = LogUniformAmount(r, income*0.003, 2)
	}

	if r.Float64() < 0.3 {
		d.Other = LogUniformAmount(r, income*0.002, 2)
	}

	return d
}

// DebtToIncome returns total debt over income clamped into [0, MaxDebtToIncome], rounded to 0.01.
func DebtToIncome(total, income float64) float64 {
	if income <= 0 {
		return persons.MaxDebtToIncome
	}

	return math.Round(clamp(total/income, 0, persons.MaxDebtToIncome-0.01)*100) / 100
}

// Accounts are the credit-history attributes derived from age and score.
type Accounts struct {
	Count           int
	OldestAgeYears  float64
	RecentInquiries int
}

// AccountHistory samples the oldest account age from age alone, so it can feed the credit score.
func AccountHistory(r *rand.Rand, age int) float64 {
	maxAge := math.Min(float64(age-18), 40)
	if maxAge < 1 {
		return 0
	}

	return math.Round((1+r.Float64()*(maxAge-1))*10) / 10
}

// CreditAccounts samples account count and inquiries, which depend on the finished score.
func CreditAccounts(r *rand.Rand, age, score int, oldestAgeYears float64) Accounts {
	var n int
	switch {
	case age < 21:
		n = r.IntN(4)
	case age < 30:
		n = 2 + r.IntN(7)
	case age < 50:
		n = 5 + r.IntN(11)
	default:
		n = 4 + r.IntN(9)
	}

	switch {
	case score < 580:
		n = max(1, n-2)
	case score > 740:
		n += 1 + r.IntN(3)
	}

	inquiries := r.IntN(4)
	if score < 650 {
		inquiries = 2 + r.IntN(7)
	}

	return Accounts{Count: n, OldestAgeYears: oldestAgeYears, RecentInquiries: inquiries}
}

// AvailableCredit returns a revolving credit limit that grows with score.
// The amount is c(score) * 10^U(3,5), so its leading digits are exactly Benford distributed.
func AvailableCredit(r *rand.Rand, score int) float64 {
	c := 0.5 + float64(ClampCreditScore(score)-persons.MinCreditScore)/float64(persons.MaxCreditScore-persons.MinCreditScore)*2

	return LogUniformAmount(r, c*1000, 2)
}

// Utilization returns revolving balance over limit, clamped into [0, 1].
func Utilization(cardDebt, available float64) float64 {
	if available <= 0 {
		return 0
	}

	return math.Round(clamp(cardDebt/available, 0, 1)*10000) / 10000
}

// LogUniformAmount returns lo * 10^U(0, decades) rounded to cents.
// For integer decades the leading digit of the result is Benford distributed.
func LogUniformAmount(r *rand.Rand, lo float64, decades int) float64 {
	return RoundCents(lo * math.Pow(10, r.Float64()*float64(decades)))
}

// RoundCents rounds a monetary amount to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// LeadingDigit returns the first significant decimal digit of |v|, or 0 for zero.
func LeadingDigit(v float64) int {
	v = math.Abs(v)
	if v == 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}

	exp := math.Floor(math.Log10(v))
	d := int(v / math.Pow(10, exp))

	return max(1, min(9, d))
}

// BenfordExpected returns the Benford probability of leading digit d.
func BenfordExpected(d int) float64 {
	return math.Log10(1 + 1/float64(d))
}
