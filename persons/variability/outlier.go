package variability

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

// OutlierKind selects which value is pushed to an extreme.
type OutlierKind string

const (
	OutlierAge          OutlierKind = "age"
	OutlierSalary       OutlierKind = "salary"
	OutlierIncome       OutlierKind = "income"
	OutlierDebtToIncome OutlierKind = "debt_to_income"
	OutlierCreditScore  OutlierKind = "credit_score"
	OutlierPhone        OutlierKind = "phone"
	OutlierEmail        OutlierKind = "email"
)

const (
	minOutlierIncome = 1_000_000
	maxOutlierIncome = 10_000_000
	maxOutlierAge    = 110
	minOutlierAge    = 100
)

func (e *Engine) applyOutliers(r *rand.Rand, p *persons.Person) {
	rate := e.profile.OutlierRate
	if rate == 0 {
		return
	}

	if hit(r, rate) {
		e.CreateOutlier(r, p, OutlierAge)
	}

	if hit(r, rate) && len(p.Employment) > 0 {
		e.CreateOutlier(r, p, OutlierSalary)
	}

	if p.Financial != nil {
		for _, kind := range []OutlierKind{OutlierIncome, OutlierDebtToIncome, OutlierCreditScore} {
			if hit(r, rate) {
				e.CreateOutlier(r, p, kind)
			}
		}
	}

	if hit(r, rate) && len(p.Phones) > 0 {
		e.CreateOutlier(r, p, OutlierPhone)
	}

	if hit(r, rate) && len(p.Emails) > 0 {
		e.CreateOutlier(r, p, OutlierEmail)
	}
}

// CreateOutlier pushes one value of p to a type-valid extreme and records the defect.
// Financial outliers stay inside the profile's ranges: credit scores go to 300 or 850,
// debt-to-income to 0 or 9.99 and income only upwards.
func (e *Engine) CreateOutlier(r *rand.Rand, p *persons.Person, kind OutlierKind) {
	switch kind {
	case OutlierAge:
		age := minOutlierAge + r.IntN(maxOutlierAge-minOutlierAge+1)
		dob := e.now.Time.AddDate(-age, 0, -r.IntN(365))
		p.DateOfBirth = persons.Date{Time: dob, Layout: p.DateOfBirth.Layout}
		p.AddDefect(FieldDateOfBirth, persons.DefectOutlier)

	case OutlierSalary:
		i := len(p.Employment) - 1
		p.Employment[i].Salary = math.Round(p.Employment[i].Salary*(3+7*r.Float64())/1000) * 1000
		p.AddDefect(FieldSalary, persons.DefectOutlier)

	case OutlierIncome:
		if p.Financial == nil {
			return
		}
		p.Financial.AnnualIncome = float64(minOutlierIncome + r.IntN(maxOutlierIncome-minOutlierIncome)/5000*5000)
		p.AddDefect(FieldIncome, persons.DefectOutlier)

	case OutlierDebtToIncome:
		if p.Financial == nil {
			return
		}
		p.Financial.DebtToIncomeRatio = 0
		if r.IntN(2) == 0 {
			p.Financial.DebtToIncomeRatio = persons.MaxDebtToIncome - 0.01
		}
		p.AddDefect(FieldDebtToIncome, persons.DefectOutlier)

	case OutlierCreditScore:
		if p.Financial == nil {
			return
		}
		p.Financial.CreditScore = persons.MinCreditScore
		if r.IntN(2) == 0 {
			p.Financial.CreditScore = persons.MaxCreditScore
		}
		p.AddDefect(FieldCreditScore, persons.DefectOutlier)

	case OutlierPhone:
		i := r.IntN(len(p.Phones))
		p.Phones[i].Number = fmt.Sprintf("555-01%02d", r.IntN(100))
		p.AddDefect(FieldPhoneNumber, persons.DefectOutlier)

	case OutlierEmail:
		i := r.IntN(len(p.Emails))
		local, domain, _ := strings.Cut(p.Emails[i].Address, "@")
		p.Emails[i].Address = local + strings.Repeat(local[len(local)-1:], 40) + "@" + domain
		p.AddDefect(FieldEmail, persons.DefectOutlier)
	}
}
