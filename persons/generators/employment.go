package generators

import (
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/correlation"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/seed"
)

const (
	daysPerYear   = 365.25
	retirementAge = 65
)

type tenureBand struct {
	maxAge int
	lo, hi float64
}

var tenureByAge = []tenureBand{
	{25, 0.5, 2},
	{35, 1.5, 4},
	{45, 3, 7},
	{55, 5, 12},
	{math.MaxInt, 7, 20},
}

// Employment generates a non-overlapping employment history ordered by start date.
// At most the newest record is current; retirees and the unemployed have none.
type Employment struct {
	base
}

func (g *Employment) Name() string { return "employment" }

func (g *Employment) Generate(r *rand.Rand, s Subject) error {
	p := s.Person
	p.Employment = nil

	n := between(r, g.cfg.JobsPerPerson.Min, g.cfg.JobsPerPerson.Max)
	if n == 0 {
		linkWorkEmails(p, "")
		return nil
	}

	age := g.age(p)
	careerStart := p.DateOfBirth.Time.AddDate(minAge, 0, 0)

	retired := age >= retirementAge && chance(r, math.Min(0.85, float64(age-60)/30))
	cursor := g.now.Time
	if retired {
		retiredAt := p.DateOfBirth.Time.AddDate(between(r, 60, 67), 0, 0)
		if retiredAt.Before(cursor) {
			cursor = retiredAt
		}
	}

	unemployed := false
	if !retired && chance(r, 0.05) {
		out := cursor.AddDate(0, 0, -between(r, 30, 700))
		if out.After(careerStart) {
			cursor, unemployed = out, true
		}
	}

	industry := g.pickIndustry(r)
	records := make([]persons.EmploymentRecord, 0, n)

	for k := 0; k < n; k++ {
		if k > 0 && !cursor.After(careerStart) {
			break
		}

		end := cursor
		start := end.AddDate(0, 0, -int(tenure(r, ageAt(p.DateOfBirth.Time, end))*daysPerYear))
		if start.Before(careerStart) {
			start = careerStart
		}
		if g.cfg.Features.TemporalPatterns {
			start = seasonalStart(r, g.ref.HiringSeasonality(industry), start, end, careerStart)
		}

		rec := persons.EmploymentRecord{
			Industry:  industry,
			Status:    g.status(r, age),
			StartDate: persons.NewDate(start),
			IsCurrent: k == 0 && !retired && !unemployed,
		}
		if !rec.IsCurrent {
			e := persons.NewDate(end)
			rec.EndDate = &e
		}
		records = append(records, rec)

		cursor = start.AddDate(0, 0, -between(r, 1, 180))
		if chance(r, 0.25) {
			industry = g.pickIndustry(r)
		}
	}

	slices.Reverse(records)

	prevSalary := 0.0
	for i := range records {
		rec := &records[i]
		ind, err := g.ref.Industry(rec.Industry)
		if err != nil {
			return err
		}

		experience := rec.StartDate.Time.Sub(careerStart).Hours() / 24 / daysPerYear
		rec.ID = seed.ChildID(p.ID, seed.KindEmployment, i)
		rec.Level = level(r, experience)
		rec.Title = refdata.Pick(r, g.ref.JobTitles(rec.Industry, string(rec.Level)))
		rec.Employer = g.employer(r, rec.Industry)
		if chance(r, 0.85) {
			rec.Department = persons.StringPtr(refdata.Pick(r, g.ref.Departments(rec.Industry)))
		}

		if prevSalary == 0 {
			rec.Salary = correlation.Salary(r, ind.IncomeMultiplier, rec.Level)
		} else {
			rec.Salary = correlation.RaiseSalary(r, prevSalary, ind.IncomeMultiplier, rec.Level)
		}
		prevSalary = rec.Salary
	}

	p.Employment = records

	employer := ""
	if current, ok := p.CurrentEmployment(); ok {
		employer = current.Employer
	}
	linkWorkEmails(p, employer)

	return nil
}

func (g *Employment) pickIndustry(r *rand.Rand) string {
	industries := g.ref.Industries()
	weights := make([]float64, len(industries))
	for i, ind := range industries {
		if len(g.cfg.IndustryDistribution) > 0 {
			weights[i] = g.cfg.IndustryDistribution[ind.Name]
		} else {
			weights[i] = ind.Weight
		}
	}

	return industries[refdata.PickIndex(r, weights)].Name
}

func (g *Employment) status(r *rand.Rand, age int) persons.EmploymentStatus {
	partTime := 0.1
	if age < 25 {
		partTime = 0.25
	}

	switch x := r.Float64(); {
	case x < 0.08:
		return persons.StatusContract
	case x < 0.08+partTime:
		return persons.StatusPartTime
	default:
		return persons.StatusFullTime
	}
}

func (g *Employment) employer(r *rand.Rand, industry string) string {
	if chance(r, 0.7) {
		return refdata.Pick(r, g.ref.CompanyNames())
	}

	return refdata.Pick(r, g.ref.CompanyPrefixes()) + " " + refdata.Pick(r, g.ref.CompanySuffixes(industry))
}

// tenure returns the length of a job in years for the age at which it ended,
// with occasional unusually long and short tenures.
func tenure(r *rand.Rand, age int) float64 {
	i := slices.IndexFunc(tenureByAge, func(t tenureBand) bool { return age <= t.maxAge })
	years := uniform(r, tenureByAge[i].lo, tenureByAge[i].hi)

	switch x := r.Float64(); {
	case x < 0.10:
		years *= uniform(r, 1.5, 2.5)
	case x < 0.25:
		years *= uniform(r, 0.3, 0.7)
	}

	return years
}

func level(r *rand.Rand, experienceYears float64) persons.JobLevel {
	switch {
	case experienceYears < 2:
		return persons.LevelEntry
	case experienceYears < 5:
		if chance(r, 0.6) {
			return persons.LevelEntry
		}
		return persons.LevelMid
	case experienceYears < 10:
		if chance(r, 0.2) {
			return persons.LevelSenior
		}
		return persons.LevelMid
	case experienceYears < 20:
		switch x := r.Float64(); {
		case x < 0.05:
			return persons.LevelExecutive
		case x < 0.3:
			return persons.LevelMid
		default:
			return persons.LevelSenior
		}
	default:
		if chance(r, 0.15) {
			return persons.LevelExecutive
		}
		return persons.LevelSenior
	}
}

// seasonalStart moves the start into a month drawn from the industry's hiring pattern,
// keeping it within the same year, after floor and not after end.
func seasonalStart(r *rand.Rand, weights []float64, start, end, floor time.Time) time.Time {
	month := time.Month(refdata.PickIndex(r, weights) + 1)
	candidate := time.Date(start.Year(), month, between(r, 1, 28), 0, 0, 0, 0, time.UTC)

	if candidate.Before(floor) || candidate.After(end) {
		return start
	}

	return candidate
}

func ageAt(dob, at time.Time) int {
	return persons.NewDate(dob).AgeAt(persons.NewDate(at))
}

// linkWorkEmails binds work email addresses to the current employer's domain.
// Without a current employer they become personal addresses.
func linkWorkEmails(p *persons.Person, employer string) {
	for i := range p.Emails {
		e := &p.Emails[i]
		if e.Type != persons.EmailWork {
			continue
		}

		if employer == "" {
			e.Type = persons.EmailPersonal
			continue
		}

		local, _, _ := strings.Cut(e.Address, "@")
		e.Domain = Domain(employer)
		e.Address = local + "@" + e.Domain
	}
}
