package generators

import (
	"math/rand/v2"
	"slices"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/correlation"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
)

var educationLevels = []persons.EducationLevel{
	persons.EducationNone,
	persons.EducationHighSchool,
	persons.EducationSomeCollege,
	persons.EducationAssociate,
	persons.EducationBachelor,
	persons.EducationMaster,
	persons.EducationDoctorate,
	persons.EducationProfessional,
}

// educationWeights follow the attainment of US workers by seniority, in educationLevels order.
var educationWeights = map[persons.JobLevel][]float64{
	persons.LevelEntry:     {8, 38, 22, 12, 18, 2, 0, 0},
	persons.LevelMid:       {3, 25, 18, 12, 32, 9, 0.5, 0.5},
	persons.LevelSenior:    {0, 10, 10, 8, 45, 22, 3, 2},
	persons.LevelExecutive: {0, 5, 5, 3, 45, 32, 5, 5},
	"":                     {10, 35, 20, 10, 18, 5, 1, 1},
}

// years after birth at which a degree is typically completed
var graduationAge = map[persons.EducationLevel]int{
	persons.EducationAssociate:    20,
	persons.EducationBachelor:     22,
	persons.EducationMaster:       24,
	persons.EducationProfessional: 25,
	persons.EducationDoctorate:    27,
}

var loanPrincipal = map[persons.EducationLevel]float64{
	persons.EducationAssociate:    15000,
	persons.EducationBachelor:     30000,
	persons.EducationMaster:       65000,
	persons.EducationProfessional: 150000,
	persons.EducationDoctorate:    90000,
}

const loanRepaymentYears = 20

// Education generates the schooling of a person from the seniority and industry of their
// most recent position. Degrees never graduate after the reference date.
type Education struct {
	base
}

func (g *Education) Name() string { return "education" }

func (g *Education) Generate(r *rand.Rand, s Subject) error {
	p := s.Person

	var (
		level    persons.JobLevel
		industry string
	)
	if n := len(p.Employment); n > 0 {
		level = p.Employment[n-1].Level
		industry = p.Employment[n-1].Industry
	}

	highest := educationLevels[refdata.PickIndex(r, educationWeights[level])]
	if (industry == "Healthcare" || industry == "Legal") &&
		(level == persons.LevelSenior || level == persons.LevelExecutive) && chance(r, 0.25) {
		highest = persons.EducationProfessional
	}

	birthYear := p.DateOfBirth.Time.Year()
	majors := g.ref.Majors(industry)
	degrees := make([]persons.Degree, 0, 3)

	for _, l := range degreePath(r, highest) {
		year := birthYear + graduationAge[l] + between(r, 0, 2)
		if n := len(degrees); n > 0 {
			year = max(year, degrees[n-1].GraduationYear+1)
		}
		if year > g.now.Time.Year() {
			break
		}

		d := persons.Degree{
			Level:          l,
			Major:          refdata.Pick(r, majors),
			Institution:    refdata.Pick(r, g.ref.Institutions()),
			GraduationYear: year,
		}
		if chance(r, 0.6) {
			gpa := roundTo(uniform(r, 2.3, 4.0), 2)
			d.GPA = &gpa
		}
		degrees = append(degrees, d)
	}

	switch {
	case len(degrees) > 0:
		highest = degrees[len(degrees)-1].Level
	case slices.Index(educationLevels, highest) > slices.Index(educationLevels, persons.EducationSomeCollege):
		highest = persons.EducationSomeCollege
	}

	p.Education = &persons.EducationProfile{
		HighestLevel:       highest,
		Degrees:            degrees,
		Certifications:     g.certifications(r, industry),
		StudentLoanBalance: g.studentLoan(r, degrees),
	}

	return nil
}

// degreePath returns the degrees leading to the highest level, in the order they are earned.
func degreePath(r *rand.Rand, highest persons.EducationLevel) []persons.EducationLevel {
	var path []persons.EducationLevel

	switch highest {
	case persons.EducationAssociate:
		return []persons.EducationLevel{persons.EducationAssociate}
	case persons.EducationBachelor, persons.EducationMaster, persons.EducationDoctorate, persons.EducationProfessional:
		if chance(r, 0.2) {
			path = append(path, persons.EducationAssociate)
		}
		path = append(path, persons.EducationBachelor)
	default:
		return nil
	}

	switch highest {
	case persons.EducationMaster:
		path = append(path, persons.EducationMaster)
	case persons.EducationDoctorate:
		if chance(r, 0.6) {
			path = append(path, persons.EducationMaster)
		}
		path = append(path, persons.EducationDoctorate)
	case persons.EducationProfessional:
		path = append(path, persons.EducationProfessional)
	}

	return path
}

func (g *Education) certifications(r *rand.Rand, industry string) []string {
	pool := g.ref.Certifications(industry)
	if len(pool) == 0 || !chance(r, 0.3) {
		return []string{}
	}

	n := between(r, 1, min(2, len(pool)))
	picked := make([]string, 0, n)
	for _, i := range r.Perm(len(pool))[:n] {
		picked = append(picked, pool[i])
	}

	return picked
}

// studentLoan shrinks linearly from the original balance to zero over the repayment period.
func (g *Education) studentLoan(r *rand.Rand, degrees []persons.Degree) float64 {
	if len(degrees) == 0 || !chance(r, 0.55) {
		return 0
	}

	principal := 0.0
	for _, d := range degrees {
		principal += loanPrincipal[d.Level]
	}

	since := g.now.Time.Year() - degrees[len(degrees)-1].GraduationYear
	if since >= loanRepaymentYears {
		return 0
	}

	remaining := float64(loanRepaymentYears-since) / loanRepaymentYears

	return correlation.RoundCents(principal * uniform(r, 0.4, 1.4) * remaining)
}
