package generators

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
)

const (
	minAge = 18
	maxAge = 95
)

var ageBands = []struct {
	lo, hi int
	weight float64
}{
	{18, 24, 0.09},
	{25, 34, 0.14},
	{35, 44, 0.13},
	{45, 54, 0.13},
	{55, 64, 0.13},
	{65, 74, 0.10},
	{75, 84, 0.06},
	{85, 95, 0.02},
}

var genderWeights = []refdata.Weighted{
	{Value: string(persons.GenderMale), Weight: 0.495},
	{Value: string(persons.GenderFemale), Weight: 0.495},
	{Value: string(persons.GenderOther), Weight: 0.005},
	{Value: string(persons.GenderUnspecified), Weight: 0.005},
}

// Demographic generates names, gender, date of birth and SSN.
// Household members derive age, gender and surname from the head according to their role.
type Demographic struct {
	base
}

func (g *Demographic) Name() string { return "demographic" }

func (g *Demographic) Generate(r *rand.Rand, s Subject) error {
	p := s.Person
	if len(g.ref.LastNames()) == 0 {
		return fmt.Errorf("last names: %w", ErrEmptyReferenceData)
	}

	p.Gender = g.gender(r, s)
	age := g.ageFor(r, s)
	p.DateOfBirth = persons.NewDate(g.now.Time.AddDate(-age, 0, -r.IntN(365)))

	nameGender := string(p.Gender)
	if p.Gender != persons.GenderMale && p.Gender != persons.GenderFemale {
		nameGender = refdata.Pick(r, []string{"M", "F"})
	}

	culture := refdata.PickWeighted(r, g.ref.CulturalWeights())
	p.FirstName = g.firstName(r, culture, nameGender, p.DateOfBirth.Time.Year())

	if chance(r, 0.7) {
		middle := g.firstName(r, refdata.CultureAnglo, nameGender, p.DateOfBirth.Time.Year())
		if middle != p.FirstName {
			p.MiddleName = persons.StringPtr(middle)
		}
	}

	own := g.lastName(r, culture)
	p.LastName = own
	g.applyFamilyName(r, s, own)

	if nicks := g.ref.Nicknames(p.FirstName); len(nicks) > 0 && chance(r, 0.25) {
		p.Nickname = persons.StringPtr(refdata.Pick(r, nicks))
	}

	p.Prefix = g.prefix(r, p.Gender, age)
	p.Suffix = g.suffix(r, p.Gender, age)
	p.SSN = persons.StringPtr(SSN(r))

	return nil
}

func (g *Demographic) gender(r *rand.Rand, s Subject) persons.Gender {
	if s.Head != nil && s.Role() == persons.RoleSpouse && chance(r, 0.9) {
		switch s.Head.Gender {
		case persons.GenderMale:
			return persons.GenderFemale
		case persons.GenderFemale:
			return persons.GenderMale
		}
	}

	return persons.Gender(refdata.PickWeighted(r, genderWeights))
}

func (g *Demographic) ageFor(r *rand.Rand, s Subject) int {
	if s.Head != nil {
		headAge := g.age(s.Head)
		switch s.Role() {
		case persons.RoleSpouse:
			return clampAge(headAge + between(r, -8, 8))
		case persons.RoleChild:
			return clampAge(between(r, max(minAge, headAge-40), headAge-20))
		case persons.RoleSibling:
			return clampAge(headAge + between(r, -10, 10))
		}
	}

	i := 0
	x := r.Float64() * 0.80
	for i = range ageBands {
		x -= ageBands[i].weight
		if x < 0 {
			break
		}
	}

	return between(r, ageBands[i].lo, ageBands[i].hi)
}

func clampAge(age int) int {
	return max(minAge, min(maxAge, age))
}

func (g *Demographic) firstName(r *rand.Rand, culture, gender string, birthYear int) string {
	if names := g.ref.CulturalFirstNames(culture, gender); len(names) > 0 && chance(r, 0.8) {
		return refdata.Pick(r, names)
	}

	if g.cfg.Features.TemporalPatterns && chance(r, 0.5) {
		if names := g.ref.DecadeNames(birthYear, gender); len(names) > 0 {
			return refdata.Pick(r, names)
		}
	}

	return refdata.Pick(r, g.ref.FirstNames(gender))
}

func (g *Demographic) lastName(r *rand.Rand, culture string) string {
	if names := g.ref.CulturalLastNames(culture); len(names) > 0 && chance(r, 0.6) {
		return refdata.Pick(r, names)
	}

	if pairs := g.ref.HyphenatedLastNames(); len(pairs) > 0 && chance(r, 0.03) {
		pair := refdata.Pick(r, pairs)
		return pair[0] + "-" + pair[1]
	}

	return refdata.Pick(r, g.ref.LastNames())
}

// applyFamilyName shares the head's surname by role. A spouse who takes it keeps the own
// surname as maiden name.
func (g *Demographic) applyFamilyName(r *rand.Rand, s Subject, own string) {
	p := s.Person

	if s.Head == nil {
		if p.Gender == persons.GenderFemale && g.age(p) >= 25 && chance(r, 0.15) {
			maiden := refdata.Pick(r, g.ref.LastNames())
			if maiden != p.LastName {
				p.MaidenName = persons.StringPtr(maiden)
			}
		}
		return
	}

	switch s.Role() {
	case persons.RoleSpouse:
		if chance(r, 0.7) && own != s.Head.LastName {
			p.LastName = s.Head.LastName
			p.MaidenName = persons.StringPtr(own)
		}
	case persons.RoleChild, persons.RoleSibling:
		p.LastName = s.Head.LastName
	}
}

func (g *Demographic) prefix(r *rand.Rand, gender persons.Gender, age int) *string {
	if !chance(r, 0.3) {
		return nil
	}

	if age >= 30 && chance(r, 0.05) {
		return persons.StringPtr(refdata.Pick(r, g.ref.ProfessionalPrefixes()))
	}

	switch gender {
	case persons.GenderMale:
		return persons.StringPtr(refdata.Pick(r, g.ref.Prefixes("M")))
	case persons.GenderFemale:
		options := g.ref.Prefixes("F")
		if age < 30 {
			options = slices.DeleteFunc(slices.Clone(options), func(s string) bool { return s == "Mrs." })
		}
		return persons.StringPtr(refdata.Pick(r, options))
	default:
		return nil
	}
}

func (g *Demographic) suffix(r *rand.Rand, gender persons.Gender, age int) *string {
	if gender == persons.GenderMale && chance(r, 0.04) {
		return persons.StringPtr(refdata.Pick(r, g.ref.GenerationalSuffixes()))
	}

	if age >= 27 && chance(r, 0.03) {
		return persons.StringPtr(refdata.Pick(r, g.ref.ProfessionalSuffixes()))
	}

	return nil
}

// SSN returns a structurally valid social security number: area 001-899 without 666,
// group 01-99 and serial 0001-9999.
func SSN(r *rand.Rand) string {
	area := between(r, 1, 898)
	if area >= 666 {
		area++
	}

	return fmt.Sprintf("%03d-%02d-%04d", area, between(r, 1, 99), between(r, 1, 9999))
}
