// Package generators produces the attributes of a Person from a per-record random source.
//
// The set of generators is closed: Pipeline returns them in their fixed order
// (demographic, address, contact, employment, financial, then the extended profiles
// education, physical, vehicle, online and communication) and each one only reads fields
// written by generators that ran before it.
package generators

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
)

// ErrEmptyReferenceData is returned when a generator needs a reference table that has no rows.
var ErrEmptyReferenceData = errors.New("reference table is empty")

// Subject is the record under construction.
// Head is set for household members other than the head and holds the head's clean record.
type Subject struct {
	Person *persons.Person
	Head   *persons.Person
}

// Role returns the household role of the subject, or "" when it is not in a household.
func (s Subject) Role() persons.HouseholdRole {
	if s.Person.Household == nil {
		return ""
	}

	return s.Person.Household.Role
}

// Generator fills one attribute group of a Person.
type Generator interface {
	Name() string
	Generate(r *rand.Rand, s Subject) error

	sealed()
}

type base struct {
	cfg persons.GenerationConfig
	ref *refdata.Context
	now persons.Date
}

func (base) sealed() {}

func newBase(cfg persons.GenerationConfig, ref *refdata.Context) base {
	return base{cfg: cfg, ref: ref, now: persons.NewDate(cfg.ReferenceDate)}
}

// Pipeline returns all generators in generation order.
func Pipeline(cfg persons.GenerationConfig, ref *refdata.Context) []Generator {
	b := newBase(cfg, ref)

	return []Generator{
		&Demographic{base: b},
		&Address{base: b},
		&Contact{base: b},
		&Employment{base: b},
		&Financial{base: b},
		&Education{base: b},
		&Physical{base: b},
		&Vehicles{base: b},
		&Online{base: b},
		&Communication{base: b},
	}
}

func chance(r *rand.Rand, p float64) bool {
	return r.Float64() < p
}

// between returns a uniform integer in [lo, hi].
func between(r *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}

	return lo + r.IntN(hi-lo+1)
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow10(places)

	return math.Round(v*scale) / scale
}

func (b base) age(p *persons.Person) int {
	return p.DateOfBirth.AgeAt(b.now)
}
