package generators

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/seed"
)

const country = "US"

type addressStyle int

const (
	styleStandard addressStyle = iota
	stylePOBox
	styleRural
	styleMilitary
)

var addressStyleWeights = []float64{0.85, 0.08, 0.04, 0.03}

var secondaryAddressTypes = []persons.AddressType{persons.AddressBilling, persons.AddressShipping, persons.AddressWork}

// place is one reference row: city, state and the zip prefixes valid for both.
type place struct {
	city  string
	state string
	zip3  []string
}

// Address generates the current address and the address history of a person.
// The first address is always the primary, current one. Previous addresses follow oldest first.
type Address struct {
	base
}

func (g *Address) Name() string { return "address" }

func (g *Address) Generate(r *rand.Rand, s Subject) error {
	p := s.Person
	if len(g.ref.Cities()) == 0 {
		return fmt.Errorf("cities: %w", ErrEmptyReferenceData)
	}

	n := between(r, g.cfg.AddressesPerPerson.Min, g.cfg.AddressesPerPerson.Max)
	adulthood := persons.NewDate(p.DateOfBirth.Time.AddDate(minAge, 0, 0))

	current := g.current(r, s, adulthood)
	current.ID = seed.ChildID(p.ID, seed.KindAddress, 0)

	var previous, secondary []persons.Address
	cursor := current.EffectiveDate
	for k := 1; k < n; k++ {
		end := persons.NewDate(cursor.Time.AddDate(0, 0, -between(r, 1, 30)))
		if chance(r, 0.3) || !p.DateOfBirth.Before(end) {
			a := g.build(r, g.nearby(r, current.State), styleStandard)
			a.Type = refdata.Pick(r, secondaryAddressTypes)
			a.EffectiveDate = current.EffectiveDate
			secondary = append(secondary, a)
			continue
		}

		a := g.build(r, g.nearby(r, current.State), g.style(r))
		a.Type = persons.AddressPrevious
		a.EndDate = &end
		a.EffectiveDate = persons.NewDate(end.Time.AddDate(-between(r, 2, 15), 0, -r.IntN(365)))
		if a.EffectiveDate.Before(p.DateOfBirth) {
			a.EffectiveDate = p.DateOfBirth
		}
		cursor = a.EffectiveDate
		previous = append(previous, a)
	}

	slices.Reverse(previous)

	p.Addresses = append([]persons.Address{current}, previous...)
	p.Addresses = append(p.Addresses, secondary...)
	for i := 1; i < len(p.Addresses); i++ {
		p.Addresses[i].ID = seed.ChildID(p.ID, seed.KindAddress, i)
	}

	return nil
}

func (g *Address) current(r *rand.Rand, s Subject, adulthood persons.Date) persons.Address {
	var a persons.Address
	if s.Head != nil {
		if shared, ok := s.Head.PrimaryAddress(); ok {
			a = shared
			a.Street2 = cloneString(shared.Street2)
			a.EndDate = nil
		}
	}

	if a.City == "" {
		a = g.build(r, g.pickPlace(r), g.style(r))
		moved := between(r, 0, 10*365)
		a.EffectiveDate = persons.NewDate(g.now.Time.AddDate(0, 0, -moved))
	}

	if a.EffectiveDate.Before(adulthood) {
		a.EffectiveDate = adulthood
	}
	if g.now.Before(a.EffectiveDate) {
		a.EffectiveDate = g.now
	}

	a.Type = persons.AddressCurrent
	a.IsPrimary = true

	return a
}

func (g *Address) build(r *rand.Rand, pl place, style addressStyle) persons.Address {
	a := persons.Address{
		City:    pl.city,
		State:   pl.state,
		Country: country,
		IsValid: !chance(r, 0.02),
	}

	switch style {
	case stylePOBox:
		a.Street1 = fmt.Sprintf("PO Box %d", between(r, 1, 99999))
	case styleRural:
		a.Street1 = fmt.Sprintf("RR %d Box %d", between(r, 1, 30), between(r, 1, 999))
	case styleMilitary:
		mil := refdata.Pick(r, g.ref.MilitaryPostal())
		a.City, a.State = mil.City, mil.State
		pl.zip3 = mil.Zip3
		a.Street1 = fmt.Sprintf("PSC %d, Box %d", between(r, 1000, 9999), between(r, 1, 9999))
	default:
		a.Street1 = g.street(r)
		if chance(r, 0.25) {
			a.Street2 = persons.StringPtr(fmt.Sprintf("%s %d", refdata.Pick(r, g.ref.ApartmentPrefixes()), between(r, 1, 999)))
		}
	}

	a.Zip = fmt.Sprintf("%s%02d", refdata.Pick(r, pl.zip3), r.IntN(100))
	if chance(r, 0.3) {
		a.Zip += fmt.Sprintf("-%04d", between(r, 1, 9999))
	}

	return a
}

func (g *Address) street(r *rand.Rand) string {
	number := between(r, 1, 9999)
	if chance(r, 0.1) {
		number = between(r, 10000, 99999)
	}

	return fmt.Sprintf("%d %s %s", number, refdata.Pick(r, g.ref.StreetNames()), refdata.Pick(r, g.ref.StreetTypes()))
}

func (g *Address) style(r *rand.Rand) addressStyle {
	if len(g.ref.MilitaryPostal()) == 0 {
		return styleStandard
	}

	return addressStyle(refdata.PickIndex(r, addressStyleWeights))
}

// pickPlace chooses a city. With geographic clustering, states are weighted by the configured
// distribution (or population) and cities within the state by population.
func (g *Address) pickPlace(r *rand.Rand) place {
	if !g.cfg.Features.GeographicClustering {
		return toPlace(refdata.Pick(r, g.ref.Cities()))
	}

	states := g.ref.States()
	weights := make([]float64, len(states))
	for i, state := range states {
		if len(g.cfg.GeographicDistribution) > 0 {
			weights[i] = g.cfg.GeographicDistribution[state]
		} else {
			weights[i] = float64(g.ref.StatePopulation(state))
		}
	}

	return g.pickCityIn(r, states[refdata.PickIndex(r, weights)])
}

func (g *Address) pickCityIn(r *rand.Rand, state string) place {
	cities := g.ref.CitiesIn(state)
	weights := make([]float64, len(cities))
	for i, c := range cities {
		weights[i] = float64(c.Population)
	}

	return toPlace(cities[refdata.PickIndex(r, weights)])
}

// nearby keeps most moves within the state when clustering is enabled.
func (g *Address) nearby(r *rand.Rand, state string) place {
	if g.cfg.Features.GeographicClustering && len(g.ref.CitiesIn(state)) > 0 && chance(r, 0.7) {
		return g.pickCityIn(r, state)
	}

	return g.pickPlace(r)
}

func toPlace(c refdata.City) place {
	return place{city: c.Name, state: c.State, zip3: c.Zip3}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}

	return persons.StringPtr(*s)
}
