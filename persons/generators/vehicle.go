package generators

import (
	"math"
	"math/rand/v2"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
)

const (
	maxVehicleAgeYears  = 20
	vehicleDepreciation = 0.85
	leaseMinCreditScore = 680
	defaultIncome       = 45000
)

// Vehicles generates the driver's license and registered vehicles. Vehicle count and the share
// of luxury models follow income; leasing needs a good credit score. Vehicles are registered in
// the state of the current address.
type Vehicles struct {
	base
}

func (g *Vehicles) Name() string { return "vehicle" }

func (g *Vehicles) Generate(r *rand.Rand, s Subject) error {
	p := s.Person
	age := g.age(p)

	income, score := float64(defaultIncome), 0
	if f := p.Financial; f != nil {
		income, score = f.AnnualIncome, f.CreditScore
	}

	profile := &persons.VehicleProfile{Vehicles: []persons.Vehicle{}}

	current, hasAddress := p.PrimaryAddress()
	licensed := hasAddress && chance(r, licenseRate(age))
	if licensed {
		profile.HasDriversLicense = true
		profile.LicenseState = persons.StringPtr(current.State)
	}

	if hasAddress {
		for range g.count(r, licensed, income) {
			profile.Vehicles = append(profile.Vehicles, g.vehicle(r, income, score, current.State))
		}
	}

	p.Vehicle = profile

	return nil
}

func licenseRate(age int) float64 {
	switch {
	case age < 25:
		return 0.8
	case age < 80:
		return 0.92
	default:
		return 0.65
	}
}

func (g *Vehicles) count(r *rand.Rand, licensed bool, income float64) int {
	if !licensed {
		if chance(r, 0.05) {
			return 1
		}

		return 0
	}

	if chance(r, 0.08) {
		return 0
	}

	n := 1
	if income > 60000 && chance(r, 0.45) || income <= 60000 && chance(r, 0.15) {
		n++
	}
	if income > 150000 && chance(r, 0.3) {
		n++
	}

	return n
}

func (g *Vehicles) vehicle(r *rand.Rand, income float64, score int, state string) persons.Vehicle {
	models := g.ref.VehicleModels()

	luxury := 1.0
	switch {
	case income > 120000:
		luxury = 4
	case income < 50000:
		luxury = 0.3
	}

	weights := make([]float64, len(models))
	for i, m := range models {
		weights[i] = m.Weight
		if m.Luxury {
			weights[i] *= luxury
		}
	}
	m := models[refdata.PickIndex(r, weights)]

	years := min(maxVehicleAgeYears, int(r.ExpFloat64()*5))

	return persons.Vehicle{
		Year:              g.now.Time.Year() - years,
		Make:              m.Make,
		Model:             m.Model,
		BodyType:          m.Body,
		Ownership:         ownership(r, years, score),
		EstimatedValue:    math.Round(m.Price*math.Pow(vehicleDepreciation, float64(years))/100) * 100,
		RegistrationState: state,
	}
}

func ownership(r *rand.Rand, years, score int) persons.VehicleOwnership {
	if years <= 5 {
		switch x := r.Float64(); {
		case x < 0.2 && score >= leaseMinCreditScore:
			return persons.OwnershipLeased
		case x < 0.7:
			return persons.OwnershipFinanced
		}

		return persons.OwnershipOwned
	}

	if chance(r, 0.15) {
		return persons.OwnershipFinanced
	}

	return persons.OwnershipOwned
}
