package generators

import (
	"math"
	"math/rand/v2"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
)

const (
	minHeightCM = 140
	maxHeightCM = 210
	minBMI      = 16
	maxBMI      = 50
)

type heightBand struct{ mean, sd float64 }

var heights = map[persons.Gender]heightBand{
	persons.GenderMale:   {mean: 176, sd: 7},
	persons.GenderFemale: {mean: 162, sd: 6.5},
}

// Physical generates body measurements from gender and age. Weight is derived from a sampled
// BMI, so height, weight and BMI always agree.
type Physical struct {
	base
}

func (g *Physical) Name() string { return "physical" }

func (g *Physical) Generate(r *rand.Rand, s Subject) error {
	p := s.Person
	age := g.age(p)

	band, ok := heights[p.Gender]
	if !ok {
		band = heightBand{mean: 169, sd: 8}
	}
	height := roundTo(clamp(band.mean+band.sd*r.NormFloat64(), minHeightCM, maxHeightCM), 1)

	// BMI rises until about sixty
	bmi := clamp(26.5+4.5*r.NormFloat64()+0.08*float64(min(age, 60)-40), minBMI, maxBMI)
	meters := height / 100
	weight := roundTo(bmi*meters*meters, 1)

	p.Physical = &persons.PhysicalProfile{
		HeightCM:  height,
		WeightKG:  weight,
		BMI:       roundTo(weight/(meters*meters), 1),
		EyeColor:  refdata.PickWeighted(r, g.ref.EyeColors()),
		HairColor: g.hair(r, age),
		BloodType: refdata.PickWeighted(r, g.ref.BloodTypes()),
	}

	return nil
}

func (g *Physical) hair(r *rand.Rand, age int) string {
	if age >= 50 && chance(r, math.Min(0.9, float64(age-45)/50)) {
		if age >= 75 && chance(r, 0.5) {
			return "white"
		}

		return "gray"
	}

	return refdata.PickWeighted(r, g.ref.HairColors())
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
