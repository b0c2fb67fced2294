package correlation

import (
	"math"
	"math/rand/v2"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

// SalaryBand returns the inclusive salary range of a level in an industry.
func SalaryBand(industryMultiplier float64, level persons.JobLevel) (float64, float64) {
	if industryMultiplier <= 0 {
		industryMultiplier = 1
	}

	mid := BaseIncome * industryMultiplier * LevelMultiplier(level)

	return math.Round(mid * 0.6), math.Round(mid * 1.6)
}

// Salary samples a salary inside the band, rounded to 500.
func Salary(r *rand.Rand, industryMultiplier float64, level persons.JobLevel) float64 {
	lo, hi := SalaryBand(industryMultiplier, level)

	return ClampSalary(lo+(hi-lo)*r.Float64(), industryMultiplier, level)
}

// RaiseSalary applies a 5-25% raise for a job move and keeps the result inside the new band.
func RaiseSalary(r *rand.Rand, previous, industryMultiplier float64, level persons.JobLevel) float64 {
	return ClampSalary(previous*(1.05+0.2*r.Float64()), industryMultiplier, level)
}

// ClampSalary rounds to 500 and clamps into the band.
func ClampSalary(salary, industryMultiplier float64, level persons.JobLevel) float64 {
	lo, hi := SalaryBand(industryMultiplier, level)
	rounded := math.Round(salary/500) * 500

	return clamp(rounded, lo, hi)
}
