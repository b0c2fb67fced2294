package generators

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

const maxScreenHours = 12

// Online generates social media accounts. Platform adoption follows age, professional
// networks follow seniority and handles are built from the person's name.
type Online struct {
	base
}

func (g *Online) Name() string { return "online" }

func (g *Online) Generate(r *rand.Rand, s Subject) error {
	p := s.Person
	age := g.age(p)
	current, employed := p.CurrentEmployment()

	accounts := []persons.SocialAccount{}
	for _, platform := range g.ref.SocialPlatforms() {
		adoption := platform.Adoption(age)
		followers := float64(platform.Followers)

		if platform.Professional {
			switch {
			case !employed:
				adoption *= 0.3
			case current.Level == persons.LevelSenior || current.Level == persons.LevelExecutive:
				adoption = math.Min(0.95, adoption*1.5)
				followers *= 3
			}
		}

		if !chance(r, adoption) {
			continue
		}

		handle := Username(r, p.FirstName, p.LastName, p.DateOfBirth.Time.Year())
		if platform.Professional {
			handle = strings.ReplaceAll(strings.ReplaceAll(handle, ".", "-"), "_", "-")
		}

		accounts = append(accounts, persons.SocialAccount{
			Platform:  platform.Name,
			Handle:    handle,
			Followers: int(math.Round(followers * math.Exp(1.2*r.NormFloat64()))),
			IsPrivate: !platform.Professional && chance(r, privateShare(age)),
		})
	}

	hours := 3.2
	switch {
	case age < 30:
		hours = 4.5
	case age >= 65:
		hours = 2.0
	}
	if len(accounts) == 0 {
		hours *= 0.6
	}

	p.Online = &persons.OnlinePresence{
		Accounts:         accounts,
		DailyScreenHours: roundTo(clamp(hours+r.NormFloat64(), 0.2, maxScreenHours), 1),
	}

	return nil
}

func privateShare(age int) float64 {
	if age < 25 {
		return 0.45
	}

	return 0.35
}
