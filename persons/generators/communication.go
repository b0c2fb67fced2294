package generators

import (
	"math/rand/v2"
	"slices"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
)

const (
	TimeMorning   = "morning"
	TimeAfternoon = "afternoon"
	TimeEvening   = "evening"
	TimeWeekend   = "weekend"

	languageEnglish = "English"
	languageSpanish = "Spanish"
)

var channels = []persons.ContactChannel{
	persons.ChannelEmail,
	persons.ChannelSMS,
	persons.ChannelPhone,
	persons.ChannelMail,
	persons.ChannelApp,
}

// channel preference by age band, in channels order
var (
	youngChannels  = []float64{30, 35, 5, 5, 25}
	adultChannels  = []float64{40, 25, 20, 5, 10}
	seniorChannels = []float64{25, 10, 40, 25, 0}
)

// Communication generates contact preferences. The preferred channel is drawn only from the
// channels the person can be reached on: valid emails, phones not on the do-not-call list,
// a postal address and, for people active online, an app.
type Communication struct {
	base
}

func (g *Communication) Name() string { return "communication" }

func (g *Communication) Generate(r *rand.Rand, s Subject) error {
	p := s.Person
	age := g.age(p)

	var weights []float64
	switch {
	case age < 30:
		weights = slices.Clone(youngChannels)
	case age < 65:
		weights = slices.Clone(adultChannels)
	default:
		weights = slices.Clone(seniorChannels)
	}

	reachable := g.reachable(p)
	anyReachable := false
	for i, ch := range channels {
		if !reachable[ch] {
			weights[i] = 0
		}
		anyReachable = anyReachable || weights[i] > 0
	}

	preferred := persons.ChannelMail
	if anyReachable {
		preferred = channels[refdata.PickIndex(r, weights)]
	}

	optIn := 0.35
	if age >= 65 {
		optIn = 0.25
	}

	p.Communication = &persons.CommunicationProfile{
		PreferredChannel: preferred,
		PreferredTime:    g.preferredTime(r, p),
		Languages:        g.languages(r, p),
		MarketingOptIn:   chance(r, optIn),
	}

	return nil
}

func (g *Communication) reachable(p *persons.Person) map[persons.ContactChannel]bool {
	reachable := map[persons.ContactChannel]bool{}

	for _, e := range p.Emails {
		if e.IsValid && !e.IsBounced {
			reachable[persons.ChannelEmail] = true
		}
	}

	for _, ph := range p.Phones {
		if !ph.IsValid || ph.DoNotCall || ph.Type == persons.PhoneFax {
			continue
		}
		reachable[persons.ChannelPhone] = true
		if ph.Type == persons.PhoneMobile {
			reachable[persons.ChannelSMS] = true
			reachable[persons.ChannelApp] = p.Online != nil && len(p.Online.Accounts) >= 2
		}
	}

	if _, ok := p.PrimaryAddress(); ok {
		reachable[persons.ChannelMail] = true
	}

	return reachable
}

func (g *Communication) preferredTime(r *rand.Rand, p *persons.Person) string {
	if _, ok := p.CurrentEmployment(); ok {
		return refdata.PickWeighted(r, []refdata.Weighted{
			{Value: TimeMorning, Weight: 15},
			{Value: TimeAfternoon, Weight: 15},
			{Value: TimeEvening, Weight: 50},
			{Value: TimeWeekend, Weight: 20},
		})
	}

	return refdata.PickWeighted(r, []refdata.Weighted{
		{Value: TimeMorning, Weight: 40},
		{Value: TimeAfternoon, Weight: 40},
		{Value: TimeEvening, Weight: 20},
	})
}

// languages always starts with English. Hispanic surnames make Spanish likely.
func (g *Communication) languages(r *rand.Rand, p *persons.Person) []string {
	languages := []string{languageEnglish}

	switch {
	case slices.Contains(g.ref.CulturalLastNames(refdata.CultureHispanic), p.LastName) && chance(r, 0.7):
		languages = append(languages, languageSpanish)
	case chance(r, 0.12):
		languages = append(languages, refdata.PickWeighted(r, g.ref.Languages()))
	}

	return languages
}
