package variability

import (
	"math/rand/v2"
	"slices"
	"strings"
	"unicode"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
)

// TypoKind is the kind of typing error.
type TypoKind int

const (
	TypoSwap TypoKind = iota
	TypoDrop
	TypoDouble
	TypoAdjacentKey
	TypoCase
	TypoMisspelling
)

var typoKinds = []TypoKind{TypoSwap, TypoDrop, TypoDouble, TypoAdjacentKey, TypoCase}

func (e *Engine) applyTypos(r *rand.Rand, p *persons.Person) {
	if e.profile.TypoRate == 0 {
		return
	}

	e.typo(r, p, &p.FirstName, FieldFirstName)
	e.typo(r, p, &p.LastName, FieldLastName)
	if p.MiddleName != nil && len([]rune(*p.MiddleName)) > 2 {
		e.typo(r, p, p.MiddleName, FieldMiddleName)
	}

	for i := range p.Addresses {
		e.typo(r, p, &p.Addresses[i].Street1, FieldStreet1)
		e.typo(r, p, &p.Addresses[i].City, FieldCity)
	}

	for i := range p.Emails {
		local, domain, ok := strings.Cut(p.Emails[i].Address, "@")
		if ok && hit(r, e.profile.TypoRate) {
			p.Emails[i].Address = e.IntroduceTypo(r, local) + "@" + domain
			p.AddDefect(FieldEmail, persons.DefectTypo)
		}
	}

	for i := range p.Employment {
		e.typo(r, p, &p.Employment[i].Employer, FieldEmployer)
		e.typo(r, p, &p.Employment[i].Title, FieldJobTitle)
	}
}

func (e *Engine) typo(r *rand.Rand, p *persons.Person, field *string, name string) {
	if len([]rune(*field)) < 2 || !hit(r, e.profile.TypoRate) {
		return
	}

	*field = e.IntroduceTypo(r, *field)
	p.AddDefect(name, persons.DefectTypo)
}

// IntroduceTypo returns s with one typing error. Known words are replaced by a common
// misspelling some of the time. Strings of two or more characters always change and never
// become empty.
func (e *Engine) IntroduceTypo(r *rand.Rand, s string) string {
	if len([]rune(s)) < 2 {
		return s
	}

	if out, ok := e.misspell(r, s); ok && r.IntN(3) == 0 {
		return out
	}

	for attempt := 0; attempt < 3; attempt++ {
		if out := e.ApplyTypo(r, s, refdata.Pick(r, typoKinds)); out != s {
			return out
		}
	}

	runes := []rune(s)

	return s + string(runes[len(runes)-1])
}

// ApplyTypo applies one typo of the given kind at a random position.
func (e *Engine) ApplyTypo(r *rand.Rand, s string, kind TypoKind) string {
	runes := []rune(s)
	if len(runes) < 2 {
		return s
	}

	i := r.IntN(len(runes) - 1)

	switch kind {
	case TypoSwap:
		runes[i], runes[i+1] = runes[i+1], runes[i]
	case TypoDrop:
		runes = append(runes[:i], runes[i+1:]...)
	case TypoDouble:
		runes = slices.Insert(runes, i, runes[i])
	case TypoAdjacentKey:
		lower := unicode.ToLower(runes[i])
		if adjacent := e.ref.AdjacentKeys(lower); len(adjacent) > 0 {
			sub := refdata.Pick(r, adjacent)
			if unicode.IsUpper(runes[i]) {
				sub = unicode.ToUpper(sub)
			}
			runes[i] = sub
		}
	case TypoCase:
		for j := i; j < len(runes); j++ {
			if unicode.IsLetter(runes[j]) {
				if unicode.IsUpper(runes[j]) {
					runes[j] = unicode.ToLower(runes[j])
				} else {
					runes[j] = unicode.ToUpper(runes[j])
				}
				break
			}
		}
	case TypoMisspelling:
		if out, ok := e.misspell(r, s); ok {
			return out
		}
	}

	return string(runes)
}

func (e *Engine) misspell(r *rand.Rand, s string) (string, bool) {
	words := strings.Fields(s)
	for i, w := range words {
		if options := e.ref.Misspellings(w); len(options) > 0 {
			words[i] = refdata.Pick(r, options)
			return strings.Join(words, " "), true
		}
	}

	return s, false
}
