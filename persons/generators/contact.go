package generators

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/seed"
)

const countryCodeUS = "1"

var usernamePatterns = []string{
	"{first}.{last}",
	"{first}{last}",
	"{f}{last}",
	"{first}{l}",
	"{first}_{last}",
	"{last}.{first}",
	"{first}.{last}{n}",
	"{first}{n}",
}

// Contact generates phone numbers and email addresses. Area codes follow the state of the
// current address when the state has known area codes.
// Work email addresses get the employer's domain from the employment generator.
type Contact struct {
	base
}

func (g *Contact) Name() string { return "contact" }

func (g *Contact) Generate(r *rand.Rand, s Subject) error {
	p := s.Person
	if len(g.ref.PersonalEmailDomains()) == 0 {
		return fmt.Errorf("email domains: %w", ErrEmptyReferenceData)
	}

	codes := g.ref.AllAreaCodes()
	if current, ok := p.PrimaryAddress(); ok {
		if local := g.ref.AreaCodes(current.State); len(local) > 0 {
			codes = local
		}
	}

	phones := between(r, g.cfg.PhonesPerPerson.Min, g.cfg.PhonesPerPerson.Max)
	p.Phones = make([]persons.PhoneNumber, 0, phones)
	for k := 0; k < phones; k++ {
		ph := g.phone(r, codes, k)
		ph.ID = seed.ChildID(p.ID, seed.KindPhone, k)
		ph.IsPrimary = k == 0
		p.Phones = append(p.Phones, ph)
	}

	emails := between(r, g.cfg.EmailsPerPerson.Min, g.cfg.EmailsPerPerson.Max)
	p.Emails = make([]persons.EmailAddress, 0, emails)
	for k := 0; k < emails; k++ {
		kind := persons.EmailPersonal
		if k > 0 && chance(r, 0.4) {
			kind = persons.EmailWork
		}

		domain := refdata.PickWeighted(r, g.ref.PersonalEmailDomains())
		e := persons.EmailAddress{
			ID:        seed.ChildID(p.ID, seed.KindEmail, k),
			Address:   Username(r, p.FirstName, p.LastName, p.DateOfBirth.Time.Year()) + "@" + domain,
			Type:      kind,
			Domain:    domain,
			IsPrimary: k == 0,
			IsValid:   !chance(r, 0.03),
			IsBounced: chance(r, 0.03),
		}
		p.Emails = append(p.Emails, e)
	}

	return nil
}

func (g *Contact) phone(r *rand.Rand, codes []string, k int) persons.PhoneNumber {
	kind := persons.PhoneMobile
	switch {
	case k == 0 && chance(r, 0.2):
		kind = persons.PhoneHome
	case k > 0:
		kind = refdata.Pick(r, []persons.PhoneType{persons.PhoneHome, persons.PhoneWork, persons.PhoneWork, persons.PhoneMobile, persons.PhoneFax})
	}

	ph := persons.PhoneNumber{
		Type:        kind,
		CountryCode: countryCodeUS,
		AreaCode:    refdata.Pick(r, codes),
		Number:      Exchange(r) + "-" + Line(r),
		IsValid:     !chance(r, 0.03),
		DoNotCall:   chance(r, 0.15),
	}

	if kind == persons.PhoneWork && chance(r, 0.4) {
		ph.Extension = persons.StringPtr(strconv.Itoa(between(r, 100, 9999)))
	}

	return ph
}

// Exchange returns a NANP central office code: first digit 2-9 and never N11.
func Exchange(r *rand.Rand) string {
	first := between(r, 2, 9)
	second := r.IntN(10)
	third := r.IntN(10)
	if second == 1 && third == 1 {
		third = between(r, 2, 9)
	}

	return fmt.Sprintf("%d%d%d", first, second, third)
}

// Line returns a four-digit subscriber number that is not a single repeated digit.
func Line(r *rand.Rand) string {
	n := r.IntN(10000)
	if n%1111 == 0 {
		n = between(r, 1000, 9998)
		if n%1111 == 0 {
			n++
		}
	}

	return fmt.Sprintf("%04d", n)
}

// Username builds an email local part from a name.
func Username(r *rand.Rand, first, last string, birthYear int) string {
	f := slug(first)
	l := slug(last)
	if f == "" {
		f = "x"
	}
	if l == "" {
		l = "x"
	}

	suffix := ""
	switch {
	case chance(r, 0.3):
		suffix = fmt.Sprintf("%02d", birthYear%100)
	case chance(r, 0.2):
		suffix = strconv.Itoa(between(r, 1, 999))
	}

	name := strings.NewReplacer(
		"{first}", f,
		"{last}", l,
		"{f}", f[:1],
		"{l}", l[:1],
		"{n}", suffix,
	).Replace(refdata.Pick(r, usernamePatterns))

	if !strings.ContainsAny(name[len(name)-1:], "0123456789") && suffix != "" && chance(r, 0.5) {
		name += suffix
	}

	return name
}

// Domain derives a company email domain from an employer name.
func Domain(employer string) string {
	d := slug(employer)
	if d == "" {
		d = "company"
	}

	return d + ".com"
}

func slug(s string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(s) {
		if c < unicode.MaxASCII && (unicode.IsLetter(c) || unicode.IsDigit(c)) {
			b.WriteRune(c)
		}
	}

	return b.String()
}
