package variability

import (
	"math/rand/v2"
	"strings"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
)

// FormatKind selects the family of alternative formats.
type FormatKind string

const (
	FormatPhone FormatKind = "phone"
	FormatDate  FormatKind = "date"
	FormatSSN   FormatKind = "ssn"
	FormatName  FormatKind = "name"
)

// DateLayouts are the alternative render layouts of dates.
var DateLayouts = []string{
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"20060102",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-Jan-2006",
	"1/2/06",
}

func (e *Engine) applyFormats(r *rand.Rand, p *persons.Person) {
	rate := e.profile.FormatRate
	if rate == 0 {
		return
	}

	if p.SSN != nil && hit(r, rate) {
		p.SSN = persons.StringPtr(e.VaryFormat(r, FormatSSN, *p.SSN))
		p.AddDefect(FieldSSN, persons.DefectFormat)
	}

	if hit(r, rate) {
		p.DateOfBirth = VaryDate(r, p.DateOfBirth)
		p.AddDefect(FieldDateOfBirth, persons.DefectFormat)
	}

	if hit(r, rate) {
		p.FirstName = e.VaryFormat(r, FormatName, p.FirstName)
		p.AddDefect(FieldFirstName, persons.DefectFormat)
	}

	if hit(r, rate) {
		p.LastName = e.VaryFormat(r, FormatName, p.LastName)
		p.AddDefect(FieldLastName, persons.DefectFormat)
	}

	for i := range p.Phones {
		if hit(r, rate) {
			p.Phones[i].Number = e.VaryFormat(r, FormatPhone, p.Phones[i].Number)
			p.AddDefect(FieldPhoneNumber, persons.DefectFormat)
		}
	}

	for i := range p.Addresses {
		if hit(r, rate) {
			p.Addresses[i].EffectiveDate = VaryDate(r, p.Addresses[i].EffectiveDate)
			p.AddDefect(FieldEffectiveDate, persons.DefectFormat)
		}
	}

	for i := range p.Employment {
		if hit(r, rate) {
			p.Employment[i].StartDate = VaryDate(r, p.Employment[i].StartDate)
			p.AddDefect(FieldStartDate, persons.DefectFormat)
		}
	}
}

// VaryFormat renders value in an alternative format of the given kind.
// Values the kind does not recognize are returned unchanged.
func (e *Engine) VaryFormat(r *rand.Rand, kind FormatKind, value string) string {
	switch kind {
	case FormatPhone:
		d := digits(value)
		if len(d) != 7 {
			return value
		}
		return refdata.Pick(r, []string{
			d,
			d[:3] + "." + d[3:],
			d[:3] + " " + d[3:],
			d[:3] + " - " + d[3:],
		})
	case FormatSSN:
		d := digits(value)
		if len(d) != 9 {
			return value
		}
		return refdata.Pick(r, []string{
			d,
			d[:3] + " " + d[3:5] + " " + d[5:],
			d[:3] + "." + d[3:5] + "." + d[5:],
			d[:3] + "/" + d[3:5] + "/" + d[5:],
		})
	case FormatName:
		if strings.ToUpper(value) == value {
			return strings.ToLower(value)
		}
		if r.IntN(2) == 0 {
			return strings.ToUpper(value)
		}
		return strings.ToLower(value)
	case FormatDate:
		d, err := persons.ParseDate(value)
		if err != nil {
			return value
		}
		return VaryDate(r, d).String()
	default:
		return value
	}
}

// VaryDate switches the render layout of a date. The date itself is unchanged.
func VaryDate(r *rand.Rand, d persons.Date) persons.Date {
	d.Layout = refdata.Pick(r, DateLayouts)
	return d
}

func digits(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}

	return b.String()
}
