package variability

import (
	"math/rand/v2"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

func (e *Engine) applyMissing(r *rand.Rand, p *persons.Person) {
	if e.profile.MissingRate == 0 {
		return
	}

	if p.SSN != nil && e.MakeMissing(r) {
		p.SSN = nil
		p.AddDefect(FieldSSN, persons.DefectMissing)
	}

	if p.MiddleName != nil && e.MakeMissing(r) {
		if initial := []rune(*p.MiddleName); len(initial) > 1 && r.IntN(2) == 0 {
			p.MiddleName = persons.StringPtr(string(initial[0]) + ".")
			p.AddDefect(FieldMiddleName, persons.DefectPartial)
		} else {
			p.MiddleName = nil
			p.AddDefect(FieldMiddleName, persons.DefectMissing)
		}
	}

	e.dropOptional(r, p, &p.Prefix, FieldPrefix)
	e.dropOptional(r, p, &p.Suffix, FieldSuffix)
	e.dropOptional(r, p, &p.Nickname, FieldNickname)
	e.dropOptional(r, p, &p.MaidenName, FieldMaidenName)

	for i := range p.Addresses {
		e.dropOptional(r, p, &p.Addresses[i].Street2, FieldStreet2)
	}
	p.Addresses = dropEntries(e, r, p, p.Addresses, FieldAddresses)
	ensurePrimaryAddress(p)

	for i := range p.Phones {
		if len(p.Phones) == 1 && e.MakeMissing(r) {
			if n := []rune(p.Phones[i].Number); len(n) > 4 {
				p.Phones[i].Number = string(n[:len(n)-2-r.IntN(3)])
				p.AddDefect(FieldPhoneNumber, persons.DefectPartial)
			}
		}
	}
	p.Phones = dropEntries(e, r, p, p.Phones, FieldPhones)
	ensurePrimaryPhone(p)

	p.Emails = dropEntries(e, r, p, p.Emails, FieldEmails)
	ensurePrimaryEmail(p)

	for i := range p.Employment {
		e.dropOptional(r, p, &p.Employment[i].Department, FieldDepartment)
	}
	p.Employment = dropEntries(e, r, p, p.Employment, FieldEmployment)

	if p.Financial != nil && e.MakeMissing(r) {
		p.Financial = nil
		p.AddDefect(FieldFinancial, persons.DefectMissing)
	}
}

func (e *Engine) dropOptional(r *rand.Rand, p *persons.Person, field **string, name string) {
	if *field != nil && e.MakeMissing(r) {
		*field = nil
		p.AddDefect(name, persons.DefectMissing)
	}
}

// dropEntries removes entries independently at the missing rate but always keeps at least one.
func dropEntries[T any](e *Engine, r *rand.Rand, p *persons.Person, entries []T, field string) []T {
	if len(entries) < 2 {
		return entries
	}

	kept := entries[:0:0]
	for i, entry := range entries {
		remaining := len(entries) - i
		if len(kept)+remaining > 1 && e.MakeMissing(r) {
			p.AddDefect(field, persons.DefectMissing)
			continue
		}
		kept = append(kept, entry)
	}

	return kept
}

// ensurePrimaryAddress promotes the first address to the current primary one if the primary was removed.
func ensurePrimaryAddress(p *persons.Person) {
	for _, a := range p.Addresses {
		if a.IsPrimary {
			return
		}
	}

	if len(p.Addresses) > 0 {
		p.Addresses[0].IsPrimary = true
		p.Addresses[0].Type = persons.AddressCurrent
		p.Addresses[0].EndDate = nil
	}
}

func ensurePrimaryPhone(p *persons.Person) {
	for _, ph := range p.Phones {
		if ph.IsPrimary {
			return
		}
	}

	if len(p.Phones) > 0 {
		p.Phones[0].IsPrimary = true
	}
}

func ensurePrimaryEmail(p *persons.Person) {
	for _, em := range p.Emails {
		if em.IsPrimary {
			return
		}
	}

	if len(p.Emails) > 0 {
		p.Emails[0].IsPrimary = true
	}
}
