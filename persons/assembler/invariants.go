package assembler

import (
	"errors"
	"fmt"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

var (
	ErrPrimaryCount      = errors.New("collection must have exactly one primary entry")
	ErrEmploymentOrder   = errors.New("employment history must be ascending and non-overlapping")
	ErrCurrentEmployment = errors.New("employment history has more than one current record")
	ErrFinancialRange    = errors.New("financial profile out of range")
)

// checkInvariants verifies the structural guarantees of a clean record.
func checkInvariants(p *persons.Person) error {
	if n := countPrimary(p.Addresses, func(a persons.Address) bool { return a.IsPrimary }); len(p.Addresses) > 0 && n != 1 {
		return errors.Join(ErrPrimaryCount, fmt.Errorf("addresses: %d primaries", n))
	}
	if n := countPrimary(p.Phones, func(ph persons.PhoneNumber) bool { return ph.IsPrimary }); len(p.Phones) > 0 && n != 1 {
		return errors.Join(ErrPrimaryCount, fmt.Errorf("phones: %d primaries", n))
	}
	if n := countPrimary(p.Emails, func(e persons.EmailAddress) bool { return e.IsPrimary }); len(p.Emails) > 0 && n != 1 {
		return errors.Join(ErrPrimaryCount, fmt.Errorf("emails: %d primaries", n))
	}

	current := 0
	for i, e := range p.Employment {
		if e.IsCurrent {
			current++
		}
		if i == 0 {
			continue
		}

		prev := p.Employment[i-1]
		if e.StartDate.Before(prev.StartDate) || (prev.EndDate != nil && e.StartDate.Before(*prev.EndDate)) {
			return errors.Join(ErrEmploymentOrder, fmt.Errorf("record %d starts %s", i, e.StartDate.ISO()))
		}
	}
	if current > 1 {
		return ErrCurrentEmployment
	}

	if f := p.Financial; f != nil {
		if f.CreditScore < persons.MinCreditScore || f.CreditScore > persons.MaxCreditScore || f.AnnualIncome <= 0 {
			return errors.Join(ErrFinancialRange, fmt.Errorf("score=%d income=%v", f.CreditScore, f.AnnualIncome))
		}
	}

	return nil
}

func countPrimary[T any](items []T, primary func(T) bool) int {
	n := 0
	for _, item := range items {
		if primary(item) {
			n++
		}
	}

	return n
}
