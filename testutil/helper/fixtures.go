package helper

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

// FixturePerson returns a complete person with one record of every child kind.
// Its IDs are derived from n, so equal n give equal IDs.
func FixturePerson(n int, ssn *string) persons.Person {
	pid := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("person-%d", n)))
	child := func(kind string) uuid.UUID {
		return uuid.NewSHA1(pid, []byte(kind))
	}

	return persons.Person{
		ID:          pid,
		Index:       uint64(n),
		SSN:         ssn,
		FirstName:   "Grace",
		LastName:    "Hopper",
		DateOfBirth: persons.Date{Time: time.Date(1980, time.May, 17, 0, 0, 0, 0, time.UTC), Layout: "01/02/2006"},
		Gender:      persons.GenderFemale,
		Addresses: []persons.Address{{
			ID: child("address"), Type: persons.AddressCurrent, Street1: "1 Main St", City: "Austin",
			State: "TX", Zip: "73301", Country: "US", IsPrimary: true, IsValid: true,
			EffectiveDate: persons.DateOf(2015, time.March, 1),
		}},
		Phones: []persons.PhoneNumber{{
			ID: child("phone"), Type: persons.PhoneMobile, CountryCode: "1", AreaCode: "512",
			Number: "5550100", IsPrimary: true, IsValid: true,
		}},
		Emails: []persons.EmailAddress{{
			ID: child("email"), Address: "grace@example.com", Type: persons.EmailPersonal,
			Domain: "example.com", IsPrimary: true, IsValid: true,
		}},
		Employment: []persons.EmploymentRecord{{
			ID: child("job"), Employer: "Acme", Title: "Engineer", Industry: "technology",
			Level: persons.LevelMid, Status: persons.StatusFullTime, Salary: 85000,
			StartDate: persons.DateOf(2018, time.January, 8), IsCurrent: true,
		}},
		Financial: &persons.FinancialProfile{CreditScore: 720, AnnualIncome: 85000, DebtToIncomeRatio: 0.25},
	}
}

