package postgressink

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type familyRows struct {
	family  string
	records []goqu.Record
}

func (f familyRows) values() []any {
	values := make([]any, len(f.records))
	for i, r := range f.records {
		values[i] = r
	}

	return values
}

// rowsFor flattens persons into one row set per table family, in insert order.
// Families without rows are left out.
func rowsFor(records []persons.Person) ([]familyRows, error) {
	sets := make([][]goqu.Record, len(tableFamilies))

	for i := range records {
		p := &records[i]
		pid := p.ID.String()

		row, err := personRow(p)
		if err != nil {
			return nil, err
		}
		sets[0] = append(sets[0], row)

		for _, a := range p.Addresses {
			sets[1] = append(sets[1], goqu.Record{
				"address_id":     a.ID.String(),
				"person_id":      pid,
				"address_type":   string(a.Type),
				"street_1":       a.Street1,
				"street_2":       text(a.Street2),
				"city":           a.City,
				"state":          a.State,
				"zip_code":       a.Zip,
				"country":        a.Country,
				"is_primary":     a.IsPrimary,
				"is_valid":       a.IsValid,
				"effective_date": date(&a.EffectiveDate),
				"end_date":       date(a.EndDate),
			})
		}

		for _, ph := range p.Phones {
			sets[2] = append(sets[2], goqu.Record{
				"phone_id":     ph.ID.String(),
				"person_id":    pid,
				"phone_type":   string(ph.Type),
				"country_code": ph.CountryCode,
				"area_code":    ph.AreaCode,
				"number":       ph.Number,
				"extension":    text(ph.Extension),
				"is_primary":   ph.IsPrimary,
				"is_valid":     ph.IsValid,
				"do_not_call":  ph.DoNotCall,
			})
		}

		for _, e := range p.Emails {
			sets[3] = append(sets[3], goqu.Record{
				"email_id":   e.ID.String(),
				"person_id":  pid,
				"email":      e.Address,
				"email_type": string(e.Type),
				"domain":     e.Domain,
				"is_primary": e.IsPrimary,
				"is_valid":   e.IsValid,
				"is_bounced": e.IsBounced,
			})
		}

		for _, e := range p.Employment {
			sets[4] = append(sets[4], goqu.Record{
				"employment_id":     e.ID.String(),
				"person_id":         pid,
				"employer_name":     e.Employer,
				"job_title":         e.Title,
				"department":        text(e.Department),
				"industry":          e.Industry,
				"job_level":         string(e.Level),
				"employment_status": string(e.Status),
				"salary":            e.Salary,
				"start_date":        date(&e.StartDate),
				"end_date":          date(e.EndDate),
				"is_current":        e.IsCurrent,
			})
		}

		if f := p.Financial; f != nil {
			sets[5] = append(sets[5], goqu.Record{
				"person_id":                pid,
				"credit_score":             f.CreditScore,
				"annual_income":            f.AnnualIncome,
				"debt_to_income_ratio":     f.DebtToIncomeRatio,
				"number_of_accounts":       f.NumberOfAccounts,
				"oldest_account_age_years": f.OldestAccountAgeYears,
				"recent_inquiries":         f.RecentInquiries,
				"total_debt":               f.TotalDebt,
				"available_credit":         f.AvailableCredit,
				"utilization_rate":         f.UtilizationRate,
			})
		}
	}

	out := make([]familyRows, 0, len(tableFamilies))
	for i, family := range tableFamilies {
		if len(sets[i]) > 0 {
			out = append(out, familyRows{family: family, records: sets[i]})
		}
	}

	return out, nil
}

func personRow(p *persons.Person) (goqu.Record, error) {
	row := goqu.Record{
		"person_id":         p.ID.String(),
		"ssn":               text(p.SSN),
		"prefix":            text(p.Prefix),
		"first_name":        p.FirstName,
		"middle_name":       text(p.MiddleName),
		"last_name":         p.LastName,
		"suffix":            text(p.Suffix),
		"nickname":          text(p.Nickname),
		"maiden_name":       text(p.MaidenName),
		"date_of_birth":     date(&p.DateOfBirth),
		"gender":            string(p.Gender),
		"household_id":      nil,
		"household_head_id": nil,
		"household_role":    nil,
	}

	if h := p.Household; h != nil {
		row["household_id"] = id(h.ID)
		row["household_head_id"] = id(h.HeadID)
		row["household_role"] = string(h.Role)
	}

	var err error
	if row["education_profile"], err = document(p.Education); err != nil {
		return nil, fmt.Errorf("education_profile: %w", err)
	}
	if row["vehicle_profile"], err = document(p.Vehicle); err != nil {
		return nil, fmt.Errorf("vehicle_profile: %w", err)
	}
	if row["physical_profile"], err = document(p.Physical); err != nil {
		return nil, fmt.Errorf("physical_profile: %w", err)
	}
	if row["online_presence"], err = document(p.Online); err != nil {
		return nil, fmt.Errorf("online_presence: %w", err)
	}
	if row["communication_profile"], err = document(p.Communication); err != nil {
		return nil, fmt.Errorf("communication_profile: %w", err)
	}

	return row, nil
}

// document renders a profile as JSONB text, NULL when the profile is absent.
func document[T any](profile *T) (any, error) {
	if profile == nil {
		return nil, nil
	}

	raw, err := json.Marshal(profile)
	if err != nil {
		return nil, err
	}

	return string(raw), nil
}

func text(s *string) any {
	if s == nil {
		return nil
	}

	return *s
}

// date stores the real calendar date; render layouts only matter for text outputs.
func date(d *persons.Date) any {
	if d == nil || d.Time.IsZero() {
		return nil
	}

	return d.ISO()
}

func id(u uuid.UUID) any {
	if u == uuid.Nil {
		return nil
	}

	return u.String()
}
