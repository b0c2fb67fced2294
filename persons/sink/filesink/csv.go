package filesink

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

// Slots is the number of column groups per child collection of the csv layout.
// Children are flattened into columns named <collection>_<n>_<field>, n starting at 1.
type Slots struct {
	Addresses int
	Phones    int
	Emails    int
	Jobs      int
}

var defaultSlots = Slots{Addresses: 3, Phones: 2, Emails: 2, Jobs: 5}

// SlotsFor returns the layout that fits every record generated with cfg.
func SlotsFor(cfg persons.GenerationConfig) Slots {
	return Slots{
		Addresses: cfg.AddressesPerPerson.Max,
		Phones:    cfg.PhonesPerPerson.Max,
		Emails:    cfg.EmailsPerPerson.Max,
		Jobs:      cfg.JobsPerPerson.Max,
	}
}

func (s Slots) validate() error {
	if s.Addresses < 1 || s.Phones < 1 || s.Emails < 1 || s.Jobs < 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidSlots, s)
	}

	return nil
}

var (
	personColumns = []string{
		"person_id", "ssn", "prefix", "first_name", "middle_name", "last_name", "suffix", "nickname",
		"maiden_name", "date_of_birth", "gender", "household_id", "household_head_id", "household_role",
	}
	addressColumns = []string{
		"id", "type", "street_1", "street_2", "city", "state", "zip_code", "country",
		"is_primary", "is_valid", "effective_date", "end_date",
	}
	phoneColumns = []string{
		"id", "type", "country_code", "area_code", "number", "extension", "is_primary", "is_valid", "do_not_call",
	}
	emailColumns = []string{
		"id", "email", "type", "domain", "is_primary", "is_valid", "is_bounced",
	}
	employmentColumns = []string{
		"id", "employer_name", "job_title", "department", "industry", "job_level", "employment_status",
		"salary", "start_date", "end_date", "is_current",
	}
	financialColumns = []string{
		"credit_score", "annual_income", "debt_to_income_ratio", "number_of_accounts", "oldest_account_age_years",
		"recent_inquiries", "total_debt", "available_credit", "utilization_rate",
	}

	// nested lists of the extended profiles are stored as JSON arrays in one column
	educationColumns     = []string{"education_level", "education_degrees", "certifications", "student_loan_balance"}
	physicalColumns      = []string{"height_cm", "weight_kg", "bmi", "eye_color", "hair_color", "blood_type"}
	vehicleColumns       = []string{"has_drivers_license", "license_state", "vehicles"}
	onlineColumns        = []string{"social_accounts", "daily_screen_hours"}
	communicationColumns = []string{"preferred_channel", "preferred_contact_time", "languages", "marketing_opt_in"}
)

func (s Slots) header() []string {
	header := append([]string(nil), personColumns...)
	header = appendGroups(header, "address", addressColumns, s.Addresses)
	header = appendGroups(header, "phone", phoneColumns, s.Phones)
	header = appendGroups(header, "email", emailColumns, s.Emails)
	header = appendGroups(header, "employment", employmentColumns, s.Jobs)

	header = append(header, financialColumns...)
	for _, columns := range [][]string{educationColumns, physicalColumns, vehicleColumns, onlineColumns, communicationColumns} {
		header = append(header, columns...)
	}

	return header
}

func appendGroups(header []string, collection string, fields []string, slots int) []string {
	for n := 1; n <= slots; n++ {
		for _, field := range fields {
			header = append(header, fmt.Sprintf("%s_%d_%s", collection, n, field))
		}
	}

	return header
}

func writeCSV(buf *bytes.Buffer, rows [][]string) error {
	w := csv.NewWriter(buf)
	if err := w.WriteAll(rows); err != nil {
		return err
	}

	return w.Error()
}

func (s *Sink) encodeCSV(batch persons.Batch) error {
	rows := make([][]string, 0, batch.Len())

	for i := range batch.Records {
		row, err := s.row(&batch.Records[i])
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	return writeCSV(&s.buf, rows)
}

func (s *Sink) row(p *persons.Person) ([]string, error) {
	if len(p.Addresses) > s.slots.Addresses || len(p.Phones) > s.slots.Phones ||
		len(p.Emails) > s.slots.Emails || len(p.Employment) > s.slots.Jobs {
		return nil, fmt.Errorf("%w: person %s", ErrSlotOverflow, p.ID)
	}

	row := make([]string, 0, len(s.columns))

	var household persons.HouseholdLink
	if p.Household != nil {
		household = *p.Household
	}

	row = append(row,
		p.ID.String(), str(p.SSN), str(p.Prefix), p.FirstName, str(p.MiddleName), p.LastName, str(p.Suffix),
		str(p.Nickname), str(p.MaidenName), p.DateOfBirth.String(), string(p.Gender),
		id(household.ID), id(household.HeadID), string(household.Role),
	)

	for n := range s.slots.Addresses {
		if n >= len(p.Addresses) {
			row = appendEmpty(row, len(addressColumns))
			continue
		}
		a := p.Addresses[n]
		row = append(row,
			a.ID.String(), string(a.Type), a.Street1, str(a.Street2), a.City, a.State, a.Zip, a.Country,
			boolean(a.IsPrimary), boolean(a.IsValid), a.EffectiveDate.String(), date(a.EndDate),
		)
	}

	for n := range s.slots.Phones {
		if n >= len(p.Phones) {
			row = appendEmpty(row, len(phoneColumns))
			continue
		}
		ph := p.Phones[n]
		row = append(row,
			ph.ID.String(), string(ph.Type), ph.CountryCode, ph.AreaCode, ph.Number, str(ph.Extension),
			boolean(ph.IsPrimary), boolean(ph.IsValid), boolean(ph.DoNotCall),
		)
	}

	for n := range s.slots.Emails {
		if n >= len(p.Emails) {
			row = appendEmpty(row, len(emailColumns))
			continue
		}
		e := p.Emails[n]
		row = append(row,
			e.ID.String(), e.Address, string(e.Type), e.Domain,
			boolean(e.IsPrimary), boolean(e.IsValid), boolean(e.IsBounced),
		)
	}

	for n := range s.slots.Jobs {
		if n >= len(p.Employment) {
			row = appendEmpty(row, len(employmentColumns))
			continue
		}
		j := p.Employment[n]
		row = append(row,
			j.ID.String(), j.Employer, j.Title, str(j.Department), j.Industry, string(j.Level), string(j.Status),
			number(j.Salary), j.StartDate.String(), date(j.EndDate), boolean(j.IsCurrent),
		)
	}

	if f := p.Financial; f != nil {
		row = append(row,
			strconv.Itoa(f.CreditScore), number(f.AnnualIncome), number(f.DebtToIncomeRatio),
			strconv.Itoa(f.NumberOfAccounts), number(f.OldestAccountAgeYears), strconv.Itoa(f.RecentInquiries),
			number(f.TotalDebt), number(f.AvailableCredit), number(f.UtilizationRate),
		)
	} else {
		row = appendEmpty(row, len(financialColumns))
	}

	return appendProfiles(row, p)
}

func appendProfiles(row []string, p *persons.Person) ([]string, error) {
	var err error
	list := func(v any) string {
		if err != nil {
			return ""
		}
		var raw []byte
		raw, err = json.Marshal(v)

		return string(raw)
	}

	if e := p.Education; e != nil {
		row = append(row, string(e.HighestLevel), list(e.Degrees), list(e.Certifications), number(e.StudentLoanBalance))
	} else {
		row = appendEmpty(row, len(educationColumns))
	}

	if b := p.Physical; b != nil {
		row = append(row, number(b.HeightCM), number(b.WeightKG), number(b.BMI), b.EyeColor, b.HairColor, b.BloodType)
	} else {
		row = appendEmpty(row, len(physicalColumns))
	}

	if v := p.Vehicle; v != nil {
		row = append(row, boolean(v.HasDriversLicense), str(v.LicenseState), list(v.Vehicles))
	} else {
		row = appendEmpty(row, len(vehicleColumns))
	}

	if o := p.Online; o != nil {
		row = append(row, list(o.Accounts), number(o.DailyScreenHours))
	} else {
		row = appendEmpty(row, len(onlineColumns))
	}

	if c := p.Communication; c != nil {
		row = append(row, string(c.PreferredChannel), c.PreferredTime, list(c.Languages), boolean(c.MarketingOptIn))
	} else {
		row = appendEmpty(row, len(communicationColumns))
	}

	if err != nil {
		return nil, fmt.Errorf("encode profile lists: %w", err)
	}

	return row, nil
}

func appendEmpty(row []string, n int) []string {
	for range n {
		row = append(row, "")
	}

	return row
}

func str(v *string) string {
	if v == nil {
		return ""
	}

	return *v
}

func date(d *persons.Date) string {
	if d == nil {
		return ""
	}

	return d.String()
}

func id(v uuid.UUID) string {
	if v == uuid.Nil {
		return ""
	}

	return v.String()
}

func boolean(v bool) string {
	return strconv.FormatBool(v)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
