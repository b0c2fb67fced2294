package persons

import (
	"github.com/google/uuid"
)

// Gender is the single-letter gender/category code of a Person.
type Gender string

const (
	GenderMale        Gender = "M"
	GenderFemale      Gender = "F"
	GenderOther       Gender = "O"
	GenderUnspecified Gender = "U"
)

// AddressType classifies an Address within a person's address list.
type AddressType string

const (
	AddressCurrent  AddressType = "current"
	AddressPrevious AddressType = "previous"
	AddressBilling  AddressType = "billing"
	AddressShipping AddressType = "shipping"
	AddressWork     AddressType = "work"
)

// PhoneType classifies a PhoneNumber.
type PhoneType string

const (
	PhoneMobile PhoneType = "mobile"
	PhoneHome   PhoneType = "home"
	PhoneWork   PhoneType = "work"
	PhoneFax    PhoneType = "fax"
)

// EmailType classifies an EmailAddress.
type EmailType string

const (
	EmailPersonal EmailType = "personal"
	EmailWork     EmailType = "work"
)

// EmploymentStatus is the contract form of an EmploymentRecord.
type EmploymentStatus string

const (
	StatusFullTime   EmploymentStatus = "full_time"
	StatusPartTime   EmploymentStatus = "part_time"
	StatusContract   EmploymentStatus = "contract"
	StatusUnemployed EmploymentStatus = "unemployed"
	StatusRetired    EmploymentStatus = "retired"
	StatusStudent    EmploymentStatus = "student"
)

// JobLevel is the seniority band of an EmploymentRecord.
type JobLevel string

const (
	LevelEntry     JobLevel = "entry"
	LevelMid       JobLevel = "mid"
	LevelSenior    JobLevel = "senior"
	LevelExecutive JobLevel = "executive"
)

// HouseholdRole is the relationship of a Person to the head of its household.
type HouseholdRole string

const (
	RoleHead     HouseholdRole = "head"
	RoleSpouse   HouseholdRole = "spouse"
	RoleChild    HouseholdRole = "child"
	RoleSibling  HouseholdRole = "sibling"
	RoleRoommate HouseholdRole = "roommate"
)

// Person is the root entity of a generated dataset.
//
// ID is derived from the run seed and the global index and is never nulled or altered.
// Non-empty Addresses, Phones and Emails always have exactly one primary entry,
// Employment is ordered by start date ascending with at most one current record.
type Person struct {
	ID          uuid.UUID          `json:"person_id"`
	Index       uint64             `json:"-"`
	SSN         *string            `json:"ssn"`
	Prefix      *string            `json:"prefix"`
	FirstName   string             `json:"first_name"`
	MiddleName  *string            `json:"middle_name"`
	LastName    string             `json:"last_name"`
	Suffix      *string            `json:"suffix"`
	Nickname    *string            `json:"nickname"`
	MaidenName  *string            `json:"maiden_name"`
	DateOfBirth Date               `json:"date_of_birth"`
	Gender      Gender             `json:"gender"`
	Household   *HouseholdLink     `json:"household"`
	Addresses   []Address          `json:"addresses"`
	Phones      []PhoneNumber      `json:"phone_numbers"`
	Emails      []EmailAddress     `json:"email_addresses"`
	Employment  []EmploymentRecord `json:"employment_history"`
	Financial   *FinancialProfile  `json:"financial_profile"`

	Education     *EducationProfile     `json:"education_profile"`
	Vehicle       *VehicleProfile       `json:"vehicle_profile"`
	Physical      *PhysicalProfile      `json:"physical_profile"`
	Online        *OnlinePresence       `json:"online_presence"`
	Communication *CommunicationProfile `json:"communication_profile"`

	// Defects lists the data-quality defects injected into this record. It is ground truth
	// for tests and metrics and is not part of the serialized record.
	Defects []Defect `json:"-"`
}

// HouseholdLink ties a Person to the household it was generated in.
type HouseholdLink struct {
	ID     uuid.UUID     `json:"household_id"`
	HeadID uuid.UUID     `json:"head_person_id"`
	Role   HouseholdRole `json:"role"`
}

// Address is a postal address whose city, state and zip code come from one reference row.
type Address struct {
	ID            uuid.UUID   `json:"address_id"`
	Type          AddressType `json:"address_type"`
	Street1       string      `json:"street_1"`
	Street2       *string     `json:"street_2"`
	City          string      `json:"city"`
	State         string      `json:"state"`
	Zip           string      `json:"zip_code"`
	Country       string      `json:"country"`
	IsPrimary     bool        `json:"is_primary"`
	IsValid       bool        `json:"is_valid"`
	EffectiveDate Date        `json:"effective_date"`
	EndDate       *Date       `json:"end_date"`
}

type PhoneNumber struct {
	ID          uuid.UUID `json:"phone_id"`
	Type        PhoneType `json:"phone_type"`
	CountryCode string    `json:"country_code"`
	AreaCode    string    `json:"area_code"`
	Number      string    `json:"number"`
	Extension   *string   `json:"extension"`
	IsPrimary   bool      `json:"is_primary"`
	IsValid     bool      `json:"is_valid"`
	DoNotCall   bool      `json:"do_not_call"`
}

type EmailAddress struct {
	ID        uuid.UUID `json:"email_id"`
	Address   string    `json:"email"`
	Type      EmailType `json:"email_type"`
	Domain    string    `json:"domain"`
	IsPrimary bool      `json:"is_primary"`
	IsValid   bool      `json:"is_valid"`
	IsBounced bool      `json:"is_bounced"`
}

// EmploymentRecord is one position in a person's employment history.
// EndDate is nil if and only if IsCurrent is set.
type EmploymentRecord struct {
	ID         uuid.UUID        `json:"employment_id"`
	Employer   string           `json:"employer_name"`
	Title      string           `json:"job_title"`
	Department *string          `json:"department"`
	Industry   string           `json:"industry"`
	Level      JobLevel         `json:"job_level"`
	Status     EmploymentStatus `json:"employment_status"`
	Salary     float64          `json:"salary"`
	StartDate  Date             `json:"start_date"`
	EndDate    *Date            `json:"end_date"`
	IsCurrent  bool             `json:"is_current"`
}

// FinancialProfile holds the correlated credit and income attributes of a Person.
type FinancialProfile struct {
	CreditScore           int     `json:"credit_score"`
	AnnualIncome          float64 `json:"annual_income"`
	DebtToIncomeRatio     float64 `json:"debt_to_income_ratio"`
	NumberOfAccounts      int     `json:"number_of_accounts"`
	OldestAccountAgeYears float64 `json:"oldest_account_age_years"`
	RecentInquiries       int     `json:"recent_inquiries"`
	TotalDebt             float64 `json:"total_debt"`
	AvailableCredit       float64 `json:"available_credit"`
	UtilizationRate       float64 `json:"utilization_rate"`
}

const (
	MinCreditScore  = 300
	MaxCreditScore  = 850
	MaxDebtToIncome = 10.0
)

// PrimaryAddress returns the primary address, or false if the person has none.
func (p *Person) PrimaryAddress() (Address, bool) {
	for _, a := range p.Addresses {
		if a.IsPrimary {
			return a, true
		}
	}

	return Address{}, false
}

// CurrentEmployment returns the current employment record, or false if there is none.
func (p *Person) CurrentEmployment() (EmploymentRecord, bool) {
	for _, e := range p.Employment {
		if e.IsCurrent {
			return e, true
		}
	}

	return EmploymentRecord{}, false
}

// AddDefect records that a defect of the given kind was injected into field.
func (p *Person) AddDefect(field string, kind DefectKind) {
	p.Defects = append(p.Defects, Defect{Field: field, Kind: kind})
}

// HasDefect reports whether a defect of the given kind was injected into field.
func (p *Person) HasDefect(field string, kind DefectKind) bool {
	for _, d := range p.Defects {
		if d.Field == field && d.Kind == kind {
			return true
		}
	}

	return false
}

// Clone returns a deep copy of the person.
func (p *Person) Clone() Person {
	c := *p
	c.SSN = cloneString(p.SSN)
	c.Prefix = cloneString(p.Prefix)
	c.MiddleName = cloneString(p.MiddleName)
	c.Suffix = cloneString(p.Suffix)
	c.Nickname = cloneString(p.Nickname)
	c.MaidenName = cloneString(p.MaidenName)

	if p.Household != nil {
		h := *p.Household
		c.Household = &h
	}

	c.Addresses = make([]Address, len(p.Addresses))
	for i, a := range p.Addresses {
		a.Street2 = cloneString(a.Street2)
		a.EndDate = cloneDate(a.EndDate)
		c.Addresses[i] = a
	}

	c.Phones = make([]PhoneNumber, len(p.Phones))
	for i, ph := range p.Phones {
		ph.Extension = cloneString(ph.Extension)
		c.Phones[i] = ph
	}

	c.Emails = append([]EmailAddress(nil), p.Emails...)

	c.Employment = make([]EmploymentRecord, len(p.Employment))
	for i, e := range p.Employment {
		e.Department = cloneString(e.Department)
		e.EndDate = cloneDate(e.EndDate)
		c.Employment[i] = e
	}

	if p.Financial != nil {
		f := *p.Financial
		c.Financial = &f
	}

	if p.Physical != nil {
		ph := *p.Physical
		c.Physical = &ph
	}

	c.Education = p.Education.clone()
	c.Vehicle = p.Vehicle.clone()
	c.Online = p.Online.clone()
	c.Communication = p.Communication.clone()

	c.Defects = append([]Defect(nil), p.Defects...)

	return c
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneDate(d *Date) *Date {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
