package persons

import "slices"

// EducationLevel is the highest completed level of education.
type EducationLevel string

const (
	EducationNone         EducationLevel = "none"
	EducationHighSchool   EducationLevel = "high_school"
	EducationSomeCollege  EducationLevel = "some_college"
	EducationAssociate    EducationLevel = "associate"
	EducationBachelor     EducationLevel = "bachelor"
	EducationMaster       EducationLevel = "master"
	EducationDoctorate    EducationLevel = "doctorate"
	EducationProfessional EducationLevel = "professional"
)

// EducationProfile holds the schooling of a Person. Degrees are ordered by graduation year.
type EducationProfile struct {
	HighestLevel       EducationLevel `json:"highest_level"`
	Degrees            []Degree       `json:"degrees"`
	Certifications     []string       `json:"certifications"`
	StudentLoanBalance float64        `json:"student_loan_balance"`
}

type Degree struct {
	Level          EducationLevel `json:"degree_level"`
	Major          string         `json:"major"`
	Institution    string         `json:"institution"`
	GraduationYear int            `json:"graduation_year"`
	GPA            *float64       `json:"gpa"`
}

type VehicleOwnership string

const (
	OwnershipOwned    VehicleOwnership = "owned"
	OwnershipFinanced VehicleOwnership = "financed"
	OwnershipLeased   VehicleOwnership = "leased"
)

// VehicleProfile holds the driver's license and registered vehicles of a Person.
// LicenseState is nil if and only if HasDriversLicense is unset.
type VehicleProfile struct {
	HasDriversLicense bool      `json:"has_drivers_license"`
	LicenseState      *string   `json:"license_state"`
	Vehicles          []Vehicle `json:"vehicles"`
}

type Vehicle struct {
	Year              int              `json:"year"`
	Make              string           `json:"make"`
	Model             string           `json:"model"`
	BodyType          string           `json:"body_type"`
	Ownership         VehicleOwnership `json:"ownership"`
	EstimatedValue    float64          `json:"estimated_value"`
	RegistrationState string           `json:"registration_state"`
}

// PhysicalProfile holds body measurements in metric units.
type PhysicalProfile struct {
	HeightCM  float64 `json:"height_cm"`
	WeightKG  float64 `json:"weight_kg"`
	BMI       float64 `json:"bmi"`
	EyeColor  string  `json:"eye_color"`
	HairColor string  `json:"hair_color"`
	BloodType string  `json:"blood_type"`
}

// OnlinePresence holds the social media accounts of a Person.
type OnlinePresence struct {
	Accounts         []SocialAccount `json:"accounts"`
	DailyScreenHours float64         `json:"daily_screen_hours"`
}

type SocialAccount struct {
	Platform  string `json:"platform"`
	Handle    string `json:"handle"`
	Followers int    `json:"followers"`
	IsPrivate bool   `json:"is_private"`
}

type ContactChannel string

const (
	ChannelEmail ContactChannel = "email"
	ChannelSMS   ContactChannel = "sms"
	ChannelPhone ContactChannel = "phone"
	ChannelMail  ContactChannel = "mail"
	ChannelApp   ContactChannel = "app"
)

// CommunicationProfile holds how a Person prefers to be contacted.
// The preferred channel is always one the person can be reached on.
type CommunicationProfile struct {
	PreferredChannel ContactChannel `json:"preferred_channel"`
	PreferredTime    string         `json:"preferred_time"`
	Languages        []string       `json:"languages"`
	MarketingOptIn   bool           `json:"marketing_opt_in"`
}

func (e *EducationProfile) clone() *EducationProfile {
	if e == nil {
		return nil
	}

	c := *e
	c.Degrees = slices.Clone(e.Degrees)
	for i, d := range c.Degrees {
		if d.GPA != nil {
			gpa := *d.GPA
			c.Degrees[i].GPA = &gpa
		}
	}
	c.Certifications = slices.Clone(e.Certifications)

	return &c
}

func (v *VehicleProfile) clone() *VehicleProfile {
	if v == nil {
		return nil
	}

	c := *v
	c.LicenseState = cloneString(v.LicenseState)
	c.Vehicles = slices.Clone(v.Vehicles)

	return &c
}

func (o *OnlinePresence) clone() *OnlinePresence {
	if o == nil {
		return nil
	}

	c := *o
	c.Accounts = slices.Clone(o.Accounts)

	return &c
}

func (m *CommunicationProfile) clone() *CommunicationProfile {
	if m == nil {
		return nil
	}

	c := *m
	c.Languages = slices.Clone(m.Languages)

	return &c
}
