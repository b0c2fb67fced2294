// Package variability injects data-quality defects into generated persons: missing and partial
// values, typos, inconsistent formats, outliers and near-duplicate perturbations.
//
// Every operation draws from the caller's random source, so defects are as deterministic as the
// records they are applied to. Applied defects are recorded in Person.Defects.
package variability

import (
	"math/rand/v2"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
)

// Field names used in recorded defects.
const (
	FieldSSN           = "ssn"
	FieldPrefix        = "prefix"
	FieldFirstName     = "first_name"
	FieldMiddleName    = "middle_name"
	FieldLastName      = "last_name"
	FieldSuffix        = "suffix"
	FieldNickname      = "nickname"
	FieldMaidenName    = "maiden_name"
	FieldDateOfBirth   = "date_of_birth"
	FieldAddresses     = "addresses"
	FieldStreet1       = "addresses.street_1"
	FieldStreet2       = "addresses.street_2"
	FieldCity          = "addresses.city"
	FieldEffectiveDate = "addresses.effective_date"
	FieldPhones        = "phone_numbers"
	FieldPhoneNumber   = "phone_numbers.number"
	FieldEmails        = "email_addresses"
	FieldEmail         = "email_addresses.email"
	FieldEmployment    = "employment_history"
	FieldEmployer      = "employment_history.employer_name"
	FieldJobTitle      = "employment_history.job_title"
	FieldDepartment    = "employment_history.department"
	FieldSalary        = "employment_history.salary"
	FieldStartDate     = "employment_history.start_date"
	FieldFinancial     = "financial_profile"
	FieldIncome        = "financial_profile.annual_income"
	FieldCreditScore   = "financial_profile.credit_score"
	FieldDebtToIncome  = "financial_profile.debt_to_income_ratio"
	FieldRecord        = "record"
)

// Engine applies the defect rates of a quality profile.
type Engine struct {
	profile persons.DataQualityProfile
	ref     *refdata.Context
	now     persons.Date
}

// New returns an engine for the profile. referenceDate anchors age outliers.
func New(profile persons.DataQualityProfile, ref *refdata.Context, referenceDate persons.Date) *Engine {
	return &Engine{profile: profile, ref: ref, now: referenceDate}
}

// Profile returns the active quality profile.
func (e *Engine) Profile() persons.DataQualityProfile {
	return e.profile
}

// Apply injects defects into p in a fixed order: missing values, typos, format variance, outliers.
// Non-nullable fields (ID, first and last name, date of birth, gender) are never removed,
// the last entry of a child collection is never dropped and primaries are re-designated
// after removals.
func (e *Engine) Apply(r *rand.Rand, p *persons.Person) {
	if e.profile.IsClean() {
		return
	}

	e.applyMissing(r, p)
	e.applyTypos(r, p)
	e.applyFormats(r, p)
	e.applyOutliers(r, p)
}

// MakeMissing reports whether a value should be removed.
func (e *Engine) MakeMissing(r *rand.Rand) bool {
	return hit(r, e.profile.MissingRate)
}

func hit(r *rand.Rand, rate float64) bool {
	return rate > 0 && r.Float64() < rate
}
