package postgressink

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Table families, in insert order.
const (
	tablePersons    = "persons"
	tableAddresses  = "addresses"
	tablePhones     = "phone_numbers"
	tableEmails     = "email_addresses"
	tableEmployment = "employment_history"
	tableFinancial  = "financial_profiles"
)

var tableFamilies = []string{tablePersons, tableAddresses, tablePhones, tableEmails, tableEmployment, tableFinancial}

type tableNames struct {
	schema string
	prefix string
}

func (n tableNames) name(family string) string {
	return n.prefix + family
}

func (n tableNames) qualified(family string) string {
	return pgx.Identifier{n.schema, n.name(family)}.Sanitize()
}

func (n tableNames) index(family, suffix string) string {
	return pgx.Identifier{"idx_" + n.name(family) + "_" + suffix}.Sanitize()
}

func (n tableNames) createStatements() string {
	persons := n.qualified(tablePersons)

	statements := []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{n.schema}.Sanitize()),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	person_id UUID PRIMARY KEY,
	ssn TEXT,
	prefix TEXT,
	first_name TEXT NOT NULL,
	middle_name TEXT,
	last_name TEXT NOT NULL,
	suffix TEXT,
	nickname TEXT,
	maiden_name TEXT,
	date_of_birth DATE,
	gender TEXT NOT NULL,
	household_id UUID,
	household_head_id UUID,
	household_role TEXT,
	education_profile JSONB,
	vehicle_profile JSONB,
	physical_profile JSONB,
	online_presence JSONB,
	communication_profile JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, persons),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	address_id UUID PRIMARY KEY,
	person_id UUID NOT NULL REFERENCES %s (person_id) ON DELETE CASCADE,
	address_type TEXT NOT NULL,
	street_1 TEXT NOT NULL,
	street_2 TEXT,
	city TEXT NOT NULL,
	state TEXT NOT NULL,
	zip_code TEXT NOT NULL,
	country TEXT NOT NULL,
	is_primary BOOLEAN NOT NULL,
	is_valid BOOLEAN NOT NULL,
	effective_date DATE,
	end_date DATE
)`, n.qualified(tableAddresses), persons),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	phone_id UUID PRIMARY KEY,
	person_id UUID NOT NULL REFERENCES %s (person_id) ON DELETE CASCADE,
	phone_type TEXT NOT NULL,
	country_code TEXT NOT NULL,
	area_code TEXT NOT NULL,
	number TEXT NOT NULL,
	extension TEXT,
	is_primary BOOLEAN NOT NULL,
	is_valid BOOLEAN NOT NULL,
	do_not_call BOOLEAN NOT NULL
)`, n.qualified(tablePhones), persons),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	email_id UUID PRIMARY KEY,
	person_id UUID NOT NULL REFERENCES %s (person_id) ON DELETE CASCADE,
	email TEXT NOT NULL,
	email_type TEXT NOT NULL,
	domain TEXT NOT NULL,
	is_primary BOOLEAN NOT NULL,
	is_valid BOOLEAN NOT NULL,
	is_bounced BOOLEAN NOT NULL
)`, n.qualified(tableEmails), persons),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	employment_id UUID PRIMARY KEY,
	person_id UUID NOT NULL REFERENCES %s (person_id) ON DELETE CASCADE,
	employer_name TEXT NOT NULL,
	job_title TEXT NOT NULL,
	department TEXT,
	industry TEXT NOT NULL,
	job_level TEXT NOT NULL,
	employment_status TEXT NOT NULL,
	salary NUMERIC(12,2) NOT NULL,
	start_date DATE NOT NULL,
	end_date DATE,
	is_current BOOLEAN NOT NULL
)`, n.qualified(tableEmployment), persons),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	person_id UUID PRIMARY KEY REFERENCES %s (person_id) ON DELETE CASCADE,
	credit_score INTEGER NOT NULL,
	annual_income NUMERIC(14,2) NOT NULL,
	debt_to_income_ratio NUMERIC(8,4) NOT NULL,
	number_of_accounts INTEGER NOT NULL,
	oldest_account_age_years NUMERIC(6,1) NOT NULL,
	recent_inquiries INTEGER NOT NULL,
	total_debt NUMERIC(14,2) NOT NULL,
	available_credit NUMERIC(14,2) NOT NULL,
	utilization_rate NUMERIC(8,4) NOT NULL
)`, n.qualified(tableFinancial), persons),

		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (ssn)", n.index(tablePersons, "ssn"), persons),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (last_name, first_name)", n.index(tablePersons, "name"), persons),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (household_id)", n.index(tablePersons, "household"), persons),
	}

	for _, family := range []string{tableAddresses, tablePhones, tableEmails, tableEmployment} {
		statements = append(statements, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (person_id)",
			n.index(family, "person_id"), n.qualified(family)))
	}

	return strings.Join(statements, ";\n") + ";"
}

func (n tableNames) dropStatements() string {
	statements := make([]string, 0, len(tableFamilies))
	for i := len(tableFamilies) - 1; i >= 0; i-- {
		statements = append(statements, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", n.qualified(tableFamilies[i])))
	}

	return strings.Join(statements, ";\n") + ";"
}
