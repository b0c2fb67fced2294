package filesink_test

import (
	"bufio"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/engine"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink/filesink"
)

func generate(t *testing.T, path, format string, options ...persons.ConfigOption) persons.GenerationConfig {
	t.Helper()

	cfg, err := persons.NewGenerationConfig(options...)
	require.NoError(t, err, "error in arranging test data")

	s, err := filesink.New(path, format, filesink.WithSlots(filesink.SlotsFor(cfg)))
	require.NoError(t, err, "error in arranging test data")

	e, err := engine.New(cfg)
	require.NoError(t, err, "error in arranging test data")

	_, err = e.Run(context.Background(), s)
	require.NoError(t, err, "error in arranging test data")

	return cfg
}

func person(index uint64) persons.Person {
	return persons.Person{
		Index:       index,
		FirstName:   "Grace",
		LastName:    "Hopper",
		DateOfBirth: persons.DateOf(1906, 12, 9),
		Gender:      persons.GenderFemale,
		Addresses:   []persons.Address{{Street1: "1 Navy Way", City: "Arlington", State: "VA", Zip: "22202", Country: "US", IsPrimary: true}},
		Phones:      []persons.PhoneNumber{{CountryCode: "1", AreaCode: "703", Number: "555-0100", IsPrimary: true}},
		Emails:      []persons.EmailAddress{{Address: "grace@example.com", Domain: "example.com", IsPrimary: true}},
	}
}

func Test_Sink_When_TheSameRunIsGeneratedWithDifferentWorkerCounts(t *testing.T) {
	for _, format := range []string{sink.FormatCSV, sink.FormatJSONL} {
		t.Run(format, func(t *testing.T) {
			// arrange
			dir := t.TempDir()
			first := filepath.Join(dir, "first."+format)
			second := filepath.Join(dir, "second."+format)
			options := []persons.ConfigOption{
				persons.WithRecordCount(1000),
				persons.WithSeed(42),
				persons.WithQualityProfileName(persons.ProfileMinimal),
				persons.WithBatchSize(64),
			}

			// act
			generate(t, first, format, append(options, persons.WithWorkers(1))...)
			generate(t, second, format, append(options, persons.WithWorkers(6))...)

			// assert
			a, err := os.ReadFile(first)
			require.NoError(t, err)
			b, err := os.ReadFile(second)
			require.NoError(t, err)
			assert.NotEmpty(t, a)
			assert.Equal(t, a, b)
		})
	}
}

func Test_Sink_When_WritingCSV(t *testing.T) {
	// arrange
	path := filepath.Join(t.TempDir(), "persons.csv")
	cfg := generate(t, path, sink.FormatCSV, persons.WithRecordCount(50), persons.WithPhonesPerPerson(1, 2))

	// act
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()

	// assert
	require.NoError(t, err)
	require.Len(t, rows, 51)

	header := rows[0]
	assert.Equal(t, "person_id", header[0])
	assert.Contains(t, header, "address_1_street_1")
	assert.Contains(t, header, "phone_2_number")
	assert.Contains(t, header, "employment_5_is_current")
	assert.NotContains(t, header, "phone_3_number")
	assert.Contains(t, header, "utilization_rate")
	assert.Contains(t, header, "education_degrees")
	assert.Equal(t, "marketing_opt_in", header[len(header)-1])
	assert.Equal(t, 2, cfg.PhonesPerPerson.Max)

	for _, row := range rows[1:] {
		assert.Len(t, row, len(header))
		assert.NotEmpty(t, row[0])
	}
}

func Test_Sink_When_WritingJSONL(t *testing.T) {
	// arrange
	path := filepath.Join(t.TempDir(), "persons.jsonl")
	generate(t, path, sink.FormatJSONL, persons.WithRecordCount(20))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	// act
	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, jsoniter.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}

	// assert
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 20)
	for _, line := range lines {
		assert.Contains(t, line, "person_id")
		assert.Contains(t, line, "addresses")
		assert.Contains(t, line, "financial_profile")
		assert.Contains(t, line, "education_profile")
		assert.Contains(t, line, "vehicle_profile")
		assert.Contains(t, line, "physical_profile")
		assert.Contains(t, line, "online_presence")
		assert.Contains(t, line, "communication_profile")
		assert.NotContains(t, line, "Index")
		assert.NotContains(t, line, "Defects")
	}
}

func Test_Sink_When_NullableFieldsAreMissing(t *testing.T) {
	// arrange
	path := filepath.Join(t.TempDir(), "persons.csv")
	s, err := filesink.New(path, sink.FormatCSV, filesink.WithSlots(filesink.Slots{Addresses: 1, Phones: 1, Emails: 1, Jobs: 0}))
	require.NoError(t, err)
	require.NoError(t, s.Open(context.Background()))

	// act
	err = s.Write(context.Background(), persons.Batch{Records: []persons.Person{person(0)}})
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))

	// assert
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	values := make(map[string]string)
	for i, column := range rows[0] {
		values[column] = rows[1][i]
	}
	assert.Equal(t, "", values["ssn"])
	assert.Equal(t, "", values["middle_name"])
	assert.Equal(t, "", values["household_id"])
	assert.Equal(t, "", values["credit_score"])
	assert.Equal(t, "", values["education_degrees"])
	assert.Equal(t, "", values["vehicles"])
	assert.Equal(t, "1906-12-09", values["date_of_birth"])
	assert.Equal(t, "1 Navy Way", values["address_1_street_1"])
	assert.Equal(t, "true", values["address_1_is_primary"])
}

func Test_Sink_When_ARecordHasExtendedProfiles_TheirListsAreJSONColumns(t *testing.T) {
	// arrange
	path := filepath.Join(t.TempDir(), "persons.csv")
	s, err := filesink.New(path, sink.FormatCSV, filesink.WithSlots(filesink.Slots{Addresses: 1, Phones: 1, Emails: 1, Jobs: 0}))
	require.NoError(t, err)
	require.NoError(t, s.Open(context.Background()))

	p := person(0)
	gpa := 3.9
	p.Education = &persons.EducationProfile{
		HighestLevel:   persons.EducationDoctorate,
		Degrees:        []persons.Degree{{Level: persons.EducationDoctorate, Major: "Mathematics", Institution: "Yale", GraduationYear: 1934, GPA: &gpa}},
		Certifications: []string{},
	}
	p.Vehicle = &persons.VehicleProfile{HasDriversLicense: true, LicenseState: persons.StringPtr("VA"), Vehicles: []persons.Vehicle{}}
	p.Communication = &persons.CommunicationProfile{PreferredChannel: persons.ChannelMail, PreferredTime: "morning", Languages: []string{"English"}}

	// act
	err = s.Write(context.Background(), persons.Batch{Records: []persons.Person{p}})
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))

	// assert
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	values := make(map[string]string)
	for i, column := range rows[0] {
		values[column] = rows[1][i]
	}
	assert.Equal(t, "doctorate", values["education_level"])
	assert.Equal(t, "[]", values["certifications"])
	assert.Equal(t, "VA", values["license_state"])
	assert.Equal(t, "[]", values["vehicles"])
	assert.Equal(t, `["English"]`, values["languages"])
	assert.Equal(t, "", values["height_cm"])
	assert.Equal(t, "", values["social_accounts"])

	var degrees []persons.Degree
	require.NoError(t, jsoniter.Unmarshal([]byte(values["education_degrees"]), &degrees))
	assert.Equal(t, p.Education.Degrees, degrees)
}

func Test_Sink_When_ARecordDoesNotFitTheLayout(t *testing.T) {
	// arrange
	path := filepath.Join(t.TempDir(), "persons.csv")
	s, err := filesink.New(path, sink.FormatCSV, filesink.WithSlots(filesink.Slots{Addresses: 1, Phones: 1, Emails: 1, Jobs: 0}))
	require.NoError(t, err)
	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.Write(context.Background(), persons.Batch{Records: []persons.Person{person(0)}}))

	crowded := person(2)
	crowded.Phones = append(crowded.Phones, crowded.Phones[0])

	// act
	err = s.Write(context.Background(), persons.Batch{Sequence: 1, Records: []persons.Person{person(1), crowded}})

	// assert
	assert.ErrorIs(t, err, filesink.ErrSlotOverflow)
	assert.True(t, persons.IsKind(err, persons.KindSinkFatal))

	require.NoError(t, s.Close(context.Background()))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func Test_Sink_When_TheRunIsAborted_NothingIsPublished(t *testing.T) {
	// arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "persons.jsonl")
	s, err := filesink.New(path, sink.FormatJSONL)
	require.NoError(t, err)
	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.Write(context.Background(), persons.Batch{Records: []persons.Person{person(0)}}))

	// act
	err = s.Abort(context.Background())

	// assert
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, s.Close(context.Background()))
}

type rejectingBatch struct {
	sink.Sink
	sequence uint64
}

func (r rejectingBatch) Write(ctx context.Context, batch persons.Batch) error {
	if batch.Sequence == r.sequence {
		return persons.NewOpError("write batch", persons.KindSinkFatal, os.ErrPermission)
	}

	return r.Sink.Write(ctx, batch)
}

func Test_Sink_When_ARunFailsAfterSomeBatches_TheWrittenBatchesArePublished(t *testing.T) {
	// arrange
	path := filepath.Join(t.TempDir(), "persons.csv")
	cfg, err := persons.NewGenerationConfig(persons.WithRecordCount(60), persons.WithBatchSize(10), persons.WithWorkers(2))
	require.NoError(t, err, "error in arranging test data")
	s, err := filesink.New(path, sink.FormatCSV, filesink.WithSlots(filesink.SlotsFor(cfg)))
	require.NoError(t, err, "error in arranging test data")
	e, err := engine.New(cfg)
	require.NoError(t, err, "error in arranging test data")

	// act
	summary, err := e.Run(context.Background(), rejectingBatch{Sink: s, sequence: 3})

	// assert
	require.Error(t, err)
	assert.Equal(t, uint64(30), summary.RecordsWritten)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 31)
}

func Test_Sink_When_WritingBeforeOpen(t *testing.T) {
	// arrange
	s, err := filesink.New(filepath.Join(t.TempDir(), "persons.jsonl"), sink.FormatJSONL)
	require.NoError(t, err)

	// act
	err = s.Write(context.Background(), persons.Batch{Records: []persons.Person{person(0)}})

	// assert
	assert.ErrorIs(t, err, sink.ErrNotOpen)
	assert.True(t, persons.IsKind(err, persons.KindSinkFatal))
}

func Test_New_When_ArgumentsAreInvalid(t *testing.T) {
	testCases := []struct {
		name    string
		path    string
		format  string
		options []filesink.Option
		wantErr error
	}{
		{name: "empty path", path: "", format: sink.FormatCSV, wantErr: filesink.ErrEmptyPath},
		{name: "unsupported format", path: "persons.xml", format: "xml", wantErr: filesink.ErrUnsupportedFormat},
		{
			name:    "no address slot",
			path:    "persons.csv",
			format:  sink.FormatCSV,
			options: []filesink.Option{filesink.WithSlots(filesink.Slots{Phones: 1, Emails: 1})},
			wantErr: filesink.ErrInvalidSlots,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := filesink.New(tc.path, tc.format, tc.options...)

			// assert
			assert.ErrorIs(t, err, tc.wantErr)
			assert.True(t, persons.IsKind(err, persons.KindConfig))
		})
	}
}
