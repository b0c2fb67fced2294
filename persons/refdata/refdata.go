// Package refdata holds the immutable reference tables the generators draw from:
// names, places, area codes, email domains, industries, job titles, typo tables and the
// tables behind the extended profiles (schooling, vehicles, body traits, social platforms).
//
// The tables are embedded as YAML and decoded once. A Context is safe for concurrent use
// because nothing mutates it after Load returns.
package refdata

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data.yaml
var embedded []byte

// Job levels used as keys of title tables.
const (
	LevelEntry     = "entry"
	LevelMid       = "mid"
	LevelSenior    = "senior"
	LevelExecutive = "executive"
)

const genericKey = "generic"

// Cultural groups used for name selection.
const (
	CultureAnglo    = "anglo"
	CultureHispanic = "hispanic"
	CultureAsian    = "asian"
	CultureAfrican  = "african"
	CultureOther    = "other"
)

var (
	// ErrInvalidReferenceData is returned when the embedded tables are malformed.
	ErrInvalidReferenceData = errors.New("invalid reference data")

	// ErrUnknownKey is returned when a state or industry is not in the tables.
	ErrUnknownKey = errors.New("unknown reference data key")
)

// Weighted is a value with a relative weight.
type Weighted struct {
	Value  string  `yaml:"value"`
	Weight float64 `yaml:"weight"`
}

// City is a city with its state, population in thousands and the zip prefixes it uses.
type City struct {
	Name       string   `yaml:"name"`
	State      string   `yaml:"state"`
	Population int      `yaml:"population"`
	Zip3       []string `yaml:"zip3"`
}

// MilitaryPostal is an APO/FPO pseudo-city.
type MilitaryPostal struct {
	City  string   `yaml:"city"`
	State string   `yaml:"state"`
	Zip3  []string `yaml:"zip3"`
}

// Industry describes an industry and its pay and hiring characteristics.
type Industry struct {
	Name             string              `yaml:"name"`
	Weight           float64             `yaml:"weight"`
	IncomeMultiplier float64             `yaml:"income_multiplier"`
	CompanySuffixes  []string            `yaml:"company_suffixes"`
	Departments      []string            `yaml:"departments"`
	Titles           map[string][]string `yaml:"titles"`
	Seasonal         []float64           `yaml:"seasonal"`
}

// VehicleModel is a make and model with its new price in dollars.
type VehicleModel struct {
	Make   string  `yaml:"make"`
	Model  string  `yaml:"model"`
	Body   string  `yaml:"body"`
	Price  float64 `yaml:"price"`
	Weight float64 `yaml:"weight"`
	Luxury bool    `yaml:"luxury"`
}

// SocialPlatform holds the adoption rate of a platform per age band and its median follower count.
type SocialPlatform struct {
	Name         string  `yaml:"name"`
	Young        float64 `yaml:"young"`
	Adult        float64 `yaml:"adult"`
	Senior       float64 `yaml:"senior"`
	Followers    int     `yaml:"followers"`
	Professional bool    `yaml:"professional"`
}

// Adoption returns the share of people of the given age that hold an account.
func (p SocialPlatform) Adoption(age int) float64 {
	switch {
	case age < 30:
		return p.Young
	case age < 65:
		return p.Adult
	default:
		return p.Senior
	}
}

type education struct {
	Institutions   []string            `yaml:"institutions"`
	Majors         map[string][]string `yaml:"majors"`
	Certifications map[string][]string `yaml:"certifications"`
}

type physical struct {
	EyeColors  []Weighted `yaml:"eye_colors"`
	HairColors []Weighted `yaml:"hair_colors"`
	BloodTypes []Weighted `yaml:"blood_types"`
}

type genderNames struct {
	M []string `yaml:"M"`
	F []string `yaml:"F"`
}

type prefixes struct {
	M            []string `yaml:"M"`
	F            []string `yaml:"F"`
	Professional []string `yaml:"professional"`
}

type suffixes struct {
	Generational []string `yaml:"generational"`
	Professional []string `yaml:"professional"`
}

type typos struct {
	Transpositions [][2]string         `yaml:"transpositions"`
	Misspellings   map[string][]string `yaml:"misspellings"`
	KeyboardRows   []string            `yaml:"keyboard_rows"`
}

type document struct {
	FirstNames          genderNames            `yaml:"first_names"`
	NamesByDecade       map[int]genderNames    `yaml:"names_by_decade"`
	CulturalWeights     []Weighted             `yaml:"cultural_weights"`
	CulturalFirstNames  map[string]genderNames `yaml:"cultural_first_names"`
	CulturalLastNames   map[string][]string    `yaml:"cultural_last_names"`
	LastNames           []string               `yaml:"last_names"`
	HyphenatedLastNames [][2]string            `yaml:"hyphenated_last_names"`
	Nicknames           map[string][]string    `yaml:"nicknames"`
	Prefixes            prefixes               `yaml:"prefixes"`
	Suffixes            suffixes               `yaml:"suffixes"`
	StreetNames         []string               `yaml:"street_names"`
	StreetTypes         []string               `yaml:"street_types"`
	ApartmentPrefixes   []string               `yaml:"apartment_prefixes"`
	MilitaryPostal      []MilitaryPostal       `yaml:"military_postal"`
	Cities              []City                 `yaml:"cities"`
	AreaCodes           map[string][]string    `yaml:"area_codes"`
	CostOfLiving        map[string]float64     `yaml:"cost_of_living"`
	EmailDomains        struct {
		Personal []Weighted `yaml:"personal"`
	} `yaml:"email_domains"`
	JobTitles       map[string][]string `yaml:"job_titles"`
	Departments     []string            `yaml:"departments"`
	CompanyNames    []string            `yaml:"company_names"`
	CompanyPrefixes []string            `yaml:"company_prefixes"`
	CompanySuffixes []string            `yaml:"company_suffixes"`
	Industries      []Industry          `yaml:"industries"`
	Typos           typos               `yaml:"typos"`
	Education       education           `yaml:"education"`
	VehicleModels   []VehicleModel      `yaml:"vehicle_models"`
	Physical        physical            `yaml:"physical"`
	SocialPlatforms []SocialPlatform    `yaml:"social_platforms"`
	Languages       []Weighted          `yaml:"languages"`
}

// Context is the decoded, indexed reference data.
// Slices returned by its methods are shared and must be treated as read-only.
type Context struct {
	doc        document
	industries map[string]*Industry
	states     []string
	cityIndex  map[string][]int
	adjacency  map[rune][]rune
}

var loadDefault = sync.OnceValues(func() (*Context, error) {
	return Parse(embedded)
})

// Default returns the embedded reference data. It panics if the embedded tables are invalid,
// which can only happen with a broken build.
func Default() *Context {
	ctx, err := loadDefault()
	if err != nil {
		panic(err)
	}

	return ctx
}

// Load decodes the embedded reference data.
func Load() (*Context, error) {
	return loadDefault()
}

// Parse decodes and validates reference data from YAML.
func Parse(raw []byte) (*Context, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrInvalidReferenceData, err)
	}

	if err := validate(doc); err != nil {
		return nil, err
	}

	c := &Context{
		doc:        doc,
		industries: make(map[string]*Industry, len(doc.Industries)),
		cityIndex:  make(map[string][]int),
		adjacency:  keyboardAdjacency(doc.Typos.KeyboardRows),
	}

	for i := range doc.Industries {
		c.industries[doc.Industries[i].Name] = &c.doc.Industries[i]
	}

	for i, city := range doc.Cities {
		if _, ok := c.cityIndex[city.State]; !ok {
			c.states = append(c.states, city.State)
		}
		c.cityIndex[city.State] = append(c.cityIndex[city.State], i)
	}
	sort.Strings(c.states)

	return c, nil
}

func validate(doc document) error {
	var errs []error

	required := map[string]int{
		"first_names.M": len(doc.FirstNames.M),
		"first_names.F": len(doc.FirstNames.F),
		"last_names":    len(doc.LastNames),
		"street_names":  len(doc.StreetNames),
		"street_types":  len(doc.StreetTypes),
		"cities":        len(doc.Cities),
		"industries":    len(doc.Industries),
		"email_domains": len(doc.EmailDomains.Personal),
		"company_names": len(doc.CompanyNames),

		"education.institutions":   len(doc.Education.Institutions),
		"education.majors.generic": len(doc.Education.Majors[genericKey]),
		"vehicle_models":           len(doc.VehicleModels),
		"physical.eye_colors":      len(doc.Physical.EyeColors),
		"physical.hair_colors":     len(doc.Physical.HairColors),
		"physical.blood_types":     len(doc.Physical.BloodTypes),
		"social_platforms":         len(doc.SocialPlatforms),
		"languages":                len(doc.Languages),
	}
	for name, n := range required {
		if n == 0 {
			errs = append(errs, fmt.Errorf("%s must not be empty", name))
		}
	}

	for _, level := range []string{LevelEntry, LevelMid, LevelSenior, LevelExecutive} {
		if len(doc.JobTitles[level]) == 0 {
			errs = append(errs, fmt.Errorf("job_titles.%s must not be empty", level))
		}
	}

	for _, city := range doc.Cities {
		if len(city.Zip3) == 0 || city.Population <= 0 {
			errs = append(errs, fmt.Errorf("city %s, %s needs zip prefixes and a population", city.Name, city.State))
		}
	}

	for _, ind := range doc.Industries {
		if ind.IncomeMultiplier <= 0 || ind.Weight < 0 {
			errs = append(errs, fmt.Errorf("industry %s has invalid weights", ind.Name))
		}
		if len(ind.Seasonal) != 0 && len(ind.Seasonal) != 12 {
			errs = append(errs, fmt.Errorf("industry %s needs 12 seasonal weights", ind.Name))
		}
	}

	for _, m := range doc.VehicleModels {
		if m.Price <= 0 || m.Weight <= 0 {
			errs = append(errs, fmt.Errorf("vehicle model %s %s needs a price and a weight", m.Make, m.Model))
		}
	}

	if len(errs) > 0 {
		return errors.Join(ErrInvalidReferenceData, errors.Join(errs...))
	}

	return nil
}

func keyboardAdjacency(rows []string) map[rune][]rune {
	grid := make([][]rune, len(rows))
	for i, row := range rows {
		grid[i] = []rune(row)
	}

	adj := make(map[rune][]rune)
	for r, row := range grid {
		for col, key := range row {
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					if dr == 0 && dc == 0 {
						continue
					}
					nr, nc := r+dr, col+dc
					if nr < 0 || nr >= len(grid) || nc < 0 || nc >= len(grid[nr]) {
						continue
					}
					adj[key] = append(adj[key], grid[nr][nc])
				}
			}
		}
	}

	return adj
}

// FirstNames returns the common first names for a gender code ("M" or "F").
func (c *Context) FirstNames(gender string) []string {
	if gender == "F" {
		return c.doc.FirstNames.F
	}

	return c.doc.FirstNames.M
}

// DecadeNames returns the popular first names of the birth decade, falling back to the nearest decade.
func (c *Context) DecadeNames(birthYear int, gender string) []string {
	decade := birthYear / 10 * 10

	best, bestDist := -1, 0
	for d := range c.doc.NamesByDecade {
		dist := abs(d - decade)
		if best == -1 || dist < bestDist || (dist == bestDist && d < best) {
			best, bestDist = d, dist
		}
	}
	if best == -1 {
		return nil
	}

	names := c.doc.NamesByDecade[best]
	if gender == "F" {
		return names.F
	}

	return names.M
}

// CulturalWeights returns the weighted cultural groups.
func (c *Context) CulturalWeights() []Weighted {
	return c.doc.CulturalWeights
}

// CulturalFirstNames returns first names of a culture, or nil when the culture has none.
func (c *Context) CulturalFirstNames(culture, gender string) []string {
	names, ok := c.doc.CulturalFirstNames[culture]
	if !ok {
		return nil
	}
	if gender == "F" {
		return names.F
	}

	return names.M
}

// CulturalLastNames returns last names of a culture, or nil when the culture has none.
func (c *Context) CulturalLastNames(culture string) []string {
	return c.doc.CulturalLastNames[culture]
}

func (c *Context) LastNames() []string { return c.doc.LastNames }

func (c *Context) HyphenatedLastNames() [][2]string { return c.doc.HyphenatedLastNames }

// Nicknames returns the known nicknames of a first name.
func (c *Context) Nicknames(firstName string) []string {
	return c.doc.Nicknames[firstName]
}

// Prefixes returns the courtesy prefixes of a gender code.
func (c *Context) Prefixes(gender string) []string {
	if gender == "F" {
		return c.doc.Prefixes.F
	}

	return c.doc.Prefixes.M
}

func (c *Context) ProfessionalPrefixes() []string { return c.doc.Prefixes.Professional }

func (c *Context) GenerationalSuffixes() []string { return c.doc.Suffixes.Generational }

func (c *Context) ProfessionalSuffixes() []string { return c.doc.Suffixes.Professional }

func (c *Context) StreetNames() []string { return c.doc.StreetNames }

func (c *Context) StreetTypes() []string { return c.doc.StreetTypes }

func (c *Context) ApartmentPrefixes() []string { return c.doc.ApartmentPrefixes }

func (c *Context) MilitaryPostal() []MilitaryPostal { return c.doc.MilitaryPostal }

// Cities returns all cities in table order.
func (c *Context) Cities() []City { return c.doc.Cities }

// States returns the states that have at least one city, sorted.
func (c *Context) States() []string { return c.states }

// CitiesIn returns the cities of a state.
func (c *Context) CitiesIn(state string) []City {
	idx := c.cityIndex[state]
	out := make([]City, len(idx))
	for i, j := range idx {
		out[i] = c.doc.Cities[j]
	}

	return out
}

// StatePopulation returns the summed city population of a state.
func (c *Context) StatePopulation(state string) int {
	total := 0
	for _, j := range c.cityIndex[state] {
		total += c.doc.Cities[j].Population
	}

	return total
}

// AreaCodes returns the telephone area codes of a state, or nil when none are known.
func (c *Context) AreaCodes(state string) []string {
	return c.doc.AreaCodes[state]
}

// AllAreaCodes returns every known area code, sorted.
func (c *Context) AllAreaCodes() []string {
	var all []string
	for _, codes := range c.doc.AreaCodes {
		all = append(all, codes...)
	}
	sort.Strings(all)

	return all
}

// CostOfLiving returns the income multiplier of a state, 1.0 when unknown.
func (c *Context) CostOfLiving(state string) float64 {
	if m, ok := c.doc.CostOfLiving[state]; ok {
		return m
	}

	return 1.0
}

func (c *Context) PersonalEmailDomains() []Weighted { return c.doc.EmailDomains.Personal }

// Industries returns all industries in table order.
func (c *Context) Industries() []Industry { return c.doc.Industries }

// Industry looks up an industry by name.
func (c *Context) Industry(name string) (Industry, error) {
	ind, ok := c.industries[name]
	if !ok {
		return Industry{}, errors.Join(ErrUnknownKey, fmt.Errorf("industry %q", name))
	}

	return *ind, nil
}

// JobTitles returns titles for an industry and level. Industry specific titles win over generic ones.
func (c *Context) JobTitles(industry, level string) []string {
	if ind, ok := c.industries[industry]; ok {
		if titles := ind.Titles[level]; len(titles) > 0 {
			return titles
		}
	}

	return c.doc.JobTitles[level]
}

// Departments returns the departments of an industry, or the generic ones.
func (c *Context) Departments(industry string) []string {
	if ind, ok := c.industries[industry]; ok && len(ind.Departments) > 0 {
		return ind.Departments
	}

	return c.doc.Departments
}

// HiringSeasonality returns the 12 monthly hiring weights of an industry, flat when unknown.
func (c *Context) HiringSeasonality(industry string) []float64 {
	if ind, ok := c.industries[industry]; ok && len(ind.Seasonal) == 12 {
		return ind.Seasonal
	}

	flat := make([]float64, 12)
	for i := range flat {
		flat[i] = 1
	}

	return flat
}

func (c *Context) CompanyNames() []string { return c.doc.CompanyNames }

func (c *Context) Institutions() []string { return c.doc.Education.Institutions }

// Majors returns the fields of study that lead into an industry, or the generic ones.
func (c *Context) Majors(industry string) []string {
	if majors := c.doc.Education.Majors[industry]; len(majors) > 0 {
		return majors
	}

	return c.doc.Education.Majors[genericKey]
}

// Certifications returns the professional certifications of an industry; many industries have none.
func (c *Context) Certifications(industry string) []string {
	return c.doc.Education.Certifications[industry]
}

func (c *Context) VehicleModels() []VehicleModel { return c.doc.VehicleModels }

func (c *Context) EyeColors() []Weighted { return c.doc.Physical.EyeColors }

func (c *Context) HairColors() []Weighted { return c.doc.Physical.HairColors }

func (c *Context) BloodTypes() []Weighted { return c.doc.Physical.BloodTypes }

func (c *Context) SocialPlatforms() []SocialPlatform { return c.doc.SocialPlatforms }

// Languages returns the most spoken languages other than English with their weights.
func (c *Context) Languages() []Weighted { return c.doc.Languages }

func (c *Context) CompanyPrefixes() []string { return c.doc.CompanyPrefixes }

// CompanySuffixes returns the company name suffixes of an industry, or the generic ones.
func (c *Context) CompanySuffixes(industry string) []string {
	if ind, ok := c.industries[industry]; ok && len(ind.CompanySuffixes) > 0 {
		return ind.CompanySuffixes
	}

	return c.doc.CompanySuffixes
}

func (c *Context) Transpositions() [][2]string { return c.doc.Typos.Transpositions }

// Misspellings returns the known misspellings of a word, matched case-insensitively.
func (c *Context) Misspellings(word string) []string {
	for k, v := range c.doc.Typos.Misspellings {
		if strings.EqualFold(k, word) {
			return v
		}
	}

	return nil
}

// MisspelledWords returns the words that have known misspellings, sorted.
func (c *Context) MisspelledWords() []string {
	words := make([]string, 0, len(c.doc.Typos.Misspellings))
	for k := range c.doc.Typos.Misspellings {
		words = append(words, k)
	}
	sort.Strings(words)

	return words
}

// AdjacentKeys returns the QWERTY neighbours of a lowercase key.
func (c *Context) AdjacentKeys(key rune) []rune {
	return c.adjacency[key]
}

// Pick returns a uniformly chosen element. It panics on an empty slice.
func Pick[T any](r *rand.Rand, items []T) T {
	return items[r.IntN(len(items))]
}

// PickWeighted returns a value chosen proportionally to its weight.
// Non-positive total weight falls back to a uniform choice.
func PickWeighted(r *rand.Rand, items []Weighted) string {
	total := 0.0
	for _, it := range items {
		if it.Weight > 0 {
			total += it.Weight
		}
	}
	if total <= 0 {
		return Pick(r, items).Value
	}

	x := r.Float64() * total
	for _, it := range items {
		if it.Weight <= 0 {
			continue
		}
		x -= it.Weight
		if x < 0 {
			return it.Value
		}
	}

	return items[len(items)-1].Value
}

// PickIndex returns an index chosen proportionally to weights.
func PickIndex(r *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return r.IntN(len(weights))
	}

	x := r.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		x -= w
		if x < 0 {
			return i
		}
	}

	return len(weights) - 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
