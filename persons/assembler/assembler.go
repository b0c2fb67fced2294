// Package assembler builds complete Person records from a global index and the run seed.
//
// A record is a pure function of (seed, index): the assembler derives the record's own random
// source, runs the generators in their fixed order, links the record into its household and
// finally applies the data-quality defects. Workers can therefore assemble any index in any
// order and still produce byte-identical output.
package assembler

import (
	"errors"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/generators"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/seed"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/variability"
)

// ErrNilReferenceData is returned when the reference-data option is given a nil context.
var ErrNilReferenceData = errors.New("reference data context must not be nil")

// Assembler turns global indexes into Persons. It is safe for concurrent use as long as the
// optional SourceCache is.
type Assembler struct {
	cfg         persons.GenerationConfig
	ref         *refdata.Context
	pipeline    []generators.Generator
	variability *variability.Engine
	cache       SourceCache
	now         persons.Date
}

// Option defines a functional option for configuring an Assembler.
type Option func(*Assembler) error

// WithReferenceData replaces the embedded default reference data.
func WithReferenceData(ref *refdata.Context) Option {
	return func(a *Assembler) error {
		if ref == nil {
			return ErrNilReferenceData
		}

		a.ref = ref

		return nil
	}
}

// New returns an Assembler for a validated config.
func New(cfg persons.GenerationConfig, options ...Option) (*Assembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Assembler{cfg: cfg, now: persons.NewDate(cfg.ReferenceDate)}

	for _, option := range options {
		if err := option(a); err != nil {
			return nil, persons.NewOpError("build assembler", persons.KindConfig, err)
		}
	}

	if a.ref == nil {
		ref, err := refdata.Load()
		if err != nil {
			return nil, persons.NewOpError("load reference data", persons.KindConfig, err)
		}
		a.ref = ref
	}

	a.pipeline = generators.Pipeline(cfg, a.ref)
	a.variability = variability.New(cfg.Quality, a.ref, a.now)

	return a, nil
}

// Variability returns the defect engine the assembler applies.
func (a *Assembler) Variability() *variability.Engine {
	return a.variability
}

// Assemble returns the final record at index, with defects applied.
// Slots selected for duplication hold a perturbed copy of an earlier clean record.
func (a *Assembler) Assemble(index uint64) (persons.Person, error) {
	if sourceIndex, ok := a.DuplicateSource(index); ok {
		return a.duplicateOf(index, sourceIndex)
	}

	p, err := a.AssembleClean(index)
	if err != nil {
		return persons.Person{}, err
	}

	if a.cache != nil && a.cfg.Quality.DuplicateRate > 0 {
		a.cache.Put(p.Clone())
	}

	if !a.cfg.Quality.IsClean() {
		a.variability.Apply(seed.ForRecord(a.cfg.Seed, index, seed.SaltVariation), &p)
	}

	return p, nil
}

// AssembleClean returns the record at index before any defect is applied.
// Duplicate sources and household heads are taken from the clean record.
func (a *Assembler) AssembleClean(index uint64) (persons.Person, error) {
	p := persons.Person{ID: seed.PersonID(a.cfg.Seed, index), Index: index}

	head, err := a.linkHousehold(&p)
	if err != nil {
		return persons.Person{}, err
	}

	r := seed.ForRecord(a.cfg.Seed, index, seed.SaltRecord)
	subject := generators.Subject{Person: &p, Head: head}

	for _, g := range a.pipeline {
		if err := g.Generate(r, subject); err != nil {
			return persons.Person{}, persons.NewGenerationError("generate "+g.Name(), index, err)
		}
	}

	if err := checkInvariants(&p); err != nil {
		return persons.Person{}, persons.NewGenerationError("check record", index, err)
	}

	return p, nil
}
