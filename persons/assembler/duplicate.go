package assembler

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/seed"
)

// SourceCache holds recent clean records that near-duplicates can be drawn from.
// A miss is never an error: the assembler regenerates the source from its index.
type SourceCache interface {
	Get(index uint64) (persons.Person, bool)
	Put(p persons.Person)
}

// WithSourceCache sets the cache of recent clean records used as duplicate sources.
func WithSourceCache(cache SourceCache) Option {
	return func(a *Assembler) error {
		a.cache = cache
		return nil
	}
}

// DuplicateSource reports whether the record slot at index is a near-duplicate and,
// if so, the index of the earlier record it duplicates. Sources lie within the
// duplicate window before index and are never duplicate slots themselves, so every
// source is emitted as its own record.
func (a *Assembler) DuplicateSource(index uint64) (uint64, bool) {
	if !a.isDuplicateSlot(index) {
		return 0, false
	}

	r := seed.ForRecord(a.cfg.Seed, index, seed.SaltDuplicate)
	r.Float64() // the slot draw of isDuplicateSlot

	window := min(uint64(a.cfg.DuplicateWindow), index)

	for range sourceDraws {
		source := index - 1 - r.Uint64N(window)
		if !a.isDuplicateSlot(source) {
			return source, true
		}
	}

	// index 0 is never a duplicate slot, so the scan always ends
	source := index - 1
	for a.isDuplicateSlot(source) {
		source--
	}

	return source, true
}

// sourceDraws bounds the random source draws before falling back to the nearest earlier original.
const sourceDraws = 8

func (a *Assembler) isDuplicateSlot(index uint64) bool {
	rate := a.cfg.Quality.DuplicateRate
	if rate == 0 || index == 0 || a.cfg.DuplicateWindow < 1 {
		return false
	}

	return seed.ForRecord(a.cfg.Seed, index, seed.SaltDuplicate).Float64() < rate
}

// Duplicate returns the near-duplicate stored in slot index, perturbed from source.
// It keeps its own person ID and child IDs so it never collides with its source.
func (a *Assembler) Duplicate(index uint64, source persons.Person) persons.Person {
	r := seed.ForRecord(a.cfg.Seed, index, seed.SaltVariation)

	dup := a.variability.Perturb(r, source)
	Rekey(&dup, seed.PersonID(a.cfg.Seed, index))
	dup.Index = index

	return dup
}

func (a *Assembler) duplicateOf(index, sourceIndex uint64) (persons.Person, error) {
	if a.cache != nil {
		if src, ok := a.cache.Get(sourceIndex); ok {
			return a.Duplicate(index, src), nil
		}
	}

	src, err := a.AssembleClean(sourceIndex)
	if err != nil {
		return persons.Person{}, err
	}

	return a.Duplicate(index, src), nil
}

// Rekey assigns a new person ID and re-derives the IDs of all child entities from it.
func Rekey(p *persons.Person, id uuid.UUID) {
	p.ID = id

	for i := range p.Addresses {
		p.Addresses[i].ID = seed.ChildID(id, seed.KindAddress, i)
	}
	for i := range p.Phones {
		p.Phones[i].ID = seed.ChildID(id, seed.KindPhone, i)
	}
	for i := range p.Emails {
		p.Emails[i].ID = seed.ChildID(id, seed.KindEmail, i)
	}
	for i := range p.Employment {
		p.Employment[i].ID = seed.ChildID(id, seed.KindEmployment, i)
	}
}
