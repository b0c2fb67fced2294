package variability

import (
	"math/rand/v2"
	"strings"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
)

type perturbation int

const (
	perturbTrailingSpace perturbation = iota
	perturbLeadingSpace
	perturbDoubleSpace
	perturbTypo
	perturbNameFormat
	perturbNickname
	perturbDropMiddleName
)

var perturbations = []perturbation{
	perturbTrailingSpace,
	perturbLeadingSpace,
	perturbDoubleSpace,
	perturbTypo,
	perturbNameFormat,
	perturbNickname,
	perturbDropMiddleName,
}

// Perturb returns a near-duplicate of src: a deep copy with one to three small variations
// a deduplication system would have to see through. The copy keeps src's identity fields;
// callers assign the duplicate's own ID. The result carries a duplicate defect.
func (e *Engine) Perturb(r *rand.Rand, src persons.Person) persons.Person {
	p := src.Clone()
	p.Defects = nil

	n := 1 + r.IntN(3)
	for k := 0; k < n; k++ {
		switch refdata.Pick(r, perturbations) {
		case perturbTrailingSpace:
			p.LastName += " "
		case perturbLeadingSpace:
			p.FirstName = " " + p.FirstName
		case perturbDoubleSpace:
			if len(p.Addresses) > 0 {
				p.Addresses[0].Street1 = strings.Replace(p.Addresses[0].Street1, " ", "  ", 1)
			}
		case perturbTypo:
			if r.IntN(2) == 0 && len(p.Addresses) > 0 {
				p.Addresses[0].Street1 = e.IntroduceTypo(r, p.Addresses[0].Street1)
			} else {
				p.LastName = e.IntroduceTypo(r, p.LastName)
			}
		case perturbNameFormat:
			p.FirstName = strings.ToUpper(p.FirstName)
			p.LastName = strings.ToUpper(p.LastName)
		case perturbNickname:
			if p.Nickname != nil {
				p.FirstName = *p.Nickname
			} else if nicks := e.ref.Nicknames(strings.TrimSpace(p.FirstName)); len(nicks) > 0 {
				p.FirstName = refdata.Pick(r, nicks)
			} else {
				p.FirstName = e.IntroduceTypo(r, p.FirstName)
			}
		case perturbDropMiddleName:
			if p.MiddleName != nil {
				p.MiddleName = nil
			} else {
				p.LastName = strings.ToLower(p.LastName)
			}
		}
	}

	p.AddDefect(FieldRecord, persons.DefectDuplicate)

	return p
}
