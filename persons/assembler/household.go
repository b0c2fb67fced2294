package assembler

import (
	"math/rand/v2"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/refdata"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/seed"
)

// HouseholdBlock is the number of consecutive indexes a household is planned over.
const HouseholdBlock = 4

// minParentAge is the youngest head that can have an adult child.
const minParentAge = 38

var householdSizeWeights = []float64{0.28, 0.34, 0.16, 0.22}

// HouseholdPlan is the layout of one index block.
type HouseholdPlan struct {
	HeadIndex uint64
	Size      int

	// Roles holds the drawn roles of the members at HeadIndex+1 ... HeadIndex+Size-1.
	Roles []persons.HouseholdRole
}

// Household returns the plan of the block that contains index.
// Blocks whose size is 1 do not form a household.
func (a *Assembler) Household(index uint64) HouseholdPlan {
	start := index / HouseholdBlock * HouseholdBlock
	r := seed.ForRecord(a.cfg.Seed, start, seed.SaltHousehold)

	plan := HouseholdPlan{HeadIndex: start, Size: 1 + refdata.PickIndex(r, householdSizeWeights)}
	for k := 1; k < plan.Size; k++ {
		plan.Roles = append(plan.Roles, drawRole(r, k))
	}

	return plan
}

func drawRole(r *rand.Rand, k int) persons.HouseholdRole {
	x := r.Float64()

	if k == 1 {
		switch {
		case x < 0.75:
			return persons.RoleSpouse
		case x < 0.875:
			return persons.RoleSibling
		default:
			return persons.RoleRoommate
		}
	}

	switch {
	case x < 0.70:
		return persons.RoleChild
	case x < 0.85:
		return persons.RoleSibling
	default:
		return persons.RoleRoommate
	}
}

// linkHousehold sets p.Household and returns the head's clean record for members.
func (a *Assembler) linkHousehold(p *persons.Person) (*persons.Person, error) {
	if !a.cfg.Features.Relationships {
		return nil, nil
	}

	plan := a.Household(p.Index)
	slot := int(p.Index - plan.HeadIndex)
	if plan.Size < 2 || slot >= plan.Size {
		return nil, nil
	}

	link := &persons.HouseholdLink{
		ID:     seed.HouseholdID(a.cfg.Seed, plan.HeadIndex),
		HeadID: seed.PersonID(a.cfg.Seed, plan.HeadIndex),
		Role:   persons.RoleHead,
	}

	if slot == 0 {
		p.Household = link
		return nil, nil
	}

	head, err := a.AssembleClean(plan.HeadIndex)
	if err != nil {
		return nil, err
	}

	link.Role = plan.Roles[slot-1]
	if link.Role == persons.RoleChild && head.DateOfBirth.AgeAt(a.now) < minParentAge {
		link.Role = persons.RoleSibling
	}
	p.Household = link

	return &head, nil
}
