// Package seed derives the deterministic random sources and identifiers of generated records.
//
// Every record owns its own random source, seeded from a stable hash of the run seed and the
// record's global index. No random state is shared between records or workers, so the same
// (seed, index) pair always yields the same record regardless of parallelism.
package seed

import (
	"encoding/binary"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
)

// Salts separate independent random streams derived from the same record seed.
const (
	SaltRecord    uint64 = 0x5245434f52440001
	SaltDuplicate uint64 = 0x4455504c49430002
	SaltHousehold uint64 = 0x484f555345480003
	SaltVariation uint64 = 0x5641524941540004
)

// Kinds of child entities identified by ChildID.
const (
	KindAddress    = "address"
	KindPhone      = "phone"
	KindEmail      = "email"
	KindEmployment = "employment"
)

const golden = 0x9e3779b97f4a7c15

var (
	namespacePerson    = uuid.NewSHA1(uuid.NameSpaceOID, []byte("synthetic-persons/person"))
	namespaceHousehold = uuid.NewSHA1(uuid.NameSpaceOID, []byte("synthetic-persons/household"))
)

// SubSeed is the stable per-record seed of the record at index.
func SubSeed(base, index uint64) uint64 {
	return mix(base ^ mix(index+golden))
}

// Derive returns an independent seed for the given purpose.
func Derive(sub, salt uint64) uint64 {
	return mix(sub ^ salt)
}

// New returns a PCG-backed random source for a seed.
func New(s uint64) *rand.Rand {
	return rand.New(rand.NewPCG(s, mix(s+golden))) //nolint:gosec // synthetic data, not security relevant
}

// ForRecord returns the random source of the record at index for the given purpose.
func ForRecord(base, index, salt uint64) *rand.Rand {
	return New(Derive(SubSeed(base, index), salt))
}

// PersonID is the stable identifier of the person generated at index.
func PersonID(base, index uint64) uuid.UUID {
	return uuid.NewSHA1(namespacePerson, pair(base, index))
}

// HouseholdID is the stable identifier of the household headed by the person at headIndex.
func HouseholdID(base, headIndex uint64) uuid.UUID {
	return uuid.NewSHA1(namespaceHousehold, pair(base, headIndex))
}

// ChildID is the stable identifier of the n-th child entity of a kind below parent.
func ChildID(parent uuid.UUID, kind string, n int) uuid.UUID {
	return uuid.NewSHA1(parent, []byte(kind+":"+strconv.Itoa(n)))
}

func pair(a, b uint64) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], a)
	binary.BigEndian.PutUint64(buf[8:], b)

	return buf
}

// mix is the splitmix64 finalizer.
func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb

	return z ^ (z >> 31)
}
