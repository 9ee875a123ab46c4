package depot

import (
	"fmt"
	"strings"
)

// Identity is the bit-packed 64 bit key shared by entities, components and
// relations.
//
//	bits 60-63  primary kind
//	bits 48-59  component type id
//	bits 44-47  secondary kind (or wildcard accept set)
//	bits  0-43  secondary payload
//
// Entity identities only use the low 48 bits. Equality and ordering are plain
// integer comparisons on the raw value.
type Identity uint64

// TypeExpression is an Identity used as a column key or query term.
type TypeExpression = Identity

// Kind is the primary kind stored in the top four bits of an Identity.
type Kind uint64

const (
	KindNone   Kind = 0x0 << 60
	KindVoid   Kind = 0x1 << 60
	KindData   Kind = 0x2 << 60
	KindUnique Kind = 0x3 << 60

	KindWildVoid   Kind = 0x8 << 60
	KindWildData   Kind = 0x9 << 60
	KindWildUnique Kind = 0xA << 60
	KindWildAny    Kind = 0xF << 60
)

// SecondaryKind tags the low 48 bits of an Identity.
type SecondaryKind uint64

const (
	SecondaryPlain  SecondaryKind = 0x0 << 44
	SecondaryEntity SecondaryKind = 0x1 << 44
	SecondaryObject SecondaryKind = 0x2 << 44
	SecondaryKeyed  SecondaryKind = 0x4 << 44

	// Only meaningful inside a wildcard accept set, where Plain cannot be zero.
	acceptPlain SecondaryKind = 0x8 << 44
)

const (
	kindMask      uint64 = 0xF000_0000_0000_0000
	wildBit       uint64 = 0x8000_0000_0000_0000
	typeMask      uint64 = 0x0FFF_0000_0000_0000
	headerMask    uint64 = 0xFFFF_0000_0000_0000
	secondaryMask uint64 = 0x0000_F000_0000_0000
	keyMask       uint64 = 0x0000_FFFF_FFFF_FFFF
	payloadMask   uint64 = 0x0000_0FFF_FFFF_FFFF

	worldMask      uint64 = 0x0000_0FF0_0000_0000
	generationMask uint64 = 0x0000_000F_FF00_0000
	indexMask      uint64 = 0x0000_0000_00FF_FFFF

	subTypeMask uint64 = 0x0000_0FFF_0000_0000
	hashMask    uint64 = 0x0000_0000_FFFF_FFFF

	typeShift       = 48
	worldShift      = 36
	generationShift = 24
	subTypeShift    = 32

	maxTypeID = 0x0FFF
	maxWorlds = 0x100

	// Generations wrap after 4096 reuses of one index. A handle kept across
	// that many despawn/spawn cycles of its slot resolves to the new entity.
	maxGeneration = 0x0FFF
	maxIndex      = 0x00FF_FFFF
)

func assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("depot: "+format, args...))
	}
}

// newEntityIdentity packs a world slot, generation and index.
func newEntityIdentity(world uint8, generation uint16, index uint32) Identity {
	assert(generation <= maxGeneration, "generation %d out of range", generation)
	assert(index <= maxIndex, "entity index %d out of range", index)
	return Identity(uint64(SecondaryEntity) |
		uint64(world)<<worldShift |
		uint64(generation)<<generationShift |
		uint64(index))
}

func newTypeExpression(kind Kind, typeID uint16, secondary uint64) TypeExpression {
	assert(kind != KindNone, "type expression needs a primary kind")
	assert(typeID <= maxTypeID, "type id %d out of range", typeID)
	assert(secondary&headerMask == 0, "secondary key %#x overlaps the header", secondary)
	return TypeExpression(uint64(kind) | uint64(typeID)<<typeShift | secondary)
}

// plainExpression is a component without a target.
func plainExpression(kind Kind, typeID uint16) TypeExpression {
	return newTypeExpression(kind, typeID, uint64(SecondaryPlain))
}

// relationExpression is a component targeting an entity.
func relationExpression(kind Kind, typeID uint16, target Identity) TypeExpression {
	assert(target.IsEntity(), "relation target %v is not an entity", target)
	return newTypeExpression(kind, typeID, uint64(target))
}

// linkExpression is a component targeting an object by hash.
func linkExpression(kind Kind, typeID, subType uint16, hash uint32) TypeExpression {
	return newTypeExpression(kind, typeID, uint64(SecondaryObject)|uint64(subType)<<subTypeShift|uint64(hash))
}

// keyedExpression is a component discriminated by a custom key hash.
func keyedExpression(kind Kind, typeID, keyType uint16, hash uint32) TypeExpression {
	return newTypeExpression(kind, typeID, uint64(SecondaryKeyed)|uint64(keyType)<<subTypeShift|uint64(hash))
}

// wildcardExpression matches every concrete expression of typeID whose
// secondary kind is in accept.
func wildcardExpression(typeID uint16, accept SecondaryKind) TypeExpression {
	return newTypeExpression(KindWildData, typeID, uint64(accept))
}

func (id Identity) Kind() Kind { return Kind(uint64(id) & kindMask) }

func (id Identity) TypeID() uint16 { return uint16((uint64(id) & typeMask) >> typeShift) }

func (id Identity) SecondaryKind() SecondaryKind {
	return SecondaryKind(uint64(id) & secondaryMask)
}

// IsWildcard reports whether the expression matches a family of columns.
func (id Identity) IsWildcard() bool { return uint64(id)&wildBit != 0 }

// IsEntity reports whether the value is an entity identity (no header).
func (id Identity) IsEntity() bool {
	return uint64(id)&headerMask == 0 && id.SecondaryKind() == SecondaryEntity
}

// IsRelation reports whether the value is a concrete relation component.
func (id Identity) IsRelation() bool {
	return !id.IsWildcard() && id.Kind() != KindNone && id.SecondaryKind() == SecondaryEntity
}

func (id Identity) World() uint8 {
	assert(id.SecondaryKind() == SecondaryEntity && !id.IsWildcard(), "%v carries no entity", id)
	return uint8((uint64(id) & worldMask) >> worldShift)
}

func (id Identity) Generation() uint16 {
	assert(id.SecondaryKind() == SecondaryEntity && !id.IsWildcard(), "%v carries no entity", id)
	return uint16((uint64(id) & generationMask) >> generationShift)
}

func (id Identity) Index() uint32 {
	assert(id.SecondaryKind() == SecondaryEntity && !id.IsWildcard(), "%v carries no entity", id)
	return uint32(uint64(id) & indexMask)
}

// Target returns the entity identity a relation points at.
func (id Identity) Target() Identity {
	assert(id.IsRelation(), "%v is not a relation", id)
	return Identity(uint64(id) & keyMask)
}

// Hash returns the object or key hash of a link or keyed expression.
func (id Identity) Hash() uint32 {
	sk := id.SecondaryKind()
	assert(!id.IsWildcard() && (sk == SecondaryObject || sk == SecondaryKeyed), "%v carries no hash", id)
	return uint32(uint64(id) & hashMask)
}

// successor is the same entity slot one generation later.
func (id Identity) successor() Identity {
	gen := (id.Generation() + 1) & maxGeneration
	return newEntityIdentity(id.World(), gen, id.Index())
}

// Matches reports whether two expressions select the same column family.
func (id Identity) Matches(other Identity) bool {
	if id == other {
		return true
	}
	if id.TypeID() != other.TypeID() || id.Kind() == KindNone || other.Kind() == KindNone {
		return false
	}
	switch {
	case id.IsWildcard() && other.IsWildcard():
		return id.accept()&other.accept() != 0
	case id.IsWildcard():
		return id.accept()&other.acceptFlag() != 0
	case other.IsWildcard():
		return other.accept()&id.acceptFlag() != 0
	}
	return false
}

func (id Identity) accept() SecondaryKind { return id.SecondaryKind() }

func (id Identity) acceptFlag() SecondaryKind {
	if sk := id.SecondaryKind(); sk != SecondaryPlain {
		return sk
	}
	return acceptPlain
}

// Expr lets a raw TypeExpression be used wherever an Expression is accepted.
func (id Identity) Expr() TypeExpression { return id }

func (id Identity) Compare(other Identity) int {
	switch {
	case id < other:
		return -1
	case id > other:
		return 1
	}
	return 0
}

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindVoid:
		return "Void"
	case KindData:
		return "Data"
	case KindUnique:
		return "Unique"
	case KindWildVoid:
		return "WildVoid"
	case KindWildData:
		return "WildData"
	case KindWildUnique:
		return "WildUnique"
	case KindWildAny:
		return "WildAny"
	}
	return fmt.Sprintf("Kind(%#x)", uint64(k)>>60)
}

func (id Identity) String() string {
	if id == 0 {
		return "None"
	}
	if id.IsEntity() {
		return fmt.Sprintf("E%d:%06x/%d", id.World(), id.Index(), id.Generation())
	}
	if uint64(id)&headerMask == 0 {
		return fmt.Sprintf("Identity(%#016x)", uint64(id))
	}
	name := typeName(id.TypeID())
	if id.IsWildcard() {
		var parts []string
		accept := id.accept()
		if accept&acceptPlain != 0 {
			parts = append(parts, "plain")
		}
		if accept&SecondaryEntity != 0 {
			parts = append(parts, "entity")
		}
		if accept&SecondaryObject != 0 {
			parts = append(parts, "object")
		}
		if accept&SecondaryKeyed != 0 {
			parts = append(parts, "keyed")
		}
		return fmt.Sprintf("%s<%s>→*(%s)", id.Kind(), name, strings.Join(parts, "|"))
	}
	switch id.SecondaryKind() {
	case SecondaryEntity:
		return fmt.Sprintf("%s<%s>→%v", id.Kind(), name, id.Target())
	case SecondaryObject:
		return fmt.Sprintf("%s<%s>→obj:%08x", id.Kind(), name, id.Hash())
	case SecondaryKeyed:
		return fmt.Sprintf("%s<%s>→key<%s>:%08x", id.Kind(), name, typeName(uint16((uint64(id)&subTypeMask)>>subTypeShift)), id.Hash())
	}
	return fmt.Sprintf("%s<%s>", id.Kind(), name)
}
