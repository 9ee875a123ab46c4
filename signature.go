package depot

import (
	"encoding/binary"
	"iter"
	"slices"
	"strings"

	"github.com/TheBitDrifter/mask"
	iter_util "github.com/TheBitDrifter/util/iter"
)

// Signature is an immutable, sorted and deduplicated set of TypeExpressions.
// Signatures built from the same members compare equal through Key, whatever
// order the members were supplied in.
type Signature struct {
	exprs []TypeExpression
	bloom mask.Mask
	key   string
}

// NewSignature canonicalizes exprs into a Signature.
func NewSignature(exprs ...TypeExpression) Signature {
	sorted := slices.Clone(exprs)
	slices.Sort(sorted)
	return newSortedSignature(slices.Compact(sorted))
}

func newSortedSignature(sorted []TypeExpression) Signature {
	sig := Signature{exprs: sorted}
	buf := make([]byte, 0, 8*len(sorted))
	for _, expr := range sorted {
		sig.bloom.Mark(bloomBit(expr))
		buf = binary.BigEndian.AppendUint64(buf, uint64(expr))
	}
	sig.key = string(buf)
	return sig
}

// bloomBit folds a type id into the mask. Every variant of one component type
// (plain, relation, link, keyed, wildcard) lands on the same bit.
func bloomBit(expr TypeExpression) uint32 {
	return uint32(expr.TypeID() & 63)
}

// Key is the canonical map key for the Signature.
func (s Signature) Key() string {
	return s.key
}

func (s Signature) Len() int {
	return len(s.exprs)
}

// At returns the i-th member in canonical order.
func (s Signature) At(i int) TypeExpression {
	return s.exprs[i]
}

func (s Signature) All() iter.Seq[TypeExpression] {
	return slices.Values(s.exprs)
}

// Members returns a copy of the sorted members.
func (s Signature) Members() []TypeExpression {
	return iter_util.Collect(s.All())
}

// IndexOf returns the position of a concrete member, or -1.
func (s Signature) IndexOf(expr TypeExpression) int {
	i, found := slices.BinarySearch(s.exprs, expr)
	if !found {
		return -1
	}
	return i
}

// Contains reports exact membership.
func (s Signature) Contains(expr TypeExpression) bool {
	return s.IndexOf(expr) >= 0
}

func (s Signature) Add(exprs ...TypeExpression) Signature {
	return NewSignature(append(slices.Clone(s.exprs), exprs...)...)
}

func (s Signature) Remove(exprs ...TypeExpression) Signature {
	kept := make([]TypeExpression, 0, len(s.exprs))
	for _, expr := range s.exprs {
		if !slices.Contains(exprs, expr) {
			kept = append(kept, expr)
		}
	}
	return newSortedSignature(kept)
}

// Intersect keeps the members also present in other.
func (s Signature) Intersect(other Signature) Signature {
	kept := make([]TypeExpression, 0, min(len(s.exprs), len(other.exprs)))
	for _, expr := range s.exprs {
		if other.Contains(expr) {
			kept = append(kept, expr)
		}
	}
	return newSortedSignature(kept)
}

// Except keeps the members absent from other.
func (s Signature) Except(other Signature) Signature {
	kept := make([]TypeExpression, 0, len(s.exprs))
	for _, expr := range s.exprs {
		if !other.Contains(expr) {
			kept = append(kept, expr)
		}
	}
	return newSortedSignature(kept)
}

// IsSupersetOf reports whether every member of other is matched by s.
// Wildcard members of other are satisfied by any matching concrete member.
func (s Signature) IsSupersetOf(other Signature) bool {
	if !s.bloom.ContainsAll(other.bloom) {
		return false
	}
	for _, expr := range other.exprs {
		if !s.Matches(expr) {
			return false
		}
	}
	return true
}

// Matches reports whether any member matches expr.
func (s Signature) Matches(expr TypeExpression) bool {
	if !expr.IsWildcard() {
		return s.Contains(expr)
	}
	for _, member := range s.exprs {
		if member.Matches(expr) {
			return true
		}
	}
	return false
}

// MatchesAny reports whether any member matches any of exprs.
func (s Signature) MatchesAny(other Signature) bool {
	if s.bloom.ContainsNone(other.bloom) {
		return false
	}
	for _, expr := range other.exprs {
		if s.Matches(expr) {
			return true
		}
	}
	return false
}

// Matching returns the members that match expr, in canonical order.
func (s Signature) Matching(expr TypeExpression) []TypeExpression {
	if !expr.IsWildcard() {
		if s.Contains(expr) {
			return []TypeExpression{expr}
		}
		return nil
	}
	var matched []TypeExpression
	for _, member := range s.exprs {
		if member.Matches(expr) {
			matched = append(matched, member)
		}
	}
	return matched
}

// Equal compares members.
func (s Signature) Equal(other Signature) bool {
	return s.key == other.key
}

// CompareTo orders signatures lexicographically by raw member values. It is
// only meant for deterministic ordering.
func (s Signature) CompareTo(other Signature) int {
	return slices.Compare(s.exprs, other.exprs)
}

func (s Signature) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, expr := range s.exprs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(expr.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
