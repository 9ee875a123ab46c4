package depot

import (
	"fmt"
	"strconv"
)

// Mask is the Has/Not/Any filter a Query matches archetype signatures with.
type Mask struct {
	Has Signature
	Not Signature
	Any Signature
}

// Matches applies Not, then Has, then Any. An empty Any never excludes.
func (m Mask) Matches(sig Signature) bool {
	if m.Not.Len() > 0 && sig.MatchesAny(m.Not) {
		return false
	}
	if !sig.IsSupersetOf(m.Has) {
		return false
	}
	if m.Any.Len() == 0 {
		return true
	}
	return sig.MatchesAny(m.Any)
}

// Key identifies masks with the same three member sets.
func (m Mask) Key() string {
	return strconv.Itoa(m.Has.Len()) + ":" + strconv.Itoa(m.Not.Len()) + ":" + m.Has.Key() + m.Not.Key() + m.Any.Key()
}

func (m Mask) String() string {
	return fmt.Sprintf("Mask{has: %v, not: %v, any: %v}", m.Has, m.Not, m.Any)
}
