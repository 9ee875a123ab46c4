package depot

import "testing"

// TestEntityIdentityFields tests packing and unpacking entity identities
func TestEntityIdentityFields(t *testing.T) {
	tests := []struct {
		name       string
		world      uint8
		generation uint16
		index      uint32
		wantString string
	}{
		{"Zero", 0, 0, 0, "E0:000000/0"},
		{"Typical", 3, 5, 0x123456, "E3:123456/5"},
		{"Maximums", 255, maxGeneration, maxIndex, "E255:ffffff/4095"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := newEntityIdentity(tt.world, tt.generation, tt.index)
			if !id.IsEntity() {
				t.Fatalf("IsEntity() = false for %#x", uint64(id))
			}
			if id.IsRelation() || id.IsWildcard() {
				t.Errorf("Entity identity classified as relation or wildcard")
			}
			if id.World() != tt.world {
				t.Errorf("World() = %d, want %d", id.World(), tt.world)
			}
			if id.Generation() != tt.generation {
				t.Errorf("Generation() = %d, want %d", id.Generation(), tt.generation)
			}
			if id.Index() != tt.index {
				t.Errorf("Index() = %#x, want %#x", id.Index(), tt.index)
			}
			if id.String() != tt.wantString {
				t.Errorf("String() = %q, want %q", id.String(), tt.wantString)
			}
		})
	}
}

// TestIdentitySuccessor tests generation bumps and wrap-around
func TestIdentitySuccessor(t *testing.T) {
	id := newEntityIdentity(7, 0, 42)
	next := id.successor()
	if next.Generation() != 1 || next.Index() != 42 || next.World() != 7 {
		t.Errorf("successor() = %v, want generation 1 of the same slot", next)
	}
	if next == id {
		t.Errorf("successor() equals the original identity")
	}

	last := newEntityIdentity(7, maxGeneration, 42)
	if wrapped := last.successor(); wrapped.Generation() != 0 {
		t.Errorf("successor() of max generation = %d, want 0", wrapped.Generation())
	}
}

// TestTypeExpressionFields tests the header and payload of type expressions
func TestTypeExpressionFields(t *testing.T) {
	target := newEntityIdentity(2, 9, 1234)
	relation := relationExpression(KindData, 17, target)

	if relation.Kind() != KindData || relation.TypeID() != 17 {
		t.Errorf("relation header = %v/%d, want Data/17", relation.Kind(), relation.TypeID())
	}
	if !relation.IsRelation() || relation.IsEntity() {
		t.Errorf("relation classification wrong: IsRelation %v IsEntity %v", relation.IsRelation(), relation.IsEntity())
	}
	if relation.Target() != target {
		t.Errorf("Target() = %v, want %v", relation.Target(), target)
	}

	link := linkExpression(KindData, 17, 17, 0xDEADBEEF)
	if link.SecondaryKind() != SecondaryObject || link.Hash() != 0xDEADBEEF {
		t.Errorf("link = %v/%#x, want Object/0xdeadbeef", link.SecondaryKind(), link.Hash())
	}

	keyed := keyedExpression(KindVoid, 17, 3, 99)
	if keyed.SecondaryKind() != SecondaryKeyed || keyed.Hash() != 99 || keyed.Kind() != KindVoid {
		t.Errorf("keyed = %v", keyed)
	}

	plain := plainExpression(KindData, 17)
	if plain.SecondaryKind() != SecondaryPlain || plain.IsRelation() || plain.IsWildcard() {
		t.Errorf("plain expression misclassified: %#x", uint64(plain))
	}

	// Expressions with different targets are different columns
	other := relationExpression(KindData, 17, newEntityIdentity(2, 10, 1234))
	if relation == other {
		t.Errorf("relations to different generations collide")
	}
}

// TestExpressionMatches tests wildcard matching between expressions
func TestExpressionMatches(t *testing.T) {
	const typeID = 21
	target := newEntityIdentity(0, 0, 1)

	plain := plainExpression(KindData, typeID)
	relation := relationExpression(KindData, typeID, target)
	link := linkExpression(KindData, typeID, typeID, 5)
	keyed := keyedExpression(KindData, typeID, 4, 5)

	anyRelation := wildcardExpression(typeID, SecondaryEntity)
	anyLink := wildcardExpression(typeID, SecondaryObject)
	anyKeyed := wildcardExpression(typeID, SecondaryKeyed)
	anyTarget := wildcardExpression(typeID, SecondaryEntity|SecondaryObject|SecondaryKeyed)
	anyVariant := wildcardExpression(typeID, acceptPlain|SecondaryEntity|SecondaryObject|SecondaryKeyed)

	tests := []struct {
		name string
		a, b TypeExpression
		want bool
	}{
		{"Identical", plain, plain, true},
		{"Plain vs relation", plain, relation, false},
		{"Plain vs any", plain, anyVariant, true},
		{"Plain vs any target", plain, anyTarget, false},
		{"Relation vs any relation", relation, anyRelation, true},
		{"Any relation vs relation", anyRelation, relation, true},
		{"Relation vs any link", relation, anyLink, false},
		{"Link vs any link", link, anyLink, true},
		{"Link vs any target", link, anyTarget, true},
		{"Keyed vs any keyed", keyed, anyKeyed, true},
		{"Keyed vs any relation", keyed, anyRelation, false},
		{"Overlapping wildcards", anyTarget, anyRelation, true},
		{"Disjoint wildcards", anyLink, anyRelation, false},
		{"Other type", plainExpression(KindData, typeID+1), anyVariant, false},
		{"Entity vs wildcard", target, anyRelation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Matches(tt.b); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestIdentityOrdering tests that ordering is by raw value
func TestIdentityOrdering(t *testing.T) {
	low := plainExpression(KindVoid, 1)
	high := plainExpression(KindData, 1)
	if low.Compare(high) != -1 || high.Compare(low) != 1 || low.Compare(low) != 0 {
		t.Errorf("Compare() does not follow raw values")
	}
}
