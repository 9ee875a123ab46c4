package depot

import (
	"iter"
	"slices"

	"github.com/rotisserie/eris"
)

// QueryBuilder collects Has, Not and Any terms for a Query.
type QueryBuilder struct {
	world         *World
	has, not, any []TypeExpression
}

func (w *World) Query() *QueryBuilder {
	return &QueryBuilder{world: w}
}

// Has requires every term.
func (b *QueryBuilder) Has(exprs ...Expression) *QueryBuilder {
	b.has = appendExprs(b.has, exprs)
	return b
}

// Not excludes archetypes matching any term.
func (b *QueryBuilder) Not(exprs ...Expression) *QueryBuilder {
	b.not = appendExprs(b.not, exprs)
	return b
}

// Any requires at least one of the terms, when there are any.
func (b *QueryBuilder) Any(exprs ...Expression) *QueryBuilder {
	b.any = appendExprs(b.any, exprs)
	return b
}

func appendExprs(dst []TypeExpression, exprs []Expression) []TypeExpression {
	for _, expr := range exprs {
		dst = append(dst, expr.Expr())
	}
	return dst
}

// Build compiles the query. Queries are memoized per world: building the
// same mask twice returns the same Query.
func (b *QueryBuilder) Build() *Query {
	m := Mask{
		Has: NewSignature(b.has...),
		Not: NewSignature(b.not...),
		Any: NewSignature(b.any...),
	}
	w := b.world
	key := m.Key()
	w.queryMu.Lock()
	defer w.queryMu.Unlock()
	if idx, ok := w.queries.GetIndex(key); ok {
		return *w.queries.GetItem(idx)
	}
	q := &Query{world: w, mask: m}
	for _, arch := range w.archetypes {
		q.trackArchetype(arch)
	}
	if _, err := w.queries.Register(key, q); err != nil {
		// Too many queries to memoize; the query still works, it just won't
		// be kept current.
		w.logger.Warn().Err(err).Stringer("mask", m).Msg("query not registered")
	}
	return q
}

// Query is a Mask plus the live set of archetypes matching it. The set is
// maintained by the world as archetypes come and go.
type Query struct {
	world      *World
	mask       Mask
	archetypes []*Archetype
}

func (q *Query) trackArchetype(arch *Archetype) {
	if q.mask.Matches(arch.signature) {
		q.archetypes = append(q.archetypes, arch)
	}
}

func (q *Query) forgetArchetype(arch *Archetype) {
	q.archetypes = slices.DeleteFunc(q.archetypes, func(a *Archetype) bool { return a == arch })
}

func (q *Query) World() *World {
	return q.world
}

func (q *Query) Mask() Mask {
	return q.mask
}

// Archetypes returns a copy of the matching archetypes.
func (q *Query) Archetypes() []*Archetype {
	return slices.Clone(q.archetypes)
}

// Count is the number of entities in matching archetypes.
func (q *Query) Count() int {
	total := 0
	for _, arch := range q.archetypes {
		total += arch.Count()
	}
	return total
}

// Contains reports whether a living entity is matched by the query.
func (q *Query) Contains(e Entity) bool {
	if e.world != q.world || !e.Alive() {
		return false
	}
	arch := q.world.meta[e.id.Index()].arch
	return arch != nil && slices.Contains(q.archetypes, arch)
}

// Entities yields every matched entity. The world is not locked: a structural
// change to the archetype being walked ends the sequence with a
// ConcurrentModificationError.
func (q *Query) Entities() iter.Seq2[Entity, error] {
	return entitiesOf(q.Archetypes())
}

func entitiesOf(archetypes []*Archetype) iter.Seq2[Entity, error] {
	return func(yield func(Entity, error) bool) {
		for _, arch := range archetypes {
			for e, err := range arch.Entities() {
				if !yield(e, err) || err != nil {
					return
				}
			}
		}
	}
}

// Despawn despawns every matched entity, or queues it while the world is
// locked.
func (q *Query) Despawn() error {
	return despawnFrom(q.world, q.Archetypes)
}

func despawnFrom(w *World, archetypes func() []*Archetype) error {
	if w.Locked() {
		w.opQueue.enqueueOp(operation{typ: opDespawnArchetypes, archetypes: archetypes})
		return nil
	}
	despawnArchetypes(archetypes())
	return nil
}

func despawnArchetypes(archetypes []*Archetype) {
	for _, arch := range archetypes {
		arch.Truncate(0)
	}
}

// TruncateMode selects how a truncation spreads its target size over the
// matched archetypes.
type TruncateMode int

const (
	// TruncateProportional shrinks every archetype by the same ratio. Shares
	// round up, so the total may end slightly above the target.
	TruncateProportional TruncateMode = iota
	// TruncatePerArchetype caps every archetype at the target size.
	TruncatePerArchetype
)

func (m TruncateMode) String() string {
	if m == TruncatePerArchetype {
		return "per archetype"
	}
	return "proportional"
}

// Truncate despawns entities from the end of the matched archetypes until
// targetSize is met, or queues that while the world is locked.
func (q *Query) Truncate(targetSize int, mode TruncateMode) error {
	return truncateFrom(q.world, q.Archetypes, targetSize, mode)
}

func truncateFrom(w *World, archetypes func() []*Archetype, targetSize int, mode TruncateMode) error {
	if targetSize < 0 {
		return eris.Errorf("cannot truncate to %d entities", targetSize)
	}
	if w.Locked() {
		w.opQueue.enqueueOp(operation{typ: opTruncate, archetypes: archetypes, amount: targetSize, mode: mode})
		return nil
	}
	truncateArchetypes(archetypes(), targetSize, mode)
	return nil
}

func truncateArchetypes(archetypes []*Archetype, targetSize int, mode TruncateMode) {
	if mode == TruncatePerArchetype {
		for _, arch := range archetypes {
			arch.Truncate(targetSize)
		}
		return
	}
	total := 0
	for _, arch := range archetypes {
		total += arch.Count()
	}
	if total <= targetSize {
		return
	}
	// Shares are computed up front; cascades may shrink later archetypes.
	shares := make([]int, len(archetypes))
	for i, arch := range archetypes {
		shares[i] = (arch.Count()*targetSize + total - 1) / total
	}
	for i, arch := range archetypes {
		arch.Truncate(shares[i])
	}
}

// Batch starts a bulk add/remove over every matched archetype.
func (q *Query) Batch(add AddConflict, remove RemoveConflict) *Batch {
	return newBatch(q.world, q.Archetypes, add, remove)
}

// Cursor walks the query row by row with the world locked.
func (q *Query) Cursor() *Cursor {
	return newCursor(q)
}

func (q *Query) String() string {
	return "Query" + q.mask.String()
}
