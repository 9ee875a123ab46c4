package depot

import (
	"slices"

	"github.com/rotisserie/eris"
)

// AddConflict decides what a batch does with additions an archetype already
// holds.
type AddConflict int

const (
	// AddStrict fails the whole batch before anything changes.
	AddStrict AddConflict = iota
	// AddPreserve keeps the existing values.
	AddPreserve
	// AddReplace overwrites the existing values before the move.
	AddReplace
)

// RemoveConflict decides what a batch does with removals an archetype does
// not hold.
type RemoveConflict int

const (
	RemoveStrict RemoveConflict = iota
	RemoveAllow
)

// Batch collects component additions and removals applied to every entity of
// a set of archetypes in one migration per archetype.
type Batch struct {
	world *World
	// archetypes is resolved at submit time so a queued batch sees the
	// archetypes that exist when it is applied.
	archetypes func() []*Archetype
	add        AddConflict
	remove     RemoveConflict
	additions  []TypeExpression
	values     []any
	removals   []TypeExpression
	err        error
}

func newBatch(w *World, archetypes func() []*Archetype, add AddConflict, remove RemoveConflict) *Batch {
	return &Batch{
		world:      w,
		archetypes: archetypes,
		add:        add,
		remove:     remove,
	}
}

// Add schedules expr with value for every entity. value must be a single
// value of the component type; nil stands for the zero value.
func (b *Batch) Add(expr Expression, value any) *Batch {
	e := expr.Expr()
	err := checkValue(e, value)
	if _, ok := value.(rowValues); ok && err == nil {
		err = eris.Errorf("batch value for %v must be a single value", e)
	}
	if err != nil {
		b.fail(err)
		return b
	}
	if idx := slices.Index(b.additions, e); idx >= 0 {
		b.values[idx] = value
		return b
	}
	b.additions = append(b.additions, e)
	b.values = append(b.values, value)
	return b
}

func (b *Batch) Remove(expr Expression) *Batch {
	e := expr.Expr()
	if e.IsWildcard() {
		b.fail(WildcardError{Expression: e})
		return b
	}
	if !slices.Contains(b.removals, e) {
		b.removals = append(b.removals, e)
	}
	return b
}

func (b *Batch) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Submit applies the batch, or queues it while the world is locked. Conflict
// checks run before any archetype is touched.
func (b *Batch) Submit() error {
	if b.err != nil {
		return b.err
	}
	if b.world.Locked() {
		queued := *b
		queued.additions = slices.Clone(b.additions)
		queued.values = slices.Clone(b.values)
		queued.removals = slices.Clone(b.removals)
		b.world.opQueue.enqueueOp(operation{typ: opBatch, batch: &queued})
		return nil
	}
	return b.submitNow()
}

func (b *Batch) submitNow() error {
	for _, expr := range b.additions {
		if !expr.IsRelation() {
			continue
		}
		target := expr.Target()
		if tw := worldAt(target.World()); tw == nil || !tw.IsAlive(target) {
			return eris.Wrapf(EntityNotAliveError{Entity: target}, "relation target of %v", expr)
		}
	}
	archetypes := b.archetypes()
	for _, arch := range archetypes {
		if arch.IsEmpty() {
			continue
		}
		if b.add == AddStrict {
			for _, expr := range b.additions {
				if arch.signature.Contains(expr) {
					return ComponentExistsError{Component: expr}
				}
			}
		}
		if b.remove == RemoveStrict {
			for _, expr := range b.removals {
				if !arch.signature.Contains(expr) {
					return ComponentNotFoundError{Component: expr}
				}
			}
		}
	}
	for _, arch := range archetypes {
		if arch.IsEmpty() {
			continue
		}
		sig := arch.signature.Add(b.additions...).Remove(b.removals...)
		arch.Migrate(b.world.GetArchetype(sig), b.additions, b.values, b.add)
	}
	return nil
}
