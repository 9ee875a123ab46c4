package depot

import (
	"iter"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
)

// Archetype stores every entity that shares one exact Signature. It owns one
// column per signature member plus the identity column; row i of every
// column belongs to the same entity.
type Archetype struct {
	id         uint32
	world      *World
	signature  Signature
	storages   []storage
	identities *column[Identity]

	// Bumped before every structural change so running iterators can bail.
	version atomic.Int64
}

func newArchetype(w *World, id uint32, sig Signature) *Archetype {
	a := &Archetype{
		id:         id,
		world:      w,
		signature:  sig,
		storages:   make([]storage, sig.Len()),
		identities: newColumn[Identity](0),
	}
	for i, expr := range sig.exprs {
		assert(!expr.IsWildcard(), "archetype column %v is a wildcard", expr)
		ct, ok := lookupType(expr.TypeID())
		assert(ok, "type id %d is not registered", expr.TypeID())
		a.storages[i] = ct.newColumn()
	}
	return a
}

func (a *Archetype) ID() uint32 {
	return a.id
}

func (a *Archetype) Signature() Signature {
	return a.signature
}

func (a *Archetype) Count() int {
	return a.identities.Len()
}

func (a *Archetype) IsEmpty() bool {
	return a.Count() == 0
}

// Version changes whenever rows are added, removed or moved.
func (a *Archetype) Version() int64 {
	return a.version.Load()
}

func (a *Archetype) invalidate() {
	a.version.Add(1)
}

// Entity returns the entity stored at row. Rows are not bounds checked
// beyond the slice access itself.
func (a *Archetype) Entity(row int) Entity {
	return Entity{world: a.world, id: a.identities.data[row]}
}

// Entities yields every entity in row order and stops with a
// ConcurrentModificationError when the archetype changes shape mid-way.
func (a *Archetype) Entities() iter.Seq2[Entity, error] {
	return func(yield func(Entity, error) bool) {
		snapshot := a.Version()
		for row := 0; row < a.Count(); row++ {
			if err := a.checkVersion(snapshot); err != nil {
				yield(Entity{}, err)
				return
			}
			if !yield(a.Entity(row), nil) {
				return
			}
		}
		if err := a.checkVersion(snapshot); err != nil {
			yield(Entity{}, err)
		}
	}
}

func (a *Archetype) checkVersion(snapshot int64) error {
	if actual := a.Version(); actual != snapshot {
		return ConcurrentModificationError{Archetype: a.signature.String(), Expected: snapshot, Actual: actual}
	}
	return nil
}

func (a *Archetype) storageFor(expr TypeExpression) (storage, bool) {
	idx := a.signature.IndexOf(expr)
	if idx < 0 {
		return nil, false
	}
	return a.storages[idx], true
}

// GetStorage returns the column for a concrete member. Callers check
// membership first; an absent column is a programming error and panics.
func (a *Archetype) GetStorage(expr TypeExpression) storage {
	s, ok := a.storageFor(expr)
	if !ok {
		panic(eris.Wrapf(ComponentNotFoundError{Component: expr}, "archetype %v", a.signature))
	}
	return s
}

// spawn allocates n identities and appends them with their component values.
func (a *Archetype) spawn(n int, exprs []TypeExpression, values []any) []Identity {
	ids := a.world.allocate(n)
	a.place(ids, exprs, values)
	return ids
}

// place appends rows for already allocated identities.
func (a *Archetype) place(ids []Identity, exprs []TypeExpression, values []any) {
	a.invalidate()
	first := a.Count()
	for i, expr := range a.signature.exprs {
		a.storages[i].Append(valueFor(expr, exprs, values), len(ids))
	}
	a.identities.data = append(a.identities.data, ids...)
	a.patchMeta(first, len(ids))
}

func valueFor(expr TypeExpression, exprs []TypeExpression, values []any) any {
	if idx := slices.Index(exprs, expr); idx >= 0 {
		return values[idx]
	}
	return nil
}

// delete removes rows [start, start+n). The last rows of the archetype are
// moved into the gap and their meta is patched. Identities are not recycled.
func (a *Archetype) delete(start, n int) {
	if n <= 0 {
		return
	}
	a.invalidate()
	for _, s := range a.storages {
		s.Delete(start, n)
	}
	moved := a.identities.Delete(start, n)
	a.patchMeta(start, moved)
}

// Truncate deletes rows beyond maxCount and despawns their entities.
func (a *Archetype) Truncate(maxCount int) {
	excess := min(max(a.Count()-maxCount, 0), a.Count())
	if excess == 0 {
		return
	}
	start := a.Count() - excess
	ids := slices.Clone(a.identities.data[start:])
	a.delete(start, excess)
	a.world.recycle(ids)
}

// Fill overwrites every column matching expr with value.
func (a *Archetype) Fill(expr TypeExpression, value any) {
	for i, member := range a.signature.exprs {
		if member.Matches(expr) {
			a.storages[i].Blit(value)
		}
	}
}

// BackFill appends n copies of value to the column of expr.
func (a *Archetype) BackFill(expr TypeExpression, value any, n int) {
	a.GetStorage(expr).Append(value, n)
}

// Migrate moves every row into dst. With AddReplace, additions already held
// by a are overwritten in place before anything moves; columns missing from
// dst are dropped and columns new to dst are back-filled from values. An
// archetype left empty is handed back to its world for disposal.
func (a *Archetype) Migrate(dst *Archetype, additions []TypeExpression, values []any, mode AddConflict) {
	if a.IsEmpty() {
		return
	}
	a.invalidate()
	dst.invalidate()

	moved := a.Count()
	base := dst.Count()

	if mode == AddReplace {
		for j, expr := range additions {
			if s, ok := a.storageFor(expr); ok {
				s.Blit(values[j])
			}
		}
	}
	if dst == a {
		return
	}

	for i, expr := range a.signature.exprs {
		if d, ok := dst.storageFor(expr); ok {
			a.storages[i].MigrateTo(d)
			continue
		}
		a.storages[i].Clear()
	}
	for i, expr := range dst.signature.exprs {
		if !a.signature.Contains(expr) {
			dst.storages[i].Append(valueFor(expr, additions, values), moved)
		}
	}
	a.identities.MigrateTo(dst.identities)
	dst.patchMeta(base, moved)

	if a.IsEmpty() {
		a.world.disposeArchetype(a)
	}
}

// moveEntry moves a single row from src to dst, taking values for columns
// new to dst from additions.
func moveEntry(row int, src, dst *Archetype, additions []TypeExpression, values []any) {
	src.invalidate()
	dst.invalidate()

	for i, expr := range dst.signature.exprs {
		if s, ok := src.storageFor(expr); ok {
			dst.storages[i].AppendFrom(s, row)
			continue
		}
		dst.storages[i].Append(valueFor(expr, additions, values), 1)
	}
	dst.identities.AppendFrom(src.identities, row)

	for _, s := range src.storages {
		s.Delete(row, 1)
	}
	if moved := src.identities.Delete(row, 1); moved > 0 {
		src.patchMeta(row, moved)
	}
	dst.patchMeta(dst.Count()-1, 1)
}

func (a *Archetype) patchMeta(start, n int) {
	for row := start; row < start+n; row++ {
		id := a.identities.data[row]
		a.world.meta[id.Index()] = meta{id: id, arch: a, row: row}
	}
}

// CompareTo orders archetypes by signature.
func (a *Archetype) CompareTo(other *Archetype) int {
	return a.signature.CompareTo(other.signature)
}

func (a *Archetype) String() string {
	var sb strings.Builder
	sb.WriteString("Archetype#")
	sb.WriteString(strconv.FormatUint(uint64(a.id), 10))
	sb.WriteString(" ")
	sb.WriteString(a.signature.String())
	sb.WriteString(" (")
	sb.WriteString(strconv.Itoa(a.Count()))
	sb.WriteString(" entities)")
	return sb.String()
}
