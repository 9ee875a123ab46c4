package depot

import (
	"iter"
	"slices"
)

// streamBase holds what every stream arity shares: the query, the
// Subset/Exclude post-filter and the job concurrency.
type streamBase struct {
	query       *Query
	subset      Signature
	exclude     Signature
	concurrency int
}

func newStreamBase(q *Query) streamBase {
	return streamBase{query: q, concurrency: q.world.concurrency}
}

func (s streamBase) Query() *Query {
	return s.query
}

// filtered returns the query's archetypes that match any Subset term (when
// there are some) and no Exclude term.
func (s streamBase) filtered() []*Archetype {
	archetypes := s.query.Archetypes()
	if s.subset.Len() == 0 && s.exclude.Len() == 0 {
		return archetypes
	}
	return slices.DeleteFunc(archetypes, func(a *Archetype) bool {
		if s.subset.Len() > 0 && !a.signature.MatchesAny(s.subset) {
			return true
		}
		return s.exclude.Len() > 0 && a.signature.MatchesAny(s.exclude)
	})
}

// Count is the number of entities the stream covers. Rows visited more than
// once by a wildcard join are counted once.
func (s streamBase) Count() int {
	total := 0
	for _, arch := range s.filtered() {
		total += arch.Count()
	}
	return total
}

// Despawn despawns every entity the stream covers, or queues it while the
// world is locked.
func (s streamBase) Despawn() error {
	return despawnFrom(s.query.world, s.filtered)
}

// Truncate shrinks the filtered archetypes toward targetSize entities, or
// queues that while the world is locked.
func (s streamBase) Truncate(targetSize int, mode TruncateMode) error {
	return truncateFrom(s.query.world, s.filtered, targetSize, mode)
}

// blit overwrites every column matching the slot's expression.
func (s streamBase) blit(expr TypeExpression, value any) error {
	return s.locked(func() error {
		for _, arch := range s.filtered() {
			arch.Fill(expr, value)
		}
		return nil
	})
}

func (s streamBase) Entities() iter.Seq2[Entity, error] {
	return entitiesOf(s.filtered())
}

// Batch starts a bulk add/remove over the filtered archetypes.
func (s streamBase) Batch(add AddConflict, remove RemoveConflict) *Batch {
	return newBatch(s.query.world, s.filtered, add, remove)
}

func (s streamBase) withSubset(exprs []Expression) streamBase {
	s.subset = s.subset.Add(appendExprs(nil, exprs)...)
	return s
}

func (s streamBase) withExclude(exprs []Expression) streamBase {
	s.exclude = s.exclude.Add(appendExprs(nil, exprs)...)
	return s
}

func (s streamBase) withConcurrency(n int) streamBase {
	s.concurrency = max(1, n)
	return s
}

// locked runs fn inside a world lock. Structural changes made by fn are
// applied when the lock is released; fn's error wins over the drain's.
func (s streamBase) locked(fn func() error) (err error) {
	w := s.query.world
	w.Lock()
	defer func() {
		if unlockErr := w.Unlock(); err == nil {
			err = unlockErr
		}
	}()
	return fn()
}

// raw is locked with spawning forbidden, since raw callbacks hold whole
// columns.
func (s streamBase) raw(fn func() error) error {
	w := s.query.world
	w.rawDepth.Add(1)
	defer w.rawDepth.Add(-1)
	return s.locked(fn)
}

// parallel runs submit inside a world lock and waits for every chunk it
// handed to the barrier. Bare spawns are refused until the job is done.
func (s streamBase) parallel(submit func(b *barrier, size int) int) error {
	w := s.query.world
	return s.locked(func() error {
		w.jobDepth.Add(1)
		defer w.jobDepth.Add(-1)
		size := s.chunkSize()
		b := newBarrier()
		s.logJob(submit(b, size), size)
		return b.wait()
	})
}

func (s streamBase) chunkSize() int {
	return max(1, s.Count()/s.concurrency)
}

// chunks yields [start, end) ranges of size rows or less covering count.
func chunks(count, size int) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for start := 0; start < count; start += size {
			if !yield(start, min(start+size, count)) {
				return
			}
		}
	}
}

// checkConcrete rejects wildcard slots: a parallel write needs exactly one
// destination column.
func checkConcrete(types ...TypeExpression) error {
	for _, expr := range types {
		if expr.IsWildcard() {
			return AmbiguousWriteError{Expression: expr}
		}
	}
	return nil
}

func entityAt(arch *Archetype, row int) Entity {
	return Entity{world: arch.world, id: arch.identities.data[row]}
}

func (s streamBase) logJob(chunks, size int) {
	s.query.world.logger.Debug().Int("chunks", chunks).Int("chunk_size", size).Msg("job dispatched")
}
