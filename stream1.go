package depot

import "iter"

var _ Streamer = Stream1[int]{}

// Stream1 iterates one component slot over a query's archetypes. A wildcard
// slot visits the rows once per matching column.
type Stream1[C0 any] struct {
	streamBase
	types [1]TypeExpression
}

func NewStream[C0 any](q *Query, t0 Term[C0]) Stream1[C0] {
	return Stream1[C0]{
		streamBase: newStreamBase(q),
		types:      [1]TypeExpression{t0.expr},
	}
}

// Subset keeps only archetypes matching at least one of exprs.
func (s Stream1[C0]) Subset(exprs ...Expression) Stream1[C0] {
	s.streamBase = s.withSubset(exprs)
	return s
}

// Exclude drops archetypes matching any of exprs.
func (s Stream1[C0]) Exclude(exprs ...Expression) Stream1[C0] {
	s.streamBase = s.withExclude(exprs)
	return s
}

// WithConcurrency sets how many chunks Job aims for.
func (s Stream1[C0]) WithConcurrency(n int) Stream1[C0] {
	s.streamBase = s.withConcurrency(n)
	return s
}

// For calls fn for every row on the calling goroutine, with the world locked.
func (s Stream1[C0]) For(fn func(c0 *C0)) error {
	return s.ForEntity(func(_ Entity, c0 *C0) { fn(c0) })
}

func (s Stream1[C0]) ForEntity(fn func(e Entity, c0 *C0)) error {
	return s.locked(func() error {
		for _, arch := range s.filtered() {
			join := arch.crossJoin(s.types[:])
			if join.empty() {
				continue
			}
			snapshot := arch.Version()
			for {
				d0 := joined[C0](&join, 0)
				for i := range d0 {
					if err := arch.checkVersion(snapshot); err != nil {
						return err
					}
					fn(entityAt(arch, i), &d0[i])
				}
				if !join.iterate() {
					break
				}
			}
		}
		return nil
	})
}

// Job splits the rows into chunks and runs them on the worker pool. It
// blocks until every chunk is done and returns the first chunk error.
func (s Stream1[C0]) Job(fn func(c0 *C0)) error {
	return s.JobEntity(func(_ Entity, c0 *C0) { fn(c0) })
}

func (s Stream1[C0]) JobEntity(fn func(e Entity, c0 *C0)) error {
	if err := checkConcrete(s.types[:]...); err != nil {
		return err
	}
	return s.parallel(func(b *barrier, size int) (submitted int) {
		for _, arch := range s.filtered() {
			join := arch.crossJoin(s.types[:])
			if join.empty() {
				continue
			}
			snapshot := arch.Version()
			// Concrete slots join exactly one column combination.
			d0 := joined[C0](&join, 0)
			for start, end := range chunks(join.count, size) {
				b.run(func() error {
					for i := start; i < end; i++ {
						if err := arch.checkVersion(snapshot); err != nil {
							return err
						}
						fn(entityAt(arch, i), &d0[i])
					}
					return nil
				})
				submitted++
			}
		}
		return submitted
	})
}

// Raw hands whole columns to fn, once per archetype and column combination.
// Spawning from inside fn fails with IllegalContextError.
func (s Stream1[C0]) Raw(fn func(c0 []C0)) error {
	return s.RawEntity(func(_ []Identity, c0 []C0) { fn(c0) })
}

func (s Stream1[C0]) RawEntity(fn func(ids []Identity, c0 []C0)) error {
	return s.raw(func() error {
		for _, arch := range s.filtered() {
			join := arch.crossJoin(s.types[:])
			if join.empty() {
				continue
			}
			snapshot := arch.Version()
			for {
				fn(arch.identities.slice(0, join.count), joined[C0](&join, 0))
				if err := arch.checkVersion(snapshot); err != nil {
					return err
				}
				if !join.iterate() {
					break
				}
			}
		}
		return nil
	})
}

// Blit overwrites every streamed column with value.
func (s Stream1[C0]) Blit(value C0) error {
	return s.locked(func() error {
		for _, arch := range s.filtered() {
			join := arch.crossJoin(s.types[:])
			if join.empty() {
				continue
			}
			for {
				d0 := joined[C0](&join, 0)
				for i := range d0 {
					d0[i] = value
				}
				if !join.iterate() {
					break
				}
			}
		}
		return nil
	})
}

// Row1 is one row of a Stream1 walk.
type Row1[C0 any] struct {
	Entity Entity
	V0     *C0
}

// All walks the stream row by row with the world locked, so structural
// changes made in the loop apply when it ends. A direct archetype change, or
// a failed drain after the last row, ends the walk with an error.
func (s Stream1[C0]) All() iter.Seq2[Row1[C0], error] {
	return func(yield func(Row1[C0], error) bool) {
		stopped := false
		err := s.locked(func() error {
			for _, arch := range s.filtered() {
				join := arch.crossJoin(s.types[:])
				if join.empty() {
					continue
				}
				snapshot := arch.Version()
				for {
					d0 := joined[C0](&join, 0)
					for i := range d0 {
						if err := arch.checkVersion(snapshot); err != nil {
							return err
						}
						if !yield(Row1[C0]{Entity: entityAt(arch, i), V0: &d0[i]}, nil) {
							stopped = true
							return nil
						}
					}
					if !join.iterate() {
						break
					}
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield(Row1[C0]{}, err)
		}
	}
}

// ForUniform is For with a value passed through to every call.
func ForUniform[U, C0 any](s Stream1[C0], uniform U, fn func(u U, c0 *C0)) error {
	return s.For(func(c0 *C0) { fn(uniform, c0) })
}

func ForEntityUniform[U, C0 any](s Stream1[C0], uniform U, fn func(u U, e Entity, c0 *C0)) error {
	return s.ForEntity(func(e Entity, c0 *C0) { fn(uniform, e, c0) })
}
