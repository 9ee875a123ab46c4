package depot

import "iter"

var _ Streamer = Stream2[int, int]{}

// Stream2 iterates two component slots. Wildcard slots cross join: every
// combination of matching columns is visited.
type Stream2[C0, C1 any] struct {
	streamBase
	types [2]TypeExpression
}

func NewStream2[C0, C1 any](q *Query, t0 Term[C0], t1 Term[C1]) Stream2[C0, C1] {
	return Stream2[C0, C1]{
		streamBase: newStreamBase(q),
		types:      [2]TypeExpression{t0.expr, t1.expr},
	}
}

func (s Stream2[C0, C1]) Subset(exprs ...Expression) Stream2[C0, C1] {
	s.streamBase = s.withSubset(exprs)
	return s
}

func (s Stream2[C0, C1]) Exclude(exprs ...Expression) Stream2[C0, C1] {
	s.streamBase = s.withExclude(exprs)
	return s
}

func (s Stream2[C0, C1]) WithConcurrency(n int) Stream2[C0, C1] {
	s.streamBase = s.withConcurrency(n)
	return s
}

func (s Stream2[C0, C1]) For(fn func(c0 *C0, c1 *C1)) error {
	return s.ForEntity(func(_ Entity, c0 *C0, c1 *C1) { fn(c0, c1) })
}

func (s Stream2[C0, C1]) ForEntity(fn func(e Entity, c0 *C0, c1 *C1)) error {
	return s.locked(func() error {
		for _, arch := range s.filtered() {
			join := arch.crossJoin(s.types[:])
			if join.empty() {
				continue
			}
			snapshot := arch.Version()
			for {
				d0 := joined[C0](&join, 0)
				d1 := joined[C1](&join, 1)
				for i := range d0 {
					if err := arch.checkVersion(snapshot); err != nil {
						return err
					}
					fn(entityAt(arch, i), &d0[i], &d1[i])
				}
				if !join.iterate() {
					break
				}
			}
		}
		return nil
	})
}

func (s Stream2[C0, C1]) Job(fn func(c0 *C0, c1 *C1)) error {
	return s.JobEntity(func(_ Entity, c0 *C0, c1 *C1) { fn(c0, c1) })
}

func (s Stream2[C0, C1]) JobEntity(fn func(e Entity, c0 *C0, c1 *C1)) error {
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
			d0 := joined[C0](&join, 0)
			d1 := joined[C1](&join, 1)
			for start, end := range chunks(join.count, size) {
				b.run(func() error {
					for i := start; i < end; i++ {
						if err := arch.checkVersion(snapshot); err != nil {
							return err
						}
						fn(entityAt(arch, i), &d0[i], &d1[i])
					}
					return nil
				})
				submitted++
			}
		}
		return submitted
	})
}

func (s Stream2[C0, C1]) Raw(fn func(c0 []C0, c1 []C1)) error {
	return s.RawEntity(func(_ []Identity, c0 []C0, c1 []C1) { fn(c0, c1) })
}

func (s Stream2[C0, C1]) RawEntity(fn func(ids []Identity, c0 []C0, c1 []C1)) error {
	return s.raw(func() error {
		for _, arch := range s.filtered() {
			join := arch.crossJoin(s.types[:])
			if join.empty() {
				continue
			}
			snapshot := arch.Version()
			for {
				fn(arch.identities.slice(0, join.count), joined[C0](&join, 0), joined[C1](&join, 1))
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

// Blit0 and Blit1 overwrite every column of one slot with value. A wildcard
// slot fills every matching column.
func (s Stream2[C0, C1]) Blit0(value C0) error {
	return s.blit(s.types[0], value)
}

func (s Stream2[C0, C1]) Blit1(value C1) error {
	return s.blit(s.types[1], value)
}

type Row2[C0, C1 any] struct {
	Entity Entity
	V0     *C0
	V1     *C1
}

// All walks the stream like Stream1.All. Wildcard slots yield every column
// combination of a row.
func (s Stream2[C0, C1]) All() iter.Seq2[Row2[C0, C1], error] {
	return func(yield func(Row2[C0, C1], error) bool) {
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
					d1 := joined[C1](&join, 1)
					for i := range d0 {
						if err := arch.checkVersion(snapshot); err != nil {
							return err
						}
						if !yield(Row2[C0, C1]{Entity: entityAt(arch, i), V0: &d0[i], V1: &d1[i]}, nil) {
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
			yield(Row2[C0, C1]{}, err)
		}
	}
}

func ForUniform2[U, C0, C1 any](s Stream2[C0, C1], uniform U, fn func(u U, c0 *C0, c1 *C1)) error {
	return s.For(func(c0 *C0, c1 *C1) { fn(uniform, c0, c1) })
}

func ForEntityUniform2[U, C0, C1 any](s Stream2[C0, C1], uniform U, fn func(u U, e Entity, c0 *C0, c1 *C1)) error {
	return s.ForEntity(func(e Entity, c0 *C0, c1 *C1) { fn(uniform, e, c0, c1) })
}
