package depot

import "iter"

var _ Streamer = Stream3[int, int, int]{}

// Stream3 iterates three component slots. Three is the widest stream; wider
// iteration composes a Stream3 with Get on the entity.
type Stream3[C0, C1, C2 any] struct {
	streamBase
	types [3]TypeExpression
}

func NewStream3[C0, C1, C2 any](q *Query, t0 Term[C0], t1 Term[C1], t2 Term[C2]) Stream3[C0, C1, C2] {
	return Stream3[C0, C1, C2]{
		streamBase: newStreamBase(q),
		types:      [3]TypeExpression{t0.expr, t1.expr, t2.expr},
	}
}

func (s Stream3[C0, C1, C2]) Subset(exprs ...Expression) Stream3[C0, C1, C2] {
	s.streamBase = s.withSubset(exprs)
	return s
}

func (s Stream3[C0, C1, C2]) Exclude(exprs ...Expression) Stream3[C0, C1, C2] {
	s.streamBase = s.withExclude(exprs)
	return s
}

func (s Stream3[C0, C1, C2]) WithConcurrency(n int) Stream3[C0, C1, C2] {
	s.streamBase = s.withConcurrency(n)
	return s
}

func (s Stream3[C0, C1, C2]) For(fn func(c0 *C0, c1 *C1, c2 *C2)) error {
	return s.ForEntity(func(_ Entity, c0 *C0, c1 *C1, c2 *C2) { fn(c0, c1, c2) })
}

func (s Stream3[C0, C1, C2]) ForEntity(fn func(e Entity, c0 *C0, c1 *C1, c2 *C2)) error {
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
				d2 := joined[C2](&join, 2)
				for i := range d0 {
					if err := arch.checkVersion(snapshot); err != nil {
						return err
					}
					fn(entityAt(arch, i), &d0[i], &d1[i], &d2[i])
				}
				if !join.iterate() {
					break
				}
			}
		}
		return nil
	})
}

func (s Stream3[C0, C1, C2]) Job(fn func(c0 *C0, c1 *C1, c2 *C2)) error {
	return s.JobEntity(func(_ Entity, c0 *C0, c1 *C1, c2 *C2) { fn(c0, c1, c2) })
}

func (s Stream3[C0, C1, C2]) JobEntity(fn func(e Entity, c0 *C0, c1 *C1, c2 *C2)) error {
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
			d2 := joined[C2](&join, 2)
			for start, end := range chunks(join.count, size) {
				b.run(func() error {
					for i := start; i < end; i++ {
						if err := arch.checkVersion(snapshot); err != nil {
							return err
						}
						fn(entityAt(arch, i), &d0[i], &d1[i], &d2[i])
					}
					return nil
				})
				submitted++
			}
		}
		return submitted
	})
}

func (s Stream3[C0, C1, C2]) Raw(fn func(c0 []C0, c1 []C1, c2 []C2)) error {
	return s.RawEntity(func(_ []Identity, c0 []C0, c1 []C1, c2 []C2) { fn(c0, c1, c2) })
}

func (s Stream3[C0, C1, C2]) RawEntity(fn func(ids []Identity, c0 []C0, c1 []C1, c2 []C2)) error {
	return s.raw(func() error {
		for _, arch := range s.filtered() {
			join := arch.crossJoin(s.types[:])
			if join.empty() {
				continue
			}
			snapshot := arch.Version()
			for {
				fn(arch.identities.slice(0, join.count), joined[C0](&join, 0), joined[C1](&join, 1), joined[C2](&join, 2))
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

func (s Stream3[C0, C1, C2]) Blit0(value C0) error {
	return s.blit(s.types[0], value)
}

func (s Stream3[C0, C1, C2]) Blit1(value C1) error {
	return s.blit(s.types[1], value)
}

func (s Stream3[C0, C1, C2]) Blit2(value C2) error {
	return s.blit(s.types[2], value)
}

type Row3[C0, C1, C2 any] struct {
	Entity Entity
	V0     *C0
	V1     *C1
	V2     *C2
}

func (s Stream3[C0, C1, C2]) All() iter.Seq2[Row3[C0, C1, C2], error] {
	return func(yield func(Row3[C0, C1, C2], error) bool) {
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
					d2 := joined[C2](&join, 2)
					for i := range d0 {
						if err := arch.checkVersion(snapshot); err != nil {
							return err
						}
						row := Row3[C0, C1, C2]{Entity: entityAt(arch, i), V0: &d0[i], V1: &d1[i], V2: &d2[i]}
						if !yield(row, nil) {
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
			yield(Row3[C0, C1, C2]{}, err)
		}
	}
}

func ForUniform3[U, C0, C1, C2 any](s Stream3[C0, C1, C2], uniform U, fn func(u U, c0 *C0, c1 *C1, c2 *C2)) error {
	return s.For(func(c0 *C0, c1 *C1, c2 *C2) { fn(uniform, c0, c1, c2) })
}

func ForEntityUniform3[U, C0, C1, C2 any](s Stream3[C0, C1, C2], uniform U, fn func(u U, e Entity, c0 *C0, c1 *C1, c2 *C2)) error {
	return s.ForEntity(func(e Entity, c0 *C0, c1 *C1, c2 *C2) { fn(uniform, e, c0, c1, c2) })
}
