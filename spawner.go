package depot

import (
	"slices"

	"github.com/rotisserie/eris"
)

// Spawner builds the component set for spawning many entities at once. A
// Spawner can be reused; each Spawn call copies its current configuration.
type Spawner struct {
	world  *World
	exprs  []TypeExpression
	values []any
	err    error
}

func (w *World) Spawner() *Spawner {
	return &Spawner{world: w}
}

// Add sets the value for expr. Adding the same expression again replaces the
// earlier value. Wrap values with EachRow to give every spawned entity its
// own value.
func (s *Spawner) Add(expr Expression, value any) *Spawner {
	e := expr.Expr()
	if err := checkValue(e, value); err != nil {
		if s.err == nil {
			s.err = err
		}
		return s
	}
	if idx := slices.Index(s.exprs, e); idx >= 0 {
		s.values[idx] = value
		return s
	}
	s.exprs = append(s.exprs, e)
	s.values = append(s.values, value)
	return s
}

// Remove drops expr from the configuration.
func (s *Spawner) Remove(expr Expression) *Spawner {
	if idx := slices.Index(s.exprs, expr.Expr()); idx >= 0 {
		s.exprs = slices.Delete(s.exprs, idx, idx+1)
		s.values = slices.Delete(s.values, idx, idx+1)
	}
	return s
}

// Spawn creates n entities. While the world is locked the spawn is queued.
func (s *Spawner) Spawn(n int) error {
	if s.err != nil {
		return s.err
	}
	if err := s.world.checkSpawnContext("spawn"); err != nil {
		return err
	}
	if err := s.checkRows(n); err != nil {
		return err
	}
	exprs, values := slices.Clone(s.exprs), slices.Clone(s.values)
	if s.world.Locked() {
		s.world.opQueue.enqueueOp(operation{typ: opSpawn, amount: n, exprs: exprs, values: values})
		return nil
	}
	_, err := s.world.spawnNow(n, exprs, values)
	return err
}

// SpawnEntities creates n entities at once and returns them. It fails while
// the world is locked, since queued entities have no handles yet.
func (s *Spawner) SpawnEntities(n int) ([]Entity, error) {
	if s.world.Locked() {
		return nil, IllegalContextError{Operation: "SpawnEntities", Reason: "world is locked"}
	}
	if s.err != nil {
		return nil, s.err
	}
	if err := s.world.checkSpawnContext("spawn"); err != nil {
		return nil, err
	}
	if err := s.checkRows(n); err != nil {
		return nil, err
	}
	ids, err := s.world.spawnNow(n, slices.Clone(s.exprs), slices.Clone(s.values))
	if err != nil {
		return nil, err
	}
	entities := make([]Entity, len(ids))
	for i, id := range ids {
		entities[i] = Entity{world: s.world, id: id}
	}
	return entities, nil
}

func (s *Spawner) checkRows(n int) error {
	for i, value := range s.values {
		if rv, ok := value.(rowValues); ok && rv.rowCount() != n {
			return eris.Errorf("%v has %d row values for %d entities", s.exprs[i], rv.rowCount(), n)
		}
	}
	return nil
}
