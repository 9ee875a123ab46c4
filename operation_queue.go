package depot

import (
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
)

type operation struct {
	typ    operationType
	id     Identity
	expr   TypeExpression
	value  any
	amount int
	exprs  []TypeExpression
	values []any
	batch  *Batch
	mode   TruncateMode
	// archetypes is resolved when the operation is applied.
	archetypes func() []*Archetype
}

type operationType int

const (
	opSpawnBare operationType = iota
	opSpawn
	opDespawn
	opAddComponent
	opRemoveComponent
	opBatch
	opDespawnArchetypes
	opTruncate
)

func (t operationType) String() string {
	switch t {
	case opSpawnBare:
		return "spawn"
	case opSpawn:
		return "spawn batch"
	case opDespawn:
		return "despawn"
	case opAddComponent:
		return "add component"
	case opRemoveComponent:
		return "remove component"
	case opBatch:
		return "batch"
	case opDespawnArchetypes:
		return "despawn all"
	case opTruncate:
		return "truncate"
	}
	return fmt.Sprintf("operation(%d)", int(t))
}

// opQueue collects structural operations while the world is locked. They are
// applied in submission order when the outermost lock is released. Job
// chunks enqueue from worker goroutines, so every access holds mu.
type opQueue struct {
	mu             sync.Mutex
	ops            []operation
	pendingDespawn map[Identity]struct{}
	// touched holds entities with a queued operation. bulk is set once an
	// operation over whole archetypes is queued.
	touched map[Identity]struct{}
	bulk    bool
}

func newOpQueue() *opQueue {
	return &opQueue{
		pendingDespawn: make(map[Identity]struct{}),
		touched:        make(map[Identity]struct{}),
	}
}

func (q *opQueue) enqueueOp(op operation) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.push(op)
}

// enqueueChecked runs check before queuing op, unless an earlier queued
// operation may change op's entity first. Then the failure surfaces when the
// queue drains.
func (q *opQueue) enqueueChecked(op operation, check func() error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, pending := q.touched[op.id]; !pending && !q.bulk {
		if err := check(); err != nil {
			return err
		}
	}
	q.push(op)
	return nil
}

// enqueueDespawn drops repeated despawns of the same entity.
func (q *opQueue) enqueueDespawn(id Identity) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, pending := q.pendingDespawn[id]; pending {
		return
	}
	q.pendingDespawn[id] = struct{}{}
	q.push(operation{typ: opDespawn, id: id})
}

func (q *opQueue) push(op operation) {
	switch op.typ {
	case opBatch, opDespawnArchetypes, opTruncate:
		q.bulk = true
	case opSpawnBare, opDespawn, opAddComponent, opRemoveComponent:
		q.touched[op.id] = struct{}{}
	}
	q.ops = append(q.ops, op)
}

func (q *opQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

func (q *opQueue) take() []operation {
	q.mu.Lock()
	defer q.mu.Unlock()
	ops := q.ops
	q.ops = nil
	clear(q.pendingDespawn)
	clear(q.touched)
	q.bulk = false
	return ops
}

// processOperationQueue applies every queued operation. Operations on
// entities that died in the meantime are skipped. Every failure is logged;
// the first one is returned.
func (w *World) processOperationQueue() error {
	if w.opQueue.Len() == 0 {
		return nil
	}
	ops := w.opQueue.take()

	var first error
	for _, op := range ops {
		if err := w.apply(op); err != nil {
			err = eris.Wrapf(err, "failed to process queued %s", op.typ)
			w.logger.Warn().Err(err).Stringer("op", op.typ).Msg("deferred operation failed")
			if first == nil {
				first = err
			}
		}
	}
	w.logger.Debug().Int("ops", len(ops)).Msg("operation queue drained")
	return first
}

func (w *World) apply(op operation) error {
	switch op.typ {
	case opSpawnBare:
		if !w.IsAlive(op.id) {
			return nil
		}
		w.root.place([]Identity{op.id}, nil, nil)
	case opSpawn:
		_, err := w.spawnNow(op.amount, op.exprs, op.values)
		return err
	case opDespawn:
		if !w.IsAlive(op.id) {
			return nil
		}
		w.despawnNow(op.id)
	case opAddComponent:
		if !w.IsAlive(op.id) {
			return nil
		}
		return w.addNow(op.id, op.expr, op.value)
	case opRemoveComponent:
		if !w.IsAlive(op.id) {
			return nil
		}
		return w.removeNow(op.id, op.expr)
	case opBatch:
		return op.batch.submitNow()
	case opDespawnArchetypes:
		despawnArchetypes(op.archetypes())
	case opTruncate:
		truncateArchetypes(op.archetypes(), op.amount, op.mode)
	}
	return nil
}
