package depot

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// meta locates a live entity: its archetype and row. A nil archetype marks
// an entity spawned while the world was locked and not yet placed.
type meta struct {
	id   Identity
	arch *Archetype
	row  int
}

// World owns entities, their archetypes and the queries over them.
//
// A World is not safe for concurrent structural mutation. While it is locked
// (Lock, or during stream iteration) structural changes are queued and applied
// in order when the outermost lock is released. Queuing is safe from the
// worker goroutines of a parallel job.
type World struct {
	slot   uint8
	uuid   uuid.UUID
	logger zerolog.Logger

	pool identityPool
	meta []meta

	root            *Archetype
	archetypes      []*Archetype
	bySignature     map[string]*Archetype
	nextArchetypeID uint32

	// reverse indices
	tablesByType  *intmap.Map[TypeExpression, []*Archetype]
	typesByTarget *intmap.Map[Identity, []TypeExpression]

	queries Cache[string, *Query]
	queryMu sync.Mutex

	lockDepth   atomic.Int32
	rawDepth    atomic.Int32
	jobDepth    atomic.Int32
	opQueue     *opQueue
	concurrency int
	closed      bool
}

func newWorld() (*World, error) {
	capacity := max(Config.initialCapacity, 1)
	w := &World{
		uuid:          uuid.New(),
		meta:          make([]meta, capacity),
		bySignature:   make(map[string]*Archetype),
		tablesByType:  intmap.New[TypeExpression, []*Archetype](64),
		typesByTarget: intmap.New[Identity, []TypeExpression](64),
		queries:       FactoryNewCache[string, *Query](Config.maxQueries),
		opQueue:       newOpQueue(),
		concurrency:   max(Config.concurrency, 1),
	}
	slot, err := claimWorldSlot(w)
	if err != nil {
		return nil, err
	}
	w.slot = slot
	w.pool = newIdentityPool(slot, capacity)
	w.logger = Config.logger.With().Str("world", w.uuid.String()).Uint8("slot", slot).Logger()
	w.root = w.GetArchetype(NewSignature())
	w.logger.Debug().Int("capacity", capacity).Msg("world created")
	return w, nil
}

// UUID identifies the world in logs and diagnostics.
func (w *World) UUID() uuid.UUID {
	return w.uuid
}

// Count is the number of living entities.
func (w *World) Count() int {
	return w.pool.Count()
}

// Locked reports whether structural changes are currently deferred.
func (w *World) Locked() bool {
	return w.lockDepth.Load() > 0
}

// Lock switches the world to deferred mode. Locks nest; only the outermost
// Unlock applies the queued operations.
func (w *World) Lock() {
	w.lockDepth.Add(1)
}

// Unlock releases one lock. Releasing the last one drains the queue and
// returns the first failure, if any.
func (w *World) Unlock() error {
	depth := w.lockDepth.Add(-1)
	assert(depth >= 0, "unlock of an unlocked world")
	if depth > 0 {
		return nil
	}
	return w.processOperationQueue()
}

// IsAlive reports whether id names a living entity of this world.
func (w *World) IsAlive(id Identity) bool {
	if !id.IsEntity() || id.World() != w.slot {
		return false
	}
	idx := int(id.Index())
	return idx < len(w.meta) && w.meta[idx].id == id
}

// Spawn creates an entity without components. While the world is locked the
// entity exists at once but only joins the root archetype when the queue
// drains. Spawning from inside a parallel job fails with IllegalContextError;
// use a Spawner there.
func (w *World) Spawn() (Entity, error) {
	if err := w.checkSpawnContext("spawn"); err != nil {
		return Entity{}, err
	}
	if w.jobDepth.Load() > 0 {
		return Entity{}, IllegalContextError{Operation: "spawn", Reason: "parallel job is running"}
	}
	ids := w.allocate(1)
	if w.Locked() {
		w.meta[ids[0].Index()] = meta{id: ids[0]}
		w.opQueue.enqueueOp(operation{typ: opSpawnBare, id: ids[0]})
		return Entity{world: w, id: ids[0]}, nil
	}
	w.root.place(ids, nil, nil)
	return Entity{world: w, id: ids[0]}, nil
}

func (w *World) checkSpawnContext(op string) error {
	if w.rawDepth.Load() > 0 {
		return IllegalContextError{Operation: op, Reason: "raw column access is in progress"}
	}
	return nil
}

// allocate takes n identities from the pool and grows the meta table to fit.
func (w *World) allocate(n int) []Identity {
	ids := w.pool.spawn(n)
	if created := w.pool.Created(); created > len(w.meta) {
		w.meta = slices.Grow(w.meta, max(created, 2*len(w.meta))-len(w.meta))
		w.meta = w.meta[:cap(w.meta)]
	}
	return ids
}

func (w *World) spawnNow(n int, exprs []TypeExpression, values []any) ([]Identity, error) {
	if n <= 0 {
		return nil, nil
	}
	arch := w.GetArchetype(NewSignature(exprs...))
	return arch.spawn(n, exprs, values), nil
}

// Despawn removes an entity, recycles its identity and strips every relation
// that targets it.
func (w *World) Despawn(e Entity) error {
	return w.despawn(e.id)
}

func (w *World) despawn(id Identity) error {
	if !w.IsAlive(id) {
		return EntityNotAliveError{Entity: id}
	}
	if w.Locked() {
		w.opQueue.enqueueDespawn(id)
		return nil
	}
	w.despawnNow(id)
	return nil
}

func (w *World) despawnNow(id Identity) {
	m := w.meta[id.Index()]
	if m.arch != nil {
		m.arch.delete(m.row, 1)
	}
	w.recycle([]Identity{id})
}

// recycle returns identities to the pool, then removes relations targeting
// them.
func (w *World) recycle(ids []Identity) {
	for _, id := range ids {
		w.meta[id.Index()] = meta{}
		w.pool.recycle(id)
	}
	for _, id := range ids {
		w.despawnDependencies(id)
	}
}

func (w *World) despawnDependencies(target Identity) {
	types, ok := w.typesByTarget.Get(target)
	if !ok {
		return
	}
	w.typesByTarget.Del(target)
	for _, expr := range types {
		archs, _ := w.tablesByType.Get(expr)
		for _, arch := range slices.Clone(archs) {
			// Migrate skips empty archetypes, which would keep the relation.
			if arch.IsEmpty() {
				w.disposeArchetype(arch)
				continue
			}
			arch.Migrate(w.GetArchetype(arch.signature.Remove(expr)), nil, nil, AddStrict)
		}
	}
}

// DespawnAllWith despawns every entity holding a component matching expr.
func (w *World) DespawnAllWith(expr Expression) error {
	return w.Query().Has(expr).Build().Despawn()
}

// GetArchetype returns the archetype for sig, creating and announcing it to
// every query on first use.
func (w *World) GetArchetype(sig Signature) *Archetype {
	if arch, ok := w.bySignature[sig.key]; ok {
		return arch
	}
	w.nextArchetypeID++
	arch := newArchetype(w, w.nextArchetypeID, sig)
	w.bySignature[sig.key] = arch
	w.archetypes = append(w.archetypes, arch)

	for _, expr := range sig.exprs {
		archs, _ := w.tablesByType.Get(expr)
		w.tablesByType.Put(expr, append(archs, arch))
		if expr.IsRelation() {
			target := expr.Target()
			types, _ := w.typesByTarget.Get(target)
			if !slices.Contains(types, expr) {
				w.typesByTarget.Put(target, append(types, expr))
			}
		}
	}
	for i := 0; i < w.queries.Len(); i++ {
		(*w.queries.GetItem(i)).trackArchetype(arch)
	}
	w.logger.Debug().Uint32("archetype", arch.id).Stringer("signature", sig).Msg("archetype created")
	return arch
}

// disposeArchetype unregisters an archetype. The root archetype is kept.
func (w *World) disposeArchetype(arch *Archetype) {
	if arch == w.root {
		return
	}
	if _, ok := w.bySignature[arch.signature.key]; !ok {
		return
	}
	delete(w.bySignature, arch.signature.key)
	w.archetypes = slices.DeleteFunc(w.archetypes, func(a *Archetype) bool { return a == arch })

	for _, expr := range arch.signature.exprs {
		archs, _ := w.tablesByType.Get(expr)
		archs = slices.DeleteFunc(archs, func(a *Archetype) bool { return a == arch })
		if len(archs) > 0 {
			w.tablesByType.Put(expr, archs)
			continue
		}
		w.tablesByType.Del(expr)

		// Last archetype holding this relation is gone.
		if expr.IsRelation() {
			target := expr.Target()
			if types, ok := w.typesByTarget.Get(target); ok {
				types = slices.DeleteFunc(types, func(t TypeExpression) bool { return t == expr })
				if len(types) == 0 {
					w.typesByTarget.Del(target)
				} else {
					w.typesByTarget.Put(target, types)
				}
			}
		}
	}
	for i := 0; i < w.queries.Len(); i++ {
		(*w.queries.GetItem(i)).forgetArchetype(arch)
	}
	w.logger.Debug().Uint32("archetype", arch.id).Stringer("signature", arch.signature).Msg("archetype disposed")
}

// Archetypes returns a copy of the registered archetypes in creation order.
func (w *World) Archetypes() []*Archetype {
	return slices.Clone(w.archetypes)
}

// GC disposes every empty archetype except the root. It fails while the world
// is locked.
func (w *World) GC() error {
	if w.Locked() {
		return IllegalContextError{Operation: "GC", Reason: "world is locked"}
	}
	disposed := 0
	for _, arch := range slices.Clone(w.archetypes) {
		if arch != w.root && arch.IsEmpty() {
			w.disposeArchetype(arch)
			disposed++
		}
	}
	w.logger.Debug().Int("disposed", disposed).Int("archetypes", len(w.archetypes)).Msg("gc")
	return nil
}

// Close releases the world's slot. The world must not be used afterwards.
func (w *World) Close() {
	if w.closed {
		return
	}
	w.closed = true
	releaseWorldSlot(w.slot, w)
	w.logger.Debug().Msg("world closed")
}

func (w *World) add(id Identity, expr TypeExpression, value any) error {
	if !w.IsAlive(id) {
		return EntityNotAliveError{Entity: id}
	}
	if err := checkValue(expr, value); err != nil {
		return err
	}
	if expr.IsRelation() {
		target := expr.Target()
		if tw := worldAt(target.World()); tw == nil || !tw.IsAlive(target) {
			return eris.Wrapf(EntityNotAliveError{Entity: target}, "relation target of %v", expr)
		}
	}
	if w.Locked() {
		return w.opQueue.enqueueChecked(operation{typ: opAddComponent, id: id, expr: expr, value: value},
			func() error { return w.checkAdd(id, expr) })
	}
	return w.addNow(id, expr, value)
}

func (w *World) addNow(id Identity, expr TypeExpression, value any) error {
	if err := w.checkAdd(id, expr); err != nil {
		return err
	}
	m := w.meta[id.Index()]
	dst := w.GetArchetype(m.arch.signature.Add(expr))
	moveEntry(m.row, m.arch, dst, []TypeExpression{expr}, []any{value})
	return nil
}

func (w *World) remove(id Identity, expr TypeExpression) error {
	if !w.IsAlive(id) {
		return EntityNotAliveError{Entity: id}
	}
	if expr.IsWildcard() {
		return WildcardError{Expression: expr}
	}
	if w.Locked() {
		return w.opQueue.enqueueChecked(operation{typ: opRemoveComponent, id: id, expr: expr},
			func() error { return w.checkRemove(id, expr) })
	}
	return w.removeNow(id, expr)
}

func (w *World) removeNow(id Identity, expr TypeExpression) error {
	if err := w.checkRemove(id, expr); err != nil {
		return err
	}
	m := w.meta[id.Index()]
	dst := w.GetArchetype(m.arch.signature.Remove(expr))
	moveEntry(m.row, m.arch, dst, nil, nil)
	return nil
}

// checkAdd and checkRemove test expr against the entity's current signature.
func (w *World) checkAdd(id Identity, expr TypeExpression) error {
	if arch := w.meta[id.Index()].arch; arch != nil && arch.signature.Contains(expr) {
		return ComponentExistsError{Entity: id, Component: expr}
	}
	return nil
}

func (w *World) checkRemove(id Identity, expr TypeExpression) error {
	if arch := w.meta[id.Index()].arch; arch == nil || !arch.signature.Contains(expr) {
		return ComponentNotFoundError{Entity: id, Component: expr}
	}
	return nil
}

// checkValue rejects wildcards and values whose Go type does not match the
// registered component type. A nil value stands for the zero value.
func checkValue(expr TypeExpression, value any) error {
	if expr.IsWildcard() {
		return WildcardError{Expression: expr}
	}
	if value == nil {
		return nil
	}
	ct, ok := lookupType(expr.TypeID())
	if !ok {
		return eris.Errorf("type id %d is not registered", expr.TypeID())
	}
	got := reflect.TypeOf(value)
	if rv, ok := value.(rowValues); ok {
		got = rv.elemType()
	}
	if got != ct.typ {
		return ValueTypeError{Expression: expr, Want: ct.typ, Got: got}
	}
	return nil
}

func (w *World) String() string {
	var sb strings.Builder
	mode := "Immediate"
	if w.Locked() {
		mode = fmt.Sprintf("Deferred(depth %d, %d queued)", w.lockDepth.Load(), w.opQueue.Len())
	}
	fmt.Fprintf(&sb, "World %s (slot %d):\n", w.uuid, w.slot)
	fmt.Fprintf(&sb, " %d Archetypes\n", len(w.archetypes))
	fmt.Fprintf(&sb, " %d Entities\n", w.Count())
	fmt.Fprintf(&sb, " %d Queries\n", w.queries.Len())
	fmt.Fprintf(&sb, " Mode %s\n", mode)
	for _, arch := range w.archetypes {
		fmt.Fprintf(&sb, "  %v\n", arch)
	}
	return sb.String()
}
