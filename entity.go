package depot

import (
	"reflect"

	iter_util "github.com/TheBitDrifter/util/iter"
	"github.com/rotisserie/eris"
)

// Entity is a handle to an entity of one world. Handles stay valid until the
// entity is despawned; a stale handle fails every operation with
// EntityNotAliveError.
type Entity struct {
	world *World
	id    Identity
}

// Resolve returns the handle for an entity identity, looking its world up by
// slot.
func Resolve(id Identity) (Entity, bool) {
	if !id.IsEntity() {
		return Entity{}, false
	}
	w := worldAt(id.World())
	if w == nil || !w.IsAlive(id) {
		return Entity{}, false
	}
	return Entity{world: w, id: id}, true
}

func (e Entity) ID() Identity {
	return e.id
}

func (e Entity) World() *World {
	return e.world
}

func (e Entity) Alive() bool {
	return e.world != nil && e.world.IsAlive(e.id)
}

func (e Entity) Despawn() error {
	if e.world == nil {
		return EntityNotAliveError{Entity: e.id}
	}
	return e.world.despawn(e.id)
}

// Add attaches a component with an untyped value. The value's type must be
// the component's Go type; nil stores the zero value.
func (e Entity) Add(expr Expression, value any) error {
	if e.world == nil {
		return EntityNotAliveError{Entity: e.id}
	}
	return e.world.add(e.id, expr.Expr(), value)
}

func (e Entity) Remove(expr Expression) error {
	if e.world == nil {
		return EntityNotAliveError{Entity: e.id}
	}
	return e.world.remove(e.id, expr.Expr())
}

// Has reports whether the entity holds a component matching expr. Wildcards
// are allowed.
func (e Entity) Has(expr Expression) bool {
	if !e.Alive() {
		return false
	}
	arch := e.world.meta[e.id.Index()].arch
	return arch != nil && arch.signature.Matches(expr.Expr())
}

// Signature returns the entity's component set. Entities spawned while the
// world was locked have an empty signature until the queue drains.
func (e Entity) Signature() Signature {
	if !e.Alive() {
		return Signature{}
	}
	if arch := e.world.meta[e.id.Index()].arch; arch != nil {
		return arch.signature
	}
	return Signature{}
}

// Components returns the entity's component expressions in canonical order.
func (e Entity) Components() []TypeExpression {
	return iter_util.Collect(e.Signature().All())
}

func (e Entity) String() string {
	return e.id.String()
}

// Add attaches value under term.
func Add[T any](e Entity, term Term[T], value T) error {
	return e.Add(term, value)
}

// AddLink attaches target as a link component; the linked object is also the
// stored value.
func AddLink[T comparable](e Entity, c Component[T], target T) error {
	return e.Add(Link(c, target), target)
}

func Remove[T any](e Entity, term Term[T]) error {
	return e.Remove(term)
}

func Has[T any](e Entity, term Term[T]) bool {
	return e.Has(term)
}

// Get returns a pointer to the entity's component. The pointer is valid until
// the next structural change to the entity's archetype.
func Get[T any](e Entity, term Term[T]) (*T, error) {
	col, row, err := locate[T](e, term.expr)
	if err != nil {
		return nil, err
	}
	return &col.data[row], nil
}

// GetAll returns copies of every component matching a possibly wildcard term.
func GetAll[T any](e Entity, term Term[T]) ([]T, error) {
	if !e.Alive() {
		return nil, EntityNotAliveError{Entity: e.id}
	}
	m := e.world.meta[e.id.Index()]
	if m.arch == nil {
		return nil, nil
	}
	var values []T
	for _, expr := range m.arch.signature.Matching(term.expr) {
		values = append(values, m.arch.GetStorage(expr).(*column[T]).data[m.row])
	}
	return values, nil
}

func locate[T any](e Entity, expr TypeExpression) (*column[T], int, error) {
	if !e.Alive() {
		return nil, 0, EntityNotAliveError{Entity: e.id}
	}
	if expr.IsWildcard() {
		return nil, 0, WildcardError{Expression: expr}
	}
	m := e.world.meta[e.id.Index()]
	if m.arch == nil {
		return nil, 0, ComponentNotFoundError{Entity: e.id, Component: expr}
	}
	s, ok := m.arch.storageFor(expr)
	if !ok {
		return nil, 0, ComponentNotFoundError{Entity: e.id, Component: expr}
	}
	col, ok := s.(*column[T])
	if !ok {
		return nil, 0, eris.Wrapf(ValueTypeError{Expression: expr, Want: s.Type(), Got: reflect.TypeFor[T]()}, "get %v", expr)
	}
	return col, m.row, nil
}
