package depot

import (
	"hash/maphash"
	"reflect"
	"sync"

	"github.com/TheBitDrifter/table"
	"github.com/rotisserie/eris"
)

// componentType describes a registered Go type: its numeric id and how to
// build a column for it.
type componentType struct {
	id        uint16
	kind      Kind
	typ       reflect.Type
	element   table.ElementType
	newColumn func() storage
}

var registry = struct {
	sync.RWMutex
	schema table.Schema
	types  Cache[reflect.Type, componentType]
	byID   map[uint16]int
}{
	schema: table.Factory.NewSchema(),
	types:  FactoryNewCache[reflect.Type, componentType](maxTypeID + 1),
	byID:   make(map[uint16]int),
}

var hashSeed = maphash.MakeSeed()

func registerType[T any]() (componentType, error) {
	typ := reflect.TypeFor[T]()

	registry.RLock()
	if idx, ok := registry.types.GetIndex(typ); ok {
		ct := *registry.types.GetItem(idx)
		registry.RUnlock()
		return ct, nil
	}
	registry.RUnlock()

	registry.Lock()
	defer registry.Unlock()
	if idx, ok := registry.types.GetIndex(typ); ok {
		return *registry.types.GetItem(idx), nil
	}

	var element table.ElementType = table.FactoryNewElementType[T]()
	registry.schema.Register(element)
	row := registry.schema.RowIndexFor(element)
	if row > maxTypeID {
		return componentType{}, TypeLimitError{Type: typ}
	}

	kind := KindData
	if typ.Size() == 0 {
		kind = KindVoid
	}
	ct := componentType{
		id:        uint16(row),
		kind:      kind,
		typ:       typ,
		element:   element,
		newColumn: func() storage { return newColumn[T](0) },
	}
	idx, err := registry.types.Register(typ, ct)
	if err != nil {
		return componentType{}, eris.Wrap(TypeLimitError{Type: typ}, err.Error())
	}
	registry.byID[ct.id] = idx
	return ct, nil
}

func mustRegisterType[T any]() componentType {
	ct, err := registerType[T]()
	if err != nil {
		panic(err)
	}
	return ct
}

func lookupType(id uint16) (componentType, bool) {
	registry.RLock()
	defer registry.RUnlock()
	idx, ok := registry.byID[id]
	if !ok {
		return componentType{}, false
	}
	return *registry.types.GetItem(idx), true
}

func typeName(id uint16) string {
	if ct, ok := lookupType(id); ok {
		return ct.typ.String()
	}
	return "?"
}

// Component is the typed handle for a registered component type. It is the
// starting point for every TypeExpression of that type.
type Component[T any] struct {
	typeID uint16
	kind   Kind
}

// ID returns the registry id of T.
func (c Component[T]) ID() uint16 {
	return c.typeID
}

// Plain addresses the untargeted component.
func (c Component[T]) Plain() Term[T] {
	return Term[T]{expr: plainExpression(c.kind, c.typeID)}
}

// Relation addresses the component targeting an entity.
func (c Component[T]) Relation(target Entity) Term[T] {
	return Term[T]{expr: relationExpression(c.kind, c.typeID, target.id)}
}

func (c Component[T]) AnyRelation() Term[T] {
	return Term[T]{expr: wildcardExpression(c.typeID, SecondaryEntity)}
}

func (c Component[T]) AnyLink() Term[T] {
	return Term[T]{expr: wildcardExpression(c.typeID, SecondaryObject)}
}

func (c Component[T]) AnyKeyed() Term[T] {
	return Term[T]{expr: wildcardExpression(c.typeID, SecondaryKeyed)}
}

// AnyTarget matches every targeted variant but not the plain component.
func (c Component[T]) AnyTarget() Term[T] {
	return Term[T]{expr: wildcardExpression(c.typeID, SecondaryEntity|SecondaryObject|SecondaryKeyed)}
}

// Any matches every variant of T, plain included.
func (c Component[T]) Any() Term[T] {
	return Term[T]{expr: wildcardExpression(c.typeID, acceptPlain|SecondaryEntity|SecondaryObject|SecondaryKeyed)}
}

// GetFromCursor returns the plain component for the entity under the cursor.
func (c Component[T]) GetFromCursor(cursor *Cursor) *T {
	col := cursor.current.GetStorage(c.Plain().expr).(*column[T])
	return &col.data[cursor.row]
}

// CheckCursor reports whether the archetype under the cursor holds the plain
// component.
func (c Component[T]) CheckCursor(cursor *Cursor) bool {
	return cursor.current != nil && cursor.current.signature.Contains(c.Plain().expr)
}

// Link addresses the component of type T linked to target. The linked object
// is also the stored value.
func Link[T comparable](c Component[T], target T) Term[T] {
	hash := uint32(maphash.Comparable(hashSeed, target))
	return Term[T]{expr: linkExpression(c.kind, c.typeID, c.typeID, hash)}
}

// Keyed addresses the component of type T discriminated by key.
func Keyed[T any, K comparable](c Component[T], key K) Term[T] {
	keyType := mustRegisterType[K]()
	hash := uint32(maphash.Comparable(hashSeed, key))
	return Term[T]{expr: keyedExpression(c.kind, c.typeID, keyType.id, hash)}
}

// Expression is anything that resolves to a TypeExpression.
type Expression interface {
	Expr() TypeExpression
}

// Term is a TypeExpression bound to its Go component type.
type Term[T any] struct {
	expr TypeExpression
}

func (t Term[T]) Expr() TypeExpression {
	return t.expr
}

func (t Term[T]) String() string {
	return t.expr.String()
}
