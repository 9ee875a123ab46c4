package depot

import (
	"fmt"
	"reflect"
)

type EntityNotAliveError struct {
	Entity Identity
}

func (e EntityNotAliveError) Error() string {
	return fmt.Sprintf("entity %v is not alive", e.Entity)
}

type ComponentExistsError struct {
	Entity    Identity
	Component TypeExpression
}

func (e ComponentExistsError) Error() string {
	if e.Entity == 0 {
		return fmt.Sprintf("component already present: %v", e.Component)
	}
	return fmt.Sprintf("component already present on entity %v: %v", e.Entity, e.Component)
}

type ComponentNotFoundError struct {
	Entity    Identity
	Component TypeExpression
}

func (e ComponentNotFoundError) Error() string {
	if e.Entity == 0 {
		return fmt.Sprintf("component not present: %v", e.Component)
	}
	return fmt.Sprintf("component not present on entity %v: %v", e.Entity, e.Component)
}

// ConcurrentModificationError is returned when an archetype changed shape
// while it was being iterated.
type ConcurrentModificationError struct {
	Archetype string
	Expected  int64
	Actual    int64
}

func (e ConcurrentModificationError) Error() string {
	return fmt.Sprintf("archetype %s modified during iteration (version %d, now %d)", e.Archetype, e.Expected, e.Actual)
}

// IllegalContextError rejects an operation the world cannot perform in its
// current mode.
type IllegalContextError struct {
	Operation string
	Reason    string
}

func (e IllegalContextError) Error() string {
	return fmt.Sprintf("%s not allowed: %s", e.Operation, e.Reason)
}

type AmbiguousWriteError struct {
	Expression TypeExpression
}

func (e AmbiguousWriteError) Error() string {
	return fmt.Sprintf("cannot schedule a parallel job over wildcard stream type %v", e.Expression)
}

type WildcardError struct {
	Expression TypeExpression
}

func (e WildcardError) Error() string {
	return fmt.Sprintf("wildcard %v cannot address a single column", e.Expression)
}

type ValueTypeError struct {
	Expression TypeExpression
	Want       reflect.Type
	Got        reflect.Type
}

func (e ValueTypeError) Error() string {
	return fmt.Sprintf("value for %v has type %v, want %v", e.Expression, e.Got, e.Want)
}

type TypeLimitError struct {
	Type reflect.Type
}

func (e TypeLimitError) Error() string {
	return fmt.Sprintf("cannot register %v: component type limit (%d) reached", e.Type, maxTypeID+1)
}

type WorldLimitError struct{}

func (e WorldLimitError) Error() string {
	return fmt.Sprintf("all %d world slots are in use", maxWorlds)
}

type CacheFullError struct {
	Capacity int
}

func (e CacheFullError) Error() string {
	return fmt.Sprintf("cache at maximum capacity (%d)", e.Capacity)
}
