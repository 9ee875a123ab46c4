package depot

import (
	"fmt"
	"reflect"
)

// storage is the type-erased view of a column the archetype works with.
// Every column of an archetype has the same length; row i of each column
// belongs to the same entity.
type storage interface {
	Len() int
	Type() reflect.Type
	// Append adds n rows holding value. value is either a T or a
	// rowValues[T] carrying exactly n values.
	Append(value any, n int)
	// AppendFrom copies row of src (same element type) to the end.
	AppendFrom(src storage, row int)
	// Delete removes rows [start, start+n) by moving the last rows into the
	// gap, and returns how many rows were relocated.
	Delete(start, n int) int
	// MigrateTo appends every row to dst and empties the receiver.
	MigrateTo(dst storage)
	Clear()
	// Blit overwrites every row with value.
	Blit(value any)
	Box(row int) any
}

// rowValues marks a value list that is spread one per row instead of being
// broadcast.
type rowValues interface {
	rowCount() int
	elemType() reflect.Type
}

type eachRow[T any] []T

func (r eachRow[T]) rowCount() int { return len(r) }

func (r eachRow[T]) elemType() reflect.Type { return reflect.TypeFor[T]() }

// EachRow wraps per-row values for Spawner.Add: the nth spawned entity gets
// values[n].
func EachRow[T any](values ...T) any {
	return eachRow[T](values)
}

type column[T any] struct {
	data []T
}

var _ storage = &column[int]{}

func newColumn[T any](capacity int) *column[T] {
	return &column[T]{data: make([]T, 0, capacity)}
}

func (c *column[T]) Len() int {
	return len(c.data)
}

func (c *column[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}

func (c *column[T]) Append(value any, n int) {
	switch v := value.(type) {
	case T:
		c.data = grow(c.data, n)
		for i := 0; i < n; i++ {
			c.data = append(c.data, v)
		}
	case eachRow[T]:
		assert(len(v) == n, "got %d row values for %d rows", len(v), n)
		c.data = append(c.data, v...)
	case nil:
		var zero T
		c.data = grow(c.data, n)
		for i := 0; i < n; i++ {
			c.data = append(c.data, zero)
		}
	default:
		panic(fmt.Sprintf("depot: cannot append %T to column of %v", value, c.Type()))
	}
}

func (c *column[T]) AppendFrom(src storage, row int) {
	c.data = append(c.data, src.(*column[T]).data[row])
}

func (c *column[T]) Delete(start, n int) int {
	length := len(c.data)
	end := start + n
	assert(start >= 0 && n >= 0 && end <= length, "delete [%d,%d) out of range %d", start, end, length)
	moved := min(n, length-end)
	copy(c.data[start:start+moved], c.data[length-moved:])
	clear(c.data[length-n:])
	c.data = c.data[:length-n]
	return moved
}

func (c *column[T]) MigrateTo(dst storage) {
	d := dst.(*column[T])
	d.data = append(d.data, c.data...)
	c.Clear()
}

func (c *column[T]) Clear() {
	clear(c.data)
	c.data = c.data[:0]
}

func (c *column[T]) Blit(value any) {
	var v T
	if value != nil {
		var ok bool
		v, ok = value.(T)
		assert(ok, "cannot blit %T into column of %v", value, c.Type())
	}
	for i := range c.data {
		c.data[i] = v
	}
}

func (c *column[T]) Box(row int) any {
	return c.data[row]
}

func (c *column[T]) slice(start, n int) []T {
	return c.data[start : start+n : start+n]
}

func grow[T any](s []T, n int) []T {
	if cap(s)-len(s) >= n {
		return s
	}
	grown := make([]T, len(s), max(len(s)+n, 2*cap(s)))
	copy(grown, s)
	return grown
}
