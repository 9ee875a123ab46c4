package depot

import "iter"

// Streamer is the arity-independent part of every stream.
type Streamer interface {
	Count() int
	Despawn() error
	Truncate(targetSize int, mode TruncateMode) error
	Entities() iter.Seq2[Entity, error]
	Query() *Query
}

type iCursor interface {
	Next() bool
	Reset()
	Entity() Entity
	Err() error
}

type Cache[K comparable, T any] interface {
	GetIndex(K) (int, bool)
	GetItem(int) *T
	GetItem32(uint32) *T
	Register(K, T) (int, error)
	Len() int
	Clear()
}

// Cursor walks the rows of a query one at a time, holding the world lock
// until the walk ends
type Cursor struct {
	// The query to walk
	query *Query

	// Current iteration state
	current        *Archetype
	archetypeIndex int
	row            int
	version        int64

	// Initialization state
	initialized bool
	matched     []*Archetype

	err error
}
