package depot

var _ iCursor = &Cursor{}

func newCursor(query *Query) *Cursor {
	return &Cursor{
		query: query,
	}
}

// Next advances to the next matched entity. The world stays locked from the
// first call until Next returns false or Reset is called.
func (c *Cursor) Next() bool {
	if !c.initialized {
		c.initialize()
	}
	if c.current != nil {
		if err := c.current.checkVersion(c.version); err != nil {
			c.err = err
			c.Reset()
			return false
		}
		c.row++
		if c.row < c.current.Count() {
			return true
		}
	}
	return c.advance()
}

func (c *Cursor) advance() bool {
	for c.archetypeIndex < len(c.matched) {
		c.current = c.matched[c.archetypeIndex]
		c.archetypeIndex++
		if c.current.Count() > 0 {
			c.row = 0
			c.version = c.current.Version()
			return true
		}
	}
	c.Reset()
	return false
}

func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	c.query.world.Lock()
	c.matched = c.query.Archetypes()
	c.archetypeIndex = 0
	c.current = nil
	c.err = nil
	c.initialized = true
}

// Reset ends the walk and releases the world lock. Operations queued while
// the cursor was open are applied if this was the outermost lock.
func (c *Cursor) Reset() {
	if !c.initialized {
		return
	}
	c.archetypeIndex = 0
	c.row = 0
	c.current = nil
	c.matched = nil
	c.initialized = false
	if err := c.query.world.Unlock(); err != nil && c.err == nil {
		c.err = err
	}
}

// Entity returns the entity under the cursor.
func (c *Cursor) Entity() Entity {
	return c.current.Entity(c.row)
}

// Archetype returns the archetype under the cursor.
func (c *Cursor) Archetype() *Archetype {
	return c.current
}

// RemainingInArchetype counts the rows after the current one.
func (c *Cursor) RemainingInArchetype() int {
	if c.current == nil {
		return 0
	}
	return c.current.Count() - c.row - 1
}

// Err reports why the last walk stopped early, if it did.
func (c *Cursor) Err() error {
	return c.err
}

func (c *Cursor) TotalMatched() int {
	return c.query.Count()
}
