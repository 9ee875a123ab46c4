package depot

import (
	"sync"
	"weak"
)

// The slot table lets an entity Identity name its world in eight bits. Slots
// hold weak pointers, so a world dropped without Close frees its slot once
// it is collected.
var worldSlots struct {
	sync.Mutex
	slots [maxWorlds]weak.Pointer[World]
}

func claimWorldSlot(w *World) (uint8, error) {
	worldSlots.Lock()
	defer worldSlots.Unlock()
	for i := range worldSlots.slots {
		if worldSlots.slots[i].Value() == nil {
			worldSlots.slots[i] = weak.Make(w)
			return uint8(i), nil
		}
	}
	return 0, WorldLimitError{}
}

func releaseWorldSlot(slot uint8, w *World) {
	worldSlots.Lock()
	defer worldSlots.Unlock()
	if worldSlots.slots[slot].Value() == w {
		worldSlots.slots[slot] = weak.Pointer[World]{}
	}
}

// worldAt returns the live world in slot, or nil. The table has one entry per
// uint8 value.
func worldAt(slot uint8) *World {
	worldSlots.Lock()
	defer worldSlots.Unlock()
	return worldSlots.slots[slot].Value()
}
