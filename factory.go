package depot

type factory struct{}

var Factory factory

// NewWorld creates a world. It fails once every world slot is taken.
func (f factory) NewWorld() (*World, error) {
	return newWorld()
}

// FactoryNewComponent registers T (once per process) and returns its handle.
// It panics when the component type limit is reached.
func FactoryNewComponent[T any]() Component[T] {
	ct := mustRegisterType[T]()
	return Component[T]{typeID: ct.id, kind: ct.kind}
}

func FactoryNewCache[K comparable, T any](cap int) Cache[K, T] {
	return &SimpleCache[K, T]{
		itemIndices: make(map[K]int),
		maxCapacity: cap,
	}
}
