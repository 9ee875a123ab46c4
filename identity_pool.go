package depot

// identityPool hands out entity identities for one world. Despawned slots are
// kept on a free list as their successor, so a reused index always comes
// back one generation later.
type identityPool struct {
	world   uint8
	created int
	count   int
	free    []Identity
}

func newIdentityPool(world uint8, capacity int) identityPool {
	return identityPool{
		world: world,
		free:  make([]Identity, 0, capacity),
	}
}

func (p *identityPool) spawn(n int) []Identity {
	ids := make([]Identity, 0, n)
	for len(ids) < n && len(p.free) > 0 {
		last := len(p.free) - 1
		ids = append(ids, p.free[last])
		p.free = p.free[:last]
	}
	for len(ids) < n {
		ids = append(ids, newEntityIdentity(p.world, 0, uint32(p.created)))
		p.created++
	}
	p.count += n
	return ids
}

func (p *identityPool) recycle(id Identity) {
	p.free = append(p.free, id.successor())
	p.count--
}

// Count is the number of identities currently handed out.
func (p *identityPool) Count() int {
	return p.count
}

// Created is the highest index ever allocated, plus one.
func (p *identityPool) Created() int {
	return p.created
}
