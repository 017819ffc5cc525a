package world

// ShouldEvict reports whether c may be unloaded: not accessed for the
// eviction countdown, fully settled and outside the padded interest region.
func (m *Matrix) ShouldEvict(c *Chunk) bool {
	if c.countdown > 0 || !c.Settled() {
		return false
	}
	keep := m.interest.Inset(-m.opts.InterestPadding)
	return !c.Coord.Point().In(keep)
}

// EvictionSweep ticks every countdown and unloads evictable chunks. The
// caller holds the chunk lock.
func (m *Matrix) EvictionSweep() int {
	var victims []ChunkCoord
	for _, c := range m.list {
		if m.ShouldEvict(c) {
			victims = append(victims, c.Coord)
		}
		if c.countdown > 0 {
			c.countdown--
		}
	}
	for _, cc := range victims {
		m.deleteChunkLocked(cc)
	}
	return len(victims)
}

// SetCountdown overrides a chunk's eviction countdown.
func (c *Chunk) SetCountdown(n int) { c.countdown = n }

func (c *Chunk) Countdown() int { return c.countdown }

// LoadInterest generates every missing chunk of the padded interest
// region. It takes the chunk lock per chunk.
func (m *Matrix) LoadInterest() int {
	keep := m.interest.Inset(-m.opts.InterestPadding)
	n := 0
	for y := keep.Min.Y; y < keep.Max.Y; y++ {
		for x := keep.Min.X; x < keep.Max.X; x++ {
			cc := ChunkCoord{x, y}
			if m.chunks[cc] != nil || m.reserved(cc) {
				continue
			}
			if m.GenerateChunk(cc) != nil {
				n++
			}
		}
	}
	return n
}
