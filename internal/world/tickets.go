package world

// TicketPool hands out dense slot ids for the batch buffers. Released
// tickets are reused before the pool grows.
type TicketPool struct {
	free []int
	next int
}

func (p *TicketPool) Acquire() int {
	if n := len(p.free); n > 0 {
		t := p.free[n-1]
		p.free = p.free[:n-1]
		return t
	}
	t := p.next
	p.next++
	return t
}

func (p *TicketPool) Release(t int) {
	if t < 0 || t >= p.next {
		return
	}
	p.free = append(p.free, t)
}

// Cap is the number of tickets ever issued, i.e. the buffer length in
// chunks.
func (p *TicketPool) Cap() int { return p.next }

// InUse is the number of live tickets.
func (p *TicketPool) InUse() int { return p.next - len(p.free) }
