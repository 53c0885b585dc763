// ns16550/ring.go

package ns16550

// Software TX ring size. A console port needs very little buffering; the
// blocking writer provides backpressure long before size matters.
const txBufSize = 32

// txRing is the transmit ring buffer: a fixed array plus two monotonic
// cursors, reduced mod txBufSize only when indexing. The same scheme is
// applied to both cursors so the empty/full tests stay exact across
// wraparound; at 64 bits the counters cannot overflow in practice.
//
// Unlike RingBuffer-style lock-free rings, txRing has no interior
// synchronisation: it is touched only with the driver mutex held, by the
// blocking writer (push) and the transmit pump (pop).
//
// Invariants: empty when w == r; full when w-r == txBufSize-1, i.e. usable
// capacity is txBufSize-1 so that a write-cursor advance never makes the
// full and empty states indistinguishable.
type txRing struct {
	buf  [txBufSize]byte
	w, r uint64 // monotonic write/read cursors
}

func (q *txRing) empty() bool { return q.w == q.r }

func (q *txRing) full() bool { return q.w-q.r == txBufSize-1 }

func (q *txRing) used() int { return int(q.w - q.r) }

// push stores one byte at the write cursor. Caller must have checked full().
func (q *txRing) push(c byte) {
	q.buf[q.w%txBufSize] = c
	q.w++
}

// pop removes and returns the byte at the read cursor. Caller must have
// checked empty().
func (q *txRing) pop() byte {
	c := q.buf[q.r%txBufSize]
	q.r++
	return c
}

func (q *txRing) reset() {
	q.w = 0
	q.r = 0
}
