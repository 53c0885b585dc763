package ns16550

import (
	"math/rand"
	"testing"
)

func TestRingEmptyFullBoundaries(t *testing.T) {
	var q txRing

	if !q.empty() {
		t.Fatal("fresh ring not empty")
	}
	if q.full() {
		t.Fatal("fresh ring full")
	}

	for i := 0; i < txBufSize-1; i++ {
		if q.full() {
			t.Fatalf("full after %d of %d pushes", i, txBufSize-1)
		}
		q.push(byte(i))
	}
	if !q.full() {
		t.Fatalf("not full at %d bytes; usable capacity must be %d", q.used(), txBufSize-1)
	}
	if q.empty() {
		t.Fatal("full ring reported empty")
	}

	for i := 0; i < txBufSize-1; i++ {
		if got := q.pop(); got != byte(i) {
			t.Fatalf("pop %d = %d, want %d", i, got, i)
		}
	}
	if !q.empty() {
		t.Fatalf("ring not empty after draining, used=%d", q.used())
	}
}

func TestRingReset(t *testing.T) {
	var q txRing
	q.push(1)
	q.push(2)
	q.reset()
	if !q.empty() || q.used() != 0 {
		t.Fatalf("used = %d after reset", q.used())
	}
}

// TestRingOrderAcrossWraparound drives the cursors far past the array size
// with randomized push/pop bursts and checks strict FIFO order throughout.
// Both cursors are monotonic and reduced only at index time; this is the
// wraparound soak that scheme has to survive.
func TestRingOrderAcrossWraparound(t *testing.T) {
	var q txRing
	rng := rand.New(rand.NewSource(1))

	var next, expect byte
	const total = 64 * 1024

	popped := 0
	for popped < total {
		for n := rng.Intn(txBufSize); n > 0 && !q.full(); n-- {
			q.push(next)
			next++
		}
		for n := rng.Intn(txBufSize); n > 0 && !q.empty(); n-- {
			if got := q.pop(); got != expect {
				t.Fatalf("pop %d = %d, want %d", popped, got, expect)
			}
			expect++
			popped++
		}
		if q.used() < 0 || q.used() > txBufSize-1 {
			t.Fatalf("used = %d out of range", q.used())
		}
	}
}
