// Long-running FIFO-order soak for the ns16550 driver: a writer pushes a
// counting byte stream through the 32-byte ring while the simulated
// transmitter flaps between idle and busy, and the interrupt loop verifies
// that every byte comes out exactly once, in order. The DesignWare quirks
// are raised periodically so their handling stays in the hot path.
package main

import (
	"flag"
	"log"
	"math/rand"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/jangala-dev/tinygo-ns16550/ns16550"
	"github.com/jangala-dev/tinygo-ns16550/sim16550"
)

func main() {
	total := flag.Int("bytes", 4<<20, "bytes to push through the driver")
	seed := flag.Int64("seed", 1, "writer burst-size seed")
	flag.Parse()

	dev := sim16550.New()

	// Busy on every fourth status read.
	var flips atomic.Int64
	dev.SetTxIdlePolicy(func() bool { return flips.Add(1)&3 != 0 })

	u := ns16550.New(dev)
	if err := u.Configure(ns16550.Config{}); err != nil {
		log.Fatalf("configure: %v", err)
	}

	done := make(chan struct{})
	go func() {
		rng := rand.New(rand.NewSource(*seed))
		var c byte
		for sent := 0; sent < *total; {
			burst := rng.Intn(4*32) + 1
			if sent+burst > *total {
				burst = *total - sent
			}
			buf := make([]byte, burst)
			for i := range buf {
				buf[i] = c
				c++
			}
			if _, err := u.Write(buf); err != nil {
				log.Fatalf("write: %v", err)
			}
			sent += burst
		}
		close(done)
	}()

	start := time.Now()
	var expect byte
	verified := 0
	for verified < *total {
		u.HandleInterrupt()
		for _, got := range dev.TakeTx() {
			if got != expect {
				log.Fatalf("byte %d out of order: got %#x, want %#x", verified, got, expect)
			}
			expect++
			verified++
		}
		switch verified & 0xffff {
		case 0x1000:
			dev.RaiseBusy()
		case 0x2000:
			dev.PushRx('k')
			dev.RaiseRxTimeout()
		}
		runtime.Gosched()
	}
	<-done

	elapsed := time.Since(start)
	log.Printf("ok: %d bytes in order in %v (%.1f KiB/s)",
		verified, elapsed, float64(verified)/1024/elapsed.Seconds())
}
