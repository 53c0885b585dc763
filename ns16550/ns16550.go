// ns16550/ns16550.go

// Package ns16550 is an interrupt-driven driver for a memory-mapped
// 16550A-compatible UART, written for kernels that move console bytes
// through a small software TX ring rather than polling.
//
// Invariants (TX path):
//   - The ring buffer and both cursors are touched only with the driver
//     mutex held, by blocking writers (push) and the transmit pump (pop).
//   - The pump is entered from a writer or from the interrupt handler, but
//     the mutex serialises the entries; it never runs concurrently.
//   - WriteByteSync bypasses the ring and the mutex entirely. It is for
//     contexts where interrupts cannot be trusted (early boot, panic,
//     character echo) and relies on caller discipline: it masks local
//     interrupts and must not race another execution context that is
//     driving the interrupt path.
//
// Contexts:
//   - Thread context may suspend: WriteByte, Write, Flush.
//   - Interrupt context must not: HandleInterrupt, ReadByte, WriteByteSync
//     and everything they reach stay wait-free. HandleInterrupt must never
//     call WriteByte.
//
// The driver is fail-stop: once Halt is called (by the kernel's panic
// handler) every output path runs the halt action and never returns.
package ns16550

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrNoData is returned by ReadByte when the receiver holds no byte.
var ErrNoData = errors.New("UART no data")

// Config carries the driver's external collaborators.
type Config struct {
	// OnRecv is called from interrupt context once per received byte, in
	// arrival order. It must not block and must not call WriteByte.
	// Typically the console line-discipline input entry point.
	OnRecv func(c byte)

	// OnHalt, if set, replaces the spin-forever action taken by output
	// paths after Halt. It must not return control to the caller in
	// production use; tests use it to park halted goroutines observably.
	OnHalt func()
}

// UART drives a single 16550A through a platform-supplied register file.
// Create one instance per port with New; the kernel is expected to hold a
// process-wide instance for its console port.
type UART struct {
	regs Regs

	mu      sync.Mutex // guards tx and orders all pump entries
	tx      txRing
	txSpace *sync.Cond // signalled by the pump; predicate: !tx.full()

	halted atomic.Bool // Operational -> Halted, terminal

	onRecv func(byte)
	onHalt func()
}

// New returns a driver bound to regs. The register mapping must already be
// established and must outlive the driver.
func New(regs Regs) *UART {
	u := &UART{regs: regs}
	u.txSpace = sync.NewCond(&u.mu)
	return u
}

// Configure programs the device for interrupt-driven console use: 8 data
// bits, no parity, FIFOs disabled (the DesignWare FIFO interacts badly with
// the busy-detect quirk, so the port runs unbuffered), receive interrupt
// enabled. The transmit interrupt is enabled lazily by the first queued
// byte. Cursors are reset.
//
// Configure must run exactly once, before the platform routes the port's
// interrupt to HandleInterrupt and before any write.
func (u *UART) Configure(cfg Config) error {
	u.onRecv = cfg.OnRecv
	u.onHalt = cfg.OnHalt

	// Word length 8 bits, no parity.
	u.regs.Write(LCR, LCREightBits)

	// Keep the FIFOs off.
	u.regs.Write(FCR, 0x00)

	// Receive interrupts only; WriteByte arms transmit interrupts.
	u.regs.Write(IER, IERRxEnable)

	u.mu.Lock()
	u.tx.reset()
	u.mu.Unlock()
	return nil
}

// Halt moves the driver to its terminal state. It is called by the kernel's
// panic handler; from then on WriteByte, Write, Flush and WriteByteSync
// stop cooperating with interrupts and never return. Halt is never undone.
func (u *UART) Halt() { u.halted.Store(true) }

// Halted reports whether Halt has been called.
func (u *UART) Halted() bool { return u.halted.Load() }

// halt runs the configured halt action and then spins. It does not return.
func (u *UART) halt() {
	if u.onHalt != nil {
		u.onHalt()
	}
	for {
	}
}

// WriteByte adds one byte to the TX ring and starts the UART sending if it
// is not already. It blocks while the ring is full, so it must not be
// called from interrupt context; it is the write() path, not the echo path.
func (u *UART) WriteByte(c byte) error {
	u.mu.Lock()

	if u.halted.Load() {
		u.halt()
	}

	for u.tx.full() {
		// Wait for the pump to open up space in the ring.
		u.txSpace.Wait()
	}
	u.tx.push(c)
	u.enableTxIntr()
	u.pump()
	u.mu.Unlock()
	return nil
}

// Write implements io.Writer with WriteByte's blocking behaviour per byte.
func (u *UART) Write(p []byte) (int, error) {
	for i, c := range p {
		if err := u.WriteByte(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// WriteByteSync sends one byte without the ring, the mutex or interrupts,
// spinning on LSR until the transmitter can take it. It is for kernel
// printf and character echo, and for nothing that cannot afford to stall
// the whole core. Local interrupts are masked across the register access so
// the interrupt path on this core cannot interleave.
func (u *UART) WriteByteSync(c byte) {
	st := intrSave()

	if u.halted.Load() {
		u.halt()
	}

	for u.regs.Read(LSR)&LSRTxIdle == 0 {
	}
	u.regs.Write(THR, c)

	intrRestore(st)
}

// ReadByte consumes one byte from the receiver. If none is waiting it
// returns ErrNoData immediately. Receive is unbuffered: there is no ring
// and no lock on this path, so it is safe from interrupt context.
func (u *UART) ReadByte() (byte, error) {
	if u.regs.Read(LSR)&LSRRxReady == 0 {
		return 0, ErrNoData
	}
	return u.regs.Read(RHR), nil
}

// enableTxIntr arms the transmit interrupt the first time a byte is queued,
// so later tx-idle transitions reach HandleInterrupt. Caller holds u.mu.
func (u *UART) enableTxIntr() {
	if u.regs.Read(IER)&IERTxEnable == 0 {
		u.regs.Write(IER, IERTxEnable|IERRxEnable)
	}
}

// pump moves bytes from the ring into the transmit holding register while
// the ring has data and the device reports tx-idle, waking writers that are
// blocked on ring space. It stops as soon as either side runs out: when the
// device is busy it will interrupt when ready, and HandleInterrupt calls
// back in. When it cannot drain, pump performs no register writes and moves
// no cursor. Caller must hold u.mu.
func (u *UART) pump() {
	for {
		if u.tx.empty() {
			return
		}

		if u.regs.Read(LSR)&LSRTxIdle == 0 {
			// The holding register is full; the UART interrupts
			// when it can take another byte.
			return
		}

		c := u.tx.pop()
		u.regs.Write(THR, c)

		// A writer may be waiting for ring space.
		u.txSpace.Broadcast()
	}
}

// Flush blocks until every queued byte has left the device: the ring is
// empty and LSR reports the transmit shifter empty. Thread context only.
func (u *UART) Flush() {
	u.mu.Lock()
	if u.halted.Load() {
		u.halt()
	}
	for !u.tx.empty() {
		u.txSpace.Wait()
	}
	u.mu.Unlock()

	for u.regs.Read(LSR)&LSRTxEmpty == 0 {
	}
}

// TxPending returns the number of bytes queued in the TX ring.
func (u *UART) TxPending() int {
	u.mu.Lock()
	n := u.tx.used()
	u.mu.Unlock()
	return n
}

// TxFree returns the remaining usable space in the TX ring in bytes.
func (u *UART) TxFree() int {
	u.mu.Lock()
	n := txBufSize - 1 - u.tx.used()
	u.mu.Unlock()
	return n
}

// HandleInterrupt services one assertion of the port's interrupt line. The
// platform's trap dispatcher calls it for receive-ready, tx-idle, or both;
// an identity it does not recognise passes through as a no-op. It never
// suspends.
func (u *UART) HandleInterrupt() {
	// DesignWare character timeout: a byte has been sitting in RHR with no
	// receive interrupt following it. The condition clears only on an RHR
	// read, so take the byte now and deliver it like any other.
	if u.regs.Read(IIR)&IIRIDMask == IIRRxTimeout {
		if c, err := u.ReadByte(); err == nil && u.onRecv != nil {
			u.onRecv(c)
		}
	}

	// One status snapshot for this invocation.
	lsr := u.regs.Read(LSR)

	if lsr&LSRRxReady != 0 {
		for {
			c, err := u.ReadByte()
			if err != nil {
				break
			}
			if u.onRecv != nil {
				u.onRecv(c)
			}
		}
	}

	if lsr&LSRTxIdle != 0 {
		// Send buffered bytes.
		u.mu.Lock()
		u.pump()
		u.mu.Unlock()
	}

	// DesignWare busy detect: a dummy USR read is the only way to clear
	// it, otherwise the line stays asserted.
	if u.regs.Read(IIR)&IIRIDMask == IIRBusy {
		u.regs.Read(USR)
	}
}
