// sim16550/sim16550.go

// Package sim16550 is a register-level model of a 16550A-compatible UART
// for host-side tests and selftests of the ns16550 driver. It implements
// ns16550.Regs: the driver under test runs its real register traffic
// against the model, and the model records what a physical port would have
// seen on the wire.
//
// The model is programmable where the driver's behaviour depends on the
// device: the tx-idle policy can be scripted per status read, bytes can be
// injected into the receiver at any time, and the DesignWare busy-detect
// and character-timeout quirks can be raised on demand.
package sim16550

import (
	"sync"

	"github.com/jangala-dev/tinygo-ns16550/ns16550"
)

// Stats counts register traffic since the device was created.
type Stats struct {
	RegReads  int // all register reads
	RegWrites int // all register writes
	RHRReads  int // receive holding register reads (byte consumed)
	LSRReads  int // line status reads
	IIRReads  int // interrupt identification reads
	USRReads  int // UART status reads (busy-detect clears)
}

// Device models one 16550A port.
type Device struct {
	mu sync.Mutex

	ier byte
	fcr byte
	lcr byte

	rx []byte // receiver queue; rx[0] is what RHR returns next
	tx []byte // everything written to THR, in order

	txIdle   func() bool // consulted per LSR read; nil means always idle
	lastIdle bool        // last sampled tx-idle, used for the IIR identity

	busy      bool // DesignWare busy detect pending
	rxTimeout bool // DesignWare character timeout pending

	stats Stats
}

// New returns an idle device with empty FIFOs and no interrupt pending.
func New() *Device { return &Device{lastIdle: true} }

var _ ns16550.Regs = (*Device)(nil)

// SetTxIdlePolicy scripts the transmit-idle status. The policy is invoked
// exactly once per LSR read and its result becomes the tx-idle and tx-empty
// bits of that read; the IIR identity reuses the most recent sample rather
// than consuming another, so scripted budgets map one-to-one onto the
// driver's status reads. A nil policy restores the default always-idle
// transmitter.
func (d *Device) SetTxIdlePolicy(idle func() bool) {
	d.mu.Lock()
	d.txIdle = idle
	d.mu.Unlock()
}

// PushRx makes p available on the receiver, after anything already queued.
func (d *Device) PushRx(p ...byte) {
	d.mu.Lock()
	d.rx = append(d.rx, p...)
	d.mu.Unlock()
}

// RaiseBusy asserts the busy-detect condition. It clears only on a USR
// read, exactly as on the DesignWare core.
func (d *Device) RaiseBusy() {
	d.mu.Lock()
	d.busy = true
	d.mu.Unlock()
}

// RaiseRxTimeout asserts the character-timeout condition. It clears on the
// next RHR read.
func (d *Device) RaiseRxTimeout() {
	d.mu.Lock()
	d.rxTimeout = true
	d.mu.Unlock()
}

// Pending reports whether the device would be asserting its interrupt line,
// i.e. whether an IIR read would return anything but "no interrupt".
func (d *Device) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.iir() != ns16550.IIRNoInt
}

// TxBytes returns a copy of every byte transmitted so far, in order.
func (d *Device) TxBytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]byte, len(d.tx))
	copy(out, d.tx)
	return out
}

// TakeTx drains and returns the transmit capture.
func (d *Device) TakeTx() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.tx
	d.tx = nil
	return out
}

// RxPending returns the number of bytes still queued on the receiver.
func (d *Device) RxPending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rx)
}

// Stats returns a snapshot of the traffic counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// iir computes the current interrupt identity. Caller holds d.mu.
// Busy detect wins, then character timeout, then the ordinary
// priority order: received data before transmitter empty.
func (d *Device) iir() byte {
	switch {
	case d.busy:
		return ns16550.IIRBusy
	case d.rxTimeout && len(d.rx) > 0:
		return ns16550.IIRRxTimeout
	case d.ier&ns16550.IERRxEnable != 0 && len(d.rx) > 0:
		return ns16550.IIRRxData
	case d.ier&ns16550.IERTxEnable != 0 && d.lastIdle:
		return ns16550.IIRTxEmpty
	default:
		return ns16550.IIRNoInt
	}
}

// sampleIdle evaluates the tx-idle policy and records the sample.
// Caller holds d.mu.
func (d *Device) sampleIdle() bool {
	if d.txIdle == nil {
		d.lastIdle = true
	} else {
		d.lastIdle = d.txIdle()
	}
	return d.lastIdle
}

// Read implements ns16550.Regs.
func (d *Device) Read(r ns16550.Reg) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.RegReads++

	switch r {
	case ns16550.RHR:
		d.stats.RHRReads++
		d.rxTimeout = false
		if len(d.rx) == 0 {
			return 0
		}
		c := d.rx[0]
		d.rx = d.rx[1:]
		return c

	case ns16550.IER:
		return d.ier

	case ns16550.IIR:
		d.stats.IIRReads++
		return d.iir()

	case ns16550.LCR:
		return d.lcr

	case ns16550.LSR:
		d.stats.LSRReads++
		var v byte
		if len(d.rx) > 0 {
			v |= ns16550.LSRRxReady
		}
		if d.sampleIdle() {
			v |= ns16550.LSRTxIdle | ns16550.LSRTxEmpty
		}
		return v

	case ns16550.USR:
		d.stats.USRReads++
		d.busy = false
		return 0

	default:
		return 0
	}
}

// Write implements ns16550.Regs.
func (d *Device) Write(r ns16550.Reg, v byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.RegWrites++

	switch r {
	case ns16550.THR:
		d.tx = append(d.tx, v)
	case ns16550.IER:
		d.ier = v
	case ns16550.FCR:
		d.fcr = v
	case ns16550.LCR:
		d.lcr = v
	}
}
