// ns16550/mmio_baremetal.go

//go:build tinygo

package ns16550

import (
	"runtime/volatile"
	"unsafe"
)

// MMIO is the bare-metal register file: byte-wide registers spaced
// 1<<shift apart from a platform-supplied base address. On the DesignWare
// cores this driver targets the stride is 4 (shift 2).
type MMIO struct {
	base  uintptr
	shift uint
}

// NewMMIO returns a register file over an already-mapped device. The
// mapping is owned by the platform and must be established before any
// access; MMIO never checks it.
func NewMMIO(base uintptr, shift uint) *MMIO {
	return &MMIO{base: base, shift: shift}
}

func (m *MMIO) reg(r Reg) *volatile.Register8 {
	return (*volatile.Register8)(unsafe.Pointer(m.base + uintptr(r)<<m.shift))
}

// Read performs a volatile byte load, with whatever side effect the device
// attaches to reading that register.
func (m *MMIO) Read(r Reg) byte { return m.reg(r).Get() }

// Write performs a volatile byte store.
func (m *MMIO) Write(r Reg, v byte) { m.reg(r).Set(v) }
