// ns16550/regs.go

package ns16550

// Reg identifies one of the byte-wide 16550A registers by register number.
// The mapping from register number to bus address (stride, base) belongs to
// the platform; see NewMMIO for the bare-metal register file.
type Reg uint8

// The 16550A register set. Register 0 and register 2 read and write
// differently: 0 is the receive holding register on read and the transmit
// holding register on write; 2 is the interrupt identification register on
// read and the FIFO control register on write.
// See http://byterunner.com/16550.html
const (
	RHR Reg = 0 // receive holding register (read)
	THR Reg = 0 // transmit holding register (write)
	IER Reg = 1 // interrupt enable register
	FCR Reg = 2 // FIFO control register (write)
	IIR Reg = 2 // interrupt identification register (read)
	LCR Reg = 3 // line control register
	LSR Reg = 5 // line status register

	// USR is the DesignWare UART status register. Reading it clears the
	// busy-detect condition (IIR code 0x07) raised by that core.
	USR Reg = 0x1f
)

// IER bits.
const (
	IERTxEnable = 1 << 0
	IERRxEnable = 1 << 1
)

// FCR bits.
const (
	FCRFIFOEnable = 1 << 0
	FCRFIFOClear  = 3 << 1 // clear the content of the two FIFOs
)

// LCR bits.
const (
	LCREightBits = 3 << 0
	LCRBaudLatch = 1 << 7 // special mode to set baud rate
)

// LSR bits.
const (
	LSRRxReady = 1 << 0 // input is waiting to be read from RHR
	LSRTxIdle  = 1 << 5 // THR can accept another byte to send
	LSRTxEmpty = 1 << 6 // THR and the transmit shifter are both empty
)

// IIR interrupt identity codes, compared under IIRIDMask.
const (
	IIRIDMask    = 0x3f
	IIRNoInt     = 0x01 // no interrupt pending
	IIRTxEmpty   = 0x02 // transmit holding register empty
	IIRRxData    = 0x04 // received data available
	IIRLineStat  = 0x06 // receiver line status
	IIRBusy      = 0x07 // DesignWare busy detect
	IIRRxTimeout = 0x0c // character timeout (stale byte in RHR)
)

// Regs is the register file of a 16550A. Read and Write are direct volatile
// accesses to the device: they are unconditional, never fail and never
// block. Reads can have hardware side effects (reading RHR consumes the
// received byte, reading USR clears busy detect); Read must not suppress
// them.
type Regs interface {
	Read(r Reg) byte
	Write(r Reg, v byte)
}
