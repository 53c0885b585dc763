// ns16550/intr_host.go

//go:build !tinygo

package ns16550

// Host builds have no interrupt controller; "interrupts" are goroutines
// calling HandleInterrupt, and WriteByteSync's masking degenerates to a
// no-op. The sim-backed tests exercise the register traffic either way.

type intrState struct{}

func intrSave() intrState { return intrState{} }

func intrRestore(intrState) {}
