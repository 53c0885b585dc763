// ns16550/intr_baremetal.go

//go:build tinygo

package ns16550

import "runtime/interrupt"

// Local interrupt masking for WriteByteSync. Masking is per-core and
// nestable via the returned state.

type intrState = interrupt.State

func intrSave() intrState { return interrupt.Disable() }

func intrRestore(st intrState) { interrupt.Restore(st) }
