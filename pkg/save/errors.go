package save

import (
	"fmt"

	"github.com/ssargent/ersave/pkg/locator"
)

// ErrTailNotFound means the world tail could not be located in its window.
// Features that depend on it are unavailable for the slot.
var ErrTailNotFound = locator.ErrNotFound

// FormatError means the buffer is not a recognised save container.
type FormatError struct {
	Magic  [4]byte
	Length int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unrecognised save container (magic % X, %d bytes): %s", e.Magic[:], e.Length, e.Reason)
}

// CommonSlot is the Slot value used in errors that concern the common section.
const CommonSlot = -1

// DecodeError reports a structure that failed to parse. It names the slot and
// the structure so the failing offset can be compared against a known layout.
type DecodeError struct {
	Slot      int // 0-based; CommonSlot for the common section
	Structure string
	Offset    int // absolute offset in the container
	Err       error
}

func (e *DecodeError) Error() string {
	where := fmt.Sprintf("slot %d", e.Slot+1)
	if e.Slot == CommonSlot {
		where = "common section"
	}
	return fmt.Sprintf("%s: %s at 0x%X: %v", where, e.Structure, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IntegrityError reports a stored digest that does not match the data.
// It is advisory: the container still loads.
type IntegrityError struct {
	Slot     int // 0-based; CommonSlot for the common section
	Stored   [16]byte
	Computed [16]byte
}

func (e *IntegrityError) Error() string {
	where := fmt.Sprintf("slot %d", e.Slot+1)
	if e.Slot == CommonSlot {
		where = "common section"
	}
	return fmt.Sprintf("%s: checksum mismatch (stored %X, computed %X)", where, e.Stored[:], e.Computed[:])
}
