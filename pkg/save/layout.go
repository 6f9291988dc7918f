package save

import (
	"bytes"
	"fmt"
)

// Platform identifies the container variant.
type Platform int

const (
	PlatformUnknown Platform = iota
	PlatformPC
	PlatformConsole
)

func (p Platform) String() string {
	switch p {
	case PlatformPC:
		return "pc"
	case PlatformConsole:
		return "console"
	}
	return "unknown"
}

// Container framing constants.
const (
	SlotCount      = 10
	ChecksumSize   = 0x10
	SlotDataSize   = 0x280000
	CommonDataSize = 0x60000

	PCHeaderSize      = 0x300
	ConsoleHeaderSize = 0x6C
)

var (
	MagicBND4    = [4]byte{'B', 'N', 'D', '4'}
	MagicSL2     = [4]byte{'S', 'L', '2', 0}
	MagicConsole = [4]byte{0xCB, 0x01, 0x9C, 0x2C}
)

// Layout computes absolute offsets for one platform.
type Layout struct {
	Platform     Platform
	HeaderSize   int
	ChecksumSize int // zero when the platform stores no digests
}

// PCLayout and ConsoleLayout are the two supported framings.
var (
	PCLayout      = Layout{Platform: PlatformPC, HeaderSize: PCHeaderSize, ChecksumSize: ChecksumSize}
	ConsoleLayout = Layout{Platform: PlatformConsole, HeaderSize: ConsoleHeaderSize}
)

// DetectLayout selects the layout from the 4-byte magic.
func DetectLayout(buf []byte) (Layout, error) {
	var magic [4]byte
	if len(buf) < 4 {
		return Layout{}, &FormatError{Length: len(buf), Reason: "buffer shorter than magic"}
	}
	copy(magic[:], buf)

	switch {
	case bytes.Equal(magic[:], MagicBND4[:]), bytes.Equal(magic[:], MagicSL2[:]):
		return PCLayout, nil
	case bytes.Equal(magic[:], MagicConsole[:]):
		return ConsoleLayout, nil
	}
	return Layout{}, &FormatError{Magic: magic, Length: len(buf), Reason: "unknown magic"}
}

// SlotOffset is the start of slot i including its checksum prefix.
func (l Layout) SlotOffset(i int) int {
	return l.HeaderSize + i*(l.ChecksumSize+SlotDataSize)
}

// SlotDataOffset is the first byte of slot i's data.
func (l Layout) SlotDataOffset(i int) int {
	return l.SlotOffset(i) + l.ChecksumSize
}

// CommonOffset is the start of the common section including its checksum prefix.
func (l Layout) CommonOffset() int {
	return l.SlotOffset(SlotCount)
}

// CommonDataOffset is the first byte of the common section's data.
func (l Layout) CommonDataOffset() int {
	return l.CommonOffset() + l.ChecksumSize
}

// RegulationOffset is the start of the opaque regulation tail.
func (l Layout) RegulationOffset() int {
	return l.CommonDataOffset() + CommonDataSize
}

// MinLength is the smallest buffer that holds every slot and the common section.
func (l Layout) MinLength() int {
	return l.RegulationOffset()
}

// HasChecksums reports whether the layout stores digests.
func (l Layout) HasChecksums() bool {
	return l.ChecksumSize > 0
}

func (l Layout) validate(buf []byte) error {
	if len(buf) < l.MinLength() {
		var magic [4]byte
		copy(magic[:], buf)
		return &FormatError{
			Magic:  magic,
			Length: len(buf),
			Reason: fmt.Sprintf("%s container needs at least 0x%X bytes", l.Platform, l.MinLength()),
		}
	}
	return nil
}
