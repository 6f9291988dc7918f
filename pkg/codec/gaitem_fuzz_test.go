//go:build fuzz
// +build fuzz

package codec

import (
	"bytes"
	"testing"
)

// FuzzItemHandleTable_RoundTrip decodes arbitrary bytes as a table and checks
// that whatever decodes also re-encodes to the same prefix.
func FuzzItemHandleTable_RoundTrip(f *testing.F) {
	f.Add(bytes.Repeat([]byte{0}, 8*LegacyHandleCount), uint32(81))
	f.Add(bytes.Repeat([]byte{0x01, 0x00, 0x00, 0x80}, 6*CurrentHandleCount), uint32(160))
	f.Add(bytes.Repeat([]byte{0x01, 0x00, 0x00, 0x90, 0x02, 0x00, 0x00, 0xC0}, 3*CurrentHandleCount), uint32(120))

	f.Fuzz(func(t *testing.T, data []byte, version uint32) {
		if len(data) > 21*CurrentHandleCount+64 {
			t.Skip("input too large")
		}

		c := NewCursor(data)
		table, err := DecodeItemHandleTable(c, version)
		if err != nil {
			return
		}
		if table.Size() != c.Pos() {
			t.Fatalf("size mismatch: table says %d, cursor at %d", table.Size(), c.Pos())
		}

		out := make([]byte, c.Pos())
		if err := table.Encode(NewCursor(out)); err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		if !bytes.Equal(out, data[:c.Pos()]) {
			t.Fatalf("round trip mismatch for version %d", version)
		}
	})
}

// FuzzUTF16_Decode ensures arbitrary name fields never panic
func FuzzUTF16_Decode(f *testing.F) {
	f.Add([]byte{'A', 0, 'B', 0, 0, 0})
	f.Add([]byte{0x3D, 0xD8})

	f.Fuzz(func(t *testing.T, raw []byte) {
		_, _ = DecodeUTF16(raw)
	})
}
