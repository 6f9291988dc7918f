// Package codec provides the primitive binary readers and writers used by the
// save container decoder, plus the variable-length item-handle table codec.
//
// # Cursor
//
// A Cursor walks a byte buffer and reads or writes little-endian values:
//
//	u8, u16, u32, i32, u64, f32
//	Vec3  = [X f32][Y f32][Z f32]
//	Vec4  = [X f32][Y f32][Z f32][W f32]
//	UTF16 = capacity * 2 bytes, NUL padded
//
// Every access is bounds-checked. Reading or writing past the end of the
// buffer returns a *BoundsError describing the operation, the offset, the
// requested width and the buffer length. The cursor never truncates silently.
//
// Strings are fixed-capacity UTF-16LE fields whose capacity is counted in
// characters, not bytes. Decoding stops at the first NUL code unit and trims
// trailing non-printable characters. Encoding truncates to the capacity
// (without splitting a surrogate pair) and zero-fills the remainder.
//
// # Item-Handle Table
//
// The gaitem table maps in-game item instances to item ids. Each entry starts
// with an 8-byte header:
//
//	[Handle(4)][ItemID(4)]
//
// and grows depending on the handle's top nibble:
//
//	handle == 0                        8 bytes   (KindEmpty)
//	handle & 0xF0000000 == 0xC0000000  8 bytes   (KindCompact)
//	handle & 0xF0000000 == 0x80000000  21 bytes  (KindWeapon)  [+Unk2(4)][Unk3(4)][AoWHandle(4)][Unk5(1)]
//	otherwise                          16 bytes  (KindExtended) [+Unk2(4)][Unk3(4)]
//
// The table holds 5118 entries for save versions up to 81 and 5120 after.
// Its byte length therefore depends on the values stored in it and can only
// be found by decoding every entry in order.
//
// # Usage
//
//	c := codec.NewCursorAt(buf, tableOffset)
//	table, err := codec.DecodeItemHandleTable(c, version)
//	if err != nil {
//	    return err
//	}
//	end := c.Pos() // first byte after the table
//
// Re-encoding a decoded table reproduces the input bytes exactly.
//
// # Thread Safety
//
// A Cursor is not safe for concurrent use. Distinct cursors over disjoint
// ranges of the same buffer may be used from different goroutines.
package codec
