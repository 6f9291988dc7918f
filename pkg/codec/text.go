package codec

import (
	"encoding/binary"
	"strings"
	"unicode"

	utf16enc "golang.org/x/text/encoding/unicode"
)

var utf16le = utf16enc.UTF16(utf16enc.LittleEndian, utf16enc.IgnoreBOM)

// UTF16 reads a fixed-capacity UTF-16LE string occupying capacity*2 bytes.
// The value ends at the first NUL; trailing non-printable characters are dropped.
func (c *Cursor) UTF16(capacity int) (string, error) {
	raw, err := c.span("read", capacity*2)
	if err != nil {
		return "", err
	}
	return DecodeUTF16(raw)
}

// PutUTF16 writes s into a fixed-capacity UTF-16LE field, truncating to
// capacity characters and NUL-padding the rest.
func (c *Cursor) PutUTF16(s string, capacity int) error {
	field, err := c.span("write", capacity*2)
	if err != nil {
		return err
	}
	enc, err := EncodeUTF16(s, capacity)
	if err != nil {
		return err
	}
	n := copy(field, enc)
	clear(field[n:])
	return nil
}

// DecodeUTF16 decodes a NUL-terminated UTF-16LE byte field
func DecodeUTF16(raw []byte) (string, error) {
	end := len(raw) &^ 1
	for i := 0; i+1 < len(raw); i += 2 {
		if raw[i] == 0 && raw[i+1] == 0 {
			end = i
			break
		}
	}
	s, err := utf16le.NewDecoder().Bytes(raw[:end])
	if err != nil {
		return "", err
	}
	return strings.TrimRightFunc(string(s), func(r rune) bool {
		return !unicode.IsPrint(r)
	}), nil
}

// EncodeUTF16 encodes s as UTF-16LE limited to capacity code units.
// A surrogate pair is never split by the truncation.
func EncodeUTF16(s string, capacity int) ([]byte, error) {
	b, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, err
	}
	limit := capacity * 2
	if len(b) <= limit {
		return b, nil
	}
	b = b[:limit]
	last := binary.LittleEndian.Uint16(b[limit-2:])
	if last >= 0xD800 && last < 0xDC00 {
		b = b[:limit-2]
	}
	return b, nil
}
