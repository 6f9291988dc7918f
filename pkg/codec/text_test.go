package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUTF16_RoundTrip(t *testing.T) {
	testCases := []struct {
		name     string
		in       string
		capacity int
		want     string
	}{
		{"ascii", "Tarnished", 16, "Tarnished"},
		{"exact capacity", "ABCDEFGHIJKLMNOP", 16, "ABCDEFGHIJKLMNOP"},
		{"truncated", "ABCDEFGHIJKLMNOPQRS", 16, "ABCDEFGHIJKLMNOP"},
		{"empty", "", 16, ""},
		{"non-latin", "褪せ人", 16, "褪せ人"},
		{"surrogate not split", "ABC😀", 4, "ABC"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := make([]byte, tc.capacity*2)
			require.NoError(t, NewCursor(buf).PutUTF16(tc.in, tc.capacity))

			got, err := NewCursor(buf).UTF16(tc.capacity)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUTF16_PadsWithZero(t *testing.T) {
	buf := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	require.NoError(t, NewCursor(buf).PutUTF16("A", 4))
	assert.Equal(t, []byte{'A', 0, 0, 0, 0, 0, 0, 0}, buf)
}

func TestDecodeUTF16_StopsAtNulAndTrimsTrailers(t *testing.T) {
	raw := []byte{'H', 0, 'i', 0, 0x07, 0, 0, 0, 'X', 0}
	s, err := DecodeUTF16(raw)
	require.NoError(t, err)
	assert.Equal(t, "Hi", s)
}
