package save

import (
	"fmt"
)

// MapID is a 4-byte area identifier. It is stored least significant byte
// first and displayed in reverse. It is compared as bytes, never as a number.
type MapID [4]byte

// Teleport destinations known to load safely.
var (
	MapLimgrave   = MapID{0x00, 0x24, 0x2A, 0x3C} // 60 42 36 0
	MapRoundtable = MapID{0x00, 0x00, 0x0A, 0x0B} // 11 10 0 0
)

// DLC area bytes.
const (
	dlcAreaSingle = 0x3D
	dlcAreaLow    = 0x14
	dlcAreaHigh   = 0x2B
)

// Area returns the most significant byte, which names the map area.
func (m MapID) Area() byte { return m[3] }

// IsDLC reports whether the area byte belongs to the DLC range.
func (m MapID) IsDLC() bool {
	a := m.Area()
	return a == dlcAreaSingle || (a >= dlcAreaLow && a <= dlcAreaHigh)
}

// IsZero reports an all-zero id.
func (m MapID) IsZero() bool { return m == MapID{} }

// String prints the bytes in display order as decimals, e.g. "60 42 36 0".
func (m MapID) String() string {
	return fmt.Sprintf("%d %d %d %d", m[3], m[2], m[1], m[0])
}
