package save

import (
	"fmt"

	"github.com/ssargent/ersave/pkg/codec"
)

// MountSize is the encoded size of the mount (Torrent) block.
const MountSize = 0x28

// MountState is Torrent's activity flag.
type MountState uint32

const (
	MountInactive MountState = 1
	MountDead     MountState = 3
	MountActive   MountState = 13
)

func (s MountState) String() string {
	switch s {
	case MountInactive:
		return "inactive"
	case MountDead:
		return "dead"
	case MountActive:
		return "active"
	}
	return fmt.Sprintf("MountState(%d)", uint32(s))
}

// Mount is the rideable companion's persisted state.
type Mount struct {
	Position codec.Vec3
	MapID    MapID
	Angle    codec.Vec4
	HP       uint32
	State    MountState
}

// StuckLoading reports the combination that makes the game loop on the loading screen.
func (m Mount) StuckLoading() bool {
	return m.HP == 0 && m.State == MountActive
}

func decodeMount(c *codec.Cursor) (Mount, error) {
	var m Mount
	var err error
	if m.Position, err = c.Vec3(); err != nil {
		return m, err
	}
	raw, err := c.Bytes(4)
	if err != nil {
		return m, err
	}
	copy(m.MapID[:], raw)
	if m.Angle, err = c.Vec4(); err != nil {
		return m, err
	}
	if m.HP, err = c.U32(); err != nil {
		return m, err
	}
	state, err := c.U32()
	m.State = MountState(state)
	return m, err
}

func (m *Mount) encode(c *codec.Cursor) error {
	if err := c.PutVec3(m.Position); err != nil {
		return err
	}
	if err := c.PutBytes(m.MapID[:]); err != nil {
		return err
	}
	if err := c.PutVec4(m.Angle); err != nil {
		return err
	}
	if err := c.PutU32(m.HP); err != nil {
		return err
	}
	return c.PutU32(uint32(m.State))
}
