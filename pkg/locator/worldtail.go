package locator

import (
	"encoding/binary"
	"math"
)

// World-tail field offsets, relative to the weather structure.
const (
	TailWeatherArea   = 0x00
	TailWeatherType   = 0x02
	TailWeatherTimer  = 0x04
	TailTime          = 0x0C
	TailBaseVersion   = 0x18 // copy
	TailVersion       = 0x1C
	TailIsLatest      = 0x20
	TailSteamID       = 0x28
	WorldTailProbeLen = 0x30
)

// coordinates block read by the plausibility gate: vec3 + map id
const coordsLen = 16

// Thresholds are the empirically tuned limits of the world-tail probe.
type Thresholds struct {
	MaxAreaID        uint16
	MaxWeatherType   uint16
	MaxWeatherTimer  uint32
	MaxHours         uint32
	MaxBaseVersion   int32
	CoordLimitX      float32
	CoordLimitY      float32
	CoordLimitZ      float32
	MinMapArea       uint8
	MaxMapArea       uint8
	GoodVersionLow   int32
	GoodVersionHigh  int32
	ScoreArea        int
	ScoreTime        int
	ScoreGoodVersion int
	ScoreAnyVersion  int
}

// DefaultThresholds returns the limits observed on real save files
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxAreaID:        255,
		MaxWeatherType:   100,
		MaxWeatherTimer:  100000,
		MaxHours:         200,
		MaxBaseVersion:   300,
		CoordLimitX:      10000,
		CoordLimitY:      5000,
		CoordLimitZ:      10000,
		MinMapArea:       0x0A,
		MaxMapArea:       0x70,
		GoodVersionLow:   50,
		GoodVersionHigh:  100,
		ScoreArea:        10,
		ScoreTime:        5,
		ScoreGoodVersion: 15,
		ScoreAnyVersion:  5,
	}
}

// WorldTailProbe recognises the weather/time/base-version/steam-id block that
// follows the network manager. The player coordinates sit a fixed distance
// before it and act as an anchor.
type WorldTailProbe struct {
	T              Thresholds
	CoordsDistance int // weather offset minus coordinates offset
}

// NewWorldTailProbe creates a probe with the given limits and anchor distance
func NewWorldTailProbe(t Thresholds, coordsDistance int) *WorldTailProbe {
	return &WorldTailProbe{T: t, CoordsDistance: coordsDistance}
}

// Size implements Probe
func (p *WorldTailProbe) Size() int { return WorldTailProbeLen }

type tailFields struct {
	area, weatherType    uint16
	timer                uint32
	hours, minutes, secs uint32
	versionCopy, version int32
	isLatest             uint32
	steamID              uint64
}

func readTail(b []byte) tailFields {
	le := binary.LittleEndian
	return tailFields{
		area:        le.Uint16(b[TailWeatherArea:]),
		weatherType: le.Uint16(b[TailWeatherType:]),
		timer:       le.Uint32(b[TailWeatherTimer:]),
		hours:       le.Uint32(b[TailTime:]),
		minutes:     le.Uint32(b[TailTime+4:]),
		secs:        le.Uint32(b[TailTime+8:]),
		versionCopy: int32(le.Uint32(b[TailBaseVersion:])),
		version:     int32(le.Uint32(b[TailVersion:])),
		isLatest:    le.Uint32(b[TailIsLatest:]),
		steamID:     le.Uint64(b[TailSteamID:]),
	}
}

type coords struct {
	x, y, z float32
	mapID   [4]byte
}

func readCoords(b []byte) coords {
	le := binary.LittleEndian
	var c coords
	c.x = math.Float32frombits(le.Uint32(b[0:]))
	c.y = math.Float32frombits(le.Uint32(b[4:]))
	c.z = math.Float32frombits(le.Uint32(b[8:]))
	copy(c.mapID[:], b[12:16])
	return c
}

// Evaluate implements Probe
func (p *WorldTailProbe) Evaluate(buf []byte, off int) (Candidate, bool) {
	if off < 0 || off+WorldTailProbeLen > len(buf) {
		return Candidate{}, false
	}
	f := readTail(buf[off : off+WorldTailProbeLen])
	t := p.T

	if f.area > t.MaxAreaID || f.weatherType > t.MaxWeatherType || f.timer > t.MaxWeatherTimer {
		return Candidate{}, false
	}
	if f.hours >= t.MaxHours || f.minutes >= 60 || f.secs >= 60 {
		return Candidate{}, false
	}
	if f.version < 0 || f.version > t.MaxBaseVersion || f.versionCopy != f.version || f.isLatest > 1 {
		return Candidate{}, false
	}

	co := off - p.CoordsDistance
	if co < 0 || co+coordsLen > len(buf) {
		return Candidate{}, false
	}
	pc := readCoords(buf[co : co+coordsLen])
	if !p.plausibleCoords(pc) {
		return Candidate{}, false
	}

	cand := Candidate{Score: p.score(f), Populated: populated(f)}
	switch {
	case f.area > 0 && f.version > 0:
		cand.Tier = TierPopulated
	case f.area == 0 && f.version == 0:
		cand.Tier = TierZeroed
		cand.Quality = p.quality(pc)
	default:
		cand.Tier = TierImplausible
	}
	return cand, true
}

func (p *WorldTailProbe) plausibleCoords(c coords) bool {
	t := p.T
	x, y, z := abs32(c.x), abs32(c.y), abs32(c.z)
	if isNaN32(c.x) || isNaN32(c.y) || isNaN32(c.z) {
		return false
	}
	if x < 1 && y < 1 {
		return false
	}
	if x >= t.CoordLimitX || y >= t.CoordLimitY || z >= t.CoordLimitZ {
		return false
	}
	if c.mapID == [4]byte{} || c.mapID == [4]byte{0xFF, 0xFF, 0xFF, 0xFF} {
		return false
	}
	return c.mapID[3] >= t.MinMapArea && c.mapID[3] <= t.MaxMapArea
}

func (p *WorldTailProbe) score(f tailFields) int {
	t := p.T
	s := 0
	if f.area > 0 {
		s += t.ScoreArea
	}
	if f.hours > 0 || f.minutes > 0 || f.secs > 0 {
		s += t.ScoreTime
	}
	switch {
	case f.version >= t.GoodVersionLow && f.version <= t.GoodVersionHigh:
		s += t.ScoreGoodVersion
	case f.version > 0 && f.version < t.MaxBaseVersion:
		s += t.ScoreAnyVersion
	}
	if s < 1 {
		s = 1
	}
	return s
}

// quality ranks all-zero candidates by how much the anchor looks like real
// player coordinates.
func (p *WorldTailProbe) quality(c coords) int {
	x, y, z := abs32(c.x), abs32(c.y), abs32(c.z)
	q := 0
	if y > 10 && y < 2000 {
		q += 10
	}
	if c.mapID[3] >= p.T.MinMapArea && c.mapID[3] <= p.T.MaxMapArea {
		q += 10
	}
	if x > 1 {
		q += 5
	}
	if abs32(c.x-c.y) > 10 || abs32(c.y-c.z) > 10 {
		q += 5
	}
	if fractional(c.x) || fractional(c.y) {
		q += 3
	}
	if y > 1500 {
		q -= 10
	}
	if x == y {
		q -= 10
	}
	if x == 128 || y == 128 || z == 128 {
		q -= 10
	}
	return q
}

func populated(f tailFields) int {
	n := 0
	for _, v := range []uint64{
		uint64(f.area), uint64(f.weatherType), uint64(f.timer),
		uint64(f.hours), uint64(f.minutes), uint64(f.secs),
		uint64(uint32(f.version)), uint64(f.isLatest), f.steamID,
	} {
		if v != 0 {
			n++
		}
	}
	return n
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

func isNaN32(v float32) bool {
	return math.IsNaN(float64(v)) || math.IsInf(float64(v), 0)
}

func fractional(v float32) bool {
	_, frac := math.Modf(float64(v))
	frac = math.Abs(frac)
	return frac > 0.1 && frac < 0.9
}
