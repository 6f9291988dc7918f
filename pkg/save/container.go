package save

import (
	"encoding/binary"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/ssargent/ersave/pkg/locator"
	"github.com/ssargent/ersave/pkg/logging"
)

// Option configures Decode.
type Option func(*decodeOptions)

type decodeOptions struct {
	logger *slog.Logger
	tail   TailOptions
}

// WithLogger routes decode diagnostics to logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *decodeOptions) { o.logger = logger }
}

// WithTailOptions overrides the world-tail locator settings
func WithTailOptions(t TailOptions) Option {
	return func(o *decodeOptions) { o.tail = t }
}

// Container is a decoded save file. It owns buf exclusively; slot windows
// are disjoint sub-slices of it.
type Container struct {
	Layout Layout

	buf       []byte
	slots     [SlotCount]*Slot
	slotErrs  [SlotCount]error
	common    *CommonSection
	commonErr error
	logger    *slog.Logger
	tailOpts  TailOptions
	loc       *locator.Locator
}

// Decode parses a save container. It takes ownership of buf.
//
// Only an unrecognised or truncated container is an error. A slot that fails
// to decode is recorded in SlotErrors and left empty; the walk continues with
// the next fixed-size slot window.
func Decode(buf []byte, opts ...Option) (*Container, error) {
	o := decodeOptions{tail: DefaultTailOptions()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrNop(o.logger)

	layout, err := DetectLayout(buf)
	if err != nil {
		return nil, err
	}
	if err := layout.validate(buf); err != nil {
		return nil, err
	}

	c := &Container{Layout: layout, buf: buf, logger: logger, tailOpts: o.tail, loc: locator.New(logger)}

	for i := 0; i < SlotCount; i++ {
		start := layout.SlotDataOffset(i)
		data := buf[start : start+SlotDataSize : start+SlotDataSize]

		version := binary.LittleEndian.Uint32(data)
		if version == 0 {
			logger.Debug("decode.slot", slog.Int("slot", i), slog.String("state", "empty"))
			continue
		}

		slot, err := decodeSlot(i, data, start, c.tailOpts, c.loc, logger)
		if err != nil {
			c.slotErrs[i] = err
			logger.Warn("decode.slot_failed", slog.Int("slot", i), slog.String("error", err.Error()))
			continue
		}
		c.slots[i] = slot
		logger.Debug("decode.slot",
			slog.Int("slot", i),
			slog.Uint64("version", uint64(slot.Version)),
			slog.String("name", slot.Name()),
			slog.Int("items_bytes", slot.Offsets.Player-slot.Offsets.Items),
			slog.Int("tail_hint", slot.Offsets.TailHint),
		)
	}

	cstart := layout.CommonDataOffset()
	common, err := decodeCommon(buf[cstart:cstart+CommonDataSize:cstart+CommonDataSize], cstart)
	if err != nil {
		c.commonErr = err
		logger.Warn("decode.common_failed", slog.String("error", err.Error()))
	}
	c.common = common

	return c, nil
}

// Slot returns slot i, or nil when it is empty or failed to decode
func (c *Container) Slot(i int) *Slot {
	if i < 0 || i >= SlotCount {
		return nil
	}
	return c.slots[i]
}

// SlotError returns the decode error of slot i, if any
func (c *Container) SlotError(i int) error {
	if i < 0 || i >= SlotCount {
		return nil
	}
	return c.slotErrs[i]
}

// SlotErrors returns every recorded slot decode error, indexed by slot
func (c *Container) SlotErrors() map[int]error {
	out := map[int]error{}
	for i, err := range c.slotErrs {
		if err != nil {
			out[i] = err
		}
	}
	return out
}

// Common returns the shared section. It is nil when it failed to decode.
func (c *Container) Common() *CommonSection { return c.common }

// CommonError returns the common section decode error, if any
func (c *Container) CommonError() error { return c.commonErr }

// ActiveSlotIndices lists slots holding a decoded character
func (c *Container) ActiveSlotIndices() []int {
	var out []int
	for i, s := range c.slots {
		if s != nil {
			out = append(out, i)
		}
	}
	return out
}

// Len is the total container length
func (c *Container) Len() int { return len(c.buf) }

// Header returns a copy of the header bytes
func (c *Container) Header() []byte {
	return append([]byte(nil), c.buf[:c.Layout.HeaderSize]...)
}

// Regulation returns a copy of the opaque regulation tail
func (c *Container) Regulation() []byte {
	return append([]byte(nil), c.buf[c.Layout.RegulationOffset():]...)
}

// SlotData returns a read-only view of slot i's data region, decoded or not.
func (c *Container) SlotData(i int) []byte {
	start := c.Layout.SlotDataOffset(i)
	return c.buf[start : start+SlotDataSize : start+SlotDataSize]
}

// CommonData returns a read-only view of the common section's data region.
func (c *Container) CommonData() []byte {
	start := c.Layout.CommonDataOffset()
	return c.buf[start : start+CommonDataSize : start+CommonDataSize]
}

// SlotChecksum returns the digest stored in front of slot i
func (c *Container) SlotChecksum(i int) [ChecksumSize]byte {
	var sum [ChecksumSize]byte
	if c.Layout.HasChecksums() {
		copy(sum[:], c.buf[c.Layout.SlotOffset(i):])
	}
	return sum
}

// SetSlotChecksum stores the digest in front of slot i
func (c *Container) SetSlotChecksum(i int, sum [ChecksumSize]byte) {
	if c.Layout.HasChecksums() {
		copy(c.buf[c.Layout.SlotOffset(i):], sum[:])
	}
}

// CommonChecksum returns the digest stored in front of the common section
func (c *Container) CommonChecksum() [ChecksumSize]byte {
	var sum [ChecksumSize]byte
	if c.Layout.HasChecksums() {
		copy(sum[:], c.buf[c.Layout.CommonOffset():])
	}
	return sum
}

// SetCommonChecksum stores the digest in front of the common section
func (c *Container) SetCommonChecksum(sum [ChecksumSize]byte) {
	if c.Layout.HasChecksums() {
		copy(c.buf[c.Layout.CommonOffset():], sum[:])
	}
}

// RestoreSlotData overwrites slot i's data region with data and decodes it again.
func (c *Container) RestoreSlotData(i int, data []byte) error {
	if i < 0 || i >= SlotCount {
		return errors.Errorf("slot index %d out of range", i)
	}
	if len(data) != SlotDataSize {
		return errors.Errorf("slot data must be 0x%X bytes, got 0x%X", SlotDataSize, len(data))
	}
	copy(c.SlotData(i), data)

	c.slots[i], c.slotErrs[i] = nil, nil
	if binary.LittleEndian.Uint32(data) == 0 {
		return nil
	}
	slot, err := decodeSlot(i, c.SlotData(i), c.Layout.SlotDataOffset(i), c.tailOpts, c.loc, c.logger)
	if err != nil {
		c.slotErrs[i] = err
		return err
	}
	c.slots[i] = slot
	return nil
}

// Flush writes every decoded structure back into the buffer.
func (c *Container) Flush() error {
	for _, s := range c.slots {
		if s == nil {
			continue
		}
		if err := s.Encode(); err != nil {
			return err
		}
	}
	if c.common != nil {
		if err := c.common.encode(); err != nil {
			return &DecodeError{Slot: CommonSlot, Structure: "encode CommonSection", Offset: c.common.base, Err: err}
		}
	}
	return nil
}

// Encode flushes the decoded structures and returns a copy of the container
// bytes. Unmodified containers encode to exactly the bytes they were decoded from.
func (c *Container) Encode() ([]byte, error) {
	if err := c.Flush(); err != nil {
		return nil, errors.Wrap(err, "encode container")
	}
	out := make([]byte, len(c.buf))
	copy(out, c.buf)
	return out, nil
}
