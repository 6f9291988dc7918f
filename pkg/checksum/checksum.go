// Package checksum maintains the MD5 integrity tags the game verifies on load.
// They guard against accidental corruption only and carry no security weight.
package checksum

import (
	"crypto/md5"
	"log/slog"

	"github.com/ssargent/ersave/pkg/logging"
	"github.com/ssargent/ersave/pkg/save"
)

// Engine recalculates and verifies container digests.
type Engine struct {
	logger *slog.Logger
}

// New creates an engine. A nil logger disables diagnostics.
func New(logger *slog.Logger) *Engine {
	return &Engine{logger: logging.OrNop(logger)}
}

// Sum digests a data region
func Sum(data []byte) [save.ChecksumSize]byte {
	return md5.Sum(data)
}

// Recalculate rewrites the digest of every active slot and of the common
// section from the bytes as they are. Only the digest fields are written, so
// edits made to decoded structures must be flushed first. Layouts without
// digests are left untouched.
func (e *Engine) Recalculate(c *save.Container) error {
	if !c.Layout.HasChecksums() {
		e.logger.Debug("checksum.skipped", slog.String("platform", c.Layout.Platform.String()))
		return nil
	}

	slots := c.ActiveSlotIndices()
	for _, i := range slots {
		c.SetSlotChecksum(i, Sum(c.SlotData(i)))
	}
	c.SetCommonChecksum(Sum(c.CommonData()))

	e.logger.Info("checksum.recalculated", slog.Int("slots", len(slots)))
	return nil
}

// Verify compares stored digests with the data. Mismatches are advisory.
// Slots that failed to decode are checked too, since a stale digest is the
// usual sign of an interrupted write.
func (e *Engine) Verify(c *save.Container) []*save.IntegrityError {
	if !c.Layout.HasChecksums() {
		return nil
	}

	var out []*save.IntegrityError
	for i := 0; i < save.SlotCount; i++ {
		if c.Slot(i) == nil && c.SlotError(i) == nil {
			continue
		}
		stored, computed := c.SlotChecksum(i), Sum(c.SlotData(i))
		if stored != computed {
			out = append(out, &save.IntegrityError{Slot: i, Stored: stored, Computed: computed})
		}
	}

	stored, computed := c.CommonChecksum(), Sum(c.CommonData())
	if stored != computed {
		out = append(out, &save.IntegrityError{Slot: save.CommonSlot, Stored: stored, Computed: computed})
	}

	for _, ierr := range out {
		e.logger.Warn("checksum.mismatch", slog.Int("slot", ierr.Slot), slog.String("error", ierr.Error()))
	}
	return out
}

// Recalculate uses a default engine
func Recalculate(c *save.Container) error { return New(nil).Recalculate(c) }

// Verify uses a default engine
func Verify(c *save.Container) []*save.IntegrityError { return New(nil).Verify(c) }
