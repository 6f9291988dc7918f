// Package fixer is the repair-facing API: load a save, inspect its
// characters, repair one slot and write the result back atomically.
package fixer

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/ssargent/ersave/pkg/checksum"
	"github.com/ssargent/ersave/pkg/logging"
	"github.com/ssargent/ersave/pkg/repair"
	"github.com/ssargent/ersave/pkg/save"
	"github.com/ssargent/ersave/pkg/store"
)

// ErrSlotUnavailable is returned when a repair targets a slot that is empty
// or failed to decode.
var ErrSlotUnavailable = repair.ErrSlotUnavailable

// DefaultMaxFileSize rejects files far larger than any known save.
const DefaultMaxFileSize = 64 << 20

// Options configures a Fixer.
type Options struct {
	Logger      *slog.Logger
	Tail        save.TailOptions
	Repair      repair.Options
	MaxFileSize int64
}

// DefaultOptions returns the stock settings
func DefaultOptions() Options {
	return Options{
		Tail:        save.DefaultTailOptions(),
		Repair:      repair.DefaultOptions(),
		MaxFileSize: DefaultMaxFileSize,
	}
}

// Character is one line of a save listing.
type Character struct {
	Slot  int        `json:"slot"` // 0-based
	Name  string     `json:"name"`
	MapID save.MapID `json:"map_id"`
	Level uint32     `json:"level"`
}

// Fixer ties the codec, the rule engine and the checksum engine together.
type Fixer struct {
	repairs   *repair.Engine
	checksums *checksum.Engine
	tail      save.TailOptions
	maxSize   int64
	logger    *slog.Logger
}

// New creates a fixer. Zero fields in opts take their defaults.
func New(opts Options) *Fixer {
	if opts.Tail == (save.TailOptions{}) {
		opts.Tail = save.DefaultTailOptions()
	}
	if opts.MaxFileSize == 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	logger := logging.OrNop(opts.Logger)
	return &Fixer{
		repairs:   repair.NewEngine(opts.Repair, logger),
		checksums: checksum.New(logger),
		tail:      opts.Tail,
		maxSize:   opts.MaxFileSize,
		logger:    logger,
	}
}

// Engine returns the rule engine
func (f *Fixer) Engine() *repair.Engine { return f.repairs }

// Load reads and decodes the save at path. Slot decode failures are recorded
// on the container; only an unreadable or unrecognised file is an error.
func (f *Fixer) Load(path string) (*save.Container, error) {
	buf, err := store.ReadFile(store.FileReaderConfig{FilePath: path, MaxSize: f.maxSize})
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	c, err := f.Decode(buf)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return c, nil
}

// Decode decodes buf with the fixer's locator settings. It takes ownership of buf.
func (f *Fixer) Decode(buf []byte) (*save.Container, error) {
	return save.Decode(buf, save.WithLogger(f.logger), save.WithTailOptions(f.tail))
}

// Integrity reports every stored digest that does not match its data.
func (f *Fixer) Integrity(c *save.Container) []*save.IntegrityError {
	return f.checksums.Verify(c)
}

// ListCharacters returns the decoded characters in slot order. A slot whose
// own name is blank falls back to the profile summary, then to "Character N".
func (f *Fixer) ListCharacters(c *save.Container) []Character {
	out := []Character{}
	for _, i := range c.ActiveSlotIndices() {
		s := c.Slot(i)
		ch := Character{Slot: i, Name: s.Name(), MapID: s.MapID, Level: s.Player.Level}
		if common := c.Common(); common != nil {
			if ch.Name == "" {
				ch.Name = common.Profiles[i].Name
			}
			if ch.Level == 0 {
				ch.Level = common.Profiles[i].Level
			}
		}
		if ch.Name == "" {
			ch.Name = defaultName(i)
		}
		out = append(out, ch)
	}
	return out
}

// DetectIssues lists the issues present on slot, in application order.
func (f *Fixer) DetectIssues(c *save.Container, slot int) ([]repair.IssueKind, error) {
	r, err := f.repairs.Detect(c, slot)
	if err != nil {
		return nil, err
	}
	return r.Issues, nil
}

// Report is DetectIssues with the checks that could not run.
func (f *Fixer) Report(c *save.Container, slot int) (*repair.Report, error) {
	return f.repairs.Detect(c, slot)
}

// ApplyRepairs fixes issues on slot and optionally teleports the character.
// Checksums are not recalculated.
func (f *Fixer) ApplyRepairs(c *save.Container, slot int, issues []repair.IssueKind, teleport *repair.Destination) ([]repair.RepairAction, error) {
	return f.repairs.Apply(c, slot, issues, teleport)
}

// RecalculateChecksums refreshes every active slot digest and the common one.
func (f *Fixer) RecalculateChecksums(c *save.Container) error {
	return f.checksums.Recalculate(c)
}

// Save encodes c and atomically replaces path with the result.
func (f *Fixer) Save(c *save.Container, path string) error {
	buf, err := c.Encode()
	if err != nil {
		return err
	}
	if err := store.WriteFileAtomic(path, buf, 0); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	f.logger.Info("store.write", slog.String("path", path), slog.Int("bytes", len(buf)))
	return nil
}
