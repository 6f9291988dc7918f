// Package repair detects known save corruption signatures and fixes them on
// the decoded model. Nothing here touches the disk.
package repair

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/ssargent/ersave/pkg/logging"
	"github.com/ssargent/ersave/pkg/save"
)

// ErrSlotUnavailable is returned for slots that are empty or failed to decode.
var ErrSlotUnavailable = errors.New("slot is empty or could not be decoded")

// DefaultKnownGoodBuild is written when the base version was zeroed.
const DefaultKnownGoodBuild = 150

// Options tune the rules.
type Options struct {
	KnownGoodBuild int32
	Destination    Destination // used by the DLC rule when no target is given
}

// DefaultOptions returns the stock repair settings
func DefaultOptions() Options {
	return Options{KnownGoodBuild: DefaultKnownGoodBuild, Destination: Limgrave}
}

// Report is the outcome of Detect for one slot.
type Report struct {
	Slot   int         `json:"slot"`
	Issues []IssueKind `json:"issues"`

	// Unavailable lists the checks skipped because the world tail was not found.
	Unavailable []IssueKind `json:"unavailable,omitempty"`
	TailErr     error       `json:"-"`
}

// Has reports whether kind was detected
func (r *Report) Has(kind IssueKind) bool {
	for _, k := range r.Issues {
		if k == kind {
			return true
		}
	}
	return false
}

// Engine runs a fixed rule set over container slots.
type Engine struct {
	rules  []Rule
	opts   Options
	logger *slog.Logger
}

// NewEngine creates an engine with the default rules.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if opts.KnownGoodBuild == 0 {
		opts.KnownGoodBuild = DefaultKnownGoodBuild
	}
	if opts.Destination.Name == "" {
		opts.Destination = Limgrave
	}
	return &Engine{rules: DefaultRules(), opts: opts, logger: logging.OrNop(logger)}
}

// Options returns the effective settings
func (e *Engine) Options() Options { return e.opts }

func (e *Engine) context(c *save.Container, slot int) (*Context, error) {
	if slot < 0 || slot >= save.SlotCount {
		return nil, errors.Errorf("slot %d out of range 1-%d", slot+1, save.SlotCount)
	}
	s := c.Slot(slot)
	if s == nil {
		if derr := c.SlotError(slot); derr != nil {
			return nil, errors.Wrapf(ErrSlotUnavailable, "slot %d: %v", slot+1, derr)
		}
		return nil, errors.Wrapf(ErrSlotUnavailable, "slot %d", slot+1)
	}

	ctx := &Context{Slot: s, Common: c.Common(), Options: e.opts}
	tail, err := s.WorldTail()
	if err != nil {
		e.logger.Warn("repair.tail_unavailable", slog.Int("slot", slot), slog.String("error", err.Error()))
		return ctx, err
	}
	ctx.Tail = tail
	return ctx, nil
}

// Detect evaluates every rule on slot. A missing world tail is not an error:
// the checks that need it are listed as unavailable instead.
func (e *Engine) Detect(c *save.Container, slot int) (*Report, error) {
	ctx, tailErr := e.context(c, slot)
	if ctx == nil {
		return nil, tailErr
	}

	r := &Report{Slot: slot, Issues: []IssueKind{}, TailErr: tailErr}
	for _, rule := range e.rules {
		if rule.NeedsTail() && ctx.Tail == nil {
			r.Unavailable = append(r.Unavailable, rule.Kind())
			continue
		}
		if rule.Detect(ctx) {
			r.Issues = append(r.Issues, rule.Kind())
		}
	}

	e.logger.Debug("repair.detect",
		slog.Int("slot", slot),
		slog.Int("issues", len(r.Issues)),
		slog.Int("unavailable", len(r.Unavailable)),
	)
	return r, nil
}

// Apply fixes the selected issues that are present on slot and, when dest is
// given, moves the character there even if no DLC issue was found. The
// changes are written into the container buffer; checksums are not updated.
func (e *Engine) Apply(c *save.Container, slot int, selected []IssueKind, dest *Destination) ([]RepairAction, error) {
	ctx, tailErr := e.context(c, slot)
	if ctx == nil {
		return nil, tailErr
	}
	ctx.Destination = dest

	want := make(map[IssueKind]bool, len(selected))
	for _, k := range selected {
		want[k] = true
	}
	for _, rule := range e.rules {
		if want[rule.Kind()] && rule.NeedsTail() && ctx.Tail == nil {
			return nil, errors.Wrapf(tailErr, "%s on slot %d needs the world tail", rule.Kind(), slot+1)
		}
	}

	actions := []RepairAction{}
	teleported := false
	for _, rule := range e.rules {
		if !want[rule.Kind()] || !rule.Detect(ctx) {
			continue
		}
		acts, err := rule.Apply(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "apply %s to slot %d", rule.Kind(), slot+1)
		}
		if rule.Kind() == IssueDLCAreaStall {
			teleported = true
		}
		actions = append(actions, acts...)
	}

	if dest != nil && !teleported {
		actions = append(actions, teleport(ctx, KindTeleport, *dest))
	}

	if err := ctx.Slot.Encode(); err != nil {
		return nil, errors.Wrapf(err, "write repairs to slot %d", slot+1)
	}

	for _, a := range actions {
		e.logger.Info("repair.action",
			slog.Int("slot", a.Slot),
			slog.String("kind", string(a.Kind)),
			slog.Int("offset", a.Offset),
			slog.String("description", a.Description),
		)
	}
	return actions, nil
}
