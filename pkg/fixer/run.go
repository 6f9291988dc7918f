package fixer

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/ersave/pkg/journal"
	"github.com/ssargent/ersave/pkg/repair"
	"github.com/ssargent/ersave/pkg/save"
	"github.com/ssargent/ersave/pkg/store"
)

// NoChangesNeeded is the action token printed when a fix changed nothing.
const NoChangesNeeded = "no_changes_needed"

// Journal records repair runs. *journal.Journal implements it.
type Journal interface {
	Record(e journal.Entry, preImage []byte) (ksuid.KSUID, error)
}

// FixRequest describes one headless repair of one slot.
type FixRequest struct {
	Path         string
	Slot         int // 0-based
	Teleport     *repair.Destination
	Backup       bool
	BackupSuffix string
	DryRun       bool
}

// FixResult is what a fix did.
type FixResult struct {
	Slot    int
	Name    string
	Backup  string // backup path, empty when none was written
	Issues  []repair.IssueKind
	Actions []repair.RepairAction
	Run     ksuid.KSUID // ksuid.Nil when nothing was journaled
}

// Tokens renders the run for the one-line command output: the backup first,
// then one token per action, or NoChangesNeeded.
func (r *FixResult) Tokens() []string {
	var out []string
	if r.Backup != "" {
		out = append(out, "backup="+filepath.Base(r.Backup))
	}
	for _, a := range r.Actions {
		out = append(out, a.Token())
	}
	if len(out) == 0 {
		out = append(out, NoChangesNeeded)
	}
	return out
}

// Summary formats the result as "ok slot=N run=ID actions=a;b".
func (r *FixResult) Summary() string {
	run := "-"
	if r.Run != ksuid.Nil {
		run = r.Run.String()
	}
	return fmt.Sprintf("ok slot=%d run=%s actions=%s", r.Slot+1, run, strings.Join(r.Tokens(), ";"))
}

// Fix loads req.Path, repairs every detected issue on the slot, applies the
// teleport, recalculates checksums and saves. The backup is written before
// any change. When j is not nil and something changed, the run and the
// slot's original bytes are journaled.
func (f *Fixer) Fix(req FixRequest, j Journal) (*FixResult, error) {
	c, err := f.Load(req.Path)
	if err != nil {
		return nil, err
	}

	issues, err := f.DetectIssues(c, req.Slot)
	if err != nil {
		return nil, err
	}
	res := &FixResult{Slot: req.Slot, Name: c.Slot(req.Slot).Name(), Issues: issues}

	if req.Backup && !req.DryRun {
		if res.Backup, err = store.CreateBackup(req.Path, req.BackupSuffix); err != nil {
			return nil, err
		}
	}

	pre := append([]byte(nil), c.SlotData(req.Slot)...)

	if res.Actions, err = f.ApplyRepairs(c, req.Slot, issues, req.Teleport); err != nil {
		return nil, err
	}
	if err := f.RecalculateChecksums(c); err != nil {
		return nil, err
	}
	if req.DryRun {
		return res, nil
	}
	if err := f.Save(c, req.Path); err != nil {
		return nil, err
	}

	if j != nil && len(res.Actions) > 0 {
		abs, _ := filepath.Abs(req.Path)
		res.Run, err = j.Record(journal.Entry{
			SavePath: abs,
			Slot:     req.Slot,
			Name:     res.Name,
			Backup:   res.Backup,
			Actions:  res.Actions,
		}, pre)
		if err != nil {
			return nil, errors.Wrap(err, "record repair run")
		}
	}

	f.logger.Info("fix.done",
		slog.Int("slot", req.Slot),
		slog.Int("actions", len(res.Actions)),
		slog.String("run", res.Run.String()),
	)
	return res, nil
}

// History reads runs back for undo.
type History interface {
	Get(id ksuid.KSUID) (*journal.Entry, error)
	PreImage(id ksuid.KSUID) ([]byte, error)
}

// ErrSaveMismatch is returned by Undo when the run was recorded for another save file.
var ErrSaveMismatch = errors.New("run was recorded for a different save file")

// Undo writes the pre-repair bytes of run id back into its slot in path,
// recalculates checksums and saves. A run recorded for another file is
// refused unless force is set.
func (f *Fixer) Undo(path string, id ksuid.KSUID, h History, force bool) (*journal.Entry, error) {
	e, err := h.Get(id)
	if err != nil {
		return nil, err
	}
	if !force && e.SavePath != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, errors.Wrap(err, "resolve save path")
		}
		if filepath.Clean(e.SavePath) != abs {
			return nil, errors.Wrapf(ErrSaveMismatch, "run %s targets %s, not %s (use --force to apply anyway)", id, e.SavePath, abs)
		}
	}
	pre, err := h.PreImage(id)
	if err != nil {
		return nil, err
	}
	c, err := f.Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.RestoreSlotData(e.Slot, pre); err != nil {
		return nil, errors.Wrapf(err, "restore slot %d from run %s", e.Slot+1, id)
	}
	if err := f.RecalculateChecksums(c); err != nil {
		return nil, err
	}
	if err := f.Save(c, path); err != nil {
		return nil, err
	}
	f.logger.Info("fix.undone", slog.Int("slot", e.Slot), slog.String("run", id.String()))
	return e, nil
}

func defaultName(slot int) string {
	return fmt.Sprintf("Character %d", slot+1)
}

// ParseSlot accepts a 1-based slot number, or 0 for the first slot.
func ParseSlot(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Errorf("invalid slot %q", s)
	}
	switch {
	case n >= 1 && n <= save.SlotCount:
		return n - 1, nil
	case n == 0:
		return 0, nil
	}
	return 0, errors.Errorf("slot must be 1-%d, got %d", save.SlotCount, n)
}
