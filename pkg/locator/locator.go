// Package locator finds structures whose offset cannot be computed from the
// preceding fields by scanning a byte window and ranking plausible matches.
package locator

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ssargent/ersave/pkg/logging"
)

// ErrNotFound is returned when no position in the window passes the probe.
var ErrNotFound = errors.New("no candidate in search window")

// Tier orders candidates. Lower values win.
type Tier int

const (
	// TierPopulated means key fields are non-zero and consistent.
	TierPopulated Tier = iota + 1
	// TierZeroed is a consistent all-zero structure (a never-visited area).
	TierZeroed
	// TierImplausible passed the minimum predicate only.
	TierImplausible
)

func (t Tier) String() string {
	switch t {
	case TierPopulated:
		return "populated"
	case TierZeroed:
		return "zeroed"
	case TierImplausible:
		return "implausible"
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// Window is a half-open byte range [Start, End) of candidate positions.
// Hint, when non-zero, is the position the caller computed for the
// structure. A hint that passes the probe is chosen ahead of any ranking.
type Window struct {
	Start int
	End   int
	Hint  int
}

// Clamp limits the window to positions where size bytes fit inside a buffer of length n.
func (w Window) Clamp(n, size int) Window {
	if w.Start < 0 {
		w.Start = 0
	}
	if last := n - size + 1; w.End > last {
		w.End = last
	}
	if w.End < w.Start {
		w.End = w.Start
	}
	return w
}

// Len returns the number of positions in the window
func (w Window) Len() int { return w.End - w.Start }

// Candidate is a position accepted by a Probe.
type Candidate struct {
	Offset    int
	Tier      Tier
	Score     int // ranking inside TierPopulated, higher is better
	Populated int // secondary key inside TierPopulated, count of non-zero fields
	Quality   int // ranking inside TierZeroed, higher is better
}

// Probe evaluates the structure at offset. It reports false when the bytes
// fail the minimum predicate.
type Probe interface {
	Evaluate(buf []byte, offset int) (Candidate, bool)
	// Size is the number of bytes the probe reads starting at offset.
	Size() int
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc struct {
	N  int
	Fn func(buf []byte, offset int) (Candidate, bool)
}

// Evaluate calls Fn
func (p ProbeFunc) Evaluate(buf []byte, offset int) (Candidate, bool) { return p.Fn(buf, offset) }

// Size returns N
func (p ProbeFunc) Size() int { return p.N }

// Result holds the chosen candidate and the per-tier counts seen while scanning.
type Result struct {
	Candidate
	Counts map[Tier]int
}

// Locator scans windows with a probe and picks the best candidate.
type Locator struct {
	logger *slog.Logger
}

// New creates a locator. A nil logger discards diagnostics.
func New(logger *slog.Logger) *Locator {
	return &Locator{logger: logging.OrNop(logger)}
}

// Search evaluates every position in the window. It returns the hinted
// position when the probe accepts it, otherwise the best candidate of the
// best non-empty tier.
func (l *Locator) Search(buf []byte, w Window, p Probe) (Result, error) {
	w = w.Clamp(len(buf), p.Size())

	tiers := map[Tier][]Candidate{}
	var hinted *Candidate
	for off := w.Start; off < w.End; off++ {
		cand, ok := p.Evaluate(buf, off)
		if !ok {
			continue
		}
		cand.Offset = off
		tiers[cand.Tier] = append(tiers[cand.Tier], cand)
		if w.Hint > 0 && off == w.Hint {
			hinted = &cand
		}
	}

	counts := map[Tier]int{
		TierPopulated:   len(tiers[TierPopulated]),
		TierZeroed:      len(tiers[TierZeroed]),
		TierImplausible: len(tiers[TierImplausible]),
	}

	if hinted != nil {
		l.logger.Debug("locator.search",
			slog.Int("window_start", w.Start),
			slog.Int("window_end", w.End),
			slog.Int("populated", counts[TierPopulated]),
			slog.Int("zeroed", counts[TierZeroed]),
			slog.Int("implausible", counts[TierImplausible]),
			slog.String("tier", hinted.Tier.String()),
			slog.Int("offset", hinted.Offset),
			slog.Bool("hint", true),
		)
		return Result{Candidate: *hinted, Counts: counts}, nil
	}

	for _, tier := range []Tier{TierPopulated, TierZeroed, TierImplausible} {
		cands := tiers[tier]
		if len(cands) == 0 {
			continue
		}
		sort.SliceStable(cands, func(i, j int) bool { return better(cands[i], cands[j]) })
		best := cands[0]
		l.logger.Debug("locator.search",
			slog.Int("window_start", w.Start),
			slog.Int("window_end", w.End),
			slog.Int("populated", counts[TierPopulated]),
			slog.Int("zeroed", counts[TierZeroed]),
			slog.Int("implausible", counts[TierImplausible]),
			slog.String("tier", tier.String()),
			slog.Int("offset", best.Offset),
		)
		return Result{Candidate: best, Counts: counts}, nil
	}

	l.logger.Debug("locator.search",
		slog.Int("window_start", w.Start),
		slog.Int("window_end", w.End),
		slog.String("result", "not_found"),
	)
	return Result{Counts: counts}, ErrNotFound
}

// better reports whether a ranks ahead of b. Both are in the same tier.
func better(a, b Candidate) bool {
	switch a.Tier {
	case TierPopulated:
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Populated != b.Populated {
			return a.Populated > b.Populated
		}
	case TierZeroed:
		if a.Quality != b.Quality {
			return a.Quality > b.Quality
		}
	}
	return a.Offset < b.Offset
}
