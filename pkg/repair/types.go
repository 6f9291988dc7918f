package repair

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/ssargent/ersave/pkg/save"
)

// IssueKind names a known failure signature.
type IssueKind string

const (
	IssueMountStuckLoading IssueKind = "mount_stuck_loading"
	IssueDLCAreaStall      IssueKind = "dlc_area_stall"
	IssueSteamIDDesync     IssueKind = "steam_id_desync"
	IssueTimeDesync        IssueKind = "time_desync"
	IssueWeatherDesync     IssueKind = "weather_desync"
	IssueBaseVersionZeroed IssueKind = "base_version_zeroed"

	// KindTeleport marks an explicitly requested teleport. It is never detected.
	KindTeleport IssueKind = "teleport"
)

// AllIssues lists every detectable issue in application order.
func AllIssues() []IssueKind {
	return []IssueKind{
		IssueMountStuckLoading,
		IssueSteamIDDesync,
		IssueTimeDesync,
		IssueWeatherDesync,
		IssueBaseVersionZeroed,
		IssueDLCAreaStall,
	}
}

// ParseIssueKind accepts the names printed by String
func ParseIssueKind(s string) (IssueKind, error) {
	for _, k := range AllIssues() {
		if string(k) == strings.ToLower(strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", errors.Errorf("unknown issue %q", s)
}

func (k IssueKind) String() string { return string(k) }

// Describe returns a sentence for people reading a report.
func (k IssueKind) Describe() string {
	switch k {
	case IssueMountStuckLoading:
		return "Torrent has 0 HP while flagged active (infinite loading screen)"
	case IssueDLCAreaStall:
		return "character is in a DLC area (infinite loading without the DLC)"
	case IssueSteamIDDesync:
		return "slot SteamId is 0 (should be copied from the common section)"
	case IssueTimeDesync:
		return "area time is 00:00:00 (should match seconds played)"
	case IssueWeatherDesync:
		return "weather area id is 0 (should match the map id area)"
	case IssueBaseVersionZeroed:
		return "base version is 0 (should be a known game build)"
	case KindTeleport:
		return "teleport requested"
	}
	return string(k)
}

// Destination is a map id known to load safely.
type Destination struct {
	Name  string
	MapID save.MapID
}

// Supported teleport destinations.
var (
	Limgrave   = Destination{Name: "limgrave", MapID: save.MapLimgrave}
	Roundtable = Destination{Name: "roundtable", MapID: save.MapRoundtable}
)

// Destinations lists the supported teleport targets
func Destinations() []Destination { return []Destination{Limgrave, Roundtable} }

// ParseDestination resolves a destination by name.
func ParseDestination(name string) (Destination, error) {
	for _, d := range Destinations() {
		if d.Name == strings.ToLower(strings.TrimSpace(name)) {
			return d, nil
		}
	}
	return Destination{}, errors.Errorf("unknown teleport target: %s", name)
}

// RepairAction is one corrective write. It is reported for auditing only.
type RepairAction struct {
	Kind        IssueKind `json:"kind"`
	Slot        int       `json:"slot"`
	Offset      int       `json:"offset"` // absolute offset in the container
	Old         []byte    `json:"old"`
	New         []byte    `json:"new"`
	Description string    `json:"description"`
	Target      string    `json:"target,omitempty"` // destination name for teleports
}

// Token renders the action for one-line command output.
func (a RepairAction) Token() string {
	if a.Target != "" {
		return "teleport:" + a.Target
	}
	if a.Kind == IssueMountStuckLoading {
		return "torrent:" + a.Description
	}
	return "corruption:" + a.Description
}

func (a RepairAction) String() string {
	return fmt.Sprintf("slot %d %s at 0x%X: %s", a.Slot+1, a.Kind, a.Offset, a.Description)
}
