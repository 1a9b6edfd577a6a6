// Package move holds the domain model for board items: the Move itself,
// its lane, and the derived per-lane views the rest of the client reads.
package move

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Lane is one of the ordered pipeline lanes a move can sit in.
type Lane string

const (
	LaneActive  Lane = "active"
	LaneQueued  Lane = "queued"
	LaneBacklog Lane = "backlog"

	// LaneDone is terminal; a done move leaves every lane view.
	LaneDone Lane = "done"
)

// BoardLanes lists the lanes rendered on the board, left to right.
var BoardLanes = []Lane{LaneActive, LaneQueued, LaneBacklog}

// ParseLane validates a lane string coming off the wire.
func ParseLane(s string) (Lane, error) {
	switch l := Lane(strings.TrimSpace(strings.ToLower(s))); l {
	case LaneActive, LaneQueued, LaneBacklog, LaneDone:
		return l, nil
	default:
		return "", fmt.Errorf("move: unknown lane %q", s)
	}
}

// OnBoard reports whether the lane appears on the board at all.
func (l Lane) OnBoard() bool {
	return l == LaneActive || l == LaneQueued || l == LaneBacklog
}

// Drain tags the kind of energy a move costs.
type Drain string

const (
	DrainNone     Drain = ""
	DrainDeep     Drain = "deep"
	DrainComms    Drain = "comms"
	DrainAdmin    Drain = "admin"
	DrainCreative Drain = "creative"
	DrainEasy     Drain = "easy"
)

// ParseDrain validates a drain tag; the empty string means untagged.
func ParseDrain(s string) (Drain, error) {
	switch d := Drain(strings.TrimSpace(strings.ToLower(s))); d {
	case DrainNone, DrainDeep, DrainComms, DrainAdmin, DrainCreative, DrainEasy:
		return d, nil
	default:
		return "", fmt.Errorf("move: unknown drain %q", s)
	}
}

const (
	MinEffort = 1
	MaxEffort = 4
)

// Move is a single client work item.
type Move struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes,omitempty"`
	ClientID  int64     `json:"client_id,omitempty"`
	Client    string    `json:"client,omitempty"`
	Lane      Lane      `json:"lane"`
	Effort    int       `json:"effort"`
	Drain     Drain     `json:"drain,omitempty"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the invariants a move must satisfy before it is sent
// anywhere. Position is excluded: it only means something relative to a lane.
func (m Move) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("move: title is required")
	}
	if _, err := ParseLane(string(m.Lane)); err != nil {
		return err
	}
	if m.Effort < MinEffort || m.Effort > MaxEffort {
		return fmt.Errorf("move: effort %d outside %d..%d", m.Effort, MinEffort, MaxEffort)
	}
	if _, err := ParseDrain(string(m.Drain)); err != nil {
		return err
	}
	return nil
}

// LaneView returns the moves in the given lane ordered by position
// ascending. It is recomputed from the collection on every call and never
// cached: the collection is the single source of truth.
func LaneView(moves []Move, lane Lane) []Move {
	var view []Move
	for _, m := range moves {
		if m.Lane == lane {
			view = append(view, m)
		}
	}
	sort.SliceStable(view, func(i, j int) bool { return view[i].Position < view[j].Position })
	return view
}

// Views projects every board lane at once.
func Views(moves []Move) map[Lane][]Move {
	out := make(map[Lane][]Move, len(BoardLanes))
	for _, lane := range BoardLanes {
		out[lane] = LaneView(moves, lane)
	}
	return out
}

// Find returns the index of a move by id, or -1.
func Find(moves []Move, id int64) int {
	for i := range moves {
		if moves[i].ID == id {
			return i
		}
	}
	return -1
}
