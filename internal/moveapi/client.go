// Package moveapi defines the data-access contract the board client is
// written against, and its HTTP/JSON binding. The contract is deliberately
// small: list, patch, complete, create, and one side-effecting triage run.
package moveapi

import (
	"context"

	"github.com/kendrickhart/moveboard/internal/move"
)

// Filter narrows ListMoves. Zero value means everything.
type Filter struct {
	Lane move.Lane
}

// Patch carries the fields a PatchMove call wants changed. Nil pointers are
// left untouched server-side.
type Patch struct {
	Lane     *move.Lane  `json:"lane,omitempty"`
	Position *int        `json:"position,omitempty"`
	Title    *string     `json:"title,omitempty"`
	Notes    *string     `json:"notes,omitempty"`
	Effort   *int        `json:"effort,omitempty"`
	Drain    *move.Drain `json:"drain,omitempty"`
}

// Draft is the payload for CreateMove. Title is required; everything else
// defaults server-side.
type Draft struct {
	Title    string     `json:"title"`
	Notes    string     `json:"notes,omitempty"`
	ClientID int64      `json:"client_id,omitempty"`
	Lane     move.Lane  `json:"lane,omitempty"`
	Effort   int        `json:"effort,omitempty"`
	Drain    move.Drain `json:"drain,omitempty"`
}

// ActionKind partitions triage auto-actions for presentation.
type ActionKind string

const (
	ActionPromote   ActionKind = "promote"
	ActionFillField ActionKind = "fill_field"
)

// AutoAction is one correction a triage run already applied durably by the
// time RunTriage returned.
type AutoAction struct {
	Kind   ActionKind `json:"kind"`
	MoveID int64      `json:"move_id"`
	Detail string     `json:"detail"`
}

// RewriteCandidate is a proposed title replacement awaiting human approval.
type RewriteCandidate struct {
	MoveID    int64  `json:"move_id"`
	Original  string `json:"original"`
	Client    string `json:"client,omitempty"`
	Suggested string `json:"suggested"`
}

// HealthSummary is the pipeline overview a triage run reports.
type HealthSummary struct {
	PerLane       map[move.Lane]int `json:"per_lane"`
	MissingEffort int               `json:"missing_effort"`
	MissingDrain  int               `json:"missing_drain"`
}

// TriageRun is everything one triage run produced. Auto-actions are already
// applied; candidates wait for ApplySelected.
type TriageRun struct {
	Actions    []AutoAction       `json:"actions"`
	Candidates []RewriteCandidate `json:"candidates"`
	Health     HealthSummary      `json:"health"`
}

// PartitionActions splits auto-actions by kind for presentation. The split
// carries no state of its own; recompute it on every render.
func PartitionActions(actions []AutoAction) (promotions, fills []AutoAction) {
	for _, a := range actions {
		if a.Kind == ActionPromote {
			promotions = append(promotions, a)
		} else {
			fills = append(fills, a)
		}
	}
	return promotions, fills
}

// Client is the abstract store the core consumes. The HTTP binding below
// and memapi both satisfy it.
type Client interface {
	ListMoves(ctx context.Context, f Filter) ([]move.Move, error)
	PatchMove(ctx context.Context, id int64, p Patch) (move.Move, error)
	CompleteMove(ctx context.Context, id int64) error
	CreateMove(ctx context.Context, d Draft) (move.Move, error)
	RunTriage(ctx context.Context) (TriageRun, error)
}
