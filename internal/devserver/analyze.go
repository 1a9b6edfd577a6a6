package devserver

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kendrickhart/moveboard/internal/move"
	"github.com/kendrickhart/moveboard/internal/moveapi"
)

// Lane watermarks the promotion pass fills toward. Stand-in values; the
// production analysis is its own service.
const (
	activeWatermark = 3
	queuedWatermark = 5
)

// runTriage applies the dev server's heuristic corrections directly to the
// store and returns the run the client contract promises: the auto-actions
// already durably applied, the rewrite proposals, and a health summary of
// the state after the corrections. Deterministic for a fixed store.
func runTriage(s *Store) (moveapi.TriageRun, error) {
	var run moveapi.TriageRun

	promote := func(from, to move.Lane) error {
		for {
			src := s.List(from)
			dst := s.List(to)
			if len(dst) >= watermark(to) || len(src) == 0 {
				return nil
			}
			head := src[0]
			lane := to
			pos := len(dst)
			if _, err := s.Patch(head.ID, moveapi.Patch{Lane: &lane, Position: &pos}); err != nil {
				return err
			}
			run.Actions = append(run.Actions, moveapi.AutoAction{
				Kind:   moveapi.ActionPromote,
				MoveID: head.ID,
				Detail: fmt.Sprintf("%q promoted %s → %s", head.Title, from, to),
			})
		}
	}
	if err := promote(move.LaneQueued, move.LaneActive); err != nil {
		return run, err
	}
	if err := promote(move.LaneBacklog, move.LaneQueued); err != nil {
		return run, err
	}

	for _, m := range s.List("") {
		if !m.Lane.OnBoard() {
			continue
		}
		if m.Effort < move.MinEffort {
			effort := 2
			if _, err := s.Patch(m.ID, moveapi.Patch{Effort: &effort}); err != nil {
				return run, err
			}
			run.Actions = append(run.Actions, moveapi.AutoAction{
				Kind:   moveapi.ActionFillField,
				MoveID: m.ID,
				Detail: fmt.Sprintf("%q effort defaulted to %d", m.Title, effort),
			})
		}
		if m.Drain == move.DrainNone {
			drain := move.DrainAdmin
			if _, err := s.Patch(m.ID, moveapi.Patch{Drain: &drain}); err != nil {
				return run, err
			}
			run.Actions = append(run.Actions, moveapi.AutoAction{
				Kind:   moveapi.ActionFillField,
				MoveID: m.ID,
				Detail: fmt.Sprintf("%q drain defaulted to %s", m.Title, drain),
			})
		}
	}

	current := s.List("")
	for _, m := range current {
		if !m.Lane.OnBoard() {
			continue
		}
		if suggested := rewriteTitle(m.Title); suggested != m.Title {
			run.Candidates = append(run.Candidates, moveapi.RewriteCandidate{
				MoveID:    m.ID,
				Original:  m.Title,
				Client:    m.Client,
				Suggested: suggested,
			})
		}
	}

	run.Health = summarize(current)
	return run, nil
}

func watermark(lane move.Lane) int {
	if lane == move.LaneActive {
		return activeWatermark
	}
	return queuedWatermark
}

// rewriteTitle proposes a cleaned title: trimmed, inner whitespace
// collapsed, and shouting case folded down. Returns the input unchanged
// when nothing applies.
func rewriteTitle(title string) string {
	out := strings.Join(strings.Fields(title), " ")
	if out == "" {
		// A blank title has no usable rewrite to propose.
		return title
	}
	if isShouting(out) {
		lower := strings.ToLower(out)
		r := []rune(lower)
		r[0] = unicode.ToUpper(r[0])
		out = string(r)
	}
	return out
}

func isShouting(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

func summarize(moves []move.Move) moveapi.HealthSummary {
	h := moveapi.HealthSummary{PerLane: make(map[move.Lane]int)}
	for _, m := range moves {
		if !m.Lane.OnBoard() {
			continue
		}
		h.PerLane[m.Lane]++
		if m.Effort < move.MinEffort {
			h.MissingEffort++
		}
		if m.Drain == move.DrainNone {
			h.MissingDrain++
		}
	}
	return h
}
