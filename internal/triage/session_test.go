package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/kendrickhart/moveboard/internal/move"
	"github.com/kendrickhart/moveboard/internal/moveapi"
	"github.com/kendrickhart/moveboard/internal/moveapi/memapi"
)

func sessionWithCandidates(t *testing.T, ids ...int64) *Session {
	t.Helper()
	s := NewSession()
	run := moveapi.TriageRun{}
	for _, id := range ids {
		run.Candidates = append(run.Candidates, moveapi.RewriteCandidate{
			MoveID: id, Original: "old", Suggested: "new",
		})
	}
	if !s.Install(s.Begin(), run) {
		t.Fatal("install with current token must succeed")
	}
	return s
}

func TestToggleIsItsOwnInverse(t *testing.T) {
	s := sessionWithCandidates(t, 1, 2)
	s.Toggle(1)
	if !s.IsSelected(1) {
		t.Fatal("toggle must select")
	}
	s.Toggle(1)
	if s.IsSelected(1) || s.SelectedCount() != 0 {
		t.Fatal("second toggle must restore the original set")
	}
}

func TestApplyEmptySelectionIssuesNothing(t *testing.T) {
	s := sessionWithCandidates(t, 1)
	calls := 0
	client := &countingClient{onPatch: func() { calls++ }}
	res := s.ApplySelected(context.Background(), client)
	if calls != 0 {
		t.Fatalf("empty selection issued %d requests, want 0", calls)
	}
	if len(res.Succeeded) != 0 || s.AppliedCount() != 0 {
		t.Fatal("empty apply must leave the applied set unchanged")
	}
}

func TestApplySelectedMovesIdsAndFiltersCandidates(t *testing.T) {
	api := memapi.New()
	api.Seed(
		move.Move{ID: 1, Title: "a", Lane: move.LaneActive, Effort: 2},
		move.Move{ID: 3, Title: "c", Lane: move.LaneQueued, Effort: 2},
		move.Move{ID: 5, Title: "e", Lane: move.LaneBacklog, Effort: 2},
	)
	s := sessionWithCandidates(t, 1, 3, 5)
	s.Toggle(1)
	s.Toggle(3)

	res := s.ApplySelected(context.Background(), api)
	if len(res.Succeeded) != 2 || len(res.Failed) != 0 {
		t.Fatalf("result = %+v, want ids 1 and 3 succeeded", res)
	}
	if s.SelectedCount() != 0 {
		t.Fatal("selection must be empty after a fully successful apply")
	}
	if !s.Applied(1) || !s.Applied(3) {
		t.Fatal("applied set must contain the accepted ids")
	}
	pending := s.Pending()
	if len(pending) != 1 || pending[0].MoveID != 5 {
		t.Fatalf("pending = %+v, want only the unselected candidate", pending)
	}

	// Titles actually landed.
	got, err := api.PatchMove(context.Background(), 1, moveapi.Patch{})
	if err != nil {
		t.Fatalf("PatchMove: %v", err)
	}
	if got.Title != "new" {
		t.Fatalf("title = %q, want the suggested rewrite", got.Title)
	}
}

func TestApplyIsPartialTolerant(t *testing.T) {
	api := memapi.New()
	api.Seed(
		move.Move{ID: 1, Title: "a", Lane: move.LaneActive, Effort: 2},
		move.Move{ID: 2, Title: "b", Lane: move.LaneActive, Effort: 2},
	)
	api.FailPatch = map[int64]error{2: moveapi.ErrNotFound}

	s := sessionWithCandidates(t, 1, 2)
	s.Toggle(1)
	s.Toggle(2)
	res := s.ApplySelected(context.Background(), api)

	if len(res.Succeeded) != 1 || res.Succeeded[0] != 1 {
		t.Fatalf("succeeded = %v, want [1]", res.Succeeded)
	}
	if !errors.Is(res.Failed[2], moveapi.ErrNotFound) {
		t.Fatalf("failed[2] = %v, want ErrNotFound", res.Failed[2])
	}
	if !s.Applied(1) {
		t.Fatal("sibling failure must not revoke a success")
	}
	if !s.IsSelected(2) {
		t.Fatal("failed id must stay selected for retry")
	}
}

func TestStaleRunIsDropped(t *testing.T) {
	s := NewSession()
	stale := s.Begin()
	fresh := s.Begin()
	if s.Install(stale, moveapi.TriageRun{Candidates: []moveapi.RewriteCandidate{{MoveID: 9}}}) {
		t.Fatal("stale token must be rejected")
	}
	if !s.Install(fresh, moveapi.TriageRun{Candidates: []moveapi.RewriteCandidate{{MoveID: 1}}}) {
		t.Fatal("current token must be accepted")
	}
	if got := s.Pending(); len(got) != 1 || got[0].MoveID != 1 {
		t.Fatalf("pending = %+v, want only the fresh run's candidate", got)
	}
}

func TestRefreshResetsBothSets(t *testing.T) {
	s := sessionWithCandidates(t, 1, 2)
	s.Toggle(1)
	s.Commit(BatchResult{Succeeded: []int64{2}})
	if !s.Install(s.Begin(), moveapi.TriageRun{}) {
		t.Fatal("install must succeed")
	}
	if s.SelectedCount() != 0 || s.AppliedCount() != 0 {
		t.Fatal("a new run must reset selection and applied sets")
	}
}

// countingClient satisfies moveapi.Client for request-count assertions.
type countingClient struct {
	onPatch func()
}

func (c *countingClient) ListMoves(context.Context, moveapi.Filter) ([]move.Move, error) {
	return nil, nil
}

func (c *countingClient) PatchMove(context.Context, int64, moveapi.Patch) (move.Move, error) {
	c.onPatch()
	return move.Move{}, nil
}

func (c *countingClient) CompleteMove(context.Context, int64) error { return nil }

func (c *countingClient) CreateMove(context.Context, moveapi.Draft) (move.Move, error) {
	return move.Move{}, nil
}

func (c *countingClient) RunTriage(context.Context) (moveapi.TriageRun, error) {
	return moveapi.TriageRun{}, nil
}
