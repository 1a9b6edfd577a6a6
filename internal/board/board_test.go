package board

import (
	"testing"

	"github.com/kendrickhart/moveboard/internal/move"
)

func testMoves() []move.Move {
	return []move.Move{
		{ID: 1, Title: "A", Lane: move.LaneActive, Position: 0},
		{ID: 2, Title: "B", Lane: move.LaneActive, Position: 1},
		{ID: 3, Title: "C", Lane: move.LaneQueued, Position: 0},
		{ID: 4, Title: "D", Lane: move.LaneBacklog, Position: 0},
		{ID: 5, Title: "E", Lane: move.LaneBacklog, Position: 1},
	}
}

func laneIDs(view []move.Move) []int64 {
	ids := make([]int64, len(view))
	for i, m := range view {
		ids[i] = m.ID
	}
	return ids
}

func assertDense(t *testing.T, view []move.Move) {
	t.Helper()
	for i, m := range view {
		if m.Position != i {
			t.Fatalf("position at index %d is %d, want dense sequence", i, m.Position)
		}
	}
}

func TestResolveDropAcrossLanes(t *testing.T) {
	// active=[A,B], queued=[C]; drag B to queued index 0.
	moves := testMoves()
	res, err := ResolveDrop(moves, DragOperation{MoveID: 2, SrcLane: move.LaneActive, SrcIndex: 1, DstLane: move.LaneQueued, DstIndex: 0})
	if err != nil {
		t.Fatalf("ResolveDrop: %v", err)
	}
	if !res.Changed {
		t.Fatal("expected cross-lane drop to change state")
	}
	if res.NewLane != move.LaneQueued || res.NewPosition != 0 {
		t.Fatalf("moved item landed at (%s,%d), want (queued,0)", res.NewLane, res.NewPosition)
	}
	if got := laneIDs(res.DstView); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("queued view = %v, want [2 3]", got)
	}
	if got := laneIDs(res.SrcView); len(got) != 1 || got[0] != 1 {
		t.Fatalf("active view = %v, want [1]", got)
	}
	assertDense(t, res.SrcView)
	assertDense(t, res.DstView)

	after := ApplyLocal(moves, res)
	if got := laneIDs(move.LaneView(after, move.LaneActive)); len(got) != 1 || got[0] != 1 {
		t.Fatalf("active after apply = %v, want [1]", got)
	}
	queued := move.LaneView(after, move.LaneQueued)
	if got := laneIDs(queued); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("queued after apply = %v, want [2 3]", got)
	}
	if queued[0].Position != 0 || queued[1].Position != 1 {
		t.Fatalf("queued positions = %d,%d, want 0,1", queued[0].Position, queued[1].Position)
	}
}

func TestResolveDropSameSpotIsNoop(t *testing.T) {
	moves := testMoves()
	res, err := ResolveDrop(moves, DragOperation{MoveID: 2, SrcLane: move.LaneActive, SrcIndex: 1, DstLane: move.LaneActive, DstIndex: 1})
	if err != nil {
		t.Fatalf("ResolveDrop: %v", err)
	}
	if res.Changed {
		t.Fatal("dropping an item at its own position must not mutate")
	}
	if res.NewLane != move.LaneActive || res.NewPosition != 1 {
		t.Fatalf("no-op result reports (%s,%d), want item's current spot", res.NewLane, res.NewPosition)
	}
}

func TestResolveDropReorderWithinLane(t *testing.T) {
	moves := testMoves()
	// backlog=[D,E]; move D below E.
	res, err := ResolveDrop(moves, DragOperation{MoveID: 4, SrcLane: move.LaneBacklog, SrcIndex: 0, DstLane: move.LaneBacklog, DstIndex: 1})
	if err != nil {
		t.Fatalf("ResolveDrop: %v", err)
	}
	if got := laneIDs(res.DstView); len(got) != 2 || got[0] != 5 || got[1] != 4 {
		t.Fatalf("backlog view = %v, want [5 4]", got)
	}
	assertDense(t, res.DstView)
}

func TestResolveDropAppendsAtInclusiveUpperBound(t *testing.T) {
	moves := testMoves()
	// queued has one item; index 1 appends.
	res, err := ResolveDrop(moves, DragOperation{MoveID: 1, SrcLane: move.LaneActive, SrcIndex: 0, DstLane: move.LaneQueued, DstIndex: 1})
	if err != nil {
		t.Fatalf("ResolveDrop: %v", err)
	}
	if got := laneIDs(res.DstView); len(got) != 2 || got[1] != 1 {
		t.Fatalf("queued view = %v, want item 1 appended", got)
	}
}

func TestResolveDropPreservesSiblingOrder(t *testing.T) {
	moves := []move.Move{
		{ID: 10, Lane: move.LaneBacklog, Position: 0},
		{ID: 11, Lane: move.LaneBacklog, Position: 1},
		{ID: 12, Lane: move.LaneBacklog, Position: 2},
		{ID: 13, Lane: move.LaneBacklog, Position: 3},
	}
	res, err := ResolveDrop(moves, DragOperation{MoveID: 12, SrcLane: move.LaneBacklog, SrcIndex: 2, DstLane: move.LaneActive, DstIndex: 0})
	if err != nil {
		t.Fatalf("ResolveDrop: %v", err)
	}
	if got := laneIDs(res.SrcView); len(got) != 3 || got[0] != 10 || got[1] != 11 || got[2] != 13 {
		t.Fatalf("backlog siblings = %v, want [10 11 13] in original order", got)
	}
	assertDense(t, res.SrcView)
}

func TestResolveDropRejectsBadIndexes(t *testing.T) {
	tests := []struct {
		name string
		op   DragOperation
	}{
		{"source out of range", DragOperation{MoveID: 1, SrcLane: move.LaneActive, SrcIndex: 5, DstLane: move.LaneQueued, DstIndex: 0}},
		{"negative source", DragOperation{MoveID: 1, SrcLane: move.LaneActive, SrcIndex: -1, DstLane: move.LaneQueued, DstIndex: 0}},
		{"destination past append slot", DragOperation{MoveID: 1, SrcLane: move.LaneActive, SrcIndex: 0, DstLane: move.LaneQueued, DstIndex: 2}},
		{"wrong item at source", DragOperation{MoveID: 99, SrcLane: move.LaneActive, SrcIndex: 0, DstLane: move.LaneQueued, DstIndex: 0}},
		{"done is not a board lane", DragOperation{MoveID: 1, SrcLane: move.LaneActive, SrcIndex: 0, DstLane: move.LaneDone, DstIndex: 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ResolveDrop(testMoves(), tc.op); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestApplyLocalIgnoresUnchangedResult(t *testing.T) {
	moves := testMoves()
	after := ApplyLocal(moves, DropResult{Changed: false})
	if len(after) != len(moves) {
		t.Fatalf("unchanged result altered collection length")
	}
	for i := range moves {
		if after[i] != moves[i] {
			t.Fatalf("unchanged result altered move %d", moves[i].ID)
		}
	}
}
