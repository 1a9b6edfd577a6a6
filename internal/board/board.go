// Package board is the ordered-board state engine. It translates one drag
// gesture into the minimal mutation the durable store needs, and hands the
// caller the optimistic arrangement to show while that request is in flight.
//
// The engine is stateless across calls: every resolution works against the
// move collection it is handed and nothing else. Two overlapping drags on
// the same lane therefore race at the collection level; the engine will not
// crash on the second drop, but the final ordering under such a race is
// unspecified. That limitation is deliberate.
package board

import (
	"fmt"

	"github.com/kendrickhart/moveboard/internal/move"
)

// DragOperation describes one completed drag gesture: where the item was
// picked up and where it was let go. It lives only for one resolution.
type DragOperation struct {
	MoveID   int64
	SrcLane  move.Lane
	SrcIndex int
	DstLane  move.Lane
	DstIndex int
}

// DropResult is what one resolved drop tells the caller: whether anything
// changed, the moved item with its new lane and position, and the reindexed
// lane views to render optimistically while the patch request is outstanding.
type DropResult struct {
	Changed bool

	Moved       move.Move
	NewLane     move.Lane
	NewPosition int

	// SrcView and DstView are the post-drop lane projections. For a
	// same-lane drop they are identical.
	SrcView []move.Move
	DstView []move.Move
}

// ResolveDrop computes the effect of op against the given collection.
//
// SrcIndex must address an item inside the source lane view, and that item
// must be the one the gesture picked up. DstIndex may equal the destination
// view length, which appends. Dropping an item exactly where it already sits
// is discarded: Changed is false and no mutation should be issued.
//
// The destination lane is reindexed densely (0,1,2,...) after insertion, so
// positions in a lane always form a strictly increasing gap-free sequence.
func ResolveDrop(moves []move.Move, op DragOperation) (DropResult, error) {
	if !op.SrcLane.OnBoard() || !op.DstLane.OnBoard() {
		return DropResult{}, fmt.Errorf("board: drop between %q and %q is not a board move", op.SrcLane, op.DstLane)
	}

	srcView := move.LaneView(moves, op.SrcLane)
	if op.SrcIndex < 0 || op.SrcIndex >= len(srcView) {
		return DropResult{}, fmt.Errorf("board: source index %d outside lane %s (len %d)", op.SrcIndex, op.SrcLane, len(srcView))
	}
	picked := srcView[op.SrcIndex]
	if picked.ID != op.MoveID {
		return DropResult{}, fmt.Errorf("board: item at %s[%d] is %d, gesture carried %d", op.SrcLane, op.SrcIndex, picked.ID, op.MoveID)
	}

	sameLane := op.SrcLane == op.DstLane
	if sameLane && op.SrcIndex == op.DstIndex {
		// Unchanged drop: no mutation, no network call.
		return DropResult{Changed: false, Moved: picked, NewLane: picked.Lane, NewPosition: picked.Position, SrcView: srcView, DstView: srcView}, nil
	}

	dstView := move.LaneView(moves, op.DstLane)
	if sameLane {
		dstView = removeAt(srcView, op.SrcIndex)
	}
	if op.DstIndex < 0 || op.DstIndex > len(dstView) {
		return DropResult{}, fmt.Errorf("board: destination index %d outside lane %s (len %d)", op.DstIndex, op.DstLane, len(dstView))
	}

	picked.Lane = op.DstLane
	dstView = insertAt(dstView, op.DstIndex, picked)

	// Dense reindex of the destination lane.
	for i := range dstView {
		dstView[i].Position = i
	}
	moved := dstView[op.DstIndex]

	result := DropResult{
		Changed:     true,
		Moved:       moved,
		NewLane:     moved.Lane,
		NewPosition: moved.Position,
		DstView:     dstView,
	}
	if sameLane {
		result.SrcView = dstView
	} else {
		src := removeAt(srcView, op.SrcIndex)
		for i := range src {
			src[i].Position = i
		}
		result.SrcView = src
	}
	return result, nil
}

// ApplyLocal rewrites the collection so it matches a resolved drop: every
// move in the result's lane views replaces its counterpart. This is the
// optimistic half of a drop; authoritative data from a later refetch always
// supersedes it.
func ApplyLocal(moves []move.Move, res DropResult) []move.Move {
	if !res.Changed {
		return moves
	}
	out := make([]move.Move, len(moves))
	copy(out, moves)
	for _, view := range [][]move.Move{res.SrcView, res.DstView} {
		for _, m := range view {
			if i := move.Find(out, m.ID); i >= 0 {
				out[i] = m
			}
		}
	}
	return out
}

func removeAt(view []move.Move, i int) []move.Move {
	out := make([]move.Move, 0, len(view)-1)
	out = append(out, view[:i]...)
	return append(out, view[i+1:]...)
}

func insertAt(view []move.Move, i int, m move.Move) []move.Move {
	out := make([]move.Move, 0, len(view)+1)
	out = append(out, view[:i]...)
	out = append(out, m)
	return append(out, view[i:]...)
}
