package devserver

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/kendrickhart/moveboard/internal/move"
	"github.com/kendrickhart/moveboard/internal/moveapi"
)

// startTestServer runs the dev server and returns the contract client
// pointed at it, so the two bindings are tested against each other.
func startTestServer(t *testing.T) moveapi.Client {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "moves.json"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	logger := log.New()
	logger.SetOutput(io.Discard)
	e := echo.New()
	Register(e, store, logger)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	client, err := moveapi.NewHTTP(srv.URL)
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	return client
}

func TestContractRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := startTestServer(t)

	created, err := client.CreateMove(ctx, moveapi.Draft{Title: "ship the board", Lane: move.LaneQueued, Effort: 3, Drain: move.DrainDeep})
	if err != nil {
		t.Fatalf("CreateMove: %v", err)
	}
	if created.ID == 0 || created.Lane != move.LaneQueued {
		t.Fatalf("created = %+v", created)
	}

	lane := move.LaneActive
	pos := 0
	patched, err := client.PatchMove(ctx, created.ID, moveapi.Patch{Lane: &lane, Position: &pos})
	if err != nil {
		t.Fatalf("PatchMove: %v", err)
	}
	if patched.Lane != move.LaneActive || patched.Position != 0 {
		t.Fatalf("patched = %+v, want (active,0)", patched)
	}

	moves, err := client.ListMoves(ctx, moveapi.Filter{Lane: move.LaneActive})
	if err != nil {
		t.Fatalf("ListMoves: %v", err)
	}
	if len(moves) != 1 || moves[0].ID != created.ID {
		t.Fatalf("active = %+v, want the patched move", moves)
	}

	if err := client.CompleteMove(ctx, created.ID); err != nil {
		t.Fatalf("CompleteMove: %v", err)
	}
	moves, err = client.ListMoves(ctx, moveapi.Filter{Lane: move.LaneActive})
	if err != nil {
		t.Fatalf("ListMoves after complete: %v", err)
	}
	if len(moves) != 0 {
		t.Fatalf("active after complete = %+v, want empty", moves)
	}
}

func TestContractErrorMapping(t *testing.T) {
	ctx := context.Background()
	client := startTestServer(t)

	if _, err := client.PatchMove(ctx, 42, moveapi.Patch{}); !errors.Is(err, moveapi.ErrNotFound) {
		t.Fatalf("patch unknown: err = %v, want ErrNotFound", err)
	}
	_, err := client.CreateMove(ctx, moveapi.Draft{})
	var verr *moveapi.ValidationError
	if !errors.As(err, &verr) || verr.Field != "title" {
		t.Fatalf("create without title: err = %v, want title ValidationError", err)
	}
}

func TestTriageEndpointReturnsRun(t *testing.T) {
	ctx := context.Background()
	client := startTestServer(t)
	if _, err := client.CreateMove(ctx, moveapi.Draft{Title: "  MESSY  ", Lane: move.LaneBacklog, Effort: 2, Drain: move.DrainEasy}); err != nil {
		t.Fatalf("CreateMove: %v", err)
	}

	run, err := client.RunTriage(ctx)
	if err != nil {
		t.Fatalf("RunTriage: %v", err)
	}
	promos, _ := moveapi.PartitionActions(run.Actions)
	if len(promos) == 0 {
		t.Fatal("expected the lone backlog move to be promoted")
	}
	if len(run.Candidates) != 1 || run.Candidates[0].Suggested != "Messy" {
		t.Fatalf("candidates = %+v, want one cleaned title", run.Candidates)
	}
}
