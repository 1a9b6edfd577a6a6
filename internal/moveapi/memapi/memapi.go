// Package memapi provides an in-memory implementation of moveapi.Client.
// Suitable for tests and offline runs.
package memapi

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kendrickhart/moveboard/internal/move"
	"github.com/kendrickhart/moveboard/internal/moveapi"
)

// Client holds moves in memory behind the same contract and error taxonomy
// as the HTTP binding. Methods return copies.
type Client struct {
	mu     sync.RWMutex
	moves  map[int64]*move.Move
	nextID int64

	// Triage supplies the RunTriage result. Left nil, RunTriage reports
	// moveapi.ErrTriageUnavailable, which is also what tests want when they
	// exercise the failure path.
	Triage func(moves []move.Move) moveapi.TriageRun

	// FailPatch forces PatchMove for the given ids to fail, for exercising
	// partial batch outcomes.
	FailPatch map[int64]error
}

// New initializes an empty in-memory client.
func New() *Client {
	return &Client{moves: make(map[int64]*move.Move), nextID: 1}
}

// Seed inserts moves verbatim, keeping their ids, and bumps the id counter
// past the highest seen.
func (c *Client) Seed(moves ...move.Move) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range moves {
		cp := m
		c.moves[m.ID] = &cp
		if m.ID >= c.nextID {
			c.nextID = m.ID + 1
		}
	}
}

func (c *Client) ListMoves(_ context.Context, f moveapi.Filter) ([]move.Move, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]move.Move, 0, len(c.moves))
	for _, m := range c.moves {
		if f.Lane != "" && m.Lane != f.Lane {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Lane != out[j].Lane {
			return out[i].Lane < out[j].Lane
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (c *Client) PatchMove(_ context.Context, id int64, p moveapi.Patch) (move.Move, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.FailPatch[id]; ok {
		return move.Move{}, err
	}
	m, ok := c.moves[id]
	if !ok {
		return move.Move{}, moveapi.ErrNotFound
	}
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return move.Move{}, &moveapi.ValidationError{Field: "title", Reason: "title is required"}
		}
		m.Title = *p.Title
	}
	if p.Lane != nil {
		if _, err := move.ParseLane(string(*p.Lane)); err != nil {
			return move.Move{}, &moveapi.ValidationError{Field: "lane", Reason: err.Error()}
		}
		m.Lane = *p.Lane
	}
	if p.Position != nil {
		m.Position = *p.Position
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}
	if p.Effort != nil {
		if *p.Effort < move.MinEffort || *p.Effort > move.MaxEffort {
			return move.Move{}, &moveapi.ValidationError{Field: "effort", Reason: "effort outside 1..4"}
		}
		m.Effort = *p.Effort
	}
	if p.Drain != nil {
		if _, err := move.ParseDrain(string(*p.Drain)); err != nil {
			return move.Move{}, &moveapi.ValidationError{Field: "drain", Reason: err.Error()}
		}
		m.Drain = *p.Drain
	}
	return *m, nil
}

func (c *Client) CompleteMove(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.moves[id]
	if !ok {
		return moveapi.ErrNotFound
	}
	m.Lane = move.LaneDone
	return nil
}

func (c *Client) CreateMove(_ context.Context, d moveapi.Draft) (move.Move, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(d.Title) == "" {
		return move.Move{}, &moveapi.ValidationError{Field: "title", Reason: "title is required"}
	}
	lane := d.Lane
	if lane == "" {
		lane = move.LaneBacklog
	}
	if _, err := move.ParseLane(string(lane)); err != nil {
		return move.Move{}, &moveapi.ValidationError{Field: "lane", Reason: err.Error()}
	}
	effort := d.Effort
	if effort == 0 {
		effort = 2
	}
	if effort < move.MinEffort || effort > move.MaxEffort {
		return move.Move{}, &moveapi.ValidationError{Field: "effort", Reason: "effort outside 1..4"}
	}
	pos := 0
	for _, m := range c.moves {
		if m.Lane == lane && m.Position >= pos {
			pos = m.Position + 1
		}
	}
	m := move.Move{
		ID:        c.nextID,
		Title:     d.Title,
		Notes:     d.Notes,
		ClientID:  d.ClientID,
		Lane:      lane,
		Effort:    effort,
		Drain:     d.Drain,
		Position:  pos,
		CreatedAt: time.Now(),
	}
	c.nextID++
	cp := m
	c.moves[m.ID] = &cp
	return m, nil
}

func (c *Client) RunTriage(ctx context.Context) (moveapi.TriageRun, error) {
	if c.Triage == nil {
		return moveapi.TriageRun{}, moveapi.ErrTriageUnavailable
	}
	moves, err := c.ListMoves(ctx, moveapi.Filter{})
	if err != nil {
		return moveapi.TriageRun{}, err
	}
	return c.Triage(moves), nil
}
