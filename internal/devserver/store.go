package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kendrickhart/moveboard/internal/move"
	"github.com/kendrickhart/moveboard/internal/moveapi"
)

// Store keeps the dev server's moves in memory and snapshots them to a JSON
// file after every mutation. It performs the server-side half of the
// ordering contract: a single (lane, position) patch for one move reindexes
// the affected lanes densely.
type Store struct {
	path string

	mu     sync.Mutex
	moves  map[int64]*move.Move
	nextID int64
}

// OpenStore loads the JSON snapshot at path, or starts empty when the file
// does not exist yet.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path, moves: make(map[int64]*move.Move), nextID: 1}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("devserver: read store: %w", err)
	}
	var loaded []move.Move
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("devserver: parse store: %w", err)
	}
	for _, m := range loaded {
		cp := m
		s.moves[m.ID] = &cp
		if m.ID >= s.nextID {
			s.nextID = m.ID + 1
		}
	}
	return s, nil
}

// List returns the moves, optionally restricted to one lane, ordered by
// lane then position.
func (s *Store) List(lane move.Lane) []move.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(lane)
}

// Create appends a new move to the draft's lane (backlog when unset).
func (s *Store) Create(d moveapi.Draft) (move.Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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
	m := &move.Move{
		ID:        s.nextID,
		Title:     d.Title,
		Notes:     d.Notes,
		ClientID:  d.ClientID,
		Lane:      lane,
		Effort:    effort,
		Drain:     d.Drain,
		Position:  len(s.laneIDs(lane)),
		CreatedAt: time.Now().UTC(),
	}
	s.nextID++
	s.moves[m.ID] = m
	if err := s.persist(); err != nil {
		return move.Move{}, err
	}
	return *m, nil
}

// Patch applies the set fields of p to one move. A lane or position change
// reinserts the move and reindexes every sibling in the lanes it touched.
func (s *Store) Patch(id int64, p moveapi.Patch) (move.Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.moves[id]
	if !ok {
		return move.Move{}, moveapi.ErrNotFound
	}
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return move.Move{}, &moveapi.ValidationError{Field: "title", Reason: "title is required"}
		}
		m.Title = *p.Title
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
	if p.Lane != nil || p.Position != nil {
		lane := m.Lane
		if p.Lane != nil {
			parsed, err := move.ParseLane(string(*p.Lane))
			if err != nil {
				return move.Move{}, &moveapi.ValidationError{Field: "lane", Reason: err.Error()}
			}
			lane = parsed
		}
		pos := m.Position
		if p.Position != nil {
			pos = *p.Position
		}
		s.place(m, lane, pos)
	}
	if err := s.persist(); err != nil {
		return move.Move{}, err
	}
	return *m, nil
}

// Complete transitions a move to done, which removes it from every lane.
func (s *Store) Complete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.moves[id]
	if !ok {
		return moveapi.ErrNotFound
	}
	old := m.Lane
	m.Lane = move.LaneDone
	s.reindex(old)
	return s.persist()
}

// place moves m into lane at position, clamped to the lane bounds, then
// densely reindexes the source and destination lanes.
func (s *Store) place(m *move.Move, lane move.Lane, pos int) {
	oldLane := m.Lane
	ids := s.laneIDs(lane)
	// Drop m from its current slot before reinserting.
	for i, id := range ids {
		if id == m.ID {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(ids) {
		pos = len(ids)
	}
	ids = append(ids[:pos], append([]int64{m.ID}, ids[pos:]...)...)
	m.Lane = lane
	for i, id := range ids {
		s.moves[id].Position = i
	}
	if oldLane != lane {
		s.reindex(oldLane)
	}
}

func (s *Store) reindex(lane move.Lane) {
	for i, id := range s.laneIDs(lane) {
		s.moves[id].Position = i
	}
}

// laneIDs returns the lane's move ids in position order.
func (s *Store) laneIDs(lane move.Lane) []int64 {
	var ids []int64
	for _, m := range s.moves {
		if m.Lane == lane {
			ids = append(ids, m.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.moves[ids[i]].Position < s.moves[ids[j]].Position
	})
	return ids
}

func (s *Store) snapshot(lane move.Lane) []move.Move {
	out := make([]move.Move, 0, len(s.moves))
	for _, m := range s.moves {
		if lane != "" && m.Lane != lane {
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
	return out
}

func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.snapshot(""), "", "  ")
	if err != nil {
		return fmt.Errorf("devserver: encode store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("devserver: write store: %w", err)
	}
	return nil
}
