// Package triage owns the client half of the triage workflow: the selection
// over proposed title rewrites and the partial-tolerant batch that applies
// a chosen subset. The analysis that produces the proposals lives behind
// moveapi.Client; this package never second-guesses it.
package triage

import (
	"context"
	"sync"

	"github.com/kendrickhart/moveboard/internal/moveapi"
)

// Session is the transient state of one triage review. It owns the
// SelectionSet and AppliedSet exclusively; both die with the session and are
// reset whenever a newer run is installed.
type Session struct {
	token      int
	candidates []moveapi.RewriteCandidate
	run        moveapi.TriageRun
	loaded     bool

	selected map[int64]struct{}
	applied  map[int64]struct{}
}

// NewSession creates an empty session with no run installed.
func NewSession() *Session {
	return &Session{
		selected: make(map[int64]struct{}),
		applied:  make(map[int64]struct{}),
	}
}

// Begin reserves a token for an upcoming triage fetch. Tokens increase
// monotonically; a result that comes back carrying an older token than the
// latest Begin is stale and must be dropped.
func (s *Session) Begin() int {
	s.token++
	return s.token
}

// Token returns the most recently issued token.
func (s *Session) Token() int { return s.token }

// Install adopts a fetched run if its token is still current. Installing
// resets both the selection and the applied set: the new run supersedes
// everything the old one proposed. It reports whether the run was adopted.
func (s *Session) Install(token int, run moveapi.TriageRun) bool {
	if token != s.token {
		return false
	}
	s.run = run
	s.candidates = run.Candidates
	s.selected = make(map[int64]struct{})
	s.applied = make(map[int64]struct{})
	s.loaded = true
	return true
}

// Run returns the installed triage run, if any.
func (s *Session) Run() (moveapi.TriageRun, bool) {
	return s.run, s.loaded
}

// Toggle flips membership of id in the selection. Toggling twice restores
// the original set. Ids already applied cannot be re-selected.
func (s *Session) Toggle(id int64) {
	if _, done := s.applied[id]; done {
		return
	}
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
	} else {
		s.selected[id] = struct{}{}
	}
}

// IsSelected reports membership in the selection set.
func (s *Session) IsSelected(id int64) bool {
	_, ok := s.selected[id]
	return ok
}

// SelectedCount returns the size of the selection set.
func (s *Session) SelectedCount() int { return len(s.selected) }

// Pending returns the candidates still awaiting a decision: the installed
// list minus everything already applied this session. Recomputed on every
// call so an accepted rewrite disappears before any server refresh.
func (s *Session) Pending() []moveapi.RewriteCandidate {
	var out []moveapi.RewriteCandidate
	for _, c := range s.candidates {
		if _, done := s.applied[c.MoveID]; done {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Batch returns the selected subset of pending candidates, the unit
// ApplyBatch dispatches. An empty selection yields an empty batch and the
// caller issues nothing.
func (s *Session) Batch() []moveapi.RewriteCandidate {
	var out []moveapi.RewriteCandidate
	for _, c := range s.Pending() {
		if _, ok := s.selected[c.MoveID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// BatchResult records per-candidate outcomes of one apply batch. Outcomes
// are independent: a failed sibling never revokes a success.
type BatchResult struct {
	Succeeded []int64
	Failed    map[int64]error
}

// Commit folds a batch result into the session: succeeded ids move to the
// applied set and leave the selection; failed ids stay selected so the user
// can retry them.
func (s *Session) Commit(res BatchResult) {
	for _, id := range res.Succeeded {
		s.applied[id] = struct{}{}
		delete(s.selected, id)
	}
}

// Applied reports whether id has been accepted this session.
func (s *Session) Applied(id int64) bool {
	_, ok := s.applied[id]
	return ok
}

// AppliedCount returns the size of the applied set.
func (s *Session) AppliedCount() int { return len(s.applied) }

// ApplyBatch issues one title patch per candidate, all concurrently, and
// returns once every request has resolved. An empty batch issues nothing.
func ApplyBatch(ctx context.Context, client moveapi.Client, batch []moveapi.RewriteCandidate) BatchResult {
	res := BatchResult{Failed: make(map[int64]error)}
	if len(batch) == 0 {
		return res
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, c := range batch {
		wg.Add(1)
		go func(c moveapi.RewriteCandidate) {
			defer wg.Done()
			title := c.Suggested
			_, err := client.PatchMove(ctx, c.MoveID, moveapi.Patch{Title: &title})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed[c.MoveID] = err
				return
			}
			res.Succeeded = append(res.Succeeded, c.MoveID)
		}(c)
	}
	wg.Wait()
	return res
}

// ApplySelected dispatches the current batch and commits the outcome in one
// synchronous call. The TUI splits these steps so the commit happens on its
// event loop; direct callers and tests use this form.
func (s *Session) ApplySelected(ctx context.Context, client moveapi.Client) BatchResult {
	res := ApplyBatch(ctx, client, s.Batch())
	s.Commit(res)
	return res
}
