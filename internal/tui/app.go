// Package tui is the terminal front end for the pipeline board. It follows
// the Elm architecture bubbletea imposes: one App model, an Update that
// folds messages into it, and a View that renders it. Every external call
// runs inside a tea.Cmd and comes back as a typed message; the model itself
// is only ever touched on the event loop.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kendrickhart/moveboard/internal/board"
	"github.com/kendrickhart/moveboard/internal/config"
	"github.com/kendrickhart/moveboard/internal/logbook"
	"github.com/kendrickhart/moveboard/internal/move"
	"github.com/kendrickhart/moveboard/internal/moveapi"
	"github.com/kendrickhart/moveboard/internal/triage"
)

// appState represents which screen is showing.
type appState int

const (
	stateBoard   appState = iota // lane columns, the main surface
	stateTriage                  // triage review dialog
	stateNewMove                 // inline create form
)

const (
	// reconcileDelay is how long after a transport failure the board waits
	// before the background refetch that squares local state with the store.
	reconcileDelay = 2 * time.Second

	requestTimeout = 10 * time.Second
)

// App is the whole application model.
type App struct {
	cfg     *config.Config
	client  moveapi.Client
	logbook *logbook.Logbook
	clock   func() time.Time

	state appState

	// Board state. moves is the last known collection, optimistically
	// rewritten on drop and superseded by every authoritative fetch.
	moves    []move.Move
	listSeq  int // token for list fetches; stale responses are dropped
	loading  bool
	laneIdx  int // cursor: index into move.BoardLanes
	rowIdx   int // cursor: index within the lane view
	grabbed  bool
	grabOp   board.DragOperation // source half, filled at grab time
	lastDrop *board.DropResult   // outcome of the last resolved drag, for feedback

	// Triage state.
	session       *triage.Session
	triageLoading bool
	triageErr     string
	triageCursor  int
	applying      bool

	// Create form.
	titleInput textinput.Model
	formErr    string

	statusMsg string
	width     int
	height    int
	styles    styles
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithClient swaps the data-access client.
func WithClient(c moveapi.Client) AppOption {
	return func(a *App) {
		if c != nil {
			a.client = c
		}
	}
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) AppOption {
	return func(a *App) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithLogbook attaches a session logbook.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) { a.logbook = lb }
}

// NewApp builds the application model around a config and a contract client.
func NewApp(cfg *config.Config, client moveapi.Client, opts ...AppOption) *App {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New move title..."
	ti.CharLimit = 200

	app := &App{
		cfg:        cfg,
		client:     client,
		clock:      time.Now,
		session:    triage.NewSession(),
		titleInput: ti,
		styles:     newStyles(cfg.DarkMode()),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app
}

// Messages. One struct per async outcome; each carries enough to decide
// whether it is still current.

type movesMsg struct {
	seq   int
	moves []move.Move
	err   error
}

type dropPatchedMsg struct {
	res board.DropResult
	err error
}

type completedMsg struct {
	id  int64
	err error
}

type createdMsg struct {
	created move.Move
	err     error
}

type triageMsg struct {
	token int
	run   moveapi.TriageRun
	err   error
}

type applyDoneMsg struct {
	token  int
	result triage.BatchResult
}

type reconcileTickMsg struct{}

// Init fetches the board and, at most once per calendar day, notes the
// briefing in the logbook. The briefing gate never blocks interaction: it
// is a config read plus an async save.
func (a *App) Init() tea.Cmd {
	now := a.clock()
	if a.cfg.ShouldBrief(now) {
		if err := a.cfg.MarkBriefed(now); err == nil {
			a.logInfo("Daily briefing · session %s", a.cfg.SessionID())
			a.statusMsg = fmt.Sprintf("Good morning — briefing for %s", now.Format("Mon Jan 2"))
		}
	}
	return a.fetchMoves()
}

// fetchMoves bumps the list token and requests the authoritative collection.
func (a *App) fetchMoves() tea.Cmd {
	a.listSeq++
	seq := a.listSeq
	a.loading = true
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		moves, err := client.ListMoves(ctx, moveapi.Filter{})
		return movesMsg{seq: seq, moves: moves, err: err}
	}
}

func (a *App) patchDrop(res board.DropResult) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		lane := res.NewLane
		pos := res.NewPosition
		_, err := client.PatchMove(ctx, res.Moved.ID, moveapi.Patch{Lane: &lane, Position: &pos})
		return dropPatchedMsg{res: res, err: err}
	}
}

func (a *App) completeMove(id int64) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return completedMsg{id: id, err: client.CompleteMove(ctx, id)}
	}
}

func (a *App) createMove(title string) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		created, err := client.CreateMove(ctx, moveapi.Draft{Title: title})
		return createdMsg{created: created, err: err}
	}
}

// refreshTriage reserves a token and starts a run. Responses carrying an
// older token than the latest refresh are dropped on arrival.
func (a *App) refreshTriage() tea.Cmd {
	token := a.session.Begin()
	a.triageLoading = true
	a.triageErr = ""
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		run, err := client.RunTriage(ctx)
		return triageMsg{token: token, run: run, err: err}
	}
}

func (a *App) applySelected() tea.Cmd {
	batch := a.session.Batch()
	if len(batch) == 0 {
		a.statusMsg = "Nothing selected"
		return nil
	}
	a.applying = true
	token := a.session.Token()
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return applyDoneMsg{token: token, result: triage.ApplyBatch(ctx, client, batch)}
	}
}

func scheduleReconcile() tea.Cmd {
	return tea.Tick(reconcileDelay, func(time.Time) tea.Msg { return reconcileTickMsg{} })
}

// Update folds one message into the model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case movesMsg:
		if msg.seq != a.listSeq {
			// A newer refresh has already been issued; this answer is stale.
			return a, nil
		}
		a.loading = false
		if msg.err != nil {
			a.statusMsg = "Load failed: " + shortErr(msg.err)
			a.logError("list moves: %v", msg.err)
			return a, nil
		}
		a.moves = msg.moves
		a.clampCursor()
		return a, nil

	case dropPatchedMsg:
		return a.handleDropPatched(msg)

	case completedMsg:
		if msg.err != nil {
			return a, a.flagAndReconcile("Complete failed", msg.err)
		}
		a.statusMsg = "Move completed"
		return a, a.fetchMoves()

	case createdMsg:
		return a.handleCreated(msg)

	case triageMsg:
		if msg.token != a.session.Token() {
			// A newer refresh has already been issued; success or failure,
			// this answer is for a superseded run.
			return a, nil
		}
		a.triageLoading = false
		if msg.err != nil {
			a.triageErr = shortErr(msg.err)
			a.logError("triage run: %v", msg.err)
			return a, nil
		}
		if !a.session.Install(msg.token, msg.run) {
			return a, nil
		}
		a.triageErr = ""
		a.triageCursor = 0
		a.logInfo("Triage · %d auto-actions, %d rewrite candidates", len(msg.run.Actions), len(msg.run.Candidates))
		// Auto-actions already changed lanes server-side; the cached board
		// is invalid either way.
		return a, a.fetchMoves()

	case applyDoneMsg:
		a.applying = false
		if msg.token != a.session.Token() {
			// A refresh installed a newer run while the batch was in
			// flight; its outcome belongs to the superseded run. The
			// patches did land server-side, so the board still refetches.
			return a, a.fetchMoves()
		}
		a.session.Commit(msg.result)
		if len(msg.result.Failed) > 0 {
			a.statusMsg = fmt.Sprintf("Applied %d, %d failed — failed stay selected", len(msg.result.Succeeded), len(msg.result.Failed))
		} else {
			a.statusMsg = fmt.Sprintf("Applied %d rewrite(s)", len(msg.result.Succeeded))
		}
		a.clampTriageCursor()
		return a, a.fetchMoves()

	case reconcileTickMsg:
		return a, a.fetchMoves()

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	if a.state == stateNewMove {
		var cmd tea.Cmd
		a.titleInput, cmd = a.titleInput.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleDropPatched(msg dropPatchedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		switch {
		case errors.Is(msg.err, moveapi.ErrNotFound):
			// The move vanished server-side; the refetch either drops it or
			// snaps it back to its authoritative spot.
			a.statusMsg = "Move disappeared — reloading board"
			a.logError("drop patch: %v", msg.err)
			return a, a.fetchMoves()
		default:
			return a, a.flagAndReconcile("Save failed", msg.err)
		}
	}
	a.statusMsg = fmt.Sprintf("Moved to %s #%d", msg.res.NewLane, msg.res.NewPosition+1)
	return a, a.fetchMoves()
}

func (a *App) handleCreated(msg createdMsg) (tea.Model, tea.Cmd) {
	var verr *moveapi.ValidationError
	if errors.As(msg.err, &verr) {
		// Surfaced inline, next to the control that caused it.
		a.formErr = verr.Reason
		return a, nil
	}
	if msg.err != nil {
		a.state = stateBoard
		return a, a.flagAndReconcile("Create failed", msg.err)
	}
	a.state = stateBoard
	a.titleInput.Blur()
	a.statusMsg = fmt.Sprintf("Created %q in %s", msg.created.Title, msg.created.Lane)
	a.logInfo("Created move %d (%q)", msg.created.ID, msg.created.Title)
	return a, a.fetchMoves()
}

// flagAndReconcile surfaces a transport-level failure and schedules the
// background refetch; the optimistic local state stays in place meanwhile.
func (a *App) flagAndReconcile(prefix string, err error) tea.Cmd {
	a.statusMsg = prefix + ": " + shortErr(err)
	a.logError("%s: %v", prefix, err)
	return scheduleReconcile()
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	switch a.state {
	case stateNewMove:
		return a.handleFormKey(msg)
	case stateTriage:
		return a.handleTriageKey(msg)
	default:
		return a.handleBoardKey(msg)
	}
}

func (a *App) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "left", "h":
		a.moveCursorLane(-1)
	case "right", "l":
		a.moveCursorLane(1)
	case "up", "k":
		a.moveCursorRow(-1)
	case "down", "j":
		a.moveCursorRow(1)
	case " ", "enter":
		return a.grabOrDrop()
	case "esc":
		if a.grabbed {
			a.grabbed = false
			a.statusMsg = "Grab cancelled"
		}
	case "x":
		if a.grabbed {
			return a, nil
		}
		if m, ok := a.cursorMove(); ok {
			a.statusMsg = fmt.Sprintf("Completing %q...", m.Title)
			return a, a.completeMove(m.ID)
		}
	case "n":
		a.state = stateNewMove
		a.formErr = ""
		a.titleInput.SetValue("")
		a.titleInput.Focus()
		return a, textinput.Blink
	case "t":
		a.state = stateTriage
		if _, loaded := a.session.Run(); !loaded && !a.triageLoading {
			return a, a.refreshTriage()
		}
	case "r":
		a.statusMsg = "Refreshing board..."
		return a, a.fetchMoves()
	case "D":
		_ = a.cfg.SetDarkMode(!a.cfg.DarkMode())
		a.styles = newStyles(a.cfg.DarkMode())
	}
	return a, nil
}

// grabOrDrop is the keyboard rendition of direct manipulation: first press
// picks the move under the cursor up, second press drops it at the cursor.
func (a *App) grabOrDrop() (tea.Model, tea.Cmd) {
	if !a.grabbed {
		m, ok := a.cursorMove()
		if !ok {
			return a, nil
		}
		a.grabbed = true
		a.grabOp = board.DragOperation{
			MoveID:   m.ID,
			SrcLane:  a.cursorLane(),
			SrcIndex: a.rowIdx,
		}
		a.statusMsg = fmt.Sprintf("Carrying %q — drop with space", m.Title)
		return a, nil
	}

	a.grabbed = false
	op := a.grabOp
	op.DstLane = a.cursorLane()
	op.DstIndex = a.rowIdx
	res, err := board.ResolveDrop(a.moves, op)
	if err != nil {
		a.statusMsg = "Drop rejected: " + shortErr(err)
		a.logError("resolve drop: %v", err)
		return a, nil
	}
	a.lastDrop = &res
	if !res.Changed {
		// Same spot: nothing to persist, nothing to redraw.
		a.statusMsg = "Already there"
		return a, nil
	}
	// Optimistic local arrangement first, then the durable patch.
	a.moves = board.ApplyLocal(a.moves, res)
	a.clampCursor()
	a.statusMsg = "Saving..."
	return a, a.patchDrop(res)
}

func (a *App) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := a.titleInput.Value()
		if title == "" {
			a.formErr = "title is required"
			return a, nil
		}
		a.formErr = ""
		return a, a.createMove(title)
	case "esc":
		a.state = stateBoard
		a.titleInput.Blur()
		return a, nil
	}
	var cmd tea.Cmd
	a.titleInput, cmd = a.titleInput.Update(msg)
	return a, cmd
}

func (a *App) handleTriageKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		a.state = stateBoard
		return a, nil
	case "up", "k":
		if a.triageCursor > 0 {
			a.triageCursor--
		}
	case "down", "j":
		if a.triageCursor < len(a.session.Pending())-1 {
			a.triageCursor++
		}
	case " ":
		pending := a.session.Pending()
		if a.triageCursor >= 0 && a.triageCursor < len(pending) {
			a.session.Toggle(pending[a.triageCursor].MoveID)
		}
	case "a", "enter":
		if a.applying {
			return a, nil
		}
		return a, a.applySelected()
	case "r":
		if !a.triageLoading {
			return a, a.refreshTriage()
		}
	}
	return a, nil
}

// Cursor helpers.

func (a *App) cursorLane() move.Lane {
	return move.BoardLanes[a.laneIdx]
}

func (a *App) cursorView() []move.Move {
	return move.LaneView(a.moves, a.cursorLane())
}

func (a *App) cursorMove() (move.Move, bool) {
	view := a.cursorView()
	if a.rowIdx < 0 || a.rowIdx >= len(view) {
		return move.Move{}, false
	}
	return view[a.rowIdx], true
}

func (a *App) moveCursorLane(delta int) {
	a.laneIdx += delta
	if a.laneIdx < 0 {
		a.laneIdx = 0
	}
	if a.laneIdx > len(move.BoardLanes)-1 {
		a.laneIdx = len(move.BoardLanes) - 1
	}
	a.clampCursor()
}

func (a *App) moveCursorRow(delta int) {
	a.rowIdx += delta
	a.clampCursor()
}

// clampCursor keeps the row inside the lane. While carrying a move toward a
// different lane the row may sit one past the last item: the append slot.
func (a *App) clampCursor() {
	max := len(a.cursorView()) - 1
	if a.grabbed && a.cursorLane() != a.grabOp.SrcLane {
		max++
	}
	if max < 0 {
		max = 0
	}
	if a.rowIdx > max {
		a.rowIdx = max
	}
	if a.rowIdx < 0 {
		a.rowIdx = 0
	}
}

func (a *App) clampTriageCursor() {
	if n := len(a.session.Pending()); a.triageCursor >= n {
		a.triageCursor = n - 1
	}
	if a.triageCursor < 0 {
		a.triageCursor = 0
	}
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook != nil {
		a.logbook.Info(format, args...)
	}
}

func (a *App) logError(format string, args ...any) {
	if a.logbook != nil {
		a.logbook.Error(format, args...)
	}
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}
