package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kendrickhart/moveboard/internal/move"
	"github.com/kendrickhart/moveboard/internal/moveapi"
)

// styles bundles the lipgloss styles for one theme.
type styles struct {
	header   lipgloss.Style
	laneName lipgloss.Style
	lane     lipgloss.Style
	laneHot  lipgloss.Style
	item     lipgloss.Style
	cursor   lipgloss.Style
	carried  lipgloss.Style
	muted    lipgloss.Style
	errText  lipgloss.Style
	okText   lipgloss.Style
	footer   lipgloss.Style
	panel    lipgloss.Style
}

func newStyles(dark bool) styles {
	accent := lipgloss.Color("#5B8DEF")
	warn := lipgloss.Color("#FF6B6B")
	good := lipgloss.Color("#4CAF50")
	text := lipgloss.Color("#222222")
	dim := lipgloss.Color("#777777")
	frame := lipgloss.Color("#BBBBBB")
	if dark {
		text = lipgloss.Color("#DDDDDD")
		dim = lipgloss.Color("#888888")
		frame = lipgloss.Color("#444444")
	}
	border := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(frame).Padding(0, 1)
	return styles{
		header:   lipgloss.NewStyle().Bold(true).Foreground(warn).MarginBottom(1),
		laneName: lipgloss.NewStyle().Bold(true).Foreground(accent),
		lane:     border,
		laneHot:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1),
		item:     lipgloss.NewStyle().Foreground(text),
		cursor:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		carried:  lipgloss.NewStyle().Bold(true).Foreground(good),
		muted:    lipgloss.NewStyle().Foreground(dim),
		errText:  lipgloss.NewStyle().Foreground(warn),
		okText:   lipgloss.NewStyle().Foreground(good),
		footer:   lipgloss.NewStyle().Foreground(dim).MarginTop(1),
		panel:    border,
	}
}

// View renders the current screen.
func (a *App) View() string {
	switch a.state {
	case stateTriage:
		return a.viewTriage()
	case stateNewMove:
		return a.viewBoard() + "\n" + a.viewForm()
	default:
		return a.viewBoard()
	}
}

func (a *App) viewBoard() string {
	title := "⧉ MOVEBOARD"
	if a.loading {
		title += a.styles.muted.Render("  · loading")
	}
	header := a.styles.header.Render(title)

	laneWidth := 30
	if a.width > 0 {
		if w := a.width/len(move.BoardLanes) - 4; w > 18 {
			laneWidth = w
		}
	}

	cols := make([]string, 0, len(move.BoardLanes))
	for i, lane := range move.BoardLanes {
		cols = append(cols, a.renderLane(lane, i, laneWidth))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	sections := []string{header, body}
	if tail := a.renderLogPanel(); tail != "" {
		sections = append(sections, tail)
	}
	help := "←/→ lanes · ↑/↓ rows · space grab/drop · x complete · n new · t triage · r refresh · q quit"
	footer := a.styles.footer.Render(a.statusMsg + "\n" + help)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderLane(lane move.Lane, laneIdx, width int) string {
	view := move.LaneView(a.moves, lane)
	hot := laneIdx == a.laneIdx

	name := fmt.Sprintf("%s (%d)", strings.ToUpper(string(lane)), len(view))
	lines := []string{a.styles.laneName.Render(name)}

	appendSlot := a.grabbed && hot && a.cursorLane() != a.grabOp.SrcLane
	rows := len(view)
	if appendSlot {
		rows++
	}
	if rows == 0 {
		lines = append(lines, a.styles.muted.Render("· empty ·"))
	}
	for i := 0; i < rows; i++ {
		atCursor := hot && i == a.rowIdx
		prefix := "  "
		if atCursor {
			prefix = a.styles.cursor.Render("> ")
		}
		if i >= len(view) {
			lines = append(lines, prefix+a.styles.muted.Render("· drop here ·"))
			continue
		}
		m := view[i]
		label := m.Title
		if m.Drain != move.DrainNone {
			label += a.styles.muted.Render(fmt.Sprintf("  [%s·%d]", m.Drain, m.Effort))
		} else {
			label += a.styles.muted.Render(fmt.Sprintf("  [%d]", m.Effort))
		}
		style := a.styles.item
		if a.grabbed && m.ID == a.grabOp.MoveID {
			style = a.styles.carried
			label = "◆ " + label
		} else if atCursor {
			style = a.styles.cursor
		}
		lines = append(lines, prefix+style.Render(label))
	}

	box := a.styles.lane
	if hot {
		box = a.styles.laneHot
	}
	return box.Width(width).Render(strings.Join(lines, "\n"))
}

func (a *App) viewTriage() string {
	header := a.styles.header.Render("⧉ TRIAGE")
	var sections []string
	sections = append(sections, header)

	switch {
	case a.triageLoading:
		sections = append(sections, a.styles.muted.Render("Running triage..."))
	case a.triageErr != "":
		sections = append(sections,
			a.styles.errText.Render("Triage unavailable: "+a.triageErr),
			a.styles.muted.Render("r retry · esc back"))
	default:
		run, loaded := a.session.Run()
		if !loaded {
			sections = append(sections, a.styles.muted.Render("No triage run yet — r to start"))
			break
		}
		sections = append(sections, a.renderHealth(run.Health))
		sections = append(sections, a.renderActions(run.Actions))
		sections = append(sections, a.renderCandidates())
		status := a.statusMsg
		if a.applying {
			status = "Applying..."
		}
		help := "space select · a apply selected · r re-run · esc back"
		sections = append(sections, a.styles.footer.Render(status+"\n"+help))
	}
	return strings.Join(sections, "\n")
}

func (a *App) renderHealth(h moveapi.HealthSummary) string {
	parts := make([]string, 0, len(move.BoardLanes)+1)
	for _, lane := range move.BoardLanes {
		parts = append(parts, fmt.Sprintf("%s %d", lane, h.PerLane[lane]))
	}
	if h.MissingEffort+h.MissingDrain > 0 {
		parts = append(parts, a.styles.errText.Render(
			fmt.Sprintf("missing: %d effort, %d drain", h.MissingEffort, h.MissingDrain)))
	}
	return a.styles.panel.Render("Pipeline · " + strings.Join(parts, " · "))
}

// renderActions partitions the auto-actions for display. The partition is
// presentational only and recomputed on every render.
func (a *App) renderActions(actions []moveapi.AutoAction) string {
	promotions, fills := moveapi.PartitionActions(actions)
	if len(actions) == 0 {
		return a.styles.muted.Render("No automatic corrections this run")
	}
	var lines []string
	if len(promotions) > 0 {
		lines = append(lines, a.styles.laneName.Render(fmt.Sprintf("Promotions (%d)", len(promotions))))
		for _, act := range promotions {
			lines = append(lines, "  "+a.styles.okText.Render("↑ ")+act.Detail)
		}
	}
	if len(fills) > 0 {
		lines = append(lines, a.styles.laneName.Render(fmt.Sprintf("Backfills (%d)", len(fills))))
		for _, act := range fills {
			lines = append(lines, "  "+a.styles.muted.Render("+ ")+act.Detail)
		}
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderCandidates() string {
	pending := a.session.Pending()
	title := a.styles.laneName.Render(fmt.Sprintf("Rewrites (%d pending, %d selected, %d applied)",
		len(pending), a.session.SelectedCount(), a.session.AppliedCount()))
	if len(pending) == 0 {
		return title + "\n" + a.styles.muted.Render("  nothing pending")
	}
	lines := []string{title}
	for i, c := range pending {
		box := "[ ]"
		if a.session.IsSelected(c.MoveID) {
			box = a.styles.okText.Render("[x]")
		}
		prefix := "  "
		if i == a.triageCursor {
			prefix = a.styles.cursor.Render("> ")
		}
		who := ""
		if c.Client != "" {
			who = a.styles.muted.Render(" · " + c.Client)
		}
		lines = append(lines, fmt.Sprintf("%s%s %q → %q%s", prefix, box, c.Original, c.Suggested, who))
	}
	return strings.Join(lines, "\n")
}

func (a *App) viewForm() string {
	title := "Add move"
	if a.formErr != "" {
		title += " — " + a.styles.errText.Render(a.formErr)
	}
	return a.styles.panel.Render(title + "\n" + a.titleInput.View())
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines := a.logbook.Tail(4)
	if len(lines) == 0 {
		return ""
	}
	return a.styles.panel.Render(a.styles.muted.Render(strings.Join(lines, "\n")))
}
