package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/rowselect/internal/config"
	"github.com/jask/rowselect/internal/database/repository"
	"github.com/jask/rowselect/internal/prefs"
	"github.com/jask/rowselect/internal/rowmodel"
	"github.com/jask/rowselect/internal/selection"
	"github.com/jask/rowselect/internal/service"
)

// App is the grid view. All selection and storage calls run on the update
// loop, so the selection core is never touched from another goroutine.
type App struct {
	ctx       context.Context
	cfg       config.Config
	log       *slog.Logger
	model     *rowmodel.Model
	strategy  *selection.Strategy
	selection *service.SelectionService

	cursor   int
	offset   int
	pageSize int
	modal    modalState
	input    string
	status   string
	isErr    bool

	// listener bookkeeping
	pendingRows int
	lastChange  string
}

type Deps struct {
	Rows   *repository.RowRepo
	States *repository.GridStateRepo
	Log    *slog.Logger
}

type modalState string

const (
	modalNone modalState = ""
	modalJump modalState = "jump"
)

// New builds the grid for cfg.Selection.GridID and loads the first page in
// the remembered sort order.
func New(ctx context.Context, cfg config.Config, deps Deps) (*App, error) {
	log := deps.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	a := &App{
		ctx:      ctx,
		cfg:      cfg,
		log:      log,
		pageSize: max(cfg.UI.PageSize, 1),
	}
	gridID := cfg.Selection.GridID
	a.model = rowmodel.New(deps.Rows, gridID, cfg.UI.BlockSize, nil)
	a.strategy = selection.NewStrategy(a.model,
		selection.WithMode(cfg.SelectionMode()),
		selection.WithLogger(log),
		selection.WithListener(a),
	)
	a.model.SetOnLoad(func(n *rowmodel.Node) { a.strategy.ProcessNewRow(n) })
	a.selection = &service.SelectionService{
		GridID:   gridID,
		Rows:     deps.Rows,
		States:   deps.States,
		Model:    a.model,
		Strategy: a.strategy,
		Log:      log,
	}

	view, err := prefs.LoadView(gridID)
	if err != nil {
		log.Warn("view preferences unreadable, using position order", "err", err)
	}
	if err := a.model.SetOrder(ctx, rowmodel.Order{Column: view.Sort, Desc: view.Desc}); err != nil {
		return nil, err
	}
	if err := a.ensureWindow(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) Cursor() int                   { return a.cursor }
func (a *App) Model() *rowmodel.Model        { return a.model }
func (a *App) Strategy() *selection.Strategy { return a.strategy }
func (a *App) Status() string                { return a.status }

// RowSelectionChanged implements selection.Listener.
func (a *App) RowSelectionChanged(selection.Row, bool, selection.Source) {
	a.pendingRows++
}

// SelectionChanged implements selection.Listener.
func (a *App) SelectionChanged(source selection.Source) {
	a.lastChange = fmt.Sprintf("%s (%d rows)", source, a.pendingRows)
	a.pendingRows = 0
}

func (a *App) Init() tea.Cmd { return nil }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		// title, header, summary, status and help lines
		if rows := m.Height - 5; rows > 0 {
			a.pageSize = min(max(a.cfg.UI.PageSize, 1), rows)
			a.refreshWindow()
		}
	case tea.KeyMsg:
		if a.modal == modalJump {
			return a.handleJumpKey(m)
		}
		return a.handleGridKey(m)
	}
	return a, nil
}

func (a *App) handleGridKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "down", "j":
		a.move(1)
	case "up", "k":
		a.move(-1)
	case "shift+down":
		a.extend(1)
	case "shift+up":
		a.extend(-1)
	case " ":
		a.toggle()
	case "enter":
		if n, ok := a.current(); ok {
			a.setNodes(selection.SetNodesParams{
				Nodes: []selection.Row{n}, NewValue: true, ClearSelection: true, Source: selection.SourceRowClick,
			})
		}
	case "ctrl+a":
		a.strategy.SelectAllRowNodes(selection.SourceSelectAll)
	case "esc":
		a.strategy.DeselectAllRowNodes(selection.SourceKeyboard)
	case "d":
		a.deleteCurrent()
	case "o":
		a.cycleOrder()
	case "w":
		a.save()
	case "r":
		a.restore()
	case "/":
		a.modal = modalJump
		a.input = ""
	}
	return a, nil
}

func (a *App) handleJumpKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.Type {
	case tea.KeyCtrlC:
		return a, tea.Quit
	case tea.KeyEsc:
		a.modal = modalNone
		a.input = ""
	case tea.KeyEnter:
		a.modal = modalNone
		a.jump(a.input)
		a.input = ""
	case tea.KeyBackspace:
		if r := []rune(a.input); len(r) > 0 {
			a.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		a.input += " "
	case tea.KeyRunes:
		a.input += string(m.Runes)
	}
	return a, nil
}

func (a *App) current() (*rowmodel.Node, bool) {
	return a.model.At(a.cursor)
}

func (a *App) setStatus(s string) {
	a.status = s
	a.isErr = false
}

func (a *App) setError(err error) {
	a.status = "error: " + err.Error()
	a.isErr = true
	a.log.Error("grid action failed", "grid", a.model.GridID(), "err", err)
}

// ensureWindow keeps the cursor inside the visible page and loads the blocks
// the page covers.
func (a *App) ensureWindow() error {
	total := a.model.Total()
	a.cursor = max(min(a.cursor, total-1), 0)
	if a.cursor < a.offset {
		a.offset = a.cursor
	}
	if a.cursor >= a.offset+a.pageSize {
		a.offset = a.cursor - a.pageSize + 1
	}
	if a.offset+a.pageSize > total {
		a.offset = max(total-a.pageSize, 0)
	}
	return a.model.Ensure(a.ctx, a.offset, a.offset+a.pageSize-1)
}

func (a *App) refreshWindow() {
	if err := a.ensureWindow(); err != nil {
		a.setError(err)
	}
}

func (a *App) move(delta int) {
	a.cursor += delta
	a.refreshWindow()
}

func (a *App) setNodes(p selection.SetNodesParams) {
	if _, err := a.strategy.SetNodesSelected(p); err != nil {
		a.setError(err)
	}
}

func (a *App) toggle() {
	n, ok := a.current()
	if !ok {
		return
	}
	if !n.Selectable() {
		a.setStatus("row is locked")
		return
	}
	value := true
	if a.strategy.Mode() != selection.ModeSingle {
		value = !a.strategy.IsNodeSelected(n)
	}
	a.setNodes(selection.SetNodesParams{Nodes: []selection.Row{n}, NewValue: value, Source: selection.SourceKeyboard})
}

// extend grows or shrinks the range from the anchor to the row the cursor
// lands on. Without an anchor the current row becomes one.
func (a *App) extend(delta int) {
	from, ok := a.current()
	if !ok {
		return
	}
	if _, anchored := a.strategy.RangeRoot(); !anchored {
		a.setNodes(selection.SetNodesParams{Nodes: []selection.Row{from}, NewValue: true, Source: selection.SourceKeyboard})
	}
	a.move(delta)
	to, ok := a.current()
	if !ok || to.ID() == from.ID() {
		return
	}
	a.setNodes(selection.SetNodesParams{
		Nodes: []selection.Row{to}, NewValue: true, RangeSelect: true, Source: selection.SourceKeyboard,
	})
}

func (a *App) deleteCurrent() {
	n, ok := a.current()
	if !ok {
		return
	}
	deleted, err := a.selection.DeleteRows(a.ctx, []string{n.ID()})
	if err != nil {
		a.setError(err)
		return
	}
	a.setStatus(fmt.Sprintf("deleted %d row(s)", len(deleted)))
	a.refreshWindow()
}

func nextOrder(o rowmodel.Order) rowmodel.Order {
	if !o.Desc {
		return rowmodel.Order{Column: o.Column, Desc: true}
	}
	cols := repository.SortColumns
	for i, c := range cols {
		if c == o.Column {
			return rowmodel.Order{Column: cols[(i+1)%len(cols)]}
		}
	}
	return rowmodel.Order{Column: repository.SortPosition}
}

func (a *App) cycleOrder() {
	next := nextOrder(a.model.Order())
	if err := a.model.SetOrder(a.ctx, next); err != nil {
		a.setError(err)
		return
	}
	if err := prefs.SaveView(a.model.GridID(), prefs.View{Sort: next.Column, Desc: next.Desc}); err != nil {
		a.log.Warn("save view preferences", "err", err)
	}
	a.cursor, a.offset = 0, 0
	a.refreshWindow()
	a.setStatus("sorted by " + orderLabel(next))
}

func (a *App) save() {
	if err := a.selection.Save(a.ctx); err != nil {
		a.setError(err)
		return
	}
	a.setStatus("selection saved")
}

func (a *App) restore() {
	ok, err := a.selection.Restore(a.ctx)
	switch {
	case err != nil:
		a.setError(err)
	case !ok:
		a.setStatus("no saved selection")
	default:
		a.setStatus("selection restored")
	}
}

func (a *App) jump(query string) {
	match, ok := service.FindRow(a.model, query)
	if !ok {
		a.setStatus(fmt.Sprintf("no loaded row matches %q", query))
		return
	}
	a.cursor = match.Position
	a.refreshWindow()
	a.setStatus("jumped to " + match.Label)
}

func orderLabel(o rowmodel.Order) string {
	if o.Desc {
		return string(o.Column) + " ↓"
	}
	return string(o.Column) + " ↑"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("rowselect · " + a.model.GridID()))
	b.WriteString(helpStyle.Render(fmt.Sprintf("  %s · sort %s · %d rows", a.strategy.Mode(), orderLabel(a.model.Order()), a.model.Total())))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("      %-28s %-8s %12s", "Label", "Group", "Amount")))
	b.WriteString("\n")

	end := min(a.offset+a.pageSize, a.model.Total())
	for pos := a.offset; pos < end; pos++ {
		n, ok := a.model.At(pos)
		if !ok {
			b.WriteString("  " + placeholderText + "\n")
			continue
		}
		b.WriteString(a.renderRow(pos, n))
		b.WriteString("\n")
	}
	if a.model.Total() == 0 {
		b.WriteString(helpStyle.Render("  (no rows; try `rowselect seed` or `rowselect import`)") + "\n")
	}

	b.WriteString(a.selectionSummary())
	b.WriteString("\n")
	switch {
	case a.modal == modalJump:
		b.WriteString(statusStyle.Render("jump to: " + a.input + "▌"))
	case a.isErr:
		b.WriteString(errorStyle.Render(a.status))
	case a.status != "":
		b.WriteString(statusStyle.Render(a.status))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("[j/k] Move  [space] Toggle  [shift+↑/↓] Range  [enter] Only  [ctrl+a] All  [esc] None  [d] Delete  [o] Sort  [w] Save  [r] Restore  [/] Jump  [q] Quit"))
	return b.String()
}

func (a *App) renderRow(pos int, n *rowmodel.Node) string {
	marker := " "
	if pos == a.cursor {
		marker = "▶"
	}
	box := "[ ]"
	style := rowStyle
	switch {
	case !n.Selectable():
		box = "[-]"
		style = lockedStyle
	case a.strategy.IsNodeSelected(n):
		box = "[x]"
		style = selectedStyle
	}
	if pos == a.cursor {
		style = cursorStyle
	}
	line := fmt.Sprintf("%s %s %-28s %-8s %12.2f", marker, box, truncate(n.Label(), 28), truncate(n.Group(), 8), float64(n.Amount())/100)
	return style.Render(line)
}

func (a *App) selectionSummary() string {
	var s string
	if count := a.strategy.GetSelectionCount(); count >= 0 {
		s = fmt.Sprintf("%d selected", count)
	} else {
		s = "all rows selected"
		if except := len(a.strategy.GetSelectedState().ToggledNodes); except > 0 {
			s += fmt.Sprintf(" except %d", except)
		}
	}
	if a.lastChange != "" {
		s += " · last change: " + a.lastChange
	}
	return helpStyle.Render(s)
}
