package tui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/rowselect/internal/config"
	"github.com/jask/rowselect/internal/database"
	"github.com/jask/rowselect/internal/database/repository"
	"github.com/jask/rowselect/internal/prefs"
	"github.com/jask/rowselect/internal/rowmodel"
)

func newTestApp(t *testing.T, mode string, rows int) *App {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	db, err := database.Open(filepath.Join(t.TempDir(), "grid.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db))
	_, err = database.SeedRows(ctx, db, "g", rows)
	require.NoError(t, err)

	cfg := config.Config{
		Database:  config.DatabaseConfig{Path: "unused"},
		Selection: config.SelectionConfig{Mode: mode, GridID: "g"},
		UI:        config.UIConfig{BlockSize: 8, PageSize: 5},
		Log:       config.LogConfig{Level: "info"},
	}
	a, err := New(ctx, cfg, Deps{Rows: repository.NewRowRepo(db), States: repository.NewGridStateRepo(db)})
	require.NoError(t, err)
	return a
}

func keyMsg(k string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(a *App, msgs ...tea.KeyMsg) {
	for _, m := range msgs {
		a.Update(m)
	}
}

var (
	space     = tea.KeyMsg{Type: tea.KeySpace}
	shiftDown = tea.KeyMsg{Type: tea.KeyShiftDown}
	shiftUp   = tea.KeyMsg{Type: tea.KeyShiftUp}
	enter     = tea.KeyMsg{Type: tea.KeyEnter}
	esc       = tea.KeyMsg{Type: tea.KeyEsc}
	ctrlA     = tea.KeyMsg{Type: tea.KeyCtrlA}
)

func selectedAt(t *testing.T, a *App, pos int) bool {
	t.Helper()
	n, ok := a.Model().At(pos)
	require.True(t, ok, "row %d not loaded", pos)
	return a.Strategy().IsNodeSelected(n)
}

func TestSpaceTogglesCurrentRow(t *testing.T) {
	a := newTestApp(t, "multiple", 10)

	press(a, space)
	require.True(t, selectedAt(t, a, 0))
	require.Contains(t, a.View(), "spaceBarSelection (1 rows)")

	press(a, space)
	require.False(t, selectedAt(t, a, 0))
	require.Zero(t, a.Strategy().GetSelectionCount())
}

func TestShiftMoveExtendsAndShrinksRange(t *testing.T) {
	a := newTestApp(t, "range", 10)

	press(a, shiftDown, shiftDown, shiftDown)
	require.Equal(t, 3, a.Cursor())
	require.Equal(t, 4, a.Strategy().GetSelectionCount())
	for i := 0; i <= 3; i++ {
		require.True(t, selectedAt(t, a, i), "row %d", i)
	}

	press(a, shiftUp)
	require.Equal(t, 3, a.Strategy().GetSelectionCount())
	require.False(t, selectedAt(t, a, 3), "rows leaving the range are deselected")
	require.True(t, selectedAt(t, a, 2))
}

func TestShiftMoveRangesInMultipleMode(t *testing.T) {
	a := newTestApp(t, "multiple", 10)

	press(a, shiftDown, shiftDown, shiftDown)
	require.Equal(t, 4, a.Strategy().GetSelectionCount())

	press(a, shiftUp, shiftUp)
	require.Equal(t, 2, a.Strategy().GetSelectionCount())
	require.True(t, selectedAt(t, a, 0))
	require.True(t, selectedAt(t, a, 1))
	require.False(t, selectedAt(t, a, 2))
	require.False(t, selectedAt(t, a, 3))
}

func TestEnterSelectsOnlyCurrentRow(t *testing.T) {
	a := newTestApp(t, "range", 10)

	press(a, ctrlA, keyMsg("j"), keyMsg("j"), enter)
	require.Equal(t, 1, a.Strategy().GetSelectionCount())
	require.True(t, selectedAt(t, a, 2))
	require.False(t, selectedAt(t, a, 0))
}

func TestSelectAllWithExceptionsThenDeselectAll(t *testing.T) {
	a := newTestApp(t, "range", 10)

	press(a, ctrlA)
	require.Equal(t, -1, a.Strategy().GetSelectionCount())
	require.Contains(t, a.View(), "all rows selected")

	press(a, space)
	require.False(t, selectedAt(t, a, 0))
	require.Contains(t, a.View(), "all rows selected except 1")

	press(a, esc)
	require.Zero(t, a.Strategy().GetSelectionCount())
	require.True(t, a.Strategy().IsEmpty())
}

func TestSingleModeReplacesSelection(t *testing.T) {
	a := newTestApp(t, "single", 10)

	press(a, space, keyMsg("j"), space)
	require.Equal(t, 1, a.Strategy().GetSelectionCount())
	require.True(t, selectedAt(t, a, 1))
	require.False(t, selectedAt(t, a, 0))
}

func TestLockedRowIsNotSelectable(t *testing.T) {
	a := newTestApp(t, "multiple", 20)

	for i := 0; i < 12; i++ {
		press(a, keyMsg("j"))
	}
	require.Equal(t, 12, a.Cursor())
	press(a, space)
	require.Equal(t, "row is locked", a.Status())
	require.Zero(t, a.Strategy().GetSelectionCount())
	require.Contains(t, a.View(), "[-]")
}

func TestDeleteRemovesRowAndItsSelection(t *testing.T) {
	a := newTestApp(t, "range", 20)

	press(a, space, keyMsg("d"))
	require.Equal(t, "deleted 1 row(s)", a.Status())
	require.Equal(t, 19, a.Model().Total())
	require.Zero(t, a.Strategy().GetSelectionCount())

	n, ok := a.Model().At(0)
	require.True(t, ok)
	require.Equal(t, database.SeedRowID("g", 1), n.ID())
}

func TestSortCyclesAndIsRemembered(t *testing.T) {
	a := newTestApp(t, "range", 20)

	press(a, keyMsg("j"), keyMsg("o"))
	require.Zero(t, a.Cursor())
	require.Equal(t, rowmodel.Order{Column: repository.SortPosition, Desc: true}, a.Model().Order())
	n, ok := a.Model().At(0)
	require.True(t, ok)
	require.Equal(t, database.SeedRowID("g", 19), n.ID())

	view, err := prefs.LoadView("g")
	require.NoError(t, err)
	require.Equal(t, prefs.View{Sort: repository.SortPosition, Desc: true}, view)

	press(a, keyMsg("o"))
	require.Equal(t, rowmodel.Order{Column: repository.SortLabel}, a.Model().Order())
	require.Contains(t, a.Status(), "label")
}

func TestSaveAndRestoreSelection(t *testing.T) {
	a := newTestApp(t, "range", 10)

	press(a, keyMsg("r"))
	require.Equal(t, "no saved selection", a.Status())

	press(a, keyMsg("j"), space, keyMsg("w"))
	require.Equal(t, "selection saved", a.Status())

	press(a, esc)
	require.True(t, a.Strategy().IsEmpty())

	press(a, keyMsg("r"))
	require.Equal(t, "selection restored", a.Status())
	require.True(t, selectedAt(t, a, 1))
	require.Contains(t, a.View(), "stateRestored")
}

func TestJumpMovesCursorToClosestLabel(t *testing.T) {
	a := newTestApp(t, "range", 10)

	press(a, keyMsg("/"), keyMsg("rebate"))
	require.Contains(t, a.View(), "jump to: rebate")
	press(a, enter)
	require.Equal(t, 2, a.Cursor())
	require.Equal(t, "jumped to Rebate 0002", a.Status())

	press(a, keyMsg("/"), keyMsg("x"), esc, keyMsg("j"))
	require.Equal(t, 3, a.Cursor(), "esc closes the prompt without jumping")
}

func TestQuitReturnsQuitCmd(t *testing.T) {
	a := newTestApp(t, "range", 3)

	_, cmd := a.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWindowFollowsCursor(t *testing.T) {
	a := newTestApp(t, "range", 30)

	for i := 0; i < 9; i++ {
		press(a, keyMsg("j"))
	}
	view := a.View()
	require.Contains(t, view, "0009")
	require.NotContains(t, view, "0004", "row 4 scrolled out of the 5-row page")

	a.Update(tea.WindowSizeMsg{Width: 80, Height: 8})
	require.Equal(t, 9, a.Cursor())
}
