package rowmodel

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/rowselect/internal/database"
	"github.com/jask/rowselect/internal/database/repository"
	"github.com/jask/rowselect/internal/selection"
)

func seededModel(t *testing.T, rows, blockSize int) (context.Context, *Model, *repository.RowRepo) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	db, err := database.Open(filepath.Join(t.TempDir(), "rows.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db))
	_, err = database.SeedRows(ctx, db, "grid", rows)
	require.NoError(t, err)

	repo := repository.NewRowRepo(db)
	m := New(repo, "grid", blockSize, nil)
	require.NoError(t, m.Refresh(ctx))
	return ctx, m, repo
}

func seedID(n int) string { return database.SeedRowID("grid", n) }

func TestModelEnsureLoadsCoveringBlocksOnly(t *testing.T) {
	t.Parallel()

	ctx, m, _ := seededModel(t, 20, 5)
	require.Equal(t, 20, m.Total())
	require.Zero(t, m.Loaded())

	var loaded []string
	m.SetOnLoad(func(n *Node) { loaded = append(loaded, n.ID()) })
	require.NoError(t, m.Ensure(ctx, 3, 6))
	require.Equal(t, 10, m.Loaded())
	require.Len(t, loaded, 10)

	_, ok := m.Resolve(seedID(9))
	require.True(t, ok)
	_, ok = m.Resolve(seedID(10))
	require.False(t, ok, "block 2 not fetched")

	require.NoError(t, m.Ensure(ctx, 0, 9))
	require.Len(t, loaded, 10, "cached blocks are not refetched")

	require.NoError(t, m.Ensure(ctx, 18, 40))
	require.Equal(t, 15, m.Loaded())
}

func TestModelIndexOfMatchesForEachOrderAcrossGaps(t *testing.T) {
	t.Parallel()

	ctx, m, _ := seededModel(t, 20, 5)
	require.NoError(t, m.Ensure(ctx, 0, 4))
	require.NoError(t, m.Ensure(ctx, 15, 19))

	var visited []string
	m.ForEach(func(r selection.Row) { visited = append(visited, r.ID()) })
	require.Len(t, visited, 10)
	for i, id := range visited {
		idx, ok := m.IndexOf(id)
		require.True(t, ok)
		require.Equal(t, i, idx, id)
	}

	pos, ok := m.Position(seedID(15))
	require.True(t, ok)
	require.Equal(t, 15, pos)
	idx, _ := m.IndexOf(seedID(15))
	require.Equal(t, 5, idx)
}

func TestModelSetOrderReversesDisplay(t *testing.T) {
	t.Parallel()

	ctx, m, _ := seededModel(t, 8, 4)
	require.NoError(t, m.SetOrder(ctx, Order{Column: repository.SortPosition, Desc: true}))
	require.NoError(t, m.Ensure(ctx, 0, 7))

	first, ok := m.At(0)
	require.True(t, ok)
	require.Equal(t, seedID(7), first.ID())
	last, ok := m.At(7)
	require.True(t, ok)
	require.Equal(t, seedID(0), last.ID())
	require.Equal(t, repository.SortPosition, m.Order().Column)
}

func TestModelSearchFiltersRows(t *testing.T) {
	t.Parallel()

	ctx, m, _ := seededModel(t, 16, 4)
	require.NoError(t, m.SetSearch(ctx, "0001"))
	require.Equal(t, 1, m.Total())
	require.NoError(t, m.Ensure(ctx, 0, 3))
	n, ok := m.At(0)
	require.True(t, ok)
	require.Equal(t, seedID(1), n.ID())
	require.Equal(t, "0001", m.Search())
}

func TestModelRemoveDropsAffectedBlocks(t *testing.T) {
	t.Parallel()

	ctx, m, repo := seededModel(t, 12, 4)
	require.NoError(t, m.Ensure(ctx, 0, 11))

	deleted, err := repo.Delete(ctx, []string{seedID(5)})
	require.NoError(t, err)
	removed := m.Remove(append(deleted, "unknown"))
	require.Equal(t, []string{seedID(5)}, removed)
	require.Equal(t, 11, m.Total())
	require.Equal(t, 4, m.Loaded(), "block 0 survives, blocks 1+ reload")

	require.NoError(t, m.Ensure(ctx, 0, 10))
	n, ok := m.At(5)
	require.True(t, ok)
	require.Equal(t, seedID(6), n.ID())
	require.Nil(t, m.Remove([]string{seedID(5)}))
}

func TestModelDrivesRangeSelectionAcrossResort(t *testing.T) {
	t.Parallel()

	ctx, m, _ := seededModel(t, 10, 10)
	s := selection.NewStrategy(m, selection.WithMode(selection.ModeRange))
	m.SetOnLoad(func(n *Node) { s.ProcessNewRow(n) })
	require.NoError(t, m.Ensure(ctx, 0, 9))

	at := func(i int) selection.Row {
		n, ok := m.At(i)
		require.True(t, ok)
		return n
	}
	_, err := s.SetNodesSelected(selection.SetNodesParams{Nodes: []selection.Row{at(1)}, NewValue: true, Source: selection.SourceCheckbox})
	require.NoError(t, err)
	_, err = s.SetNodesSelected(selection.SetNodesParams{Nodes: []selection.Row{at(4)}, NewValue: true, RangeSelect: true, Source: selection.SourceCheckbox})
	require.NoError(t, err)
	require.Equal(t, 4, s.GetSelectionCount())

	// reverse the grid: anchor row 1 is now at position 8, range end row 4 at 5
	require.NoError(t, m.SetOrder(ctx, Order{Column: repository.SortPosition, Desc: true}))
	require.NoError(t, m.Ensure(ctx, 0, 9))

	row3, ok := m.Resolve(seedID(3))
	require.True(t, ok)
	_, err = s.SetNodesSelected(selection.SetNodesParams{Nodes: []selection.Row{row3}, NewValue: true, RangeSelect: true, Source: selection.SourceCheckbox})
	require.NoError(t, err)

	var selected []string
	m.ForEach(func(r selection.Row) {
		if s.IsNodeSelected(r) {
			selected = append(selected, r.ID())
		}
	})
	require.Equal(t, []string{seedID(3), seedID(2), seedID(1)}, selected)

	nodes := s.GetSelectedNodes()
	require.Len(t, nodes, 3)
	for _, n := range nodes {
		live, ok := m.Resolve(n.ID())
		require.True(t, ok)
		require.Same(t, live, n, "cache follows reloaded rows")
	}
}
