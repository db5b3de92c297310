// Package rowmodel is a server-backed row model: rows are fetched from storage
// in fixed-size blocks as the viewport needs them, and only loaded blocks are
// visible through the selection.RowSource methods.
package rowmodel

import (
	"context"
	"fmt"
	"sort"

	"github.com/jask/rowselect/internal/database/repository"
	"github.com/jask/rowselect/internal/selection"
)

// Store is the slice of RowRepo the model pages through.
type Store interface {
	Count(ctx context.Context, gridID, search string) (int, error)
	Page(ctx context.Context, q repository.RowQuery) ([]repository.Row, error)
}

// Node is a loaded row.
type Node struct {
	row repository.Row
}

func (n *Node) ID() string { return n.row.ID }
func (n *Node) Selectable() bool { return n.row.Selectable }
func (n *Node) Data() any { return n.row }
func (n *Node) Row() repository.Row { return n.row }
func (n *Node) Label() string { return n.row.Label }
func (n *Node) Group() string { return n.row.GroupKey }
func (n *Node) Amount() int64 { return n.row.Amount }

// Order is the active sort.
type Order struct {
	Column repository.SortColumn
	Desc   bool
}

// Model caches blocks of rows for one grid.
type Model struct {
	store     Store
	gridID    string
	blockSize int
	order     Order
	search    string

	total  int
	blocks map[int][]*Node
	index  map[string]int
	onLoad func(*Node)
}

// New returns an empty model. onLoad, when set, is called for every row that
// is (re)loaded so caches keyed by row id can refresh their references.
func New(store Store, gridID string, blockSize int, onLoad func(*Node)) *Model {
	if blockSize < 1 {
		blockSize = 1
	}
	return &Model{
		store:     store,
		gridID:    gridID,
		blockSize: blockSize,
		order:     Order{Column: repository.SortPosition},
		blocks:    make(map[int][]*Node),
		index:     make(map[string]int),
		onLoad:    onLoad,
	}
}

// SetOnLoad replaces the load hook.
func (m *Model) SetOnLoad(fn func(*Node)) { m.onLoad = fn }

func (m *Model) GridID() string { return m.gridID }

// Total is the row count reported by storage at the last refresh.
func (m *Model) Total() int { return m.total }

func (m *Model) Order() Order { return m.order }

func (m *Model) Search() string { return m.search }

// Refresh drops every loaded block and re-reads the total. Rows reappear as
// blocks are ensured again, possibly in a different order.
func (m *Model) Refresh(ctx context.Context) error {
	total, err := m.store.Count(ctx, m.gridID, m.search)
	if err != nil {
		return fmt.Errorf("count rows: %w", err)
	}
	m.total = total
	m.blocks = make(map[int][]*Node)
	m.index = make(map[string]int)
	return nil
}

// SetOrder changes the sort and refreshes.
func (m *Model) SetOrder(ctx context.Context, o Order) error {
	m.order = o
	return m.Refresh(ctx)
}

// SetSearch filters rows by label and refreshes.
func (m *Model) SetSearch(ctx context.Context, q string) error {
	m.search = q
	return m.Refresh(ctx)
}

// Ensure loads the blocks covering display positions [from, to].
func (m *Model) Ensure(ctx context.Context, from, to int) error {
	if from < 0 {
		from = 0
	}
	if to >= m.total {
		to = m.total - 1
	}
	for b := from / m.blockSize; b <= to/m.blockSize && to >= 0; b++ {
		if _, ok := m.blocks[b]; ok {
			continue
		}
		if err := m.loadBlock(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) loadBlock(ctx context.Context, b int) error {
	rows, err := m.store.Page(ctx, repository.RowQuery{
		GridID: m.gridID,
		Offset: b * m.blockSize,
		Limit:  m.blockSize,
		Sort:   m.order.Column,
		Desc:   m.order.Desc,
		Search: m.search,
	})
	if err != nil {
		return fmt.Errorf("load block %d: %w", b, err)
	}
	nodes := make([]*Node, len(rows))
	for i, r := range rows {
		n := &Node{row: r}
		nodes[i] = n
		m.index[r.ID] = b*m.blockSize + i
	}
	m.blocks[b] = nodes
	if m.onLoad != nil {
		for _, n := range nodes {
			m.onLoad(n)
		}
	}
	return nil
}

// At returns the loaded row at display position i.
func (m *Model) At(i int) (*Node, bool) {
	if i < 0 {
		return nil, false
	}
	block, ok := m.blocks[i/m.blockSize]
	if !ok || i%m.blockSize >= len(block) {
		return nil, false
	}
	return block[i%m.blockSize], true
}

// Position returns the display position of a loaded row.
func (m *Model) Position(id string) (int, bool) {
	pos, ok := m.index[id]
	return pos, ok
}

// Loaded is the number of materialized rows.
func (m *Model) Loaded() int { return len(m.index) }

// Remove forgets rows that were deleted upstream and returns the ids that were
// loaded. Storage offsets shift after a delete, so every block from the first
// affected one onwards is dropped and reloads on the next Ensure. Total only
// accounts for the returned ids; callers that deleted unloaded rows must
// Refresh.
func (m *Model) Remove(ids []string) []string {
	first := -1
	var removed []string
	for _, id := range ids {
		pos, ok := m.index[id]
		if !ok {
			continue
		}
		removed = append(removed, id)
		if b := pos / m.blockSize; first < 0 || b < first {
			first = b
		}
	}
	if len(removed) == 0 {
		return nil
	}

	m.total -= len(removed)
	for b, block := range m.blocks {
		if b < first {
			continue
		}
		for _, n := range block {
			delete(m.index, n.row.ID)
		}
		delete(m.blocks, b)
	}
	return removed
}

// eachLoaded visits loaded rows in display order.
func (m *Model) eachLoaded(visit func(pos int, n *Node)) {
	keys := make([]int, 0, len(m.blocks))
	for b := range m.blocks {
		keys = append(keys, b)
	}
	sort.Ints(keys)
	for _, b := range keys {
		for i, n := range m.blocks[b] {
			visit(b*m.blockSize+i, n)
		}
	}
}

// Resolve implements selection.RowSource.
func (m *Model) Resolve(id string) (selection.Row, bool) {
	pos, ok := m.index[id]
	if !ok {
		return nil, false
	}
	n, ok := m.At(pos)
	if !ok {
		return nil, false
	}
	return n, true
}

// ForEach implements selection.RowSource. Only loaded rows are visited.
func (m *Model) ForEach(visit func(selection.Row)) {
	m.eachLoaded(func(_ int, n *Node) { visit(n) })
}

// IndexOf implements selection.RowSource. The position is the row's rank among
// loaded rows, which is the order ForEach visits them in.
func (m *Model) IndexOf(id string) (int, bool) {
	pos, ok := m.index[id]
	if !ok {
		return 0, false
	}
	rank := 0
	for b, block := range m.blocks {
		if b*m.blockSize+len(block) <= pos {
			rank += len(block)
		} else if b*m.blockSize <= pos {
			rank += pos - b*m.blockSize
		}
	}
	return rank, true
}
