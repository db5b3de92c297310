package selection

import (
	"log/slog"
	"sort"
)

// Strategy owns the selection of one grid: the complement state, the range
// context and the legacy row cache.
//
// The cache maps ids to the last row object seen for rows touched by toggles.
// It only exists to answer GetSelectedNodes without resolving every id; State
// is always the source of truth and the cache is known to be incomplete once
// select-all has been used.
type Strategy struct {
	source   RowSource
	mode     Mode
	state    *State
	ranges   RangeContext
	cache    map[string]Row
	listener Listener
	log      *onceLogger

	selectAllUsed bool
}

// Option configures a Strategy.
type Option func(*Strategy)

func WithMode(m Mode) Option {
	return func(s *Strategy) { s.mode = m }
}

// WithLogger sets the advisory channel used for warnings and rejected states.
func WithLogger(l *slog.Logger) Option {
	return func(s *Strategy) { s.log = newOnceLogger(l) }
}

func WithListener(l Listener) Option {
	return func(s *Strategy) { s.listener = l }
}

// NewStrategy returns an empty selection bound to source. The default mode is
// ModeSingle.
func NewStrategy(source RowSource, opts ...Option) *Strategy {
	s := &Strategy{
		source: source,
		state:  NewState(),
		cache:  make(map[string]Row),
		log:    newOnceLogger(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ranges.Init(source)
	return s
}

func (s *Strategy) Mode() Mode { return s.mode }

// SetMode switches the selection mode. Existing state is kept.
func (s *Strategy) SetMode(m Mode) { s.mode = m }

// SetNodesSelected applies a selection gesture and returns the number of
// gestures applied (0 or 1). Constraint violations return a *ConstraintError
// before anything is mutated.
func (s *Strategy) SetNodesSelected(p SetNodesParams) (int, error) {
	if len(p.Nodes) == 0 {
		return 0, nil
	}

	onlyThisNode := p.ClearSelection && p.NewValue && !p.RangeSelect
	if s.mode == ModeSingle || onlyThisNode {
		if len(p.Nodes) > 1 {
			return 0, &ConstraintError{Mode: s.mode, Nodes: len(p.Nodes), Reason: "cannot select multiple rows with single selection"}
		}
		s.replaceWith(p.Nodes[0], p.NewValue, p.Source)
		return 1, nil
	}

	if p.RangeSelect {
		if len(p.Nodes) > 1 {
			return 0, &ConstraintError{Mode: s.mode, Nodes: len(p.Nodes), Reason: "range target must be a single row"}
		}
		s.selectRange(p.Nodes[0], p.NewValue, p.Source)
		s.notify(p.Source)
		return 1, nil
	}

	for _, row := range p.Nodes {
		s.apply(row, p.NewValue, p.Source)
	}
	s.ranges.Reset(p.Nodes[len(p.Nodes)-1].ID())
	s.notify(p.Source)
	return 1, nil
}

func (s *Strategy) replaceWith(row Row, value bool, source Source) {
	id := row.ID()
	before := s.state.IsSelected(id)
	if value && row.Selectable() {
		s.state.Only(id)
		s.cache = map[string]Row{id: row}
	} else {
		s.state.Clear()
		s.cache = make(map[string]Row)
	}
	s.ranges.Reset(id)
	if after := s.state.IsSelected(id); after != before && s.listener != nil {
		s.listener.RowSelectionChanged(row, after, source)
	}
	s.notify(source)
}

// selectRange discards rows that left the range before applying the value to
// the rows that remain, so a shrinking range never leaves stale rows selected.
func (s *Strategy) selectRange(row Row, newValue bool, source Source) {
	value := s.rangeValue(newValue, source)

	var part Partition
	if s.ranges.IsInRange(row.ID()) {
		part = s.ranges.Truncate(row.ID())
	} else {
		part = s.ranges.Extend(row.ID())
	}
	if len(part.Keep) == 0 && len(part.Discard) == 0 {
		// target not materialized by the source
		s.apply(row, value, source)
		s.ranges.Reset(row.ID())
		return
	}

	for _, r := range part.Discard {
		s.apply(r, false, source)
	}
	for _, r := range part.Keep {
		s.apply(r, value, source)
	}
}

// rangeValue makes UI drags follow the anchor's current state. Programmatic
// calls use the requested value as is.
func (s *Strategy) rangeValue(newValue bool, source Source) bool {
	if !source.IsUI() {
		return newValue
	}
	root, ok := s.ranges.Root()
	if !ok {
		return true
	}
	if _, ok := s.source.Resolve(root); !ok {
		return true
	}
	return s.state.IsSelected(root)
}

func (s *Strategy) apply(row Row, value bool, source Source) {
	id := row.ID()
	before := s.state.IsSelected(id)
	if value && row.Selectable() {
		s.cache[id] = row
	} else {
		delete(s.cache, id)
	}
	s.state.Toggle(id, value, row.Selectable())
	if after := s.state.IsSelected(id); after != before && s.listener != nil {
		s.listener.RowSelectionChanged(row, after, source)
	}
}

func (s *Strategy) notify(source Source) {
	if s.listener != nil {
		s.listener.SelectionChanged(source)
	}
}

func (s *Strategy) IsNodeSelected(row Row) bool {
	return s.state.IsSelected(row.ID())
}

// GetSelectedNodes returns the cached rows in current display order. Rows the
// source no longer resolves come last, ordered by id.
func (s *Strategy) GetSelectedNodes() []Row {
	if s.selectAllUsed {
		s.log.warn("selected rows cannot be enumerated after select-all; use the selection state or count instead")
	}
	type entry struct {
		row   Row
		index int
		found bool
	}
	entries := make([]entry, 0, len(s.cache))
	for id, row := range s.cache {
		idx, ok := s.source.IndexOf(id)
		entries = append(entries, entry{row: row, index: idx, found: ok})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.found != b.found {
			return a.found
		}
		if a.found && a.index != b.index {
			return a.index < b.index
		}
		return a.row.ID() < b.row.ID()
	})
	out := make([]Row, len(entries))
	for i, e := range entries {
		out[i] = e.row
	}
	return out
}

// GetSelectedRows returns the payloads of GetSelectedNodes for rows that carry one.
func (s *Strategy) GetSelectedRows() []any {
	nodes := s.GetSelectedNodes()
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		if dr, ok := n.(DataRow); ok {
			out = append(out, dr.Data())
		}
	}
	return out
}

// GetSelectionCount returns -1 while select-all is active.
func (s *Strategy) GetSelectionCount() int {
	return s.state.Count()
}

// GetSelectAllState returns true when everything is selected, false when nothing
// is, and nil when the selection is partial.
func (s *Strategy) GetSelectAllState() *bool {
	if s.state.Exceptions() > 0 {
		return nil
	}
	v := s.state.SelectAll()
	return &v
}

func (s *Strategy) SelectAllRowNodes(source Source) {
	s.state.SetSelectAll(true)
	s.cache = make(map[string]Row)
	s.selectAllUsed = true
	s.notify(source)
}

func (s *Strategy) DeselectAllRowNodes(source Source) {
	s.state.Clear()
	s.cache = make(map[string]Row)
	s.notify(source)
}

// ClearOtherNodes leaves only keep selected and returns an estimate of how
// many rows were cleared, taken from the state before the change. The
// estimate is -1 when nothing was selected.
func (s *Strategy) ClearOtherNodes(keep Row, source Source) int {
	cleared := 1
	if !s.state.SelectAll() {
		cleared = s.state.Exceptions() - 1
	}

	prev := s.state.clone()
	keepID := keep.ID()
	s.state.Only(keepID)
	s.cache = map[string]Row{keepID: keep}

	if s.listener != nil {
		s.source.ForEach(func(row Row) {
			if row.ID() == keepID || !prev.IsSelected(row.ID()) {
				return
			}
			s.listener.RowSelectionChanged(row, false, source)
		})
	}
	s.notify(source)
	return cleared
}

// DeleteSelectionStateFromParent forgets removed rows and reports whether the
// selection state changed.
func (s *Strategy) DeleteSelectionStateFromParent(removedIDs []string) bool {
	s.ranges.Forget(removedIDs)
	for _, id := range removedIDs {
		delete(s.cache, id)
	}
	if s.state.Exceptions() == 0 {
		return false
	}
	return s.state.RemoveIDs(removedIDs)
}

// ProcessNewRow refreshes the cached row object when its id is tracked.
func (s *Strategy) ProcessNewRow(row Row) {
	if _, ok := s.cache[row.ID()]; ok {
		s.cache[row.ID()] = row
	}
}

func (s *Strategy) IsEmpty() bool {
	return s.state.IsEmpty()
}

func (s *Strategy) GetSelectedState() Snapshot {
	return s.state.Snapshot()
}

// SetSelectedState replaces the selection with raw. Malformed input is logged,
// returned as a *ValidationError, and leaves the current state untouched.
func (s *Strategy) SetSelectedState(raw any) error {
	st, skipped, err := RestoreState(raw)
	if err != nil {
		s.log.error("selection state rejected", "err", err)
		return err
	}
	for _, v := range skipped {
		s.log.warn("ignoring non-string row id in selection state", "id", v)
	}
	s.state = st
	for id := range s.cache {
		if !st.IsSelected(id) {
			delete(s.cache, id)
		}
	}
	s.notify(SourceStateRestored)
	return nil
}

// RangeRoot returns the current range anchor.
func (s *Strategy) RangeRoot() (string, bool) {
	return s.ranges.Root()
}
