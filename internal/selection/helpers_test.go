package selection

import (
	"fmt"
	"slices"
)

type testRow struct {
	id         string
	selectable bool
	data       string
}

func (r *testRow) ID() string       { return r.id }
func (r *testRow) Selectable() bool { return r.selectable }
func (r *testRow) Data() any        { return r.data }

// testSource is an in-memory RowSource whose order can be rearranged mid-test.
type testSource struct {
	rows []*testRow
}

func newTestSource(n int) *testSource {
	src := &testSource{}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("r%d", i)
		src.rows = append(src.rows, &testRow{id: id, selectable: true, data: "data-" + id})
	}
	return src
}

func (s *testSource) Resolve(id string) (Row, bool) {
	for _, r := range s.rows {
		if r.id == id {
			return r, true
		}
	}
	return nil, false
}

func (s *testSource) ForEach(visit func(Row)) {
	for _, r := range s.rows {
		visit(r)
	}
}

func (s *testSource) IndexOf(id string) (int, bool) {
	for i, r := range s.rows {
		if r.id == id {
			return i, true
		}
	}
	return 0, false
}

func (s *testSource) row(id string) *testRow {
	r, ok := s.Resolve(id)
	if !ok {
		panic("unknown row " + id)
	}
	return r.(*testRow)
}

func (s *testSource) remove(id string) {
	s.rows = slices.DeleteFunc(s.rows, func(r *testRow) bool { return r.id == id })
}

func (s *testSource) reverse() {
	slices.Reverse(s.rows)
}

func ids(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID()
	}
	return out
}

func idRange(from, to int) []string {
	var out []string
	if from <= to {
		for i := from; i <= to; i++ {
			out = append(out, fmt.Sprintf("r%d", i))
		}
		return out
	}
	for i := from; i >= to; i-- {
		out = append(out, fmt.Sprintf("r%d", i))
	}
	return out
}

type recordedChange struct {
	id       string
	selected bool
	source   Source
}

type recordingListener struct {
	rows      []recordedChange
	aggregate []Source
}

func (l *recordingListener) RowSelectionChanged(row Row, selected bool, source Source) {
	l.rows = append(l.rows, recordedChange{id: row.ID(), selected: selected, source: source})
}

func (l *recordingListener) SelectionChanged(source Source) {
	l.aggregate = append(l.aggregate, source)
}
