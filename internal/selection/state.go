package selection

import (
	"encoding/json"
	"fmt"
	"sort"
)

// State is the complement representation of a selection: every row is selected
// when selectAll is set, except the toggled ids; otherwise only the toggled ids
// are selected.
type State struct {
	selectAll bool
	toggled   map[string]struct{}
}

// Snapshot is the serializable form of a State.
type Snapshot struct {
	SelectAll    bool     `json:"selectAll" yaml:"selectAll"`
	ToggledNodes []string `json:"toggledNodes" yaml:"toggledNodes"`
}

func NewState() *State {
	return &State{toggled: make(map[string]struct{})}
}

// IsSelected reports selectAll XOR toggled(id).
func (s *State) IsSelected(id string) bool {
	_, toggled := s.toggled[id]
	return s.selectAll != toggled
}

// Toggle records the desired value for id. Unselectable rows are never kept as
// exceptions and passively follow selectAll.
func (s *State) Toggle(id string, selected, selectable bool) {
	if !selectable || selected == s.selectAll {
		delete(s.toggled, id)
		return
	}
	s.toggled[id] = struct{}{}
}

// SetSelectAll replaces the state wholesale.
func (s *State) SetSelectAll(v bool) {
	s.selectAll = v
	s.toggled = make(map[string]struct{})
}

func (s *State) Clear() { s.SetSelectAll(false) }

// Only replaces the state with exactly id selected.
func (s *State) Only(id string) {
	s.selectAll = false
	s.toggled = map[string]struct{}{id: {}}
}

func (s *State) SelectAll() bool { return s.selectAll }

// Exceptions is the number of toggled ids.
func (s *State) Exceptions() int { return len(s.toggled) }

// Count returns -1 when selectAll is set since the total is unknown here.
func (s *State) Count() int {
	if s.selectAll {
		return -1
	}
	return len(s.toggled)
}

func (s *State) IsEmpty() bool {
	return !s.selectAll && len(s.toggled) == 0
}

// RemoveIDs drops ids from the toggled set and reports whether any were present.
func (s *State) RemoveIDs(ids []string) bool {
	changed := false
	for _, id := range ids {
		if _, ok := s.toggled[id]; ok {
			delete(s.toggled, id)
			changed = true
		}
	}
	return changed
}

func (s *State) clone() *State {
	out := &State{selectAll: s.selectAll, toggled: make(map[string]struct{}, len(s.toggled))}
	for id := range s.toggled {
		out.toggled[id] = struct{}{}
	}
	return out
}

// Snapshot returns the serializable form with ids sorted.
func (s *State) Snapshot() Snapshot {
	ids := make([]string, 0, len(s.toggled))
	for id := range s.toggled {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return Snapshot{SelectAll: s.selectAll, ToggledNodes: ids}
}

// RestoreState builds a State from raw input: a decoded JSON object, a
// Snapshot, or encoded JSON bytes. Shape errors are returned as
// *ValidationError; non-string ids are skipped and reported through skipped.
func RestoreState(raw any) (st *State, skipped []any, err error) {
	switch v := raw.(type) {
	case Snapshot:
		return fromSnapshot(v), nil, nil
	case *Snapshot:
		if v == nil {
			return nil, nil, &ValidationError{Reason: "state must be an object"}
		}
		return fromSnapshot(*v), nil, nil
	case json.RawMessage:
		return restoreJSON(v)
	case []byte:
		return restoreJSON(v)
	case map[string]any:
		return restoreObject(v)
	default:
		return nil, nil, &ValidationError{Reason: fmt.Sprintf("state must be an object, got %T", raw)}
	}
}

func restoreJSON(data []byte) (*State, []any, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, nil, &ValidationError{Reason: "decode: " + err.Error()}
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, nil, &ValidationError{Reason: "state must be an object"}
	}
	return restoreObject(obj)
}

func restoreObject(obj map[string]any) (*State, []any, error) {
	selectAll, ok := obj["selectAll"].(bool)
	if !ok {
		return nil, nil, &ValidationError{Field: "selectAll", Reason: "must be a boolean"}
	}

	var list []any
	switch ids := obj["toggledNodes"].(type) {
	case []any:
		list = ids
	case []string:
		list = make([]any, len(ids))
		for i, id := range ids {
			list[i] = id
		}
	default:
		return nil, nil, &ValidationError{Field: "toggledNodes", Reason: "must be an array of string ids"}
	}

	st := NewState()
	st.selectAll = selectAll
	var skipped []any
	for _, item := range list {
		id, ok := item.(string)
		if !ok {
			skipped = append(skipped, item)
			continue
		}
		st.toggled[id] = struct{}{}
	}
	return st, skipped, nil
}

func fromSnapshot(snap Snapshot) *State {
	st := NewState()
	st.selectAll = snap.SelectAll
	for _, id := range snap.ToggledNodes {
		st.toggled[id] = struct{}{}
	}
	return st
}
