package selection

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateXORInvariantHoldsAcrossToggles(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	ids := []string{"a", "b", "c", "d", "e"}
	st := NewState()
	for step := 0; step < 500; step++ {
		switch rng.Intn(10) {
		case 0:
			st.SetSelectAll(rng.Intn(2) == 0)
		default:
			st.Toggle(ids[rng.Intn(len(ids))], rng.Intn(2) == 0, rng.Intn(5) != 0)
		}
		for _, id := range ids {
			_, toggled := st.toggled[id]
			require.Equal(t, st.selectAll != toggled, st.IsSelected(id), "step %d id %s", step, id)
		}
	}
}

func TestStateToggleConformingValueRemovesException(t *testing.T) {
	t.Parallel()

	st := NewState()
	st.Toggle("a", true, true)
	require.True(t, st.IsSelected("a"))
	require.Equal(t, 1, st.Exceptions())

	st.Toggle("a", false, true)
	require.False(t, st.IsSelected("a"))
	require.Zero(t, st.Exceptions())

	st.SetSelectAll(true)
	st.Toggle("b", true, true)
	require.Zero(t, st.Exceptions(), "selecting under select-all conforms")
	st.Toggle("b", false, true)
	require.False(t, st.IsSelected("b"))
}

func TestStateToggleUnselectableNeverBecomesException(t *testing.T) {
	t.Parallel()

	st := NewState()
	st.Toggle("locked", true, false)
	require.False(t, st.IsSelected("locked"))

	st.SetSelectAll(true)
	st.Toggle("locked", false, false)
	require.True(t, st.IsSelected("locked"), "unselectable rows follow select-all")
	require.Zero(t, st.Exceptions())
}

func TestStateCountAndEmpty(t *testing.T) {
	t.Parallel()

	st := NewState()
	require.True(t, st.IsEmpty())
	require.Equal(t, 0, st.Count())

	st.Toggle("a", true, true)
	st.Toggle("b", true, true)
	require.Equal(t, 2, st.Count())
	require.False(t, st.IsEmpty())

	st.SetSelectAll(true)
	require.Equal(t, -1, st.Count())
	require.False(t, st.IsEmpty())
}

func TestStateRemoveIDsReportsChange(t *testing.T) {
	t.Parallel()

	st := NewState()
	st.Toggle("a", true, true)
	require.False(t, st.RemoveIDs([]string{"x", "y"}))
	require.True(t, st.RemoveIDs([]string{"x", "a"}))
	require.True(t, st.IsEmpty())
}

func TestRestoreStateRoundTrip(t *testing.T) {
	t.Parallel()

	st := NewState()
	st.SetSelectAll(true)
	st.Toggle("r2", false, true)
	st.Toggle("r1", false, true)

	snap := st.Snapshot()
	require.Equal(t, Snapshot{SelectAll: true, ToggledNodes: []string{"r1", "r2"}}, snap)

	restored, skipped, err := RestoreState(snap)
	require.NoError(t, err)
	require.Empty(t, skipped)
	require.Equal(t, st, restored)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	require.JSONEq(t, `{"selectAll":true,"toggledNodes":["r1","r2"]}`, string(data))

	fromJSON, _, err := RestoreState(data)
	require.NoError(t, err)
	require.Equal(t, st, fromJSON)
}

func TestRestoreStateRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		raw   any
		field string
	}{
		{name: "select all string", raw: map[string]any{"selectAll": "yes", "toggledNodes": []any{}}, field: "selectAll"},
		{name: "select all missing", raw: map[string]any{"toggledNodes": []any{}}, field: "selectAll"},
		{name: "toggled missing", raw: map[string]any{"selectAll": false}, field: "toggledNodes"},
		{name: "toggled not list", raw: map[string]any{"selectAll": false, "toggledNodes": "r1"}, field: "toggledNodes"},
		{name: "not an object", raw: []string{"r1"}},
		{name: "json array", raw: []byte(`["r1"]`)},
		{name: "bad json", raw: json.RawMessage(`{"selectAll":`)},
		{name: "nil snapshot", raw: (*Snapshot)(nil)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			st, _, err := RestoreState(tc.raw)
			require.Nil(t, st)
			require.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestRestoreStateSkipsNonStringIDs(t *testing.T) {
	t.Parallel()

	st, skipped, err := RestoreState([]byte(`{"selectAll":false,"toggledNodes":["r1",7,null,"r2"]}`))
	require.NoError(t, err)
	require.Equal(t, []any{float64(7), nil}, skipped)
	require.Equal(t, []string{"r1", "r2"}, st.Snapshot().ToggledNodes)
}
