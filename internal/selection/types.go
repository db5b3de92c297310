package selection

// Row is the minimal view of a grid row the selection engine needs.
type Row interface {
	ID() string
	Selectable() bool
}

// DataRow is implemented by rows that carry a payload for GetSelectedRows.
type DataRow interface {
	Row
	Data() any
}

// RowSource resolves rows by id and walks them in current display order.
// Only rows the source has materialized are visible. IndexOf must return the
// position at which ForEach visits the row.
type RowSource interface {
	Resolve(id string) (Row, bool)
	ForEach(visit func(Row))
	IndexOf(id string) (int, bool)
}

// Listener receives selection change notifications.
type Listener interface {
	RowSelectionChanged(row Row, selected bool, source Source)
	SelectionChanged(source Source)
}

// Mode selects how SetNodesSelected interprets its arguments.
type Mode int

const (
	ModeSingle Mode = iota
	ModeMultiple
	// ModeRange selects exactly like ModeMultiple. Both honour RangeSelect.
	ModeRange
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeMultiple:
		return "multiple"
	case ModeRange:
		return "range"
	default:
		return "unknown"
	}
}

// ParseMode maps a config value to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "single":
		return ModeSingle, true
	case "multiple":
		return ModeMultiple, true
	case "range":
		return ModeRange, true
	}
	return ModeSingle, false
}

// Source names what triggered a selection change.
type Source string

const (
	SourceAPI            Source = "api"
	SourceCheckbox       Source = "checkboxSelected"
	SourceRowClick       Source = "rowClicked"
	SourceKeyboard       Source = "spaceBarSelection"
	SourceSelectAll      Source = "uiSelectAll"
	SourceRowDataChanged Source = "rowDataChanged"
	SourceStateRestored  Source = "stateRestored"
)

// IsUI reports whether the source is a user gesture rather than a programmatic call.
func (s Source) IsUI() bool {
	switch s {
	case SourceCheckbox, SourceRowClick, SourceKeyboard, SourceSelectAll:
		return true
	}
	return false
}

// Partition is the result of a range operation. Keep and Discard are disjoint.
type Partition struct {
	Keep    []Row
	Discard []Row
}

// SetNodesParams are the arguments to Strategy.SetNodesSelected.
type SetNodesParams struct {
	Nodes          []Row
	NewValue       bool
	ClearSelection bool
	RangeSelect    bool
	Source         Source
}
