package repository

import "time"

// Row represents a grid_rows row.
type Row struct {
	ID         string
	GridID     string
	GroupKey   string
	Label      string
	Amount     int64
	Selectable bool
	Position   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// GridState holds the persisted selection snapshot of a grid as raw JSON.
type GridState struct {
	GridID    string
	State     []byte
	UpdatedAt time.Time
}
