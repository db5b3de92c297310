package repository

import (
	"context"
	"database/sql"
)

// GridStateRepo stores one selection snapshot per grid.
type GridStateRepo struct {
	db *sql.DB
}

func NewGridStateRepo(db *sql.DB) *GridStateRepo { return &GridStateRepo{db: db} }

func (r *GridStateRepo) Save(ctx context.Context, gridID string, state []byte) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO grid_state(grid_id, state, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(grid_id) DO UPDATE SET
	 state=excluded.state,
	 updated_at=CURRENT_TIMESTAMP;
	`, gridID, string(state))
	return err
}

// Load returns nil when the grid has no saved state.
func (r *GridStateRepo) Load(ctx context.Context, gridID string) (*GridState, error) {
	var gs GridState
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT grid_id, state, updated_at FROM grid_state WHERE grid_id = ?`, gridID).
		Scan(&gs.GridID, &raw, &gs.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	gs.State = []byte(raw)
	return &gs, nil
}

func (r *GridStateRepo) Delete(ctx context.Context, gridID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM grid_state WHERE grid_id = ?`, gridID)
	return err
}
