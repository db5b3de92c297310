package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/rowselect/internal/database"
)

// MaintenanceService houses destructive/ops actions surfaced through the CLI.
type MaintenanceService struct {
	DB *sql.DB
}

// ResetGrid wipes the rows and saved selection of one grid. It keeps the schema
// intact so the app can continue running.
func (s *MaintenanceService) ResetGrid(ctx context.Context, gridID string) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		for _, t := range []string{"grid_state", "grid_rows"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t+" WHERE grid_id = ?", gridID); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return nil
}
