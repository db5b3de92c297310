package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jask/rowselect/internal/database/repository"
	"github.com/jask/rowselect/internal/rowmodel"
	"github.com/jask/rowselect/internal/selection"
)

// SelectionService ties a grid's selection to storage: snapshots live in
// grid_state and row deletes reach storage, the row model and the selection.
type SelectionService struct {
	GridID   string
	Rows     *repository.RowRepo
	States   *repository.GridStateRepo
	Model    *rowmodel.Model
	Strategy *selection.Strategy
	Log      *slog.Logger
}

func (s *SelectionService) logger() *slog.Logger {
	if s.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Log
}

// Save persists the current selection snapshot.
func (s *SelectionService) Save(ctx context.Context) error {
	snap := s.Strategy.GetSelectedState()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	if err := s.States.Save(ctx, s.GridID, data); err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	s.logger().Info("selection saved", "grid", s.GridID, "selectAll", snap.SelectAll, "toggled", len(snap.ToggledNodes))
	return nil
}

// Restore loads the saved snapshot into the strategy. It reports false when
// nothing is saved. A malformed snapshot leaves the selection untouched.
func (s *SelectionService) Restore(ctx context.Context) (bool, error) {
	saved, err := s.States.Load(ctx, s.GridID)
	if err != nil {
		return false, fmt.Errorf("load selection: %w", err)
	}
	if saved == nil {
		return false, nil
	}
	if err := s.Strategy.SetSelectedState(json.RawMessage(saved.State)); err != nil {
		return false, fmt.Errorf("restore selection: %w", err)
	}
	s.logger().Info("selection restored", "grid", s.GridID, "savedAt", saved.UpdatedAt)
	return true, nil
}

// Forget removes the saved snapshot without touching the live selection.
func (s *SelectionService) Forget(ctx context.Context) error {
	if err := s.States.Delete(ctx, s.GridID); err != nil {
		return fmt.Errorf("delete selection: %w", err)
	}
	return nil
}

// DeleteRows removes rows from storage, then from the loaded model and the
// selection. It returns the ids that existed in storage.
func (s *SelectionService) DeleteRows(ctx context.Context, ids []string) ([]string, error) {
	deleted, err := s.Rows.Delete(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("delete rows: %w", err)
	}
	if len(deleted) == 0 {
		return nil, nil
	}
	stale := false
	if s.Model != nil {
		// unloaded rows still shift the offsets and total of the loaded blocks
		stale = len(s.Model.Remove(deleted)) < len(deleted)
	}
	changed := s.Strategy.DeleteSelectionStateFromParent(deleted)
	s.logger().Info("rows deleted", "grid", s.GridID, "rows", len(deleted), "selectionChanged", changed)
	if stale {
		if err := s.Model.Refresh(ctx); err != nil {
			return deleted, fmt.Errorf("refresh rows: %w", err)
		}
	}
	return deleted, nil
}

// LoadSnapshot reads and validates the saved snapshot of a grid. It returns nil
// when nothing is saved.
func LoadSnapshot(ctx context.Context, states *repository.GridStateRepo, gridID string) (*selection.Snapshot, error) {
	saved, err := states.Load(ctx, gridID)
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}
	if saved == nil {
		return nil, nil
	}
	st, _, err := selection.RestoreState(json.RawMessage(saved.State))
	if err != nil {
		return nil, fmt.Errorf("decode selection: %w", err)
	}
	snap := st.Snapshot()
	return &snap, nil
}
