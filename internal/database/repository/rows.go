package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SortColumn is a whitelisted ORDER BY column for row pages.
type SortColumn string

const (
	SortPosition SortColumn = "position"
	SortLabel    SortColumn = "label"
	SortAmount   SortColumn = "amount"
	SortGroup    SortColumn = "group_key"
)

// SortColumns lists the columns in cycling order.
var SortColumns = []SortColumn{SortPosition, SortLabel, SortAmount, SortGroup}

func (c SortColumn) valid() bool {
	for _, s := range SortColumns {
		if s == c {
			return true
		}
	}
	return false
}

// RowQuery selects one page of a grid.
type RowQuery struct {
	GridID string
	Offset int
	Limit  int
	Sort   SortColumn
	Desc   bool
	Search string
}

// RowRepo handles grid rows.
type RowRepo struct {
	db *sql.DB
}

func NewRowRepo(db *sql.DB) *RowRepo { return &RowRepo{db: db} }

const rowColumns = "id, grid_id, group_key, label, amount, selectable, position, created_at, updated_at"

func (r *RowRepo) Insert(ctx context.Context, row Row) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO grid_rows(id, grid_id, group_key, label, amount, selectable, position, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, row.ID, row.GridID, row.GroupKey, row.Label, row.Amount, row.Selectable, row.Position)
	return err
}

// InsertBatch inserts rows in one transaction. Existing ids are skipped; the
// number of inserted rows is returned.
func (r *RowRepo) InsertBatch(ctx context.Context, rows []Row) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR IGNORE INTO grid_rows(id, grid_id, group_key, label, amount, selectable, position, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, row := range rows {
		res, err := stmt.ExecContext(ctx, row.ID, row.GridID, row.GroupKey, row.Label, row.Amount, row.Selectable, row.Position)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert row %s: %w", row.ID, err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *RowRepo) Count(ctx context.Context, gridID, search string) (int, error) {
	where, args := rowFilter(gridID, search)
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM grid_rows WHERE "+where, args...).Scan(&n)
	return n, err
}

// NextPosition returns the position after the last row of the grid.
func (r *RowRepo) NextPosition(ctx context.Context, gridID string) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM grid_rows WHERE grid_id = ?`, gridID).Scan(&next)
	return next, err
}

// Page returns one ordered slice of a grid. Ties are broken by id so pages are stable.
func (r *RowRepo) Page(ctx context.Context, q RowQuery) ([]Row, error) {
	sortCol := q.Sort
	if !sortCol.valid() {
		sortCol = SortPosition
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	where, args := rowFilter(q.GridID, q.Search)
	query := "SELECT " + rowColumns + " FROM grid_rows WHERE " + where +
		fmt.Sprintf(" ORDER BY %s %s, id %s", sortCol, dir, dir)
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *RowRepo) Get(ctx context.Context, id string) (*Row, error) {
	row, err := scanRow(r.db.QueryRowContext(ctx, "SELECT "+rowColumns+" FROM grid_rows WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *RowRepo) SetSelectable(ctx context.Context, id string, selectable bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE grid_rows SET selectable = ?, updated_at=CURRENT_TIMESTAMP WHERE id = ?`, selectable, id)
	return err
}

// Delete removes rows by id and returns the ids that existed.
func (r *RowRepo) Delete(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx, "SELECT id FROM grid_rows WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	var existing []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			_ = tx.Rollback()
			return nil, err
		}
		existing = append(existing, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM grid_rows WHERE id IN ("+placeholders+")", args...); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return existing, nil
}

func rowFilter(gridID, search string) (string, []interface{}) {
	where := []string{"grid_id = ?"}
	args := []interface{}{gridID}
	if search != "" {
		where = append(where, "label LIKE ?")
		args = append(args, "%"+search+"%")
	}
	return strings.Join(where, " AND "), args
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRow(s scanner) (Row, error) {
	var row Row
	if err := s.Scan(&row.ID, &row.GridID, &row.GroupKey, &row.Label, &row.Amount, &row.Selectable,
		&row.Position, &row.CreatedAt, &row.UpdatedAt); err != nil {
		return Row{}, err
	}
	return row, nil
}
