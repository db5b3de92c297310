package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jask/rowselect/internal/database/repository"
)

var (
	seedGroups = []string{"North", "South", "East", "West"}
	seedWords  = []string{"Invoice", "Refund", "Payroll", "Transfer", "Deposit", "Fee", "Rebate", "Subscription"}
)

// SeedRowID returns the deterministic id of the n-th demo row of a grid.
func SeedRowID(gridID string, n int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("row:%s:%d", gridID, n))).String()
}

// SeedRows fills an empty grid with n demo rows. It is idempotent: a grid that
// already has rows is left alone and 0 is returned.
func SeedRows(ctx context.Context, db *sql.DB, gridID string, n int) (int, error) {
	rowRepo := repository.NewRowRepo(db)
	existing, err := rowRepo.Count(ctx, gridID, "")
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, nil
	}

	rows := make([]repository.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, repository.Row{
			ID:       SeedRowID(gridID, i),
			GridID:   gridID,
			GroupKey: seedGroups[i%len(seedGroups)],
			Label:    fmt.Sprintf("%s %04d", seedWords[(i*7)%len(seedWords)], i),
			Amount:   int64((i*7919)%100000) - 50000,
			// every 13th row is locked to exercise unselectable rows
			Selectable: i%13 != 12,
			Position:   i,
		})
	}
	return rowRepo.InsertBatch(ctx, rows)
}
