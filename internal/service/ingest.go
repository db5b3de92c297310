package service

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/jask/rowselect/internal/database/repository"
)

// IngestService appends imported rows to a grid.
type IngestService struct {
	Rows *repository.RowRepo
}

type IngestResult struct {
	Imported int
	Skipped  int
	Errors   []error
}

// ImportCSV reads rows with columns: label, group, amount, selectable.
// The first record is a header and is skipped. amount is dollars (string with
// optional minus), converted to cents. selectable is optional and defaults to true.
func (s *IngestService) ImportCSV(ctx context.Context, gridID string, r io.Reader) (IngestResult, error) {
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	var records [][]string
	var res IngestResult
	line := 0
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			records = append(records, nil)
			continue
		}
		records = append(records, rec)
	}
	return s.importRecords(ctx, gridID, records, res)
}

// ImportWorkbook reads the first sheet of an XLSX workbook with the same
// columns as ImportCSV.
func (s *IngestService) ImportWorkbook(ctx context.Context, gridID string, r io.Reader) (IngestResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return IngestResult{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return IngestResult{}, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return IngestResult{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return s.importRecords(ctx, gridID, rows, IngestResult{})
}

// importRecords turns records into rows after the header record. nil records
// mark lines that already failed to parse.
func (s *IngestService) importRecords(ctx context.Context, gridID string, records [][]string, res IngestResult) (IngestResult, error) {
	if strings.TrimSpace(gridID) == "" {
		return res, errors.New("grid id required")
	}
	next, err := s.Rows.NextPosition(ctx, gridID)
	if err != nil {
		return res, fmt.Errorf("next position: %w", err)
	}

	var rows []repository.Row
	for i, rec := range records {
		line := i + 1
		if i == 0 || rec == nil || blank(rec) {
			continue
		}
		if len(rec) < 3 { // label, group, amount
			res.Errors = append(res.Errors, fmt.Errorf("line %d: expected at least 3 columns (label, group, amount)", line))
			continue
		}
		label, group := strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1])
		if label == "" {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: label required", line))
			continue
		}
		amountCents, err := dollarsToCents(rec[2])
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d amount: %w", line, err))
			continue
		}
		selectable := true
		if len(rec) > 3 {
			selectable, err = parseSelectable(rec[3])
			if err != nil {
				res.Errors = append(res.Errors, fmt.Errorf("line %d selectable: %w", line, err))
				continue
			}
		}
		rows = append(rows, repository.Row{
			ID:         rowID(gridID, label, group, amountCents),
			GridID:     gridID,
			GroupKey:   group,
			Label:      label,
			Amount:     amountCents,
			Selectable: selectable,
			Position:   next + len(rows),
		})
	}
	if len(rows) == 0 {
		return res, nil
	}

	inserted, err := s.Rows.InsertBatch(ctx, rows)
	if err != nil {
		return res, fmt.Errorf("insert rows: %w", err)
	}
	res.Imported = inserted
	res.Skipped = len(rows) - inserted
	return res, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func dollarsToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimPrefix(s, "$")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f * 100)), nil
}

func parseSelectable(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1", "y", "yes", "true":
		return true, nil
	case "0", "n", "no", "false":
		return false, nil
	}
	return false, fmt.Errorf("unrecognised value %q", s)
}

// rowID derives a stable id so re-importing the same file skips known rows.
func rowID(gridID, label, group string, amountCents int64) string {
	key := strings.Join([]string{gridID, strings.ToLower(label), strings.ToLower(group), strconv.FormatInt(amountCents, 10)}, "|")
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}
