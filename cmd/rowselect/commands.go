package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jask/rowselect/internal/database"
	"github.com/jask/rowselect/internal/database/repository"
	"github.com/jask/rowselect/internal/selection"
	"github.com/jask/rowselect/internal/service"
)

const defaultSeedRows = 500

func runSeed(cmd *cobra.Command, args []string) {
	n := defaultSeedRows
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			log.Fatalf("seed: count must be a positive integer, got %q", args[0])
		}
		n = v
	}
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	inserted, err := database.SeedRows(context.Background(), db, cfg.Selection.GridID, n)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if inserted == 0 {
		fmt.Printf("grid %s already has rows, nothing seeded\n", cfg.Selection.GridID)
		return
	}
	fmt.Printf("seeded %d rows into grid %s\n", inserted, cfg.Selection.GridID)
}

func runImport(cmd *cobra.Command, args []string) {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("import: %v", err)
	}
	defer f.Close()

	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	ingester := &service.IngestService{Rows: repository.NewRowRepo(db)}
	ctx := context.Background()
	var res service.IngestResult
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		res, err = ingester.ImportWorkbook(ctx, cfg.Selection.GridID, f)
	default:
		res, err = ingester.ImportCSV(ctx, cfg.Selection.GridID, f)
	}
	if err != nil {
		log.Fatalf("import: %v", err)
	}
	fmt.Printf("imported %d, skipped %d, errors %d\n", res.Imported, res.Skipped, len(res.Errors))
	for _, e := range res.Errors {
		log.Printf("warn: %v", e)
	}
}

func runMigrate(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	version, dirty, ok, err := database.SchemaVersion(db)
	if err != nil {
		log.Fatalf("schema version: %v", err)
	}
	if !ok {
		fmt.Println("no migrations applied")
		return
	}
	fmt.Printf("schema version %d (dirty=%t)\n", version, dirty)
}

func runReset(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	maintenance := &service.MaintenanceService{DB: db}
	if err := maintenance.ResetGrid(context.Background(), cfg.Selection.GridID); err != nil {
		log.Fatalf("reset: %v", err)
	}
	fmt.Printf("grid %s reset\n", cfg.Selection.GridID)
}

func runStateShow(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	snap, err := service.LoadSnapshot(context.Background(), repository.NewGridStateRepo(db), cfg.Selection.GridID)
	if err != nil {
		log.Fatalf("state: %v", err)
	}
	if snap == nil {
		fmt.Printf("no saved selection for grid %s\n", cfg.Selection.GridID)
		return
	}
	if err := writeSnapshot(os.Stdout, *snap, formatFlag); err != nil {
		log.Fatalf("state: %v", err)
	}
}

func runStateClear(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	if err := repository.NewGridStateRepo(db).Delete(context.Background(), cfg.Selection.GridID); err != nil {
		log.Fatalf("state: %v", err)
	}
	fmt.Printf("saved selection for grid %s cleared\n", cfg.Selection.GridID)
}

func runStateRestore(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("state: %v", err)
	}
	snap, skipped, err := readSnapshot(data, filepath.Ext(args[0]))
	if err != nil {
		log.Fatalf("state: %v", err)
	}
	for _, v := range skipped {
		log.Printf("warn: ignoring non-string row id %v", v)
	}

	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	encoded, err := json.Marshal(snap)
	if err != nil {
		log.Fatalf("state: %v", err)
	}
	if err := repository.NewGridStateRepo(db).Save(context.Background(), cfg.Selection.GridID, encoded); err != nil {
		log.Fatalf("state: %v", err)
	}
	fmt.Printf("saved selection for grid %s (selectAll=%t, %d toggled)\n", cfg.Selection.GridID, snap.SelectAll, len(snap.ToggledNodes))
}

// writeSnapshot prints snap as indented JSON or YAML.
func writeSnapshot(w io.Writer, snap selection.Snapshot, format string) error {
	switch strings.ToLower(format) {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}

// readSnapshot decodes and validates a snapshot file. YAML is used for .yaml
// and .yml files, JSON otherwise.
func readSnapshot(data []byte, ext string) (selection.Snapshot, []any, error) {
	var raw any = json.RawMessage(data)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var obj map[string]any
		if err := yaml.Unmarshal(data, &obj); err != nil {
			return selection.Snapshot{}, nil, fmt.Errorf("decode yaml: %w", err)
		}
		raw = obj
	}
	st, skipped, err := selection.RestoreState(raw)
	if err != nil {
		return selection.Snapshot{}, nil, err
	}
	return st.Snapshot(), skipped, nil
}
