package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jask/rowselect/internal/config"
	"github.com/jask/rowselect/internal/database"
	"github.com/jask/rowselect/internal/database/repository"
	"github.com/jask/rowselect/internal/tui"
)

var (
	gridFlag   string
	formatFlag string

	rootCmd = &cobra.Command{
		Use:   "rowselect",
		Short: "Browse a grid of rows and manage its selection",
		Long:  `rowselect opens a terminal grid over rows stored in sqlite. Rows can be toggled, range-selected with shift, selected all at once, and the selection saved per grid.`,
		Run:   runGrid,
	}
	seedCmd = &cobra.Command{
		Use:   "seed [count]",
		Short: "Fill an empty grid with demo rows",
		Args:  cobra.MaximumNArgs(1),
		Run:   runSeed,
	}
	importCmd = &cobra.Command{
		Use:   "import [file.csv|file.xlsx]",
		Short: "Append rows from a CSV file or the first sheet of a workbook",
		Long:  `Columns: label, group, amount, selectable. The first row is a header. Rows already in the grid are skipped.`,
		Args:  cobra.ExactArgs(1),
		Run:   runImport,
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and print the schema version",
		Run:   runMigrate,
	}
	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "DANGER: delete every row and the saved selection of the grid",
		Run:   runReset,
	}
	stateCmd = &cobra.Command{
		Use:   "state",
		Short: "Inspect or change the saved selection of a grid",
	}
	stateShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the saved selection snapshot",
		Run:   runStateShow,
	}
	stateClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved selection snapshot",
		Run:   runStateClear,
	}
	stateRestoreCmd = &cobra.Command{
		Use:   "restore [snapshot.json|snapshot.yaml]",
		Short: "Validate a snapshot file and save it as the grid's selection",
		Args:  cobra.ExactArgs(1),
		Run:   runStateRestore,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&gridFlag, "grid", "", "grid id (defaults to selection.grid_id)")
	stateShowCmd.Flags().StringVar(&formatFlag, "format", "json", "output format: json or yaml")

	stateCmd.AddCommand(stateShowCmd, stateClearCmd, stateRestoreCmd)
	rootCmd.AddCommand(seedCmd, importCmd, migrateCmd, resetCmd, stateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if gridFlag != "" {
		cfg.Selection.GridID = gridFlag
	}
	return cfg
}

// openDB opens and migrates the configured database.
func openDB(cfg config.Config) *sql.DB {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	if cfg.Database.Migrations != "" {
		err = database.RunMigrationsFrom(cfg.Database.Path, cfg.Database.Migrations)
	} else {
		err = database.RunMigrations(db)
	}
	if err != nil {
		_ = db.Close()
		log.Fatalf("migrate: %v", err)
	}
	return db
}

func newLogger(cfg config.Config, w *os.File) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel()}))
}

func runGrid(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	// the grid owns the terminal, so logs go next to the database
	logPath := filepath.Join(filepath.Dir(cfg.Database.Path), "rowselect.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		log.Printf("warn: logging disabled, cannot open %s: %v", logPath, err)
		logFile = nil
	}
	var logger *slog.Logger
	if logFile != nil {
		defer logFile.Close()
		logger = newLogger(cfg, logFile)
	}

	app, err := tui.New(ctx, cfg, tui.Deps{
		Rows:   repository.NewRowRepo(db),
		States: repository.NewGridStateRepo(db),
		Log:    logger,
	})
	if err != nil {
		log.Fatalf("load grid: %v", err)
	}
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}
