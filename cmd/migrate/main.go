package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/fishfarm/backend/internal/infrastructure/config"
	"github.com/fishfarm/backend/internal/infrastructure/logger"
	"github.com/fishfarm/backend/internal/infrastructure/migration"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
		confirm        bool
	)
	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded copy")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&confirm, "confirm", false, "Confirm destructive commands (drop)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(log, args, migrationsPath, confirm); err != nil {
		log.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.Logger, args []string, migrationsPath string, confirm bool) error {
	command := args[0]

	// create and list work on files only
	switch command {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("migration name required: migrate create <name> [description]")
		}
		dir := migrationsPath
		if dir == "" {
			dir = defaultMigrationsDir
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(dir, args[1], description)
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return nil
	case "list":
		dir := migrationsPath
		if dir == "" {
			dir = defaultMigrationsDir
		}
		files, err := migration.ListMigrations(dir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			log.Info("No migrations found", zap.String("dir", dir))
			return nil
		}
		for _, f := range files {
			fmt.Println("  -", f.BaseName())
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	db, err := sql.Open("pgx", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	var opts []migration.Option
	if migrationsPath != "" {
		opts = append(opts, migration.WithDirectory(migrationsPath))
	}
	m, err := migration.New(db, log, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}()

	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "step":
		if len(args) < 2 {
			return fmt.Errorf("step count required: migrate step <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[1])
		}
		return m.Steps(n)
	case "goto":
		if len(args) < 2 {
			return fmt.Errorf("version required: migrate goto <version>")
		}
		v, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		return m.GoTo(uint(v))
	case "version", "status":
		status, err := m.Status()
		if err != nil {
			return err
		}
		if !status.Applied {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version",
			zap.Uint("version", status.Version),
			zap.Bool("dirty", status.Dirty),
		)
		return nil
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("version required: migrate force <version>")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		log.Warn("Forcing migration version", zap.Int("version", v))
		return m.Force(v)
	case "drop":
		if !confirm {
			return fmt.Errorf("drop removes every table; rerun with -confirm")
		}
		return m.Drop()
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage() {
	fmt.Println(`Fish farm database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version | status      Show current migration version
  force <version>       Record a version without running SQL
  drop                  Drop all database objects (requires -confirm)
  create <name> [desc]  Create a new migration file pair
  list                  List migrations on disk

Flags:
  -path string          Migrations directory (default: embedded; create/list use ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)
  -confirm              Confirm drop

Database settings come from config.toml or FISHFARM_DATABASE_* environment variables.`)
}
