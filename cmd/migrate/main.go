package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/erp/procurement/internal/infrastructure/config"
	"github.com/erp/procurement/internal/infrastructure/logger"
	"github.com/erp/procurement/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)

	flag.StringVar(&migrationsPath, "path", defaultMigrationsPath, "Migrations source directory, used by create and list")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log := logger.New(logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	defer func() {
		_ = log.Sync()
	}()

	// create and list only touch the source tree
	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate create <name> [description]")
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		files, err := migration.CreateMigration(migrationsPath, args[1], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		for _, mf := range files {
			log.Info("Migration created",
				zap.String("driver", mf.Driver),
				zap.String("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
		}
		return

	case "list":
		names, err := migration.ListMigrations(migrationsPath)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		if len(names) == 0 {
			log.Info("No migrations found")
			return
		}
		for _, name := range names {
			fmt.Println("  -", name)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	m, closeDB := openMigrator(&cfg.Database, log)
	runErr := runDBCommand(m, command, args[1:], log)
	if err := m.Close(); err != nil {
		log.Warn("Failed to close migrator", zap.Error(err))
	}
	closeDB()

	if runErr != nil {
		log.Error("Migration command failed", zap.String("command", command), zap.Error(runErr))
		if errors.Is(runErr, errUnknownCommand) {
			printUsage()
		}
		os.Exit(1)
	}
}

var errUnknownCommand = errors.New("unknown command")

// runDBCommand executes the commands that need a live database
func runDBCommand(m *migration.Migrator, command string, rest []string, log *zap.Logger) error {
	intArg := func(usage string) (int, error) {
		if len(rest) == 0 {
			return 0, fmt.Errorf("missing argument, usage: migrate %s", usage)
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", rest[0])
		}
		return n, nil
	}

	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "step":
		n, err := intArg("step <n>")
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "force":
		version, err := intArg("force <version>")
		if err != nil {
			return err
		}
		return m.Force(version)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	}
	return fmt.Errorf("%w %q", errUnknownCommand, command)
}

// openMigrator connects through lib/pq for postgres and through the
// migrate URL for mysql.
func openMigrator(cfg *config.DatabaseConfig, log *zap.Logger) (*migration.Migrator, func()) {
	if cfg.Driver == config.DriverMySQL {
		m, err := migration.NewFromConfig(cfg, log)
		if err != nil {
			log.Fatal("Failed to create migrator", zap.Error(err))
		}
		return m, func() {}
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}
	m, err := migration.New(db, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	return m, func() { _ = db.Close() }
}

func printUsage() {
	fmt.Println(`Procurement Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  version               Show current migration version
  force <version>       Force set migration version (clears the dirty flag)
  create <name> [desc]  Create a new up/down pair for every driver
  list                  List available migrations

Flags:
  -path string          Migrations source directory (default: ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

The database is read from config.toml and ERP_DATABASE_* environment variables.
Migrations are embedded in the binary; -path only affects create and list.`)
}
