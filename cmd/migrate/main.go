package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/chrissnell/stickplot/internal/log"
	"github.com/chrissnell/stickplot/pkg/config"
	"github.com/chrissnell/stickplot/pkg/migrate"
	_ "modernc.org/sqlite" // SQLite driver
)

func main() {
	var (
		dbPath        = flag.String("db", "", "SQLite plot configuration database")
		migrationDir  = flag.String("dir", "", "Read migrations from this directory instead of the built-in plots schema")
		command       = flag.String("command", "up", "Migration command: up, to, version, status")
		targetVersion = flag.Int("target", -1, "Target version for the to command")
		debug         = flag.Bool("debug", false, "Turn on debugging output")
		helpFlag      = flag.Bool("help", false, "Show help")
	)

	flag.Parse()

	if *helpFlag {
		showHelp()
		return
	}

	if *dbPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -db flag is required\n")
		showHelp()
		os.Exit(1)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	var provider migrate.MigrationProvider = config.SchemaMigrations()
	if *migrationDir != "" {
		log.Warnf("Reading migrations from %s instead of the built-in plots schema", *migrationDir)
		provider = migrate.NewFileProvider(*migrationDir, "")
	}
	migrator := migrate.NewMigrator(db, provider, log.GetSugaredLogger())

	switch *command {
	case "up":
		err = migrator.MigrateUp()
	case "to":
		if *targetVersion < 0 {
			fmt.Fprintf(os.Stderr, "Error: -target flag is required for the to command\n")
			os.Exit(1)
		}
		err = migrator.MigrateTo(*targetVersion)
	case "version":
		version, err := migrator.CurrentVersion()
		if err != nil {
			log.Fatalf("Failed to get current version: %v", err)
		}
		fmt.Printf("Current version: %d\n", version)
		return
	case "status":
		err = showStatus(migrator)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", *command)
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("Migration command failed: %v", err)
	}

	fmt.Println("Migration completed successfully")
}

func showStatus(migrator *migrate.Migrator) error {
	currentVersion, err := migrator.CurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	pending, err := migrator.Pending()
	if err != nil {
		return fmt.Errorf("failed to get pending migrations: %w", err)
	}

	fmt.Printf("Current version: %d\n", currentVersion)
	fmt.Printf("Pending migrations: %d\n", len(pending))

	for _, migration := range pending {
		fmt.Printf("  %d: %s\n", migration.Version, migration.Name)
	}

	return nil
}

func showHelp() {
	fmt.Println("Plot configuration schema tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  migrate -db plots.db [flags]")
	fmt.Println()
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up                 Apply all pending migrations")
	fmt.Println("  to                 Migrate to a specific version (up or down)")
	fmt.Println("  version            Show current migration version")
	fmt.Println("  status             Show migration status")
}
