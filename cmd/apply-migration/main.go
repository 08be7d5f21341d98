// Command apply-migration runs .sql files against the configured database.
// Each file is executed as a single statement batch inside one transaction,
// so plpgsql bodies with embedded semicolons work and a failed file leaves
// nothing half-applied.
//
// Usage:
//
//	apply-migration migrations/001_schema.sql [more.sql ...]
//	apply-migration migrations/
//
// Migrations must run as a role that owns the tables (not the runtime app
// role), so this command connects with MIGRATE_DB_USER/MIGRATE_DB_PASSWORD
// when set and skips the runtime bypass-RLS check.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"autoshop-admin/internal/config"
	"autoshop-admin/internal/platform/database"
	"autoshop-admin/internal/platform/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: apply-migration <file.sql|dir> [...]")
		os.Exit(2)
	}

	cfg := config.Load()
	if u := os.Getenv("MIGRATE_DB_USER"); u != "" {
		cfg.Database.User = u
		cfg.Database.Password = os.Getenv("MIGRATE_DB_PASSWORD")
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "apply-migration")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.OpenPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()

	files, err := collectFiles(os.Args[1:])
	if err != nil {
		log.Fatal("Bad arguments", zap.Error(err))
	}
	if len(files) == 0 {
		log.Fatal("No .sql files found")
	}

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatal("Read failed", zap.String("file", file), zap.Error(err))
		}
		if strings.TrimSpace(string(content)) == "" {
			log.Warn("Skipping empty file", zap.String("file", file))
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			log.Fatal("Begin failed", zap.String("file", file), zap.Error(err))
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			log.Fatal("Migration failed", zap.String("file", file), zap.Error(err))
		}
		if err := tx.Commit(); err != nil {
			log.Fatal("Commit failed", zap.String("file", file), zap.Error(err))
		}
		log.Info("Applied", zap.String("file", file))
	}

	log.Info("Done", zap.Int("files", len(files)))
}

// collectFiles expands directory arguments to their .sql files, sorted by
// name so numbered migrations apply in order.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
				files = append(files, filepath.Join(arg, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
