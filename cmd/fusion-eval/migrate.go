package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/banshee-data/radar.fusion/internal/fusion/storage/sqlite"
)

func migrateCommand(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbPath := fs.String("db", "fusion.db", "path to sqlite db")
	diag := fs.Bool("log-diag", false, "log migration detail to stderr")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: fusion-eval migrate [-db path] up|down|status")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one migrate action")
	}
	configureLogging(*diag, false)

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	switch action := fs.Arg(0); action {
	case "up":
		log.Printf("Running migrations...")
		if err := store.MigrateUp(); err != nil {
			return err
		}
		log.Println("All migrations applied")
	case "down":
		log.Printf("Rolling back one migration...")
		if err := store.MigrateDown(); err != nil {
			return err
		}
	case "status":
	default:
		fs.Usage()
		return fmt.Errorf("unknown migrate action %q", action)
	}

	version, dirty, err := store.MigrateVersion()
	if err != nil {
		return err
	}
	fmt.Printf("schema version: %d (dirty: %v)\n", version, dirty)
	return nil
}
