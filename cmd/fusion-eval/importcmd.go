package main

import (
	"errors"
	"flag"
	"log"

	"github.com/banshee-data/radar.fusion/internal/fusion/storage/sqlite"
	"github.com/banshee-data/radar.fusion/internal/fusion/tables"
)

func importCommand(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dbPath := fs.String("db", "fusion.db", "path to sqlite db")
	dataset := fs.String("dataset", "", "dataset id to store the tables under")
	detPath := fs.String("detections", "", "detections CSV")
	gtPath := fs.String("ground-truth", "", "ground-truth CSV")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataset == "" {
		return errors.New("-dataset is required")
	}
	if *detPath == "" && *gtPath == "" {
		return errors.New("at least one of -detections or -ground-truth is required")
	}
	configureLogging(false, false)

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.MigrateUp(); err != nil {
		return err
	}

	if *detPath != "" {
		dets, err := tables.ReadDetectionsFile(*detPath)
		if err != nil {
			return err
		}
		if err := store.ReplaceDetections(*dataset, dets); err != nil {
			return err
		}
		log.Printf("imported %d detections into dataset %q", len(dets), *dataset)
	}
	if *gtPath != "" {
		truth, err := tables.ReadGroundTruthFile(*gtPath)
		if err != nil {
			return err
		}
		if err := store.ReplaceGroundTruth(*dataset, truth); err != nil {
			return err
		}
		log.Printf("imported %d ground-truth samples into dataset %q", len(truth), *dataset)
	}
	return nil
}
