package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/radar.fusion/internal/config"
	"github.com/banshee-data/radar.fusion/internal/fusion"
	"github.com/banshee-data/radar.fusion/internal/fusion/align"
	"github.com/banshee-data/radar.fusion/internal/fusion/jpda"
	"github.com/banshee-data/radar.fusion/internal/fusion/storage/sqlite"
	"github.com/banshee-data/radar.fusion/internal/fusion/tables"
	"github.com/banshee-data/radar.fusion/internal/version"
)

// Output file names written under -out.
const (
	annotatedFile = "annotated_detections.csv"
	correctedFile = "corrected_ground_truth.csv"
	summaryFile   = "summary.json"
)

type runOptions struct {
	configPath    string
	detections    string
	groundTruth   string
	dbPath        string
	dataset       string
	outDir        string
	workers       int
	persist       bool
	logDiag       bool
	logTrace      bool
	scoreOriginal bool
}

func parseRunFlags(args []string) (runOptions, error) {
	var o runOptions
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "tuning config (.json, .yaml); defaults when empty")
	fs.StringVar(&o.detections, "detections", "", "detections CSV")
	fs.StringVar(&o.groundTruth, "ground-truth", "", "ground-truth CSV")
	fs.StringVar(&o.dbPath, "db", "", "sqlite db to read the dataset from and store the run in")
	fs.StringVar(&o.dataset, "dataset", "", "dataset id in -db; CSV flags take precedence")
	fs.StringVar(&o.outDir, "out", "fusion-out", "output directory")
	fs.IntVar(&o.workers, "workers", 0, "cycles scored concurrently (0 keeps the config value)")
	fs.BoolVar(&o.persist, "persist", true, "store the run in -db when a database is given")
	fs.BoolVar(&o.logDiag, "log-diag", false, "enable the diag log stream")
	fs.BoolVar(&o.logTrace, "log-trace", false, "enable the per-cycle trace log stream")
	fs.BoolVar(&o.scoreOriginal, "score-original", false, "score against the uncorrected ground truth")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	fromCSV := o.detections != "" || o.groundTruth != ""
	switch {
	case fromCSV && (o.detections == "" || o.groundTruth == ""):
		return o, errors.New("-detections and -ground-truth must be given together")
	case !fromCSV && (o.dbPath == "" || o.dataset == ""):
		return o, errors.New("either -detections/-ground-truth or -db/-dataset is required")
	case o.workers < 0:
		return o, fmt.Errorf("-workers must be non-negative, got %d", o.workers)
	}
	if o.dataset == "" {
		base := filepath.Base(o.detections)
		o.dataset = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return o, nil
}

func loadTuning(o runOptions) (*config.TuningConfig, error) {
	cfg := config.DefaultTuningConfig()
	if o.configPath != "" {
		loaded, err := config.LoadTuningConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.workers > 0 {
		cfg.Workers = &o.workers
	}
	return cfg, nil
}

// evaluation is everything a run produces.
type evaluation struct {
	RunID       string
	Detections  []fusion.Detection
	Truth       []fusion.GroundTruthSample
	Alignment   *align.Result
	Association *jpda.Run
	Summary     tables.EvaluationSummary
}

func runCommand(args []string) error {
	o, err := parseRunFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	configureLogging(o.logDiag, o.logTrace)

	cfg, err := loadTuning(o)
	if err != nil {
		return err
	}

	var store *sqlite.Store
	if o.dbPath != "" {
		store, err = sqlite.Open(o.dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.MigrateUp(); err != nil {
			return err
		}
	}

	dets, truth, err := loadInputs(o, store)
	if err != nil {
		return err
	}
	fusion.Opsf("loaded %d detections and %d ground-truth samples", len(dets), len(truth))

	ev, err := evaluate(cfg, dets, truth, o.scoreOriginal)
	if err != nil {
		return err
	}
	if err := writeOutputs(o.outDir, ev); err != nil {
		return err
	}
	if store != nil && o.persist {
		if err := persist(store, o.dataset, cfg, ev); err != nil {
			return err
		}
	}
	fusion.Opsf("run %s: alignment %s, lag %d, %d/%d detections confirmed; results in %s",
		ev.RunID, ev.Summary.Alignment.Outcome, ev.Summary.Alignment.Lag,
		ev.Association.Summary.DetectionsConfirmed, ev.Association.Summary.DetectionsScored, o.outDir)
	return nil
}

func loadInputs(o runOptions, store *sqlite.Store) ([]fusion.Detection, []fusion.GroundTruthSample, error) {
	if o.detections != "" {
		dets, err := tables.ReadDetectionsFile(o.detections)
		if err != nil {
			return nil, nil, err
		}
		truth, err := tables.ReadGroundTruthFile(o.groundTruth)
		if err != nil {
			return nil, nil, err
		}
		return dets, truth, nil
	}

	dets, err := store.LoadDetections(o.dataset)
	if err != nil {
		return nil, nil, err
	}
	truth, err := store.LoadGroundTruth(o.dataset)
	if err != nil {
		return nil, nil, err
	}
	if len(dets) == 0 && len(truth) == 0 {
		return nil, nil, fmt.Errorf("dataset %q not found in %s", o.dataset, o.dbPath)
	}
	return dets, truth, nil
}

// evaluate aligns truth to dets and scores association against the
// corrected ground truth. When alignment produced no correction, or when
// scoreOriginal is set, the input ground truth is scored instead.
func evaluate(cfg *config.TuningConfig, dets []fusion.Detection, truth []fusion.GroundTruthSample, scoreOriginal bool) (*evaluation, error) {
	aligner, err := align.NewAligner(align.ConfigFromTuning(cfg))
	if err != nil {
		return nil, err
	}
	scorer, err := jpda.NewScorer(jpda.ConfigFromTuning(cfg))
	if err != nil {
		return nil, err
	}

	res, err := aligner.Run(dets, truth)
	if err != nil {
		return nil, fmt.Errorf("alignment: %w", err)
	}

	reference := res.Corrected
	switch {
	case scoreOriginal:
		reference = truth
	case reference == nil:
		fusion.Opsf("alignment outcome %s: scoring against uncorrected ground truth", res.Outcome)
		reference = truth
	}
	run, err := scorer.ScoreRun(dets, reference)
	if err != nil {
		return nil, fmt.Errorf("association: %w", err)
	}

	ev := &evaluation{
		RunID:       uuid.New().String(),
		Detections:  dets,
		Truth:       truth,
		Alignment:   res,
		Association: run,
	}
	ev.Summary = tables.EvaluationSummary{
		RunID:       ev.RunID,
		ToolVersion: version.String(),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Detections:  len(dets),
		GroundTruth: len(truth),
		Alignment:   res.Report(),
		Association: &run.Summary,
	}
	return ev, nil
}

func writeOutputs(dir string, ev *evaluation) error {
	err := tables.WriteFile(filepath.Join(dir, annotatedFile), func(w io.Writer) error {
		return tables.WriteAnnotatedDetections(w, ev.Detections, ev.Association.Results)
	})
	if err != nil {
		return err
	}
	if ev.Alignment.Corrected != nil {
		err = tables.WriteFile(filepath.Join(dir, correctedFile), func(w io.Writer) error {
			return tables.WriteGroundTruth(w, ev.Alignment.Corrected)
		})
		if err != nil {
			return err
		}
	}
	return tables.WriteFile(filepath.Join(dir, summaryFile), func(w io.Writer) error {
		return tables.WriteSummary(w, ev.Summary)
	})
}

func persist(store *sqlite.Store, dataset string, cfg *config.TuningConfig, ev *evaluation) error {
	params, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal tuning config: %w", err)
	}
	run := &sqlite.AlignmentRun{
		RunID:      ev.RunID,
		DatasetID:  dataset,
		Report:     ev.Summary.Alignment,
		ParamsJSON: params,
	}
	if err := store.InsertAlignmentRun(run); err != nil {
		return err
	}
	if err := store.InsertAssociationResults(run.RunID, ev.Association.Results); err != nil {
		return err
	}
	if ev.Alignment.Corrected != nil {
		if err := store.InsertCorrectedGroundTruth(run.RunID, ev.Alignment.Corrected); err != nil {
			return err
		}
	}
	fusion.Opsf("stored run %s in database", run.RunID)
	return nil
}
