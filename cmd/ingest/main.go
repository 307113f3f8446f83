// Command ingest runs one ingestion pass for a single raw dataset:
//
//  1. Load the source file into an in-memory table (column-normalized).
//  2. Generate a schema profile.
//  3. Register the dataset in the catalog.
//  4. Save the profile JSON to <data>/processed/<name>_profile.json.
//
// Usage:
//
//	ingest --file data/raw/irs_990_2020.csv --name irs_990_2020
//
// Exit codes:
//
//	0  success
//	1  any ingestion error (missing file, unsupported format, load or
//	   registry failure); the cause is logged
//
// The registry backend defaults to the flat-file JSON document under the
// processed directory. Select -registry-backend sqlite|postgres|mssql with
// -registry-dsn to catalog into a database instead.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ingest/internal/config"
	"ingest/internal/loader"
	"ingest/internal/metrics"
	"ingest/internal/metrics/datadog"
	"ingest/internal/profile"
	"ingest/internal/registry"

	// register all catalog backends with the factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "ingest/internal/registry/all"
)

func main() {
	var (
		filePath        string
		datasetName     string
		dataDir         string
		registryBackend string
		registryDSN     string
		metricsBackend  string
	)

	flag.StringVar(&filePath, "file", "", "path to the raw data file (CSV, TSV, Excel, or JSON)")
	flag.StringVar(&filePath, "f", "", "shorthand for -file")
	flag.StringVar(&datasetName, "name", "", "short, descriptive dataset name (e.g. irs_990_2020)")
	flag.StringVar(&datasetName, "n", "", "shorthand for -name")
	flag.StringVar(&dataDir, "data-dir", "", "data root holding raw/ and processed/ (env INGEST_DATA_DIR, default ./data)")
	flag.StringVar(&registryBackend, "registry-backend", "", "catalog backend: jsonfile|sqlite|postgres|mssql (env REGISTRY_BACKEND, default jsonfile)")
	flag.StringVar(&registryDSN, "registry-dsn", "", "catalog DSN; ignored by the jsonfile backend (env REGISTRY_DSN)")
	flag.StringVar(&metricsBackend, "metrics-backend", "", "metrics backend: none|datadog (env METRICS_BACKEND, default none)")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	logger := config.NewLogger(os.Stderr, *verbose)

	if strings.TrimSpace(filePath) == "" {
		fmt.Fprintln(os.Stderr, "missing -file")
		flag.Usage()
		os.Exit(1)
	}
	if strings.TrimSpace(datasetName) == "" {
		fmt.Fprintln(os.Stderr, "missing -name")
		flag.Usage()
		os.Exit(1)
	}

	paths, err := config.ResolvePaths(dataDir)
	if err != nil {
		fatalf(logger, "%v", err)
	}
	if err := paths.Bootstrap(); err != nil {
		fatalf(logger, "%v", err)
	}

	closeMetrics := initMetrics(logger, metricsBackend, datasetName, *verbose)
	defer closeMetrics()

	ctx := context.Background()
	start := time.Now()

	opts := ingestOptions{
		FilePath:        filePath,
		DatasetName:     datasetName,
		Paths:           paths,
		RegistryBackend: resolveBackend(registryBackend, paths),
		RegistryDSN:     resolveDSN(registryDSN, registryBackend, paths),
	}

	if err := runIngest(ctx, opts, logger); err != nil {
		metrics.IncCounter("ingest_runs_total", 1, metrics.Labels{"status": "error"})
		fatalf(logger, "ingestion failed: %v", err)
	}

	metrics.IncCounter("ingest_runs_total", 1, metrics.Labels{"status": "ok"})
	metrics.ObserveHistogram("ingest_run_duration_seconds", time.Since(start).Seconds(),
		metrics.Labels{"dataset": datasetName})

	if *verbose {
		logger.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// ingestOptions carries everything runIngest needs, so tests can call it
// without touching flags or the environment.
type ingestOptions struct {
	FilePath        string
	DatasetName     string
	Paths           config.Paths
	RegistryBackend string
	RegistryDSN     string
}

// runIngest executes the full load → profile → register → save sequence.
// The catalog is only touched after profiling succeeds; a failed run leaves
// no partial registry state for the dataset.
func runIngest(ctx context.Context, opts ingestOptions, logger config.Logger) error {
	logf := config.Ensure(logger)

	logf.Printf("starting ingestion: %s", opts.DatasetName)
	logf.Printf("source file: %s", opts.FilePath)

	t, err := loader.Load(opts.FilePath, logf)
	if err != nil {
		return err
	}
	metrics.IncCounter("ingest_rows_total", float64(t.NumRows()),
		metrics.Labels{"dataset": opts.DatasetName})

	p := profile.Generate(t, logf)

	repo, err := registry.New(ctx, registry.Config{
		Kind:   opts.RegistryBackend,
		DSN:    opts.RegistryDSN,
		Logger: logf,
	})
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	defer repo.Close()

	absPath, err := filepath.Abs(opts.FilePath)
	if err != nil {
		absPath = opts.FilePath
	}
	if err := repo.Register(ctx, opts.DatasetName, absPath, p); err != nil {
		return fmt.Errorf("register dataset: %w", err)
	}

	profilePath := opts.Paths.ProfilePath(opts.DatasetName)
	if err := writeProfile(profilePath, p); err != nil {
		return err
	}
	logf.Printf("schema profile saved to %s", profilePath)

	logf.Printf("ingestion complete for %q: rows=%d columns=%d time_cols=%v geo_cols=%v",
		opts.DatasetName, p.NumRows, p.NumColumns, p.TimeColumns, p.GeoColumns)
	return nil
}

// writeProfile serializes p as a plain JSON object: 2-space indent, UTF-8,
// non-ASCII preserved.
func writeProfile(path string, p profile.Profile) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write profile %s: %w", path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode profile %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close profile %s: %w", path, err)
	}
	return nil
}

// resolveBackend applies flag → env → default precedence for the catalog
// backend kind.
func resolveBackend(flagValue string, _ config.Paths) string {
	kind := strings.ToLower(strings.TrimSpace(flagValue))
	if kind == "" {
		kind = strings.ToLower(strings.TrimSpace(os.Getenv("REGISTRY_BACKEND")))
	}
	if kind == "" {
		kind = "jsonfile"
	}
	return kind
}

// resolveDSN applies flag → env precedence for the catalog DSN. The
// jsonfile backend's "DSN" is the registry document path under processed/.
func resolveDSN(flagValue, backendFlag string, paths config.Paths) string {
	dsn := strings.TrimSpace(flagValue)
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("REGISTRY_DSN"))
	}
	if dsn == "" && resolveBackend(backendFlag, paths) == "jsonfile" {
		dsn = paths.RegistryPath
	}
	return dsn
}

// initMetrics installs the selected metrics backend and returns its
// shutdown func. Unknown backends disable metrics rather than fail the
// run.
func initMetrics(logger *log.Logger, backendName, datasetName string, verbose bool) func() {
	name := strings.ToLower(strings.TrimSpace(backendName))
	if name == "" {
		name = strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_BACKEND")))
	}

	switch name {
	case "datadog":
		b, err := datadog.NewBackend(context.Background(), datadog.Options{
			JobName: datasetName,
			Tags:    datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS")),
		})
		if err != nil {
			logger.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return func() {}
		}
		logger.Printf("metrics: backend=datadog job_name=%s", datasetName)
		metrics.SetBackend(b)
		return func() {
			// Close stops the periodic flush loop and performs the final
			// flush; for short ingestion runs this is the submission that
			// actually ships the data.
			if err := b.Close(); err != nil {
				logger.Printf("metrics: datadog close/flush error: %v", err)
			}
		}

	case "", "none":
		if verbose {
			logger.Printf("metrics: disabled")
		}
		return func() {}

	default:
		logger.Printf("metrics: unknown backend %q; metrics disabled", name)
		return func() {}
	}
}

func fatalf(logger *log.Logger, format string, a ...any) {
	logger.Printf(format, a...)
	os.Exit(1)
}
