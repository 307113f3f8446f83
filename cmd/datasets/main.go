// Command datasets lists the contents of the dataset catalog.
//
// Default output is an aligned text table; -json emits the summaries as a
// JSON array for scripting.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"ingest/internal/config"
	"ingest/internal/registry"

	_ "ingest/internal/registry/all"
)

func main() {
	var (
		dataDir         string
		registryBackend string
		registryDSN     string
		asJSON          bool
	)

	flag.StringVar(&dataDir, "data-dir", "", "data root holding raw/ and processed/ (env INGEST_DATA_DIR, default ./data)")
	flag.StringVar(&registryBackend, "registry-backend", "", "catalog backend: jsonfile|sqlite|postgres|mssql (env REGISTRY_BACKEND, default jsonfile)")
	flag.StringVar(&registryDSN, "registry-dsn", "", "catalog DSN; ignored by the jsonfile backend (env REGISTRY_DSN)")
	flag.BoolVar(&asJSON, "json", false, "emit the dataset list as JSON")
	flag.Parse()

	logger := config.NewLogger(os.Stderr, false)

	paths, err := config.ResolvePaths(dataDir)
	if err != nil {
		fatalf("%v", err)
	}

	kind := strings.ToLower(strings.TrimSpace(registryBackend))
	if kind == "" {
		kind = strings.ToLower(strings.TrimSpace(os.Getenv("REGISTRY_BACKEND")))
	}
	if kind == "" {
		kind = "jsonfile"
	}

	dsn := strings.TrimSpace(registryDSN)
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("REGISTRY_DSN"))
	}
	if dsn == "" && kind == "jsonfile" {
		dsn = paths.RegistryPath
	}

	ctx := context.Background()
	repo, err := registry.New(ctx, registry.Config{Kind: kind, DSN: dsn, Logger: logger})
	if err != nil {
		fatalf("open registry: %v", err)
	}
	defer repo.Close()

	summaries, err := repo.List(ctx)
	if err != nil {
		fatalf("list datasets: %v", err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(summaries); err != nil {
			fatalf("encode datasets: %v", err)
		}
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tROWS\tCOLS\tREGISTERED\tFILE")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n",
			s.Name, s.NumRows, s.NumColumns,
			s.RegisteredAt.Format(time.RFC3339), s.FilePath)
	}
	_ = w.Flush()

	if len(summaries) == 0 {
		fmt.Fprintln(os.Stderr, "registry is empty")
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
