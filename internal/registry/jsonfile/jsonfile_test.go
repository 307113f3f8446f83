package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"ingest/internal/profile"
	"ingest/internal/registry"
)

func openCatalog(t *testing.T, path string) registry.Repository {
	t.Helper()
	repo, err := New(context.Background(), registry.Config{Kind: "jsonfile", DSN: path})
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	return repo
}

func sampleProfile(rows, cols int) profile.Profile {
	return profile.Profile{
		Columns:     []string{"fiscal_year", "amount"},
		DTypes:      map[string]string{"fiscal_year": "integer", "amount": "float"},
		NumRows:     rows,
		NumColumns:  cols,
		Missingness: map[string]float64{"fiscal_year": 0, "amount": 33.33},
		TimeColumns: []string{"fiscal_year"},
		GeoColumns:  []string{},
	}
}

func TestCatalogRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.json")

	repo := openCatalog(t, path)
	p := sampleProfile(3, 2)
	if err := repo.Register(ctx, "grants", "/data/raw/grants.csv", p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	repo.Close()

	// Reopen from disk and read the entry back.
	repo = openCatalog(t, path)
	got, ok, err := repo.Get(ctx, "grants")
	if err != nil || !ok {
		t.Fatalf("Get = (%v, %v), want found", ok, err)
	}
	if got.FilePath != "/data/raw/grants.csv" {
		t.Errorf("FilePath = %q", got.FilePath)
	}
	if got.NumRows != 3 || got.NumColumns != 2 {
		t.Errorf("counts = (%d, %d), want (3, 2)", got.NumRows, got.NumColumns)
	}
	if !reflect.DeepEqual(got.SchemaProfile, p) {
		t.Errorf("profile did not survive the round trip:\n got %+v\nwant %+v", got.SchemaProfile, p)
	}
}

func TestCatalogOverwrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openCatalog(t, filepath.Join(t.TempDir(), "registry.json"))

	if err := repo.Register(ctx, "grants", "a.csv", sampleProfile(3, 2)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Register(ctx, "grants", "b.csv", sampleProfile(9, 4)); err != nil {
		t.Fatal(err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("len(list) = %d, want 1 (last write wins)", len(list))
	}
	if list[0].FilePath != "b.csv" || list[0].NumRows != 9 {
		t.Errorf("surviving entry = %+v, want the second registration", list[0])
	}
}

func TestCatalogListSorted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openCatalog(t, filepath.Join(t.TempDir(), "registry.json"))

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := repo.Register(ctx, name, name+".csv", sampleProfile(1, 1)); err != nil {
			t.Fatal(err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, s := range list {
		names = append(names, s.Name)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "mid", "zeta"}) {
		t.Errorf("names = %v, want sorted order", names)
	}
}

func TestCatalogMissingFileStartsEmpty(t *testing.T) {
	t.Parallel()

	repo := openCatalog(t, filepath.Join(t.TempDir(), "registry.json"))
	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("fresh catalog should be empty, got %v", list)
	}
}

func TestCatalogCorruptFileStartsEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	repo := openCatalog(t, path)
	if _, ok, _ := repo.Get(ctx, "anything"); ok {
		t.Error("corrupt registry should read as empty")
	}

	// The next save replaces the corrupt document with a valid one.
	if err := repo.Register(ctx, "grants", "a.csv", sampleProfile(1, 1)); err != nil {
		t.Fatal(err)
	}
	repo = openCatalog(t, path)
	if _, ok, _ := repo.Get(ctx, "grants"); !ok {
		t.Error("registry should be readable after overwriting a corrupt file")
	}
}

func TestCatalogPreservesNonASCII(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.json")
	repo := openCatalog(t, path)

	p := sampleProfile(1, 1)
	p.Columns = []string{"région"}
	if err := repo.Register(ctx, "fr", "régions.csv", p); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "région") {
		t.Errorf("non-ASCII text should be stored unescaped, got %s", b)
	}
}
