package registry

import (
	"context"
	"strings"
	"testing"
	"time"

	"ingest/internal/profile"
)

func TestNewUnsupportedKind(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Kind: "etcd"})
	if err == nil || !strings.Contains(err.Error(), "unsupported backend kind") {
		t.Fatalf("expected unsupported-kind error, got %v", err)
	}

	_, err = New(context.Background(), Config{})
	if err == nil || !strings.Contains(err.Error(), "missing backend kind") {
		t.Fatalf("expected missing-kind error, got %v", err)
	}
}

func TestRegisterBackendPanics(t *testing.T) {
	t.Parallel()

	mustPanic := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		fn()
	}

	f := func(context.Context, Config) (Repository, error) { return nil, nil }

	mustPanic("empty kind", func() { RegisterBackend("", f) })
	mustPanic("nil factory", func() { RegisterBackend("test-nil", nil) })

	RegisterBackend("test-dup", f)
	mustPanic("duplicate kind", func() { RegisterBackend("test-dup", f) })
}

func TestNewEntry(t *testing.T) {
	t.Parallel()

	p := profile.Profile{NumRows: 7, NumColumns: 3}
	before := time.Now().UTC()
	e := NewEntry("/data/raw/funds.csv", p)

	if e.FilePath != "/data/raw/funds.csv" {
		t.Errorf("FilePath = %q", e.FilePath)
	}
	if e.NumRows != 7 || e.NumColumns != 3 {
		t.Errorf("counts = (%d, %d), want (7, 3)", e.NumRows, e.NumColumns)
	}
	if e.RegisteredAt.Before(before) || e.RegisteredAt.Location() != time.UTC {
		t.Errorf("RegisteredAt = %v, want recent UTC time", e.RegisteredAt)
	}
}
