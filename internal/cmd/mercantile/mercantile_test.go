package mercantile

import (
	"context"
	"flag"
	"path/filepath"
	"testing"
)

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Setenv("MERCANTILE_DB_PATH", "/tmp/env.db")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-rebuild"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("db path = %q, want env value", cfg.DBPath)
	}
	if !cfg.Rebuild {
		t.Fatal("rebuild = false, want flag applied")
	}

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err = ParseConfig(fs, []string{"-db", "/tmp/flag.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/flag.db" {
		t.Fatalf("db path = %q, want flag override", cfg.DBPath)
	}
}

func TestRunDemoInMemory(t *testing.T) {
	if err := Run(context.Background(), Config{}); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunDemoThenRebuildSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "mercantile.db")

	if err := Run(context.Background(), Config{DBPath: dbPath}); err != nil {
		t.Fatalf("demo run: %v", err)
	}
	if err := Run(context.Background(), Config{DBPath: dbPath, Rebuild: true}); err != nil {
		t.Fatalf("rebuild run: %v", err)
	}
}

func TestLoadCatalogDefaults(t *testing.T) {
	catalog, err := loadCatalog("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if len(catalog) == 0 {
		t.Fatal("expected sample products")
	}

	customers, err := loadCustomers("")
	if err != nil {
		t.Fatalf("load customers: %v", err)
	}
	if customers.anyID() == "" {
		t.Fatal("expected a sample customer id")
	}
}
