package kb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/clinprec/svi/internal/domain"
)

func seedPopulationFrequencyDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "population_frequency.duckdb")

	db, err := sql.Open("duckdb", path)
	if err != nil {
		t.Fatalf("open seed db: %v", err)
	}
	defer db.Close()

	const schema = `CREATE TABLE population_frequency (
		chromosome VARCHAR, position BIGINT, reference VARCHAR, alternate VARCHAR,
		af_afr DOUBLE, af_amr DOUBLE, af_eas DOUBLE, af_nfe DOUBLE, af_sas DOUBLE, af_oth DOUBLE
	)`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO population_frequency VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		"chr7", int64(140753336), "A", "T", 0.0001, 0.0002, 0.0, 0.0123, 0.0, 0.0); err != nil {
		t.Fatalf("seed row: %v", err)
	}
	return path
}

func TestRangeKBPopulationFrequencyLookupTakesMax(t *testing.T) {
	path := seedPopulationFrequencyDB(t)

	k, err := OpenPopulationFrequencyKB(path, "gnomad-4.0", 1000)
	if err != nil {
		t.Fatalf("OpenPopulationFrequencyKB: %v", err)
	}
	defer k.Close()

	v := &domain.Variant{Chromosome: "chr7", Position: 140753336, Reference: "A", Alternate: "T"}
	hits, err := k.Lookup(context.Background(), v)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].AlleleFrequency != 0.0123 {
		t.Errorf("expected max continental AF 0.0123, got %v", hits[0].AlleleFrequency)
	}
}

func TestRangeKBPopulationFrequencyMiss(t *testing.T) {
	path := seedPopulationFrequencyDB(t)

	k, err := OpenPopulationFrequencyKB(path, "gnomad-4.0", 1000)
	if err != nil {
		t.Fatalf("OpenPopulationFrequencyKB: %v", err)
	}
	defer k.Close()

	v := &domain.Variant{Chromosome: "chr1", Position: 1, Reference: "A", Alternate: "G"}
	hits, err := k.Lookup(context.Background(), v)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if hits != nil {
		t.Errorf("expected no hits, got %+v", hits)
	}
}
