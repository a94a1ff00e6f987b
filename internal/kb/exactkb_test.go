package kb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/clinprec/svi/internal/domain"
)

// seedGeneRoleDB creates a throwaway SQLite file with the gene_role schema
// the package expects, matching the teacher's pattern of exercising the real
// driver against a disposable file rather than mocking database/sql.
func seedGeneRoleDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gene_role.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open seed db: %v", err)
	}
	defer db.Close()

	const schema = `CREATE TABLE gene_role (gene_symbol TEXT, record_id TEXT, role TEXT)`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO gene_role (gene_symbol, record_id, role) VALUES (?, ?, ?)`,
		"TP53", "gr-001", "tumor_suppressor"); err != nil {
		t.Fatalf("seed row: %v", err)
	}
	return path
}

func TestExactKBGeneRoleLookup(t *testing.T) {
	path := seedGeneRoleDB(t)

	k, err := OpenGeneRoleKB(path, "2026.1")
	if err != nil {
		t.Fatalf("OpenGeneRoleKB: %v", err)
	}
	defer k.Close()

	hits, err := k.Lookup(context.Background(), &domain.Variant{GeneSymbol: "TP53"})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(hits) != 1 || hits[0].GeneRole != "tumor_suppressor" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
}

func TestExactKBGeneRoleMiss(t *testing.T) {
	path := seedGeneRoleDB(t)

	k, err := OpenGeneRoleKB(path, "2026.1")
	if err != nil {
		t.Fatalf("OpenGeneRoleKB: %v", err)
	}
	defer k.Close()

	hits, err := k.Lookup(context.Background(), &domain.Variant{GeneSymbol: "KRAS"})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if hits != nil {
		t.Errorf("expected no hits for unseeded gene, got %+v", hits)
	}
}

func TestExactKBGeneRoleEmptySymbolShortCircuits(t *testing.T) {
	path := seedGeneRoleDB(t)

	k, err := OpenGeneRoleKB(path, "2026.1")
	if err != nil {
		t.Fatalf("OpenGeneRoleKB: %v", err)
	}
	defer k.Close()

	hits, err := k.Lookup(context.Background(), &domain.Variant{})
	if err != nil || hits != nil {
		t.Errorf("expected nil, nil for empty gene symbol, got %+v, %v", hits, err)
	}
}
