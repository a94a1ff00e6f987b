package kb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clinprec/svi/internal/domain"
	_ "modernc.org/sqlite"
)

// ExactKB backs the smaller point-lookup knowledge bases — curated-level
// records, gene-role/TSG set membership, clinical-significance submissions —
// over pure-Go SQLite (spec §3 "gene symbol" / "amino-acid substitution"
// query shapes).
type ExactKB struct {
	db          *sql.DB
	name        string
	version     string
	shape       domain.QueryShape
	reliability domain.ReliabilityTier
}

// OpenCuratedLevelKB opens the curated-actionability-level exact-match KB.
func OpenCuratedLevelKB(path, version string) (*ExactKB, error) {
	return openExactKB(path, "curated_level", version, domain.QueryAASubstitution, domain.ReliabilityExpertCurated)
}

// OpenGeneRoleKB opens the gene-role (oncogene/TSG) exact-match KB.
func OpenGeneRoleKB(path, version string) (*ExactKB, error) {
	return openExactKB(path, "gene_role", version, domain.QueryGeneSymbol, domain.ReliabilityExpertCurated)
}

// OpenClinicalSignificanceKB opens the clinical-significance submission KB.
func OpenClinicalSignificanceKB(path, version string) (*ExactKB, error) {
	return openExactKB(path, "clinical_significance", version, domain.QueryAASubstitution, domain.ReliabilityCommunityCurated)
}

func openExactKB(path, name, version string, shape domain.QueryShape, reliability domain.ReliabilityTier) (*ExactKB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s knowledge base: %w", name, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s knowledge base: %w", name, err)
	}
	return &ExactKB{db: db, name: name, version: version, shape: shape, reliability: reliability}, nil
}

func (k *ExactKB) Name() string            { return k.name }
func (k *ExactKB) Version() string         { return k.version }
func (k *ExactKB) Shape() domain.QueryShape { return k.shape }

func (k *ExactKB) Lookup(ctx context.Context, v *domain.Variant) ([]domain.KnowledgeBaseHit, error) {
	switch k.shape {
	case domain.QueryGeneSymbol:
		return k.lookupGeneRole(ctx, v)
	case domain.QueryAASubstitution:
		if k.name == "curated_level" {
			return k.lookupCuratedLevel(ctx, v)
		}
		return k.lookupClinicalSignificance(ctx, v)
	default:
		return nil, fmt.Errorf("%s: %w", k.name, domain.ErrUnknownKnowledgeBase)
	}
}

func (k *ExactKB) lookupGeneRole(ctx context.Context, v *domain.Variant) ([]domain.KnowledgeBaseHit, error) {
	if v.GeneSymbol == "" {
		return nil, nil
	}
	const q = `SELECT record_id, role FROM gene_role WHERE gene_symbol = ?`
	row := k.db.QueryRowContext(ctx, q, v.GeneSymbol)

	var recordID, role string
	if err := row.Scan(&recordID, &role); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query %s knowledge base: %w", k.name, err)
	}
	return []domain.KnowledgeBaseHit{{
		KnowledgeBase: k.name, Version: k.version, RecordID: recordID,
		Reliability: k.reliability, Retrieved: time.Now().UTC(), GeneRole: role,
	}}, nil
}

func (k *ExactKB) lookupCuratedLevel(ctx context.Context, v *domain.Variant) ([]domain.KnowledgeBaseHit, error) {
	if v.GeneSymbol == "" || v.HGVSp == "" {
		return nil, nil
	}
	const q = `
		SELECT record_id, level, cancer_types_json, oncogenicity, drug_associations_json
		FROM curated_level WHERE gene_symbol = ? AND hgvs_p = ?`
	rows, err := k.db.QueryContext(ctx, q, v.GeneSymbol, v.HGVSp)
	if err != nil {
		return nil, fmt.Errorf("query %s knowledge base: %w", k.name, err)
	}
	defer rows.Close()

	var hits []domain.KnowledgeBaseHit
	for rows.Next() {
		var recordID, level, cancerTypesJSON, oncogenicity, drugsJSON string
		if err := rows.Scan(&recordID, &level, &cancerTypesJSON, &oncogenicity, &drugsJSON); err != nil {
			return nil, fmt.Errorf("scan %s knowledge base row: %w", k.name, err)
		}
		var cancerTypes []string
		_ = json.Unmarshal([]byte(cancerTypesJSON), &cancerTypes)
		var drugs []domain.DrugAssociation
		_ = json.Unmarshal([]byte(drugsJSON), &drugs)

		hits = append(hits, domain.KnowledgeBaseHit{
			KnowledgeBase: k.name, Version: k.version, RecordID: recordID,
			Reliability: k.reliability, Retrieved: time.Now().UTC(),
			CuratedLevel: level, CuratedCancerTypes: cancerTypes, DrugAssociations: drugs,
		})
	}
	return hits, rows.Err()
}

func (k *ExactKB) lookupClinicalSignificance(ctx context.Context, v *domain.Variant) ([]domain.KnowledgeBaseHit, error) {
	if v.GeneSymbol == "" || v.HGVSp == "" {
		return nil, nil
	}
	const q = `
		SELECT record_id, clinical_significance, review_status_stars
		FROM clinical_significance WHERE gene_symbol = ? AND hgvs_p = ?`
	rows, err := k.db.QueryContext(ctx, q, v.GeneSymbol, v.HGVSp)
	if err != nil {
		return nil, fmt.Errorf("query %s knowledge base: %w", k.name, err)
	}
	defer rows.Close()

	var hits []domain.KnowledgeBaseHit
	for rows.Next() {
		var recordID, sig string
		var stars int
		if err := rows.Scan(&recordID, &sig, &stars); err != nil {
			return nil, fmt.Errorf("scan %s knowledge base row: %w", k.name, err)
		}
		hits = append(hits, domain.KnowledgeBaseHit{
			KnowledgeBase: k.name, Version: k.version, RecordID: recordID,
			Reliability: k.reliability, Retrieved: time.Now().UTC(),
			ClinicalSignificance: sig, ReviewStatusStars: stars,
		})
	}
	return hits, rows.Err()
}

// Close releases the underlying SQLite connection.
func (k *ExactKB) Close() error { return k.db.Close() }
