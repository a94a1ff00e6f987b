// Package kb implements the Reference Data Layer (spec §2 item 1, §4.6):
// read-only, versioned knowledge bases behind a uniform lookup interface.
// Range-shaped knowledge bases (population frequency, hotspot recurrence)
// are backed by DuckDB, a natural fit for wide columnar range/aggregate
// queries; exact-match knowledge bases are backed by SQLite (see exactkb.go).
package kb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clinprec/svi/internal/domain"
	_ "github.com/marcboeker/go-duckdb"
	"golang.org/x/time/rate"
)

// RangeKB backs the population-frequency and hotspot-recurrence knowledge
// bases over a DuckDB-embedded columnar table (spec §3 "position range"
// query shape).
type RangeKB struct {
	db      *sql.DB
	name    string
	version string
	shape   domain.QueryShape
	reliability domain.ReliabilityTier
	limiter *rate.Limiter
}

// OpenPopulationFrequencyKB opens the population-frequency range KB at path.
func OpenPopulationFrequencyKB(path, version string, ioRateHz float64) (*RangeKB, error) {
	return openRangeKB(path, "population_frequency", version, domain.QueryPositionRange, domain.ReliabilityComputational, ioRateHz)
}

// OpenHotspotKB opens the hotspot-recurrence range KB at path.
func OpenHotspotKB(path, version string, ioRateHz float64) (*RangeKB, error) {
	return openRangeKB(path, "hotspot", version, domain.QueryCodonPosition, domain.ReliabilityExpertCurated, ioRateHz)
}

func openRangeKB(path, name, version string, shape domain.QueryShape, reliability domain.ReliabilityTier, ioRateHz float64) (*RangeKB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open %s knowledge base: %w", name, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s knowledge base: %w", name, err)
	}
	return &RangeKB{
		db: db, name: name, version: version, shape: shape, reliability: reliability,
		limiter: rate.NewLimiter(rate.Limit(ioRateHz), 1),
	}, nil
}

func (k *RangeKB) Name() string            { return k.name }
func (k *RangeKB) Version() string         { return k.version }
func (k *RangeKB) Shape() domain.QueryShape { return k.shape }

// Lookup issues the KB-appropriate range query for the variant. Population-
// frequency is a position-exact lookup against the continental-AF table;
// hotspot is an exact gene-symbol + HGVS protein-change lookup returning each
// matching record's counts; no codon-level aggregation is done.
func (k *RangeKB) Lookup(ctx context.Context, v *domain.Variant) ([]domain.KnowledgeBaseHit, error) {
	if err := k.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s knowledge base rate limit: %w", k.name, err)
	}

	switch k.shape {
	case domain.QueryPositionRange:
		return k.lookupPopulationFrequency(ctx, v)
	case domain.QueryCodonPosition:
		return k.lookupHotspot(ctx, v)
	default:
		return nil, fmt.Errorf("%s: %w", k.name, domain.ErrUnknownKnowledgeBase)
	}
}

func (k *RangeKB) lookupPopulationFrequency(ctx context.Context, v *domain.Variant) ([]domain.KnowledgeBaseHit, error) {
	const q = `
		SELECT af_afr, af_amr, af_eas, af_nfe, af_sas, af_oth
		FROM population_frequency
		WHERE chromosome = ? AND position = ? AND reference = ? AND alternate = ?`
	row := k.db.QueryRowContext(ctx, q, v.Chromosome, v.Position, v.Reference, v.Alternate)

	var afs [6]sql.NullFloat64
	if err := row.Scan(&afs[0], &afs[1], &afs[2], &afs[3], &afs[4], &afs[5]); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query %s knowledge base: %w", k.name, err)
	}

	var maxAF float64
	for _, af := range afs {
		if af.Valid && af.Float64 > maxAF {
			maxAF = af.Float64
		}
	}
	return []domain.KnowledgeBaseHit{{
		KnowledgeBase:   k.name,
		Version:         k.version,
		RecordID:        v.Key().String(),
		Reliability:     k.reliability,
		Retrieved:       time.Now().UTC(),
		AlleleFrequency: maxAF,
	}}, nil
}

func (k *RangeKB) lookupHotspot(ctx context.Context, v *domain.Variant) ([]domain.KnowledgeBaseHit, error) {
	if v.GeneSymbol == "" {
		return nil, nil
	}
	const q = `
		SELECT record_id, observation_count, sample_count
		FROM hotspot
		WHERE gene_symbol = ? AND hgvs_p = ?`
	rows, err := k.db.QueryContext(ctx, q, v.GeneSymbol, v.HGVSp)
	if err != nil {
		return nil, fmt.Errorf("query %s knowledge base: %w", k.name, err)
	}
	defer rows.Close()

	var hits []domain.KnowledgeBaseHit
	for rows.Next() {
		var recordID string
		var obs, samples int
		if err := rows.Scan(&recordID, &obs, &samples); err != nil {
			return nil, fmt.Errorf("scan %s knowledge base row: %w", k.name, err)
		}
		hits = append(hits, domain.KnowledgeBaseHit{
			KnowledgeBase:       k.name,
			Version:             k.version,
			RecordID:            recordID,
			Reliability:         k.reliability,
			Retrieved:           time.Now().UTC(),
			HotspotObservations: obs,
			HotspotSampleCount:  samples,
		})
	}
	return hits, rows.Err()
}

// Close releases the underlying DuckDB connection.
func (k *RangeKB) Close() error { return k.db.Close() }
