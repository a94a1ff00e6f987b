package config

import (
	"fmt"
	"strings"

	"github.com/clinprec/svi/internal/domain"
	"github.com/spf13/viper"
)

// Manager implements domain.ConfigManager using Viper.
type Manager struct {
	v      *viper.Viper
	config *domain.Config
}

// NewManager builds a Manager, loading defaults, an optional YAML file named
// "svi.yaml" from the current directory, "./config", or "/etc/svi/", and
// SVI_-prefixed environment variable overrides.
func NewManager() (*Manager, error) {
	m := &Manager{v: viper.New()}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	m.v.SetConfigName("svi")
	m.v.SetConfigType("yaml")
	m.v.AddConfigPath(".")
	m.v.AddConfigPath("./config")
	m.v.AddConfigPath("/etc/svi/")

	m.v.SetEnvPrefix("SVI")
	m.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.v.AutomaticEnv()

	m.setDefaults()

	if err := m.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &domain.Config{}
	if err := m.v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = cfg
	return nil
}

func (m *Manager) setDefaults() {
	// Pipeline defaults (spec §5).
	m.v.SetDefault("pipeline.workers", 8)
	m.v.SetDefault("pipeline.queue_depth", 256)
	m.v.SetDefault("pipeline.per_variant_timeout", "5s")
	m.v.SetDefault("pipeline.queue_admit_rate_hz", 500.0)
	m.v.SetDefault("pipeline.run_log_path", "")

	// Pathway settings. The Router reads only min_total_depth and
	// dsc_tumor_only_gate; its per-pathway VAF and population-frequency
	// thresholds (spec §6.2) are literals in internal/router.
	m.v.SetDefault("pathways.tumor_only_min_vaf", 0.05)
	m.v.SetDefault("pathways.tumor_normal_min_vaf", 0.02)
	m.v.SetDefault("pathways.population_af_ceiling", 0.001)
	m.v.SetDefault("pathways.hotspot_rescue_min_observations", 10)
	m.v.SetDefault("pathways.min_total_depth", 20)
	m.v.SetDefault("pathways.dsc_tumor_only_gate", 0.6)

	// Annotator defaults.
	m.v.SetDefault("annotator.endpoint", "http://localhost:9191/annotate")
	m.v.SetDefault("annotator.timeout", "10s")
	m.v.SetDefault("annotator.breaker_max_requests", 5)
	m.v.SetDefault("annotator.breaker_interval", "60s")
	m.v.SetDefault("annotator.breaker_timeout", "30s")
	m.v.SetDefault("annotator.breaker_failure_ratio", 0.6)

	// Cache defaults.
	m.v.SetDefault("cache.enabled", false)
	m.v.SetDefault("cache.redis_url", "redis://localhost:6379")
	m.v.SetDefault("cache.annotator_ttl", "24h")
	m.v.SetDefault("cache.prior_classification_ttl", "1h")
	m.v.SetDefault("cache.pool_size", 10)

	// Knowledge base defaults.
	m.v.SetDefault("knowledge_bases.population_frequency_duckdb", "./kb/population_frequency.duckdb")
	m.v.SetDefault("knowledge_bases.hotspot_duckdb", "./kb/hotspot.duckdb")
	m.v.SetDefault("knowledge_bases.curated_level_sqlite", "./kb/curated_level.sqlite")
	m.v.SetDefault("knowledge_bases.gene_role_sqlite", "./kb/gene_role.sqlite")
	m.v.SetDefault("knowledge_bases.clinical_significance_sqlite", "./kb/clinical_significance.sqlite")
	m.v.SetDefault("knowledge_bases.hot_index_size", 4096)
	m.v.SetDefault("knowledge_bases.io_rate_limit_hz", 200.0)
	m.v.SetDefault("knowledge_bases.version", "unversioned")

	// Logging defaults.
	m.v.SetDefault("logging.level", "info")
	m.v.SetDefault("logging.format", "json")
	m.v.SetDefault("logging.output", "stdout")

	// Incidental findings defaults (SPEC_FULL.md Supplemented Features).
	m.v.SetDefault("incidental.enabled", false)
	m.v.SetDefault("incidental.genes", []string{
		"BRCA1", "BRCA2", "TP53", "MLH1", "MSH2", "MSH6", "PMS2", "APC",
		"MUTYH", "RET", "VHL", "MEN1",
	})
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// Reload re-reads configuration from disk and environment.
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate checks the loaded configuration for internally-consistent values.
func (m *Manager) Validate() error {
	cfg := m.config

	if cfg.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be positive")
	}
	if cfg.Pipeline.PerVariantTimeout <= 0 {
		return fmt.Errorf("pipeline.per_variant_timeout must be positive")
	}
	if cfg.Pathways.TumorOnlyMinVAF <= 0 || cfg.Pathways.TumorOnlyMinVAF >= 1 {
		return fmt.Errorf("pathways.tumor_only_min_vaf must be in (0, 1)")
	}
	if cfg.Pathways.TumorNormalMinVAF <= 0 || cfg.Pathways.TumorNormalMinVAF >= 1 {
		return fmt.Errorf("pathways.tumor_normal_min_vaf must be in (0, 1)")
	}
	if cfg.Pathways.DSCTumorOnlyGate < 0 || cfg.Pathways.DSCTumorOnlyGate > 1 {
		return fmt.Errorf("pathways.dsc_tumor_only_gate must be in [0, 1]")
	}
	if cfg.KnowledgeBases.PopulationFrequencyDuckDB == "" {
		return fmt.Errorf("knowledge_bases.population_frequency_duckdb is required")
	}
	if cfg.KnowledgeBases.CuratedLevelSQLite == "" {
		return fmt.Errorf("knowledge_bases.curated_level_sqlite is required")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}

	return nil
}

// GetRedisConnectionString returns the Redis connection string used by the
// annotator and prior-classification caches.
func (m *Manager) GetRedisConnectionString() string {
	return m.config.Cache.RedisURL
}
