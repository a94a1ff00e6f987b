package domain

import "time"

// Config is the top-level application configuration, populated by
// config.Manager from defaults, an optional YAML file, and environment
// variables prefixed SVI_ (see internal/config).
type Config struct {
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Pathways   PathwayDefaults  `mapstructure:"pathways"`
	Annotator  AnnotatorConfig  `mapstructure:"annotator"`
	Cache      CacheConfig      `mapstructure:"cache"`
	KnowledgeBases KBConfig     `mapstructure:"knowledge_bases"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Incidental IncidentalConfig `mapstructure:"incidental"`
}

// PipelineConfig carries the concurrency and timeout knobs of spec §5.
type PipelineConfig struct {
	Workers            int           `mapstructure:"workers"`
	QueueDepth          int           `mapstructure:"queue_depth"`
	PerVariantTimeout   time.Duration `mapstructure:"per_variant_timeout"`
	QueueAdmitRateHz    float64       `mapstructure:"queue_admit_rate_hz"`
	RunLogPath          string        `mapstructure:"run_log_path"` // read but unused: no run ledger is written
}

// PathwayDefaults holds pathway-level settings. The Workflow Router reads
// only MinTotalDepth and DSCTumorOnlyGate from it; the per-pathway VAF and
// population-frequency thresholds are literals in internal/router, and the
// other fields here are not used for routing.
type PathwayDefaults struct {
	TumorOnlyMinVAF        float64 `mapstructure:"tumor_only_min_vaf"`
	TumorNormalMinVAF      float64 `mapstructure:"tumor_normal_min_vaf"`
	PopulationAFCeiling    float64 `mapstructure:"population_af_ceiling"`
	HotspotRescueMinObs    int     `mapstructure:"hotspot_rescue_min_observations"`
	MinTotalDepth          int     `mapstructure:"min_total_depth"`
	DSCTumorOnlyGate       float64 `mapstructure:"dsc_tumor_only_gate"`
}

// AnnotatorConfig configures the external functional-prediction annotator
// client, wrapped in a circuit breaker and optional cache (spec §1).
type AnnotatorConfig struct {
	Endpoint             string        `mapstructure:"endpoint"`
	Timeout              time.Duration `mapstructure:"timeout"`
	BreakerMaxRequests   uint32        `mapstructure:"breaker_max_requests"`
	BreakerInterval      time.Duration `mapstructure:"breaker_interval"`
	BreakerTimeout       time.Duration `mapstructure:"breaker_timeout"`
	BreakerFailureRatio  float64       `mapstructure:"breaker_failure_ratio"`
}

// CacheConfig configures the optional redis-backed annotator cache.
// PriorClassTTL is read but unused: there is no prior-classification cache.
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	RedisURL    string        `mapstructure:"redis_url"`
	AnnotatorTTL time.Duration `mapstructure:"annotator_ttl"`
	PriorClassTTL time.Duration `mapstructure:"prior_classification_ttl"`
	PoolSize    int           `mapstructure:"pool_size"`
}

// KBConfig locates each knowledge base's on-disk store (spec §2 item 1).
type KBConfig struct {
	PopulationFrequencyDuckDB string        `mapstructure:"population_frequency_duckdb"`
	HotspotDuckDB             string        `mapstructure:"hotspot_duckdb"`
	CuratedLevelSQLite        string        `mapstructure:"curated_level_sqlite"`
	GeneRoleSQLite            string        `mapstructure:"gene_role_sqlite"`
	ClinicalSignificanceSQLite string       `mapstructure:"clinical_significance_sqlite"`
	HotIndexSize              int           `mapstructure:"hot_index_size"`
	IORateLimitHz             float64       `mapstructure:"io_rate_limit_hz"`
	Version                   string        `mapstructure:"version"`
}

// LoggingConfig mirrors the teacher's logrus-oriented configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// IncidentalConfig drives the configurable secondary-findings gene list
// (SPEC_FULL.md Supplemented Features).
type IncidentalConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Genes   []string `mapstructure:"genes"`
}
