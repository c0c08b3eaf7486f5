package am

// Config represents the fuzzyKEA configuration
type Config struct {
	Analysis  AnalysisConfig  `mapstructure:"analysis" toml:"analysis" json:"analysis" yaml:"analysis"`
	Reference ReferenceConfig `mapstructure:"reference" toml:"reference" json:"reference" yaml:"reference"`
	Pathways  PathwaysConfig  `mapstructure:"pathways" toml:"pathways" json:"pathways" yaml:"pathways"`
	Database  DatabaseConfig  `mapstructure:"database" toml:"database" json:"database" yaml:"database"`
	Server    ServerConfig    `mapstructure:"server" toml:"server" json:"server" yaml:"server"`
	Export    ExportConfig    `mapstructure:"export" toml:"export" json:"export" yaml:"export"`
}

// AnalysisConfig holds the default engine settings.
// Enum fields stay strings here; Engine() parses and validates them.
type AnalysisConfig struct {
	// max position distance (default: 5)
	Tolerance             int      `mapstructure:"tolerance" toml:"tolerance" json:"tolerance" yaml:"tolerance"`
	// exact, st-similar, ignore
	AAMode                string   `mapstructure:"aa_mode" toml:"aa_mode" json:"aa_mode" yaml:"aa_mode"`
	// fisher, chi2
	Test                  string   `mapstructure:"test" toml:"test" json:"test" yaml:"test"`
	// fdr_bh, fdr_by, bonferroni
	Correction            string   `mapstructure:"correction" toml:"correction" json:"correction" yaml:"correction"`
	// imputed matches kept per kinase (default: 7)
	InferredHitLimit      int      `mapstructure:"inferred_hit_limit" toml:"inferred_hit_limit" json:"inferred_hit_limit" yaml:"inferred_hit_limit"`
	// ignore inferred_hit_limit
	UnlimitedInferredHits bool     `mapstructure:"unlimited_inferred_hits" toml:"unlimited_inferred_hits" json:"unlimited_inferred_hits" yaml:"unlimited_inferred_hits"`
	// subset of S, T, Y, H
	AminoAcids            []string `mapstructure:"amino_acids" toml:"amino_acids" json:"amino_acids" yaml:"amino_acids"`
}

// ReferenceConfig locates the kinase-substrate dataset
type ReferenceConfig struct {
	// "file" or "sqlite"
	Source            string `mapstructure:"source" toml:"source" json:"source" yaml:"source"`
	// local path or s3://bucket/key
	Path              string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
	// empty disables the filter
	KinaseOrganism    string `mapstructure:"kinase_organism" toml:"kinase_organism" json:"kinase_organism" yaml:"kinase_organism"`
	SubstrateOrganism string `mapstructure:"substrate_organism" toml:"substrate_organism" json:"substrate_organism" yaml:"substrate_organism"`
}

// PathwaysConfig locates the UniProt2Reactome mapping
type PathwaysConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
	// Reactome species name
	Species string `mapstructure:"species" toml:"species" json:"species" yaml:"species"`
}

// DatabaseConfig configures the SQLite reference store
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	// nil = default 8050, 0 is invalid
	Port                  *int     `mapstructure:"port" toml:"port" json:"port" yaml:"port"`
	Host                  string   `mapstructure:"host" toml:"host" json:"host" yaml:"host"`
	RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds" toml:"request_timeout_seconds" json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
	// 0 = unlimited
	RateLimitPerSecond    float64  `mapstructure:"rate_limit_per_second" toml:"rate_limit_per_second" json:"rate_limit_per_second" yaml:"rate_limit_per_second"`
	RateLimitBurst        int      `mapstructure:"rate_limit_burst" toml:"rate_limit_burst" json:"rate_limit_burst" yaml:"rate_limit_burst"`
	MaxInputBytes         int64    `mapstructure:"max_input_bytes" toml:"max_input_bytes" json:"max_input_bytes" yaml:"max_input_bytes"`
	AllowedOrigins        []string `mapstructure:"allowed_origins" toml:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins"`
	// hot-reload analysis defaults
	WatchConfig           bool     `mapstructure:"watch_config" toml:"watch_config" json:"watch_config" yaml:"watch_config"`
}

// ExportConfig configures where result TSVs are written
type ExportConfig struct {
	// directory or s3://bucket/prefix
	Target      string `mapstructure:"target" toml:"target" json:"target" yaml:"target"`
	// filename prefix (default: fuzzyKEA_results)
	Title       string `mapstructure:"title" toml:"title" json:"title" yaml:"title"`
	S3Region    string `mapstructure:"s3_region" toml:"s3_region" json:"s3_region" yaml:"s3_region"`
	// MinIO or other S3-compatible endpoint
	S3Endpoint  string `mapstructure:"s3_endpoint" toml:"s3_endpoint" json:"s3_endpoint" yaml:"s3_endpoint"`
	S3PathStyle bool   `mapstructure:"s3_path_style" toml:"s3_path_style" json:"s3_path_style" yaml:"s3_path_style"`
}

// Reference sources
const (
	ReferenceSourceFile   = "file"
	ReferenceSourceSQLite = "sqlite"
)

// Server port constants
const (
	DefaultServerPort = 8050
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
