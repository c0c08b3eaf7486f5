package am

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Built-in defaults for keys whose zero value is meaningful
const (
	DefaultReferencePath     = "Kinase_Substrate_Dataset.txt"
	DefaultPathwaysPath      = "UniProt2Reactome_All_Levels.tsv"
	DefaultPathwaysSpecies   = "Homo sapiens"
	DefaultOrganism          = "human"
	DefaultDatabasePath      = "fuzzykea.db"
	DefaultExportTitle       = "fuzzyKEA_results"
	DefaultRequestTimeout    = 60
	DefaultMaxInputBytes     = 4 << 20
	DefaultRateLimitPerSec   = 5.0
	DefaultRateLimitBurst    = 10
	DefaultInferredHitLimit  = 7
	DefaultPositionTolerance = 5
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Analysis defaults
	v.SetDefault("analysis.tolerance", DefaultPositionTolerance)
	v.SetDefault("analysis.aa_mode", "exact")
	v.SetDefault("analysis.test", "fisher")
	v.SetDefault("analysis.correction", "fdr_bh")
	v.SetDefault("analysis.inferred_hit_limit", DefaultInferredHitLimit)
	v.SetDefault("analysis.unlimited_inferred_hits", false)
	v.SetDefault("analysis.amino_acids", []string{"S", "T", "Y"})

	// Reference dataset defaults
	v.SetDefault("reference.source", ReferenceSourceFile)
	v.SetDefault("reference.path", DefaultReferencePath)
	v.SetDefault("reference.kinase_organism", DefaultOrganism)
	v.SetDefault("reference.substrate_organism", DefaultOrganism)

	// Pathway defaults
	v.SetDefault("pathways.enabled", false)
	v.SetDefault("pathways.path", DefaultPathwaysPath)
	v.SetDefault("pathways.species", DefaultPathwaysSpecies)

	// Database defaults
	v.SetDefault("database.path", DefaultDatabasePath)

	// Server configuration defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.request_timeout_seconds", DefaultRequestTimeout)
	v.SetDefault("server.rate_limit_per_second", DefaultRateLimitPerSec)
	v.SetDefault("server.rate_limit_burst", DefaultRateLimitBurst)
	v.SetDefault("server.max_input_bytes", DefaultMaxInputBytes)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})
	v.SetDefault("server.watch_config", true)

	// Export defaults
	v.SetDefault("export.target", ".")
	v.SetDefault("export.title", DefaultExportTitle)
	v.SetDefault("export.s3_region", "")
	v.SetDefault("export.s3_endpoint", "")
	v.SetDefault("export.s3_path_style", false)
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	// Database path
	v.BindEnv("database.path", "FUZZYKEA_DATABASE_PATH")

	// Reference and export locations may point at private buckets
	v.BindEnv("reference.path", "FUZZYKEA_REFERENCE_PATH")
	v.BindEnv("export.target", "FUZZYKEA_EXPORT_TARGET")
	v.BindEnv("export.s3_endpoint", "FUZZYKEA_S3_ENDPOINT")
	v.BindEnv("export.s3_region", "FUZZYKEA_S3_REGION", "AWS_REGION")
}

// GetServerPort returns the configured server port, or DefaultServerPort if unset
func GetServerPort() int {
	cfg, err := Load()
	if err != nil {
		return DefaultServerPort
	}
	return cfg.ServerPort()
}

// ServerPort returns server.port, falling back to DefaultServerPort
func (c *Config) ServerPort() int {
	if c.Server.Port == nil || *c.Server.Port <= 0 {
		return DefaultServerPort
	}
	return *c.Server.Port
}

// ServerAddr joins server.host and the effective port
func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.ServerPort()))
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return DefaultDatabasePath
	}
	return c.Database.Path
}

// GetServerAllowedOrigins returns the allowed CORS origins
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return []string{
			"http://localhost",
			"https://localhost",
			"http://127.0.0.1",
			"https://127.0.0.1",
		}
	}
	return c.Server.AllowedOrigins
}

// GetExportTitle returns the result filename prefix
func (c *Config) GetExportTitle() string {
	if strings.TrimSpace(c.Export.Title) == "" {
		return DefaultExportTitle
	}
	return c.Export.Title
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Reference: %s (%s), Database: %s, Server: {Port: %d}, Analysis: {Tolerance: %d, Test: %s}}",
		c.Reference.Path, c.Reference.Source, c.GetDatabasePath(), c.ServerPort(),
		c.Analysis.Tolerance, c.Analysis.Test)
}
