package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the process-wide configuration value object. It is loaded once in
// main and injected into constructors; business logic never reads the
// environment directly.
type Config struct {
	DatabaseURL     string
	TemporalAddress string
	HTTPListenAddr  string
	MetricsAddr     string
	LogLevel        string
	// Environment is the deployment environment slug (dev, staging, prod).
	// It prefixes every generated instance identifier.
	Environment string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	RDS            RDSDefaults
	ParameterStore SecretSink
	SecretsManager SecretSink

	SchemaTemplatesDir string
}

// RDSDefaults holds the instance parameters applied to every newly
// provisioned database. They are captured onto the record at creation time
// and immutable afterwards.
type RDSDefaults struct {
	Engine        string
	EngineVersion string // empty means pick the newest supported version
	InstanceClass string
	StorageType   string

	AllocatedStorage    int
	MaxAllocatedStorage int
	BackupRetentionDays int
	MonitoringInterval  int
	MonitoringRoleARN   string

	Encrypted          bool
	PubliclyAccessible bool
	MultiAZ            bool
	DeletionProtection bool

	SubnetGroupName  string
	SubnetIDs        []string
	SecurityGroupIDs []string
}

// SecretSink configures one credential distribution target.
type SecretSink struct {
	Enabled bool
	Prefix  string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		TemporalAddress: getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		HTTPListenAddr:  getEnv("HTTP_LISTEN_ADDR", ":8080"),
		MetricsAddr:     getEnv("METRICS_LISTEN_ADDR", ":9090"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Environment:     getEnv("ENVIRONMENT", "dev"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		RDS: RDSDefaults{
			Engine:              getEnv("RDS_ENGINE", "postgres"),
			EngineVersion:       getEnv("RDS_ENGINE_VERSION", ""),
			InstanceClass:       getEnv("RDS_INSTANCE_CLASS", "db.t3.micro"),
			StorageType:         getEnv("RDS_STORAGE_TYPE", "gp2"),
			AllocatedStorage:    getEnvInt("RDS_ALLOCATED_STORAGE", 20),
			MaxAllocatedStorage: getEnvInt("RDS_MAX_ALLOCATED_STORAGE", 100),
			BackupRetentionDays: getEnvInt("RDS_BACKUP_RETENTION_DAYS", 7),
			MonitoringInterval:  getEnvInt("RDS_MONITORING_INTERVAL", 0),
			MonitoringRoleARN:   getEnv("RDS_MONITORING_ROLE_ARN", ""),
			Encrypted:           getEnvBool("RDS_ENCRYPTED", true),
			PubliclyAccessible:  getEnvBool("RDS_PUBLICLY_ACCESSIBLE", false),
			MultiAZ:             getEnvBool("RDS_MULTI_AZ", false),
			DeletionProtection:  getEnvBool("RDS_DELETION_PROTECTION", true),
			SubnetGroupName:     getEnv("RDS_SUBNET_GROUP", "default"),
			SubnetIDs:           getEnvList("RDS_SUBNET_IDS"),
			SecurityGroupIDs:    getEnvList("RDS_SECURITY_GROUP_IDS"),
		},

		ParameterStore: SecretSink{
			Enabled: getEnvBool("PARAMETER_STORE_ENABLED", false),
			Prefix:  getEnv("PARAMETER_STORE_PREFIX", "/production/database/"),
		},
		SecretsManager: SecretSink{
			Enabled: getEnvBool("SECRETS_MANAGER_ENABLED", false),
			Prefix:  getEnv("SECRETS_MANAGER_PREFIX", "database/"),
		},

		SchemaTemplatesDir: getEnv("SCHEMA_TEMPLATES_DIR", "schema_templates"),
	}

	return cfg, nil
}

// Validate checks the settings required by the given component ("api" or
// "worker").
func (c *Config) Validate(component string) error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s: DATABASE_URL is required", component)
	}
	if c.TemporalAddress == "" {
		return fmt.Errorf("%s: TEMPORAL_ADDRESS is required", component)
	}
	if component == "worker" {
		if c.AWSRegion == "" {
			return fmt.Errorf("worker: AWS_REGION is required")
		}
		if c.RDS.Engine == "" {
			return fmt.Errorf("worker: RDS_ENGINE is required")
		}
		if c.RDS.MonitoringInterval > 0 && c.RDS.MonitoringRoleARN == "" {
			return fmt.Errorf("worker: RDS_MONITORING_ROLE_ARN is required when RDS_MONITORING_INTERVAL > 0")
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
