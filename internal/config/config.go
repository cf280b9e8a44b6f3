package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all settings, populated from environment variables and an
// optional YAML file named by BIRDETL_CONFIG.
type Config struct {
	DataDir           string
	ForestWorkbook    string
	GrasslandWorkbook string

	// Relational store.
	DBDriver        string
	DBHost          string
	DBPort          int
	DBName          string
	DBUser          string
	DBPassword      string
	DBSSLMode       string
	DBPath          string
	DBTable         string
	InsertBatchSize int

	// Backup extract.
	BackupPath        string
	BackupS3Bucket    string
	BackupS3Prefix    string
	BackupS3Region    string
	BackupS3Endpoint  string
	BackupS3PathStyle bool

	ImputeMissingWeather bool

	// Optional run summary topic and metrics gateway.
	KafkaBrokers   []string
	KafkaTopic     string
	PushgatewayURL string

	HTTPAddr        string
	ReportCacheSize int
	ReportCacheTTL  time.Duration

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ConfigFileEnv names the environment variable holding an optional config file path.
const ConfigFileEnv = "BIRDETL_CONFIG"

const maxInsertBatchSize = 10000

var defaults = map[string]any{
	"data_dir":               ".",
	"forest_workbook":        "Bird_Monitoring_Data_FOREST.XLSX",
	"grassland_workbook":     "Bird_Monitoring_Data_GRASSLAND.XLSX",
	"db_driver":              DriverPostgres,
	"db_host":                "localhost",
	"db_port":                "5432",
	"db_name":                "bird_analysis_db",
	"db_user":                "postgres",
	"db_password":            "",
	"db_sslmode":             "disable",
	"db_path":                "bird_observations.db",
	"db_table":               "bird_observations",
	"insert_batch_size":      "1000",
	"backup_path":            "cleaned_bird_observations.csv",
	"backup_s3_bucket":       "",
	"backup_s3_prefix":       "backups/",
	"backup_s3_region":       "us-east-1",
	"backup_s3_endpoint":     "",
	"backup_s3_path_style":   "false",
	"impute_missing_weather": "true",
	"kafka_brokers":          "",
	"kafka_topic":            "bird-ingestion-runs",
	"pushgateway_url":        "",
	"http_addr":              ":8080",
	"report_cache_size":      "128",
	"report_cache_ttl":       "5m",
	"log_level":              "info",
	"log_format":             "json",
	"shutdown_timeout":       "10s",
}

// New returns a viper instance with every key defaulted and bound to its
// upper-case environment variable. A variable set to the empty string
// overrides the default. Callers may bind command-line flags to the same
// keys before calling LoadFrom.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	return v
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	return LoadFrom(New())
}

// LoadFrom builds a Config from v. If BIRDETL_CONFIG is set, that file is
// read first; environment variables and bound flags take precedence over it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	if path := v.GetString(strings.ToLower(ConfigFileEnv)); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s %s: %w", ConfigFileEnv, path, err)
		}
	}

	p := parser{v: v}
	cfg := &Config{
		DataDir:           p.str("data_dir"),
		ForestWorkbook:    p.str("forest_workbook"),
		GrasslandWorkbook: p.str("grassland_workbook"),

		DBDriver:        strings.ToLower(p.str("db_driver")),
		DBHost:          p.str("db_host"),
		DBPort:          p.positiveInt("db_port"),
		DBName:          p.str("db_name"),
		DBUser:          p.str("db_user"),
		DBPassword:      v.GetString("db_password"),
		DBSSLMode:       p.str("db_sslmode"),
		DBPath:          p.str("db_path"),
		DBTable:         p.str("db_table"),
		InsertBatchSize: p.positiveInt("insert_batch_size"),

		BackupPath:        p.str("backup_path"),
		BackupS3Bucket:    p.str("backup_s3_bucket"),
		BackupS3Prefix:    p.str("backup_s3_prefix"),
		BackupS3Region:    p.str("backup_s3_region"),
		BackupS3Endpoint:  p.str("backup_s3_endpoint"),
		BackupS3PathStyle: p.boolean("backup_s3_path_style"),

		ImputeMissingWeather: p.boolean("impute_missing_weather"),

		KafkaBrokers:   ParseBrokers(p.str("kafka_brokers")),
		KafkaTopic:     p.str("kafka_topic"),
		PushgatewayURL: p.str("pushgateway_url"),

		HTTPAddr:        p.str("http_addr"),
		ReportCacheSize: p.positiveInt("report_cache_size"),
		ReportCacheTTL:  p.duration("report_cache_ttl"),

		LogLevel:        strings.ToLower(p.str("log_level")),
		LogFormat:       strings.ToLower(p.str("log_format")),
		ShutdownTimeout: p.duration("shutdown_timeout"),
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.DBHost == "" {
			return errors.New("DB_HOST is required for the postgres driver")
		}
		if c.DBName == "" {
			return errors.New("DB_NAME is required for the postgres driver")
		}
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: must be %s or %s", c.DBDriver, DriverPostgres, DriverSQLite)
	}
	if c.DBTable == "" {
		return errors.New("DB_TABLE is required")
	}
	if c.InsertBatchSize > maxInsertBatchSize {
		return fmt.Errorf("invalid INSERT_BATCH_SIZE %d: must be at most %d", c.InsertBatchSize, maxInsertBatchSize)
	}
	if c.BackupPath == "" {
		return errors.New("BACKUP_PATH is required")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("invalid LOG_FORMAT %q: must be json or text", c.LogFormat)
	}
	return nil
}

// ForestPath is the forest workbook path resolved against DataDir.
func (c *Config) ForestPath() string {
	return resolve(c.DataDir, c.ForestWorkbook)
}

// GrasslandPath is the grassland workbook path resolved against DataDir.
func (c *Config) GrasslandPath() string {
	return resolve(c.DataDir, c.GrasslandWorkbook)
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// ParseBrokers splits a comma-separated broker list, dropping blanks.
func ParseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// parser reads typed values and keeps the first error, which names the
// environment variable.
type parser struct {
	v   *viper.Viper
	err error
}

func (p *parser) str(key string) string {
	return strings.TrimSpace(p.v.GetString(key))
}

func (p *parser) positiveInt(key string) int {
	s := p.str(key)
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		p.fail(key, s, "must be a positive integer")
		return 0
	}
	return n
}

func (p *parser) duration(key string) time.Duration {
	s := p.str(key)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		p.fail(key, s, "must be a positive duration")
		return 0
	}
	return d
}

func (p *parser) boolean(key string) bool {
	s := p.str(key)
	b, err := strconv.ParseBool(s)
	if err != nil {
		p.fail(key, s, "must be true or false")
		return false
	}
	return b
}

func (p *parser) fail(key, value, reason string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %s", strings.ToUpper(key), value, reason)
	}
}
