package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	AWS       AWSConfig       `yaml:"aws" mapstructure:"aws"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Query     QueryConfig     `yaml:"query" mapstructure:"query"`
	OCR       OCRConfig       `yaml:"ocr" mapstructure:"ocr"`
	Armament  ArmamentConfig  `yaml:"armament" mapstructure:"armament"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Notify    NotifyConfig    `yaml:"notify" mapstructure:"notify"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Backfill  BackfillConfig  `yaml:"backfill" mapstructure:"backfill"`
	Scheduler SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	StaticBaseURL  string   `yaml:"static_base_url" mapstructure:"static_base_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// NotionConfig holds the note service credentials. DatabaseID is the
// notebook whose pages are play records.
type NotionConfig struct {
	Token      string  `yaml:"token" mapstructure:"token"`
	DatabaseID string  `yaml:"database_id" mapstructure:"database_id"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// AWSConfig holds shared AWS settings. Static keys are optional; the default
// credential chain is used when they are empty.
type AWSConfig struct {
	Region          string `yaml:"region" mapstructure:"region"`
	AccessKeyID     string `yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" mapstructure:"secret_access_key"`
}

// StorageConfig configures the play result bucket.
type StorageConfig struct {
	Bucket   string `yaml:"bucket" mapstructure:"bucket"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

// QueryConfig configures the query engine.
type QueryConfig struct {
	Database       string `yaml:"database" mapstructure:"database"`
	Table          string `yaml:"table" mapstructure:"table"`
	OutputLocation string `yaml:"output_location" mapstructure:"output_location"`
	WorkGroup      string `yaml:"work_group" mapstructure:"work_group"`
	MaxAttempts    int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	PollDelayMs    int    `yaml:"poll_delay_ms" mapstructure:"poll_delay_ms"`
}

// TableName returns the configured table, deriving it from the bucket name
// when unset.
func (c *Config) TableName() string {
	if c.Query.Table != "" {
		return c.Query.Table
	}
	return strings.ReplaceAll(c.Storage.Bucket, "-", "_")
}

// OCRConfig selects the text detection provider.
type OCRConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	Language string `yaml:"language" mapstructure:"language"`
}

// ArmamentConfig configures the armament icon detector function.
type ArmamentConfig struct {
	FunctionName string `yaml:"function_name" mapstructure:"function_name"`
}

// AnalysisConfig configures screenshot analysis.
type AnalysisConfig struct {
	ScoreRegion Region   `yaml:"score_region" mapstructure:"score_region"`
	SevenAsOne  []string `yaml:"seven_as_one" mapstructure:"seven_as_one"`
}

// Region is a pixel rectangle on the screenshot.
type Region struct {
	X      int `yaml:"x" mapstructure:"x"`
	Y      int `yaml:"y" mapstructure:"y"`
	Width  int `yaml:"width" mapstructure:"width"`
	Height int `yaml:"height" mapstructure:"height"`
}

// PipelineConfig configures note processing.
type PipelineConfig struct {
	MaxConcurrentImages int `yaml:"max_concurrent_images" mapstructure:"max_concurrent_images"`
}

// NotifyConfig configures operator notifications for failed requests.
type NotifyConfig struct {
	EmailFrom   string   `yaml:"email_from" mapstructure:"email_from"`
	EmailTo     []string `yaml:"email_to" mapstructure:"email_to"`
	EmailRegion string   `yaml:"email_region" mapstructure:"email_region"`
	WebhookURL  string   `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// StoreConfig configures the analysis ledger database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BackfillConfig configures stored record rewrites.
type BackfillConfig struct {
	ItemsPerSecond float64 `yaml:"items_per_second" mapstructure:"items_per_second"`
}

// SchedulerConfig configures background jobs of the serve command.
type SchedulerConfig struct {
	ReanalyzeIntervalMins int `yaml:"reanalyze_interval_mins" mapstructure:"reanalyze_interval_mins"`
	ReanalyzeBatchSize    int `yaml:"reanalyze_batch_size" mapstructure:"reanalyze_batch_size"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without a meaningful default are registered empty so that
	// AutomaticEnv can populate them on Unmarshal.
	for _, key := range []string{
		"notion.token", "notion.database_id",
		"aws.access_key_id", "aws.secret_access_key",
		"storage.bucket", "storage.endpoint",
		"query.table", "query.output_location", "query.work_group",
		"armament.function_name",
		"notify.email_from", "notify.webhook_url",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("notify.email_to", []string{})

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.static_base_url", "https://static.time-locker.jabara.info")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("notion.rate_limit", 3.0)
	v.SetDefault("aws.region", "ap-northeast-1")
	v.SetDefault("query.database", "time-locker")
	v.SetDefault("query.max_attempts", 40)
	v.SetDefault("query.poll_delay_ms", 500)
	v.SetDefault("ocr.provider", "rekognition")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("analysis.score_region.x", 20)
	v.SetDefault("analysis.score_region.y", 190)
	v.SetDefault("analysis.score_region.width", 340)
	v.SetDefault("analysis.score_region.height", 200)
	v.SetDefault("analysis.seven_as_one", []string{"MINE_BOT", "GUARD_BIT", "SUPPORTER"})
	v.SetDefault("pipeline.max_concurrent_images", 2)
	v.SetDefault("notify.email_region", "us-east-1")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "tracker.db")
	v.SetDefault("backfill.items_per_second", 5.0)
	v.SetDefault("scheduler.reanalyze_interval_mins", 0)
	v.SetDefault("scheduler.reanalyze_batch_size", 20)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the keys required by the given command are set.
func (c *Config) Validate(mode string) error {
	var errs []string
	need := func(val, key string) {
		if val == "" {
			errs = append(errs, key+" is required")
		}
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		need(c.Notion.Token, "notion.token")
		need(c.Notion.DatabaseID, "notion.database_id")
		need(c.Storage.Bucket, "storage.bucket")
		need(c.Query.OutputLocation, "query.output_location")
		need(c.Armament.FunctionName, "armament.function_name")
	case "analyze":
		need(c.Armament.FunctionName, "armament.function_name")
	case "backfill":
		need(c.Storage.Bucket, "storage.bucket")
	case "reanalyze":
		need(c.Notion.Token, "notion.token")
		need(c.Storage.Bucket, "storage.bucket")
		need(c.Armament.FunctionName, "armament.function_name")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Pipeline.MaxConcurrentImages < 1 || c.Pipeline.MaxConcurrentImages > 16 {
		errs = append(errs, "pipeline.max_concurrent_images must be between 1 and 16")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid %s config: %s", mode, strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
