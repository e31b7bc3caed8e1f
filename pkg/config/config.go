package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	GraphDB  GraphDBConfig
	Redis    RedisConfig
	SQLite   SQLiteConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Report   ReportConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

// GraphDBConfig locates the external SPARQL endpoint. PostStyle selects the
// SPARQL 1.1 protocol convention: "form" sends the query as an
// application/x-www-form-urlencoded parameter, "direct" sends the raw query
// body as application/sparql-query. Both are accepted by GraphDB; the two
// deployment variants of the site have historically used one each.
type GraphDBConfig struct {
	Endpoint  string
	PostStyle string
	Username  string
	Password  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type SQLiteConfig struct {
	Path string
}

type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type PipelineConfig struct {
	ConverterURL string
	TimeoutSec   int
}

// ReportConfig carries the report-level modeling switches.
//
// IncludeDoorObstructionInOverall controls whether doorset obstruction counts
// (a maintenance concern, not a structural fire-spread failure) are folded
// into the overall non-compliance rate alongside REI deficits. The published
// figure has always included them, so the default is true; setting it false
// yields a pure fire-spread rate.
type ReportConfig struct {
	IncludeDoorObstructionInOverall bool
	CacheTTLSec                     int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/ficr-insight")

	viper.SetEnvPrefix("FICR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.GraphDB.PostStyle != "form" && config.GraphDB.PostStyle != "direct" {
		return nil, fmt.Errorf("graphdb.postStyle must be \"form\" or \"direct\", got %q", config.GraphDB.PostStyle)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 120)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("graphdb.endpoint", "http://localhost:7200/repositories/FiCR_Query")
	viper.SetDefault("graphdb.postStyle", "direct")
	viper.SetDefault("graphdb.username", "")
	viper.SetDefault("graphdb.password", "")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("sqlite.path", "./data/insight.db")

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.maxTokens", 8192)
	viper.SetDefault("llm.timeoutSec", 120)

	viper.SetDefault("pipeline.converterURL", "http://localhost:8090/convert")
	viper.SetDefault("pipeline.timeoutSec", 60)

	viper.SetDefault("report.includeDoorObstructionInOverall", true)
	viper.SetDefault("report.cacheTTLSec", 300)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
