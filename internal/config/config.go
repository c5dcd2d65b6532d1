package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	AI         AIConfig         `yaml:"ai"`
	Automation AutomationConfig `yaml:"automation"`
	JWT        JWTConfig        `yaml:"jwt"`
	Log        LogConfig        `yaml:"log"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Security   SecurityConfig   `yaml:"security"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type AIConfig struct {
	OpenAI OpenAIConfig `yaml:"openai"`
}

type OpenAIConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// AutomationConfig drives the keyword automation engine.
type AutomationConfig struct {
	// SimilarityThreshold is the minimum fuzzy-match score for a keyword
	// segment to count as a match. 0 means the built-in default (0.7).
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	// SystemUserID is the account automated messages are attributed to.
	SystemUserID uint `yaml:"system_user_id"`
	// FallbackMessage is posted when the generation call fails or returns
	// nothing. Empty means the built-in default.
	FallbackMessage string `yaml:"fallback_message"`
}

type JWTConfig struct {
	Secret    string        `yaml:"secret"`
	ExpiresIn time.Duration `yaml:"expires_in"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json, text
	Output     string `yaml:"output"` // stdout, file, both
	FilePath   string `yaml:"file_path"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxAge     int    `yaml:"max_age"`  // days
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

type MonitoringConfig struct {
	Enabled bool          `yaml:"enabled"`
	Tracing TracingConfig `yaml:"tracing"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"` // OTLP gRPC endpoint, e.g. http://otel-collector:4317
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"` // 0.0~1.0
	ServiceName string  `yaml:"service_name"`
}

type SecurityConfig struct {
	CORS         CORSConfig         `yaml:"cors"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting"`
}

type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

type RateLimitingConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

func Load() *Config {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(err)
	}
	applyDefaults(&config)
	return &config
}

// GetDefaultConfig returns the configuration used when no file is present.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "password",
			Name:            "deskflow",
			SSLMode:         "disable",
			MaxOpenConns:    100,
			MaxIdleConns:    10,
			ConnMaxLifetime: 3600 * time.Second,
		},
		AI: AIConfig{
			OpenAI: OpenAIConfig{
				BaseURL:     "https://api.openai.com/v1",
				Model:       "gpt-3.5-turbo",
				Temperature: 0.7,
				MaxTokens:   1000,
				Timeout:     30 * time.Second,
			},
		},
		Automation: AutomationConfig{
			SimilarityThreshold: 0.7,
			SystemUserID:        1,
		},
		JWT: JWTConfig{
			Secret:    "change-me",
			ExpiresIn: 24 * time.Hour,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			FilePath:   "logs/deskflow.log",
			MaxSize:    100,
			MaxAge:     30,
			MaxBackups: 10,
		},
		Monitoring: MonitoringConfig{
			Tracing: TracingConfig{
				SampleRatio: 0.1,
				ServiceName: "deskflow",
			},
		},
		Security: SecurityConfig{
			RateLimiting: RateLimitingConfig{
				RequestsPerMinute: 300,
				Burst:             50,
			},
		},
	}
	return cfg
}

func applyDefaults(cfg *Config) {
	def := GetDefaultConfig()
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = def.Database.Port
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = def.Database.SSLMode
	}
	if cfg.AI.OpenAI.Model == "" {
		cfg.AI.OpenAI.Model = def.AI.OpenAI.Model
	}
	if cfg.AI.OpenAI.BaseURL == "" {
		cfg.AI.OpenAI.BaseURL = def.AI.OpenAI.BaseURL
	}
	if cfg.AI.OpenAI.MaxTokens == 0 {
		cfg.AI.OpenAI.MaxTokens = def.AI.OpenAI.MaxTokens
	}
	if cfg.AI.OpenAI.Timeout == 0 {
		cfg.AI.OpenAI.Timeout = def.AI.OpenAI.Timeout
	}
	if cfg.Automation.SimilarityThreshold == 0 {
		cfg.Automation.SimilarityThreshold = def.Automation.SimilarityThreshold
	}
	if cfg.Automation.SystemUserID == 0 {
		cfg.Automation.SystemUserID = def.Automation.SystemUserID
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = def.Log.Output
	}
	if cfg.Monitoring.Tracing.ServiceName == "" {
		cfg.Monitoring.Tracing.ServiceName = def.Monitoring.Tracing.ServiceName
	}
	if cfg.Monitoring.Tracing.SampleRatio == 0 {
		cfg.Monitoring.Tracing.SampleRatio = def.Monitoring.Tracing.SampleRatio
	}
}
