// Package config provides configuration loading and validation for the judge service and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// Search tools used by the market research agent.
const (
	SearchGoogle     = "google"
	SearchDuckDuckGo = "duckduckgo"
)

// Dispatch backends.
const (
	DispatchPool  = "pool"
	DispatchRedis = "redis"
)

// Duration is a time.Duration written as a Go duration string ("90s", "10m") in JSON.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("duration must be a string or a number of seconds")
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the service configuration. It is read from the environment and may be
// overlaid by a JSON file; CLI flags win over both.
type Config struct {
	// Server
	Port        int    `json:"port,omitempty"`
	CORSOrigins string `json:"cors_origins,omitempty"` // Comma separated, "*" allows all

	// Storage
	StoreBackend  string `json:"store_backend,omitempty"` // memory, postgres or mongo
	DatabaseURL   string `json:"database_url,omitempty"`  // PostgreSQL connection URL
	MongoURI      string `json:"mongo_uri,omitempty"`
	MongoDatabase string `json:"mongo_database,omitempty"`

	// Models
	GeminiAPIKey   string  `json:"gemini_api_key,omitempty"`
	ModelLite      string  `json:"model_lite,omitempty"`
	ModelStandard  string  `json:"model_standard,omitempty"`
	ModelAdvanced  string  `json:"model_advanced,omitempty"`
	EmbeddingModel string  `json:"embedding_model,omitempty"`
	LLMQPS         float64 `json:"llm_qps,omitempty"` // Outbound model calls per second, 0 disables throttling
	LLMBurst       int     `json:"llm_burst,omitempty"`

	// Research
	SearchTool         string `json:"search_tool,omitempty"` // google or duckduckgo
	GoogleSearchAPIKey string `json:"google_search_api_key,omitempty"`
	GoogleSearchCX     string `json:"google_search_cx,omitempty"`

	// Speech
	ElevenLabsAPIKey  string `json:"elevenlabs_api_key,omitempty"`
	ElevenLabsVoiceID string `json:"elevenlabs_voice_id,omitempty"`
	ElevenLabsModel   string `json:"elevenlabs_model,omitempty"`

	// Workers
	CloneDir            string   `json:"clone_dir,omitempty"`
	Dispatcher          string   `json:"dispatcher,omitempty"` // pool or redis
	RedisAddr           string   `json:"redis_addr,omitempty"`
	WorkerPoolSize      int      `json:"worker_pool_size,omitempty"`
	QueueSize           int      `json:"queue_size,omitempty"`
	WorkerRunTimeout    Duration `json:"worker_run_timeout,omitempty"`
	ExternalCallTimeout Duration `json:"external_call_timeout,omitempty"`
	JanitorEnabled      bool     `json:"janitor_enabled,omitempty"`

	Verbose bool `json:"verbose,omitempty"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:                8080,
		CORSOrigins:         "*",
		StoreBackend:        StoreMemory,
		MongoDatabase:       "JuryNova",
		SearchTool:          SearchDuckDuckGo,
		CloneDir:            filepath.Join(os.TempDir(), "judge-repos"),
		Dispatcher:          DispatchPool,
		RedisAddr:           "localhost:6379",
		WorkerPoolSize:      4,
		QueueSize:           64,
		WorkerRunTimeout:    Duration(10 * time.Minute),
		ExternalCallTimeout: Duration(2 * time.Minute),
		LLMBurst:            1,
	}
}

// FromEnv reads the configuration from environment variables, falling back to Defaults.
func FromEnv() (*Config, error) {
	d := Defaults()
	cfg := &Config{
		Port:        getEnvInt("PORT", d.Port),
		CORSOrigins: getEnvString("CORS_ORIGINS", d.CORSOrigins),

		StoreBackend:  strings.ToLower(getEnvString("STORE_BACKEND", d.StoreBackend)),
		DatabaseURL:   getEnvString("DATABASE_URL", ""),
		MongoURI:      getEnvString("MONGODB_URI", ""),
		MongoDatabase: getEnvString("MONGODB_DATABASE", d.MongoDatabase),

		GeminiAPIKey:   getEnvString("GEMINI_API_KEY", ""),
		ModelLite:      getEnvString("GEMINI_MODEL_LITE", ""),
		ModelStandard:  getEnvString("GEMINI_MODEL_STANDARD", ""),
		ModelAdvanced:  getEnvString("GEMINI_MODEL_ADVANCED", ""),
		EmbeddingModel: getEnvString("GEMINI_EMBEDDING_MODEL", ""),
		LLMQPS:         getEnvFloat("LLM_QPS", d.LLMQPS),
		LLMBurst:       getEnvInt("LLM_BURST", d.LLMBurst),

		SearchTool:         strings.ToLower(getEnvString("SEARCH_TOOL", d.SearchTool)),
		GoogleSearchAPIKey: getEnvString("GOOGLE_SEARCH_API_KEY", ""),
		GoogleSearchCX:     getEnvString("GOOGLE_SEARCH_CX", ""),

		ElevenLabsAPIKey:  getEnvString("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID: getEnvString("ELEVENLABS_VOICE_ID", ""),
		ElevenLabsModel:   getEnvString("ELEVENLABS_MODEL", ""),

		CloneDir:            getEnvString("CLONE_DIR", d.CloneDir),
		Dispatcher:          strings.ToLower(getEnvString("DISPATCHER", d.Dispatcher)),
		RedisAddr:           getEnvString("REDIS_ADDR", d.RedisAddr),
		WorkerPoolSize:      getEnvInt("WORKER_POOL_SIZE", d.WorkerPoolSize),
		QueueSize:           getEnvInt("WORKER_QUEUE_SIZE", d.QueueSize),
		WorkerRunTimeout:    Duration(getEnvDuration("WORKER_RUN_TIMEOUT", d.WorkerRunTimeout.Std())),
		ExternalCallTimeout: Duration(getEnvDuration("EXTERNAL_CALL_TIMEOUT", d.ExternalCallTimeout.Std())),
		JanitorEnabled:      getEnvBool("JANITOR_ENABLED", true),
		Verbose:             getEnvBool("VERBOSE", false),
	}
	return cfg, nil
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values and that every selected
// backend has what it needs.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 1 and 65535, got %d", c.Port)
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres store")
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("config error: 'mongo_uri' is required for the mongo store")
		}
	default:
		return fmt.Errorf("config error: unknown store backend %q", c.StoreBackend)
	}

	switch c.SearchTool {
	case SearchDuckDuckGo:
	case SearchGoogle:
		if c.GoogleSearchAPIKey == "" || c.GoogleSearchCX == "" {
			return fmt.Errorf("config error: google search needs 'google_search_api_key' and 'google_search_cx'")
		}
	default:
		return fmt.Errorf("config error: unknown search tool %q", c.SearchTool)
	}

	switch c.Dispatcher {
	case DispatchPool:
	case DispatchRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("config error: 'redis_addr' is required for the redis dispatcher")
		}
	default:
		return fmt.Errorf("config error: unknown dispatcher %q", c.Dispatcher)
	}

	if c.WorkerPoolSize < 0 || c.QueueSize < 0 {
		return fmt.Errorf("config error: worker pool and queue sizes must be non-negative")
	}
	if c.LLMQPS < 0 {
		return fmt.Errorf("config error: 'llm_qps' must be non-negative")
	}
	return nil
}

// RequireGemini reports a missing model API key.
func (c *Config) RequireGemini() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required (or use --api-key flag)")
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
// This is used to apply a config file over the environment.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	mergeString := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	mergeString(&result.CORSOrigins, defaults.CORSOrigins)
	mergeString(&result.StoreBackend, defaults.StoreBackend)
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.MongoURI, defaults.MongoURI)
	mergeString(&result.MongoDatabase, defaults.MongoDatabase)
	mergeString(&result.GeminiAPIKey, defaults.GeminiAPIKey)
	mergeString(&result.ModelLite, defaults.ModelLite)
	mergeString(&result.ModelStandard, defaults.ModelStandard)
	mergeString(&result.ModelAdvanced, defaults.ModelAdvanced)
	mergeString(&result.EmbeddingModel, defaults.EmbeddingModel)
	mergeString(&result.SearchTool, defaults.SearchTool)
	mergeString(&result.GoogleSearchAPIKey, defaults.GoogleSearchAPIKey)
	mergeString(&result.GoogleSearchCX, defaults.GoogleSearchCX)
	mergeString(&result.ElevenLabsAPIKey, defaults.ElevenLabsAPIKey)
	mergeString(&result.ElevenLabsVoiceID, defaults.ElevenLabsVoiceID)
	mergeString(&result.ElevenLabsModel, defaults.ElevenLabsModel)
	mergeString(&result.CloneDir, defaults.CloneDir)
	mergeString(&result.Dispatcher, defaults.Dispatcher)
	mergeString(&result.RedisAddr, defaults.RedisAddr)

	// Numeric fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.WorkerPoolSize == 0 {
		result.WorkerPoolSize = defaults.WorkerPoolSize
	}
	if result.QueueSize == 0 {
		result.QueueSize = defaults.QueueSize
	}
	if result.LLMQPS == 0 {
		result.LLMQPS = defaults.LLMQPS
	}
	if result.LLMBurst == 0 {
		result.LLMBurst = defaults.LLMBurst
	}
	if result.WorkerRunTimeout == 0 {
		result.WorkerRunTimeout = defaults.WorkerRunTimeout
	}
	if result.ExternalCallTimeout == 0 {
		result.ExternalCallTimeout = defaults.ExternalCallTimeout
	}

	// Bool fields: cannot distinguish unset from false, so a true on either side wins
	result.JanitorEnabled = result.JanitorEnabled || defaults.JanitorEnabled
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

// getEnvString gets an environment variable as a string with a default value.
func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets an environment variable as a float with a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
