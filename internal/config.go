package internal

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// Config holds application settings
type Config struct {
	// Providers
	GenerationModel   string
	GenerationBaseURL string
	GoogleAPIKey      string
	ChatModel         string
	ChatBaseURL       string
	OpenAIAPIKey      string
	ProviderTimeout   time.Duration
	SummaryPrompt     string

	// Captions
	Language          string
	TranscriptWorkers int

	// Cache
	CacheBackend  string
	ArtifactsDir  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// HTTP server
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	DedupeInflight  bool

	Verbose       bool
	MCPLogEnabled bool

	// Fixed XDG paths (not configurable)
	ConfigDir string
	DataDir   string
	CacheDir  string
	TempDir   string
}

//go:embed config.toml prompts/*.tmpl
var defaultFS embed.FS

// DefaultAllowedOrigins are the local front-end origins allowed by CORS
var DefaultAllowedOrigins = []string{
	"http://localhost",
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:8080",
}

// EnsureDefaultConfig checks if a config file exists in the XDG config directory
// and creates it from the embedded default if it doesn't exist
func EnsureDefaultConfig(configDir string) error {
	filePath := filepath.Join(configDir, "config.toml")
	if FileExists(filePath) {
		return nil
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultContent, err := defaultFS.ReadFile("config.toml")
	if err != nil {
		return fmt.Errorf("reading embedded default configuration: %w", err)
	}

	if err := os.WriteFile(filePath, defaultContent, 0644); err != nil {
		return fmt.Errorf("writing default configuration: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Created default configuration at %s\n", filePath)
	return nil
}

// InitConfig initializes Viper and loads configuration
func InitConfig() *Config {
	// XDG standard directories
	configDir := filepath.Join(xdg.ConfigHome, "eduvision")
	dataDir := filepath.Join(xdg.DataHome, "eduvision")
	cacheDir := filepath.Join(xdg.CacheHome, "eduvision")

	v := viper.New()
	setDefaults(v, cacheDir)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("EDUVISION")
	v.AutomaticEnv()

	// Provider keys use their conventional names
	_ = v.BindEnv("google_api_key", "EDUVISION_GOOGLE_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv("openai_api_key", "EDUVISION_OPENAI_API_KEY", "OPENAI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	config := configFromViper(v)
	config.ConfigDir = configDir
	config.DataDir = dataDir
	config.CacheDir = cacheDir
	config.TempDir = filepath.Join(cacheDir, "subtitles")

	return config
}

func setDefaults(v *viper.Viper, cacheDir string) {
	v.SetDefault("generation_model", "gemini-2.5-flash")
	v.SetDefault("generation_base_url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("chat_model", "gpt-4o-mini")
	v.SetDefault("chat_base_url", "")
	v.SetDefault("provider_timeout", 2*time.Minute)
	v.SetDefault("summary_prompt", "") // if empty will use default prompt template

	v.SetDefault("language", "en")
	v.SetDefault("transcript_workers", DefaultTranscriptWorkers)

	v.SetDefault("cache_backend", CacheBackendFile)
	v.SetDefault("artifacts_dir", filepath.Join(cacheDir, "artifacts"))
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("port", 8000)
	v.SetDefault("read_timeout", 10*time.Second)
	v.SetDefault("write_timeout", 5*time.Minute)
	v.SetDefault("shutdown_timeout", 30*time.Second)
	v.SetDefault("allowed_origins", DefaultAllowedOrigins)
	v.SetDefault("dedupe_inflight", false)

	v.SetDefault("verbose", false)
	v.SetDefault("mcp_log", true)
}

func configFromViper(v *viper.Viper) *Config {
	return &Config{
		GenerationModel:   v.GetString("generation_model"),
		GenerationBaseURL: v.GetString("generation_base_url"),
		GoogleAPIKey:      v.GetString("google_api_key"),
		ChatModel:         v.GetString("chat_model"),
		ChatBaseURL:       v.GetString("chat_base_url"),
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		ProviderTimeout:   v.GetDuration("provider_timeout"),
		SummaryPrompt:     v.GetString("summary_prompt"),

		Language:          v.GetString("language"),
		TranscriptWorkers: v.GetInt("transcript_workers"),

		CacheBackend:  strings.ToLower(v.GetString("cache_backend")),
		ArtifactsDir:  v.GetString("artifacts_dir"),
		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),

		Port:            v.GetInt("port"),
		ReadTimeout:     v.GetDuration("read_timeout"),
		WriteTimeout:    v.GetDuration("write_timeout"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		AllowedOrigins:  v.GetStringSlice("allowed_origins"),
		DedupeInflight:  v.GetBool("dedupe_inflight"),

		Verbose:       v.GetBool("verbose"),
		MCPLogEnabled: v.GetBool("mcp_log"),
	}
}

// NewStore opens the artifact cache selected by config.CacheBackend
func NewStore(config *Config, logger *slog.Logger) (Store, error) {
	switch config.CacheBackend {
	case "", CacheBackendFile:
		return NewFileStore(config.ArtifactsDir, logger)
	case CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", config.RedisAddr, err)
		}
		return NewRedisStore(client, logger), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want %s or %s)", config.CacheBackend, CacheBackendFile, CacheBackendRedis)
	}
}
