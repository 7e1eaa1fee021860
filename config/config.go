package config

import (
	"database/sql"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
	"io/fs"
	"strings"
	"time"
)

type Config struct {
	App            App
	Server         Server
	Database       Database
	DB             *sql.DB `validate:"-"`
	Queue          *RabbitMQ
	Redis          Redis
	MinIO          MinIO
	Storage        *minio.Client `validate:"-"`
	ScrapeCreators ScrapeCreators
	OpenAI         OpenAI
	Mapbox         Mapbox
	Pipeline       Pipeline
}

type App struct {
	Environment string `validate:"oneof=production staging develop"`
}

type Server struct {
	HttpPort string `validate:"required"`
}

type Database struct {
	DSN string `validate:"required"`
}

// RabbitMQ carries wake signals between processes. An empty Host disables it.
type RabbitMQ struct {
	Host         string
	Port         int
	User         string
	Pass         string
	ExchangeName string `validate:"required_with=Host"`
	Kind         string `validate:"required_with=Host"`
	Workers      int
}

func (r *RabbitMQ) Enabled() bool {
	return r != nil && r.Host != ""
}

// Redis backs the geocode cache. An empty Addr disables it.
type Redis struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// MinIO stores raw scrape responses. An empty Endpoint disables it.
type MinIO struct {
	Endpoint        string
	AccessID        string
	SecretAccessKey string
	Bucket          string `validate:"required_with=Endpoint"`
	Secure          bool
}

type ScrapeCreators struct {
	BaseURL string
	APIKey  string `validate:"required"`
	Timeout time.Duration
}

type OpenAI struct {
	BaseURL        string
	APIKey         string `validate:"required"`
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
}

type Mapbox struct {
	BaseURL     string
	AccessToken string `validate:"required"`
	Timeout     time.Duration
}

type Pipeline struct {
	PoisonThreshold int           `validate:"min=1"`
	WorkersPerStage int           `validate:"min=1"`
	IdlePollMin     time.Duration `validate:"gt=0"`
	IdlePollMax     time.Duration `validate:"gtefield=IdlePollMin"`
	SweepInterval   time.Duration
	SweepBatch      int `validate:"min=1"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "develop")
	v.SetDefault("server.port", "8080")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.exchange_name", "pipeline_wake")
	v.SetDefault("rabbitmq.kind", "direct")
	v.SetDefault("rabbitmq.workers", 1)
	v.SetDefault("redis.ttl", 7*24*time.Hour)
	v.SetDefault("minio.bucket", "clipnest-scrapes")
	v.SetDefault("scrapecreators.timeout", 60*time.Second)
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("openai.timeout", 120*time.Second)
	v.SetDefault("mapbox.timeout", 15*time.Second)
	v.SetDefault("pipeline.poison_threshold", 3)
	v.SetDefault("pipeline.workers_per_stage", 1)
	v.SetDefault("pipeline.idle_poll_min", time.Second)
	v.SetDefault("pipeline.idle_poll_max", 30*time.Second)
	v.SetDefault("pipeline.sweep_interval", 30*time.Second)
	v.SetDefault("pipeline.sweep_batch", 50)
}

// Read loads config.yaml from path, with environment overrides such as
// OPENAI_API_KEY for openai.api_key. The file is optional. No connections
// are opened.
func Read(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		App: App{
			Environment: v.GetString("app.environment"),
		},
		Server: Server{
			HttpPort: v.GetString("server.port"),
		},
		Database: Database{
			DSN: v.GetString("database.dsn"),
		},
		Queue: &RabbitMQ{
			Host:         v.GetString("rabbitmq.host"),
			Port:         v.GetInt("rabbitmq.port"),
			User:         v.GetString("rabbitmq.user"),
			Pass:         v.GetString("rabbitmq.pass"),
			ExchangeName: v.GetString("rabbitmq.exchange_name"),
			Kind:         v.GetString("rabbitmq.kind"),
			Workers:      v.GetInt("rabbitmq.workers"),
		},
		Redis: Redis{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			TTL:      v.GetDuration("redis.ttl"),
		},
		MinIO: MinIO{
			Endpoint:        v.GetString("minio.url"),
			AccessID:        v.GetString("minio.access_id"),
			SecretAccessKey: v.GetString("minio.secret_access_key"),
			Bucket:          v.GetString("minio.bucket"),
			Secure:          v.GetBool("minio.secure"),
		},
		ScrapeCreators: ScrapeCreators{
			BaseURL: v.GetString("scrapecreators.base_url"),
			APIKey:  v.GetString("scrapecreators.api_key"),
			Timeout: v.GetDuration("scrapecreators.timeout"),
		},
		OpenAI: OpenAI{
			BaseURL:        v.GetString("openai.base_url"),
			APIKey:         v.GetString("openai.api_key"),
			ChatModel:      v.GetString("openai.chat_model"),
			EmbeddingModel: v.GetString("openai.embedding_model"),
			Timeout:        v.GetDuration("openai.timeout"),
		},
		Mapbox: Mapbox{
			BaseURL:     v.GetString("mapbox.base_url"),
			AccessToken: v.GetString("mapbox.access_token"),
			Timeout:     v.GetDuration("mapbox.timeout"),
		},
		Pipeline: Pipeline{
			PoisonThreshold: v.GetInt("pipeline.poison_threshold"),
			WorkersPerStage: v.GetInt("pipeline.workers_per_stage"),
			IdlePollMin:     v.GetDuration("pipeline.idle_poll_min"),
			IdlePollMax:     v.GetDuration("pipeline.idle_poll_max"),
			SweepInterval:   v.GetDuration("pipeline.sweep_interval"),
			SweepBatch:      v.GetInt("pipeline.sweep_batch"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Load reads the config (and a .env file when present) and opens the
// database handle and, if configured, the MinIO client.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	cfg.DB = db

	if cfg.MinIO.Endpoint != "" {
		minioClient, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessID, cfg.MinIO.SecretAccessKey, ""),
			Secure: cfg.MinIO.Secure,
		})
		if err != nil {
			return nil, err
		}
		cfg.Storage = minioClient
	}

	return cfg, nil
}
