package server

import (
	"clipnest-pipeline/config"
	"clipnest-pipeline/constant"
	"clipnest-pipeline/pkg/cache"
	"clipnest-pipeline/pkg/mapbox"
	"clipnest-pipeline/pkg/openai"
	"clipnest-pipeline/pkg/scrapecreators"
	"clipnest-pipeline/pkg/storage"
	"clipnest-pipeline/pkg/workqueue"
	"clipnest-pipeline/repository"
	"clipnest-pipeline/service"
	"context"
	"github.com/rs/zerolog"
	"os"
)

// App holds the wired pipeline shared by the server and the one-shot
// commands.
type App struct {
	Repo     repository.VideoRepository
	Queue    workqueue.Queue
	Pipeline *service.Pipeline
	Router   *service.Router
	cache    *cache.RedisCache
}

// NewApp wires the store, the queue and the external collaborators. Redis
// and MinIO are attached only when configured; a failure to reach either is
// logged and the pipeline runs without it.
func NewApp(ctx context.Context, cfg *config.Config, waker service.Waker) (*App, error) {
	repo, err := repository.NewRepo(cfg.DB)
	if err != nil {
		return nil, err
	}
	queue := workqueue.New(repo.GetDB())

	deps := service.Dependencies{
		Repo:            repo,
		Queue:           queue,
		Waker:           waker,
		Scraper:         scrapecreators.NewClient(cfg.ScrapeCreators.BaseURL, cfg.ScrapeCreators.APIKey, cfg.ScrapeCreators.Timeout),
		Geocoder:        mapbox.NewClient(cfg.Mapbox.BaseURL, cfg.Mapbox.AccessToken, cfg.Mapbox.Timeout),
		PoisonThreshold: cfg.Pipeline.PoisonThreshold,
	}

	llm := openai.NewClient(openai.Config{
		BaseURL:        cfg.OpenAI.BaseURL,
		APIKey:         cfg.OpenAI.APIKey,
		ChatModel:      cfg.OpenAI.ChatModel,
		EmbeddingModel: cfg.OpenAI.EmbeddingModel,
		Timeout:        cfg.OpenAI.Timeout,
	})
	deps.Enricher = llm
	deps.Embedder = llm

	app := &App{Repo: repo, Queue: queue}

	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, geocode cache disabled")
		} else {
			deps.GeoCache = redisCache
			app.cache = redisCache
		}
	}

	if cfg.Storage != nil {
		artifacts := storage.NewArtifactStore(cfg.Storage, cfg.MinIO.Bucket)
		if err := artifacts.EnsureBucket(ctx); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("bucket", cfg.MinIO.Bucket).Msg("minio unavailable, raw scrape archival disabled")
		} else {
			deps.Artifacts = artifacts
		}
	}

	app.Pipeline = service.NewPipeline(deps)
	app.Router = service.NewRouter(repo, queue, waker)
	return app, nil
}

func (a *App) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
}

func SetupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "clipnest-pipeline").Logger()
	return logger.WithContext(context.Background())
}
