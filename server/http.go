package server

import (
	"clipnest-pipeline/config"
	"clipnest-pipeline/constant"
	"clipnest-pipeline/handler"
	"clipnest-pipeline/pkg/rabbitmq"
	"clipnest-pipeline/service"
	"context"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(SetupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	local := service.NewLocalWaker()
	var waker service.Waker = local
	var remote *rabbitmq.Waker

	if cfg.Queue.Enabled() {
		conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn, waking locally only")
		} else {
			remote, err = rabbitmq.NewWaker(conn, cfg.Queue)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("NewWaker, waking locally only")
			} else {
				waker = service.FallbackWaker{Primary: remote, Secondary: local}

				wakeConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, cfg.Queue.Workers, handler.WakeHandler)
				go func() {
					err := wakeConsumer.Consume(ctx, handler.ServiceDependencies{Waker: local})
					if err != nil && !errors.Is(err, context.Canceled) {
						zerolog.Ctx(ctx).Error().Err(err).Msg("wake consumer error")
					}
				}()
			}
		}
	}

	app, err := NewApp(ctx, cfg, waker)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewApp")
		return
	}
	defer app.Close()

	runner := service.NewRunner(app.Pipeline.Workers(), local, service.RunnerConfig{
		WorkersPerStage: cfg.Pipeline.WorkersPerStage,
		IdlePollMin:     cfg.Pipeline.IdlePollMin,
		IdlePollMax:     cfg.Pipeline.IdlePollMax,
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runner.Run(ctx)
	}()

	if cfg.Pipeline.SweepInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runSweeper(ctx, app.Router, cfg.Pipeline.SweepInterval, cfg.Pipeline.SweepBatch)
		}()
	}

	deps := handler.ServiceDependencies{
		Router: app.Router,
		Waker:  waker,
		Queue:  app.Queue,
	}

	r := gin.Default()
	r.Use(handler.WithLogger(ctx))
	addHealth(r)
	r.POST("/webhooks/videos", handler.Webhook(deps))
	r.POST("/workers/:stage/wake", handler.Wake(deps))
	r.GET("/queues", handler.Queues(deps))

	srv := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Str("port", cfg.Server.HttpPort).Msg("start http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	wg.Wait()
	if remote != nil {
		_ = remote.Close()
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

// runSweeper routes rows the notification path missed, once at start and
// then every interval.
func runSweeper(ctx context.Context, router *service.Router, interval time.Duration, batch int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := router.Sweep(ctx, batch); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("sweep failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}
