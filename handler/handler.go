package handler

import (
	"clipnest-pipeline/constant"
	"clipnest-pipeline/dto"
	"clipnest-pipeline/pkg/rabbitmq"
	"clipnest-pipeline/service"
	"context"
	"fmt"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"net/http"
)

type Router interface {
	Route(ctx context.Context, n dto.Notification) (service.RouteOutcome, error)
}

type QueueDepther interface {
	Depth(ctx context.Context, queueName string) (int64, error)
}

type ServiceDependencies struct {
	Router Router
	Waker  service.Waker
	Queue  QueueDepther
}

// WithLogger copies the process logger into every request context so
// downstream code can use zerolog.Ctx.
func WithLogger(ctx context.Context) gin.HandlerFunc {
	logger := zerolog.Ctx(ctx)
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

// Webhook accepts row-insert notifications. Every routing decision answers
// 200 so the sender does not retry; only a failed enqueue answers 500.
func Webhook(deps ServiceDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var n dto.Notification
		if err := c.ShouldBindJSON(&n); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		outcome, err := deps.Router.Route(ctx, n)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("video_id", n.Record.Id.String()).Msg("failed to route notification")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"outcome": outcome})
	}
}

func Wake(deps ServiceDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		stage, ok := constant.ParseStage(c.Param("stage"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown stage %q", c.Param("stage"))})
			return
		}

		if err := deps.Waker.Wake(c.Request.Context(), stage); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"stage": stage})
	}
}

func Queues(deps ServiceDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		depths := make(map[string]int64, len(constant.Stages))
		for _, stage := range constant.Stages {
			n, err := deps.Queue.Depth(c.Request.Context(), stage.QueueName())
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			depths[stage.QueueName()] = n
		}

		c.JSON(http.StatusOK, gin.H{"queues": depths})
	}
}

// WakeHandler forwards a wake signal received from another process to the
// local runner loops.
func WakeHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	stage, ok := rabbitmq.StageFromRoutingKey(msg.RoutingKey)
	if !ok {
		zerolog.Ctx(ctx).Warn().Str("routing_key", msg.RoutingKey).Msg("ignoring wake for unknown stage")
		return nil
	}

	return deps.Waker.Wake(ctx, stage)
}
