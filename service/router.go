package service

import (
	"clipnest-pipeline/constant"
	"clipnest-pipeline/dto"
	"clipnest-pipeline/entities"
	"clipnest-pipeline/pkg/platform"
	"clipnest-pipeline/pkg/workqueue"
	"clipnest-pipeline/repository"
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type RouteOutcome string

const (
	RouteRouted              RouteOutcome = "routed"
	RouteIgnoredEvent        RouteOutcome = "ignored_event"
	RouteNoURL               RouteOutcome = "no_url"
	RouteAlreadyProcessed    RouteOutcome = "already_processed"
	RouteInFlight            RouteOutcome = "in_flight"
	RouteUnsupportedPlatform RouteOutcome = "unsupported_platform"
	RouteStoreUnavailable    RouteOutcome = "store_unavailable"
)

// Router turns new-video notifications into scrape jobs.
type Router struct {
	repo  repository.VideoRepository
	queue workqueue.Queue
	waker Waker
}

func NewRouter(repo repository.VideoRepository, queue workqueue.Queue, waker Waker) *Router {
	if waker == nil {
		waker = NopWaker{}
	}
	return &Router{repo: repo, queue: queue, waker: waker}
}

// Route applies the ingest gates in order. A failed gate yields an inert
// outcome and a nil error; only a failed enqueue is returned as an error so
// the notification can be redelivered.
func (r *Router) Route(ctx context.Context, n dto.Notification) (RouteOutcome, error) {
	if n.Type != constant.EventTypeInsert {
		return RouteIgnoredEvent, nil
	}

	id := n.Record.Id
	logger := zerolog.Ctx(ctx).With().Str("video_id", id.String()).Logger()
	ctx = logger.WithContext(ctx)

	videoURL, transcript, status := derefOr(n.Record.VideoUrl), derefOr(n.Record.TranscriptText), derefOr(n.Record.ProcessingStatus)

	video, err := r.repo.FindVideoById(ctx, id)
	switch {
	case err == nil:
		videoURL, transcript, status = derefOr(video.VideoUrl), derefOr(video.TranscriptText), string(video.Status())
	case errors.Is(err, gorm.ErrRecordNotFound):
		logger.Debug().Msg("row not visible yet, using notification fields")
	default:
		logger.Error().Err(err).Msg("failed to read video")
		return RouteStoreUnavailable, nil
	}

	if videoURL == "" {
		logger.Info().Msg("skipping: no video_url")
		return RouteNoURL, nil
	}
	if transcript != "" {
		logger.Info().Msg("skipping: already processed")
		return RouteAlreadyProcessed, nil
	}
	if constant.ProcessingStatus(status).InFlight() {
		logger.Info().Str("status", status).Msg("skipping: already in flight")
		return RouteInFlight, nil
	}

	p, err := platform.Detect(videoURL)
	if err != nil {
		reason := err.Error()
		logger.Error().Str("video_url", videoURL).Msg("unsupported platform")
		if updateErr := r.repo.UpdateVideoStatus(ctx, id, constant.ProcessingStatusFailed, &reason); updateErr != nil {
			logger.Error().Err(updateErr).Msg("failed to mark video failed")
		}
		return RouteUnsupportedPlatform, nil
	}

	if err := r.repo.UpdateVideoStatus(ctx, id, constant.ProcessingStatusPending, nil); err != nil {
		logger.Warn().Err(err).Msg("failed to set pending status")
	}

	msgID, err := workqueue.Send(ctx, r.queue, constant.QueueScrapeJobs, dto.ScraperJob{Id: id, VideoUrl: videoURL})
	if err != nil {
		return "", fmt.Errorf("route video %s: %w", id, err)
	}
	logger.Info().Str("platform", string(p)).Int64("msg_id", msgID).Msg("routed video to scrape")

	if err := r.waker.Wake(ctx, constant.StageScrape); err != nil {
		logger.Error().Err(err).Msg("failed to wake scrape stage")
	}
	return RouteRouted, nil
}

// Sweep routes rows the notification path never picked up: a url, no
// transcript and no status. Returns the number of rows routed.
func (r *Router) Sweep(ctx context.Context, limit int) (int, error) {
	videos, err := r.repo.FindUnroutedVideos(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("find unrouted videos: %w", err)
	}

	routed := 0
	for _, video := range videos {
		outcome, err := r.Route(ctx, notificationFor(video))
		if err != nil {
			return routed, err
		}
		if outcome == RouteRouted {
			routed++
		}
	}
	if routed > 0 {
		zerolog.Ctx(ctx).Info().Int("routed", routed).Msg("sweep routed videos")
	}
	return routed, nil
}

func notificationFor(video *entities.Video) dto.Notification {
	var status *string
	if video.ProcessingStatus != nil {
		s := string(*video.ProcessingStatus)
		status = &s
	}
	return dto.Notification{
		Type:   constant.EventTypeInsert,
		Table:  video.TableName(),
		Schema: "public",
		Record: dto.NotificationRecord{
			Id:               video.ID,
			VideoUrl:         video.VideoUrl,
			TranscriptText:   video.TranscriptText,
			ProcessingStatus: status,
		},
	}
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
