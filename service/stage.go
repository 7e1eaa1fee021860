package service

import (
	"clipnest-pipeline/constant"
	"clipnest-pipeline/pkg/workqueue"
	"clipnest-pipeline/repository"
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"strings"
	"time"
)

var ErrNonRetryable = errors.New("non-retryable error")

type Outcome int

const (
	OutcomeIdle Outcome = iota
	OutcomeProcessed
	OutcomeDiscarded
	OutcomePoisoned
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeProcessed:
		return "processed"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomePoisoned:
		return "poisoned"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Job is a queue payload that belongs to one video record.
type Job interface {
	VideoID() uuid.UUID
}

// StepResult is what a stage step hands back on success. Fields is written
// to the record in one partial update; Next, when non-nil, is the payload
// for the stage's output queue.
type StepResult struct {
	Fields map[string]interface{}
	Next   any
}

type Step[T Job] func(ctx context.Context, job T) (StepResult, error)

// HandOff describes where a stage sends its follow-up job. An optional
// hand-off never fails the invocation: the input message is archived first
// and enqueue or wake errors are only logged.
type HandOff struct {
	Queue    string
	Stage    constant.Stage
	Optional bool
}

type StageConfig[T Job] struct {
	Name            constant.Stage
	Queue           string
	Visibility      time.Duration
	InProgress      constant.ProcessingStatus
	PoisonThreshold int
	Next            *HandOff
	Step            Step[T]
}

// Worker is the type-erased view of a Stage used by the runner.
type Worker interface {
	Stage() constant.Stage
	RunOnce(ctx context.Context) (Outcome, error)
}

type Stage[T Job] struct {
	cfg   StageConfig[T]
	queue workqueue.Queue
	repo  repository.VideoRepository
	waker Waker
}

func NewStage[T Job](cfg StageConfig[T], queue workqueue.Queue, repo repository.VideoRepository, waker Waker) *Stage[T] {
	if waker == nil {
		waker = NopWaker{}
	}
	return &Stage[T]{
		cfg:   cfg,
		queue: queue,
		repo:  repo,
		waker: waker,
	}
}

func (s *Stage[T]) Stage() constant.Stage {
	return s.cfg.Name
}

// RunOnce leases at most one message and carries it through the stage.
// Step failures are recorded on the video record and reported as
// OutcomeFailed with a nil error; only queue or store errors that leave the
// stage unable to make progress are returned.
func (s *Stage[T]) RunOnce(ctx context.Context) (Outcome, error) {
	msgs, err := s.queue.Lease(ctx, s.cfg.Queue, s.cfg.Visibility, 1)
	if err != nil {
		return OutcomeIdle, err
	}
	if len(msgs) == 0 {
		zerolog.Ctx(ctx).Trace().Str("stage", s.cfg.Name.String()).Msg("queue empty")
		return OutcomeIdle, nil
	}
	msg := msgs[0]

	logger := zerolog.Ctx(ctx).With().
		Str("stage", s.cfg.Name.String()).
		Str("queue", s.cfg.Queue).
		Int64("msg_id", msg.ID).
		Int("read_ct", msg.ReadCount).
		Logger()
	ctx = logger.WithContext(ctx)

	job, err := workqueue.Decode[T](msg)
	if err == nil && job.VideoID() == uuid.Nil {
		err = errors.New("payload has no video id")
	}
	if err != nil {
		logger.Error().Err(err).Msg("discarding undecodable message")
		if archiveErr := s.queue.Archive(ctx, s.cfg.Queue, msg.ID); archiveErr != nil {
			return OutcomeDiscarded, archiveErr
		}
		return OutcomeDiscarded, nil
	}

	id := job.VideoID()
	logger = logger.With().Str("video_id", id.String()).Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Msg("processing message")

	if IsPoisoned(msg.ReadCount, s.cfg.PoisonThreshold) {
		reason := poisonMessage(s.cfg.Name, msg.ReadCount)
		logger.Error().Msg("poison pill detected")
		if err := s.repo.UpdateVideoStatus(ctx, id, constant.ProcessingStatusFailed, &reason); err != nil {
			logger.Error().Err(err).Msg("failed to mark poisoned video failed")
		}
		if err := s.queue.Archive(ctx, s.cfg.Queue, msg.ID); err != nil {
			return OutcomePoisoned, err
		}
		return OutcomePoisoned, nil
	}

	if s.cfg.InProgress != "" {
		if err := s.repo.UpdateVideoStatus(ctx, id, s.cfg.InProgress, nil); err != nil {
			logger.Warn().Err(err).Msg("failed to update in-progress status")
		}
	}

	result, err := s.cfg.Step(ctx, job)
	if err != nil {
		return s.fail(ctx, msg, id, err)
	}

	if err := s.repo.UpdateVideoFields(ctx, id, result.Fields); err != nil {
		return s.fail(ctx, msg, id, err)
	}

	next := s.cfg.Next
	if result.Next != nil && next != nil && !next.Optional {
		msgID, err := workqueue.Send(ctx, s.queue, next.Queue, result.Next)
		if err != nil {
			return s.fail(ctx, msg, id, err)
		}
		logger.Info().Int64("next_msg_id", msgID).Str("next_queue", next.Queue).Msg("enqueued next stage")
	}

	if err := s.queue.Archive(ctx, s.cfg.Queue, msg.ID); err != nil {
		return OutcomeProcessed, err
	}

	if result.Next != nil && next != nil {
		if next.Optional {
			msgID, err := workqueue.Send(ctx, s.queue, next.Queue, result.Next)
			if err != nil {
				logger.Error().Err(err).Str("next_queue", next.Queue).Msg("failed to enqueue optional follow-up")
				return OutcomeProcessed, nil
			}
			logger.Info().Int64("next_msg_id", msgID).Str("next_queue", next.Queue).Msg("enqueued next stage")
		}
		if err := s.waker.Wake(ctx, next.Stage); err != nil {
			logger.Error().Err(err).Str("next_stage", next.Stage.String()).Msg("failed to wake next stage")
		}
	}

	logger.Info().Msg("message processed")
	return OutcomeProcessed, nil
}

// fail records the error on the video. The message is left to expire and be
// redelivered unless the error is non-retryable.
func (s *Stage[T]) fail(ctx context.Context, msg workqueue.Message, id uuid.UUID, cause error) (Outcome, error) {
	reason := failureMessage(cause)
	zerolog.Ctx(ctx).Error().Err(cause).Msg("stage failed")

	if err := s.repo.UpdateVideoStatus(ctx, id, constant.ProcessingStatusFailed, &reason); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to mark video failed")
	}

	if errors.Is(cause, ErrNonRetryable) {
		if err := s.queue.Archive(ctx, s.cfg.Queue, msg.ID); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to archive non-retryable message")
		}
	}
	return OutcomeFailed, nil
}

// failureMessage drops the ErrNonRetryable marker from joined errors.
func failureMessage(err error) string {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(joined.Unwrap()))
	for _, e := range joined.Unwrap() {
		if e == ErrNonRetryable {
			continue
		}
		parts = append(parts, e.Error())
	}
	if len(parts) == 0 {
		return err.Error()
	}
	return strings.Join(parts, "; ")
}

// Drain runs the worker until its queue is idle and returns how many
// messages it took off the queue.
func Drain(ctx context.Context, w Worker) (int, error) {
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		outcome, err := w.RunOnce(ctx)
		if err != nil {
			return processed, err
		}
		if outcome == OutcomeIdle {
			return processed, nil
		}
		processed++
	}
}
