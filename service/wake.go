package service

import (
	"clipnest-pipeline/constant"
	"context"
	"fmt"
	"github.com/rs/zerolog"
)

// Waker signals a stage that its queue has new work.
type Waker interface {
	Wake(ctx context.Context, stage constant.Stage) error
}

type NopWaker struct{}

func (NopWaker) Wake(context.Context, constant.Stage) error {
	return nil
}

// LocalWaker delivers wake signals to the runner loops of this process.
// Each stage has a one-slot channel, so repeated wakes collapse into one.
type LocalWaker struct {
	chans map[constant.Stage]chan struct{}
}

func NewLocalWaker() *LocalWaker {
	chans := make(map[constant.Stage]chan struct{}, len(constant.Stages))
	for _, stage := range constant.Stages {
		chans[stage] = make(chan struct{}, 1)
	}
	return &LocalWaker{chans: chans}
}

func (w *LocalWaker) Wake(_ context.Context, stage constant.Stage) error {
	ch, ok := w.chans[stage]
	if !ok {
		return fmt.Errorf("unknown stage %q", stage)
	}
	select {
	case ch <- struct{}{}:
	default:
	}
	return nil
}

// C returns the channel a runner loop waits on for the stage.
func (w *LocalWaker) C(stage constant.Stage) <-chan struct{} {
	return w.chans[stage]
}

// FallbackWaker sends through Primary and uses Secondary when Primary fails
// or is unset.
type FallbackWaker struct {
	Primary   Waker
	Secondary Waker
}

func (w FallbackWaker) Wake(ctx context.Context, stage constant.Stage) error {
	if w.Primary != nil {
		err := w.Primary.Wake(ctx, stage)
		if err == nil {
			return nil
		}
		zerolog.Ctx(ctx).Warn().Err(err).Str("stage", stage.String()).Msg("primary waker failed, waking locally")
	}
	return w.Secondary.Wake(ctx, stage)
}
