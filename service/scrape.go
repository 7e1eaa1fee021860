package service

import (
	"clipnest-pipeline/dto"
	"clipnest-pipeline/pkg/platform"
	"context"
	"errors"
	"github.com/rs/zerolog"
)

func (p *Pipeline) scrape(ctx context.Context, job dto.ScraperJob) (StepResult, error) {
	zerolog.Ctx(ctx).Info().Str("video_url", job.VideoUrl).Msg("scraping video")

	scrape, err := p.deps.Scraper.FetchVideoData(ctx, job.VideoUrl)
	if err != nil {
		if errors.Is(err, platform.ErrUnsupportedPlatform) {
			return StepResult{}, errors.Join(ErrNonRetryable, err)
		}
		return StepResult{}, err
	}

	if p.deps.Artifacts != nil && len(scrape.Raw) > 0 {
		if err := p.deps.Artifacts.SaveRaw(ctx, job.Id, scrape.Raw); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to archive raw scrape")
		}
	}

	vd := scrape.VideoData
	zerolog.Ctx(ctx).Info().
		Str("platform", string(vd.Platform)).
		Int("transcript_len", len(vd.TranscriptText)).
		Msg("scraped video")

	return StepResult{
		Fields: map[string]interface{}{
			"platform":       vd.Platform,
			"normalized_url": vd.NormalizedUrl,
		},
		Next: dto.EnrichJob{
			Id:        job.Id,
			VideoData: vd,
		},
	}, nil
}
