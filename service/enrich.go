package service

import (
	"clipnest-pipeline/constant"
	"clipnest-pipeline/dto"
	"context"
	"fmt"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
)

func (p *Pipeline) enrich(ctx context.Context, job dto.EnrichJob) (StepResult, error) {
	vd := job.VideoData
	fields := map[string]interface{}{
		"platform":          vd.Platform,
		"normalized_url":    vd.NormalizedUrl,
		"creator":           vd.Creator,
		"title":             vd.Title,
		"published":         vd.Published,
		"transcript_url":    vd.TranscriptUrl,
		"processing_status": constant.ProcessingStatusDone,
	}

	if vd.TranscriptText == "" {
		zerolog.Ctx(ctx).Warn().Msg("no transcript, writing metadata only")
		return StepResult{Fields: fields}, nil
	}

	enrichment, err := p.deps.Enricher.Enrich(ctx, vd.TranscriptText)
	if err != nil {
		return StepResult{}, fmt.Errorf("enrich transcript: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("sentiment", string(enrichment.Sentiment)).Msg("enrichment done")

	embedding, err := p.deps.Embedder.Embed(ctx, vd.TranscriptText)
	if err != nil {
		return StepResult{}, fmt.Errorf("embed transcript: %w", err)
	}
	zerolog.Ctx(ctx).Info().Int("dims", len(embedding)).Msg("embedding done")

	fields["transcript_text"] = vd.TranscriptText
	fields["transcript_preview"] = vd.TranscriptPreview
	fields["summary"] = enrichment.Summary
	fields["sentiment"] = enrichment.Sentiment
	fields["tags"] = datatypes.JSONSlice[string](enrichment.Tags)
	fields["categories"] = datatypes.JSONSlice[string](enrichment.Categories)
	fields["venue"] = enrichment.Venue
	fields["address"] = enrichment.Address
	fields["city"] = enrichment.City
	fields["neighborhood"] = enrichment.Neighborhood
	fields["price"] = enrichment.Price
	fields["embedding"] = datatypes.JSONSlice[float64](embedding)

	result := StepResult{Fields: fields}
	geo := dto.GeoJob{
		Id:           job.Id,
		Venue:        enrichment.Venue,
		Address:      enrichment.Address,
		City:         enrichment.City,
		Neighborhood: enrichment.Neighborhood,
	}
	if geo.HasLocation() {
		result.Next = geo
	}
	return result, nil
}
