package service

import (
	"clipnest-pipeline/constant"
	"clipnest-pipeline/dto"
	"context"
	"fmt"
	"github.com/rs/zerolog"
)

func (p *Pipeline) geo(ctx context.Context, job dto.GeoJob) (StepResult, error) {
	fields := map[string]interface{}{
		"venue":             job.Venue,
		"address":           job.Address,
		"city":              job.City,
		"neighborhood":      job.Neighborhood,
		"processing_status": constant.ProcessingStatusDone,
	}

	query, ok := BuildGeoQuery(job.Venue, job.Address, job.City, job.Neighborhood)
	if !ok {
		zerolog.Ctx(ctx).Info().Msg("no geocodable location, writing text fields only")
		return StepResult{Fields: fields}, nil
	}

	coords, err := p.geocode(ctx, query)
	if err != nil {
		return StepResult{}, fmt.Errorf("geocode %q: %w", query, err)
	}
	if coords == nil {
		zerolog.Ctx(ctx).Warn().Str("query", query).Msg("no geocode match")
		return StepResult{Fields: fields}, nil
	}

	zerolog.Ctx(ctx).Info().Float64("lat", coords.Lat).Float64("lng", coords.Lng).Msg("geocoded")
	fields["lat"] = coords.Lat
	fields["lng"] = coords.Lng
	return StepResult{Fields: fields}, nil
}

// geocode consults the cache before the provider. Cache errors only cost a
// provider call.
func (p *Pipeline) geocode(ctx context.Context, query string) (*dto.Coordinates, error) {
	if p.deps.GeoCache != nil {
		coords, found, err := p.deps.GeoCache.GetCoordinates(ctx, query)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("geocode cache read failed")
		} else if found {
			zerolog.Ctx(ctx).Debug().Str("query", query).Msg("geocode cache hit")
			return coords, nil
		}
	}

	coords, err := p.deps.Geocoder.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}

	if p.deps.GeoCache != nil {
		if err := p.deps.GeoCache.SetCoordinates(ctx, query, coords); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("geocode cache write failed")
		}
	}
	return coords, nil
}
