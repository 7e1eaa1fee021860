package service

import (
	"clipnest-pipeline/constant"
	"clipnest-pipeline/dto"
	"clipnest-pipeline/pkg/scrapecreators"
	"clipnest-pipeline/pkg/workqueue"
	"clipnest-pipeline/repository"
	"context"
	"github.com/google/uuid"
)

type Scraper interface {
	FetchVideoData(ctx context.Context, videoURL string) (*scrapecreators.Scrape, error)
}

type Enricher interface {
	Enrich(ctx context.Context, transcript string) (*dto.EnrichmentResult, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Geocoder returns nil coordinates when the query has no match.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*dto.Coordinates, error)
}

type GeoCache interface {
	GetCoordinates(ctx context.Context, query string) (*dto.Coordinates, bool, error)
	SetCoordinates(ctx context.Context, query string, coords *dto.Coordinates) error
}

type ArtifactStore interface {
	SaveRaw(ctx context.Context, videoID uuid.UUID, raw map[string][]byte) error
}

// Dependencies wires the pipeline. GeoCache and Artifacts are optional.
type Dependencies struct {
	Repo            repository.VideoRepository
	Queue           workqueue.Queue
	Waker           Waker
	Scraper         Scraper
	Enricher        Enricher
	Embedder        Embedder
	Geocoder        Geocoder
	GeoCache        GeoCache
	Artifacts       ArtifactStore
	PoisonThreshold int
}

type Pipeline struct {
	deps   Dependencies
	Scrape *Stage[dto.ScraperJob]
	Enrich *Stage[dto.EnrichJob]
	Geo    *Stage[dto.GeoJob]
}

func NewPipeline(deps Dependencies) *Pipeline {
	if deps.Waker == nil {
		deps.Waker = NopWaker{}
	}
	p := &Pipeline{deps: deps}

	p.Scrape = NewStage(StageConfig[dto.ScraperJob]{
		Name:            constant.StageScrape,
		Queue:           constant.QueueScrapeJobs,
		Visibility:      constant.ScrapeVisibility,
		InProgress:      constant.ProcessingStatusScraping,
		PoisonThreshold: deps.PoisonThreshold,
		Next:            &HandOff{Queue: constant.QueueEnrichJobs, Stage: constant.StageEnrich},
		Step:            p.scrape,
	}, deps.Queue, deps.Repo, deps.Waker)

	p.Enrich = NewStage(StageConfig[dto.EnrichJob]{
		Name:            constant.StageEnrich,
		Queue:           constant.QueueEnrichJobs,
		Visibility:      constant.EnrichVisibility,
		InProgress:      constant.ProcessingStatusEnriching,
		PoisonThreshold: deps.PoisonThreshold,
		Next:            &HandOff{Queue: constant.QueueGeoJobs, Stage: constant.StageGeo, Optional: true},
		Step:            p.enrich,
	}, deps.Queue, deps.Repo, deps.Waker)

	p.Geo = NewStage(StageConfig[dto.GeoJob]{
		Name:            constant.StageGeo,
		Queue:           constant.QueueGeoJobs,
		Visibility:      constant.GeoVisibility,
		PoisonThreshold: deps.PoisonThreshold,
		Step:            p.geo,
	}, deps.Queue, deps.Repo, deps.Waker)

	return p
}

// Workers returns the stages in hand-off order.
func (p *Pipeline) Workers() []Worker {
	return []Worker{p.Scrape, p.Enrich, p.Geo}
}

// Worker returns the stage with the given name, or nil.
func (p *Pipeline) Worker(stage constant.Stage) Worker {
	for _, w := range p.Workers() {
		if w.Stage() == stage {
			return w
		}
	}
	return nil
}
