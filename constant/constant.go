package constant

import "time"

type ProcessingStatus string

const (
	ProcessingStatusPending   ProcessingStatus = "pending"
	ProcessingStatusScraping  ProcessingStatus = "scraping"
	ProcessingStatusEnriching ProcessingStatus = "enriching"
	ProcessingStatusDone      ProcessingStatus = "done"
	ProcessingStatusFailed    ProcessingStatus = "failed"
)

// InFlight reports whether a stage currently owns the record.
func (s ProcessingStatus) InFlight() bool {
	return s == ProcessingStatusScraping || s == ProcessingStatusEnriching
}

type Platform string

const (
	PlatformYouTube       Platform = "youtube"
	PlatformYouTubeShorts Platform = "youtube_shorts"
	PlatformTikTok        Platform = "tiktok"
	PlatformInstagram     Platform = "instagram"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed:
		return true
	}
	return false
}

const (
	QueueScrapeJobs = "scrape_jobs"
	QueueEnrichJobs = "enrich_jobs"
	QueueGeoJobs    = "geo_jobs"
)

type Stage string

const (
	StageScrape Stage = "scrape"
	StageEnrich Stage = "enrich"
	StageGeo    Stage = "geo"
)

func (s Stage) String() string {
	return string(s)
}

// Stages lists the pipeline stages in hand-off order.
var Stages = []Stage{StageScrape, StageEnrich, StageGeo}

func ParseStage(s string) (Stage, bool) {
	for _, stage := range Stages {
		if string(stage) == s {
			return stage, true
		}
	}
	return "", false
}

// QueueName returns the input queue of the stage.
func (s Stage) QueueName() string {
	switch s {
	case StageScrape:
		return QueueScrapeJobs
	case StageEnrich:
		return QueueEnrichJobs
	case StageGeo:
		return QueueGeoJobs
	}
	return ""
}

const (
	DefaultPoisonPillThreshold = 3
	TranscriptPreviewLength    = 500

	ScrapeVisibility = 120 * time.Second
	EnrichVisibility = 300 * time.Second
	GeoVisibility    = 120 * time.Second
)

const EventTypeInsert = "INSERT"

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
