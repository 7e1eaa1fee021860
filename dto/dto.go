package dto

import (
	"clipnest-pipeline/constant"
	"errors"
	"fmt"
	"github.com/google/uuid"
)

type ScraperJob struct {
	Id       uuid.UUID `json:"id"`
	VideoUrl string    `json:"video_url"`
}

func (j ScraperJob) VideoID() uuid.UUID { return j.Id }

type EnrichJob struct {
	Id        uuid.UUID `json:"id"`
	VideoData VideoData `json:"videoData"`
}

func (j EnrichJob) VideoID() uuid.UUID { return j.Id }

type GeoJob struct {
	Id           uuid.UUID `json:"id"`
	Venue        *string   `json:"venue"`
	Address      *string   `json:"address"`
	City         *string   `json:"city"`
	Neighborhood *string   `json:"neighborhood"`
}

func (j GeoJob) VideoID() uuid.UUID { return j.Id }

// HasLocation reports whether any location hint is set.
func (j GeoJob) HasLocation() bool {
	for _, v := range []*string{j.Venue, j.Address, j.City, j.Neighborhood} {
		if v != nil && *v != "" {
			return true
		}
	}
	return false
}

type VideoData struct {
	TranscriptText    string            `json:"transcript_text"`
	TranscriptUrl     *string           `json:"transcript_url"`
	TranscriptPreview string            `json:"transcript_preview"`
	Title             *string           `json:"title"`
	Creator           *string           `json:"creator"`
	Published         *string           `json:"published"`
	Platform          constant.Platform `json:"platform"`
	NormalizedUrl     string            `json:"normalized_url"`
}

type EnrichmentResult struct {
	Summary      string             `json:"summary"`
	Sentiment    constant.Sentiment `json:"sentiment"`
	Tags         []string           `json:"tags"`
	Categories   []string           `json:"categories"`
	Venue        *string            `json:"venue"`
	Address      *string            `json:"address"`
	City         *string            `json:"city"`
	Neighborhood *string            `json:"neighborhood"`
	Price        *string            `json:"price"`
}

// Validate checks the fields the record store relies on.
func (r EnrichmentResult) Validate() error {
	if r.Summary == "" {
		return errors.New("summary is empty")
	}
	if !r.Sentiment.Valid() {
		return fmt.Errorf("unknown sentiment %q", r.Sentiment)
	}
	return nil
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Notification is the row-change event delivered by the store.
type Notification struct {
	Type      string              `json:"type"`
	Table     string              `json:"table"`
	Schema    string              `json:"schema"`
	Record    NotificationRecord  `json:"record"`
	OldRecord *NotificationRecord `json:"old_record"`
}

type NotificationRecord struct {
	Id               uuid.UUID `json:"id"`
	VideoUrl         *string   `json:"video_url"`
	TranscriptText   *string   `json:"transcript_text"`
	ProcessingStatus *string   `json:"processing_status"`
}
