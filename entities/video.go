package entities

import (
	"clipnest-pipeline/constant"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"time"
)

type Video struct {
	ID                uuid.UUID                    `json:"id" gorm:"type:uuid;primary_key"`
	VideoUrl          *string                      `json:"video_url" gorm:"type:text"`
	Platform          *constant.Platform           `json:"platform" gorm:"type:varchar(20)"`
	NormalizedUrl     *string                      `json:"normalized_url" gorm:"type:text"`
	Creator           *string                      `json:"creator" gorm:"type:text"`
	Title             *string                      `json:"title" gorm:"type:text"`
	Published         *string                      `json:"published" gorm:"type:text"`
	TranscriptText    *string                      `json:"transcript_text" gorm:"type:text"`
	TranscriptUrl     *string                      `json:"transcript_url" gorm:"type:text"`
	TranscriptPreview *string                      `json:"transcript_preview" gorm:"type:varchar(500)"`
	Summary           *string                      `json:"summary" gorm:"type:text"`
	Sentiment         *constant.Sentiment          `json:"sentiment" gorm:"type:varchar(20)"`
	Tags              datatypes.JSONSlice[string]  `json:"tags"`
	Categories        datatypes.JSONSlice[string]  `json:"categories"`
	Embedding         datatypes.JSONSlice[float64] `json:"embedding"`
	Venue             *string                      `json:"venue" gorm:"type:text"`
	Address           *string                      `json:"address" gorm:"type:text"`
	City              *string                      `json:"city" gorm:"type:text"`
	Neighborhood      *string                      `json:"neighborhood" gorm:"type:text"`
	Price             *string                      `json:"price" gorm:"type:text"`
	Lat               *float64                     `json:"lat"`
	Lng               *float64                     `json:"lng"`
	ProcessingStatus  *constant.ProcessingStatus   `json:"processing_status" gorm:"type:varchar(20);index:idx_clipnest_videos_processing_status"`
	ProcessingError   *string                      `json:"processing_error" gorm:"type:text"`
	CreatedAt         time.Time                    `json:"created_at"`
	UpdatedAt         time.Time                    `json:"updated_at"`
}

func (Video) TableName() string {
	return "clipnest_videos"
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Status returns the processing status, empty when the row was never routed.
func (v *Video) Status() constant.ProcessingStatus {
	if v.ProcessingStatus == nil {
		return ""
	}
	return *v.ProcessingStatus
}

func (v *Video) HasTranscript() bool {
	return v.TranscriptText != nil && *v.TranscriptText != ""
}
