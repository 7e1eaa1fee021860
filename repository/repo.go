package repository

import (
	"clipnest-pipeline/constant"
	"clipnest-pipeline/entities"
	"context"
	"database/sql"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type VideoRepository interface {
	GetDB() *gorm.DB
	CreateVideo(ctx context.Context, video *entities.Video) error
	FindVideoById(ctx context.Context, id uuid.UUID) (*entities.Video, error)
	UpdateVideoFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	UpdateVideoStatus(ctx context.Context, id uuid.UUID, status constant.ProcessingStatus, processingError *string) error
	FindUnroutedVideos(ctx context.Context, limit int) ([]*entities.Video, error)
}

type repo struct {
	db *gorm.DB
}

func (r *repo) CreateVideo(ctx context.Context, video *entities.Video) error {
	return r.GetDB().WithContext(ctx).Create(video).Error
}

func (r *repo) FindVideoById(ctx context.Context, id uuid.UUID) (*entities.Video, error) {
	video := &entities.Video{}
	err := r.GetDB().WithContext(ctx).First(video, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return video, nil
}

// UpdateVideoFields writes a partial update in a single statement. There is
// no read-modify-write, so the last writer of a column wins.
func (r *repo) UpdateVideoFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.GetDB().WithContext(ctx).Model(&entities.Video{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return err
	}

	return nil
}

func (r *repo) UpdateVideoStatus(ctx context.Context, id uuid.UUID, status constant.ProcessingStatus, processingError *string) error {
	fields := map[string]interface{}{
		"processing_status": status,
	}
	if processingError != nil {
		fields["processing_error"] = *processingError
	}
	return r.UpdateVideoFields(ctx, id, fields)
}

// FindUnroutedVideos returns rows that have a url but were never picked up by
// the router: no transcript and no processing status.
func (r *repo) FindUnroutedVideos(ctx context.Context, limit int) ([]*entities.Video, error) {
	var videos []*entities.Video
	err := r.GetDB().WithContext(ctx).
		Where("video_url IS NOT NULL AND video_url <> ''").
		Where("transcript_text IS NULL").
		Where("processing_status IS NULL OR processing_status = ''").
		Order("created_at ASC").
		Limit(limit).
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

func NewRepo(db *sql.DB) (VideoRepository, error) {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	if err != nil {
		return nil, err
	}
	return NewRepoWithDB(gormDB), nil
}

func NewRepoWithDB(db *gorm.DB) VideoRepository {
	return &repo{
		db: db,
	}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}
