package repository

import (
	"clipnest-pipeline/constant"
	"clipnest-pipeline/entities"
	"clipnest-pipeline/pkg/testdb"
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"testing"
)

func newTestRepo(t *testing.T) VideoRepository {
	t.Helper()
	return NewRepoWithDB(testdb.Open(t))
}

func createVideo(t *testing.T, r VideoRepository, videoURL string) *entities.Video {
	t.Helper()
	video := &entities.Video{VideoUrl: &videoURL}
	require.NoError(t, r.CreateVideo(context.Background(), video))
	return video
}

func TestCreateVideo_AssignsId(t *testing.T) {
	r := newTestRepo(t)
	video := createVideo(t, r, "https://youtu.be/abc")
	assert.NotEqual(t, uuid.Nil, video.ID)

	got, err := r.FindVideoById(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/abc", *got.VideoUrl)
	assert.Equal(t, constant.ProcessingStatus(""), got.Status())
}

func TestFindVideoById_NotFound(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.FindVideoById(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUpdateVideoFields_PartialUpdate(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	video := createVideo(t, r, "https://youtu.be/abc")

	summary := "A taco review."
	require.NoError(t, r.UpdateVideoFields(ctx, video.ID, map[string]interface{}{
		"summary": summary,
		"tags":    datatypes.JSONSlice[string]{"tacos", "austin"},
	}))
	require.NoError(t, r.UpdateVideoFields(ctx, video.ID, map[string]interface{}{
		"tags": datatypes.JSONSlice[string]{"tacos", "austin"},
	}))
	require.NoError(t, r.UpdateVideoFields(ctx, video.ID, nil))

	got, err := r.FindVideoById(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, summary, *got.Summary)
	assert.Equal(t, []string{"tacos", "austin"}, []string(got.Tags))
	assert.Equal(t, "https://youtu.be/abc", *got.VideoUrl)
}

func TestUpdateVideoStatus(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	video := createVideo(t, r, "https://youtu.be/abc")

	reason := "scrape job exceeded max retries (read_ct=4)"
	require.NoError(t, r.UpdateVideoStatus(ctx, video.ID, constant.ProcessingStatusFailed, &reason))

	got, err := r.FindVideoById(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, constant.ProcessingStatusFailed, got.Status())
	assert.Equal(t, reason, *got.ProcessingError)

	require.NoError(t, r.UpdateVideoStatus(ctx, video.ID, constant.ProcessingStatusPending, nil))
	got, err = r.FindVideoById(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, constant.ProcessingStatusPending, got.Status())
	assert.Equal(t, reason, *got.ProcessingError)
}

func TestFindUnroutedVideos(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	unrouted := createVideo(t, r, "https://www.tiktok.com/@a/video/1")
	pending := createVideo(t, r, "https://youtu.be/pending")
	require.NoError(t, r.UpdateVideoStatus(ctx, pending.ID, constant.ProcessingStatusPending, nil))
	done := createVideo(t, r, "https://youtu.be/done")
	require.NoError(t, r.UpdateVideoFields(ctx, done.ID, map[string]interface{}{"transcript_text": "hello"}))
	require.NoError(t, r.CreateVideo(ctx, &entities.Video{}))

	videos, err := r.FindUnroutedVideos(ctx, 10)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, unrouted.ID, videos[0].ID)
}
