package storage

import (
	"bytes"
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"path"
	"sort"
)

// ArtifactStore keeps the untouched provider responses of each scrape.
type ArtifactStore struct {
	client *minio.Client
	bucket string
}

func NewArtifactStore(client *minio.Client, bucket string) *ArtifactStore {
	return &ArtifactStore{client: client, bucket: bucket}
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *ArtifactStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("error creating bucket: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("bucket", s.bucket).Msg("created bucket")
	return nil
}

func (s *ArtifactStore) SaveRaw(ctx context.Context, videoID uuid.UUID, raw map[string][]byte) error {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		body := raw[name]
		objectName := ObjectName(videoID, name)
		_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(body), int64(len(body)),
			minio.PutObjectOptions{ContentType: "application/json"})
		if err != nil {
			return fmt.Errorf("upload %s: %w", objectName, err)
		}
	}
	return nil
}

func ObjectName(videoID uuid.UUID, name string) string {
	return path.Join("scrapes", videoID.String(), name+".json")
}
