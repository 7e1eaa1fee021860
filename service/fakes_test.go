package service

import (
	"clipnest-pipeline/constant"
	"clipnest-pipeline/dto"
	"clipnest-pipeline/entities"
	"clipnest-pipeline/pkg/scrapecreators"
	"clipnest-pipeline/pkg/testdb"
	"clipnest-pipeline/pkg/workqueue"
	"clipnest-pipeline/repository"
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingWaker struct {
	mu     sync.Mutex
	stages []constant.Stage
	err    error
}

func (w *recordingWaker) Wake(_ context.Context, stage constant.Stage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stages = append(w.stages, stage)
	return w.err
}

func (w *recordingWaker) Woken() []constant.Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]constant.Stage(nil), w.stages...)
}

type fakeScraper struct {
	mu      sync.Mutex
	calls   int
	err     error
	data    dto.VideoData
	raw     map[string][]byte
	onFetch func()
}

func (f *fakeScraper) FetchVideoData(_ context.Context, _ string) (*scrapecreators.Scrape, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.onFetch != nil {
		f.onFetch()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &scrapecreators.Scrape{VideoData: f.data, Raw: f.raw}, nil
}

func (f *fakeScraper) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeEnricher struct {
	mu     sync.Mutex
	calls  int
	err    error
	result dto.EnrichmentResult
	onCall func()
}

func (f *fakeEnricher) Enrich(_ context.Context, _ string) (*dto.EnrichmentResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.onCall != nil {
		f.onCall()
	}
	if f.err != nil {
		return nil, f.err
	}
	r := f.result
	return &r, nil
}

func (f *fakeEnricher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	dims  int
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	vec := make([]float64, f.dims)
	for i := range vec {
		vec[i] = float64(i) / 10
	}
	return vec, nil
}

func (f *fakeEmbedder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeGeocoder struct {
	mu      sync.Mutex
	queries []string
	coords  *dto.Coordinates
	err     error
}

func (f *fakeGeocoder) Geocode(_ context.Context, query string) (*dto.Coordinates, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.coords, nil
}

func (f *fakeGeocoder) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type memoryGeoCache struct {
	mu      sync.Mutex
	entries map[string]*dto.Coordinates
}

func newMemoryGeoCache() *memoryGeoCache {
	return &memoryGeoCache{entries: map[string]*dto.Coordinates{}}
}

func (c *memoryGeoCache) GetCoordinates(_ context.Context, query string) (*dto.Coordinates, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	coords, ok := c.entries[query]
	return coords, ok, nil
}

func (c *memoryGeoCache) SetCoordinates(_ context.Context, query string, coords *dto.Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[query] = coords
	return nil
}

type memoryArtifacts struct {
	mu    sync.Mutex
	saved map[uuid.UUID]map[string][]byte
	err   error
}

func (a *memoryArtifacts) SaveRaw(_ context.Context, videoID uuid.UUID, raw map[string][]byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if a.saved == nil {
		a.saved = map[uuid.UUID]map[string][]byte{}
	}
	a.saved[videoID] = raw
	return nil
}

// failingQueue rejects enqueues to one queue name.
type failingQueue struct {
	workqueue.Queue
	failOn string
}

func (q failingQueue) Enqueue(ctx context.Context, queueName string, payload []byte) (int64, error) {
	if queueName == q.failOn {
		return 0, errors.New("queue unavailable")
	}
	return q.Queue.Enqueue(ctx, queueName, payload)
}

type harness struct {
	ctx       context.Context
	repo      repository.VideoRepository
	queue     workqueue.Queue
	clock     *fakeClock
	waker     *recordingWaker
	scraper   *fakeScraper
	enricher  *fakeEnricher
	embedder  *fakeEmbedder
	geocoder  *fakeGeocoder
	geoCache  *memoryGeoCache
	artifacts *memoryArtifacts
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testdb.Open(t)
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}

	title := "Best tacos in Austin"
	creator := "Food Co"
	venue := "Joe's Diner"
	city := "Austin"
	return &harness{
		ctx:   zerolog.Nop().WithContext(context.Background()),
		repo:  repository.NewRepoWithDB(db),
		queue: workqueue.New(db, workqueue.WithClock(clock.Now)),
		clock: clock,
		waker: &recordingWaker{},
		scraper: &fakeScraper{
			data: dto.VideoData{
				TranscriptText:    "we ate the best tacos at joe's diner",
				TranscriptPreview: "we ate the best tacos at joe's diner",
				Title:             &title,
				Creator:           &creator,
				Platform:          constant.PlatformYouTubeShorts,
				NormalizedUrl:     "youtube.com/shorts/abc",
			},
			raw: map[string][]byte{"transcript": []byte(`{"transcript":"..."}`)},
		},
		enricher: &fakeEnricher{
			result: dto.EnrichmentResult{
				Summary:    "A taco review.",
				Sentiment:  constant.SentimentPositive,
				Tags:       []string{"tacos", "austin", "food"},
				Categories: []string{"food"},
				Venue:      &venue,
				City:       &city,
			},
		},
		embedder:  &fakeEmbedder{dims: 8},
		geocoder:  &fakeGeocoder{coords: &dto.Coordinates{Lat: 30.27, Lng: -97.74}},
		geoCache:  newMemoryGeoCache(),
		artifacts: &memoryArtifacts{},
	}
}

func (h *harness) deps() Dependencies {
	return Dependencies{
		Repo:      h.repo,
		Queue:     h.queue,
		Waker:     h.waker,
		Scraper:   h.scraper,
		Enricher:  h.enricher,
		Embedder:  h.embedder,
		Geocoder:  h.geocoder,
		GeoCache:  h.geoCache,
		Artifacts: h.artifacts,
	}
}

func (h *harness) pipeline() *Pipeline {
	return NewPipeline(h.deps())
}

func (h *harness) router() *Router {
	return NewRouter(h.repo, h.queue, h.waker)
}

func (h *harness) createVideo(t *testing.T, videoURL string) *entities.Video {
	t.Helper()
	video := &entities.Video{VideoUrl: &videoURL}
	require.NoError(t, h.repo.CreateVideo(h.ctx, video))
	return video
}

func (h *harness) video(t *testing.T, id uuid.UUID) *entities.Video {
	t.Helper()
	video, err := h.repo.FindVideoById(h.ctx, id)
	require.NoError(t, err)
	return video
}

func (h *harness) depth(t *testing.T, queueName string) int64 {
	t.Helper()
	n, err := h.queue.Depth(h.ctx, queueName)
	require.NoError(t, err)
	return n
}

func (h *harness) send(t *testing.T, queueName string, payload any) {
	t.Helper()
	_, err := workqueue.Send(h.ctx, h.queue, queueName, payload)
	require.NoError(t, err)
}

func insertNotification(id uuid.UUID, videoURL string) dto.Notification {
	return dto.Notification{
		Type:   constant.EventTypeInsert,
		Table:  "clipnest_videos",
		Schema: "public",
		Record: dto.NotificationRecord{Id: id, VideoUrl: &videoURL},
	}
}
