package scrapecreators

import (
	"clipnest-pipeline/constant"
	"clipnest-pipeline/dto"
	"clipnest-pipeline/pkg/platform"
	"context"
	"fmt"
	"golang.org/x/sync/errgroup"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const DefaultBaseURL = "https://api.scrapecreators.com"

// APIError is returned for non-2xx provider responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("scrapecreators api error %d: %s", e.StatusCode, e.Body)
}

// Scrape is the normalized video data plus the untouched provider responses,
// keyed by endpoint name.
type Scrape struct {
	VideoData dto.VideoData
	Raw       map[string][]byte
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) FetchVideoData(ctx context.Context, videoURL string) (*Scrape, error) {
	p, err := platform.Detect(videoURL)
	if err != nil {
		return nil, err
	}

	switch p {
	case constant.PlatformYouTube, constant.PlatformYouTubeShorts:
		return c.fetchYouTube(ctx, videoURL, p)
	case constant.PlatformTikTok:
		return c.fetchShortForm(ctx, videoURL, p, "/v1/tiktok/video/transcript")
	case constant.PlatformInstagram:
		return c.fetchShortForm(ctx, videoURL, p, "/v1/instagram/media/transcript")
	}
	return nil, fmt.Errorf("%w: %s", platform.ErrUnsupportedPlatform, videoURL)
}

// fetchYouTube needs the transcript and the video metadata; both calls run
// concurrently and both must succeed.
func (c *Client) fetchYouTube(ctx context.Context, videoURL string, p constant.Platform) (*Scrape, error) {
	var transcriptBody, metaBody []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transcriptBody, err = c.get(gctx, "/v1/youtube/video/transcript", videoURL)
		return err
	})
	g.Go(func() error {
		var err error
		metaBody, err = c.get(gctx, "/v1/youtube/video", videoURL)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var transcript transcriptResponse
	if err := decodeResponse("youtube transcript", transcriptBody, &transcript); err != nil {
		return nil, err
	}
	var meta youtubeVideoResponse
	if err := decodeResponse("youtube video", metaBody, &meta); err != nil {
		return nil, err
	}

	text := transcript.text()
	return &Scrape{
		VideoData: dto.VideoData{
			TranscriptText:    text,
			TranscriptUrl:     transcript.URL,
			TranscriptPreview: Preview(text),
			Title:             firstNonNil(meta.Title, transcript.Title),
			Creator:           meta.creator(),
			Published:         firstNonNil(meta.PublishedAt, meta.Published),
			Platform:          p,
			NormalizedUrl:     platform.Normalize(videoURL),
		},
		Raw: map[string][]byte{
			"transcript": transcriptBody,
			"video":      metaBody,
		},
	}, nil
}

func (c *Client) fetchShortForm(ctx context.Context, videoURL string, p constant.Platform, path string) (*Scrape, error) {
	body, err := c.get(ctx, path, videoURL)
	if err != nil {
		return nil, err
	}

	var resp transcriptResponse
	if err := decodeResponse(string(p)+" transcript", body, &resp); err != nil {
		return nil, err
	}

	text := resp.text()
	return &Scrape{
		VideoData: dto.VideoData{
			TranscriptText:    text,
			TranscriptUrl:     resp.URL,
			TranscriptPreview: Preview(text),
			Title:             resp.Title,
			Creator:           firstNonNil(resp.Author, resp.Username),
			Published:         resp.Published,
			Platform:          p,
			NormalizedUrl:     platform.Normalize(videoURL),
		},
		Raw: map[string][]byte{
			"transcript": body,
		},
	}, nil
}

func (c *Client) get(ctx context.Context, path, videoURL string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s%s?url=%s", c.baseURL, path, url.QueryEscape(videoURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// Preview bounds the transcript to the first 500 characters.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= constant.TranscriptPreviewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:constant.TranscriptPreviewLength])
}

func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
