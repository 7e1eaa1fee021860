package scrapecreators

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports a provider response that does not match the expected
// schema.
type ParseError struct {
	Endpoint string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s response: %v", e.Endpoint, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func decodeResponse(endpoint string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &ParseError{Endpoint: endpoint, Err: err}
	}
	return nil
}

// transcriptField is either a plain string or a list of timed segments.
type transcriptField struct {
	Text  string
	Valid bool
}

type transcriptSegment struct {
	Text string `json:"text"`
}

func (f *transcriptField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = transcriptField{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = transcriptField{Text: s, Valid: true}
		return nil
	case len(data) > 0 && data[0] == '[':
		var segments []transcriptSegment
		if err := json.Unmarshal(data, &segments); err != nil {
			return err
		}
		parts := make([]string, 0, len(segments))
		for _, s := range segments {
			parts = append(parts, s.Text)
		}
		*f = transcriptField{Text: strings.Join(parts, " "), Valid: true}
		return nil
	}
	return fmt.Errorf("transcript must be a string or a segment list, got %s", truncate(data, 32))
}

type transcriptResponse struct {
	Transcript transcriptField `json:"transcript"`
	Text       transcriptField `json:"text"`
	URL        *string         `json:"url"`
	Title      *string         `json:"title"`
	Author     *string         `json:"author"`
	Username   *string         `json:"username"`
	Published  *string         `json:"published"`
}

func (r transcriptResponse) text() string {
	if r.Transcript.Valid {
		return r.Transcript.Text
	}
	return r.Text.Text
}

type youtubeChannel struct {
	Title *string `json:"title"`
}

type youtubeVideoResponse struct {
	Title        *string         `json:"title"`
	Channel      *youtubeChannel `json:"channel"`
	ChannelTitle *string         `json:"channelTitle"`
	Author       *string         `json:"author"`
	PublishedAt  *string         `json:"publishedAt"`
	Published    *string         `json:"published"`
}

func (r youtubeVideoResponse) creator() *string {
	if r.Channel != nil && r.Channel.Title != nil {
		return r.Channel.Title
	}
	return firstNonNil(r.ChannelTitle, r.Author)
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
