package platform

import (
	"clipnest-pipeline/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		url  string
		want constant.Platform
	}{
		{"https://youtube.com/shorts/abc", constant.PlatformYouTubeShorts},
		{"https://www.youtube.com/shorts/abc?feature=share", constant.PlatformYouTubeShorts},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", constant.PlatformYouTube},
		{"https://youtu.be/dQw4w9WgXcQ", constant.PlatformYouTube},
		{"https://www.tiktok.com/@user/video/1234567890", constant.PlatformTikTok},
		{"https://www.instagram.com/reel/C0abc/", constant.PlatformInstagram},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := Detect(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_Unsupported(t *testing.T) {
	_, err := Detect("https://vimeo.com/x")
	require.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "www.youtube.com/watch", Normalize("https://www.youtube.com/watch?v=abc"))
	assert.Equal(t, "www.tiktok.com/@user/video/1", Normalize("https://www.tiktok.com/@user/video/1?lang=en#top"))
	assert.Equal(t, "not a url", Normalize("not a url"))
}
