package platform

import (
	"clipnest-pipeline/constant"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Detect maps a video url to its platform by host substring. Shorts are
// checked before the generic YouTube hosts.
func Detect(videoURL string) (constant.Platform, error) {
	switch {
	case strings.Contains(videoURL, "youtube.com/shorts/"):
		return constant.PlatformYouTubeShorts, nil
	case strings.Contains(videoURL, "youtube.com"), strings.Contains(videoURL, "youtu.be"):
		return constant.PlatformYouTube, nil
	case strings.Contains(videoURL, "tiktok.com"):
		return constant.PlatformTikTok, nil
	case strings.Contains(videoURL, "instagram.com"):
		return constant.PlatformInstagram, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, videoURL)
}

// Normalize strips scheme, query and fragment, keeping host+path. Unparseable
// input is returned unchanged.
func Normalize(videoURL string) string {
	u, err := url.Parse(videoURL)
	if err != nil || u.Host == "" {
		return videoURL
	}
	return u.Hostname() + u.EscapedPath()
}
