package youtube

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"

	"video-analyst/internal/models"
)

var (
	ErrEmptyURL       = errors.New("video URL is required")
	ErrNotYouTube     = errors.New("not a YouTube URL")
	ErrMissingVideoID = errors.New("could not extract video ID")
	ErrPlaylistURL    = errors.New("playlist URLs are not supported, pass a single video")
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var youtubeHosts = map[string]bool{
	"youtube.com":          true,
	"www.youtube.com":      true,
	"m.youtube.com":        true,
	"music.youtube.com":    true,
	"youtube-nocookie.com": true,
	"youtu.be":             true,
}

// Path prefixes that carry the video ID as their next segment.
var idPathPrefixes = []string{"/shorts/", "/embed/", "/live/", "/v/"}

// ParseVideoURL validates a YouTube link or bare video ID and returns a
// reference whose Raw field is the input unchanged.
func ParseVideoURL(raw string) (*models.VideoReference, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrEmptyURL
	}

	var videoID string
	if strings.Contains(trimmed, "://") {
		id, err := videoIDFromURL(trimmed)
		if err != nil {
			return nil, err
		}
		videoID = id
	} else {
		id, err := ytdl.ExtractVideoID(trimmed)
		if err != nil {
			return nil, fmt.Errorf("invalid video ID %q: %w", trimmed, err)
		}
		if !videoIDPattern.MatchString(id) {
			return nil, fmt.Errorf("%w from %q", ErrMissingVideoID, trimmed)
		}
		videoID = id
	}

	return &models.VideoReference{
		Raw:          raw,
		VideoID:      videoID,
		CanonicalURL: WatchURL(videoID),
	}, nil
}

// WatchURL returns the canonical watch page for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}

func videoIDFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrNotYouTube, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if !youtubeHosts[host] {
		return "", fmt.Errorf("%w: %s", ErrNotYouTube, raw)
	}

	var id string
	switch {
	case host == "youtu.be":
		id = strings.Trim(u.Path, "/")
	case u.Query().Get("v") != "":
		id = u.Query().Get("v")
	case strings.HasPrefix(u.Path, "/playlist"):
		return "", ErrPlaylistURL
	default:
		for _, prefix := range idPathPrefixes {
			if strings.HasPrefix(u.Path, prefix) {
				id = strings.SplitN(strings.TrimPrefix(u.Path, prefix), "/", 2)[0]
				break
			}
		}
	}

	if id == "" || !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w from %s", ErrMissingVideoID, raw)
	}
	return id, nil
}
