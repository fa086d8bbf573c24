package transcript

import (
	"regexp"
	"strings"
)

// DefaultLanguage is used when a request does not name a caption language.
const DefaultLanguage = "en"

// VideoReference identifies the video a request is about.
type VideoReference struct {
	ID       string
	URL      string
	Language string
}

var videoURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?#]+)`),
	regexp.MustCompile(`(?:youtube\.com|youtube-nocookie\.com)/(?:embed|v)/([a-zA-Z0-9_-]{11})`),
}

// Resolve extracts the video id from a YouTube URL. It never touches the
// network; an unrecognised URL fails with KindInvalidURL.
func Resolve(rawURL, lang string) (VideoReference, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return VideoReference{}, InvalidURL("missing video URL")
	}

	for _, pattern := range videoURLPatterns {
		if m := pattern.FindStringSubmatch(rawURL); len(m) > 1 && m[1] != "" {
			if lang == "" {
				lang = DefaultLanguage
			}
			return VideoReference{ID: m[1], URL: rawURL, Language: lang}, nil
		}
	}

	return VideoReference{}, InvalidURL("could not extract video ID from: %s", rawURL)
}

// WatchURL returns the canonical watch page URL for the reference.
func (r VideoReference) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + r.ID
}
