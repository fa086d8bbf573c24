package scrape

import (
	"bytes"
	"errors"
	"io"
	"regexp"

	"golang.org/x/net/html"

	"github.com/alrobwilloliver/ytdigest/internal/transcript"
)

var apiKeyPattern = regexp.MustCompile(`"INNERTUBE_API_KEY"\s*:\s*"([^"]+)"`)

// extractAPIKey finds the innertube API key in the inline scripts of a
// watch page.
func extractAPIKey(page []byte) (string, error) {
	z := html.NewTokenizer(bytes.NewReader(page))
	inScript := false

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				return "", transcript.Internal("failed to read watch page", err)
			}
			return "", transcript.Internal("INNERTUBE_API_KEY not found", nil)
		case html.StartTagToken:
			name, _ := z.TagName()
			inScript = string(name) == "script"
		case html.EndTagToken:
			inScript = false
		case html.TextToken:
			if !inScript {
				continue
			}
			if m := apiKeyPattern.FindSubmatch(z.Text()); m != nil {
				return string(m[1]), nil
			}
		}
	}
}
