package transcript

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid url", InvalidURL("bad"), http.StatusBadRequest},
		{"no captions", NoCaptions("none"), http.StatusNotFound},
		{"not found", NotFound("none"), http.StatusNotFound},
		{"unavailable", Unavailable("private"), http.StatusNotFound},
		{"upstream failed", UpstreamFailed("quota exceeded"), http.StatusInternalServerError},
		{"internal", Internal("boom", errors.New("x")), http.StatusInternalServerError},
		{"plain error", errors.New("network down"), http.StatusInternalServerError},
		{"wrapped kind", fmt.Errorf("fetch: %w", NoCaptions("none")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorsIs(t *testing.T) {
	err := fmt.Errorf("scrape: %w", Unavailable("Private video or unavailable"))

	if !errors.Is(err, ErrUnavailable) {
		t.Error("errors.Is(err, ErrUnavailable) = false, want true")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) = true, want false")
	}
}

func TestUserMessageByKind(t *testing.T) {
	seen := map[string]Kind{}
	for _, err := range []error{
		InvalidURL("x"), NoCaptions("x"), NotFound("x"), Unavailable("x"), UpstreamFailed("x"), Internal("x", nil),
	} {
		msg := UserMessage(err)
		if msg == "" {
			t.Errorf("UserMessage(%v) is empty", KindOf(err))
		}
		if prev, ok := seen[msg]; ok {
			t.Errorf("UserMessage(%v) duplicates message for %v", KindOf(err), prev)
		}
		seen[msg] = KindOf(err)
	}
}

func TestErrorString(t *testing.T) {
	err := Internal("failed to parse caption document", errors.New("unexpected EOF"))
	if got := err.Error(); got != "failed to parse caption document: unexpected EOF" {
		t.Errorf("Error() = %q", got)
	}
	if got := ErrNotFound.Error(); got != string(KindNotFound) {
		t.Errorf("Error() = %q, want %q", got, KindNotFound)
	}
}
