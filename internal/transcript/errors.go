package transcript

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for callers that need to react to it:
// the HTTP layer picks a status code and the CLI picks user-facing copy.
type Kind string

const (
	KindInvalidURL     Kind = "invalid_url"
	KindNoCaptions     Kind = "no_captions"
	KindNotFound       Kind = "not_found"
	KindUnavailable    Kind = "video_unavailable"
	KindUpstreamFailed Kind = "upstream_failed"
	KindInternal       Kind = "internal"
)

// Error is the error type returned by transcript acquisition.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, transcript.ErrNotFound) works on wrapped values.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Err == nil
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidURL     = &Error{Kind: KindInvalidURL}
	ErrNoCaptions     = &Error{Kind: KindNoCaptions}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrUnavailable    = &Error{Kind: KindUnavailable}
	ErrUpstreamFailed = &Error{Kind: KindUpstreamFailed}
	ErrInternal       = &Error{Kind: KindInternal}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// InvalidURL, NoCaptions etc. build kinded errors for provider packages.
func InvalidURL(format string, args ...any) error  { return newError(KindInvalidURL, format, args...) }
func NoCaptions(format string, args ...any) error  { return newError(KindNoCaptions, format, args...) }
func NotFound(format string, args ...any) error    { return newError(KindNotFound, format, args...) }
func Unavailable(format string, args ...any) error { return newError(KindUnavailable, format, args...) }
func UpstreamFailed(format string, args ...any) error {
	return newError(KindUpstreamFailed, format, args...)
}

// Internal wraps err as an internal failure with context msg.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf returns the kind of err. Errors that carry no kind are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error kind to the status code returned to clients.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidURL:
		return http.StatusBadRequest
	case KindNoCaptions, KindNotFound, KindUnavailable:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns short copy suitable for showing to an end user.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindInvalidURL:
		return "That doesn't look like a valid YouTube URL."
	case KindNoCaptions:
		return "This video has no captions available."
	case KindNotFound:
		return "No transcript could be found for this video."
	case KindUnavailable:
		return "This video is private or unavailable."
	case KindUpstreamFailed:
		return "An upstream service is having trouble right now. Please try again later."
	default:
		return "Something went wrong while processing this video."
	}
}
