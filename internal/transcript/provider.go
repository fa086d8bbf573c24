package transcript

import "context"

// Strategy records which acquisition path produced a transcript.
type Strategy string

const (
	StrategyCaptionsScrape Strategy = "captions-scrape"
	StrategyThirdPartySync Strategy = "third-party-sync"
	StrategyThirdPartyJob  Strategy = "third-party-job"
)

// Result is a canonical transcript. Text is never empty.
type Result struct {
	Text     string
	Strategy Strategy
	// Language is the caption language actually used, when known.
	Language string
	// Title is filled by providers that see it for free (the player API).
	Title   string
	Entries []Entry
}

// Provider is a transcript acquisition backend. Exactly one is wired in,
// chosen by configuration.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, ref VideoReference) (*Result, error)
}
