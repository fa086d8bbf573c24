package transcript

import (
	"context"
	"log/slog"
	"time"
)

// Polling defaults. A job that has not finished within DefaultPollMaxWait
// is reported as an upstream failure.
const (
	DefaultPollInterval    = 2 * time.Second
	DefaultPollMaxAttempts = 90
	DefaultPollMaxWait     = 3 * time.Minute
)

// JobFetcher returns the current status of an asynchronous transcript job.
type JobFetcher interface {
	JobStatus(ctx context.Context, jobID string) (*JobStatus, error)
}

// PollConfig bounds the job polling loop. Zero values take the defaults;
// a negative MaxAttempts or MaxWait disables that bound.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
	MaxWait     time.Duration
}

func (c PollConfig) withDefaults() PollConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultPollInterval
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultPollMaxAttempts
	}
	if c.MaxWait == 0 {
		c.MaxWait = DefaultPollMaxWait
	}
	return c
}

// Normalizer turns a decoded upstream response into a canonical transcript,
// polling the job API when the provider deferred the work.
type Normalizer struct {
	Jobs   JobFetcher
	Poll   PollConfig
	Logger *slog.Logger
}

// Normalize resolves resp to a transcript. Synchronous shapes are used
// verbatim; a job is polled until it completes, fails or exhausts the
// configured budget.
func (n *Normalizer) Normalize(ctx context.Context, resp UpstreamResponse) (*Result, error) {
	switch resp.Kind {
	case ResponseDirectText, ResponseContentField, ResponseTranscriptField, ResponseDataField:
		if resp.Text == "" {
			return nil, NotFound("transcript not found in response")
		}
		return &Result{Text: resp.Text, Strategy: StrategyThirdPartySync}, nil
	case ResponseJob:
		text, err := n.awaitJob(ctx, resp.JobID)
		if err != nil {
			return nil, err
		}
		return &Result{Text: text, Strategy: StrategyThirdPartyJob}, nil
	}
	return nil, NotFound("transcript not found in response")
}

func (n *Normalizer) awaitJob(parent context.Context, jobID string) (string, error) {
	if n.Jobs == nil {
		return "", Internal("job "+jobID+" returned but no job API is configured", nil)
	}

	cfg := n.Poll.withDefaults()
	ctx := parent
	if cfg.MaxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, cfg.MaxWait)
		defer cancel()
	}

	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for attempt := 1; ; attempt++ {
		status, err := n.Jobs.JobStatus(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return "", stopped(parent, jobID, cfg)
			}
			return "", err
		}

		logger.Debug("transcript job polled",
			slog.String("job_id", jobID),
			slog.String("status", string(status.Status)),
			slog.Int("attempt", attempt))

		switch status.Status {
		case JobCompleted:
			text, ok := status.Transcript()
			if !ok {
				return "", NotFound("transcript job %s completed without text", jobID)
			}
			return text, nil
		case JobFailed:
			return "", UpstreamFailed("%s", status.Error.String())
		}

		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			return "", UpstreamFailed("transcript job %s still %q after %d polls", jobID, status.Status, attempt)
		}

		select {
		case <-ctx.Done():
			return "", stopped(parent, jobID, cfg)
		case <-time.After(cfg.Interval):
		}
	}
}

// stopped distinguishes a caller cancellation from the poll budget running out.
func stopped(parent context.Context, jobID string, cfg PollConfig) error {
	if err := parent.Err(); err != nil {
		return Internal("polling transcript job "+jobID+" cancelled", err)
	}
	return UpstreamFailed("transcript job %s did not finish within %s", jobID, cfg.MaxWait)
}
