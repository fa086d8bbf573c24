package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alrobwilloliver/ytdigest/internal/cache"
	"github.com/alrobwilloliver/ytdigest/internal/config"
	"github.com/alrobwilloliver/ytdigest/internal/library"
	"github.com/alrobwilloliver/ytdigest/internal/metadata"
	"github.com/alrobwilloliver/ytdigest/internal/summarize"
	"github.com/alrobwilloliver/ytdigest/internal/transcript"
	"github.com/alrobwilloliver/ytdigest/internal/transcript/scrape"
	"github.com/alrobwilloliver/ytdigest/internal/transcript/supadata"
)

// Parts selects the optional stages Open builds.
type Parts struct {
	Summarizer bool
	Library    bool
}

// Open builds a Service from configuration. Close releases the cache and
// library connections.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, parts Parts) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := NewProvider(cfg.Transcript, logger)
	if err != nil {
		return nil, err
	}

	meta, err := NewMetadata(ctx, cfg.Metadata, logger)
	if err != nil {
		return nil, err
	}

	svc := &Service{Provider: provider, Metadata: meta, Logger: logger}

	if parts.Summarizer {
		svc.Summarizer, err = NewSummarizer(ctx, cfg.Summarizer, logger)
		if err != nil {
			return nil, err
		}
	}

	svc.Cache, err = OpenCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	if parts.Library {
		svc.Library, err = OpenLibrary(ctx, cfg.Library)
		if err != nil {
			svc.Cache.Close()
			return nil, err
		}
	}

	logger.Debug("digest service ready",
		slog.String("provider", provider.Name()),
		slog.String("cache", cfg.Cache.Backend),
		slog.Bool("summarizer", svc.Summarizer != nil),
		slog.Bool("library", svc.Library != nil))
	return svc, nil
}

// Close releases the cache and library.
func (s *Service) Close() error {
	var errs []error
	if s.Cache != nil {
		errs = append(errs, s.Cache.Close())
	}
	if s.Library != nil {
		errs = append(errs, s.Library.Close())
	}
	return errors.Join(errs...)
}

// NewProvider returns the transcript provider named by cfg.Provider.
func NewProvider(cfg config.TranscriptConfig, logger *slog.Logger) (transcript.Provider, error) {
	opts := []scrape.Option{scrape.WithLogger(logger)}
	if cfg.YouTubeBaseURL != "" {
		opts = append(opts, scrape.WithBaseURL(cfg.YouTubeBaseURL))
	}

	switch cfg.Provider {
	case config.ProviderScrape, "":
		return scrape.NewScraper(opts...), nil
	case config.ProviderTimedText:
		return scrape.NewTimedText(opts...), nil
	case config.ProviderSupadata:
		return supadata.New(supadata.Config{
			APIKey:  cfg.Supadata.APIKey,
			BaseURL: cfg.Supadata.BaseURL,
			Poll: transcript.PollConfig{
				Interval:    cfg.Poll.Interval,
				MaxAttempts: cfg.Poll.MaxAttempts,
				MaxWait:     cfg.Poll.MaxWait,
			},
			Logger: logger,
		})
	}
	return nil, fmt.Errorf("unknown transcript provider %q", cfg.Provider)
}

// NewMetadata returns an oEmbed fetcher, backed by the Data API for numeric
// details when an API key is configured.
func NewMetadata(ctx context.Context, cfg config.MetadataConfig, logger *slog.Logger) (*metadata.Fetcher, error) {
	f := &metadata.Fetcher{OEmbed: metadata.NewOEmbed(cfg.OEmbedURL), Logger: logger}
	if cfg.YouTubeAPIKey == "" {
		return f, nil
	}

	api, err := metadata.NewDataAPI(ctx, cfg.YouTubeAPIKey)
	if err != nil {
		return nil, err
	}
	f.Stats = api
	return f, nil
}

// NewSummarizer builds the model backend and wraps it in a summarize.Service.
func NewSummarizer(ctx context.Context, cfg config.SummarizerConfig, logger *slog.Logger) (*summarize.Service, error) {
	model, err := summarize.NewModel(ctx, summarize.ModelConfig{
		Backend: cfg.Backend,
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	prompts := summarize.DefaultPrompts()
	if cfg.Prompts != "" {
		prompts, err = summarize.LoadPrompts(cfg.Prompts)
		if err != nil {
			return nil, err
		}
	}

	return summarize.NewService(model, summarize.Options{
		Prompts:        prompts,
		MaxChunkTokens: cfg.MaxChunkTokens,
		Logger:         logger,
	}), nil
}

// OpenCache opens the configured transcript cache.
func OpenCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		return cache.OpenSQLite(cfg.Path)
	case config.BackendRedis:
		return cache.OpenRedis(ctx, cfg.RedisURL, cfg.TTL)
	case config.BackendNone:
		return cache.Nop{}, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// OpenLibrary opens the configured summary library.
func OpenLibrary(ctx context.Context, cfg config.LibraryConfig) (library.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		return library.OpenSQLite(cfg.Path)
	case config.BackendPostgres:
		return library.OpenPostgres(ctx, cfg.DatabaseURL)
	}
	return nil, fmt.Errorf("unknown library backend %q", cfg.Backend)
}
