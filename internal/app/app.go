package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"SmartFeeds/internal/config"
	"SmartFeeds/internal/digest"
	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/infrastructure/browser"
	"SmartFeeds/internal/infrastructure/llm"
	"SmartFeeds/internal/infrastructure/ml"
	"SmartFeeds/internal/infrastructure/parser"
	"SmartFeeds/internal/infrastructure/scheduler"
	"SmartFeeds/internal/infrastructure/storage"
	"SmartFeeds/internal/infrastructure/telegram"
	"SmartFeeds/internal/logging"
	"SmartFeeds/internal/ports"
	"SmartFeeds/internal/relevance"
	"SmartFeeds/internal/scanner"
	"SmartFeeds/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	records  ports.RecordStore
	digests  ports.DigestStore
	browser  *browser.Manager
	closers  []func() error

	classifierErr  error
	synthesizerErr error
}

// New builds the application. Storage problems fail immediately; a
// missing model credential only fails the phase that needs it.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	if err := a.openStores(ctx); err != nil {
		return nil, err
	}

	var seen ports.SeenLedger
	if cfg.Dedup.SeenLedger {
		ledger, err := storage.OpenSeenLedger(cfg.SeenLedgerPath(), cfg.Dedup.MaxEntries)
		if err != nil {
			_ = a.Close()
			return nil, &domain.PersistenceError{Op: "open seen ledger", Err: err}
		}
		seen = ledger
	}

	client := &http.Client{Timeout: cfg.Fetch.SourceTimeout}

	a.browser = browser.NewManager(browser.Options{
		UserDataDir:       cfg.BrowserUserDataDir(),
		Headless:          cfg.Browser.Headless,
		RemoteURL:         cfg.Browser.RemoteURL,
		Proxy:             cfg.Browser.Proxy,
		Scrolls:           cfg.Browser.Scrolls,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		Logger:            baseLogger,
	})
	a.closers = append(a.closers, a.browser.Close)

	registry := scanner.NewRegistry()
	registry.Register(parser.NewHTTPFetcher(client, cfg.Fetch.UserAgent))
	registry.Register(browser.NewFetcher(a.browser))

	adapter := parser.NewDispatcher(
		parser.NewWebsiteSource(registry, cfg.Fetch.MaxItemsPerPage, baseLogger.With("component", "source.website")),
		parser.NewFeedSource(client, cfg.Fetch.UserAgent, cfg.Fetch.FeedLimit, baseLogger.With("component", "source.feed")),
	)

	var chat ports.ChatClient
	if cfg.LLM.APIKey != "" {
		chat = llm.NewChatGPTClient(cfg.LLM, baseLogger)
	}

	classifier, err := buildClassifier(cfg, chat, baseLogger)
	a.classifierErr = err
	synthesizer, err := buildSynthesizer(cfg, chat, baseLogger)
	a.synthesizerErr = err

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Adapter:     adapter,
		Classifier:  classifier,
		Records:     a.records,
		Synthesizer: synthesizer,
		Digests:     a.digests,
		Seen:        seen,
		Notifier:    notifier,
		Logger:      baseLogger,
	}, usecase.PipelineOptions{
		Concurrency:    cfg.Fetch.Concurrency,
		SourceTimeout:  cfg.Fetch.SourceTimeout,
		AppendAttempts: cfg.Fetch.AppendAttempts,
		AppendBackoff:  cfg.Fetch.AppendBackoff,
	})

	return a, nil
}

func (a *Application) openStores(ctx context.Context) error {
	switch a.cfg.Storage.Driver {
	case "", config.DriverMarkdown:
		store := storage.NewMarkdownStore(a.cfg.OutputDir())
		a.records, a.digests = store, store
	case config.DriverSQLite, config.DriverPostgres:
		dsn := a.cfg.Storage.DSN
		if dsn == "" && a.cfg.Storage.Driver == config.DriverSQLite {
			if err := os.MkdirAll(a.cfg.OutputDir(), 0o755); err != nil {
				return &domain.PersistenceError{Op: "create output dir", Err: err}
			}
			dsn = filepath.Join(a.cfg.OutputDir(), "smartfeeds.db")
		}
		if dsn == "" {
			return &domain.ConfigError{Field: "storage.dsn", Err: errors.New("postgres requires a dsn")}
		}
		store, err := storage.OpenSQLStore(ctx, a.cfg.Storage.Driver, dsn)
		if err != nil {
			return &domain.PersistenceError{Op: "open store", Err: err}
		}
		a.records, a.digests = store, store
		a.closers = append(a.closers, store.Close)
	default:
		return &domain.ConfigError{Field: "storage.driver", Err: fmt.Errorf("unknown driver %q", a.cfg.Storage.Driver)}
	}
	return nil
}

func buildClassifier(cfg config.Config, chat ports.ChatClient, logger *slog.Logger) (ports.Classifier, error) {
	switch cfg.Providers.Classifier {
	case "", config.ProviderLLM:
		if chat == nil {
			return nil, &domain.ConfigError{Field: "llm.apiKey", Err: errors.New("classifier needs LLM_API_KEY or OPENAI_API_KEY")}
		}
		return llm.NewClassifier(chat, cfg.LLM.OutputLanguage, logger), nil
	case config.ProviderInference:
		if cfg.ML.InferenceURL == "" {
			return nil, &domain.ConfigError{Field: "ml.inferenceUrl", Err: errors.New("inference classifier needs a url")}
		}
		return ml.NewClient(cfg.ML.InferenceURL, cfg.ML.APIKey, cfg.LLM.OutputLanguage), nil
	case config.ProviderPlain:
		return relevance.Keyword{}, nil
	default:
		return nil, &domain.ConfigError{Field: "providers.classifier", Err: fmt.Errorf("unknown provider %q", cfg.Providers.Classifier)}
	}
}

func buildSynthesizer(cfg config.Config, chat ports.ChatClient, logger *slog.Logger) (ports.Synthesizer, error) {
	switch cfg.Providers.Synthesizer {
	case "", config.ProviderLLM:
		if chat == nil {
			return nil, &domain.ConfigError{Field: "llm.apiKey", Err: errors.New("synthesizer needs LLM_API_KEY or OPENAI_API_KEY")}
		}
		return llm.NewSynthesizer(chat, cfg.LLM.OutputLanguage, logger), nil
	case config.ProviderInference:
		if cfg.ML.InferenceURL == "" {
			return nil, &domain.ConfigError{Field: "ml.inferenceUrl", Err: errors.New("inference synthesizer needs a url")}
		}
		return ml.NewClient(cfg.ML.InferenceURL, cfg.ML.APIKey, cfg.LLM.OutputLanguage), nil
	case config.ProviderPlain:
		return digest.Plain{}, nil
	default:
		return nil, &domain.ConfigError{Field: "providers.synthesizer", Err: fmt.Errorf("unknown provider %q", cfg.Providers.Synthesizer)}
	}
}

// Config returns the configuration the application was built from.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Today returns the current day key in the configured time zone.
func (a *Application) Today() domain.DayKey {
	return domain.DayKeyFor(time.Now(), a.cfg.Scheduler.Location())
}

// Records exposes the daily record store for read-only callers.
func (a *Application) Records() ports.RecordStore {
	return a.records
}

// Digests exposes the digest store for read-only callers.
func (a *Application) Digests() ports.DigestStore {
	return a.digests
}

// LoadRequest reads sources and interests for one Fetch Phase.
func (a *Application) LoadRequest(_ context.Context, day domain.DayKey) (usecase.FetchRequest, error) {
	sources, err := config.LoadSources(a.cfg.SourcesPath())
	if err != nil {
		return usecase.FetchRequest{}, err
	}
	profile, err := config.LoadInterests(a.cfg.InterestsPath())
	if err != nil {
		return usecase.FetchRequest{}, err
	}
	return usecase.FetchRequest{Day: day, Sources: sources, Profile: profile}, nil
}

// Fetch runs the Fetch Phase for day with freshly loaded sources.
func (a *Application) Fetch(ctx context.Context, day domain.DayKey) (usecase.FetchResult, error) {
	if a.classifierErr != nil {
		return usecase.FetchResult{}, a.classifierErr
	}
	req, err := a.LoadRequest(ctx, day)
	if err != nil {
		return usecase.FetchResult{}, err
	}
	return a.pipeline.Fetch(ctx, req)
}

// Summarize runs the Summarize Phase for day.
func (a *Application) Summarize(ctx context.Context, day domain.DayKey) (usecase.SummarizeResult, error) {
	if a.synthesizerErr != nil {
		return usecase.SummarizeResult{Day: day, State: usecase.StateSumFailed}, a.synthesizerErr
	}
	return a.pipeline.Summarize(ctx, day)
}

// Scheduler builds the daemon loop over the interval driver.
func (a *Application) Scheduler() *usecase.Scheduler {
	load := func(ctx context.Context, day domain.DayKey) (usecase.FetchRequest, error) {
		if a.classifierErr != nil {
			return usecase.FetchRequest{}, a.classifierErr
		}
		return a.LoadRequest(ctx, day)
	}
	summarize := a.cfg.Scheduler.SummarizeAfterFetch
	if summarize && a.synthesizerErr != nil {
		a.logger.Warn("scheduled summarize disabled, synthesizer is not configured", "error", a.synthesizerErr)
		summarize = false
	}
	return usecase.NewScheduler(
		scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval),
		a.pipeline,
		load,
		usecase.SchedulerOptions{
			Location:            a.cfg.Scheduler.Location(),
			SummarizeAfterFetch: summarize,
		},
		a.logger,
	)
}

// Close releases the browser and database handles.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
