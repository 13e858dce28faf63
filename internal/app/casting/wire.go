package casting

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/casting-intake/internal/adapters/http/api"
	"github.com/casting-intake/internal/adapters/provider/bunny"
	"github.com/casting-intake/internal/adapters/provider/cloudflare"
	"github.com/casting-intake/internal/adapters/provider/youtube"
	"github.com/casting-intake/internal/adapters/queue/memory"
	memoryrepo "github.com/casting-intake/internal/adapters/repo/memory"
	"github.com/casting-intake/internal/adapters/repo/mysql"
	"github.com/casting-intake/internal/adapters/repo/postgres"
	memorystore "github.com/casting-intake/internal/adapters/sessionstore/memory"
	redisstore "github.com/casting-intake/internal/adapters/sessionstore/redis"
	"github.com/casting-intake/internal/core/services"
)

type TickableQueue interface {
	services.Queue
	Tick(ctx context.Context) (delivered int, requeued int)
	Process(ctx context.Context) int
	PendingCount() int
}

type App struct {
	Config  Config
	Handler http.Handler
	Logger  *zap.Logger
	Queue   TickableQueue
	Clock   services.Clock

	SessionStore services.SessionStore
	ProjectRepo  services.ProjectRepository
	AuditionRepo services.AuditionRepository

	Sessions        *services.SessionManager
	Proxy           *services.UploadProxy
	Poller          *services.ReadinessPoller
	Provisioner     *services.ChannelProvisioner
	Projects        *services.ProjectService
	Auditions       *services.AuditionSubmissionService
	RecheckConsumer *services.ReadinessRecheckConsumer

	closers []func()
}

// WireOptions replaces individual components, mainly so tests can run on
// fakes and recorded provider servers.
type WireOptions struct {
	Clock          services.Clock
	Scheduler      services.Scheduler
	Logger         *zap.Logger
	Queue          TickableQueue
	HTTPClient     *http.Client
	SessionStore   services.SessionStore
	ProjectRepo    services.ProjectRepository
	AuditionRepo   services.AuditionRepository
	Uploader       services.UploadProvider
	ChannelCreator services.ChannelCreator
	StatusSources  []services.StatusSource
}

func Wire(ctx context.Context, cfg Config, opts *WireOptions) (_ *App, err error) {
	if opts == nil {
		opts = &WireOptions{}
	}
	app := &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	logger := opts.Logger
	if logger == nil {
		if logger, err = NewLogger(cfg); err != nil {
			return nil, err
		}
	}
	app.Logger = logger

	var clock services.Clock = services.RealClock{}
	if opts.Clock != nil {
		clock = opts.Clock
	}
	var scheduler services.Scheduler = services.RealScheduler{}
	if opts.Scheduler != nil {
		scheduler = opts.Scheduler
	}
	app.Clock = clock

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	var checks []api.ReadinessCheck
	if app.SessionStore, checks, err = app.wireSessionStore(ctx, cfg, opts, clock, checks); err != nil {
		return nil, err
	}
	if checks, err = app.wireRepositories(ctx, cfg, opts, checks); err != nil {
		return nil, err
	}

	providers, err := wireProviders(ctx, cfg, opts, httpClient)
	if err != nil {
		return nil, err
	}

	app.Poller = services.NewReadinessPoller(clock, scheduler, logger.Named("readiness"), providers.sources...)
	app.Sessions = services.NewSessionManager(providers.uploader, app.SessionStore, clock, cfg.SessionTTL, cfg.PublicBaseURL, logger.Named("sessions"))
	app.Proxy = services.NewUploadProxy(app.SessionStore, providers.uploader, logger.Named("proxy"))
	app.Provisioner = services.NewChannelProvisioner(providers.channels, scheduler, services.ChannelProvisionerConfig{
		DefaultChannelID: cfg.DefaultChannelID,
		MaxAttempts:      cfg.ChannelMaxAttempts,
		InitialBackoff:   cfg.ChannelInitialBackoff,
	}, logger.Named("provisioner"))
	app.Projects = services.NewProjectService(app.ProjectRepo, app.Provisioner, clock, logger.Named("projects"))

	if opts.Queue != nil {
		app.Queue = opts.Queue
	} else {
		app.Queue = memory.NewInMemoryQueue(clock, logger.Named("queue"))
	}
	app.Auditions = services.NewAuditionSubmissionService(app.ProjectRepo, app.AuditionRepo, app.Poller, app.Queue, clock, cfg.SubmitWaitMax, logger.Named("auditions"))
	app.RecheckConsumer = services.NewReadinessRecheckConsumer(app.AuditionRepo, app.Poller, app.Queue, clock, cfg.RecheckMaxAttempts, logger.Named("recheck"))

	app.Handler = api.NewRouter(api.Services{
		Sessions:        app.Sessions,
		Proxy:           app.Proxy,
		Poller:          app.Poller,
		Projects:        app.Projects,
		Auditions:       app.Auditions,
		DefaultProvider: providers.uploader.Tag(),
		Checks:          checks,
	}, logger.Named("http"))

	return app, nil
}

func (a *App) wireSessionStore(ctx context.Context, cfg Config, opts *WireOptions, clock services.Clock, checks []api.ReadinessCheck) (services.SessionStore, []api.ReadinessCheck, error) {
	if opts.SessionStore != nil {
		return opts.SessionStore, checks, nil
	}
	switch cfg.SessionBackend {
	case "", "memory":
		return memorystore.NewSessionStore(clock), checks, nil
	case "redis":
		if cfg.RedisURL == "" {
			return nil, nil, errors.New("SESSION_BACKEND=redis requires REDIS_URL")
		}
		rdb, err := redisstore.Open(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() { rdb.Close() })
		checks = append(checks, api.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		return redisstore.NewSessionStore(rdb, clock), checks, nil
	}
	return nil, nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
}

func (a *App) wireRepositories(ctx context.Context, cfg Config, opts *WireOptions, checks []api.ReadinessCheck) ([]api.ReadinessCheck, error) {
	if opts.ProjectRepo != nil && opts.AuditionRepo != nil {
		a.ProjectRepo, a.AuditionRepo = opts.ProjectRepo, opts.AuditionRepo
		return checks, nil
	}

	switch cfg.RepoBackend {
	case "", "memory":
		a.ProjectRepo = memoryrepo.NewProjectRepository()
		a.AuditionRepo = memoryrepo.NewAuditionRepository()
	case "mysql":
		if cfg.MySQLDSN == "" {
			return nil, errors.New("REPO_BACKEND=mysql requires MYSQL_DSN")
		}
		db, err := mysql.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { db.Close() })
		if err := mysql.Migrate(ctx, db); err != nil {
			return nil, err
		}
		a.ProjectRepo = mysql.NewProjectRepository(db)
		a.AuditionRepo = mysql.NewAuditionRepository(db)
		checks = append(checks, api.ReadinessCheck{Name: "mysql", Check: db.PingContext})
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("REPO_BACKEND=postgres requires DATABASE_URL")
		}
		pool, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if err := postgres.Migrate(ctx, pool); err != nil {
			return nil, err
		}
		a.ProjectRepo = postgres.NewProjectRepository(pool)
		a.AuditionRepo = postgres.NewAuditionRepository(pool)
		checks = append(checks, api.ReadinessCheck{Name: "postgres", Check: pool.Ping})
	default:
		return nil, fmt.Errorf("unknown REPO_BACKEND %q", cfg.RepoBackend)
	}

	if opts.ProjectRepo != nil {
		a.ProjectRepo = opts.ProjectRepo
	}
	if opts.AuditionRepo != nil {
		a.AuditionRepo = opts.AuditionRepo
	}
	return checks, nil
}

type providerSet struct {
	uploader services.UploadProvider
	channels services.ChannelCreator
	sources  []services.StatusSource
}

func wireProviders(ctx context.Context, cfg Config, opts *WireOptions, httpClient *http.Client) (providerSet, error) {
	creds := cfg.Credentials
	var set providerSet

	var bunnyClient *bunny.Client
	if creds.Configured(bunny.Tag) {
		bunnyClient = bunny.NewClient(creds.Bunny(cfg.ProviderRPS), httpClient)
	}

	var ytClient *youtube.Client
	if creds.Configured(youtube.Tag) {
		svc, err := youtube.NewService(ctx, creds.YouTube(cfg.ProviderRPS))
		if err != nil {
			return set, err
		}
		ytClient = youtube.NewClient(svc, cfg.ProviderRPS)
	}

	switch {
	case opts.Uploader != nil:
		set.uploader = opts.Uploader
	case cfg.UploadProvider == bunny.Tag:
		if err := creds.Require(bunny.Tag); err != nil {
			return set, err
		}
		set.uploader = bunnyClient
	default:
		return set, fmt.Errorf("%w: %q cannot accept uploads", services.ErrUnknownProvider, cfg.UploadProvider)
	}

	switch {
	case opts.ChannelCreator != nil:
		set.channels = opts.ChannelCreator
	case cfg.ChannelProvider == youtube.Tag:
		if err := creds.Require(youtube.Tag); err != nil {
			return set, err
		}
		set.channels = ytClient
	case cfg.ChannelProvider == bunny.Tag:
		if err := creds.Require(bunny.Tag); err != nil {
			return set, err
		}
		set.channels = bunnyClient
	default:
		return set, fmt.Errorf("%w: %q cannot create channels", services.ErrUnknownProvider, cfg.ChannelProvider)
	}

	if opts.StatusSources != nil {
		set.sources = opts.StatusSources
		return set, nil
	}
	if bunnyClient != nil {
		set.sources = append(set.sources, bunnyClient)
	}
	if creds.Configured(cloudflare.Tag) {
		set.sources = append(set.sources, cloudflare.NewClient(creds.Cloudflare(cfg.ProviderRPS), httpClient))
	}
	if ytClient != nil {
		set.sources = append(set.sources, ytClient)
	}
	return set, nil
}

func (a *App) SubscribeReadinessRecheck(ctx context.Context) error {
	return a.Queue.Subscribe(ctx, "casting:readinessrecheck", services.ReadinessRecheckTopic, "", a.RecheckConsumer.Handle)
}

func (a *App) SweepSessions(ctx context.Context) (int, error) {
	return a.SessionStore.Sweep(ctx)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	if a.Logger != nil {
		a.Logger.Sync() //nolint:errcheck
	}
}
