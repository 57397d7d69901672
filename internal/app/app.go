package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/contest-awards/internal/config"
	"github.com/riskibarqy/contest-awards/internal/domain/member"
	"github.com/riskibarqy/contest-awards/internal/domain/scoring"
	"github.com/riskibarqy/contest-awards/internal/domain/submission"
	"github.com/riskibarqy/contest-awards/internal/infrastructure/notifier"
	cacherepo "github.com/riskibarqy/contest-awards/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/contest-awards/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/contest-awards/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/contest-awards/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/contest-awards/internal/platform/cache"
	idgen "github.com/riskibarqy/contest-awards/internal/platform/id"
	"github.com/riskibarqy/contest-awards/internal/platform/logging"
	"github.com/riskibarqy/contest-awards/internal/platform/metrics"
	"github.com/riskibarqy/contest-awards/internal/platform/resilience"
	"github.com/riskibarqy/contest-awards/internal/usecase"
)

// App is the wired HTTP service.
type App struct {
	Server *http.Server
	db     *sqlx.DB
	logger *logging.Logger
}

type repositories struct {
	members member.Repository
	// roster is never cached; upload and import validation must see the
	// current dues.
	roster      member.Repository
	submissions submission.Repository
	scoring     scoring.Repository
}

// withCache wraps the read-heavy repositories. The roster and the scoring
// method stay uncached.
func (r repositories) withCache(store *basecache.Store) repositories {
	r.members = cacherepo.NewMemberRepository(r.members, store)
	r.scoring = cacherepo.NewScoringRepository(r.scoring, store)
	return r
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	var metricsManager *metrics.Manager
	if cfg.MetricsEnabled {
		metricsManager = metrics.NewManager()
	}

	var (
		repos repositories
		db    *sqlx.DB
		err   error
	)
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		repos = memoryRepositories()
		logger.Info("storage configured", "driver", cfg.StorageDriver, "seed_members", len(memory.SeedMembers()))
	default:
		db, err = openDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		repos = postgresRepositories(db)
		logger.Info("storage configured", "driver", cfg.StorageDriver, "db_name", dbNameFromURL(cfg.DBURL))
	}

	if cfg.CacheEnabled {
		var opts []basecache.Option
		if metricsManager != nil {
			opts = append(opts, basecache.WithLookupObserver(metricsManager))
		}
		store := basecache.NewStore(cfg.CacheTTL, opts...)
		repos = repos.withCache(store)
	}

	submissionNotifier, err := newSubmissionNotifier(cfg, metricsManager, logger)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	scoringSvc := usecase.NewScoringService(
		repos.submissions,
		repos.scoring,
		usecase.ScoringServiceConfig{MaxWorkers: cfg.RecomputeMaxWorkers},
		metricsManager,
		logger,
	)
	submissionSvc := usecase.NewSubmissionService(
		repos.roster,
		repos.submissions,
		repos.scoring,
		scoringSvc,
		submissionNotifier,
		idgen.NewUUIDGenerator(),
		metricsManager,
		logger,
	)
	importSvc := usecase.NewImportService(repos.roster, repos.submissions, submissionSvc, scoringSvc, metricsManager, logger)
	leaderboardSvc := usecase.NewLeaderboardService(repos.members, repos.submissions, repos.scoring)
	memberSvc := usecase.NewMemberService(repos.members, logger)

	handler := httpapi.NewHandler(
		submissionSvc,
		scoringSvc,
		importSvc,
		leaderboardSvc,
		memberSvc,
		httpapi.HandlerConfig{UploadMaxBytes: cfg.UploadMaxBytes},
		logger,
	)
	router := httpapi.NewRouter(handler, metricsManager, logger, cfg.CORSAllowedOrigins)

	return &App{
		Server: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		db:     db,
		logger: logger,
	}, nil
}

// Shutdown drains the HTTP server and closes the database pool.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Server.Shutdown(ctx)
	if a.db != nil {
		closeDB(a.db)
		a.logger.Info("database pool closed")
	}
	return err
}

func memoryRepositories() repositories {
	members := memory.NewMemberRepository(memory.SeedMembers())
	submissions := memory.NewSubmissionRepository()
	return repositories{
		members:     members,
		roster:      members,
		submissions: submissions,
		scoring:     memory.NewScoringRepository(submissions),
	}
}

func postgresRepositories(db *sqlx.DB) repositories {
	members := postgres.NewMemberRepository(db)
	return repositories{
		members:     members,
		roster:      members,
		submissions: postgres.NewSubmissionRepository(db),
		scoring:     postgres.NewScoringRepository(db),
	}
}

func newSubmissionNotifier(cfg config.Config, metricsManager *metrics.Manager, logger *logging.Logger) (usecase.SubmissionNotifier, error) {
	if !cfg.NotifyEnabled {
		logger.Info("submission notifications disabled", "reason", "NOTIFY_ENABLED=false")
		return usecase.NewNoopSubmissionNotifier(), nil
	}

	webhook, err := notifier.NewWebhookNotifier(notifier.WebhookConfig{
		URL:          cfg.NotifyWebhookURL,
		Token:        cfg.NotifyToken,
		Timeout:      cfg.NotifyTimeout,
		MaxRetries:   cfg.NotifyMaxRetries,
		RetryBackoff: cfg.NotifyRetryBackoff,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.NotifyCircuitEnabled,
			FailureThreshold: cfg.NotifyCircuitFailureCount,
			OpenTimeout:      cfg.NotifyCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.NotifyCircuitHalfOpenMaxReq,
		},
	}, metricsManager, logger)
	if err != nil {
		return nil, fmt.Errorf("build submission notifier: %w", err)
	}

	return webhook, nil
}
