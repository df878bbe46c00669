// Package app is the composition root shared by the server and portalctl:
// it opens the configured backends and wires every module onto them.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	billinghandler "civic/internal/billing/handler"
	billingmetrics "civic/internal/billing/metrics"
	billingmodels "civic/internal/billing/models"
	billingsvc "civic/internal/billing/service"
	billingstore "civic/internal/billing/store"
	budgethandler "civic/internal/budget/handler"
	budgetmetrics "civic/internal/budget/metrics"
	budgetsvc "civic/internal/budget/service"
	budgetstore "civic/internal/budget/store"
	complainthandler "civic/internal/complaints/handler"
	complaintmetrics "civic/internal/complaints/metrics"
	complaintsvc "civic/internal/complaints/service"
	complaintstore "civic/internal/complaints/store"
	directoryhandler "civic/internal/directory/handler"
	directorysvc "civic/internal/directory/service"
	directorystore "civic/internal/directory/store"
	httpapi "civic/internal/http"
	identityhandler "civic/internal/identity/handler"
	identitymetrics "civic/internal/identity/metrics"
	identitysvc "civic/internal/identity/service"
	"civic/internal/identity/store/revocation"
	userstore "civic/internal/identity/store/user"
	"civic/internal/identity/token"
	noticehandler "civic/internal/notices/handler"
	noticesvc "civic/internal/notices/service"
	noticestore "civic/internal/notices/store"
	"civic/internal/notifications/dispatch"
	notifyhandler "civic/internal/notifications/handler"
	notifymetrics "civic/internal/notifications/metrics"
	notifysvc "civic/internal/notifications/service"
	notifystore "civic/internal/notifications/store"
	"civic/internal/platform/config"
	"civic/internal/platform/events"
	"civic/internal/platform/kafka"
	platformmetrics "civic/internal/platform/metrics"
	"civic/internal/platform/postgres"
	platformredis "civic/internal/platform/redis"
	ratelimitmetrics "civic/internal/ratelimit/metrics"
	ratelimitmw "civic/internal/ratelimit/middleware"
	ratelimitmodels "civic/internal/ratelimit/models"
	ratelimitsvc "civic/internal/ratelimit/service"
	lockoutsvc "civic/internal/ratelimit/service/authlockout"
	lockoutstore "civic/internal/ratelimit/store/authlockout"
	"civic/internal/ratelimit/store/bucket"
	reporthandler "civic/internal/reports/handler"
	reportmetrics "civic/internal/reports/metrics"
	reportsvc "civic/internal/reports/service"
	reportstore "civic/internal/reports/store"
	"civic/internal/reports/worker"
	workforcehandler "civic/internal/workforce/handler"
	workforcesvc "civic/internal/workforce/service"
	workforcestore "civic/internal/workforce/store"
	"civic/pkg/platform/audit"
	auditpublisher "civic/pkg/platform/audit/publisher"
	auditmemory "civic/pkg/platform/audit/store/memory"
	auditpostgres "civic/pkg/platform/audit/store/postgres"
	"civic/pkg/platform/circuit"
)

// App is the assembled service. Handler serves HTTP; the services are exposed
// for the CLI; ReportWorker runs due report schedules.
type App struct {
	Handler      http.Handler
	Identity     *identitysvc.Service
	Directory    *directorysvc.Service
	Billing      *billingsvc.Service
	Budget       *budgetsvc.Service
	Reports      *reportsvc.Service
	ReportWorker *worker.Worker

	closers []func(ctx context.Context)
}

// Backends are the optional external systems. Nil fields select the
// in-process implementation for the concerns they would serve.
type Backends struct {
	DB    *sql.DB
	Redis *platformredis.Client
	Kafka *kafka.Producer
}

// Close flushes the audit buffer and the Kafka producer, newest first.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
}

// Connect opens Postgres (running migrations), Redis and Kafka for whichever
// of them cfg names.
func Connect(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Backends, error) {
	b := &Backends{}
	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		applied, err := postgres.Migrate(ctx, db, log)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		log.InfoContext(ctx, "postgres ready", "migrations_applied", len(applied))
		b.DB = db
	}

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Redis = rc

	producer, err := kafka.New(cfg.Kafka, kafka.WithLogger(log))
	if err != nil {
		b.Close()
		return nil, err
	}
	if producer != nil {
		if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
			// The circuit breaker covers an unreachable broker; startup continues.
			log.WarnContext(ctx, "kafka topic bootstrap failed", "topic", cfg.Kafka.Topic, "error", err)
		}
		b.Kafka = producer
	}
	return b, nil
}

// Close releases the connection pools.
func (b *Backends) Close() {
	if b.DB != nil {
		_ = b.DB.Close()
	}
	if b.Redis != nil {
		_ = b.Redis.Close()
	}
}

// Build wires every module. reg receives all collectors; nil selects the
// process-wide default registry.
func Build(ctx context.Context, cfg *config.Config, b *Backends, log *slog.Logger, reg *prometheus.Registry) (*App, error) {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		metricsH                         = platformmetrics.Handler()
	)
	if reg != nil {
		registerer = reg
		metricsH = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	a := &App{}

	// Audit trail.
	var auditStore audit.Store = auditmemory.NewInMemoryStore()
	if b.DB != nil {
		auditStore = auditpostgres.New(b.DB)
	}
	auditor := auditpublisher.NewPublisher(auditStore,
		auditpublisher.WithAsyncBuffer(1024),
		auditpublisher.WithLogger(log),
	)
	a.closers = append(a.closers, func(context.Context) { auditor.Close() })

	// Domain events, optionally mirrored to Kafka.
	busOpts := []events.Option{events.WithLogger(log)}
	if b.Kafka != nil {
		busOpts = append(busOpts, events.WithSink(b.Kafka))
		a.closers = append(a.closers, b.Kafka.Close)
	}
	bus := events.NewBus(busOpts...)

	// Directory.
	var dirStore directorysvc.Store = directorystore.NewInMemory()
	if b.DB != nil {
		dirStore = directorystore.NewPostgres(b.DB)
	}
	directory := directorysvc.New(dirStore, directorysvc.WithLogger(log))

	// Identity.
	var (
		users       identitysvc.UserStore      = userstore.New()
		revocations identitysvc.RevocationList = revocation.NewInMemoryTRL()
	)
	if b.DB != nil {
		users = userstore.NewPostgres(b.DB)
	}
	if b.Redis != nil {
		revocations = revocation.NewRedisTRL(b.Redis.Client)
	}
	var lockouts lockoutsvc.Store = lockoutstore.New()
	if b.DB != nil {
		lockouts = lockoutstore.NewPostgres(b.DB)
	}
	guard, err := lockoutsvc.New(lockouts,
		lockoutsvc.WithLogger(log),
		lockoutsvc.WithAuditPublisher(auditor),
		lockoutsvc.WithConfig(ratelimitmodels.LockoutConfig{
			AttemptsPerWindow: cfg.Auth.LoginAttemptsPerWindow,
			Window:            ratelimitmodels.DefaultLockoutConfig().Window,
			HardLockThreshold: cfg.Auth.LoginHardLockThreshold,
			HardLockDuration:  cfg.Auth.LoginLockoutDuration,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("login lockout: %w", err)
	}
	jwt := token.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	identity := identitysvc.New(users, revocations, jwt,
		identitysvc.WithLogger(log),
		identitysvc.WithAuditPublisher(auditor),
		identitysvc.WithMetrics(identitymetrics.New(registerer)),
		identitysvc.WithWardChecker(directory),
		identitysvc.WithLoginGuard(guard),
	)
	a.Identity = identity
	a.Directory = directory

	// Complaints and workforce.
	var (
		complaintStore complaintsvc.Store = complaintstore.NewInMemory()
		staffStore     workforcesvc.Store = workforcestore.NewInMemory()
	)
	if b.DB != nil {
		complaintStore = complaintstore.NewPostgres(b.DB)
		staffStore = workforcestore.NewPostgres(b.DB)
	}
	complaints := complaintsvc.New(complaintStore,
		complaintsvc.WithLogger(log),
		complaintsvc.WithAuditPublisher(auditor),
		complaintsvc.WithMetrics(complaintmetrics.New(registerer)),
		complaintsvc.WithWorkforce(workforcesvc.NewLoadTracker(staffStore, log)),
		complaintsvc.WithPublisher(bus),
		complaintsvc.WithDirectory(directory, directory),
		complaintsvc.WithDefaultSLA(cfg.Complaints.DefaultSLA),
		complaintsvc.WithReopenWindow(cfg.Complaints.ReopenWindow),
	)
	workforce := workforcesvc.New(staffStore, complaints,
		workforcesvc.WithLogger(log),
		workforcesvc.WithAuditPublisher(auditor),
		workforcesvc.WithUserLookup(identity),
	)

	// Billing.
	var billStore billingsvc.Store = billingstore.NewInMemory()
	if b.DB != nil {
		billStore = billingstore.NewPostgres(b.DB)
	}
	billing := billingsvc.New(billStore,
		billingsvc.WithLogger(log),
		billingsvc.WithAuditPublisher(auditor),
		billingsvc.WithMetrics(billingmetrics.New(registerer)),
		billingsvc.WithUserLookup(identity),
		billingsvc.WithPublisher(bus),
		billingsvc.WithLateFeePolicy(billingmodels.LateFeePolicy{
			Rate: cfg.Billing.LateFeeRate,
			Cap:  cfg.Billing.LateFeeCap,
		}),
	)

	// Notices.
	var noticeStore noticesvc.Store = noticestore.NewInMemory()
	if b.DB != nil {
		noticeStore = noticestore.NewPostgres(b.DB)
	}
	notices := noticesvc.New(noticeStore,
		noticesvc.WithLogger(log),
		noticesvc.WithAuditPublisher(auditor),
		noticesvc.WithPublisher(bus),
		noticesvc.WithWardChecker(directory),
	)

	// Participatory budget.
	var budgetStore budgetsvc.Store = budgetstore.NewInMemory()
	if b.DB != nil {
		budgetStore = budgetstore.NewPostgres(b.DB)
	}
	budget := budgetsvc.New(budgetStore,
		budgetsvc.WithLogger(log),
		budgetsvc.WithAuditPublisher(auditor),
		budgetsvc.WithMetrics(budgetmetrics.New(registerer)),
		budgetsvc.WithUserLookup(identity),
		budgetsvc.WithPublisher(bus),
	)

	// Notifications, fed by the event bus.
	var (
		inbox   notifysvc.Store   = notifystore.NewInMemory()
		counter notifysvc.Counter = notifystore.NewInMemoryCounter()
	)
	if b.DB != nil {
		inbox = notifystore.NewPostgres(b.DB)
	}
	if b.Redis != nil {
		counter = notifystore.NewRedisCounter(b.Redis.Client)
	}
	notifications := notifysvc.New(inbox, counter,
		notifysvc.WithLogger(log),
		notifysvc.WithAuditPublisher(auditor),
		notifysvc.WithMetrics(notifymetrics.New(registerer)),
	)
	dispatch.New(notifications, identity, dispatch.WithLogger(log)).Register(bus)

	// Reports.
	var reportStore reportsvc.Store = reportstore.NewInMemory()
	if b.DB != nil {
		reportStore = reportstore.NewPostgres(b.DB)
	}
	reports := reportsvc.New(reportStore, complaints, billing, budget,
		reportsvc.WithLogger(log),
		reportsvc.WithAuditPublisher(auditor),
		reportsvc.WithMetrics(reportmetrics.New(registerer)),
	)
	a.Billing = billing
	a.Budget = budget
	a.Reports = reports
	a.ReportWorker = worker.New(reports, cfg.ReportInterval, log)

	// Rate limiting: shared buckets in Redis with a local fallback.
	allowlist, err := ratelimitmodels.NewAllowlist(cfg.RateLimit.Allowlist)
	if err != nil {
		return nil, fmt.Errorf("rate limit allowlist: %w", err)
	}
	limits := ratelimitmodels.DefaultLimits()
	limits.Global = ratelimitmodels.GlobalPerSecond(cfg.RateLimit.GlobalPerSecond)
	rlOpts := []ratelimitsvc.Option{
		ratelimitsvc.WithLogger(log),
		ratelimitsvc.WithAuditPublisher(auditor),
		ratelimitsvc.WithMetrics(ratelimitmetrics.New(registerer)),
		ratelimitsvc.WithLimits(limits),
		ratelimitsvc.WithAllowlist(allowlist),
	}
	var buckets ratelimitsvc.BucketStore = bucket.New()
	if b.Redis != nil {
		buckets = bucket.NewRedis(b.Redis.Client)
		rlOpts = append(rlOpts, ratelimitsvc.WithFallback(bucket.New(), circuit.New("ratelimit")))
	}
	platform := platformmetrics.New(registerer)
	limiter := ratelimitmw.New(ratelimitsvc.New(buckets, rlOpts...), log,
		ratelimitmw.WithDisabled(cfg.RateLimit.Disabled),
		ratelimitmw.WithRejectionRecorder(platform),
	)

	health := map[string]httpapi.HealthCheck{}
	if b.DB != nil {
		health["postgres"] = b.DB.PingContext
	}
	if b.Redis != nil {
		health["redis"] = b.Redis.Health
	}

	a.Handler = httpapi.NewRouter(httpapi.Deps{
		Logger:         log,
		Latency:        platform,
		Metrics:        metricsH,
		Validator:      token.NewMiddlewareAdapter(jwt),
		Revocations:    identity,
		RateLimit:      limiter,
		RequestTimeout: cfg.Server.RequestTimeout,
		Health:         health,
	}, httpapi.Handlers{
		Identity:      identityhandler.New(identity, log),
		Directory:     directoryhandler.New(directory, log),
		Notices:       noticehandler.New(notices, log),
		Complaints:    complainthandler.New(complaints, log),
		Workforce:     workforcehandler.New(workforce, log),
		Billing:       billinghandler.New(billing, log),
		Budget:        budgethandler.New(budget, log),
		Notifications: notifyhandler.New(notifications, log),
		Reports:       reporthandler.New(reports, log),
		Audit:         httpapi.NewAuditHandler(auditor, log),
	})

	if cfg.Auth.BootstrapAdminEmail != "" {
		created, err := identity.EnsureAdmin(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPassword)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			log.InfoContext(ctx, "bootstrap admin created", "email", cfg.Auth.BootstrapAdminEmail)
		}
	}
	return a, nil
}
