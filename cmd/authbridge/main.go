// Command authbridge serves the authentication flow: credential and OAuth
// sign-in against an external identity provider, session resolution, profile
// synchronization, and the audit trail, with row-level policies applied to
// the database from the same rule table the in-process checks use.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/authbridge/internal/db/migrations"
	"github.com/dmitrymomot/authbridge/modules/authflow"
	"github.com/dmitrymomot/authbridge/pkg/audit"
	"github.com/dmitrymomot/authbridge/pkg/authz"
	"github.com/dmitrymomot/authbridge/pkg/callback"
	"github.com/dmitrymomot/authbridge/pkg/config"
	"github.com/dmitrymomot/authbridge/pkg/flowstate"
	"github.com/dmitrymomot/authbridge/pkg/httpserver"
	"github.com/dmitrymomot/authbridge/pkg/idp"
	"github.com/dmitrymomot/authbridge/pkg/logger"
	"github.com/dmitrymomot/authbridge/pkg/pg"
	"github.com/dmitrymomot/authbridge/pkg/profile"
	rds "github.com/dmitrymomot/authbridge/pkg/redis"
	"github.com/dmitrymomot/authbridge/pkg/session"
)

func main() {
	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.New(logger.WithLevel(logCfg.Level), logger.WithFormat(logCfg.Format))

	if err := run(context.Background(), log); err != nil {
		log.Error("authbridge exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		pgCfg       pg.Config
		redisCfg    rds.Config
		idpCfg      idp.Config
		authzCfg    authz.Config
		callbackCfg callback.Config
		flowCfg     authflow.Config
		httpCfg     httpserver.Config
	)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&idpCfg)
	config.MustLoad(&authzCfg)
	config.MustLoad(&callbackCfg)
	config.MustLoad(&flowCfg)
	config.MustLoad(&httpCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, migrations.FS, log); err != nil {
		return err
	}

	redisClient, err := rds.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	flows := flowstate.NewRedisStore(redisClient)
	provider := idp.NewFactory(idpCfg, flows, idp.WithLogger(log)).Client()

	auditStorage := audit.NewPgStorage(pool)
	recorder := audit.NewRecorder(auditStorage, audit.WithLogger(log))
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := recorder.Close(closeCtx); err != nil {
			log.Error("audit recorder close failed", logger.Error(err))
		}
	}()

	evaluator := authz.NewEvaluator(authzCfg)

	svc := authflow.NewService(
		flowCfg,
		provider,
		session.NewResolver(provider, session.WithLogger(log)),
		callback.NewReconciler(provider, flows, callbackCfg, callback.WithLogger(log)),
		profile.NewSynchronizer(profile.NewPgStore(pool), provider,
			profile.WithAuditRecorder(recorder), profile.WithLogger(log)),
		evaluator,
		recorder,
		authflow.WithAuditReader(audit.NewReader(auditStorage, evaluator)),
		authflow.WithLogger(log),
	)

	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Get("/healthz", httpserver.HealthCheckHandler(log))
	r.Get("/readyz", httpserver.HealthCheckHandler(log,
		pg.Healthcheck(pool), rds.Healthcheck(redisClient)))
	r.Mount("/auth", svc.Handle())

	return httpserver.New(httpCfg, httpserver.WithLogger(log)).Run(ctx, r)
}
