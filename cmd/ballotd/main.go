package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/biometric"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/config"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/events"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/jwtsigner"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/notify"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/observability/logging"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/observability/metrics"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/ratelimit"
	impl "github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/service/impl"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/store"
	httpx "github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/transport/http"
)

func main() {
	cfg := config.Load()

	logger := logging.NewLogger(logging.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	metrics.MustRegister(cfg.ServiceName)

	if err := run(cfg, logger); err != nil {
		logger.Error("ballotd stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1) DB
	gdb, err := store.Open(store.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		return err
	}
	st := store.New(gdb)
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	// 2) Collaborators
	var closers []io.Closer

	var throttle ratelimit.Throttle
	rlCfg := ratelimit.Config{MaxFailures: cfg.AuthMaxFailures, FailureWindow: cfg.AuthFailureWindow}
	if cfg.RedisURL != "" {
		client, err := ratelimit.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		closers = append(closers, client)
		throttle = ratelimit.NewRedis(client, rlCfg)
	} else {
		logger.Warn("REDIS_URL not set, lock-out state is per process")
		throttle = ratelimit.NewMemory(rlCfg)
	}

	var notifier notify.Notifier = notify.LogNotifier{Logger: logger}
	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kn := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.NotifyTopic)
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.EventsTopic)
		closers = append(closers, kn, kp)
		notifier, publisher = kn, kp
	} else {
		logger.Warn("KAFKA_BROKERS not set, OTP codes are not delivered")
	}
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.Warn("close collaborator", "error", err)
			}
		}
	}()

	signer, err := jwtsigner.NewFromBase64(cfg.SessionSigningKey, cfg.SessionKeyID, cfg.Issuer)
	if err != nil {
		return err
	}
	if cfg.SessionSigningKey == "" {
		logger.Warn("SESSION_SIGNING_KEY not set, using an ephemeral key")
	}

	// 3) Services
	guard := impl.NewSessionGuard(st, signer, cfg.SessionTTL)
	broker := impl.NewAuthBroker(st, guard, throttle, notifier, publisher,
		biometric.NewVerifier(cfg.RPID, cfg.RPOrigins),
		impl.BrokerConfig{
			OTPTTL:                    cfg.OTPTTL,
			OTPCooldown:               cfg.OTPCooldown,
			OTPPepper:                 []byte(cfg.OTPPepper),
			BiometricTimeout:          cfg.BiometricTimeout,
			RPID:                      cfg.RPID,
			AllowUnverifiedEnrollment: cfg.AllowUnverifiedEnrollment,
		})

	// 4) HTTP
	handler := httpx.NewRouter(httpx.Deps{
		Registry:  impl.NewVoterRegistry(st, publisher),
		Broker:    broker,
		Catalog:   impl.NewBallotCatalog(st),
		Committer: impl.NewBallotCommitter(st, guard, publisher, cfg.CommitTimeout),
		Signer:    signer,
		Ready:     st.Ping,
	}, httpx.Options{
		CORSOrigins:    cfg.CORSOrigins,
		IPRateLimit:    cfg.IPRateLimit,
		HandlerTimeout: cfg.HandlerTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("ballotd listening", "addr", srv.Addr, "issuer", cfg.Issuer, "rp_id", cfg.RPID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
