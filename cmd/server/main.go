package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"direct-messaging/backend/internal/audit"
	auditrepo "direct-messaging/backend/internal/audit/repository"
	"direct-messaging/backend/internal/config"
	convrepo "direct-messaging/backend/internal/conversation/repository"
	convsvc "direct-messaging/backend/internal/conversation/service"
	"direct-messaging/backend/internal/db"
	"direct-messaging/backend/internal/health"
	identitysvc "direct-messaging/backend/internal/identity/service"
	"direct-messaging/backend/internal/logging"
	msgrepo "direct-messaging/backend/internal/message/repository"
	msgsvc "direct-messaging/backend/internal/message/service"
	"direct-messaging/backend/internal/policy/engine"
	"direct-messaging/backend/internal/security"
	"direct-messaging/backend/internal/server"
	"direct-messaging/backend/internal/server/interceptors"
	"direct-messaging/backend/internal/server/middleware"
	"direct-messaging/backend/internal/session"
	"direct-messaging/backend/internal/telemetry"
	telemetryotel "direct-messaging/backend/internal/telemetry/otel"
	userrepo "direct-messaging/backend/internal/user/repository"
	usersvc "direct-messaging/backend/internal/user/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, cfg.OTelServiceName, cfg.OTLPInsecure)
	if err != nil {
		log.Fatal().Err(err).Msg("otel")
	}
	providers.SetGlobal()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer conn.Close()

	codec, err := security.NewTokenCodec(cfg.SessionSecret, cfg.SessionIssuer, cfg.SessionTTL())
	if err != nil {
		log.Fatal().Err(err).Msg("token codec")
	}
	policy, err := engine.NewRoutePolicy(ctx, server.RouteTable(cfg.LoginPath, cfg.ProtectedPrefixList()))
	if err != nil {
		log.Fatal().Err(err).Msg("route policy")
	}

	recorder, err := telemetry.NewRecorder(providers.MeterProvider, telemetryotel.NewEventEmitter(providers.LoggerProvider))
	if err != nil {
		log.Fatal().Err(err).Msg("telemetry recorder")
	}
	audits := auditrepo.NewPostgresRepository(conn)
	auditLogger := audit.NewLogger(audits, middleware.ClientIP)

	users := userrepo.NewPostgresRepository(conn)
	messages := msgrepo.NewPostgresRepository(conn)
	directory := usersvc.NewDirectory(users, security.NewHasher(cfg.BcryptCost))
	resolver := convsvc.NewResolver(convrepo.NewPostgresRepository(conn), auditLogger, recorder)
	ledger := msgsvc.NewLedger(messages, resolver, auditLogger, recorder)
	aggregator := msgsvc.NewAggregator(messages)
	checker := health.NewChecker(conn, policy)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler, err := server.NewHTTPHandler(server.HTTPDeps{
		Auth:       identitysvc.NewAuthService(directory, codec, auditLogger),
		Verifier:   codec,
		Classifier: policy,
		Gate: middleware.GateConfig{
			Cookie: session.CookieConfig{
				Name:     cfg.CookieName,
				Path:     "/",
				Domain:   cfg.CookieDomain,
				Secure:   cfg.CookieSecure,
				HTTPOnly: cfg.CookieHTTPOnly,
				SameSite: cfg.SameSite(),
				MaxAge:   codec.TTL(),
			},
			LoginPath: cfg.LoginPath,
			HomePath:  cfg.HomePath,
		},
		Contacts:       directory,
		Resolver:       resolver,
		Ledger:         ledger,
		Aggregator:     aggregator,
		Health:         checker,
		Activity:       audits,
		Registry:       reg,
		RequestTimeout: cfg.RequestTimeout(),
		LoginRateRPS:   cfg.LoginRateRPS,
		LoginRateBurst: cfg.LoginRateBurst,
		CORSOrigins:    cfg.CORSOrigins(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("http handler")
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http serve")
		}
	}()

	var grpcSrv *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("grpc listen")
		}
		grpcSrv = grpc.NewServer(
			grpc.StatsHandler(otelgrpc.NewServerHandler()),
			grpc.ChainUnaryInterceptor(interceptors.LoggingUnary(map[string]bool{
				"/grpc.health.v1.Health/Check": true,
			})),
		)
		server.RegisterServices(grpcSrv, server.GRPCDeps{Health: checker})
		go func() {
			log.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC server listening")
			if err := grpcSrv.Serve(lis); err != nil {
				log.Fatal().Err(err).Msg("grpc serve")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("stopped")
}
