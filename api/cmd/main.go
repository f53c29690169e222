package main

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/getorbital/orbital/api/cmd/build/all"
	"github.com/getorbital/orbital/app/sdk/auth"
	"github.com/getorbital/orbital/app/sdk/mux"
	"github.com/getorbital/orbital/business/domain/permbus"
	"github.com/getorbital/orbital/business/domain/permbus/stores/permcache"
	"github.com/getorbital/orbital/business/domain/permbus/stores/permdb"
	"github.com/getorbital/orbital/business/domain/rolebus"
	"github.com/getorbital/orbital/business/domain/rolebus/stores/roledb"
	"github.com/getorbital/orbital/business/domain/sectionbus"
	"github.com/getorbital/orbital/business/domain/sectionbus/stores/sectiondb"
	"github.com/getorbital/orbital/business/domain/tenantbus"
	"github.com/getorbital/orbital/business/domain/tenantbus/stores/tenantcache"
	"github.com/getorbital/orbital/business/domain/tenantbus/stores/tenantdb"
	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/domain/userbus/stores/usercache"
	"github.com/getorbital/orbital/business/domain/userbus/stores/userdb"
	"github.com/getorbital/orbital/business/sdk/sqldb"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/sdk/unitofwork"
	"github.com/getorbital/orbital/foundation/keystore"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/getorbital/orbital/foundation/otel"
	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
)

var build = "develop"

type Config struct {
	Version struct {
		Build string `json:"build"`
		Desc  string `json:"desc"`
	} `json:"version"`

	Web struct {
		ReadTimeout        time.Duration `envconfig:"WEB_READ_TIMEOUT" default:"5s"`
		WriteTimeout       time.Duration `envconfig:"WEB_WRITE_TIMEOUT" default:"10s"`
		IdleTimeout        time.Duration `envconfig:"WEB_IDLE_TIMEOUT" default:"120s"`
		ShutdownTimeout    time.Duration `envconfig:"WEB_SHUTDOWN_TIMEOUT" default:"20s"`
		APIHost            string        `envconfig:"WEB_API_HOST" default:"0.0.0.0:3000"`
		DebugHost          string        `envconfig:"WEB_DEBUG_HOST" default:"0.0.0.0:3010"`
		CORSAllowedOrigins []string      `envconfig:"WEB_CORS_ALLOWED_ORIGINS" default:"*"`
	}
	Auth struct {
		KeysFolder string `envconfig:"AUTH_KEYS_FOLDER" default:"zarf/keys"`
		ActiveKID  string `envconfig:"AUTH_ACTIVE_KID" default:"54bb2165-71e1-41a6-af3e-7da4a0e1e2c1"`
		Issuer     string `envconfig:"AUTH_ISSUER" default:"https://getorbital.io/auth/"`
	}
	DB struct {
		User         string `envconfig:"DB_USER" default:"postgres"`
		Password     string `envconfig:"DB_PASSWORD" default:"postgres"`
		Host         string `envconfig:"DB_HOST" default:"localhost"`
		Name         string `envconfig:"DB_NAME" default:"orbital"`
		MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"0"`
		MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"0"`
		DisableTLS   bool   `envconfig:"DB_DISABLE_TLS" default:"true"`
	}
	Tenancy struct {
		Strategy        string `envconfig:"TENANCY_STRATEGY" default:"subdomain"`
		PathPrefix      string `envconfig:"TENANCY_PATH_PREFIX" default:"/tenant/"`
		DefaultTenantID string `envconfig:"TENANCY_DEFAULT_TENANT_ID" default:""`
		SystemFallback  bool   `envconfig:"TENANCY_SYSTEM_FALLBACK" default:"false"`
	}
	Tempo struct {
		Host        string  `envconfig:"TEMPO_HOST" default:"tempo:4317"`
		ServiceName string  `envconfig:"TEMPO_SERVICE_NAME" default:"ORBITAL"`
		Probability float64 `envconfig:"TEMPO_PROBABILITY" default:"0.05"`
		Enabled     bool    `envconfig:"TEMPO_ENABLED" default:"false"`
	}
}

func main() {
	var log *logger.Logger

	events := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			log.Info(ctx, "******* SEND ALERT *******")
		},
	}

	log = logger.NewWithEvents(os.Stdout, logger.LevelInfo, "ORBITAL", otel.GetTraceID, events)

	ctx := context.Background()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {

	// -------------------------------------------------------------------------
	// GOMAXPROCS

	log.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0))

	// -------------------------------------------------------------------------
	// Configuration

	var cfg Config

	cfg.Version.Build = build
	cfg.Version.Desc = "ORBITAL"

	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("processing config: %w", err)
	}

	log.Info(ctx, "startup", "version", cfg.Version)
	log.Info(ctx, "startup", "config", sanitizeConfig(cfg))

	// -------------------------------------------------------------------------
	// App Starting

	log.Info(ctx, "starting service", "version", cfg.Version.Build)
	defer log.Info(ctx, "shutdown complete")

	log.BuildInfo(ctx)

	expvar.NewString("build").Set(cfg.Version.Build)

	// -------------------------------------------------------------------------
	// Database Support

	log.Info(ctx, "startup", "status", "initializing database support", "hostport", cfg.DB.Host)

	db, err := sqldb.Open(sqldb.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		DisableTLS:   cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}

	defer db.Close()

	// -------------------------------------------------------------------------
	// Business Layer

	log.Info(ctx, "startup", "status", "initializing business layer")

	tenantBus := tenantbus.NewCore(log, tenantcache.NewStore(log, tenantdb.NewStore(log, db), time.Minute))
	userBus := userbus.NewCore(log, usercache.NewStore(log, userdb.NewStore(log, db), 5*time.Minute))
	roleBus := rolebus.NewCore(log, roledb.NewStore(log, db))

	permStore, err := permcache.NewStore(log, permdb.NewStore(log, db))
	if err != nil {
		return fmt.Errorf("building perm store: %w", err)
	}
	permBus := permbus.NewCore(log, userBus, roleBus, permStore)

	sectionBus := sectionbus.NewCore(log, sectiondb.NewStore(log, db))

	uow := unitofwork.NewFactory(unitofwork.Config{
		Log:        log,
		DB:         sqldb.NewBeginner(db),
		TenantBus:  tenantBus,
		UserBus:    userBus,
		RoleBus:    roleBus,
		PermBus:    permBus,
		SectionBus: sectionBus,
	})

	// -------------------------------------------------------------------------
	// Tenant Resolution

	strategy, err := tenancy.ParseStrategy(cfg.Tenancy.Strategy)
	if err != nil {
		return fmt.Errorf("parsing tenancy strategy: %w", err)
	}

	var defaultTenantID uuid.UUID
	if cfg.Tenancy.DefaultTenantID != "" {
		if defaultTenantID, err = uuid.Parse(cfg.Tenancy.DefaultTenantID); err != nil {
			return fmt.Errorf("parsing default tenant id: %w", err)
		}
	}

	resolver, err := tenancy.NewResolver(tenancy.Config{
		Log:             log,
		Lookup:          tenantBus,
		Strategy:        strategy,
		PathPrefix:      cfg.Tenancy.PathPrefix,
		DefaultTenantID: defaultTenantID,
		SystemFallback:  cfg.Tenancy.SystemFallback,
	})
	if err != nil {
		return fmt.Errorf("building resolver: %w", err)
	}

	// -------------------------------------------------------------------------
	// Auth Support

	log.Info(ctx, "startup", "status", "initializing authentication support")

	ks := keystore.New()

	if _, err := ks.LoadByFileSystem(os.DirFS(cfg.Auth.KeysFolder)); err != nil {
		return fmt.Errorf("loading keys: %w", err)
	}

	authClient := auth.New(auth.Config{
		Log:       log,
		UserBus:   userBus,
		KeyLookup: ks,
		Issuer:    cfg.Auth.Issuer,
	})

	// -------------------------------------------------------------------------
	// Start Tracing Support

	log.Info(ctx, "startup", "status", "initializing tracing support")

	traceProvider, teardown, err := otel.InitTracing(log, otel.Config{
		ServiceName: cfg.Tempo.ServiceName,
		Host:        cfg.Tempo.Host,
		ExcludedRoutes: map[string]struct{}{
			"/v1/liveness":  {},
			"/v1/readiness": {},
		},
		Probability: cfg.Tempo.Probability,
		Enabled:     cfg.Tempo.Enabled,
	})
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}

	defer teardown(context.Background())

	tracer := traceProvider.Tracer(cfg.Tempo.ServiceName)

	// -------------------------------------------------------------------------
	// Start Debug Service

	go func() {
		log.Info(ctx, "startup", "status", "debug router started", "host", cfg.Web.DebugHost)

		if err := http.ListenAndServe(cfg.Web.DebugHost, http.DefaultServeMux); err != nil {
			log.Error(ctx, "shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "err", err)
		}
	}()

	// -------------------------------------------------------------------------
	// Start API Service

	log.Info(ctx, "startup", "status", "initializing V1 API support")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	cfgMux := mux.Config{
		Build:  cfg.Version.Build,
		Log:    log,
		DB:     db,
		Tracer: tracer,
		BusConfig: mux.BusConfig{
			TenantBus:  tenantBus,
			UserBus:    userBus,
			RoleBus:    roleBus,
			PermBus:    permBus,
			SectionBus: sectionBus,
			UOW:        uow,
		},
		AuthConfig: mux.AuthConfig{
			Auth:      authClient,
			ActiveKID: cfg.Auth.ActiveKID,
		},
		Resolver: resolver,
	}

	webAPI := mux.WebAPI(cfgMux,
		all.Routes(),
		mux.WithCORS(cfg.Web.CORSAllowedOrigins),
	)

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      webAPI,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     logger.NewStdLogger(log, logger.LevelError),
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Info(ctx, "startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// -------------------------------------------------------------------------
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info(ctx, "shutdown", "status", "shutdown started", "signal", sig)
		defer log.Info(ctx, "shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(ctx, cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

func sanitizeConfig(cfg Config) string {
	cfg.DB.Password = "[MASKED]"

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Sprintf("%+v", cfg)
	}
	return string(data)
}
