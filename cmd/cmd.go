package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photo-social-backend/internal/config"
	"photo-social-backend/internal/handlers"
	"photo-social-backend/internal/identity"
	"photo-social-backend/internal/observability"
	"photo-social-backend/internal/repository"
	"photo-social-backend/internal/services"
	"photo-social-backend/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.Log.Level)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		Enabled:      cfg.Tracing.Enabled,
		SamplerRatio: cfg.Tracing.SamplerRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracing")
	}

	ctx := context.Background()

	store, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open document store")
	}
	defer store.Close()

	// Identity registry; without Redis tokens are trusted until expiry
	var registry *identity.Registry
	if cfg.Redis.Addr != "" {
		client, err := identity.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer client.Close()
		registry = identity.NewRegistry(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Identity registry connected")
	} else {
		log.Warn().Msg("Redis not configured, identity registry disabled")
	}

	resolver, s3Store, err := setupStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up blob storage")
	}

	// Services
	batches := services.NewBatchDeleter(store, cfg.Eviction.BatchSize, cfg.Eviction.MaxLoops, cfg.Eviction.Pause)
	wsHub := services.NewWSHub()

	var identities services.IdentityRegistry
	accountDeps := services.AccountDeps{
		Store:    store,
		Blobs:    resolver,
		Batches:  batches,
		Sessions: wsHub,
	}
	if registry != nil {
		identities = registry
		accountDeps.Identity = registry
	}

	userService := services.NewUserService(repository.NewUserRepository(store), identities, cfg.JWT.Secret)
	accountService := services.NewAccountService(accountDeps, cfg.Eviction.PhotoConcurrency)
	cleanupService := services.NewCleanupService(store, resolver, batches,
		services.WithRetentionDays(cfg.Cleanup.RetentionDays),
		services.WithChunkSize(cfg.Cleanup.ChunkSize),
	)
	inviteService := services.NewInviteService(s3Store, "")
	linkService := services.NewShortLinkService(repository.NewShortLinkRepository(store), inviteService, services.LinkOptions{
		BaseURL:      cfg.Links.BaseURL,
		FallbackURL:  cfg.Links.FallbackURL,
		AppScheme:    cfg.Links.AppScheme,
		DefaultImage: cfg.Links.DefaultImg,
	})

	var scheduler *services.Scheduler
	if cfg.Cleanup.Enabled {
		location, _ := time.LoadLocation(cfg.Cleanup.Timezone)
		scheduler, err = services.NewScheduler(cleanupService, cfg.Cleanup.Schedule, location, cfg.Eviction.Timeout)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create scheduler")
		}
		scheduler.Start()
	}

	router := handlers.NewRouter(handlers.Router{
		Auth:      userService,
		Users:     handlers.NewUserHandler(userService),
		Accounts:  handlers.NewAccountHandler(accountService, cleanupService, cfg.Eviction.Timeout),
		Links:     handlers.NewLinkHandler(linkService, inviteService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, userService),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("driver", cfg.Database.Driver).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to flush traces")
	}

	log.Info().Msg("Server exited")
}

// setupStorage builds the primary S3 store, the optional secondary store and
// the resolver that dispatches blob URLs between them.
func setupStorage(ctx context.Context, cfg *config.Config) (*storage.Resolver, *storage.S3Store, error) {
	var prefix string
	if len(cfg.AWS.PublicURLPrefixes) > 0 {
		prefix = cfg.AWS.PublicURLPrefixes[0]
	}

	s3Store, err := storage.NewS3Store(ctx, storage.S3Options{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKey:       cfg.AWS.AccessKey,
		SecretKey:       cfg.AWS.SecretKey,
		Endpoint:        cfg.AWS.Endpoint,
		PublicURLPrefix: prefix,
	})
	if err != nil {
		return nil, nil, err
	}

	var secondary storage.BucketRemover
	if cfg.SecondaryStorage.Enabled {
		minioStore, err := storage.NewMinIOStore(storage.MinIOOptions{
			Endpoint:  cfg.SecondaryStorage.Endpoint,
			AccessKey: cfg.SecondaryStorage.AccessKey,
			SecretKey: cfg.SecondaryStorage.SecretKey,
			Region:    cfg.SecondaryStorage.Region,
			UseSSL:    cfg.SecondaryStorage.UseSSL,
		})
		if err != nil {
			return nil, nil, err
		}
		secondary = minioStore
		log.Info().Str("endpoint", cfg.SecondaryStorage.Endpoint).Msg("Secondary blob backend enabled")
	} else {
		log.Info().Msg("Secondary blob backend disabled")
	}

	resolver := storage.NewResolver(s3Store, cfg.AWS.PublicURLPrefixes, secondary, cfg.SecondaryStorage.PathMarker)
	return resolver, s3Store, nil
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
