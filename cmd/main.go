package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"buzznest/cache"
	"buzznest/config"
	"buzznest/db"
	"buzznest/handler"
	"buzznest/interceptor"
	"buzznest/media"
	"buzznest/nats"
	"buzznest/pkg/jwt"
	"buzznest/publisher"
	"buzznest/repository"
	"buzznest/server"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg)

	db, err := database.NewConnection(database.Config{
		Driver:       cfg.Database.Driver,
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		DBName:       cfg.Database.DBName,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxLifetime:  cfg.Database.MaxLifetime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Str("driver", db.Driver()).Msg("Successfully connected to database")

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db.DB)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
		log.Info().Msg("Database schema is up to date")
	}

	checks := map[string]server.HealthCheck{"database": db.HealthCheck}

	// Counter cache
	var store cache.Store = cache.Noop{}
	if cfg.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err := cache.NewRedis(ctx, cache.Config{
			URL:      cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		store = redisClient
		checks["redis"] = redisClient.Ping
		log.Info().Msg("Connected to Redis")
	} else {
		log.Info().Msg("REDIS_URL not set, counter cache disabled")
	}

	// Event publishing
	var transport publisher.Transport
	var natsClient *nats.Client
	if cfg.NATS.URL != "" {
		natsClient, err = nats.NewClient(nats.Config{
			URL:           cfg.NATS.URL,
			MaxReconnects: 10,
			ReconnectWait: 2 * time.Second,
			ClientID:      cfg.NATS.ClientID,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		transport = natsClient
		checks["nats"] = func(context.Context) error {
			if !natsClient.Healthy() {
				return errors.New("nats connection is not established")
			}
			return nil
		}
	} else {
		log.Info().Msg("NATS_URL not set, event publishing disabled")
	}
	eventPublisher := publisher.NewEventPublisher(transport)

	uploader, mediaDir, err := newUploader(cfg.Media)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up media storage")
	}

	jwtManager := jwt.NewManager(cfg.JWTSecret, cfg.AccessTTL)

	// Repositories
	userRepo := repository.NewUserRepository(db.DB)
	postRepo := repository.NewPostRepository(db.DB, store, cfg.Redis.CacheTTL)
	commentRepo := repository.NewCommentRepository(db.DB)
	followRepo := repository.NewFollowRepository(db.DB, store, cfg.Redis.CacheTTL)

	api := server.New(server.Config{
		Auth:           handler.NewAuthHandler(userRepo, jwtManager, cfg.BcryptCost),
		Posts:          handler.NewPostHandler(postRepo, uploader, eventPublisher),
		Comment:        handler.NewCommentHandler(commentRepo, postRepo, eventPublisher),
		Follow:         handler.NewFollowHandler(followRepo, eventPublisher),
		Users:          handler.NewUserHandler(userRepo),
		Interceptor:    interceptor.NewAuthInterceptor(jwtManager, nil),
		Logger:         log.Logger,
		MaxUploadBytes: cfg.MaxUpload,
		MediaDir:       mediaDir,
		Health:         checks,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// gRPC health and reflection for probes
	listener, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Msgf("Failed to listen on port %s", cfg.GRPCPort)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		log.Info().Msgf("gRPC health server running on port %s", cfg.GRPCPort)
		if err := grpcServer.Serve(listener); err != nil {
			log.Fatal().Err(err).Msg("gRPC server error")
		}
	}()

	go func() {
		log.Info().Msgf("BuzzNest API running on port %s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down servers...")

	healthServer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server forced to shutdown")
	}
	grpcServer.GracefulStop()

	if natsClient != nil {
		if err := natsClient.Drain(5 * time.Second); err != nil {
			log.Warn().Err(err).Msg("Failed to drain NATS connection")
		}
		natsClient.Close()
	}

	log.Info().Msg("Server stopped cleanly")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", "buzznest").Logger()
}

// newUploader picks the media backend. The returned directory is non-empty
// only for the local backend, whose files the API serves under /media/.
func newUploader(cfg config.MediaConfig) (media.Uploader, string, error) {
	switch cfg.Backend {
	case "cloudinary":
		uploader, err := media.NewCloudinary(cfg.CloudName, cfg.CloudinaryKey, cfg.CloudinarySecret, cfg.CloudinaryFolder)
		if err != nil {
			return nil, "", err
		}
		log.Info().Str("folder", cfg.CloudinaryFolder).Msg("Uploading media to Cloudinary")
		return uploader, "", nil
	case "local":
		uploader, err := media.NewLocal(cfg.Dir, cfg.BaseURL)
		if err != nil {
			return nil, "", err
		}
		log.Info().Str("dir", uploader.Dir()).Msg("Storing media on local disk")
		return uploader, uploader.Dir(), nil
	default:
		return nil, "", fmt.Errorf("unknown media backend %q", cfg.Backend)
	}
}
