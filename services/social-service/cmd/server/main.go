package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/config"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/handler"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/repository/memory"
	"github.com/vasapolrittideah/social-network-api/services/social-service/internal/usecase"
	"github.com/vasapolrittideah/social-network-api/shared/auth"
	"github.com/vasapolrittideah/social-network-api/shared/discovery"
	"github.com/vasapolrittideah/social-network-api/shared/interceptor"
	"github.com/vasapolrittideah/social-network-api/shared/logger"
	"github.com/vasapolrittideah/social-network-api/shared/mailer"
	"github.com/vasapolrittideah/social-network-api/shared/mongodb"
	"github.com/vasapolrittideah/social-network-api/shared/provider"
	"github.com/vasapolrittideah/social-network-api/shared/security"
	"github.com/vasapolrittideah/social-network-api/shared/utilities"
	"github.com/vasapolrittideah/social-network-api/shared/validation"
)

const serviceName = "social-service"

type repositories struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	health   handler.HealthCheck
	close    func(context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, log, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", string(cfg.StorageDriver)).Msg("failed to open storage")
	}
	defer func() {
		if err := repos.close(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to close storage")
		}
	}()

	issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		Secret:    cfg.Token.AccessTokenSecret,
		ExpiresIn: cfg.Token.AccessTokenExpiresIn,
		Issuer:    cfg.Token.Issuer,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create token issuer")
	}

	smtp, err := mailer.NewMailer(cfg.SMTP, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create mailer")
	}

	validator, err := validation.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create validator")
	}

	var oauth usecase.OAuthProvider
	if cfg.Google.Enabled() {
		oauth = provider.NewGoogleOAuthProvider(cfg.Google)
	} else {
		log.Warn().Msg("google sign-in disabled: client credentials not set")
	}

	hasher := security.DefaultPasswordHasher()
	usecases := handler.Usecases{
		Auth: usecase.NewAuthUsecase(repos.users, repos.sessions, hasher, issuer),
		PasswordReset: usecase.NewPasswordResetUsecase(repos.users, hasher, smtp, usecase.PasswordResetConfig{
			ResetURL:  cfg.AppPasswordResetURL,
			ExpiresIn: cfg.Token.PasswordResetTokenExpiresIn,
		}),
		Federated: usecase.NewFederatedUsecase(repos.users, repos.sessions, hasher, issuer, oauth),
		User:      usecase.NewUserUsecase(repos.users, repos.sessions, hasher),
		Post:      usecase.NewPostUsecase(repos.posts),
		Comment:   usecase.NewCommentUsecase(repos.comments, repos.posts),
	}

	httpServer := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: handler.NewHTTPHandler(handler.Config{
			FrontendURL:  cfg.FrontendURL,
			CookieName:   cfg.Session.CookieName,
			CookieSecure: cfg.Session.Secure,
			CookieDomain: cfg.Session.Domain,
		}, usecases, validator, repos.health, log),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		interceptor.NewJWTInterceptor(issuer, utilities.HealthCheckMethods),
	))
	utilities.RegisterHealthServer(grpcServer)
	handler.RegisterTokenServiceServer(grpcServer, handler.NewTokenGRPCHandler(log))

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
	if err != nil {
		log.Fatal().Err(err).Int("port", cfg.GRPC.Port).Msg("failed to listen")
	}

	if cfg.Discovery.Enabled() {
		registry, err := discovery.NewRegistry(cfg.Discovery, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create consul registry")
		}
		if err := registry.Register(cfg.GRPC.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to register service")
		}
		defer func() {
			if err := registry.Deregister(cfg.GRPC.Port); err != nil {
				log.Error().Err(err).Msg("failed to deregister service")
			}
		}()
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		log.Info().Int("port", cfg.GRPC.Port).Msg("grpc server started")
		if err := grpcServer.Serve(listener); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
	}
}

func openRepositories(ctx context.Context, log *zerolog.Logger, cfg *config.SocialServiceConfig) (*repositories, error) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Warn().Msg("using in-memory storage; data is lost on restart")

		return &repositories{
			users:    memory.NewUserRepository(),
			sessions: memory.NewSessionRepository(),
			posts:    memory.NewPostRepository(),
			comments: memory.NewCommentRepository(),
			health:   func(context.Context) error { return nil },
			close:    func(context.Context) error { return nil },
		}, nil
	}

	client, err := mongodb.Connect(ctx, log, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")

	db := client.Database(cfg.Mongo.Database)

	return &repositories{
		users:    repository.NewUserMongoRepository(ctx, log, db),
		sessions: repository.NewSessionMongoRepository(ctx, log, db),
		posts:    repository.NewPostMongoRepository(ctx, log, db),
		comments: repository.NewCommentMongoRepository(ctx, log, db),
		health:   mongodb.Healthcheck(client),
		close:    client.Disconnect,
	}, nil
}
