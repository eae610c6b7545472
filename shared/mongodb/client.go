package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	ErrFailedToConnect   = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed = errors.New("mongo healthcheck failed")
)

// Config represents the configuration for the database.
type Config struct {
	URI             string        `env:"MONGODB_URI"                envDefault:"mongodb://localhost:27017"`
	Database        string        `env:"MONGODB_DATABASE"           envDefault:"social"`
	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT"    envDefault:"10s"`
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE"      envDefault:"100"`
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE"      envDefault:"1"`
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s"`
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS"     envDefault:"3"`
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL"     envDefault:"5s"`
}

// Connect creates a mongo client and waits for the server to answer a ping.
// It retries up to RetryAttempts times, giving up early if ctx is done.
func Connect(ctx context.Context, logger *zerolog.Logger, cfg Config) (*mongo.Client, error) {
	attempts := max(cfg.RetryAttempts, 1)

	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.URI).
				SetConnectTimeout(cfg.ConnectTimeout).
				SetMaxPoolSize(cfg.MaxPoolSize).
				SetMinPoolSize(cfg.MinPoolSize).
				SetMaxConnIdleTime(cfg.MaxConnIdleTime),
		)
		if err == nil {
			if err = client.Ping(ctx, nil); err == nil {
				return client, nil
			}
			_ = client.Disconnect(ctx)
		}

		logger.Warn().Err(err).Int("attempt", attempt).Msg("mongo connection attempt failed")

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToConnect, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrFailedToConnect
}

// Healthcheck returns a function that pings the server, for readiness endpoints.
func Healthcheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx, nil); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
