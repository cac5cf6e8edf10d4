package redis_client

import (
	"context"

	"github.com/adjust/rmq/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/bods-client/pkg/config"
)

const queueConnectionTag = "bods-client"

var Client *redis.Client
var QueueConnection rmq.Connection

// Connect opens the shared Redis client and the rmq connection on top of it.
func Connect(cfg config.RedisConfig) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return err
	}

	errChan := make(chan error, 10)

	queueConnection, err := rmq.OpenConnectionWithRedisClient(queueConnectionTag, client, errChan)
	if err != nil {
		client.Close()
		return err
	}

	go logQueueErrors(errChan)

	Client = client
	QueueConnection = queueConnection

	log.Debug().Str("address", cfg.Address).Int("database", cfg.Database).Msg("Connected to Redis")

	return nil
}

func logQueueErrors(errChan <-chan error) {
	for err := range errChan {
		log.Error().Err(err).Msg("Redis queue error")
	}
}

func Close() error {
	if QueueConnection != nil {
		<-QueueConnection.StopAllConsuming()
		QueueConnection = nil
	}
	if Client != nil {
		err := Client.Close()
		Client = nil
		return err
	}

	return nil
}
