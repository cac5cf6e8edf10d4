package realtime

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/bods-client/pkg/config"
	"github.com/travigo/bods-client/pkg/redis_client"
	"github.com/travigo/bods-client/pkg/vehiclestore"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "realtime",
		Usage: "Consume the realtime queue filled by siri-vm --publish",
		Subcommands: []*cli.Command{
			{
				Name:  "consume",
				Usage: "Archive queued vehicle activities into SQLite",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "archive-path", Usage: "SQLite file, defaults to archive.path from the config"},
				},
				Action: func(c *cli.Context) error {
					if err := connectRedis(config.Current); err != nil {
						return err
					}

					archivePath := c.String("archive-path")
					if archivePath == "" {
						archivePath = config.Current.Archive.Path
					}

					store, err := vehiclestore.Open(archivePath)
					if err != nil {
						return err
					}
					defer store.Close()

					if err := StartConsumers(redis_client.QueueConnection, store); err != nil {
						return err
					}

					waitForSignal()

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					return nil
				},
			},
			{
				Name:  "cleaner",
				Usage: "Run the queue cleaner for the realtime queue",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "interval", Value: 5 * time.Minute, Usage: "How often to clean"},
				},
				Action: func(c *cli.Context) error {
					if err := connectRedis(config.Current); err != nil {
						return err
					}
					defer redis_client.Close()

					go StartCleaner(c.Context, redis_client.QueueConnection, c.Duration("interval"))

					waitForSignal()

					return nil
				},
			},
		},
	}
}

func connectRedis(cfg *config.Config) error {
	if !cfg.Redis.Enabled() {
		return errors.New("the realtime queue needs a Redis address, set BODS_REDIS_ADDRESS")
	}

	return redis_client.Connect(cfg.Redis)
}

func waitForSignal() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	<-signals // wait for signal
	go func() {
		<-signals // hard exit on second signal (in case shutdown gets stuck)
		os.Exit(1)
	}()

	log.Info().Msg("Shutting down")
}
