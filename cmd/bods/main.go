package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/travigo/bods-client/pkg/bods"
	"github.com/travigo/bods-client/pkg/config"
	"github.com/travigo/bods-client/pkg/logging"
	"github.com/travigo/bods-client/pkg/realtime"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	logCloser := logging.Setup(config.Current.Logging, os.Stderr)

	app := &cli.App{
		Name:        "bods",
		Usage:       "Client for the Bus Open Data Service API",
		Description: "Query timetable and fares datasets, fetch the GTFS-RT and SIRI-VM vehicle feeds, and archive or queue vehicle activities",

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"BODS_CONFIG"},
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			config.Current = cfg

			logCloser.Close()
			logCloser = logging.Setup(cfg.Logging, os.Stderr)

			return nil
		},
		After: func(c *cli.Context) error {
			return logCloser.Close()
		},

		Commands: append(bods.RegisterCLI(), realtime.RegisterCLI()),
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
