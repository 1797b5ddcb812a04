package main

import (
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/oleksandr-ch/measurement-chain/cmd"
)

func main() {
	app := &cli.App{
		Name:  "measurement-chain",
		Usage: "tamper-evident sensor measurement ledger",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the measurement service",
				Action: cmd.ServeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "database-url",
						EnvVars:  []string{"DATABASE_URL"},
						Required: true,
					},
					&cli.StringFlag{
						Name:     "migrations-folder",
						EnvVars:  []string{"MIGRATIONS_FOLDER"},
						Value:    "./migrations",
						Required: false,
					},
					&cli.StringFlag{
						Name:    "listen-addr",
						EnvVars: []string{"LISTEN_ADDR"},
						Value:   "0.0.0.0:8000",
					},
					&cli.StringFlag{
						Name:    "api-secret",
						EnvVars: []string{"API_SECRET"},
						Value:   "",
					},
					&cli.StringFlag{
						Name:    "verify-schedule",
						EnvVars: []string{"VERIFY_SCHEDULE"},
						Value:   "@every 1h",
					},
					&cli.StringFlag{
						Name:    "log-level",
						EnvVars: []string{"LOG_LEVEL"},
						Value:   "INFO",
					},
				},
			},
			{
				Name:   "emulate",
				Usage:  "post randomized sensor readings to a running service",
				Action: cmd.EmulateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						EnvVars: []string{"API_URL"},
						Value:   "http://localhost:8000",
					},
					&cli.IntFlag{
						Name:  "cycles",
						Value: 5,
					},
					&cli.DurationFlag{
						Name:  "delay",
						Value: time.Second,
					},
				},
			},
			{
				Name:   "generate-key",
				Usage:  "generate a PEM submitting key for the ledger gateway",
				Action: cmd.GenerateKeyCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Value: "ledger-key.pem",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
