package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/urfave/cli"

	slackbridge "github.com/jirwin/slackbridge/pkg"
	"github.com/jirwin/slackbridge/pkg/handlers/echo"
	"github.com/jirwin/slackbridge/pkg/handlers/eslogs"
)

const Version = "0.1.0"

func run(c *cli.Context) error {
	if !c.IsSet("api-key") {
		cli.ShowAppHelp(c)
		return cli.NewExitError("Missing --api-key arg.", 1)
	}

	if !c.IsSet("signing-secret") {
		cli.ShowAppHelp(c)
		return cli.NewExitError("Missing --signing-secret arg.", 1)
	}

	// The bridge reads its configuration from the environment, so flags
	// are exported before wiring it up.
	os.Setenv("SLACK_API_KEY", c.String("api-key"))
	os.Setenv("SLACK_SIGNING_SECRET", c.String("signing-secret"))
	os.Setenv("SLACKBRIDGE_LISTEN_ADDR", c.String("listen-addr"))
	os.Setenv("SLACKBRIDGE_DB_PATH", c.String("db-path"))

	if c.IsSet("app-id") {
		os.Setenv("SLACK_APP_ID", c.String("app-id"))
	}

	if c.IsSet("team-id") {
		os.Setenv("SLACK_TEAM_ID", c.String("team-id"))
	}

	if c.IsSet("media-dir") {
		os.Setenv("SLACKBRIDGE_MEDIA_DIR", c.String("media-dir"))
	}

	bridge, err := slackbridge.NewBridge()
	if err != nil {
		zap.L().Error("error creating bridge", zap.Error(err))
		return nil
	}

	err = bridge.Start(context.Background())
	if err != nil {
		zap.L().Error("error starting bridge", zap.Error(err))
		return nil
	}

	err = bridge.RegisterHandler(echo.Register())
	if err != nil {
		fmt.Printf("error registering echo handler: %s\n", err.Error())
		return nil
	}

	if c.IsSet("es-endpoint") {
		esLogs, err := eslogs.Register(c.String("es-endpoint"), c.String("es-index"))
		if err != nil {
			fmt.Printf("error creating eslogs handler: %s\n", err.Error())
			return nil
		}

		err = bridge.RegisterHandler(esLogs)
		if err != nil {
			fmt.Printf("error registering eslogs handler: %s\n", err.Error())
			return nil
		}
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)

	<-signals
	bridge.Stop()

	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "slackbridge"
	app.Version = Version
	app.Usage = "bridge a chat agent into slack"
	app.Action = run
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "api-key",
			Usage:  "The slack bot api token",
			EnvVar: "SLACK_API_KEY",
		},
		cli.StringFlag{
			Name:   "signing-secret",
			Usage:  "The slack app signing secret used to validate webhooks.",
			EnvVar: "SLACK_SIGNING_SECRET",
		},
		cli.StringFlag{
			Name:   "app-id",
			Usage:  "Only accept events addressed to this slack app.",
			EnvVar: "SLACK_APP_ID",
		},
		cli.StringFlag{
			Name:   "team-id",
			Usage:  "Only accept events addressed to this slack workspace.",
			EnvVar: "SLACK_TEAM_ID",
		},
		cli.StringFlag{
			Name:   "listen-addr",
			Usage:  "The address the webhook server listens on.",
			Value:  "0.0.0.0:8000",
			EnvVar: "SLACKBRIDGE_LISTEN_ADDR",
		},
		cli.StringFlag{
			Name:   "db-path",
			Usage:  "The path where the database is stored.",
			Value:  "slackbridge.db",
			EnvVar: "SLACKBRIDGE_DB_PATH",
		},
		cli.StringFlag{
			Name:   "media-dir",
			Usage:  "The directory downloaded files are stored in.",
			EnvVar: "SLACKBRIDGE_MEDIA_DIR",
		},
		cli.StringFlag{
			Name:   "es-endpoint",
			Usage:  "An elasticsearch endpoint to archive messages to.",
			EnvVar: "SLACKBRIDGE_ES_ENDPOINT",
		},
		cli.StringFlag{
			Name:   "es-index",
			Usage:  "The elasticsearch index messages are archived to.",
			Value:  "slack-archive",
			EnvVar: "SLACKBRIDGE_ES_INDEX",
		},
	}

	app.Run(os.Args)
}
