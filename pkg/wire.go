//go:build wireinject
// +build wireinject

package slackbridge

import (
	"github.com/google/wire"

	"github.com/jirwin/slackbridge/pkg/actions"
	"github.com/jirwin/slackbridge/pkg/bot"
	"github.com/jirwin/slackbridge/pkg/data_store"
	"github.com/jirwin/slackbridge/pkg/data_store/boltdb"
	"github.com/jirwin/slackbridge/pkg/event_monitor"
	"github.com/jirwin/slackbridge/pkg/media"
	"github.com/jirwin/slackbridge/pkg/slack_manager"
	"github.com/jirwin/slackbridge/pkg/slack_manager/client"
	"github.com/jirwin/slackbridge/pkg/uzap"
	"github.com/jirwin/slackbridge/pkg/webhook_manager"
)

func NewBridge() (*bot.BridgeBot, error) {
	wire.Build(
		uzap.Wired,

		client.Wired,
		wire.Bind(new(client.SlackClient), new(*client.SlackClientImpl)),

		boltdb.Wired,
		wire.Bind(new(data_store.DataStore), new(*boltdb.BoltDbStore)),

		slack_manager.Wired,
		wire.Bind(new(slack_manager.Manager), new(*slack_manager.ManagerImpl)),

		media.Wired,
		wire.Bind(new(media.Resolver), new(*media.ResolverImpl)),

		actions.Wired,
		wire.Bind(new(actions.Dispatcher), new(*actions.DispatcherImpl)),

		webhook_manager.Wired,
		wire.Bind(new(webhook_manager.Manager), new(*webhook_manager.ManagerImpl)),

		event_monitor.Wired,
		wire.Bind(new(event_monitor.Manager), new(*event_monitor.ManagerImpl)),

		bot.Wired,
	)
	return nil, nil
}
