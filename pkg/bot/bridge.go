package bot

import (
	"context"

	"go.uber.org/zap"

	"github.com/jirwin/slackbridge/pkg/actions"
	"github.com/jirwin/slackbridge/pkg/data_store"
	"github.com/jirwin/slackbridge/pkg/event_monitor"
	"github.com/jirwin/slackbridge/pkg/slack_manager"
	"github.com/jirwin/slackbridge/pkg/webhook_manager"
)

type Config struct{}

func NewConfig() (Config, error) {
	return Config{}, nil
}

// BridgeBot ties the inbound and outbound halves together: the webhook
// server and event monitor feed handlers, the action dispatcher carries
// their responses back to Slack.
type BridgeBot struct {
	l              *zap.Logger
	slackManager   slack_manager.Manager
	eventMonitor   event_monitor.Manager
	webhookManager webhook_manager.Manager
	c              Config
	dataStore      data_store.DataStore
	actions        actions.Dispatcher

	ctx    context.Context
	cancel context.CancelFunc
}

func (b *BridgeBot) Start(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)

	go b.webhookManager.Run(b.ctx)
	go b.eventMonitor.Run(b.ctx)

	err := b.slackManager.Start(b.ctx)
	if err != nil {
		b.l.Error("error initializing slack", zap.Error(err))
		return err
	}

	return nil
}

func (b *BridgeBot) Stop() {
	b.cancel()
	b.dataStore.Close()
}

func (b *BridgeBot) RegisterHandler(h interface{}) error {
	return b.eventMonitor.Register(h)
}

// Actions exposes the outbound dispatcher for callers that drive Slack
// without going through a registered handler.
func (b *BridgeBot) Actions() actions.Dispatcher {
	return b.actions
}

func New(
	c Config,
	l *zap.Logger,
	slackManager slack_manager.Manager,
	eventMonitor event_monitor.Manager,
	webhookManager webhook_manager.Manager,
	dataStore data_store.DataStore,
	dispatcher actions.Dispatcher,
) (*BridgeBot, error) {
	b := &BridgeBot{
		c:              c,
		l:              l.Named("bridge-bot"),
		slackManager:   slackManager,
		eventMonitor:   eventMonitor,
		webhookManager: webhookManager,
		dataStore:      dataStore,
		actions:        dispatcher,
	}

	return b, nil
}
