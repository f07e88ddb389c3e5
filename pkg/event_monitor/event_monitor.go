package event_monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/jirwin/slackbridge/pkg/actions"
	"github.com/jirwin/slackbridge/pkg/data_store"
	"github.com/jirwin/slackbridge/pkg/slack_manager"
	"github.com/jirwin/slackbridge/pkg/webhook_manager"
)

type Config struct {
}

func NewConfig() (Config, error) {
	c := Config{}

	return c, nil
}

type Manager interface {
	Run(ctx context.Context)
	Register(h interface{}) error
	RespondToSlashCommand(url string, cmdResp *CommandResp) error
}

type ManagerImpl struct {
	c              Config
	l              *zap.Logger
	webhookManager webhook_manager.Manager
	slackManager   slack_manager.Manager
	dataStore      data_store.DataStore
	dispatcher     actions.Dispatcher

	commands      map[string]*registeredCommand
	webhooks      map[string]*registeredWebhook
	interactions  map[string]*registeredInteraction
	hooks         []*registeredHook
	reactionHooks []*registeredReactionHook

	cmdChannel         chan *slashCommand
	interactionChannel chan *slack.InteractionCallback

	seenMu     sync.Mutex
	seenEvents map[string]time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
}

func (m *ManagerImpl) Run(ctx context.Context) {
	m.ctx, m.cancel = context.WithCancel(ctx)
	defer m.cancel()

	m.running.Store(true)

	go m.handleEvents(m.ctx)

	m.webhookManager.RegisterRoute("/slack/event", m.handleSlackEvent, []string{"POST"}, true)
	m.webhookManager.RegisterRoute("/slack/command", m.handleSlackCommand, []string{"POST"}, true)
	m.webhookManager.RegisterRoute("/slack/interaction", m.handleSlackInteraction, []string{"POST"}, true)
	m.webhookManager.RegisterRoute("/slack/webhook/{webhook-name}", m.handleCustomWebhook, []string{"GET", "POST", "DELETE", "PUT"}, false)
	m.l.Info("running event monitor")

	<-m.ctx.Done()
	m.running.Store(false)
}

func (m *ManagerImpl) handleEvents(ctx context.Context) {
	for {
		select {
		// Slash Command
		case slashCmd := <-m.cmdChannel:
			m.l.Info("dispatching slash command", zap.String("command", slashCmd.Command))
			m.dispatchCommand(slashCmd)

		// Interaction
		case ic := <-m.interactionChannel:
			m.dispatchInteraction(ic)

		case <-ctx.Done():
			return
		}
	}
}

// Register registers the given handler with the monitor. The handler may
// implement any combination of the capability interfaces.
func (m *ManagerImpl) Register(h interface{}) error {
	if !m.running.Load() {
		return fmt.Errorf("monitor must be running to register handlers")
	}
	if h == nil {
		return fmt.Errorf("invalid handler")
	}

	handler, ok := h.(Handler)
	if !ok {
		return errors.New("invalid handler")
	}

	if handler.GetID() == "" {
		return errors.New("handlers must provide a unique id")
	}

	err := m.dataStore.InitBucket(handler.GetID())
	if err != nil {
		return err
	}

	if lh, ok := handler.(LoadHandler); ok {
		err = lh.Load(m.helperFor(handler.GetID()))
		if err != nil {
			return err
		}
	}

	if ch, ok := handler.(CommandHandler); ok {
		for _, cmd := range ch.GetCommands() {
			_, ok := m.commands[cmd.GetName()]
			if ok {
				return fmt.Errorf("command already exists: %s", cmd.GetName())
			}

			m.l.Info("registering command", zap.String("command_name", cmd.GetName()), zap.String("handler_id", handler.GetID()))

			m.commands[cmd.GetName()] = &registeredCommand{
				HandlerID: handler.GetID(),
				Command:   cmd,
			}
			m.wg.Add(1)
			go func(c Command) {
				defer m.wg.Done()
				c.Run(m.ctx)
			}(cmd)
		}
	}

	if hh, ok := handler.(MessageHookHandler); ok {
		for _, hk := range hh.GetHooks() {
			m.hooks = append(m.hooks, &registeredHook{
				HandlerID: handler.GetID(),
				Hook:      hk,
			})

			m.l.Info("registering message hook", zap.String("handler_id", handler.GetID()))

			m.wg.Add(1)
			go func(h Hook) {
				defer m.wg.Done()

				h.Run(m.ctx)
			}(hk)
		}
	}

	if rh, ok := handler.(ReactionHookHandler); ok {
		for _, r := range rh.GetReactionHooks() {
			m.reactionHooks = append(m.reactionHooks, &registeredReactionHook{
				HandlerID:    handler.GetID(),
				ReactionHook: r,
			})

			m.l.Info("registering reaction hook", zap.String("handler_id", handler.GetID()))

			m.wg.Add(1)
			go func(r ReactionHook) {
				defer m.wg.Done()

				r.Run(m.ctx)
			}(r)
		}
	}

	if wh, ok := handler.(WebhookHandler); ok {
		for _, hook := range wh.GetWebhooks() {
			_, ok := m.webhooks[hook.GetName()]
			if ok {
				return fmt.Errorf("webhook already exists: %s", hook.GetName())
			}
			m.webhooks[hook.GetName()] = &registeredWebhook{
				HandlerID: handler.GetID(),
				Webhook:   hook,
			}
			m.l.Info("registering webhook", zap.String("webhook_name", hook.GetName()), zap.String("handler_id", handler.GetID()))

			m.wg.Add(1)
			go func(w Webhook) {
				defer m.wg.Done()

				w.Run(m.ctx)
			}(hook)
		}
	}

	if ih, ok := handler.(InteractionHandler); ok {
		for _, ic := range ih.GetInteractions() {
			_, ok := m.interactions[ic.GetName()]
			if ok {
				return fmt.Errorf("interaction already exists: %s", ic.GetName())
			}
			m.interactions[ic.GetName()] = &registeredInteraction{
				HandlerID:   handler.GetID(),
				Interaction: ic,
			}

			m.l.Info("registering interaction", zap.String("interaction_name", ic.GetName()), zap.String("handler_id", handler.GetID()))

			m.wg.Add(1)
			go func(i Interaction) {
				defer m.wg.Done()
				i.Run(m.ctx)
			}(ic)
		}
	}

	return nil
}

func (m *ManagerImpl) helperFor(handlerID string) *Helper {
	return NewHelper(handlerID, m.l, m.slackManager, m.dispatcher, m.dataStore.GetStore(handlerID))
}

func New(
	c Config,
	l *zap.Logger,
	slackManager slack_manager.Manager,
	webhookManager webhook_manager.Manager,
	dataStore data_store.DataStore,
	dispatcher actions.Dispatcher,
) (*ManagerImpl, error) {
	m := &ManagerImpl{
		c:              c,
		l:              l.Named("event-monitor"),
		slackManager:   slackManager,
		webhookManager: webhookManager,
		dataStore:      dataStore,
		dispatcher:     dispatcher,

		commands:     make(map[string]*registeredCommand),
		webhooks:     make(map[string]*registeredWebhook),
		interactions: make(map[string]*registeredInteraction),

		cmdChannel:         make(chan *slashCommand),
		interactionChannel: make(chan *slack.InteractionCallback),

		seenEvents: make(map[string]time.Time),
	}

	return m, nil
}
