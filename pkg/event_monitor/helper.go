package event_monitor

import (
	"fmt"
	"syscall"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/jirwin/slackbridge/pkg/actions"
	"github.com/jirwin/slackbridge/pkg/data_store/boltdb"
	"github.com/jirwin/slackbridge/pkg/slack_manager"
)

// Helper is handed to handlers with every message. It embeds the full
// action surface and adds handler-scoped storage plus lookups against the
// cached workspace state.
type Helper struct {
	actions.Dispatcher

	l            *zap.Logger
	handlerID    string
	slackManager slack_manager.Manager
	store        boltdb.Store
}

func (h *Helper) StopBot() {
	syscall.Kill(syscall.Getpid(), syscall.SIGINT) //nolint:errcheck
}

// Store returns the handler's private key/value bucket.
func (h *Helper) Store() boltdb.Store {
	return h.store
}

// Respond replies in the channel the message came from, highlighting the
// message's author.
func (h *Helper) Respond(msg *slack.Msg, resp string) {
	h.slackManager.Slack().Respond(msg, resp)
}

// Say sends a message to the provided channel.
func (h *Helper) Say(channel string, resp string) {
	h.slackManager.Slack().Say(channel, resp)
}

func (h *Helper) GetUser(userID string) (slack.User, error) {
	return h.slackManager.GetUser(userID)
}

func (h *Helper) GetUserName(userID string) (string, error) {
	return h.slackManager.GetUserName(userID)
}

func (h *Helper) GetChannel(chanID string) (slack.Channel, error) {
	return h.slackManager.GetChannel(chanID)
}

func (h *Helper) GetChannelId(channelName string) (string, error) {
	return h.slackManager.GetChannelId(channelName)
}

// GetBotId returns the bot id of the running session.
func (h *Helper) GetBotId() string {
	return h.slackManager.GetBotId()
}

// RespondToSlashCommand posts a command response to the provided
// response_url.
func (h *Helper) RespondToSlashCommand(url string, cmdResp *CommandResp) error {
	err := respondToSlashCommand(url, cmdResp)
	if err != nil {
		h.l.Error("error responding to slash command", zap.Error(err))
		return err
	}
	return nil
}

func NewHelper(handlerID string, l *zap.Logger, slackManager slack_manager.Manager, dispatcher actions.Dispatcher, store boltdb.Store) *Helper {
	h := &Helper{
		Dispatcher:   dispatcher,
		l:            l.Named(fmt.Sprintf("helper-%s", handlerID)),
		handlerID:    handlerID,
		slackManager: slackManager,
		store:        store,
	}

	return h
}
