package actions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/jirwin/slackbridge/pkg/media"
	"github.com/jirwin/slackbridge/pkg/slack_manager/client"
)

type Config struct {
}

func NewConfig() (Config, error) {
	c := Config{}

	return c, nil
}

// Dispatcher is the outbound surface the runtime drives. Every method maps
// to one Slack Web API call, plus DownloadFile which also stages bytes
// locally.
type Dispatcher interface {
	SendMessage(ctx context.Context, channelID, text string) (string, string, error)
	SendEphemeral(ctx context.Context, channelID, userID, text string) (string, error)
	UpdateMessage(ctx context.Context, channelID, ts, text string) (string, error)
	DeleteMessage(ctx context.Context, channelID, ts string) error
	AddReaction(ctx context.Context, channelID, ts, emoji string) error
	RemoveReaction(ctx context.Context, channelID, ts, emoji string) error
	PinMessage(ctx context.Context, channelID, ts string) error
	UnpinMessage(ctx context.Context, channelID, ts string) error
	MessageLog(ctx context.Context, channelID string, opts MessageLogOpts) ([]slack.Message, error)
	Message(ctx context.Context, channelID, ts string) (slack.Message, error)
	Replies(ctx context.Context, channelID, threadTS string) ([]slack.Message, error)
	Members(ctx context.Context, channelID string) ([]string, error)
	FileInfo(ctx context.Context, fileID string) (*slack.File, error)
	DownloadFile(ctx context.Context, req DownloadRequest) (*media.Item, error)
	OpenModal(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error)
}

type DispatcherImpl struct {
	c          Config
	l          *zap.Logger
	clientConf client.Config
	slack      client.SlackClient
	resolver   media.Resolver
}

func (d *DispatcherImpl) SendMessage(ctx context.Context, channelID, text string) (string, string, error) {
	if channelID == "" {
		return "", "", fmt.Errorf("channel is required")
	}
	if text == "" {
		return "", "", fmt.Errorf("text is required")
	}

	return d.slack.Api().PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
}

func (d *DispatcherImpl) SendEphemeral(ctx context.Context, channelID, userID, text string) (string, error) {
	if channelID == "" || userID == "" {
		return "", fmt.Errorf("channel and user are required")
	}

	return d.slack.Api().PostEphemeralContext(ctx, channelID, userID, slack.MsgOptionText(text, false))
}

func (d *DispatcherImpl) UpdateMessage(ctx context.Context, channelID, ts, text string) (string, error) {
	if channelID == "" || ts == "" {
		return "", fmt.Errorf("channel and ts are required")
	}

	_, newTs, _, err := d.slack.Api().UpdateMessageContext(ctx, channelID, ts, slack.MsgOptionText(text, false))
	if err != nil {
		return "", err
	}

	return newTs, nil
}

func (d *DispatcherImpl) DeleteMessage(ctx context.Context, channelID, ts string) error {
	if channelID == "" || ts == "" {
		return fmt.Errorf("channel and ts are required")
	}

	_, _, err := d.slack.Api().DeleteMessageContext(ctx, channelID, ts)
	return err
}

func (d *DispatcherImpl) AddReaction(ctx context.Context, channelID, ts, emoji string) error {
	name := emojiName(emoji)
	if name == "" {
		return fmt.Errorf("reaction name is required")
	}

	err := d.slack.Api().AddReactionContext(ctx, name, slack.NewRefToMessage(channelID, ts))
	return squelch(err, "already_reacted")
}

func (d *DispatcherImpl) RemoveReaction(ctx context.Context, channelID, ts, emoji string) error {
	name := emojiName(emoji)
	if name == "" {
		return fmt.Errorf("reaction name is required")
	}

	err := d.slack.Api().RemoveReactionContext(ctx, name, slack.NewRefToMessage(channelID, ts))
	return squelch(err, "no_reaction")
}

func (d *DispatcherImpl) PinMessage(ctx context.Context, channelID, ts string) error {
	if channelID == "" || ts == "" {
		return fmt.Errorf("channel and ts are required")
	}

	err := d.slack.Api().AddPinContext(ctx, channelID, slack.NewRefToMessage(channelID, ts))
	return squelch(err, "already_pinned")
}

func (d *DispatcherImpl) UnpinMessage(ctx context.Context, channelID, ts string) error {
	if channelID == "" || ts == "" {
		return fmt.Errorf("channel and ts are required")
	}

	err := d.slack.Api().RemovePinContext(ctx, channelID, slack.NewRefToMessage(channelID, ts))
	return squelch(err, "no_pin")
}

// MessageLogOpts configures what messages to retrieve from the API.
// IncludeBots: if true, include messages from bots
// Count: the max number of messages to return
// Period: the amount of time to look backwards when looking for messages
// SkipAttachments: if true, don't return messages carrying attachments
type MessageLogOpts struct {
	IncludeBots     bool
	Count           int
	Period          time.Duration
	SkipAttachments bool
}

func (d *DispatcherImpl) MessageLog(ctx context.Context, channelID string, opts MessageLogOpts) ([]slack.Message, error) {
	params := &slack.GetConversationHistoryParameters{}
	if opts.Count != 0 {
		params.Limit = opts.Count
	}
	if opts.Period != time.Duration(0) {
		oldest := time.Now().UTC().Add(-opts.Period).Unix()
		params.Oldest = fmt.Sprintf("%d.000000", oldest)
	}
	params.ChannelID = channelID

	history, err := d.slack.Api().GetConversationHistoryContext(ctx, params)
	if err != nil {
		return nil, err
	}

	msgs := []slack.Message{}
	for _, msg := range history.Messages {
		if !opts.IncludeBots && msg.SubType == "bot_message" {
			continue
		}

		if opts.SkipAttachments && len(msg.Attachments) != 0 {
			continue
		}

		if msg.SubType != "" {
			continue
		}

		msgs = append(msgs, msg)
	}

	return msgs, nil
}

func (d *DispatcherImpl) Message(ctx context.Context, channelID, ts string) (slack.Message, error) {
	params := &slack.GetConversationHistoryParameters{}
	params.Limit = 1
	params.Latest = ts
	params.Inclusive = true
	params.ChannelID = channelID

	history, err := d.slack.Api().GetConversationHistoryContext(ctx, params)
	if err != nil {
		return slack.Message{}, err
	}

	if len(history.Messages) != 1 {
		return slack.Message{}, fmt.Errorf("message %s not found in channel %s", ts, channelID)
	}

	return history.Messages[0], nil
}

func (d *DispatcherImpl) Replies(ctx context.Context, channelID, threadTS string) ([]slack.Message, error) {
	params := &slack.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadTS,
	}

	var all []slack.Message
	for {
		msgs, hasMore, nextCursor, err := d.slack.Api().GetConversationRepliesContext(ctx, params)
		if err != nil {
			return nil, err
		}
		all = append(all, msgs...)

		if !hasMore || nextCursor == "" {
			break
		}
		params.Cursor = nextCursor
	}

	return all, nil
}

func (d *DispatcherImpl) Members(ctx context.Context, channelID string) ([]string, error) {
	params := &slack.GetUsersInConversationParameters{ChannelID: channelID}

	var all []string
	for {
		members, nextCursor, err := d.slack.Api().GetUsersInConversationContext(ctx, params)
		if err != nil {
			return nil, err
		}
		all = append(all, members...)

		if nextCursor == "" {
			break
		}
		params.Cursor = nextCursor
	}

	return all, nil
}

func (d *DispatcherImpl) FileInfo(ctx context.Context, fileID string) (*slack.File, error) {
	file, _, _, err := d.slack.Api().GetFileInfoContext(ctx, fileID, 0, 0)
	if err != nil {
		return nil, err
	}

	return file, nil
}

func (d *DispatcherImpl) OpenModal(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error) {
	r, err := d.slack.Api().OpenViewContext(ctx, triggerID, view)
	if err != nil {
		d.l.Error("error opening view", zap.Error(err))
		return nil, err
	}

	return r, nil
}

// emojiName strips the colon wrapping Slack uses in message text. The
// reactions API wants the bare name.
func emojiName(emoji string) string {
	return strings.Trim(strings.TrimSpace(emoji), ":")
}

// squelch drops the error when Slack reports the operation was already
// done. Re-adding a reaction or re-pinning a message is not a failure.
func squelch(err error, code string) error {
	if err != nil && strings.Contains(err.Error(), code) {
		return nil
	}
	return err
}

func New(l *zap.Logger, c Config, clientConf client.Config, slackClient client.SlackClient, resolver media.Resolver) (*DispatcherImpl, error) {
	d := &DispatcherImpl{
		c:          c,
		l:          l.Named("action-dispatcher"),
		clientConf: clientConf,
		slack:      slackClient,
		resolver:   resolver,
	}

	return d, nil
}
