package client

import (
	"fmt"
	"os"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

type Config struct {
	ApiKey         string
	SigningSecret  string
	Debug          bool
	RequestTracing bool
}

func NewConfig() (Config, error) {
	c := Config{}

	apiKey := os.Getenv("SLACK_API_KEY")
	if apiKey == "" {
		return Config{}, fmt.Errorf("SLACK_API_KEY must be set")
	}
	c.ApiKey = apiKey

	signingSecret := os.Getenv("SLACK_SIGNING_SECRET")
	if signingSecret == "" {
		return Config{}, fmt.Errorf("SLACK_SIGNING_SECRET must be set")
	}
	c.SigningSecret = signingSecret

	if os.Getenv("SLACK_DEBUG") != "" {
		c.Debug = true
	}

	if os.Getenv("SLACK_REQUEST_TRACING") != "" {
		c.RequestTracing = true
	}

	return c, nil
}

type SlackClient interface {
	Api() *slack.Client
	Respond(msg *slack.Msg, resp string)
	PostMessage(channel, resp string) (string, string, error)
	OpenModalView(triggerID string, response slack.ModalViewRequest) (*slack.ViewResponse, error)
	Say(channel string, resp string)
	React(msg *slack.Msg, reaction string)
}

type SlackClientImpl struct {
	api *slack.Client
	l   *zap.Logger
}

func (s *SlackClientImpl) Api() *slack.Client {
	return s.api
}

// Respond replies in the same channel as the given message, highlighting the
// author of the original message.
func (s *SlackClientImpl) Respond(msg *slack.Msg, resp string) {
	s.api.PostMessage(msg.Channel, slack.MsgOptionText(fmt.Sprintf("<@%s>: %s", msg.User, resp), false)) //nolint:errcheck
}

// PostMessage sends a new message to the provided channel. It returns the
// channel ID the message was posted to and the timestamp the message was
// posted at, which together identify the exact message sent.
func (s *SlackClientImpl) PostMessage(channel, resp string) (string, string, error) {
	return s.api.PostMessage(channel, slack.MsgOptionText(resp, false))
}

// Say sends a message to the provided channel.
func (s *SlackClientImpl) Say(channel string, resp string) {
	s.api.PostMessage(channel, slack.MsgOptionText(resp, false)) //nolint:errcheck
}

// OpenModalView uses a trigger_id to open the provided modal view.
func (s *SlackClientImpl) OpenModalView(triggerID string, response slack.ModalViewRequest) (*slack.ViewResponse, error) {
	r, err := s.api.OpenView(triggerID, response)
	if err != nil {
		s.l.Error("error opening view", zap.Error(err))
		return nil, err
	}

	return r, nil
}

// React attaches an emoji reaction to a message.
func (s *SlackClientImpl) React(msg *slack.Msg, reaction string) {
	s.api.AddReaction(reaction, slack.NewRefToMessage(msg.Channel, msg.Timestamp)) //nolint:errcheck
}

func NewSlackClient(config Config, l *zap.Logger, httpClient *HttpClient) (*SlackClientImpl, error) {
	opts := []slack.Option{
		slack.OptionHTTPClient(httpClient),
	}
	if config.Debug {
		opts = append(opts, slack.OptionDebug(true))
	}

	c := &SlackClientImpl{
		api: slack.New(config.ApiKey, opts...),
		l:   l,
	}

	return c, nil
}
