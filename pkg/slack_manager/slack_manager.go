package slack_manager

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/jirwin/slackbridge/pkg/identity"
	"github.com/jirwin/slackbridge/pkg/slack_manager/client"
)

type Config struct {
	// AppID is optional. When unset, inbound payloads are not checked
	// against an app identity.
	AppID string
	// TeamID is optional and overrides the workspace id reported by
	// auth.test.
	TeamID string
}

func NewConfig() (Config, error) {
	c := Config{}

	c.AppID = os.Getenv("SLACK_APP_ID")
	c.TeamID = os.Getenv("SLACK_TEAM_ID")

	return c, nil
}

type slackState struct {
	sync.RWMutex

	UserID        string
	BotID         string
	TeamID        string
	Channels      map[string]slack.Channel
	HumanChannels map[string]slack.Channel
	Users         map[string]slack.User
	HumanUsers    map[string]slack.User
}

func newSlackState(userID, botID, teamID string) *slackState {
	return &slackState{
		UserID:        userID,
		BotID:         botID,
		TeamID:        teamID,
		Channels:      make(map[string]slack.Channel),
		HumanChannels: make(map[string]slack.Channel),
		Users:         make(map[string]slack.User),
		HumanUsers:    make(map[string]slack.User),
	}
}

type Manager interface {
	Start(ctx context.Context) error
	Done() <-chan struct{}
	Stop()
	Identity() identity.Claim
	UpdateUser(user slack.User)
	UpdateChannel(channel slack.Channel)
	GetUserId() string
	GetBotId() string
	GetChannelId(chanName string) (string, error)
	GetChannel(chanID string) (slack.Channel, error)
	GetUser(userID string) (slack.User, error)
	GetUserName(userID string) (string, error)
	Slack() client.SlackClient
}

type ManagerImpl struct {
	l          *zap.Logger
	c          Config
	slack      client.SlackClient
	slackState *slackState
	ctx        context.Context
	cancel     context.CancelFunc

	stateMu sync.Mutex
}

func (m *ManagerImpl) Done() <-chan struct{} {
	return m.ctx.Done()
}

func (m *ManagerImpl) Stop() {
	m.cancel()
}

func (m *ManagerImpl) state() *slackState {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	return m.slackState
}

func (m *ManagerImpl) setState(s *slackState) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	m.slackState = s
}

func (m *ManagerImpl) UpdateUser(user slack.User) {
	s := m.state()
	s.Lock()
	defer s.Unlock()

	s.Users[user.ID] = user
	s.HumanUsers[user.Name] = user
}

func (m *ManagerImpl) UpdateChannel(channel slack.Channel) {
	s := m.state()
	s.Lock()
	defer s.Unlock()

	s.Channels[channel.ID] = channel
	s.HumanChannels[channel.Name] = channel
}

func (m *ManagerImpl) Slack() client.SlackClient {
	return m.slack
}

func (m *ManagerImpl) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	at, err := m.slack.Api().AuthTestContext(m.ctx)
	if err != nil {
		m.l.Error("unable to auth", zap.Error(err))
		return err
	}

	teamID := m.c.TeamID
	if teamID == "" {
		teamID = at.TeamID
	}
	m.setState(newSlackState(at.UserID, at.BotID, teamID))

	pageToken := ""
	for {
		channels, nextPage, err := m.slack.Api().GetConversationsContext(m.ctx, &slack.GetConversationsParameters{Cursor: pageToken})
		if err != nil {
			m.l.Error("unable to list channels", zap.Error(err))
			return err
		}
		for _, channel := range channels {
			m.UpdateChannel(channel)
		}

		if nextPage == "" {
			break
		}
		pageToken = nextPage
	}

	users, err := m.slack.Api().GetUsersContext(m.ctx)
	if err != nil {
		m.l.Error("unable to list users", zap.Error(err))
		return err
	}
	for _, user := range users {
		m.UpdateUser(user)
	}

	m.l.Info("slack session ready",
		zap.String("user_id", at.UserID),
		zap.String("team_id", teamID),
	)

	return nil
}

// Identity returns the app/workspace pair inbound payloads must match.
// Before Start completes it carries only configured values, so an
// unconfigured session keeps everything.
func (m *ManagerImpl) Identity() identity.Claim {
	s := m.state()
	s.RLock()
	defer s.RUnlock()

	return identity.Claim{
		AppID:  m.c.AppID,
		TeamID: s.TeamID,
	}
}

// GetUserId returns the Slack user ID for the bot.
func (m *ManagerImpl) GetUserId() string {
	s := m.state()
	s.RLock()
	defer s.RUnlock()

	return s.UserID
}

// GetBotId returns the Slack bot ID.
func (m *ManagerImpl) GetBotId() string {
	s := m.state()
	s.RLock()
	defer s.RUnlock()

	return s.BotID
}

// GetChannelId returns the Slack channel ID for a given human-readable
// channel name.
func (m *ManagerImpl) GetChannelId(chanName string) (string, error) {
	s := m.state()
	s.RLock()
	defer s.RUnlock()

	channel, ok := s.HumanChannels[chanName]
	if !ok {
		return "", fmt.Errorf("Channel(%s) not found.", chanName)
	}

	return channel.ID, nil
}

// GetChannel returns the Slack channel object given a channel ID.
func (m *ManagerImpl) GetChannel(chanID string) (slack.Channel, error) {
	s := m.state()
	s.RLock()
	defer s.RUnlock()

	channel, ok := s.Channels[chanID]
	if !ok {
		return slack.Channel{}, fmt.Errorf("Channel(%s) not found.", chanID)
	}

	return channel, nil
}

// GetUser returns the Slack user object given a user ID.
func (m *ManagerImpl) GetUser(userID string) (slack.User, error) {
	s := m.state()
	s.RLock()
	defer s.RUnlock()

	user, ok := s.Users[userID]
	if !ok {
		return slack.User{}, fmt.Errorf("User(%s) not found.", userID)
	}

	return user, nil
}

// GetUserName returns the human-readable user name for a given user ID.
func (m *ManagerImpl) GetUserName(userID string) (string, error) {
	s := m.state()
	s.RLock()
	defer s.RUnlock()

	user, ok := s.Users[userID]
	if !ok {
		return "", fmt.Errorf("User(%s) not found.", userID)
	}

	return user.Name, nil
}

func New(l *zap.Logger, c Config, slackClient client.SlackClient) (*ManagerImpl, error) {
	m := &ManagerImpl{
		l:          l.Named("slack-manager"),
		c:          c,
		slack:      slackClient,
		slackState: newSlackState("", "", c.TeamID),
	}

	return m, nil
}
