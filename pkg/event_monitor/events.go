package event_monitor

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"

	"github.com/jirwin/slackbridge/pkg/identity"
)

// dedupWindow is how long delivered event ids are remembered. Slack retries
// deliveries for a few minutes, so anything older cannot be a retry.
const dedupWindow = 5 * time.Minute

// alreadySeen records the event id and reports whether it was delivered
// before within the dedup window. Events without an id are never dupes.
func (m *ManagerImpl) alreadySeen(eventID string) bool {
	if eventID == "" {
		return false
	}

	m.seenMu.Lock()
	defer m.seenMu.Unlock()

	now := time.Now()
	for id, seen := range m.seenEvents {
		if now.Sub(seen) > dedupWindow {
			delete(m.seenEvents, id)
		}
	}

	if _, ok := m.seenEvents[eventID]; ok {
		return true
	}
	m.seenEvents[eventID] = now

	return false
}

func (m *ManagerImpl) handleSlackEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		m.l.Error("unable to read event body")
		return
	}

	env := identity.DecodeEnvelope(body)
	if identity.ShouldDrop(env, m.slackManager.Identity()) {
		m.l.Warn("dropping event addressed to another app or workspace",
			zap.String("app_id", env.APIAppID),
			zap.String("team_id", env.WorkspaceID()),
		)
		w.WriteHeader(http.StatusOK)
		return
	}

	var meta struct {
		EventID string `json:"event_id"`
	}
	_ = json.Unmarshal(body, &meta)
	if m.alreadySeen(meta.EventID) {
		m.l.Debug("skipping retried event", zap.String("event_id", meta.EventID))
		w.WriteHeader(http.StatusOK)
		return
	}

	ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		m.l.Error("unable to parse event", zap.String("event", string(body)))
		return
	}

	switch ev.Type {
	case slackevents.URLVerification:
		urlEvent, ok := ev.Data.(*slackevents.EventsAPIURLVerificationEvent)
		if !ok {
			m.l.Error("unexpected data type for url validation")
			return
		}
		headers := w.Header()
		headers.Set("Content-type", "text/plain")
		_, _ = w.Write([]byte(urlEvent.Challenge))

	case slackevents.CallbackEvent:
		switch iev := ev.InnerEvent.Data.(type) {
		case *slackevents.MessageEvent:
			// Ignore things the bot has said
			if iev.BotID != m.slackManager.GetBotId() {
				hookMsg := &slack.Msg{
					Channel:         iev.Channel,
					User:            iev.User,
					Text:            iev.Text,
					Timestamp:       iev.TimeStamp,
					ThreadTimestamp: iev.ThreadTimeStamp,
					BotID:           iev.BotID,
					Username:        iev.Username,
				}
				m.dispatchHooks(hookMsg)
			}

		case *slackevents.AppMentionEvent:
			if iev.User != "" {
				m.handleMentionCommand(ev.TeamID, iev)
			}

		case *slackevents.ReactionAddedEvent:
			m.dispatchReactions(iev)

		case *slackevents.MemberJoinedChannelEvent:
			if iev.User == m.slackManager.GetUserId() {
				m.slackManager.Slack().Say(iev.Channel, fmt.Sprintf("Thanks for inviting me <@%s>. I'm alive!", iev.Inviter))
			}

		case *slackevents.ChannelCreatedEvent:
			if iev.Channel.IsChannel {
				channel, err := m.slackManager.Slack().Api().GetConversationInfoContext(m.ctx, &slack.GetConversationInfoInput{
					ChannelID: iev.Channel.ID,
				})
				if err != nil {
					m.l.Error("unable to add channel", zap.Error(err))
					return
				}
				m.slackManager.UpdateChannel(*channel)
			}

		case *slackevents.UserProfileChangedEvent:
			if iev.User != nil {
				m.slackManager.UpdateUser(*iev.User)
			}

		default:
			m.l.Debug("unhandled event", zap.Any("event", iev))
		}
	}
}

// handleMentionCommand lets users trigger slash commands by mentioning the
// bot: "@bot cmd args" behaves like "/cmd args".
func (m *ManagerImpl) handleMentionCommand(teamID string, iev *slackevents.AppMentionEvent) {
	if !strings.HasPrefix(iev.Text, fmt.Sprintf("<@%s> ", m.slackManager.GetUserId())) {
		return
	}

	tokens := strings.Split(iev.Text, " ")
	if len(tokens) < 2 {
		return
	}

	cmdName := tokens[1]
	cmd := m.getCommand(cmdName)
	if cmd == nil {
		return
	}
	channel, err := m.slackManager.GetChannel(iev.Channel)
	if err != nil {
		m.l.Error("error getting channel", zap.Error(err), zap.String("channel", iev.Channel))
		return
	}
	user, err := m.slackManager.GetUser(iev.User)
	if err != nil {
		m.l.Error("error getting user", zap.Error(err))
		return
	}

	slashCmd := &slashCommand{
		TeamId:      teamID,
		ChannelId:   channel.ID,
		ChannelName: channel.Name,
		UserId:      user.ID,
		UserName:    user.Name,
		Command:     cmdName,
		Text:        strings.Join(tokens[2:], " "),
	}

	respChan := make(chan *CommandResp)
	slashCmd.responseChan = respChan

	go func() {
		timer := time.NewTimer(time.Millisecond * 2500)

		for {
			select {
			case <-timer.C:
				return

			case resp := <-respChan:
				timer.Stop()
				if resp != nil {
					msgOpts := []slack.MsgOption{
						slack.MsgOptionText(resp.Text, false),
						slack.MsgOptionAttachments(resp.Attachments...),
					}

					if !resp.InChannel {
						msgOpts = append(msgOpts, slack.MsgOptionPostEphemeral(iev.User))
					}

					_, _, _ = m.slackManager.Slack().Api().PostMessageContext(m.ctx, iev.Channel, msgOpts...)
				}

				return
			}
		}
	}()

	cmd.Command.Channel() <- &CommandMsg{
		Helper:  m.helperFor(cmd.HandlerID),
		Command: slashCmd,
	}
}
