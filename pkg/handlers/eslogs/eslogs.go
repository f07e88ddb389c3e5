package eslogs

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/olivere/elastic.v5"

	"github.com/jirwin/slackbridge/pkg/event_monitor"
	"github.com/jirwin/slackbridge/pkg/handlers"
)

// SlackMsgLog is the document shape indexed for every archived message.
type SlackMsgLog struct {
	Timestamp string `json:"ts"`
	Channel   string `json:"channel"`
	User      string `json:"user"`
	Text      string `json:"text"`
}

var SlackUserMatch = regexp.MustCompile("<@U.+>")

// formatText rewrites user mentions to readable names so archived text
// survives after user ids stop resolving.
func formatText(helper *event_monitor.Helper, txt string) string {
	return SlackUserMatch.ReplaceAllStringFunc(txt, func(s string) string {
		userId := strings.TrimLeft(strings.TrimRight(s, ">"), "<@")

		user, err := helper.GetUser(userId)
		if err != nil {
			return s
		}

		return user.Name
	})
}

type messageArchive struct {
	esClient *elastic.Client
	index    string
}

func (a *messageArchive) logHook(ctx context.Context, hookchan <-chan *event_monitor.HookMsg) {
	for {
		select {
		case hookMsg := <-hookchan:
			if hookMsg.Msg.SubType != "bot_message" && hookMsg.Msg.SubType != "" {
				continue
			}

			msg := SlackMsgLog{
				Timestamp: hookMsg.Msg.Timestamp,
			}
			channel, err := hookMsg.Helper.GetChannel(hookMsg.Msg.Channel)
			if err != nil {
				msg.Channel = "unknown"
			} else {
				msg.Channel = channel.Name
			}

			user, err := hookMsg.Helper.GetUser(hookMsg.Msg.User)
			if err != nil {
				msg.User = "unknown"
			} else {
				msg.User = user.Name
			}

			msg.Text = formatText(hookMsg.Helper, hookMsg.Msg.Text)

			_, err = a.esClient.Index().Index(a.index).Type("slack-msg").Id(hookMsg.Msg.Timestamp).BodyJson(msg).Do(ctx)
			if err != nil {
				zap.L().Error("Error indexing log to ES", zap.Error(err))
				continue
			}

		case <-ctx.Done():
			zap.L().Info("Exiting es log hook")
			return
		}
	}
}

func Register(endpoint, index string) (event_monitor.Handler, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("es endpoint is required")
	}
	if index == "" {
		return nil, fmt.Errorf("es index is required")
	}

	esc, err := elastic.NewClient(elastic.SetURL(endpoint), elastic.SetSniff(false))
	if err != nil {
		return nil, err
	}

	archive := &messageArchive{
		esClient: esc,
		index:    index,
	}

	return handlers.Make(
		"eslogs",
		nil,
		[]event_monitor.Hook{
			event_monitor.MakeHook(archive.logHook),
		},
		nil,
		nil,
		nil,
	), nil
}
