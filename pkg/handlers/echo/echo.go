package echo

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jirwin/slackbridge/pkg/event_monitor"
	"github.com/jirwin/slackbridge/pkg/handlers"
)

func echoCommand(ctx context.Context, cmdChannel <-chan *event_monitor.CommandMsg) {
	for {
		select {
		case cmdMsg := <-cmdChannel:
			cmdMsg.Command.Reply() <- &event_monitor.CommandResp{
				Text: cmdMsg.Command.Text,
			}
		case <-ctx.Done():
			zap.L().Info("Exiting echo command")
			return
		}
	}
}

func echoHook(ctx context.Context, hookChannel <-chan *event_monitor.HookMsg) {
	for {
		select {
		case hookMsg := <-hookChannel:
			hookMsg.Helper.Respond(hookMsg.Msg, fmt.Sprintf("echo: %s", hookMsg.Msg.Text))
		case <-ctx.Done():
			zap.L().Info("Exiting echo hook")
			return
		}
	}
}

func echoReactionHook(ctx context.Context, reactionChannel <-chan *event_monitor.ReactionHookMsg) {
	for {
		select {
		case rh := <-reactionChannel:
			rh.Helper.Say(rh.Reaction.Item.Channel, fmt.Sprintf("<@%s> added a reaction! :%s:", rh.Reaction.User, rh.Reaction.Reaction))

		case <-ctx.Done():
			zap.L().Info("Exiting echo reaction hook")
			return
		}
	}
}

func Register() event_monitor.Handler {
	return handlers.Make(
		"echo",
		[]event_monitor.Command{event_monitor.MakeCommand("echo", echoCommand)},
		[]event_monitor.Hook{event_monitor.MakeHook(echoHook)},
		[]event_monitor.ReactionHook{event_monitor.MakeReactionHook(echoReactionHook)},
		nil,
		nil,
	)
}
