package event_monitor

import "github.com/slack-go/slack/slackevents"

// dispatchReactions sends a reaction event to all registered reaction hooks
func (m *ManagerImpl) dispatchReactions(ev *slackevents.ReactionAddedEvent) {
	for _, rh := range m.reactionHooks {
		rh.ReactionHook.Channel() <- &ReactionHookMsg{
			Helper:   m.helperFor(rh.HandlerID),
			Reaction: ev,
		}
	}
}
