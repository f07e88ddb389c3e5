package event_monitor

import "github.com/slack-go/slack"

// dispatchHooks sends a slack message to all registered message hooks
func (m *ManagerImpl) dispatchHooks(msg *slack.Msg) {
	for _, h := range m.hooks {
		h.Hook.Channel() <- &HookMsg{
			Helper: m.helperFor(h.HandlerID),
			Msg:    msg,
		}
	}
}
