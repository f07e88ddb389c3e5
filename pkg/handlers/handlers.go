// Package handlers bundles the capability pieces a handler exposes under a
// single registerable id.
package handlers

import (
	"github.com/jirwin/slackbridge/pkg/event_monitor"
)

type handler struct {
	id            string
	commands      []event_monitor.Command
	hooks         []event_monitor.Hook
	reactionHooks []event_monitor.ReactionHook
	webhooks      []event_monitor.Webhook
	interactions  []event_monitor.Interaction
}

func (h *handler) GetID() string { return h.id }

func (h *handler) GetCommands() []event_monitor.Command { return h.commands }

func (h *handler) GetHooks() []event_monitor.Hook { return h.hooks }

func (h *handler) GetReactionHooks() []event_monitor.ReactionHook { return h.reactionHooks }

func (h *handler) GetWebhooks() []event_monitor.Webhook { return h.webhooks }

func (h *handler) GetInteractions() []event_monitor.Interaction { return h.interactions }

// Make assembles a handler from its capability pieces. Nil slices are fine;
// the monitor only registers what is present.
func Make(
	id string,
	commands []event_monitor.Command,
	hooks []event_monitor.Hook,
	reactionHooks []event_monitor.ReactionHook,
	webhooks []event_monitor.Webhook,
	interactions []event_monitor.Interaction,
) event_monitor.Handler {
	return &handler{
		id:            id,
		commands:      commands,
		hooks:         hooks,
		reactionHooks: reactionHooks,
		webhooks:      webhooks,
		interactions:  interactions,
	}
}
