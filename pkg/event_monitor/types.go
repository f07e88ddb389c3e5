package event_monitor

import (
	"context"
	"net/http"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// Command is the interface that handlers implement for slash commands.
// Slash commands are actively triggered by users in slack, and only receive
// messages when they are invoked.
type Command interface {
	GetName() string
	Channel() chan<- *CommandMsg
	Run(ctx context.Context)
}

// registeredCommand represents a command that a handler has registered
type registeredCommand struct {
	HandlerID string
	Command   Command
}

// command is an implementation of the Command interface
type command struct {
	name    string
	channel chan *CommandMsg
	runFunc func(ctx context.Context, cmdChan <-chan *CommandMsg)
}

// GetName returns the name of the command. This name should match the slash
// command configured in slack.
func (c *command) GetName() string {
	return c.name
}

// Channel returns the channel that incoming slash command messages are
// written to
func (c *command) Channel() chan<- *CommandMsg {
	return c.channel
}

// Run executes the command's runFunc with the provided context
func (c *command) Run(ctx context.Context) {
	c.runFunc(ctx, c.channel)
}

// MakeCommand is a helper function that accepts a name and a runFunc, and returns a Command.
func MakeCommand(name string, runFn func(ctx context.Context, cmdChan <-chan *CommandMsg)) Command {
	return &command{
		name:    name,
		runFunc: runFn,
		channel: make(chan *CommandMsg),
	}
}

// CommandMsg is the struct that is passed to a command's channel as it is activated.
type CommandMsg struct {
	Helper  *Helper
	Command *slashCommand
}

// CommandResp is the struct that is used to respond to a command if interaction is required.
type CommandResp struct {
	Text         string             `json:"text"`
	Attachments  []slack.Attachment `json:"attachments"`
	ResponseType string             `json:"response_type"`
	InChannel    bool               `json:"-"`
}

// Interaction is the interface that handlers implement for interactive
// callbacks like shortcuts and modal submissions.
type Interaction interface {
	GetName() string
	Channel() chan<- *InteractionMsg
	Run(ctx context.Context)
}

// registeredInteraction represents an Interaction that a handler has registered
type registeredInteraction struct {
	HandlerID   string
	Interaction Interaction
}

// interaction is an implementation of the Interaction interface
type interaction struct {
	name    string
	channel chan *InteractionMsg
	runFunc func(ctx context.Context, interactionChan <-chan *InteractionMsg)
}

// GetName returns the name of the Interaction. Callback ids are matched
// against this name on the part before the first '-'.
func (c *interaction) GetName() string {
	return c.name
}

// Channel returns the channel that incoming interaction callbacks are
// written to
func (c *interaction) Channel() chan<- *InteractionMsg {
	return c.channel
}

// Run executes the interaction's runFunc with the provided context
func (c *interaction) Run(ctx context.Context) {
	c.runFunc(ctx, c.channel)
}

// MakeInteraction is a helper function that accepts a name and a runFunc, and returns an Interaction.
func MakeInteraction(name string, runFn func(ctx context.Context, interactionChan <-chan *InteractionMsg)) Interaction {
	return &interaction{
		name:    name,
		runFunc: runFn,
		channel: make(chan *InteractionMsg),
	}
}

// InteractionMsg is the struct that is passed to an interaction's channel as it is activated.
type InteractionMsg struct {
	Helper      *Helper
	Interaction *slack.InteractionCallback
}

// Hook is the interface that a handler can implement to create a message hook.
//
// Hooks receive every message the monitor sees so handlers can react accordingly.
type Hook interface {
	Channel() chan<- *HookMsg
	Run(ctx context.Context)
}

// HookMsg is the struct that is passed to a hook's channel for each message seen.
type HookMsg struct {
	Helper *Helper
	Msg    *slack.Msg
}

// registeredHook represents a registered message hook.
type registeredHook struct {
	HandlerID string
	Hook      Hook
}

// hook is an internal implementation of the Hook interface.
type hook struct {
	channel chan *HookMsg
	runFunc func(ctx context.Context, hookChan <-chan *HookMsg)
}

// Channel returns the channel that HookMsg objects are written to.
func (h *hook) Channel() chan<- *HookMsg {
	return h.channel
}

// Run executes the hook's runFunc with the provided context.
func (h *hook) Run(ctx context.Context) {
	h.runFunc(ctx, h.channel)
}

// MakeHook is a helper function that accepts a runFunc and returns a Hook
func MakeHook(runFunc func(ctx context.Context, hookChan <-chan *HookMsg)) Hook {
	return &hook{
		channel: make(chan *HookMsg),
		runFunc: runFunc,
	}
}

// ReactionHook is the interface that handlers implement to create reaction hooks.
// Reaction hooks receive an event every time a message is reacted to.
type ReactionHook interface {
	Channel() chan<- *ReactionHookMsg
	Run(ctx context.Context)
}

// ReactionHookMsg is the struct that is sent to a reaction hook when a message is reacted to.
type ReactionHookMsg struct {
	Helper   *Helper
	Reaction *slackevents.ReactionAddedEvent
}

// registeredReactionHook represents a registered reaction hook.
type registeredReactionHook struct {
	HandlerID    string
	ReactionHook ReactionHook
}

// reactionHook is an internal implementation of ReactionHook
type reactionHook struct {
	channel chan *ReactionHookMsg
	runFunc func(ctx context.Context, reactionHookChan <-chan *ReactionHookMsg)
}

// Channel returns the channel that ReactionHookMsgs are written to
func (r *reactionHook) Channel() chan<- *ReactionHookMsg {
	return r.channel
}

// Run executes the reaction hook's runFunc.
func (r *reactionHook) Run(ctx context.Context) {
	r.runFunc(ctx, r.channel)
}

// MakeReactionHook is a helper function that returns a ReactionHook
func MakeReactionHook(runFunc func(ctx context.Context, reactionHookChan <-chan *ReactionHookMsg)) ReactionHook {
	return &reactionHook{
		channel: make(chan *ReactionHookMsg),
		runFunc: runFunc,
	}
}

// Webhook is the interface that a handler implements to register a custom webhook.
type Webhook interface {
	GetName() string
	Channel() chan<- *WebhookMsg
	Run(ctx context.Context)
}

// WebhookMsg is the struct that is sent to the handler's channel. The
// handler must close Done when it is finished with the ResponseWriter.
type WebhookMsg struct {
	Helper         *Helper
	Request        *http.Request
	ResponseWriter http.ResponseWriter
	Done           chan bool
}

// registeredWebhook represents a registered custom webhook
type registeredWebhook struct {
	HandlerID string
	Webhook   Webhook
}

// webhook is an implementation of the Webhook interface
type webhook struct {
	name    string
	channel chan *WebhookMsg
	runFunc func(ctx context.Context, webhookChan <-chan *WebhookMsg)
}

// GetName returns the name of the webhook
func (wh *webhook) GetName() string {
	return wh.name
}

// Channel returns the channel that WebhookMsgs are written to when a custom webhook is received
func (wh *webhook) Channel() chan<- *WebhookMsg {
	return wh.channel
}

// Run executes the webhook's runFunc
func (wh *webhook) Run(ctx context.Context) {
	wh.runFunc(ctx, wh.channel)
}

// MakeWebhook is a helper function that returns a Webhook
func MakeWebhook(name string, runFunc func(ctx context.Context, whChan <-chan *WebhookMsg)) Webhook {
	return &webhook{
		name:    name,
		runFunc: runFunc,
		channel: make(chan *WebhookMsg),
	}
}

// Handler is the interface every registered handler implements.
type Handler interface {
	GetID() string
}

// CommandHandler is implemented by handlers exposing slash commands.
type CommandHandler interface {
	Handler
	GetCommands() []Command
}

// MessageHookHandler is implemented by handlers observing every message.
type MessageHookHandler interface {
	Handler
	GetHooks() []Hook
}

// WebhookHandler is implemented by handlers exposing custom webhooks.
type WebhookHandler interface {
	Handler
	GetWebhooks() []Webhook
}

// ReactionHookHandler is implemented by handlers observing reactions.
type ReactionHookHandler interface {
	Handler
	GetReactionHooks() []ReactionHook
}

// InteractionHandler is implemented by handlers receiving interactive
// callbacks.
type InteractionHandler interface {
	Handler
	GetInteractions() []Interaction
}

// LoadHandler is implemented by handlers that need setup at registration.
type LoadHandler interface {
	Handler
	Load(helper *Helper) error
}
