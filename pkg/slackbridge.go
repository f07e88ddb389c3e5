package slackbridge

import (
	"context"

	"github.com/jirwin/slackbridge/pkg/actions"
)

// Bridge is the surface an embedding program drives: start the Slack
// session, register handlers for inbound traffic, and reach the outbound
// action dispatcher.
type Bridge interface {
	Start(ctx context.Context) error
	Stop()
	RegisterHandler(h interface{}) error
	Actions() actions.Dispatcher
}
