package event_monitor

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/jirwin/slackbridge/pkg/identity"
)

// getInteraction returns the registeredInteraction for the given CallbackID.
// Matches on the first '-': e.g. 'restart', 'restart-', 'restart-modal' are
// all sent to the 'restart' handler.
func (m *ManagerImpl) getInteraction(callbackID string) *registeredInteraction {
	if callbackID == "" {
		return nil
	}

	callbackParts := strings.Split(callbackID, "-")

	if interact, ok := m.interactions[callbackParts[0]]; ok {
		return interact
	}

	return nil
}

// dispatchInteraction sends an interaction callback to the handler it is
// registered to.
func (m *ManagerImpl) dispatchInteraction(cb *slack.InteractionCallback) {
	callbackID := ""
	switch cb.Type {
	case slack.InteractionTypeViewSubmission:
		callbackID = cb.View.CallbackID
	default:
		callbackID = cb.CallbackID
	}

	ic := m.getInteraction(callbackID)
	if ic == nil {
		return
	}

	ic.Interaction.Channel() <- &InteractionMsg{
		Helper:      m.helperFor(ic.HandlerID),
		Interaction: cb,
	}
}

func (m *ManagerImpl) handleSlackInteraction(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		m.l.Error("error parsing interaction", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte{})
		return
	}

	payload := r.Form.Get("payload")

	env := identity.DecodeEnvelope([]byte(payload))
	if identity.ShouldDrop(env, m.slackManager.Identity()) {
		m.l.Warn("dropping interaction addressed to another app or workspace",
			zap.String("app_id", env.APIAppID),
			zap.String("team_id", env.WorkspaceID()),
		)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte{})
		return
	}

	ev := &slack.InteractionCallback{}
	err = json.Unmarshal([]byte(payload), &ev)
	if err != nil {
		m.l.Error("invalid interaction json", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte{})
		return
	}

	if ev.Type == "" {
		m.l.Error("missing interaction type")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte{})
		return
	}

	m.interactionChannel <- ev

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte{})
}
