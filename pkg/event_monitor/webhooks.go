package event_monitor

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

func (m *ManagerImpl) getWebhook(webhookName string) *registeredWebhook {
	if webhookName == "" {
		return nil
	}

	if wh, ok := m.webhooks[webhookName]; ok {
		return wh
	}

	return nil
}

// handleCustomWebhook dispatches a custom webhook to the handler that
// registered its name. The handler owns the ResponseWriter until it signals
// Done, bounded by a timeout so a stuck handler can't hold the connection.
func (m *ManagerImpl) handleCustomWebhook(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	wh := m.getWebhook(vars["webhook-name"])
	if wh == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	done := make(chan bool, 1)
	msg := &WebhookMsg{
		Helper:         m.helperFor(wh.HandlerID),
		Request:        r,
		ResponseWriter: w,
		Done:           done,
	}
	wh.Webhook.Channel() <- msg

	select {
	case <-done:
		m.l.Debug("webhook completed")
	case <-time.After(time.Second * 5):
		m.l.Info("webhook timed out")
	}
}
