package event_monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jirwin/slackbridge/pkg/actions"
	"github.com/jirwin/slackbridge/pkg/data_store/boltdb"
	"github.com/jirwin/slackbridge/pkg/slack_manager"
	"github.com/jirwin/slackbridge/pkg/slack_manager/client"
	"github.com/jirwin/slackbridge/pkg/webhook_manager"
)

type monitorSlackClient struct {
	api *slack.Client
}

func (c *monitorSlackClient) Api() *slack.Client { return c.api }

func (c *monitorSlackClient) Respond(msg *slack.Msg, resp string) {}

func (c *monitorSlackClient) PostMessage(channel, resp string) (string, string, error) {
	return "", "", nil
}

func (c *monitorSlackClient) OpenModalView(triggerID string, response slack.ModalViewRequest) (*slack.ViewResponse, error) {
	return nil, nil
}

func (c *monitorSlackClient) Say(channel string, resp string) {}

func (c *monitorSlackClient) React(msg *slack.Msg, reaction string) {}

type testHandler struct {
	id           string
	hooks        []Hook
	commands     []Command
	interactions []Interaction
}

func (h *testHandler) GetID() string                  { return h.id }
func (h *testHandler) GetHooks() []Hook               { return h.hooks }
func (h *testHandler) GetCommands() []Command         { return h.commands }
func (h *testHandler) GetInteractions() []Interaction { return h.interactions }

func newTestMonitor(t *testing.T) *ManagerImpl {
	t.Helper()

	nop := zap.NewNop()
	slackClient := &monitorSlackClient{api: slack.New("xoxb-test")}

	sm, err := slack_manager.New(nop, slack_manager.Config{AppID: "A1", TeamID: "T1"}, slackClient)
	require.NoError(t, err)

	wm, err := webhook_manager.New(webhook_manager.Config{ListenAddress: "127.0.0.1:0"}, nop, client.Config{SigningSecret: "secret"})
	require.NoError(t, err)

	ds, err := boltdb.New(boltdb.Config{DbPath: filepath.Join(t.TempDir(), "monitor.db")}, nop)
	require.NoError(t, err)
	t.Cleanup(ds.Close)

	dispatcher, err := actions.New(nop, actions.Config{}, client.Config{ApiKey: "xoxb-test"}, slackClient, nil)
	require.NoError(t, err)

	em, err := New(Config{}, nop, sm, wm, ds, dispatcher)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go em.Run(ctx)

	require.Eventually(t, em.running.Load, time.Second, 10*time.Millisecond)

	return em
}

func registerTestHook(t *testing.T, em *ManagerImpl) chan *HookMsg {
	t.Helper()

	got := make(chan *HookMsg, 4)
	h := MakeHook(func(ctx context.Context, hookChan <-chan *HookMsg) {
		for {
			select {
			case msg := <-hookChan:
				got <- msg
			case <-ctx.Done():
				return
			}
		}
	})

	err := em.Register(&testHandler{id: "probe", hooks: []Hook{h}})
	require.NoError(t, err)

	return got
}

func postEvent(em *ManagerImpl, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/slack/event", strings.NewReader(body))
	em.handleSlackEvent(rec, req)
	return rec
}

func TestEventIntakeDropsForeignApp(t *testing.T) {
	em := newTestMonitor(t)
	got := registerTestHook(t, em)

	rec := postEvent(em, `{
		"token":"tok",
		"team_id":"T1",
		"api_app_id":"A9",
		"type":"event_callback",
		"event_id":"Ev-foreign-app",
		"event":{"type":"message","channel":"C1","user":"U2","bot_id":"B777","text":"hello","ts":"1.000"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-got:
		t.Fatal("event from a foreign app must not be dispatched")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventIntakeDropsForeignWorkspace(t *testing.T) {
	em := newTestMonitor(t)
	got := registerTestHook(t, em)

	rec := postEvent(em, `{
		"token":"tok",
		"team_id":"T9",
		"api_app_id":"A1",
		"type":"event_callback",
		"event_id":"Ev-foreign-team",
		"event":{"type":"message","channel":"C1","user":"U2","bot_id":"B777","text":"hello","ts":"1.000"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-got:
		t.Fatal("event from a foreign workspace must not be dispatched")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventIntakeKeepsMatchingIdentity(t *testing.T) {
	em := newTestMonitor(t)
	got := registerTestHook(t, em)

	rec := postEvent(em, `{
		"token":"tok",
		"team_id":"T1",
		"api_app_id":"A1",
		"type":"event_callback",
		"event_id":"Ev-match",
		"event":{"type":"message","channel":"C1","user":"U2","bot_id":"B777","text":"hello","ts":"1.000"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case msg := <-got:
		require.Equal(t, "hello", msg.Msg.Text)
		require.Equal(t, "C1", msg.Msg.Channel)
		require.NotNil(t, msg.Helper)
	case <-time.After(time.Second):
		t.Fatal("expected the event to reach the hook")
	}
}

func TestEventIntakeKeepsAbsentIdentity(t *testing.T) {
	em := newTestMonitor(t)
	got := registerTestHook(t, em)

	rec := postEvent(em, `{
		"token":"tok",
		"type":"event_callback",
		"event_id":"Ev-absent",
		"event":{"type":"message","channel":"C1","user":"U2","bot_id":"B777","text":"hello","ts":"1.000"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case msg := <-got:
		require.Equal(t, "hello", msg.Msg.Text)
	case <-time.After(time.Second):
		t.Fatal("expected the event to reach the hook")
	}
}

func TestEventIntakeDedupsRetries(t *testing.T) {
	em := newTestMonitor(t)
	got := registerTestHook(t, em)

	body := `{
		"token":"tok",
		"team_id":"T1",
		"api_app_id":"A1",
		"type":"event_callback",
		"event_id":"Ev-dup",
		"event":{"type":"message","channel":"C1","user":"U2","bot_id":"B777","text":"once","ts":"1.000"}
	}`

	postEvent(em, body)
	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("expected the first delivery to reach the hook")
	}

	rec := postEvent(em, body)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-got:
		t.Fatal("retried event must not be dispatched twice")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestURLVerificationChallenge(t *testing.T) {
	em := newTestMonitor(t)

	rec := postEvent(em, `{"type":"url_verification","token":"tok","challenge":"abc123"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "abc123", rec.Body.String())
}

func TestInteractionGateDropsForeignWorkspace(t *testing.T) {
	em := newTestMonitor(t)

	got := make(chan *InteractionMsg, 4)
	ic := MakeInteraction("approve", func(ctx context.Context, interactionChan <-chan *InteractionMsg) {
		for {
			select {
			case msg := <-interactionChan:
				got <- msg
			case <-ctx.Done():
				return
			}
		}
	})
	require.NoError(t, em.Register(&testHandler{id: "approver", interactions: []Interaction{ic}}))

	form := url.Values{}
	form.Set("payload", `{"type":"shortcut","callback_id":"approve-request","team":{"id":"T9"}}`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/slack/interaction", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	em.handleSlackInteraction(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-got:
		t.Fatal("interaction from a foreign workspace must not be dispatched")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestInteractionGateKeepsMatchingWorkspace(t *testing.T) {
	em := newTestMonitor(t)

	got := make(chan *InteractionMsg, 4)
	ic := MakeInteraction("approve", func(ctx context.Context, interactionChan <-chan *InteractionMsg) {
		for {
			select {
			case msg := <-interactionChan:
				got <- msg
			case <-ctx.Done():
				return
			}
		}
	})
	require.NoError(t, em.Register(&testHandler{id: "approver", interactions: []Interaction{ic}}))

	form := url.Values{}
	form.Set("payload", `{"type":"shortcut","callback_id":"approve-request","team":{"id":"T1"}}`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/slack/interaction", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	em.handleSlackInteraction(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case msg := <-got:
		require.Equal(t, "approve-request", msg.Interaction.CallbackID)
		require.NotNil(t, msg.Helper)
	case <-time.After(time.Second):
		t.Fatal("expected the interaction to reach the handler")
	}
}

func TestSlashCommandDispatch(t *testing.T) {
	em := newTestMonitor(t)

	var gotText string
	cmd := MakeCommand("deploy", func(ctx context.Context, cmdChan <-chan *CommandMsg) {
		for {
			select {
			case msg := <-cmdChan:
				gotText = msg.Command.Text
				msg.Command.Reply() <- &CommandResp{Text: "deploy started"}
			case <-ctx.Done():
				return
			}
		}
	})
	require.NoError(t, em.Register(&testHandler{id: "deployer", commands: []Command{cmd}}))

	form := url.Values{}
	form.Set("token", "tok")
	form.Set("team_id", "T1")
	form.Set("channel_id", "C1")
	form.Set("user_id", "U1")
	form.Set("command", "/deploy")
	form.Set("text", "api to prod")
	form.Set("response_url", "https://hooks.example.com/resp")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	em.handleSlackCommand(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "deploy started")
	require.Contains(t, rec.Body.String(), "ephemeral")
	require.Equal(t, "api to prod", gotText)
}

func TestRegisterRequiresRunning(t *testing.T) {
	nop := zap.NewNop()
	slackClient := &monitorSlackClient{api: slack.New("xoxb-test")}

	sm, err := slack_manager.New(nop, slack_manager.Config{}, slackClient)
	require.NoError(t, err)

	wm, err := webhook_manager.New(webhook_manager.Config{ListenAddress: "127.0.0.1:0"}, nop, client.Config{})
	require.NoError(t, err)

	ds, err := boltdb.New(boltdb.Config{DbPath: filepath.Join(t.TempDir(), "monitor.db")}, nop)
	require.NoError(t, err)
	t.Cleanup(ds.Close)

	em, err := New(Config{}, nop, sm, wm, ds, nil)
	require.NoError(t, err)

	err = em.Register(&testHandler{id: "too-early"})
	require.Error(t, err)
}
