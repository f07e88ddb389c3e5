package actions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jirwin/slackbridge/pkg/media"
	"github.com/jirwin/slackbridge/pkg/slack_manager/client"
)

type testSlackClient struct {
	api *slack.Client
}

func (c *testSlackClient) Api() *slack.Client { return c.api }

func (c *testSlackClient) Respond(msg *slack.Msg, resp string) {}

func (c *testSlackClient) PostMessage(channel, resp string) (string, string, error) {
	return c.api.PostMessage(channel, slack.MsgOptionText(resp, false))
}

func (c *testSlackClient) OpenModalView(triggerID string, response slack.ModalViewRequest) (*slack.ViewResponse, error) {
	return c.api.OpenView(triggerID, response)
}

func (c *testSlackClient) Say(channel string, resp string) {}

func (c *testSlackClient) React(msg *slack.Msg, reaction string) {}

type fakeResolver struct {
	calls   int
	lastReq media.Request
	items   []media.Item
	err     error
}

func (f *fakeResolver) Resolve(ctx context.Context, req media.Request) ([]media.Item, error) {
	f.calls++
	f.lastReq = req
	return f.items, f.err
}

func newTestDispatcher(t *testing.T, mux *http.ServeMux) (*DispatcherImpl, *fakeResolver) {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	resolver := &fakeResolver{}
	api := slack.New("xoxb-test", slack.OptionAPIURL(srv.URL+"/"))

	d, err := New(zap.NewNop(), Config{}, client.Config{ApiKey: "xoxb-test"}, &testSlackClient{api: api}, resolver)
	require.NoError(t, err)

	return d, resolver
}

func TestSendMessage(t *testing.T) {
	var gotChannel, gotText string

	mux := http.NewServeMux()
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotChannel = r.Form.Get("channel")
		gotText = r.Form.Get("text")
		w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1234.5678"}`))
	})

	d, _ := newTestDispatcher(t, mux)

	ch, ts, err := d.SendMessage(context.Background(), "C123", "hello there")
	require.NoError(t, err)
	require.Equal(t, "C123", ch)
	require.Equal(t, "1234.5678", ts)
	require.Equal(t, "C123", gotChannel)
	require.Equal(t, "hello there", gotText)
}

func TestSendMessageRequiresChannelAndText(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	d, _ := newTestDispatcher(t, mux)

	_, _, err := d.SendMessage(context.Background(), "", "hello")
	require.Error(t, err)

	_, _, err = d.SendMessage(context.Background(), "C123", "")
	require.Error(t, err)

	require.Equal(t, 0, calls)
}

func TestSendEphemeral(t *testing.T) {
	var gotUser string

	mux := http.NewServeMux()
	mux.HandleFunc("/chat.postEphemeral", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotUser = r.Form.Get("user")
		w.Write([]byte(`{"ok":true,"message_ts":"1234.5678"}`))
	})

	d, _ := newTestDispatcher(t, mux)

	ts, err := d.SendEphemeral(context.Background(), "C123", "U456", "only for you")
	require.NoError(t, err)
	require.Equal(t, "1234.5678", ts)
	require.Equal(t, "U456", gotUser)
}

func TestUpdateMessage(t *testing.T) {
	var gotTs string

	mux := http.NewServeMux()
	mux.HandleFunc("/chat.update", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotTs = r.Form.Get("ts")
		w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1234.5678","text":"edited"}`))
	})

	d, _ := newTestDispatcher(t, mux)

	newTs, err := d.UpdateMessage(context.Background(), "C123", "1234.5678", "edited")
	require.NoError(t, err)
	require.Equal(t, "1234.5678", newTs)
	require.Equal(t, "1234.5678", gotTs)
}

func TestDeleteMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat.delete", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1234.5678"}`))
	})

	d, _ := newTestDispatcher(t, mux)

	err := d.DeleteMessage(context.Background(), "C123", "1234.5678")
	require.NoError(t, err)
}

func TestAddReactionStripsColons(t *testing.T) {
	var gotName string

	mux := http.NewServeMux()
	mux.HandleFunc("/reactions.add", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotName = r.Form.Get("name")
		w.Write([]byte(`{"ok":true}`))
	})

	d, _ := newTestDispatcher(t, mux)

	err := d.AddReaction(context.Background(), "C123", "1234.5678", ":tada:")
	require.NoError(t, err)
	require.Equal(t, "tada", gotName)
}

func TestAddReactionAlreadyReacted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reactions.add", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"already_reacted"}`))
	})

	d, _ := newTestDispatcher(t, mux)

	err := d.AddReaction(context.Background(), "C123", "1234.5678", "tada")
	require.NoError(t, err)
}

func TestAddReactionOtherErrorPropagates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reactions.add", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"invalid_name"}`))
	})

	d, _ := newTestDispatcher(t, mux)

	err := d.AddReaction(context.Background(), "C123", "1234.5678", "tada")
	require.Error(t, err)
}

func TestRemoveReactionMissingReaction(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reactions.remove", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"no_reaction"}`))
	})

	d, _ := newTestDispatcher(t, mux)

	err := d.RemoveReaction(context.Background(), "C123", "1234.5678", "tada")
	require.NoError(t, err)
}

func TestPinMessageAlreadyPinned(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pins.add", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"already_pinned"}`))
	})

	d, _ := newTestDispatcher(t, mux)

	err := d.PinMessage(context.Background(), "C123", "1234.5678")
	require.NoError(t, err)
}

func TestUnpinMessageMissingPin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pins.remove", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"no_pin"}`))
	})

	d, _ := newTestDispatcher(t, mux)

	err := d.UnpinMessage(context.Background(), "C123", "1234.5678")
	require.NoError(t, err)
}

func TestMessageLogFilters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/conversations.history", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"messages":[
			{"type":"message","user":"U1","text":"keep me","ts":"4.000"},
			{"type":"message","subtype":"bot_message","text":"beep","ts":"3.000"},
			{"type":"message","subtype":"channel_join","user":"U2","ts":"2.000"},
			{"type":"message","user":"U3","text":"attached","ts":"1.000","attachments":[{"text":"a"}]}
		],"has_more":false}`))
	})

	d, _ := newTestDispatcher(t, mux)

	msgs, err := d.MessageLog(context.Background(), "C123", MessageLogOpts{
		Count:           50,
		Period:          time.Hour,
		SkipAttachments: true,
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "keep me", msgs[0].Text)
}

func TestMessage(t *testing.T) {
	var gotLatest string

	mux := http.NewServeMux()
	mux.HandleFunc("/conversations.history", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotLatest = r.Form.Get("latest")
		w.Write([]byte(`{"ok":true,"messages":[{"type":"message","user":"U1","text":"found","ts":"1234.5678"}],"has_more":false}`))
	})

	d, _ := newTestDispatcher(t, mux)

	msg, err := d.Message(context.Background(), "C123", "1234.5678")
	require.NoError(t, err)
	require.Equal(t, "found", msg.Text)
	require.Equal(t, "1234.5678", gotLatest)
}

func TestMessageNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/conversations.history", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"messages":[],"has_more":false}`))
	})

	d, _ := newTestDispatcher(t, mux)

	_, err := d.Message(context.Background(), "C123", "1234.5678")
	require.Error(t, err)
}

func TestRepliesPaginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/conversations.replies", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.Form.Get("cursor") == "" {
			w.Write([]byte(`{"ok":true,"messages":[{"type":"message","text":"root","ts":"1.000"}],"has_more":true,"response_metadata":{"next_cursor":"cur1"}}`))
			return
		}
		w.Write([]byte(`{"ok":true,"messages":[{"type":"message","text":"reply","ts":"2.000"}],"has_more":false}`))
	})

	d, _ := newTestDispatcher(t, mux)

	msgs, err := d.Replies(context.Background(), "C123", "1.000")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "root", msgs[0].Text)
	require.Equal(t, "reply", msgs[1].Text)
}

func TestMembers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/conversations.members", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"members":["U1","U2"],"response_metadata":{"next_cursor":""}}`))
	})

	d, _ := newTestDispatcher(t, mux)

	members, err := d.Members(context.Background(), "C123")
	require.NoError(t, err)
	require.Equal(t, []string{"U1", "U2"}, members)
}

func TestFileInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files.info", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"file":{"id":"F123","name":"notes.txt"}}`))
	})

	d, _ := newTestDispatcher(t, mux)

	file, err := d.FileInfo(context.Background(), "F123")
	require.NoError(t, err)
	require.Equal(t, "F123", file.ID)
	require.Equal(t, "notes.txt", file.Name)
}
