package event_monitor

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/schema"
	"go.uber.org/zap"
)

var decoder = schema.NewDecoder()

// slashCommand parses slash command webhooks coming from Slack.
type slashCommand struct {
	Token        string            `schema:"token"`
	TeamId       string            `schema:"team_id"`
	TeamDomain   string            `schema:"team_domain"`
	ChannelId    string            `schema:"channel_id"`
	ChannelName  string            `schema:"channel_name"`
	UserId       string            `schema:"user_id"`
	UserName     string            `schema:"user_name"`
	Command      string            `schema:"command"`
	Text         string            `schema:"text"`
	ResponseUrl  string            `schema:"response_url"`
	responseChan chan *CommandResp `schema:"-"`
}

// Reply returns the channel to write command responses to.
func (sc *slashCommand) Reply() chan<- *CommandResp {
	return sc.responseChan
}

// dispatchCommand sends an incoming slash command to the handler it is
// registered to.
func (m *ManagerImpl) dispatchCommand(slashCmd *slashCommand) {
	if slashCmd.Command == "" {
		return
	}
	cmdName := slashCmd.Command[1:]

	cmd := m.getCommand(cmdName)
	if cmd == nil {
		return
	}

	m.l.Info("fetched command for dispatch", zap.String("handler_id", cmd.HandlerID))

	cmd.Command.Channel() <- &CommandMsg{
		Helper:  m.helperFor(cmd.HandlerID),
		Command: slashCmd,
	}
}

// getCommand returns the registeredCommand for the provided command name
func (m *ManagerImpl) getCommand(cmdText string) *registeredCommand {
	if cmdText == "" {
		return nil
	}

	if cmd, ok := m.commands[cmdText]; ok {
		return cmd
	}

	return nil
}

// slashCommandErrorResponse is used to return an error to the user when a
// slash command can't be completed successfully
type slashCommandErrorResponse struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

// jsonResponse encodes a generic object to json and writes it to the provided HTTP response
func jsonResponse(w http.ResponseWriter, obj interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(obj)
}

// generateErrorMsg encodes a slashCommandErrorResponse to json and writes it to the provided HTTP response
func generateErrorMsg(w http.ResponseWriter, msg string) {
	resp := &slashCommandErrorResponse{
		ResponseType: "ephemeral",
		Text:         msg,
	}

	jsonResponse(w, resp)
}

// prepareSlashCommandResp prepares a command response for API submission
func prepareSlashCommandResp(cmd *CommandResp) {
	if cmd.ResponseType == "" {
		if cmd.InChannel {
			cmd.ResponseType = "in_channel"
		} else {
			cmd.ResponseType = "ephemeral"
		}
	}
}

// handleSlackCommand parses an incoming slash command webhook and dispatches
// it to the proper handler. If the handler doesn't respond within Slack's
// acknowledgement deadline, the response is sent through the response_url
// instead.
func (m *ManagerImpl) handleSlackCommand(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		m.l.Error("error parsing form. Invalid slack command hook.", zap.Error(err))
		generateErrorMsg(w, "Sorry. I was unable to complete your request. :cry:")
		return
	}

	cmd := &slashCommand{}
	decoder.IgnoreUnknownKeys(true)
	err = decoder.Decode(cmd, r.PostForm)
	if err != nil {
		m.l.Error("error marshalling slack command.", zap.Error(err))
		generateErrorMsg(w, "Sorry. I was unable to complete your request. :cry:")
		return
	}

	respChan := make(chan *CommandResp)
	cmd.responseChan = respChan
	m.cmdChannel <- cmd

	timer := time.NewTimer(time.Millisecond * 2500)
	for {
		select {
		case resp := <-respChan:
			if timer.Stop() {
				// A nil response means the handler is explicitly not
				// responding here and will send one manually.
				if resp == nil {
					w.WriteHeader(http.StatusOK)
					_, _ = w.Write([]byte{})
					return
				}

				prepareSlashCommandResp(resp)
				jsonResponse(w, resp)
			} else {
				<-timer.C
				_ = m.RespondToSlashCommand(cmd.ResponseUrl, resp)
			}
			return

		case <-timer.C:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte{})
			return
		}
	}
}

// RespondToSlashCommand posts a command response to the provided
// response_url in order to respond to a slash command out of band.
func (m *ManagerImpl) RespondToSlashCommand(url string, cmdResp *CommandResp) error {
	err := respondToSlashCommand(url, cmdResp)
	if err != nil {
		m.l.Error("error responding to slash command", zap.Error(err))
		return err
	}
	return nil
}

func respondToSlashCommand(url string, cmdResp *CommandResp) error {
	// A nil response after the deadline means the handler responded
	// manually; there is nothing left to deliver.
	if cmdResp == nil {
		return nil
	}

	prepareSlashCommandResp(cmdResp)

	jsonBytes, err := json.Marshal(cmdResp)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(jsonBytes))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return nil
}
