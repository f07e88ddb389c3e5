package identity

import (
	"encoding/json"
	"strings"
)

// Claim is the app/workspace identity a monitor session is bound to.
// Empty fields mean the session has no expectation for that identifier.
type Claim struct {
	AppID  string
	TeamID string
}

// Envelope carries the identity fields of an inbound payload. Two payload
// shapes arrive from Slack: Events API callbacks put the workspace id in a
// top-level team_id, interactive callbacks nest it under team.id. The app
// id only ever appears top-level.
type Envelope struct {
	APIAppID string `json:"api_app_id"`
	TeamID   string `json:"team_id"`
	Team     Team   `json:"team"`
}

type Team struct {
	ID string `json:"id"`
}

// WorkspaceID returns the payload's workspace id, preferring the top-level
// field over the nested one.
func (e Envelope) WorkspaceID() string {
	teamID := strings.TrimSpace(e.TeamID)
	if teamID == "" {
		teamID = strings.TrimSpace(e.Team.ID)
	}
	return teamID
}

// DecodeEnvelope extracts the identity fields from a raw payload. Malformed
// or unknown payloads decode to an empty envelope, which ShouldDrop keeps.
func DecodeEnvelope(raw []byte) Envelope {
	var env Envelope
	_ = json.Unmarshal(raw, &env)
	return env
}

// ShouldDrop reports whether a payload's identity contradicts the session
// claim. An identifier only drops when it is present on both sides and
// differs; absent identifiers keep the payload.
func ShouldDrop(env Envelope, want Claim) bool {
	appID := strings.TrimSpace(env.APIAppID)
	wantApp := strings.TrimSpace(want.AppID)
	if appID != "" && wantApp != "" && appID != wantApp {
		return true
	}

	teamID := env.WorkspaceID()
	wantTeam := strings.TrimSpace(want.TeamID)
	if teamID != "" && wantTeam != "" && teamID != wantTeam {
		return true
	}

	return false
}
