package scope

import (
	"strings"

	"github.com/slack-go/slack"
)

// Query is the channel/thread scope a caller claims for an action.
// Empty fields mean no constraint.
type Query struct {
	ChannelID string
	ThreadTS  string
}

// Mismatch reports whether a file's share metadata positively contradicts
// the queried scope. It fails open: absent or ambiguous evidence allows,
// only provably wrong scope blocks.
//
// Channel and thread evidence are checked independently so a file shared
// into a channel without thread-level metadata is never blocked on a
// thread query.
func Mismatch(file *slack.File, q Query) bool {
	channelID := normalize(q.ChannelID)
	if channelID == "" {
		return false
	}

	directIDs := directChannels(file)
	shares := shareEntries(file)

	hasChannelEvidence := len(directIDs) > 0 || len(shares) > 0
	_, direct := directIDs[channelID]
	_, shared := shares[channelID]

	if hasChannelEvidence && !direct && !shared {
		return true
	}

	threadTS := normalize(q.ThreadTS)
	if threadTS == "" {
		return false
	}

	entries := shares[channelID]
	if len(entries) == 0 {
		return false
	}

	evidence := false
	for _, entry := range entries {
		ts := normalize(entry.Ts)
		threadTs := normalize(entry.ThreadTs)
		if ts == "" && threadTs == "" {
			continue
		}

		evidence = true
		if ts == threadTS || threadTs == threadTS {
			return false
		}
	}

	return evidence
}

// directChannels merges the channel, group, and IM share lists into one set.
func directChannels(file *slack.File) map[string]struct{} {
	ids := make(map[string]struct{})
	if file == nil {
		return ids
	}

	for _, list := range [][]string{file.Channels, file.Groups, file.IMs} {
		for _, id := range list {
			if id = normalize(id); id != "" {
				ids[id] = struct{}{}
			}
		}
	}

	return ids
}

// shareEntries flattens the public and private share maps into a single map
// of channel id to share entries. Both maps carry the same authorization
// weight.
func shareEntries(file *slack.File) map[string][]slack.ShareFileInfo {
	entries := make(map[string][]slack.ShareFileInfo)
	if file == nil {
		return entries
	}

	for _, shares := range []map[string][]slack.ShareFileInfo{file.Shares.Public, file.Shares.Private} {
		for id, infos := range shares {
			if id = normalize(id); id != "" {
				entries[id] = append(entries[id], infos...)
			}
		}
	}

	return entries
}

func normalize(s string) string {
	return strings.TrimSpace(s)
}
