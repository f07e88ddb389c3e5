package actions

import (
	"context"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/jirwin/slackbridge/pkg/media"
	"github.com/jirwin/slackbridge/pkg/scope"
)

// DownloadRequest names a file and the conversation the request came from.
// ChannelID and ThreadTS bound what the caller is allowed to see.
type DownloadRequest struct {
	FileID    string
	ChannelID string
	ThreadTS  string
	MaxBytes  int64
}

// DownloadFile stages a file's bytes locally and returns where they landed.
// Metadata is always fetched fresh so the share state reflects the file as
// it is now, not as some earlier caller saw it. A nil item with a nil error
// means the file is not available from the requesting conversation.
func (d *DispatcherImpl) DownloadFile(ctx context.Context, req DownloadRequest) (*media.Item, error) {
	file, _, _, err := d.slack.Api().GetFileInfoContext(ctx, req.FileID, 0, 0)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, nil
	}

	if scope.Mismatch(file, scope.Query{ChannelID: req.ChannelID, ThreadTS: req.ThreadTS}) {
		d.l.Info("file is not visible from the requesting conversation",
			zap.String("file_id", req.FileID),
			zap.String("channel_id", req.ChannelID),
			zap.String("thread_ts", req.ThreadTS),
		)
		return nil, nil
	}

	if file.URLPrivateDownload == "" && file.URLPrivate == "" {
		d.l.Info("file has no private url", zap.String("file_id", req.FileID))
		return nil, nil
	}

	items, err := d.resolver.Resolve(ctx, media.Request{
		Files:    []slack.File{*file},
		Token:    d.clientConf.ApiKey,
		MaxBytes: req.MaxBytes,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	return &items[0], nil
}
