package actions

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jirwin/slackbridge/pkg/media"
)

func fileInfoMux(fileJSON string) (*http.ServeMux, *int) {
	infoCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/files.info", func(w http.ResponseWriter, r *http.Request) {
		infoCalls++
		w.Write([]byte(`{"ok":true,"file":` + fileJSON + `}`))
	})
	return mux, &infoCalls
}

func TestDownloadFileDelegatesToResolver(t *testing.T) {
	mux, infoCalls := fileInfoMux(`{
		"id":"F123",
		"name":"notes.txt",
		"channels":["C123"],
		"url_private_download":"https://files.example.com/notes.txt"
	}`)

	d, resolver := newTestDispatcher(t, mux)
	resolver.items = []media.Item{{FileID: "F123", Path: "/tmp/stored", ContentType: "text/plain"}}

	item, err := d.DownloadFile(context.Background(), DownloadRequest{
		FileID:    "F123",
		ChannelID: "C123",
		MaxBytes:  2048,
	})
	require.NoError(t, err)
	require.NotNil(t, item)
	require.Equal(t, "/tmp/stored", item.Path)

	require.Equal(t, 1, *infoCalls)
	require.Equal(t, 1, resolver.calls)
	require.Equal(t, "xoxb-test", resolver.lastReq.Token)
	require.Equal(t, int64(2048), resolver.lastReq.MaxBytes)
	require.Len(t, resolver.lastReq.Files, 1)
	require.Equal(t, "https://files.example.com/notes.txt", resolver.lastReq.Files[0].URLPrivateDownload)
}

func TestDownloadFileBlocksForeignChannel(t *testing.T) {
	mux, _ := fileInfoMux(`{
		"id":"F123",
		"channels":["C999"],
		"url_private_download":"https://files.example.com/notes.txt"
	}`)

	d, resolver := newTestDispatcher(t, mux)
	resolver.items = []media.Item{{FileID: "F123", Path: "/tmp/stored"}}

	item, err := d.DownloadFile(context.Background(), DownloadRequest{
		FileID:    "F123",
		ChannelID: "C123",
	})
	require.NoError(t, err)
	require.Nil(t, item)
	require.Equal(t, 0, resolver.calls)
}

func TestDownloadFileBlocksForeignThread(t *testing.T) {
	mux, _ := fileInfoMux(`{
		"id":"F123",
		"shares":{"public":{"C123":[{"ts":"111.111"}]}},
		"url_private_download":"https://files.example.com/notes.txt"
	}`)

	d, resolver := newTestDispatcher(t, mux)
	resolver.items = []media.Item{{FileID: "F123", Path: "/tmp/stored"}}

	item, err := d.DownloadFile(context.Background(), DownloadRequest{
		FileID:    "F123",
		ChannelID: "C123",
		ThreadTS:  "222.222",
	})
	require.NoError(t, err)
	require.Nil(t, item)
	require.Equal(t, 0, resolver.calls)
}

func TestDownloadFileAllowsMatchingThread(t *testing.T) {
	mux, _ := fileInfoMux(`{
		"id":"F123",
		"shares":{"public":{"C123":[{"ts":"111.111","thread_ts":"111.111"}]}},
		"url_private_download":"https://files.example.com/notes.txt"
	}`)

	d, resolver := newTestDispatcher(t, mux)
	resolver.items = []media.Item{{FileID: "F123", Path: "/tmp/stored"}}

	item, err := d.DownloadFile(context.Background(), DownloadRequest{
		FileID:    "F123",
		ChannelID: "C123",
		ThreadTS:  "111.111",
	})
	require.NoError(t, err)
	require.NotNil(t, item)
	require.Equal(t, 1, resolver.calls)
}

func TestDownloadFileNoConstraintSkipsGuard(t *testing.T) {
	mux, _ := fileInfoMux(`{
		"id":"F123",
		"channels":["C999"],
		"url_private_download":"https://files.example.com/notes.txt"
	}`)

	d, resolver := newTestDispatcher(t, mux)
	resolver.items = []media.Item{{FileID: "F123", Path: "/tmp/stored"}}

	item, err := d.DownloadFile(context.Background(), DownloadRequest{FileID: "F123"})
	require.NoError(t, err)
	require.NotNil(t, item)
	require.Equal(t, 1, resolver.calls)
}

func TestDownloadFileMissingURL(t *testing.T) {
	mux, _ := fileInfoMux(`{
		"id":"F123",
		"channels":["C123"]
	}`)

	d, resolver := newTestDispatcher(t, mux)

	item, err := d.DownloadFile(context.Background(), DownloadRequest{
		FileID:    "F123",
		ChannelID: "C123",
	})
	require.NoError(t, err)
	require.Nil(t, item)
	require.Equal(t, 0, resolver.calls)
}

func TestDownloadFileEmptyResolverResult(t *testing.T) {
	mux, _ := fileInfoMux(`{
		"id":"F123",
		"channels":["C123"],
		"url_private":"https://files.example.com/notes.txt"
	}`)

	d, resolver := newTestDispatcher(t, mux)

	item, err := d.DownloadFile(context.Background(), DownloadRequest{
		FileID:    "F123",
		ChannelID: "C123",
	})
	require.NoError(t, err)
	require.Nil(t, item)
	require.Equal(t, 1, resolver.calls)
}

func TestDownloadFileMetadataError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files.info", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"file_not_found"}`))
	})

	d, resolver := newTestDispatcher(t, mux)

	_, err := d.DownloadFile(context.Background(), DownloadRequest{
		FileID:    "F123",
		ChannelID: "C123",
	})
	require.Error(t, err)
	require.Equal(t, 0, resolver.calls)
}
