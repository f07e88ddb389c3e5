package client

import (
	"bytes"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// HttpClient is the transport handed to the slack client. It re-buffers
// response bodies so payloads can be traced without starving the caller.
type HttpClient struct {
	l *zap.Logger
	c Config
}

func (h *HttpClient) Do(req *http.Request) (*http.Response, error) {
	client := &http.Client{}
	r, err := client.Do(req)
	if r != nil {
		data, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewBuffer(data))

		if h.c.RequestTracing {
			h.l.Debug("request complete", zap.String("payload", string(data)))
		}
	}
	return r, err
}

func NewHttpClient(l *zap.Logger, c Config) *HttpClient {
	return &HttpClient{
		l: l.Named("slack-http"),
		c: c,
	}
}
