package webhook_manager

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jirwin/slackbridge/pkg/slack_manager/client"
)

// maxSignatureAge bounds how old a signed request may be before it is
// rejected as a replay.
const maxSignatureAge = 5 * time.Minute

type Config struct {
	ListenAddress string
}

func NewConfig() (Config, error) {
	c := Config{}

	listenAddr := os.Getenv("SLACKBRIDGE_LISTEN_ADDR")
	if listenAddr == "" {
		return Config{}, fmt.Errorf("SLACKBRIDGE_LISTEN_ADDR must be set e.g. 0.0.0.0:8000")
	}
	c.ListenAddress = listenAddr

	return c, nil
}

type Manager interface {
	Run(ctx context.Context)
	RegisterRoute(route string, f http.HandlerFunc, methods []string, validateSlack bool)
}

type ManagerImpl struct {
	l           *zap.Logger
	c           Config
	slackConfig client.Config
	server      *http.Server

	router *mux.Router
}

func (m *ManagerImpl) Run(ctx context.Context) {
	m.server.Handler = m.router

	go func() {
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.l.Error("listen error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	m.l.Info("shutting down webhook server")
	// shut down gracefully, but wait no longer than 5 seconds before halting
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = m.server.Shutdown(ctx)
	m.l.Info("shut down webhook server")
}

func (m *ManagerImpl) RegisterRoute(path string, f http.HandlerFunc, methods []string, validateSlack bool) {
	handler := f
	if validateSlack {
		handler = m.ValidateSlackWebhook(f)
	}

	m.router.HandleFunc(path, handler).Methods(methods...)
	m.l.Info("registering route", zap.String("path", path), zap.Strings("methods", methods))
}

// ValidateSlackWebhook wraps a handler with Slack's signed secrets
// verification. The signature covers the raw body, so the body is
// re-buffered for the wrapped handler.
func (m *ManagerImpl) ValidateSlackWebhook(f http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			m.l.Error("error reading request body", zap.Error(err))
			rw.WriteHeader(http.StatusUnauthorized)
			return
		}
		r.Body = io.NopCloser(bytes.NewBuffer(body))

		ts := r.Header.Get("X-Slack-Request-Timestamp")
		signature := r.Header.Get("X-Slack-Signature")

		tsVal, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			m.l.Warn("missing or malformed request timestamp")
			rw.WriteHeader(http.StatusUnauthorized)
			return
		}

		age := time.Since(time.Unix(tsVal, 0))
		if age > maxSignatureAge || age < -maxSignatureAge {
			m.l.Warn("request timestamp outside of signing window", zap.String("timestamp", ts))
			rw.WriteHeader(http.StatusUnauthorized)
			return
		}

		base := fmt.Sprintf("v0:%s:%s", ts, body)
		h := hmac.New(sha256.New, []byte(m.slackConfig.SigningSecret))
		h.Write([]byte(base))
		expected := "v0=" + hex.EncodeToString(h.Sum(nil))

		if !hmac.Equal([]byte(signature), []byte(expected)) {
			m.l.Warn("invalid request signature")
			rw.WriteHeader(http.StatusUnauthorized)
			return
		}

		f(rw, r)
	}
}

func New(c Config, l *zap.Logger, slackConfig client.Config) (*ManagerImpl, error) {
	router := mux.NewRouter()
	m := &ManagerImpl{
		l:           l.Named("webhook-manager"),
		c:           c,
		slackConfig: slackConfig,
		router:      router,
		server: &http.Server{
			Addr:    c.ListenAddress,
			Handler: router,
		},
	}

	return m, nil
}
