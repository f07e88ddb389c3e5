package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/jirwin/slackbridge/pkg/data_store"
	"github.com/jirwin/slackbridge/pkg/data_store/boltdb"
)

// defaultMaxBytes caps transfers when the caller does not supply a limit.
const defaultMaxBytes = int64(1 << 30)

// downloadsBucket indexes every stored file for later cleanup.
const downloadsBucket = "downloads"

type Config struct {
	Dir string
}

func NewConfig() (Config, error) {
	c := Config{}

	dir := os.Getenv("SLACKBRIDGE_MEDIA_DIR")
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "slackbridge-media")
	}
	c.Dir = dir

	return c, nil
}

// Request asks for the byte transfer of one or more files. Token is the
// bearer credential for the private URLs. MaxBytes bounds each transfer;
// zero or negative means the default cap.
type Request struct {
	Files    []slack.File
	Token    string
	MaxBytes int64
}

// Item is one resolved file. Placeholder marks files that exceeded the byte
// cap and were not stored.
type Item struct {
	FileID      string
	Path        string
	ContentType string
	Placeholder bool
}

type Resolver interface {
	Resolve(ctx context.Context, req Request) ([]Item, error)
}

type ResolverImpl struct {
	c          Config
	l          *zap.Logger
	httpClient *http.Client
	store      boltdb.Store
}

// Resolve fetches each requested file to local storage. Files without a
// private URL are skipped. A fetch failure skips that file; the first
// failure is returned only when nothing at all resolved.
func (r *ResolverImpl) Resolve(ctx context.Context, req Request) ([]Item, error) {
	maxBytes := req.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	var items []Item
	var firstErr error
	for _, f := range req.Files {
		item, err := r.fetch(ctx, f, req.Token, maxBytes)
		if err != nil {
			r.l.Warn("unable to fetch file", zap.String("file_id", f.ID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if item == nil {
			continue
		}
		items = append(items, *item)
	}

	if len(items) == 0 && firstErr != nil {
		return nil, firstErr
	}

	return items, nil
}

func (r *ResolverImpl) fetch(ctx context.Context, f slack.File, token string, maxBytes int64) (*Item, error) {
	url := f.URLPrivateDownload
	if url == "" {
		url = f.URLPrivate
	}
	if url == "" {
		return nil, nil
	}

	if int64(f.Size) > maxBytes {
		r.l.Info("file exceeds byte cap, returning placeholder",
			zap.String("file_id", f.ID),
			zap.Int("size", f.Size),
			zap.Int64("max_bytes", maxBytes),
		)
		return &Item{FileID: f.ID, ContentType: f.Mimetype, Placeholder: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching file %s: unexpected status %d", f.ID, resp.StatusCode)
	}

	head := make([]byte, 512)
	n, _ := io.ReadFull(resp.Body, head)
	head = head[:n]

	path := filepath.Join(r.c.Dir, uuid.NewV4().String()+safeExt(f.Name))
	out, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	body := io.MultiReader(bytes.NewReader(head), resp.Body)
	written, err := io.Copy(out, io.LimitReader(body, maxBytes+1))
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	contentType := resolveContentType(resp.Header.Get("Content-Type"), f.Mimetype, head)

	if written > maxBytes {
		os.Remove(path)
		r.l.Info("file exceeds byte cap mid transfer, returning placeholder",
			zap.String("file_id", f.ID),
			zap.Int64("max_bytes", maxBytes),
		)
		return &Item{FileID: f.ID, ContentType: contentType, Placeholder: true}, nil
	}

	item := &Item{
		FileID:      f.ID,
		Path:        path,
		ContentType: contentType,
	}
	r.record(item, written)

	return item, nil
}

type downloadRecord struct {
	FileID      string    `json:"file_id"`
	Path        string    `json:"path"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	FetchedAt   time.Time `json:"fetched_at"`
}

func (r *ResolverImpl) record(item *Item, size int64) {
	rec := downloadRecord{
		FileID:      item.FileID,
		Path:        item.Path,
		ContentType: item.ContentType,
		Size:        size,
		FetchedAt:   time.Now().UTC(),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return
	}

	if err := r.store.Update(filepath.Base(item.Path), data); err != nil {
		r.l.Warn("unable to record download", zap.String("file_id", item.FileID), zap.Error(err))
	}
}

func resolveContentType(header, mimetype string, head []byte) string {
	if header != "" && header != "application/octet-stream" {
		return header
	}
	if mimetype != "" {
		return mimetype
	}
	if len(head) > 0 {
		return http.DetectContentType(head)
	}
	return "application/octet-stream"
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,9}$`)

// safeExt keeps the original extension when it is boring enough to trust.
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if extPattern.MatchString(ext) {
		return ext
	}
	return ""
}

func New(c Config, l *zap.Logger, dataStore data_store.DataStore) (*ResolverImpl, error) {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return nil, err
	}

	if err := dataStore.InitBucket(downloadsBucket); err != nil {
		return nil, err
	}

	r := &ResolverImpl{
		c:          c,
		l:          l.Named("media-resolver"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		store:      dataStore.GetStore(downloadsBucket),
	}

	return r, nil
}
