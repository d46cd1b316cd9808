package ingest_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/internal/ingest"
	"github.com/yeisme/relayvault/pkg/internal/model"
	"github.com/yeisme/relayvault/pkg/internal/relay"
	"github.com/yeisme/relayvault/pkg/internal/storage/kv"
)

type fakeTypes struct{}

func (fakeTypes) Resolve(hint, name string, _ []byte) string {
	if hint != "" {
		return hint
	}

	switch path.Ext(name) {
	case ".jpg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".mp3":
		return "audio/mpeg"
	case ".mp4":
		return "video/mp4"
	case ".pdf":
		return "application/pdf"
	default:
		return ""
	}
}

type fakeIDs struct{ n atomic.Int64 }

func (f *fakeIDs) Build(name, _ string) (string, error) {
	return fmt.Sprintf("id%02d_%s", f.n.Add(1), name), nil
}

type fakeConfig struct {
	upload   ingest.UploadSettings
	security ingest.SecuritySettings
}

func (f *fakeConfig) UploadSettings(context.Context) (ingest.UploadSettings, error) {
	return f.upload, nil
}

func (f *fakeConfig) SecuritySettings(context.Context) (ingest.SecuritySettings, error) {
	return f.security, nil
}

func defaultConfig() *fakeConfig {
	return &fakeConfig{upload: ingest.UploadSettings{
		Limits: (&configs.UploadConfig{}).Limits(),
		Channels: []ingest.Channel{
			{Name: "primary", BotToken: "T1", ChatID: "-100"},
			{Name: "backup", BotToken: "T2", ChatID: "-200", ProxyURL: "tg.example.com"},
		},
	}}
}

// countingStore 统计写入次数的内存存储.
type countingStore struct {
	kv.KVStore
	sets    atomic.Int64
	deletes atomic.Int64
	getErr  error
}

func newStore(t *testing.T) *countingStore {
	t.Helper()

	mem, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	return &countingStore{KVStore: mem}
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}

	return s.KVStore.Get(ctx, key)
}

func (s *countingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.sets.Add(1)

	return s.KVStore.Set(ctx, key, value, ttl)
}

func (s *countingStore) Delete(ctx context.Context, key string) error {
	s.deletes.Add(1)

	return s.KVStore.Delete(ctx, key)
}

func (s *countingStore) record(t *testing.T, id string) *model.FileRecord {
	t.Helper()

	raw, err := s.KVStore.Get(context.Background(), id)
	require.NoError(t, err)

	rec, err := model.DecodeFileRecord(raw)
	require.NoError(t, err)

	return rec
}

type fakeModerator struct {
	label string
	err   error
	urls  chan string
}

func (m *fakeModerator) Score(_ context.Context, url string) (string, error) {
	if m.urls != nil {
		m.urls <- url
	}

	return m.label, m.err
}

type fakeNotifier struct {
	mu        sync.Mutex
	stored    []ingest.StoredEvent
	moderated map[string]string
}

func (n *fakeNotifier) FileStored(_ context.Context, ev ingest.StoredEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.stored = append(n.stored, ev)

	return nil
}

func (n *fakeNotifier) FileModerated(_ context.Context, id, label string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.moderated == nil {
		n.moderated = map[string]string{}
	}

	n.moderated[id] = label

	return nil
}

type fakeLocator string

func (l fakeLocator) Locate(context.Context, string) string { return string(l) }

var errStoreDown = errors.New("store down")

func file(name, mime string, data []byte) map[string]any {
	f := map[string]any{
		"name":          name,
		"contentBase64": base64.StdEncoding.EncodeToString(data),
	}
	if mime != "" {
		f["mimeType"] = mime
	}

	return f
}

func images(n int) []map[string]any {
	files := make([]map[string]any, n)
	for i := range files {
		files[i] = file(fmt.Sprintf("img%d.jpg", i), "", []byte(fmt.Sprintf("jpeg-bytes-%d", i)))
	}

	return files
}

func body(t *testing.T, extra map[string]any, files []map[string]any) []byte {
	t.Helper()

	req := map[string]any{"files": files}
	for k, v := range extra {
		req[k] = v
	}

	b, err := sonic.Marshal(req)
	require.NoError(t, err)

	return b
}

func photoResult(n int, group string) *relay.RawResult {
	res := &relay.RawResult{OK: true}
	for i := range n {
		res.Result = append(res.Result, relay.Message{
			MessageID:    int64(500 + i),
			MediaGroupID: group,
			Photo: []relay.FileObject{
				{FileID: fmt.Sprintf("thumb-%d", i), FileSize: 10},
				{FileID: fmt.Sprintf("fid-%d", i), FileSize: int64(1000 + i)},
			},
		})
	}

	return res
}

func codeOf(err error) ingest.Code {
	if e := ingest.AsError(err); e != nil {
		return e.Code
	}

	return ""
}
