package ingest_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/internal/ingest"
	"github.com/yeisme/relayvault/pkg/internal/mock"
	"github.com/yeisme/relayvault/pkg/internal/relay"
)

var primary = relay.Target{BotToken: "T1", ChatID: "-100"}

type fixture struct {
	relay    *mock.MockRelay
	store    *countingStore
	config   *fakeConfig
	notifier *fakeNotifier
	bg       *ingest.Background
	orch     *ingest.Orchestrator
}

func newFixture(t *testing.T, opts ...func(*ingest.Deps)) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := &fixture{
		relay:    mock.NewMockRelay(ctrl),
		store:    newStore(t),
		config:   defaultConfig(),
		notifier: &fakeNotifier{},
		bg:       ingest.NewBackground(4, time.Second),
	}

	deps := ingest.Deps{
		Relay:      f.relay,
		Store:      f.store,
		Config:     f.config,
		Types:      fakeTypes{},
		IDs:        &fakeIDs{},
		Notifier:   f.notifier,
		Background: f.bg,
		Now:        func() time.Time { return time.UnixMilli(1700000000000) },
	}

	for _, opt := range opts {
		opt(&deps)
	}

	f.orch = ingest.NewOrchestrator(deps)

	return f
}

// expectRelay 期望一次发送以及每个文件一次路径解析.
func (f *fixture) expectRelay(t *testing.T, n int, res *relay.RawResult) {
	t.Helper()

	f.relay.EXPECT().SendBatch(gomock.Any(), primary, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ relay.Target, att []relay.Attachment, media []relay.MediaDescriptor) (*relay.RawResult, error) {
			assert.Len(t, att, n)
			assert.Len(t, media, n)

			return res, nil
		}).Times(1)

	f.relay.EXPECT().ResolveFilePath(gomock.Any(), primary, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ relay.Target, id string) (string, error) {
			return "photos/" + id + ".jpg", nil
		}).Times(n)
}

func (f *fixture) submit(t *testing.T, b []byte) (*ingest.Result, error) {
	t.Helper()

	return f.orch.Submit(context.Background(), ingest.Submission{Body: b, ClientIP: "203.0.113.9"})
}

func TestSubmitThreeImages(t *testing.T) {
	f := newFixture(t, func(d *ingest.Deps) { d.Locator = fakeLocator("Tokyo, JP") })

	f.relay.EXPECT().SendBatch(gomock.Any(), primary, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ relay.Target, att []relay.Attachment, media []relay.MediaDescriptor) (*relay.RawResult, error) {
			require.Len(t, att, 3)

			for i, a := range att {
				assert.Equal(t, media[i].Media, relay.AttachRef(a.Key))
				assert.Equal(t, "photo", media[i].Type)
				assert.Equal(t, "image/jpeg", a.MimeType)
			}

			assert.Equal(t, "img1.jpg", att[1].FileName)
			assert.Equal(t, []byte("jpeg-bytes-2"), att[2].Data)

			return photoResult(3, "group-9"), nil
		}).Times(1)
	f.relay.EXPECT().ResolveFilePath(gomock.Any(), primary, gomock.Any()).Return("photos/x.jpg", nil).Times(3)

	res, err := f.submit(t, body(t, map[string]any{"uploadFolder": "/trip//2024/"}, images(3)))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.False(t, res.Idempotent)
	assert.Empty(t, res.RequestID)
	assert.Equal(t, "primary", res.ChannelName)
	assert.Equal(t, "group-9", res.MediaGroupID)
	require.Len(t, res.Files, 3)
	assert.Equal(t, int64(3), f.store.sets.Load())

	for i, rf := range res.Files {
		assert.Equal(t, images(3)[i]["name"], rf.Name)
		assert.Equal(t, int64(500+i), rf.MessageID)
		assert.Equal(t, ingest.StoragePath(rf.StorageID), rf.StoragePath)

		rec := f.store.record(t, rf.StorageID)
		assert.Equal(t, rf.Name, rec.FileName)
		assert.Equal(t, "trip/2024/", rec.Directory)
		assert.Equal(t, int64(1000+i), rec.SizeBytes)
		assert.Equal(t, "primary", rec.ChannelName)
		assert.Equal(t, "-100", rec.UpstreamChatID)
		assert.Equal(t, "group-9", rec.UpstreamMediaGroupID)
		assert.Equal(t, "203.0.113.9", rec.UploaderIP)
		assert.Equal(t, "Tokyo, JP", rec.UploaderLocation)
		assert.Equal(t, int64(1700000000000), rec.Timestamp)
		assert.Equal(t, "None", rec.Label)
	}

	assert.Equal(t, "fid-0", f.store.record(t, res.Files[0].StorageID).UpstreamFileID)

	require.NoError(t, f.bg.Shutdown(context.Background()))
	assert.Len(t, f.notifier.stored, 3)
}

func TestSubmitFileCountBoundsNeverReachRelay(t *testing.T) {
	f := newFixture(t)

	for _, n := range []int{0, 1, 11} {
		_, err := f.submit(t, body(t, nil, images(n)))
		require.Error(t, err, n)

		e := ingest.AsError(err)
		assert.Equal(t, ingest.CodeInvalidRequest, e.Code)
		assert.Equal(t, http.StatusBadRequest, e.Status)
		assert.Equal(t, ingest.StageValidating, e.Stage)
	}

	f.config.upload.Limits.MaxFiles = 3
	_, err := f.submit(t, body(t, nil, images(4)))
	assert.Equal(t, ingest.CodeInvalidRequest, codeOf(err))

	assert.Zero(t, f.store.sets.Load())
}

func TestSubmitIdempotentReplay(t *testing.T) {
	f := newFixture(t)
	f.expectRelay(t, 2, photoResult(2, "g"))

	b := body(t, map[string]any{"requestId": "req-42"}, images(2))

	first, err := f.submit(t, b)
	require.NoError(t, err)
	assert.Equal(t, "req-42", first.RequestID)

	writes := f.store.sets.Load()
	assert.Equal(t, int64(3), writes)

	second, err := f.submit(t, b)
	require.NoError(t, err)
	assert.True(t, second.Idempotent)
	assert.Equal(t, writes, f.store.sets.Load())

	second.Idempotent = false
	assert.Equal(t, first, second)
}

func TestSubmitCorruptIdempotencyRecordIsTreatedAsNew(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.KVStore.Set(context.Background(), ingest.IdempotencyKey("req-7"), []byte("garbage"), 0))

	f.expectRelay(t, 2, photoResult(2, "g"))

	res, err := f.submit(t, body(t, map[string]any{"requestId": "req-7"}, images(2)))
	require.NoError(t, err)
	assert.False(t, res.Idempotent)
	assert.Equal(t, int64(1), f.store.deletes.Load())

	hit, err := ingest.NewGuard(f.store).Lookup(context.Background(), "req-7")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Len(t, hit.Files, 2)
}

func TestSubmitIdempotencyStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.getErr = errStoreDown

	_, err := f.submit(t, body(t, map[string]any{"requestId": "req-1"}, images(2)))
	assert.Equal(t, ingest.CodeInternal, codeOf(err))
	assert.Equal(t, ingest.StageDeduping, ingest.AsError(err).Stage)
}

func TestSubmitMixedAudioDocument(t *testing.T) {
	f := newFixture(t)

	_, err := f.submit(t, body(t, nil, []map[string]any{
		file("song.mp3", "", []byte("mp3")),
		file("notes.pdf", "", []byte("pdf")),
	}))
	require.Error(t, err)
	assert.Equal(t, ingest.CodeInvalidRequest, codeOf(err))
	assert.Equal(t, ingest.StagePreparing, ingest.AsError(err).Stage)
	assert.Zero(t, f.store.sets.Load())
}

func TestSubmitTotalSizeOverflowWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.config.upload.Limits.MaxTotalSize = 30
	f.config.upload.Limits.MaxSingleFileSize = 20

	_, err := f.submit(t, body(t, nil, []map[string]any{
		file("a.jpg", "", make([]byte, 10)),
		file("b.jpg", "", make([]byte, 10)),
		file("c.jpg", "", make([]byte, 11)),
	}))
	require.Error(t, err)
	assert.Equal(t, ingest.CodeInvalidRequest, codeOf(err))
	assert.Zero(t, f.store.sets.Load())
}

func TestSubmitChannelNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.submit(t, body(t, map[string]any{"channelName": "missing"}, images(2)))
	assert.Equal(t, ingest.CodeChannelNotFound, codeOf(err))
	assert.Equal(t, ingest.StageSelecting, ingest.AsError(err).Stage)
}

func TestSubmitResultShortfall(t *testing.T) {
	f := newFixture(t)
	f.relay.EXPECT().SendBatch(gomock.Any(), primary, gomock.Any(), gomock.Any()).Return(photoResult(2, "g"), nil)

	_, err := f.submit(t, body(t, map[string]any{"requestId": "req-s"}, images(3)))
	require.Error(t, err)

	e := ingest.AsError(err)
	assert.Equal(t, ingest.CodeUpstream, e.Code)
	assert.Equal(t, http.StatusBadGateway, e.Status)
	assert.Contains(t, e.Message, "unexpected media group result count")
	assert.NotNil(t, e.Details)
	assert.Zero(t, f.store.sets.Load())
}

func TestSubmitMissingFileID(t *testing.T) {
	f := newFixture(t)

	res := photoResult(2, "g")
	res.Result[1].Photo = []relay.FileObject{{FileUniqueID: "u", FileSize: 4}}

	f.relay.EXPECT().SendBatch(gomock.Any(), primary, gomock.Any(), gomock.Any()).Return(res, nil)
	f.relay.EXPECT().ResolveFilePath(gomock.Any(), primary, "fid-0").Return("p", nil).MaxTimes(1)

	_, err := f.submit(t, body(t, nil, images(2)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "media index 1")
	assert.Zero(t, f.store.sets.Load())
}

func TestSubmitPathResolutionFailure(t *testing.T) {
	f := newFixture(t)
	f.relay.EXPECT().SendBatch(gomock.Any(), primary, gomock.Any(), gomock.Any()).Return(photoResult(2, "g"), nil)
	f.relay.EXPECT().ResolveFilePath(gomock.Any(), primary, "fid-0").Return("", relay.ErrFilePathNotFound)

	_, err := f.submit(t, body(t, nil, images(2)))
	assert.Equal(t, ingest.CodeUpstream, codeOf(err))
	assert.ErrorIs(t, err, relay.ErrFilePathNotFound)
	assert.Zero(t, f.store.sets.Load())
}

func TestSubmitUpstreamFailures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   ingest.Code
		wantStatus int
		wantRetry  time.Duration
	}{
		{
			name:       "rate limited",
			err:        &relay.UpstreamError{Status: 429, ErrorCode: 429, Description: "Too Many Requests", RetryAfter: 5 * time.Second},
			wantCode:   ingest.CodeRateLimit,
			wantStatus: http.StatusTooManyRequests,
			wantRetry:  5 * time.Second,
		},
		{
			name:       "bad request",
			err:        &relay.UpstreamError{Status: 400, ErrorCode: 400, Description: "chat not found", Payload: map[string]any{"ok": false}},
			wantCode:   ingest.CodeUpstream,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "transport",
			err:        context.DeadlineExceeded,
			wantCode:   ingest.CodeUpstream,
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.relay.EXPECT().SendBatch(gomock.Any(), primary, gomock.Any(), gomock.Any()).Return(nil, tt.err)

			_, err := f.submit(t, body(t, map[string]any{"requestId": "r"}, images(2)))
			require.Error(t, err)

			e := ingest.AsError(err)
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, tt.wantStatus, e.Status)
			assert.Equal(t, tt.wantRetry, e.RetryAfter)
			assert.Equal(t, ingest.StageRelaying, e.Stage)
			assert.Zero(t, f.store.sets.Load())
		})
	}
}

func TestSubmitModerationBackfill(t *testing.T) {
	mod := &fakeModerator{label: "adult", urls: make(chan string, 2)}
	f := newFixture(t, func(d *ingest.Deps) { d.Moderator = mod })
	f.config.security.ModerationEnabled = true

	f.expectRelay(t, 2, photoResult(2, "g"))
	f.relay.EXPECT().FileURL(primary, gomock.Any()).DoAndReturn(func(_ relay.Target, p string) string {
		return "https://upstream/" + p
	}).Times(2)

	res, err := f.submit(t, body(t, nil, images(2)))
	require.NoError(t, err)
	require.NoError(t, f.bg.Shutdown(context.Background()))

	assert.Len(t, mod.urls, 2)

	for _, rf := range res.Files {
		assert.Equal(t, "adult", f.store.record(t, rf.StorageID).Label)
		assert.Equal(t, "adult", f.notifier.moderated[rf.StorageID])
	}
}

func TestSubmitModerationFailureKeepsDefaultLabel(t *testing.T) {
	mod := &fakeModerator{err: errStoreDown}
	f := newFixture(t, func(d *ingest.Deps) { d.Moderator = mod })
	f.config.security.ModerationEnabled = true

	f.expectRelay(t, 2, photoResult(2, "g"))
	f.relay.EXPECT().FileURL(primary, gomock.Any()).Return("https://upstream/x").Times(2)

	res, err := f.submit(t, body(t, nil, images(2)))
	require.NoError(t, err)
	require.NoError(t, f.bg.Shutdown(context.Background()))

	assert.Equal(t, "None", f.store.record(t, res.Files[0].StorageID).Label)
	assert.Empty(t, f.notifier.moderated)
}

func TestStoragePathEscapesSegments(t *testing.T) {
	assert.Equal(t, "/file/a%20b/c%3Fd.jpg", ingest.StoragePath("a b/c?d.jpg"))
}

func TestSubmitCallerCancelDoesNotAbortRelay(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.relay.EXPECT().SendBatch(gomock.Any(), primary, gomock.Any(), gomock.Any()).
		DoAndReturn(func(sendCtx context.Context, _ relay.Target, _ []relay.Attachment, _ []relay.MediaDescriptor) (*relay.RawResult, error) {
			// 客户端在上游调用途中断开
			cancel()
			assert.NoError(t, sendCtx.Err())

			return photoResult(2, "g"), nil
		}).Times(1)
	f.relay.EXPECT().ResolveFilePath(gomock.Any(), primary, gomock.Any()).
		DoAndReturn(func(pathCtx context.Context, _ relay.Target, id string) (string, error) {
			assert.NoError(t, pathCtx.Err())

			return "photos/" + id + ".jpg", nil
		}).Times(2)

	res, err := f.orch.Submit(ctx, ingest.Submission{Body: body(t, nil, images(2))})
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.Equal(t, int64(2), f.store.sets.Load())
	assert.Error(t, ctx.Err())
}

// slowUpstream 发送接口延迟返回，模拟上游处理耗时.
func slowUpstream(t *testing.T, token string, delay time.Duration) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/bot"+token+"/sendMediaGroup", func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(delay)

		msgs := make([]string, 2)
		for i := range msgs {
			msgs[i] = fmt.Sprintf(`{"message_id":%d,"media_group_id":"g","photo":[{"file_id":"fid-%d","file_size":4}]}`, 10+i, i)
		}

		_, _ = io.WriteString(w, `{"ok":true,"result":[`+strings.Join(msgs, ",")+`]}`)
	})
	mux.HandleFunc("/bot"+token+"/getFile", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"ok":true,"result":{"file_path":"photos/%s.jpg"}}`, r.URL.Query().Get("file_id"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestSubmitDeadlineDuringRelayStillPersists(t *testing.T) {
	srv := slowUpstream(t, "T1", 300*time.Millisecond)

	f := newFixture(t, func(d *ingest.Deps) {
		d.Relay = relay.New(configs.RelayConfig{APIBase: srv.URL})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := f.orch.Submit(ctx, ingest.Submission{Body: body(t, nil, images(2))})
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.Equal(t, int64(2), f.store.sets.Load())
	assert.Equal(t, "fid-1", f.store.record(t, res.Files[1].StorageID).UpstreamFileID)
}

func TestSubmitTransportFailureHidesBotToken(t *testing.T) {
	const secret = "123456:SECRET-BOT-TOKEN"

	f := newFixture(t, func(d *ingest.Deps) {
		d.Relay = relay.New(configs.RelayConfig{APIBase: "http://127.0.0.1:1", Timeout: 2 * time.Second})
	})
	f.config.upload.Channels = []ingest.Channel{{Name: "primary", BotToken: secret, ChatID: "-100"}}

	_, err := f.submit(t, body(t, nil, images(2)))
	require.Error(t, err)

	e := ingest.AsError(err)
	assert.Equal(t, ingest.CodeUpstream, e.Code)
	assert.Equal(t, http.StatusBadGateway, e.Status)
	assert.NotContains(t, e.Message, secret)
	assert.NotContains(t, e.Error(), secret)
	assert.Zero(t, f.store.sets.Load())
}
