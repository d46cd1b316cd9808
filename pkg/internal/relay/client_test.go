package relay_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/internal/relay"
)

const token = "123:abc"

func newClient(t *testing.T, h http.HandlerFunc) (*relay.Client, relay.Target) {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := relay.New(configs.RelayConfig{APIBase: "https://api.invalid", Timeout: 5 * time.Second})

	return c, relay.Target{BotToken: token, ChatID: "-100200", ProxyURL: srv.URL}
}

func TestSendBatch(t *testing.T) {
	c, target := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot"+token+"/sendMediaGroup", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		assert.Equal(t, "-100200", r.FormValue("chat_id"))

		var media []relay.MediaDescriptor
		assert.NoError(t, sonic.UnmarshalString(r.FormValue("media"), &media))

		if !assert.Len(t, media, 2) {
			return
		}
		assert.Equal(t, "attach://file_0", media[0].Media)
		assert.Equal(t, "hello", media[0].Caption)

		f, hdr, err := r.FormFile("file_1")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()

		body, _ := io.ReadAll(f)
		assert.Equal(t, "b.jpg", hdr.Filename)
		assert.Equal(t, []byte("BBB"), body)

		_, _ = io.WriteString(w, `{"ok":true,"result":[
			{"message_id":10,"media_group_id":"g1","photo":[
				{"file_id":"small","file_unique_id":"u1","file_size":10},
				{"file_id":"large","file_unique_id":"u2","file_size":300},
				{"file_id":"mid","file_unique_id":"u3","file_size":200}]},
			{"message_id":11,"media_group_id":"g1","photo":[{"file_id":"p2","file_unique_id":"u4","file_size":3}]}
		]}`)
	})

	res, err := c.SendBatch(context.Background(), target,
		[]relay.Attachment{
			{Key: "file_0", FileName: "a.jpg", MimeType: "image/jpeg", Data: []byte("AAA")},
			{Key: "file_1", FileName: "b.jpg", MimeType: "image/jpeg", Data: []byte("BBB")},
		},
		[]relay.MediaDescriptor{
			{Type: "photo", Media: relay.AttachRef("file_0"), Caption: "hello"},
			{Type: "photo", Media: relay.AttachRef("file_1")},
		})
	require.NoError(t, err)

	infos := relay.ExtractBatchFileInfos(res)
	require.Len(t, infos, 2)
	assert.Equal(t, "large", infos[0].ID)
	assert.Equal(t, int64(300), infos[0].SizeBytes)
	assert.Equal(t, "u2", infos[0].Name)
	assert.Equal(t, int64(10), infos[0].MessageID)
	assert.Equal(t, "g1", infos[1].GroupID)
	assert.Equal(t, relay.MediaPhoto, infos[1].Kind)
}

func TestSendBatchRateLimited(t *testing.T) {
	c, target := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 7","parameters":{"retry_after":7}}`)
	})

	_, err := c.SendBatch(context.Background(), target, nil, nil)

	var ue *relay.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.True(t, ue.RateLimited())
	assert.Equal(t, 7*time.Second, ue.RetryAfter)
	assert.Equal(t, "Too Many Requests: retry after 7", ue.Description)
}

func TestSendBatchUpstreamError(t *testing.T) {
	c, target := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	})

	_, err := c.SendBatch(context.Background(), target, nil, nil)

	var ue *relay.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.False(t, ue.RateLimited())
	assert.Equal(t, http.StatusBadRequest, ue.Status)
	assert.NotNil(t, ue.Payload)
	assert.Contains(t, ue.Error(), "chat not found")
}

func TestSendBatchNonJSONError(t *testing.T) {
	c, target := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, "slow down")
	})

	_, err := c.SendBatch(context.Background(), target, nil, nil)

	var ue *relay.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 3*time.Second, ue.RetryAfter)
	assert.Nil(t, ue.Payload)
}

func TestResolveFilePath(t *testing.T) {
	c, target := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot"+token+"/getFile", r.URL.Path)

		if r.URL.Query().Get("file_id") == "known" {
			_, _ = io.WriteString(w, `{"ok":true,"result":{"file_id":"known","file_path":"photos/file_1.jpg"}}`)

			return
		}

		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"description":"Bad Request: invalid file_id"}`)
	})

	path, err := c.ResolveFilePath(context.Background(), target, "known")
	require.NoError(t, err)
	assert.Equal(t, "photos/file_1.jpg", path)

	_, err = c.ResolveFilePath(context.Background(), target, "gone")
	assert.ErrorIs(t, err, relay.ErrFilePathNotFound)
}

func TestDownloadFile(t *testing.T) {
	c, target := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/file/bot"+token+"/photos/file_1.jpg" {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = io.WriteString(w, "jpegbytes")
	})

	dl, err := c.DownloadFile(context.Background(), target, "photos/file_1.jpg", "")
	require.NoError(t, err)

	defer dl.Body.Close()

	body, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "jpegbytes", string(body))
	assert.Equal(t, "image/jpeg", dl.ContentType)
	assert.Equal(t, http.StatusOK, dl.Status)

	_, err = c.DownloadFile(context.Background(), target, "missing", "")

	var ue *relay.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusNotFound, ue.Status)
}

func TestDownloadFileRange(t *testing.T) {
	content := strings.NewReader("0123456789")

	c, target := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		http.ServeContent(w, r, "", time.Time{}, content)
	})

	dl, err := c.DownloadFile(context.Background(), target, "music/a.mp3", "bytes=2-5")
	require.NoError(t, err)

	defer dl.Body.Close()

	body, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "2345", string(body))
	assert.Equal(t, http.StatusPartialContent, dl.Status)
	assert.Equal(t, "bytes 2-5/10", dl.ContentRange)
	assert.Equal(t, "bytes", dl.AcceptRanges)
	assert.EqualValues(t, 4, dl.ContentLength)

	_, err = c.DownloadFile(context.Background(), target, "music/a.mp3", "bytes=50-60")

	var ue *relay.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.True(t, ue.RangeNotSatisfiable())
	assert.Equal(t, map[string]string{"contentRange": "bytes */10"}, ue.Payload)
}

func TestTransportErrorHidesToken(t *testing.T) {
	const secret = "123456:SECRET-BOT-TOKEN"

	// 端口 1 没有监听，连接会被拒绝
	c := relay.New(configs.RelayConfig{APIBase: "http://127.0.0.1:1", Timeout: 2 * time.Second})
	target := relay.Target{BotToken: secret, ChatID: "-100"}

	_, err := c.SendBatch(context.Background(), target,
		[]relay.Attachment{{Key: "file_0", FileName: "a.jpg", MimeType: "image/jpeg", Data: []byte("A")}},
		[]relay.MediaDescriptor{{Type: "photo", Media: relay.AttachRef("file_0")}})
	require.Error(t, err)

	var ue *relay.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Zero(t, ue.Status)
	assert.NotContains(t, ue.Description, secret)
	assert.NotContains(t, ue.Error(), secret)
	assert.NotContains(t, ue.Err.Error(), secret)

	_, err = c.ResolveFilePath(context.Background(), target, "fid")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), secret)

	_, err = c.DownloadFile(context.Background(), target, "photos/a.jpg", "")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), secret)
}

func TestRedact(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{
			`Post "https://api.telegram.org/bot123:abc/sendMediaGroup": EOF`,
			`Post "https://api.telegram.org/bot<redacted>/sendMediaGroup": EOF`,
		},
		{
			"GET https://tg.example.com/file/bot123:abc/photos/a.jpg",
			"GET https://tg.example.com/file/bot<redacted>/photos/a.jpg",
		},
		{"dial tcp 127.0.0.1:1: connect: connection refused", "dial tcp 127.0.0.1:1: connect: connection refused"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, relay.Redact(tt.in))
	}
}

func TestFileURLProxyWithoutScheme(t *testing.T) {
	c := relay.New(configs.RelayConfig{})

	assert.Equal(t, "https://tg.example.com/file/botT/docs/a.pdf",
		c.FileURL(relay.Target{BotToken: "T", ProxyURL: "tg.example.com/"}, "docs/a.pdf"))
	assert.Equal(t, configs.DefaultRelayAPIBase+"/file/botT/x",
		c.FileURL(relay.Target{BotToken: "T"}, "/x"))
}

func TestExtractBatchFileInfos(t *testing.T) {
	res := &relay.RawResult{OK: true, Result: []relay.Message{
		{MessageID: 1, Document: &relay.FileObject{FileID: "d1", FileName: "a.pdf", FileSize: 5}},
		{MessageID: 2},
		{MessageID: 3, Audio: &relay.FileObject{FileUniqueID: "au"}},
		{MessageID: 4, Video: &relay.FileObject{FileID: "v"}, Document: &relay.FileObject{FileID: "ignored"}},
	}}

	infos := relay.ExtractBatchFileInfos(res)
	require.Len(t, infos, 3)

	assert.Equal(t, "a.pdf", infos[0].Name)
	assert.Equal(t, relay.MediaDocument, infos[0].Kind)
	assert.Empty(t, infos[1].ID)
	assert.Equal(t, "au", infos[1].Name)
	assert.Equal(t, relay.MediaVideo, infos[2].Kind)
	assert.Equal(t, "v", infos[2].ID)

	assert.Nil(t, relay.ExtractBatchFileInfos(&relay.RawResult{OK: false}))
	assert.Nil(t, relay.ExtractBatchFileInfos(nil))
}
