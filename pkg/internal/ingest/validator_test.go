package ingest_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/relayvault/pkg/internal/ingest"
)

func TestValidateRequest(t *testing.T) {
	req, err := ingest.ValidateRequest(body(t, map[string]any{
		"uploadFolder": "//trip//2024/",
		"channelName":  " backup ",
		"requestId":    "req-1",
	}, []map[string]any{
		{"name": "  a.jpg ", "contentBase64": "QUJD", "caption": "first"},
		{"name": "b.png", "mimeType": "image/png", "contentBase64": "REVG"},
	}), 10)
	require.NoError(t, err)

	assert.Equal(t, "trip/2024", req.Folder)
	assert.Equal(t, "backup", req.ChannelName)
	assert.Equal(t, "req-1", req.RequestID)
	require.Len(t, req.Files, 2)
	assert.Equal(t, "a.jpg", req.Files[0].Name)
	assert.Equal(t, "first", req.Files[0].Caption)
	assert.Equal(t, "image/png", req.Files[1].MimeTypeHint)
}

func TestValidateRequestRejects(t *testing.T) {
	two := func(first map[string]any) []map[string]any {
		return []map[string]any{first, {"name": "ok.jpg", "contentBase64": "QUJD"}}
	}
	ok := map[string]any{"name": "a.jpg", "contentBase64": "QUJD"}

	tests := []struct {
		name    string
		body    []byte
		wantMsg string
	}{
		{"not json", []byte("{"), "valid JSON"},
		{"files missing", []byte(`{}`), "files must be an array of 2 to 10 items"},
		{"files not array", []byte(`{"files":"x"}`), "files must be an array of 2 to 10 items"},
		{"no files", []byte(`{"files":[]}`), "got 0, min 2"},
		{"one file", body(t, nil, []map[string]any{ok}), "got 1, min 2"},
		{"too many", body(t, nil, images(11)), "got 11, max allowed 10"},
		{"request id empty", body(t, map[string]any{"requestId": "  "}, two(ok)), "requestId"},
		{"request id number", body(t, map[string]any{"requestId": 7}, two(ok)), "requestId"},
		{"request id too long", body(t, map[string]any{"requestId": strings.Repeat("r", 129)}, two(ok)), "requestId"},
		{"folder dotdot", body(t, map[string]any{"uploadFolder": "a/../b"}, two(ok)), "uploadFolder"},
		{"folder reserved", body(t, map[string]any{"uploadFolder": "a/manage@x"}, two(ok)), "reserved"},
		{"folder not string", body(t, map[string]any{"uploadFolder": 1}, two(ok)), "uploadFolder"},
		{"channel not string", body(t, map[string]any{"channelName": true}, two(ok)), "channelName"},
		{"file not object", []byte(`{"files":[1,2]}`), "files[0] must be an object"},
		{"name empty", body(t, nil, two(map[string]any{"name": " "})), "files[0].name is empty"},
		{"name missing", body(t, nil, two(map[string]any{"contentBase64": "QUJD"})), "files[0].name must be a string"},
		{"name dot", body(t, nil, two(map[string]any{"name": ".."})), "files[0].name must not be"},
		{"name separator", body(t, nil, two(map[string]any{"name": `a\b.jpg`})), "path separators"},
		{"name reserved", body(t, nil, two(map[string]any{"name": "manage@cfg"})), "reserved"},
		{"name too long", body(t, nil, two(map[string]any{"name": strings.Repeat("n", 256)})), "too long"},
		{"content not string", body(t, nil, two(map[string]any{"name": "a", "contentBase64": 1})), "contentBase64 must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ingest.ValidateRequest(tt.body, 10)
			require.Error(t, err)
			assert.Equal(t, ingest.CodeInvalidRequest, codeOf(err))
			assert.Contains(t, ingest.AsError(err).Message, tt.wantMsg)
		})
	}
}

func TestValidateRequestMaxFilesSetting(t *testing.T) {
	_, err := ingest.ValidateRequest(body(t, nil, images(4)), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 4, max allowed 3")

	_, err = ingest.ValidateRequest(body(t, nil, images(3)), 3)
	assert.NoError(t, err)
}

func TestNormalizeFolder(t *testing.T) {
	for in, want := range map[string]string{
		"":              "",
		"/":             "",
		"a":             "a",
		"///a//b///c//": "a/b/c",
		" photos/2024 ": "photos/2024",
	} {
		got, err := ingest.NormalizeFolder(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	got, err := ingest.NormalizeFolder(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
