package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/rule"
)

const (
	MaxRequestIDLen = 128
	MaxFileNameLen  = 255
)

// wireRequest 原始请求体，字段先按 any 解出再逐一检查类型.
type wireRequest struct {
	UploadFolder any `json:"uploadFolder"`
	ChannelName  any `json:"channelName"`
	RequestID    any `json:"requestId"`
	Files        any `json:"files"`
}

// ValidateRequest 解析并校验原始 JSON 请求体，不做任何解码和外部调用.
// 检查顺序: 文件数量、requestId、uploadFolder、逐个文件名.
func ValidateRequest(body []byte, maxFiles int) (*BatchRequest, error) {
	var wire wireRequest
	if err := sonic.Unmarshal(body, &wire); err != nil {
		return nil, invalidf("Request body must be valid JSON")
	}

	files, ok := wire.Files.([]any)
	if !ok {
		return nil, invalidf("files must be an array of %d to %d items", configs.MinMaxFiles, maxFiles)
	}

	if len(files) < configs.MinMaxFiles {
		return nil, invalidf("Too few files: got %d, min %d", len(files), configs.MinMaxFiles)
	}

	if len(files) > maxFiles {
		return nil, invalidf("Too many files: got %d, max allowed %d", len(files), maxFiles)
	}

	req := &BatchRequest{Files: make([]RawFile, len(files))}

	requestID, err := validateRequestID(wire.RequestID)
	if err != nil {
		return nil, err
	}

	req.RequestID = requestID

	folder, err := NormalizeFolder(wire.UploadFolder)
	if err != nil {
		return nil, err
	}

	req.Folder = folder

	switch name := wire.ChannelName.(type) {
	case nil:
	case string:
		req.ChannelName = strings.TrimSpace(name)
	default:
		return nil, invalidf("channelName must be a string")
	}

	for i, raw := range files {
		f, err := parseRawFile(i, raw)
		if err != nil {
			return nil, err
		}

		req.Files[i] = f
	}

	return req, nil
}

func validateRequestID(v any) (string, error) {
	if v == nil {
		return "", nil
	}

	id, ok := v.(string)
	if !ok || strings.TrimSpace(id) == "" || utf8.RuneCountInString(id) > MaxRequestIDLen {
		return "", invalidf("requestId must be a non-empty string up to %d chars", MaxRequestIDLen)
	}

	return id, nil
}

// NormalizeFolder 去掉首尾及重复斜杠，拒绝 .、..、空段和保留前缀.
func NormalizeFolder(v any) (string, error) {
	if v == nil {
		return "", nil
	}

	s, ok := v.(string)
	if !ok {
		return "", invalidf("uploadFolder must be a string")
	}

	segments := make([]string, 0, 4)

	for seg := range strings.SplitSeq(strings.TrimSpace(s), "/") {
		if seg == "" {
			continue
		}

		if problem := rule.SegmentProblem(seg); problem != "" {
			return "", invalidf("Invalid uploadFolder: segment %q %s", seg, problem)
		}

		segments = append(segments, seg)
	}

	return strings.Join(segments, "/"), nil
}

// NormalizeFileName 去掉首尾空白后校验文件名.
func NormalizeFileName(index int, v any) (string, error) {
	name, ok := v.(string)
	if !ok {
		return "", invalidf("files[%d].name must be a string", index)
	}

	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxFileNameLen {
		return "", invalidf("files[%d].name is too long (max %d chars)", index, MaxFileNameLen)
	}

	if problem := rule.SegmentProblem(name); problem != "" {
		return "", invalidf("files[%d].name %s", index, problem)
	}

	return name, nil
}

func parseRawFile(index int, raw any) (RawFile, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return RawFile{}, invalidf("files[%d] must be an object", index)
	}

	name, err := NormalizeFileName(index, obj["name"])
	if err != nil {
		return RawFile{}, err
	}

	f := RawFile{Name: name}

	fields := []struct {
		key string
		dst *string
	}{
		{"mimeType", &f.MimeTypeHint},
		{"contentBase64", &f.Content},
		{"caption", &f.Caption},
	}

	for _, fd := range fields {
		switch val := obj[fd.key].(type) {
		case nil:
		case string:
			*fd.dst = val
		default:
			return RawFile{}, invalidf("files[%d].%s must be a string", index, fd.key)
		}
	}

	return f, nil
}
