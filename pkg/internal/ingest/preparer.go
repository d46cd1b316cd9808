package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"runtime"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/internal/model"
	"github.com/yeisme/relayvault/pkg/log"
)

const (
	// DimensionProbeBytes 探测图片尺寸时最多读取的字节数.
	DimensionProbeBytes = 64 * 1024
	// DefaultMimeType 无法识别时的兜底类型.
	DefaultMimeType = "application/octet-stream"
)

// unsupportedImageTypes 媒体组中不能作为 photo 发送的图片类型.
var unsupportedImageTypes = map[string]struct{}{
	"image/gif":     {},
	"image/webp":    {},
	"image/svg+xml": {},
	"image/x-icon":  {},
}

// Preparer 把 RawFile 解码为 PreparedFile.
type Preparer struct {
	types   TypeResolver
	ids     IDBuilder
	dims    DimensionProber
	workers int
}

// NewPreparer dims 可以为 nil，此时不探测尺寸.
func NewPreparer(types TypeResolver, ids IDBuilder, dims DimensionProber) *Preparer {
	return &Preparer{types: types, ids: ids, dims: dims, workers: min(runtime.GOMAXPROCS(0), configs.MaxMaxFiles)}
}

// admission 是通过大小检查、尚未解码的文件.
type admission struct {
	payload  string
	dataMime string
	estimate int64
}

// Prepare 分两步处理整批文件.
//  1. 顺序估算大小并检查单文件与累计上限，超限立即返回，不解码任何文件.
//  2. 并行解码、识别类型、生成 id、探测尺寸；多个文件出错时返回下标最小的错误.
//
// 全部通过后再做媒体组同质性检查.
func (p *Preparer) Prepare(ctx context.Context, req *BatchRequest, limits configs.UploadLimits) ([]*PreparedFile, error) {
	admitted, err := admit(req.Files, limits)
	if err != nil {
		return nil, err
	}

	directory := ""
	if req.Folder != "" {
		directory = req.Folder + "/"
	}

	out := make([]*PreparedFile, len(req.Files))
	errs := make([]error, len(req.Files))

	var g errgroup.Group
	g.SetLimit(max(p.workers, 1))

	for i := range req.Files {
		g.Go(func() error {
			out[i], errs[i] = p.prepareOne(ctx, i, req.Files[i], admitted[i], directory)

			return nil
		})
	}

	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	if err := CheckHomogeneous(out); err != nil {
		return nil, err
	}

	return out, nil
}

func admit(files []RawFile, limits configs.UploadLimits) ([]admission, error) {
	admitted := make([]admission, len(files))

	var total int64

	for i, f := range files {
		payload, dataMime := NormalizeContent(f.Content)
		if payload == "" {
			return nil, invalidf("files[%d].contentBase64 is required", i)
		}

		estimate := EstimateSize(payload)
		if estimate <= 0 {
			return nil, invalidf("files[%d] has empty content", i)
		}

		if estimate > limits.MaxSingleFileSize {
			return nil, invalidf("files[%d] exceeds max single file size limit (%d bytes)", i, limits.MaxSingleFileSize)
		}

		total += estimate
		if total > limits.MaxTotalSize {
			return nil, invalidf("Total files size exceeds limit (%d bytes) at files[%d]", limits.MaxTotalSize, i)
		}

		admitted[i] = admission{payload: payload, dataMime: dataMime, estimate: estimate}
	}

	return admitted, nil
}

func (p *Preparer) prepareOne(ctx context.Context, i int, raw RawFile, adm admission, directory string) (*PreparedFile, error) {
	data, err := decodeBase64(adm.payload)
	if err != nil {
		return nil, invalidf("files[%d] has invalid base64 content", i)
	}

	if len(data) == 0 {
		return nil, invalidf("files[%d] has empty content", i)
	}

	hint := raw.MimeTypeHint
	if hint == "" {
		hint = adm.dataMime
	}

	mimeType := p.types.Resolve(hint, raw.Name, data)
	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	mediaType, err := ClassifyMedia(mimeType)
	if err != nil {
		return nil, err
	}

	storageID, err := p.ids.Build(raw.Name, mimeType)
	if err != nil {
		return nil, internal(fmt.Sprintf("files[%d]: build storage id", i), err)
	}

	f := &PreparedFile{
		Index:         i,
		Name:          raw.Name,
		Data:          data,
		MimeType:      mimeType,
		MediaType:     mediaType,
		EstimatedSize: adm.estimate,
		StorageID:     storageID,
		AttachKey:     fmt.Sprintf("file_%d", i),
		Caption:       raw.Caption,
		Record: model.FileRecord{
			FileName:  raw.Name,
			MimeType:  mimeType,
			Directory: directory,
			ListType:  model.ListTypeNone,
			Label:     model.LabelNone,
			Tags:      []string{},
		},
	}
	f.Record.SetSize(int64(len(data)))

	if p.dims != nil && strings.HasPrefix(mimeType, "image/") {
		w, h, err := p.dims.Probe(data[:min(len(data), DimensionProbeBytes)])
		if err != nil {
			log.Ctx(ctx).Debug().Err(err).Str("file", raw.Name).Msg("image dimension probe failed")
		} else {
			f.Record.Width, f.Record.Height = w, h
		}
	}

	return f, nil
}

// NormalizeContent 去掉 data URL 前缀和所有空白，返回 base64 正文以及前缀中的 MIME 类型.
func NormalizeContent(s string) (payload, dataMime string) {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "data:") {
		if comma := strings.IndexByte(s, ','); comma != -1 {
			meta := s[len("data:"):comma]
			dataMime, _, _ = strings.Cut(meta, ";")
			s = s[comma+1:]
		}
	}

	payload = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}

		return r
	}, s)

	return payload, dataMime
}

// EstimateSize 由 base64 长度估算解码后的字节数: floor(len*3/4) - padding.
func EstimateSize(payload string) int64 {
	n := int64(len(payload))
	if n == 0 {
		return 0
	}

	padding := int64(0)

	switch {
	case strings.HasSuffix(payload, "=="):
		padding = 2
	case strings.HasSuffix(payload, "="):
		padding = 1
	}

	return max(0, n*3/4-padding)
}

func decodeBase64(payload string) ([]byte, error) {
	enc := base64.StdEncoding
	if len(payload)%4 != 0 && !strings.HasSuffix(payload, "=") {
		enc = base64.RawStdEncoding
	}

	return enc.DecodeString(payload)
}

// ClassifyMedia 把 MIME 类型映射为媒体组条目类型.
func ClassifyMedia(mimeType string) (MediaType, error) {
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(mimeType)), ";")
	base = strings.TrimSpace(base)

	switch {
	case strings.HasPrefix(base, "image/"):
		if _, bad := unsupportedImageTypes[base]; bad {
			return "", invalidf("Unsupported image type for media group: %s", mimeType)
		}

		return MediaPhoto, nil
	case strings.HasPrefix(base, "video/"):
		return MediaVideo, nil
	case strings.HasPrefix(base, "audio/"):
		return MediaAudio, nil
	default:
		return MediaDocument, nil
	}
}

// CheckHomogeneous audio 与 document 只能各自成组，photo 与 video 可以混合.
func CheckHomogeneous(files []*PreparedFile) error {
	counts := make(map[MediaType]int, 4)
	for _, f := range files {
		counts[f.MediaType]++
	}

	if n := counts[MediaAudio]; n > 0 && n != len(files) {
		return invalidf("Audio albums must be homogeneous: only audio files allowed")
	}

	if n := counts[MediaDocument]; n > 0 && n != len(files) {
		return invalidf("Document albums must be homogeneous: only document files allowed")
	}

	return nil
}
