// Package ingest 实现批量上传流程：校验、去重、准备、选择频道、中继、对账、持久化和提交幂等记录.
//
// 整批是原子的: 要么全部文件的元数据都写入并返回成功，要么返回错误且不提交幂等记录.
// 调用方可以带相同 requestId 重试，已成功的请求直接回放缓存响应.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeisme/relayvault/pkg/internal/model"
	"github.com/yeisme/relayvault/pkg/internal/relay"
	"github.com/yeisme/relayvault/pkg/log"
	"github.com/yeisme/relayvault/pkg/metrics"
	"github.com/yeisme/relayvault/pkg/tracing"
)

// Stage 流程阶段，终止错误会记录所在阶段.
type Stage string

const (
	StageValidating  Stage = "validating"
	StageDeduping    Stage = "deduping"
	StagePreparing   Stage = "preparing"
	StageSelecting   Stage = "selecting"
	StageRelaying    Stage = "relaying"
	StageReconciling Stage = "reconciling"
	StagePersisting  Stage = "persisting"
	StageCommitting  Stage = "committing"
	StageDone        Stage = "done"
)

const (
	UnknownLocation = "Unknown"
	StoragePathRoot = "/file/"

	taskModerate = "moderate"
	taskNotify   = "notify_stored"
)

// Deps 流程依赖. Relay、Store、Config、Types、IDs 必填，其余可为 nil.
type Deps struct {
	Relay      Relay
	Store      MetadataStore
	Config     ConfigStore
	Types      TypeResolver
	IDs        IDBuilder
	Dims       DimensionProber
	Moderator  Moderator
	Locator    Locator
	Notifier   Notifier
	Background *Background

	Now  func() time.Time
	Intn func(n int) int
}

// Orchestrator 批量上传流程，可并发使用，请求之间不共享可变状态.
type Orchestrator struct {
	d        Deps
	preparer *Preparer
	guard    *Guard
}

func NewOrchestrator(d Deps) *Orchestrator {
	if d.Background == nil {
		d.Background = NewBackground(0, 0)
	}

	if d.Now == nil {
		d.Now = time.Now
	}

	if d.Intn == nil {
		d.Intn = rand.IntN
	}

	return &Orchestrator{
		d:        d,
		preparer: NewPreparer(d.Types, d.IDs, d.Dims),
		guard:    NewGuard(d.Store),
	}
}

// Background 返回后台任务运行器，供宿主在退出时等待.
func (o *Orchestrator) Background() *Background { return o.d.Background }

// Submission 一次批量上传.
type Submission struct {
	Body     []byte
	ClientIP string
}

// relayed 对账后的单个文件.
type relayed struct {
	file *PreparedFile
	info relay.FileInfo
	path string
}

// Submit 执行完整流程，返回的错误总是 *Error.
func (o *Orchestrator) Submit(ctx context.Context, sub Submission) (res *Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.Submit")
	defer func() { tracing.EndSpan(span, err) }()

	logger := log.Ctx(ctx).With().Str("component", "ingest").Logger()
	stage := StageValidating

	enter := func(s Stage, ev func(e *zerolog.Event)) {
		stage = s

		e := logger.Debug().Str("stage", string(s))
		if ev != nil {
			ev(e)
		}

		e.Msg("stage")
	}

	res, replay, err := o.run(ctx, sub, enter)
	if err != nil {
		e := AsError(err)
		e.Stage = stage

		metrics.BatchesTotal.WithLabelValues(string(e.Code)).Inc()

		ev := logger.Warn()
		if e.Code == CodeInternal {
			ev = logger.Error()
		}

		ev.Err(e.Err).Str("stage", string(stage)).Str("code", string(e.Code)).Msg(e.Message)

		return nil, e
	}

	outcome := "ok"
	if replay {
		outcome = "replay"
	}

	metrics.BatchesTotal.WithLabelValues(outcome).Inc()

	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, sub Submission, enter func(Stage, func(*zerolog.Event))) (*Result, bool, error) {
	enter(StageValidating, nil)

	settings, err := o.d.Config.UploadSettings(ctx)
	if err != nil {
		return nil, false, internal("load upload settings", err)
	}

	req, err := ValidateRequest(sub.Body, settings.Limits.MaxFiles)
	if err != nil {
		return nil, false, err
	}

	enter(StageDeduping, func(e *zerolog.Event) { e.Str("client_request_id", req.RequestID) })

	cached, err := o.guard.Lookup(ctx, req.RequestID)
	if err != nil {
		return nil, false, err
	}

	if cached != nil {
		enter(StageDone, func(e *zerolog.Event) { e.Bool("idempotent", true) })

		return cached, true, nil
	}

	enter(StagePreparing, func(e *zerolog.Event) { e.Int("files", len(req.Files)) })

	files, err := o.preparer.Prepare(ctx, req, settings.Limits)
	if err != nil {
		return nil, false, err
	}

	enter(StageSelecting, nil)

	ch, err := SelectChannel(settings.Channels, req.ChannelName, settings.LoadBalance, o.d.Intn)
	if err != nil {
		return nil, false, err
	}

	enter(StageRelaying, func(e *zerolog.Event) { e.Str("channel", ch.Name) })

	// 从发送开始与调用方取消解耦：上游消息一旦发出，对账和写入必须跑完
	ctx = context.WithoutCancel(ctx)
	target := ch.Target()

	raw, err := o.send(ctx, target, files)
	if err != nil {
		return nil, false, err
	}

	enter(StageReconciling, nil)

	items, err := o.reconcile(ctx, target, files, raw)
	if err != nil {
		return nil, false, err
	}

	enter(StagePersisting, nil)

	if err := o.persist(ctx, req, ch, sub.ClientIP, items); err != nil {
		return nil, false, err
	}

	res := buildResult(req, ch, items)

	enter(StageCommitting, nil)

	if err := o.guard.Commit(ctx, req.RequestID, res); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("client_request_id", req.RequestID).Msg("commit idempotency record")
	}

	enter(StageDone, nil)

	return res, false, nil
}

func (o *Orchestrator) send(ctx context.Context, target relay.Target, files []*PreparedFile) (*relay.RawResult, error) {
	attachments := make([]relay.Attachment, len(files))
	media := make([]relay.MediaDescriptor, len(files))

	for i, f := range files {
		attachments[i] = f.attachment()
		media[i] = f.descriptor()
	}

	raw, err := o.d.Relay.SendBatch(ctx, target, attachments, media)
	if err != nil {
		return nil, classifyRelayError(err)
	}

	return raw, nil
}

// classifyRelayError 把上游失败归入 RATE_LIMIT 或 UPSTREAM_ERROR.
func classifyRelayError(err error) *Error {
	var ue *relay.UpstreamError
	if !errors.As(err, &ue) {
		e := upstreamf(nil, "%s", relay.Redact(err.Error()))
		e.Err = err

		return e
	}

	if ue.RateLimited() {
		e := newError(CodeRateLimit, ue.Description)
		e.RetryAfter = ue.RetryAfter
		e.Err = err

		return e
	}

	e := upstreamf(ue.Payload, "%s", ue.Description)
	e.Err = err

	return e
}

// reconcile 结果按位置对应输入，数量不一致时无法归属，整批失败.
func (o *Orchestrator) reconcile(ctx context.Context, target relay.Target, files []*PreparedFile, raw *relay.RawResult) ([]relayed, error) {
	infos := relay.ExtractBatchFileInfos(raw)
	if len(infos) != len(files) {
		return nil, upstreamf(raw, "Upstream returned unexpected media group result count: got %d, want %d", len(infos), len(files))
	}

	items := make([]relayed, len(files))

	for i, info := range infos {
		if info.ID == "" {
			return nil, upstreamf(raw, "Upstream missing file id for media index %d", i)
		}

		path, err := o.d.Relay.ResolveFilePath(ctx, target, info.ID)
		if err != nil {
			e := upstreamf(nil, "Failed to resolve file path for media index %d", i)
			e.Err = err

			return nil, e
		}

		items[i] = relayed{file: files[i], info: info, path: path}
	}

	return items, nil
}

// persist 逐个写入元数据，全部写入后再安排后台任务.
func (o *Orchestrator) persist(ctx context.Context, req *BatchRequest, ch Channel, clientIP string, items []relayed) error {
	location := UnknownLocation
	if o.d.Locator != nil && clientIP != "" {
		if loc := o.d.Locator.Locate(ctx, clientIP); loc != "" {
			location = loc
		}
	}

	moderate := false

	if o.d.Moderator != nil {
		sec, err := o.d.Config.SecuritySettings(ctx)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("load security settings, moderation skipped")
		}

		moderate = err == nil && sec.ModerationEnabled
	}

	now := o.d.Now().UnixMilli()

	for i := range items {
		it := &items[i]
		rec := &it.file.Record

		if it.info.SizeBytes > 0 {
			rec.SetSize(it.info.SizeBytes)
		}

		rec.UploaderIP = clientIP
		rec.UploaderLocation = location
		rec.Timestamp = now
		rec.ChannelType = model.ChannelTypeRelay
		rec.ChannelName = ch.Name
		rec.UpstreamFileID = it.info.ID
		rec.UpstreamChatID = ch.ChatID
		rec.UpstreamMessageID = it.info.MessageID
		rec.UpstreamMediaGroupID = it.info.GroupID
		rec.ProxyURL = ch.ProxyURL

		b, err := rec.Encode()
		if err != nil {
			return internal(fmt.Sprintf("encode metadata for files[%d]", i), err)
		}

		if err := o.d.Store.Set(ctx, it.file.StorageID, b, 0); err != nil {
			return internal(fmt.Sprintf("persist metadata for files[%d]", i), err)
		}

		metrics.FilesRelayed.WithLabelValues(it.info.Kind.String()).Inc()
	}

	target := ch.Target()

	for _, it := range items {
		if moderate {
			storageID, fileURL := it.file.StorageID, o.d.Relay.FileURL(target, it.path)
			o.schedule(ctx, taskModerate, func(ctx context.Context) error {
				return o.moderate(ctx, storageID, fileURL)
			})
		}

		if o.d.Notifier != nil {
			ev := StoredEvent{
				StorageID:    it.file.StorageID,
				RequestID:    req.RequestID,
				MediaGroupID: it.info.GroupID,
				Channel:      ch.Name,
				FileName:     it.file.Name,
				MimeType:     it.file.MimeType,
				SizeBytes:    it.file.Record.SizeBytes,
				Directory:    it.file.Record.Directory,
				MessageID:    it.info.MessageID,
			}
			o.schedule(ctx, taskNotify, func(ctx context.Context) error {
				return o.d.Notifier.FileStored(ctx, ev)
			})
		}
	}

	return nil
}

func (o *Orchestrator) schedule(ctx context.Context, name string, fn func(context.Context) error) {
	if err := o.d.Background.Go(ctx, name, fn); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("task", name).Msg("background task dropped")
	}
}

func buildResult(req *BatchRequest, ch Channel, items []relayed) *Result {
	res := &Result{
		Success:     true,
		RequestID:   req.RequestID,
		ChannelName: ch.Name,
		Files:       make([]ResultFile, len(items)),
	}

	if len(items) > 0 {
		res.MediaGroupID = items[0].info.GroupID
	}

	for i, it := range items {
		res.Files[i] = ResultFile{
			Name:        it.file.Name,
			StoragePath: StoragePath(it.file.StorageID),
			StorageID:   it.file.StorageID,
			MessageID:   it.info.MessageID,
		}
	}

	return res
}

// StoragePath 返回文件的检索路径，storage id 的每一段单独转义.
func StoragePath(storageID string) string {
	segments := strings.Split(storageID, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	return StoragePathRoot + strings.Join(segments, "/")
}
