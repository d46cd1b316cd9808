package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yeisme/relayvault/pkg/cache"
	ctxPkg "github.com/yeisme/relayvault/pkg/context"
	"github.com/yeisme/relayvault/pkg/internal/ingest"
	"github.com/yeisme/relayvault/pkg/internal/model"
	"github.com/yeisme/relayvault/pkg/internal/relay"
	"github.com/yeisme/relayvault/pkg/internal/storage/kv"
	nlog "github.com/yeisme/relayvault/pkg/log"
	"github.com/yeisme/relayvault/pkg/rule"
)

const (
	// FilePathNamespace 上游文件路径缓存的键前缀.
	FilePathNamespace = "manage@file_path@"
	// FilePathTTL 上游下载路径至少一小时有效，缓存留出余量.
	FilePathTTL = 50 * time.Minute
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrChannelGone  = errors.New("channel of file is no longer configured")
)

// fileRelay 读取文件用到的上游能力.
type fileRelay interface {
	ResolveFilePath(ctx context.Context, t relay.Target, fileID string) (string, error)
	DownloadFile(ctx context.Context, t relay.Target, filePath, rangeHeader string) (*relay.Download, error)
}

// FileService 负责已中继文件的读取：元数据查询和内容代理，不处理 HTTP 细节.
type FileService struct {
	store  kv.KVStore
	relay  fileRelay
	config ingest.ConfigStore
	paths  *cache.Cache
}

// NewFileService 从 context 获取 KV 实例.
func NewFileService(c context.Context, rc fileRelay, config ingest.ConfigStore) *FileService {
	kvc := ctxPkg.GetKVClient(c)
	if kvc == nil {
		nlog.Logger().Fatal().Msg("kv client not initialized")
	}

	return NewFileServiceWithStore(kvc, rc, config)
}

// NewFileServiceWithStore 直接使用给定的 KVStore.
func NewFileServiceWithStore(store kv.KVStore, rc fileRelay, config ingest.ConfigStore) *FileService {
	if config == nil {
		config = NewConfigStore(nil)
	}

	return &FileService{
		store:  store,
		relay:  rc,
		config: config,
		paths:  cache.New(store, FilePathNamespace),
	}
}

// Meta 读取文件元数据. 内部键（幂等记录、缓存）不对外暴露.
func (fs *FileService) Meta(ctx context.Context, storageID string) (*model.FileRecord, error) {
	if storageID == "" || strings.HasPrefix(storageID, rule.ReservedPrefix) {
		return nil, ErrFileNotFound
	}

	return fs.loadRecord(ctx, storageID)
}

// Open 打开文件内容流，调用方负责关闭 Download.Body. rangeHeader 为客户端的 Range 头，可为空.
// 缓存的路径失效时清掉缓存重新解析一次.
func (fs *FileService) Open(ctx context.Context, storageID, rangeHeader string) (*model.FileRecord, *relay.Download, error) {
	rec, err := fs.Meta(ctx, storageID)
	if err != nil {
		return nil, nil, err
	}

	settings, err := fs.config.UploadSettings(ctx)
	if err != nil {
		return nil, nil, err
	}

	ch, err := ingest.RecordChannel(settings.Channels, rec)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrChannelGone, rec.ChannelName)
	}

	target := ch.Target()

	dl, err := fs.download(ctx, target, rec.UpstreamFileID, rangeHeader)
	if err == nil {
		return rec, dl, nil
	}

	var upErr *relay.UpstreamError
	if errors.Is(err, relay.ErrFilePathNotFound) ||
		(errors.As(err, &upErr) && (upErr.RateLimited() || upErr.RangeNotSatisfiable())) {
		return nil, nil, err
	}

	nlog.Ctx(ctx).Debug().Err(err).Str("storage_id", storageID).Msg("cached file path stale, resolving again")

	if delErr := fs.paths.Delete(ctx, rec.UpstreamFileID); delErr != nil {
		return nil, nil, errors.Join(err, delErr)
	}

	dl, err = fs.download(ctx, target, rec.UpstreamFileID, rangeHeader)
	if err != nil {
		return nil, nil, err
	}

	return rec, dl, nil
}

func (fs *FileService) download(ctx context.Context, target relay.Target, fileID, rangeHeader string) (*relay.Download, error) {
	path, err := cache.GetOrSet(ctx, fs.paths, fileID, func() (string, error) {
		return fs.relay.ResolveFilePath(ctx, target, fileID)
	}, FilePathTTL)
	if err != nil {
		return nil, err
	}

	return fs.relay.DownloadFile(ctx, target, path, rangeHeader)
}
