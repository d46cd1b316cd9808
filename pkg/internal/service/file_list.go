package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/yeisme/relayvault/pkg/internal/ingest"
	"github.com/yeisme/relayvault/pkg/internal/model"
	"github.com/yeisme/relayvault/pkg/internal/storage/kv"
	"github.com/yeisme/relayvault/pkg/rule"
)

const (
	DefaultListCount = 50
	MaxListCount     = 200
)

// 列表排序方式.
const (
	SortTimeDesc = "timeDesc"
	SortTimeAsc  = "timeAsc"
	SortNameAsc  = "nameAsc"
	SortNameDesc = "nameDesc"
	SortSizeAsc  = "sizeAsc"
	SortSizeDesc = "sizeDesc"
)

var ErrInvalidDirectory = errors.New("invalid directory")

// ListQuery 目录列表查询. Count<=0 取默认值，超过上限时截断.
type ListQuery struct {
	Dir       string
	Search    string
	Start     int
	Count     int
	Sort      string
	Recursive bool
}

// FileEntry 列表中的一条记录.
type FileEntry struct {
	StorageID string
	Record    *model.FileRecord
}

// ListPage 一页列表结果. Directories 是当前目录下的直接子目录.
type ListPage struct {
	Query       ListQuery
	Directory   string
	Entries     []FileEntry
	Total       int
	Directories []string
}

func (q *ListQuery) normalize() {
	q.Start = max(q.Start, 0)

	switch {
	case q.Count <= 0:
		q.Count = DefaultListCount
	case q.Count > MaxListCount:
		q.Count = MaxListCount
	}

	switch q.Sort {
	case SortTimeAsc, SortNameAsc, SortNameDesc, SortSizeAsc, SortSizeDesc:
	default:
		q.Sort = SortTimeDesc
	}

	q.Search = strings.ToLower(strings.TrimSpace(q.Search))
}

// List 按目录列出已中继的文件记录.
// 非递归时只包含 Directory 与目录完全相同的记录，递归时包含所有子目录.
func (fs *FileService) List(ctx context.Context, q ListQuery) (*ListPage, error) {
	q.normalize()

	folder, err := ingest.NormalizeFolder(q.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDirectory, q.Dir)
	}

	dir := ""
	if folder != "" {
		dir = folder + "/"
	}

	keys, err := fs.store.Keys(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	var (
		entries []FileEntry
		subdirs = map[string]struct{}{}
	)

	for _, key := range keys {
		if strings.HasPrefix(key, rule.ReservedPrefix) {
			continue
		}

		rec, err := fs.loadRecord(ctx, key)
		if err != nil {
			if errors.Is(err, ErrFileNotFound) {
				continue
			}

			return nil, err
		}

		rest, ok := strings.CutPrefix(rec.Directory, dir)
		if !ok {
			continue
		}

		if child, _, found := strings.Cut(rest, "/"); found {
			subdirs[dir+child+"/"] = struct{}{}

			if !q.Recursive {
				continue
			}
		}

		if q.Search != "" && !strings.Contains(strings.ToLower(rec.FileName), q.Search) {
			continue
		}

		entries = append(entries, FileEntry{StorageID: key, Record: rec})
	}

	sortEntries(entries, q.Sort)

	page := &ListPage{
		Query:       q,
		Directory:   dir,
		Total:       len(entries),
		Directories: slices.Sorted(maps.Keys(subdirs)),
	}

	if q.Start < len(entries) {
		page.Entries = entries[q.Start:min(q.Start+q.Count, len(entries))]
	}

	return page, nil
}

// loadRecord 读取并解码记录，非中继记录视为不存在.
func (fs *FileService) loadRecord(ctx context.Context, key string) (*model.FileRecord, error) {
	raw, err := fs.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, ErrFileNotFound
		}

		return nil, fmt.Errorf("load record %s: %w", key, err)
	}

	rec, err := model.DecodeFileRecord(raw)
	if err != nil || rec.UpstreamFileID == "" {
		return nil, ErrFileNotFound
	}

	return rec, nil
}

// sortEntries 名称按简体中文排序规则比较，其余按数值；相同时按 storage id 保持稳定.
func sortEntries(entries []FileEntry, by string) {
	col := collate.New(language.SimplifiedChinese)

	compare := func(a, b FileEntry) int {
		switch by {
		case SortTimeAsc:
			return cmp.Compare(a.Record.Timestamp, b.Record.Timestamp)
		case SortNameAsc:
			return col.CompareString(a.Record.FileName, b.Record.FileName)
		case SortNameDesc:
			return col.CompareString(b.Record.FileName, a.Record.FileName)
		case SortSizeAsc:
			return cmp.Compare(a.Record.SizeBytes, b.Record.SizeBytes)
		case SortSizeDesc:
			return cmp.Compare(b.Record.SizeBytes, a.Record.SizeBytes)
		default:
			return cmp.Compare(b.Record.Timestamp, a.Record.Timestamp)
		}
	}

	slices.SortFunc(entries, func(a, b FileEntry) int {
		return cmp.Or(compare(a, b), strings.Compare(a.StorageID, b.StorageID))
	})
}
