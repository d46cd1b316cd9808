package types

import "github.com/yeisme/relayvault/pkg/internal/model"

// FileMetaResponse 文件元数据查询结果.
type FileMetaResponse struct {
	StorageID   string            `json:"storageId"   example:"01JB8Z0Q3N6W1M5V2T7XK4R9PA_cat.png"`
	StoragePath string            `json:"storagePath" example:"/file/01JB8Z0Q3N6W1M5V2T7XK4R9PA_cat.png"`
	Record      *model.FileRecord `json:"metadata"`
}

// FileListResponse 目录列表结果，Directories 为当前目录下的直接子目录.
type FileListResponse struct {
	Files         []FileMetaResponse `json:"files"`
	TotalCount    int                `json:"totalCount"    example:"120"`
	ReturnedCount int                `json:"returnedCount" example:"50"`
	Start         int                `json:"start"         example:"0"`
	Count         int                `json:"count"         example:"50"`
	Sort          string             `json:"sort"          example:"timeDesc"`
	Recursive     bool               `json:"recursive"`
	Directory     string             `json:"directory"     example:"albums/2026/"`
	Directories   []string           `json:"directories"`
}
