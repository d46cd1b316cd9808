package types

// MediaGroupFile 上传请求中的单个文件，仅用于接口文档.
type MediaGroupFile struct {
	Name          string `json:"name"                   example:"cat.png"`
	MimeType      string `json:"mimeType,omitempty"     example:"image/png"`
	ContentBase64 string `json:"contentBase64"          example:"data:image/png;base64,iVBORw0KGgo..."`
	Caption       string `json:"caption,omitempty"`
}

// MediaGroupRequest 批量上传请求体，仅用于接口文档；解析由 ingest 完成.
type MediaGroupRequest struct {
	Folder      string           `json:"folder,omitempty"      example:"albums/2026"`
	ChannelName string           `json:"channelName,omitempty" example:"primary"`
	RequestID   string           `json:"requestId,omitempty"   example:"b7c1d7e4"`
	Files       []MediaGroupFile `json:"files"`
}
