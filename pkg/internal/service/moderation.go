package service

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/internal/model"
)

// Moderator 调用外部审核服务给文件打标签.
//
//	POST {endpoint}  {"url": "<file url>"}  ->  {"label": "adult"}
type Moderator struct {
	http     *resty.Client
	endpoint string
}

type moderationRequest struct {
	URL string `json:"url"`
}

type moderationResponse struct {
	Label string `json:"label"`
	Error string `json:"error,omitempty"`
}

// NewModerator 未配置 endpoint 时返回 nil.
func NewModerator(cfg configs.ModerationConfig) *Moderator {
	if cfg.Endpoint == "" {
		return nil
	}

	hc := newRestyClient(cfg.Timeout)
	if cfg.APIKey != "" {
		hc.SetAuthToken(cfg.APIKey)
	}

	return &Moderator{http: hc, endpoint: cfg.Endpoint}
}

// Score 实现 ingest.Moderator，空标签视为 None.
func (m *Moderator) Score(ctx context.Context, url string) (string, error) {
	var out moderationResponse

	resp, err := m.http.R().
		SetContext(ctx).
		SetBody(moderationRequest{URL: url}).
		SetResult(&out).
		SetError(&out).
		Post(m.endpoint)
	if err != nil {
		return "", fmt.Errorf("moderation request: %w", err)
	}

	if resp.IsError() {
		if out.Error != "" {
			return "", fmt.Errorf("moderation %d: %s", resp.StatusCode(), out.Error)
		}

		return "", fmt.Errorf("moderation %d", resp.StatusCode())
	}

	if out.Label == "" {
		return model.LabelNone, nil
	}

	return out.Label, nil
}
