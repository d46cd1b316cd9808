package service

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/yeisme/relayvault/pkg/configs"
)

// newRestyClient 外部 HTTP 服务共用的客户端配置，JSON 编解码使用 sonic.
func newRestyClient(timeout time.Duration) *resty.Client {
	hc := resty.New().
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetHeader("User-Agent", configs.DefaultRelayUserAgent)

	if timeout > 0 {
		hc.SetTimeout(timeout)
	}

	return hc
}
