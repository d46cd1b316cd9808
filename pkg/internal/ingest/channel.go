package ingest

import (
	"math/rand/v2"

	"github.com/yeisme/relayvault/pkg/internal/model"
)

// SelectChannel 选择上游频道.
// 指定名称时精确匹配；未指定时负载均衡则均匀随机，否则取第一个.
// intn 为 nil 时使用 math/rand/v2.
func SelectChannel(channels []Channel, name string, loadBalance bool, intn func(n int) int) (Channel, error) {
	if len(channels) == 0 {
		return Channel{}, channelNotFound("No channel configured")
	}

	var (
		ch    Channel
		found bool
	)

	switch {
	case name != "":
		for _, c := range channels {
			if c.Name == name {
				ch, found = c, true

				break
			}
		}

		if !found {
			return Channel{}, channelNotFound("Channel not found: " + name)
		}
	case loadBalance:
		if intn == nil {
			intn = rand.IntN
		}

		ch = channels[intn(len(channels))]
	default:
		ch = channels[0]
	}

	if ch.BotToken == "" || ch.ChatID == "" {
		return Channel{}, channelNotFound("Channel misconfigured: " + ch.Name)
	}

	return ch, nil
}

// RecordChannel 按记录中的频道名找回频道，频道未配置代理时沿用上传时的代理地址.
func RecordChannel(channels []Channel, rec *model.FileRecord) (Channel, error) {
	ch, err := SelectChannel(channels, rec.ChannelName, false, nil)
	if err != nil {
		return Channel{}, err
	}

	if rec.ProxyURL != "" && ch.ProxyURL == "" {
		ch.ProxyURL = rec.ProxyURL
	}

	return ch, nil
}
