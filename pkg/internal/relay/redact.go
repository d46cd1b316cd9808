package relay

import "regexp"

const redactedToken = "<redacted>"

// botPath 匹配 URL 中的 /bot<token> 与 /file/bot<token> 段.
var botPath = regexp.MustCompile(`/(file/)?bot[^/\s"'?]+`)

// Redact 隐去文本中出现在请求路径里的 bot 凭据，用于日志和对外错误信息.
func Redact(s string) string {
	return botPath.ReplaceAllString(s, "/${1}bot"+redactedToken)
}
