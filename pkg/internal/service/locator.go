package service

import (
	"context"
	"net/netip"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/log"
)

// Locator 查询 IP 归属地，结果（包括失败）按 IP 缓存.
type Locator struct {
	http     *resty.Client
	endpoint string
	cache    *expirable.LRU[string, string]
}

type geoResponse struct {
	Status     string `json:"status"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
}

// NewLocator 未开启时返回 nil.
func NewLocator(cfg configs.GeoConfig) *Locator {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = 1024
	}

	return &Locator{
		http:     newRestyClient(cfg.Timeout),
		endpoint: cfg.Endpoint,
		cache:    expirable.NewLRU[string, string](size, nil, cfg.CacheTTL),
	}
}

// Locate 实现 ingest.Locator，无法定位时返回空串.
func (l *Locator) Locate(ctx context.Context, ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil || addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() {
		return ""
	}

	key := addr.String()
	if loc, ok := l.cache.Get(key); ok {
		return loc
	}

	loc := l.lookup(ctx, key)
	l.cache.Add(key, loc)

	return loc
}

func (l *Locator) lookup(ctx context.Context, ip string) string {
	var out geoResponse

	resp, err := l.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(strings.ReplaceAll(l.endpoint, "{ip}", ip))
	if err != nil || resp.IsError() || (out.Status != "" && out.Status != "success") {
		log.Ctx(ctx).Debug().Err(err).Str("ip", ip).Msg("geo lookup failed")

		return ""
	}

	parts := make([]string, 0, 3)

	for _, p := range []string{out.City, out.RegionName, out.Country} {
		if p != "" && !contains(parts, p) {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, ", ")
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}

	return false
}
