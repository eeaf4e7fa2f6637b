package wheel

import (
	"net/url"
	"strings"

	"bonus-wheel/config"
)

// ClaimLinker 生成领奖深链，形如 https://t.me/<bot>?start=<code>
type ClaimLinker struct {
	scheme  string
	host    string
	botName string
	param   string
}

// NewClaimLinker 创建领奖链接生成器
func NewClaimLinker(cfg *config.ClaimConfig) *ClaimLinker {
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}
	param := cfg.Param
	if param == "" {
		param = "start"
	}
	return &ClaimLinker{
		scheme:  scheme,
		host:    cfg.BotHost,
		botName: strings.Trim(cfg.BotName, "/"),
		param:   param,
	}
}

// Link 将兑换码原样嵌入查询参数
func (l *ClaimLinker) Link(code string) string {
	u := url.URL{
		Scheme: l.scheme,
		Host:   l.host,
		Path:   "/" + l.botName,
	}
	q := url.Values{}
	q.Set(l.param, code)
	u.RawQuery = q.Encode()
	return u.String()
}
