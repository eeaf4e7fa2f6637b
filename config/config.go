package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Wheel    WheelConfig    `mapstructure:"wheel"`
	Claim    ClaimConfig    `mapstructure:"claim"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int             `mapstructure:"port"`
	BodyLimit    int64           `mapstructure:"body_limit"`
	WheelBody    int64           `mapstructure:"wheel_body_limit"` // 转盘接口请求体上限，仅承载兑换码
	ReadTimeout  time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	CORS         CORSConfig      `mapstructure:"cors"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// RateLimitConfig 抽奖/兑换接口限流配置
type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 配置
// 令牌由商城前端签发，本服务只做校验
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// WheelConfig 转盘与兑换码配置
type WheelConfig struct {
	CodeLength       int           `mapstructure:"code_length"`
	CodeAlphabet     string        `mapstructure:"code_alphabet"`
	MaxCodeAttempts  int           `mapstructure:"max_code_attempts"`
	MaxIssueAttempts int           `mapstructure:"max_issue_attempts"`
	SegmentsCacheTTL time.Duration `mapstructure:"segments_cache_ttl"`
}

// ClaimConfig 领奖链接配置
type ClaimConfig struct {
	Scheme  string `mapstructure:"scheme"`
	BotHost string `mapstructure:"bot_host"`
	BotName string `mapstructure:"bot_name"`
	Param   string `mapstructure:"param"`
}

// TelegramConfig Telegram 机器人配置
type TelegramConfig struct {
	BotToken     string `mapstructure:"bot_token"`
	NotifyChatID int64  `mapstructure:"notify_chat_id"`
	BotEnabled   bool   `mapstructure:"bot_enabled"`
	PollTimeout  int    `mapstructure:"poll_timeout"` // 长轮询超时（秒）
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.body_limit", 1<<20)
	v.SetDefault("server.wheel_body_limit", 4<<10)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.rate_limit.limit", 30)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "bonus_wheel")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.issuer", "bonus-shop")
	v.SetDefault("auth.access_token_ttl", "15m")

	v.SetDefault("wheel.code_length", 16)
	v.SetDefault("wheel.code_alphabet", "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")
	v.SetDefault("wheel.max_code_attempts", 10)
	v.SetDefault("wheel.max_issue_attempts", 3)
	v.SetDefault("wheel.segments_cache_ttl", "30s")

	v.SetDefault("claim.scheme", "https")
	v.SetDefault("claim.bot_host", "t.me")
	v.SetDefault("claim.bot_name", "bonus_wheel_bot")
	v.SetDefault("claim.param", "start")

	v.SetDefault("telegram.bot_enabled", false)
	v.SetDefault("telegram.poll_timeout", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("WHEEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Wheel.CodeLength < 8 {
		return fmt.Errorf("配置校验失败: wheel.code_length 不能小于 8")
	}
	if err := validateAlphabet(c.Wheel.CodeAlphabet); err != nil {
		return err
	}
	if c.Wheel.MaxCodeAttempts <= 0 || c.Wheel.MaxIssueAttempts <= 0 {
		return fmt.Errorf("配置校验失败: wheel.max_code_attempts 与 wheel.max_issue_attempts 必须大于 0")
	}
	if c.Claim.BotHost == "" || c.Claim.BotName == "" {
		return fmt.Errorf("配置校验失败: claim.bot_host 与 claim.bot_name 不能为空")
	}
	if c.Telegram.BotEnabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("配置校验失败: 启用领奖机器人时 telegram.bot_token 不能为空")
	}
	return nil
}

// maxAlphabetLen nanoid 字母表长度上限
const maxAlphabetLen = 255

// validateAlphabet 兑换码字母表只允许 [0-9A-Za-z_-] 且字符不重复
// 领奖链接的 start 参数只接受这些字符
func validateAlphabet(alphabet string) error {
	if len(alphabet) < 2 {
		return fmt.Errorf("配置校验失败: wheel.code_alphabet 至少需要 2 个字符")
	}
	if len(alphabet) > maxAlphabetLen {
		return fmt.Errorf("配置校验失败: wheel.code_alphabet 不能超过 %d 个字符", maxAlphabetLen)
	}
	seen := make(map[rune]struct{}, len(alphabet))
	for _, r := range alphabet {
		if !isCodeChar(r) {
			return fmt.Errorf("配置校验失败: wheel.code_alphabet 包含非法字符 %q", r)
		}
		if _, dup := seen[r]; dup {
			return fmt.Errorf("配置校验失败: wheel.code_alphabet 包含重复字符 %q", r)
		}
		seen[r] = struct{}{}
	}
	return nil
}

func isCodeChar(r rune) bool {
	switch {
	case r >= '0' && r <= '9', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		return true
	case r == '_' || r == '-':
		return true
	}
	return false
}
