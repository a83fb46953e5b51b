package types

import "time"

// Config 主配置结构
type Config struct {
	Log       LogConfig      `mapstructure:"log"`
	Redis     RedisConfig    `mapstructure:"redis"`
	DingTalk  DingTalkConfig `mapstructure:"dingtalk"`
	PushPlus  PushPlusConfig `mapstructure:"pushplus"`
	Feishu    FeishuConfig   `mapstructure:"feishu"`
	Provider  ProviderConfig `mapstructure:"provider"`
	Network   NetworkConfig  `mapstructure:"network"`
	Schedule  ScheduleConfig `mapstructure:"schedule"`
	Scoring   ScoringConfig  `mapstructure:"scoring"`
	Server    ServerConfig   `mapstructure:"server"`
	Database  DatabaseConfig `mapstructure:"database"`
	Watchlist []string       `mapstructure:"watchlist"` // 自选股列表
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // 日志级别
	FilePath   string `mapstructure:"file_path"`   // 日志输出目录，为空则只输出到控制台
	MaxSize    int    `mapstructure:"max_size"`    // 日志文件大小 单位：MB，超限后会自动切割
	MaxAge     int    `mapstructure:"max_age"`     // 日志文件存放时间 单位：天
	MaxBackups int    `mapstructure:"max_backups"` // 日志文件备份数量
	Compress   bool   `mapstructure:"compress"`    // 日志文件压缩
}

// RedisConfig Redis配置
type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DingTalkConfig 钉钉配置
type DingTalkConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Secret     string `mapstructure:"secret"`
}

// PushPlusConfig PushPlus配置
type PushPlusConfig struct {
	UserToken string `mapstructure:"user_token"`
	To        string `mapstructure:"to"` // 好友令牌，多人用逗号分隔
}

// FeishuConfig 飞书多维表格配置
type FeishuConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	BaseURL      string `mapstructure:"base_url"`
	AppToken     string `mapstructure:"app_token"`
	AccessToken  string `mapstructure:"access_token"` // tenant_access_token，由外部签发
	SignalTable  string `mapstructure:"signal_table"`
	HoldingTable string `mapstructure:"holding_table"`
	TradeTable   string `mapstructure:"trade_table"`
}

// ProviderConfig 行情数据服务配置
type ProviderConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Concurrency int    `mapstructure:"concurrency"` // 并发获取数
}

// NetworkConfig 网络配置
type NetworkConfig struct {
	Proxy   string        `mapstructure:"proxy"`   // HTTP代理地址，如 http://127.0.0.1:7890
	Timeout time.Duration `mapstructure:"timeout"` // 网络超时时间
}

// ScheduleConfig 调度配置
type ScheduleConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// ScoringConfig 评分与报告相关的默认值
type ScoringConfig struct {
	DefaultRSI     float64       `mapstructure:"default_rsi"`      // 排名时缺少RSI的默认值
	RankMethod     string        `mapstructure:"rank_method"`      // rsi / momentum / composite / signal
	ReportMode     string        `mapstructure:"report_mode"`      // simple / detailed
	DigestReasons  int           `mapstructure:"digest_reasons"`   // 简洁版最多显示的理由数
	PriceWindow    time.Duration `mapstructure:"price_window"`     // 滚动价格窗口长度
	NotifyOnChange bool          `mapstructure:"notify_on_change"` // 只推送发生变化的信号
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Mode    string `mapstructure:"mode"` // gin 模式：debug / release / test
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
}

// MySQLConfig MySQL配置
type MySQLConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}
