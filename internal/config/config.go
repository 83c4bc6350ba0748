package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	AI       AIConfig       `mapstructure:"ai"`
	Log      LogConfig      `mapstructure:"log"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Dialogue DialogueConfig `mapstructure:"dialogue"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AIConfig AI 服务配置
type AIConfig struct {
	Provider          string          `mapstructure:"provider"`
	APIKey            string          `mapstructure:"api_key"`
	Model             string          `mapstructure:"model"`
	BaseURL           string          `mapstructure:"base_url"`
	CompletionTimeout time.Duration   `mapstructure:"completion_timeout"` // 单次补全调用超时
	Options           AIOptionsConfig `mapstructure:"options"`
}

// AIOptionsConfig AI 模型参数
type AIOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
	JSONMode    bool    `mapstructure:"json_mode"` // 要求模型只输出 JSON 对象（openai/azure）
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 认证配置
// JWTSecret 为空时，用户身份取自 user_id / is_paid 查询参数
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	AccessTokenExpiry time.Duration `mapstructure:"access_token_expiry"`
}

// DialogueConfig 对话引擎配置
type DialogueConfig struct {
	RateLimit      TierConfig    `mapstructure:"rate_limit"`       // 每小时消息上限
	RateWindow     time.Duration `mapstructure:"rate_window"`      // 滑动窗口
	HistoryLimit   TierConfig    `mapstructure:"history_limit"`    // 读取历史的条数
	PromptTurns    int           `mapstructure:"prompt_turns"`     // 写入 prompt 的历史轮数上限
	AnalysisEvery  int           `mapstructure:"analysis_every"`   // 每 N 条消息触发一次分析
	AnalysisWindow int           `mapstructure:"analysis_window"`  // 分析读取的消息条数
	CatalogTTL     time.Duration `mapstructure:"catalog_ttl"`      // 情绪维度目录缓存时间
	ResponseModel  ModelOptions  `mapstructure:"response_model"`   // 回复生成参数
	AnalysisModel  ModelOptions  `mapstructure:"analysis_model"`   // 分析参数
	Queue          QueueConfig   `mapstructure:"queue"`
}

// TierConfig 按付费等级区分的数值
type TierConfig struct {
	Free int `mapstructure:"free"`
	Paid int `mapstructure:"paid"`
}

// For 根据付费状态取值
func (t TierConfig) For(isPaid bool) int {
	if isPaid {
		return t.Paid
	}
	return t.Free
}

// ModelOptions 单次补全调用参数
type ModelOptions struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// QueueConfig 异步分析队列配置
type QueueConfig struct {
	Size    int `mapstructure:"size"`
	Workers int `mapstructure:"workers"`
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	validProviders := map[string]bool{"": true, "openai": true, "azure": true, "ark": true}
	if !validProviders[c.AI.Provider] {
		return errors.New("invalid ai provider, must be openai/azure/ark")
	}
	if c.AI.CompletionTimeout < 0 {
		return errors.New("ai.completion_timeout must not be negative")
	}

	return c.Dialogue.Validate()
}

// Validate 验证对话引擎配置
func (d *DialogueConfig) Validate() error {
	if d.RateLimit.Free <= 0 || d.RateLimit.Paid <= 0 {
		return errors.New("dialogue.rate_limit must be positive for both tiers")
	}
	if d.RateWindow <= 0 {
		return errors.New("dialogue.rate_window must be positive")
	}
	if d.HistoryLimit.Free < 0 || d.HistoryLimit.Paid < 0 {
		return errors.New("dialogue.history_limit must not be negative")
	}
	if d.AnalysisEvery <= 0 {
		return errors.New("dialogue.analysis_every must be positive")
	}
	if d.AnalysisWindow <= 0 {
		return errors.New("dialogue.analysis_window must be positive")
	}
	if d.Queue.Size <= 0 || d.Queue.Workers <= 0 {
		return errors.New("dialogue.queue size and workers must be positive")
	}
	return nil
}

// DefaultDialogueConfig 返回与线上行为一致的默认值
func DefaultDialogueConfig() DialogueConfig {
	return DialogueConfig{
		RateLimit:      TierConfig{Free: 50, Paid: 50},
		RateWindow:     time.Hour,
		HistoryLimit:   TierConfig{Free: 5, Paid: 15},
		PromptTurns:    5,
		AnalysisEvery:  5,
		AnalysisWindow: 10,
		CatalogTTL:     10 * time.Minute,
		ResponseModel:  ModelOptions{Temperature: 0.5, MaxTokens: 350},
		AnalysisModel:  ModelOptions{Temperature: 0.2, MaxTokens: 600},
		Queue:          QueueConfig{Size: 64, Workers: 2},
	}
}
