package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 默认值
const (
	defaultRedisAddr        = "localhost:6379"
	defaultJournalTTL       = 72 // 小时
	defaultStartingCurrency = 1500
	defaultBoardFile        = "configs/board.yaml"
	defaultBoardID          = "traffic"
	defaultContentFile      = "configs/content.yaml"
	defaultTheme            = "traffic"
	defaultDialogueTimeout  = 10 // 秒
	defaultLogLevel         = "info"
)

// Config 引擎宿主配置
type Config struct {
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Dialogue DialogueConfig `yaml:"dialogue"`
	Log      LogConfig      `yaml:"log"`
}

// RedisConfig Redis 配置（游戏历程与快照存储）
type RedisConfig struct {
	Addr       string `yaml:"addr" env:"MONOPOLY_REDIS_ADDR"`
	Password   string `yaml:"password" env:"MONOPOLY_REDIS_PASSWORD"`
	DB         int    `yaml:"db" env:"MONOPOLY_REDIS_DB"`
	JournalTTL int    `yaml:"journal_ttl" env:"MONOPOLY_JOURNAL_TTL"` // 历程保留时长（小时），负数表示不过期
}

// GameConfig 游戏配置
type GameConfig struct {
	StartingCurrency int    `yaml:"starting_currency" env:"MONOPOLY_STARTING_CURRENCY"`
	BoardFile        string `yaml:"board_file" env:"MONOPOLY_BOARD_FILE"`
	BoardID          string `yaml:"board_id" env:"MONOPOLY_BOARD_ID"`
	ContentFile      string `yaml:"content_file" env:"MONOPOLY_CONTENT_FILE"`
	Theme            string `yaml:"theme" env:"MONOPOLY_THEME"` // 词汇主题：traffic / occupation
}

// DialogueConfig 情境对话服务配置
type DialogueConfig struct {
	Endpoint string `yaml:"endpoint" env:"MONOPOLY_DIALOGUE_ENDPOINT"` // ws:// 地址，空值则使用本地题库
	Timeout  int    `yaml:"timeout" env:"MONOPOLY_DIALOGUE_TIMEOUT"`   // 单次请求超时（秒）
	Topic    string `yaml:"topic" env:"MONOPOLY_DIALOGUE_TOPIC"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level" env:"MONOPOLY_LOG_LEVEL"`
	File  string `yaml:"file" env:"MONOPOLY_LOG_FILE"`
}

// JournalTTLDuration 返回历程保留时长
func (c *RedisConfig) JournalTTLDuration() time.Duration {
	return time.Duration(c.JournalTTL) * time.Hour
}

// TimeoutDuration 返回对话请求超时时长
func (c *DialogueConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Load 加载配置文件，并用 .env 与环境变量覆盖
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	return &cfg, nil
}

// Default 返回默认配置（同样应用环境变量覆盖）
func Default() *Config {
	cfg := &Config{}
	if err := applyEnv(cfg); err != nil {
		// 环境变量格式错误时忽略覆盖
		cfg = &Config{}
	}
	applyDefaults(cfg)
	return cfg
}

// applyEnv 读取 .env（可选）后解析环境变量
func applyEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaultRedisAddr
	}
	if cfg.Redis.JournalTTL == 0 {
		cfg.Redis.JournalTTL = defaultJournalTTL
	}
	if cfg.Game.StartingCurrency == 0 {
		cfg.Game.StartingCurrency = defaultStartingCurrency
	}
	if cfg.Game.BoardFile == "" {
		cfg.Game.BoardFile = defaultBoardFile
	}
	if cfg.Game.BoardID == "" {
		cfg.Game.BoardID = defaultBoardID
	}
	if cfg.Game.ContentFile == "" {
		cfg.Game.ContentFile = defaultContentFile
	}
	if cfg.Game.Theme == "" {
		cfg.Game.Theme = defaultTheme
	}
	if cfg.Dialogue.Timeout == 0 {
		cfg.Dialogue.Timeout = defaultDialogueTimeout
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
}
