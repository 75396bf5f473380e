// Package service 提供面向业务的推荐门面：组装默认 Pipeline、
// 管理结果缓存、暴露模型状态与相关推荐接口。
package service

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/moviekit/moviekit/hybrid"
)

// Config 是推荐服务配置（YAML）。
type Config struct {
	// ModelPath 是 CF 模型文件路径
	ModelPath string `yaml:"model_path"`

	// CFWeight / CBWeight 是默认融合权重（请求可用 alpha 覆盖）
	CFWeight float64 `yaml:"cf_weight"`
	CBWeight float64 `yaml:"cb_weight"`

	// RecallTopN 是每个召回源的候选量
	RecallTopN int `yaml:"recall_top_n"`

	// DefaultLimit 是默认返回条数
	DefaultLimit int `yaml:"default_limit"`

	// HalfLifeDays 是 CF 时效衰减半衰期（天）
	HalfLifeDays float64 `yaml:"half_life_days"`

	// CacheTTLSeconds 是用户推荐结果的缓存时长，0 表示不缓存
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

// DefaultConfig 返回默认配置（缓存 7 天）。
func DefaultConfig() Config {
	return Config{
		ModelPath:       "data/cf_model.json",
		CFWeight:        hybrid.DefaultCFWeight,
		CBWeight:        hybrid.DefaultCBWeight,
		RecallTopN:      50,
		DefaultLimit:    10,
		HalfLifeDays:    30,
		CacheTTLSeconds: 7 * 24 * 3600,
	}
}

// LoadConfig 从 YAML 文件加载配置，未给出的字段落回默认值。
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	d := DefaultConfig()
	if c.ModelPath == "" {
		c.ModelPath = d.ModelPath
	}
	if c.CFWeight <= 0 && c.CBWeight <= 0 {
		c.CFWeight, c.CBWeight = d.CFWeight, d.CBWeight
	}
	if c.RecallTopN <= 0 {
		c.RecallTopN = d.RecallTopN
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = d.DefaultLimit
	}
	if c.HalfLifeDays <= 0 {
		c.HalfLifeDays = d.HalfLifeDays
	}
}
