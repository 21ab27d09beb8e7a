// Package config 读取服务与命令行共用的 YAML 配置。
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/labelsheet/binding"
	"github.com/ByLCY/labelsheet/fonts"
	"github.com/ByLCY/labelsheet/layout"
)

type StoreConfig struct {
	Driver   string        `yaml:"driver"` // memory | redis
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

type OutputConfig struct {
	Filename string `yaml:"filename"` // 支持 ${timestamp} 与 ${now|layout}
	Author   string `yaml:"author"`
	Creator  string `yaml:"creator"`
}

// FontsConfig 覆盖标签使用的常规体与粗体。取值为 embed:<名称>（见 fonts.Names），
// 或相对配置文件所在目录的 TTF 路径；留空使用内置 Go 字体。
type FontsConfig struct {
	Regular string `yaml:"regular"`
	Bold    string `yaml:"bold"`
}

// Map 转换为布局使用的 FontRegular/FontBold → src 表。
func (f FontsConfig) Map() map[string]string {
	out := map[string]string{}
	if f.Regular != "" {
		out[layout.FontRegular] = f.Regular
	}
	if f.Bold != "" {
		out[layout.FontBold] = f.Bold
	}
	return out
}

type Config struct {
	Version     string       `yaml:"version"`
	Mode        string       `yaml:"mode"` // dev | release
	Listen      string       `yaml:"listen"`
	CORSOrigins []string     `yaml:"cors_origins"`
	MaxItems    int          `yaml:"max_items"`
	Store       StoreConfig  `yaml:"store"`
	Output      OutputConfig `yaml:"output"`
	Fonts       FontsConfig  `yaml:"fonts"`
	Sheet       layout.Grid  `yaml:"sheet"`
}

// Default 返回未提供配置文件时使用的配置。
func Default() *Config {
	return &Config{
		Mode:   "release",
		Listen: ":8080",
		Store:  StoreConfig{Driver: "memory", TTL: 30 * time.Minute},
		Output: OutputConfig{Filename: binding.DefaultFilename, Creator: "labelsheet"},
		Sheet:  layout.DefaultGrid,
	}
}

// Load 在默认值之上叠加 path 指向的 YAML；path 为空时直接返回默认值。
// sheet 段只需写出与默认纸张不同的字段。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查取值范围。
func (c *Config) Validate() error {
	if c.Mode != "dev" && c.Mode != "release" {
		return fmt.Errorf("mode 必须是 dev 或 release，实际 %q", c.Mode)
	}
	switch c.Store.Driver {
	case "memory":
	case "redis":
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.driver=redis 时必须设置 store.redis_url")
		}
	default:
		return fmt.Errorf("不支持的存储 %q", c.Store.Driver)
	}
	if c.MaxItems < 0 {
		return fmt.Errorf("max_items 不能为负")
	}
	for _, src := range []string{c.Fonts.Regular, c.Fonts.Bold} {
		if strings.HasPrefix(src, "embed:") {
			if _, err := fonts.Load(src); err != nil {
				return fmt.Errorf("fonts 配置无效: %w", err)
			}
		}
	}
	if err := c.Sheet.Validate(); err != nil {
		return fmt.Errorf("sheet 配置无效: %w", err)
	}
	return nil
}
