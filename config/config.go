// Package config 读取 umllens.toml
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BurntSushi/toml"

	"github.com/CodMac/uml-lens/model"
)

const FileName = "umllens.toml"

type Config struct {
	Path string `toml:"-"` // 加载的文件，未找到时为空

	Source   SourceConfig   `toml:"source"`
	GitHub   GitHubConfig   `toml:"github"`
	Cache    CacheConfig    `toml:"cache"`
	Render   RenderConfig   `toml:"render"`
	Output   OutputConfig   `toml:"output"`
	Notation NotationConfig `toml:"notation"`
}

type SourceConfig struct {
	Root            string `toml:"root"`
	Lang            string `toml:"lang"` // 空表示所有已注册语言
	Filter          string `toml:"filter"`
	Jobs            int    `toml:"jobs"`
	IgnoreGitignore bool   `toml:"ignore_gitignore"`
}

type GitHubConfig struct {
	Repo     string `toml:"repo"` // owner/name 或仓库 ID
	Ref      string `toml:"ref"`
	Token    string `toml:"token"`
	TokenEnv string `toml:"token_env"`
	BaseURL  string `toml:"base_url"`
}

type CacheConfig struct {
	Enabled bool          `toml:"enabled"`
	Path    string        `toml:"path"`
	TTL     time.Duration `toml:"ttl"`
}

type RenderConfig struct {
	Enabled bool          `toml:"enabled"`
	Server  string        `toml:"server"`
	Timeout time.Duration `toml:"timeout"`
}

type OutputConfig struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"` // plantuml, jsonl, mermaid
	Name   string `toml:"name"`
	Level  int    `toml:"level"` // 0(Raw), 1(Balanced), 2(Pure)
}

type NotationConfig struct {
	Access map[string]string `toml:"access"` // 访问修饰符 -> 单字符符号
}

func Default() *Config {
	return &Config{
		Source: SourceConfig{Root: ".", Jobs: 4},
		GitHub: GitHubConfig{TokenEnv: "GITHUB_TOKEN"},
		Cache:  CacheConfig{Path: filepath.Join(".umllens", "cache.db")},
		Render: RenderConfig{Server: "https://www.plantuml.com/plantuml", Timeout: 30 * time.Second},
		Output: OutputConfig{Dir: "./output", Format: "plantuml", Name: "diagram"},
	}
}

// Find 从 startDir 向上查找 umllens.toml
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load 在默认值之上解码 path；相对路径按配置文件所在目录解析
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.Path = path
	base := filepath.Dir(path)
	if meta.IsDefined("source", "root") {
		cfg.Source.Root = resolve(base, cfg.Source.Root)
	}
	if meta.IsDefined("output", "dir") {
		cfg.Output.Dir = resolve(base, cfg.Output.Dir)
	}
	if meta.IsDefined("cache", "path") {
		cfg.Cache.Path = resolve(base, cfg.Cache.Path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover 查找并加载配置，未找到时返回默认值
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) Validate() error {
	switch c.Output.Format {
	case "plantuml", "jsonl", "mermaid":
	default:
		return fmt.Errorf("[output].format must be plantuml, jsonl or mermaid, got %q", c.Output.Format)
	}
	if c.Output.Level < 0 || c.Output.Level > 2 {
		return fmt.Errorf("[output].level must be 0, 1 or 2, got %d", c.Output.Level)
	}
	if c.Source.Jobs < 0 {
		return fmt.Errorf("[source].jobs must not be negative")
	}
	_, err := c.AccessTable()
	return err
}

// AccessTable 返回默认表叠加 [notation.access] 覆盖后的结果
func (c *Config) AccessTable() (model.AccessTable, error) {
	table := model.DefaultAccessTable()
	if len(c.Notation.Access) == 0 {
		return table, nil
	}
	overrides := make(map[string]rune, len(c.Notation.Access))
	for keyword, glyph := range c.Notation.Access {
		if utf8.RuneCountInString(glyph) != 1 {
			return table, fmt.Errorf("[notation.access].%q must be a single character, got %q", keyword, glyph)
		}
		r, _ := utf8.DecodeRuneInString(glyph)
		overrides[keyword] = r
	}
	return table.With(overrides), nil
}

// GitHubToken 优先使用显式配置的 token，其次读取 token_env 指定的环境变量
func (c *Config) GitHubToken() string {
	if c.GitHub.Token != "" {
		return c.GitHub.Token
	}
	if c.GitHub.TokenEnv != "" {
		return os.Getenv(c.GitHub.TokenEnv)
	}
	return ""
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
