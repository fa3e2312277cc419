package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/CodMac/uml-lens/config"
	"github.com/CodMac/uml-lens/core"
	"github.com/CodMac/uml-lens/diagram"
	"github.com/CodMac/uml-lens/model"
	"github.com/CodMac/uml-lens/output"
	"github.com/CodMac/uml-lens/processor"
	"github.com/CodMac/uml-lens/render"
	"github.com/CodMac/uml-lens/source"
)

var generateCmd = &cobra.Command{
	Use:   "generate [path]",
	Short: "扫描源码并生成类图",
	Long:  "扫描本地目录（或 --repo 指定的 GitHub 仓库），提取类型声明并写出 PlantUML / JSONL / Mermaid 结果",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	addGenerateFlags(generateCmd)
	generateCmd.Flags().Bool("stdout", false, "同时将图文本输出到 stdout")
}

// addGenerateFlags 注册 generate 与 watch 共用的参数
func addGenerateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("lang", "", "只分析指定语言 (csharp, java, go)，默认全部")
	f.String("filter", "", "文件过滤正则 (匹配相对路径)")
	f.Int("jobs", 4, "并发数")
	f.String("out-dir", "./output", "输出目录")
	f.String("format", "plantuml", "格式: plantuml, jsonl, mermaid")
	f.String("name", "diagram", "输出文件名 (不含扩展名)")
	f.Int("level", 0, "过滤等级: 0(Raw), 1(Balanced), 2(Pure)")
	f.Bool("no-gitignore", false, "不读取 .gitignore")
	f.String("repo", "", "GitHub 仓库 (owner/name 或仓库 ID)")
	f.String("ref", "", "GitHub 分支 / tag / commit")
	f.String("token", "", "GitHub token (默认读取 GITHUB_TOKEN)")
	f.Bool("cache", false, "使用 sqlite 缓存文件内容")
	f.Bool("render", false, "调用 PlantUML 服务渲染 PNG 与 SVG")
	f.String("server", "", "PlantUML 服务地址")
}

// applyGenerateFlags 命令行参数覆盖配置文件
func applyGenerateFlags(cmd *cobra.Command, args []string, cfg *config.Config) {
	f := cmd.Flags()
	if len(args) > 0 {
		cfg.Source.Root = args[0]
	}
	if f.Changed("lang") {
		cfg.Source.Lang, _ = f.GetString("lang")
	}
	if f.Changed("filter") {
		cfg.Source.Filter, _ = f.GetString("filter")
	}
	if f.Changed("jobs") {
		cfg.Source.Jobs, _ = f.GetInt("jobs")
	}
	if f.Changed("no-gitignore") {
		cfg.Source.IgnoreGitignore, _ = f.GetBool("no-gitignore")
	}
	if f.Changed("out-dir") {
		cfg.Output.Dir, _ = f.GetString("out-dir")
	}
	if f.Changed("format") {
		cfg.Output.Format, _ = f.GetString("format")
	}
	if f.Changed("name") {
		cfg.Output.Name, _ = f.GetString("name")
	}
	if f.Changed("level") {
		cfg.Output.Level, _ = f.GetInt("level")
	}
	if f.Changed("repo") {
		cfg.GitHub.Repo, _ = f.GetString("repo")
	}
	if f.Changed("ref") {
		cfg.GitHub.Ref, _ = f.GetString("ref")
	}
	if f.Changed("token") {
		cfg.GitHub.Token, _ = f.GetString("token")
	}
	if f.Changed("cache") {
		cfg.Cache.Enabled, _ = f.GetBool("cache")
	}
	if f.Changed("render") {
		cfg.Render.Enabled, _ = f.GetBool("render")
	}
	if f.Changed("server") {
		cfg.Render.Server, _ = f.GetString("server")
	}
}

// prepareGenerate 合并配置文件与命令行参数并校验
func prepareGenerate(cmd *cobra.Command, args []string) (*config.Config, model.AccessTable, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, model.AccessTable{}, err
	}
	applyGenerateFlags(cmd, args, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, model.AccessTable{}, err
	}
	access, err := cfg.AccessTable()
	if err != nil {
		return nil, model.AccessTable{}, err
	}
	return cfg, access, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, access, err := prepareGenerate(cmd, args)
	if err != nil {
		return err
	}

	logger := newLogger(cmd)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	stdout, _ := cmd.Flags().GetBool("stdout")
	return generateOnce(ctx, cfg, access, logger, stdout)
}

// generateOnce 执行一次完整的 扫描 -> 提取 -> 导出 流程
func generateOnce(ctx context.Context, cfg *config.Config, access model.AccessTable, logger *zap.Logger, stdout bool) error {
	startTime := time.Now()

	// 1. 列出文件
	provider, files, closeFn, err := openSource(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("扫描文件失败: %w", err)
	}
	defer closeFn()
	fmt.Fprintf(os.Stderr, "    找到 %d 个候选文件\n", len(files))

	// 2. 提取并生成
	level, err := core.ParseFilterLevel(cfg.Output.Level)
	if err != nil {
		return err
	}
	step(2, 4, "⚙️  正在提取类型声明 (Level: %d)...", level)
	serializer := diagram.NewPlantUMLSerializer(diagram.PlantUML().WithAccess(access))
	proc := processor.NewProcessor(provider, serializer, cfg.Source.Jobs, logger)
	proc.FilterLevel = level
	result, err := proc.Generate(ctx, files)
	if err != nil {
		return fmt.Errorf("生成失败: %w", err)
	}
	for _, failure := range result.Failures {
		warnColor.Fprintf(os.Stderr, "    ⚠️  跳过 %s: %v\n", failure.File.Path, failure.Err)
	}
	for _, conflict := range result.Registry.Conflicts() {
		warnColor.Fprintf(os.Stderr, "    ⚠️  %s 同时被声明为 %s 与 %s，保留 %s\n",
			conflict.QualifiedName, conflict.Kept, conflict.Rejected, conflict.Kept)
	}
	if c, ok := provider.(*source.Cache); ok {
		hits, misses := c.Stats()
		fmt.Fprintf(os.Stderr, "    缓存命中 %d / 未命中 %d\n", hits, misses)
	}

	// 3. 导出
	step(3, 4, "💾 正在写入结果文件...")
	exporter := output.NewExporter(cfg.Output.Dir, access)
	if err := runExport(ctx, cfg, exporter, result, level, logger); err != nil {
		return fmt.Errorf("导出失败: %w", err)
	}
	if stdout {
		fmt.Fprintln(os.Stdout, result.Diagram)
	}

	okColor.Fprintf(os.Stderr, "    ✅ 完成: 文件=%d, 类型=%d, 跳过=%d\n", result.Files, result.Registry.Len(), len(result.Failures))
	step(4, 4, "✨ 结束! 总耗时: %v", time.Since(startTime).Round(time.Millisecond))
	return nil
}

// openSource 根据配置选择本地目录或 GitHub 仓库，并按需套上缓存
func openSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (source.Provider, []source.FileRef, func(), error) {
	opts := source.ScanOptions{Filter: cfg.Source.Filter, IgnoreGitignore: cfg.Source.IgnoreGitignore}
	if cfg.Source.Lang != "" {
		lang, ok := core.ParseLanguage(cfg.Source.Lang)
		if !ok {
			return nil, nil, nil, fmt.Errorf("language %q: %w", cfg.Source.Lang, core.ErrUnsupportedLanguage)
		}
		opts.Language = lang
	}

	var provider source.Provider
	var files []source.FileRef
	if cfg.GitHub.Repo != "" {
		step(1, 4, "🔍 正在列出仓库文件: %s", cfg.GitHub.Repo)
		gh := source.NewGitHub(cfg.GitHub.Repo, cfg.GitHub.Ref, cfg.GitHubToken())
		if cfg.GitHub.BaseURL != "" {
			gh.BaseURL = cfg.GitHub.BaseURL
		}
		all, err := gh.List(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		if files, err = source.FilterRefs(all, opts); err != nil {
			return nil, nil, nil, err
		}
		provider = gh
	} else {
		step(1, 4, "🔍 正在扫描目录: %s", cfg.Source.Root)
		var err error
		if files, err = source.Scan(cfg.Source.Root, opts); err != nil {
			return nil, nil, nil, err
		}
		provider = source.NewLocal(cfg.Source.Root)
	}

	if !cfg.Cache.Enabled {
		return provider, files, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0755); err != nil {
		return nil, nil, nil, err
	}
	cache, err := source.NewCache(cfg.Cache.Path, provider)
	if err != nil {
		return nil, nil, nil, err
	}
	cache.WithTTL(cfg.Cache.TTL).WithLogger(logger)
	logger.Debug("cache enabled", zap.String("path", cfg.Cache.Path), zap.String("scope", cache.Key()))
	return cache, files, func() { cache.Close() }, nil
}

func runExport(ctx context.Context, cfg *config.Config, exporter *output.Exporter, result *processor.Result, level core.FilterLevel, logger *zap.Logger) error {
	snap := result.Registry.Snapshot().Filter(level)

	format := output.OutType(cfg.Output.Format)
	if format == output.Mermaid {
		if result.Registry.Len() > MaxMermaidNodes || len(snap.Edges) > MaxMermaidEdges {
			warnColor.Fprintf(os.Stderr, "    ⚠️  规模过大(%d 节点)，Mermaid 渲染可能失败，自动降级为 jsonl\n", result.Registry.Len())
			format = output.JsonL
		}
	}

	switch format {
	case output.JsonL:
		tc, ec, err := exporter.ExportJsonL(snap)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "    导出类型=%d, 关系=%d\n", tc, ec)
	case output.Mermaid:
		tc, ec, err := exporter.ExportMermaidHTML(snap)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "    导出类型=%d, 关系=%d\n", tc, ec)
	default:
		path, err := exporter.SaveDiagram(cfg.Output.Name, result.Diagram)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "    写入 %s\n", path)
	}

	if !cfg.Render.Enabled {
		return nil
	}
	client := render.NewClient(cfg.Render.Server, cfg.Render.Timeout, logger)
	return renderAndSave(ctx, client, exporter, cfg.Output.Name, result.Diagram)
}

// renderAndSave 渲染图文本并保存 PNG 与 SVG
func renderAndSave(ctx context.Context, renderer render.Renderer, exporter *output.Exporter, name, text string) error {
	img, err := renderer.Render(ctx, text)
	if err != nil {
		return err
	}
	pngPath, err := exporter.SavePNG(name, img.PNG)
	if err != nil {
		return err
	}
	svgPath, err := exporter.SaveSVG(name, img.SVG)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "    写入 %s, %s\n", pngPath, svgPath)
	return nil
}
