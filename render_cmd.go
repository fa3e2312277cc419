package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CodMac/uml-lens/output"
	"github.com/CodMac/uml-lens/render"
)

var renderCmd = &cobra.Command{
	Use:   "render <file.puml>",
	Short: "将已有的 PlantUML 文本渲染为 PNG 与 SVG",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().String("server", "", "PlantUML 服务地址")
	renderCmd.Flags().String("out-dir", "", "输出目录 (默认与输入文件相同)")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("server") {
		cfg.Render.Server, _ = cmd.Flags().GetString("server")
	}
	access, err := cfg.AccessTable()
	if err != nil {
		return err
	}

	input := args[0]
	text, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("读取 %s 失败: %w", input, err)
	}

	outDir, _ := cmd.Flags().GetString("out-dir")
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))

	logger := newLogger(cmd)
	defer logger.Sync()

	step(1, 1, "🖼  正在渲染 %s (%s)", input, cfg.Render.Server)
	client := render.NewClient(cfg.Render.Server, cfg.Render.Timeout, logger)
	if err := renderAndSave(cmd.Context(), client, output.NewExporter(outDir, access), name, string(text)); err != nil {
		return err
	}
	okColor.Fprintln(os.Stderr, "    ✅ 完成")
	return nil
}
