package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/CodMac/uml-lens/config"
	"github.com/CodMac/uml-lens/logging"
	_ "github.com/CodMac/uml-lens/x/csharp"
	_ "github.com/CodMac/uml-lens/x/golang"
	_ "github.com/CodMac/uml-lens/x/java"
)

const (
	MaxMermaidNodes = 200
	MaxMermaidEdges = 400
)

var (
	stepColor = color.New(color.FgCyan, color.Bold)
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
)

var rootCmd = &cobra.Command{
	Use:           "umllens",
	Short:         "从源码生成 UML 类图",
	Long:          `umllens 提取 C#、Java、Go 源码中的类型声明，合并为模型并输出 PlantUML 类图`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		switch mode, _ := cmd.Flags().GetString("color"); mode {
		case "on":
			color.NoColor = false
		case "off":
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(watchCmd)

	rootCmd.PersistentFlags().String("config", "", "配置文件路径 (默认向上查找 umllens.toml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "输出调试日志")
	rootCmd.PersistentFlags().String("color", "auto", "彩色输出 (auto|on|off)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitWithError("执行失败", err)
	}
}

// loadConfig 读取 --config 指定的文件，否则从当前目录向上查找
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.Load(path)
	}
	return config.Discover(".")
}

func newLogger(cmd *cobra.Command) *zap.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return logging.Must(verbose)
}

func step(n, total int, format string, args ...interface{}) {
	stepColor.Fprintf(os.Stderr, "[%d/%d] ", n, total)
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func exitWithError(msg string, err error) {
	errColor.Fprintf(os.Stderr, "❌ %s: %v\n", msg, err)
	os.Exit(1)
}
