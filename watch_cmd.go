package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/CodMac/uml-lens/core"
	"github.com/CodMac/uml-lens/source"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "监听本地源码变化并重新生成类图",
	Long:  "先完整生成一次，之后每当受支持的源文件被修改、新增或删除时重新生成（每次均为完整重建）",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	addGenerateFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", source.DefaultDebounce, "合并变化事件的等待时间")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, access, err := prepareGenerate(cmd, args)
	if err != nil {
		return err
	}
	if cfg.GitHub.Repo != "" {
		return errors.New("watch 只支持本地目录，不能与 --repo 同时使用")
	}
	var lang core.Language
	if cfg.Source.Lang != "" {
		var ok bool
		if lang, ok = core.ParseLanguage(cfg.Source.Lang); !ok {
			return fmt.Errorf("language %q: %w", cfg.Source.Lang, core.ErrUnsupportedLanguage)
		}
	}

	logger := newLogger(cmd)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	watcher, err := source.NewWatcher(cfg.Source.Root, lang, logger)
	if err != nil {
		return err
	}
	watcher.Debounce, _ = cmd.Flags().GetDuration("debounce")

	if err := generateOnce(ctx, cfg, access, logger, false); err != nil {
		warnColor.Fprintf(os.Stderr, "    ⚠️  %v\n", err)
	}
	stepColor.Fprintf(os.Stderr, "👀 正在监听 %s (Ctrl+C 退出)\n", cfg.Source.Root)

	err = watcher.Run(ctx, func(ctx context.Context) {
		logger.Info("regenerating", zap.String("root", cfg.Source.Root))
		if err := generateOnce(ctx, cfg, access, logger, false); err != nil {
			warnColor.Fprintf(os.Stderr, "    ⚠️  %v\n", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
