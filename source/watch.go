package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/CodMac/uml-lens/core"
)

const DefaultDebounce = 300 * time.Millisecond

// Watcher 监听本地目录树中受支持源文件的变化，合并短时间内的多次变化后回调一次
type Watcher struct {
	Root     string
	Language core.Language // 空表示所有已注册语言
	Debounce time.Duration

	logger *zap.Logger
	fs     *fsnotify.Watcher
	exts   map[string]bool
}

func NewWatcher(root string, lang core.Language, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	exts := make(map[string]bool)
	for _, ext := range core.Extensions(lang) {
		exts[ext] = true
	}
	if len(exts) == 0 {
		return nil, fmt.Errorf("no extensions for language %q: %w", lang, core.ErrUnsupportedLanguage)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{Root: root, Language: lang, Debounce: DefaultDebounce, logger: logger, fs: fsw, exts: exts}
	if _, err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree 递归添加目录（fsnotify 不支持递归监听），返回目录树中是否已有受支持的源文件
func (w *Watcher) addTree(dir string) (bool, error) {
	found := false
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			found = found || w.relevant(p)
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if err := w.fs.Add(p); err != nil {
			w.logger.Warn("failed to watch directory", zap.String("path", p), zap.Error(err))
			return nil
		}
		w.logger.Debug("watching directory", zap.String("path", p))
		return nil
	})
	return found, err
}

func (w *Watcher) relevant(name string) bool {
	return w.exts[strings.ToLower(filepath.Ext(name))]
}

// Run 阻塞直到 ctx 取消。onChange 在监听循环内同步执行，期间到达的事件会在其返回后再次合并。
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	defer w.fs.Close()

	timer := time.NewTimer(w.Debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					found, err := w.addTree(event.Name)
					if err != nil {
						w.logger.Warn("failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
					}
					// 整棵目录移入（mv、checkout）时其中的文件不会再产生事件
					if found {
						w.logger.Debug("directory with sources added", zap.String("dir", event.Name))
						timer.Reset(w.Debounce)
						pending = true
					}
					continue
				}
			}
			if !w.relevant(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("source changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(w.Debounce)
			pending = true

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			onChange(ctx)
		}
	}
}

// Close 在未调用 Run 时释放监听资源
func (w *Watcher) Close() error {
	return w.fs.Close()
}
