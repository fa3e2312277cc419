package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local 从本地目录读取文件
type Local struct {
	Root string
}

func NewLocal(root string) *Local {
	return &Local{Root: root}
}

func (l *Local) Fetch(ctx context.Context, ref FileRef) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := ref.Path
	if !filepath.IsAbs(path) && l.Root != "" {
		path = filepath.Join(l.Root, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (l *Local) Key() string {
	abs, err := filepath.Abs(l.Root)
	if err != nil {
		abs = l.Root
	}
	return "file://" + filepath.ToSlash(abs)
}
