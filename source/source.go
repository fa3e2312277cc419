// Package source 提供文件内容的获取方式：本地文件系统、GitHub 仓库及其缓存
package source

import "context"

// FileRef 描述一个待处理的源文件
type FileRef struct {
	Path string // 相对根目录（或仓库根）的路径，作为内容获取的键
	Name string // 展示用文件名，Extractor 据此选择语言
}

// NewFileRef 以路径的最后一段作为 Name
func NewFileRef(path string) FileRef {
	name := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			name = path[i+1:]
			break
		}
	}
	return FileRef{Path: path, Name: name}
}

// Provider 获取单个文件的文本内容
type Provider interface {
	Fetch(ctx context.Context, ref FileRef) ([]byte, error)
}

// Keyed 由能够区分不同来源的 Provider 实现，用作缓存键前缀
type Keyed interface {
	Key() string
}

// ProviderFunc 允许普通函数作为 Provider
type ProviderFunc func(ctx context.Context, ref FileRef) ([]byte, error)

func (f ProviderFunc) Fetch(ctx context.Context, ref FileRef) ([]byte, error) {
	return f(ctx, ref)
}
