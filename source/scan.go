package source

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/CodMac/uml-lens/core"
)

// ScanOptions 控制本地目录扫描
type ScanOptions struct {
	Filter          string        // 对相对路径匹配的正则，空表示不过滤
	Language        core.Language // 空表示所有已注册语言
	IgnoreGitignore bool          // 为 true 时不读取 .gitignore
}

// Scan 遍历 root，返回受支持的源文件（路径相对 root，使用 '/' 分隔，有序）
func Scan(root string, opts ScanOptions) ([]FileRef, error) {
	var re *regexp.Regexp
	if opts.Filter != "" {
		var err error
		if re, err = regexp.Compile(opts.Filter); err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", opts.Filter, err)
		}
	}

	exts := make(map[string]bool)
	for _, ext := range core.Extensions(opts.Language) {
		exts[ext] = true
	}
	if len(exts) == 0 {
		return nil, fmt.Errorf("no extensions for language %q: %w", opts.Language, core.ErrUnsupportedLanguage)
	}

	// 目录相对路径 -> 该目录下的 .gitignore
	matchers := make(map[string]*ignore.GitIgnore)

	var refs []FileRef
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if rel != "." && ignored(matchers, rel) {
				return filepath.SkipDir
			}
			if !opts.IgnoreGitignore {
				if m, err := ignore.CompileIgnoreFile(filepath.Join(p, ".gitignore")); err == nil {
					matchers[rel] = m
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("read .gitignore in %s: %w", p, err)
				}
			}
			return nil
		}

		if !exts[strings.ToLower(path.Ext(rel))] {
			return nil
		}
		if ignored(matchers, rel) {
			return nil
		}
		if re != nil && !re.MatchString(rel) {
			return nil
		}
		refs = append(refs, NewFileRef(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })
	return refs, nil
}

// FilterRefs 对远程列表应用与 Scan 相同的扩展名与正则过滤
func FilterRefs(refs []FileRef, opts ScanOptions) ([]FileRef, error) {
	var re *regexp.Regexp
	if opts.Filter != "" {
		var err error
		if re, err = regexp.Compile(opts.Filter); err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", opts.Filter, err)
		}
	}
	exts := make(map[string]bool)
	for _, ext := range core.Extensions(opts.Language) {
		exts[ext] = true
	}

	var out []FileRef
	for _, ref := range refs {
		if !exts[strings.ToLower(path.Ext(ref.Path))] {
			continue
		}
		if re != nil && !re.MatchString(ref.Path) {
			continue
		}
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// ignored 依次用每一级祖先目录的 .gitignore 检查 rel
func ignored(matchers map[string]*ignore.GitIgnore, rel string) bool {
	dir := path.Dir(rel)
	for {
		if m, ok := matchers[dir]; ok {
			sub := rel
			if dir != "." {
				sub = strings.TrimPrefix(rel, dir+"/")
			}
			if m.MatchesPath(sub) {
				return true
			}
		}
		if dir == "." {
			return false
		}
		dir = path.Dir(dir)
	}
}
