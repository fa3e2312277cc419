package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/CodMac/uml-lens/core"
	"github.com/CodMac/uml-lens/diagram"
	"github.com/CodMac/uml-lens/model"
	"github.com/CodMac/uml-lens/source"
)

var (
	// ErrContentUnavailable 文件内容无法获取（本地读取或远程请求失败）
	ErrContentUnavailable = errors.New("content unavailable")
	// ErrExtraction 文件内容无法解析为声明
	ErrExtraction = errors.New("extraction failed")
)

// Failure 记录一个被跳过的文件
type Failure struct {
	File source.FileRef
	Err  error
}

func (f Failure) Error() string { return f.File.Path + ": " + f.Err.Error() }

func (f Failure) Unwrap() error { return f.Err }

// Result 是一次生成的产物
type Result struct {
	Registry *core.Registry
	Diagram  string
	Files    int // 成功处理的文件数
	Failures []Failure
}

// Processor 协调内容获取、声明提取、注册与序列化
type Processor struct {
	Provider    source.Provider
	Serializer  diagram.Serializer
	Concurrency int
	Logger      *zap.Logger
	// FilterLevel 控制序列化前丢弃哪些悬空边，默认保留全部
	FilterLevel core.FilterLevel

	mu       sync.RWMutex
	registry *core.Registry
	diagram  string
}

func NewProcessor(provider source.Provider, serializer diagram.Serializer, concurrency int, logger *zap.Logger) *Processor {
	if concurrency <= 0 {
		concurrency = 4
	}
	if serializer == nil {
		serializer = diagram.NewPlantUMLSerializer(diagram.PlantUML())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		Provider:    provider,
		Serializer:  serializer,
		Concurrency: concurrency,
		Logger:      logger,
	}
}

// fileOutcome 是单个文件并行阶段的结果，按原始下标存放
type fileOutcome struct {
	decls []*model.Declaration
	err   error
}

// ==========================================
// 1. 核心生命周期 (Core Workflow)
// ==========================================

// Generate 按调用方给定的顺序处理 files 并生成图文本。
// 单个文件失败只会被记录在 Result.Failures 中；ctx 取消时返回 ctx.Err()，
// 之前发布的注册表保持不变。
func (p *Processor) Generate(ctx context.Context, files []source.FileRef) (*Result, error) {
	// --- 阶段 1: 并行获取与提取 ---
	outcomes, err := p.runParallel(ctx, files)
	if err != nil {
		return nil, err
	}

	// --- 阶段 2: 按文件顺序注册 ---
	registry := core.NewRegistry(p.Logger)
	result := &Result{Registry: registry}
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out := outcomes[i]
		if out.err != nil {
			failure := Failure{File: file, Err: out.err}
			result.Failures = append(result.Failures, failure)
			p.Logger.Warn("skip file", zap.String("path", file.Path), zap.Error(out.err))
			continue
		}
		for _, decl := range out.decls {
			if decl != nil {
				registry.RegisterType(*decl)
			}
		}
		result.Files++
	}

	// --- 阶段 3: 序列化并发布 ---
	result.Diagram = p.Serializer.Serialize(registry.Snapshot().Filter(p.FilterLevel))

	p.mu.Lock()
	p.registry = registry
	p.diagram = result.Diagram
	p.mu.Unlock()

	p.Logger.Info("diagram generated",
		zap.Int("files", result.Files),
		zap.Int("skipped", len(result.Failures)),
		zap.Int("types", registry.Len()),
		zap.Int("conflicts", len(registry.Conflicts())))
	return result, nil
}

// Regenerate 在不重新读取文件的前提下，对当前注册表重新序列化
func (p *Processor) Regenerate() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var snap *core.Snapshot
	if p.registry != nil {
		snap = p.registry.Snapshot().Filter(p.FilterLevel)
	}
	p.diagram = p.Serializer.Serialize(snap)
	return p.diagram
}

// Registry 返回最近一次成功生成的注册表，尚未生成时为 nil
func (p *Processor) Registry() *core.Registry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.registry
}

// Diagram 返回最近一次生成的图文本
func (p *Processor) Diagram() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.diagram
}

// ==========================================
// 2. 并发调度 (Scheduling)
// ==========================================

// runParallel 并发获取并提取每个文件，结果按下标写回，不触碰注册表
func (p *Processor) runParallel(ctx context.Context, files []source.FileRef) ([]fileOutcome, error) {
	outcomes := make([]fileOutcome, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.Concurrency)
	for i, file := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			outcomes[i] = p.processFile(gCtx, file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (p *Processor) processFile(ctx context.Context, file source.FileRef) fileOutcome {
	content, err := p.Provider.Fetch(ctx, file)
	if err != nil {
		return fileOutcome{err: fmt.Errorf("%w: %w", ErrContentUnavailable, err)}
	}

	name := file.Name
	if name == "" {
		name = file.Path
	}
	ext, err := core.ExtractorFor(name)
	if err != nil {
		return fileOutcome{err: fmt.Errorf("%w: %w", ErrExtraction, err)}
	}

	decls, err := ext.Extract(file.Path, content)
	if err != nil {
		return fileOutcome{err: fmt.Errorf("%w: %w", ErrExtraction, err)}
	}
	return fileOutcome{decls: decls}
}
