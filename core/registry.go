package core

import (
	"strings"

	"go.uber.org/zap"

	"github.com/CodMac/uml-lens/model"
)

// NamespaceNode 是命名空间节点，身份为点分隔的全名。
// 首次引用时创建，之后的声明只会向其追加成员。
type NamespaceNode struct {
	Name   string   // 全名 (e.g., "Foo.Bar")，全局命名空间为空
	Parent string   // 父命名空间全名
	Types  []string // 成员类型的 QN，按插入顺序
	Nested []string // 嵌套命名空间全名，按插入顺序

	typeSet   map[string]struct{}
	nestedSet map[string]struct{}
}

// ShortName 返回最后一段名称
func (n *NamespaceNode) ShortName() string {
	if i := strings.LastIndexByte(n.Name, '.'); i >= 0 {
		return n.Name[i+1:]
	}
	return n.Name
}

// TypeEntry 是一个类或接口的合并表示，可能由多个文件的分部声明拼装而成
type TypeEntry struct {
	QualifiedName string
	Name          string
	Namespace     string
	Outer         string // 外部类型链，顶层类型为空
	Kind          model.ElementKind
	Abstract      bool
	Stereotype    string
	Members       []model.Member
	Bases         []model.BaseRef
	Files         []string // 贡献过声明的文件，按首次出现顺序

	baseSet map[model.BaseRef]struct{}
	fileSet map[string]struct{}
}

// KindConflict 记录同一 QN 被声明为不同种类的情况，保留首次出现的种类
type KindConflict struct {
	QualifiedName string            `json:"QualifiedName"`
	Kept          model.ElementKind `json:"Kept"`
	Rejected      model.ElementKind `json:"Rejected"`
	FilePath      string            `json:"FilePath,omitempty"`
}

// Registry 持有一次生成过程中全部的命名空间与类型。
// 只由单个 goroutine 写入，不加锁。
type Registry struct {
	namespaces map[string]*NamespaceNode
	roots      []string
	types      map[string]*TypeEntry
	typeOrder  []string
	bySN       map[string][]string // 短名称 -> QN 列表
	conflicts  []KindConflict
	logger     *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		namespaces: make(map[string]*NamespaceNode),
		types:      make(map[string]*TypeEntry),
		bySN:       make(map[string][]string),
		logger:     logger,
	}
}

// RegisterNamespace 幂等：存在则返回已有节点，否则创建（连同所有祖先节点）
func (r *Registry) RegisterNamespace(name string) *NamespaceNode {
	name = normalizeNamespace(name)
	if ns, ok := r.namespaces[name]; ok {
		return ns
	}

	parent := ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		parent = name[:i]
	}

	ns := &NamespaceNode{
		Name:      name,
		Parent:    parent,
		typeSet:   make(map[string]struct{}),
		nestedSet: make(map[string]struct{}),
	}

	if parent == "" {
		r.namespaces[name] = ns
		r.roots = append(r.roots, name)
		return ns
	}

	// 祖先先于子节点注册，保证快照顺序稳定
	parentNode := r.RegisterNamespace(parent)
	r.namespaces[name] = ns
	if _, seen := parentNode.nestedSet[name]; !seen {
		parentNode.nestedSet[name] = struct{}{}
		parentNode.Nested = append(parentNode.Nested, name)
	}
	return ns
}

// RegisterType 查找或创建 TypeEntry，并合并成员与基类。
// 重复的成员行原样保留；相同的基类引用只记录一次。
func (r *Registry) RegisterType(decl model.Declaration) *TypeEntry {
	name := strings.TrimSpace(decl.Name)
	if name == "" {
		r.logger.Debug("skip anonymous declaration", zap.String("namespace", decl.Namespace))
		return nil
	}
	kind := decl.Kind
	if kind != model.Interface {
		kind = model.Class
	}

	ns := r.RegisterNamespace(decl.Namespace)
	outer := normalizeNamespace(decl.Outer)
	scope := ns.Name
	if outer != "" {
		scope = model.BuildQualifiedName(scope, outer)
	}
	qn := model.BuildQualifiedName(scope, name)
	filePath := ""
	if decl.Location != nil {
		filePath = decl.Location.FilePath
	}

	entry, ok := r.types[qn]
	if !ok {
		entry = &TypeEntry{
			QualifiedName: qn,
			Name:          name,
			Namespace:     ns.Name,
			Outer:         outer,
			Kind:          kind,
			baseSet:       make(map[model.BaseRef]struct{}),
			fileSet:       make(map[string]struct{}),
		}
		r.types[qn] = entry
		r.typeOrder = append(r.typeOrder, qn)
		r.bySN[name] = append(r.bySN[name], qn)
	} else if entry.Kind != kind {
		conflict := KindConflict{QualifiedName: qn, Kept: entry.Kind, Rejected: kind, FilePath: filePath}
		r.conflicts = append(r.conflicts, conflict)
		r.logger.Warn("kind conflict, keeping first declaration",
			zap.String("type", qn),
			zap.String("kept", string(entry.Kind)),
			zap.String("rejected", string(kind)),
			zap.String("file", filePath),
		)
	}

	if _, seen := ns.typeSet[qn]; !seen {
		ns.typeSet[qn] = struct{}{}
		ns.Types = append(ns.Types, qn)
	}

	if filePath != "" {
		if _, seen := entry.fileSet[filePath]; !seen {
			entry.fileSet[filePath] = struct{}{}
			entry.Files = append(entry.Files, filePath)
		}
	}

	entry.Abstract = entry.Abstract || decl.Abstract
	if entry.Stereotype == "" {
		entry.Stereotype = decl.Stereotype
	}
	entry.Members = append(entry.Members, decl.Members...)

	for _, base := range decl.Bases {
		base.Name = strings.TrimSpace(base.Name)
		if base.Name == "" || base.Name == name {
			continue
		}
		if _, seen := entry.baseSet[base]; seen {
			continue
		}
		entry.baseSet[base] = struct{}{}
		entry.Bases = append(entry.Bases, base)
	}
	return entry
}

// Namespace 按全名查找命名空间
func (r *Registry) Namespace(name string) (*NamespaceNode, bool) {
	ns, ok := r.namespaces[normalizeNamespace(name)]
	return ns, ok
}

// Lookup 按 QN 查找类型
func (r *Registry) Lookup(qn string) (*TypeEntry, bool) {
	entry, ok := r.types[qn]
	return entry, ok
}

// Classes 返回所有类，按插入顺序
func (r *Registry) Classes() []*TypeEntry { return r.typesOfKind(model.Class) }

// Interfaces 返回所有接口，按插入顺序
func (r *Registry) Interfaces() []*TypeEntry { return r.typesOfKind(model.Interface) }

func (r *Registry) typesOfKind(kind model.ElementKind) []*TypeEntry {
	var result []*TypeEntry
	for _, qn := range r.typeOrder {
		if entry := r.types[qn]; entry.Kind == kind {
			result = append(result, entry)
		}
	}
	return result
}

// Conflicts 返回记录下的种类冲突
func (r *Registry) Conflicts() []KindConflict {
	return append([]KindConflict(nil), r.conflicts...)
}

// Len 返回类型数量
func (r *Registry) Len() int { return len(r.typeOrder) }

func normalizeNamespace(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "global::")
	return strings.Trim(name, ".")
}
