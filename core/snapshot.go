package core

import (
	"strings"
	"unicode"

	"github.com/CodMac/uml-lens/model"
)

// Snapshot 是注册表的只读有序视图，序列化器只依赖它
type Snapshot struct {
	Namespaces []*NamespaceView // 根命名空间，按插入顺序
	Edges      []ResolvedEdge   // 按命名空间深度优先、类型插入、基类书写顺序
}

// NamespaceView 是快照中的命名空间
type NamespaceView struct {
	Name      string
	ShortName string
	Types     []*TypeEntry
	Nested    []*NamespaceView
}

// ResolvedEdge 是已推断出关系种类的边。
// Target 为空表示目标未注册（悬空引用），此时使用 TargetName。
type ResolvedEdge struct {
	Source     *TypeEntry
	Target     *TypeEntry
	TargetName string
	Relation   model.RelationKind // Extend / Implement / Nest
}

// Snapshot 生成稳定顺序的视图。对未修改的注册表多次调用结果一致。
func (r *Registry) Snapshot() *Snapshot {
	snap := &Snapshot{}
	for _, name := range r.roots {
		snap.Namespaces = append(snap.Namespaces, r.viewOf(r.namespaces[name], snap))
	}
	return snap
}

func (r *Registry) viewOf(ns *NamespaceNode, snap *Snapshot) *NamespaceView {
	view := &NamespaceView{Name: ns.Name, ShortName: ns.ShortName()}
	for _, qn := range ns.Types {
		entry := r.types[qn]
		view.Types = append(view.Types, entry)
		for _, base := range entry.Bases {
			snap.Edges = append(snap.Edges, r.resolveEdge(entry, base))
		}
	}
	for _, nested := range ns.Nested {
		view.Nested = append(view.Nested, r.viewOf(r.namespaces[nested], snap))
	}
	return view
}

// Resolve 将书写名称解析为已注册类型：
// 1. 精确 QN; 2. 自身 QN 及其祖先前缀（外部类型、所属命名空间）; 3. 唯一短名称匹配
func (r *Registry) Resolve(owner *TypeEntry, written string) (*TypeEntry, bool) {
	name := bareTypeName(written)
	if name == "" {
		return nil, false
	}
	if entry, ok := r.types[name]; ok {
		return entry, true
	}

	if owner != nil {
		for scope := owner.QualifiedName; scope != ""; scope = parentNamespace(scope) {
			if entry, ok := r.types[model.BuildQualifiedName(scope, name)]; ok {
				return entry, true
			}
		}
	}

	short := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		short = name[i+1:]
	}
	if candidates := r.bySN[short]; len(candidates) == 1 {
		entry := r.types[candidates[0]]
		if short == name || strings.HasSuffix(entry.QualifiedName, "."+name) {
			return entry, true
		}
	}
	return nil, false
}

func (r *Registry) resolveEdge(source *TypeEntry, base model.BaseRef) ResolvedEdge {
	edge := ResolvedEdge{Source: source, TargetName: bareTypeName(base.Name), Relation: base.Relation}
	if target, ok := r.Resolve(source, base.Name); ok {
		edge.Target = target
		edge.TargetName = target.QualifiedName
	}

	switch edge.Relation {
	case model.Extend, model.Nest:
	case model.Implement:
		if source.Kind == model.Interface {
			edge.Relation = model.Extend
		}
	default:
		edge.Relation = inferRelation(source, edge)
	}
	return edge
}

// inferRelation 处理语法上无法区分继承与实现的基类引用
func inferRelation(source *TypeEntry, edge ResolvedEdge) model.RelationKind {
	if source.Kind == model.Interface {
		return model.Extend
	}
	if edge.Target != nil {
		if edge.Target.Kind == model.Interface {
			return model.Implement
		}
		return model.Extend
	}
	if LooksLikeInterface(edge.TargetName) {
		return model.Implement
	}
	return model.Extend
}

// LooksLikeInterface 按 .NET 命名约定判断 (IFoo)
func LooksLikeInterface(name string) bool {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	runes := []rune(name)
	return len(runes) >= 2 && runes[0] == 'I' && unicode.IsUpper(runes[1])
}

// bareTypeName 去掉泛型参数、global:: 前缀与可空标记
func bareTypeName(written string) string {
	name := strings.TrimSpace(written)
	name = strings.TrimPrefix(name, "global::")
	if i := strings.IndexAny(name, "<["); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSuffix(name, "?")
	return strings.TrimSpace(name)
}

func parentNamespace(ns string) string {
	if i := strings.LastIndexByte(ns, '.'); i >= 0 {
		return ns[:i]
	}
	return ""
}
