// Package diagram 将注册表快照序列化为 PlantUML 文本
package diagram

import (
	"fmt"
	"strings"

	"github.com/CodMac/uml-lens/core"
	"github.com/CodMac/uml-lens/model"
)

// Serializer 将快照转换为图描述文本
type Serializer interface {
	Serialize(snap *core.Snapshot) string
}

// PlantUMLSerializer 按固定顺序输出命名空间、类型、成员和关系
type PlantUMLSerializer struct {
	notation Notation
}

func NewPlantUMLSerializer(notation Notation) *PlantUMLSerializer {
	return &PlantUMLSerializer{notation: notation}
}

// Serialize 只读取快照，不持有对模型的引用
func (s *PlantUMLSerializer) Serialize(snap *core.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(s.notation.StartMarker)
	sb.WriteByte('\n')

	if snap != nil {
		for _, ns := range snap.Namespaces {
			s.emitNamespace(&sb, ns, 0)
		}
		for _, edge := range snap.Edges {
			s.emitEdge(&sb, edge)
		}
	}

	sb.WriteString(s.notation.EndMarker)
	return sb.String()
}

// emitNamespace 先输出类型，再深度优先输出嵌套命名空间。
// 全局命名空间不包裹 namespace 块。
func (s *PlantUMLSerializer) emitNamespace(sb *strings.Builder, ns *core.NamespaceView, depth int) {
	inner := depth
	if ns.Name != "" {
		s.line(sb, depth, fmt.Sprintf("namespace %s {", ns.ShortName))
		inner = depth + 1
	}

	for _, t := range ns.Types {
		s.emitType(sb, t, inner)
	}
	for _, nested := range ns.Nested {
		s.emitNamespace(sb, nested, inner)
	}

	if ns.Name != "" {
		s.line(sb, depth, "}")
	}
}

func (s *PlantUMLSerializer) emitType(sb *strings.Builder, t *core.TypeEntry, depth int) {
	s.line(sb, depth, typeHeader(t)+" {")
	for _, m := range t.Members {
		s.line(sb, depth+1, string(s.notation.Access.Glyph(m.Access))+m.Text)
	}
	s.line(sb, depth, "}")
}

func (s *PlantUMLSerializer) emitEdge(sb *strings.Builder, edge core.ResolvedEdge) {
	source := edge.Source.QualifiedName
	arrow := s.notation.arrow(edge.Relation)
	if edge.Relation == model.Nest {
		// 外部类型 +-- 内部类型
		s.line(sb, 0, fmt.Sprintf("%s %s %s", edge.TargetName, arrow, source))
		return
	}
	s.line(sb, 0, fmt.Sprintf("%s %s %s", source, arrow, edge.TargetName))
}

func (s *PlantUMLSerializer) line(sb *strings.Builder, depth int, text string) {
	sb.WriteString(strings.Repeat(s.notation.Indent, depth))
	sb.WriteString(text)
	sb.WriteByte('\n')
}

func typeHeader(t *core.TypeEntry) string {
	name := t.Name
	if t.Outer != "" {
		// 内部类型以 QN 作别名，避免同名内部类型在同一命名空间中冲突
		name = `"` + t.Name + `" as ` + t.QualifiedName
	}
	header := t.Kind.Keyword() + " " + name
	if t.Abstract && t.Kind == model.Class {
		header = "abstract " + header
	}
	if t.Stereotype != "" {
		header += " <<" + t.Stereotype + ">>"
	}
	return header
}
