package output

import (
	"fmt"
	"strings"

	"github.com/CodMac/uml-lens/core"
	"github.com/CodMac/uml-lens/model"
)

// MermaidSerializer 输出 Mermaid classDiagram 文本。
// 命名空间被展平，节点 ID 由 QN 转换而来，标签保留短名称。
type MermaidSerializer struct {
	Access model.AccessTable
}

func NewMermaidSerializer(access model.AccessTable) *MermaidSerializer {
	return &MermaidSerializer{Access: access}
}

func (s *MermaidSerializer) Serialize(snap *core.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("classDiagram\n")
	if snap == nil {
		return sb.String()
	}

	var walk func(ns *core.NamespaceView)
	walk = func(ns *core.NamespaceView) {
		for _, t := range ns.Types {
			s.emitType(&sb, t)
		}
		for _, nested := range ns.Nested {
			walk(nested)
		}
	}
	for _, ns := range snap.Namespaces {
		walk(ns)
	}

	for _, edge := range snap.Edges {
		src, tgt := safeID(edge.Source.QualifiedName), safeID(edge.TargetName)
		if src == tgt {
			continue
		}
		switch edge.Relation {
		case model.Implement:
			fmt.Fprintf(&sb, "  %s ..|> %s\n", src, tgt)
		case model.Nest:
			fmt.Fprintf(&sb, "  %s *-- %s\n", tgt, src)
		default:
			fmt.Fprintf(&sb, "  %s --|> %s\n", src, tgt)
		}
	}
	return sb.String()
}

func (s *MermaidSerializer) emitType(sb *strings.Builder, t *core.TypeEntry) {
	fmt.Fprintf(sb, "  class %s[\"%s\"] {\n", safeID(t.QualifiedName), escapeLabel(t.Name))
	for _, ann := range annotations(t) {
		fmt.Fprintf(sb, "    <<%s>>\n", ann)
	}
	for _, m := range t.Members {
		fmt.Fprintf(sb, "    %c%s\n", s.Access.Glyph(m.Access), mermaidMember(m.Text))
	}
	sb.WriteString("  }\n")
}

func annotations(t *core.TypeEntry) []string {
	var out []string
	switch {
	case t.Kind == model.Interface:
		out = append(out, "interface")
	case t.Abstract:
		out = append(out, "abstract")
	}
	if t.Stereotype != "" {
		out = append(out, t.Stereotype)
	}
	return out
}

// mermaidMember 把 {static}/{abstract} 前缀换成 Mermaid 的 $ / * 后缀，泛型尖括号换成 ~
func mermaidMember(text string) string {
	suffix := ""
	switch {
	case strings.HasPrefix(text, "{abstract} "):
		text, suffix = strings.TrimPrefix(text, "{abstract} "), "*"
	case strings.HasPrefix(text, "{static} "):
		text, suffix = strings.TrimPrefix(text, "{static} "), "$"
	}
	text = strings.NewReplacer("<", "~", ">", "~").Replace(text)
	return text + suffix
}

func safeID(id string) string {
	r := strings.NewReplacer(".", "_", "(", "_", ")", "_", "[", "_", "]", "_", " ", "_", "<", "_", ">", "_", ",", "_", "@", "at", "?", "_")
	return "n_" + r.Replace(id)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "'")
}
