package golang

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"github.com/CodMac/uml-lens/core"
	"github.com/CodMac/uml-lens/model"
	"github.com/CodMac/uml-lens/parser"
)

func init() {
	core.RegisterExtractor(core.LangGo, NewGoExtractor(), ".go")
}

// Extractor 将 Go 的 struct 映射为类、interface 映射为接口，
// 嵌入字段/嵌入接口视为继承，方法挂到接收者类型上（可跨文件合并）
type Extractor struct{}

func NewGoExtractor() *Extractor {
	return &Extractor{}
}

type fileContext struct {
	filePath    string
	packageName string
	namespace   string
	source      []byte
	order       []string
	decls       map[string]*model.Declaration
}

func (e *Extractor) Extract(fileName string, content []byte) ([]*model.Declaration, error) {
	tree, err := parser.ParseWith(tree_sitter_go.Language(), content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fileName, err)
	}
	defer tree.Close()

	fCtx := &fileContext{filePath: fileName, source: content, decls: make(map[string]*model.Declaration)}
	root := tree.RootNode()
	if pkg := parser.FindChildOfKind(root, "package_clause"); pkg != nil {
		fCtx.packageName = parser.CompactContent(parser.FindChildOfKind(pkg, "package_identifier"), content)
	}
	fCtx.namespace = packageNamespace(fileName, fCtx.packageName)

	for _, child := range parser.NamedChildren(root) {
		switch child.Kind() {
		case "type_declaration":
			for _, spec := range parser.ChildrenOfKind(child, "type_spec") {
				e.collectTypeSpec(spec, fCtx)
			}
		case "method_declaration":
			e.collectMethod(child, fCtx)
		}
	}

	result := make([]*model.Declaration, 0, len(fCtx.order))
	for _, name := range fCtx.order {
		result = append(result, fCtx.decls[name])
	}
	return result, nil
}

// packageNamespace 以文件所在目录（相对扫描根目录）作为命名空间，区分同名包。
// 目录名与包名不同时（如 cmd/server 下的 main）追加包名，
// 使包名仍是命名空间的最后一段；根目录下的文件只使用包名。
func packageNamespace(fileName, pkg string) string {
	var segs []string
	for _, seg := range strings.Split(path.Dir(filepath.ToSlash(fileName)), "/") {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		segs = append(segs, strings.ReplaceAll(seg, ".", "_"))
	}
	if pkg != "" && (len(segs) == 0 || segs[len(segs)-1] != pkg) {
		segs = append(segs, pkg)
	}
	return strings.Join(segs, ".")
}

// declFor 按名称取得（或创建）本文件中的声明，保持首次出现顺序
func (fCtx *fileContext) declFor(name string, node *sitter.Node) *model.Declaration {
	if d, ok := fCtx.decls[name]; ok {
		return d
	}
	start, end := parser.Lines(node)
	d := &model.Declaration{
		Namespace: fCtx.namespace,
		Name:      name,
		Kind:      model.Class,
		Location:  &model.Location{FilePath: fCtx.filePath, StartLine: start, EndLine: end},
	}
	fCtx.decls[name] = d
	fCtx.order = append(fCtx.order, name)
	return d
}

func (e *Extractor) collectTypeSpec(spec *sitter.Node, fCtx *fileContext) {
	name := parser.FieldContent(spec, "name", fCtx.source)
	typeNode := spec.ChildByFieldName("type")
	if name == "" || typeNode == nil {
		return
	}

	switch typeNode.Kind() {
	case "struct_type":
		decl := fCtx.declFor(name, spec)
		e.collectStructFields(typeNode, decl, fCtx)
	case "interface_type":
		decl := fCtx.declFor(name, spec)
		decl.Kind = model.Interface
		e.collectInterfaceElems(typeNode, decl, fCtx)
	}
}

func (e *Extractor) collectStructFields(structNode *sitter.Node, decl *model.Declaration, fCtx *fileContext) {
	src := fCtx.source
	list := parser.FindChildOfKind(structNode, "field_declaration_list")
	for _, field := range parser.ChildrenOfKind(list, "field_declaration") {
		typ := parser.FieldContent(field, "type", src)
		names := parser.ChildrenOfKind(field, "field_identifier")
		if len(names) == 0 {
			// 嵌入字段
			decl.Bases = append(decl.Bases, model.BaseRef{Name: strings.TrimPrefix(typ, "*"), Relation: model.Extend})
			continue
		}
		for _, n := range names {
			fieldName := parser.Content(n, src)
			decl.Members = append(decl.Members, model.DataMember(visibility(fieldName), fieldName, typ, model.MemberFlags{}))
		}
	}
}

func (e *Extractor) collectInterfaceElems(ifaceNode *sitter.Node, decl *model.Declaration, fCtx *fileContext) {
	src := fCtx.source
	for _, elem := range parser.NamedChildren(ifaceNode) {
		switch elem.Kind() {
		case "method_elem", "method_spec":
			name := parser.FieldContent(elem, "name", src)
			decl.Members = append(decl.Members, model.CallableMember(visibility(name), name,
				e.params(elem.ChildByFieldName("parameters"), src), parser.FieldContent(elem, "result", src), model.MemberFlags{}))
		case "type_elem", "constraint_elem", "interface_type_name", "qualified_type", "type_identifier":
			// 嵌入接口；联合类型约束 (A | B) 不构成继承
			text := parser.CompactContent(elem, src)
			if text != "" && !strings.ContainsAny(text, "|~") {
				decl.Bases = append(decl.Bases, model.BaseRef{Name: text, Relation: model.Extend})
			}
		}
	}
}

func (e *Extractor) collectMethod(node *sitter.Node, fCtx *fileContext) {
	src := fCtx.source
	recvType := receiverType(node.ChildByFieldName("receiver"), src)
	name := parser.FieldContent(node, "name", src)
	if recvType == "" || name == "" {
		return
	}
	decl := fCtx.declFor(recvType, node)
	decl.Members = append(decl.Members, model.CallableMember(visibility(name), name,
		e.params(node.ChildByFieldName("parameters"), src), parser.FieldContent(node, "result", src), model.MemberFlags{}))
}

func (e *Extractor) params(list *sitter.Node, src []byte) []string {
	var params []string
	for _, p := range parser.ChildrenOfKind(list, "parameter_declaration", "variadic_parameter_declaration") {
		typ := parser.FieldContent(p, "type", src)
		if p.Kind() == "variadic_parameter_declaration" {
			typ = "..." + typ
		}
		names := parser.ChildrenOfKind(p, "identifier")
		if len(names) == 0 {
			params = append(params, typ)
			continue
		}
		for _, n := range names {
			params = append(params, model.Param(parser.Content(n, src), typ))
		}
	}
	return params
}

// receiverType 取接收者的基础类型名: (s *Server[T]) -> Server
func receiverType(recv *sitter.Node, src []byte) string {
	decl := parser.FindChildOfKind(recv, "parameter_declaration")
	typ := parser.FieldContent(decl, "type", src)
	typ = strings.TrimPrefix(typ, "*")
	if i := strings.IndexByte(typ, '['); i >= 0 {
		typ = typ[:i]
	}
	return strings.TrimSpace(typ)
}

// visibility 导出标识符为 public，否则为 private
func visibility(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(r) {
		return "public"
	}
	return "private"
}
