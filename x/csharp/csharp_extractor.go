package csharp

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"

	"github.com/CodMac/uml-lens/core"
	"github.com/CodMac/uml-lens/model"
	"github.com/CodMac/uml-lens/parser"
)

func init() {
	core.RegisterExtractor(core.LangCSharp, NewCSharpExtractor(), ".cs")
}

type Extractor struct{}

func NewCSharpExtractor() *Extractor {
	return &Extractor{}
}

// fileWalker 保存单个文件遍历期间的状态
type fileWalker struct {
	filePath string
	source   []byte
	decls    []*model.Declaration
}

// ==========================================
// 1. 核心生命周期 (Core Workflow)
// ==========================================

func (e *Extractor) Extract(fileName string, content []byte) ([]*model.Declaration, error) {
	tree, err := parser.ParseWith(tree_sitter_csharp.Language(), content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fileName, err)
	}
	defer tree.Close()

	w := &fileWalker{filePath: fileName, source: content}
	w.walkScope(tree.RootNode(), "", "")
	return w.decls, nil
}

// walkScope 遍历 compilation_unit / declaration_list，
// 命名空间可以嵌套，也可以是文件级 (namespace Foo;)
func (w *fileWalker) walkScope(node *sitter.Node, namespace, outer string) {
	for _, child := range parser.NamedChildren(node) {
		switch child.Kind() {
		case "namespace_declaration":
			name := parser.FieldContent(child, "name", w.source)
			body := child.ChildByFieldName("body")
			if body == nil {
				body = parser.FindChildOfKind(child, "declaration_list")
			}
			w.walkScope(body, model.BuildQualifiedName(namespace, name), "")
		case "file_scoped_namespace_declaration":
			// 之后的兄弟节点都属于该命名空间；新版语法把声明挂在该节点之下
			namespace = model.BuildQualifiedName(namespace, parser.FieldContent(child, "name", w.source))
			w.walkScope(child, namespace, "")
		case "declaration_list":
			w.walkScope(child, namespace, outer)
		default:
			if isTypeDeclaration(child.Kind()) {
				w.collectType(child, namespace, outer)
			}
		}
	}
}

// ==========================================
// 2. 类型声明 (Type Declarations)
// ==========================================

func (w *fileWalker) collectType(node *sitter.Node, namespace, outer string) {
	name := parser.FieldContent(node, "name", w.source)
	if name == "" {
		return
	}

	mods := w.modifiers(node)
	decl := &model.Declaration{
		Namespace: namespace,
		Name:      name,
		Outer:     outer,
		Kind:      model.Class,
		Location:  w.location(node),
	}

	switch node.Kind() {
	case "interface_declaration":
		decl.Kind = model.Interface
	case "struct_declaration", "record_struct_declaration":
		decl.Stereotype = "struct"
	case "record_declaration":
		decl.Stereotype = "record"
	case "enum_declaration":
		decl.Stereotype = "enum"
	}
	decl.Abstract = decl.Kind == model.Class && contains(mods, "abstract")
	decl.Bases = w.bases(node, decl)
	if outer != "" {
		decl.Bases = append(decl.Bases, model.BaseRef{Name: outer, Relation: model.Nest})
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		body = parser.FindChildOfKind(node, "declaration_list")
	}
	if body == nil {
		body = parser.FindChildOfKind(node, "enum_member_declaration_list")
	}

	var nested []*sitter.Node
	for _, member := range parser.NamedChildren(body) {
		if isTypeDeclaration(member.Kind()) {
			nested = append(nested, member)
			continue
		}
		decl.Members = append(decl.Members, w.members(member, decl)...)
	}

	// 先登记外部类型，再处理内部类型，保证注册顺序与源码一致
	w.decls = append(w.decls, decl)
	for _, n := range nested {
		w.collectType(n, namespace, model.BuildQualifiedName(outer, name))
	}
}

// bases 解析 base_list：接口的基类型均为继承；
// 结构体只能实现接口；类/记录的第一个基类型无法从语法判断，标记为 Unknown
func (w *fileWalker) bases(node *sitter.Node, decl *model.Declaration) []model.BaseRef {
	if decl.Stereotype == "enum" {
		return nil // enum E : byte 是底层类型
	}
	list := node.ChildByFieldName("bases")
	if list == nil {
		list = parser.FindChildOfKind(node, "base_list")
	}

	var refs []model.BaseRef
	for _, child := range parser.NamedChildren(list) {
		if child.Kind() == "argument_list" {
			continue
		}
		target := child
		if child.Kind() == "primary_constructor_base_type" {
			if t := child.ChildByFieldName("type"); t != nil {
				target = t
			} else if named := parser.NamedChildren(child); len(named) > 0 {
				target = named[0]
			}
		}
		name := parser.CompactContent(target, w.source)
		if name == "" {
			continue
		}

		rel := model.Implement
		switch {
		case decl.Kind == model.Interface:
			rel = model.Extend
		case decl.Stereotype == "struct":
			rel = model.Implement
		case len(refs) == 0:
			rel = model.Unknown
		}
		refs = append(refs, model.BaseRef{Name: name, Relation: rel})
	}
	return refs
}

// ==========================================
// 3. 成员 (Members)
// ==========================================

func (w *fileWalker) members(node *sitter.Node, owner *model.Declaration) []model.Member {
	mods := w.modifiers(node)
	access := w.access(mods, owner)
	flags := model.MemberFlags{
		Static:   contains(mods, "static") || contains(mods, "const"),
		Abstract: contains(mods, "abstract"),
	}

	switch node.Kind() {
	case "field_declaration", "event_field_declaration":
		varDecl := parser.FindChildOfKind(node, "variable_declaration")
		typ := parser.FieldContent(varDecl, "type", w.source)
		var result []model.Member
		for _, declarator := range parser.ChildrenOfKind(varDecl, "variable_declarator") {
			name := parser.FieldContent(declarator, "name", w.source)
			if name == "" {
				name = parser.Content(parser.FindChildOfKind(declarator, "identifier"), w.source)
			}
			if name != "" {
				result = append(result, model.DataMember(access, name, typ, flags))
			}
		}
		return result
	case "property_declaration":
		name := parser.FieldContent(node, "name", w.source)
		return []model.Member{model.DataMember(access, name, parser.FieldContent(node, "type", w.source), flags)}
	case "method_declaration":
		result := parser.FieldContent(node, "returns", w.source)
		if result == "" {
			result = parser.FieldContent(node, "type", w.source)
		}
		name := parser.FieldContent(node, "name", w.source)
		return []model.Member{model.CallableMember(access, name, w.params(node), result, flags)}
	case "constructor_declaration":
		name := parser.FieldContent(node, "name", w.source)
		return []model.Member{model.CallableMember(access, name, w.params(node), "", flags)}
	case "enum_member_declaration":
		name := parser.FieldContent(node, "name", w.source)
		if name == "" {
			name = parser.Content(parser.FindChildOfKind(node, "identifier"), w.source)
		}
		return []model.Member{model.DataMember("public", name, "", model.MemberFlags{})}
	}
	return nil
}

func (w *fileWalker) params(node *sitter.Node) []string {
	list := node.ChildByFieldName("parameters")
	if list == nil {
		list = parser.FindChildOfKind(node, "parameter_list")
	}
	var params []string
	for _, p := range parser.ChildrenOfKind(list, "parameter") {
		params = append(params, model.Param(parser.FieldContent(p, "name", w.source), parser.FieldContent(p, "type", w.source)))
	}
	return params
}

// ==========================================
// 4. 工具函数 (Helpers)
// ==========================================

func (w *fileWalker) modifiers(node *sitter.Node) []string {
	var mods []string
	for _, m := range parser.ChildrenOfKind(node, "modifier") {
		mods = append(mods, strings.TrimSpace(parser.Content(m, w.source)))
	}
	return mods
}

// access 按源码顺序拼接访问修饰符；接口与枚举成员默认 public
func (w *fileWalker) access(mods []string, owner *model.Declaration) string {
	var parts []string
	for _, m := range mods {
		switch m {
		case "public", "private", "protected", "internal", "file":
			parts = append(parts, m)
		}
	}
	if len(parts) == 0 && (owner.Kind == model.Interface || owner.Stereotype == "enum") {
		return "public"
	}
	return model.NormalizeAccess(strings.Join(parts, " "))
}

func (w *fileWalker) location(node *sitter.Node) *model.Location {
	start, end := parser.Lines(node)
	return &model.Location{FilePath: w.filePath, StartLine: start, EndLine: end}
}

func isTypeDeclaration(kind string) bool {
	switch kind {
	case "class_declaration", "interface_declaration", "struct_declaration",
		"record_declaration", "record_struct_declaration", "enum_declaration":
		return true
	}
	return false
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
